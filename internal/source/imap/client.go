package imapsource

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message"

	"github.com/magicseth/donewithemail-sub001/internal/source"
)

// Envelope holds the triage-relevant data parsed from one IMAP message.
type Envelope struct {
	UID              uint32
	MessageID        string
	Subject          string
	FromName         string
	FromAddr         string
	Date             time.Time
	Flags            []string
	ListUnsubscribe  string
	ListID           string
	HasCalendarEvent bool
	Snippet          string
}

// Client wraps go-imap v2 for connecting to and querying an IMAP server.
type Client struct {
	accountID string
	host      string
	port      string
	username  string
	password  string
	tls       bool
}

// NewClient creates a new IMAP client configuration.
func NewClient(accountID, host, port, username, password string, tls bool) *Client {
	return &Client{
		accountID: accountID,
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		tls:       tls,
	}
}

// Connect establishes a connection to the IMAP server, authenticates,
// and returns the connected client. The caller is responsible for
// calling Logout on the returned client.
func (c *Client) Connect(_ context.Context) (*imapclient.Client, error) {
	addr := c.host + ":" + c.port

	var client *imapclient.Client
	var err error

	if c.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &source.AuthError{
			AccountID: c.accountID,
			Message: fmt.Sprintf(
				"authentication failed for %s: %v", c.username, err,
			),
		}
	}

	return client, nil
}

// listHeaderSection asks for only the headers the triage pipeline needs.
var listHeaderSection = &imap.FetchItemBodySection{
	Specifier:    imap.PartSpecifierHeader,
	HeaderFields: []string{"List-Unsubscribe", "List-Id"},
	Peek:         true,
}

// textSnippetSection peeks at the start of the body text so the list
// row can show a snippet without downloading the whole message.
var textSnippetSection = &imap.FetchItemBodySection{
	Specifier: imap.PartSpecifierText,
	Partial:   &imap.SectionPartial{Offset: 0, Size: 2048},
	Peek:      true,
}

// FetchRecent connects, selects INBOX, searches the recent window, and
// returns envelope data plus the subscription/calendar signals derived
// from headers and the body structure.
func (c *Client) FetchRecent(ctx context.Context, sinceDays, limit int) ([]Envelope, error) {
	client, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return nil, fmt.Errorf("selecting INBOX: %w", err)
	}

	if sinceDays <= 0 {
		sinceDays = 7
	}
	criteria := &imap.SearchCriteria{
		Since: time.Now().AddDate(0, 0, -sinceDays),
	}

	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	if limit > 0 && len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}

	fetchOpts := &imap.FetchOptions{
		Envelope:      true,
		Flags:         true,
		UID:           true,
		BodyStructure: &imap.FetchItemBodyStructure{},
		BodySection:   []*imap.FetchItemBodySection{listHeaderSection, textSnippetSection},
	}

	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), fetchOpts)
	defer fetchCmd.Close()

	var envelopes []Envelope
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			continue
		}

		envelopes = append(envelopes, envelopeFromBuffer(buf))
	}

	if err := fetchCmd.Close(); err != nil {
		return envelopes, fmt.Errorf("fetching envelopes: %w", err)
	}

	return envelopes, nil
}

// Archive connects to IMAP and moves the message into the archive
// mailbox, falling back to common archive folder names and finally to
// marking it deleted.
func (c *Client) Archive(ctx context.Context, uid uint32, archiveMailbox string) error {
	client, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return fmt.Errorf("selecting INBOX: %w", err)
	}

	uidSet := imap.UIDSetNum(imap.UID(uid))

	folders := []string{archiveMailbox, "Archive", "[Gmail]/All Mail", "Archives", "INBOX.Archive"}
	for _, folder := range folders {
		if folder == "" {
			continue
		}
		if _, err := client.Move(uidSet, folder).Wait(); err == nil {
			return nil
		}
	}

	storeCmd := client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}, nil)

	return storeCmd.Close()
}

// SetFlags connects to IMAP and modifies flags on a message.
func (c *Client) SetFlags(ctx context.Context, uid uint32, flags []imap.Flag, add bool) error {
	client, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return fmt.Errorf("selecting INBOX: %w", err)
	}

	op := imap.StoreFlagsAdd
	if !add {
		op = imap.StoreFlagsDel
	}

	storeCmd := client.Store(imap.UIDSetNum(imap.UID(uid)), &imap.StoreFlags{
		Op:     op,
		Silent: true,
		Flags:  flags,
	}, nil)

	return storeCmd.Close()
}

// envelopeFromBuffer extracts an Envelope from a FetchMessageBuffer,
// including the list headers and the calendar-part scan.
func envelopeFromBuffer(buf *imapclient.FetchMessageBuffer) Envelope {
	env := Envelope{
		UID: uint32(buf.UID),
	}

	if buf.Envelope != nil {
		env.MessageID = buf.Envelope.MessageID
		env.Subject = buf.Envelope.Subject
		env.Date = buf.Envelope.Date

		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			env.FromName = from.Name
			env.FromAddr = from.Addr()
		}
	}

	for _, flag := range buf.Flags {
		env.Flags = append(env.Flags, string(flag))
	}

	if raw := buf.FindBodySection(listHeaderSection); raw != nil {
		env.ListUnsubscribe, env.ListID = parseListHeaders(raw)
	}

	if raw := buf.FindBodySection(textSnippetSection); raw != nil {
		env.Snippet = snippetFromBody(raw)
	}

	if buf.BodyStructure != nil {
		buf.BodyStructure.Walk(func(_ []int, part imap.BodyStructure) bool {
			mediaType := part.MediaType()
			if strings.EqualFold(mediaType, "text/calendar") ||
				strings.EqualFold(mediaType, "application/ics") {
				env.HasCalendarEvent = true
				return false
			}
			return true
		})
	}

	return env
}

// snippetFromBody condenses the start of a TEXT section into one short
// line. A TEXT fetch of a multipart message includes MIME boundaries
// and part headers, so those lines are skipped, and markup is stripped
// so HTML-only mail still yields readable words.
func snippetFromBody(raw []byte) string {
	const maxLen = 120

	// Rejoin quoted-printable soft line breaks before splitting.
	text := strings.ReplaceAll(string(raw), "=\r\n", "")
	text = strings.ReplaceAll(text, "=\n", "")

	var words []string
	total := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))
		if line == "" ||
			strings.HasPrefix(line, "--") ||
			strings.HasPrefix(line, "Content-") ||
			strings.HasPrefix(line, "MIME-Version") ||
			strings.HasPrefix(line, "<!") {
			continue
		}
		for _, w := range strings.Fields(stripTags(line)) {
			if total+len(w)+1 > maxLen {
				return strings.Join(words, " ") + "…"
			}
			words = append(words, w)
			total += len(w) + 1
		}
	}
	return strings.Join(words, " ")
}

// stripTags removes angle-bracket spans from a line of possible HTML.
func stripTags(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseListHeaders reads the List-Unsubscribe and List-Id values out of
// a raw header section.
func parseListHeaders(raw []byte) (unsubscribe, listID string) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return "", ""
	}
	if entity == nil {
		return "", ""
	}
	return entity.Header.Get("List-Unsubscribe"), entity.Header.Get("List-Id")
}
