package imapsource

import (
	"fmt"
	"net/url"
	"strings"
)

// UnsubscribeTarget is the parsed form of a List-Unsubscribe header
// value (RFC 2369). A header may carry both a mailto and an http
// target; the mailto one is preferred because it can be acted on
// without user interaction.
type UnsubscribeTarget struct {
	// Mailto is the recipient address, if the header had a mailto URI.
	Mailto string

	// Subject is the subject the mailto URI requested, or a default.
	Subject string

	// URL is the http(s) target, if any.
	URL string
}

// ManualUnsubscribeError is returned when a message offers only an
// http unsubscribe link, which has to be opened by the user.
type ManualUnsubscribeError struct {
	URL string
}

func (e *ManualUnsubscribeError) Error() string {
	return fmt.Sprintf("unsubscribe requires visiting %s", e.URL)
}

// ParseUnsubscribeTarget extracts the actionable targets from a raw
// List-Unsubscribe header value such as
// "<mailto:leave@list.example?subject=stop>, <https://example.com/u/1>".
func ParseUnsubscribeTarget(header string) UnsubscribeTarget {
	var target UnsubscribeTarget

	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(part, "<")
		part = strings.TrimSuffix(part, ">")
		if part == "" {
			continue
		}

		switch {
		case strings.HasPrefix(part, "mailto:") && target.Mailto == "":
			u, err := url.Parse(part)
			if err != nil {
				continue
			}
			target.Mailto = u.Opaque
			target.Subject = u.Query().Get("subject")
			if target.Subject == "" {
				target.Subject = "unsubscribe"
			}

		case strings.HasPrefix(part, "http") && target.URL == "":
			target.URL = part
		}
	}

	return target
}
