package imapsource

import (
	"strings"
	"testing"
	"time"

	"github.com/magicseth/donewithemail-sub001/internal/model"
)

func TestParseUnsubscribeTarget(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		mailto  string
		subject string
		url     string
	}{
		{
			name:    "mailto only",
			header:  "<mailto:leave@list.example>",
			mailto:  "leave@list.example",
			subject: "unsubscribe",
		},
		{
			name:    "mailto with subject",
			header:  "<mailto:leave@list.example?subject=stop>",
			mailto:  "leave@list.example",
			subject: "stop",
		},
		{
			name:    "both forms prefers mailto",
			header:  "<https://example.com/u/1>, <mailto:leave@list.example>",
			mailto:  "leave@list.example",
			subject: "unsubscribe",
			url:     "https://example.com/u/1",
		},
		{
			name:   "http only",
			header: "<https://example.com/u/1>",
			url:    "https://example.com/u/1",
		},
		{
			name:   "empty",
			header: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseUnsubscribeTarget(tt.header)
			if got.Mailto != tt.mailto {
				t.Errorf("Mailto = %q, want %q", got.Mailto, tt.mailto)
			}
			if got.Subject != tt.subject {
				t.Errorf("Subject = %q, want %q", got.Subject, tt.subject)
			}
			if got.URL != tt.url {
				t.Errorf("URL = %q, want %q", got.URL, tt.url)
			}
		})
	}
}

func TestEnvelopeToEmail(t *testing.T) {
	adapter := NewAdapter(model.AccountConfig{ID: "acct-1"}, "secret")

	env := Envelope{
		UID:             42,
		MessageID:       "<msg@example.com>",
		Subject:         "Weekly digest",
		FromName:        "The List",
		FromAddr:        "digest@list.example",
		Date:            time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		ListUnsubscribe: "<mailto:leave@list.example>",
		Snippet:         "This week in the list",
	}

	email := adapter.envelopeToEmail(env)

	if email.AccountID != "acct-1" {
		t.Errorf("AccountID = %q, want %q", email.AccountID, "acct-1")
	}
	if email.UID != 42 {
		t.Errorf("UID = %d, want 42", email.UID)
	}
	if !email.IsSubscription {
		t.Error("expected IsSubscription for message with List-Unsubscribe")
	}
	if email.Status != model.StatusInbox {
		t.Errorf("Status = %q, want %q", email.Status, model.StatusInbox)
	}
	if email.FetchedAt.IsZero() {
		t.Error("expected FetchedAt to be stamped")
	}
	if email.Snippet != "This week in the list" {
		t.Errorf("Snippet = %q, want carried through", email.Snippet)
	}

	plain := adapter.envelopeToEmail(Envelope{UID: 7, Subject: "hi"})
	if plain.IsSubscription {
		t.Error("message without list headers should not be a subscription")
	}
}

func TestOutgoingRender(t *testing.T) {
	msg := outgoing{
		from:    "me@example.com",
		to:      "you@example.com",
		headers: []string{"Subject: Re: hello", "In-Reply-To: <orig@example.com>"},
		body:    "thanks!",
	}

	wire := msg.render()

	for _, want := range []string{
		"From: me@example.com\r\n",
		"To: you@example.com\r\n",
		"Subject: Re: hello\r\n",
		"In-Reply-To: <orig@example.com>\r\n",
		"\r\n\r\nthanks!",
	} {
		if !strings.Contains(wire, want) {
			t.Errorf("rendered message missing %q:\n%s", want, wire)
		}
	}

	headerEnd := strings.Index(wire, "\r\n\r\n")
	if headerEnd < 0 {
		t.Fatal("no header/body separator")
	}
	if !strings.HasSuffix(wire, "thanks!") {
		t.Errorf("body not at end of message: %q", wire)
	}
}
