package ai

import (
	"strings"
	"testing"

	"github.com/magicseth/donewithemail-sub001/internal/model"
)

func TestParseEnrichment(t *testing.T) {
	got, err := parseEnrichment(`{"summary": "Weekly product update.", ` +
		`"category": "newsletter", "accept_calendar": false}`)
	if err != nil {
		t.Fatalf("parseEnrichment() error: %v", err)
	}
	if got.Summary != "Weekly product update." {
		t.Errorf("Summary = %q", got.Summary)
	}
	if got.Category != model.CategoryNewsletter {
		t.Errorf("Category = %q, want newsletter", got.Category)
	}
	if got.AcceptCalendar {
		t.Error("AcceptCalendar should be false")
	}
}

func TestParseEnrichmentCodeFence(t *testing.T) {
	got, err := parseEnrichment("```json\n" +
		`{"summary": "Team sync invite.", "category": "calendar", "accept_calendar": true}` +
		"\n```")
	if err != nil {
		t.Fatalf("parseEnrichment() error: %v", err)
	}
	if got.Category != model.CategoryCalendar {
		t.Errorf("Category = %q, want calendar", got.Category)
	}
	if !got.AcceptCalendar {
		t.Error("AcceptCalendar should be true")
	}
}

func TestParseEnrichmentUnknownCategory(t *testing.T) {
	got, err := parseEnrichment(`{"summary": "x", "category": "spam"}`)
	if err != nil {
		t.Fatalf("parseEnrichment() error: %v", err)
	}
	if got.Category != model.CategoryOther {
		t.Errorf("Category = %q, want other for unknown input", got.Category)
	}
}

func TestParseEnrichmentNoJSON(t *testing.T) {
	if _, err := parseEnrichment("sorry, I cannot help with that"); err == nil {
		t.Fatal("expected error for reply without JSON")
	}
}

func TestBuildEnrichPrompt(t *testing.T) {
	email := model.Email{
		FromName:         "Ann",
		FromAddr:         "ann@example.com",
		Subject:          "Lunch Friday?",
		Snippet:          "Are you free around noon?",
		HasCalendarEvent: true,
	}

	prompt := buildEnrichPrompt(email)

	for _, want := range []string{"Ann", "Lunch Friday?", "Calendar attachment: yes", "Are you free"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
