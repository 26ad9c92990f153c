package triage

import (
	"strings"
	"testing"
)

func TestRegistryOrderAndIdentity(t *testing.T) {
	ts := Targets()
	if len(ts) != 4 {
		t.Fatalf("registry has %d targets, want 4", len(ts))
	}

	want := []TargetID{TargetDone, TargetReply, TargetMic, TargetUnsubscribe}
	for i, id := range want {
		if ts[i].ID != id {
			t.Fatalf("registry[%d] = %s, want %s", i, ts[i].ID, id)
		}
		if TargetByID(id).ID != id {
			t.Fatalf("TargetByID(%s) resolved %s", id, TargetByID(id).ID)
		}
	}
}

func TestRegistryValidatesAgainstDefaults(t *testing.T) {
	if err := ValidateTargets(DefaultGeometry(80), Targets()); err != nil {
		t.Fatalf("default registry invalid: %v", err)
	}
}

func TestValidateTargetsDuplicateID(t *testing.T) {
	err := ValidateTargets(specGeometry(), []Target{
		{ID: TargetDone, Position: -100},
		{ID: TargetDone, Position: 100},
	})
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("err = %v, want duplicate id error", err)
	}
}

func TestValidateTargetsOverlap(t *testing.T) {
	err := ValidateTargets(specGeometry(), []Target{
		{ID: TargetDone, Position: 0},
		{ID: TargetReply, Position: 40}, // gap 40 < 2*30
	})
	if err == nil || !strings.Contains(err.Error(), "overlap") {
		t.Fatalf("err = %v, want overlap error", err)
	}
}

func TestVisibility(t *testing.T) {
	unsub := TargetByID(TargetUnsubscribe)
	if IsVisible(unsub, Flags{}) {
		t.Fatalf("unsubscribe visible for non-subscription email")
	}
	if !IsVisible(unsub, Flags{Subscription: true}) {
		t.Fatalf("unsubscribe hidden for subscription email")
	}
	for _, id := range []TargetID{TargetDone, TargetReply, TargetMic} {
		if !IsVisible(TargetByID(id), Flags{}) {
			t.Fatalf("%s should be unconditionally visible", id)
		}
	}
}

func TestEffectivePositionCalendarShift(t *testing.T) {
	done := TargetByID(TargetDone)

	if got := EffectivePosition(done, Flags{}); got != done.Position {
		t.Fatalf("base position = %v, want %v", got, done.Position)
	}

	// The shift needs both the invite and the accept prediction.
	partial := EffectivePosition(done, Flags{HasCalendarEvent: true})
	if partial != done.Position {
		t.Fatalf("position shifted without accept prediction: %v", partial)
	}

	shifted := EffectivePosition(done, Flags{HasCalendarEvent: true, AcceptCalendar: true})
	if shifted != done.Position+done.CalendarShift {
		t.Fatalf("shifted position = %v, want %v", shifted, done.Position+done.CalendarShift)
	}

	// Non-calendar-aware targets never move.
	reply := TargetByID(TargetReply)
	if EffectivePosition(reply, Flags{HasCalendarEvent: true, AcceptCalendar: true}) != reply.Position {
		t.Fatalf("reply moved on calendar flags")
	}
}

func TestTargetIDString(t *testing.T) {
	names := map[TargetID]string{
		TargetDone:        "done",
		TargetReply:       "reply",
		TargetMic:         "mic",
		TargetUnsubscribe: "unsubscribe",
	}
	for id, want := range names {
		if id.String() != want {
			t.Fatalf("%d.String() = %q, want %q", int(id), id.String(), want)
		}
	}
}
