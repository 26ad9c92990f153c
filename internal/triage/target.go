package triage

import (
	"errors"
	"fmt"
)

// TargetID enumerates the triage actions. The set is closed: every switch
// over a TargetID covers all four cases with no fallback.
type TargetID int

const (
	TargetDone TargetID = iota
	TargetReply
	TargetMic
	TargetUnsubscribe
)

// String returns the stable identifier used in logs and the audit trail.
func (id TargetID) String() string {
	switch id {
	case TargetDone:
		return "done"
	case TargetReply:
		return "reply"
	case TargetMic:
		return "mic"
	case TargetUnsubscribe:
		return "unsubscribe"
	default:
		return fmt.Sprintf("target(%d)", int(id))
	}
}

// Flags captures the per-email context that gates target visibility and
// shifts effective positions. It is derived from the active row's email
// and never mutated by the gesture engine.
type Flags struct {
	// Subscription is true when the email is a mailing-list subscription.
	Subscription bool

	// HasCalendarEvent is true when the email carries a calendar invite.
	HasCalendarEvent bool

	// AcceptCalendar is the AI prediction that the user will accept
	// the invite.
	AcceptCalendar bool
}

// Target is one immutable triage drop-zone. Identity and base position
// never change at runtime; only visibility and effective position are
// computed per email, per frame.
type Target struct {
	ID TargetID

	// Position is the horizontal offset from the screen's center,
	// negative meaning left of center.
	Position float64

	// Icon and Label are presentation only.
	Icon  string
	Label string

	// SubscriptionOnly hides the target for non-subscription emails.
	SubscriptionOnly bool

	// CalendarShift is added to Position when the active email carries
	// a calendar event the AI predicts will be accepted, making room
	// for the calendar affordance. Zero means not calendar-aware.
	CalendarShift float64
}

// targets is the canonical registry. Order doubles as hit priority: when
// two activation radii contain the indicator, the earlier entry wins.
var targets = [...]Target{
	{ID: TargetDone, Position: -8, Icon: "✓", Label: "done", CalendarShift: -6},
	{ID: TargetReply, Position: 8, Icon: "↩", Label: "reply"},
	{ID: TargetMic, Position: 24, Icon: "●", Label: "note"},
	{ID: TargetUnsubscribe, Position: -24, Icon: "✕", Label: "unsub", SubscriptionOnly: true},
}

// Targets returns the ordered registry. Callers must treat the result as
// read-only. The slice is re-derived from the canonical array on every
// call so no consumer can hold a stale copy.
func Targets() []Target {
	return targets[:]
}

// TargetByID resolves a target from the closed enumeration.
func TargetByID(id TargetID) Target {
	switch id {
	case TargetDone:
		return targets[0]
	case TargetReply:
		return targets[1]
	case TargetMic:
		return targets[2]
	default:
		return targets[3]
	}
}

// IsVisible reports whether the target is eligible for the given email
// context. Subscription-only targets are hidden for non-subscription
// emails; all others are visible unconditionally.
func IsVisible(t Target, flags Flags) bool {
	if t.SubscriptionOnly {
		return flags.Subscription
	}
	return true
}

// EffectivePosition resolves the target's horizontal offset for this
// frame. Calendar-aware targets shift when the active email carries an
// invite the AI predicts will be accepted; identity and registry-order
// priority are unaffected.
func EffectivePosition(t Target, flags Flags) float64 {
	if t.CalendarShift != 0 && flags.HasCalendarEvent && flags.AcceptCalendar {
		return t.Position + t.CalendarShift
	}
	return t.Position
}

// Geometry validation errors. These are configuration mistakes and are
// reported at startup, never at gesture time.
var (
	errNonPositiveRadius = errors.New("triage: radii must be positive")
	errRadiusOrder       = errors.New("triage: activation radius must be below proximity radius")
	errNonPositiveRow    = errors.New("triage: row height must be positive")
)

// ValidateTargets checks the registry against the geometry constants:
// duplicate ids and base positions whose activation radii overlap are
// startup errors.
func ValidateTargets(g Geometry, ts []Target) error {
	if err := g.Validate(); err != nil {
		return err
	}

	seen := make(map[TargetID]bool, len(ts))
	for _, t := range ts {
		if seen[t.ID] {
			return fmt.Errorf("triage: duplicate target id %s", t.ID)
		}
		seen[t.ID] = true
	}

	for i, a := range ts {
		for _, b := range ts[i+1:] {
			gap := a.Position - b.Position
			if gap < 0 {
				gap = -gap
			}
			if gap < 2*g.ActivationRadius {
				return fmt.Errorf(
					"triage: targets %s and %s overlap: gap %.1f below %.1f",
					a.ID, b.ID, gap, 2*g.ActivationRadius,
				)
			}
		}
	}

	return nil
}
