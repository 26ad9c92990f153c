package triage

import (
	"context"
	"fmt"
)

// Outcome is the triage handler's disposition for a committed hit.
type Outcome int

const (
	// OutcomeAdvance moves on to the next row.
	OutcomeAdvance Outcome = iota

	// OutcomeStay keeps the row in place; the interaction continues
	// in-row (used by the dictation target).
	OutcomeStay
)

// Handler commits a triage decision to the surrounding application. It is
// the only awaited operation in the gesture engine and may be invoked
// from a background goroutine.
type Handler func(ctx context.Context, emailID string, target TargetID, rowIndex int) (Outcome, error)

// PointerKind classifies one event from the capture-phase input stream.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

// PointerEvent is one observation of the raw pointer stream. The
// coordinator observes the stream without claiming it: the list receives
// the same events and keeps its own scroll handling.
type PointerEvent struct {
	Kind PointerKind
	X    float64
	Y    float64
}

// Commit describes a release that landed on a target and now awaits its
// handler outcome.
type Commit struct {
	Target   TargetID
	RowIndex int
}

// verticalSlop is the travel (in cells) after which vertical-dominant
// motion hands the gesture back to the list as a scroll.
const verticalSlop = 2.0

// Coordinator binds the pointer stream into the gesture state store and
// drives the phase machine. One instance exists per inbox screen; it is
// only ever fed events from the UI loop.
type Coordinator struct {
	state   *State
	handler Handler
	startY  float64
	lastY   float64
}

// NewCoordinator creates a coordinator over the given store and handler.
func NewCoordinator(state *State, handler Handler) *Coordinator {
	return &Coordinator{state: state, handler: handler}
}

// State returns the underlying store, for renderers.
func (c *Coordinator) State() *State {
	return c.state
}

// Observe feeds one pointer event through the phase machine. Every
// (phase, event) pair has a defined transition; events that do not apply
// in the current phase are ignored. The returned Commit is valid only
// when ok is true, meaning a release landed inside a target's activation
// radius and the phase is now processing.
func (c *Coordinator) Observe(ev PointerEvent) (commit Commit, ok bool) {
	s := c.state

	switch s.Phase() {
	case PhaseIdle:
		if ev.Kind == PointerDown {
			c.startY = ev.Y
			c.lastY = ev.Y
			s.Touch().BeginDrag(ev.X)
		}

	case PhaseDragging:
		switch ev.Kind {
		case PointerMove:
			c.lastY = ev.Y
			if c.verticalDominant(ev) {
				// The list claimed the gesture as a scroll.
				s.Touch().SetPhase(PhaseIdle)
				return Commit{}, false
			}
			s.Touch().Move(ev.X)

		case PointerUp:
			hit := ActiveTarget(
				s.Geometry(),
				ev.X,
				s.ScrollY(),
				s.ActiveIndex(),
				int(s.rowCount.Load()),
				s.Frame().Flags,
			)
			if hit == nil {
				s.Touch().SetPhase(PhaseIdle)
				return Commit{}, false
			}
			s.Touch().SetPhase(PhaseProcessing)
			return Commit{Target: *hit, RowIndex: s.ActiveIndex()}, true

		case PointerDown:
			// A second press mid-drag restarts the gesture.
			c.startY = ev.Y
			c.lastY = ev.Y
			s.Touch().BeginDrag(ev.X)
		}

	case PhaseProcessing:
		// The handler owns the gesture until it resolves; input is
		// observed but produces no transition.
	}

	return Commit{}, false
}

// verticalDominant reports whether the drag's travel is primarily
// vertical, past the slop threshold. Horizontal travel is measured from
// the startX snapshot taken at gesture start.
func (c *Coordinator) verticalDominant(ev PointerEvent) bool {
	dx := ev.X - c.state.StartX()
	if dx < 0 {
		dx = -dx
	}
	dy := ev.Y - c.startY
	if dy < 0 {
		dy = -dy
	}
	return dy > verticalSlop && dy > dx
}

// Cancel aborts any in-flight drag, used when the row loses ownership
// (list rebuild, view change). A processing gesture is not cancelable;
// its handler resolution will reset the phase.
func (c *Coordinator) Cancel() {
	if c.state.Phase() == PhaseDragging {
		c.state.Touch().SetPhase(PhaseIdle)
	}
}

// Dispatch invokes the triage handler for a committed hit. Whatever the
// handler does, the phase returns to idle: a failed commit leaves the row
// un-triaged so the user can retry, and the error propagates to the
// caller for reporting. Safe to call from a background goroutine.
func (c *Coordinator) Dispatch(ctx context.Context, emailID string, commit Commit) (Outcome, error) {
	defer c.state.Touch().SetPhase(PhaseIdle)

	if c.handler == nil {
		return OutcomeAdvance, fmt.Errorf("triage: no handler registered")
	}

	outcome, err := c.handler(ctx, emailID, commit.Target, commit.RowIndex)
	if err != nil {
		return outcome, fmt.Errorf("committing %s on row %d: %w", commit.Target, commit.RowIndex, err)
	}
	return outcome, nil
}
