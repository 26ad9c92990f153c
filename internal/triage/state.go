package triage

import (
	"math"
	"sync/atomic"
)

// Phase is the gesture state-machine value.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhaseProcessing
)

// String returns the phase name for logs and status lines.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhaseProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// atomicFloat64 is a lock-free float64 cell.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (f *atomicFloat64) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

func (f *atomicFloat64) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Frame is an immutable snapshot of the derived gesture state, rebuilt on
// every input write and published atomically. Renderers read the current
// frame without blocking and never observe a half-updated derivation.
type Frame struct {
	Phase       Phase
	BallX       float64
	BallY       float64
	ActiveIndex int
	Flags       Flags
	Result      HitResult
}

// State is the gesture state store shared between the input side and the
// render side. Each field has exactly one writer: the touch view owns
// fingerX, startX, ballX, and phase; the scroll view owns scrollY,
// activeIndex, rowCount, and flags. All fields are lock-free cells, so
// readers on other goroutines (the async commit path, the sync poller's
// phase check) see consistent values without synchronization.
type State struct {
	geo Geometry

	fingerX atomicFloat64
	startX  atomicFloat64
	ballX   atomicFloat64
	phase   atomic.Int32

	scrollY     atomicFloat64
	activeIndex atomic.Int64
	rowCount    atomic.Int64
	flags       atomic.Pointer[Flags]

	frame atomic.Pointer[Frame]
}

// NewState creates a gesture state store for one inbox screen. It fails
// when the geometry or registry is misconfigured.
func NewState(geo Geometry) (*State, error) {
	if err := ValidateTargets(geo, Targets()); err != nil {
		return nil, err
	}

	s := &State{geo: geo}
	s.flags.Store(&Flags{})
	s.ballX.Store(geo.CenterX)
	s.recompute()
	return s, nil
}

// Geometry returns the layout constants the store was created with.
func (s *State) Geometry() Geometry {
	return s.geo
}

// SetGeometry replaces the layout constants, used when the terminal is
// resized. Must be called from the owner of the touch cells.
func (s *State) SetGeometry(geo Geometry) error {
	if err := ValidateTargets(geo, Targets()); err != nil {
		return err
	}
	s.geo = geo
	s.recompute()
	return nil
}

// Phase returns the current gesture phase.
func (s *State) Phase() Phase {
	return Phase(s.phase.Load())
}

// Frame returns the latest derived snapshot. Never nil after NewState.
func (s *State) Frame() *Frame {
	return s.frame.Load()
}

// StartX returns the pointer position captured at gesture start.
func (s *State) StartX() float64 {
	return s.startX.Load()
}

// ScrollY returns the most recently committed scroll offset.
func (s *State) ScrollY() float64 {
	return s.scrollY.Load()
}

// ActiveIndex returns the row currently owning the indicator.
func (s *State) ActiveIndex() int {
	return int(s.activeIndex.Load())
}

// recompute rebuilds the derived frame from the current cells. It runs
// synchronously on every input write and is cheap enough for per-event
// invocation: one registry pass, no allocation beyond the frame itself.
func (s *State) recompute() {
	phase := Phase(s.phase.Load())
	flags := *s.flags.Load()
	index := int(s.activeIndex.Load())
	count := int(s.rowCount.Load())
	scrollY := s.scrollY.Load()

	ballX := s.geo.CenterX
	if phase == PhaseDragging {
		ballX = s.fingerX.Load()
	}
	s.ballX.Store(ballX)

	frame := &Frame{
		Phase:       phase,
		BallX:       ballX,
		ActiveIndex: index,
		Flags:       flags,
	}

	// An active index referencing a vanished row leaves the indicator
	// off-screen: no hit, no proximity.
	if index >= 0 && index < count {
		frame.BallY = IndicatorScreenY(s.geo, scrollY, index)
		if phase == PhaseDragging {
			frame.Result = HitTest(s.geo, Point{X: ballX, Y: frame.BallY}, flags)
		}
	}

	s.frame.Store(frame)
}

// Touch returns the view owned by the touch-capture side.
func (s *State) Touch() TouchView {
	return TouchView{s: s}
}

// Scroll returns the view owned by the list/scroll side.
func (s *State) Scroll() ScrollView {
	return ScrollView{s: s}
}

// TouchView is the write interface for the pointer-event owner. No other
// component may mutate the finger or phase cells.
type TouchView struct {
	s *State
}

// BeginDrag snapshots the pointer position and enters the dragging phase.
func (v TouchView) BeginDrag(x float64) {
	v.s.startX.Store(x)
	v.s.fingerX.Store(x)
	v.s.phase.Store(int32(PhaseDragging))
	v.s.recompute()
}

// Move updates the finger position during a drag.
func (v TouchView) Move(x float64) {
	v.s.fingerX.Store(x)
	v.s.recompute()
}

// SetPhase transitions the state machine. Derived state is rebuilt so a
// transition out of dragging immediately re-centers the indicator.
func (v TouchView) SetPhase(p Phase) {
	v.s.phase.Store(int32(p))
	v.s.recompute()
}

// ScrollView is the write interface for the list side. It owns the scroll
// offset, the active row, and the active email's context flags.
type ScrollView struct {
	s *State
}

// SetScrollY commits a new scroll offset. The next derived frame sees it
// without an extra render pass, so a mid-drag scroll repositions the
// indicator without restarting the gesture.
func (v ScrollView) SetScrollY(y float64) {
	v.s.scrollY.Store(y)
	v.s.recompute()
}

// SetActiveRow commits the row owning the indicator and the total row
// count used for range guarding.
func (v ScrollView) SetActiveRow(index, count int) {
	v.s.activeIndex.Store(int64(index))
	v.s.rowCount.Store(int64(count))
	v.s.recompute()
}

// SetFlags commits the active email's visibility context. This is a
// discrete observation: it changes on row change, not per frame.
func (v ScrollView) SetFlags(flags Flags) {
	f := flags
	v.s.flags.Store(&f)
	v.s.recompute()
}
