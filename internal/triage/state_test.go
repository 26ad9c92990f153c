package triage

import (
	"sync"
	"testing"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	s, err := NewState(DefaultGeometry(80))
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return s
}

func TestNewStateRejectsBadGeometry(t *testing.T) {
	g := DefaultGeometry(80)
	g.ActivationRadius = g.ProximityRadius
	if _, err := NewState(g); err == nil {
		t.Fatalf("expected configuration error")
	}
}

func TestStateInitialFrame(t *testing.T) {
	s := newTestState(t)

	frame := s.Frame()
	if frame == nil {
		t.Fatalf("initial frame is nil")
	}
	if frame.Phase != PhaseIdle {
		t.Fatalf("initial phase = %s, want idle", frame.Phase)
	}
	if frame.BallX != s.Geometry().CenterX {
		t.Fatalf("idle ball at %v, want centered at %v", frame.BallX, s.Geometry().CenterX)
	}
}

func TestBallTracksFingerOnlyWhileDragging(t *testing.T) {
	s := newTestState(t)
	s.Scroll().SetActiveRow(0, 5)

	s.Touch().BeginDrag(12)
	if got := s.Frame().BallX; got != 12 {
		t.Fatalf("dragging ball at %v, want 12", got)
	}

	s.Touch().Move(30)
	if got := s.Frame().BallX; got != 30 {
		t.Fatalf("moved ball at %v, want 30", got)
	}

	s.Touch().SetPhase(PhaseIdle)
	if got := s.Frame().BallX; got != s.Geometry().CenterX {
		t.Fatalf("idle ball at %v, want re-centered", got)
	}
}

func TestScrollWriteVisibleToNextFrame(t *testing.T) {
	s := newTestState(t)
	s.Scroll().SetActiveRow(2, 10)
	s.Touch().BeginDrag(40)

	before := s.Frame().BallY
	s.Scroll().SetScrollY(2)
	after := s.Frame().BallY

	if after != before-2 {
		t.Fatalf("ballY after scroll = %v, want %v", after, before-2)
	}
}

func TestFlagsAreDiscreteObservations(t *testing.T) {
	s := newTestState(t)
	s.Scroll().SetActiveRow(0, 3)
	s.Touch().BeginDrag(40)

	if s.Frame().Flags.Subscription {
		t.Fatalf("subscription flag set before SetFlags")
	}

	s.Scroll().SetFlags(Flags{Subscription: true})
	if !s.Frame().Flags.Subscription {
		t.Fatalf("subscription flag not visible after SetFlags")
	}
}

func TestOutOfRangeActiveIndexYieldsNoHit(t *testing.T) {
	s := newTestState(t)
	s.Scroll().SetActiveRow(7, 3) // rows shrank under the gesture
	s.Touch().BeginDrag(s.Geometry().CenterX + TargetByID(TargetDone).Position)

	frame := s.Frame()
	if frame.Result.Hit != nil {
		t.Fatalf("hit = %v, want none for vanished row", *frame.Result.Hit)
	}
}

// Concurrent readers must never block or observe a torn frame while the
// two writer views interleave. Run with -race.
func TestConcurrentReadersAndWriters(t *testing.T) {
	s := newTestState(t)

	var writers sync.WaitGroup
	var reader sync.WaitGroup
	done := make(chan struct{})

	writers.Add(1)
	go func() {
		defer writers.Done()
		for i := 0; i < 500; i++ {
			s.Scroll().SetScrollY(float64(i % 20))
			s.Scroll().SetActiveRow(i%10, 10)
		}
	}()

	writers.Add(1)
	go func() {
		defer writers.Done()
		s.Touch().BeginDrag(10)
		for i := 0; i < 500; i++ {
			s.Touch().Move(float64(10 + i%50))
		}
		s.Touch().SetPhase(PhaseIdle)
	}()

	reader.Add(1)
	go func() {
		defer reader.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			frame := s.Frame()
			if frame == nil {
				t.Error("nil frame observed")
				return
			}
			_ = frame.Result.Proximities
			_ = s.Phase()
		}
	}()

	writers.Wait()
	close(done)
	reader.Wait()
}
