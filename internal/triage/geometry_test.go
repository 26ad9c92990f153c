package triage

import (
	"math"
	"reflect"
	"testing"
)

// specGeometry mirrors the worked examples: four targets spread around a
// 400-cell-wide screen with a 30/80 radius pair.
func specGeometry() Geometry {
	return Geometry{
		HeaderOffset:     86,
		ListTopPadding:   140,
		RowHeight:        140,
		BallTopInRow:     10,
		HalfBallSize:     20,
		TargetYCenter:    100,
		ActivationRadius: 30,
		ProximityRadius:  80,
		CenterX:          200,
	}
}

// specTargets places unsubscribe/done/reply/mic at -100/-20/80/160 in
// enumeration order (done first, so registry order is the tie-break).
func specTargets() []Target {
	return []Target{
		{ID: TargetDone, Position: -20},
		{ID: TargetReply, Position: 80},
		{ID: TargetMic, Position: 160},
		{ID: TargetUnsubscribe, Position: -100, SubscriptionOnly: true},
	}
}

func TestDistance(t *testing.T) {
	d := Distance(Point{X: 0, Y: 0}, Point{X: 3, Y: 4})
	if d != 5 {
		t.Fatalf("distance = %v, want 5", d)
	}
	if Distance(Point{X: 7, Y: -2}, Point{X: 7, Y: -2}) != 0 {
		t.Fatalf("distance to self should be 0")
	}
}

func TestHitTestDirectHit(t *testing.T) {
	g := specGeometry()
	// Ball exactly on reply's center: 200 + 80 = 280.
	res := hitTestTargets(g, Point{X: 280, Y: g.TargetYCenter}, Flags{}, specTargets())

	if res.Hit == nil || *res.Hit != TargetReply {
		t.Fatalf("hit = %v, want reply", res.Hit)
	}
	if res.Proximities[TargetReply] != 1 {
		t.Fatalf("proximity at center = %v, want 1", res.Proximities[TargetReply])
	}
	if res.Closest == nil || res.Closest.ID != TargetReply {
		t.Fatalf("closest = %+v, want reply", res.Closest)
	}
}

func TestHitTestSubscriptionGating(t *testing.T) {
	g := specGeometry()
	ball := Point{X: 100, Y: g.TargetYCenter} // on unsubscribe's center

	// Non-subscription email: target invisible, no hit, zero proximity.
	res := hitTestTargets(g, ball, Flags{}, specTargets())
	if res.Hit != nil {
		t.Fatalf("hit = %v, want none for non-subscription email", *res.Hit)
	}
	if res.Proximities[TargetUnsubscribe] != 0 {
		t.Fatalf("invisible target proximity = %v, want 0", res.Proximities[TargetUnsubscribe])
	}

	// Subscription email at the same position: unsubscribe hits.
	res = hitTestTargets(g, ball, Flags{Subscription: true}, specTargets())
	if res.Hit == nil || *res.Hit != TargetUnsubscribe {
		t.Fatalf("hit = %v, want unsubscribe for subscription email", res.Hit)
	}
}

// Sweeping the ball across the whole strip must never surface a
// subscription-only target for a non-subscription email.
func TestSubscriptionTargetNeverLeaks(t *testing.T) {
	g := specGeometry()
	for x := -50.0; x <= 450; x += 7 {
		res := hitTestTargets(g, Point{X: x, Y: g.TargetYCenter}, Flags{}, specTargets())
		if res.Hit != nil && *res.Hit == TargetUnsubscribe {
			t.Fatalf("unsubscribe hit at x=%v without subscription flag", x)
		}
		if res.Proximities[TargetUnsubscribe] != 0 {
			t.Fatalf("unsubscribe proximity %v at x=%v without subscription flag",
				res.Proximities[TargetUnsubscribe], x)
		}
	}
}

func TestHitTestDeterministic(t *testing.T) {
	g := specGeometry()
	ball := Point{X: 262, Y: 90}
	flags := Flags{Subscription: true, HasCalendarEvent: true}

	first := hitTestTargets(g, ball, flags, specTargets())
	for i := 0; i < 10; i++ {
		again := hitTestTargets(g, ball, flags, specTargets())
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, again)
		}
	}
}

// When two activation radii both contain the ball, the first target in
// registry order wins even if the other is geometrically closer.
func TestHitTestTiebreakRegistryOrder(t *testing.T) {
	g := specGeometry()
	overlapping := []Target{
		{ID: TargetDone, Position: 0},
		{ID: TargetReply, Position: 20},
	}

	// x=215: distance 15 from done, 5 from reply; both within 30.
	res := hitTestTargets(g, Point{X: 215, Y: g.TargetYCenter}, Flags{}, overlapping)
	if res.Hit == nil || *res.Hit != TargetDone {
		t.Fatalf("hit = %v, want done (registry order) despite reply being closer", res.Hit)
	}
	// The feedback channel still points at the nearer target.
	if res.Closest == nil || res.Closest.ID != TargetReply {
		t.Fatalf("closest = %+v, want reply", res.Closest)
	}
}

func TestProximityMonotonic(t *testing.T) {
	g := specGeometry()
	targets := []Target{{ID: TargetDone, Position: 0}}

	prev := math.Inf(1)
	for d := 0.0; d <= 100; d += 2.5 {
		res := hitTestTargets(g, Point{X: g.CenterX + d, Y: g.TargetYCenter}, Flags{}, targets)
		p := res.Proximities[TargetDone]
		if p > prev {
			t.Fatalf("proximity rose from %v to %v at distance %v", prev, p, d)
		}
		switch {
		case d == 0 && p != 1:
			t.Fatalf("proximity at distance 0 = %v, want 1", p)
		case d >= g.ProximityRadius && p != 0:
			t.Fatalf("proximity at distance %v = %v, want 0", d, p)
		}
		prev = p
	}
}

func TestIndicatorScreenY(t *testing.T) {
	g := specGeometry()

	// 86 + 140 + 3*140 - 0 + 10 + 20 = 676
	y := IndicatorScreenY(g, 0, 3)
	if y != 676 {
		t.Fatalf("screenY = %v, want 676", y)
	}

	// Scrolling one row's height moves the indicator up exactly one row.
	scrolled := IndicatorScreenY(g, 140, 3)
	if scrolled != 536 {
		t.Fatalf("scrolled screenY = %v, want 536", scrolled)
	}
	if y-scrolled != 140 {
		t.Fatalf("scroll delta = %v, want 140", y-scrolled)
	}
}

// Changing scrollY alone shifts the indicator by exactly the negated
// delta; the indicator moves with the list.
func TestScrollInvariance(t *testing.T) {
	g := specGeometry()
	base := IndicatorScreenY(g, 0, 5)
	for _, delta := range []float64{1, 17, 140, 433.5} {
		got := IndicatorScreenY(g, delta, 5)
		if got != base-delta {
			t.Fatalf("scrollY=%v: screenY = %v, want %v", delta, got, base-delta)
		}
	}
}

func TestActiveTargetOutOfRangeIndex(t *testing.T) {
	g := DefaultGeometry(80)

	for _, index := range []int{-1, 3, 250} {
		hit := ActiveTarget(g, g.CenterX, 0, index, 3, Flags{})
		if hit != nil {
			t.Fatalf("index %d: hit = %v, want none for off-screen indicator", index, *hit)
		}
	}
}

func TestActiveTargetTracksScroll(t *testing.T) {
	g := DefaultGeometry(80)
	done := TargetByID(TargetDone)
	ballX := g.CenterX + done.Position

	// Row 0 starts at the target bar's height, so an unscrolled release
	// over done's column hits.
	hit := ActiveTarget(g, ballX, 0.5, 0, 10, Flags{})
	if hit == nil || *hit != TargetDone {
		t.Fatalf("hit = %v, want done", hit)
	}

	// Scrolled far away, the same column misses: the row moved with
	// the list and the indicator is nowhere near the target bar.
	hit = ActiveTarget(g, ballX, -100, 0, 10, Flags{})
	if hit != nil {
		t.Fatalf("hit = %v, want none when row is far from target bar", *hit)
	}
}

func TestGeometryValidate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Geometry)
		ok   bool
	}{
		{"default", func(*Geometry) {}, true},
		{"equal radii", func(g *Geometry) { g.ProximityRadius = g.ActivationRadius }, false},
		{"inverted radii", func(g *Geometry) { g.ActivationRadius = g.ProximityRadius + 1 }, false},
		{"zero activation", func(g *Geometry) { g.ActivationRadius = 0 }, false},
		{"zero row height", func(g *Geometry) { g.RowHeight = 0 }, false},
	}

	for _, tc := range cases {
		g := specGeometry()
		tc.mut(&g)
		err := g.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
