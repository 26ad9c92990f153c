package triage

import "math"

// Point is a position in screen space. Units are terminal cells in the
// running application, but the kernel itself is unit-agnostic.
type Point struct {
	X float64
	Y float64
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Geometry holds the fixed layout constants for the gesture engine.
// All values are configuration, never computed at runtime.
type Geometry struct {
	// HeaderOffset is the height of the chrome above the list.
	HeaderOffset float64

	// ListTopPadding is the padding between the header and the first row.
	ListTopPadding float64

	// RowHeight is the uniform height of one email row.
	RowHeight float64

	// BallTopInRow is the vertical offset of the indicator inside its row.
	BallTopInRow float64

	// HalfBallSize is half the indicator's rendered height.
	HalfBallSize float64

	// TargetYCenter is the fixed vertical center shared by all targets.
	TargetYCenter float64

	// ActivationRadius is the hard hit gate: a release within this
	// distance of a target center commits that target.
	ActivationRadius float64

	// ProximityRadius is the larger feedback radius; proximity ramps
	// from 1 at the center down to 0 at this distance.
	ProximityRadius float64

	// CenterX is the horizontal center of the screen. Target positions
	// are offsets from this value.
	CenterX float64
}

// DefaultGeometry returns the terminal-cell constants used by the inbox
// view: two-line rows with the indicator on the second line, and the
// target bar rendered just under the header.
func DefaultGeometry(width int) Geometry {
	return Geometry{
		HeaderOffset:     1,
		ListTopPadding:   1,
		RowHeight:        2,
		BallTopInRow:     1,
		HalfBallSize:     0.5,
		TargetYCenter:    1.5,
		ActivationRadius: 5,
		ProximityRadius:  14,
		CenterX:          float64(width) / 2,
	}
}

// Validate reports configuration errors in the geometry constants.
func (g Geometry) Validate() error {
	if g.ActivationRadius <= 0 || g.ProximityRadius <= 0 {
		return errNonPositiveRadius
	}
	if g.ActivationRadius >= g.ProximityRadius {
		return errRadiusOrder
	}
	if g.RowHeight <= 0 {
		return errNonPositiveRow
	}
	return nil
}

// IndicatorScreenY computes the vertical screen position of the indicator
// for the active row. This is the single formula all vertical placement
// routes through; row height is treated as uniform.
func IndicatorScreenY(g Geometry, scrollY float64, activeIndex int) float64 {
	return g.HeaderOffset +
		g.ListTopPadding +
		float64(activeIndex)*g.RowHeight -
		scrollY +
		g.BallTopInRow +
		g.HalfBallSize
}

// TargetCenter resolves a target's screen-space center from its effective
// horizontal position for this frame.
func TargetCenter(g Geometry, effectivePosition float64) Point {
	return Point{X: g.CenterX + effectivePosition, Y: g.TargetYCenter}
}

// ClosestTarget identifies the nearest target with nonzero proximity.
type ClosestTarget struct {
	ID        TargetID
	Proximity float64
}

// HitResult carries the outcome of one hit-test pass over the registry.
type HitResult struct {
	// Hit is the committed target, or nil when no activation radius
	// contains the indicator.
	Hit *TargetID

	// Proximities maps every target to its normalized 0..1 proximity.
	// Invisible targets always report 0.
	Proximities map[TargetID]float64

	// Closest is the target with the highest nonzero proximity, or nil.
	Closest *ClosestTarget

	// EffectivePositions holds each target's resolved horizontal offset
	// for this frame.
	EffectivePositions map[TargetID]float64
}

// HitTest evaluates every target in registry order against the indicator
// position. The first target whose activation radius contains the
// indicator wins, so registry order doubles as tie-break priority.
// Invisible targets are skipped with proximity 0. The function is total
// and referentially transparent.
func HitTest(g Geometry, ball Point, flags Flags) HitResult {
	return hitTestTargets(g, ball, flags, Targets())
}

// hitTestTargets is the registry-parameterized core of HitTest.
func hitTestTargets(g Geometry, ball Point, flags Flags, targets []Target) HitResult {
	result := HitResult{
		Proximities:        make(map[TargetID]float64, len(targets)),
		EffectivePositions: make(map[TargetID]float64, len(targets)),
	}

	for _, t := range targets {
		pos := EffectivePosition(t, flags)
		result.EffectivePositions[t.ID] = pos

		if !IsVisible(t, flags) {
			result.Proximities[t.ID] = 0
			continue
		}

		d := Distance(ball, TargetCenter(g, pos))

		if d <= g.ActivationRadius && result.Hit == nil {
			id := t.ID
			result.Hit = &id
		}

		proximity := 1 - d/g.ProximityRadius
		if proximity < 0 {
			proximity = 0
		}
		result.Proximities[t.ID] = proximity

		if proximity > 0 && (result.Closest == nil || proximity > result.Closest.Proximity) {
			result.Closest = &ClosestTarget{ID: t.ID, Proximity: proximity}
		}
	}

	return result
}

// ActiveTarget composes IndicatorScreenY and HitTest, returning only the
// committed hit for the current gesture position. An activeIndex outside
// [0, rowCount) means the row is gone; the indicator is treated as
// off-screen and nothing is hit.
func ActiveTarget(g Geometry, ballX, scrollY float64, activeIndex, rowCount int, flags Flags) *TargetID {
	if activeIndex < 0 || activeIndex >= rowCount {
		return nil
	}
	ball := Point{X: ballX, Y: IndicatorScreenY(g, scrollY, activeIndex)}
	return HitTest(g, ball, flags).Hit
}
