// Package geometry computes control points for arced motion paths.
package geometry

import (
	"math"

	"motion-director/core"
)

const (
	// Segments shorter than this render as straight lines; the bulge would
	// be visually negligible and numerically twitchy.
	minArcDistance = 100.0

	// Fraction of the segment length the control point is offset from the
	// midpoint, perpendicular to the segment.
	arcOffsetFraction = 0.05
)

// ControlPoint returns the quadratic-curve control point for an arc between
// start and end. The point sits at the segment midpoint, displaced by 5% of
// the segment length along the 90° counter-clockwise perpendicular
// ((dx,dy) -> (-dy,dx)), so the bulge side is the same for every path. Pairs
// closer than 100 canvas units get the plain midpoint.
func ControlPoint(start, end core.Point) core.Point {
	dx := end.X - start.X
	dy := end.Y - start.Y
	distance := math.Hypot(dx, dy)

	mid := core.Point{
		X: (start.X + end.X) / 2,
		Y: (start.Y + end.Y) / 2,
	}
	if distance < minArcDistance {
		return mid
	}

	// (-dy, dx) has the same magnitude as the segment, so scaling it by the
	// fraction displaces the point by fraction*distance.
	return core.Point{
		X: mid.X - dy*arcOffsetFraction,
		Y: mid.Y + dx*arcOffsetFraction,
	}
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b core.Point) core.Point {
	return core.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b core.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
