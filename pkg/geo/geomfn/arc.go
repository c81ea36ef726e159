// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package geomfn contains the planar algorithms used to bound and measure
// linear and circular geometries.
package geomfn

import (
	"math"

	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
)

// epsilonSQLMM is the tolerance used to detect closed and colinear arcs.
const epsilonSQLMM = 1e-8

// ArcCenter returns the center and radius of the circle through p1, p2 and
// p3. When p1 and p3 coincide the arc is a full circle whose diameter is
// p1-p2. A negative radius is returned for colinear points.
func ArcCenter(p1, p2, p3 geopb.Point2D) (geopb.Point2D, float64) {
	if math.Abs(p1.X-p3.X) < epsilonSQLMM && math.Abs(p1.Y-p3.Y) < epsilonSQLMM {
		c := geopb.Point2D{
			X: p1.X + (p2.X-p1.X)/2.0,
			Y: p1.Y + (p2.Y-p1.Y)/2.0,
		}
		return c, math.Hypot(c.X-p1.X, c.Y-p1.Y)
	}

	temp := p2.X*p2.X + p2.Y*p2.Y
	bc := (p1.X*p1.X + p1.Y*p1.Y - temp) / 2.0
	cd := (temp - p3.X*p3.X - p3.Y*p3.Y) / 2.0
	det := (p1.X-p2.X)*(p2.Y-p3.Y) - (p2.X-p3.X)*(p1.Y-p2.Y)
	if math.Abs(det) < epsilonSQLMM {
		return geopb.Point2D{}, -1.0
	}
	det = 1.0 / det
	c := geopb.Point2D{
		X: (bc*(p2.Y-p3.Y) - cd*(p1.Y-p2.Y)) * det,
		Y: ((p1.X-p2.X)*cd - (p2.X-p3.X)*bc) * det,
	}
	return c, math.Hypot(c.X-p1.X, c.Y-p1.Y)
}

// ArcGBox2D returns the planar bounds of the circular arc from a1 through
// a2 to a3. Z and M extents come from the arc end points.
func ArcGBox2D(a1, a2, a3 geopb.Point4D) *geopb.GBox {
	box := &geopb.GBox{
		XMin: math.Min(a1.X, a3.X), XMax: math.Max(a1.X, a3.X),
		YMin: math.Min(a1.Y, a3.Y), YMax: math.Max(a1.Y, a3.Y),
		ZMin: math.Min(a1.Z, a3.Z), ZMax: math.Max(a1.Z, a3.Z),
		MMin: math.Min(a1.M, a3.M), MMax: math.Max(a1.M, a3.M),
	}
	p1, p2, p3 := a1.To2D(), a2.To2D(), a3.To2D()
	c, radius := ArcCenter(p1, p2, p3)
	if radius < 0 {
		return box
	}
	if p1 == p3 {
		box.XMin, box.XMax = c.X-radius, c.X+radius
		box.YMin, box.YMax = c.Y-radius, c.Y+radius
		return box
	}

	// The circle extrema on the same side of the chord as a2 lie on the arc.
	side := SegmentSide(p1, p3, p2)
	if SegmentSide(p1, p3, geopb.Point2D{X: c.X - radius, Y: c.Y}) == side {
		box.XMin = c.X - radius
	}
	if SegmentSide(p1, p3, geopb.Point2D{X: c.X, Y: c.Y - radius}) == side {
		box.YMin = c.Y - radius
	}
	if SegmentSide(p1, p3, geopb.Point2D{X: c.X + radius, Y: c.Y}) == side {
		box.XMax = c.X + radius
	}
	if SegmentSide(p1, p3, geopb.Point2D{X: c.X, Y: c.Y + radius}) == side {
		box.YMax = c.Y + radius
	}
	return box
}

// ArcLength returns the length of the circular arc from a1 through a2 to
// a3. Colinear points measure as the chord a1-a3 and a closed arc as the
// full circumference.
func ArcLength(a1, a2, a3 geopb.Point2D) float64 {
	if a1 == a2 && a2 == a3 {
		return 0
	}
	c, radius := ArcCenter(a1, a2, a3)
	if radius < 0 {
		return math.Hypot(a1.X-a3.X, a1.Y-a3.Y)
	}
	circumference := 2 * math.Pi * radius
	if a1 == a3 {
		return circumference
	}

	ang1 := math.Atan2(a1.Y-c.Y, a1.X-c.X)
	ang3 := math.Atan2(a3.Y-c.Y, a3.X-c.X)
	var sweep float64
	if SegmentSide(a1, a3, a2) == -1 {
		// Clockwise.
		if ang1 > ang3 {
			sweep = ang1 - ang3
		} else {
			sweep = 2*math.Pi + ang1 - ang3
		}
	} else {
		if ang3 > ang1 {
			sweep = ang3 - ang1
		} else {
			sweep = 2*math.Pi + ang3 - ang1
		}
	}
	return circumference * (sweep / (2 * math.Pi))
}

// ArcSide returns the side of the arc a1-a2-a3 that q falls on: -1 for
// left, 1 for right and 0 for a point on the arc itself.
func ArcSide(a1, a2, a3, q geopb.Point2D) int {
	sideQ := SegmentSide(a1, a3, q)
	c, radius := ArcCenter(a1, a2, a3)
	sideA2 := SegmentSide(a1, a3, a2)
	if radius < 0 {
		return sideQ
	}
	d := math.Hypot(q.X-c.X, q.Y-c.Y)
	if d == radius && sideQ == sideA2 {
		return 0
	}
	// On the chord, so opposite to a2.
	if sideQ == 0 {
		return -sideA2
	}
	// Inside the circle on the arc's side of the chord.
	if d < radius && sideQ == sideA2 {
		sideQ = -sideQ
	}
	return sideQ
}
