// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package geogfn contains the geodetic algorithms used to bound geometries
// whose coordinates are longitude/latitude degrees on the unit sphere.
package geogfn

import (
	"math"

	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geomfn"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/ptarray"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// LonLatToCart converts a longitude/latitude pair in degrees to the
// geocentric unit vector.
func LonLatToCart(p geopb.Point2D) r3.Vector {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(p.Y, p.X)).Vector
}

func normalize(v r3.Vector) r3.Vector {
	d := v.Norm()
	if geopb.FPIsZero(d) {
		return r3.Vector{}
	}
	return v.Mul(1 / d)
}

func normalize2D(p geopb.Point2D) geopb.Point2D {
	d := math.Hypot(p.X, p.Y)
	if geopb.FPIsZero(d) {
		return geopb.Point2D{}
	}
	return geopb.Point2D{X: p.X / d, Y: p.Y / d}
}

// unitNormal returns the unit normal of the plane through the origin, p1
// and p2. Very wide and very narrow angles are replaced by an equivalent
// better-conditioned vector before taking the cross product.
func unitNormal(p1, p2 r3.Vector) r3.Vector {
	var p3 r3.Vector
	switch dot := p1.Dot(p2); {
	case dot < 0:
		p3 = normalize(p1.Add(p2))
	case dot > 0.95:
		p3 = normalize(p2.Sub(p1))
	default:
		p3 = p2
	}
	return normalize(p1.Cross(p3))
}

func vectorGBox(v r3.Vector) *geopb.GBox {
	return geopb.NewGBoxFromPoint(geopb.FlagGeodetic, geopb.Point4D{X: v.X, Y: v.Y, Z: v.Z})
}

func expandVector(box *geopb.GBox, v r3.Vector) {
	box.ExpandPoint(geopb.Point4D{X: v.X, Y: v.Y, Z: v.Z})
}

var axisEnds = [6]r3.Vector{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}

// EdgeGBox returns the geocentric bounds of the great circle arc between
// the unit vectors a1 and a2. The arc lies in the plane of a1 and a3, a
// unit vector orthogonal to a1; the ends of the six coordinate axes are
// projected into that plane and those falling on the far side of the chord
// from the origin are extrema of the arc.
func EdgeGBox(a1, a2 r3.Vector) (*geopb.GBox, error) {
	box := vectorGBox(a1)
	expandVector(box, a2)
	if a1 == a2 {
		return box, nil
	}
	if geopb.FPEquals(a1.X, -a2.X) && geopb.FPEquals(a1.Y, -a2.Y) && geopb.FPEquals(a1.Z, -a2.Z) {
		return nil, geoerr.NewDegenerateGeometryf("antipodal (180 degrees long) edge detected")
	}

	an := unitNormal(a1, a2)
	a3 := unitNormal(an, a1)

	r1 := geopb.Point2D{X: 1, Y: 0}
	r2 := geopb.Point2D{X: a2.Dot(a1), Y: a2.Dot(a3)}
	originSide := geomfn.SegmentSide(r1, r2, geopb.Point2D{})
	for _, x := range axisEnds {
		rx := normalize2D(geopb.Point2D{X: x.Dot(a1), Y: x.Dot(a3)})
		if geomfn.SegmentSide(r1, r2, rx) != originSide {
			expandVector(box, a1.Mul(rx.X).Add(a3.Mul(rx.Y)))
		}
	}
	return box, nil
}

// PointArrayGBox returns the geocentric bounds of the edges joining the
// points of pa, read as longitude/latitude degrees. It returns nil for an
// empty array.
func PointArrayGBox(pa *ptarray.PointArray, flags geopb.Flags) (*geopb.GBox, error) {
	flags = flags.WithGeodetic(true).WithBBox(false)
	switch pa.NPoints() {
	case 0:
		return nil, nil
	case 1:
		box := vectorGBox(LonLatToCart(pa.Point2D(0)))
		box.Flags = flags
		return box, nil
	}
	var ret *geopb.GBox
	a1 := LonLatToCart(pa.Point2D(0))
	for i := 1; i < pa.NPoints(); i++ {
		a2 := LonLatToCart(pa.Point2D(i))
		edge, err := EdgeGBox(a1, a2)
		if err != nil {
			return nil, err
		}
		edge.Flags = flags
		if ret == nil {
			ret = edge
		} else if err := ret.Merge(edge); err != nil {
			return nil, err
		}
		a1 = a2
	}
	return ret, nil
}

// CheckPoles widens a polygon box that straddles a coordinate axis so that
// it reaches the pole of the sphere on that axis. It returns whether the
// box changed.
func CheckPoles(box *geopb.GBox) bool {
	changed := false
	if box.XMin < 0 && box.XMax > 0 && box.YMin < 0 && box.YMax > 0 {
		if box.ZMin+box.ZMax > 0 {
			box.ZMax = 1
		} else {
			box.ZMin = -1
		}
		changed = true
	}
	if box.XMin < 0 && box.XMax > 0 && box.ZMin < 0 && box.ZMax > 0 {
		if box.YMin+box.YMax > 0 {
			box.YMax = 1
		} else {
			box.YMin = -1
		}
		changed = true
	}
	if box.YMin < 0 && box.YMax > 0 && box.ZMin < 0 && box.ZMax > 0 {
		if box.XMin+box.XMax > 0 {
			box.XMax = 1
		} else {
			box.XMin = -1
		}
		changed = true
	}
	return changed
}

// NormalizeLongitude maps a longitude in degrees into (-180, 180].
func NormalizeLongitude(lon float64) float64 {
	if lon > 360 {
		lon = math.Remainder(lon, 360)
	}
	if lon < -360 {
		lon = math.Remainder(lon, -360)
	}
	if lon > 180 {
		lon -= 360
	}
	if lon < -180 {
		lon += 360
	}
	if lon == -180 {
		return 180
	}
	if lon == -360 {
		return 0
	}
	return lon
}

// NormalizeLatitude maps a latitude in degrees into [-90, 90], reflecting
// over the poles.
func NormalizeLatitude(lat float64) float64 {
	if lat > 360 {
		lat = math.Remainder(lat, 360)
	}
	if lat < -360 {
		lat = math.Remainder(lat, -360)
	}
	if lat > 180 {
		lat = 180 - lat
	}
	if lat < -180 {
		lat = -180 - lat
	}
	if lat > 90 {
		lat = 180 - lat
	}
	if lat < -90 {
		lat = -180 - lat
	}
	return lat
}

func outOfRange(p geopb.Point2D) bool {
	return p.X < -180 || p.X > 180 || p.Y < -90 || p.Y > 90
}

// InRange returns whether every point of pa is a valid longitude/latitude.
func InRange(pa *ptarray.PointArray) bool {
	for i := 0; i < pa.NPoints(); i++ {
		if outOfRange(pa.Point2D(i)) {
			return false
		}
	}
	return true
}

// ForceRange normalizes the points of pa that are not valid
// longitude/latitude pairs. It returns whether any point changed.
func ForceRange(pa *ptarray.PointArray) (bool, error) {
	changed := false
	for i := 0; i < pa.NPoints(); i++ {
		p := pa.Point4D(i)
		if !outOfRange(p.To2D()) {
			continue
		}
		p.X = NormalizeLongitude(p.X)
		p.Y = NormalizeLatitude(p.Y)
		if err := pa.SetPoint4D(i, p); err != nil {
			return changed, err
		}
		changed = true
	}
	return changed, nil
}
