// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package lwgeom

import (
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/ptarray"
)

// TypeName returns the upper-case name of the kind of g.
func TypeName(g Geometry) string {
	return g.Type().String()
}

// IsCollection returns whether g is made of member geometries.
func IsCollection(g Geometry) bool {
	return g.Type().IsCollection()
}

// IsEmpty returns whether g has no coordinates. A polygon is empty when it
// has no rings or an empty shell; a collection is empty when every member
// is.
func IsEmpty(g Geometry) bool {
	switch g := g.(type) {
	case *Point:
		return g.points.IsEmpty()
	case *LineString:
		return g.points.IsEmpty()
	case *CircularString:
		return g.points.IsEmpty()
	case *Triangle:
		return g.points.IsEmpty()
	case *Polygon:
		return len(g.rings) == 0 || g.rings[0].IsEmpty()
	case *Collection:
		for _, m := range g.geoms {
			if !IsEmpty(m) {
				return false
			}
		}
		return true
	}
	panic(unknownGeometry(g))
}

// CountVertices returns the number of coordinates in g.
func CountVertices(g Geometry) int {
	switch g := g.(type) {
	case *Point:
		return g.points.NPoints()
	case *LineString:
		return g.points.NPoints()
	case *CircularString:
		return g.points.NPoints()
	case *Triangle:
		return g.points.NPoints()
	case *Polygon:
		n := 0
		for _, r := range g.rings {
			n += r.NPoints()
		}
		return n
	case *Collection:
		n := 0
		for _, m := range g.geoms {
			n += CountVertices(m)
		}
		return n
	}
	panic(unknownGeometry(g))
}

// CountRings returns the number of rings of the areal parts of g.
func CountRings(g Geometry) int {
	if IsEmpty(g) {
		return 0
	}
	switch g.Type() {
	case geopb.TriangleType:
		return 1
	case geopb.PolygonType:
		return g.(*Polygon).NumRings()
	case geopb.CurvePolygonType:
		return g.(*Collection).NumGeoms()
	case geopb.MultiSurfaceType, geopb.MultiPolygonType, geopb.PolyhedralSurfaceType,
		geopb.TINType, geopb.GeometryCollectionType:
		n := 0
		for _, m := range g.(*Collection).geoms {
			n += CountRings(m)
		}
		return n
	}
	return 0
}

// Dimension returns the topological dimension of g: 0 for points, 1 for
// curves, 2 for surfaces and 3 for closed polyhedral surfaces. A
// collection has the largest dimension of its members.
func Dimension(g Geometry) int {
	switch g.Type() {
	case geopb.PointType, geopb.MultiPointType:
		return 0
	case geopb.LineStringType, geopb.CircularStringType, geopb.MultiLineStringType,
		geopb.CompoundCurveType, geopb.MultiCurveType:
		return 1
	case geopb.PolygonType, geopb.TriangleType, geopb.CurvePolygonType,
		geopb.MultiSurfaceType, geopb.MultiPolygonType, geopb.TINType:
		return 2
	case geopb.PolyhedralSurfaceType:
		if IsClosed(g) {
			return 3
		}
		return 2
	case geopb.GeometryCollectionType:
		maxDim := 0
		for _, m := range g.(*Collection).geoms {
			if d := Dimension(m); d > maxDim {
				maxDim = d
			}
		}
		return maxDim
	}
	return 0
}

// HasArc returns whether g contains a circular string.
func HasArc(g Geometry) bool {
	switch g := g.(type) {
	case *CircularString:
		return true
	case *Point, *LineString, *Triangle, *Polygon:
		return false
	case *Collection:
		for _, m := range g.geoms {
			if HasArc(m) {
				return true
			}
		}
		return false
	}
	panic(unknownGeometry(g))
}

// NeedsBBox returns whether a serialized g should carry a bounding box.
// Shapes whose box is cheap to read from the coordinates do not.
func NeedsBBox(g Geometry) bool {
	switch g.Type() {
	case geopb.PointType:
		return false
	case geopb.LineStringType:
		return CountVertices(g) > 2
	case geopb.MultiPointType:
		return g.(*Collection).NumGeoms() != 1
	case geopb.MultiLineStringType:
		return !(g.(*Collection).NumGeoms() == 1 && CountVertices(g) <= 2)
	}
	return true
}

// SetSRID sets the SRID of g and all of its members.
func SetSRID(g Geometry, srid geopb.SRID) {
	g.meta().srid = srid
	if c, ok := g.(*Collection); ok {
		for _, m := range c.geoms {
			SetSRID(m, srid)
		}
	}
}

// Same returns whether a and b are the same kind with the same dimensions
// and bit-for-bit equal coordinates. Cached boxes are compared only when
// both geometries have one. SRIDs are not compared.
func Same(a, b Geometry) bool {
	if a.Type() != b.Type() || a.Flags().ZM() != b.Flags().ZM() {
		return false
	}
	if a.BBox() != nil && b.BBox() != nil && !a.BBox().Same(b.BBox()) {
		return false
	}
	switch a := a.(type) {
	case *Point:
		return a.points.Same(b.(*Point).points)
	case *LineString:
		return a.points.Same(b.(*LineString).points)
	case *CircularString:
		return a.points.Same(b.(*CircularString).points)
	case *Triangle:
		return a.points.Same(b.(*Triangle).points)
	case *Polygon:
		bp := b.(*Polygon)
		if len(a.rings) != len(bp.rings) {
			return false
		}
		for i := range a.rings {
			if !a.rings[i].Same(bp.rings[i]) {
				return false
			}
		}
		return true
	case *Collection:
		bc := b.(*Collection)
		if len(a.geoms) != len(bc.geoms) {
			return false
		}
		for i := range a.geoms {
			if !Same(a.geoms[i], bc.geoms[i]) {
				return false
			}
		}
		return true
	}
	panic(unknownGeometry(a))
}

// StartPoint returns the first coordinate of g, or false if it is empty.
func StartPoint(g Geometry) (geopb.Point4D, bool) {
	switch g := g.(type) {
	case *Point:
		return g.points.StartPoint()
	case *LineString:
		return g.points.StartPoint()
	case *CircularString:
		return g.points.StartPoint()
	case *Triangle:
		return g.points.StartPoint()
	case *Polygon:
		if len(g.rings) == 0 {
			return geopb.Point4D{}, false
		}
		return g.rings[0].StartPoint()
	case *Collection:
		if len(g.geoms) == 0 {
			return geopb.Point4D{}, false
		}
		return StartPoint(g.geoms[0])
	}
	panic(unknownGeometry(g))
}

// EndPoint returns the last coordinate of a curve, or false if it is empty
// or not a curve.
func EndPoint(g Geometry) (geopb.Point4D, bool) {
	switch g := g.(type) {
	case *LineString:
		return g.points.EndPoint()
	case *CircularString:
		return g.points.EndPoint()
	case *Point, *Triangle, *Polygon:
		return geopb.Point4D{}, false
	case *Collection:
		if g.typ != geopb.CompoundCurveType || len(g.geoms) == 0 {
			return geopb.Point4D{}, false
		}
		return EndPoint(g.geoms[len(g.geoms)-1])
	}
	panic(unknownGeometry(g))
}

// Reverse reverses the vertex order of every curve and ring of g in place.
func Reverse(g Geometry) error {
	switch g := g.(type) {
	case *Point:
		return nil
	case *LineString:
		return g.points.Reverse()
	case *CircularString:
		return g.points.Reverse()
	case *Triangle:
		return g.points.Reverse()
	case *Polygon:
		for _, r := range g.rings {
			if err := r.Reverse(); err != nil {
				return err
			}
		}
	case *Collection:
		for _, m := range g.geoms {
			if err := Reverse(m); err != nil {
				return err
			}
		}
	default:
		return unknownGeometry(g)
	}
	return nil
}

// pointArrays calls fn on every point array of g, depth first.
func pointArrays(g Geometry, fn func(*ptarray.PointArray) error) error {
	switch g := g.(type) {
	case *Point:
		return fn(g.points)
	case *LineString:
		return fn(g.points)
	case *CircularString:
		return fn(g.points)
	case *Triangle:
		return fn(g.points)
	case *Polygon:
		for _, r := range g.rings {
			if err := fn(r); err != nil {
				return err
			}
		}
	case *Collection:
		for _, m := range g.geoms {
			if err := pointArrays(m, fn); err != nil {
				return err
			}
		}
	default:
		return unknownGeometry(g)
	}
	return nil
}

// SetSolid marks g as enclosing a volume, as a closed polyhedral surface
// does.
func SetSolid(g Geometry, solid bool) {
	b := g.meta()
	b.flags = b.flags.WithSolid(solid)
}
