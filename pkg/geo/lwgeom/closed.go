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

// IsClosed returns whether every curve and ring of g ends where it starts.
// Curves are compared in three dimensions when they carry Z. Polyhedral
// surfaces and TINs are closed when every edge is shared by exactly two
// faces. Kinds without an end point count as closed.
func IsClosed(g Geometry) bool {
	if IsEmpty(g) {
		return false
	}
	switch g := g.(type) {
	case *LineString:
		return closedByDims(g.points)
	case *CircularString:
		return closedByDims(g.points)
	case *Polygon:
		for _, r := range g.rings {
			if !closedByDims(r) {
				return false
			}
		}
		return true
	case *Collection:
		switch g.typ {
		case geopb.CompoundCurveType:
			return compoundIsClosed(g)
		case geopb.TINType:
			return surfaceIsClosed(g, func(m Geometry) *ptarray.PointArray {
				t := m.(*Triangle)
				if t.points.NPoints() != 4 {
					return nil
				}
				return t.points
			})
		case geopb.PolyhedralSurfaceType:
			return surfaceIsClosed(g, func(m Geometry) *ptarray.PointArray {
				p := m.(*Polygon)
				if len(p.rings) == 0 {
					return nil
				}
				return p.rings[0]
			})
		}
		for _, m := range g.geoms {
			if !IsClosed(m) {
				return false
			}
		}
		return true
	case *Point, *Triangle:
		return true
	}
	panic(unknownGeometry(g))
}

func closedByDims(pa *ptarray.PointArray) bool {
	if pa.HasZ() {
		return pa.IsClosed3D()
	}
	return pa.IsClosed2D()
}

func compoundIsClosed(c *Collection) bool {
	start, ok := StartPoint(c.geoms[0])
	if !ok {
		return false
	}
	end, ok := EndPoint(c.geoms[len(c.geoms)-1])
	if !ok {
		return false
	}
	if start.X != end.X || start.Y != end.Y {
		return false
	}
	return !c.HasZ() || start.Z == end.Z
}

// faceEdge is an undirected edge of a surface face, stored with its lower
// end first.
type faceEdge struct {
	a, b  [3]float64
	face  int
	count int
}

func lessXYZ(a, b [3]float64) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	if a[1] != b[1] {
		return a[1] < b[1]
	}
	return a[2] < b[2]
}

// surfaceIsClosed counts, for every edge of every face, the faces sharing
// it. A face array of nil marks a malformed face, which makes the surface
// open. Surfaces without Z are never closed.
func surfaceIsClosed(c *Collection, faceRing func(Geometry) *ptarray.PointArray) bool {
	if !c.HasZ() {
		return false
	}
	var edges []faceEdge
	for face, m := range c.geoms {
		ring := faceRing(m)
		if ring == nil || ring.NPoints() < 2 {
			return false
		}
		for j := 0; j+1 < ring.NPoints(); j++ {
			p, q := ring.Point4D(j), ring.Point4D(j+1)
			a, b := [3]float64{p.X, p.Y, p.Z}, [3]float64{q.X, q.Y, q.Z}
			if lessXYZ(b, a) {
				a, b = b, a
			}
			found := false
			for k := range edges {
				if edges[k].a == a && edges[k].b == b && edges[k].face != face {
					edges[k].count++
					if edges[k].count > 2 {
						return false
					}
					found = true
					break
				}
			}
			if !found {
				edges = append(edges, faceEdge{a: a, b: b, face: face, count: 1})
			}
		}
	}
	for _, e := range edges {
		if e.count != 2 {
			return false
		}
	}
	return len(edges) >= len(c.geoms)
}
