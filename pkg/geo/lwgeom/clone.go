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

import "github.com/cockroachdb/lwgeom/pkg/geo/ptarray"

// Clone returns a copy of g that shares coordinate storage with g. The
// shared point arrays are read-only in the copy, so mutating the copy's
// coordinates fails instead of changing g. Member lists and boxes are not
// shared.
func Clone(g Geometry) Geometry {
	return clone(g, (*ptarray.PointArray).Clone)
}

// CloneDeep returns a copy of g that owns all of its coordinates.
func CloneDeep(g Geometry) Geometry {
	return clone(g, (*ptarray.PointArray).CloneDeep)
}

func clone(g Geometry, copyPoints func(*ptarray.PointArray) *ptarray.PointArray) Geometry {
	switch g := g.(type) {
	case *Point:
		return &Point{linear: g.linear.clone(copyPoints)}
	case *LineString:
		return &LineString{linear: g.linear.clone(copyPoints)}
	case *CircularString:
		return &CircularString{linear: g.linear.clone(copyPoints)}
	case *Triangle:
		return &Triangle{linear: g.linear.clone(copyPoints)}
	case *Polygon:
		ret := &Polygon{base: g.base.clone(), rings: make([]*ptarray.PointArray, len(g.rings))}
		for i, r := range g.rings {
			ret.rings[i] = copyPoints(r)
		}
		return ret
	case *Collection:
		ret := &Collection{base: g.base.clone(), geoms: make([]Geometry, len(g.geoms))}
		for i, m := range g.geoms {
			ret.geoms[i] = clone(m, copyPoints)
		}
		return ret
	}
	panic(unknownGeometry(g))
}

func (b *base) clone() base {
	ret := *b
	ret.bbox = b.bbox.Clone()
	return ret
}

func (l *linear) clone(copyPoints func(*ptarray.PointArray) *ptarray.PointArray) linear {
	return linear{base: l.base.clone(), points: copyPoints(l.points)}
}
