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

import "github.com/cockroachdb/errors"

// Visitor receives each concrete geometry type through its own method.
type Visitor interface {
	VisitPoint(*Point) error
	VisitLineString(*LineString) error
	VisitCircularString(*CircularString) error
	VisitTriangle(*Triangle) error
	VisitPolygon(*Polygon) error
	VisitCollection(*Collection) error
}

// Walk dispatches g to the Visitor method for its concrete type. It does
// not descend into collection members; visitors recurse as they need.
func Walk(g Geometry, v Visitor) error {
	switch g := g.(type) {
	case *Point:
		return v.VisitPoint(g)
	case *LineString:
		return v.VisitLineString(g)
	case *CircularString:
		return v.VisitCircularString(g)
	case *Triangle:
		return v.VisitTriangle(g)
	case *Polygon:
		return v.VisitPolygon(g)
	case *Collection:
		return v.VisitCollection(g)
	}
	return unknownGeometry(g)
}

// unknownGeometry is the error for a Geometry implementation outside this
// package's concrete types.
func unknownGeometry(g Geometry) error {
	return errors.AssertionFailedf("unknown geometry %T", g)
}
