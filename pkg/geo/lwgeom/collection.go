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
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
)

// Collection is every geometry made of member geometries: the Multi*
// kinds, GeometryCollection, CompoundCurve, CurvePolygon, MultiCurve,
// MultiSurface, PolyhedralSurface and TIN. Its Type decides which members
// it admits.
type Collection struct {
	base
	geoms []Geometry
}

// NewCollection returns a collection of kind typ holding members.
func NewCollection(
	typ geopb.Type, srid geopb.SRID, hasZ, hasM bool, members ...Geometry,
) (*Collection, error) {
	if !typ.IsCollection() {
		return nil, geoerr.NewTypeMismatchf("%s is not a collection type", typ)
	}
	c := &Collection{base: makeBase(typ, srid, hasZ, hasM)}
	for _, g := range members {
		if err := c.Add(g); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NumGeoms returns the number of members.
func (c *Collection) NumGeoms() int { return len(c.geoms) }

// Geom returns member i.
func (c *Collection) Geom(i int) Geometry { return c.geoms[i] }

// Geoms returns every member. The slice must not be modified.
func (c *Collection) Geoms() []Geometry { return c.geoms }

func (c *Collection) checkMember(g Geometry) error {
	if g == nil {
		return geoerr.NewTypeMismatchf("cannot add a nil geometry to %s", c.typ)
	}
	if !geopb.AllowsSubtype(c.typ, g.Type()) {
		return geoerr.NewTypeMismatchf("%s cannot contain %s element", c.typ, g.Type())
	}
	if g.HasZ() != c.HasZ() || g.HasM() != c.HasM() {
		return geoerr.NewTypeMismatchf("%s %s cannot contain %s %s element",
			c.typ, dimsName(c.HasZ(), c.HasM()), g.Type(), dimsName(g.HasZ(), g.HasM()))
	}
	return nil
}

// Add appends a member after checking that the collection kind admits it
// and that the dimensions agree. A failed addition leaves the collection
// unchanged.
func (c *Collection) Add(g Geometry) error {
	if err := c.checkMember(g); err != nil {
		return err
	}
	c.geoms = append(c.geoms, g)
	c.invalidateBBox()
	return nil
}

// AddContinuous appends a curve that must start where the previous member
// ends, as compound curve members do. Empty curves are rejected.
func (c *Collection) AddContinuous(g Geometry) error {
	if err := c.checkMember(g); err != nil {
		return err
	}
	start, ok := StartPoint(g)
	if !ok {
		return geoerr.NewInvalidGeometryf("%s cannot contain an empty %s", c.typ, g.Type())
	}
	if n := len(c.geoms); n > 0 {
		end, ok := EndPoint(c.geoms[n-1])
		if !ok {
			return geoerr.NewInvalidGeometryf("%s contains an empty member", c.typ)
		}
		if !geopb.FPEquals(end.X, start.X) || !geopb.FPEquals(end.Y, start.Y) {
			return geoerr.NewInvalidGeometryf("%s must be continuous: (%g %g) does not join (%g %g)",
				c.typ, start.X, start.Y, end.X, end.Y)
		}
	}
	c.geoms = append(c.geoms, g)
	c.invalidateBBox()
	return nil
}
