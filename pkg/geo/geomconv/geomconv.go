// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package geomconv converts between lwgeom geometries and go-geom's geom.T,
// whose encoders serve the formats lwgeom does not write itself.
package geomconv

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/lwgeom"
	"github.com/cockroachdb/lwgeom/pkg/geo/ptarray"
	"github.com/twpayne/go-geom"
)

func layout(hasZ, hasM bool) geom.Layout {
	switch {
	case hasZ && hasM:
		return geom.XYZM
	case hasZ:
		return geom.XYZ
	case hasM:
		return geom.XYM
	}
	return geom.XY
}

func dims(l geom.Layout) (hasZ, hasM bool, err error) {
	switch l {
	case geom.XY, geom.NoLayout:
		return false, false, nil
	case geom.XYZ:
		return true, false, nil
	case geom.XYM:
		return false, true, nil
	case geom.XYZM:
		return true, true, nil
	}
	return false, false, geoerr.NewTypeMismatchf("unsupported layout %s", l)
}

// ToGeomT converts g. Curves, triangles, TINs and polyhedral surfaces
// have no go-geom counterpart and return a TypeMismatch error.
func ToGeomT(g lwgeom.Geometry) (geom.T, error) {
	t, err := toGeomT(g)
	if err != nil {
		return nil, err
	}
	setSRID(t, int(g.SRID()))
	return t, nil
}

func toGeomT(g lwgeom.Geometry) (geom.T, error) {
	l := layout(g.HasZ(), g.HasM())
	switch g := g.(type) {
	case *lwgeom.Point:
		if g.Points().IsEmpty() {
			return geom.NewPointEmpty(l), nil
		}
		return geom.NewPointFlat(l, g.Points().FlatCoords()), nil
	case *lwgeom.LineString:
		return geom.NewLineStringFlat(l, g.Points().FlatCoords()), nil
	case *lwgeom.Polygon:
		flat, ends := rings(g)
		return geom.NewPolygonFlat(l, flat, ends), nil
	case *lwgeom.Collection:
		return collectionToGeomT(g, l)
	}
	return nil, geoerr.NewTypeMismatchf("%s has no go-geom equivalent", g.Type())
}

func rings(p *lwgeom.Polygon) ([]float64, []int) {
	var flat []float64
	ends := make([]int, 0, p.NumRings())
	for _, r := range p.Rings() {
		flat = append(flat, r.FlatCoords()...)
		ends = append(ends, len(flat))
	}
	return flat, ends
}

func collectionToGeomT(c *lwgeom.Collection, l geom.Layout) (geom.T, error) {
	switch c.Type() {
	case geopb.MultiPointType:
		mp := geom.NewMultiPoint(l)
		for _, m := range c.Geoms() {
			p, err := toGeomT(m)
			if err != nil {
				return nil, err
			}
			if err := mp.Push(p.(*geom.Point)); err != nil {
				return nil, errors.Wrap(err, "converting multipoint")
			}
		}
		return mp, nil
	case geopb.MultiLineStringType:
		mls := geom.NewMultiLineString(l)
		for _, m := range c.Geoms() {
			ls, err := toGeomT(m)
			if err != nil {
				return nil, err
			}
			if err := mls.Push(ls.(*geom.LineString)); err != nil {
				return nil, errors.Wrap(err, "converting multilinestring")
			}
		}
		return mls, nil
	case geopb.MultiPolygonType:
		mp := geom.NewMultiPolygon(l)
		for _, m := range c.Geoms() {
			p, err := toGeomT(m)
			if err != nil {
				return nil, err
			}
			if err := mp.Push(p.(*geom.Polygon)); err != nil {
				return nil, errors.Wrap(err, "converting multipolygon")
			}
		}
		return mp, nil
	case geopb.GeometryCollectionType:
		gc := geom.NewGeometryCollection()
		for _, m := range c.Geoms() {
			t, err := toGeomT(m)
			if err != nil {
				return nil, err
			}
			if err := gc.Push(t); err != nil {
				return nil, errors.Wrap(err, "converting geometry collection")
			}
		}
		return gc, nil
	}
	return nil, geoerr.NewTypeMismatchf("%s has no go-geom equivalent", c.Type())
}

// setSRID sets the SRID of t. geom.T has no SetSRID of its own.
func setSRID(t geom.T, srid int) {
	switch t := t.(type) {
	case *geom.Point:
		t.SetSRID(srid)
	case *geom.LineString:
		t.SetSRID(srid)
	case *geom.Polygon:
		t.SetSRID(srid)
	case *geom.MultiPoint:
		t.SetSRID(srid)
	case *geom.MultiLineString:
		t.SetSRID(srid)
	case *geom.MultiPolygon:
		t.SetSRID(srid)
	case *geom.GeometryCollection:
		t.SetSRID(srid)
	}
}

// FromGeomT converts t. Out of range SRIDs are clamped.
func FromGeomT(ctx context.Context, t geom.T) (lwgeom.Geometry, error) {
	g, err := fromGeomT(t)
	if err != nil {
		return nil, err
	}
	lwgeom.SetSRID(g, lwgeom.ClampSRID(ctx, geopb.SRID(t.SRID())))
	return g, nil
}

func flat(l geom.Layout, coords []float64) (*ptarray.PointArray, error) {
	hasZ, hasM, err := dims(l)
	if err != nil {
		return nil, err
	}
	// go-geom stores XYM with M third, as point arrays do.
	return ptarray.NewFlat(hasZ, hasM, append([]float64(nil), coords...))
}

func fromGeomT(t geom.T) (lwgeom.Geometry, error) {
	hasZ, hasM, err := dims(t.Layout())
	if err != nil {
		return nil, err
	}
	switch t := t.(type) {
	case *geom.Point:
		pa, err := flat(t.Layout(), t.FlatCoords())
		if err != nil {
			return nil, err
		}
		p, err := lwgeom.NewPoint(geopb.SRIDUnknown, pa)
		if err != nil {
			return nil, err
		}
		return p, nil
	case *geom.LineString:
		pa, err := flat(t.Layout(), t.FlatCoords())
		if err != nil {
			return nil, err
		}
		return lwgeom.NewLineString(geopb.SRIDUnknown, pa), nil
	case *geom.Polygon:
		p := lwgeom.NewPolygonEmpty(geopb.SRIDUnknown, hasZ, hasM)
		for i := 0; i < t.NumLinearRings(); i++ {
			pa, err := flat(t.Layout(), t.LinearRing(i).FlatCoords())
			if err != nil {
				return nil, err
			}
			if err := p.AddRing(pa); err != nil {
				return nil, err
			}
		}
		return p, nil
	case *geom.MultiPoint:
		return members(geopb.MultiPointType, hasZ, hasM, t.NumPoints(), func(i int) geom.T { return t.Point(i) })
	case *geom.MultiLineString:
		return members(geopb.MultiLineStringType, hasZ, hasM, t.NumLineStrings(), func(i int) geom.T { return t.LineString(i) })
	case *geom.MultiPolygon:
		return members(geopb.MultiPolygonType, hasZ, hasM, t.NumPolygons(), func(i int) geom.T { return t.Polygon(i) })
	case *geom.GeometryCollection:
		return members(geopb.GeometryCollectionType, hasZ, hasM, t.NumGeoms(), func(i int) geom.T { return t.Geom(i) })
	}
	return nil, geoerr.NewTypeMismatchf("unsupported go-geom type %T", t)
}

func members(
	typ geopb.Type, hasZ, hasM bool, n int, member func(int) geom.T,
) (lwgeom.Geometry, error) {
	c, err := lwgeom.NewCollection(typ, geopb.SRIDUnknown, hasZ, hasM)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		m, err := fromGeomT(member(i))
		if err != nil {
			return nil, err
		}
		// Collections take the widest member layout; narrower members are
		// padded to it.
		if m.HasZ() != hasZ || m.HasM() != hasM {
			m = lwgeom.ForceDims(m, hasZ, hasM)
		}
		if err := c.Add(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}
