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
	"context"

	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geogfn"
	"github.com/cockroachdb/lwgeom/pkg/geo/geomfn"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/ptarray"
)

// CalculateGBox computes the bounding box of g, ignoring any cached box.
// It returns nil for an empty geometry. Geodetic geometries are bounded in
// geocentric coordinates on the unit sphere.
func CalculateGBox(ctx context.Context, g Geometry) (*geopb.GBox, error) {
	if IsEmpty(g) {
		return nil, nil
	}
	if g.IsGeodetic() {
		return geodeticGBox(ctx, g)
	}
	return cartesianGBox(ctx, g)
}

// CalculateCartesianGBox computes the planar bounding box of g, treating
// geodetic coordinates as plain longitude and latitude. It returns nil for
// an empty geometry.
func CalculateCartesianGBox(ctx context.Context, g Geometry) (*geopb.GBox, error) {
	if IsEmpty(g) {
		return nil, nil
	}
	return cartesianGBox(ctx, g)
}

func pointArrayGBox(pa *ptarray.PointArray, flags geopb.Flags) *geopb.GBox {
	if pa.IsEmpty() {
		return nil
	}
	box := geopb.NewGBoxFromPoint(flags, pa.Point4D(0))
	for i := 1; i < pa.NPoints(); i++ {
		box.ExpandPoint(pa.Point4D(i))
	}
	return box
}

func circularStringGBox(pa *ptarray.PointArray, flags geopb.Flags) (*geopb.GBox, error) {
	if pa.NPoints() < 3 {
		return pointArrayGBox(pa, flags), nil
	}
	var box *geopb.GBox
	for i := 2; i < pa.NPoints(); i += 2 {
		arc := geomfn.ArcGBox2D(pa.Point4D(i-2), pa.Point4D(i-1), pa.Point4D(i))
		arc.Flags = flags
		if box == nil {
			box = arc
			continue
		}
		if err := box.Merge(arc); err != nil {
			return nil, err
		}
	}
	return box, nil
}

func cartesianGBox(ctx context.Context, g Geometry) (*geopb.GBox, error) {
	flags := geopb.MakeFlags(g.HasZ(), g.HasM(), false)
	switch g := g.(type) {
	case *Point:
		return pointArrayGBox(g.points, flags), nil
	case *LineString:
		return pointArrayGBox(g.points, flags), nil
	case *Triangle:
		return pointArrayGBox(g.points, flags), nil
	case *CircularString:
		return circularStringGBox(g.points, flags)
	case *Polygon:
		if len(g.rings) == 0 {
			return nil, nil
		}
		return pointArrayGBox(g.rings[0], flags), nil
	case *Collection:
		return collectionGBox(ctx, g, cartesianGBox)
	}
	return nil, unknownGeometry(g)
}

func collectionGBox(
	ctx context.Context,
	c *Collection,
	memberGBox func(context.Context, Geometry) (*geopb.GBox, error),
) (*geopb.GBox, error) {
	var box *geopb.GBox
	for _, m := range c.geoms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if IsEmpty(m) {
			continue
		}
		mbox, err := memberGBox(ctx, m)
		if err != nil {
			return nil, err
		}
		if mbox == nil {
			continue
		}
		if box == nil {
			box = mbox.Clone()
			continue
		}
		if err := box.Merge(mbox); err != nil {
			return nil, err
		}
	}
	return box, nil
}

func geodeticGBox(ctx context.Context, g Geometry) (*geopb.GBox, error) {
	flags := geopb.MakeFlags(g.HasZ(), g.HasM(), true)
	switch g := g.(type) {
	case *Point:
		return geogfn.PointArrayGBox(g.points, flags)
	case *LineString:
		return geogfn.PointArrayGBox(g.points, flags)
	case *Triangle:
		return geogfn.PointArrayGBox(g.points, flags)
	case *Polygon:
		var box *geopb.GBox
		for _, r := range g.rings {
			rbox, err := geogfn.PointArrayGBox(r, flags)
			if err != nil {
				return nil, err
			}
			if rbox == nil {
				continue
			}
			if box == nil {
				box = rbox
			} else if err := box.Merge(rbox); err != nil {
				return nil, err
			}
		}
		if box != nil {
			geogfn.CheckPoles(box)
		}
		return box, nil
	case *Collection:
		switch g.typ {
		case geopb.MultiPointType, geopb.MultiLineStringType, geopb.MultiPolygonType,
			geopb.PolyhedralSurfaceType, geopb.TINType, geopb.GeometryCollectionType:
			return collectionGBox(ctx, g, geodeticGBox)
		}
	case *CircularString:
	default:
		return nil, unknownGeometry(g)
	}
	return nil, geoerr.NewTypeMismatchf("unsupported geodetic type %s", g.Type())
}

// GetGBox returns the cached box of g, or computes one without caching it.
func GetGBox(ctx context.Context, g Geometry) (*geopb.GBox, error) {
	if box := g.BBox(); box != nil {
		return box, nil
	}
	return CalculateGBox(ctx, g)
}

// AddBBox computes and caches the box of g. It does nothing when g already
// has a box or is empty.
func AddBBox(ctx context.Context, g Geometry) error {
	if g.BBox() != nil || IsEmpty(g) {
		return nil
	}
	box, err := CalculateGBox(ctx, g)
	if err != nil {
		return err
	}
	g.meta().setBBox(box)
	return nil
}

// DropBBox removes the cached box of g and all of its members.
func DropBBox(g Geometry) {
	g.meta().invalidateBBox()
	if c, ok := g.(*Collection); ok {
		for _, m := range c.geoms {
			DropBBox(m)
		}
	}
}

// RefreshBBox recomputes the cached box of g if it has one.
func RefreshBBox(ctx context.Context, g Geometry) error {
	if g.BBox() == nil {
		return nil
	}
	g.meta().invalidateBBox()
	return AddBBox(ctx, g)
}

// SetBBox caches box as the bounding box of g. The caller guarantees that
// box holds g, as when it was read from a serialized form.
func SetBBox(g Geometry, box *geopb.GBox) {
	g.meta().setBBox(box)
}
