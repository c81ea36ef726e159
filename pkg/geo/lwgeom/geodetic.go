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
	"github.com/cockroachdb/lwgeom/pkg/geo/geogfn"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/ptarray"
)

// SetGeodetic marks g and all of its members as longitude/latitude on the
// sphere, or as planar. A cached box is dropped since its meaning changes.
func SetGeodetic(g Geometry, geodetic bool) {
	b := g.meta()
	if b.flags.IsGeodetic() != geodetic {
		b.invalidateBBox()
	}
	b.flags = b.flags.WithGeodetic(geodetic)
	if c, ok := g.(*Collection); ok {
		for _, m := range c.geoms {
			SetGeodetic(m, geodetic)
		}
	}
}

// CheckGeodetic returns whether every coordinate of g is a valid
// longitude/latitude pair.
func CheckGeodetic(g Geometry) bool {
	ok := true
	_ = pointArrays(g, func(pa *ptarray.PointArray) error {
		ok = ok && geogfn.InRange(pa)
		return nil
	})
	return ok
}

// ForceGeodetic wraps every out-of-range longitude/latitude of g back into
// range. It returns whether any coordinate changed. Only the OGC simple
// kinds and their collections can be forced.
func ForceGeodetic(g Geometry) (bool, error) {
	switch g.Type() {
	case geopb.PointType, geopb.LineStringType, geopb.PolygonType,
		geopb.MultiPointType, geopb.MultiLineStringType, geopb.MultiPolygonType:
	case geopb.GeometryCollectionType:
		changed := false
		for _, m := range g.(*Collection).geoms {
			c, err := ForceGeodetic(m)
			if err != nil {
				return changed, err
			}
			changed = changed || c
		}
		if changed {
			g.meta().invalidateBBox()
		}
		return changed, nil
	default:
		return false, geoerr.NewTypeMismatchf("cannot force %s into geodetic range", g.Type())
	}
	changed := false
	err := pointArrays(g, func(pa *ptarray.PointArray) error {
		c, err := geogfn.ForceRange(pa)
		changed = changed || c
		return err
	})
	if changed {
		DropBBox(g)
	}
	return changed, err
}
