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

	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/ptarray"
)

// ForceDims returns a copy of g whose coordinates have exactly the
// requested dimensions. Added ordinates are zero and dropped ones are
// discarded. The copy owns its coordinates and has no cached box.
func ForceDims(g Geometry, hasZ, hasM bool) Geometry {
	force := func(pa *ptarray.PointArray) *ptarray.PointArray { return pa.ForceDims(hasZ, hasM) }
	ret := clone(g, force)
	relabel(ret, hasZ, hasM)
	return ret
}

func relabel(g Geometry, hasZ, hasM bool) {
	b := g.meta()
	b.flags = b.flags.WithZ(hasZ).WithM(hasM)
	b.invalidateBBox()
	if c, ok := g.(*Collection); ok {
		for _, m := range c.geoms {
			relabel(m, hasZ, hasM)
		}
	}
}

// RelabelDims changes the declared dimensions of g and its coordinates
// without moving any ordinate. It fails unless every non-empty point array
// already stores as many ordinates as the new dimensions need.
func RelabelDims(g Geometry, hasZ, hasM bool) error {
	if err := pointArrays(g, func(pa *ptarray.PointArray) error {
		return pa.SetZM(hasZ, hasM)
	}); err != nil {
		return err
	}
	relabel(g, hasZ, hasM)
	return nil
}

// SwapOrdinates exchanges two ordinates in every coordinate of g. A cached
// box is recomputed when X or Y moves.
func SwapOrdinates(ctx context.Context, g Geometry, o1, o2 geopb.Ordinate) error {
	if o1 == o2 {
		return nil
	}
	if err := pointArrays(g, func(pa *ptarray.PointArray) error {
		return pa.SwapOrdinates(o1, o2)
	}); err != nil {
		return err
	}
	if o1 <= geopb.OrdinateY || o2 <= geopb.OrdinateY {
		return refreshBBoxes(ctx, g)
	}
	return nil
}

// FlipCoordinates exchanges X and Y in every coordinate of g.
func FlipCoordinates(ctx context.Context, g Geometry) error {
	return SwapOrdinates(ctx, g, geopb.OrdinateX, geopb.OrdinateY)
}

func refreshBBoxes(ctx context.Context, g Geometry) error {
	if c, ok := g.(*Collection); ok {
		for _, m := range c.geoms {
			if err := refreshBBoxes(ctx, m); err != nil {
				return err
			}
		}
	}
	return RefreshBBox(ctx, g)
}
