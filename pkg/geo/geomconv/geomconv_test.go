// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package geomconv

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/lwgeom"
	"github.com/cockroachdb/lwgeom/pkg/geo/wkt"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, text := range []string{
		"SRID=4326;POINT(1 2)",
		"POINT EMPTY",
		"POINT M (1 2 3)",
		"LINESTRING Z (0 0 1,1 1 2)",
		"POLYGON((0 0,4 0,4 4,0 0),(1 1,2 1,2 2,1 1))",
		"MULTIPOINT ZM (1 2 3 4,5 6 7 8)",
		"MULTILINESTRING((0 0,1 1),(2 2,3 3))",
		"MULTIPOLYGON(((0 0,1 0,1 1,0 0)),((5 5,6 5,6 6,5 5)))",
		"SRID=3857;GEOMETRYCOLLECTION(POINT(1 2),LINESTRING(0 0,1 1))",
	} {
		t.Run(text, func(t *testing.T) {
			g, err := wkt.Unmarshal(ctx, text)
			require.NoError(t, err)
			gt, err := ToGeomT(g)
			require.NoError(t, err)
			require.Equal(t, int(g.SRID()), gt.SRID())
			back, err := FromGeomT(ctx, gt)
			require.NoError(t, err)
			require.True(t, lwgeom.Same(g, back))
			require.Equal(t, g.SRID(), back.SRID())
		})
	}
}

func TestLayout(t *testing.T) {
	ctx := context.Background()
	g, err := wkt.Unmarshal(ctx, "LINESTRING M (0 0 5,1 1 6)")
	require.NoError(t, err)
	gt, err := ToGeomT(g)
	require.NoError(t, err)
	require.Equal(t, geom.XYM, gt.Layout())
	require.Equal(t, []float64{0, 0, 5, 1, 1, 6}, gt.FlatCoords())
}

func TestNoEquivalent(t *testing.T) {
	ctx := context.Background()
	for _, text := range []string{
		"CIRCULARSTRING(0 0,1 1,2 0)",
		"TRIANGLE((0 0,1 0,0 1,0 0))",
		"GEOMETRYCOLLECTION(COMPOUNDCURVE((0 0,1 1)))",
	} {
		t.Run(text, func(t *testing.T) {
			g, err := wkt.Unmarshal(ctx, text)
			require.NoError(t, err)
			_, err = ToGeomT(g)
			require.True(t, errors.Is(err, geoerr.TypeMismatch), "%v", err)
		})
	}
}

func TestMixedCollection(t *testing.T) {
	ctx := context.Background()
	gc := geom.NewGeometryCollection().MustPush(
		geom.NewPointFlat(geom.XY, []float64{1, 2}),
		geom.NewPointFlat(geom.XYZ, []float64{3, 4, 5}),
	)
	g, err := FromGeomT(ctx, gc)
	require.NoError(t, err)
	require.True(t, g.HasZ())
	for _, m := range g.(*lwgeom.Collection).Geoms() {
		require.True(t, m.HasZ())
	}
}
