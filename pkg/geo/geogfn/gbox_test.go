// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package geogfn

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/ptarray"
	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func requireBox(t *testing.T, expected [6]float64, box *geopb.GBox) {
	t.Helper()
	require.InDelta(t, expected[0], box.XMin, tolerance, "xmin")
	require.InDelta(t, expected[1], box.XMax, tolerance, "xmax")
	require.InDelta(t, expected[2], box.YMin, tolerance, "ymin")
	require.InDelta(t, expected[3], box.YMax, tolerance, "ymax")
	require.InDelta(t, expected[4], box.ZMin, tolerance, "zmin")
	require.InDelta(t, expected[5], box.ZMax, tolerance, "zmax")
}

func TestLonLatToCart(t *testing.T) {
	testCases := []struct {
		desc     string
		p        geopb.Point2D
		expected r3.Vector
	}{
		{desc: "origin", p: geopb.Point2D{}, expected: r3.Vector{X: 1}},
		{desc: "east", p: geopb.Point2D{X: 90}, expected: r3.Vector{Y: 1}},
		{desc: "north pole", p: geopb.Point2D{Y: 90}, expected: r3.Vector{Z: 1}},
		{desc: "antimeridian", p: geopb.Point2D{X: 180}, expected: r3.Vector{X: -1}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			v := LonLatToCart(tc.p)
			require.InDelta(t, tc.expected.X, v.X, tolerance)
			require.InDelta(t, tc.expected.Y, v.Y, tolerance)
			require.InDelta(t, tc.expected.Z, v.Z, tolerance)
		})
	}
}

func TestEdgeGBox(t *testing.T) {
	s := math.Sqrt2 / 2
	t.Run("equatorial edge crossing the prime meridian", func(t *testing.T) {
		box, err := EdgeGBox(LonLatToCart(geopb.Point2D{X: -45}), LonLatToCart(geopb.Point2D{X: 45}))
		require.NoError(t, err)
		requireBox(t, [6]float64{s, 1, -s, s, 0, 0}, box)
	})
	t.Run("meridian edge crossing the equator", func(t *testing.T) {
		box, err := EdgeGBox(LonLatToCart(geopb.Point2D{Y: -45}), LonLatToCart(geopb.Point2D{Y: 45}))
		require.NoError(t, err)
		requireBox(t, [6]float64{s, 1, 0, 0, -s, s}, box)
	})
	t.Run("zero length edge", func(t *testing.T) {
		a := LonLatToCart(geopb.Point2D{X: 10, Y: 10})
		box, err := EdgeGBox(a, a)
		require.NoError(t, err)
		requireBox(t, [6]float64{a.X, a.X, a.Y, a.Y, a.Z, a.Z}, box)
	})
	t.Run("antipodal edge", func(t *testing.T) {
		_, err := EdgeGBox(LonLatToCart(geopb.Point2D{}), LonLatToCart(geopb.Point2D{X: 180}))
		require.Error(t, err)
		require.True(t, errors.Is(err, geoerr.DegenerateGeometry))
	})
}

func TestPointArrayGBox(t *testing.T) {
	s := math.Sqrt2 / 2
	t.Run("empty", func(t *testing.T) {
		box, err := PointArrayGBox(ptarray.ConstructEmpty(false, false, 0), 0)
		require.NoError(t, err)
		require.Nil(t, box)
	})
	t.Run("single point", func(t *testing.T) {
		box, err := PointArrayGBox(ptarray.MustNewFlat(false, false, []float64{90, 0}), 0)
		require.NoError(t, err)
		require.True(t, box.Flags.IsGeodetic())
		requireBox(t, [6]float64{0, 0, 1, 1, 0, 0}, box)
	})
	t.Run("quarter of the equator", func(t *testing.T) {
		box, err := PointArrayGBox(ptarray.MustNewFlat(false, false, []float64{0, 0, 45, 0, 90, 0}), 0)
		require.NoError(t, err)
		requireBox(t, [6]float64{0, 1, 0, 1, 0, 0}, box)
	})
	t.Run("keeps z and m flags", func(t *testing.T) {
		box, err := PointArrayGBox(ptarray.MustNewFlat(true, true, []float64{-45, 0, 1, 2, 45, 0, 3, 4}), geopb.MakeFlags(true, true, false))
		require.NoError(t, err)
		require.Equal(t, geopb.MakeFlags(true, true, true), box.Flags)
		requireBox(t, [6]float64{s, 1, -s, s, 0, 0}, box)
	})
}

func TestCheckPoles(t *testing.T) {
	t.Run("ring around the north pole", func(t *testing.T) {
		box, err := PointArrayGBox(ptarray.MustNewFlat(false, false, []float64{
			0, 80, 90, 80, 180, 80, -90, 80, 0, 80,
		}), 0)
		require.NoError(t, err)
		require.Less(t, box.ZMax, 1.0)
		require.True(t, CheckPoles(box))
		require.Equal(t, 1.0, box.ZMax)
	})
	t.Run("box away from the axes", func(t *testing.T) {
		box := &geopb.GBox{Flags: geopb.FlagGeodetic, XMin: 0.1, XMax: 0.2, YMin: 0.1, YMax: 0.2, ZMin: 0.9, ZMax: 0.95}
		require.False(t, CheckPoles(box))
	})
	t.Run("box straddling the x and z axes", func(t *testing.T) {
		box := &geopb.GBox{Flags: geopb.FlagGeodetic, XMin: -0.1, XMax: 0.1, YMin: -0.9, YMax: -0.8, ZMin: -0.1, ZMax: 0.1}
		require.True(t, CheckPoles(box))
		require.Equal(t, -1.0, box.YMin)
	})
}

func TestNormalize(t *testing.T) {
	lonCases := []struct{ in, expected float64 }{
		{0, 0}, {180, 180}, {-180, 180}, {190, -170}, {-190, 170},
		{540, 180}, {720, 0}, {-370, -10},
	}
	for _, tc := range lonCases {
		require.InDelta(t, tc.expected, NormalizeLongitude(tc.in), tolerance, "lon %v", tc.in)
	}
	latCases := []struct{ in, expected float64 }{
		{0, 0}, {90, 90}, {100, 80}, {-100, -80}, {190, -10}, {-190, 10}, {450, 90},
	}
	for _, tc := range latCases {
		require.InDelta(t, tc.expected, NormalizeLatitude(tc.in), tolerance, "lat %v", tc.in)
	}
}

func TestForceRange(t *testing.T) {
	pa := ptarray.MustNewFlat(false, true, []float64{10, 10, 7, 190, 100, 8})
	require.False(t, InRange(pa))
	changed, err := ForceRange(pa)
	require.NoError(t, err)
	require.True(t, changed)
	require.True(t, InRange(pa))
	require.Equal(t, []float64{10, 10, 7, -170, 80, 8}, pa.FlatCoords())

	changed, err = ForceRange(pa)
	require.NoError(t, err)
	require.False(t, changed)

	_, err = ForceRange(ptarray.MustNewFlat(false, false, []float64{200, 0}).Clone())
	require.True(t, errors.Is(err, geoerr.ReadOnly))
}
