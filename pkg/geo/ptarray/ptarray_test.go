// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package ptarray

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestConstructEmptyGrowth(t *testing.T) {
	pa := ConstructEmpty(false, false, 0)
	require.Equal(t, 0, pa.NPoints())
	require.Equal(t, 0, pa.MaxPoints())
	require.NoError(t, pa.Append(geopb.Point4D{X: 1, Y: 1}, true))
	require.Equal(t, initialCapacity, pa.MaxPoints())
	for i := 1; i <= initialCapacity; i++ {
		require.NoError(t, pa.Append(geopb.Point4D{X: float64(i)}, true))
	}
	require.Equal(t, initialCapacity+1, pa.NPoints())
	require.Equal(t, 2*initialCapacity, pa.MaxPoints())
	require.LessOrEqual(t, pa.NPoints(), pa.MaxPoints())
}

func TestPoint4DDims(t *testing.T) {
	testCases := []struct {
		desc     string
		hasZ     bool
		hasM     bool
		flat     []float64
		expected geopb.Point4D
	}{
		{desc: "xy", flat: []float64{1, 2}, expected: geopb.Point4D{X: 1, Y: 2}},
		{desc: "xyz", hasZ: true, flat: []float64{1, 2, 3}, expected: geopb.Point4D{X: 1, Y: 2, Z: 3}},
		{desc: "xym", hasM: true, flat: []float64{1, 2, 3}, expected: geopb.Point4D{X: 1, Y: 2, M: 3}},
		{desc: "xyzm", hasZ: true, hasM: true, flat: []float64{1, 2, 3, 4}, expected: geopb.Point4D{X: 1, Y: 2, Z: 3, M: 4}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			pa := MustNewFlat(tc.hasZ, tc.hasM, tc.flat)
			require.Equal(t, tc.expected, pa.Point4D(0))

			borrowed, err := ConstructReference(tc.hasZ, tc.hasM, 1, pa.Bytes())
			require.NoError(t, err)
			require.True(t, borrowed.IsBorrowed())
			require.Equal(t, tc.expected, borrowed.Point4D(0))
			require.True(t, borrowed.Same(pa))
		})
	}
}

func TestNewFlatMisaligned(t *testing.T) {
	_, err := NewFlat(true, false, []float64{1, 2, 3, 4})
	require.Error(t, err)
	require.Panics(t, func() { MustNewFlat(false, false, []float64{1}) })
}

func TestConstructShortBuffer(t *testing.T) {
	_, err := ConstructCopy(false, false, 2, make([]byte, 24))
	require.True(t, errors.Is(err, geoerr.MalformedInput))
	_, err = ConstructReference(false, false, 2, make([]byte, 24))
	require.True(t, errors.Is(err, geoerr.MalformedInput))
}

func TestAppendDuplicates(t *testing.T) {
	pa := MustNewFlat(true, false, []float64{0, 0, 0, 1, 1, 1})
	require.NoError(t, pa.Append(geopb.Point4D{X: 1, Y: 1, Z: 1}, false))
	require.Equal(t, 2, pa.NPoints())
	require.NoError(t, pa.Append(geopb.Point4D{X: 1, Y: 1, Z: 2}, false))
	require.Equal(t, 3, pa.NPoints())
	require.NoError(t, pa.Append(geopb.Point4D{X: 1, Y: 1, Z: 2}, true))
	require.Equal(t, 4, pa.NPoints())
	// M is ignored on arrays without M.
	require.NoError(t, pa.Append(geopb.Point4D{X: 1, Y: 1, Z: 2, M: 9}, false))
	require.Equal(t, 4, pa.NPoints())
}

func TestInsertRemove(t *testing.T) {
	pa := MustNewFlat(false, false, []float64{0, 0, 2, 2})
	require.NoError(t, pa.Insert(geopb.Point4D{X: 1, Y: 1}, 1))
	require.Equal(t, []float64{0, 0, 1, 1, 2, 2}, pa.FlatCoords())
	require.NoError(t, pa.Insert(geopb.Point4D{X: -1, Y: -1}, 0))
	require.NoError(t, pa.Insert(geopb.Point4D{X: 3, Y: 3}, 4))
	require.Equal(t, []float64{-1, -1, 0, 0, 1, 1, 2, 2, 3, 3}, pa.FlatCoords())
	require.Error(t, pa.Insert(geopb.Point4D{}, 6))
	require.Error(t, pa.Insert(geopb.Point4D{}, -1))

	require.NoError(t, pa.Remove(0))
	require.NoError(t, pa.Remove(3))
	require.Equal(t, []float64{0, 0, 1, 1, 2, 2}, pa.FlatCoords())
	require.Error(t, pa.Remove(3))
	require.Error(t, pa.RemoveKeeping(0, 3))
	require.NoError(t, pa.RemoveKeeping(0, 2))
	require.Equal(t, 2, pa.NPoints())
}

func TestAppendArray(t *testing.T) {
	testCases := []struct {
		desc      string
		first     []float64
		second    []float64
		tolerance float64
		expected  []float64
		expectErr bool
	}{
		{
			desc:      "shared endpoint kept once",
			first:     []float64{0, 0, 1, 1},
			second:    []float64{1, 1, 2, 2},
			tolerance: 0,
			expected:  []float64{0, 0, 1, 1, 2, 2},
		},
		{
			desc:      "gap with zero tolerance",
			first:     []float64{0, 0, 1, 1},
			second:    []float64{1.5, 1, 2, 2},
			tolerance: 0,
			expectErr: true,
		},
		{
			desc:      "gap within tolerance",
			first:     []float64{0, 0, 1, 1},
			second:    []float64{1.5, 1, 2, 2},
			tolerance: 1,
			expected:  []float64{0, 0, 1, 1, 1.5, 1, 2, 2},
		},
		{
			desc:      "gap beyond tolerance",
			first:     []float64{0, 0, 1, 1},
			second:    []float64{5, 1, 2, 2},
			tolerance: 1,
			expectErr: true,
		},
		{
			desc:      "negative tolerance accepts any gap",
			first:     []float64{0, 0, 1, 1},
			second:    []float64{5, 1, 2, 2},
			tolerance: -1,
			expected:  []float64{0, 0, 1, 1, 5, 1, 2, 2},
		},
		{
			desc:      "empty target",
			first:     []float64{},
			second:    []float64{5, 1, 2, 2},
			tolerance: 0,
			expected:  []float64{5, 1, 2, 2},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			pa := MustNewFlat(false, false, tc.first)
			err := pa.AppendArray(MustNewFlat(false, false, tc.second), tc.tolerance)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, pa.FlatCoords())
		})
	}

	t.Run("dimension mismatch", func(t *testing.T) {
		pa := MustNewFlat(false, false, []float64{0, 0})
		err := pa.AppendArray(MustNewFlat(true, false, []float64{0, 0, 0}), -1)
		require.True(t, errors.Is(err, geoerr.TypeMismatch))
	})
}

func TestReadOnly(t *testing.T) {
	owned := MustNewFlat(false, false, []float64{0, 0, 1, 1})
	alias := owned.Clone()
	require.True(t, alias.IsReadOnly())
	require.False(t, owned.IsReadOnly())
	require.True(t, alias.Same(owned))

	for _, mutate := range []func(*PointArray) error{
		func(pa *PointArray) error { return pa.Append(geopb.Point4D{X: 5}, true) },
		func(pa *PointArray) error { return pa.Insert(geopb.Point4D{X: 5}, 0) },
		func(pa *PointArray) error { return pa.Remove(0) },
		func(pa *PointArray) error { return pa.SetPoint4D(0, geopb.Point4D{}) },
		func(pa *PointArray) error { return pa.Reverse() },
		func(pa *PointArray) error { return pa.SwapOrdinates(geopb.OrdinateX, geopb.OrdinateY) },
	} {
		err := mutate(alias)
		require.True(t, errors.Is(err, geoerr.ReadOnly), "%v", err)
	}
	require.Equal(t, []float64{0, 0, 1, 1}, owned.FlatCoords())

	deep := alias.CloneDeep()
	require.False(t, deep.IsReadOnly())
	require.NoError(t, deep.Append(geopb.Point4D{X: 2, Y: 2}, false))
	require.Equal(t, 2, owned.NPoints())

	borrowed, err := ConstructReference(false, false, 2, owned.Bytes())
	require.NoError(t, err)
	require.True(t, borrowed.Clone().IsBorrowed())
	require.False(t, borrowed.CloneDeep().IsBorrowed())
}

func TestIsClosed(t *testing.T) {
	testCases := []struct {
		desc              string
		hasZ, hasM        bool
		flat              []float64
		closed, closed2D  bool
		closed3D, closedZ bool
	}{
		{desc: "empty", flat: []float64{}},
		{
			desc: "2d closed", flat: []float64{0, 0, 1, 1, 0, 0},
			closed: true, closed2D: true, closed3D: true, closedZ: true,
		},
		{
			desc: "z differs", hasZ: true, flat: []float64{0, 0, 0, 1, 1, 1, 0, 0, 5},
			closed2D: true,
		},
		{
			desc: "m differs", hasM: true, flat: []float64{0, 0, 0, 1, 1, 1, 0, 0, 5},
			closed2D: true, closedZ: true,
		},
		{
			desc: "zm m differs", hasZ: true, hasM: true, flat: []float64{0, 0, 0, 0, 1, 1, 1, 1, 0, 0, 0, 5},
			closed2D: true, closed3D: true, closedZ: true,
		},
		{
			desc: "negative zero end", flat: []float64{0, 0, 1, 1, math.Copysign(0, -1), 0},
		},
		{
			desc: "nan ends", flat: []float64{math.NaN(), 0, 1, 1, math.NaN(), 0},
			closed: true, closed2D: true, closed3D: true, closedZ: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			pa := MustNewFlat(tc.hasZ, tc.hasM, tc.flat)
			require.Equal(t, tc.closed, pa.IsClosed())
			require.Equal(t, tc.closed2D, pa.IsClosed2D())
			require.Equal(t, tc.closed3D, pa.IsClosed3D())
			require.Equal(t, tc.closedZ, pa.IsClosedZ())
		})
	}
}

func TestSame(t *testing.T) {
	a := MustNewFlat(false, false, []float64{0, 0, 1, 1})
	require.True(t, a.Same(MustNewFlat(false, false, []float64{0, 0, 1, 1})))
	require.False(t, a.Same(MustNewFlat(false, false, []float64{0, 0, 1, 2})))
	require.False(t, a.Same(MustNewFlat(false, true, []float64{0, 0, 0, 1, 1, 0})))
	require.False(t, MustNewFlat(false, false, []float64{0, math.Copysign(0, -1)}).Same(
		MustNewFlat(false, false, []float64{0, 0})))
	require.True(t, ConstructEmpty(false, false, 0).Same(ConstructEmpty(false, false, 4)))
}

func TestReverseSwapForce(t *testing.T) {
	pa := MustNewFlat(false, true, []float64{0, 1, 10, 2, 3, 20, 4, 5, 30})
	require.NoError(t, pa.Reverse())
	require.Equal(t, []float64{4, 5, 30, 2, 3, 20, 0, 1, 10}, pa.FlatCoords())
	require.NoError(t, pa.SwapOrdinates(geopb.OrdinateX, geopb.OrdinateM))
	require.Equal(t, []float64{30, 5, 4, 20, 3, 2, 10, 1, 0}, pa.FlatCoords())
	err := pa.SwapOrdinates(geopb.OrdinateX, geopb.OrdinateZ)
	require.True(t, errors.Is(err, geoerr.TypeMismatch))

	forced := pa.ForceDims(true, false)
	require.Equal(t, []float64{30, 5, 0, 20, 3, 0, 10, 1, 0}, forced.FlatCoords())
	start, ok := forced.StartPoint()
	require.True(t, ok)
	require.Equal(t, geopb.Point4D{X: 30, Y: 5}, start)
	_, ok = ConstructEmpty(false, false, 0).StartPoint()
	require.False(t, ok)
}

func TestSetZM(t *testing.T) {
	pa := MustNewFlat(true, false, []float64{1, 2, 3})
	require.NoError(t, pa.SetZM(false, true))
	require.Equal(t, geopb.Point4D{X: 1, Y: 2, M: 3}, pa.Point4D(0))
	require.Error(t, pa.SetZM(true, true))
	empty := ConstructEmpty(false, false, 0)
	require.NoError(t, empty.SetZM(true, true))
	require.Equal(t, 4, empty.NDims())
}

func TestAppendIdempotentProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("appending the last point again is a no-op", prop.ForAll(
		func(xs []float64) bool {
			pa := ConstructEmpty(false, false, 0)
			for i := 0; i+1 < len(xs); i += 2 {
				if err := pa.Append(geopb.Point4D{X: xs[i], Y: xs[i+1]}, true); err != nil {
					return false
				}
			}
			if pa.NPoints() == 0 {
				return true
			}
			n := pa.NPoints()
			last, _ := pa.EndPoint()
			if err := pa.Append(last, false); err != nil {
				return false
			}
			return pa.NPoints() == n
		},
		gen.SliceOf(gen.Float64Range(-1000, 1000)),
	))
	properties.Property("bytes round trip", prop.ForAll(
		func(xs []float64) bool {
			if len(xs)%2 != 0 {
				xs = xs[:len(xs)-1]
			}
			pa := MustNewFlat(false, false, xs)
			cp, err := ConstructCopy(false, false, pa.NPoints(), pa.Bytes())
			return err == nil && cp.Same(pa)
		},
		gen.SliceOf(gen.Float64()),
	))
	properties.TestingRun(t)
}
