// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package gserialized

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/lwgeom"
	"github.com/cockroachdb/lwgeom/pkg/geo/ptarray"
	"github.com/cockroachdb/lwgeom/pkg/util/log"
	"github.com/kr/pretty"
	"github.com/stretchr/testify/require"
)

func xy(flat ...float64) *ptarray.PointArray {
	return ptarray.MustNewFlat(false, false, flat)
}

func pt(x, y float64) *lwgeom.Point {
	return lwgeom.MakePoint(0, false, false, geopb.Point4D{X: x, Y: y})
}

func collection(t *testing.T, typ geopb.Type, members ...lwgeom.Geometry) *lwgeom.Collection {
	hasZ, hasM := false, false
	if len(members) > 0 {
		hasZ, hasM = members[0].HasZ(), members[0].HasM()
	}
	c, err := lwgeom.NewCollection(typ, 0, hasZ, hasM, members...)
	require.NoError(t, err)
	return c
}

func polygon(t *testing.T, rings ...*ptarray.PointArray) *lwgeom.Polygon {
	p, err := lwgeom.NewPolygon(0, rings[0].HasZ(), rings[0].HasM(), rings...)
	require.NoError(t, err)
	return p
}

func mustHex(t *testing.T, s string) []byte {
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	require.NoError(t, err)
	return b
}

func roundTrip(t *testing.T, g lwgeom.Geometry, opts ...Option) lwgeom.Geometry {
	t.Helper()
	ctx := context.Background()
	buf, err := Encode(ctx, g)
	require.NoError(t, err)
	require.Equal(t, Size(g), len(buf))
	ret, err := Decode(ctx, buf, opts...)
	require.NoError(t, err)
	require.Equal(t, g.SRID(), ret.SRID())
	if g.BBox() != nil {
		require.NotNil(t, ret.BBox())
		require.True(t, ret.BBox().Contains2D(g.BBox()), "%s does not contain %s", ret.BBox(), g.BBox())
	}
	lwgeom.DropBBox(g)
	lwgeom.DropBBox(ret)
	require.True(t, lwgeom.Same(g, ret), "expected %s\ngot %s", pretty.Sprint(g), pretty.Sprint(ret))
	return ret
}

func TestEncodePoint(t *testing.T) {
	buf, err := Encode(context.Background(), pt(1.5, 2.5))
	require.NoError(t, err)
	require.Equal(t, mustHex(t,
		"80000000 000000 00"+
			"01000000 01000000"+
			"000000000000F83F 0000000000000440"), buf)

	h, err := ReadHeader(buf)
	require.NoError(t, err)
	require.False(t, h.Flags.HasBBox())
	require.Equal(t, geopb.PointType, h.Type)
	require.Equal(t, 32, h.Size)
}

func TestEncodeLineBBox(t *testing.T) {
	line := lwgeom.NewLineString(4326, xy(0, 0, 1, 0, 1, 1))
	buf, err := Encode(context.Background(), line)
	require.NoError(t, err)
	require.NotNil(t, line.BBox())

	h, err := ReadHeader(buf)
	require.NoError(t, err)
	require.True(t, h.Flags.HasBBox())
	require.Equal(t, geopb.SRID(4326), h.SRID())
	require.Equal(t, &geopb.GBox{Flags: geopb.MakeFlags(false, false, false), XMax: 1, YMax: 1}, h.BBox)
	require.Equal(t, headerSize+16+8+48, len(buf))
}

func TestEncodeEmptyMultiPolygon(t *testing.T) {
	mp := collection(t, geopb.MultiPolygonType)
	require.True(t, lwgeom.IsEmpty(mp))
	buf, err := Encode(context.Background(), mp)
	require.NoError(t, err)
	require.Equal(t, mustHex(t, "40000000 000000 00 06000000 00000000"), buf)
	empty, err := PeekIsEmpty(buf)
	require.NoError(t, err)
	require.True(t, empty)
	roundTrip(t, mp)
}

func TestPolygonPadding(t *testing.T) {
	shell := xy(0, 0, 4, 0, 4, 4, 0, 0)
	hole := xy(1, 1, 2, 1, 2, 2, 1, 1)
	testCases := []struct {
		desc  string
		rings []*ptarray.PointArray
		// countsEnd is the offset of the first ordinate in the body.
		countsEnd int
	}{
		{"one ring", []*ptarray.PointArray{shell}, 16},
		{"two rings", []*ptarray.PointArray{shell, hole}, 16},
		{"three rings", []*ptarray.PointArray{shell, hole, hole}, 24},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			p := polygon(t, tc.rings...)
			lwgeom.DropBBox(p)
			body := bodySize(p)
			require.Equal(t, tc.countsEnd+len(tc.rings)*4*16, body)
			buf, err := Encode(context.Background(), p)
			require.NoError(t, err)
			off := dataOffset(geopb.Flags(buf[flagsOffset]))
			require.Equal(t, uint32(len(tc.rings)), binary.LittleEndian.Uint32(buf[off+4:]))
			if len(tc.rings)%2 == 1 {
				require.Equal(t, []byte{0, 0, 0, 0}, buf[off+tc.countsEnd-4:off+tc.countsEnd])
			}
			roundTrip(t, p)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	shell := xy(0, 0, 4, 0, 4, 4, 0, 0)
	xyzm := ptarray.MustNewFlat(true, true, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	closedZ := func(dz float64) *ptarray.PointArray {
		return ptarray.MustNewFlat(true, false, []float64{0, 0, dz, 1, 0, dz, 0, 1, dz, 0, 0, dz})
	}
	testCases := []struct {
		desc string
		g    func(t *testing.T) lwgeom.Geometry
	}{
		{"point", func(*testing.T) lwgeom.Geometry { return pt(1, 2) }},
		{"empty point", func(*testing.T) lwgeom.Geometry { return lwgeom.NewPointEmpty(4326, true, false) }},
		{"xyzm line", func(*testing.T) lwgeom.Geometry { return lwgeom.NewLineString(0, xyzm) }},
		{"empty line", func(*testing.T) lwgeom.Geometry { return lwgeom.NewLineStringEmpty(0, false, true) }},
		{"circular string", func(*testing.T) lwgeom.Geometry {
			return lwgeom.NewCircularString(0, xy(0, 0, 1, 1, 2, 0))
		}},
		{"triangle", func(*testing.T) lwgeom.Geometry { return lwgeom.NewTriangle(0, xy(0, 0, 1, 0, 0, 1, 0, 0)) }},
		{"polygon", func(t *testing.T) lwgeom.Geometry { return polygon(t, shell) }},
		{"empty polygon", func(*testing.T) lwgeom.Geometry { return lwgeom.NewPolygonEmpty(0, false, false) }},
		{"multipoint with empty", func(t *testing.T) lwgeom.Geometry {
			return collection(t, geopb.MultiPointType, pt(1, 1), lwgeom.NewPointEmpty(0, false, false))
		}},
		{"compound curve", func(t *testing.T) lwgeom.Geometry {
			return collection(t, geopb.CompoundCurveType,
				lwgeom.NewCircularString(0, xy(0, 0, 1, 1, 2, 0)), lwgeom.NewLineString(0, xy(2, 0, 0, 0)))
		}},
		{"curve polygon", func(t *testing.T) lwgeom.Geometry {
			return collection(t, geopb.CurvePolygonType,
				lwgeom.NewCircularString(0, xy(0, 0, 1, 1, 2, 0, 1, -1, 0, 0)))
		}},
		{"multisurface", func(t *testing.T) lwgeom.Geometry {
			return collection(t, geopb.MultiSurfaceType, polygon(t, shell),
				collection(t, geopb.CurvePolygonType, lwgeom.NewLineString(0, xy(0, 0, 1, 1, 0, 0))))
		}},
		{"tin", func(t *testing.T) lwgeom.Geometry {
			return collection(t, geopb.TINType, lwgeom.NewTriangle(0, closedZ(0)), lwgeom.NewTriangle(0, closedZ(1)))
		}},
		{"polyhedral surface", func(t *testing.T) lwgeom.Geometry {
			return collection(t, geopb.PolyhedralSurfaceType, polygon(t, closedZ(0)))
		}},
		{"nested collection", func(t *testing.T) lwgeom.Geometry {
			return collection(t, geopb.GeometryCollectionType,
				pt(1, 1),
				collection(t, geopb.GeometryCollectionType),
				collection(t, geopb.MultiLineStringType, lwgeom.NewLineString(0, xy(0, 0, 1, 1, 2, 2))))
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			g := tc.g(t)
			lwgeom.SetSRID(g, 3857)
			roundTrip(t, g)
			roundTrip(t, tc.g(t), WithBorrowedCoordinates())
		})
	}
}

func TestDecodeBorrowed(t *testing.T) {
	ctx := context.Background()
	buf, err := Encode(ctx, lwgeom.NewLineString(0, xy(0, 0, 1, 1, 2, 2)))
	require.NoError(t, err)

	g, err := Decode(ctx, buf, WithBorrowedCoordinates())
	require.NoError(t, err)
	pa := g.(*lwgeom.LineString).Points()
	require.True(t, pa.IsBorrowed())
	err = pa.SetPoint4D(0, geopb.Point4D{X: 9})
	require.True(t, errors.Is(err, geoerr.ReadOnly), "%v", err)

	owned, err := Decode(ctx, buf)
	require.NoError(t, err)
	require.False(t, owned.(*lwgeom.LineString).Points().IsBorrowed())
	require.NoError(t, owned.(*lwgeom.LineString).Points().SetPoint4D(0, geopb.Point4D{X: 9}))
}

func TestDecodeErrors(t *testing.T) {
	ctx := context.Background()
	twoRings := polygon(t, xy(0, 0, 4, 0, 4, 4, 0, 0), xy(1, 1, 2, 1, 2, 2, 1, 1))
	lwgeom.DropBBox(twoRings)
	full, err := Encode(ctx, twoRings)
	require.NoError(t, err)
	// Drop the second ring's ordinates and shrink the declared size to match.
	truncated := append([]byte(nil), full[:len(full)-64]...)
	binary.LittleEndian.PutUint32(truncated, uint32(len(truncated))<<2)

	nested := collection(t, geopb.GeometryCollectionType,
		collection(t, geopb.GeometryCollectionType,
			collection(t, geopb.GeometryCollectionType, pt(1, 1))))
	deep, err := Encode(ctx, nested)
	require.NoError(t, err)

	testCases := []struct {
		desc string
		buf  []byte
		opts []Option
	}{
		{"short header", []byte{1, 2, 3}, nil},
		{"declared size too large", mustHex(t, "FF000000 000000 00 01000000 00000000"), nil},
		{"truncated polygon", truncated, nil},
		{"unknown type", mustHex(t, "40000000 000000 00 63000000 00000000"), nil},
		{"zero type", mustHex(t, "40000000 000000 00 00000000 00000000"), nil},
		{
			"point count overruns",
			mustHex(t, "60000000 000000 00 02000000 05000000 0000000000000000 0000000000000000"),
			nil,
		},
		{
			"multipoint holding a line",
			mustHex(t, "80000000 000000 00 04000000 01000000 02000000 01000000 0000000000000000 0000000000000000"),
			nil,
		},
		{
			"point with two coordinates",
			mustHex(t, "A0000000 000000 00 01000000 02000000"+strings.Repeat("0000000000000000", 4)),
			nil,
		},
		{
			"trailing bytes",
			mustHex(t, "60000000 000000 00 01000000 00000000 0000000000000000 0000000000000000"),
			nil,
		},
		{"too deep", deep, []Option{WithMaxDepth(2)}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			g, err := Decode(ctx, tc.buf, tc.opts...)
			require.Nil(t, g)
			require.True(t, errors.Is(err, geoerr.MalformedInput), "%v", err)
		})
	}

	// The same nesting decodes with the default limit.
	_, err = Decode(ctx, deep)
	require.NoError(t, err)
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mp := collection(t, geopb.MultiPointType, pt(0, 0), pt(1, 1))
	buf, err := Encode(ctx, mp)
	require.NoError(t, err)
	cancel()
	_, err = Decode(ctx, buf)
	require.True(t, errors.Is(err, context.Canceled), "%v", err)
	lwgeom.DropBBox(mp)
	_, err = Encode(ctx, mp)
	require.True(t, errors.Is(err, context.Canceled), "%v", err)
}

func TestSRID(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	defer log.SetOutput(&out)()
	log.SetVerbosity(2)
	defer log.SetVerbosity(0)

	testCases := []struct {
		srid     geopb.SRID
		expected geopb.SRID
		notice   string
	}{
		{0, 0, ""},
		{4326, 4326, ""},
		{999999, 999999, ""},
		{-5, 0, "SRID value -5 converted to the officially unknown SRID value 0"},
		{1000000, 999001, "SRID value 1000000 > SRID_MAXIMUM converted to 999001"},
	}
	for _, tc := range testCases {
		out.Reset()
		buf, err := Encode(ctx, lwgeom.MakePoint(tc.srid, false, false, geopb.Point4D{}))
		require.NoError(t, err)
		srid, err := PeekSRID(buf)
		require.NoError(t, err)
		require.Equal(t, tc.expected, srid)
		if tc.notice != "" {
			require.Contains(t, out.String(), tc.notice)
		}

		require.NoError(t, SetSRID(ctx, buf, 2154))
		srid, err = PeekSRID(buf)
		require.NoError(t, err)
		require.Equal(t, geopb.SRID(2154), srid)
	}

	var packed [3]byte
	for _, srid := range []geopb.SRID{-1, -999999, 1, 999999} {
		packSRID(packed[:], srid)
		require.Equal(t, srid, unpackSRID(packed[:]))
	}
}

func TestGeodeticAndSolid(t *testing.T) {
	ctx := context.Background()
	line := lwgeom.NewLineString(4326, xy(0, 0, 90, 0, 90, 45))
	lwgeom.SetGeodetic(line, true)
	buf, err := Encode(ctx, line)
	require.NoError(t, err)
	h, err := ReadHeader(buf)
	require.NoError(t, err)
	require.True(t, h.Flags.IsGeodetic())
	require.Equal(t, headerSize+24+8+48, len(buf))
	require.True(t, h.BBox.Flags.IsGeodetic())
	ret := roundTrip(t, line)
	require.True(t, ret.IsGeodetic())

	closedZ := ptarray.MustNewFlat(true, false, []float64{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0})
	surface := collection(t, geopb.PolyhedralSurfaceType, polygon(t, closedZ))
	lwgeom.SetSolid(surface, true)
	ret = roundTrip(t, surface)
	require.True(t, ret.Flags().IsSolid())
}

func TestLayoutSizes(t *testing.T) {
	testCases := []struct {
		desc     string
		flags    geopb.Flags
		box      int
		pointLen int
	}{
		{"xy", 0, 0, 16},
		{"xy box", geopb.FlagBBox, 16, 16},
		{"xyz box", geopb.FlagBBox | geopb.FlagZ, 24, 24},
		{"xym box", geopb.FlagBBox | geopb.FlagM, 24, 24},
		{"xyzm box", geopb.FlagBBox | geopb.FlagZ | geopb.FlagM, 32, 32},
		{"geodetic box", geopb.FlagBBox | geopb.FlagGeodetic, 24, 16},
		{"geodetic xyzm box", geopb.FlagBBox | geopb.FlagGeodetic | geopb.FlagZ | geopb.FlagM, 24, 32},
		{"geodetic", geopb.FlagGeodetic, 0, 16},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			require.Equal(t, tc.box, boxSize(tc.flags))
			require.Equal(t, headerSize+tc.box, dataOffset(tc.flags))
			require.Equal(t, 3*tc.pointLen, pointArraySize(3, tc.flags))
		})
	}
	require.Equal(t, 4+4+4, polygonPrefixSize(1))
	require.Equal(t, 4+8, polygonPrefixSize(2))
	require.Equal(t, 4, polygonPrefixSize(0))
}
