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
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/ptarray"
	"github.com/google/go-cmp/cmp"
	"github.com/kr/pretty"
	"github.com/stretchr/testify/require"
)

func xy(flat ...float64) *ptarray.PointArray {
	return ptarray.MustNewFlat(false, false, flat)
}

func xyz(flat ...float64) *ptarray.PointArray {
	return ptarray.MustNewFlat(true, false, flat)
}

func mustCollection(t *testing.T, typ geopb.Type, hasZ bool, members ...Geometry) *Collection {
	c, err := NewCollection(typ, 0, hasZ, false, members...)
	require.NoError(t, err)
	return c
}

func mustPolygon(t *testing.T, hasZ bool, rings ...*ptarray.PointArray) *Polygon {
	p, err := NewPolygon(0, hasZ, false, rings...)
	require.NoError(t, err)
	return p
}

func pt(x, y float64) *Point {
	return MakePoint(0, false, false, geopb.Point4D{X: x, Y: y})
}

// tetrahedron returns the faces of the unit tetrahedron, optionally without
// its last face.
func tetrahedron(t *testing.T, typ geopb.Type, open bool) *Collection {
	faces := [][]float64{
		{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0},
		{0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0},
		{0, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0},
		{1, 0, 0, 0, 1, 0, 0, 0, 1, 1, 0, 0},
	}
	if open {
		faces = faces[:3]
	}
	var members []Geometry
	for _, f := range faces {
		if typ == geopb.TINType {
			members = append(members, NewTriangle(0, xyz(f...)))
		} else {
			members = append(members, mustPolygon(t, true, xyz(f...)))
		}
	}
	return mustCollection(t, typ, true, members...)
}

func TestCollectionMembership(t *testing.T) {
	mp := mustCollection(t, geopb.MultiPointType, false, pt(1, 1))

	err := mp.Add(NewLineString(0, xy(0, 0, 1, 1)))
	require.True(t, errors.Is(err, geoerr.TypeMismatch), "%v", err)
	require.Equal(t, 1, mp.NumGeoms())

	poly := mustPolygon(t, false, xy(0, 0, 1, 0, 1, 1, 0, 0))
	err = mp.Add(poly)
	require.True(t, errors.Is(err, geoerr.TypeMismatch), "%v", err)
	require.Equal(t, 1, mp.NumGeoms())

	err = mp.Add(MakePoint(0, true, false, geopb.Point4D{X: 1, Y: 2, Z: 3}))
	require.True(t, errors.Is(err, geoerr.TypeMismatch), "%v", err)
	require.Equal(t, 1, mp.NumGeoms())

	require.NoError(t, mp.Add(pt(2, 2)))
	require.Equal(t, 2, mp.NumGeoms())

	_, err = NewCollection(geopb.PointType, 0, false, false)
	require.True(t, errors.Is(err, geoerr.TypeMismatch))

	_, err = NewPolygon(0, true, false, xy(0, 0, 1, 0, 1, 1, 0, 0))
	require.True(t, errors.Is(err, geoerr.TypeMismatch))

	_, err = NewPoint(0, xy(0, 0, 1, 1))
	require.True(t, errors.Is(err, geoerr.InvalidGeometry))
}

func TestAddContinuous(t *testing.T) {
	cc := mustCollection(t, geopb.CompoundCurveType, false)
	require.NoError(t, cc.AddContinuous(NewCircularString(0, xy(0, 0, 1, 1, 2, 0))))
	require.NoError(t, cc.AddContinuous(NewLineString(0, xy(2, 0, 0, 0))))
	require.True(t, IsClosed(cc))

	err := cc.AddContinuous(NewLineString(0, xy(5, 5, 6, 6)))
	require.True(t, errors.Is(err, geoerr.InvalidGeometry), "%v", err)
	require.Equal(t, 2, cc.NumGeoms())

	err = cc.AddContinuous(NewLineStringEmpty(0, false, false))
	require.True(t, errors.Is(err, geoerr.InvalidGeometry), "%v", err)

	err = cc.AddContinuous(pt(0, 0))
	require.True(t, errors.Is(err, geoerr.TypeMismatch), "%v", err)
}

func TestIsEmpty(t *testing.T) {
	testCases := []struct {
		desc     string
		g        Geometry
		expected bool
	}{
		{"empty point", NewPointEmpty(0, false, false), true},
		{"point", pt(1, 2), false},
		{"empty line", NewLineStringEmpty(0, true, false), true},
		{"polygon without rings", NewPolygonEmpty(0, false, false), true},
		{"polygon with empty shell", mustPolygon(t, false, xy()), true},
		{"empty multipolygon", mustCollection(t, geopb.MultiPolygonType, false), true},
		{
			"collection of empties",
			mustCollection(t, geopb.GeometryCollectionType, false,
				NewPointEmpty(0, false, false), NewPolygonEmpty(0, false, false)),
			true,
		},
		{
			"collection with one point",
			mustCollection(t, geopb.GeometryCollectionType, false,
				NewPointEmpty(0, false, false), pt(0, 0)),
			false,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			require.Equal(t, tc.expected, IsEmpty(tc.g))
		})
	}
}

func TestCountsAndDimension(t *testing.T) {
	square := xy(0, 0, 4, 0, 4, 4, 0, 4, 0, 0)
	hole := xy(1, 1, 2, 1, 2, 2, 1, 1)
	poly := mustPolygon(t, false, square, hole)
	curvePoly := mustCollection(t, geopb.CurvePolygonType, false,
		NewCircularString(0, xy(0, 0, 1, 1, 2, 0, 1, -1, 0, 0)))

	testCases := []struct {
		desc      string
		g         Geometry
		vertices  int
		rings     int
		dimension int
	}{
		{"point", pt(1, 1), 1, 0, 0},
		{"line", NewLineString(0, xy(0, 0, 1, 1, 2, 2)), 3, 0, 1},
		{"polygon", poly, 9, 2, 2},
		{"triangle", NewTriangle(0, xy(0, 0, 1, 0, 0, 1, 0, 0)), 4, 1, 2},
		{"curve polygon", curvePoly, 5, 1, 2},
		{"multipolygon", mustCollection(t, geopb.MultiPolygonType, false, poly, poly), 18, 4, 2},
		{"open surface", tetrahedron(t, geopb.PolyhedralSurfaceType, true), 12, 3, 2},
		{"closed surface", tetrahedron(t, geopb.PolyhedralSurfaceType, false), 16, 4, 3},
		{"tin", tetrahedron(t, geopb.TINType, false), 16, 4, 2},
		{
			"collection",
			mustCollection(t, geopb.GeometryCollectionType, false, pt(0, 0), NewLineString(0, xy(0, 0, 1, 1))),
			3, 0, 1,
		},
		{"empty collection", mustCollection(t, geopb.GeometryCollectionType, false), 0, 0, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			require.Equal(t, tc.vertices, CountVertices(tc.g))
			require.Equal(t, tc.rings, CountRings(tc.g))
			require.Equal(t, tc.dimension, Dimension(tc.g))
		})
	}
}

func TestIsClosed(t *testing.T) {
	testCases := []struct {
		desc     string
		g        Geometry
		expected bool
	}{
		{"empty line", NewLineStringEmpty(0, false, false), false},
		{"open line", NewLineString(0, xy(0, 0, 1, 1)), false},
		{"closed line", NewLineString(0, xy(0, 0, 1, 1, 0, 0)), true},
		{"z differs", NewLineString(0, xyz(0, 0, 0, 1, 1, 1, 0, 0, 5)), false},
		{"point", pt(1, 1), true},
		{"polygon", mustPolygon(t, false, xy(0, 0, 1, 0, 1, 1, 0, 0)), true},
		{"polygon with open hole", mustPolygon(t, false, xy(0, 0, 1, 0, 1, 1, 0, 0), xy(0, 0, 1, 1)), false},
		{"closed tin", tetrahedron(t, geopb.TINType, false), true},
		{"open tin", tetrahedron(t, geopb.TINType, true), false},
		{"closed surface", tetrahedron(t, geopb.PolyhedralSurfaceType, false), true},
		{"open surface", tetrahedron(t, geopb.PolyhedralSurfaceType, true), false},
		{
			"tin without z",
			mustCollection(t, geopb.TINType, false, NewTriangle(0, xy(0, 0, 1, 0, 0, 1, 0, 0))),
			false,
		},
		{
			"multiline",
			mustCollection(t, geopb.MultiLineStringType, false,
				NewLineString(0, xy(0, 0, 1, 1, 0, 0)), NewLineString(0, xy(0, 0, 1, 1))),
			false,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			require.Equal(t, tc.expected, IsClosed(tc.g))
		})
	}
}

func TestNeedsBBox(t *testing.T) {
	testCases := []struct {
		desc     string
		g        Geometry
		expected bool
	}{
		{"point", pt(1, 1), false},
		{"two point line", NewLineString(0, xy(0, 0, 1, 1)), false},
		{"three point line", NewLineString(0, xy(0, 0, 1, 1, 2, 2)), true},
		{"singleton multipoint", mustCollection(t, geopb.MultiPointType, false, pt(1, 1)), false},
		{"multipoint", mustCollection(t, geopb.MultiPointType, false, pt(1, 1), pt(2, 2)), true},
		{
			"singleton two point multiline",
			mustCollection(t, geopb.MultiLineStringType, false, NewLineString(0, xy(0, 0, 1, 1))),
			false,
		},
		{
			"singleton three point multiline",
			mustCollection(t, geopb.MultiLineStringType, false, NewLineString(0, xy(0, 0, 1, 1, 2, 2))),
			true,
		},
		{"polygon", mustPolygon(t, false, xy(0, 0, 1, 0, 1, 1, 0, 0)), true},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			require.Equal(t, tc.expected, NeedsBBox(tc.g))
		})
	}
}

func TestHasArc(t *testing.T) {
	require.False(t, HasArc(NewLineString(0, xy(0, 0, 1, 1))))
	require.True(t, HasArc(NewCircularString(0, xy(0, 0, 1, 1, 2, 0))))
	mc := mustCollection(t, geopb.MultiCurveType, false,
		NewLineString(0, xy(0, 0, 1, 1)),
		mustCollection(t, geopb.CompoundCurveType, false, NewCircularString(0, xy(0, 0, 1, 1, 2, 0))))
	require.True(t, HasArc(mc))
}

func TestCloneIsolation(t *testing.T) {
	orig := mustCollection(t, geopb.MultiLineStringType, false,
		NewLineString(0, xy(0, 0, 1, 1, 2, 2)))
	require.NoError(t, AddBBox(context.Background(), orig))

	shallow := Clone(orig).(*Collection)
	require.True(t, Same(orig, shallow), "%s", pretty.Sprint(shallow))
	line := shallow.Geom(0).(*LineString)
	err := line.Points().SetPoint4D(0, geopb.Point4D{X: 9, Y: 9})
	require.True(t, errors.Is(err, geoerr.ReadOnly), "%v", err)
	require.Equal(t, geopb.Point2D{X: 0, Y: 0}, orig.Geom(0).(*LineString).Points().Point2D(0))

	// Boxes are not shared.
	shallow.BBox().XMax = 100
	require.Equal(t, 2.0, orig.BBox().XMax)

	deep := CloneDeep(orig).(*Collection)
	require.NoError(t, deep.Geom(0).(*LineString).Points().SetPoint4D(0, geopb.Point4D{X: 9, Y: 9}))
	require.Equal(t, geopb.Point2D{X: 0, Y: 0}, orig.Geom(0).(*LineString).Points().Point2D(0))
	require.False(t, Same(orig, deep))

	// The source keeps owning its coordinates.
	require.NoError(t, orig.Geom(0).(*LineString).Points().SetPoint4D(1, geopb.Point4D{X: 5, Y: 5}))
}

func TestSame(t *testing.T) {
	a := mustPolygon(t, false, xy(0, 0, 1, 0, 1, 1, 0, 0))
	b := mustPolygon(t, false, xy(0, 0, 1, 0, 1, 1, 0, 0))
	SetSRID(b, 4326)
	require.True(t, Same(a, b))
	require.NoError(t, AddBBox(context.Background(), a))
	require.True(t, Same(a, b))

	require.False(t, Same(a, NewTriangle(0, xy(0, 0, 1, 0, 1, 1, 0, 0))))
	require.False(t, Same(a, mustPolygon(t, false, xy(0, 0, 1, 0, 1, 2, 0, 0))))
	require.False(t, Same(a, mustPolygon(t, false, xy(0, 0, 1, 0, 1, 1, 0, 0), xy(0, 0, 1, 0, 1, 1, 0, 0))))
}

func TestSetSRID(t *testing.T) {
	gc := mustCollection(t, geopb.GeometryCollectionType, false,
		pt(1, 1), mustCollection(t, geopb.MultiPointType, false, pt(2, 2)))
	SetSRID(gc, 4326)
	require.Equal(t, geopb.SRID(4326), gc.SRID())
	require.Equal(t, geopb.SRID(4326), gc.Geom(1).(*Collection).Geom(0).SRID())
}

func TestReverseAndEnds(t *testing.T) {
	ml := mustCollection(t, geopb.MultiLineStringType, false,
		NewLineString(0, xy(0, 0, 1, 1, 2, 2)), NewLineString(0, xy(5, 5, 6, 6)))
	require.NoError(t, Reverse(ml))
	start, ok := StartPoint(ml)
	require.True(t, ok)
	require.Equal(t, geopb.Point4D{X: 2, Y: 2}, start)
	require.Equal(t, []float64{6, 6, 5, 5}, ml.Geom(1).(*LineString).Points().FlatCoords())

	_, ok = StartPoint(NewPolygonEmpty(0, false, false))
	require.False(t, ok)
	_, ok = EndPoint(pt(1, 1))
	require.False(t, ok)
}

func TestSwapOrdinates(t *testing.T) {
	ctx := context.Background()
	line := NewLineString(0, xyz(1, 2, 3, 4, 5, 6, 7, 8, 9))
	require.NoError(t, AddBBox(ctx, line))

	require.NoError(t, FlipCoordinates(ctx, line))
	require.Equal(t, []float64{2, 1, 3, 5, 4, 6, 8, 7, 9}, line.Points().FlatCoords())
	require.Equal(t, 2.0, line.BBox().XMin)
	require.Equal(t, 1.0, line.BBox().YMin)

	require.NoError(t, SwapOrdinates(ctx, line, geopb.OrdinateZ, geopb.OrdinateX))
	require.Equal(t, []float64{3, 1, 2, 6, 4, 5, 9, 7, 8}, line.Points().FlatCoords())

	err := SwapOrdinates(ctx, line, geopb.OrdinateM, geopb.OrdinateX)
	require.True(t, errors.Is(err, geoerr.TypeMismatch), "%v", err)
}

func TestForceDims(t *testing.T) {
	poly := mustPolygon(t, false, xy(0, 0, 1, 0, 1, 1, 0, 0))
	forced := ForceDims(mustCollection(t, geopb.MultiPolygonType, false, poly), true, true).(*Collection)
	require.True(t, forced.HasZ())
	require.True(t, forced.HasM())
	ring := forced.Geom(0).(*Polygon).Ring(0)
	require.Equal(t, 4, ring.NDims())
	if diff := cmp.Diff([]float64{0, 0, 0, 0, 1, 0, 0, 0, 1, 1, 0, 0, 0, 0, 0, 0}, ring.FlatCoords()); diff != "" {
		t.Errorf("unexpected coordinates (-want +got):\n%s", diff)
	}
	// The input is untouched.
	require.False(t, poly.HasZ())
	require.Equal(t, 2, poly.Ring(0).NDims())

	down := ForceDims(NewLineString(0, ptarray.MustNewFlat(true, true, []float64{1, 2, 3, 4})), false, false)
	require.Equal(t, []float64{1, 2}, down.(*LineString).Points().FlatCoords())
}

func TestRelabelDims(t *testing.T) {
	line := NewLineString(0, xyz(1, 2, 3, 4, 5, 6))
	require.NoError(t, RelabelDims(line, false, true))
	require.False(t, line.HasZ())
	require.True(t, line.HasM())
	p := line.Points().Point4D(0)
	require.Equal(t, geopb.Point4D{X: 1, Y: 2, M: 3}, p)

	err := RelabelDims(line, true, true)
	require.True(t, errors.Is(err, geoerr.TypeMismatch), "%v", err)
}

func TestForceGeodetic(t *testing.T) {
	ml := mustCollection(t, geopb.GeometryCollectionType, false,
		pt(190, 95), NewLineString(0, xy(10, 10, 20, 20)))
	require.False(t, CheckGeodetic(ml))
	changed, err := ForceGeodetic(ml)
	require.NoError(t, err)
	require.True(t, changed)
	require.True(t, CheckGeodetic(ml))
	require.Equal(t, geopb.Point2D{X: -170, Y: 85}, ml.Geom(0).(*Point).Points().Point2D(0))

	_, err = ForceGeodetic(NewCircularString(0, xy(0, 0, 1, 1, 2, 0)))
	require.True(t, errors.Is(err, geoerr.TypeMismatch), "%v", err)

	SetGeodetic(ml, true)
	require.True(t, ml.Geom(1).IsGeodetic())
}

type typeCounter map[string]int

func (c typeCounter) VisitPoint(*Point) error                   { c["point"]++; return nil }
func (c typeCounter) VisitLineString(*LineString) error         { c["line"]++; return nil }
func (c typeCounter) VisitCircularString(*CircularString) error { c["arc"]++; return nil }
func (c typeCounter) VisitTriangle(*Triangle) error             { c["triangle"]++; return nil }
func (c typeCounter) VisitPolygon(*Polygon) error               { c["polygon"]++; return nil }
func (c typeCounter) VisitCollection(g *Collection) error {
	c["collection"]++
	for _, m := range g.Geoms() {
		if err := Walk(m, c); err != nil {
			return err
		}
	}
	return nil
}

func TestWalk(t *testing.T) {
	gc := mustCollection(t, geopb.GeometryCollectionType, false,
		pt(0, 0),
		NewLineString(0, xy(0, 0, 1, 1)),
		mustCollection(t, geopb.MultiCurveType, false, NewCircularString(0, xy(0, 0, 1, 1, 2, 0))),
		mustPolygon(t, false, xy(0, 0, 1, 0, 1, 1, 0, 0)),
	)
	counts := typeCounter{}
	require.NoError(t, Walk(gc, counts))
	require.Equal(t, typeCounter{"point": 1, "line": 1, "arc": 1, "polygon": 1, "collection": 2}, counts)
}

// foreignGeometry satisfies Geometry without being one of the concrete
// types the package dispatches on.
type foreignGeometry struct {
	*Point
}

func TestUnknownGeometryType(t *testing.T) {
	ctx := context.Background()
	var g Geometry = foreignGeometry{Point: pt(1, 2)}

	isAssertion := func(t *testing.T, err error) {
		require.Error(t, err)
		require.True(t, errors.HasAssertionFailure(err), "%+v", err)
	}
	requirePanics := func(t *testing.T, fn func()) {
		defer func() {
			r := recover()
			require.NotNil(t, r)
			err, ok := r.(error)
			require.True(t, ok, "%v", r)
			isAssertion(t, err)
		}()
		fn()
	}

	t.Run("errors", func(t *testing.T) {
		isAssertion(t, Walk(g, typeCounter{}))
		isAssertion(t, Reverse(g))
		_, err := cartesianGBox(ctx, g)
		isAssertion(t, err)
		_, err = geodeticGBox(ctx, g)
		isAssertion(t, err)
	})

	t.Run("panics", func(t *testing.T) {
		for name, fn := range map[string]func(){
			"IsEmpty":       func() { IsEmpty(g) },
			"CountVertices": func() { CountVertices(g) },
			"HasArc":        func() { HasArc(g) },
			"Same":          func() { Same(g, g) },
			"StartPoint":    func() { StartPoint(g) },
			"EndPoint":      func() { EndPoint(g) },
			"Clone":         func() { Clone(g) },
			"CloneDeep":     func() { CloneDeep(g) },
			"IsClosed":      func() { IsClosed(g) },
		} {
			t.Run(name, func(t *testing.T) { requirePanics(t, fn) })
		}
	})
}
