// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package geojson

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/lwgeom"
	"github.com/cockroachdb/lwgeom/pkg/geo/wkt"
	"github.com/stretchr/testify/require"
)

func TestUnmarshal(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		desc     string
		json     string
		expected string
		srid     geopb.SRID
	}{
		{
			desc:     "point",
			json:     `{"type":"Point","coordinates":[1,2]}`,
			expected: "POINT(1 2)",
		},
		{
			desc:     "point z",
			json:     `{"type":"Point","coordinates":[1,2,3]}`,
			expected: "POINT Z (1 2 3)",
		},
		{
			desc:     "polygon with short crs",
			json:     `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]],"crs":{"type":"name","properties":{"name":"EPSG:3857"}}}`,
			expected: "POLYGON((0 0,1 0,1 1,0 0))",
			srid:     3857,
		},
		{
			desc:     "collection with long crs",
			json:     `{"type":"GeometryCollection","geometries":[{"type":"Point","coordinates":[1,2]},{"type":"LineString","coordinates":[[0,0],[1,1]]}],"crs":{"type":"name","properties":{"name":"urn:ogc:def:crs:EPSG::4326"}}}`,
			expected: "GEOMETRYCOLLECTION(POINT(1 2),LINESTRING(0 0,1 1))",
			srid:     4326,
		},
		{
			desc:     "multipolygon",
			json:     `{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,0]]]]}`,
			expected: "MULTIPOLYGON(((0 0,1 0,1 1,0 0)))",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			g, err := Unmarshal(ctx, []byte(tc.json))
			require.NoError(t, err)
			require.Equal(t, tc.srid, g.SRID())
			expected, err := wkt.Unmarshal(ctx, tc.expected)
			require.NoError(t, err)
			require.True(t, lwgeom.Same(expected, g))
		})
	}
}

func TestUnmarshalErrors(t *testing.T) {
	ctx := context.Background()
	for _, text := range []string{
		`{"type":"Point","coordinates":[1,2]`,
		`{"type":"Point","coordinates":[1,2],"crs":{"type":"name","properties":{"name":"ESRI:102100"}}}`,
		`{"type":"Point","coordinates":[1,2],"crs":{"type":"link","properties":{}}}`,
	} {
		t.Run(text, func(t *testing.T) {
			_, err := Unmarshal(ctx, []byte(text))
			require.True(t, errors.Is(err, geoerr.MalformedInput), "%v", err)
		})
	}
}

func TestMarshal(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		desc     string
		wkt      string
		flag     Flag
		expected string
	}{
		{
			desc:     "point",
			wkt:      "POINT(1 2)",
			expected: `{"type":"Point","coordinates":[1,2]}`,
		},
		{
			desc:     "srid without crs flag",
			wkt:      "SRID=4326;LINESTRING(0 0,1 1)",
			expected: `{"type":"LineString","coordinates":[[0,0],[1,1]]}`,
		},
		{
			desc:     "short crs",
			wkt:      "SRID=3857;POINT(1 2)",
			flag:     FlagShortCRS,
			expected: `{"type":"Point","coordinates":[1,2],"crs":{"type":"name","properties":{"name":"EPSG:3857"}}}`,
		},
		{
			desc:     "long crs wins",
			wkt:      "SRID=4326;POINT(1 2)",
			flag:     FlagShortCRS | FlagLongCRS,
			expected: `{"type":"Point","coordinates":[1,2],"crs":{"type":"name","properties":{"name":"urn:ogc:def:crs:EPSG::4326"}}}`,
		},
		{
			desc:     "short crs skipped for 4326",
			wkt:      "SRID=4326;POINT(1 2)",
			flag:     FlagShortCRSIfNot4326,
			expected: `{"type":"Point","coordinates":[1,2]}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			g, err := wkt.Unmarshal(ctx, tc.wkt)
			require.NoError(t, err)
			out, err := Marshal(g, DefaultDecimalDigits, tc.flag)
			require.NoError(t, err)
			require.JSONEq(t, tc.expected, string(out))
		})
	}

	t.Run("bbox", func(t *testing.T) {
		g, err := wkt.Unmarshal(ctx, "LINESTRING(0 0,1 2)")
		require.NoError(t, err)
		out, err := Marshal(g, DefaultDecimalDigits, FlagIncludeBBox)
		require.NoError(t, err)
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(out, &m))
		require.Contains(t, m, "bbox")

		empty, err := wkt.Unmarshal(ctx, "LINESTRING EMPTY")
		require.NoError(t, err)
		out, err = Marshal(empty, DefaultDecimalDigits, FlagIncludeBBox)
		require.NoError(t, err)
		m = nil
		require.NoError(t, json.Unmarshal(out, &m))
		require.NotContains(t, m, "bbox")
	})

	t.Run("curves", func(t *testing.T) {
		g, err := wkt.Unmarshal(ctx, "CIRCULARSTRING(0 0,1 1,2 0)")
		require.NoError(t, err)
		_, err = Marshal(g, DefaultDecimalDigits, FlagZero)
		require.True(t, errors.Is(err, geoerr.TypeMismatch), "%v", err)
	})
}
