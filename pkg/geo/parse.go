// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package geo

import (
	"context"

	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geojson"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/lwgeom"
	"github.com/cockroachdb/lwgeom/pkg/geo/wkb"
	"github.com/cockroachdb/lwgeom/pkg/geo/wkt"
)

// ParseAmbiguousText parses a text as a number of different options
// that is available in the geospatial world using the first character as
// a heuristic: hex EWKB, raw EWKB, GeoJSON or EWKT. Geometries without an
// SRID take defaultSRID.
func ParseAmbiguousText(
	ctx context.Context, str string, defaultSRID geopb.SRID,
) (lwgeom.Geometry, error) {
	if len(str) == 0 {
		return nil, geoerr.NewMalformedInputf("parsing empty string to geo type")
	}

	var g lwgeom.Geometry
	var err error
	switch str[0] {
	case '0':
		g, err = wkb.UnmarshalHex(ctx, str, wkb.CheckAll)
	case 0x00, 0x01:
		g, err = wkb.Unmarshal(ctx, []byte(str), wkb.CheckAll)
	case '{':
		g, err = geojson.Unmarshal(ctx, []byte(str))
	default:
		g, err = wkt.Unmarshal(ctx, str)
	}
	if err != nil {
		return nil, err
	}
	// An explicit SRID of zero does not override the default.
	if defaultSRID != geopb.SRIDUnknown && g.SRID() == geopb.SRIDUnknown {
		lwgeom.SetSRID(g, lwgeom.ClampSRID(ctx, defaultSRID))
	}
	return g, nil
}
