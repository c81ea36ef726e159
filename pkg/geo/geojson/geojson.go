// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package geojson reads and writes GeoJSON geometries through go-geom.
// GeoJSON has no curves, so only the seven OGC kinds are supported.
package geojson

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geomconv"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/lwgeom"
	geomjson "github.com/twpayne/go-geom/encoding/geojson"
)

// DefaultDecimalDigits is the default number of decimal digits written per
// ordinate.
const DefaultDecimalDigits = 9

// Flag maps to the ST_AsGeoJSON options.
type Flag int

// 0: means no option
// 1: GeoJSON BBOX
// 2: GeoJSON Short CRS (e.g EPSG:4326)
// 4: GeoJSON Long CRS (e.g urn:ogc:def:crs:EPSG::4326)
// 8: GeoJSON Short CRS if not EPSG:4326
const (
	FlagIncludeBBox Flag = 1 << (iota)
	FlagShortCRS
	FlagLongCRS
	FlagShortCRSIfNot4326

	FlagZero = 0
)

// Unmarshal parses a GeoJSON geometry object. A "name" crs in the EPSG
// authority sets the SRID.
func Unmarshal(ctx context.Context, data []byte) (lwgeom.Geometry, error) {
	var gj geomjson.Geometry
	if err := json.Unmarshal(data, &gj); err != nil {
		return nil, geoerr.WrapMalformedInputf(err, "parsing GeoJSON")
	}
	t, err := gj.Decode()
	if err != nil {
		return nil, geoerr.WrapMalformedInputf(err, "decoding GeoJSON %s", gj.Type)
	}
	g, err := geomconv.FromGeomT(ctx, t)
	if err != nil {
		return nil, err
	}
	if gj.CRS != nil {
		srid, err := crsToSRID(gj.CRS)
		if err != nil {
			return nil, err
		}
		lwgeom.SetSRID(g, lwgeom.ClampSRID(ctx, srid))
	}
	return g, nil
}

func crsToSRID(crs *geomjson.CRS) (geopb.SRID, error) {
	name, _ := crs.Properties["name"].(string)
	if crs.Type != "name" || name == "" {
		return 0, geoerr.NewMalformedInputf("unsupported crs %q", crs.Type)
	}
	idx := strings.LastIndexByte(name, ':')
	if idx < 0 || !strings.Contains(strings.ToUpper(name[:idx]), "EPSG") {
		return 0, geoerr.NewMalformedInputf("unknown crs name %q", name)
	}
	srid, err := strconv.ParseInt(name[idx+1:], 10, 32)
	if err != nil {
		return 0, geoerr.WrapMalformedInputf(err, "crs name %q", name)
	}
	return geopb.SRID(srid), nil
}

// crs returns the CRS naming srid in the EPSG authority.
func crs(srid geopb.SRID, long bool) *geomjson.CRS {
	var prop string
	if long {
		prop = fmt.Sprintf("urn:ogc:def:crs:EPSG::%d", srid)
	} else {
		prop = fmt.Sprintf("EPSG:%d", srid)
	}
	return &geomjson.CRS{
		Type: "name",
		Properties: map[string]interface{}{
			"name": prop,
		},
	}
}

// Marshal writes g as a GeoJSON geometry object with at most
// maxDecimalDigits decimal digits per ordinate.
func Marshal(g lwgeom.Geometry, maxDecimalDigits int, flag Flag) ([]byte, error) {
	t, err := geomconv.ToGeomT(g)
	if err != nil {
		return nil, errors.Wrap(err, "GeoJSON")
	}
	options := []geomjson.EncodeGeometryOption{
		geomjson.EncodeGeometryWithMaxDecimalDigits(maxDecimalDigits),
	}
	// Do not encode empty bounding boxes.
	if flag&FlagIncludeBBox != 0 && !lwgeom.IsEmpty(g) {
		options = append(options, geomjson.EncodeGeometryWithBBox())
	}
	// Take CRS flag in order of precedence.
	if srid := g.SRID(); srid != geopb.SRIDUnknown {
		switch {
		case flag&FlagLongCRS != 0:
			options = append(options, geomjson.EncodeGeometryWithCRS(crs(srid, true /* long */)))
		case flag&FlagShortCRS != 0:
			options = append(options, geomjson.EncodeGeometryWithCRS(crs(srid, false /* long */)))
		case flag&FlagShortCRSIfNot4326 != 0 && srid != 4326:
			options = append(options, geomjson.EncodeGeometryWithCRS(crs(srid, false /* long */)))
		}
	}
	return geomjson.Marshal(t, options...)
}
