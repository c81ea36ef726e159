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
	"bytes"
	"context"
	"encoding/binary"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geojson"
	"github.com/cockroachdb/lwgeom/pkg/geo/geomconv"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/lwgeom"
	"github.com/cockroachdb/lwgeom/pkg/geo/wkb"
	"github.com/cockroachdb/lwgeom/pkg/geo/wkt"
	"github.com/pierrre/geohash"
	"github.com/twpayne/go-geom/encoding/kml"
)

// ToWKT transforms a given geometry to ISO WKT.
func ToWKT(g lwgeom.Geometry, maxDecimalDigits int) (string, error) {
	return wkt.Marshal(g, wkt.ISO, maxDecimalDigits)
}

// ToEWKT transforms a given geometry to EWKT.
func ToEWKT(g lwgeom.Geometry, maxDecimalDigits int) (string, error) {
	return wkt.Marshal(g, wkt.Extended, maxDecimalDigits)
}

func variantForByteOrder(byteOrder binary.ByteOrder) wkb.Variant {
	if byteOrder == binary.BigEndian {
		return wkb.XDR
	}
	return wkb.NDR
}

// ToWKB transforms a given geometry to ISO WKB.
func ToWKB(ctx context.Context, g lwgeom.Geometry, byteOrder binary.ByteOrder) ([]byte, error) {
	return wkb.Marshal(ctx, g, wkb.ISO|variantForByteOrder(byteOrder))
}

// ToEWKB transforms a given geometry to EWKB.
func ToEWKB(ctx context.Context, g lwgeom.Geometry, byteOrder binary.ByteOrder) ([]byte, error) {
	return wkb.Marshal(ctx, g, wkb.Extended|variantForByteOrder(byteOrder))
}

// ToWKBHex transforms a given geometry to hex EWKB.
func ToWKBHex(ctx context.Context, g lwgeom.Geometry) (string, error) {
	return wkb.MarshalHex(ctx, g, wkb.Extended|variantForByteOrder(DefaultEWKBEncodingFormat))
}

// DefaultGeoJSONDecimalDigits is the default number of digits coordinates in GeoJSON.
const DefaultGeoJSONDecimalDigits = geojson.DefaultDecimalDigits

// ToGeoJSON transforms a given geometry to GeoJSON.
func ToGeoJSON(g lwgeom.Geometry, maxDecimalDigits int, flag geojson.Flag) ([]byte, error) {
	return geojson.Marshal(g, maxDecimalDigits, flag)
}

// ToKML transforms a given geometry to KML.
func ToKML(g lwgeom.Geometry) (string, error) {
	t, err := geomconv.ToGeomT(g)
	if err != nil {
		return "", errors.Wrap(err, "KML")
	}
	kmlElement, err := kml.Encode(t)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := kmlElement.Write(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// GeoHashAutoPrecision means to calculate the precision of ToGeoHash
// based on input, up to 32 characters.
const GeoHashAutoPrecision = 0

// GeoHashMaxPrecision is the maximum precision for GeoHashes.
// 20 is picked as doubles have 51 decimals of precision, and each base32 position
// can contain 5 bits of data. As we have two points, we use floor((2 * 51) / 5) = 20.
const GeoHashMaxPrecision = 20

// ToGeoHash transforms a given geometry to a GeoHash of the center of its
// bounding box. Empty geometries have no GeoHash.
func ToGeoHash(ctx context.Context, g lwgeom.Geometry, p int) (string, error) {
	bbox, err := lwgeom.CalculateCartesianGBox(ctx, g)
	if err != nil || bbox == nil {
		return "", err
	}
	if bbox.XMin < -180 || bbox.XMax > 180 || bbox.YMin < -90 || bbox.YMax > 90 {
		return "", geoerr.NewDegenerateGeometryf(
			"object has bounds greater than the bounds of lat/lng, got (%f %f, %f %f)",
			bbox.XMin, bbox.YMin,
			bbox.XMax, bbox.YMax,
		)
	}

	// Get precision using the bounding box if required.
	if p <= GeoHashAutoPrecision {
		p = getPrecisionForBBox(bbox)
	}

	// Support up to 20, which is the same as PostGIS.
	if p > GeoHashMaxPrecision {
		p = GeoHashMaxPrecision
	}

	bbCenterLng := bbox.XMin + (bbox.XMax-bbox.XMin)/2.0
	bbCenterLat := bbox.YMin + (bbox.YMax-bbox.YMin)/2.0

	return geohash.Encode(bbCenterLat, bbCenterLng, p), nil
}

// getPrecisionForBBox halves the world bounding box until it no longer
// contains the feature bounding box on one side, giving a precision that
// still encompasses the entire feature.
func getPrecisionForBBox(bbox *geopb.GBox) int {
	bitPrecision := 0

	// This is a point, for points we use the full bitPrecision.
	if bbox.XMin == bbox.XMax && bbox.YMin == bbox.YMax {
		return GeoHashMaxPrecision
	}

	// Starts from a world bounding box:
	lonMin := -180.0
	lonMax := 180.0
	latMin := -90.0
	latMax := 90.0

	// Each iteration shrinks the world bounding box by half in the dimension that
	// does not fit, making adjustments each iteration until it intersects with
	// the object bbox.
	for {
		lonWidth := lonMax - lonMin
		latWidth := latMax - latMin
		latMaxDelta, lonMaxDelta, latMinDelta, lonMinDelta := 0.0, 0.0, 0.0, 0.0

		if bbox.XMin > lonMin+lonWidth/2.0 {
			lonMinDelta = lonWidth / 2.0
		} else if bbox.XMax < lonMax-lonWidth/2.0 {
			lonMaxDelta = lonWidth / -2.0
		}
		if bbox.YMin > latMin+latWidth/2.0 {
			latMinDelta = latWidth / 2.0
		} else if bbox.YMax < latMax-latWidth/2.0 {
			latMaxDelta = latWidth / -2.0
		}

		// Every change we make that splits the box up adds precision.
		// If we detect no change, we've intersected a box and so must exit.
		precisionDelta := 0
		if lonMinDelta != 0.0 || lonMaxDelta != 0.0 {
			lonMin += lonMinDelta
			lonMax += lonMaxDelta
			precisionDelta++
		} else {
			break
		}
		if latMinDelta != 0.0 || latMaxDelta != 0.0 {
			latMin += latMinDelta
			latMax += latMaxDelta
			precisionDelta++
		} else {
			break
		}
		bitPrecision += precisionDelta
	}
	// Each character can represent 5 bits of bitPrecision.
	return bitPrecision / 5
}

// StringToByteOrder returns the byte order of string.
func StringToByteOrder(s string) binary.ByteOrder {
	switch strings.ToLower(s) {
	case "ndr":
		return binary.LittleEndian
	case "xdr":
		return binary.BigEndian
	default:
		return DefaultEWKBEncodingFormat
	}
}
