// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package wkb reads and writes the OGC Well-Known Binary format in its ISO,
// SFSQL and extended (EWKB) variants, in either byte order and optionally as
// upper-case hex.
package wkb

import (
	"encoding/binary"

	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
)

// Variant selects the output dialect.
type Variant uint8

// Variant bits. NoNPoints and NoSRID are set internally while writing
// points and collection members.
const (
	ISO       Variant = 0x01
	SFSQL     Variant = 0x02
	Extended  Variant = 0x04
	NDR       Variant = 0x08
	XDR       Variant = 0x10
	Hex       Variant = 0x20
	NoNPoints Variant = 0x40
	NoSRID    Variant = 0x80
)

// Check selects the validity checks applied while reading.
type Check uint8

// Check bits.
const (
	CheckNone      Check = 0
	CheckMinPoints Check = 0x01
	CheckOdd       Check = 0x02
	CheckClosure   Check = 0x04
	CheckZClosure  Check = 0x08
	CheckAll       Check = CheckMinPoints | CheckOdd | CheckClosure | CheckZClosure
)

// Type word flags of the extended variant.
const (
	zFlag    uint32 = 0x80000000
	mFlag    uint32 = 0x40000000
	sridFlag uint32 = 0x20000000
	flagMask uint32 = 0xF0000000
)

const (
	byteSize   = 1
	wordSize   = 4
	doubleSize = 8
)

var wkbNumbers = map[geopb.Type]uint32{
	geopb.PointType:              1,
	geopb.LineStringType:         2,
	geopb.PolygonType:            3,
	geopb.MultiPointType:         4,
	geopb.MultiLineStringType:    5,
	geopb.MultiPolygonType:       6,
	geopb.GeometryCollectionType: 7,
	geopb.CircularStringType:     8,
	geopb.CompoundCurveType:      9,
	geopb.CurvePolygonType:       10,
	geopb.MultiCurveType:         11,
	geopb.MultiSurfaceType:       12,
	geopb.PolyhedralSurfaceType:  15,
	geopb.TINType:                16,
	geopb.TriangleType:           17,
}

// typesByNumber inverts wkbNumbers and adds the 13 and 14 that old PostGIS
// releases wrote for CurvePolygon and MultiCurve.
var typesByNumber = func() map[uint32]geopb.Type {
	m := make(map[uint32]geopb.Type, len(wkbNumbers)+2)
	for t, n := range wkbNumbers {
		m[n] = t
	}
	m[13] = geopb.CurvePolygonType
	m[14] = geopb.MultiCurveType
	return m
}()

// dialect returns the single variant governing type words and dimensions.
// Extended wins over SFSQL, and ISO is the fallback.
func (v Variant) dialect() Variant {
	switch {
	case v&Extended != 0:
		return Extended
	case v&SFSQL != 0:
		return SFSQL
	}
	return ISO
}

// byteOrder returns the requested order. Asking for both or neither of
// NDR and XDR means host order.
func (v Variant) byteOrder() (binary.ByteOrder, byte) {
	ndr, xdr := v&NDR != 0, v&XDR != 0
	if ndr == xdr {
		if hostIsLittle {
			return binary.LittleEndian, 1
		}
		return binary.BigEndian, 0
	}
	if xdr {
		return binary.BigEndian, 0
	}
	return binary.LittleEndian, 1
}

var hostIsLittle = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// typeWord returns the type integer written for a geometry of kind typ.
func typeWord(typ geopb.Type, hasZ, hasM, withSRID bool, v Variant) (uint32, error) {
	n, ok := wkbNumbers[typ]
	if !ok {
		return 0, geoerr.NewTypeMismatchf("%s has no WKB type number", typ)
	}
	switch v.dialect() {
	case Extended:
		if hasZ {
			n |= zFlag
		}
		if hasM {
			n |= mFlag
		}
		if withSRID {
			n |= sridFlag
		}
	case ISO:
		if hasZ {
			n += 1000
		}
		if hasM {
			n += 2000
		}
	}
	return n, nil
}

// typeInfo is what a type word says about the geometry that follows.
type typeInfo struct {
	typ     geopb.Type
	hasZ    bool
	hasM    bool
	hasSRID bool
}

// parseTypeWord accepts extended flag bits, ISO thousands and plain
// numbers alike.
func parseTypeWord(w uint32) (typeInfo, error) {
	var info typeInfo
	if w&flagMask != 0 {
		info.hasZ = w&zFlag != 0
		info.hasM = w&mFlag != 0
		info.hasSRID = w&sridFlag != 0
	}
	w &^= flagMask
	switch {
	case w >= 3000 && w < 4000:
		info.hasZ, info.hasM = true, true
	case w >= 2000 && w < 3000:
		info.hasM = true
	case w >= 1000 && w < 2000:
		info.hasZ = true
	}
	typ, ok := typesByNumber[w%1000]
	if !ok {
		return info, geoerr.NewMalformedInputf(
			"unknown WKB type (%d), full WKB type number was (%d)", w%1000, w)
	}
	info.typ = typ
	return info, nil
}
