// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package geopb holds the plain value types shared by the geometry
// packages: geometry kinds, flag bits, SRIDs, coordinates and boxes.
package geopb

import (
	"fmt"

	"github.com/cockroachdb/redact"
)

// Type is the kind of a geometry, numbered as in the serialized form.
type Type uint8

// Geometry kinds.
const (
	UnknownType Type = iota
	PointType
	LineStringType
	PolygonType
	MultiPointType
	MultiLineStringType
	MultiPolygonType
	GeometryCollectionType
	CircularStringType
	CompoundCurveType
	CurvePolygonType
	MultiCurveType
	MultiSurfaceType
	PolyhedralSurfaceType
	TriangleType
	TINType

	// NumTypes is one past the largest valid Type.
	NumTypes
)

var typeNames = [NumTypes]string{
	UnknownType:            "UNKNOWN",
	PointType:              "POINT",
	LineStringType:         "LINESTRING",
	PolygonType:            "POLYGON",
	MultiPointType:         "MULTIPOINT",
	MultiLineStringType:    "MULTILINESTRING",
	MultiPolygonType:       "MULTIPOLYGON",
	GeometryCollectionType: "GEOMETRYCOLLECTION",
	CircularStringType:     "CIRCULARSTRING",
	CompoundCurveType:      "COMPOUNDCURVE",
	CurvePolygonType:       "CURVEPOLYGON",
	MultiCurveType:         "MULTICURVE",
	MultiSurfaceType:       "MULTISURFACE",
	PolyhedralSurfaceType:  "POLYHEDRALSURFACE",
	TriangleType:           "TRIANGLE",
	TINType:                "TIN",
}

// String implements fmt.Stringer.
func (t Type) String() string {
	if t >= NumTypes {
		return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
	}
	return typeNames[t]
}

// SafeValue implements redact.SafeValue.
func (Type) SafeValue() {}

var _ redact.SafeValue = Type(0)

// Valid returns whether t names a known geometry kind.
func (t Type) Valid() bool {
	return t > UnknownType && t < NumTypes
}

// IsCollection returns whether geometries of kind t are made of member
// geometries rather than point arrays or rings.
func (t Type) IsCollection() bool {
	switch t {
	case MultiPointType, MultiLineStringType, MultiPolygonType, GeometryCollectionType,
		CompoundCurveType, CurvePolygonType, MultiCurveType, MultiSurfaceType,
		PolyhedralSurfaceType, TINType:
		return true
	}
	return false
}

// CollectionType returns the homogeneous collection kind able to hold
// geometries of kind t.
func (t Type) CollectionType() Type {
	switch t {
	case PointType:
		return MultiPointType
	case LineStringType:
		return MultiLineStringType
	case PolygonType:
		return MultiPolygonType
	case CircularStringType, CompoundCurveType:
		return MultiCurveType
	case CurvePolygonType:
		return MultiSurfaceType
	case TriangleType:
		return TINType
	}
	return GeometryCollectionType
}

// AllowsSubtype returns whether a collection of kind collection may hold a
// member of kind member.
func AllowsSubtype(collection, member Type) bool {
	if !member.Valid() {
		return false
	}
	switch collection {
	case GeometryCollectionType:
		return true
	case MultiPointType:
		return member == PointType
	case MultiLineStringType:
		return member == LineStringType
	case MultiPolygonType:
		return member == PolygonType
	case CompoundCurveType:
		return member == LineStringType || member == CircularStringType
	case CurvePolygonType, MultiCurveType:
		return member == LineStringType || member == CircularStringType || member == CompoundCurveType
	case MultiSurfaceType:
		return member == PolygonType || member == CurvePolygonType
	case PolyhedralSurfaceType:
		return member == PolygonType
	case TINType:
		return member == TriangleType
	}
	return false
}

// Flags is the bit set stored in the header of a serialized geometry.
type Flags uint8

// Flag bits.
const (
	FlagZ        Flags = 0x01
	FlagM        Flags = 0x02
	FlagBBox     Flags = 0x04
	FlagGeodetic Flags = 0x08
	FlagReadOnly Flags = 0x10
	FlagSolid    Flags = 0x20
)

// MakeFlags returns flags with the given dimension and geodetic bits.
func MakeFlags(hasZ, hasM, geodetic bool) Flags {
	var f Flags
	return f.WithZ(hasZ).WithM(hasM).WithGeodetic(geodetic)
}

func (f Flags) with(bit Flags, on bool) Flags {
	if on {
		return f | bit
	}
	return f &^ bit
}

// HasZ returns whether the Z bit is set.
func (f Flags) HasZ() bool { return f&FlagZ != 0 }

// HasM returns whether the M bit is set.
func (f Flags) HasM() bool { return f&FlagM != 0 }

// HasBBox returns whether the bounding box bit is set.
func (f Flags) HasBBox() bool { return f&FlagBBox != 0 }

// IsGeodetic returns whether the geodetic bit is set.
func (f Flags) IsGeodetic() bool { return f&FlagGeodetic != 0 }

// IsReadOnly returns whether the read-only bit is set.
func (f Flags) IsReadOnly() bool { return f&FlagReadOnly != 0 }

// IsSolid returns whether the solid bit is set.
func (f Flags) IsSolid() bool { return f&FlagSolid != 0 }

// WithZ returns f with the Z bit set to on.
func (f Flags) WithZ(on bool) Flags { return f.with(FlagZ, on) }

// WithM returns f with the M bit set to on.
func (f Flags) WithM(on bool) Flags { return f.with(FlagM, on) }

// WithBBox returns f with the bounding box bit set to on.
func (f Flags) WithBBox(on bool) Flags { return f.with(FlagBBox, on) }

// WithGeodetic returns f with the geodetic bit set to on.
func (f Flags) WithGeodetic(on bool) Flags { return f.with(FlagGeodetic, on) }

// WithReadOnly returns f with the read-only bit set to on.
func (f Flags) WithReadOnly(on bool) Flags { return f.with(FlagReadOnly, on) }

// WithSolid returns f with the solid bit set to on.
func (f Flags) WithSolid(on bool) Flags { return f.with(FlagSolid, on) }

// ZM returns the two dimension bits: 0 for XY, 1 for XYZ, 2 for XYM and 3
// for XYZM.
func (f Flags) ZM() int { return int(f & (FlagZ | FlagM)) }

// NDims returns the number of ordinates per point.
func (f Flags) NDims() int {
	n := 2
	if f.HasZ() {
		n++
	}
	if f.HasM() {
		n++
	}
	return n
}

// String implements fmt.Stringer.
func (f Flags) String() string {
	return fmt.Sprintf("Z=%d M=%d BBOX=%d GEODETIC=%d READONLY=%d SOLID=%d",
		b2i(f.HasZ()), b2i(f.HasM()), b2i(f.HasBBox()), b2i(f.IsGeodetic()),
		b2i(f.IsReadOnly()), b2i(f.IsSolid()))
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SRID is a spatial reference identifier.
type SRID int32

// SRID limits.
const (
	SRIDUnknown     SRID = 0
	SRIDMaximum     SRID = 999999
	SRIDUserMaximum SRID = 998999
)

// SafeValue implements redact.SafeValue.
func (SRID) SafeValue() {}

var _ redact.SafeValue = SRID(0)

// ClampSRID maps an SRID into the range the serialized form can hold.
// Non-positive values become unknown; values above the maximum are folded
// into the reserved range above the user maximum. The bool reports whether
// the value changed so callers can emit a notice.
func ClampSRID(srid SRID) (SRID, bool) {
	if srid <= 0 {
		return SRIDUnknown, srid != SRIDUnknown
	}
	if srid > SRIDMaximum {
		return SRIDUserMaximum + 1 + (srid % (SRIDMaximum - SRIDUserMaximum - 1)), true
	}
	return srid, false
}
