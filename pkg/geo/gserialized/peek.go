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
	"context"
	"encoding/binary"
	"math"

	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/lwgeom"
)

// Header is the fixed part of a serialized geometry.
type Header struct {
	// Size is the total size in bytes declared by the header.
	Size int
	// RawSRID is the SRID as stored, before clamping.
	RawSRID geopb.SRID
	// Flags are the stored flags.
	Flags geopb.Flags
	// BBox is the stored box, or nil.
	BBox *geopb.GBox
	// Type is the kind of the top-level geometry.
	Type geopb.Type
}

// SRID returns the stored SRID mapped into the valid range.
func (h *Header) SRID() geopb.SRID {
	srid, _ := geopb.ClampSRID(h.RawSRID)
	return srid
}

// ReadHeader reads the header, stored box and top-level type of buf
// without decoding the body.
func ReadHeader(buf []byte) (Header, error) {
	if len(buf) < headerSize {
		return Header{}, geoerr.NewMalformedInputf(
			"serialized geometry needs at least %d bytes, have %d", headerSize, len(buf))
	}
	h := Header{
		Size:    int(binary.LittleEndian.Uint32(buf[sizeOffset:]) >> 2),
		RawSRID: unpackSRID(buf[sridOffset:]),
		Flags:   geopb.Flags(buf[flagsOffset]),
	}
	if h.Size > len(buf) {
		return Header{}, geoerr.NewMalformedInputf(
			"serialized geometry declares %d bytes, have %d", h.Size, len(buf))
	}
	off := dataOffset(h.Flags)
	if h.Size < off+2*wordSize {
		return Header{}, geoerr.NewMalformedInputf(
			"serialized geometry of %d bytes is too small for flags %s", h.Size, h.Flags)
	}
	if h.Flags.HasBBox() {
		h.BBox = readBox(buf[headerSize:], h.Flags)
	}
	tag := binary.LittleEndian.Uint32(buf[off:])
	h.Type = geopb.Type(tag)
	if tag > 0xff || !h.Type.Valid() {
		return Header{}, geoerr.NewMalformedInputf("unknown geometry type %d", tag)
	}
	return h, nil
}

func readBox(src []byte, flags geopb.Flags) *geopb.GBox {
	next := func() float64 {
		v := math.Float32frombits(binary.LittleEndian.Uint32(src))
		src = src[floatSize:]
		return float64(v)
	}
	box := &geopb.GBox{Flags: geopb.MakeFlags(flags.HasZ(), flags.HasM(), flags.IsGeodetic())}
	box.XMin, box.XMax = next(), next()
	box.YMin, box.YMax = next(), next()
	if flags.IsGeodetic() {
		box.ZMin, box.ZMax = next(), next()
		return box
	}
	if flags.HasZ() {
		box.ZMin, box.ZMax = next(), next()
	}
	if flags.HasM() {
		box.MMin, box.MMax = next(), next()
	}
	return box
}

// PeekType returns the kind of the serialized geometry.
func PeekType(buf []byte) (geopb.Type, error) {
	h, err := ReadHeader(buf)
	return h.Type, err
}

// PeekSRID returns the SRID of the serialized geometry.
func PeekSRID(buf []byte) (geopb.SRID, error) {
	h, err := ReadHeader(buf)
	if err != nil {
		return 0, err
	}
	return h.SRID(), nil
}

// PeekFlags returns the stored flags of the serialized geometry.
func PeekFlags(buf []byte) (geopb.Flags, error) {
	h, err := ReadHeader(buf)
	return h.Flags, err
}

// PeekIsEmpty returns whether the top-level point, ring or member count of
// the serialized geometry is zero. A collection holding only empty members
// is not reported as empty.
func PeekIsEmpty(buf []byte) (bool, error) {
	h, err := ReadHeader(buf)
	if err != nil {
		return false, err
	}
	n := binary.LittleEndian.Uint32(buf[dataOffset(h.Flags)+wordSize:])
	return n == 0, nil
}

// ReadGBox returns the stored box of the serialized geometry, or nil when
// there is none.
func ReadGBox(buf []byte) (*geopb.GBox, error) {
	h, err := ReadHeader(buf)
	return h.BBox, err
}

// PeekGBox computes the box of a serialized cartesian point, two-point
// line, single-point multipoint or single two-point multiline directly
// from the stored ordinates. It returns nil for other shapes, for empty
// geometries and for serializations that store a box.
func PeekGBox(buf []byte) (*geopb.GBox, error) {
	h, err := ReadHeader(buf)
	if err != nil {
		return nil, err
	}
	if h.Flags.IsGeodetic() || h.Flags.HasBBox() {
		return nil, nil
	}
	d := decoder{buf: buf[:h.Size], hasZ: h.Flags.HasZ(), hasM: h.Flags.HasM()}
	pos := dataOffset(h.Flags)

	// wantPoints is the point count of the single point array to read.
	wantPoints := 1
	switch h.Type {
	case geopb.PointType:
	case geopb.LineStringType:
		wantPoints = 2
	case geopb.MultiPointType, geopb.MultiLineStringType:
		ngeoms, err := d.uint32(pos + wordSize)
		if err != nil {
			return nil, err
		}
		if ngeoms != 1 {
			return nil, nil
		}
		pos += 2 * wordSize
		if h.Type == geopb.MultiLineStringType {
			wantPoints = 2
		}
	default:
		return nil, nil
	}

	npoints, err := d.uint32(pos + wordSize)
	if err != nil {
		return nil, err
	}
	if int(npoints) != wantPoints {
		return nil, nil
	}
	pa, _, err := d.pointArray(pos+2*wordSize, wantPoints)
	if err != nil {
		return nil, err
	}
	box := geopb.NewGBoxFromPoint(geopb.MakeFlags(d.hasZ, d.hasM, false), pa.Point4D(0))
	for i := 1; i < pa.NPoints(); i++ {
		box.ExpandPoint(pa.Point4D(i))
	}
	box.FloatRound()
	return box, nil
}

// GetGBox returns the box of the serialized geometry: the stored one if
// present, else a peeked one, else one computed from the fully decoded
// geometry and rounded to float precision. It returns nil for an empty
// geometry.
func GetGBox(ctx context.Context, buf []byte, opts ...Option) (*geopb.GBox, error) {
	h, err := ReadHeader(buf)
	if err != nil {
		return nil, err
	}
	if h.BBox != nil {
		return h.BBox, nil
	}
	if box, err := PeekGBox(buf); err != nil || box != nil {
		return box, err
	}
	g, err := Decode(ctx, buf, append(opts, WithBorrowedCoordinates())...)
	if err != nil {
		return nil, err
	}
	box, err := lwgeom.CalculateGBox(ctx, g)
	if err != nil || box == nil {
		return nil, err
	}
	box.FloatRound()
	return box, nil
}

// SetSRID rewrites the SRID of the serialized geometry in place.
func SetSRID(ctx context.Context, buf []byte, srid geopb.SRID) error {
	if _, err := ReadHeader(buf); err != nil {
		return err
	}
	packSRID(buf[sridOffset:], lwgeom.ClampSRID(ctx, srid))
	return nil
}
