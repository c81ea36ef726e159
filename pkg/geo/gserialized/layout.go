// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package gserialized reads and writes the compact serialized geometry
// form: an 8-byte header holding the size, SRID and flags, an optional
// float32 bounding box, and a recursive little-endian body of type tags,
// counts and float64 ordinates.
//
// Every size and offset rule of the format lives in this file, so that
// the encoder's size pass and the decoder's cursor agree by construction.
package gserialized

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/lwgeom"
)

const (
	// headerSize covers the size word, the 3-byte SRID and the flags byte.
	headerSize = 8
	wordSize   = 4
	floatSize  = 4
	doubleSize = 8

	sizeOffset  = 0
	sridOffset  = 4
	flagsOffset = 7

	// headerFlagsMask holds the flags that are stored in the header.
	// ReadOnly describes memory, not data, and is never stored.
	headerFlagsMask = geopb.FlagZ | geopb.FlagM | geopb.FlagBBox | geopb.FlagGeodetic | geopb.FlagSolid
)

// DefaultMaxDepth is the deepest collection nesting Decode accepts unless
// WithMaxDepth says otherwise.
const DefaultMaxDepth = 32

// boxSize returns the number of bytes of the stored box, zero when flags
// has no box.
func boxSize(flags geopb.Flags) int {
	if !flags.HasBBox() {
		return 0
	}
	return geopb.SerializedGBoxSize(flags)
}

// dataOffset returns the offset of the top-level type tag.
func dataOffset(flags geopb.Flags) int {
	return headerSize + boxSize(flags)
}

// pointArraySize returns the number of bytes of npoints packed ordinates.
func pointArraySize(npoints int, flags geopb.Flags) int {
	return npoints * flags.NDims() * doubleSize
}

// ringPadding returns the padding that follows the ring counts of a
// polygon so that its ordinates start on an 8-byte boundary.
func ringPadding(nrings int) int {
	if nrings%2 == 1 {
		return wordSize
	}
	return 0
}

// polygonPrefixSize returns the bytes between a polygon's type tag and its
// first ordinate: the ring count, one point count per ring and padding.
func polygonPrefixSize(nrings int) int {
	return wordSize + nrings*wordSize + ringPadding(nrings)
}

// bodySize returns the number of bytes of g from its type tag on.
func bodySize(g lwgeom.Geometry) int {
	flags := g.Flags()
	switch g := g.(type) {
	case *lwgeom.Point:
		return 2*wordSize + pointArraySize(g.NumPoints(), flags)
	case *lwgeom.LineString:
		return 2*wordSize + pointArraySize(g.NumPoints(), flags)
	case *lwgeom.CircularString:
		return 2*wordSize + pointArraySize(g.NumPoints(), flags)
	case *lwgeom.Triangle:
		return 2*wordSize + pointArraySize(g.NumPoints(), flags)
	case *lwgeom.Polygon:
		size := wordSize + polygonPrefixSize(g.NumRings())
		for _, r := range g.Rings() {
			size += pointArraySize(r.NPoints(), flags)
		}
		return size
	case *lwgeom.Collection:
		size := 2 * wordSize
		for _, m := range g.Geoms() {
			size += bodySize(m)
		}
		return size
	}
	panic(errors.AssertionFailedf("unknown geometry %T", g))
}

// Size returns the number of bytes Encode produces for g in its current
// state. Encode may first attach a box to g, which grows the size.
func Size(g lwgeom.Geometry) int {
	size := headerSize + bodySize(g)
	if box := g.BBox(); box != nil {
		size += geopb.SerializedGBoxSize(g.Flags())
	}
	return size
}

// packSRID stores the low 21 bits of srid in three bytes, most significant
// first.
func packSRID(dst []byte, srid geopb.SRID) {
	dst[0] = byte((srid & 0x001F0000) >> 16)
	dst[1] = byte((srid & 0x0000FF00) >> 8)
	dst[2] = byte(srid & 0x000000FF)
}

// unpackSRID sign-extends the 21-bit SRID stored by packSRID.
func unpackSRID(src []byte) geopb.SRID {
	srid := int32(src[0])<<16 | int32(src[1])<<8 | int32(src[2])
	return geopb.SRID((srid << 11) >> 11)
}

type options struct {
	maxDepth int
	borrow   bool
}

// Option configures Decode.
type Option func(*options)

// WithMaxDepth bounds the collection nesting Decode accepts.
func WithMaxDepth(depth int) Option {
	return func(o *options) { o.maxDepth = depth }
}

// WithBorrowedCoordinates makes Decode return geometries whose point arrays
// are read-only views into the input buffer instead of copies. The buffer
// must not change while the geometry is in use.
func WithBorrowedCoordinates() Option {
	return func(o *options) { o.borrow = true }
}

func makeOptions(opts []Option) options {
	o := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
