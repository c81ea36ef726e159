// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package wkb

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/lwgeom"
	"github.com/cockroachdb/lwgeom/pkg/geo/ptarray"
	"github.com/cockroachdb/lwgeom/pkg/util/log"
)

const hexDigits = "0123456789ABCDEF"

// Size returns the exact number of bytes Write produces for g in variant v.
// Hex output takes two bytes per binary byte.
func Size(g lwgeom.Geometry, v Variant) int {
	n := size(g, v)
	if v&Hex != 0 {
		n *= 2
	}
	return n
}

func needsSRID(g lwgeom.Geometry, v Variant) bool {
	return v&NoSRID == 0 && v.dialect() == Extended && g.SRID() != geopb.SRIDUnknown
}

func headerSize(g lwgeom.Geometry, v Variant) int {
	n := byteSize + wordSize
	if needsSRID(g, v) {
		n += wordSize
	}
	return n
}

func ordinates(pa *ptarray.PointArray, v Variant) int {
	if v.dialect() == SFSQL {
		return 2
	}
	return pa.NDims()
}

func pointsSize(pa *ptarray.PointArray, v Variant) int {
	n := pa.NPoints() * ordinates(pa, v) * doubleSize
	if v&NoNPoints == 0 {
		n += wordSize
	}
	return n
}

func size(g lwgeom.Geometry, v Variant) int {
	if lwgeom.IsEmpty(g) {
		return headerSize(g, v) + wordSize
	}
	switch g := g.(type) {
	case *lwgeom.Point:
		return headerSize(g, v) + pointsSize(g.Points(), v|NoNPoints)
	case *lwgeom.LineString:
		return headerSize(g, v) + pointsSize(g.Points(), v)
	case *lwgeom.CircularString:
		return headerSize(g, v) + pointsSize(g.Points(), v)
	case *lwgeom.Triangle:
		return headerSize(g, v) + wordSize + pointsSize(g.Points(), v)
	case *lwgeom.Polygon:
		n := headerSize(g, v) + wordSize
		for _, r := range g.Rings() {
			n += pointsSize(r, v)
		}
		return n
	case *lwgeom.Collection:
		n := headerSize(g, v) + wordSize
		for _, m := range g.Geoms() {
			n += size(m, v|NoSRID)
		}
		return n
	}
	panic(errors.AssertionFailedf("unknown geometry %T", g))
}

// Marshal returns g encoded in variant v. Hex output is upper case.
func Marshal(ctx context.Context, g lwgeom.Geometry, v Variant) ([]byte, error) {
	want := Size(g, v)
	buf := make([]byte, want)
	n, err := Write(ctx, g, buf, v)
	if err != nil {
		return nil, err
	}
	if n != want {
		return nil, geoerr.NewInvariantViolationf(
			"WKB of %s computed as %d bytes but %d were written", g.Type(), want, n)
	}
	log.VEventf(ctx, 2, "encoded %s as %d bytes of WKB", g.Type(), n)
	return buf, nil
}

// MarshalHex returns g encoded in variant v as a hex string.
func MarshalHex(ctx context.Context, g lwgeom.Geometry, v Variant) (string, error) {
	buf, err := Marshal(ctx, g, v|Hex)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// Write encodes g into buf, which must hold Size(g, v) bytes, and returns
// the number of bytes written.
func Write(ctx context.Context, g lwgeom.Geometry, buf []byte, v Variant) (int, error) {
	order, marker := v.byteOrder()
	w := writer{buf: buf, order: order, marker: marker, hex: v&Hex != 0}
	if err := w.geometry(ctx, g, v); err != nil {
		return w.pos, err
	}
	return w.pos, nil
}

type writer struct {
	buf     []byte
	pos     int
	order   binary.ByteOrder
	marker  byte
	hex     bool
	scratch [doubleSize]byte
}

// reserve returns the next n output bytes. In hex mode n binary bytes take
// 2n output bytes.
func (w *writer) reserve(n int) ([]byte, error) {
	if w.hex {
		n *= 2
	}
	if w.pos+n > len(w.buf) {
		return nil, geoerr.NewInvariantViolationf(
			"write of %d bytes at offset %d overruns the %d byte buffer", n, w.pos, len(w.buf))
	}
	dst := w.buf[w.pos : w.pos+n]
	w.pos += n
	return dst, nil
}

func (w *writer) put(b []byte) error {
	dst, err := w.reserve(len(b))
	if err != nil {
		return err
	}
	if !w.hex {
		copy(dst, b)
		return nil
	}
	for i, c := range b {
		dst[2*i] = hexDigits[c>>4]
		dst[2*i+1] = hexDigits[c&0x0F]
	}
	return nil
}

func (w *writer) byte(b byte) error {
	w.scratch[0] = b
	return w.put(w.scratch[:byteSize])
}

func (w *writer) uint32(v uint32) error {
	w.order.PutUint32(w.scratch[:wordSize], v)
	return w.put(w.scratch[:wordSize])
}

func (w *writer) float64(f float64) error {
	w.order.PutUint64(w.scratch[:doubleSize], math.Float64bits(f))
	return w.put(w.scratch[:doubleSize])
}

// header writes the byte order marker, the type word and the SRID if the
// variant carries one.
func (w *writer) header(g lwgeom.Geometry, typ geopb.Type, v Variant) error {
	withSRID := needsSRID(g, v)
	word, err := typeWord(typ, g.HasZ(), g.HasM(), withSRID, v)
	if err != nil {
		return err
	}
	if err := w.byte(w.marker); err != nil {
		return err
	}
	if err := w.uint32(word); err != nil {
		return err
	}
	if withSRID {
		return w.uint32(uint32(g.SRID()))
	}
	return nil
}

func (w *writer) points(pa *ptarray.PointArray, v Variant) error {
	if v&NoNPoints == 0 {
		if err := w.uint32(uint32(pa.NPoints())); err != nil {
			return err
		}
	}
	dims := ordinates(pa, v)
	if !w.hex && dims == pa.NDims() && w.order == binary.LittleEndian {
		dst, err := w.reserve(pa.ByteLen())
		if err != nil {
			return err
		}
		pa.PutBytes(dst)
		return nil
	}
	for i := 0; i < pa.NPoints(); i++ {
		for d := 0; d < dims; d++ {
			if err := w.float64(pa.Ordinate(i, d)); err != nil {
				return err
			}
		}
	}
	return nil
}

// empty writes a geometry without coordinates as its header and a zero
// count. WKB has no empty point, so points are written as an empty
// MultiPoint of the same dimensions.
func (w *writer) empty(g lwgeom.Geometry, v Variant) error {
	typ := g.Type()
	if typ == geopb.PointType {
		typ = geopb.MultiPointType
	}
	if err := w.header(g, typ, v); err != nil {
		return err
	}
	return w.uint32(0)
}

func checkDims(g lwgeom.Geometry, pa *ptarray.PointArray) error {
	if g.HasZ() != pa.HasZ() || g.HasM() != pa.HasM() {
		return geoerr.NewInvariantViolationf("dimensions mismatch in %s", g.Type())
	}
	return nil
}

func (w *writer) linear(g lwgeom.Geometry, pa *ptarray.PointArray, v Variant) error {
	if err := checkDims(g, pa); err != nil {
		return err
	}
	if err := w.header(g, g.Type(), v); err != nil {
		return err
	}
	return w.points(pa, v)
}

func (w *writer) geometry(ctx context.Context, g lwgeom.Geometry, v Variant) error {
	if lwgeom.IsEmpty(g) {
		return w.empty(g, v)
	}
	switch g := g.(type) {
	case *lwgeom.Point:
		return w.linear(g, g.Points(), v|NoNPoints)
	case *lwgeom.LineString:
		return w.linear(g, g.Points(), v)
	case *lwgeom.CircularString:
		return w.linear(g, g.Points(), v)
	case *lwgeom.Triangle:
		if err := checkDims(g, g.Points()); err != nil {
			return err
		}
		if err := w.header(g, g.Type(), v); err != nil {
			return err
		}
		if err := w.uint32(1); err != nil {
			return err
		}
		return w.points(g.Points(), v)
	case *lwgeom.Polygon:
		if err := w.header(g, g.Type(), v); err != nil {
			return err
		}
		if err := w.uint32(uint32(g.NumRings())); err != nil {
			return err
		}
		for _, r := range g.Rings() {
			if err := checkDims(g, r); err != nil {
				return err
			}
			if err := w.points(r, v); err != nil {
				return err
			}
		}
		return nil
	case *lwgeom.Collection:
		if err := w.header(g, g.Type(), v); err != nil {
			return err
		}
		if err := w.uint32(uint32(g.NumGeoms())); err != nil {
			return err
		}
		for _, m := range g.Geoms() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.geometry(ctx, m, v|NoSRID); err != nil {
				return err
			}
		}
		return nil
	}
	return geoerr.NewInvariantViolationf("unknown geometry %T", g)
}
