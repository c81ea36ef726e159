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
	"github.com/cockroachdb/lwgeom/pkg/geo/ptarray"
	"github.com/cockroachdb/lwgeom/pkg/util/log"
)

// Encode serializes g. When g needs a bounding box and has none, one is
// computed and cached on g first. The SRID is clamped into the storable
// range.
func Encode(ctx context.Context, g lwgeom.Geometry) ([]byte, error) {
	if g.BBox() == nil && lwgeom.NeedsBBox(g) {
		if err := lwgeom.AddBBox(ctx, g); err != nil {
			return nil, err
		}
	}

	size := Size(g)
	w := writer{buf: make([]byte, size)}
	if err := w.header(ctx, g, size); err != nil {
		return nil, err
	}
	if box := g.BBox(); box != nil {
		if err := w.box(box, g.Flags()); err != nil {
			return nil, err
		}
	}
	if err := w.geometry(ctx, g); err != nil {
		return nil, err
	}
	if w.pos != size {
		return nil, geoerr.NewInvariantViolationf(
			"serialized %s wrote %d bytes, expected %d", g.Type(), w.pos, size)
	}
	log.VEventf(ctx, 2, "serialized %s into %d bytes", g.Type(), size)
	return w.buf, nil
}

type writer struct {
	buf []byte
	pos int
}

func (w *writer) reserve(n int) ([]byte, error) {
	if w.pos+n > len(w.buf) {
		return nil, geoerr.NewInvariantViolationf(
			"write of %d bytes at offset %d overruns the %d computed bytes", n, w.pos, len(w.buf))
	}
	dst := w.buf[w.pos : w.pos+n]
	w.pos += n
	return dst, nil
}

func (w *writer) uint32(v uint32) error {
	dst, err := w.reserve(wordSize)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(dst, v)
	return nil
}

func (w *writer) float32(v float32) error {
	dst, err := w.reserve(floatSize)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
	return nil
}

func (w *writer) points(pa *ptarray.PointArray) error {
	dst, err := w.reserve(pa.ByteLen())
	if err != nil {
		return err
	}
	pa.PutBytes(dst)
	return nil
}

func (w *writer) header(ctx context.Context, g lwgeom.Geometry, size int) error {
	if err := w.uint32(uint32(size) << 2); err != nil {
		return err
	}
	srid, err := w.reserve(3)
	if err != nil {
		return err
	}
	packSRID(srid, lwgeom.ClampSRID(ctx, g.SRID()))
	flags, err := w.reserve(1)
	if err != nil {
		return err
	}
	flags[0] = byte(g.Flags() & headerFlagsMask)
	return nil
}

// box writes the extents with mins rounded down and maxes rounded up, so
// the stored box always holds the double-precision one.
func (w *writer) box(box *geopb.GBox, flags geopb.Flags) error {
	extents := []float64{box.XMin, box.XMax, box.YMin, box.YMax}
	switch {
	case flags.IsGeodetic():
		extents = append(extents, box.ZMin, box.ZMax)
	default:
		if flags.HasZ() {
			extents = append(extents, box.ZMin, box.ZMax)
		}
		if flags.HasM() {
			extents = append(extents, box.MMin, box.MMax)
		}
	}
	for i, v := range extents {
		f := geopb.NextFloatDown(v)
		if i%2 == 1 {
			f = geopb.NextFloatUp(v)
		}
		if err := w.float32(f); err != nil {
			return err
		}
	}
	return nil
}

func checkDims(g lwgeom.Geometry, pa *ptarray.PointArray) error {
	if g.HasZ() != pa.HasZ() || g.HasM() != pa.HasM() {
		return geoerr.NewInvariantViolationf("dimensions mismatch in %s", g.Type())
	}
	return nil
}

func (w *writer) pointArray(typ geopb.Type, g lwgeom.Geometry, pa *ptarray.PointArray) error {
	if err := checkDims(g, pa); err != nil {
		return err
	}
	if err := w.uint32(uint32(typ)); err != nil {
		return err
	}
	if err := w.uint32(uint32(pa.NPoints())); err != nil {
		return err
	}
	return w.points(pa)
}

func (w *writer) geometry(ctx context.Context, g lwgeom.Geometry) error {
	switch g := g.(type) {
	case *lwgeom.Point:
		return w.pointArray(g.Type(), g, g.Points())
	case *lwgeom.LineString:
		return w.pointArray(g.Type(), g, g.Points())
	case *lwgeom.CircularString:
		return w.pointArray(g.Type(), g, g.Points())
	case *lwgeom.Triangle:
		return w.pointArray(g.Type(), g, g.Points())
	case *lwgeom.Polygon:
		if err := w.uint32(uint32(g.Type())); err != nil {
			return err
		}
		if err := w.uint32(uint32(g.NumRings())); err != nil {
			return err
		}
		for _, r := range g.Rings() {
			if err := w.uint32(uint32(r.NPoints())); err != nil {
				return err
			}
		}
		if pad := ringPadding(g.NumRings()); pad > 0 {
			if _, err := w.reserve(pad); err != nil {
				return err
			}
		}
		for _, r := range g.Rings() {
			if err := checkDims(g, r); err != nil {
				return err
			}
			if err := w.points(r); err != nil {
				return err
			}
		}
		return nil
	case *lwgeom.Collection:
		if err := w.uint32(uint32(g.Type())); err != nil {
			return err
		}
		if err := w.uint32(uint32(g.NumGeoms())); err != nil {
			return err
		}
		for _, m := range g.Geoms() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if m.Flags().ZM() != g.Flags().ZM() {
				return geoerr.NewInvariantViolationf("dimensions mismatch in %s", g.Type())
			}
			if err := w.geometry(ctx, m); err != nil {
				return err
			}
		}
		return nil
	}
	return geoerr.NewInvariantViolationf("unknown geometry %T", g)
}
