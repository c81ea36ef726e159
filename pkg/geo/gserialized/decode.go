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

	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/lwgeom"
	"github.com/cockroachdb/lwgeom/pkg/geo/ptarray"
	"github.com/cockroachdb/lwgeom/pkg/util/log"
)

// Decode reads a serialized geometry. Every read is checked against the
// size declared in the header, which must not exceed len(buf). A stored box
// becomes the cached box of the result; otherwise a box is computed when
// the geometry needs one.
func Decode(ctx context.Context, buf []byte, opts ...Option) (lwgeom.Geometry, error) {
	o := makeOptions(opts)
	h, err := ReadHeader(buf)
	if err != nil {
		return nil, err
	}
	log.VEventf(ctx, 2, "decoding %s of %d bytes with flags %s", h.Type, h.Size, h.Flags)

	d := decoder{
		buf:     buf[:h.Size],
		hasZ:    h.Flags.HasZ(),
		hasM:    h.Flags.HasM(),
		options: o,
	}
	g, end, err := d.geometry(ctx, dataOffset(h.Flags), 0)
	if err != nil {
		return nil, err
	}
	if end != h.Size {
		return nil, geoerr.NewMalformedInputf(
			"serialized %s ends at byte %d of %d", h.Type, end, h.Size)
	}

	lwgeom.SetGeodetic(g, h.Flags.IsGeodetic())
	lwgeom.SetSolid(g, h.Flags.IsSolid())
	lwgeom.SetSRID(g, lwgeom.ClampSRID(ctx, h.RawSRID))
	if h.BBox != nil {
		lwgeom.SetBBox(g, h.BBox)
	} else if lwgeom.NeedsBBox(g) {
		if err := lwgeom.AddBBox(ctx, g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

type decoder struct {
	buf        []byte
	hasZ, hasM bool
	options
}

func (d *decoder) uint32(pos int) (uint32, error) {
	if pos < 0 || pos+wordSize > len(d.buf) {
		return 0, geoerr.NewMalformedInputf(
			"read of %d bytes at offset %d overruns %d-byte buffer", wordSize, pos, len(d.buf))
	}
	return binary.LittleEndian.Uint32(d.buf[pos:]), nil
}

// count reads a point, ring or member count and checks that at least
// minBytes bytes per element remain after it.
func (d *decoder) count(pos, minBytes int) (int, error) {
	v, err := d.uint32(pos)
	if err != nil {
		return 0, err
	}
	n := int(v)
	if remaining := len(d.buf) - pos - wordSize; minBytes > 0 && n > remaining/minBytes {
		return 0, geoerr.NewMalformedInputf(
			"count %d at offset %d does not fit in the remaining %d bytes", n, pos, remaining)
	}
	return n, nil
}

func (d *decoder) pointArray(pos, npoints int) (*ptarray.PointArray, int, error) {
	if pos > len(d.buf) {
		return nil, 0, geoerr.NewMalformedInputf(
			"point array at offset %d starts past the %d-byte buffer", pos, len(d.buf))
	}
	if npoints == 0 {
		return ptarray.ConstructEmpty(d.hasZ, d.hasM, 0), pos, nil
	}
	var pa *ptarray.PointArray
	var err error
	if d.borrow {
		pa, err = ptarray.ConstructReference(d.hasZ, d.hasM, npoints, d.buf[pos:])
	} else {
		pa, err = ptarray.ConstructCopy(d.hasZ, d.hasM, npoints, d.buf[pos:])
	}
	if err != nil {
		return nil, 0, err
	}
	return pa, pos + pa.ByteLen(), nil
}

// geometry decodes the geometry whose type tag is at pos and returns it
// with the offset just past it.
func (d *decoder) geometry(ctx context.Context, pos, depth int) (lwgeom.Geometry, int, error) {
	tag, err := d.uint32(pos)
	if err != nil {
		return nil, 0, err
	}
	typ := geopb.Type(tag)
	if tag > 0xff || !typ.Valid() {
		return nil, 0, geoerr.NewMalformedInputf("unknown geometry type %d at offset %d", tag, pos)
	}
	pointSize := pointArraySize(1, geopb.MakeFlags(d.hasZ, d.hasM, false))

	switch typ {
	case geopb.PointType, geopb.LineStringType, geopb.CircularStringType, geopb.TriangleType:
		npoints, err := d.count(pos+wordSize, pointSize)
		if err != nil {
			return nil, 0, err
		}
		pa, end, err := d.pointArray(pos+2*wordSize, npoints)
		if err != nil {
			return nil, 0, err
		}
		var g lwgeom.Geometry
		switch typ {
		case geopb.PointType:
			g, err = lwgeom.NewPoint(0, pa)
		case geopb.LineStringType:
			g = lwgeom.NewLineString(0, pa)
		case geopb.CircularStringType:
			g = lwgeom.NewCircularString(0, pa)
		default:
			g = lwgeom.NewTriangle(0, pa)
		}
		if err != nil {
			return nil, 0, geoerr.WrapMalformedInputf(err, "invalid %s at offset %d", typ, pos)
		}
		return g, end, nil

	case geopb.PolygonType:
		nrings, err := d.count(pos+wordSize, wordSize)
		if err != nil {
			return nil, 0, err
		}
		poly := lwgeom.NewPolygonEmpty(0, d.hasZ, d.hasM)
		countPos := pos + 2*wordSize
		end := pos + wordSize + polygonPrefixSize(nrings)
		for i := 0; i < nrings; i++ {
			npoints, err := d.count(countPos+i*wordSize, pointSize)
			if err != nil {
				return nil, 0, err
			}
			var ring *ptarray.PointArray
			ring, end, err = d.pointArray(end, npoints)
			if err != nil {
				return nil, 0, err
			}
			if err := poly.AddRing(ring); err != nil {
				return nil, 0, err
			}
		}
		return poly, end, nil
	}

	if depth >= d.maxDepth {
		return nil, 0, geoerr.NewMalformedInputf(
			"%s at offset %d exceeds the maximum nesting depth of %d", typ, pos, d.maxDepth)
	}
	ngeoms, err := d.count(pos+wordSize, 2*wordSize)
	if err != nil {
		return nil, 0, err
	}
	c, err := lwgeom.NewCollection(typ, 0, d.hasZ, d.hasM)
	if err != nil {
		return nil, 0, err
	}
	end := pos + 2*wordSize
	for i := 0; i < ngeoms; i++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		subtag, err := d.uint32(end)
		if err != nil {
			return nil, 0, err
		}
		if !geopb.AllowsSubtype(typ, geopb.Type(subtag)) {
			return nil, 0, geoerr.NewMalformedInputf(
				"invalid subtype %s for collection type %s", geopb.Type(subtag), typ)
		}
		var m lwgeom.Geometry
		m, end, err = d.geometry(ctx, end, depth+1)
		if err != nil {
			return nil, 0, err
		}
		if err := c.Add(m); err != nil {
			return nil, 0, geoerr.WrapMalformedInputf(err, "invalid member of %s", typ)
		}
	}
	return c, end, nil
}
