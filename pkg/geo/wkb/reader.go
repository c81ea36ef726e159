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

	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/lwgeom"
	"github.com/cockroachdb/lwgeom/pkg/geo/ptarray"
	"github.com/cockroachdb/lwgeom/pkg/util/log"
)

// DefaultMaxDepth bounds collection nesting on decode.
const DefaultMaxDepth = 32

type options struct {
	maxDepth int
}

// Option configures Unmarshal.
type Option func(*options)

// WithMaxDepth sets how deeply collections may nest.
func WithMaxDepth(depth int) Option {
	return func(o *options) { o.maxDepth = depth }
}

// Unmarshal decodes WKB in any of the variants Marshal writes, applying
// the requested checks. Every read is bounds checked against data; a
// truncated or inconsistent buffer returns a MalformedInput error and no
// geometry.
func Unmarshal(
	ctx context.Context, data []byte, check Check, opts ...Option,
) (lwgeom.Geometry, error) {
	o := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	r := reader{data: data, maxDepth: o.maxDepth}
	g, err := r.geometry(ctx, check, geopb.SRIDUnknown, 0)
	if err != nil {
		return nil, err
	}
	if r.pos != len(data) {
		log.VEventf(ctx, 2, "ignoring %d bytes after WKB %s", len(data)-r.pos, g.Type())
	}
	return g, nil
}

// UnmarshalHex decodes hex encoded WKB. Both letter cases are accepted.
func UnmarshalHex(
	ctx context.Context, hex string, check Check, opts ...Option,
) (lwgeom.Geometry, error) {
	data, err := DecodeHex(hex)
	if err != nil {
		return nil, err
	}
	return Unmarshal(ctx, data, check, opts...)
}

// DecodeHex converts hex digits to bytes.
func DecodeHex(hex string) ([]byte, error) {
	if len(hex)%2 != 0 {
		return nil, geoerr.NewMalformedInputf(
			"invalid hex string, length (%d) has to be a multiple of two", len(hex))
	}
	buf := make([]byte, len(hex)/2)
	for i := range buf {
		hi, ok := fromHexChar(hex[2*i])
		if !ok {
			return nil, geoerr.NewMalformedInputf("invalid hex character (%c) encountered", hex[2*i])
		}
		lo, ok := fromHexChar(hex[2*i+1])
		if !ok {
			return nil, geoerr.NewMalformedInputf("invalid hex character (%c) encountered", hex[2*i+1])
		}
		buf[i] = hi<<4 | lo
	}
	return buf, nil
}

func fromHexChar(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

type reader struct {
	data     []byte
	pos      int
	order    binary.ByteOrder
	maxDepth int
}

func (r *reader) need(n int) error {
	if n < 0 || r.pos+n > len(r.data) || r.pos+n < r.pos {
		return geoerr.NewMalformedInputf(
			"WKB structure does not match expected size: need %d bytes at offset %d of %d",
			n, r.pos, len(r.data))
	}
	return nil
}

func (r *reader) byte() (byte, error) {
	if err := r.need(byteSize); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) uint32() (uint32, error) {
	if err := r.need(wordSize); err != nil {
		return 0, err
	}
	v := r.order.Uint32(r.data[r.pos:])
	r.pos += wordSize
	return v, nil
}

func (r *reader) float64() float64 {
	v := math.Float64frombits(r.order.Uint64(r.data[r.pos:]))
	r.pos += doubleSize
	return v
}

// count reads an element count and checks that count elements of at least
// minBytes each fit in what remains.
func (r *reader) count(minBytes int) (int, error) {
	n, err := r.uint32()
	if err != nil {
		return 0, err
	}
	if err := r.need(int(n) * minBytes); err != nil {
		return 0, err
	}
	return int(n), nil
}

// coords reads npoints points. Little-endian input is copied in bulk.
func (r *reader) coords(info typeInfo, npoints int) (*ptarray.PointArray, error) {
	ndims := geopb.MakeFlags(info.hasZ, info.hasM, false).NDims()
	n := npoints * ndims * doubleSize
	if err := r.need(n); err != nil {
		return nil, err
	}
	if r.order == binary.LittleEndian {
		pa, err := ptarray.ConstructCopy(info.hasZ, info.hasM, npoints, r.data[r.pos:r.pos+n])
		if err != nil {
			return nil, err
		}
		r.pos += n
		return pa, nil
	}
	flat := make([]float64, npoints*ndims)
	for i := range flat {
		flat[i] = r.float64()
	}
	return ptarray.NewFlat(info.hasZ, info.hasM, flat)
}

func (r *reader) pointArray(info typeInfo) (*ptarray.PointArray, error) {
	npoints, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if npoints == 0 {
		return ptarray.ConstructEmpty(info.hasZ, info.hasM, 0), nil
	}
	return r.coords(info, int(npoints))
}

func (r *reader) geometry(
	ctx context.Context, check Check, srid geopb.SRID, depth int,
) (lwgeom.Geometry, error) {
	marker, err := r.byte()
	if err != nil {
		return nil, err
	}
	switch marker {
	case 0:
		r.order = binary.BigEndian
	case 1:
		r.order = binary.LittleEndian
	default:
		return nil, geoerr.NewMalformedInputf("invalid endian flag value %d encountered", marker)
	}
	word, err := r.uint32()
	if err != nil {
		return nil, err
	}
	info, err := parseTypeWord(word)
	if err != nil {
		return nil, err
	}
	if info.hasSRID {
		raw, err := r.uint32()
		if err != nil {
			return nil, err
		}
		srid = lwgeom.ClampSRID(ctx, geopb.SRID(int32(raw)))
	}

	switch info.typ {
	case geopb.PointType:
		return r.point(info, srid)
	case geopb.LineStringType:
		return r.lineString(info, check, srid)
	case geopb.CircularStringType:
		return r.circularString(info, check, srid)
	case geopb.PolygonType:
		return r.polygon(info, check, srid)
	case geopb.TriangleType:
		return r.triangle(info, check, srid)
	default:
		return r.collection(ctx, info, check, srid, depth)
	}
}

// point reads the single unprefixed coordinate of a point. A point whose X
// and Y are both NaN is how other writers spell an empty point.
func (r *reader) point(info typeInfo, srid geopb.SRID) (lwgeom.Geometry, error) {
	pa, err := r.coords(info, 1)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(pa.Ordinate(0, 0)) && math.IsNaN(pa.Ordinate(0, 1)) {
		return lwgeom.NewPointEmpty(srid, info.hasZ, info.hasM), nil
	}
	return lwgeom.NewPoint(srid, pa)
}

func (r *reader) lineString(info typeInfo, check Check, srid geopb.SRID) (lwgeom.Geometry, error) {
	pa, err := r.pointArray(info)
	if err != nil {
		return nil, err
	}
	if pa.IsEmpty() {
		return lwgeom.NewLineStringEmpty(srid, info.hasZ, info.hasM), nil
	}
	if check&CheckMinPoints != 0 && pa.NPoints() < 2 {
		return nil, geoerr.NewInvalidGeometryf("%s must have at least two points", info.typ)
	}
	return lwgeom.NewLineString(srid, pa), nil
}

func (r *reader) circularString(
	info typeInfo, check Check, srid geopb.SRID,
) (lwgeom.Geometry, error) {
	pa, err := r.pointArray(info)
	if err != nil {
		return nil, err
	}
	if pa.IsEmpty() {
		return lwgeom.NewCircularStringEmpty(srid, info.hasZ, info.hasM), nil
	}
	if check&CheckMinPoints != 0 && pa.NPoints() < 3 {
		return nil, geoerr.NewInvalidGeometryf("%s must have at least three points", info.typ)
	}
	if check&CheckOdd != 0 && pa.NPoints()%2 == 0 {
		return nil, geoerr.NewInvalidGeometryf("%s must have an odd number of points", info.typ)
	}
	return lwgeom.NewCircularString(srid, pa), nil
}

func checkRing(typ geopb.Type, pa *ptarray.PointArray, check Check) error {
	if check&CheckMinPoints != 0 && pa.NPoints() < 4 {
		return geoerr.NewInvalidGeometryf("%s must have at least four points in each ring", typ)
	}
	if check&CheckClosure != 0 && !pa.IsClosed2D() {
		return geoerr.NewInvalidGeometryf("%s must have closed rings", typ)
	}
	if check&CheckZClosure != 0 && !pa.IsClosedZ() {
		return geoerr.NewInvalidGeometryf("%s must have closed rings", typ)
	}
	return nil
}

func (r *reader) polygon(info typeInfo, check Check, srid geopb.SRID) (lwgeom.Geometry, error) {
	nrings, err := r.count(wordSize)
	if err != nil {
		return nil, err
	}
	poly := lwgeom.NewPolygonEmpty(srid, info.hasZ, info.hasM)
	for i := 0; i < nrings; i++ {
		pa, err := r.pointArray(info)
		if err != nil {
			return nil, err
		}
		if err := checkRing(info.typ, pa, check); err != nil {
			return nil, err
		}
		if err := poly.AddRing(pa); err != nil {
			return nil, err
		}
	}
	return poly, nil
}

func (r *reader) triangle(info typeInfo, check Check, srid geopb.SRID) (lwgeom.Geometry, error) {
	nrings, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if nrings == 0 {
		return lwgeom.NewTriangleEmpty(srid, info.hasZ, info.hasM), nil
	}
	if nrings != 1 {
		return nil, geoerr.NewMalformedInputf("triangle has wrong number of rings: %d", nrings)
	}
	pa, err := r.pointArray(info)
	if err != nil {
		return nil, err
	}
	if check&CheckMinPoints != 0 && pa.NPoints() < 4 {
		return nil, geoerr.NewInvalidGeometryf("%s must have at least four points", info.typ)
	}
	if check&CheckClosure != 0 && !pa.IsClosed() {
		return nil, geoerr.NewInvalidGeometryf("%s must have closed rings", info.typ)
	}
	if check&CheckZClosure != 0 && !pa.IsClosedZ() {
		return nil, geoerr.NewInvalidGeometryf("%s must have closed rings", info.typ)
	}
	return lwgeom.NewTriangle(srid, pa), nil
}

// minGeometrySize is the smallest possible member: a marker, a type word
// and a count.
const minGeometrySize = byteSize + 2*wordSize

func (r *reader) collection(
	ctx context.Context, info typeInfo, check Check, srid geopb.SRID, depth int,
) (lwgeom.Geometry, error) {
	if depth >= r.maxDepth {
		return nil, geoerr.NewMalformedInputf("collections nested deeper than %d levels", r.maxDepth)
	}
	ngeoms, err := r.count(minGeometrySize)
	if err != nil {
		return nil, err
	}
	c, err := lwgeom.NewCollection(info.typ, srid, info.hasZ, info.hasM)
	if err != nil {
		return nil, err
	}
	if info.typ == geopb.PolyhedralSurfaceType {
		check |= CheckZClosure
	}
	for i := 0; i < ngeoms; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := r.geometry(ctx, check, srid, depth+1)
		if err != nil {
			return nil, err
		}
		if info.typ == geopb.MultiPointType {
			m = restoreEmptyPoint(m)
		}
		if err := c.Add(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// restoreEmptyPoint turns the empty MultiPoint written for an empty point
// back into a point.
func restoreEmptyPoint(g lwgeom.Geometry) lwgeom.Geometry {
	if c, ok := g.(*lwgeom.Collection); ok && c.Type() == geopb.MultiPointType && c.NumGeoms() == 0 {
		return lwgeom.NewPointEmpty(c.SRID(), c.HasZ(), c.HasM())
	}
	return g
}
