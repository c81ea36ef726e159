// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package lwgeom is the in-memory geometry model: a closed set of concrete
// geometry types sharing a common header, and the operations that apply
// across all of them.
package lwgeom

import (
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/ptarray"
)

// Geometry is implemented by *Point, *LineString, *CircularString,
// *Triangle, *Polygon and *Collection. No other implementations exist.
type Geometry interface {
	// Type returns the geometry kind.
	Type() geopb.Type
	// Flags returns the dimension, bounding box and geodetic flags.
	Flags() geopb.Flags
	// SRID returns the spatial reference identifier.
	SRID() geopb.SRID
	// BBox returns the cached bounding box, or nil.
	BBox() *geopb.GBox
	// HasZ returns whether coordinates carry Z.
	HasZ() bool
	// HasM returns whether coordinates carry M.
	HasM() bool
	// IsGeodetic returns whether coordinates are longitude/latitude on the
	// sphere.
	IsGeodetic() bool

	meta() *base
}

// base is the header shared by every geometry.
type base struct {
	typ   geopb.Type
	flags geopb.Flags
	srid  geopb.SRID
	bbox  *geopb.GBox
}

func makeBase(typ geopb.Type, srid geopb.SRID, hasZ, hasM bool) base {
	return base{typ: typ, flags: geopb.MakeFlags(hasZ, hasM, false), srid: srid}
}

func (b *base) meta() *base { return b }

// Type implements Geometry.
func (b *base) Type() geopb.Type { return b.typ }

// Flags implements Geometry.
func (b *base) Flags() geopb.Flags { return b.flags }

// SRID implements Geometry.
func (b *base) SRID() geopb.SRID { return b.srid }

// BBox implements Geometry.
func (b *base) BBox() *geopb.GBox { return b.bbox }

// HasZ implements Geometry.
func (b *base) HasZ() bool { return b.flags.HasZ() }

// HasM implements Geometry.
func (b *base) HasM() bool { return b.flags.HasM() }

// IsGeodetic implements Geometry.
func (b *base) IsGeodetic() bool { return b.flags.IsGeodetic() }

func (b *base) setBBox(box *geopb.GBox) {
	b.bbox = box
	b.flags = b.flags.WithBBox(box != nil)
}

func (b *base) invalidateBBox() {
	b.setBBox(nil)
}

func checkDims(typ geopb.Type, hasZ, hasM bool, pa *ptarray.PointArray) error {
	if pa.HasZ() != hasZ || pa.HasM() != hasM {
		return geoerr.NewTypeMismatchf(
			"%s has dimensions %s but its coordinates have %s",
			typ, dimsName(hasZ, hasM), dimsName(pa.HasZ(), pa.HasM()))
	}
	return nil
}

func dimsName(hasZ, hasM bool) string {
	switch {
	case hasZ && hasM:
		return "XYZM"
	case hasZ:
		return "XYZ"
	case hasM:
		return "XYM"
	}
	return "XY"
}

// linear is the shape of every geometry holding a single point array.
type linear struct {
	base
	points *ptarray.PointArray
}

func makeLinear(typ geopb.Type, srid geopb.SRID, pa *ptarray.PointArray) linear {
	return linear{base: makeBase(typ, srid, pa.HasZ(), pa.HasM()), points: pa}
}

func makeEmptyLinear(typ geopb.Type, srid geopb.SRID, hasZ, hasM bool) linear {
	return makeLinear(typ, srid, ptarray.ConstructEmpty(hasZ, hasM, 0))
}

// Points returns the coordinates.
func (l *linear) Points() *ptarray.PointArray { return l.points }

// NumPoints returns the number of coordinates.
func (l *linear) NumPoints() int { return l.points.NPoints() }

// Point is a single position, or no position at all when empty.
type Point struct {
	linear
}

// NewPoint returns a point over pa, which must hold at most one point.
func NewPoint(srid geopb.SRID, pa *ptarray.PointArray) (*Point, error) {
	if pa.NPoints() > 1 {
		return nil, geoerr.NewInvalidGeometryf("point cannot have %d coordinates", pa.NPoints())
	}
	return &Point{linear: makeLinear(geopb.PointType, srid, pa)}, nil
}

// NewPointEmpty returns an empty point.
func NewPointEmpty(srid geopb.SRID, hasZ, hasM bool) *Point {
	return &Point{linear: makeEmptyLinear(geopb.PointType, srid, hasZ, hasM)}
}

// MakePoint returns a point at p with the given dimensions.
func MakePoint(srid geopb.SRID, hasZ, hasM bool, p geopb.Point4D) *Point {
	pa := ptarray.ConstructEmpty(hasZ, hasM, 1)
	// A fresh owned array accepts an insertion.
	_ = pa.Append(p, true /* allowDuplicate */)
	return &Point{linear: makeLinear(geopb.PointType, srid, pa)}
}

// Coord returns the position of the point, or false if it is empty.
func (p *Point) Coord() (geopb.Point4D, bool) {
	return p.points.StartPoint()
}

// LineString is a sequence of straight segments.
type LineString struct {
	linear
}

// NewLineString returns a line string over pa.
func NewLineString(srid geopb.SRID, pa *ptarray.PointArray) *LineString {
	return &LineString{linear: makeLinear(geopb.LineStringType, srid, pa)}
}

// NewLineStringEmpty returns an empty line string.
func NewLineStringEmpty(srid geopb.SRID, hasZ, hasM bool) *LineString {
	return &LineString{linear: makeEmptyLinear(geopb.LineStringType, srid, hasZ, hasM)}
}

// CircularString is a sequence of circular arcs, each defined by three
// consecutive points sharing end points with its neighbors.
type CircularString struct {
	linear
}

// NewCircularString returns a circular string over pa.
func NewCircularString(srid geopb.SRID, pa *ptarray.PointArray) *CircularString {
	return &CircularString{linear: makeLinear(geopb.CircularStringType, srid, pa)}
}

// NewCircularStringEmpty returns an empty circular string.
func NewCircularStringEmpty(srid geopb.SRID, hasZ, hasM bool) *CircularString {
	return &CircularString{linear: makeEmptyLinear(geopb.CircularStringType, srid, hasZ, hasM)}
}

// Triangle is a polygon whose single ring has four points, the last
// repeating the first.
type Triangle struct {
	linear
}

// NewTriangle returns a triangle over pa.
func NewTriangle(srid geopb.SRID, pa *ptarray.PointArray) *Triangle {
	return &Triangle{linear: makeLinear(geopb.TriangleType, srid, pa)}
}

// NewTriangleEmpty returns an empty triangle.
func NewTriangleEmpty(srid geopb.SRID, hasZ, hasM bool) *Triangle {
	return &Triangle{linear: makeEmptyLinear(geopb.TriangleType, srid, hasZ, hasM)}
}

// Polygon is a shell ring followed by hole rings.
type Polygon struct {
	base
	rings []*ptarray.PointArray
}

// NewPolygon returns a polygon with the given rings, which must all have
// the requested dimensions.
func NewPolygon(
	srid geopb.SRID, hasZ, hasM bool, rings ...*ptarray.PointArray,
) (*Polygon, error) {
	p := NewPolygonEmpty(srid, hasZ, hasM)
	for _, r := range rings {
		if err := p.AddRing(r); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// NewPolygonEmpty returns a polygon without rings.
func NewPolygonEmpty(srid geopb.SRID, hasZ, hasM bool) *Polygon {
	return &Polygon{base: makeBase(geopb.PolygonType, srid, hasZ, hasM)}
}

// AddRing appends a ring. A failed addition leaves the polygon unchanged.
func (p *Polygon) AddRing(pa *ptarray.PointArray) error {
	if err := checkDims(p.typ, p.HasZ(), p.HasM(), pa); err != nil {
		return err
	}
	p.rings = append(p.rings, pa)
	p.invalidateBBox()
	return nil
}

// NumRings returns the number of rings.
func (p *Polygon) NumRings() int { return len(p.rings) }

// Ring returns ring i. Ring 0 is the shell.
func (p *Polygon) Ring(i int) *ptarray.PointArray { return p.rings[i] }

// Rings returns every ring. The slice must not be modified.
func (p *Polygon) Rings() []*ptarray.PointArray { return p.rings }
