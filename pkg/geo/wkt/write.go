// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package wkt

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/lwgeom"
	"github.com/cockroachdb/lwgeom/pkg/geo/ptarray"
)

// Variant selects the text dialect Marshal writes.
type Variant uint8

// Variants. ISO writes "POINT Z (1 2 3)", SFSQL writes only X and Y with no
// qualifier, and Extended writes "SRID=4326;POINTM(1 2 3)".
const (
	ISO      Variant = 0x01
	SFSQL    Variant = 0x02
	Extended Variant = 0x04

	noType   Variant = 0x08
	noParens Variant = 0x10
)

// DefaultPrecision is the number of significant digits written per
// ordinate.
const DefaultPrecision = 15

// Marshal writes g as text with up to precision significant digits per
// ordinate. A negative precision writes the shortest text that reads back
// to the same value.
func Marshal(g lwgeom.Geometry, v Variant, precision int) (string, error) {
	var sb strings.Builder
	if v&Extended != 0 && g.SRID() != geopb.SRIDUnknown {
		sb.WriteString("SRID=")
		sb.WriteString(strconv.Itoa(int(g.SRID())))
		sb.WriteByte(';')
	}
	w := writer{sb: &sb, precision: precision}
	if err := w.geometry(g, v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// writer implements lwgeom.Visitor. Each value carries the variant of the
// geometry it is writing; members are written by copies.
type writer struct {
	sb        *strings.Builder
	precision int
	variant   Variant
}

var _ lwgeom.Visitor = writer{}

func (w writer) geometry(g lwgeom.Geometry, v Variant) error {
	w.variant = v
	return lwgeom.Walk(g, w)
}

// typeName writes the keyword and the dimension qualifier, unless the
// enclosing collection implies the type.
func (w writer) typeName(g lwgeom.Geometry) {
	if w.variant&noType != 0 {
		return
	}
	w.sb.WriteString(g.Type().String())
	switch {
	case w.variant&Extended != 0 && g.HasM() && !g.HasZ():
		w.sb.WriteByte('M')
	case w.variant&ISO != 0 && (g.HasZ() || g.HasM()):
		w.sb.WriteByte(' ')
		if g.HasZ() {
			w.sb.WriteByte('Z')
		}
		if g.HasM() {
			w.sb.WriteByte('M')
		}
		w.sb.WriteByte(' ')
	}
}

func (w writer) empty() {
	if s := w.sb.String(); len(s) > 0 && !strings.ContainsRune(" ,(", rune(s[len(s)-1])) {
		w.sb.WriteByte(' ')
	}
	w.sb.WriteString("EMPTY")
}

func (w writer) points(pa *ptarray.PointArray) {
	ndims := 2
	if w.variant&(ISO|Extended) != 0 {
		ndims = pa.NDims()
	}
	if w.variant&noParens == 0 {
		w.sb.WriteByte('(')
	}
	var buf []byte
	for i := 0; i < pa.NPoints(); i++ {
		if i > 0 {
			w.sb.WriteByte(',')
		}
		for d := 0; d < ndims; d++ {
			if d > 0 {
				w.sb.WriteByte(' ')
			}
			buf = strconv.AppendFloat(buf[:0], pa.Ordinate(i, d), 'g', w.precision, 64)
			w.sb.Write(buf)
		}
	}
	if w.variant&noParens == 0 {
		w.sb.WriteByte(')')
	}
}

func (w writer) linear(g lwgeom.Geometry, pa *ptarray.PointArray) error {
	w.typeName(g)
	if pa.IsEmpty() {
		w.empty()
		return nil
	}
	w.points(pa)
	return nil
}

// VisitPoint implements lwgeom.Visitor.
func (w writer) VisitPoint(g *lwgeom.Point) error { return w.linear(g, g.Points()) }

// VisitLineString implements lwgeom.Visitor.
func (w writer) VisitLineString(g *lwgeom.LineString) error { return w.linear(g, g.Points()) }

// VisitCircularString implements lwgeom.Visitor.
func (w writer) VisitCircularString(g *lwgeom.CircularString) error {
	return w.linear(g, g.Points())
}

// VisitTriangle implements lwgeom.Visitor.
func (w writer) VisitTriangle(g *lwgeom.Triangle) error {
	w.typeName(g)
	if g.Points().IsEmpty() {
		w.empty()
		return nil
	}
	w.sb.WriteByte('(')
	w.points(g.Points())
	w.sb.WriteByte(')')
	return nil
}

// VisitPolygon implements lwgeom.Visitor.
func (w writer) VisitPolygon(g *lwgeom.Polygon) error {
	w.typeName(g)
	if lwgeom.IsEmpty(g) {
		w.empty()
		return nil
	}
	w.sb.WriteByte('(')
	for i, ring := range g.Rings() {
		if i > 0 {
			w.sb.WriteByte(',')
		}
		w.points(ring)
	}
	w.sb.WriteByte(')')
	return nil
}

// memberVariant returns how a member of c is written: bare coordinates
// in a multipoint, without a keyword where the collection implies the
// type, and in full otherwise.
func (w writer) memberVariant(c *lwgeom.Collection, m lwgeom.Geometry) (Variant, error) {
	v := w.variant &^ (noType | noParens)
	if !geopb.AllowsSubtype(c.Type(), m.Type()) {
		return 0, errors.AssertionFailedf("%s cannot contain %s", c.Type(), m.Type())
	}
	switch c.Type() {
	case geopb.MultiPointType:
		return v | noType | noParens, nil
	case geopb.MultiLineStringType, geopb.MultiPolygonType,
		geopb.TINType, geopb.PolyhedralSurfaceType:
		return v | noType, nil
	case geopb.CompoundCurveType, geopb.CurvePolygonType, geopb.MultiCurveType:
		if m.Type() == geopb.LineStringType {
			return v | noType, nil
		}
	case geopb.MultiSurfaceType:
		if m.Type() == geopb.PolygonType {
			return v | noType, nil
		}
	}
	return v, nil
}

// VisitCollection implements lwgeom.Visitor.
func (w writer) VisitCollection(c *lwgeom.Collection) error {
	w.typeName(c)
	if c.NumGeoms() == 0 {
		w.empty()
		return nil
	}
	w.sb.WriteByte('(')
	for i, m := range c.Geoms() {
		if i > 0 {
			w.sb.WriteByte(',')
		}
		v, err := w.memberVariant(c, m)
		if err != nil {
			return err
		}
		if err := w.geometry(m, v); err != nil {
			return err
		}
	}
	w.sb.WriteByte(')')
	return nil
}
