// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package wkt reads and writes well-known text. The reader accepts the
// ISO, SFSQL and extended (SRID=n; prefix, POINTM) forms and applies the
// same validity checks as the WKB reader.
package wkt

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/lwgeom"
	"github.com/cockroachdb/lwgeom/pkg/geo/ptarray"
	"github.com/cockroachdb/lwgeom/pkg/geo/wkb"
)

// DefaultMaxDepth bounds geometry collection nesting.
const DefaultMaxDepth = wkb.DefaultMaxDepth

const (
	problemMorePoints     = "geometry requires more points"
	problemOddPoints      = "geometry must have an odd number of points"
	problemUnclosed       = "geometry contains non-closed rings"
	problemMixDims        = "can not mix dimensionality in a geometry"
	problemInvalid        = "parse error - invalid geometry"
	problemIncontinuous   = "incontinuous compound curve"
	problemTrianglePoints = "triangle must have exactly 4 points"
	problemTooManyPoints  = "geometry has too many points"
)

type options struct {
	check    wkb.Check
	maxDepth int
}

// Option configures Unmarshal.
type Option func(*options)

// WithCheck selects the validity checks. The default is wkb.CheckAll.
func WithCheck(check wkb.Check) Option {
	return func(o *options) { o.check = check }
}

// WithMaxDepth sets how deeply geometry collections may nest.
func WithMaxDepth(depth int) Option {
	return func(o *options) { o.maxDepth = depth }
}

// Unmarshal parses text into a geometry. Lexical and syntax errors are
// marked geoerr.MalformedInput, failed checks geoerr.InvalidGeometry and
// inconsistent dimensions geoerr.TypeMismatch. Errors unwrap to a
// *LexError or *ParseError locating the problem.
func Unmarshal(ctx context.Context, text string, opts ...Option) (lwgeom.Geometry, error) {
	o := options{check: wkb.CheckAll, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	p := &parser{ctx: ctx, lex: makeWktLex(text), check: o.check, maxDepth: o.maxDepth}
	srid, err := p.srid()
	if err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	g, err := p.geometry(0)
	if err != nil {
		return nil, err
	}
	if p.tok.kind != eof {
		return nil, p.syntaxError("end of input")
	}
	if srid = lwgeom.ClampSRID(ctx, srid); srid != geopb.SRIDUnknown && srid < geopb.SRIDMaximum {
		lwgeom.SetSRID(g, srid)
	}
	return g, nil
}

type parser struct {
	ctx      context.Context
	lex      *wktLex
	tok      token
	check    wkb.Check
	maxDepth int
}

// srid consumes an optional SRID=n; prefix.
func (p *parser) srid() (geopb.SRID, error) {
	const prefix = "SRID="
	line := p.lex.line
	if len(line) < len(prefix) || !strings.EqualFold(line[:len(prefix)], prefix) {
		return geopb.SRIDUnknown, nil
	}
	end := strings.IndexByte(line, ';')
	if end < 0 {
		p.lex.lastPos = len(line)
		return 0, errors.Mark(p.lex.lexError(`";" after SRID`), geoerr.MalformedInput)
	}
	n, err := strconv.ParseInt(line[len(prefix):end], 10, 32)
	if err != nil {
		p.lex.lastPos = len(prefix)
		return 0, errors.Mark(p.lex.lexError("SRID"), geoerr.MalformedInput)
	}
	p.lex.pos = end + 1
	return geopb.SRID(n), nil
}

func (p *parser) advance() error {
	tok, err := p.lex.Lex()
	if err != nil {
		return errors.Mark(err, geoerr.MalformedInput)
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(k tokenKind) error {
	if p.tok.kind != k {
		return p.syntaxError(k.String())
	}
	return p.advance()
}

func (p *parser) syntaxError(expected string) error {
	return errors.Mark(&ParseError{
		problem: fmt.Sprintf("syntax error: unexpected %s", p.tok.kind),
		pos:     p.tok.pos,
		str:     p.lex.line,
		hint:    fmt.Sprintf("expected %s", expected),
	}, geoerr.MalformedInput)
}

// fail reports a geometry the input describes but which cannot be built.
func (p *parser) fail(pos int, problem string) error {
	pe := &ParseError{problem: problem, pos: pos, str: p.lex.line}
	var err error = pe
	switch problem {
	case problemMixDims:
		pe.hint = "the Z and M qualifiers must match the number of ordinates"
		err = errors.Mark(err, geoerr.TypeMismatch)
	case problemInvalid:
		err = errors.Mark(err, geoerr.TypeMismatch)
	default:
		err = errors.Mark(err, geoerr.InvalidGeometry)
	}
	return errors.Mark(err, geoerr.MalformedInput)
}

// ordinates parses the two to four numbers of one coordinate.
func (p *parser) ordinates(flat []float64) ([]float64, int, error) {
	n := 0
	for p.tok.kind == num {
		if n == 4 {
			return nil, 0, p.syntaxError(`"," or ")"`)
		}
		flat = append(flat, p.tok.num)
		n++
		if err := p.advance(); err != nil {
			return nil, 0, err
		}
	}
	if n < 2 {
		return nil, 0, p.syntaxError("number")
	}
	return flat, n, nil
}

// pointArray parses comma separated coordinates. The first coordinate
// decides the dimensions: three ordinates are XYZ and four XYZM.
func (p *parser) pointArray() (*ptarray.PointArray, error) {
	flat, ndims, err := p.ordinates(nil)
	if err != nil {
		return nil, err
	}
	for p.tok.kind == comma {
		if err := p.advance(); err != nil {
			return nil, err
		}
		pos := p.tok.pos
		var n int
		if flat, n, err = p.ordinates(flat); err != nil {
			return nil, err
		}
		if n != ndims {
			return nil, p.fail(pos, problemMixDims)
		}
	}
	return ptarray.NewFlat(ndims > 2, ndims > 3, flat)
}

// parenPointArray parses "(" coordinates ")".
func (p *parser) parenPointArray() (*ptarray.PointArray, error) {
	if err := p.expect(lparen); err != nil {
		return nil, err
	}
	pa, err := p.pointArray()
	if err != nil {
		return nil, err
	}
	return pa, p.expect(rparen)
}

// applyDims relabels pa with the qualifier's dimensions. A qualifier
// naming more than XY must match the ordinates written; XYM coordinates
// keep their third ordinate as M.
func (p *parser) applyDims(pa *ptarray.PointArray, d dims, pos int) error {
	if d.ndims() <= 2 {
		return nil
	}
	if pa.NDims() != d.ndims() || pa.SetZM(d.z, d.m) != nil {
		return p.fail(pos, problemMixDims)
	}
	return nil
}

// consumeEmpty reports whether the next token is EMPTY, consuming it.
func (p *parser) consumeEmpty() (bool, error) {
	if p.tok.kind != empty {
		return false, nil
	}
	return true, p.advance()
}

func (p *parser) geometry(depth int) (lwgeom.Geometry, error) {
	if p.tok.kind != keyword {
		return nil, p.syntaxError("geometry type")
	}
	tok := p.tok
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.body(tok, depth)
}

// body parses what follows the keyword of tok.
func (p *parser) body(tok token, depth int) (lwgeom.Geometry, error) {
	d := tok.dims
	switch tok.typ {
	case geopb.PointType:
		return p.point(d)
	case geopb.LineStringType:
		return p.lineString(d)
	case geopb.CircularStringType:
		return p.circularString(d)
	case geopb.TriangleType:
		return p.triangle(d)
	case geopb.PolygonType:
		return p.polygon(d, false /* zClosure */)
	case geopb.MultiPointType:
		return p.collection(tok, p.multiPointMember)
	case geopb.MultiLineStringType:
		return p.collection(tok, func() (lwgeom.Geometry, error) {
			return p.lineString(dims{})
		})
	case geopb.MultiPolygonType:
		return p.collection(tok, func() (lwgeom.Geometry, error) {
			return p.polygon(dims{}, false /* zClosure */)
		})
	case geopb.PolyhedralSurfaceType:
		return p.collection(tok, func() (lwgeom.Geometry, error) {
			return p.polygon(dims{}, true /* zClosure */)
		})
	case geopb.TINType:
		return p.collection(tok, func() (lwgeom.Geometry, error) {
			return p.triangle(dims{})
		})
	case geopb.CompoundCurveType:
		return p.collection(tok, func() (lwgeom.Geometry, error) {
			return p.member(depth, p.untaggedLineString,
				geopb.CircularStringType, geopb.LineStringType)
		})
	case geopb.MultiCurveType:
		return p.collection(tok, func() (lwgeom.Geometry, error) {
			return p.member(depth, p.untaggedLineString,
				geopb.CircularStringType, geopb.CompoundCurveType, geopb.LineStringType)
		})
	case geopb.CurvePolygonType:
		return p.collection(tok, p.curveRing(depth))
	case geopb.MultiSurfaceType:
		return p.collection(tok, func() (lwgeom.Geometry, error) {
			return p.member(depth, p.untaggedPolygon,
				geopb.PolygonType, geopb.CurvePolygonType)
		})
	case geopb.GeometryCollectionType:
		if depth >= p.maxDepth {
			return nil, geoerr.NewMalformedInputf("geometry collections nest deeper than %d", p.maxDepth)
		}
		return p.collection(tok, func() (lwgeom.Geometry, error) {
			if err := p.ctx.Err(); err != nil {
				return nil, err
			}
			return p.geometry(depth + 1)
		})
	}
	return nil, errors.AssertionFailedf("unhandled keyword %s", tok.typ)
}

// member parses a collection member that is either tagged with one of
// types or written without a keyword.
func (p *parser) member(
	depth int, untagged func() (lwgeom.Geometry, error), types ...geopb.Type,
) (lwgeom.Geometry, error) {
	if p.tok.kind != keyword {
		return untagged()
	}
	for _, t := range types {
		if p.tok.typ == t {
			tok := p.tok
			if err := p.advance(); err != nil {
				return nil, err
			}
			return p.body(tok, depth)
		}
	}
	return nil, p.fail(p.tok.pos, problemInvalid)
}

func (p *parser) untaggedLineString() (lwgeom.Geometry, error) { return p.lineString(dims{}) }

func (p *parser) untaggedPolygon() (lwgeom.Geometry, error) {
	return p.polygon(dims{}, false /* zClosure */)
}

func (p *parser) point(d dims) (lwgeom.Geometry, error) {
	if isEmpty, err := p.consumeEmpty(); err != nil {
		return nil, err
	} else if isEmpty {
		return lwgeom.NewPointEmpty(geopb.SRIDUnknown, d.z, d.m), nil
	}
	pos := p.tok.pos
	pa, err := p.parenPointArray()
	if err != nil {
		return nil, err
	}
	return p.newPoint(pa, d, pos)
}

func (p *parser) newPoint(pa *ptarray.PointArray, d dims, pos int) (lwgeom.Geometry, error) {
	if err := p.applyDims(pa, d, pos); err != nil {
		return nil, err
	}
	if pa.NPoints() != 1 {
		return nil, p.fail(pos, problemTooManyPoints)
	}
	pt, err := lwgeom.NewPoint(geopb.SRIDUnknown, pa)
	if err != nil {
		return nil, err
	}
	return pt, nil
}

// multiPointMember parses a bare coordinate, a parenthesized coordinate
// or EMPTY.
func (p *parser) multiPointMember() (lwgeom.Geometry, error) {
	pos := p.tok.pos
	switch p.tok.kind {
	case empty, lparen:
		return p.point(dims{})
	}
	flat, n, err := p.ordinates(nil)
	if err != nil {
		return nil, err
	}
	pa, err := ptarray.NewFlat(n > 2, n > 3, flat)
	if err != nil {
		return nil, err
	}
	return p.newPoint(pa, dims{}, pos)
}

func (p *parser) lineString(d dims) (lwgeom.Geometry, error) {
	if isEmpty, err := p.consumeEmpty(); err != nil {
		return nil, err
	} else if isEmpty {
		return lwgeom.NewLineStringEmpty(geopb.SRIDUnknown, d.z, d.m), nil
	}
	pos := p.tok.pos
	pa, err := p.parenPointArray()
	if err != nil {
		return nil, err
	}
	if err := p.applyDims(pa, d, pos); err != nil {
		return nil, err
	}
	if p.check&wkb.CheckMinPoints != 0 && pa.NPoints() < 2 {
		return nil, p.fail(pos, problemMorePoints)
	}
	return lwgeom.NewLineString(geopb.SRIDUnknown, pa), nil
}

func (p *parser) circularString(d dims) (lwgeom.Geometry, error) {
	if isEmpty, err := p.consumeEmpty(); err != nil {
		return nil, err
	} else if isEmpty {
		return lwgeom.NewCircularStringEmpty(geopb.SRIDUnknown, d.z, d.m), nil
	}
	pos := p.tok.pos
	pa, err := p.parenPointArray()
	if err != nil {
		return nil, err
	}
	if err := p.applyDims(pa, d, pos); err != nil {
		return nil, err
	}
	if p.check&wkb.CheckMinPoints != 0 && pa.NPoints() < 3 {
		return nil, p.fail(pos, problemMorePoints)
	}
	if p.check&wkb.CheckOdd != 0 && pa.NPoints()%2 == 0 {
		return nil, p.fail(pos, problemOddPoints)
	}
	return lwgeom.NewCircularString(geopb.SRIDUnknown, pa), nil
}

// triangle parses "((" coordinates "))". A triangle always has four
// points and is closed, whatever checks were requested.
func (p *parser) triangle(d dims) (lwgeom.Geometry, error) {
	if isEmpty, err := p.consumeEmpty(); err != nil {
		return nil, err
	} else if isEmpty {
		return lwgeom.NewTriangleEmpty(geopb.SRIDUnknown, d.z, d.m), nil
	}
	pos := p.tok.pos
	if err := p.expect(lparen); err != nil {
		return nil, err
	}
	pa, err := p.parenPointArray()
	if err != nil {
		return nil, err
	}
	if err := p.expect(rparen); err != nil {
		return nil, err
	}
	if err := p.applyDims(pa, d, pos); err != nil {
		return nil, err
	}
	if pa.NPoints() != 4 {
		return nil, p.fail(pos, problemTrianglePoints)
	}
	if !pa.IsClosed() {
		return nil, p.fail(pos, problemUnclosed)
	}
	return lwgeom.NewTriangle(geopb.SRIDUnknown, pa), nil
}

// polygon parses a ring list. Polyhedral surface patches set zClosure so
// that rings must also close in Z.
func (p *parser) polygon(d dims, zClosure bool) (lwgeom.Geometry, error) {
	if isEmpty, err := p.consumeEmpty(); err != nil {
		return nil, err
	} else if isEmpty {
		return lwgeom.NewPolygonEmpty(geopb.SRIDUnknown, d.z, d.m), nil
	}
	var rings []*ptarray.PointArray
	if err := p.list(func() error {
		pos := p.tok.pos
		pa, err := p.parenPointArray()
		if err != nil {
			return err
		}
		if len(rings) > 0 && pa.NDims() != rings[0].NDims() {
			return p.fail(pos, problemMixDims)
		}
		if err := p.applyDims(pa, d, pos); err != nil {
			return err
		}
		if p.check&wkb.CheckMinPoints != 0 && pa.NPoints() < 4 {
			return p.fail(pos, problemMorePoints)
		}
		if p.check&wkb.CheckClosure != 0 {
			closed := pa.IsClosed2D()
			if zClosure {
				closed = pa.IsClosedZ()
			}
			if !closed {
				return p.fail(pos, problemUnclosed)
			}
		}
		rings = append(rings, pa)
		return nil
	}); err != nil {
		return nil, err
	}
	poly, err := lwgeom.NewPolygon(geopb.SRIDUnknown, rings[0].HasZ(), rings[0].HasM(), rings...)
	if err != nil {
		return nil, err
	}
	return poly, nil
}

// curveRing returns the member parser for curve polygons, whose rings are
// closed lines, circular strings or compound curves.
func (p *parser) curveRing(depth int) func() (lwgeom.Geometry, error) {
	return func() (lwgeom.Geometry, error) {
		pos := p.tok.pos
		ring, err := p.member(depth, p.untaggedLineString,
			geopb.LineStringType, geopb.CircularStringType, geopb.CompoundCurveType)
		if err != nil {
			return nil, err
		}
		if p.check&wkb.CheckMinPoints != 0 {
			minPoints := 3
			if ring.Type() == geopb.LineStringType {
				minPoints = 4
			}
			if lwgeom.CountVertices(ring) < minPoints {
				return nil, p.fail(pos, problemMorePoints)
			}
		}
		if p.check&wkb.CheckClosure != 0 && !lwgeom.IsClosed(ring) {
			return nil, p.fail(pos, problemUnclosed)
		}
		return ring, nil
	}
}

// list parses "(" item {"," item} ")".
func (p *parser) list(item func() error) error {
	if err := p.expect(lparen); err != nil {
		return err
	}
	for {
		if err := item(); err != nil {
			return err
		}
		if p.tok.kind != comma {
			break
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
	return p.expect(rparen)
}

// collection parses the member list of the collection kind named by tok
// and gives every member the collection's dimensions. A qualifier decides
// them; otherwise the first non-empty member does.
func (p *parser) collection(
	tok token, item func() (lwgeom.Geometry, error),
) (lwgeom.Geometry, error) {
	d := tok.dims
	if isEmpty, err := p.consumeEmpty(); err != nil {
		return nil, err
	} else if isEmpty {
		c, err := p.newCollection(tok.typ, d.z, d.m)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	var members []lwgeom.Geometry
	var positions []int
	if err := p.list(func() error {
		positions = append(positions, p.tok.pos)
		g, err := item()
		if err != nil {
			return err
		}
		members = append(members, g)
		return nil
	}); err != nil {
		return nil, err
	}

	hasZ, hasM := d.z, d.m
	exact := true
	if d.ndims() > 2 {
		// Members written with ordinates but no qualifier are relabeled,
		// except inside a geometry collection.
		exact = tok.typ == geopb.GeometryCollectionType
	} else {
		hasZ, hasM = members[0].HasZ(), members[0].HasM()
		for _, g := range members {
			if !lwgeom.IsEmpty(g) {
				hasZ, hasM = g.HasZ(), g.HasM()
				break
			}
		}
	}
	ndims := geopb.MakeFlags(hasZ, hasM, false).NDims()
	for i, g := range members {
		if lwgeom.IsEmpty(g) {
			continue
		}
		if g.Flags().NDims() != ndims || (exact && (g.HasZ() != hasZ || g.HasM() != hasM)) {
			return nil, p.fail(positions[i], problemMixDims)
		}
	}

	c, err := p.newCollection(tok.typ, hasZ, hasM)
	if err != nil {
		return nil, err
	}
	for i, g := range members {
		if err := lwgeom.RelabelDims(g, hasZ, hasM); err != nil {
			return nil, p.fail(positions[i], problemMixDims)
		}
		if tok.typ == geopb.CompoundCurveType {
			if err := c.AddContinuous(g); err != nil {
				return nil, p.fail(positions[i], problemIncontinuous)
			}
			continue
		}
		if err := c.Add(g); err != nil {
			return nil, p.fail(positions[i], problemInvalid)
		}
	}
	return c, nil
}

func (p *parser) newCollection(typ geopb.Type, hasZ, hasM bool) (*lwgeom.Collection, error) {
	return lwgeom.NewCollection(typ, geopb.SRIDUnknown, hasZ, hasM)
}
