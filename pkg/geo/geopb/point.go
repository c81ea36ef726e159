// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package geopb

import "github.com/cockroachdb/errors"

// Point2D is a planar coordinate.
type Point2D struct {
	X, Y float64
}

// Point4D is a coordinate with all four ordinates. Ordinates a point array
// does not carry read back as zero.
type Point4D struct {
	X, Y, Z, M float64
}

// To2D drops Z and M.
func (p Point4D) To2D() Point2D {
	return Point2D{X: p.X, Y: p.Y}
}

// Ordinate names one of the four ordinates of a point.
type Ordinate uint8

// Ordinates.
const (
	OrdinateX Ordinate = iota
	OrdinateY
	OrdinateZ
	OrdinateM
)

// String implements fmt.Stringer.
func (o Ordinate) String() string {
	switch o {
	case OrdinateX:
		return "x"
	case OrdinateY:
		return "y"
	case OrdinateZ:
		return "z"
	case OrdinateM:
		return "m"
	}
	return "?"
}

// ParseOrdinate maps one of "x", "y", "z", "m" (any case) to an Ordinate.
func ParseOrdinate(s string) (Ordinate, error) {
	if len(s) == 1 {
		switch s[0] {
		case 'x', 'X':
			return OrdinateX, nil
		case 'y', 'Y':
			return OrdinateY, nil
		case 'z', 'Z':
			return OrdinateZ, nil
		case 'm', 'M':
			return OrdinateM, nil
		}
	}
	return 0, errors.Newf("invalid ordinate name %q", s)
}

// Get returns ordinate o of p.
func (p *Point4D) Get(o Ordinate) float64 {
	switch o {
	case OrdinateX:
		return p.X
	case OrdinateY:
		return p.Y
	case OrdinateZ:
		return p.Z
	default:
		return p.M
	}
}

// Set assigns ordinate o of p.
func (p *Point4D) Set(o Ordinate, v float64) {
	switch o {
	case OrdinateX:
		p.X = v
	case OrdinateY:
		p.Y = v
	case OrdinateZ:
		p.Z = v
	default:
		p.M = v
	}
}
