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

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
)

// FPTolerance is the tolerance used by the FP comparison helpers.
const FPTolerance = 1e-12

// FPEquals returns whether a and b are within FPTolerance of each other.
func FPEquals(a, b float64) bool { return math.Abs(a-b) <= FPTolerance }

// FPIsZero returns whether a is within FPTolerance of zero.
func FPIsZero(a float64) bool { return math.Abs(a) <= FPTolerance }

// FPGT returns whether a is greater than b by more than FPTolerance.
func FPGT(a, b float64) bool { return a-FPTolerance > b }

// FPLT returns whether a is less than b by more than FPTolerance.
func FPLT(a, b float64) bool { return a+FPTolerance < b }

// GBox is an axis-aligned bounding box. For geodetic boxes X, Y and Z are
// the extents on the unit sphere in geocentric coordinates and M is unused.
// The Flags decide which of the Z and M extents are meaningful.
type GBox struct {
	Flags      Flags
	XMin, XMax float64
	YMin, YMax float64
	ZMin, ZMax float64
	MMin, MMax float64
}

// NewGBox returns a properly initialized bounding box that is empty for
// every dimension, so that the first ExpandPoint sets all extents.
func NewGBox(flags Flags) *GBox {
	return &GBox{
		Flags: flags,
		XMin:  math.MaxFloat64, XMax: -math.MaxFloat64,
		YMin: math.MaxFloat64, YMax: -math.MaxFloat64,
		ZMin: math.MaxFloat64, ZMax: -math.MaxFloat64,
		MMin: math.MaxFloat64, MMax: -math.MaxFloat64,
	}
}

// NewGBoxFromPoint returns the degenerate box holding only p.
func NewGBoxFromPoint(flags Flags, p Point4D) *GBox {
	return &GBox{
		Flags: flags,
		XMin:  p.X, XMax: p.X,
		YMin: p.Y, YMax: p.Y,
		ZMin: p.Z, ZMax: p.Z,
		MMin: p.M, MMax: p.M,
	}
}

func (b *GBox) hasZExtent() bool {
	return b.Flags.HasZ() || b.Flags.IsGeodetic()
}

// ExpandPoint updates the box so that it holds p.
func (b *GBox) ExpandPoint(p Point4D) {
	b.XMin = math.Min(b.XMin, p.X)
	b.XMax = math.Max(b.XMax, p.X)
	b.YMin = math.Min(b.YMin, p.Y)
	b.YMax = math.Max(b.YMax, p.Y)
	if b.hasZExtent() {
		b.ZMin = math.Min(b.ZMin, p.Z)
		b.ZMax = math.Max(b.ZMax, p.Z)
	}
	if b.Flags.HasM() {
		b.MMin = math.Min(b.MMin, p.M)
		b.MMax = math.Max(b.MMax, p.M)
	}
}

// Clone returns a copy of b.
func (b *GBox) Clone() *GBox {
	if b == nil {
		return nil
	}
	ret := *b
	return &ret
}

// Union returns the smallest box holding both a and b. When one of them is
// nil the other is returned. The result takes its flags from a.
func Union(a, b *GBox) *GBox {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return &GBox{
		Flags: a.Flags,
		XMin:  math.Min(a.XMin, b.XMin), XMax: math.Max(a.XMax, b.XMax),
		YMin: math.Min(a.YMin, b.YMin), YMax: math.Max(a.YMax, b.YMax),
		ZMin: math.Min(a.ZMin, b.ZMin), ZMax: math.Max(a.ZMax, b.ZMax),
		MMin: math.Min(a.MMin, b.MMin), MMax: math.Max(a.MMax, b.MMax),
	}
}

// Merge grows b so that it holds other. Both boxes must carry the same
// dimensions.
func (b *GBox) Merge(other *GBox) error {
	if b.Flags.ZM() != other.Flags.ZM() {
		return geoerr.NewTypeMismatchf("cannot merge boxes of different dimensionality")
	}
	b.XMin = math.Min(b.XMin, other.XMin)
	b.XMax = math.Max(b.XMax, other.XMax)
	b.YMin = math.Min(b.YMin, other.YMin)
	b.YMax = math.Max(b.YMax, other.YMax)
	if b.hasZExtent() {
		b.ZMin = math.Min(b.ZMin, other.ZMin)
		b.ZMax = math.Max(b.ZMax, other.ZMax)
	}
	if b.Flags.HasM() {
		b.MMin = math.Min(b.MMin, other.MMin)
		b.MMax = math.Max(b.MMax, other.MMax)
	}
	return nil
}

// Overlaps returns whether b and other intersect. Z is compared for
// geodetic boxes and for cartesian boxes that both have Z; M is compared
// when both have M. Mixing geodetic and cartesian boxes is an error.
func (b *GBox) Overlaps(other *GBox) (bool, error) {
	if b.Flags.IsGeodetic() != other.Flags.IsGeodetic() {
		return false, geoerr.NewTypeMismatchf("cannot compare geodetic and cartesian boxes")
	}
	if !b.Overlaps2D(other) {
		return false, nil
	}
	if b.Flags.IsGeodetic() {
		return b.ZMax >= other.ZMin && b.ZMin <= other.ZMax, nil
	}
	if b.Flags.HasZ() && other.Flags.HasZ() {
		if b.ZMax < other.ZMin || b.ZMin > other.ZMax {
			return false, nil
		}
	}
	if b.Flags.HasM() && other.Flags.HasM() {
		if b.MMax < other.MMin || b.MMin > other.MMax {
			return false, nil
		}
	}
	return true, nil
}

// Overlaps2D returns whether the X and Y extents of b and other intersect.
func (b *GBox) Overlaps2D(other *GBox) bool {
	return !(b.XMax < other.XMin || b.YMax < other.YMin ||
		b.XMin > other.XMax || b.YMin > other.YMax)
}

// Contains returns whether other lies within b. Z is compared for geodetic
// boxes and for cartesian boxes that both have Z; M is compared when both
// have M. Mixing geodetic and cartesian boxes is an error.
func (b *GBox) Contains(other *GBox) (bool, error) {
	if b.Flags.IsGeodetic() != other.Flags.IsGeodetic() {
		return false, geoerr.NewTypeMismatchf("cannot compare geodetic and cartesian boxes")
	}
	if !b.Contains2D(other) {
		return false, nil
	}
	if b.Flags.IsGeodetic() {
		return !(other.ZMin < b.ZMin || other.ZMax > b.ZMax), nil
	}
	if b.Flags.HasZ() && other.Flags.HasZ() {
		if other.ZMin < b.ZMin || other.ZMax > b.ZMax {
			return false, nil
		}
	}
	if b.Flags.HasM() && other.Flags.HasM() {
		if other.MMin < b.MMin || other.MMax > b.MMax {
			return false, nil
		}
	}
	return true, nil
}

// ContainsPoint returns whether p lies within b, boundary included. For a
// geodetic box p must be a geocentric point and X, Y and Z are compared.
// Otherwise Z and M are compared when b has them.
func (b *GBox) ContainsPoint(p Point4D) bool {
	if !b.ContainsPoint2D(Point2D{X: p.X, Y: p.Y}) {
		return false
	}
	if b.hasZExtent() && (p.Z < b.ZMin || p.Z > b.ZMax) {
		return false
	}
	if !b.Flags.IsGeodetic() && b.Flags.HasM() && (p.M < b.MMin || p.M > b.MMax) {
		return false
	}
	return true
}

// Contains2D returns whether other lies within b on X and Y.
func (b *GBox) Contains2D(other *GBox) bool {
	return !(other.XMin < b.XMin || other.XMax > b.XMax ||
		other.YMin < b.YMin || other.YMax > b.YMax)
}

// ContainsPoint2D returns whether p lies within b, boundary included.
func (b *GBox) ContainsPoint2D(p Point2D) bool {
	return !(b.XMin > p.X || b.YMin > p.Y || b.XMax < p.X || b.YMax < p.Y)
}

// Same returns whether b and other have the same dimensions and exactly
// equal extents.
func (b *GBox) Same(other *GBox) bool {
	if b.Flags.ZM() != other.Flags.ZM() {
		return false
	}
	if !b.Same2D(other) {
		return false
	}
	if b.Flags.HasZ() && (b.ZMin != other.ZMin || b.ZMax != other.ZMax) {
		return false
	}
	if b.Flags.HasM() && (b.MMin != other.MMin || b.MMax != other.MMax) {
		return false
	}
	return true
}

// Same2D returns whether the X and Y extents are exactly equal.
func (b *GBox) Same2D(other *GBox) bool {
	return b.XMin == other.XMin && b.XMax == other.XMax &&
		b.YMin == other.YMin && b.YMax == other.YMax
}

// IsValid returns whether every active extent is finite.
func (b *GBox) IsValid() bool {
	if !finite(b.XMin, b.XMax, b.YMin, b.YMax) {
		return false
	}
	if b.hasZExtent() && !finite(b.ZMin, b.ZMax) {
		return false
	}
	if b.Flags.HasM() && !finite(b.MMin, b.MMax) {
		return false
	}
	return true
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Expand grows every active extent of b by d in both directions.
func (b *GBox) Expand(d float64) {
	b.XMin -= d
	b.XMax += d
	b.YMin -= d
	b.YMax += d
	if b.hasZExtent() {
		b.ZMin -= d
		b.ZMax += d
	}
	if b.Flags.HasM() {
		b.MMin -= d
		b.MMax += d
	}
}

// FloatRound rounds every active extent outward to the nearest float32,
// the precision of a serialized box.
func (b *GBox) FloatRound() {
	b.XMin = float64(NextFloatDown(b.XMin))
	b.XMax = float64(NextFloatUp(b.XMax))
	b.YMin = float64(NextFloatDown(b.YMin))
	b.YMax = float64(NextFloatUp(b.YMax))
	if b.hasZExtent() {
		b.ZMin = float64(NextFloatDown(b.ZMin))
		b.ZMax = float64(NextFloatUp(b.ZMax))
	}
	if b.Flags.HasM() {
		b.MMin = float64(NextFloatDown(b.MMin))
		b.MMax = float64(NextFloatUp(b.MMax))
	}
}

// String implements fmt.Stringer.
func (b *GBox) String() string {
	switch {
	case b.Flags.IsGeodetic():
		return fmt.Sprintf("GBOX((%.8g,%.8g,%.8g),(%.8g,%.8g,%.8g))",
			b.XMin, b.YMin, b.ZMin, b.XMax, b.YMax, b.ZMax)
	case b.Flags.HasZ() && b.Flags.HasM():
		return fmt.Sprintf("GBOX((%.8g,%.8g,%.8g,%.8g),(%.8g,%.8g,%.8g,%.8g))",
			b.XMin, b.YMin, b.ZMin, b.MMin, b.XMax, b.YMax, b.ZMax, b.MMax)
	case b.Flags.HasZ():
		return fmt.Sprintf("GBOX((%.8g,%.8g,%.8g),(%.8g,%.8g,%.8g))",
			b.XMin, b.YMin, b.ZMin, b.XMax, b.YMax, b.ZMax)
	case b.Flags.HasM():
		return fmt.Sprintf("GBOX((%.8g,%.8g,%.8g),(%.8g,%.8g,%.8g))",
			b.XMin, b.YMin, b.MMin, b.XMax, b.YMax, b.MMax)
	}
	return fmt.Sprintf("GBOX((%.8g,%.8g),(%.8g,%.8g))", b.XMin, b.YMin, b.XMax, b.YMax)
}

// NDims returns the number of extents stored for the box when serialized.
// Geodetic boxes always store X, Y and Z.
func (b *GBox) NDims() int {
	if b.Flags.IsGeodetic() {
		return 3
	}
	return b.Flags.NDims()
}

// SerializedGBoxSize returns the number of bytes a box with the given flags
// occupies in the serialized form.
func SerializedGBoxSize(flags Flags) int {
	if flags.IsGeodetic() {
		return 6 * 4
	}
	return 2 * flags.NDims() * 4
}

// NextFloatDown returns the largest float32 that is not greater than d.
func NextFloatDown(d float64) float32 {
	f := float32(d)
	if float64(f) <= d {
		return f
	}
	return math.Nextafter32(f, float32(math.Inf(-1)))
}

// NextFloatUp returns the smallest float32 that is not less than d.
func NextFloatUp(d float64) float32 {
	f := float32(d)
	if float64(f) >= d {
		return f
	}
	return math.Nextafter32(f, float32(math.Inf(1)))
}

// ErrEmptyBox is returned when a box is requested for a geometry without
// coordinates.
var ErrEmptyBox = errors.New("geometry is empty and has no bounding box")
