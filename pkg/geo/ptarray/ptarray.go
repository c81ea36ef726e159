// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package ptarray implements the packed coordinate buffer shared by every
// linear geometry.
//
// A PointArray either owns its ordinates, in which case it may grow and be
// mutated, or borrows them from a little-endian byte buffer owned by
// somebody else (typically a serialized geometry). Borrowed arrays, and
// shallow clones of owned arrays, are read-only.
package ptarray

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
)

const initialCapacity = 32

// PointArray is an ordered sequence of points sharing the same dimensions.
type PointArray struct {
	flags   geopb.Flags
	npoints int
	// coords holds npoints*ndims ordinates for owned arrays and read-only
	// aliases of owned arrays.
	coords []float64
	// ref holds the little-endian ordinates of a borrowed array.
	ref []byte
}

// ConstructEmpty returns an owned array without points. capacityHint sizes
// the initial allocation; zero defers it to the first insertion.
func ConstructEmpty(hasZ, hasM bool, capacityHint int) *PointArray {
	flags := geopb.MakeFlags(hasZ, hasM, false)
	pa := &PointArray{flags: flags}
	if capacityHint > 0 {
		pa.coords = make([]float64, 0, capacityHint*flags.NDims())
	}
	return pa
}

// Construct returns an owned array of npoints zero points.
func Construct(hasZ, hasM bool, npoints int) *PointArray {
	flags := geopb.MakeFlags(hasZ, hasM, false)
	return &PointArray{
		flags:   flags,
		npoints: npoints,
		coords:  make([]float64, npoints*flags.NDims()),
	}
}

// ConstructCopy returns an owned array holding a copy of the npoints points
// stored as little-endian doubles in src.
func ConstructCopy(hasZ, hasM bool, npoints int, src []byte) (*PointArray, error) {
	if err := checkByteLen(npoints, geopb.MakeFlags(hasZ, hasM, false).NDims(), src); err != nil {
		return nil, err
	}
	pa := Construct(hasZ, hasM, npoints)
	for i := range pa.coords {
		pa.coords[i] = math.Float64frombits(binary.LittleEndian.Uint64(src[i*8:]))
	}
	return pa, nil
}

// ConstructReference returns a read-only array reading the npoints points
// stored as little-endian doubles in src. src is neither copied nor
// retained beyond the points it holds; the caller keeps ownership and must
// not modify it while the array is in use.
func ConstructReference(hasZ, hasM bool, npoints int, src []byte) (*PointArray, error) {
	flags := geopb.MakeFlags(hasZ, hasM, false)
	if err := checkByteLen(npoints, flags.NDims(), src); err != nil {
		return nil, err
	}
	n := npoints * flags.NDims() * 8
	return &PointArray{
		flags:   flags.WithReadOnly(true),
		npoints: npoints,
		ref:     src[:n:n],
	}, nil
}

func checkByteLen(npoints, ndims int, src []byte) error {
	if npoints < 0 {
		return geoerr.NewMalformedInputf("negative point count %d", npoints)
	}
	if need := npoints * ndims * 8; need > len(src) || need < 0 {
		return geoerr.NewMalformedInputf(
			"point array of %d points needs %d bytes, have %d", npoints, need, len(src))
	}
	return nil
}

// NewFlat returns an owned array over a copy of the flat ordinates.
func NewFlat(hasZ, hasM bool, flat []float64) (*PointArray, error) {
	flags := geopb.MakeFlags(hasZ, hasM, false)
	ndims := flags.NDims()
	if len(flat)%ndims != 0 {
		return nil, errors.Newf("%d ordinates is not a multiple of %d dimensions", len(flat), ndims)
	}
	coords := make([]float64, len(flat))
	copy(coords, flat)
	return &PointArray{flags: flags, npoints: len(flat) / ndims, coords: coords}, nil
}

// MustNewFlat is like NewFlat but panics on misaligned input.
func MustNewFlat(hasZ, hasM bool, flat []float64) *PointArray {
	pa, err := NewFlat(hasZ, hasM, flat)
	if err != nil {
		panic(err)
	}
	return pa
}

// NPoints returns the number of points.
func (pa *PointArray) NPoints() int { return pa.npoints }

// MaxPoints returns the number of points the array can hold before it has
// to grow. Borrowed arrays cannot grow.
func (pa *PointArray) MaxPoints() int {
	if pa.ref != nil {
		return pa.npoints
	}
	return cap(pa.coords) / pa.NDims()
}

// IsEmpty returns whether the array has no points.
func (pa *PointArray) IsEmpty() bool { return pa.npoints == 0 }

// Flags returns the dimension and read-only flags of the array.
func (pa *PointArray) Flags() geopb.Flags { return pa.flags }

// HasZ returns whether points carry a Z ordinate.
func (pa *PointArray) HasZ() bool { return pa.flags.HasZ() }

// HasM returns whether points carry an M ordinate.
func (pa *PointArray) HasM() bool { return pa.flags.HasM() }

// NDims returns the number of ordinates per point.
func (pa *PointArray) NDims() int { return pa.flags.NDims() }

// IsReadOnly returns whether mutators fail on this array.
func (pa *PointArray) IsReadOnly() bool { return pa.flags.IsReadOnly() }

// IsBorrowed returns whether the ordinates live in a caller-owned buffer.
func (pa *PointArray) IsBorrowed() bool { return pa.ref != nil }

// Ordinate returns ordinate dim, counted in storage order, of point i.
func (pa *PointArray) Ordinate(i, dim int) float64 {
	idx := i*pa.NDims() + dim
	if pa.ref != nil {
		return math.Float64frombits(binary.LittleEndian.Uint64(pa.ref[idx*8:]))
	}
	return pa.coords[idx]
}

// Point2D returns the X and Y of point i.
func (pa *PointArray) Point2D(i int) geopb.Point2D {
	return geopb.Point2D{X: pa.Ordinate(i, 0), Y: pa.Ordinate(i, 1)}
}

// Point4D returns point i. Ordinates the array lacks are zero.
func (pa *PointArray) Point4D(i int) geopb.Point4D {
	p := geopb.Point4D{X: pa.Ordinate(i, 0), Y: pa.Ordinate(i, 1)}
	switch pa.flags.ZM() {
	case 1:
		p.Z = pa.Ordinate(i, 2)
	case 2:
		p.M = pa.Ordinate(i, 2)
	case 3:
		p.Z = pa.Ordinate(i, 2)
		p.M = pa.Ordinate(i, 3)
	}
	return p
}

// StartPoint returns the first point, or false if the array is empty.
func (pa *PointArray) StartPoint() (geopb.Point4D, bool) {
	if pa.npoints == 0 {
		return geopb.Point4D{}, false
	}
	return pa.Point4D(0), true
}

// EndPoint returns the last point, or false if the array is empty.
func (pa *PointArray) EndPoint() (geopb.Point4D, bool) {
	if pa.npoints == 0 {
		return geopb.Point4D{}, false
	}
	return pa.Point4D(pa.npoints - 1), true
}

// FlatCoords returns the ordinates of every point in storage order. The
// slice aliases owned storage and must not be modified.
func (pa *PointArray) FlatCoords() []float64 {
	if pa.ref == nil {
		return pa.coords[:pa.npoints*pa.NDims()]
	}
	ret := make([]float64, pa.npoints*pa.NDims())
	for i := range ret {
		ret[i] = math.Float64frombits(binary.LittleEndian.Uint64(pa.ref[i*8:]))
	}
	return ret
}

// ByteLen returns the number of bytes PutBytes writes.
func (pa *PointArray) ByteLen() int { return pa.npoints * pa.NDims() * 8 }

// PutBytes writes the ordinates as little-endian doubles into dst, which
// must hold at least ByteLen bytes, and returns the number of bytes written.
func (pa *PointArray) PutBytes(dst []byte) int {
	n := pa.ByteLen()
	if pa.ref != nil {
		return copy(dst[:n], pa.ref)
	}
	for i, v := range pa.coords[:pa.npoints*pa.NDims()] {
		binary.LittleEndian.PutUint64(dst[i*8:], math.Float64bits(v))
	}
	return n
}

// Bytes returns the ordinates as little-endian doubles. For borrowed arrays
// the returned slice aliases the source buffer.
func (pa *PointArray) Bytes() []byte {
	if pa.ref != nil {
		return pa.ref
	}
	buf := make([]byte, pa.ByteLen())
	pa.PutBytes(buf)
	return buf
}

func (pa *PointArray) checkWritable() error {
	if pa.IsReadOnly() {
		return geoerr.NewReadOnlyf("cannot modify a read-only point array")
	}
	return nil
}

// SetPoint4D overwrites point i with the ordinates of p the array carries.
func (pa *PointArray) SetPoint4D(i int, p geopb.Point4D) error {
	if err := pa.checkWritable(); err != nil {
		return err
	}
	if i < 0 || i >= pa.npoints {
		return errors.Newf("point index %d out of range [0,%d)", i, pa.npoints)
	}
	pa.setPoint(i, p)
	return nil
}

func (pa *PointArray) setPoint(i int, p geopb.Point4D) {
	ndims := pa.NDims()
	c := pa.coords[i*ndims : (i+1)*ndims]
	c[0], c[1] = p.X, p.Y
	switch pa.flags.ZM() {
	case 1:
		c[2] = p.Z
	case 2:
		c[2] = p.M
	case 3:
		c[2], c[3] = p.Z, p.M
	}
}

func (pa *PointArray) grow() {
	ndims := pa.NDims()
	if pa.npoints < cap(pa.coords)/ndims {
		return
	}
	maxPoints := cap(pa.coords) / ndims
	if maxPoints == 0 {
		maxPoints = initialCapacity
	} else {
		maxPoints *= 2
	}
	coords := make([]float64, pa.npoints*ndims, maxPoints*ndims)
	copy(coords, pa.coords)
	pa.coords = coords
}

// Insert places p at position idx, shifting later points. idx may equal
// NPoints to append.
func (pa *PointArray) Insert(p geopb.Point4D, idx int) error {
	if err := pa.checkWritable(); err != nil {
		return err
	}
	if idx < 0 || idx > pa.npoints {
		return errors.Newf("insertion index %d out of range [0,%d]", idx, pa.npoints)
	}
	pa.grow()
	ndims := pa.NDims()
	pa.coords = pa.coords[:(pa.npoints+1)*ndims]
	copy(pa.coords[(idx+1)*ndims:], pa.coords[idx*ndims:pa.npoints*ndims])
	pa.npoints++
	pa.setPoint(idx, p)
	return nil
}

// Append adds p at the end. Unless allowDuplicate is set, appending a point
// bit-for-bit equal to the current last point on the active ordinates is a
// successful no-op.
func (pa *PointArray) Append(p geopb.Point4D, allowDuplicate bool) error {
	if err := pa.checkWritable(); err != nil {
		return err
	}
	if !allowDuplicate && pa.npoints > 0 && pa.sameAsLast(p) {
		return nil
	}
	return pa.Insert(p, pa.npoints)
}

func (pa *PointArray) sameAsLast(p geopb.Point4D) bool {
	last := pa.Point4D(pa.npoints - 1)
	if !bitEqual(last.X, p.X) || !bitEqual(last.Y, p.Y) {
		return false
	}
	if pa.HasZ() && !bitEqual(last.Z, p.Z) {
		return false
	}
	if pa.HasM() && !bitEqual(last.M, p.M) {
		return false
	}
	return true
}

func bitEqual(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}

// AppendArray appends the points of other. When the last point of pa and
// the first point of other coincide on X and Y the shared point is kept
// once. Otherwise the gap between them must not exceed gapTolerance; a
// negative tolerance accepts any gap and a zero tolerance accepts none.
func (pa *PointArray) AppendArray(other *PointArray, gapTolerance float64) error {
	if err := pa.checkWritable(); err != nil {
		return err
	}
	if pa == other {
		return errors.Newf("cannot append a point array to itself")
	}
	if pa.flags.ZM() != other.flags.ZM() {
		return geoerr.NewTypeMismatchf("appending dimension mismatch")
	}
	if other.npoints == 0 {
		return nil
	}
	start := 0
	if pa.npoints > 0 {
		last, first := pa.Point2D(pa.npoints-1), other.Point2D(0)
		if last == first {
			start = 1
		} else if gapTolerance == 0 ||
			(gapTolerance > 0 && math.Hypot(last.X-first.X, last.Y-first.Y) > gapTolerance) {
			return errors.Newf("second line start point too far from first line end point")
		}
	}
	for i := start; i < other.npoints; i++ {
		if err := pa.Insert(other.Point4D(i), pa.npoints); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes the point at idx.
func (pa *PointArray) Remove(idx int) error {
	if err := pa.checkWritable(); err != nil {
		return err
	}
	if idx < 0 || idx >= pa.npoints {
		return errors.Newf("point index %d out of range [0,%d)", idx, pa.npoints)
	}
	ndims := pa.NDims()
	copy(pa.coords[idx*ndims:], pa.coords[(idx+1)*ndims:pa.npoints*ndims])
	pa.npoints--
	pa.coords = pa.coords[:pa.npoints*ndims]
	return nil
}

// RemoveKeeping deletes the point at idx unless that would leave fewer than
// minPoints points.
func (pa *PointArray) RemoveKeeping(idx, minPoints int) error {
	if pa.npoints-1 < minPoints {
		return errors.Newf("removing a point would leave fewer than %d points", minPoints)
	}
	return pa.Remove(idx)
}

// Same returns whether pa and other have the same dimensions and
// bit-for-bit equal points.
func (pa *PointArray) Same(other *PointArray) bool {
	if pa.flags.ZM() != other.flags.ZM() || pa.npoints != other.npoints {
		return false
	}
	ndims := pa.NDims()
	for i := 0; i < pa.npoints; i++ {
		for d := 0; d < ndims; d++ {
			if !bitEqual(pa.Ordinate(i, d), other.Ordinate(i, d)) {
				return false
			}
		}
	}
	return true
}

func (pa *PointArray) endsEqual(ndims int) bool {
	if pa.npoints == 0 {
		return false
	}
	last := pa.npoints - 1
	for d := 0; d < ndims; d++ {
		if !bitEqual(pa.Ordinate(0, d), pa.Ordinate(last, d)) {
			return false
		}
	}
	return true
}

// IsClosed returns whether the first and last points are bit-for-bit equal
// on every ordinate. Empty arrays are not closed.
func (pa *PointArray) IsClosed() bool { return pa.endsEqual(pa.NDims()) }

// IsClosed2D returns whether the first and last points are equal on X and Y.
func (pa *PointArray) IsClosed2D() bool { return pa.endsEqual(2) }

// IsClosed3D returns whether the first and last points are equal on the
// first three stored ordinates, or on X and Y for 2D arrays.
func (pa *PointArray) IsClosed3D() bool {
	if pa.NDims() < 3 {
		return pa.endsEqual(2)
	}
	return pa.endsEqual(3)
}

// IsClosedZ returns IsClosed3D for arrays with Z and IsClosed2D otherwise.
func (pa *PointArray) IsClosedZ() bool {
	if pa.HasZ() {
		return pa.IsClosed3D()
	}
	return pa.IsClosed2D()
}

// Reverse reverses the point order in place.
func (pa *PointArray) Reverse() error {
	if err := pa.checkWritable(); err != nil {
		return err
	}
	for i, j := 0, pa.npoints-1; i < j; i, j = i+1, j-1 {
		pi, pj := pa.Point4D(i), pa.Point4D(j)
		pa.setPoint(i, pj)
		pa.setPoint(j, pi)
	}
	return nil
}

func (pa *PointArray) hasOrdinate(o geopb.Ordinate) bool {
	switch o {
	case geopb.OrdinateX, geopb.OrdinateY:
		return true
	case geopb.OrdinateZ:
		return pa.HasZ()
	case geopb.OrdinateM:
		return pa.HasM()
	}
	return false
}

// SwapOrdinates exchanges two ordinates of every point in place.
func (pa *PointArray) SwapOrdinates(o1, o2 geopb.Ordinate) error {
	if err := pa.checkWritable(); err != nil {
		return err
	}
	if !pa.hasOrdinate(o1) || !pa.hasOrdinate(o2) {
		return geoerr.NewTypeMismatchf("point array has no ordinate %s or %s", o1, o2)
	}
	for i := 0; i < pa.npoints; i++ {
		p := pa.Point4D(i)
		v1, v2 := p.Get(o1), p.Get(o2)
		p.Set(o1, v2)
		p.Set(o2, v1)
		pa.setPoint(i, p)
	}
	return nil
}

// ForceDims returns an owned copy of pa with the requested dimensions.
// Added ordinates are zero.
func (pa *PointArray) ForceDims(hasZ, hasM bool) *PointArray {
	ret := Construct(hasZ, hasM, pa.npoints)
	for i := 0; i < pa.npoints; i++ {
		ret.setPoint(i, pa.Point4D(i))
	}
	return ret
}

// SetZM relabels the dimensions without touching the stored ordinates. It
// only applies when the ordinate count stays the same or the array is
// empty, for example to read a three-ordinate array as XYM instead of XYZ.
func (pa *PointArray) SetZM(hasZ, hasM bool) error {
	flags := geopb.MakeFlags(hasZ, hasM, false).WithReadOnly(pa.IsReadOnly())
	if pa.npoints > 0 && flags.NDims() != pa.NDims() {
		return geoerr.NewTypeMismatchf(
			"cannot relabel a %d-dimensional point array as %d-dimensional", pa.NDims(), flags.NDims())
	}
	if pa.npoints == 0 && pa.ref == nil && flags.NDims() != pa.NDims() {
		pa.coords = nil
	}
	pa.flags = flags
	return nil
}

// Clone returns a read-only array sharing the ordinates of pa.
func (pa *PointArray) Clone() *PointArray {
	ret := *pa
	ret.flags = ret.flags.WithReadOnly(true)
	if ret.coords != nil {
		ret.coords = ret.coords[:len(ret.coords):len(ret.coords)]
	}
	return &ret
}

// CloneDeep returns an owned copy of pa.
func (pa *PointArray) CloneDeep() *PointArray {
	ret := Construct(pa.HasZ(), pa.HasM(), pa.npoints)
	copy(ret.coords, pa.FlatCoords())
	return ret
}
