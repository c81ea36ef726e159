// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package geomfn

import (
	"math"

	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
)

// SegmentSide returns -1 if q is left of the directed segment p1-p2, 1 if it
// is right of it and 0 if it is on the line through it.
func SegmentSide(p1, p2, q geopb.Point2D) int {
	side := (q.X-p1.X)*(p2.Y-p1.Y) - (p2.X-p1.X)*(q.Y-p1.Y)
	switch {
	case side < 0:
		return -1
	case side > 0:
		return 1
	}
	return 0
}

// SegmentIntersection classifies how two segments meet.
type SegmentIntersection int

// Segment intersection kinds.
const (
	SegmentNoIntersection SegmentIntersection = iota
	SegmentColinear
	SegmentCrossLeft
	SegmentCrossRight
)

func (s SegmentIntersection) String() string {
	switch s {
	case SegmentNoIntersection:
		return "no intersection"
	case SegmentColinear:
		return "colinear"
	case SegmentCrossLeft:
		return "cross left"
	case SegmentCrossRight:
		return "cross right"
	}
	return "unknown"
}

func segmentEnvelopesInteract(p1, p2, q1, q2 geopb.Point2D) bool {
	minq, maxq := math.Min(q1.X, q2.X), math.Max(q1.X, q2.X)
	minp, maxp := math.Min(p1.X, p2.X), math.Max(p1.X, p2.X)
	if geopb.FPGT(minp, maxq) || geopb.FPLT(maxp, minq) {
		return false
	}
	minq, maxq = math.Min(q1.Y, q2.Y), math.Max(q1.Y, q2.Y)
	minp, maxp = math.Min(p1.Y, p2.Y), math.Max(p1.Y, p2.Y)
	if geopb.FPGT(minp, maxq) || geopb.FPLT(maxp, minq) {
		return false
	}
	return true
}

// SegmentIntersects classifies the interaction of segment p1-p2 with
// segment q1-q2. Touching at the second point of either segment is not a
// crossing, so a chain of segments counts each crossing once.
func SegmentIntersects(p1, p2, q1, q2 geopb.Point2D) SegmentIntersection {
	if !segmentEnvelopesInteract(p1, p2, q1, q2) {
		return SegmentNoIntersection
	}

	pq1, pq2 := SegmentSide(p1, p2, q1), SegmentSide(p1, p2, q2)
	if (pq1 > 0 && pq2 > 0) || (pq1 < 0 && pq2 < 0) {
		return SegmentNoIntersection
	}
	qp1, qp2 := SegmentSide(q1, q2, p1), SegmentSide(q1, q2, p2)
	if (qp1 > 0 && qp2 > 0) || (qp1 < 0 && qp2 < 0) {
		return SegmentNoIntersection
	}
	if pq1 == 0 && pq2 == 0 && qp1 == 0 && qp2 == 0 {
		return SegmentColinear
	}
	if pq2 == 0 || qp2 == 0 {
		return SegmentNoIntersection
	}
	if pq1 == 0 {
		if pq2 > 0 {
			return SegmentCrossRight
		}
		return SegmentCrossLeft
	}
	if pq1 < pq2 {
		return SegmentCrossRight
	}
	return SegmentCrossLeft
}
