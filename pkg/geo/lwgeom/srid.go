// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package lwgeom

import (
	"context"
	"time"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/util/log"
)

var sridNoticeEvery = log.Every(time.Second)

// ClampSRID returns srid mapped into the storable range, logging a notice
// when the value changes.
func ClampSRID(ctx context.Context, srid geopb.SRID) geopb.SRID {
	clamped, changed := geopb.ClampSRID(srid)
	if changed && sridNoticeEvery.ShouldLog() {
		ctx = logtags.AddTag(ctx, "lwgeom", nil)
		if clamped == geopb.SRIDUnknown {
			log.Warningf(ctx, "SRID value %d converted to the officially unknown SRID value %d", srid, clamped)
		} else {
			log.Warningf(ctx, "SRID value %d > SRID_MAXIMUM converted to %d", srid, clamped)
		}
	}
	return clamped
}
