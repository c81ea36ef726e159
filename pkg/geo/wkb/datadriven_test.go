// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package wkb_test

import (
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/wkb"
	"github.com/cockroachdb/lwgeom/pkg/geo/wkt"
)

var variants = map[string]wkb.Variant{
	"iso-ndr":   wkb.ISO | wkb.NDR,
	"iso-xdr":   wkb.ISO | wkb.XDR,
	"ewkb-ndr":  wkb.Extended | wkb.NDR,
	"ewkb-xdr":  wkb.Extended | wkb.XDR,
	"sfsql-ndr": wkb.SFSQL | wkb.NDR,
}

func TestDataDriven(t *testing.T) {
	ctx := context.Background()
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			switch d.Cmd {
			case "encode":
				var name string
				d.ScanArgs(t, "variant", &name)
				v, ok := variants[name]
				if !ok {
					d.Fatalf(t, "unknown variant %s", name)
				}
				g, err := wkt.Unmarshal(ctx, strings.TrimSpace(d.Input))
				if err != nil {
					d.Fatalf(t, "%+v", err)
				}
				out, err := wkb.MarshalHex(ctx, g, v)
				if err != nil {
					d.Fatalf(t, "%+v", err)
				}
				return out

			case "decode":
				check := wkb.CheckAll
				if d.HasArg("check") {
					check = wkb.CheckNone
				}
				g, err := wkb.UnmarshalHex(ctx, strings.TrimSpace(d.Input), check)
				if err != nil {
					// The category is stable where the message is not.
					for _, mark := range []error{geoerr.InvalidGeometry, geoerr.TypeMismatch, geoerr.MalformedInput} {
						if errors.Is(err, mark) {
							return "error: " + mark.Error()
						}
					}
					return "error: " + err.Error()
				}
				out, err := wkt.Marshal(g, wkt.Extended, -1)
				if err != nil {
					d.Fatalf(t, "%+v", err)
				}
				return out
			}
			d.Fatalf(t, "unknown command %s", d.Cmd)
			return ""
		})
	})
}
