// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/lwgeom/pkg/cli/cliflags"
	"github.com/cockroachdb/lwgeom/pkg/geo"
	"github.com/cockroachdb/lwgeom/pkg/geo/geojson"
	"github.com/cockroachdb/lwgeom/pkg/geo/gserialized"
	"github.com/cockroachdb/lwgeom/pkg/geo/lwgeom"
	"github.com/cockroachdb/lwgeom/pkg/geo/wkb"
	"github.com/cockroachdb/lwgeom/pkg/geo/wkt"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newConvertCmd(c *cliContext) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "convert [geometry]",
		Short: "convert a geometry between encodings",
		Long: `
Convert a geometry read from the argument, or from standard input when the
argument is missing or "-", into another encoding. Binary WKB is written
raw; all other outputs end with a newline.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logtags.AddTag(cmd.Context(), "convert", nil)
			g, err := c.readGeometry(ctx, cmd, args)
			if err != nil {
				return err
			}
			out, err := c.encode(ctx, g, to)
			if err != nil {
				return err
			}
			if to == "wkb" {
				if isTerminal(cmd.OutOrStdout()) {
					return errors.Mark(errors.WithHint(
						errors.New("refusing to write binary WKB to a terminal"),
						"use --to hex, or redirect the output"), errInvalidFlag)
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
			return err
		},
	}
	StringFlag(cmd.Flags(), &to, cliflags.To, "ewkt")
	c.registerOutputFlags(cmd.Flags())
	return cmd
}

// isTerminal returns whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// encode writes g in the given output format.
func (c *cliContext) encode(ctx context.Context, g lwgeom.Geometry, to string) ([]byte, error) {
	var s string
	var err error
	switch to {
	case "wkt":
		s, err = wkt.Marshal(g, c.wktVariant(), c.Precision)
	case "ewkt":
		s, err = geo.ToEWKT(g, c.Precision)
	case "hex":
		s, err = wkb.MarshalHex(ctx, g, c.wkbVariant())
	case "wkb":
		return wkb.Marshal(ctx, g, c.wkbVariant())
	case "geojson":
		digits := c.Precision
		if digits < 0 {
			digits = geo.DefaultGeoJSONDecimalDigits
		}
		return geo.ToGeoJSON(g, digits, geojson.FlagShortCRSIfNot4326)
	case "kml":
		s, err = geo.ToKML(g)
	case "geohash":
		s, err = geo.ToGeoHash(ctx, g, geo.GeoHashAutoPrecision)
	case "gser":
		var buf []byte
		buf, err = gserialized.Encode(ctx, g)
		s = strings.ToUpper(hex.EncodeToString(buf))
	default:
		return nil, errors.Mark(errors.Newf("unknown output format %q", to), errInvalidFlag)
	}
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}
