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
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/lwgeom/pkg/cli/cliflags"
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/gserialized"
	"github.com/cockroachdb/lwgeom/pkg/geo/lwgeom"
	"github.com/spf13/cobra"
)

// errNoPeek is returned by bbox --peek when the box can only be had by
// decoding the geometry.
var errNoPeek = errors.New("bounding box cannot be read without decoding the geometry")

func newBBoxCmd(c *cliContext) *cobra.Command {
	var geodetic, peek bool
	cmd := &cobra.Command{
		Use:   "bbox [geometry]",
		Short: "print the bounding box of a geometry",
		Long: `
Serialize the geometry and print the bounding box a reader of the serialized
form obtains. Empty geometries print EMPTY.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logtags.AddTag(cmd.Context(), "bbox", nil)
			buf, g, err := c.serialize(ctx, cmd, args)
			if err != nil {
				return err
			}
			if geodetic && !g.Flags().IsGeodetic() {
				if !lwgeom.CheckGeodetic(g) {
					return geoerr.NewInvalidGeometryf(
						"coordinates of %s are out of longitude/latitude range", g.Type())
				}
				lwgeom.SetGeodetic(g, true)
				if buf, err = gserialized.Encode(ctx, g); err != nil {
					return err
				}
			}

			var box *geopb.GBox
			if peek {
				if box, err = gserialized.ReadGBox(buf); err == nil && box == nil {
					box, err = gserialized.PeekGBox(buf)
				}
				if err == nil && box == nil && !lwgeom.IsEmpty(g) {
					err = errors.WithHint(errNoPeek, "retry without --peek")
				}
			} else {
				box, err = gserialized.GetGBox(ctx, buf, gserialized.WithMaxDepth(c.MaxDepth))
			}
			if err != nil {
				return err
			}
			if box == nil {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "EMPTY")
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), box.String())
			return err
		},
	}
	BoolFlag(cmd.Flags(), &geodetic, cliflags.Geodetic, false)
	BoolFlag(cmd.Flags(), &peek, cliflags.Peek, false)
	return cmd
}
