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
	"text/tabwriter"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/lwgeom/pkg/geo/gserialized"
	"github.com/cockroachdb/lwgeom/pkg/geo/lwgeom"
	"github.com/cockroachdb/lwgeom/pkg/geo/wkb"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newInspectCmd(c *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [geometry]",
		Short: "describe the serialized form of a geometry",
		Long: `
Print the header fields of the serialized geometry together with vertex and
ring counts and the sizes of the serialized and WKB encodings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logtags.AddTag(cmd.Context(), "inspect", nil)
			buf, g, err := c.serialize(ctx, cmd, args)
			if err != nil {
				return err
			}
			h, err := gserialized.ReadHeader(buf)
			if err != nil {
				return err
			}
			isoSize := wkb.Size(g, wkb.ISO)
			extSize := wkb.Size(g, wkb.Extended)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 1, 2, ' ', 0)
			fmt.Fprintf(tw, "Type:\t%s\n", h.Type)
			fmt.Fprintf(tw, "SRID:\t%d\n", h.SRID())
			fmt.Fprintf(tw, "Flags:\t%s\n", h.Flags)
			fmt.Fprintf(tw, "Empty:\t%t\n", lwgeom.IsEmpty(g))
			fmt.Fprintf(tw, "Vertices:\t%d\n", lwgeom.CountVertices(g))
			fmt.Fprintf(tw, "Rings:\t%d\n", lwgeom.CountRings(g))
			fmt.Fprintf(tw, "Dimension:\t%d\n", lwgeom.Dimension(g))
			if h.BBox != nil {
				fmt.Fprintf(tw, "Stored Box:\t%s\n", h.BBox)
			} else {
				fmt.Fprintf(tw, "Stored Box:\tnone\n")
			}
			fmt.Fprintf(tw, "Serialized Size:\t%s\n", humanize.IBytes(uint64(h.Size)))
			fmt.Fprintf(tw, "WKB Size:\t%s\n", humanize.IBytes(uint64(isoSize)))
			fmt.Fprintf(tw, "EWKB Size:\t%s\n", humanize.IBytes(uint64(extSize)))
			return tw.Flush()
		},
	}
}
