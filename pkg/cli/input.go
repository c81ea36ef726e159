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
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/geo"
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/cockroachdb/lwgeom/pkg/geo/geojson"
	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
	"github.com/cockroachdb/lwgeom/pkg/geo/gserialized"
	"github.com/cockroachdb/lwgeom/pkg/geo/lwgeom"
	"github.com/cockroachdb/lwgeom/pkg/geo/wkb"
	"github.com/cockroachdb/lwgeom/pkg/geo/wkt"
	"github.com/cockroachdb/lwgeom/pkg/util/log"
	"github.com/spf13/cobra"
)

// readInput returns the first argument, or standard input when there is
// no argument or the argument is "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) > 0 && args[0] != "-" {
		return []byte(args[0]), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, errors.Wrap(err, "reading input")
	}
	return data, nil
}

// isBinary returns whether data starts like raw WKB.
func isBinary(data []byte) bool {
	return len(data) > 0 && (data[0] == 0x00 || data[0] == 0x01)
}

// readGeometry decodes the command input in the format chosen by --from.
func (c *cliContext) readGeometry(
	ctx context.Context, cmd *cobra.Command, args []string,
) (lwgeom.Geometry, error) {
	data, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}
	g, err := c.decode(ctx, data)
	if err != nil {
		return nil, err
	}
	if c.srid != 0 && g.SRID() == geopb.SRIDUnknown {
		lwgeom.SetSRID(g, lwgeom.ClampSRID(ctx, geopb.SRID(c.srid)))
	}
	log.VEventf(ctx, 2, "read %s with SRID %d", g.Type(), g.SRID())
	return g, nil
}

func (c *cliContext) decode(ctx context.Context, data []byte) (lwgeom.Geometry, error) {
	text := strings.TrimSpace(string(data))
	switch c.from {
	case "auto":
		if isBinary(data) {
			return geo.ParseAmbiguousText(ctx, string(data), geopb.SRIDUnknown)
		}
		return geo.ParseAmbiguousText(ctx, text, geopb.SRIDUnknown)
	case "wkt":
		return wkt.Unmarshal(ctx, text, wkt.WithMaxDepth(c.MaxDepth))
	case "hex":
		return wkb.UnmarshalHex(ctx, text, wkb.CheckAll, wkb.WithMaxDepth(c.MaxDepth))
	case "wkb":
		return wkb.Unmarshal(ctx, data, wkb.CheckAll, wkb.WithMaxDepth(c.MaxDepth))
	case "geojson":
		return geojson.Unmarshal(ctx, []byte(text))
	case "gser":
		buf, err := decodeSerialized(text)
		if err != nil {
			return nil, err
		}
		return gserialized.Decode(ctx, buf, gserialized.WithMaxDepth(c.MaxDepth))
	}
	return nil, errors.Mark(errors.Newf("unknown input format %q", c.from), errInvalidFlag)
}

// decodeSerialized reads the hex text of a serialized geometry.
func decodeSerialized(text string) ([]byte, error) {
	buf, err := wkb.DecodeHex(text)
	if err != nil {
		return nil, geoerr.WrapMalformedInputf(err, "serialized geometry")
	}
	return buf, nil
}

// serialize returns the serialized form of g together with the source it
// came from. When the input already is a serialized geometry its bytes are
// returned unchanged so that header peeks see the stored box.
func (c *cliContext) serialize(
	ctx context.Context, cmd *cobra.Command, args []string,
) ([]byte, lwgeom.Geometry, error) {
	if c.from == "gser" {
		data, err := readInput(cmd, args)
		if err != nil {
			return nil, nil, err
		}
		buf, err := decodeSerialized(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, nil, err
		}
		g, err := gserialized.Decode(ctx, buf, gserialized.WithMaxDepth(c.MaxDepth))
		if err != nil {
			return nil, nil, err
		}
		return buf, g, nil
	}
	g, err := c.readGeometry(ctx, cmd, args)
	if err != nil {
		return nil, nil, err
	}
	buf, err := gserialized.Encode(ctx, g)
	if err != nil {
		return nil, nil, err
	}
	return buf, g, nil
}
