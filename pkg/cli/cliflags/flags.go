// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package cliflags holds the static descriptions of the command-line flags.
package cliflags

import "strings"

// FlagInfo contains the static information for a CLI flag and helper
// to format the description.
type FlagInfo struct {
	// Name of the flag as used on the command line.
	Name string

	// Shorthand is the short form of the flag (optional).
	Shorthand string

	// EnvVar is the name of the environment variable through which the flag
	// value can be controlled (optional).
	EnvVar string

	// Description of the flag.
	Description string
}

// Usage returns a formatted usage string for the flag.
func (f FlagInfo) Usage() string {
	s := strings.TrimSpace(f.Description)
	if f.EnvVar != "" {
		s += "\nEnvironment variable: " + f.EnvVar
	}
	return s
}

// Flags shared by every command.
var (
	Config = FlagInfo{
		Name:   "config",
		EnvVar: "LWGEOM_CONFIG",
		Description: `
Path to a YAML file holding defaults for --precision, --byte-order,
--variant and --max-depth. Flags given on the command line win over the
file.`,
	}

	From = FlagInfo{
		Name:      "from",
		Shorthand: "f",
		Description: `
Input format: auto, wkt, hex, wkb, geojson or gser. With auto the format
is guessed from the first byte of the input.`,
	}

	MaxDepth = FlagInfo{
		Name: "max-depth",
		Description: `
Maximum collection nesting accepted by the decoders.`,
	}

	SRID = FlagInfo{
		Name: "srid",
		Description: `
SRID assigned to the input geometry when it carries none.`,
	}
)

// Flags for the convert command.
var (
	To = FlagInfo{
		Name:      "to",
		Shorthand: "t",
		Description: `
Output format: wkt, ewkt, hex, wkb, geojson, kml, geohash or gser.`,
	}

	Precision = FlagInfo{
		Name:      "precision",
		Shorthand: "p",
		Description: `
Number of significant digits in WKT output, or of decimal digits in GeoJSON
output. Negative values print the shortest exact representation.`,
	}

	ByteOrder = FlagInfo{
		Name: "byte-order",
		Description: `
Byte order of WKB output: ndr (little endian) or xdr (big endian).`,
	}

	Variant = FlagInfo{
		Name: "variant",
		Description: `
Dialect of WKB and WKT output: iso, sfsql or extended.`,
	}
)

// Flags for the bbox command.
var (
	Geodetic = FlagInfo{
		Name: "geodetic",
		Description: `
Treat the coordinates as longitude/latitude and compute the box on the
unit sphere.`,
	}

	Peek = FlagInfo{
		Name: "peek",
		Description: `
Read the box from the serialized header without decoding the geometry.
Only stored boxes and the shapes whose box can be read off directly are
supported.`,
	}
)
