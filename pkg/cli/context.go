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
	"bytes"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/cli/cliflags"
	"github.com/cockroachdb/lwgeom/pkg/geo/wkb"
	"github.com/cockroachdb/lwgeom/pkg/geo/wkt"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds the output defaults that can be kept in a configuration
// file.
type Config struct {
	Precision int    `yaml:"precision"`
	ByteOrder string `yaml:"byte_order"`
	Variant   string `yaml:"variant"`
	MaxDepth  int    `yaml:"max_depth"`
}

func defaultConfig() Config {
	return Config{
		Precision: wkt.DefaultPrecision,
		ByteOrder: "ndr",
		Variant:   "extended",
		MaxDepth:  wkb.DefaultMaxDepth,
	}
}

// Validate checks that every setting names a known value.
func (c Config) Validate() error {
	switch c.ByteOrder {
	case "ndr", "xdr":
	default:
		return errors.Mark(errors.Newf("unknown byte order %q", c.ByteOrder), errInvalidFlag)
	}
	switch c.Variant {
	case "iso", "sfsql", "extended":
	default:
		return errors.Mark(errors.Newf("unknown variant %q", c.Variant), errInvalidFlag)
	}
	if c.MaxDepth <= 0 {
		return errors.Mark(errors.Newf("max depth must be positive, got %d", c.MaxDepth), errInvalidFlag)
	}
	return nil
}

// cliContext holds the settings of one invocation.
type cliContext struct {
	Config

	configPath string
	from       string
	srid       int
}

func newCLIContext() *cliContext {
	return &cliContext{Config: defaultConfig(), from: "auto"}
}

func (c *cliContext) registerPersistentFlags(f *pflag.FlagSet) {
	StringFlag(f, &c.configPath, cliflags.Config, "")
	StringFlag(f, &c.from, cliflags.From, c.from)
	IntFlag(f, &c.MaxDepth, cliflags.MaxDepth, c.MaxDepth)
	IntFlag(f, &c.srid, cliflags.SRID, 0)
}

func (c *cliContext) registerOutputFlags(f *pflag.FlagSet) {
	IntFlag(f, &c.Precision, cliflags.Precision, c.Precision)
	StringFlag(f, &c.ByteOrder, cliflags.ByteOrder, c.ByteOrder)
	StringFlag(f, &c.Variant, cliflags.Variant, c.Variant)
}

// loadConfig overlays the configuration file, if any, on the settings
// whose flags were not given explicitly.
func (c *cliContext) loadConfig(flags *pflag.FlagSet) error {
	if c.configPath != "" {
		data, err := os.ReadFile(c.configPath)
		if err != nil {
			return errors.Mark(errors.Wrap(err, "reading config"), errInvalidFlag)
		}
		fileCfg := c.Config
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fileCfg); err != nil && !errors.Is(err, io.EOF) {
			return errors.Mark(errors.Wrapf(err, "parsing config %s", c.configPath), errInvalidFlag)
		}
		if !flags.Changed(cliflags.Precision.Name) {
			c.Precision = fileCfg.Precision
		}
		if !flags.Changed(cliflags.ByteOrder.Name) {
			c.ByteOrder = fileCfg.ByteOrder
		}
		if !flags.Changed(cliflags.Variant.Name) {
			c.Variant = fileCfg.Variant
		}
		if !flags.Changed(cliflags.MaxDepth.Name) {
			c.MaxDepth = fileCfg.MaxDepth
		}
	}
	return c.Validate()
}

func (c *cliContext) wkbVariant() wkb.Variant {
	var v wkb.Variant
	switch c.Variant {
	case "iso":
		v = wkb.ISO
	case "sfsql":
		v = wkb.SFSQL
	default:
		v = wkb.Extended
	}
	if c.ByteOrder == "xdr" {
		return v | wkb.XDR
	}
	return v | wkb.NDR
}

func (c *cliContext) wktVariant() wkt.Variant {
	switch c.Variant {
	case "iso":
		return wkt.ISO
	case "sfsql":
		return wkt.SFSQL
	}
	return wkt.Extended
}
