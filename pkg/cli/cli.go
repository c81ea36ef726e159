// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package cli implements the lwgeom command: conversion between the
// geometry encodings, bounding box extraction and inspection of the
// serialized form.
package cli

import (
	"fmt"
	"os"
	"runtime/debug"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/lwgeom/pkg/cli/exit"
	"github.com/cockroachdb/lwgeom/pkg/geo/geoerr"
	"github.com/spf13/cobra"
)

// Proxy to allow overrides in tests.
var osStderr = os.Stderr

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "output version information",
		Long: `
Output build version information.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 1, 2, ' ', 0)
			info, ok := debug.ReadBuildInfo()
			if !ok {
				fmt.Fprintf(tw, "Build Info:\tunavailable\n")
				return tw.Flush()
			}
			fmt.Fprintf(tw, "Module:\t%s\n", info.Main.Path)
			fmt.Fprintf(tw, "Version:\t%s\n", info.Main.Version)
			fmt.Fprintf(tw, "Go Version:\t%s\n", info.GoVersion)
			for _, s := range info.Settings {
				if s.Key == "GOOS" || s.Key == "GOARCH" || s.Key == "vcs.revision" {
					fmt.Fprintf(tw, "%s:\t%s\n", s.Key, s.Value)
				}
			}
			return tw.Flush()
		},
	}
}

func newRootCmd() *cobra.Command {
	cliCtx := newCLIContext()
	root := &cobra.Command{
		Use:   "lwgeom [command] (flags)",
		Short: "geometry encoding command-line interface",
		Long: `
Convert geometries between WKT, WKB, GeoJSON and the serialized storage
form, compute their bounding boxes and inspect serialized headers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Mark(err, errInvalidFlag)
	})
	cliCtx.registerPersistentFlags(root.PersistentFlags())
	AddPersistentPreRunE(root, func(cmd *cobra.Command, _ []string) error {
		return cliCtx.loadConfig(cmd.Flags())
	})

	root.AddCommand(
		newConvertCmd(cliCtx),
		newBBoxCmd(cliCtx),
		newInspectCmd(cliCtx),
		newVersionCmd(),
	)
	return root
}

// Run runs the command-line interface with the given arguments.
func Run(args []string) error {
	return run(newRootCmd(), args)
}

func run(root *cobra.Command, args []string) error {
	root.SetArgs(args)
	return root.Execute()
}

// Main is the entry point of the lwgeom binary.
func Main() {
	err := Run(os.Args[1:])
	if err == nil {
		exit.WithCode(exit.Success())
	}
	fmt.Fprintf(osStderr, "ERROR: %v\n", err)
	if hint := errors.FlattenHints(err); hint != "" {
		fmt.Fprintf(osStderr, "HINT: %s\n", hint)
	}
	exit.WithCode(errorCode(err))
}

// errorCode maps an error to the process exit code.
func errorCode(err error) exit.Code {
	switch {
	case errors.Is(err, errInvalidFlag):
		return exit.CommandLineFlagError()
	case errors.Is(err, geoerr.MalformedInput):
		return exit.InvalidInput()
	case errors.Is(err, geoerr.TypeMismatch), errors.Is(err, geoerr.DegenerateGeometry):
		return exit.UnsupportedGeometry()
	}
	return exit.UnspecifiedError()
}
