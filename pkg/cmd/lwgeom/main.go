// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// This is the entry point of the lwgeom binary.
package main

import "github.com/cockroachdb/lwgeom/pkg/cli"

func main() {
	cli.Main()
}
