// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package geo is the entry point for moving geometries between their text
// and binary forms.
//
// Subpackages implement the pieces:
//   - geo/lwgeom is the in-memory geometry model.
//   - geo/gserialized is the compact storage format with its bounding box.
//   - geo/wkb, geo/wkt and geo/geojson are the interchange codecs.
package geo

import "encoding/binary"

// DefaultEWKBEncodingFormat is the byte order used when none is requested.
var DefaultEWKBEncodingFormat binary.ByteOrder = binary.LittleEndian
