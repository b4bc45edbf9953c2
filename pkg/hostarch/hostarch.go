// Copyright 2026 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package hostarch contains architecture-specific constants and types for the
// guest. The only supported guest is riscv64.
package hostarch

import (
	"encoding/binary"
)

const (
	// PageSize is the system page size.
	PageSize = 1 << PageShift

	// PageShift is the binary log of the system page size.
	PageShift = 12

	// Width is the width of a machine word in bytes.
	Width = 8

	// StackAlignment is the required alignment of the user stack pointer at
	// a call boundary.
	StackAlignment = 16
)

// ByteOrder is the native byte order (little endian).
var ByteOrder = binary.LittleEndian
