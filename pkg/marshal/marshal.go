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

// Package marshal defines the Marshallable interface for serializing and
// deserializing Go data structures to/from memory, according to the Linux ABI.
//
// Implementations of this interface are hand written next to the type they
// serialize, in files named *_abi.go. Layouts are fixed and little endian.
package marshal

import (
	"gvisor.dev/sigcore/pkg/hostarch"
)

// CopyContext defines the memory operations required to marshal to and from
// user memory. Typically, kernel.Process is used to provide implementations
// for these operations.
type CopyContext interface {
	// CopyScratchBuffer provides a process-local scratch buffer of the given
	// size. The contents are only valid until the next call.
	CopyScratchBuffer(size int) []byte

	// CopyOutBytes copies len(src) bytes from src to the memory mapped at
	// addr. It returns a non-nil error if any byte could not be copied.
	CopyOutBytes(addr hostarch.Addr, src []byte) (int, error)

	// CopyInBytes copies len(dst) bytes from the memory mapped at addr to
	// dst. It returns a non-nil error if any byte could not be copied.
	CopyInBytes(addr hostarch.Addr, dst []byte) (int, error)
}

// Marshallable represents operations on a type that can be marshalled to and
// from memory.
type Marshallable interface {
	// SizeBytes is the size of the memory representation of a type in
	// marshalled form.
	SizeBytes() int

	// MarshalBytes serializes a copy of a type to dst.
	// Precondition: dst must be at least SizeBytes() in length.
	MarshalBytes(dst []byte)

	// UnmarshalBytes deserializes a type from src.
	// Precondition: src must be at least SizeBytes() in length.
	UnmarshalBytes(src []byte)

	// CopyOut serializes a Marshallable type to a process's memory. It
	// returns the number of bytes copied.
	CopyOut(cc CopyContext, addr hostarch.Addr) (int, error)

	// CopyIn deserializes a Marshallable type from a process's memory. The
	// receiver is only modified if the copy is complete.
	CopyIn(cc CopyContext, addr hostarch.Addr) (int, error)
}

// CopyOut is the shared implementation of Marshallable.CopyOut.
func CopyOut(cc CopyContext, addr hostarch.Addr, m Marshallable) (int, error) {
	buf := cc.CopyScratchBuffer(m.SizeBytes())
	m.MarshalBytes(buf)
	return cc.CopyOutBytes(addr, buf)
}

// CopyIn is the shared implementation of Marshallable.CopyIn.
func CopyIn(cc CopyContext, addr hostarch.Addr, m Marshallable) (int, error) {
	buf := cc.CopyScratchBuffer(m.SizeBytes())
	n, err := cc.CopyInBytes(addr, buf)
	if err != nil {
		return n, err
	}
	m.UnmarshalBytes(buf)
	return n, nil
}
