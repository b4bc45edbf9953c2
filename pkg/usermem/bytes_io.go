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

package usermem

import (
	"context"

	"gvisor.dev/sigcore/pkg/errors/linuxerr"
	"gvisor.dev/sigcore/pkg/hostarch"
)

// BytesIO implements IO using a byte slice mapped at Base. Addresses outside
// [Base, Base+len(Bytes)) fault.
type BytesIO struct {
	// Base is the address of Bytes[0].
	Base hostarch.Addr

	// Bytes backs the address space.
	Bytes []byte
}

var _ IO = (*BytesIO)(nil)

// Range returns the addresses backed by b.
func (b *BytesIO) Range() hostarch.AddrRange {
	end, _ := b.Base.AddLength(uint64(len(b.Bytes)))
	return hostarch.AddrRange{Start: b.Base, End: end}
}

// CopyOut implements IO.CopyOut.
func (b *BytesIO) CopyOut(ctx context.Context, addr hostarch.Addr, src []byte) (int, error) {
	off, n, rngErr := b.rangeCheck(addr, len(src))
	if n == 0 {
		return 0, rngErr
	}
	return copy(b.Bytes[off:off+n], src[:n]), rngErr
}

// CopyIn implements IO.CopyIn.
func (b *BytesIO) CopyIn(ctx context.Context, addr hostarch.Addr, dst []byte) (int, error) {
	off, n, rngErr := b.rangeCheck(addr, len(dst))
	if n == 0 {
		return 0, rngErr
	}
	return copy(dst[:n], b.Bytes[off:off+n]), rngErr
}

// ZeroOut implements IO.ZeroOut.
func (b *BytesIO) ZeroOut(ctx context.Context, addr hostarch.Addr, toZero int64) (int64, error) {
	if toZero < 0 {
		return 0, linuxerr.EINVAL
	}
	off, n, rngErr := b.rangeCheck(addr, int(toZero))
	clear(b.Bytes[off : off+n])
	return int64(n), rngErr
}

// rangeCheck returns the offset of addr into b.Bytes and how many of the
// length bytes starting there are backed. The error is EFAULT iff fewer than
// length bytes are backed.
func (b *BytesIO) rangeCheck(addr hostarch.Addr, length int) (off, n int, err error) {
	if length == 0 {
		return 0, 0, nil
	}
	r := b.Range()
	if !r.Contains(addr) {
		return 0, 0, linuxerr.EFAULT
	}
	off = int(addr - b.Base)
	if avail := len(b.Bytes) - off; length > avail {
		return off, avail, linuxerr.EFAULT
	}
	return off, length, nil
}
