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

// Package usermem governs access to user memory.
package usermem

import (
	"context"

	"gvisor.dev/sigcore/pkg/hostarch"
)

// IO provides access to the contents of a process address space.
//
// Transfers that run off the mapped range copy the mapped prefix and return
// EFAULT along with the number of bytes transferred.
type IO interface {
	// CopyOut copies len(src) bytes from src to the memory mapped at addr.
	CopyOut(ctx context.Context, addr hostarch.Addr, src []byte) (int, error)

	// CopyIn copies len(dst) bytes from the memory mapped at addr to dst.
	CopyIn(ctx context.Context, addr hostarch.Addr, dst []byte) (int, error)

	// ZeroOut sets toZero bytes to 0, starting at addr.
	ZeroOut(ctx context.Context, addr hostarch.Addr, toZero int64) (int64, error)
}
