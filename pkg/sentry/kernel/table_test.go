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

package kernel

import (
	"fmt"
	"testing"

	"gvisor.dev/sigcore/pkg/errors/linuxerr"
	"gvisor.dev/sigcore/pkg/sentry/arch"
)

const (
	maxTestSyscall = 1000
)

func createSyscallTable() *SyscallTable {
	m := make(map[uintptr]Syscall)
	for i := uintptr(0); i <= maxTestSyscall; i++ {
		j := i
		m[i] = Syscall{
			Name: "test",
			Fn: func(*Process, arch.SyscallArguments) (uintptr, *SyscallControl, error) {
				return j, nil, nil
			},
		}
	}
	return &SyscallTable{Table: m}
}

func TestTable(t *testing.T) {
	table := createSyscallTable()

	// Go through all functions and check that they return the right value.
	for i := uintptr(0); i < maxTestSyscall; i++ {
		sc, ok := table.Lookup(i)
		if !ok {
			t.Errorf("Syscall %v is missing", i)
			continue
		}

		v, _, _ := sc.Fn(nil, arch.SyscallArguments{})
		if v != i {
			t.Errorf("Wrong return value for syscall %v: expected %v, got %v", i, i, v)
		}
	}

	// Check that values outside the range are missing.
	for i := uintptr(maxTestSyscall + 1); i < maxTestSyscall+100; i++ {
		if _, ok := table.Lookup(i); ok {
			t.Errorf("Syscall %v is present", i)
		}
		if got, want := table.Name(i), fmt.Sprintf("sys_%d", i); got != want {
			t.Errorf("Name(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestHandleSyscall(t *testing.T) {
	const (
		sysAdd = iota + 1
		sysFail
		sysReplace
	)
	table := &SyscallTable{Table: map[uintptr]Syscall{
		sysAdd: {Name: "add", Fn: func(_ *Process, args arch.SyscallArguments) (uintptr, *SyscallControl, error) {
			return args[0].Value + args[1].Value, nil, nil
		}},
		sysFail: {Name: "fail", Fn: func(*Process, arch.SyscallArguments) (uintptr, *SyscallControl, error) {
			return 0, nil, linuxerr.EINVAL
		}},
		sysReplace: {Name: "replace", Fn: func(p *Process, _ arch.SyscallArguments) (uintptr, *SyscallControl, error) {
			p.Registers().Regs[arch.RegA0] = 0x5555
			return 1, CtrlDoNotWriteReturn, nil
		}},
	}}
	rec := &eventRecorder{}
	k, err := New(InitKernelArgs{
		MaxProcesses: 1,
		MemoryBase:   testMemoryBase,
		MemorySize:   testMemorySize,
		SyscallTable: table,
		Emitter:      rec,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	p := createTestProcess(t, k)

	for _, tc := range []struct {
		name  string
		sysno uintptr
		want  uintptr
	}{
		{"value", sysAdd, 42},
		{"errno", sysFail, linuxerr.ToReturn(linuxerr.EINVAL)},
		{"ignore return", sysReplace, 0x5555},
		{"unknown", 999, linuxerr.ToReturn(linuxerr.ENOSYS)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pc := p.regs.IP()
			p.regs.Regs[arch.RegA7] = uint64(tc.sysno)
			p.regs.Regs[arch.RegA0] = 40
			p.regs.Regs[arch.RegA1] = 2
			p.HandleSyscall()
			if got := p.regs.Return(); got != tc.want {
				t.Errorf("a0 = %#x, want %#x", got, tc.want)
			}
			if got := p.regs.IP(); got != pc+arch.SyscallWidth {
				t.Errorf("pc = %v, want %v", got, pc+arch.SyscallWidth)
			}
		})
	}
	if got := k.metrics.unknownSyscalls.Value(); got != 1 {
		t.Errorf("unknown syscalls = %d, want 1", got)
	}
}

func BenchmarkTableLookup(b *testing.B) {
	table := createSyscallTable()

	b.ResetTimer()

	j := uintptr(0)
	for i := 0; i < b.N; i++ {
		table.Lookup(j)
		j = (j + 1) % 310
	}
}
