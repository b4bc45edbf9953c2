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

	"gvisor.dev/sigcore/pkg/errors/linuxerr"
	"gvisor.dev/sigcore/pkg/log"
	"gvisor.dev/sigcore/pkg/sentry/arch"
)

// SyscallFn is a syscall implementation.
type SyscallFn func(p *Process, args arch.SyscallArguments) (uintptr, *SyscallControl, error)

// Syscall describes one entry of a SyscallTable.
type Syscall struct {
	// Name is the syscall name.
	Name string

	// Fn is the implementation.
	Fn SyscallFn
}

// SyscallTable maps syscall numbers to implementations.
type SyscallTable struct {
	// Table is the set of implemented syscalls, keyed by number.
	Table map[uintptr]Syscall
}

// Lookup returns the syscall with number sysno.
func (s *SyscallTable) Lookup(sysno uintptr) (Syscall, bool) {
	sc, ok := s.Table[sysno]
	return sc, ok
}

// Name returns the name of sysno, or a placeholder for unknown numbers.
func (s *SyscallTable) Name(sysno uintptr) string {
	if sc, ok := s.Table[sysno]; ok {
		return sc.Name
	}
	return fmt.Sprintf("sys_%d", sysno)
}

// SyscallControl is returned by syscalls to control the behavior of
// HandleSyscall.
type SyscallControl struct {
	// ignoreReturn is true if the return value should not be written to
	// the return register. Syscalls that replace the whole register state
	// use it.
	ignoreReturn bool
}

// CtrlDoNotWriteReturn is returned by syscalls that install a complete
// register state and must not have it overwritten by a return value.
var CtrlDoNotWriteReturn = &SyscallControl{ignoreReturn: true}

// HandleSyscall executes the syscall described by p's registers. The program
// counter is first advanced past the trapping instruction. The result is
// written to the return register as a value or a negated errno, unless the
// syscall asked otherwise.
func (p *Process) HandleSyscall() {
	p.regs.SetIP(p.regs.IP() + arch.SyscallWidth)
	sysno := p.regs.SyscallNo()
	args := p.regs.SyscallArgs()

	sc, ok := p.k.syscalls.Lookup(sysno)
	if !ok {
		log.Debugf("%v: unknown syscall %d", p, sysno)
		p.k.metrics.unknownSyscalls.Increment()
		p.regs.SetReturn(linuxerr.ToReturn(linuxerr.ENOSYS))
		return
	}

	rval, ctrl, err := sc.Fn(p, args)
	if log.IsLogging(log.Debug) {
		log.Debugf("%v: %s(%#x, %#x, %#x) = %#x, %v", p, sc.Name, args[0].Value, args[1].Value, args[2].Value, rval, err)
	}
	if ctrl != nil && ctrl.ignoreReturn {
		return
	}
	if err != nil {
		p.regs.SetReturn(linuxerr.ToReturn(err))
		return
	}
	p.regs.SetReturn(rval)
}
