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
	"context"
	"fmt"

	"gvisor.dev/sigcore/pkg/abi/linux"
	"gvisor.dev/sigcore/pkg/errors/linuxerr"
	"gvisor.dev/sigcore/pkg/hostarch"
	"gvisor.dev/sigcore/pkg/marshal"
	"gvisor.dev/sigcore/pkg/sentry/arch"
	"gvisor.dev/sigcore/pkg/sync"
	"gvisor.dev/sigcore/pkg/usermem"
)

// ProcessID is a process identifier.
type ProcessID int32

// ProcessState is the scheduling state of a process.
type ProcessState int

// Process states.
const (
	// ProcessUnused marks a free process table slot.
	ProcessUnused ProcessState = iota

	// ProcessSleeping is blocked waiting for an event.
	ProcessSleeping

	// ProcessRunnable is on the run queue.
	ProcessRunnable

	// ProcessRunning is executing.
	ProcessRunning

	// ProcessZombie has exited.
	ProcessZombie
)

// String implements fmt.Stringer.String.
func (s ProcessState) String() string {
	switch s {
	case ProcessUnused:
		return "unused"
	case ProcessSleeping:
		return "sleeping"
	case ProcessRunnable:
		return "runnable"
	case ProcessRunning:
		return "running"
	case ProcessZombie:
		return "zombie"
	default:
		return fmt.Sprintf("ProcessState(%d)", int(s))
	}
}

// Process is a single-threaded process.
//
// Signal dispositions, the blocked mask, registers and memory are owned by
// the process's execution context and are only touched from it. Anything
// another process may change while this one runs is protected by mu.
type Process struct {
	k *Kernel

	// slot is the index of this process in the process table. Immutable.
	slot int

	// mu protects the fields below it, and SignalState.pending and
	// SignalState.infos.
	mu sync.Mutex

	// pid is 0 for an unused slot.
	pid ProcessID

	state ProcessState

	// killed is set once termination has been requested. exitStatus is the
	// status recorded by the first request.
	killed     bool
	exitStatus int

	// signals is the signal state.
	signals SignalState

	// regs is the user register state.
	regs arch.Registers

	// mem is the user address space.
	mem *usermem.BytesIO

	// scratch is a buffer for marshalling.
	scratch []byte
}

var _ marshal.CopyContext = (*Process)(nil)

// PID returns the process identifier.
func (p *Process) PID() ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

// State returns the scheduling state.
func (p *Process) State() ProcessState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Killed returns whether termination was requested, and the status.
func (p *Process) Killed() (bool, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed, p.exitStatus
}

// Registers returns the user register state. It may only be used from the
// process's own execution context.
func (p *Process) Registers() *arch.Registers {
	return &p.regs
}

// String implements fmt.Stringer.String.
func (p *Process) String() string {
	return fmt.Sprintf("pid %d", p.PID())
}

// Kernel returns the kernel p belongs to.
func (p *Process) Kernel() *Kernel {
	return p.k
}

// Kill requests termination of p with the given status. Only the first
// request's status is recorded.
func (p *Process) Kill(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killLocked(status)
}

// Preconditions: p.mu is locked.
func (p *Process) killLocked(status int) {
	if p.killed {
		return
	}
	p.killed = true
	p.exitStatus = status
}

// Sleep blocks p until a signal is raised against it. It returns false, and
// p keeps running, if termination was already requested.
func (p *Process) Sleep() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.killed || p.state == ProcessZombie {
		return false
	}
	p.state = ProcessSleeping
	return true
}

// exit turns p into a zombie.
func (p *Process) exit() {
	p.mu.Lock()
	status := p.exitStatus
	p.state = ProcessZombie
	pid := p.pid
	p.mu.Unlock()
	p.k.processExited(pid, status)
}

// Exec replaces the program image: memory is cleared, execution starts at
// entry with the stack at the top of memory, and signal state is reset as
// exec requires.
func (p *Process) Exec(entry hostarch.Addr) {
	r := p.mem.Range()
	p.mem.ZeroOut(context.Background(), r.Start, int64(r.Length()))
	p.regs = arch.Registers{}
	p.regs.SetIP(entry)
	p.regs.SetStack(r.End)
	p.signals.ResetForExec()
}

// CopyScratchBuffer implements marshal.CopyContext.CopyScratchBuffer.
func (p *Process) CopyScratchBuffer(size int) []byte {
	if size > len(p.scratch) {
		p.scratch = make([]byte, size)
	}
	return p.scratch[:size]
}

// CopyOutBytes implements marshal.CopyContext.CopyOutBytes. Nothing is
// written unless the whole range is mapped.
func (p *Process) CopyOutBytes(addr hostarch.Addr, src []byte) (int, error) {
	if !p.mapped(addr, len(src)) {
		return 0, linuxerr.EFAULT
	}
	return p.mem.CopyOut(context.Background(), addr, src)
}

// CopyInBytes implements marshal.CopyContext.CopyInBytes. dst is untouched
// unless the whole range is mapped.
func (p *Process) CopyInBytes(addr hostarch.Addr, dst []byte) (int, error) {
	if !p.mapped(addr, len(dst)) {
		return 0, linuxerr.EFAULT
	}
	return p.mem.CopyIn(context.Background(), addr, dst)
}

func (p *Process) mapped(addr hostarch.Addr, length int) bool {
	ar, ok := addr.ToRange(uint64(length))
	return ok && p.mem.Range().IsSupersetOf(ar)
}

// PendingSignals returns the set of pending signals.
func (p *Process) PendingSignals() linux.SignalSet {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signals.pending
}

// SignalMask returns the blocked mask.
func (p *Process) SignalMask() linux.SignalSet {
	return p.signals.mask
}

// SetSignalMask sets the blocked mask. Unblockable signals are silently
// removed.
func (p *Process) SetSignalMask(mask linux.SignalSet) {
	p.signals.mask = mask &^ UnblockableSignals
}

// SigAction returns the disposition of sig.
func (p *Process) SigAction(sig linux.Signal) (SignalAction, error) {
	if !sig.IsValid() || UnblockableSignals.Contains(sig) {
		return SignalAction{}, linuxerr.EINVAL
	}
	return p.signals.actions[sig.Index()], nil
}

// SetSigAction sets the disposition of sig and returns the previous one. The
// dispositions of SIGKILL and SIGSTOP cannot be changed.
func (p *Process) SetSigAction(sig linux.Signal, act SignalAction) (SignalAction, error) {
	if !sig.IsValid() || UnblockableSignals.Contains(sig) || act.Kind > ActionHandler {
		return SignalAction{}, linuxerr.EINVAL
	}
	if act.Kind == ActionHandler {
		act.Mask &^= UnblockableSignals
	} else {
		act = SignalAction{Kind: act.Kind}
	}
	old := p.signals.actions[sig.Index()]
	p.signals.actions[sig.Index()] = act
	return old, nil
}
