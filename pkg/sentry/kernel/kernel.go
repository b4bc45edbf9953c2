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

// Package kernel provides an emulation of the signal delivery core of a
// process-based kernel.
//
// Lock order:
//
//	ProcessTable.mu
//	  Process.mu
//	    RunQueue.mu
package kernel

import (
	"fmt"
	"time"

	"gvisor.dev/sigcore/pkg/eventchannel"
	"gvisor.dev/sigcore/pkg/hostarch"
	"gvisor.dev/sigcore/pkg/log"
	"gvisor.dev/sigcore/pkg/metric"
	"gvisor.dev/sigcore/pkg/sentry/arch"
	"gvisor.dev/sigcore/pkg/usermem"
)

// InitKernelArgs holds arguments to New.
type InitKernelArgs struct {
	// MaxProcesses is the size of the process table.
	MaxProcesses int

	// MemoryBase is the lowest user address of every process.
	MemoryBase hostarch.Addr

	// MemorySize is the size of every process's address space in bytes.
	MemorySize uint64

	// SyscallTable dispatches system calls. If nil, system calls fail with
	// ENOSYS.
	SyscallTable *SyscallTable

	// Scheduler receives woken processes. If nil, a RunQueue is used.
	Scheduler Scheduler

	// Emitter receives signal events. If nil, events are dropped.
	Emitter eventchannel.Emitter

	// FaultLogInterval is the minimum interval between frame fault
	// warnings.
	FaultLogInterval time.Duration
}

// Kernel is the signal delivery core and the process table it operates on.
type Kernel struct {
	table    *ProcessTable
	sched    Scheduler
	syscalls *SyscallTable
	emitter  eventchannel.Emitter

	memoryBase hostarch.Addr
	memorySize uint64

	metrics  *kernelMetrics
	faultLog log.Logger
}

// New returns a Kernel with an empty process table.
func New(args InitKernelArgs) (*Kernel, error) {
	if args.MaxProcesses <= 0 {
		return nil, fmt.Errorf("invalid process table size %d", args.MaxProcesses)
	}
	if args.MemorySize < arch.SignalFrameSize || args.MemorySize%hostarch.PageSize != 0 {
		return nil, fmt.Errorf("memory size %d must be a non-zero multiple of %d", args.MemorySize, hostarch.PageSize)
	}
	if !args.MemoryBase.IsPageAligned() {
		return nil, fmt.Errorf("memory base %v is not page aligned", args.MemoryBase)
	}
	if _, ok := args.MemoryBase.AddLength(args.MemorySize); !ok {
		return nil, fmt.Errorf("memory range at %v of size %d overflows", args.MemoryBase, args.MemorySize)
	}
	k := &Kernel{
		table:      newProcessTable(args.MaxProcesses),
		sched:      args.Scheduler,
		syscalls:   args.SyscallTable,
		emitter:    args.Emitter,
		memoryBase: args.MemoryBase,
		memorySize: args.MemorySize,
		metrics:    newKernelMetrics(),
	}
	if k.sched == nil {
		k.sched = NewRunQueue()
	}
	if k.syscalls == nil {
		k.syscalls = &SyscallTable{}
	}
	interval := args.FaultLogInterval
	if interval <= 0 {
		interval = time.Second
	}
	k.faultLog = log.BasicRateLimitedLogger(interval)
	return k, nil
}

// Scheduler returns the scheduler woken processes are handed to.
func (k *Kernel) Scheduler() Scheduler {
	return k.sched
}

// Metrics returns the kernel's metric registry.
func (k *Kernel) Metrics() *metric.Registry {
	return k.metrics.registry
}

// Processes returns every process that is not in an unused slot, in table
// order.
func (k *Kernel) Processes() []*Process {
	return k.table.live()
}

// CreateProcess allocates a process with initialized signal state, a fresh
// address space, and registers set to start at entry.
func (k *Kernel) CreateProcess(entry hostarch.Addr) (*Process, error) {
	p, err := k.table.allocate(k, func(p *Process) {
		p.signals.Init()
		p.mem = &usermem.BytesIO{Base: k.memoryBase, Bytes: make([]byte, k.memorySize)}
		p.regs = arch.Registers{}
		p.regs.SetIP(entry)
		p.regs.SetStack(p.mem.Range().End)
	})
	if err != nil {
		return nil, err
	}
	k.metrics.processes.Increment()
	log.Debugf("Created %v at %v", p, entry)
	return p, nil
}

// Fork creates a child of parent. The child gets a copy of parent's memory
// and registers, parent's dispositions and blocked mask, and nothing pending.
// The child observes a return value of 0 in a0.
func (k *Kernel) Fork(parent *Process) (*Process, error) {
	child, err := k.table.allocate(k, func(child *Process) {
		child.signals.Init()
		parent.signals.CopyForFork(&child.signals)
		child.mem = &usermem.BytesIO{Base: parent.mem.Base, Bytes: append([]byte(nil), parent.mem.Bytes...)}
		child.regs = parent.regs
		child.regs.SetReturn(0)
	})
	if err != nil {
		return nil, err
	}
	k.metrics.processes.Increment()
	log.Debugf("Forked %v from %v", child, parent)
	return child, nil
}

// Lookup returns the process with the given pid, or nil.
//
// The result is a table slot, not a handle: once the process is reaped the
// same *Process is reused by the next CreateProcess or Fork. Callers that
// keep it across Reap must look it up again by pid.
func (k *Kernel) Lookup(pid ProcessID) *Process {
	return k.table.lookup(pid)
}

// Reap releases the table slot of a zombie. After Reap, p must not be used:
// it aliases whichever process next claims the slot.
func (k *Kernel) Reap(p *Process) error {
	return k.table.release(p)
}

// Schedule removes the next process from the scheduler, if it is a RunQueue,
// and marks it running. It returns nil if nothing is runnable.
func (k *Kernel) Schedule() *Process {
	rq, ok := k.sched.(*RunQueue)
	if !ok {
		return nil
	}
	for {
		p := rq.Dequeue()
		if p == nil {
			return nil
		}
		p.mu.Lock()
		if p.state == ProcessRunnable {
			p.state = ProcessRunning
			p.mu.Unlock()
			return p
		}
		p.mu.Unlock()
	}
}

// processExited records the exit of pid.
func (k *Kernel) processExited(pid ProcessID, status int) {
	log.Infof("Process %d exited with status %d", pid, status)
	k.metrics.exits.Increment()
	k.emit("exit", pid, 0, map[string]any{"status": status})
}
