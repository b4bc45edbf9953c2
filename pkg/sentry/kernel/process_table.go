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
	"gvisor.dev/sigcore/pkg/errors/linuxerr"
	"gvisor.dev/sigcore/pkg/sync"
)

// ProcessTable is a fixed pool of process slots.
type ProcessTable struct {
	// mu serializes slot allocation and release. Scans that only read pids
	// do not take it; they lock each candidate instead.
	mu sync.Mutex

	// slots is immutable after construction.
	slots []*Process

	// nextPID is the next pid to hand out. +checklocks:mu
	nextPID ProcessID
}

func newProcessTable(size int) *ProcessTable {
	t := &ProcessTable{
		slots:   make([]*Process, size),
		nextPID: 1,
	}
	for i := range t.slots {
		t.slots[i] = &Process{slot: i}
	}
	return t
}

// allocate claims an unused slot for a new process owned by k. setup runs
// with the slot locked before the process becomes runnable and visible to
// signal senders.
func (t *ProcessTable) allocate(k *Kernel, setup func(p *Process)) (*Process, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.slots {
		p.mu.Lock()
		if p.state != ProcessUnused {
			p.mu.Unlock()
			continue
		}
		p.k = k
		p.pid = t.nextPID
		p.killed = false
		p.exitStatus = 0
		setup(p)
		p.state = ProcessRunnable
		k.sched.Enqueue(p)
		p.mu.Unlock()
		t.nextPID++
		return p, nil
	}
	return nil, linuxerr.EAGAIN
}

// release returns the slot of a zombie to the pool. The *Process itself is
// kept for reuse by allocate.
func (t *ProcessTable) release(p *Process) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != ProcessZombie {
		return linuxerr.EBUSY
	}
	p.state = ProcessUnused
	p.pid = 0
	p.signals.Init()
	return nil
}

// forEach calls f on every slot in order, with the slot's lock held, until f
// returns false. Unused slots are skipped.
func (t *ProcessTable) forEach(f func(p *Process) bool) {
	for _, p := range t.slots {
		p.mu.Lock()
		cont := true
		if p.state != ProcessUnused {
			cont = f(p)
		}
		p.mu.Unlock()
		if !cont {
			return
		}
	}
}

// lookup returns the live process with the given pid, or nil.
func (t *ProcessTable) lookup(pid ProcessID) *Process {
	var found *Process
	t.forEach(func(p *Process) bool {
		if p.pid == pid {
			found = p
			return false
		}
		return true
	})
	return found
}

// live returns every process that is not in an unused slot.
func (t *ProcessTable) live() []*Process {
	var ps []*Process
	t.forEach(func(p *Process) bool {
		ps = append(ps, p)
		return true
	})
	return ps
}
