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
	"gvisor.dev/sigcore/pkg/sync"
)

// Scheduler accepts processes that have become runnable.
type Scheduler interface {
	// Enqueue adds p to the ready queue. It is called with p.mu held and
	// must not acquire it.
	Enqueue(p *Process)
}

// RunQueue is a FIFO ready queue.
type RunQueue struct {
	mu    sync.Mutex
	queue []*Process
}

var _ Scheduler = (*RunQueue)(nil)

// NewRunQueue returns an empty RunQueue.
func NewRunQueue() *RunQueue {
	return &RunQueue{}
}

// Enqueue implements Scheduler.Enqueue.
func (rq *RunQueue) Enqueue(p *Process) {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	rq.queue = append(rq.queue, p)
}

// Dequeue removes and returns the oldest entry, or nil.
func (rq *RunQueue) Dequeue() *Process {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	if len(rq.queue) == 0 {
		return nil
	}
	p := rq.queue[0]
	rq.queue[0] = nil
	rq.queue = rq.queue[1:]
	return p
}

// Len returns the number of queued entries.
func (rq *RunQueue) Len() int {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	return len(rq.queue)
}

// Count returns how many times p is queued.
func (rq *RunQueue) Count(p *Process) int {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	n := 0
	for _, q := range rq.queue {
		if q == p {
			n++
		}
	}
	return n
}
