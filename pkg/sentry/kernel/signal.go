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
	"gvisor.dev/sigcore/pkg/abi/linux"
	"gvisor.dev/sigcore/pkg/errors/linuxerr"
	"gvisor.dev/sigcore/pkg/log"
)

// defaultActionStatusBase is the exit status offset used when a signal's
// default action terminates a process.
const defaultActionStatusBase = -10

// DefaultActionStatus returns the exit status of a process terminated by the
// default action of sig, or by SIGKILL.
func DefaultActionStatus(sig linux.Signal) int {
	return defaultActionStatusBase - int(sig)
}

// SignalInfoPriv returns a SignalInfo for a signal sent by the kernel itself.
func SignalInfoPriv(sig linux.Signal) *linux.SignalInfo {
	return &linux.SignalInfo{
		Signo: int32(sig),
		Code:  linux.SI_KERNEL,
	}
}

// SignalInfoUser returns a SignalInfo for a signal sent by kill(2). sender
// may be nil for signals raised from outside any process.
func SignalInfoUser(sig linux.Signal, sender *Process, code int32) *linux.SignalInfo {
	info := &linux.SignalInfo{
		Signo: int32(sig),
		Code:  code,
	}
	if sender != nil {
		info.SetPID(int32(sender.PID()))
	}
	return info
}

// SendSignal raises sig against the process identified by pid.
//
// The process table is scanned in order. Each candidate is locked before its
// pid is compared, so a slot that is released and reused concurrently can
// not be matched under a stale pid. On a match the signal is made pending
// and its payload recorded, replacing any earlier payload for the same
// signal. SIGKILL also requests termination, regardless of the blocked mask
// and dispositions. A sleeping target is made runnable and handed to the
// scheduler.
//
// It returns EINVAL if sig is out of range and ESRCH if no process has the
// given pid.
func (k *Kernel) SendSignal(pid ProcessID, info *linux.SignalInfo) error {
	sig := linux.Signal(info.Signo)
	if !sig.IsValid() {
		return linuxerr.EINVAL
	}
	var (
		found bool
		woken bool
	)
	k.table.forEach(func(p *Process) bool {
		if p.pid != pid {
			return true
		}
		found = true
		p.signals.pending |= linux.SignalSetOf(sig)
		p.signals.infos[sig.Index()] = *info
		if sig == linux.SIGKILL {
			p.killLocked(DefaultActionStatus(sig))
		}
		if p.state == ProcessSleeping {
			p.state = ProcessRunnable
			k.sched.Enqueue(p)
			woken = true
		}
		return false
	})
	if !found {
		return linuxerr.ESRCH
	}
	k.metrics.raised.Increment()
	if log.IsLogging(log.Debug) {
		log.Debugf("Raised %v against pid %d (woken: %t)", sig, pid, woken)
	}
	k.emit("raise", pid, sig, map[string]any{"code": int64(info.Code), "sender": int64(info.PID()), "woken": woken})
	return nil
}
