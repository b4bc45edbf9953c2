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
	"gvisor.dev/sigcore/pkg/hostarch"
	"gvisor.dev/sigcore/pkg/log"
	"gvisor.dev/sigcore/pkg/sentry/arch"
)

// dequeueSignal removes the lowest-numbered deliverable signal from the
// pending set and returns it with its payload. sig is 0 if nothing is
// deliverable.
func (p *Process) dequeueSignal() (linux.Signal, linux.SignalInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sig := (p.signals.pending &^ p.signals.mask).Lowest()
	if sig == 0 {
		return 0, linux.SignalInfo{}
	}
	p.signals.pending &^= linux.SignalSetOf(sig)
	return sig, p.signals.infos[sig.Index()]
}

// DeliverSignal delivers at most one pending, unblocked signal, choosing the
// lowest-numbered one. It must only be called from p's own execution context
// at the return-to-user checkpoint.
//
// The signal leaves the pending set before its disposition is consulted. An
// ignored signal has no further effect. The default action requests
// termination with DefaultActionStatus. For a handler, a signal frame is
// pushed below the user stack pointer and the registers are redirected into
// the handler; if the frame cannot be written DeliverSignal returns EFAULT,
// the registers and blocked mask are left untouched, and the signal is lost.
func (p *Process) DeliverSignal() error {
	sig, info := p.dequeueSignal()
	if sig == 0 {
		return nil
	}
	act := p.signals.actions[sig.Index()]
	p.k.metrics.delivered.Increment(act.Kind.String())

	switch act.Kind {
	case ActionIgnore:
		log.Debugf("%v ignored %v", p, sig)
		p.k.emit("ignore", p.PID(), sig, nil)
		return nil

	case ActionDefault:
		status := DefaultActionStatus(sig)
		log.Debugf("%v terminated by %v", p, sig)
		p.Kill(status)
		p.k.emit("terminate", p.PID(), sig, map[string]any{"status": int64(status)})
		return nil
	}

	frame, ok := arch.SignalFrameBelow(p.regs.Stack())
	if !ok {
		return p.frameFault(sig, p.regs.Stack())
	}
	buf := arch.EncodeSignalFrame(&p.regs, p.signals.mask, &info)
	if _, err := p.CopyOutBytes(frame, buf); err != nil {
		return p.frameFault(sig, frame)
	}

	p.regs.SignalSetup(frame, sig, act.Handler, act.Restorer)
	p.signals.mask |= act.Mask | linux.SignalSetOf(sig)
	log.Debugf("%v entering handler %v for %v, frame at %v", p, act.Handler, sig, frame)
	p.k.emit("handler", p.PID(), sig, map[string]any{
		"handler": uint64ToNumber(uint64(act.Handler)),
		"frame":   uint64ToNumber(uint64(frame)),
	})
	return nil
}

// frameFault reports a signal lost because its frame could not be written.
func (p *Process) frameFault(sig linux.Signal, addr hostarch.Addr) error {
	p.k.metrics.frameFaults.Increment()
	p.k.faultLog.Warningf("%v: dropping %v, cannot write signal frame at %v", p, sig, addr)
	p.k.emit("frame_fault", p.PID(), sig, map[string]any{"addr": uint64ToNumber(uint64(addr))})
	return linuxerr.EFAULT
}

// SignalReturn undoes the handler entry performed by DeliverSignal. The saved
// context is read from the current stack pointer; the program counter and
// every general purpose register are restored from it, as is the blocked
// mask, and the frame is popped.
//
// The frame lives in user memory and is not validated. A process that
// modifies it can resume anywhere with any register values, which is no more
// than it could do anyway; the only sanitization applied is that SIGKILL and
// SIGSTOP can not end up blocked.
//
// If the context can not be read SignalReturn returns EFAULT and changes
// nothing.
func (p *Process) SignalReturn() error {
	frame := p.regs.Stack()
	buf := p.CopyScratchBuffer(arch.SizeOfUContext64)
	if _, err := p.CopyInBytes(frame, buf); err != nil {
		return err
	}
	uc := arch.DecodeSignalContext(buf)
	p.regs.SignalRestore(frame, &uc)
	p.signals.mask = uc.Sigmask &^ UnblockableSignals
	p.k.metrics.sigreturns.Increment()
	log.Debugf("%v returned from signal handler to %v", p, p.regs.IP())
	p.k.emit("sigreturn", p.PID(), 0, map[string]any{"pc": uint64ToNumber(uc.MContext.PC)})
	return nil
}

// ReturnToUser is the return-to-user checkpoint. A process with a pending
// termination request exits here; otherwise at most one signal is
// delivered, which may itself terminate the process. It returns true if p
// exited, and the error of a failed handler dispatch.
func (p *Process) ReturnToUser() (exited bool, err error) {
	if killed, _ := p.Killed(); !killed {
		err = p.DeliverSignal()
	}
	if killed, _ := p.Killed(); killed {
		p.exit()
		return true, err
	}
	return false, err
}

// uint64ToNumber converts an address for an event. structpb numbers are
// float64, so addresses above 2^53 lose precision; they are only reported.
func uint64ToNumber(v uint64) float64 {
	return float64(v)
}
