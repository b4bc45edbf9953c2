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
	"testing"

	"github.com/google/go-cmp/cmp"
	"gvisor.dev/sigcore/pkg/abi/linux"
	"gvisor.dev/sigcore/pkg/errors/linuxerr"
	"gvisor.dev/sigcore/pkg/hostarch"
	"gvisor.dev/sigcore/pkg/sentry/arch"
)

const (
	testHandler  = testMemoryBase + 0x200
	testRestorer = testMemoryBase + 0x300
)

// fillRegisters gives every register a distinct value, keeping sp at the top
// of memory.
func fillRegisters(p *Process) {
	for i := range p.regs.Regs {
		p.regs.Regs[i] = 0x1000 + uint64(i)
	}
	p.regs.SetStack(testStackTop)
	p.regs.SetIP(testEntry + 0x40)
}

func setHandler(t *testing.T, p *Process, sig linux.Signal, mask linux.SignalSet) {
	t.Helper()
	act := SignalAction{Kind: ActionHandler, Handler: testHandler, Restorer: testRestorer, Mask: mask}
	if _, err := p.SetSigAction(sig, act); err != nil {
		t.Fatalf("SetSigAction(%v) failed: %v", sig, err)
	}
}

func raise(t *testing.T, k *Kernel, p *Process, sig linux.Signal) {
	t.Helper()
	if err := k.SendSignal(p.PID(), SignalInfoPriv(sig)); err != nil {
		t.Fatalf("SendSignal(%v) failed: %v", sig, err)
	}
}

func TestDeliverNothingPending(t *testing.T) {
	k, rec := newTestKernel(t, 1)
	p := createTestProcess(t, k)
	before := p.regs
	if err := p.DeliverSignal(); err != nil {
		t.Fatalf("DeliverSignal failed: %v", err)
	}
	if diff := cmp.Diff(before, p.regs); diff != "" {
		t.Errorf("registers changed (-want +got):\n%s", diff)
	}
	if len(rec.events) != 0 {
		t.Errorf("unexpected events: %v", rec.events)
	}
}

func TestDeliverLowestFirst(t *testing.T) {
	k, rec := newTestKernel(t, 1)
	p := createTestProcess(t, k)
	for _, sig := range []linux.Signal{linux.SIGTERM, linux.SIGUSR1} {
		if _, err := p.SetSigAction(sig, SignalAction{Kind: ActionIgnore}); err != nil {
			t.Fatalf("SetSigAction failed: %v", err)
		}
		raise(t, k, p, sig)
	}

	if err := p.DeliverSignal(); err != nil {
		t.Fatalf("DeliverSignal failed: %v", err)
	}
	if got, want := p.PendingSignals(), linux.SignalSetOf(linux.SIGTERM); got != want {
		t.Errorf("pending = %#x, want %#x", got, want)
	}
	ignored := rec.named("ignore")
	if len(ignored) != 1 || ignored[0]["signal"] != "SIGUSR1" {
		t.Errorf("ignore events = %v, want a single SIGUSR1", ignored)
	}
}

func TestDeliverBlocked(t *testing.T) {
	k, _ := newTestKernel(t, 1)
	p := createTestProcess(t, k)
	p.SetSignalMask(linux.SignalSetOf(linux.SIGTERM))
	raise(t, k, p, linux.SIGTERM)

	if err := p.DeliverSignal(); err != nil {
		t.Fatalf("DeliverSignal failed: %v", err)
	}
	if killed, _ := p.Killed(); killed {
		t.Fatalf("blocked signal was delivered")
	}
	if got, want := p.PendingSignals(), linux.SignalSetOf(linux.SIGTERM); got != want {
		t.Errorf("pending = %#x, want %#x", got, want)
	}

	p.SetSignalMask(0)
	exited, err := p.ReturnToUser()
	if err != nil || !exited {
		t.Fatalf("ReturnToUser() = %t, %v, want true, nil", exited, err)
	}
	if _, status := p.Killed(); status != DefaultActionStatus(linux.SIGTERM) {
		t.Errorf("exit status = %d, want %d", status, DefaultActionStatus(linux.SIGTERM))
	}
}

func TestDeliverIgnore(t *testing.T) {
	k, _ := newTestKernel(t, 1)
	p := createTestProcess(t, k)
	if _, err := p.SetSigAction(linux.SIGUSR2, SignalAction{Kind: ActionIgnore}); err != nil {
		t.Fatalf("SetSigAction failed: %v", err)
	}
	raise(t, k, p, linux.SIGUSR2)
	before := p.regs

	exited, err := p.ReturnToUser()
	if err != nil || exited {
		t.Fatalf("ReturnToUser() = %t, %v, want false, nil", exited, err)
	}
	if got := p.PendingSignals(); got != 0 {
		t.Errorf("pending = %#x, want 0", got)
	}
	if diff := cmp.Diff(before, p.regs); diff != "" {
		t.Errorf("registers changed (-want +got):\n%s", diff)
	}
	if got := k.metrics.delivered.Value(ActionIgnore.String()); got != 1 {
		t.Errorf("ignored deliveries = %d, want 1", got)
	}
}

func TestDeliverDefault(t *testing.T) {
	k, rec := newTestKernel(t, 1)
	p := createTestProcess(t, k)
	raise(t, k, p, linux.SIGHUP)

	exited, err := p.ReturnToUser()
	if err != nil || !exited {
		t.Fatalf("ReturnToUser() = %t, %v, want true, nil", exited, err)
	}
	want := DefaultActionStatus(linux.SIGHUP)
	if _, status := p.Killed(); status != want {
		t.Errorf("exit status = %d, want %d", status, want)
	}
	exits := rec.named("exit")
	if len(exits) != 1 || exits[0]["status"] != float64(want) {
		t.Errorf("exit events = %v, want one with status %d", exits, want)
	}
	if got := k.metrics.exits.Value(); got != 1 {
		t.Errorf("exits = %d, want 1", got)
	}
}

func TestDeliverHandler(t *testing.T) {
	k, rec := newTestKernel(t, 2)
	sender := createTestProcess(t, k)
	p := createTestProcess(t, k)
	fillRegisters(p)
	setHandler(t, p, linux.SIGUSR1, linux.SignalSetOf(linux.SIGUSR2))
	p.SetSignalMask(linux.SignalSetOf(linux.SIGHUP))
	if err := k.SendSignal(p.PID(), SignalInfoUser(linux.SIGUSR1, sender, linux.SI_USER)); err != nil {
		t.Fatalf("SendSignal failed: %v", err)
	}
	before := p.regs

	if err := p.DeliverSignal(); err != nil {
		t.Fatalf("DeliverSignal failed: %v", err)
	}

	frame := testStackTop - arch.SignalFrameSize
	r := &p.regs
	for _, c := range []struct {
		name      string
		got, want uint64
	}{
		{"pc", uint64(r.IP()), uint64(testHandler)},
		{"sp", uint64(r.Stack()), uint64(frame)},
		{"ra", r.Regs[arch.RegRA], uint64(testRestorer)},
		{"a0", r.Regs[arch.RegA0], uint64(linux.SIGUSR1)},
		{"a1", r.Regs[arch.RegA1], uint64(arch.SignalInfoAddr(frame))},
		{"a2", r.Regs[arch.RegA2], uint64(frame)},
		{"s0", r.Regs[arch.RegS0], before.Regs[arch.RegS0]},
	} {
		if c.got != c.want {
			t.Errorf("%s = %#x, want %#x", c.name, c.got, c.want)
		}
	}
	wantMask := linux.MakeSignalSet(linux.SIGHUP, linux.SIGUSR1, linux.SIGUSR2)
	if got := p.SignalMask(); got != wantMask {
		t.Errorf("mask = %#x, want %#x", got, wantMask)
	}
	if got := p.PendingSignals(); got != 0 {
		t.Errorf("pending = %#x, want 0", got)
	}

	buf := make([]byte, arch.SignalFrameSize)
	if _, err := p.CopyInBytes(frame, buf); err != nil {
		t.Fatalf("CopyInBytes failed: %v", err)
	}
	if diff := cmp.Diff(arch.NewUContext64(&before, linux.SignalSetOf(linux.SIGHUP)), arch.DecodeSignalContext(buf)); diff != "" {
		t.Errorf("saved context mismatch (-want +got):\n%s", diff)
	}
	var info linux.SignalInfo
	info.UnmarshalBytes(buf[arch.SizeOfUContext64:])
	if info.Signo != int32(linux.SIGUSR1) || info.PID() != int32(sender.PID()) {
		t.Errorf("saved info = signo %d pid %d, want signo %d pid %d", info.Signo, info.PID(), linux.SIGUSR1, sender.PID())
	}
	if got := len(rec.named("handler")); got != 1 {
		t.Errorf("got %d handler events, want 1", got)
	}
}

func TestHandlerBlocksItself(t *testing.T) {
	k, _ := newTestKernel(t, 1)
	p := createTestProcess(t, k)
	setHandler(t, p, linux.SIGUSR1, 0)
	raise(t, k, p, linux.SIGUSR1)
	if err := p.DeliverSignal(); err != nil {
		t.Fatalf("DeliverSignal failed: %v", err)
	}

	// A second raise while the handler runs stays pending.
	raise(t, k, p, linux.SIGUSR1)
	frame := p.regs.Stack()
	if err := p.DeliverSignal(); err != nil {
		t.Fatalf("DeliverSignal failed: %v", err)
	}
	if p.regs.Stack() != frame {
		t.Fatalf("nested frame pushed while the signal was blocked")
	}

	if err := p.SignalReturn(); err != nil {
		t.Fatalf("SignalReturn failed: %v", err)
	}
	if err := p.DeliverSignal(); err != nil {
		t.Fatalf("DeliverSignal failed: %v", err)
	}
	if got := p.regs.IP(); got != testHandler {
		t.Errorf("pc = %v, want handler %v", got, testHandler)
	}
}

func TestSignalReturnRoundTrip(t *testing.T) {
	k, rec := newTestKernel(t, 1)
	p := createTestProcess(t, k)
	fillRegisters(p)
	setHandler(t, p, linux.SIGUSR2, linux.SignalSetOf(linux.SIGTERM))
	p.SetSignalMask(linux.SignalSetOf(linux.SIGHUP))
	raise(t, k, p, linux.SIGUSR2)
	before := p.regs

	if err := p.DeliverSignal(); err != nil {
		t.Fatalf("DeliverSignal failed: %v", err)
	}
	// The handler runs and clobbers registers.
	p.regs.Regs[arch.RegS1] = 0xbad
	p.regs.Regs[arch.RegA0] = 0xbad
	p.regs.SetIP(testRestorer)

	if err := p.SignalReturn(); err != nil {
		t.Fatalf("SignalReturn failed: %v", err)
	}
	if diff := cmp.Diff(before, p.regs); diff != "" {
		t.Errorf("registers not restored (-want +got):\n%s", diff)
	}
	if got, want := p.SignalMask(), linux.SignalSetOf(linux.SIGHUP); got != want {
		t.Errorf("mask = %#x, want %#x", got, want)
	}
	if got := k.metrics.sigreturns.Value(); got != 1 {
		t.Errorf("sigreturns = %d, want 1", got)
	}
	if got := len(rec.named("sigreturn")); got != 1 {
		t.Errorf("got %d sigreturn events, want 1", got)
	}
}

func TestSignalReturnSanitizesMask(t *testing.T) {
	k, _ := newTestKernel(t, 1)
	p := createTestProcess(t, k)
	frame := testStackTop - arch.SignalFrameSize
	uc := arch.UContext64{
		Sigmask:  linux.MakeSignalSet(linux.SIGKILL, linux.SIGSTOP, linux.SIGINT),
		MContext: arch.MContext64{PC: uint64(testEntry + 0x80)},
	}
	buf := make([]byte, arch.SizeOfUContext64)
	uc.MarshalBytes(buf)
	if _, err := p.CopyOutBytes(frame, buf); err != nil {
		t.Fatalf("CopyOutBytes failed: %v", err)
	}
	p.regs.SetStack(frame)

	if err := p.SignalReturn(); err != nil {
		t.Fatalf("SignalReturn failed: %v", err)
	}
	if got, want := p.SignalMask(), linux.SignalSetOf(linux.SIGINT); got != want {
		t.Errorf("mask = %#x, want %#x", got, want)
	}
	if got := p.regs.IP(); got != testEntry+0x80 {
		t.Errorf("pc = %v, want %v", got, testEntry+0x80)
	}
	if got := p.regs.Stack(); got != testStackTop {
		t.Errorf("sp = %v, want %v", got, testStackTop)
	}
}

func TestSignalReturnFault(t *testing.T) {
	k, _ := newTestKernel(t, 1)
	p := createTestProcess(t, k)
	p.SetSignalMask(linux.SignalSetOf(linux.SIGHUP))
	p.regs.SetStack(testStackTop - 8)
	before := p.regs

	if err := p.SignalReturn(); !linuxerr.Equals(linuxerr.EFAULT, err) {
		t.Fatalf("SignalReturn() = %v, want EFAULT", err)
	}
	if diff := cmp.Diff(before, p.regs); diff != "" {
		t.Errorf("registers changed (-want +got):\n%s", diff)
	}
	if got, want := p.SignalMask(), linux.SignalSetOf(linux.SIGHUP); got != want {
		t.Errorf("mask = %#x, want %#x", got, want)
	}
}

func TestDeliverFrameFault(t *testing.T) {
	for _, tc := range []struct {
		name string
		sp   hostarch.Addr
	}{
		{"below memory", testMemoryBase + 16},
		{"wraps", 16},
	} {
		t.Run(tc.name, func(t *testing.T) {
			k, rec := newTestKernel(t, 1)
			p := createTestProcess(t, k)
			setHandler(t, p, linux.SIGUSR1, linux.SignalSetOf(linux.SIGUSR2))
			p.SetSignalMask(linux.SignalSetOf(linux.SIGHUP))
			p.regs.SetStack(tc.sp)
			raise(t, k, p, linux.SIGUSR1)
			before := p.regs

			if err := p.DeliverSignal(); !linuxerr.Equals(linuxerr.EFAULT, err) {
				t.Fatalf("DeliverSignal() = %v, want EFAULT", err)
			}
			if diff := cmp.Diff(before, p.regs); diff != "" {
				t.Errorf("registers changed (-want +got):\n%s", diff)
			}
			if got, want := p.SignalMask(), linux.SignalSetOf(linux.SIGHUP); got != want {
				t.Errorf("mask = %#x, want %#x", got, want)
			}
			if got := p.PendingSignals(); got != 0 {
				t.Errorf("pending = %#x, want 0", got)
			}
			if got := k.metrics.frameFaults.Value(); got != 1 {
				t.Errorf("frame faults = %d, want 1", got)
			}
			if got := len(rec.named("frame_fault")); got != 1 {
				t.Errorf("got %d frame_fault events, want 1", got)
			}
			if killed, _ := p.Killed(); killed {
				t.Errorf("frame fault killed the process")
			}
		})
	}
}

func TestReturnToUserKilled(t *testing.T) {
	k, _ := newTestKernel(t, 1)
	p := createTestProcess(t, k)
	setHandler(t, p, linux.SIGUSR1, 0)
	raise(t, k, p, linux.SIGUSR1)
	p.Kill(5)
	before := p.regs

	exited, err := p.ReturnToUser()
	if err != nil || !exited {
		t.Fatalf("ReturnToUser() = %t, %v, want true, nil", exited, err)
	}
	if diff := cmp.Diff(before, p.regs); diff != "" {
		t.Errorf("handler entered by a killed process (-want +got):\n%s", diff)
	}
	if _, status := p.Killed(); status != 5 {
		t.Errorf("exit status = %d, want 5", status)
	}
}
