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

package arch

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gvisor.dev/sigcore/pkg/abi/linux"
	"gvisor.dev/sigcore/pkg/hostarch"
)

func testRegisters() Registers {
	var r Registers
	r.Epc = 0x1000
	for i := range r.Regs {
		r.Regs[i] = uint64(0x100 + i)
	}
	r.Regs[RegSP] = 0x8000
	return r
}

func TestFrameSizes(t *testing.T) {
	if SizeOfUContext64 != 264 {
		t.Errorf("SizeOfUContext64 = %d, want 264", SizeOfUContext64)
	}
	if SignalFrameSize != 392 {
		t.Errorf("SignalFrameSize = %d, want 392", SignalFrameSize)
	}
}

func TestRegisterOrder(t *testing.T) {
	for _, tc := range []struct {
		idx  int
		name string
	}{
		{RegRA, "ra"},
		{RegSP, "sp"},
		{RegS1, "s1"},
		{RegA0, "a0"},
		{RegA7, "a7"},
		{RegS2, "s2"},
		{RegS11, "s11"},
		{RegT6, "t6"},
	} {
		if got := RegisterNames[tc.idx]; got != tc.name {
			t.Errorf("RegisterNames[%d] = %q, want %q", tc.idx, got, tc.name)
		}
	}
	if RegT6 != NumGPRs-1 {
		t.Errorf("RegT6 = %d, want %d", RegT6, NumGPRs-1)
	}
}

func TestEncodeDecodeSignalContext(t *testing.T) {
	regs := testRegisters()
	mask := linux.MakeSignalSet(linux.SIGUSR1, linux.SIGTERM)
	var info linux.SignalInfo
	info.Signo = int32(linux.SIGUSR2)
	info.SetPID(7)

	buf := EncodeSignalFrame(&regs, mask, &info)
	if len(buf) != SignalFrameSize {
		t.Fatalf("len(EncodeSignalFrame) = %d, want %d", len(buf), SignalFrameSize)
	}

	got := DecodeSignalContext(buf)
	want := NewUContext64(&regs, mask)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeSignalContext mismatch (-want +got):\n%s", diff)
	}

	var gotInfo linux.SignalInfo
	gotInfo.UnmarshalBytes(buf[SizeOfUContext64:])
	if gotInfo.Signo != info.Signo || gotInfo.PID() != 7 {
		t.Errorf("info = signo %d pid %d, want signo %d pid 7", gotInfo.Signo, gotInfo.PID(), info.Signo)
	}
}

func TestContextLayout(t *testing.T) {
	regs := testRegisters()
	buf := EncodeSignalFrame(&regs, linux.SignalSetOf(linux.SIGHUP), &linux.SignalInfo{})
	// Mask, then pc, then x1 (ra).
	if got := hostarch.ByteOrder.Uint64(buf[0:]); got != 1 {
		t.Errorf("mask word = %#x, want 0x1", got)
	}
	if got := hostarch.ByteOrder.Uint64(buf[8:]); got != regs.Epc {
		t.Errorf("pc word = %#x, want %#x", got, regs.Epc)
	}
	if got := hostarch.ByteOrder.Uint64(buf[16:]); got != regs.Regs[RegRA] {
		t.Errorf("ra word = %#x, want %#x", got, regs.Regs[RegRA])
	}
	if got := hostarch.ByteOrder.Uint64(buf[16+8*RegT6:]); got != regs.Regs[RegT6] {
		t.Errorf("t6 word = %#x, want %#x", got, regs.Regs[RegT6])
	}
}

func TestSignalSetupRestore(t *testing.T) {
	orig := testRegisters()
	regs := orig
	frame, ok := SignalFrameBelow(regs.Stack())
	if !ok {
		t.Fatalf("SignalFrameBelow(%v) failed", regs.Stack())
	}
	if want := hostarch.Addr(0x8000 - SignalFrameSize); frame != want {
		t.Fatalf("frame = %v, want %v", frame, want)
	}
	uc := NewUContext64(&regs, 0)

	regs.SignalSetup(frame, linux.SIGUSR1, 0x4000, 0x5000)
	if regs.Stack() != frame || regs.IP() != 0x4000 || regs.Regs[RegRA] != 0x5000 {
		t.Errorf("after setup: %v, want sp=%v pc=0x4000 ra=0x5000", &regs, frame)
	}
	if got := regs.SyscallArgs(); got[0].Int() != int32(linux.SIGUSR1) || got[1].Pointer() != SignalInfoAddr(frame) || got[2].Pointer() != frame {
		t.Errorf("handler args = %v, want (%d, %v, %v)", got[:3], linux.SIGUSR1, SignalInfoAddr(frame), frame)
	}

	regs.SignalRestore(frame, &uc)
	if diff := cmp.Diff(orig, regs); diff != "" {
		t.Errorf("restore mismatch (-want +got):\n%s", diff)
	}
}

func TestSignalRestoreIgnoresSavedStack(t *testing.T) {
	regs := testRegisters()
	frame := hostarch.Addr(0x7000)
	uc := NewUContext64(&regs, 0)
	uc.MContext.Regs[RegSP] = 0xdead0000
	uc.MContext.Regs[RegA0] = 0x42

	regs.SignalRestore(frame, &uc)
	if want := frame + SignalFrameSize; regs.Stack() != want {
		t.Errorf("sp = %v, want %v", regs.Stack(), want)
	}
	if regs.Regs[RegA0] != 0x42 {
		t.Errorf("a0 = %#x, want 0x42", regs.Regs[RegA0])
	}
}

func TestSignalFrameBelowWraps(t *testing.T) {
	if _, ok := SignalFrameBelow(SignalFrameSize - 1); ok {
		t.Errorf("SignalFrameBelow(%d) succeeded, want wrap failure", SignalFrameSize-1)
	}
}
