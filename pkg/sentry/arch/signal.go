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
	"gvisor.dev/sigcore/pkg/abi/linux"
	"gvisor.dev/sigcore/pkg/hostarch"
)

// MContext64 is the machine context saved in a signal frame: the program
// counter followed by x1..x31 in trap frame order.
type MContext64 struct {
	PC   uint64
	Regs [NumGPRs]uint64
}

// UContext64 is the saved execution context written to the user stack when a
// handler is invoked and read back by rt_sigreturn(2).
type UContext64 struct {
	// Sigmask is the blocked mask in effect before the handler ran.
	Sigmask  linux.SignalSet
	MContext MContext64
}

// Sizes of the signal frame and its parts.
const (
	// SizeOfUContext64 is the size of a marshalled UContext64.
	SizeOfUContext64 = linux.SignalSetSize + hostarch.Width*(1+NumGPRs)

	// SignalFrameSize is the size of the region pushed below the user stack
	// pointer on handler entry: the context followed by the signal info.
	SignalFrameSize = SizeOfUContext64 + linux.SizeOfSignalInfo
)

// SignalFrameBelow returns the address of a signal frame placed immediately
// below sp. ok is false if the frame would wrap below address zero.
func SignalFrameBelow(sp hostarch.Addr) (frame hostarch.Addr, ok bool) {
	return sp.SubLength(SignalFrameSize)
}

// SignalInfoAddr returns the address of the signal info within the frame at
// frame.
func SignalInfoAddr(frame hostarch.Addr) hostarch.Addr {
	return frame + SizeOfUContext64
}

// NewUContext64 captures the register state and the blocked mask.
func NewUContext64(regs *Registers, mask linux.SignalSet) UContext64 {
	return UContext64{
		Sigmask: mask,
		MContext: MContext64{
			PC:   regs.Epc,
			Regs: regs.Regs,
		},
	}
}

// EncodeSignalFrame serializes a complete signal frame: the context captured
// from regs and mask, followed by info.
//
// EncodeSignalFrame and DecodeSignalContext are the only definitions of the
// frame layout.
func EncodeSignalFrame(regs *Registers, mask linux.SignalSet, info *linux.SignalInfo) []byte {
	buf := make([]byte, SignalFrameSize)
	uc := NewUContext64(regs, mask)
	uc.MarshalBytes(buf[:SizeOfUContext64])
	info.MarshalBytes(buf[SizeOfUContext64:])
	return buf
}

// DecodeSignalContext deserializes the context at the start of a signal
// frame. buf must hold at least SizeOfUContext64 bytes.
func DecodeSignalContext(buf []byte) UContext64 {
	var uc UContext64
	uc.UnmarshalBytes(buf[:SizeOfUContext64])
	return uc
}

// MarshalBytes serializes uc to dst.
func (uc *UContext64) MarshalBytes(dst []byte) {
	hostarch.ByteOrder.PutUint64(dst[0:], uint64(uc.Sigmask))
	hostarch.ByteOrder.PutUint64(dst[8:], uc.MContext.PC)
	for i, r := range uc.MContext.Regs {
		hostarch.ByteOrder.PutUint64(dst[16+8*i:], r)
	}
}

// UnmarshalBytes deserializes uc from src.
func (uc *UContext64) UnmarshalBytes(src []byte) {
	uc.Sigmask = linux.SignalSet(hostarch.ByteOrder.Uint64(src[0:]))
	uc.MContext.PC = hostarch.ByteOrder.Uint64(src[8:])
	for i := range uc.MContext.Regs {
		uc.MContext.Regs[i] = hostarch.ByteOrder.Uint64(src[16+8*i:])
	}
}

// SignalSetup redirects regs into a handler whose frame was written at frame.
// The handler is entered as handler(signo, info, ucontext) and returns to
// restorer.
func (r *Registers) SignalSetup(frame hostarch.Addr, sig linux.Signal, handler, restorer hostarch.Addr) {
	r.SetStack(frame)
	r.Regs[RegA0] = uint64(sig)
	r.Regs[RegA1] = uint64(SignalInfoAddr(frame))
	r.Regs[RegA2] = uint64(frame)
	r.SetReturnAddress(restorer)
	r.SetIP(handler)
}

// SignalRestore reinstates the program counter and the general purpose
// registers from uc, then pops the frame that started at frame. The one
// exception is sp: the value saved in uc is ignored and sp becomes
// frame + SignalFrameSize.
func (r *Registers) SignalRestore(frame hostarch.Addr, uc *UContext64) {
	r.Epc = uc.MContext.PC
	r.Regs = uc.MContext.Regs
	r.SetStack(frame + SignalFrameSize)
}
