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

// Package arch provides abstractions around architecture-dependent details,
// such as syscall calling conventions, the trap frame and the signal frame.
//
// The only supported guest is riscv64.
package arch

import (
	"fmt"

	"gvisor.dev/sigcore/pkg/hostarch"
)

// NumGPRs is the number of general purpose registers saved in a trap frame.
// x0 is hardwired to zero and is not saved.
const NumGPRs = 31

// Indices into Registers.Regs. The order is the trap frame order, x1 through
// x31.
const (
	RegRA = iota
	RegSP
	RegGP
	RegTP
	RegT0
	RegT1
	RegT2
	RegS0
	RegS1
	RegA0
	RegA1
	RegA2
	RegA3
	RegA4
	RegA5
	RegA6
	RegA7
	RegS2
	RegS3
	RegS4
	RegS5
	RegS6
	RegS7
	RegS8
	RegS9
	RegS10
	RegS11
	RegT3
	RegT4
	RegT5
	RegT6
)

// RegisterNames are the ABI names of Registers.Regs, by index.
var RegisterNames = [NumGPRs]string{
	"ra", "sp", "gp", "tp", "t0", "t1", "t2", "s0", "s1",
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
	"s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10", "s11",
	"t3", "t4", "t5", "t6",
}

// SyscallWidth is the size of the ecall instruction.
const SyscallWidth = 4

// Registers is the user register state saved by the trap entry path.
type Registers struct {
	// Epc is the user program counter.
	Epc uint64

	// Regs holds x1..x31.
	Regs [NumGPRs]uint64
}

// IP returns the current instruction pointer.
func (r *Registers) IP() hostarch.Addr {
	return hostarch.Addr(r.Epc)
}

// SetIP sets the current instruction pointer.
func (r *Registers) SetIP(value hostarch.Addr) {
	r.Epc = uint64(value)
}

// Stack returns the current stack pointer.
func (r *Registers) Stack() hostarch.Addr {
	return hostarch.Addr(r.Regs[RegSP])
}

// SetStack sets the current stack pointer.
func (r *Registers) SetStack(value hostarch.Addr) {
	r.Regs[RegSP] = uint64(value)
}

// SetReturnAddress sets the address a function return jumps to.
func (r *Registers) SetReturnAddress(value hostarch.Addr) {
	r.Regs[RegRA] = uint64(value)
}

// SyscallNo returns the syscall number according to the 64-bit convention.
func (r *Registers) SyscallNo() uintptr {
	return uintptr(r.Regs[RegA7])
}

// SyscallArgs provides syscall arguments according to the 64-bit convention:
// a0 through a5.
func (r *Registers) SyscallArgs() SyscallArguments {
	var args SyscallArguments
	for i := range args {
		args[i] = SyscallArgument{Value: uintptr(r.Regs[RegA0+i])}
	}
	return args
}

// Return returns the return value for a system call.
func (r *Registers) Return() uintptr {
	return uintptr(r.Regs[RegA0])
}

// SetReturn sets the return value for a system call.
func (r *Registers) SetReturn(value uintptr) {
	r.Regs[RegA0] = uint64(value)
}

// String implements fmt.Stringer.String.
func (r *Registers) String() string {
	return fmt.Sprintf("pc=%#x sp=%#x ra=%#x a0=%#x", r.Epc, r.Regs[RegSP], r.Regs[RegRA], r.Regs[RegA0])
}

// SyscallArgument is an argument supplied to a syscall implementation. The
// methods used to access the arguments are named after the ***C type name*** and
// they convert to the closest Go type available. For example, Int() refers to a
// 32-bit signed integer argument represented in Go as an int32.
//
// Using the accessor methods guarantees that the conversion between types is
// correct, taking into account size and signedness (i.e., zero-extension vs
// signed-extension).
type SyscallArgument struct {
	// Prefer to use accessor methods instead of 'Value' directly.
	Value uintptr
}

// SyscallArguments represents the set of arguments passed to a syscall.
type SyscallArguments [6]SyscallArgument

// Pointer returns the hostarch.Addr representation of a pointer argument.
func (a SyscallArgument) Pointer() hostarch.Addr {
	return hostarch.Addr(a.Value)
}

// Int returns the int32 representation of a 32-bit signed integer argument.
func (a SyscallArgument) Int() int32 {
	return int32(a.Value)
}

// Uint returns the uint32 representation of a 32-bit unsigned integer argument.
func (a SyscallArgument) Uint() uint32 {
	return uint32(a.Value)
}

// Uint64 returns the uint64 representation of a 64-bit unsigned integer argument.
func (a SyscallArgument) Uint64() uint64 {
	return uint64(a.Value)
}
