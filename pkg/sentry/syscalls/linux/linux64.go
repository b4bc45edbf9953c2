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

// Package linux provides syscall tables for the riscv64 Linux ABI.
package linux

import (
	"gvisor.dev/sigcore/pkg/errors/linuxerr"
	"gvisor.dev/sigcore/pkg/sentry/kernel"
	"gvisor.dev/sigcore/pkg/sentry/syscalls"
)

// Syscall numbers from the riscv64 (asm-generic) Linux ABI.
const (
	SysKill           = 129
	SysTkill          = 130
	SysTgkill         = 131
	SysSigaltstack    = 132
	SysRtSigsuspend   = 133
	SysRtSigaction    = 134
	SysRtSigprocmask  = 135
	SysRtSigpending   = 136
	SysRtSigtimedwait = 137
	SysRtSigqueueinfo = 138
	SysRtSigreturn    = 139
)

// RISCV64 is a table of the signal syscalls of the Linux riscv64 syscall
// API. The neighbouring signal syscalls that have no implementation report
// themselves through the event channel.
var RISCV64 = &kernel.SyscallTable{
	Table: map[uintptr]kernel.Syscall{
		SysKill:           syscalls.Supported("kill", Kill),
		SysTkill:          syscalls.ErrorWithEvent("tkill", linuxerr.ENOSYS),
		SysTgkill:         syscalls.ErrorWithEvent("tgkill", linuxerr.ENOSYS),
		SysSigaltstack:    syscalls.ErrorWithEvent("sigaltstack", linuxerr.ENOSYS),
		SysRtSigsuspend:   syscalls.ErrorWithEvent("rt_sigsuspend", linuxerr.ENOSYS),
		SysRtSigaction:    syscalls.Supported("rt_sigaction", RtSigaction),
		SysRtSigprocmask:  syscalls.Supported("rt_sigprocmask", RtSigprocmask),
		SysRtSigpending:   syscalls.Supported("rt_sigpending", RtSigpending),
		SysRtSigtimedwait: syscalls.ErrorWithEvent("rt_sigtimedwait", linuxerr.ENOSYS),
		SysRtSigqueueinfo: syscalls.ErrorWithEvent("rt_sigqueueinfo", linuxerr.ENOSYS),
		SysRtSigreturn:    syscalls.Supported("rt_sigreturn", RtSigreturn),
	},
}
