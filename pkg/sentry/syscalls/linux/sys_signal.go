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

package linux

import (
	"gvisor.dev/sigcore/pkg/abi/linux"
	"gvisor.dev/sigcore/pkg/errors/linuxerr"
	"gvisor.dev/sigcore/pkg/sentry/arch"
	"gvisor.dev/sigcore/pkg/sentry/kernel"
)

// Kill implements kill(2), extended with the si_code to report to the
// target. Only positive pids are supported; there are no process groups.
func Kill(p *kernel.Process, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	pid := kernel.ProcessID(args[0].Int())
	sig := linux.Signal(args[1].Int())
	code := args[2].Int()

	if !sig.IsValid() {
		return 0, nil, linuxerr.EINVAL
	}
	if pid <= 0 {
		return 0, nil, linuxerr.ESRCH
	}
	return 0, nil, p.Kernel().SendSignal(pid, kernel.SignalInfoUser(sig, p, code))
}

// RtSigaction implements linux syscall rt_sigaction(2).
//
// The old action is copied out before the new one is copied in. A fault on
// either pointer leaves the disposition table untouched.
func RtSigaction(p *kernel.Process, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	sig := linux.Signal(args[0].Int())
	newactarg := args[1].Pointer()
	oldactarg := args[2].Pointer()

	oldact, err := p.SigAction(sig)
	if err != nil {
		return 0, nil, err
	}
	if oldactarg != 0 {
		abi := oldact.ABI()
		if _, err := abi.CopyOut(p, oldactarg); err != nil {
			return 0, nil, err
		}
	}
	if newactarg != 0 {
		var newact linux.SigAction
		if _, err := newact.CopyIn(p, newactarg); err != nil {
			return 0, nil, err
		}
		if _, err := p.SetSigAction(sig, kernel.SignalActionFromABI(&newact)); err != nil {
			return 0, nil, err
		}
	}
	return 0, nil, nil
}

// RtSigreturn implements linux syscall rt_sigreturn(2).
func RtSigreturn(p *kernel.Process, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	if err := p.SignalReturn(); err != nil {
		return 0, nil, err
	}
	return 0, kernel.CtrlDoNotWriteReturn, nil
}

// RtSigprocmask implements linux syscall rt_sigprocmask(2).
func RtSigprocmask(p *kernel.Process, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	how := args[0].Int()
	setaddr := args[1].Pointer()
	oldaddr := args[2].Pointer()

	oldmask := p.SignalMask()
	if setaddr != 0 {
		mask, err := copyInSigSet(p, setaddr)
		if err != nil {
			return 0, nil, err
		}

		switch how {
		case linux.SIG_BLOCK:
			p.SetSignalMask(oldmask | mask)
		case linux.SIG_UNBLOCK:
			p.SetSignalMask(oldmask &^ mask)
		case linux.SIG_SETMASK:
			p.SetSignalMask(mask)
		default:
			return 0, nil, linuxerr.EINVAL
		}
	}
	if oldaddr != 0 {
		return 0, nil, copyOutSigSet(p, oldaddr, oldmask)
	}

	return 0, nil, nil
}

// RtSigpending implements linux syscall rt_sigpending(2).
func RtSigpending(p *kernel.Process, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	addr := args[0].Pointer()
	return 0, nil, copyOutSigSet(p, addr, p.PendingSignals())
}
