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

// Package syscalls is the interface from the application to the kernel.
// Traditionally, syscalls is the interface that is used by applications to
// request services from the kernel of a operating system. We provide a
// user-mode kernel that needs to handle those requests coming from unmodified
// applications. Therefore, we still use the term "syscalls" to denote this
// interface.
//
// Note that the stubs in this package may merely provide the interface, not
// the actual implementation. It just makes writing syscall stubs
// straightforward.
package syscalls

import (
	"google.golang.org/protobuf/types/known/structpb"
	"gvisor.dev/sigcore/pkg/eventchannel"
	"gvisor.dev/sigcore/pkg/log"
	"gvisor.dev/sigcore/pkg/sentry/arch"
	"gvisor.dev/sigcore/pkg/sentry/kernel"
)

// Supported returns a syscall that is fully supported.
func Supported(name string, fn kernel.SyscallFn) kernel.Syscall {
	return kernel.Syscall{
		Name: name,
		Fn:   fn,
	}
}

// Error returns a syscall handler that will always give the passed error.
func Error(name string, err error) kernel.Syscall {
	return kernel.Syscall{
		Name: name,
		Fn: func(*kernel.Process, arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
			return 0, nil, err
		},
	}
}

// ErrorWithEvent gives a syscall function that sends an unimplemented
// syscall event via the event channel and returns the passed error.
func ErrorWithEvent(name string, err error) kernel.Syscall {
	return kernel.Syscall{
		Name: name,
		Fn: func(p *kernel.Process, _ arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
			UnimplementedEvent(p, name)
			return 0, nil, err
		},
	}
}

// UnimplementedEvent emits an unimplemented syscall event via the event
// channel.
func UnimplementedEvent(p *kernel.Process, name string) {
	regs := p.Registers()
	ev, err := structpb.NewStruct(map[string]any{
		"event":   "unimplemented_syscall",
		"pid":     int64(p.PID()),
		"syscall": name,
		"sysno":   int64(regs.SyscallNo()),
		"pc":      float64(regs.IP()),
	})
	if err != nil {
		log.Warningf("Unable to build unimplemented syscall event: %v", err)
		return
	}
	if err := eventchannel.Emit(ev); err != nil {
		log.Debugf("Unable to emit unimplemented syscall event: %v", err)
	}
}
