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

package scenario

import (
	"fmt"
	"io"
	"strconv"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
	"gvisor.dev/sigcore/pkg/abi/linux"
	"gvisor.dev/sigcore/pkg/errors/linuxerr"
	"gvisor.dev/sigcore/pkg/hostarch"
	"gvisor.dev/sigcore/pkg/log"
	"gvisor.dev/sigcore/pkg/marshal/primitive"
	"gvisor.dev/sigcore/pkg/sentry/arch"
	"gvisor.dev/sigcore/pkg/sentry/kernel"
	syslinux "gvisor.dev/sigcore/pkg/sentry/syscalls/linux"
)

// Runner executes scenarios against one kernel.
type Runner struct {
	k     *kernel.Kernel
	out   io.Writer
	procs map[string]*kernel.Process
}

// NewRunner returns a Runner for k that reports each step to out.
func NewRunner(k *kernel.Kernel, out io.Writer) *Runner {
	return &Runner{
		k:     k,
		out:   out,
		procs: make(map[string]*kernel.Process),
	}
}

// Process returns the process created under name, or nil.
func (r *Runner) Process(name string) *kernel.Process {
	return r.procs[name]
}

// Run executes every step of s in order and stops at the first step that
// fails or does not fail the way it is expected to.
func (r *Runner) Run(s *Scenario) error {
	log.Infof("Running scenario %q, %d steps", s.Name, len(s.Steps))
	for i := range s.Steps {
		step := &s.Steps[i]
		detail, err := r.step(step)
		if err := checkError(step, err); err != nil {
			fmt.Fprintf(r.out, "%3d %-16s FAIL: %v\n", i+1, step.Op, err)
			return fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
		if err != nil {
			detail = fmt.Sprintf("%s (failed as expected: %s)", detail, errnoName(err))
		}
		fmt.Fprintf(r.out, "%3d %-16s %s\n", i+1, step.Op, detail)
	}
	return nil
}

// checkError compares the outcome of a step with its expected error.
func checkError(step *Step, err error) error {
	switch {
	case step.Error == "" && err != nil:
		return err
	case step.Error != "" && err == nil:
		return fmt.Errorf("succeeded, want %s", step.Error)
	case step.Error != "" && errnoName(err) != step.Error:
		return fmt.Errorf("failed with %s, want %s", errnoName(err), step.Error)
	}
	return nil
}

// errnoName returns the errno name carried by err, or its text.
func errnoName(err error) string {
	if e, ok := linuxerr.TranslateError(err); ok {
		return unix.ErrnoName(linuxerr.ToUnix(e))
	}
	return err.Error()
}

func (r *Runner) lookup(name string) (*kernel.Process, error) {
	p, ok := r.procs[name]
	if !ok {
		return nil, fmt.Errorf("no process named %q", name)
	}
	return p, nil
}

func (r *Runner) step(s *Step) (string, error) {
	switch s.Op {
	case "spawn":
		return r.spawn(s)
	case "fork":
		return r.fork(s)
	case "exec":
		return r.withProcess(s, func(p *kernel.Process) (string, error) {
			p.Exec(hostarch.Addr(s.Entry))
			return fmt.Sprintf("%v at %#x", p, s.Entry), nil
		})
	case "sigaction":
		return r.withProcess(s, func(p *kernel.Process) (string, error) {
			return r.sigaction(p, s)
		})
	case "sigprocmask":
		return r.withProcess(s, func(p *kernel.Process) (string, error) {
			return r.sigprocmask(p, s)
		})
	case "raise":
		return r.raise(s)
	case "raise_concurrent":
		return r.raiseConcurrent(s)
	case "sleep":
		return r.withProcess(s, func(p *kernel.Process) (string, error) {
			if !p.Sleep() {
				return fmt.Sprintf("%v", p), linuxerr.EINTR
			}
			return fmt.Sprintf("%v sleeping", p), nil
		})
	case "schedule":
		return r.schedule(s)
	case "checkpoint":
		return r.withProcess(s, func(p *kernel.Process) (string, error) {
			exited, err := p.ReturnToUser()
			if exited {
				_, status := p.Killed()
				return fmt.Sprintf("%v exited with status %d", p, status), err
			}
			return fmt.Sprintf("%v resumes at %v", p, p.Registers().IP()), err
		})
	case "sigreturn":
		return r.withProcess(s, func(p *kernel.Process) (string, error) {
			err := p.SignalReturn()
			return fmt.Sprintf("%v resumes at %v", p, p.Registers().IP()), err
		})
	case "syscall":
		return r.withProcess(s, func(p *kernel.Process) (string, error) {
			return r.syscall(p, s)
		})
	case "poke":
		return r.withProcess(s, func(p *kernel.Process) (string, error) {
			addr := hostarch.Addr(s.Addr)
			for i, w := range s.Words {
				if _, err := primitive.CopyUint64Out(p, addr+hostarch.Addr(8*i), w); err != nil {
					return fmt.Sprintf("%v at %v", p, addr), err
				}
			}
			return fmt.Sprintf("%d words at %v", len(s.Words), addr), nil
		})
	case "setregs":
		return r.withProcess(s, func(p *kernel.Process) (string, error) {
			for name, v := range s.Regs {
				if err := setRegister(p.Registers(), name, v); err != nil {
					return "", err
				}
			}
			return p.Registers().String(), nil
		})
	case "reap":
		return r.withProcess(s, func(p *kernel.Process) (string, error) {
			pid := p.PID()
			if err := r.k.Reap(p); err != nil {
				return fmt.Sprintf("pid %d", pid), err
			}
			delete(r.procs, s.Process)
			return fmt.Sprintf("pid %d", pid), nil
		})
	case "expect":
		return r.withProcess(s, func(p *kernel.Process) (string, error) {
			return r.expect(p, s.Expect)
		})
	default:
		return "", fmt.Errorf("unknown op %q", s.Op)
	}
}

func (r *Runner) withProcess(s *Step, f func(p *kernel.Process) (string, error)) (string, error) {
	p, err := r.lookup(s.Process)
	if err != nil {
		return "", err
	}
	return f(p)
}

func (r *Runner) spawn(s *Step) (string, error) {
	if _, ok := r.procs[s.Name]; ok || s.Name == "" {
		return "", fmt.Errorf("invalid or duplicate process name %q", s.Name)
	}
	p, err := r.k.CreateProcess(hostarch.Addr(s.Entry))
	if err != nil {
		return s.Name, err
	}
	r.procs[s.Name] = p
	return fmt.Sprintf("%s is %v", s.Name, p), nil
}

func (r *Runner) fork(s *Step) (string, error) {
	parent, err := r.lookup(s.Process)
	if err != nil {
		return "", err
	}
	if _, ok := r.procs[s.Name]; ok || s.Name == "" {
		return "", fmt.Errorf("invalid or duplicate process name %q", s.Name)
	}
	child, err := r.k.Fork(parent)
	if err != nil {
		return s.Name, err
	}
	r.procs[s.Name] = child
	return fmt.Sprintf("%s is %v, child of %v", s.Name, child, parent), nil
}

func (r *Runner) sigaction(p *kernel.Process, s *Step) (string, error) {
	sig, err := ParseSignal(s.Signal)
	if err != nil {
		return "", err
	}
	mask, err := ParseSignalSet(s.Mask)
	if err != nil {
		return "", err
	}
	act := kernel.SignalAction{Mask: mask}
	switch s.Action {
	case "", "default":
		act.Kind = kernel.ActionDefault
	case "ignore":
		act.Kind = kernel.ActionIgnore
	case "handler":
		act.Kind = kernel.ActionHandler
		act.Handler = hostarch.Addr(s.Handler)
		act.Restorer = hostarch.Addr(s.Restorer)
	default:
		return "", fmt.Errorf("unknown action %q", s.Action)
	}
	old, err := p.SetSigAction(sig, act)
	return fmt.Sprintf("%v %v: %v (was %v)", p, sig, act, old), err
}

func (r *Runner) sigprocmask(p *kernel.Process, s *Step) (string, error) {
	set, err := ParseSignalSet(s.Signals)
	if err != nil {
		return "", err
	}
	old := p.SignalMask()
	switch s.How {
	case "block":
		p.SetSignalMask(old | set)
	case "unblock":
		p.SetSignalMask(old &^ set)
	case "setmask":
		p.SetSignalMask(set)
	default:
		return "", linuxerr.EINVAL
	}
	return fmt.Sprintf("%v mask %s -> %s", p, FormatSignalSet(old), FormatSignalSet(p.SignalMask())), nil
}

// target resolves the destination pid of a raise.
func (r *Runner) target(s *Step) (kernel.ProcessID, error) {
	if s.Pid != nil {
		return kernel.ProcessID(*s.Pid), nil
	}
	p, err := r.lookup(s.To)
	if err != nil {
		return 0, err
	}
	return p.PID(), nil
}

func (r *Runner) sender(s *Step) (*kernel.Process, error) {
	if s.From == "" {
		return nil, nil
	}
	return r.lookup(s.From)
}

func (r *Runner) raise(s *Step) (string, error) {
	pid, err := r.target(s)
	if err != nil {
		return "", err
	}
	from, err := r.sender(s)
	if err != nil {
		return "", err
	}
	sig, err := parseRaisedSignal(s.Signal)
	if err != nil {
		return "", err
	}
	err = r.k.SendSignal(pid, kernel.SignalInfoUser(sig, from, s.Code))
	return fmt.Sprintf("%v -> pid %d", sig, pid), err
}

// parseRaisedSignal is ParseSignal without the range check, so that
// scenarios can exercise rejection of invalid numbers.
func parseRaisedSignal(s string) (linux.Signal, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return linux.Signal(n), nil
	}
	return ParseSignal(s)
}

func (r *Runner) raiseConcurrent(s *Step) (string, error) {
	pid, err := r.target(s)
	if err != nil {
		return "", err
	}
	from, err := r.sender(s)
	if err != nil {
		return "", err
	}
	var sigs []linux.Signal
	for _, name := range s.Signals {
		sig, err := ParseSignal(name)
		if err != nil {
			return "", err
		}
		sigs = append(sigs, sig)
	}
	var g errgroup.Group
	for _, sig := range sigs {
		g.Go(func() error {
			return r.k.SendSignal(pid, kernel.SignalInfoUser(sig, from, s.Code))
		})
	}
	return fmt.Sprintf("%d signals -> pid %d", len(sigs), pid), g.Wait()
}

func (r *Runner) schedule(s *Step) (string, error) {
	p := r.k.Schedule()
	if p == nil {
		if s.Process != "" {
			return "", fmt.Errorf("nothing runnable, want %q", s.Process)
		}
		return "nothing runnable", nil
	}
	if s.Process != "" && r.procs[s.Process] != p {
		return "", fmt.Errorf("scheduled %v, want %q", p, s.Process)
	}
	return fmt.Sprintf("%v running", p), nil
}

func (r *Runner) syscall(p *kernel.Process, s *Step) (string, error) {
	if len(s.Args) > 6 {
		return "", fmt.Errorf("too many syscall arguments: %d", len(s.Args))
	}
	regs := p.Registers()
	regs.Regs[arch.RegA7] = s.Sysno
	for i, a := range s.Args {
		regs.Regs[arch.RegA0+i] = a
	}
	p.HandleSyscall()
	ret := int64(regs.Return())
	detail := fmt.Sprintf("%v sys_%d = %d", p, s.Sysno, ret)
	// rt_sigreturn leaves the restored a0 in place, not a return value.
	if s.Sysno == syslinux.SysRtSigreturn {
		return detail, nil
	}
	if ret < 0 && ret >= -4095 {
		if e, ok := linuxerr.TranslateError(unix.Errno(-ret)); ok {
			return detail, e
		}
	}
	return detail, nil
}

func setRegister(regs *arch.Registers, name string, v uint64) error {
	if name == "pc" {
		regs.SetIP(hostarch.Addr(v))
		return nil
	}
	for i, n := range arch.RegisterNames {
		if n == name {
			regs.Regs[i] = v
			return nil
		}
	}
	return fmt.Errorf("unknown register %q", name)
}

func register(regs *arch.Registers, name string) (uint64, error) {
	if name == "pc" {
		return uint64(regs.IP()), nil
	}
	for i, n := range arch.RegisterNames {
		if n == name {
			return regs.Regs[i], nil
		}
	}
	return 0, fmt.Errorf("unknown register %q", name)
}
