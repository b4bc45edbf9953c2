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
	"errors"
	"fmt"
	"sort"

	"gvisor.dev/sigcore/pkg/sentry/kernel"
)

// expect checks e against p and reports every mismatch at once.
func (r *Runner) expect(p *kernel.Process, e *Expectation) (string, error) {
	if e == nil {
		return "", fmt.Errorf("expect step without an expect table")
	}
	var errs []error
	mismatch := func(what string, got, want any) {
		errs = append(errs, fmt.Errorf("%s = %v, want %v", what, got, want))
	}

	if e.Pending != nil {
		want, err := ParseSignalSet(e.Pending)
		if err != nil {
			return "", err
		}
		if got := p.PendingSignals(); got != want {
			mismatch("pending", FormatSignalSet(got), FormatSignalSet(want))
		}
	}
	if e.Mask != nil {
		want, err := ParseSignalSet(e.Mask)
		if err != nil {
			return "", err
		}
		if got := p.SignalMask(); got != want {
			mismatch("mask", FormatSignalSet(got), FormatSignalSet(want))
		}
	}
	if e.State != "" {
		if got := p.State().String(); got != e.State {
			mismatch("state", got, e.State)
		}
	}
	killed, status := p.Killed()
	if e.Killed != nil && killed != *e.Killed {
		mismatch("killed", killed, *e.Killed)
	}
	if e.Status != nil && status != *e.Status {
		mismatch("status", status, *e.Status)
	}

	regs := p.Registers()
	if e.PC != nil && uint64(regs.IP()) != *e.PC {
		mismatch("pc", regs.IP(), fmt.Sprintf("%#x", *e.PC))
	}
	if e.SP != nil && uint64(regs.Stack()) != *e.SP {
		mismatch("sp", regs.Stack(), fmt.Sprintf("%#x", *e.SP))
	}
	if e.Return != nil && int64(regs.Return()) != *e.Return {
		mismatch("a0", int64(regs.Return()), *e.Return)
	}
	for _, name := range sortedKeys(e.Regs) {
		got, err := register(regs, name)
		if err != nil {
			return "", err
		}
		if want := e.Regs[name]; got != want {
			mismatch(name, fmt.Sprintf("%#x", got), fmt.Sprintf("%#x", want))
		}
	}
	for _, name := range sortedKeys(e.Action) {
		sig, err := ParseSignal(name)
		if err != nil {
			return "", err
		}
		act, err := p.SigAction(sig)
		if err != nil {
			return "", err
		}
		if got, want := act.Kind.String(), e.Action[name]; got != want {
			mismatch("action of "+sig.String(), got, want)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return "", err
	}
	return fmt.Sprintf("%v ok", p), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
