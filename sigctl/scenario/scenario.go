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

// Package scenario drives a simulated kernel through a scripted sequence of
// process and signal operations described in TOML.
package scenario

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/sys/unix"
	"gvisor.dev/sigcore/pkg/abi/linux"
)

// Scenario is a named sequence of steps.
type Scenario struct {
	// Name is reported in logs and events.
	Name string `toml:"name"`

	// Steps run in order. A failing step ends the scenario.
	Steps []Step `toml:"step"`
}

// Step is one scripted operation. Op selects the operation; the other fields
// are interpreted by it.
type Step struct {
	Op string `toml:"op"`

	// Process names the process the step acts on. Name names a process
	// created by the step.
	Process string `toml:"process"`
	Name    string `toml:"name"`

	// From optionally names the sender of a raise; To names its target.
	// Pid targets a raw process id instead of To.
	From string `toml:"from"`
	To   string `toml:"to"`
	Pid  *int32 `toml:"pid"`

	Signal  string   `toml:"signal"`
	Signals []string `toml:"signals"`
	Code    int32    `toml:"code"`

	// Action is "default", "ignore" or "handler".
	Action   string   `toml:"action"`
	Handler  uint64   `toml:"handler"`
	Restorer uint64   `toml:"restorer"`
	Mask     []string `toml:"mask"`

	// How is "block", "unblock" or "setmask".
	How string `toml:"how"`

	Entry uint64 `toml:"entry"`

	// Sysno and Args describe a raw syscall.
	Sysno uint64   `toml:"sysno"`
	Args  []uint64 `toml:"args"`

	// Addr and Words describe user memory for "poke".
	Addr  uint64   `toml:"addr"`
	Words []uint64 `toml:"words"`

	// Regs sets registers by ABI name for "setregs".
	Regs map[string]uint64 `toml:"regs"`

	// Error is the errno name the step is expected to fail with, if any.
	Error string `toml:"error"`

	// Expect holds assertions for "expect".
	Expect *Expectation `toml:"expect"`
}

// Expectation holds assertions about one process. Unset fields are not
// checked.
type Expectation struct {
	Pending []string          `toml:"pending"`
	Mask    []string          `toml:"mask"`
	State   string            `toml:"state"`
	Killed  *bool             `toml:"killed"`
	Status  *int              `toml:"status"`
	PC      *uint64           `toml:"pc"`
	SP      *uint64           `toml:"sp"`
	Regs    map[string]uint64 `toml:"regs"`
	Action  map[string]string `toml:"action"`
	Return  *int64            `toml:"return"`
}

// Decode parses a scenario.
func Decode(data string) (*Scenario, error) {
	var s Scenario
	md, err := toml.Decode(data, &s)
	if err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown scenario keys: %v", undecoded)
	}
	return &s, nil
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	var s Scenario
	md, err := toml.DecodeFile(path, &s)
	if err != nil {
		return nil, fmt.Errorf("loading scenario %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in scenario %q: %v", path, undecoded)
	}
	if s.Name == "" {
		s.Name = path
	}
	return &s, nil
}

// ParseSignal parses a signal given by number, by name, or by name without
// the SIG prefix.
func ParseSignal(s string) (linux.Signal, error) {
	if n, err := strconv.Atoi(s); err == nil {
		sig := linux.Signal(n)
		if !sig.IsValid() {
			return 0, fmt.Errorf("signal %d out of range", n)
		}
		return sig, nil
	}
	name := strings.ToUpper(s)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	if n := unix.SignalNum(name); n != 0 {
		return linux.Signal(n), nil
	}
	return 0, fmt.Errorf("unknown signal %q", s)
}

// ParseSignalSet parses a list of signals.
func ParseSignalSet(names []string) (linux.SignalSet, error) {
	var set linux.SignalSet
	for _, n := range names {
		sig, err := ParseSignal(n)
		if err != nil {
			return 0, err
		}
		set |= linux.SignalSetOf(sig)
	}
	return set, nil
}

// FormatSignalSet lists the signals in set by name.
func FormatSignalSet(set linux.SignalSet) string {
	var names []string
	linux.ForEachSignal(set, func(sig linux.Signal) {
		names = append(names, sig.String())
	})
	return "[" + strings.Join(names, " ") + "]"
}
