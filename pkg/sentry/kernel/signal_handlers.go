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
	"fmt"

	"gvisor.dev/sigcore/pkg/abi/linux"
	"gvisor.dev/sigcore/pkg/hostarch"
)

// UnblockableSignals contains the set of signals which cannot be blocked.
var UnblockableSignals = linux.MakeSignalSet(linux.SIGKILL, linux.SIGSTOP)

// ActionKind selects how a signal is disposed of.
type ActionKind uint8

// Dispositions.
const (
	// ActionDefault terminates the process.
	ActionDefault ActionKind = iota

	// ActionIgnore discards the signal.
	ActionIgnore

	// ActionHandler runs a user handler.
	ActionHandler
)

// String implements fmt.Stringer.String.
func (k ActionKind) String() string {
	switch k {
	case ActionDefault:
		return "default"
	case ActionIgnore:
		return "ignore"
	case ActionHandler:
		return "handler"
	default:
		return fmt.Sprintf("ActionKind(%d)", k)
	}
}

// SignalAction is the disposition of one signal. Handler and Restorer are
// only meaningful when Kind is ActionHandler and are zero otherwise.
type SignalAction struct {
	Kind ActionKind

	// Handler is the handler entry point.
	Handler hostarch.Addr

	// Restorer is the trampoline the handler returns into.
	Restorer hostarch.Addr

	// Mask is added to the blocked mask while the handler runs.
	Mask linux.SignalSet
}

// SignalActionFromABI decodes a struct sigaction. The reserved handler values
// SIG_DFL and SIG_IGN select the default and ignore dispositions; any other
// value is a handler address. Unblockable signals are removed from the mask.
func SignalActionFromABI(sa *linux.SigAction) SignalAction {
	switch sa.Handler {
	case linux.SIG_DFL:
		return SignalAction{Kind: ActionDefault}
	case linux.SIG_IGN:
		return SignalAction{Kind: ActionIgnore}
	default:
		return SignalAction{
			Kind:     ActionHandler,
			Handler:  hostarch.Addr(sa.Handler),
			Restorer: hostarch.Addr(sa.Restorer),
			Mask:     sa.Mask &^ UnblockableSignals,
		}
	}
}

// ABI encodes a as a struct sigaction.
func (a SignalAction) ABI() linux.SigAction {
	switch a.Kind {
	case ActionIgnore:
		return linux.SigAction{Handler: linux.SIG_IGN}
	case ActionHandler:
		return linux.SigAction{
			Handler:  uint64(a.Handler),
			Mask:     a.Mask,
			Restorer: uint64(a.Restorer),
		}
	default:
		return linux.SigAction{Handler: linux.SIG_DFL}
	}
}

// String implements fmt.Stringer.String.
func (a SignalAction) String() string {
	if a.Kind != ActionHandler {
		return a.Kind.String()
	}
	return fmt.Sprintf("handler %v (restorer %v, mask %#x)", a.Handler, a.Restorer, uint64(a.Mask))
}

// SignalState is the signal state of one process.
//
// actions and mask are owned by the process's own execution context. pending
// and infos are shared with signal senders and are protected by the owning
// Process's mu.
type SignalState struct {
	// actions is indexed by Signal.Index().
	actions [linux.NumSignals]SignalAction

	// mask is the blocked mask.
	mask linux.SignalSet

	// pending is the set of raised but undelivered signals. +checklocks:Process.mu
	pending linux.SignalSet

	// infos holds one payload per signal; a second raise overwrites the
	// first. +checklocks:Process.mu
	infos [linux.NumSignals]linux.SignalInfo
}

// Init sets every disposition to default and clears both masks.
func (s *SignalState) Init() {
	*s = SignalState{}
}

// CopyForFork initializes child from s: dispositions and blocked mask are
// copied, the child has nothing pending.
func (s *SignalState) CopyForFork(child *SignalState) {
	child.actions = s.actions
	child.mask = s.mask
	child.pending = 0
	child.infos = [linux.NumSignals]linux.SignalInfo{}
}

// ResetForExec reverts every disposition that is not ignore to default. The
// blocked and pending masks are preserved.
func (s *SignalState) ResetForExec() {
	for i := range s.actions {
		if s.actions[i].Kind != ActionIgnore {
			s.actions[i] = SignalAction{}
		}
	}
}

// Action returns the disposition of sig.
//
// Preconditions: sig.IsValid().
func (s *SignalState) Action(sig linux.Signal) SignalAction {
	return s.actions[sig.Index()]
}

// Mask returns the blocked mask.
func (s *SignalState) Mask() linux.SignalSet {
	return s.mask
}
