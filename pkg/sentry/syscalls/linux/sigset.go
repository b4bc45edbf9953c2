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
	"gvisor.dev/sigcore/pkg/hostarch"
	"gvisor.dev/sigcore/pkg/sentry/kernel"
)

// copyInSigSet copies in a sigset_t and ensures that KILL and STOP are clear.
func copyInSigSet(p *kernel.Process, sigSetAddr hostarch.Addr) (linux.SignalSet, error) {
	var mask linux.SignalSet
	if _, err := mask.CopyIn(p, sigSetAddr); err != nil {
		return 0, err
	}
	return mask &^ kernel.UnblockableSignals, nil
}

// copyOutSigSet copies out a sigset_t.
func copyOutSigSet(p *kernel.Process, sigSetAddr hostarch.Addr, mask linux.SignalSet) error {
	_, err := mask.CopyOut(p, sigSetAddr)
	return err
}
