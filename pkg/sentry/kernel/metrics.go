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
	"google.golang.org/protobuf/types/known/structpb"
	"gvisor.dev/sigcore/pkg/abi/linux"
	"gvisor.dev/sigcore/pkg/log"
	"gvisor.dev/sigcore/pkg/metric"
)

// kernelMetrics are the counters maintained by a Kernel.
type kernelMetrics struct {
	registry *metric.Registry

	processes   *metric.Uint64Metric
	exits       *metric.Uint64Metric
	raised      *metric.Uint64Metric
	delivered   *metric.Uint64Metric
	frameFaults *metric.Uint64Metric
	sigreturns  *metric.Uint64Metric

	unknownSyscalls *metric.Uint64Metric
}

func newKernelMetrics() *kernelMetrics {
	r := metric.NewRegistry()
	return &kernelMetrics{
		registry:    r,
		processes:   r.MustCreateNewUint64Metric("/process/created", "Number of processes created, including forks."),
		exits:       r.MustCreateNewUint64Metric("/process/exited", "Number of processes that exited."),
		raised:      r.MustCreateNewUint64Metric("/signal/raised", "Number of signals raised against an existing process."),
		delivered:   r.MustCreateNewUint64Metric("/signal/delivered", "Number of signals dequeued at the return-to-user checkpoint, by disposition.", metric.NewField("action", []string{ActionDefault.String(), ActionIgnore.String(), ActionHandler.String()})),
		frameFaults: r.MustCreateNewUint64Metric("/signal/frame_faults", "Number of handler dispatches aborted because the signal frame could not be written. The signal is lost."),
		sigreturns:  r.MustCreateNewUint64Metric("/signal/sigreturns", "Number of successful returns from signal handlers."),

		unknownSyscalls: r.MustCreateNewUint64Metric("/syscall/unknown", "Number of syscalls made with a number missing from the syscall table."),
	}
}

// emit sends a signal event to the kernel's emitter, if any. sig is 0 for
// events not tied to a signal.
func (k *Kernel) emit(event string, pid ProcessID, sig linux.Signal, extra map[string]any) {
	if k.emitter == nil {
		return
	}
	fields := map[string]any{
		"event": event,
		"pid":   int64(pid),
	}
	if sig != 0 {
		fields["signo"] = int64(sig)
		fields["signal"] = sig.String()
	}
	for key, v := range extra {
		fields[key] = v
	}
	ev, err := structpb.NewStruct(fields)
	if err != nil {
		log.Warningf("Unable to build %s event: %v", event, err)
		return
	}
	if _, err := k.emitter.Emit(ev); err != nil {
		log.Debugf("Unable to emit %s event: %v", event, err)
	}
}
