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

package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"gvisor.dev/sigcore/pkg/eventchannel"
	"gvisor.dev/sigcore/pkg/prometheus"
	"gvisor.dev/sigcore/pkg/sentry/kernel"
	"gvisor.dev/sigcore/sigctl/config"
	"gvisor.dev/sigcore/sigctl/scenario"
)

// Run implements subcommands.Command for the "run" command.
type Run struct {
	metrics     bool
	emitMetrics bool
}

// Name implements subcommands.Command.Name.
func (*Run) Name() string {
	return "run"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Run) Synopsis() string {
	return "run signal scenarios against a fresh kernel"
}

// Usage implements subcommands.Command.Usage.
func (*Run) Usage() string {
	return `run [flags] <scenario.toml>... - run each scenario against its own kernel and report every step.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (r *Run) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.metrics, "metrics", false, "print kernel metrics in Prometheus format after each scenario.")
	f.BoolVar(&r.emitMetrics, "emit-metrics", false, "send a metric update to the event channel after each scenario.")
}

// Execute implements subcommands.Command.Execute.
func (r *Run) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() < 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)

	events, err := conf.OpenEvents()
	if err != nil {
		Fatalf("%v", err)
	}
	if events != nil {
		defer func() {
			if n := eventchannel.Dropped(events); n > 0 {
				Infof("%d events were over the rate limit and discarded", n)
			}
			events.Close()
		}()
	}

	status := subcommands.ExitSuccess
	for _, path := range f.Args() {
		s, err := scenario.Load(path)
		if err != nil {
			Fatalf("loading scenario: %v", err)
		}
		k, err := kernel.New(conf.KernelArgs(events))
		if err != nil {
			Fatalf("creating kernel: %v", err)
		}

		name := s.Name
		if name == "" {
			name = path
		}
		fmt.Fprintf(os.Stdout, "=== %s\n", name)
		if err := scenario.NewRunner(k, os.Stdout).Run(s); err != nil {
			fmt.Fprintf(os.Stdout, "--- FAIL: %s: %v\n", name, err)
			status = subcommands.ExitFailure
		} else {
			fmt.Fprintf(os.Stdout, "--- PASS: %s\n", name)
		}

		for _, p := range k.Processes() {
			killed, status := p.Killed()
			fmt.Fprintf(os.Stdout, "    %v %v pending %s mask %s", p, p.State(), scenario.FormatSignalSet(p.PendingSignals()), scenario.FormatSignalSet(p.SignalMask()))
			if killed {
				fmt.Fprintf(os.Stdout, " killed %d", status)
			}
			fmt.Fprintln(os.Stdout)
		}

		if r.metrics {
			if _, err := prometheus.Write(os.Stdout, prometheus.ExportOptions{
				CommentHeader:  fmt.Sprintf("Kernel metrics after scenario %s", name),
				ExporterPrefix: "sigctl_",
			}, k.Metrics().Snapshot()); err != nil {
				Fatalf("writing metrics: %v", err)
			}
		}
		if r.emitMetrics && events != nil {
			if err := k.Metrics().EmitMetricUpdate(events); err != nil {
				Infof("Unable to emit metric update: %v", err)
			}
		}
	}
	return status
}
