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
	"text/tabwriter"

	"github.com/google/subcommands"
	"golang.org/x/sys/unix"
	"gvisor.dev/sigcore/pkg/abi/linux"
	"gvisor.dev/sigcore/pkg/sentry/kernel"
)

// Signals implements subcommands.Command for the "signals" command.
type Signals struct{}

// Name implements subcommands.Command.Name.
func (*Signals) Name() string {
	return "signals"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Signals) Synopsis() string {
	return "list signal numbers, names and default exit statuses"
}

// Usage implements subcommands.Command.Usage.
func (*Signals) Usage() string {
	return `signals - list every valid signal.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Signals) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Signals) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "NUMBER\tNAME\tHOST\tBLOCKABLE\tDEFAULT STATUS\n")
	for sig := linux.Signal(linux.SignalMinimum); sig <= linux.SignalMaximum; sig++ {
		// The host only names the standard signals.
		host := unix.SignalName(unix.Signal(sig))
		if host == "" {
			host = "-"
		}
		fmt.Fprintf(w, "%d\t%v\t%s\t%t\t%d\n", sig, sig, host, !kernel.UnblockableSignals.Contains(sig), kernel.DefaultActionStatus(sig))
	}
	if err := w.Flush(); err != nil {
		Fatalf("writing output: %v", err)
	}
	return subcommands.ExitSuccess
}
