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
	"gvisor.dev/sigcore/pkg/abi/linux"
	"gvisor.dev/sigcore/pkg/hostarch"
	"gvisor.dev/sigcore/pkg/sentry/arch"
	"gvisor.dev/sigcore/sigctl/config"
)

// Frame implements subcommands.Command for the "frame" command.
type Frame struct {
	sp uint64
}

// Name implements subcommands.Command.Name.
func (*Frame) Name() string {
	return "frame"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Frame) Synopsis() string {
	return "print the layout of a signal frame"
}

// Usage implements subcommands.Command.Usage.
func (*Frame) Usage() string {
	return `frame [-sp=<addr>] - print where each field of a signal frame pushed below sp is stored.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (f *Frame) SetFlags(fs *flag.FlagSet) {
	fs.Uint64Var(&f.sp, "sp", 0, "user stack pointer at delivery. Defaults to the top of process memory.")
}

// Execute implements subcommands.Command.Execute.
func (f *Frame) Execute(_ context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	conf := args[0].(*config.Config)
	sp := hostarch.Addr(f.sp)
	if sp == 0 {
		sp = hostarch.Addr(conf.MemoryBase + conf.MemorySize)
	}
	frame, ok := arch.SignalFrameBelow(sp)
	if !ok {
		Fatalf("a %d byte frame does not fit below %v", arch.SignalFrameSize, sp)
	}
	if frame < hostarch.Addr(conf.MemoryBase) {
		Infof("Frame at %v is below process memory at %#x, delivery would fault", frame, conf.MemoryBase)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "ADDRESS\tOFFSET\tSIZE\tFIELD\n")
	field := func(off, size int, name string) {
		fmt.Fprintf(w, "%v\t%d\t%d\t%s\n", frame+hostarch.Addr(off), off, size, name)
	}
	field(0, linux.SignalSetSize, "ucontext.sigmask")
	field(linux.SignalSetSize, hostarch.Width, "ucontext.mcontext.pc")
	for i, name := range arch.RegisterNames {
		field(linux.SignalSetSize+hostarch.Width*(1+i), hostarch.Width, "ucontext.mcontext."+name)
	}
	info := arch.SizeOfUContext64
	field(info, 4, "siginfo.signo")
	field(info+4, 4, "siginfo.errno")
	field(info+8, 4, "siginfo.code")
	field(info+16, linux.SizeOfSignalInfo-16, "siginfo.fields")
	if err := w.Flush(); err != nil {
		Fatalf("writing output: %v", err)
	}
	fmt.Fprintf(os.Stdout, "\nhandler entry: sp=a2=%v a1=%v, sigreturn restores sp=%v\n", frame, arch.SignalInfoAddr(frame), sp)
	return subcommands.ExitSuccess
}
