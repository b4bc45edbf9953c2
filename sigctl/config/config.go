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

// Package config provides basic infrastructure to set configuration settings
// for sigctl. Each setting that can be changed from the command line must have
// the `flag:"name"` tag. Flags are registered by RegisterFlags and read back
// into a Config by NewFromFlags.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gvisor.dev/sigcore/pkg/eventchannel"
	"gvisor.dev/sigcore/pkg/hostarch"
	"gvisor.dev/sigcore/pkg/log"
	"gvisor.dev/sigcore/pkg/sentry/kernel"
	"gvisor.dev/sigcore/pkg/sentry/syscalls/linux"
)

// Config holds configuration that is not part of a scenario.
type Config struct {
	// MaxProcesses is the size of the process table.
	MaxProcesses int `flag:"max-processes"`

	// MemoryBase is the lowest user address of every process.
	MemoryBase uint64 `flag:"memory-base"`

	// MemorySize is the size of each process's address space.
	MemorySize uint64 `flag:"memory-size"`

	// FaultLogInterval is the minimum interval between frame fault warnings.
	FaultLogInterval time.Duration `flag:"fault-log-interval"`

	// Debug indicates that debug logging should be enabled.
	Debug bool `flag:"debug"`

	// LogLevel is the lowest level logged when Debug is not set: "warning",
	// "info" or "debug".
	LogLevel string `flag:"log-level"`

	// LogFormat is the log format: "text" or "json".
	LogFormat string `flag:"log-format"`

	// DebugLog is the path to log debug information to, if not empty. It may
	// contain %TIMESTAMP% and %COMMAND%.
	DebugLog string `flag:"debug-log"`

	// Events is where kernel events are written: a file path, "-" for
	// stdout, or empty for none.
	Events string `flag:"events"`

	// EventsFormat is "binary" for length-prefixed protobuf Any messages, or
	// "json" for one protojson message per line.
	EventsFormat string `flag:"events-format"`

	// EventsRate is the maximum number of events per second. Zero means
	// unlimited.
	EventsRate float64 `flag:"events-rate"`

	// EventsBurst is the number of events that may exceed EventsRate at
	// once.
	EventsBurst int `flag:"events-burst"`
}

func (c *Config) validate() error {
	if c.MaxProcesses <= 0 {
		return fmt.Errorf("max-processes must be positive, got %d", c.MaxProcesses)
	}
	if c.MemorySize == 0 || c.MemorySize%hostarch.PageSize != 0 {
		return fmt.Errorf("memory-size must be a non-zero multiple of %d, got %d", hostarch.PageSize, c.MemorySize)
	}
	if c.MemoryBase%hostarch.PageSize != 0 {
		return fmt.Errorf("memory-base must be page aligned, got %#x", c.MemoryBase)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log-level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format %q, must be 'text' or 'json'", c.LogFormat)
	}
	switch c.EventsFormat {
	case "binary", "json":
	default:
		return fmt.Errorf("invalid events-format %q, must be 'binary' or 'json'", c.EventsFormat)
	}
	if c.EventsRate < 0 || c.EventsBurst < 0 {
		return fmt.Errorf("events-rate and events-burst must not be negative")
	}
	return nil
}

// Log logs important aspects of the configuration to the given log function.
func (c *Config) Log() {
	log.Infof("Config.MaxProcesses: %d", c.MaxProcesses)
	log.Infof("Config.Memory: base %#x, size %#x", c.MemoryBase, c.MemorySize)
	log.Infof("Config.Debug: %t, LogLevel: %s", c.Debug, c.LogLevel)
	log.Infof("Config.LogFormat: %s", c.LogFormat)
	log.Infof("Config.DebugLog: %s", c.DebugLog)
	log.Infof("Config.Events: %q (%s, rate %g, burst %d)", c.Events, c.EventsFormat, c.EventsRate, c.EventsBurst)
}

// Level returns the log level selected by Debug and LogLevel.
func (c *Config) Level() log.Level {
	if c.Debug {
		return log.Debug
	}
	l, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.Info
	}
	return l
}

// NewEmitter returns the log emitter selected by LogFormat.
func (c *Config) NewEmitter(w io.Writer) log.Emitter {
	if c.LogFormat == "json" {
		return log.JSONEmitter{Writer: &log.Writer{Next: w}}
	}
	return log.GoogleEmitter{Emitter: &log.Writer{Next: w}}
}

// OpenEvents returns the event emitter selected by Events and EventsFormat,
// or nil if events are disabled.
func (c *Config) OpenEvents() (eventchannel.Emitter, error) {
	var w io.WriteCloser
	switch c.Events {
	case "":
		return nil, nil
	case "-":
		w = nopCloser{os.Stdout}
	default:
		f, err := os.OpenFile(c.Events, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening events file: %w", err)
		}
		w = f
	}
	var e eventchannel.Emitter
	if c.EventsFormat == "json" {
		e = eventchannel.JSONEmitter(w)
	} else {
		e = eventchannel.WriterEmitter(w)
	}
	if c.EventsRate > 0 {
		burst := c.EventsBurst
		if burst == 0 {
			burst = 1
		}
		e = eventchannel.RateLimitedEmitterFrom(e, c.EventsRate, burst)
	}
	return e, nil
}

// KernelArgs returns the kernel arguments described by c, with the riscv64
// signal syscall table. The caller supplies the emitter.
func (c *Config) KernelArgs(emitter eventchannel.Emitter) kernel.InitKernelArgs {
	return kernel.InitKernelArgs{
		MaxProcesses:     c.MaxProcesses,
		MemoryBase:       hostarch.Addr(c.MemoryBase),
		MemorySize:       c.MemorySize,
		SyscallTable:     linux.RISCV64,
		Emitter:          emitter,
		FaultLogInterval: c.FaultLogInterval,
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
