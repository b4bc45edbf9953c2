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

package config

import (
	"flag"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// RegisterFlags registers flags used to populate Config.
func RegisterFlags(flagSet *flag.FlagSet) {
	// Kernel sizing.
	flagSet.Int("max-processes", 64, "size of the process table.")
	flagSet.Uint64("memory-base", 0x10000, "lowest user address of every process; must be page aligned.")
	flagSet.Uint64("memory-size", 16*4096, "size in bytes of each process's address space; must be a multiple of the page size.")
	flagSet.Duration("fault-log-interval", time.Second, "minimum interval between warnings about signal frames that could not be written.")

	// Debugging flags.
	flagSet.Bool("debug", false, "enable debug logging.")
	flagSet.String("log-level", "info", "lowest level logged unless --debug is set: warning, info or debug.")
	flagSet.String("log-format", "text", "log format: text (default) or json.")
	flagSet.String("debug-log", "", "additional location for logs. The following variables are available: %TIMESTAMP%, %COMMAND%.")

	// Event flags.
	flagSet.String("events", "", "file path where kernel signal events are written, '-' for stdout. Empty disables events.")
	flagSet.String("events-format", "json", "event format: json (default) or binary.")
	flagSet.Float64("events-rate", 0, "maximum number of events per second; 0 means unlimited.")
	flagSet.Int("events-burst", 100, "number of events allowed to exceed events-rate at once.")
}

// NewFromFlags creates a new Config with values coming from command line flags.
func NewFromFlags(flagSet *flag.FlagSet) (*Config, error) {
	conf := &Config{}
	forEachFlag(conf, flagSet, func(field reflect.Value, fl *flag.Flag) {
		field.Set(reflect.ValueOf(fl.Value.(flag.Getter).Get()))
	})
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// ToFlags returns the flags that reproduce c, omitting those at their default.
func (c *Config) ToFlags() []string {
	defaults := flag.NewFlagSet("defaults", flag.ContinueOnError)
	RegisterFlags(defaults)

	var rv []string
	forEachFlag(c, defaults, func(field reflect.Value, fl *flag.Flag) {
		if val := getVal(field); val != fl.DefValue {
			rv = append(rv, fmt.Sprintf("--%s=%s", fl.Name, val))
		}
	})
	return rv
}

// forEachFlag calls fn for every field of c with a `flag` tag, together with
// the flag of that name in flagSet. Every tag must name a registered flag.
func forEachFlag(c *Config, flagSet *flag.FlagSet, fn func(field reflect.Value, fl *flag.Flag)) {
	obj := reflect.ValueOf(c).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		name, ok := st.Field(i).Tag.Lookup("flag")
		if !ok {
			continue
		}
		fl := flagSet.Lookup(name)
		if fl == nil {
			panic(fmt.Sprintf("Flag %q not found", name))
		}
		fn(obj.Field(i), fl)
	}
}

func getVal(field reflect.Value) string {
	if str, ok := field.Addr().Interface().(fmt.Stringer); ok {
		return str.String()
	}
	switch field.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(field.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(field.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(field.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(field.Float(), 'g', -1, 64)
	case reflect.String:
		return field.String()
	default:
		panic("unknown type " + field.Kind().String())
	}
}
