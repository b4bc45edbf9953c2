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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSignalValidity(t *testing.T) {
	for _, tc := range []struct {
		sig  Signal
		want bool
	}{
		{0, false},
		{-1, false},
		{SIGHUP, true},
		{SIGKILL, true},
		{SignalMaximum, true},
		{SignalMaximum + 1, false},
	} {
		if got := tc.sig.IsValid(); got != tc.want {
			t.Errorf("Signal(%d).IsValid() = %t, want %t", tc.sig, got, tc.want)
		}
	}
}

func TestSignalSetLowest(t *testing.T) {
	for _, tc := range []struct {
		set  SignalSet
		want Signal
	}{
		{0, 0},
		{SignalSetOf(SIGHUP), SIGHUP},
		{MakeSignalSet(SIGTERM, SIGUSR1, SIGUSR2), SIGUSR1},
		{SignalSetOf(SignalMaximum), SignalMaximum},
	} {
		if got := tc.set.Lowest(); got != tc.want {
			t.Errorf("%#x.Lowest() = %v, want %v", uint64(tc.set), got, tc.want)
		}
	}
}

func TestForEachSignalAscending(t *testing.T) {
	set := MakeSignalSet(SIGTERM, SIGHUP, SignalMaximum, SIGUSR1)
	var got []Signal
	ForEachSignal(set, func(sig Signal) {
		got = append(got, sig)
	})
	want := []Signal{SIGHUP, SIGUSR1, SIGTERM, SignalMaximum}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ForEachSignal order mismatch (-want +got):\n%s", diff)
	}
}

func TestSignalSetContains(t *testing.T) {
	set := MakeSignalSet(SIGINT, SIGCHLD)
	if !set.Contains(SIGINT) || !set.Contains(SIGCHLD) {
		t.Errorf("%#x should contain SIGINT and SIGCHLD", uint64(set))
	}
	if set.Contains(SIGQUIT) {
		t.Errorf("%#x should not contain SIGQUIT", uint64(set))
	}
}

func TestSigActionLayout(t *testing.T) {
	act := SigAction{
		Handler:  0x10000,
		Mask:     MakeSignalSet(SIGUSR2),
		Restorer: 0x20000,
	}
	buf := make([]byte, act.SizeBytes())
	act.MarshalBytes(buf)
	// The handler, mask, and restorer occupy consecutive words.
	if got := buf[0:3]; got[0] != 0 || got[1] != 0 || got[2] != 1 {
		t.Errorf("handler bytes = %v, want [0 0 1]", got)
	}
	if got := buf[9]; got != 1<<(SIGUSR2.Index()-8) {
		t.Errorf("mask byte 1 = %#x, want %#x", got, 1<<(SIGUSR2.Index()-8))
	}
	if got := buf[18]; got != 2 {
		t.Errorf("restorer byte 2 = %#x, want 0x2", got)
	}
}

func TestSignalInfoFields(t *testing.T) {
	var info SignalInfo
	info.Signo = int32(SIGUSR1)
	info.Code = SI_USER
	info.SetPID(42)
	info.SetUID(1000)

	buf := make([]byte, SizeOfSignalInfo)
	info.MarshalBytes(buf)
	var got SignalInfo
	got.UnmarshalBytes(buf)
	if got.Signo != int32(SIGUSR1) || got.PID() != 42 || got.UID() != 1000 {
		t.Errorf("got signo=%d pid=%d uid=%d, want signo=%d pid=42 uid=1000", got.Signo, got.PID(), got.UID(), SIGUSR1)
	}
}
