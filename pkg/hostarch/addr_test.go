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

package hostarch

import (
	"testing"
)

func TestAddLength(t *testing.T) {
	for _, tc := range []struct {
		addr   Addr
		length uint64
		end    Addr
		ok     bool
	}{
		{0x1000, 0x10, 0x1010, true},
		{0, 0, 0, true},
		{^Addr(0), 1, 0, false},
	} {
		end, ok := tc.addr.AddLength(tc.length)
		if ok != tc.ok || (ok && end != tc.end) {
			t.Errorf("%v.AddLength(%#x) = (%v, %t), want (%v, %t)", tc.addr, tc.length, end, ok, tc.end, tc.ok)
		}
	}
}

func TestSubLength(t *testing.T) {
	if got, ok := Addr(0x1000).SubLength(0x188); !ok || got != 0xe78 {
		t.Errorf("SubLength = (%v, %t), want (0xe78, true)", got, ok)
	}
	if _, ok := Addr(0x10).SubLength(0x20); ok {
		t.Errorf("SubLength below zero succeeded")
	}
}

func TestAddrRangeContains(t *testing.T) {
	r := AddrRange{Start: 0x1000, End: 0x2000}
	if !r.Contains(0x1000) || r.Contains(0x2000) {
		t.Errorf("%v: Contains bounds wrong", r)
	}
	if !r.IsSupersetOf(AddrRange{0x1800, 0x2000}) {
		t.Errorf("%v should contain [0x1800, 0x2000)", r)
	}
	if r.Length() != 0x1000 {
		t.Errorf("Length = %#x, want 0x1000", r.Length())
	}
}
