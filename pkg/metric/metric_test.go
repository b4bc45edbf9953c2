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

package metric

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"gvisor.dev/sigcore/pkg/prometheus"
)

// sliceEmitter implements eventchannel.Emitter by appending all messages to a
// slice.
type sliceEmitter []proto.Message

// Emit implements eventchannel.Emitter.Emit.
func (s *sliceEmitter) Emit(msg proto.Message) (bool, error) {
	*s = append(*s, msg)
	return false, nil
}

// Close implements eventchannel.Emitter.Close.
func (s *sliceEmitter) Close() error {
	return nil
}

func TestFieldMapperRoundTrip(t *testing.T) {
	m, err := newFieldMapper(
		NewField("action", []string{"default", "ignore", "handler"}),
		NewField("kind", []string{"a", "b"}),
	)
	if err != nil {
		t.Fatalf("newFieldMapper: %v", err)
	}
	if got, want := m.numKeys(), 6; got != want {
		t.Fatalf("numKeys() = %d, want %d", got, want)
	}
	seen := make(map[int]bool)
	for _, action := range []string{"default", "ignore", "handler"} {
		for _, kind := range []string{"a", "b"} {
			key := m.lookup(action, kind)
			if seen[key] {
				t.Errorf("lookup(%q, %q) = %d, already used", action, kind, key)
			}
			seen[key] = true
			if diff := cmp.Diff([]string{action, kind}, m.keyToMultiField(key)); diff != "" {
				t.Errorf("keyToMultiField(%d) mismatch (-want +got):\n%s", key, diff)
			}
		}
	}
}

func TestRegistryErrors(t *testing.T) {
	r := NewRegistry()
	if _, err := r.NewUint64Metric("/signal/raised", "raised"); err != nil {
		t.Fatalf("NewUint64Metric: %v", err)
	}
	for _, tc := range []struct {
		name   string
		fields []Field
		want   error
	}{
		{name: "/signal/raised", want: ErrNameInUse},
		{name: "signal", want: ErrInvalidMetricName},
		{name: "/Signal", want: ErrInvalidMetricName},
		{name: "/signal/x", fields: []Field{NewField("f", nil)}, want: ErrFieldHasNoAllowedValues},
		{name: "/signal/y", fields: []Field{NewField("f", []string{"a,b"})}, want: ErrFieldValueContainsIllegalChar},
	} {
		if _, err := r.NewUint64Metric(tc.name, "", tc.fields...); !errors.Is(err, tc.want) {
			t.Errorf("NewUint64Metric(%q) = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestSnapshot(t *testing.T) {
	r := NewRegistry()
	raised := r.MustCreateNewUint64Metric("/signal/raised", "raised")
	delivered := r.MustCreateNewUint64Metric("/signal/delivered", "delivered", NewField("action", []string{"default", "handler"}))
	raised.IncrementBy(3)
	delivered.Increment("handler")

	type point struct {
		Name   string
		Labels map[string]string
		Value  uint64
	}
	var got []point
	for _, d := range r.Snapshot().Data {
		if d.Metric.Type != prometheus.TypeCounter {
			t.Errorf("metric %s has type %v, want counter", d.Metric.Name, d.Metric.Type)
		}
		got = append(got, point{d.Metric.Name, d.Labels, d.Value})
	}
	want := []point{
		{"signal_delivered", map[string]string{"action": "default"}, 0},
		{"signal_delivered", map[string]string{"action": "handler"}, 1},
		{"signal_raised", nil, 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitMetricUpdate(t *testing.T) {
	r := NewRegistry()
	delivered := r.MustCreateNewUint64Metric("/signal/delivered", "delivered", NewField("action", []string{"default", "handler"}))
	delivered.IncrementBy(2, "default")

	var e sliceEmitter
	if err := r.EmitMetricUpdate(&e); err != nil {
		t.Fatalf("EmitMetricUpdate: %v", err)
	}
	if len(e) != 1 {
		t.Fatalf("got %d events, want 1", len(e))
	}
	ev := e[0].(*structpb.Struct).AsMap()
	want := map[string]any{
		"event":   "metric_update",
		"metrics": map[string]any{"/signal/delivered:default": float64(2)},
	}
	if diff := cmp.Diff(want, ev); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
}
