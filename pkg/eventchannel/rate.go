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

package eventchannel

import (
	"sync/atomic"

	"golang.org/x/time/rate"
	"google.golang.org/protobuf/proto"
	"gvisor.dev/sigcore/pkg/log"
)

// rateLimitedEmitter forwards to inner at most as fast as limiter allows and
// discards the rest.
type rateLimitedEmitter struct {
	inner   Emitter
	limiter *rate.Limiter
	dropped atomic.Uint64
}

// RateLimitedEmitterFrom returns an Emitter that forwards to inner at no more
// than maxRate events per second on average, allowing bursts of up to burst
// events. Events over the limit are counted and discarded, never queued, so
// a slow observer cannot stall signal delivery.
func RateLimitedEmitterFrom(inner Emitter, maxRate float64, burst int) Emitter {
	return &rateLimitedEmitter{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(maxRate), burst),
	}
}

// Emit implements Emitter.Emit.
func (e *rateLimitedEmitter) Emit(msg proto.Message) (bool, error) {
	if e.limiter.Allow() {
		return e.inner.Emit(msg)
	}
	if e.dropped.Add(1) == 1 {
		log.Warningf("Event rate limit of %g/s exceeded, discarding events", float64(e.limiter.Limit()))
	}
	return false, nil
}

// Close implements Emitter.Close.
func (e *rateLimitedEmitter) Close() error {
	if n := e.dropped.Load(); n > 0 {
		log.Infof("Discarded %d events over the rate limit", n)
	}
	return e.inner.Close()
}

// Dropped returns how many events e discarded, or 0 if e does not rate limit.
func Dropped(e Emitter) uint64 {
	if rle, ok := e.(*rateLimitedEmitter); ok {
		return rle.dropped.Load()
	}
	return 0
}
