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

// Package eventchannel contains functionality for sending any protobuf message
// to an external observer.
//
// The binary wire format is a uvarint length followed by a binary protobuf.Any
// message. The JSON format is one protojson-encoded Any per line.
package eventchannel

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
	"gvisor.dev/sigcore/pkg/log"
	"gvisor.dev/sigcore/pkg/sync"
)

// Emitter emits a proto message.
type Emitter interface {
	// Emit writes a single eventchannel message to an emitter. Emit should
	// return hangup = true to indicate an emitter has "hung up" and no further
	// messages should be directed to it.
	Emit(msg proto.Message) (hangup bool, err error)

	// Close closes this emitter. Emit cannot be used after Close is called.
	Close() error
}

// DefaultEmitter is the default emitter. Calls to Emit and AddEmitter are sent
// to this Emitter.
var DefaultEmitter = &multiEmitter{}

// Emit is a helper method that calls DefaultEmitter.Emit.
func Emit(msg proto.Message) error {
	_, err := DefaultEmitter.Emit(msg)
	return err
}

// AddEmitter is a helper method that calls DefaultEmitter.AddEmitter.
func AddEmitter(e Emitter) {
	DefaultEmitter.AddEmitter(e)
}

// multiEmitter is an Emitter that forwards messages to multiple Emitters.
type multiEmitter struct {
	// mu protects emitters.
	mu sync.Mutex
	// emitters is initialized lazily in AddEmitter.
	emitters map[Emitter]struct{}
}

// Emit emits a message using all added emitters.
func (me *multiEmitter) Emit(msg proto.Message) (bool, error) {
	me.mu.Lock()
	defer me.mu.Unlock()

	var err error
	for e := range me.emitters {
		hangup, eerr := e.Emit(msg)
		if eerr != nil {
			if err == nil {
				err = fmt.Errorf("error emitting %v: on %v: %v", msg, e, eerr)
			} else {
				err = fmt.Errorf("%v; on %v: %v", err, e, eerr)
			}

			// Log as well, since most callers ignore the error.
			log.Warningf("Error emitting %v on %v: %v", msg, e, eerr)
		}
		if hangup {
			log.Infof("Hangup on eventchannel emitter %v.", e)
			delete(me.emitters, e)
		}
	}

	return false, err
}

// AddEmitter adds a new emitter.
func (me *multiEmitter) AddEmitter(e Emitter) {
	me.mu.Lock()
	defer me.mu.Unlock()
	if me.emitters == nil {
		me.emitters = make(map[Emitter]struct{})
	}
	me.emitters[e] = struct{}{}
}

// Close closes all emitters. If any Close call errors, it returns the first
// one encountered.
func (me *multiEmitter) Close() error {
	me.mu.Lock()
	defer me.mu.Unlock()
	var err error
	for e := range me.emitters {
		if eerr := e.Close(); err == nil && eerr != nil {
			err = eerr
		}
		delete(me.emitters, e)
	}
	return err
}

func marshal(msg proto.Message) ([]byte, error) {
	wrapped, err := anypb.New(msg)
	if err != nil {
		return nil, err
	}

	// Wire format is uvarint message length followed by binary proto.
	bufMsg, err := proto.Marshal(wrapped)
	if err != nil {
		return nil, err
	}
	p := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(p, uint64(len(bufMsg)))
	return append(p[:n], bufMsg...), nil
}

// ReadMessage reads one length-prefixed message written by a WriterEmitter.
// It returns io.EOF at a clean end of stream.
func ReadMessage(r *bufio.Reader) (*anypb.Any, error) {
	size, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	wrapped := &anypb.Any{}
	if err := proto.Unmarshal(buf, wrapped); err != nil {
		return nil, err
	}
	return wrapped, nil
}

// writerEmitter emits length-prefixed proto messages on a stream.
type writerEmitter struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// WriterEmitter creates a new binary event channel on the given stream.
//
// WriterEmitter takes ownership of w.
func WriterEmitter(w io.WriteCloser) Emitter {
	return &writerEmitter{w: w}
}

// Emit implements Emitter.Emit.
func (s *writerEmitter) Emit(msg proto.Message) (bool, error) {
	p, err := marshal(msg)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for done := 0; done < len(p); {
		n, err := s.w.Write(p[done:])
		if err != nil {
			return errors.Is(err, unix.EPIPE), err
		}
		done += n
	}
	return false, nil
}

// Close implements Emitter.Close.
func (s *writerEmitter) Close() error {
	return s.w.Close()
}

// jsonEmitter emits one protojson-encoded Any per line. This is useful for
// debugging, when the messages are intended for humans.
type jsonEmitter struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// JSONEmitter creates a new line-oriented JSON event channel on w.
//
// JSONEmitter takes ownership of w.
func JSONEmitter(w io.WriteCloser) Emitter {
	return &jsonEmitter{w: w}
}

// Emit implements Emitter.Emit.
func (j *jsonEmitter) Emit(msg proto.Message) (bool, error) {
	wrapped, err := anypb.New(msg)
	if err != nil {
		return false, err
	}
	b, err := protojson.Marshal(wrapped)
	if err != nil {
		return false, err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.w.Write(append(b, '\n')); err != nil {
		return errors.Is(err, unix.EPIPE), err
	}
	return false, nil
}

// Close implements Emitter.Close.
func (j *jsonEmitter) Close() error {
	return j.w.Close()
}
