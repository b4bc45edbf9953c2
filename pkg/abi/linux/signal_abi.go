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
	"gvisor.dev/sigcore/pkg/hostarch"
	"gvisor.dev/sigcore/pkg/marshal"
)

// Sizes of the marshalled forms.
const (
	SizeOfSigAction  = 24
	SizeOfSignalInfo = 128
)

var (
	_ marshal.Marshallable = (*SignalSet)(nil)
	_ marshal.Marshallable = (*SigAction)(nil)
	_ marshal.Marshallable = (*SignalInfo)(nil)
)

// SizeBytes implements marshal.Marshallable.SizeBytes.
func (s *SignalSet) SizeBytes() int {
	return SignalSetSize
}

// MarshalBytes implements marshal.Marshallable.MarshalBytes.
func (s *SignalSet) MarshalBytes(dst []byte) {
	hostarch.ByteOrder.PutUint64(dst[:SignalSetSize], uint64(*s))
}

// UnmarshalBytes implements marshal.Marshallable.UnmarshalBytes.
func (s *SignalSet) UnmarshalBytes(src []byte) {
	*s = SignalSet(hostarch.ByteOrder.Uint64(src[:SignalSetSize]))
}

// CopyOut implements marshal.Marshallable.CopyOut.
func (s *SignalSet) CopyOut(cc marshal.CopyContext, addr hostarch.Addr) (int, error) {
	return marshal.CopyOut(cc, addr, s)
}

// CopyIn implements marshal.Marshallable.CopyIn.
func (s *SignalSet) CopyIn(cc marshal.CopyContext, addr hostarch.Addr) (int, error) {
	return marshal.CopyIn(cc, addr, s)
}

// SizeBytes implements marshal.Marshallable.SizeBytes.
func (a *SigAction) SizeBytes() int {
	return SizeOfSigAction
}

// MarshalBytes implements marshal.Marshallable.MarshalBytes.
func (a *SigAction) MarshalBytes(dst []byte) {
	hostarch.ByteOrder.PutUint64(dst[0:8], a.Handler)
	hostarch.ByteOrder.PutUint64(dst[8:16], uint64(a.Mask))
	hostarch.ByteOrder.PutUint64(dst[16:24], a.Restorer)
}

// UnmarshalBytes implements marshal.Marshallable.UnmarshalBytes.
func (a *SigAction) UnmarshalBytes(src []byte) {
	a.Handler = hostarch.ByteOrder.Uint64(src[0:8])
	a.Mask = SignalSet(hostarch.ByteOrder.Uint64(src[8:16]))
	a.Restorer = hostarch.ByteOrder.Uint64(src[16:24])
}

// CopyOut implements marshal.Marshallable.CopyOut.
func (a *SigAction) CopyOut(cc marshal.CopyContext, addr hostarch.Addr) (int, error) {
	return marshal.CopyOut(cc, addr, a)
}

// CopyIn implements marshal.Marshallable.CopyIn.
func (a *SigAction) CopyIn(cc marshal.CopyContext, addr hostarch.Addr) (int, error) {
	return marshal.CopyIn(cc, addr, a)
}

// SizeBytes implements marshal.Marshallable.SizeBytes.
func (s *SignalInfo) SizeBytes() int {
	return SizeOfSignalInfo
}

// MarshalBytes implements marshal.Marshallable.MarshalBytes.
func (s *SignalInfo) MarshalBytes(dst []byte) {
	hostarch.ByteOrder.PutUint32(dst[0:4], uint32(s.Signo))
	hostarch.ByteOrder.PutUint32(dst[4:8], uint32(s.Errno))
	hostarch.ByteOrder.PutUint32(dst[8:12], uint32(s.Code))
	// Padding: dst[12:16] ~= uint32(0)
	hostarch.ByteOrder.PutUint32(dst[12:16], 0)
	copy(dst[16:SizeOfSignalInfo], s.Fields[:])
}

// UnmarshalBytes implements marshal.Marshallable.UnmarshalBytes.
func (s *SignalInfo) UnmarshalBytes(src []byte) {
	s.Signo = int32(hostarch.ByteOrder.Uint32(src[0:4]))
	s.Errno = int32(hostarch.ByteOrder.Uint32(src[4:8]))
	s.Code = int32(hostarch.ByteOrder.Uint32(src[8:12]))
	copy(s.Fields[:], src[16:SizeOfSignalInfo])
}

// CopyOut implements marshal.Marshallable.CopyOut.
func (s *SignalInfo) CopyOut(cc marshal.CopyContext, addr hostarch.Addr) (int, error) {
	return marshal.CopyOut(cc, addr, s)
}

// CopyIn implements marshal.Marshallable.CopyIn.
func (s *SignalInfo) CopyIn(cc marshal.CopyContext, addr hostarch.Addr) (int, error) {
	return marshal.CopyIn(cc, addr, s)
}
