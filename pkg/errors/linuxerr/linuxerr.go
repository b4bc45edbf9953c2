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

// Package linuxerr contains syscall error codes exported as error interface
// pointers. This allows for fast comparison and return operations comparable
// to unix.Errno constants.
package linuxerr

import (
	goerrors "errors"
	"fmt"

	"golang.org/x/sys/unix"
	"gvisor.dev/sigcore/pkg/abi/linux/errno"
	"gvisor.dev/sigcore/pkg/errors"
)

// The following errors are semantically identical to Errno of type unix.Errno.
// Since the types are distinct they are not directly comparable; use Equals,
// or ToUnix to obtain the unix.Errno.
var (
	noError *errors.Error = nil
	EPERM                 = errors.New(errno.EPERM, "operation not permitted")
	ENOENT                = errors.New(errno.ENOENT, "no such file or directory")
	ESRCH                 = errors.New(errno.ESRCH, "no such process")
	EINTR                 = errors.New(errno.EINTR, "interrupted system call")
	EIO                   = errors.New(errno.EIO, "I/O error")
	E2BIG                 = errors.New(errno.E2BIG, "argument list too long")
	EBADF                 = errors.New(errno.EBADF, "bad file number")
	ECHILD                = errors.New(errno.ECHILD, "no child processes")
	EAGAIN                = errors.New(errno.EAGAIN, "try again")
	ENOMEM                = errors.New(errno.ENOMEM, "out of memory")
	EACCES                = errors.New(errno.EACCES, "permission denied")
	EFAULT                = errors.New(errno.EFAULT, "bad address")
	EBUSY                 = errors.New(errno.EBUSY, "device or resource busy")
	EEXIST                = errors.New(errno.EEXIST, "file exists")
	EINVAL                = errors.New(errno.EINVAL, "invalid argument")
	ERANGE                = errors.New(errno.ERANGE, "math result not representable")
	ENOSYS                = errors.New(errno.ENOSYS, "invalid system call number")

	// ERESTARTNOHAND is returned by an interrupted syscall to indicate that
	// it should be converted to EINTR if interrupted by a signal delivered to
	// a user handler, and restarted otherwise.
	ERESTARTNOHAND = errors.New(errno.ERESTARTNOHAND, "to be restarted if no handler")
)

// errNotValidError is the placeholder in errorSlice for unmapped errnos.
var errNotValidError = errors.New(errno.Errno(maxErrno), "not a valid error")

const maxErrno uint32 = errno.ENOSYS + 1

// errorSlice maps errno values to their *errors.Error.
var errorSlice = func() []*errors.Error {
	s := make([]*errors.Error, maxErrno)
	for i := range s {
		s[i] = errNotValidError
	}
	s[0] = noError
	for _, e := range []*errors.Error{
		EPERM, ENOENT, ESRCH, EINTR, EIO, E2BIG, EBADF, ECHILD, EAGAIN,
		ENOMEM, EACCES, EFAULT, EBUSY, EEXIST, EINVAL, ERANGE, ENOSYS,
	} {
		s[e.Errno()] = e
	}
	return s
}()

// ErrorFromUnix returns a linuxerr from a unix.Errno.
func ErrorFromUnix(err unix.Errno) error {
	if err == unix.Errno(0) {
		return nil
	}
	if uint32(err) >= maxErrno || errorSlice[err] == errNotValidError {
		panic(fmt.Sprintf("invalid error requested with errno: %d", err))
	}
	return errorSlice[err]
}

// ToUnix converts a linuxerr to a unix.Errno.
func ToUnix(e *errors.Error) unix.Errno {
	var unixErr unix.Errno
	if e != noError {
		unixErr = unix.Errno(e.Errno())
	}
	return unixErr
}

// Equals compares a linuxerr to a given error. Wrapped errors are unwrapped.
func Equals(e *errors.Error, err error) bool {
	var unixErr unix.Errno
	if e != noError {
		unixErr = unix.Errno(e.Errno())
	}
	if err == nil {
		err = noError
	}
	if e == err || unixErr == err {
		return true
	}
	var le *errors.Error
	if goerrors.As(err, &le) {
		return le == e
	}
	return false
}

// TranslateError returns the *errors.Error carried by err, if any. The
// boolean is false when err is not (and does not wrap) a linuxerr.
func TranslateError(err error) (*errors.Error, bool) {
	var le *errors.Error
	if goerrors.As(err, &le) {
		return le, true
	}
	var ue unix.Errno
	if goerrors.As(err, &ue) && uint32(ue) < maxErrno && errorSlice[ue] != errNotValidError && ue != 0 {
		return errorSlice[ue], true
	}
	return nil, false
}

// ToReturn converts err to the value a failed syscall leaves in the return
// register: the negated errno. Errors that do not carry an errno are
// reported as EIO.
func ToReturn(err error) uintptr {
	e, ok := TranslateError(err)
	if !ok {
		e = EIO
	}
	return uintptr(-int64(e.Errno()))
}
