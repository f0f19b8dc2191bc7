// Copyright 2024 OrcaDB
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package moerr

import (
	"fmt"
)

const (
	// 0 - 99 is OK.  They do not contain info, and are special handled
	// using a static instance, no alloc.
	Ok              uint16 = 0
	OkStopCurrRecur uint16 = 1
	OkExpectedEOB   uint16 = 2 // Expected End of Bucket

	OkMax uint16 = 99

	// Group 1: Internal errors
	ErrStart    uint16 = 20100
	ErrInternal uint16 = 20101
	ErrNYI      uint16 = 20102

	// Group 2: invalid input and domain errors
	ErrIndexOutOfRange uint16 = 20200
	ErrInvalidKey      uint16 = 20201
	ErrInvalidArg      uint16 = 20202
	ErrTooLarge        uint16 = 20203
	ErrBadConfig       uint16 = 20204

	// Group 3: iteration
	ErrConcurrentModification uint16 = 20300
	ErrIteratorExhausted      uint16 = 20301

	// Group 4: blocking operations
	ErrWaitTimeout     uint16 = 20400
	ErrWaitInterrupted uint16 = 20401
	ErrQueueClosed     uint16 = 20402
	ErrQueueFull       uint16 = 20403
	ErrQueueEmpty      uint16 = 20404

	// Group End: max value of error code
	ErrEnd uint16 = 65535
)

type errorMsgItem struct {
	errorMsgOrFormat string
}

var errorMsgRefer = map[uint16]errorMsgItem{
	ErrInternal: {"internal error: %s"},
	ErrNYI:      {"%s is not yet implemented"},

	ErrIndexOutOfRange: {"index %d out of range [0, %d)"},
	ErrInvalidKey:      {"invalid key: %s"},
	ErrInvalidArg:      {"invalid argument %s: %v"},
	ErrTooLarge:        {"%s too large, size %d exceeds limit %d"},
	ErrBadConfig:       {"bad configuration: %s"},

	ErrConcurrentModification: {"%s modified during iteration"},
	ErrIteratorExhausted:      {"iterator exhausted"},

	ErrWaitTimeout:     {"wait timeout"},
	ErrWaitInterrupted: {"wait interrupted"},
	ErrQueueClosed:     {"queue closed"},
	ErrQueueFull:       {"queue full"},
	ErrQueueEmpty:      {"queue empty"},

	ErrEnd: {"internal error: end of errcode code"},
}

func newError(code uint16, args ...any) *Error {
	var err *Error
	item, has := errorMsgRefer[code]
	if !has {
		panic(NewInternalError("not exist error code: %d", code))
	}
	if len(args) == 0 {
		err = &Error{
			code:    code,
			message: item.errorMsgOrFormat,
		}
	} else {
		err = &Error{
			code:    code,
			message: fmt.Sprintf(item.errorMsgOrFormat, args...),
		}
	}
	return err
}

type Error struct {
	code    uint16
	message string
	detail  string
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Detail() string {
	return e.detail
}

func (e *Error) Display() string {
	if len(e.detail) == 0 {
		return e.message
	}
	return fmt.Sprintf("%s: %s", e.message, e.detail)
}

func (e *Error) ErrorCode() uint16 {
	return e.code
}

func (e *Error) Succeeded() bool {
	return e.code < OkMax
}

func IsMoErrCode(e error, rc uint16) bool {
	if e == nil {
		return rc == Ok
	}

	me, ok := e.(*Error)
	if !ok {
		// This is not a moerr
		return false
	}
	return me.code == rc
}

func DowncastError(e error) *Error {
	if err, ok := e.(*Error); ok {
		return err
	}
	return newError(ErrInternal, fmt.Sprintf("downcast error failed: %v", e))
}

// ConvertPanicError converts a runtime panic to internal error.
func ConvertPanicError(v interface{}) *Error {
	if e, ok := v.(*Error); ok {
		return e
	}
	return newError(ErrInternal, fmt.Sprintf("panic %v", v))
}

// ConvertGoError converts a go error into a coded error.
// Note here we must return error, because nil error
// is the same as nil *Error -- Go strangeness.
func ConvertGoError(err error) error {
	// nil is nil
	if err == nil {
		return err
	}

	// already a moerr, return it as is
	if _, ok := err.(*Error); ok {
		return err
	}

	return NewInternalError("convert go error: %v", err)
}

// Special handling of OK codes.  These are not errors, but are used to
// signal different success conditions, one user being early termination
// of a recursive walk.  They sit on tight loops, so we cannot afford to
// new an Error; callers use the static instances below.  The returned
// *Error can be tested with either
//
//	   if err == GetOkXXX()
//	or if moerr.IsMoErrCode(err, moerr.OkXXX)
var errOkStopCurrRecur = Error{OkStopCurrRecur, "StopCurrRecur", ""}
var errOkExpectedEOB = Error{OkExpectedEOB, "ExpectedEOB", ""}

func GetOkStopCurrRecur() *Error {
	return &errOkStopCurrRecur
}

func GetOkExpectedEOB() *Error {
	return &errOkExpectedEOB
}

func NewInternalError(msg string, args ...any) *Error {
	return newError(ErrInternal, fmt.Sprintf(msg, args...))
}

func NewNYI(msg string, args ...any) *Error {
	return newError(ErrNYI, fmt.Sprintf(msg, args...))
}

func NewIndexOutOfRange(idx int, size int) *Error {
	return newError(ErrIndexOutOfRange, idx, size)
}

func NewInvalidKey(msg string, args ...any) *Error {
	return newError(ErrInvalidKey, fmt.Sprintf(msg, args...))
}

func NewInvalidArg(arg string, val any) *Error {
	return newError(ErrInvalidArg, arg, val)
}

func NewTooLarge(what string, size int, limit int) *Error {
	return newError(ErrTooLarge, what, size, limit)
}

func NewBadConfig(msg string, args ...any) *Error {
	return newError(ErrBadConfig, fmt.Sprintf(msg, args...))
}

func NewConcurrentModification(container string) *Error {
	return newError(ErrConcurrentModification, container)
}

func NewIteratorExhausted() *Error {
	return newError(ErrIteratorExhausted)
}

func NewWaitTimeout() *Error {
	return newError(ErrWaitTimeout)
}

func NewWaitInterrupted() *Error {
	return newError(ErrWaitInterrupted)
}

func NewQueueClosed() *Error {
	return newError(ErrQueueClosed)
}

func NewQueueFull() *Error {
	return newError(ErrQueueFull)
}

func NewQueueEmpty() *Error {
	return newError(ErrQueueEmpty)
}
