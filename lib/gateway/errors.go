// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"fmt"

	"github.com/bureau-foundation/jiragw/lib/wire"
)

// RequestError is an error whose message is reported to the
// replication engine as an ERROR response. The engine treats every
// gateway error as fatal for the current operation, so Continue is
// always false on the wire.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Response renders the error for the wire.
func (e *RequestError) Response() *wire.Error {
	return &wire.Error{Message: e.Message, Continue: false}
}

// requestErrorf builds a RequestError from a format string.
func requestErrorf(format string, args ...any) *RequestError {
	return &RequestError{Message: fmt.Sprintf(format, args...)}
}

// errMessage returns the engine-facing message of an error: the bare
// message of a RequestError, Error() otherwise.
func errMessage(err error) string {
	if requestErr, ok := err.(*RequestError); ok {
		return requestErr.Message
	}
	return err.Error()
}

// errorResponse renders any error as an ERROR response, preserving the
// message of a RequestError as-is.
func errorResponse(err error) *wire.Error {
	if requestErr, ok := err.(*RequestError); ok {
		return requestErr.Response()
	}
	return &wire.Error{Message: err.Error(), Continue: false}
}
