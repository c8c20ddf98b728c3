// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for conditions with no useful payload, matching
// framer/errors.go's package-level errors.New style.
var (
	// ErrDisconnected reports that the transport reached EOF mid-frame.
	ErrDisconnected = errors.New("romp: disconnected")

	// ErrTooLong reports a payload longer than the wire format supports.
	ErrTooLong = errors.New("romp: message too long")

	// ErrInvalidArgument reports an unusable argument. No function in this
	// package returns it; Open does not check its transport.
	ErrInvalidArgument = errors.New("romp: invalid argument")
)

// IoError wraps an underlying transport error that is not end-of-stream.
// It is fatal to the session.
type IoError struct{ Err error }

func (e *IoError) Error() string { return fmt.Sprintf("romp: io error: %v", e.Err) }
func (e *IoError) Unwrap() error { return e.Err }

// ProtocolError reports a framing or sequencing violation: magic-resync
// exhaustion, an unexpected message kind in a response loop, or a bad SYNC
// reply. It is fatal to the session.
type ProtocolError struct{ Reason string }

func (e *ProtocolError) Error() string { return "romp: protocol error: " + e.Reason }

// TypeError reports a locally-detected misuse that leaves the session
// usable, e.g. NewProxyID with an out-of-range object id.
type TypeError struct{ Reason string }

func (e *TypeError) Error() string { return "romp: type error: " + e.Reason }

// RemoteException is the local reconstruction of a server-raised exception.
// Go has no open exception class hierarchy to preserve identity across the
// wire, so Class/Msg/Trace travel as a negotiated side channel instead of a
// round-tripped exception object.
type RemoteException struct {
	// Class is the remote error's dynamic type name, e.g. as produced by
	// fmt.Sprintf("%T", err) on the server.
	Class string
	// Msg is the remote error's message (err.Error() on the server).
	Msg string
	// Trace is the remote backtrace with the client's own call frames
	// appended.
	Trace []string
}

func (e *RemoteException) Error() string {
	if e.Class == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Msg)
}

// Backtrace renders Trace as a single string, one frame per line, for
// logging or inclusion in a wrapping error's message.
func (e *RemoteException) Backtrace() string { return strings.Join(e.Trace, "\n") }
