// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import "context"

// Codec marshals application values, including the ObjectReference marker,
// to and from bytes. The core only ever treats the result as opaque bytes.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(b []byte) (any, error)
}

// Resolver maps an object id to a dispatchable server-side object.
type Resolver interface {
	Resolve(objectID uint16) (any, error)
}

// ResolverFunc adapts a plain function to a Resolver.
type ResolverFunc func(objectID uint16) (any, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(objectID uint16) (any, error) { return f(objectID) }

// Invoker performs dynamic dispatch on the server's object model.
// InvokeWithYield additionally calls onYield once per intermediate value
// the target method produces before it returns.
type Invoker interface {
	Invoke(ctx context.Context, target any, method string, args []any) (any, error)
	InvokeWithYield(ctx context.Context, target any, method string, args []any, onYield func(any) error) (any, error)
}

// Logger reports a server-side exception for debugging, only consulted
// when Serve runs with debug logging enabled.
type Logger interface {
	ReportException(err error)
}

// LoggerFunc adapts a plain function to a Logger.
type LoggerFunc func(err error)

// ReportException implements Logger.
func (f LoggerFunc) ReportException(err error) { f(err) }
