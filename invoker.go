// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
)

var (
	ctxType   = reflect.TypeOf((*context.Context)(nil)).Elem()
	argsType  = reflect.TypeOf([]any(nil))
	errType   = reflect.TypeOf((*error)(nil)).Elem()
	anyType   = reflect.TypeOf((*any)(nil)).Elem()
	yieldType = reflect.TypeOf((func(any) error)(nil))
)

// ReflectInvoker is the default Invoker, grounded on birpc's
// getRPCMethodsOfType: it discovers a target's exported methods by
// reflection instead of requiring a hand-written switch per object type.
//
// An exported method is dispatchable if it has one of two shapes (the
// receiver itself does not count towards reflect's NumIn once bound via
// MethodByName):
//
//	func(ctx context.Context, args []any) (any, error)
//	func(ctx context.Context, args []any, yield func(any) error) (any, error)
//
// The first shape answers REQUEST/ONEWAY/ONEWAY_SYNC. REQUEST_BLOCK prefers
// the second shape but falls back to the first — a yield-capable call
// against a method that never yields is simply a Call that replies
// immediately with RETVAL.
type ReflectInvoker struct{}

// NewReflectInvoker returns a ReflectInvoker.
func NewReflectInvoker() *ReflectInvoker { return &ReflectInvoker{} }

// Invoke implements Invoker.
func (ri *ReflectInvoker) Invoke(ctx context.Context, target any, method string, args []any) (any, error) {
	m, ok := lookupMethod(target, method)
	if !ok {
		return nil, newInvokeError(fmt.Errorf("romp: unknown method %q", method))
	}
	if isPlainSignature(m.Type()) {
		return callPlain(ctx, m, args)
	}
	if isYieldSignature(m.Type()) {
		return callYield(ctx, m, args, func(any) error { return nil })
	}
	return nil, newInvokeError(fmt.Errorf("romp: method %q has an unsupported signature", method))
}

// InvokeWithYield implements Invoker.
func (ri *ReflectInvoker) InvokeWithYield(ctx context.Context, target any, method string, args []any, onYield func(any) error) (any, error) {
	m, ok := lookupMethod(target, method)
	if !ok {
		return nil, newInvokeError(fmt.Errorf("romp: unknown method %q", method))
	}
	if isYieldSignature(m.Type()) {
		return callYield(ctx, m, args, onYield)
	}
	if isPlainSignature(m.Type()) {
		return callPlain(ctx, m, args)
	}
	return nil, newInvokeError(fmt.Errorf("romp: method %q has an unsupported signature", method))
}

func lookupMethod(target any, method string) (reflect.Value, bool) {
	v := reflect.ValueOf(target)
	m := v.MethodByName(method)
	if !m.IsValid() {
		return reflect.Value{}, false
	}
	return m, true
}

func isPlainSignature(t reflect.Type) bool {
	return t.NumIn() == 2 && t.In(0) == ctxType && t.In(1) == argsType &&
		t.NumOut() == 2 && t.Out(0) == anyType && t.Out(1) == errType
}

func isYieldSignature(t reflect.Type) bool {
	return t.NumIn() == 3 && t.In(0) == ctxType && t.In(1) == argsType && t.In(2) == yieldType &&
		t.NumOut() == 2 && t.Out(0) == anyType && t.Out(1) == errType
}

func callPlain(ctx context.Context, m reflect.Value, args []any) (any, error) {
	out := m.Call([]reflect.Value{reflect.ValueOf(ctx), reflect.ValueOf(args)})
	return unpackResult(out)
}

func callYield(ctx context.Context, m reflect.Value, args []any, onYield func(any) error) (any, error) {
	out := m.Call([]reflect.Value{
		reflect.ValueOf(ctx),
		reflect.ValueOf(args),
		reflect.ValueOf(onYield),
	})
	return unpackResult(out)
}

func unpackResult(out []reflect.Value) (any, error) {
	var result any
	if !out[0].IsNil() {
		result = out[0].Interface()
	}
	if errv := out[1].Interface(); errv != nil {
		return nil, newInvokeError(errv.(error))
	}
	return result, nil
}

// newInvokeError wraps err in a *RemoteException carrying the invoker's own
// call stack, with the capture helpers and the immediate caller of
// newInvokeError trimmed off (so a trace from a failed method call starts
// at callPlain/callYield): reflect-based
// dispatch gives no way to recover frames from inside the target method
// itself, so the captured trace is the server's dispatch path rather than
// the application's — the closest approximation Go allows without the
// target method cooperating by capturing its own stack before returning.
func newInvokeError(err error) error {
	if re, ok := err.(*RemoteException); ok {
		return re
	}
	return &RemoteException{
		Class: fmt.Sprintf("%T", err),
		Msg:   err.Error(),
		Trace: invokerCallStack(),
	}
}

func invokerCallStack() []string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(4, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	out := make([]string, 0, n)
	for {
		f, more := frames.Next()
		out = append(out, f.Function)
		if !more {
			break
		}
	}
	return out
}
