// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"code.hybscloud.com/romp/codec/msgpackcodec"
)

type echoTarget struct{}

func (echoTarget) Echo(_ context.Context, args []any) (any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	return args[0], nil
}

type adderTarget struct{}

func (adderTarget) Add(_ context.Context, args []any) (any, error) {
	sum := 0
	for _, a := range args {
		n, _ := a.(int8)
		sum += int(n)
	}
	return int8(sum), nil
}

type yielderTarget struct{}

func (yielderTarget) CountTo(_ context.Context, args []any, yield func(any) error) (any, error) {
	n, _ := args[0].(int8)
	for i := int8(1); i <= n; i++ {
		if err := yield(i); err != nil {
			return nil, err
		}
	}
	return "done", nil
}

type throwerTarget struct{}

func (throwerTarget) Boom(_ context.Context, _ []any) (any, error) {
	return nil, errors.New("kaboom")
}

func newLoopback(t *testing.T, reg *Registry) (*Proxy, func()) {
	t.Helper()
	clientConn, serverConn := net.Pipe()

	clientSession := Open(clientConn, WithCodec(msgpackcodec.New()))
	serverSession := Open(serverConn, WithCodec(msgpackcodec.New()))

	ctx, cancel := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- Serve(ctx, serverSession, reg, NewReflectInvoker())
	}()

	proxy := NewProxy(clientSession, &sync.Mutex{}, 1)
	cleanup := func() {
		cancel()
		_ = clientConn.Close()
		_ = serverConn.Close()
		<-serverDone
	}
	return proxy, cleanup
}

func TestCallEchoesArgument(t *testing.T) {
	reg := NewRegistry()
	reg.Register(1, echoTarget{})
	p, cleanup := newLoopback(t, reg)
	defer cleanup()

	got, err := p.Call("Echo", "hello")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != "hello" {
		t.Fatalf("got %#v, want %q", got, "hello")
	}
}

func TestCallArithmetic(t *testing.T) {
	reg := NewRegistry()
	reg.Register(1, adderTarget{})
	p, cleanup := newLoopback(t, reg)
	defer cleanup()

	got, err := p.Call("Add", int8(2), int8(3), int8(4))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != int8(9) {
		t.Fatalf("got %#v, want int8(9)", got)
	}
}

func TestCallBlockYieldsInOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register(1, yielderTarget{})
	p, cleanup := newLoopback(t, reg)
	defer cleanup()

	var got []int8
	result, err := p.CallBlock(func(v any) error {
		got = append(got, v.(int8))
		return nil
	}, "CountTo", int8(3))
	if err != nil {
		t.Fatalf("CallBlock: %v", err)
	}
	if result != "done" {
		t.Fatalf("result = %#v, want %q", result, "done")
	}
	want := []int8{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestCallPropagatesRemoteException(t *testing.T) {
	reg := NewRegistry()
	reg.Register(1, throwerTarget{})
	p, cleanup := newLoopback(t, reg)
	defer cleanup()

	_, err := p.Call("Boom")
	if err == nil {
		t.Fatal("expected an error")
	}
	var re *RemoteException
	if !errors.As(err, &re) {
		t.Fatalf("err = %v (%T), want *RemoteException", err, err)
	}
	if re.Msg != "kaboom" {
		t.Fatalf("Msg = %q, want %q", re.Msg, "kaboom")
	}
	if len(re.Trace) == 0 {
		t.Fatal("expected a non-empty backtrace")
	}
}

func TestOnewaySyncAcksBeforeReturning(t *testing.T) {
	reg := NewRegistry()
	reg.Register(1, adderTarget{})
	p, cleanup := newLoopback(t, reg)
	defer cleanup()

	if err := p.OnewaySync("Add", int8(1), int8(1)); err != nil {
		t.Fatalf("OnewaySync: %v", err)
	}
}

func TestUnknownMethodIsRemoteException(t *testing.T) {
	reg := NewRegistry()
	reg.Register(1, echoTarget{})
	p, cleanup := newLoopback(t, reg)
	defer cleanup()

	_, err := p.Call("DoesNotExist")
	if err == nil {
		t.Fatal("expected an error")
	}
	var re *RemoteException
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want *RemoteException", err)
	}
}

func TestMaterialiseReconstructsProxy(t *testing.T) {
	var lock sync.Mutex
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	s := Open(a, WithCodec(msgpackcodec.New()))
	_ = b

	v := materialise(ObjectReference{ObjectID: 5}, s, &lock)
	child, ok := v.(*Proxy)
	if !ok {
		t.Fatalf("materialise returned %T, want *Proxy", v)
	}
	if child.ObjectID() != 5 {
		t.Fatalf("ObjectID = %d, want 5", child.ObjectID())
	}

	again := materialise(child, s, &lock)
	if again != v {
		t.Fatalf("re-materialising a *Proxy should be a no-op")
	}
}

func TestNewProxyIDRejectsOutOfRange(t *testing.T) {
	if _, err := NewProxyID(nil, &sync.Mutex{}, -1); err == nil {
		t.Fatal("expected an error for a negative id")
	}
	if _, err := NewProxyID(nil, &sync.Mutex{}, MaxID); err == nil {
		t.Fatal("expected an error for an id past MaxID")
	}
	p, err := NewProxyID(nil, &sync.Mutex{}, 42)
	if err != nil {
		t.Fatalf("NewProxyID: %v", err)
	}
	if p.ObjectID() != 42 {
		t.Fatalf("ObjectID = %d, want 42", p.ObjectID())
	}
}
