// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package msgpackcodec is romp's default wire codec, grounded on goridge's
// RPC codec (which marshals call values with
// github.com/vmihailenco/msgpack/v5 alongside gob/json/protobuf depending
// on the transport). romp only ever needs one value format per session, so
// this package commits to msgpack and adds a small envelope in front of it:
// Codec.Decode has to hand back an any, and plain msgpack decoding into an
// interface{} cannot tell a Call or an ObjectReference apart from a
// same-shaped user map. The envelope's one-byte kind tag resolves that
// ambiguity without requiring every application value to register a
// concrete Go type up front.
package msgpackcodec

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"code.hybscloud.com/romp"
)

type kind uint8

const (
	kindAny kind = iota
	kindCall
	kindObjectReference
	kindRemoteException
)

type envelope struct {
	Kind kind
	Data []byte
}

// Codec is a romp.Codec backed by msgpack.
type Codec struct{}

// New returns a Codec.
func New() *Codec { return &Codec{} }

// Encode implements romp.Codec.
func (c *Codec) Encode(v any) ([]byte, error) {
	var env envelope
	switch val := v.(type) {
	case romp.Call:
		data, err := msgpack.Marshal(&val)
		if err != nil {
			return nil, err
		}
		env = envelope{Kind: kindCall, Data: data}
	case romp.ObjectReference:
		data, err := msgpack.Marshal(&val)
		if err != nil {
			return nil, err
		}
		env = envelope{Kind: kindObjectReference, Data: data}
	case *romp.RemoteException:
		data, err := msgpack.Marshal(val)
		if err != nil {
			return nil, err
		}
		env = envelope{Kind: kindRemoteException, Data: data}
	default:
		data, err := msgpack.Marshal(v)
		if err != nil {
			return nil, err
		}
		env = envelope{Kind: kindAny, Data: data}
	}
	return msgpack.Marshal(&env)
}

// Decode implements romp.Codec.
func (c *Codec) Decode(b []byte) (any, error) {
	var env envelope
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case kindCall:
		var call romp.Call
		if err := msgpack.Unmarshal(env.Data, &call); err != nil {
			return nil, err
		}
		return call, nil
	case kindObjectReference:
		var ref romp.ObjectReference
		if err := msgpack.Unmarshal(env.Data, &ref); err != nil {
			return nil, err
		}
		return ref, nil
	case kindRemoteException:
		var re romp.RemoteException
		if err := msgpack.Unmarshal(env.Data, &re); err != nil {
			return nil, err
		}
		return &re, nil
	case kindAny:
		var v any
		if err := msgpack.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("msgpackcodec: unknown envelope kind %d", env.Kind)
	}
}
