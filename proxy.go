// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import "sync"

// Proxy is a client-side handle that forwards method calls to a remote
// object id over a Session. It replaces a dynamic-dispatch "any message"
// hook with an explicit Call entry point, since Go has no equivalent of a
// universal method_missing.
//
// A Proxy is immutable after construction and is not itself safe for
// concurrent use: Lock must be held for the entire send-plus-receive
// window of any one operation, which Call, Oneway, OnewaySync, and Sync
// all do internally.
type Proxy struct {
	session  *Session
	lock     sync.Locker
	objectID uint16
}

// NewProxy constructs a Proxy bound to session, serialising all calls
// through lock. objectID must fit in 16 bits; since Go's uint16 already
// enforces that structurally, the out-of-range TypeError case only remains
// reachable when objectID is plumbed in from an untyped source (e.g. a
// decoded int64) via NewProxyID.
func NewProxy(session *Session, lock sync.Locker, objectID uint16) *Proxy {
	return &Proxy{session: session, lock: lock, objectID: objectID}
}

// NewProxyID is the bounds-checked counterpart of NewProxy for callers that
// only have an untyped object id (e.g. from a decoded ObjectReference
// carried over a codec that widens integers). It returns TypeError if id is
// out of the 0..65535 range a frame header's object_id field can carry.
func NewProxyID(session *Session, lock sync.Locker, id int) (*Proxy, error) {
	if id < 0 || id >= MaxID {
		return nil, &TypeError{Reason: "object id out of range"}
	}
	return NewProxy(session, lock, uint16(id)), nil
}

// ObjectID returns the proxy's target object id.
func (p *Proxy) ObjectID() uint16 { return p.objectID }

// materialise is the reference materialiser: applied to every client-
// received RETVAL/YIELD payload, it turns an ObjectReference marker into a
// new Proxy sharing this proxy's session and lock, and otherwise returns v
// unchanged. Re-applying materialise to an already-materialised *Proxy is a
// no-op: a *Proxy is never itself an ObjectReference, so the type assertion
// below fails and v is returned unchanged.
func materialise(v any, session *Session, lock sync.Locker) any {
	if ref, ok := v.(ObjectReference); ok {
		return NewProxy(session, lock, ref.ObjectID)
	}
	return v
}
