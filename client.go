// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import "runtime"

// Call sends a REQUEST and returns the materialised return value. The
// caller-supplied lock is held for the entire send-plus-receive window
// and released on every exit path.
func (p *Proxy) Call(method string, args ...any) (any, error) {
	return p.call(kindRequest, nil, method, args)
}

// CallBlock sends a REQUEST_BLOCK and invokes onYield, in order, once per
// YIELD frame the server sends before its terminating RETVAL/EXCEPTION. A
// method that yields nothing behaves exactly like Call — the client simply
// receives RETVAL immediately.
func (p *Proxy) CallBlock(onYield func(any) error, method string, args ...any) (any, error) {
	return p.call(kindRequestBlk, onYield, method, args)
}

func (p *Proxy) call(kind Kind, onYield func(any) error, method string, args []any) (any, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if err := p.session.SendMessage(kind, p.objectID, Call{Method: method, Args: args}); err != nil {
		return nil, err
	}

	for {
		rkind, oid, v, err := p.session.RecvMessage()
		if err != nil {
			return nil, err
		}
		switch rkind {
		case kindRetval:
			return materialise(v, p.session, p.lock), nil
		case kindYield:
			if onYield != nil {
				if err := onYield(materialise(v, p.session, p.lock)); err != nil {
					return nil, err
				}
			}
			// continue the loop: more yields or the terminating frame follow.
		case kindException:
			return nil, remoteException(v)
		case kindSync:
			// A SYNC frame can arrive during an unrelated response loop;
			// ack it and keep waiting for the real reply.
			if err := replySync(p.session, oid); err != nil {
				return nil, err
			}
		default:
			return nil, &ProtocolError{Reason: "invalid message kind in response: " + rkind.String()}
		}
	}
}

// Oneway sends a fire-and-forget ONEWAY request; there is no reply.
func (p *Proxy) Oneway(method string, args ...any) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.session.SendMessage(kindOneway, p.objectID, Call{Method: method, Args: args})
}

// OnewaySync sends an ONEWAY_SYNC request and waits for the server's single
// NULL_MSG acknowledgement, which the server emits before running the
// method body.
func (p *Proxy) OnewaySync(method string, args ...any) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if err := p.session.SendMessage(kindOnewaySync, p.objectID, Call{Method: method, Args: args}); err != nil {
		return err
	}
	kind, _, _, err := p.session.RecvMessage()
	if err != nil {
		return err
	}
	if kind != kindNull {
		return &ProtocolError{Reason: "expected NULL_MSG ack, got " + kind.String()}
	}
	return nil
}

// Sync sends a SYNC frame (tag 0, object_id 0) and waits for the matching
// SYNC reply (tag 1): a SYNC frame with object_id == 1 is accepted as the
// expected reply; anything else is a ProtocolError.
func (p *Proxy) Sync() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if err := p.session.SendMessage(kindSync, 0, nil); err != nil {
		return err
	}
	kind, oid, _, err := p.session.RecvMessage()
	if err != nil {
		return err
	}
	if kind != kindSync || oid != 1 {
		return &ProtocolError{Reason: "romp synchronization failed"}
	}
	return nil
}

// replySync implements the recv-side half of the SYNC protocol shared by
// the server loop and the client response loop: tag 0 is a request and
// draws a tag-1 reply; tag 1 is itself a reply and is ignored wherever it
// is observed outside of Proxy.Sync's own wait.
func replySync(s *Session, tag uint16) error {
	if tag != 0 {
		return nil
	}
	return s.SendMessage(kindSync, 1, nil)
}

// remoteException converts a decoded EXCEPTION payload into a
// *RemoteException with the client's own call stack appended to the
// remote backtrace.
func remoteException(v any) error {
	re, ok := v.(*RemoteException)
	if !ok {
		re = &RemoteException{Msg: "romp: remote exception"}
	}
	re.Trace = append(append([]string{}, re.Trace...), callerFrames(1)...)
	return re
}

// callerFrames captures the current Go call stack, skipping skip frames
// above this function, as the local half of the merged backtrace.
func callerFrames(skip int) []string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+2, pcs)
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
