// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import (
	"context"
)

type serveOptions struct {
	debug  bool
	logger Logger
}

// ServeOption configures Serve.
type ServeOption func(*serveOptions)

// WithDebugLogger enables logging of every exception Serve converts to an
// EXCEPTION frame or swallows after a oneway call, reported through l.
func WithDebugLogger(l Logger) ServeOption {
	return func(o *serveOptions) {
		o.debug = true
		o.logger = l
	}
}

// Serve runs session's recv-dispatch-reply loop until it returns an error
// or ctx is cancelled. Cancellation is only observed between messages —
// never in the middle of reading or writing one — matching the framer
// examples' own server loops, which check ctx.Err() once per outer
// iteration rather than threading it through I/O.
func Serve(ctx context.Context, session *Session, resolver Resolver, invoker Invoker, opts ...ServeOption) error {
	var o serveOptions
	for _, opt := range opts {
		opt(&o)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		kind, objectID, v, err := session.RecvMessage()
		if err != nil {
			return err
		}

		// A SYNC frame's object_id field is its tag, not a target, so it is
		// answered without resolving an object.
		if kind == kindSync {
			if err := replySync(session, objectID); err != nil {
				return err
			}
			continue
		}

		target, rerr := resolver.Resolve(objectID)
		if rerr != nil {
			if dispatchIsReplyable(kind) {
				if err := sendServerException(session, rerr, o); err != nil {
					return err
				}
			} else if o.debug && o.logger != nil {
				o.logger.ReportException(rerr)
			}
			continue
		}

		if err := dispatch(ctx, session, invoker, kind, objectID, target, v, o); err != nil {
			return err
		}
	}
}

func dispatchIsReplyable(kind Kind) bool {
	switch kind {
	case kindRequest, kindRequestBlk:
		return true
	default:
		return false
	}
}

func dispatch(ctx context.Context, session *Session, invoker Invoker, kind Kind, objectID uint16, target any, v any, o serveOptions) error {
	switch kind {
	case kindRequest:
		call, ok := v.(Call)
		if !ok {
			return sendServerException(session, &ProtocolError{Reason: "REQUEST payload is not a call"}, o)
		}
		result, ierr := invoker.Invoke(ctx, target, call.Method, call.Args)
		if ierr != nil {
			return sendServerException(session, ierr, o)
		}
		return session.SendMessage(kindRetval, objectID, result)

	case kindRequestBlk:
		call, ok := v.(Call)
		if !ok {
			return sendServerException(session, &ProtocolError{Reason: "REQUEST_BLOCK payload is not a call"}, o)
		}
		onYield := func(yv any) error {
			return session.SendMessage(kindYield, objectID, yv)
		}
		result, ierr := invoker.InvokeWithYield(ctx, target, call.Method, call.Args, onYield)
		if ierr != nil {
			return sendServerException(session, ierr, o)
		}
		return session.SendMessage(kindRetval, objectID, result)

	case kindOneway:
		call, ok := v.(Call)
		if !ok {
			if o.debug && o.logger != nil {
				o.logger.ReportException(&ProtocolError{Reason: "ONEWAY payload is not a call"})
			}
			return nil
		}
		if _, ierr := invoker.Invoke(ctx, target, call.Method, call.Args); ierr != nil && o.debug && o.logger != nil {
			o.logger.ReportException(ierr)
		}
		return nil

	case kindOnewaySync:
		if err := session.SendMessage(kindNull, objectID, nil); err != nil {
			return err
		}
		call, ok := v.(Call)
		if !ok {
			if o.debug && o.logger != nil {
				o.logger.ReportException(&ProtocolError{Reason: "ONEWAY_SYNC payload is not a call"})
			}
			return nil
		}
		if _, ierr := invoker.Invoke(ctx, target, call.Method, call.Args); ierr != nil && o.debug && o.logger != nil {
			o.logger.ReportException(ierr)
		}
		return nil

	case kindSync:
		return replySync(session, objectID)

	default:
		return sendServerException(session, &ProtocolError{Reason: "bad session request: " + kind.String()}, o)
	}
}

func sendServerException(session *Session, err error, o serveOptions) error {
	re, ok := err.(*RemoteException)
	if !ok {
		re = &RemoteException{Msg: err.Error()}
	}
	if o.debug && o.logger != nil {
		o.logger.ReportException(re)
	}
	return session.SendMessage(kindException, 0, re)
}
