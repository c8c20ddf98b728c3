// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

// Call is the concrete shape of a method invocation: a method name plus its
// positional arguments. The core dispatcher and session never inspect a
// Call themselves — they hand it to Codec.Encode and, on the server, to
// Invoker.Invoke/InvokeWithYield — but a codec and invoker need to agree on
// some concrete representation, and this is it.
type Call struct {
	Method string
	Args   []any
}

// ObjectReference is an object reference marker: a distinguished value
// carrying a non-negative object id. When a reply payload decodes to
// ObjectReference, the client materialises a Proxy instead of returning
// the marker.
type ObjectReference struct {
	ObjectID uint16
}
