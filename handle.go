// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge

import (
	"context"
	"sync/atomic"

	"code.hybscloud.com/kont"
)

// Handle is a phantom-typed, reference-counted remote reference to a value living in the
// engine's object store. A is never constructed on the driver side — [kont.Phantom] records it
// purely so the compiler ties a Handle to the [Converter] that can retrieve or apply it, at zero
// runtime cost.
type Handle[A any] struct {
	kont.Phantom[A]

	t  *Transport
	id ObjectID

	// refs is shared by every alias produced by Clone; the remote object is only scheduled for
	// removal once the count reaches zero.
	refs *int32

	// name identifies the generated wrapper this handle addresses, for compiled functions only.
	// Empty for every other Handle.
	name string
}

// newHandle wraps a freshly stored object id as a single-owner Handle.
func newHandle[A any](t *Transport, id ObjectID) Handle[A] {
	n := int32(1)
	return Handle[A]{t: t, id: id, refs: &n}
}

// newNamedHandle is newHandle for a compiled-function wrapper: name is threaded through so a
// failed Apply can be reported against the wrapper that raised it rather than as an anonymous
// engine error.
func newNamedHandle[A any](t *Transport, id ObjectID, name string) Handle[A] {
	n := int32(1)
	return Handle[A]{t: t, id: id, refs: &n, name: name}
}

// Id returns the remote object id this handle refers to. Mainly useful for composing converters
// (tuple.go, compile.go) that need to address an element's object directly.
func (h Handle[A]) Id() ObjectID { return h.id }

// Clone returns an alias of h that shares its refcount. The underlying remote object is removed
// only once every alias, including h itself, has been closed.
func (h Handle[A]) Clone() Handle[A] {
	atomic.AddInt32(h.refs, 1)
	return h
}

// Close releases this alias. When the last alias is closed the remote object is scheduled for
// batched removal via the owning Transport — not removed synchronously, since nothing is waiting
// on a result.
func (h Handle[A]) Close() {
	if h.refs == nil {
		return
	}
	if atomic.AddInt32(h.refs, -1) <= 0 {
		h.t.ScheduleRemove(h.id)
	}
}

// Retrieve reconstructs the driver-side value h refers to, using conv to interpret the stored
// object's shape.
func Retrieve[A any](ctx context.Context, conv Converter[A], h Handle[A]) (A, error) {
	return conv.Retrieve(ctx, h.t, h.id)
}

// RetrieveNow blocks until h's value is retrieved, using conv to interpret the stored object's
// shape. Every request this bridge issues already blocks the calling goroutine until its reply
// arrives or ctx is done — there is no separate non-blocking retrieve for it to contrast with —
// so RetrieveNow and the free [Retrieve] function are the same operation offered as a method, for
// callers that already have h in hand and want the receiver-style spelling.
func (h Handle[A]) RetrieveNow(ctx context.Context, conv Converter[A]) (A, error) {
	return conv.Retrieve(ctx, h.t, h.id)
}

// FunctionView re-presents h, a compiled one-argument remote function, as an ordinary Go
// closure bound to convD/convR. Calling the closure costs exactly one Apply round trip, the same
// as calling [Apply] directly — this is a type reassociation, not a new code path.
func FunctionView[D, R any](h Handle[Func[D, R]], convD Converter[D], convR Converter[R]) func(ctx context.Context, arg D) (R, error) {
	return func(ctx context.Context, arg D) (R, error) {
		return Apply[D, R](ctx, h.t, convD, convR, h, arg)
	}
}

// FunctionView2 is the two-argument view, wrapping [Apply2].
func FunctionView2[D1, D2, R any](h Handle[Func2[D1, D2, R]], c1 Converter[D1], c2 Converter[D2], cr Converter[R]) func(ctx context.Context, a1 D1, a2 D2) (R, error) {
	return func(ctx context.Context, a1 D1, a2 D2) (R, error) {
		return Apply2[D1, D2, R](ctx, h.t, c1, c2, cr, h, a1, a2)
	}
}

// FunctionView3 is the three-argument view, wrapping [Apply3].
func FunctionView3[D1, D2, D3, R any](h Handle[Func3[D1, D2, D3, R]], c1 Converter[D1], c2 Converter[D2], c3 Converter[D3], cr Converter[R]) func(ctx context.Context, a1 D1, a2 D2, a3 D3) (R, error) {
	return func(ctx context.Context, a1 D1, a2 D2, a3 D3) (R, error) {
		return Apply3[D1, D2, D3, R](ctx, h.t, c1, c2, c3, cr, h, a1, a2, a3)
	}
}

// FunctionView4 is the four-argument view, wrapping [Apply4].
func FunctionView4[D1, D2, D3, D4, R any](h Handle[Func4[D1, D2, D3, D4, R]], c1 Converter[D1], c2 Converter[D2], c3 Converter[D3], c4 Converter[D4], cr Converter[R]) func(ctx context.Context, a1 D1, a2 D2, a3 D3, a4 D4) (R, error) {
	return func(ctx context.Context, a1 D1, a2 D2, a3 D3, a4 D4) (R, error) {
		return Apply4[D1, D2, D3, D4, R](ctx, h.t, c1, c2, c3, c4, cr, h, a1, a2, a3, a4)
	}
}

// FunctionView5 is the five-argument view, wrapping [Apply5].
func FunctionView5[D1, D2, D3, D4, D5, R any](h Handle[Func5[D1, D2, D3, D4, D5, R]], c1 Converter[D1], c2 Converter[D2], c3 Converter[D3], c4 Converter[D4], c5 Converter[D5], cr Converter[R]) func(ctx context.Context, a1 D1, a2 D2, a3 D3, a4 D4, a5 D5) (R, error) {
	return func(ctx context.Context, a1 D1, a2 D2, a3 D3, a4 D4, a5 D5) (R, error) {
		return Apply5[D1, D2, D3, D4, D5, R](ctx, h.t, c1, c2, c3, c4, c5, cr, h, a1, a2, a3, a4, a5)
	}
}

// FunctionView6 is the six-argument view, wrapping [Apply6].
func FunctionView6[D1, D2, D3, D4, D5, D6, R any](h Handle[Func6[D1, D2, D3, D4, D5, D6, R]], c1 Converter[D1], c2 Converter[D2], c3 Converter[D3], c4 Converter[D4], c5 Converter[D5], c6 Converter[D6], cr Converter[R]) func(ctx context.Context, a1 D1, a2 D2, a3 D3, a4 D4, a5 D5, a6 D6) (R, error) {
	return func(ctx context.Context, a1 D1, a2 D2, a3 D3, a4 D4, a5 D5, a6 D6) (R, error) {
		return Apply6[D1, D2, D3, D4, D5, D6, R](ctx, h.t, c1, c2, c3, c4, c5, c6, cr, h, a1, a2, a3, a4, a5, a6)
	}
}

// FunctionView7 is the seven-argument view, wrapping [Apply7].
func FunctionView7[D1, D2, D3, D4, D5, D6, D7, R any](h Handle[Func7[D1, D2, D3, D4, D5, D6, D7, R]], c1 Converter[D1], c2 Converter[D2], c3 Converter[D3], c4 Converter[D4], c5 Converter[D5], c6 Converter[D6], c7 Converter[D7], cr Converter[R]) func(ctx context.Context, a1 D1, a2 D2, a3 D3, a4 D4, a5 D5, a6 D6, a7 D7) (R, error) {
	return func(ctx context.Context, a1 D1, a2 D2, a3 D3, a4 D4, a5 D5, a6 D6, a7 D7) (R, error) {
		return Apply7[D1, D2, D3, D4, D5, D6, D7, R](ctx, h.t, c1, c2, c3, c4, c5, c6, c7, cr, h, a1, a2, a3, a4, a5, a6, a7)
	}
}
