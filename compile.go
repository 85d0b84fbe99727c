// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge

import (
	"context"
	"errors"
	"fmt"

	"code.hybscloud.com/atomix"
)

// wrapperSeq names successive compiled wrappers (compiled_wrapper_1, compiled_wrapper_2, ...) so
// a failed Apply can be attributed to the function that raised it.
var wrapperSeq atomix.Uint64

// namedApplyErr prefixes err with name when err is an [EngineError] — an actual failure raised
// by the engine's evaluation of the wrapper body, as opposed to a transport or protocol failure,
// which already identifies itself.
func namedApplyErr(name string, err error) error {
	var eerr *EngineError
	if errors.As(err, &eerr) {
		return &EngineError{Message: fmt.Sprintf("%s: %s", name, eerr.Message)}
	}
	return err
}

// CompileValue evaluates code in the engine and stores the result, validating it against conv's
// engine-side carrier on the way in.
func CompileValue[A any](ctx context.Context, t *Transport, conv Converter[A], code string) (Handle[A], error) {
	wrapped := fmt.Sprintf("(%s) (%s)", conv.ValueToExn(), code)
	id, err := t.StoreExpr(ctx, wrapped)
	if err != nil {
		return Handle[A]{}, err
	}
	return newHandle[A](t, id), nil
}

// Func is the phantom marker for a one-argument compiled function: Handle[Func[D, R]] denotes a
// remote function from D to R. Nothing about Func itself is ever constructed on the driver side.
type Func[D, R any] struct{}

// Func2 through Func7 are the same marker for multi-argument compiled functions.
type Func2[D1, D2, R any] struct{}
type Func3[D1, D2, D3, R any] struct{}
type Func4[D1, D2, D3, D4, R any] struct{}
type Func5[D1, D2, D3, D4, D5, R any] struct{}
type Func6[D1, D2, D3, D4, D5, D6, R any] struct{}
type Func7[D1, D2, D3, D4, D5, D6, D7, R any] struct{}

// compileWrapper stores code as the underlying user function and wraps it with E_Function so the
// result becomes wire-callable: the wrapper dereferences its Data argument, applies the argExpr
// expression (which projects and, for multi-argument variants, destructures the argument)
// against the stored user closure, and validates/wraps the result via resultWrap. It also mints
// a name for the wrapper so a later failed Apply can be reported against it.
func compileWrapper(ctx context.Context, t *Transport, code, resultWrap, argExpr string) (ObjectID, string, error) {
	userID, err := t.StoreExpr(ctx, code)
	if err != nil {
		return 0, "", err
	}
	name := fmt.Sprintf("compiled_wrapper_%d", wrapperSeq.Add(1))
	wrapperText := fmt.Sprintf("E_Function (fn x => (%s) ((objval %d) %s))", resultWrap, uint64(userID), argExpr)
	id, err := t.StoreExpr(ctx, wrapperText)
	if err != nil {
		return 0, "", err
	}
	return id, name, nil
}

// CompileFunction compiles code (expected to evaluate to a `fn d => r` term) into a wire-callable
// remote function from D to R.
func CompileFunction[D, R any](ctx context.Context, t *Transport, convD Converter[D], convR Converter[R], code string) (Handle[Func[D, R]], error) {
	argExpr := fmt.Sprintf("((%s) x)", convD.ExnToValue())
	id, name, err := compileWrapper(ctx, t, code, convR.ValueToExn(), argExpr)
	if err != nil {
		return Handle[Func[D, R]]{}, err
	}
	return newNamedHandle[Func[D, R]](t, id, name), nil
}

// Apply invokes a compiled one-argument remote function, storing arg and retrieving the result
// through the same converters CompileFunction was built with.
func Apply[D, R any](ctx context.Context, t *Transport, convD Converter[D], convR Converter[R], fn Handle[Func[D, R]], arg D) (R, error) {
	var zero R
	argHandle, err := convD.Store(ctx, t, arg)
	if err != nil {
		return zero, err
	}
	defer argHandle.Close()

	result, err := t.Apply(ctx, fn.Id(), Object(argHandle.Id()))
	if err != nil {
		return zero, namedApplyErr(fn.name, err)
	}
	resultID, ok := result.Object()
	if !ok {
		return zero, &ProtocolError{Reason: "Apply result is not an Object"}
	}
	return convR.Retrieve(ctx, t, resultID)
}

// argListExpr builds the `(list_nth i x)` expression used by the multi-argument compile/apply
// helpers to pull the i-th packed argument back out of x.
func argListExpr(i int) string {
	return fmt.Sprintf("(list_nth %d x)", i)
}

// CompileFunction2 compiles code (expected to evaluate to a curried `fn a => fn b => r` term)
// into a remote function invoked with two packed arguments.
func CompileFunction2[D1, D2, R any](ctx context.Context, t *Transport, c1 Converter[D1], c2 Converter[D2], cr Converter[R], code string) (Handle[Func2[D1, D2, R]], error) {
	argExpr := fmt.Sprintf("((%s) %s) ((%s) %s)", c1.ExnToValue(), argListExpr(0), c2.ExnToValue(), argListExpr(1))
	id, name, err := compileWrapper(ctx, t, code, cr.ValueToExn(), argExpr)
	if err != nil {
		return Handle[Func2[D1, D2, R]]{}, err
	}
	return newNamedHandle[Func2[D1, D2, R]](t, id, name), nil
}

// Apply2 invokes a compiled two-argument remote function.
func Apply2[D1, D2, R any](ctx context.Context, t *Transport, c1 Converter[D1], c2 Converter[D2], cr Converter[R], fn Handle[Func2[D1, D2, R]], a1 D1, a2 D2) (R, error) {
	var zero R
	h1, err := c1.Store(ctx, t, a1)
	if err != nil {
		return zero, err
	}
	defer h1.Close()
	h2, err := c2.Store(ctx, t, a2)
	if err != nil {
		return zero, err
	}
	defer h2.Close()

	result, err := t.Apply(ctx, fn.Id(), List(Object(h1.Id()), Object(h2.Id())))
	if err != nil {
		return zero, namedApplyErr(fn.name, err)
	}
	resultID, ok := result.Object()
	if !ok {
		return zero, &ProtocolError{Reason: "Apply result is not an Object"}
	}
	return cr.Retrieve(ctx, t, resultID)
}

// CompileFunction3 is the three-argument variant of [CompileFunction2].
func CompileFunction3[D1, D2, D3, R any](ctx context.Context, t *Transport, c1 Converter[D1], c2 Converter[D2], c3 Converter[D3], cr Converter[R], code string) (Handle[Func3[D1, D2, D3, R]], error) {
	argExpr := fmt.Sprintf("(((%s) %s) ((%s) %s)) ((%s) %s)",
		c1.ExnToValue(), argListExpr(0), c2.ExnToValue(), argListExpr(1), c3.ExnToValue(), argListExpr(2))
	id, name, err := compileWrapper(ctx, t, code, cr.ValueToExn(), argExpr)
	if err != nil {
		return Handle[Func3[D1, D2, D3, R]]{}, err
	}
	return newNamedHandle[Func3[D1, D2, D3, R]](t, id, name), nil
}

// Apply3 invokes a compiled three-argument remote function.
func Apply3[D1, D2, D3, R any](ctx context.Context, t *Transport, c1 Converter[D1], c2 Converter[D2], c3 Converter[D3], cr Converter[R], fn Handle[Func3[D1, D2, D3, R]], a1 D1, a2 D2, a3 D3) (R, error) {
	var zero R
	h1, err := c1.Store(ctx, t, a1)
	if err != nil {
		return zero, err
	}
	defer h1.Close()
	h2, err := c2.Store(ctx, t, a2)
	if err != nil {
		return zero, err
	}
	defer h2.Close()
	h3, err := c3.Store(ctx, t, a3)
	if err != nil {
		return zero, err
	}
	defer h3.Close()

	result, err := t.Apply(ctx, fn.Id(), List(Object(h1.Id()), Object(h2.Id()), Object(h3.Id())))
	if err != nil {
		return zero, namedApplyErr(fn.name, err)
	}
	resultID, ok := result.Object()
	if !ok {
		return zero, &ProtocolError{Reason: "Apply result is not an Object"}
	}
	return cr.Retrieve(ctx, t, resultID)
}

// CompileFunction4 is the four-argument variant.
func CompileFunction4[D1, D2, D3, D4, R any](ctx context.Context, t *Transport, c1 Converter[D1], c2 Converter[D2], c3 Converter[D3], c4 Converter[D4], cr Converter[R], code string) (Handle[Func4[D1, D2, D3, D4, R]], error) {
	argExpr := fmt.Sprintf("((((%s) %s) ((%s) %s)) ((%s) %s)) ((%s) %s)",
		c1.ExnToValue(), argListExpr(0), c2.ExnToValue(), argListExpr(1),
		c3.ExnToValue(), argListExpr(2), c4.ExnToValue(), argListExpr(3))
	id, name, err := compileWrapper(ctx, t, code, cr.ValueToExn(), argExpr)
	if err != nil {
		return Handle[Func4[D1, D2, D3, D4, R]]{}, err
	}
	return newNamedHandle[Func4[D1, D2, D3, D4, R]](t, id, name), nil
}

// Apply4 invokes a compiled four-argument remote function.
func Apply4[D1, D2, D3, D4, R any](ctx context.Context, t *Transport, c1 Converter[D1], c2 Converter[D2], c3 Converter[D3], c4 Converter[D4], cr Converter[R], fn Handle[Func4[D1, D2, D3, D4, R]], a1 D1, a2 D2, a3 D3, a4 D4) (R, error) {
	var zero R
	h1, err := c1.Store(ctx, t, a1)
	if err != nil {
		return zero, err
	}
	defer h1.Close()
	h2, err := c2.Store(ctx, t, a2)
	if err != nil {
		return zero, err
	}
	defer h2.Close()
	h3, err := c3.Store(ctx, t, a3)
	if err != nil {
		return zero, err
	}
	defer h3.Close()
	h4, err := c4.Store(ctx, t, a4)
	if err != nil {
		return zero, err
	}
	defer h4.Close()

	result, err := t.Apply(ctx, fn.Id(), List(Object(h1.Id()), Object(h2.Id()), Object(h3.Id()), Object(h4.Id())))
	if err != nil {
		return zero, namedApplyErr(fn.name, err)
	}
	resultID, ok := result.Object()
	if !ok {
		return zero, &ProtocolError{Reason: "Apply result is not an Object"}
	}
	return cr.Retrieve(ctx, t, resultID)
}

// CompileFunction5 is the five-argument variant.
func CompileFunction5[D1, D2, D3, D4, D5, R any](ctx context.Context, t *Transport, c1 Converter[D1], c2 Converter[D2], c3 Converter[D3], c4 Converter[D4], c5 Converter[D5], cr Converter[R], code string) (Handle[Func5[D1, D2, D3, D4, D5, R]], error) {
	argExpr := fmt.Sprintf("(((((%s) %s) ((%s) %s)) ((%s) %s)) ((%s) %s)) ((%s) %s)",
		c1.ExnToValue(), argListExpr(0), c2.ExnToValue(), argListExpr(1),
		c3.ExnToValue(), argListExpr(2), c4.ExnToValue(), argListExpr(3),
		c5.ExnToValue(), argListExpr(4))
	id, name, err := compileWrapper(ctx, t, code, cr.ValueToExn(), argExpr)
	if err != nil {
		return Handle[Func5[D1, D2, D3, D4, D5, R]]{}, err
	}
	return newNamedHandle[Func5[D1, D2, D3, D4, D5, R]](t, id, name), nil
}

// Apply5 invokes a compiled five-argument remote function.
func Apply5[D1, D2, D3, D4, D5, R any](ctx context.Context, t *Transport, c1 Converter[D1], c2 Converter[D2], c3 Converter[D3], c4 Converter[D4], c5 Converter[D5], cr Converter[R], fn Handle[Func5[D1, D2, D3, D4, D5, R]], a1 D1, a2 D2, a3 D3, a4 D4, a5 D5) (R, error) {
	var zero R
	h1, err := c1.Store(ctx, t, a1)
	if err != nil {
		return zero, err
	}
	defer h1.Close()
	h2, err := c2.Store(ctx, t, a2)
	if err != nil {
		return zero, err
	}
	defer h2.Close()
	h3, err := c3.Store(ctx, t, a3)
	if err != nil {
		return zero, err
	}
	defer h3.Close()
	h4, err := c4.Store(ctx, t, a4)
	if err != nil {
		return zero, err
	}
	defer h4.Close()
	h5, err := c5.Store(ctx, t, a5)
	if err != nil {
		return zero, err
	}
	defer h5.Close()

	result, err := t.Apply(ctx, fn.Id(), List(Object(h1.Id()), Object(h2.Id()), Object(h3.Id()), Object(h4.Id()), Object(h5.Id())))
	if err != nil {
		return zero, namedApplyErr(fn.name, err)
	}
	resultID, ok := result.Object()
	if !ok {
		return zero, &ProtocolError{Reason: "Apply result is not an Object"}
	}
	return cr.Retrieve(ctx, t, resultID)
}

// CompileFunction6 is the six-argument variant.
func CompileFunction6[D1, D2, D3, D4, D5, D6, R any](ctx context.Context, t *Transport, c1 Converter[D1], c2 Converter[D2], c3 Converter[D3], c4 Converter[D4], c5 Converter[D5], c6 Converter[D6], cr Converter[R], code string) (Handle[Func6[D1, D2, D3, D4, D5, D6, R]], error) {
	argExpr := fmt.Sprintf("((((((%s) %s) ((%s) %s)) ((%s) %s)) ((%s) %s)) ((%s) %s)) ((%s) %s)",
		c1.ExnToValue(), argListExpr(0), c2.ExnToValue(), argListExpr(1),
		c3.ExnToValue(), argListExpr(2), c4.ExnToValue(), argListExpr(3),
		c5.ExnToValue(), argListExpr(4), c6.ExnToValue(), argListExpr(5))
	id, name, err := compileWrapper(ctx, t, code, cr.ValueToExn(), argExpr)
	if err != nil {
		return Handle[Func6[D1, D2, D3, D4, D5, D6, R]]{}, err
	}
	return newNamedHandle[Func6[D1, D2, D3, D4, D5, D6, R]](t, id, name), nil
}

// Apply6 invokes a compiled six-argument remote function.
func Apply6[D1, D2, D3, D4, D5, D6, R any](ctx context.Context, t *Transport, c1 Converter[D1], c2 Converter[D2], c3 Converter[D3], c4 Converter[D4], c5 Converter[D5], c6 Converter[D6], cr Converter[R], fn Handle[Func6[D1, D2, D3, D4, D5, D6, R]], a1 D1, a2 D2, a3 D3, a4 D4, a5 D5, a6 D6) (R, error) {
	var zero R
	h1, err := c1.Store(ctx, t, a1)
	if err != nil {
		return zero, err
	}
	defer h1.Close()
	h2, err := c2.Store(ctx, t, a2)
	if err != nil {
		return zero, err
	}
	defer h2.Close()
	h3, err := c3.Store(ctx, t, a3)
	if err != nil {
		return zero, err
	}
	defer h3.Close()
	h4, err := c4.Store(ctx, t, a4)
	if err != nil {
		return zero, err
	}
	defer h4.Close()
	h5, err := c5.Store(ctx, t, a5)
	if err != nil {
		return zero, err
	}
	defer h5.Close()
	h6, err := c6.Store(ctx, t, a6)
	if err != nil {
		return zero, err
	}
	defer h6.Close()

	result, err := t.Apply(ctx, fn.Id(), List(Object(h1.Id()), Object(h2.Id()), Object(h3.Id()), Object(h4.Id()), Object(h5.Id()), Object(h6.Id())))
	if err != nil {
		return zero, namedApplyErr(fn.name, err)
	}
	resultID, ok := result.Object()
	if !ok {
		return zero, &ProtocolError{Reason: "Apply result is not an Object"}
	}
	return cr.Retrieve(ctx, t, resultID)
}

// CompileFunction7 is the seven-argument variant, the same arity ceiling the tuple converters
// (tuple.go) stop at.
func CompileFunction7[D1, D2, D3, D4, D5, D6, D7, R any](ctx context.Context, t *Transport, c1 Converter[D1], c2 Converter[D2], c3 Converter[D3], c4 Converter[D4], c5 Converter[D5], c6 Converter[D6], c7 Converter[D7], cr Converter[R], code string) (Handle[Func7[D1, D2, D3, D4, D5, D6, D7, R]], error) {
	argExpr := fmt.Sprintf("(((((((%s) %s) ((%s) %s)) ((%s) %s)) ((%s) %s)) ((%s) %s)) ((%s) %s)) ((%s) %s)",
		c1.ExnToValue(), argListExpr(0), c2.ExnToValue(), argListExpr(1),
		c3.ExnToValue(), argListExpr(2), c4.ExnToValue(), argListExpr(3),
		c5.ExnToValue(), argListExpr(4), c6.ExnToValue(), argListExpr(5),
		c7.ExnToValue(), argListExpr(6))
	id, name, err := compileWrapper(ctx, t, code, cr.ValueToExn(), argExpr)
	if err != nil {
		return Handle[Func7[D1, D2, D3, D4, D5, D6, D7, R]]{}, err
	}
	return newNamedHandle[Func7[D1, D2, D3, D4, D5, D6, D7, R]](t, id, name), nil
}

// Apply7 invokes a compiled seven-argument remote function.
func Apply7[D1, D2, D3, D4, D5, D6, D7, R any](ctx context.Context, t *Transport, c1 Converter[D1], c2 Converter[D2], c3 Converter[D3], c4 Converter[D4], c5 Converter[D5], c6 Converter[D6], c7 Converter[D7], cr Converter[R], fn Handle[Func7[D1, D2, D3, D4, D5, D6, D7, R]], a1 D1, a2 D2, a3 D3, a4 D4, a5 D5, a6 D6, a7 D7) (R, error) {
	var zero R
	h1, err := c1.Store(ctx, t, a1)
	if err != nil {
		return zero, err
	}
	defer h1.Close()
	h2, err := c2.Store(ctx, t, a2)
	if err != nil {
		return zero, err
	}
	defer h2.Close()
	h3, err := c3.Store(ctx, t, a3)
	if err != nil {
		return zero, err
	}
	defer h3.Close()
	h4, err := c4.Store(ctx, t, a4)
	if err != nil {
		return zero, err
	}
	defer h4.Close()
	h5, err := c5.Store(ctx, t, a5)
	if err != nil {
		return zero, err
	}
	defer h5.Close()
	h6, err := c6.Store(ctx, t, a6)
	if err != nil {
		return zero, err
	}
	defer h6.Close()
	h7, err := c7.Store(ctx, t, a7)
	if err != nil {
		return zero, err
	}
	defer h7.Close()

	result, err := t.Apply(ctx, fn.Id(), List(Object(h1.Id()), Object(h2.Id()), Object(h3.Id()), Object(h4.Id()), Object(h5.Id()), Object(h6.Id()), Object(h7.Id())))
	if err != nil {
		return zero, namedApplyErr(fn.name, err)
	}
	resultID, ok := result.Object()
	if !ok {
		return zero, &ProtocolError{Reason: "Apply result is not an Object"}
	}
	return cr.Retrieve(ctx, t, resultID)
}
