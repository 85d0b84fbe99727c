// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge

import "context"

// Converter bridges a driver-side Go type A to the engine's object store. MLType exists purely
// for diagnostics and generated wrapper comments. ValueToExn and ExnToValue name
// pre-registered engine-side builtins (prelude.go) spliced into a compile_function/compile_value
// wrapper's result and argument positions, respectively (compile.go). Store and Retrieve are the
// operational path driver code actually calls.
type Converter[A any] interface {
	// MLType names the engine-side type this converter corresponds to.
	MLType() string

	// ValueToExn names the engine-side builtin that validates/wraps the universal exception
	// carrier this converter produces.
	ValueToExn() string

	// ExnToValue names the engine-side builtin that validates/projects the universal exception
	// carrier this converter expects.
	ExnToValue() string

	// Store sends v to the engine and returns a handle to the resulting remote object.
	Store(ctx context.Context, t *Transport, v A) (Handle[A], error)

	// Retrieve fetches the value id refers to back to the driver side.
	Retrieve(ctx context.Context, t *Transport, id ObjectID) (A, error)
}

// storeViaBuiltin resolves a named prelude builtin to a fresh ObjectID, applies it to arg, and
// schedules the short-lived builtin object's own removal once used. This is the Store-direction
// primitive every scalar converter shares.
func storeViaBuiltin(ctx context.Context, t *Transport, builtin string, arg Data) (ObjectID, error) {
	fnID, err := t.StoreExpr(ctx, builtin)
	if err != nil {
		return 0, err
	}
	defer t.ScheduleRemove(fnID)
	result, err := t.Apply(ctx, fnID, arg)
	if err != nil {
		return 0, err
	}
	id, ok := result.Object()
	if !ok {
		return 0, &ProtocolError{Reason: builtin + " did not return an Object"}
	}
	return id, nil
}

// retrieveViaBuiltin is the Retrieve-direction mirror of storeViaBuiltin.
func retrieveViaBuiltin(ctx context.Context, t *Transport, builtin string, id ObjectID) (Data, error) {
	fnID, err := t.StoreExpr(ctx, builtin)
	if err != nil {
		return Data{}, err
	}
	defer t.ScheduleRemove(fnID)
	return t.Apply(ctx, fnID, Object(id))
}

// IntConverter is the primitive [Converter] for int64.
type IntConverter struct{}

func (IntConverter) MLType() string     { return "int" }
func (IntConverter) ValueToExn() string { return "E_Int" }
func (IntConverter) ExnToValue() string { return "project_int" }

func (c IntConverter) Store(ctx context.Context, t *Transport, v int64) (Handle[int64], error) {
	id, err := storeViaBuiltin(ctx, t, "int_parse", Int(v))
	if err != nil {
		return Handle[int64]{}, err
	}
	return newHandle[int64](t, id), nil
}

func (c IntConverter) Retrieve(ctx context.Context, t *Transport, id ObjectID) (int64, error) {
	d, err := retrieveViaBuiltin(ctx, t, "int_project", id)
	if err != nil {
		return 0, err
	}
	v, ok := d.Int()
	if !ok {
		return 0, &ConverterError{Reason: "int_project did not return an Int"}
	}
	return v, nil
}

// StringConverter is the primitive [Converter] for string.
type StringConverter struct{}

func (StringConverter) MLType() string     { return "string" }
func (StringConverter) ValueToExn() string { return "E_String" }
func (StringConverter) ExnToValue() string { return "project_string" }

func (c StringConverter) Store(ctx context.Context, t *Transport, v string) (Handle[string], error) {
	id, err := storeViaBuiltin(ctx, t, "string_parse", Str(v))
	if err != nil {
		return Handle[string]{}, err
	}
	return newHandle[string](t, id), nil
}

func (c StringConverter) Retrieve(ctx context.Context, t *Transport, id ObjectID) (string, error) {
	d, err := retrieveViaBuiltin(ctx, t, "string_project", id)
	if err != nil {
		return "", err
	}
	v, ok := d.Str()
	if !ok {
		return "", &ConverterError{Reason: "string_project did not return a String"}
	}
	return v, nil
}

// BoolConverter is the primitive [Converter] for bool. The wire has no dedicated boolean tag
// (data.go); bool rides Int(0)/Int(1), matching how the engine-side bool_parse/bool_project
// builtins (prelude.go) represent it.
type BoolConverter struct{}

func (BoolConverter) MLType() string     { return "bool" }
func (BoolConverter) ValueToExn() string { return "E_Bool" }
func (BoolConverter) ExnToValue() string { return "project_bool" }

func (c BoolConverter) Store(ctx context.Context, t *Transport, v bool) (Handle[bool], error) {
	arg := Int(0)
	if v {
		arg = Int(1)
	}
	id, err := storeViaBuiltin(ctx, t, "bool_parse", arg)
	if err != nil {
		return Handle[bool]{}, err
	}
	return newHandle[bool](t, id), nil
}

func (c BoolConverter) Retrieve(ctx context.Context, t *Transport, id ObjectID) (bool, error) {
	d, err := retrieveViaBuiltin(ctx, t, "bool_project", id)
	if err != nil {
		return false, err
	}
	v, ok := d.Int()
	if !ok {
		return false, &ConverterError{Reason: "bool_project did not return an Int"}
	}
	return v != 0, nil
}

// UnitConverter is the primitive [Converter] for struct{}. Unit rides the empty List, the same
// shape EvalCode's reply uses.
type UnitConverter struct{}

func (UnitConverter) MLType() string     { return "unit" }
func (UnitConverter) ValueToExn() string { return "E_Unit" }
func (UnitConverter) ExnToValue() string { return "project_unit" }

func (c UnitConverter) Store(ctx context.Context, t *Transport, _ struct{}) (Handle[struct{}], error) {
	id, err := storeViaBuiltin(ctx, t, "unit_parse", List())
	if err != nil {
		return Handle[struct{}]{}, err
	}
	return newHandle[struct{}](t, id), nil
}

func (c UnitConverter) Retrieve(ctx context.Context, t *Transport, id ObjectID) (struct{}, error) {
	_, err := retrieveViaBuiltin(ctx, t, "unit_project", id)
	if err != nil {
		return struct{}{}, err
	}
	return struct{}{}, nil
}
