// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge

import (
	"fmt"
	"strconv"
)

// installPrelude populates env with the builtins every bootstrap session needs: the universal
// exception carriers and their projectors, arithmetic/string helpers, and the wire-level
// (Data -> Data) builtins the [Converter] framework references by name when it generates
// StoreExpr text for compile_function wrappers and for the primitive/tuple/list/option Store and
// Retrieve operations.
//
// Everything registered here is reachable purely by StoreExpr-ing its bare identifier: a
// single-token program is valid engine code, so e.g. StoreExpr("int_parse") evaluates as a
// variable lookup and stores the already-built ExnFunc value under a fresh ObjectID.
func installPrelude(env *evalEnv, store *EngineStore) {
	identity := func(kind ExnKind, label string) ExnValue {
		return exnNative(func(v ExnValue) (ExnValue, error) {
			if v.Kind != kind {
				return ExnValue{}, fail("%s: expected %s, got %s", label, label, v.typeName())
			}
			return v, nil
		})
	}

	env.vars["E_Int"] = identity(ExnInt, "int")
	env.vars["project_int"] = identity(ExnInt, "int")
	env.vars["E_String"] = identity(ExnString, "string")
	env.vars["project_string"] = identity(ExnString, "string")
	env.vars["E_Bool"] = identity(ExnBool, "bool")
	env.vars["project_bool"] = identity(ExnBool, "bool")
	env.vars["E_Pair"] = identity(ExnPair, "pair")
	env.vars["project_pair"] = identity(ExnPair, "pair")
	env.vars["E_List"] = identity(ExnList, "list")
	env.vars["project_list"] = identity(ExnList, "list")
	env.vars["E_Option"] = identity(ExnOption, "option")
	env.vars["project_option"] = identity(ExnOption, "option")
	env.vars["E_Unit"] = identity(ExnUnit, "unit")
	env.vars["project_unit"] = identity(ExnUnit, "unit")

	// E_Object/project_object back [IdentityConverter] (handleconverter.go): an opaque handle
	// already denotes a live object of whatever shape it holds, so there is nothing to validate.
	passthrough := exnNative(func(v ExnValue) (ExnValue, error) { return v, nil })
	env.vars["E_Object"] = passthrough
	env.vars["project_object"] = passthrough

	// pair_fst/pair_snd destructure an ExnPair for engine code that holds one. Nothing in this
	// package calls them: compile.go's CompileFunction2..7 wrappers read their arguments from a
	// flat list with list_nth, and tuple_unpackN uses unpackPair directly.
	env.vars["pair_fst"] = exnNative(func(v ExnValue) (ExnValue, error) {
		if v.Kind != ExnPair {
			return ExnValue{}, fail("pair_fst: expected pair, got %s", v.typeName())
		}
		return *v.Pair[0], nil
	})
	env.vars["pair_snd"] = exnNative(func(v ExnValue) (ExnValue, error) {
		if v.Kind != ExnPair {
			return ExnValue{}, fail("pair_snd: expected pair, got %s", v.typeName())
		}
		return *v.Pair[1], nil
	})

	// list_nth is curried (native returning native) so compile.go's multi-argument wrappers can
	// write `(list_nth 0 x)`, `(list_nth 1 x)`, ... to pull each packed argument back out of the
	// ExnList x the Apply2..7 helpers hand the wrapper.
	env.vars["list_nth"] = exnNative(func(idxVal ExnValue) (ExnValue, error) {
		if idxVal.Kind != ExnInt {
			return ExnValue{}, fail("list_nth: expected int index, got %s", idxVal.typeName())
		}
		idx := idxVal.I
		return exnNative(func(listVal ExnValue) (ExnValue, error) {
			if listVal.Kind != ExnList {
				return ExnValue{}, fail("list_nth: expected list, got %s", listVal.typeName())
			}
			if idx < 0 || int(idx) >= len(listVal.List) {
				return ExnValue{}, fail("list_nth: index %d out of range", idx)
			}
			return listVal.List[idx], nil
		}), nil
	})

	env.vars["string_of_int"] = exnNative(func(v ExnValue) (ExnValue, error) {
		if v.Kind != ExnInt {
			return ExnValue{}, fail("string_of_int: expected int, got %s", v.typeName())
		}
		return exnString(strconv.FormatInt(v.I, 10)), nil
	})

	// objval dereferences a literal object id embedded in generated wrapper text (see
	// compile.go). It is a bootstrap-internal seam, not a user-facing builtin, but nothing
	// prevents ordinary engine code from calling it too.
	env.vars["objval"] = exnNative(func(v ExnValue) (ExnValue, error) {
		if v.Kind != ExnInt {
			return ExnValue{}, fail("objval: expected int id, got %s", v.typeName())
		}
		val, ok := store.Get(ObjectID(v.I))
		if !ok {
			return ExnValue{}, fail("no object %d", v.I)
		}
		return val, nil
	})

	// E_Function lifts an interpreted closure (or native) into the wire-callable ExnFunc shape an
	// Apply command invokes. This is the only seam where Data and ExnValue cross: the wrapper
	// dereferences Object arguments through store, applies fn in the evaluator's own value
	// universe, and stores the result as a fresh object.
	env.vars["E_Function"] = exnNative(func(fn ExnValue) (ExnValue, error) {
		if fn.Kind != ExnClosure && fn.Kind != ExnNative {
			return ExnValue{}, fail("E_Function: argument is not a function")
		}
		return exnFunc(func(d Data) (Data, error) {
			argVal, err := dataToExnShallow(store, d)
			if err != nil {
				return Data{}, err
			}
			resultVal, err := applyExn(fn, argVal)
			if err != nil {
				return Data{}, err
			}
			newID := store.Store(resultVal)
			return Object(newID), nil
		}), nil
	})

	installPrimitiveWireBuiltins(env, store)
	installCompositeWireBuiltins(env, store)
}

// dataToExnShallow converts a Data value into the evaluator's ExnValue universe, dereferencing
// Object ids through store. Lists recurse; Int and String map directly.
func dataToExnShallow(store *EngineStore, d Data) (ExnValue, error) {
	switch d.Tag() {
	case TagInt:
		v, _ := d.Int()
		return exnInt(v), nil
	case TagString:
		v, _ := d.Str()
		return exnString(v), nil
	case TagObject:
		id, _ := d.Object()
		v, ok := store.Get(id)
		if !ok {
			return ExnValue{}, fmt.Errorf("no object %d", id)
		}
		return v, nil
	case TagList:
		items, _ := d.List()
		elems := make([]ExnValue, len(items))
		for i, it := range items {
			ev, err := dataToExnShallow(store, it)
			if err != nil {
				return ExnValue{}, err
			}
			elems[i] = ev
		}
		return ExnValue{Kind: ExnList, List: elems}, nil
	default:
		return ExnValue{}, fmt.Errorf("unsupported Data tag %v", d.Tag())
	}
}

func installPrimitiveWireBuiltins(env *evalEnv, store *EngineStore) {
	env.vars["int_parse"] = exnFunc(func(d Data) (Data, error) {
		v, ok := d.Int()
		if !ok {
			return Data{}, fmt.Errorf("int_parse: argument is not an Int")
		}
		return Object(store.Store(exnInt(v))), nil
	})
	env.vars["int_project"] = exnFunc(func(d Data) (Data, error) {
		id, ok := d.Object()
		if !ok {
			return Data{}, fmt.Errorf("int_project: argument is not an Object")
		}
		v, ok := store.Get(id)
		if !ok {
			return Data{}, fmt.Errorf("no object %d", id)
		}
		if v.Kind != ExnInt {
			return Data{}, fmt.Errorf("int_project: object %d is not an int", id)
		}
		return Int(v.I), nil
	})

	env.vars["string_parse"] = exnFunc(func(d Data) (Data, error) {
		v, ok := d.Str()
		if !ok {
			return Data{}, fmt.Errorf("string_parse: argument is not a String")
		}
		return Object(store.Store(exnString(v))), nil
	})
	env.vars["string_project"] = exnFunc(func(d Data) (Data, error) {
		id, ok := d.Object()
		if !ok {
			return Data{}, fmt.Errorf("string_project: argument is not an Object")
		}
		v, ok := store.Get(id)
		if !ok {
			return Data{}, fmt.Errorf("no object %d", id)
		}
		if v.Kind != ExnString {
			return Data{}, fmt.Errorf("string_project: object %d is not a string", id)
		}
		return Str(v.S), nil
	})

	// bool has no dedicated wire tag (data.go §4.1); it rides Int(0) / Int(1).
	env.vars["bool_parse"] = exnFunc(func(d Data) (Data, error) {
		v, ok := d.Int()
		if !ok || (v != 0 && v != 1) {
			return Data{}, fmt.Errorf("bool_parse: argument is not 0 or 1")
		}
		return Object(store.Store(exnBool(v == 1))), nil
	})
	env.vars["bool_project"] = exnFunc(func(d Data) (Data, error) {
		id, ok := d.Object()
		if !ok {
			return Data{}, fmt.Errorf("bool_project: argument is not an Object")
		}
		v, ok := store.Get(id)
		if !ok {
			return Data{}, fmt.Errorf("no object %d", id)
		}
		if v.Kind != ExnBool {
			return Data{}, fmt.Errorf("bool_project: object %d is not a bool", id)
		}
		if v.B {
			return Int(1), nil
		}
		return Int(0), nil
	})

	// unit rides the empty List, the same shape EvalCode's reply uses.
	env.vars["unit_parse"] = exnFunc(func(d Data) (Data, error) {
		items, ok := d.List()
		if !ok || len(items) != 0 {
			return Data{}, fmt.Errorf("unit_parse: argument is not an empty List")
		}
		return Object(store.Store(exnUnit())), nil
	})
	env.vars["unit_project"] = exnFunc(func(d Data) (Data, error) {
		id, ok := d.Object()
		if !ok {
			return Data{}, fmt.Errorf("unit_project: argument is not an Object")
		}
		v, ok := store.Get(id)
		if !ok {
			return Data{}, fmt.Errorf("no object %d", id)
		}
		if v.Kind != ExnUnit {
			return Data{}, fmt.Errorf("unit_project: object %d is not unit", id)
		}
		return List(), nil
	})
}

// installCompositeWireBuiltins registers the driver-facing tuple/list/option Store and Retrieve
// helpers the composite [Converter] implementations call into. Tuple arities 2 through 7 match
// the converters in tuple.go.
func installCompositeWireBuiltins(env *evalEnv, store *EngineStore) {
	for n := 2; n <= 7; n++ {
		n := n
		packName := fmt.Sprintf("tuple_pack%d", n)
		unpackName := fmt.Sprintf("tuple_unpack%d", n)

		env.vars[packName] = exnFunc(func(d Data) (Data, error) {
			items, ok := d.List()
			if !ok || len(items) != n {
				return Data{}, fmt.Errorf("%s: argument must be a List of %d Objects", packName, n)
			}
			elems := make([]ExnValue, n)
			for i, it := range items {
				id, ok := it.Object()
				if !ok {
					return Data{}, fmt.Errorf("%s: element %d is not an Object", packName, i)
				}
				v, ok := store.Get(id)
				if !ok {
					return Data{}, fmt.Errorf("no object %d", id)
				}
				elems[i] = v
			}
			return Object(store.Store(packPair(elems))), nil
		})

		env.vars[unpackName] = exnFunc(func(d Data) (Data, error) {
			id, ok := d.Object()
			if !ok {
				return Data{}, fmt.Errorf("%s: argument is not an Object", unpackName)
			}
			v, ok := store.Get(id)
			if !ok {
				return Data{}, fmt.Errorf("no object %d", id)
			}
			elems, err := unpackPair(v, n)
			if err != nil {
				return Data{}, fmt.Errorf("%s: %w", unpackName, err)
			}
			items := make([]Data, n)
			for i, ev := range elems {
				items[i] = Object(store.Store(ev))
			}
			return List(items...), nil
		})
	}

	env.vars["list_pack"] = exnFunc(func(d Data) (Data, error) {
		items, ok := d.List()
		if !ok {
			return Data{}, fmt.Errorf("list_pack: argument is not a List")
		}
		elems := make([]ExnValue, len(items))
		for i, it := range items {
			id, ok := it.Object()
			if !ok {
				return Data{}, fmt.Errorf("list_pack: element %d is not an Object", i)
			}
			v, ok := store.Get(id)
			if !ok {
				return Data{}, fmt.Errorf("no object %d", id)
			}
			elems[i] = v
		}
		return Object(store.Store(ExnValue{Kind: ExnList, List: elems})), nil
	})
	env.vars["list_unpack"] = exnFunc(func(d Data) (Data, error) {
		id, ok := d.Object()
		if !ok {
			return Data{}, fmt.Errorf("list_unpack: argument is not an Object")
		}
		v, ok := store.Get(id)
		if !ok {
			return Data{}, fmt.Errorf("no object %d", id)
		}
		if v.Kind != ExnList {
			return Data{}, fmt.Errorf("list_unpack: object %d is not a list", id)
		}
		items := make([]Data, len(v.List))
		for i, ev := range v.List {
			items[i] = Object(store.Store(ev))
		}
		return List(items...), nil
	})

	env.vars["option_pack"] = exnFunc(func(d Data) (Data, error) {
		items, ok := d.List()
		if !ok || len(items) > 1 {
			return Data{}, fmt.Errorf("option_pack: argument must be a List of 0 or 1 Objects")
		}
		if len(items) == 0 {
			return Object(store.Store(ExnValue{Kind: ExnOption})), nil
		}
		id, ok := items[0].Object()
		if !ok {
			return Data{}, fmt.Errorf("option_pack: element is not an Object")
		}
		v, ok := store.Get(id)
		if !ok {
			return Data{}, fmt.Errorf("no object %d", id)
		}
		return Object(store.Store(ExnValue{Kind: ExnOption, Opt: &v})), nil
	})
	env.vars["option_unpack"] = exnFunc(func(d Data) (Data, error) {
		id, ok := d.Object()
		if !ok {
			return Data{}, fmt.Errorf("option_unpack: argument is not an Object")
		}
		v, ok := store.Get(id)
		if !ok {
			return Data{}, fmt.Errorf("no object %d", id)
		}
		if v.Kind != ExnOption {
			return Data{}, fmt.Errorf("option_unpack: object %d is not an option", id)
		}
		if v.Opt == nil {
			return List(), nil
		}
		return List(Object(store.Store(*v.Opt))), nil
	})
}

// packPair builds the right-leaning ExnPair nest the tuple converters use: (a, (b, (c, ...))).
func packPair(elems []ExnValue) ExnValue {
	if len(elems) == 1 {
		return elems[0]
	}
	head := elems[0]
	tail := packPair(elems[1:])
	return ExnValue{Kind: ExnPair, Pair: [2]*ExnValue{&head, &tail}}
}

// unpackPair walks a right-leaning ExnPair nest of depth n-1, returning its n leaves in order.
func unpackPair(v ExnValue, n int) ([]ExnValue, error) {
	if n == 1 {
		return []ExnValue{v}, nil
	}
	if v.Kind != ExnPair {
		return nil, fmt.Errorf("expected a %d-tuple, got %s", n, v.typeName())
	}
	rest, err := unpackPair(*v.Pair[1], n-1)
	if err != nil {
		return nil, err
	}
	return append([]ExnValue{*v.Pair[0]}, rest...), nil
}
