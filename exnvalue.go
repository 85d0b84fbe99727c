// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge

import "fmt"

// ExnKind identifies the variant of an [ExnValue].
type ExnKind uint8

const (
	ExnInt ExnKind = iota
	ExnString
	ExnBool
	ExnUnit
	ExnPair
	ExnList
	ExnOption
	ExnFunc
	// ExnClosure and ExnNative are not wire-representable shapes; they only ever live inside the
	// [MiniEvaluator]'s own value universe (a `fn x => e` term, or a builtin). E_Function is the
	// only way to turn one into an ExnFunc the wire protocol can invoke.
	ExnClosure
	ExnNative
)

// closure is an interpreted `fn param => body` term together with the environment it closed
// over, as evaluated by [MiniEvaluator].
type closure struct {
	param string
	body  *expr
	env   *evalEnv
}

// ExnValue is a tagged carrier for every value shape the engine's universal exception type can
// represent. Every object the reference [EngineStore] holds is one of these.
type ExnValue struct {
	Kind ExnKind
	I    int64
	S    string
	B    bool
	Pair [2]*ExnValue
	List []ExnValue
	Opt  *ExnValue // nil means None
	// Func is the function-from-data-to-data variant: the only function shape an Apply command
	// can invoke directly.
	Func func(Data) (Data, error)
	// closure backs ExnClosure (an interpreted lambda term).
	closure *closure
	// native backs ExnNative (a builtin written in Go, operating on ExnValues).
	native func(ExnValue) (ExnValue, error)
}

func exnInt(v int64) ExnValue     { return ExnValue{Kind: ExnInt, I: v} }
func exnString(v string) ExnValue { return ExnValue{Kind: ExnString, S: v} }
func exnBool(v bool) ExnValue     { return ExnValue{Kind: ExnBool, B: v} }
func exnUnit() ExnValue           { return ExnValue{Kind: ExnUnit} }
func exnFunc(f func(Data) (Data, error)) ExnValue {
	return ExnValue{Kind: ExnFunc, Func: f}
}
func exnNative(f func(ExnValue) (ExnValue, error)) ExnValue {
	return ExnValue{Kind: ExnNative, native: f}
}

func (v ExnValue) typeName() string {
	switch v.Kind {
	case ExnInt:
		return "int"
	case ExnString:
		return "string"
	case ExnBool:
		return "bool"
	case ExnUnit:
		return "unit"
	case ExnPair:
		return "pair"
	case ExnList:
		return "list"
	case ExnOption:
		return "option"
	case ExnFunc:
		return "function"
	case ExnClosure:
		return "closure"
	case ExnNative:
		return "builtin"
	default:
		return "?"
	}
}

// EngineStore is the engine-side mapping from [ObjectID] to a stored [ExnValue], plus the
// counter that issues fresh ids. Spec §5: the engine side is single-threaded, so EngineStore is
// deliberately not synchronized — only the Engine's dispatch-loop goroutine ever touches it.
type EngineStore struct {
	next    uint64
	objects map[ObjectID]ExnValue
}

// NewEngineStore returns an empty store with its id counter starting at 0.
func NewEngineStore() *EngineStore {
	return &EngineStore{objects: make(map[ObjectID]ExnValue)}
}

// Store assigns the next monotonic id to v and records it. Spec §4.2: "Ids returned by
// StoreExpr and by the engine-internal side effect of transmitting an Object(...) Data are drawn
// from the same monotonic counter and share the same store."
func (s *EngineStore) Store(v ExnValue) ObjectID {
	id := ObjectID(s.next)
	s.next++
	s.objects[id] = v
	return id
}

// Get looks up id, returning (value, true) if live.
func (s *EngineStore) Get(id ObjectID) (ExnValue, bool) {
	v, ok := s.objects[id]
	return v, ok
}

// Remove deletes ids from the store. Spec §8 "Removal idempotence": removing an id that is not
// live is reported as an error naming that id. Every named id is validated before any is
// deleted, so a call that fails removes none of its ids.
func (s *EngineStore) Remove(ids []ObjectID) error {
	for _, id := range ids {
		if _, ok := s.objects[id]; !ok {
			return fmt.Errorf("no object %d", id)
		}
	}
	for _, id := range ids {
		delete(s.objects, id)
	}
	return nil
}
