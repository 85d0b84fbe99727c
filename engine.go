// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Engine is the reference, single-threaded engine-side dispatch loop: it reads one command at a
// time, applies it against its [EngineStore], and writes back exactly one reply before reading
// the next command. Nothing in Engine is synchronized — by design, only the goroutine running
// Run ever touches store or eval.
type Engine struct {
	store *EngineStore
	eval  Evaluator
	r     *bufio.Reader
	w     *bufio.Writer
}

// NewEngine builds an Engine around an already-constructed store and evaluator, so a caller can
// share the store between the evaluator's builtins (objval, E_Function) and the dispatch loop's
// own StoreExpr/Apply/Remove handling.
func NewEngine(r io.Reader, w io.Writer, store *EngineStore, eval Evaluator) *Engine {
	return &Engine{store: store, eval: eval, r: bufio.NewReader(r), w: bufio.NewWriter(w)}
}

// NewReferenceEngine wires a fresh [EngineStore] to a fresh [MiniEvaluator], matching what
// [NewLocal] spins up for in-process tests and the demo CLI. A real deployment instead puts a
// genuine theorem-prover process on the other end of r/w and never constructs an Engine at all.
func NewReferenceEngine(r io.Reader, w io.Writer) *Engine {
	store := NewEngineStore()
	eval := NewMiniEvaluator(store)
	return NewEngine(r, w, store, eval)
}

// Run reads commands until the stream closes or a framing error occurs. A clean EOF between
// frames is a normal shutdown and returns nil. A declared string length over maxStringLen
// (wire.go) is the one recoverable framing error: the oversized bytes are already discarded by
// the time ReadCommand returns, so Run answers that request's sequence number with a failure
// reply and keeps going. Anything else (a short read mid-frame, an unknown tag) is fatal and is
// returned to the caller, who should treat the transport as broken.
func (e *Engine) Run() error {
	for {
		seq, cmd, err := ReadCommand(e.r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			var tooLong *StringTooLongError
			if errors.As(err, &tooLong) {
				if werr := WriteReply(e.w, seq, FailureReply(tooLong.Error())); werr != nil {
					return werr
				}
				if werr := e.w.Flush(); werr != nil {
					return werr
				}
				continue
			}
			return err
		}
		reply := e.dispatch(cmd)
		if err := WriteReply(e.w, seq, reply); err != nil {
			return err
		}
		if err := e.w.Flush(); err != nil {
			return err
		}
	}
}

// dispatch executes a single command against the store, recovering from any panic raised by the
// evaluator or a stored native function and turning it into an ordinary per-request failure
// reply rather than taking down the loop.
func (e *Engine) dispatch(cmd Command) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			reply = FailureReply(fmt.Sprintf("engine panic: %v", r))
		}
	}()

	switch c := cmd.(type) {
	case EvalCodeCmd:
		if _, err := e.eval.Eval(c.Code); err != nil {
			return FailureReply(err.Error())
		}
		return SuccessReply(List())

	case StoreExprCmd:
		v, err := e.eval.Eval(c.Code)
		if err != nil {
			return FailureReply(err.Error())
		}
		id := e.store.Store(v)
		return SuccessReply(Int(int64(id)))

	case ApplyCmd:
		fnVal, ok := e.store.Get(c.FuncID)
		if !ok {
			return FailureReply(fmt.Sprintf("no object %d", c.FuncID))
		}
		if fnVal.Kind != ExnFunc {
			return FailureReply(fmt.Sprintf("object %d is not a function, has type %s", c.FuncID, fnVal.typeName()))
		}
		result, err := fnVal.Func(c.Arg)
		if err != nil {
			return FailureReply(err.Error())
		}
		return SuccessReply(result)

	case RemoveCmd:
		if err := e.store.Remove(c.IDs); err != nil {
			return FailureReply(err.Error())
		}
		return SuccessReply(List())

	default:
		return FailureReply(fmt.Sprintf("unrecognized command %T", cmd))
	}
}
