// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge

import (
	"context"
	"io"
)

// Bridge is the top-level handle a driver program holds: a [Transport] plus the lifecycle of
// whatever is on the other end of its two byte streams. Most callers only ever need NewLocal,
// which wires a reference engine in-process for testing and demos; New connects to a genuine
// external engine process over an arbitrary pair of streams.
type Bridge struct {
	t      *Transport
	closer io.Closer
}

// bootstrapCode declares the universal exception carriers once per session, so an engine that
// doesn't come with them built in has them in scope before compile_value/compile_function ever
// reference them by name. Re-running it is harmless if a caller ever bootstraps the same session
// twice: every binding just binds its name to an identity function again.
const bootstrapCode = `let E_Int = fn v => v in
let E_String = fn v => v in
let E_Bool = fn v => v in
let E_Pair = fn v => v in
let E_List = fn v => v in
let E_Option = fn v => v in
let E_Function = fn v => v in
0`

// bootstrap sends bootstrapCode once, before the Bridge is handed back to its caller. Against
// [NewReferenceEngine] these names are already native Go builtins (prelude.go's
// installPrelude) bound directly into MiniEvaluator's global environment, which EvalCode's
// single-expression evaluation can't modify: its let bindings live only in the expression's own
// scope — so this round-trips as a harmless no-op there. Against a genuine out-of-process engine that doesn't pre-declare them, this is load
// bearing: the wire identifiers every converter and compiled wrapper names must exist before the
// first StoreExpr/Apply that references them.
func (b *Bridge) bootstrap(ctx context.Context) error {
	return b.t.EvalCode(ctx, bootstrapCode)
}

// New wires a Bridge to an already-running engine reachable through r and w. r and w are
// typically the stdout/stdin pipes of a child process driving a real theorem-prover engine;
// engbridge never starts or manages that process itself.
func New(r io.Reader, w io.Writer) (*Bridge, error) {
	b := &Bridge{t: NewTransport(r, w)}
	if err := b.bootstrap(context.Background()); err != nil {
		_ = b.t.Close()
		return nil, err
	}
	return b, nil
}

// NewLocal spins up a [NewReferenceEngine] connected to this process over an in-memory pipe. It
// exists for tests and demos that want a runnable engine without shelling out to one; production
// callers reach for New against a real engine process instead.
func NewLocal() (*Bridge, error) {
	driverR, engineW := io.Pipe()
	engineR, driverW := io.Pipe()

	eng := NewReferenceEngine(engineR, engineW)
	done := make(chan error, 1)
	go func() { done <- eng.Run() }()

	b := &Bridge{
		t: NewTransport(driverR, driverW),
		closer: &pipeCloser{
			driverR: driverR, driverW: driverW,
			engineR: engineR, engineW: engineW,
			done: done,
		},
	}
	if err := b.bootstrap(context.Background()); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

// pipeCloser tears down both ends of a NewLocal bridge's in-memory pipes. Closing driverW and
// engineW unblocks both sides' blocking reads so the reference engine's Run returns before we
// wait on it.
type pipeCloser struct {
	driverR *io.PipeReader
	driverW *io.PipeWriter
	engineR *io.PipeReader
	engineW *io.PipeWriter
	done    chan error
}

func (c *pipeCloser) Close() error {
	_ = c.driverW.Close()
	_ = c.engineW.Close()
	err := <-c.done
	_ = c.driverR.Close()
	_ = c.engineR.Close()
	if err == io.EOF {
		return nil
	}
	return err
}

// Transport returns the underlying [Transport] for callers that need to build [Handle]s or
// [Converter]-based values directly (compile.go, converter.go).
func (b *Bridge) Transport() *Transport { return b.t }

// Close shuts down the transport and, for a NewLocal bridge, the in-process engine and its pipes.
// For a NewLocal bridge, pending removals are flushed and the pipes are closed before the
// transport waits on its goroutines, so its reader sees EOF instead of blocking. For a New bridge,
// Close returns once the engine side has closed its output stream.
func (b *Bridge) Close() error {
	var cerr error
	if b.closer != nil {
		b.t.FlushRemoves()
		cerr = b.closer.Close()
		b.closer = nil
	}
	err := b.t.Close()
	if err == nil {
		err = cerr
	}
	return err
}

