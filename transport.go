// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// transportQueueCapacity bounds the outbound command queue — small enough to stay
// cache-resident, large enough to absorb a short writer stall without every caller blocking on
// enqueue.
const transportQueueCapacity = 64

// removeFlushThreshold is how many disposed handles accumulate before ScheduleRemove forces an
// eager flush instead of waiting for an explicit FlushRemoves or Close.
const removeFlushThreshold = 32

// removeFlushTimeout bounds a background Remove flush so a stalled transport cannot hang a
// caller that never itself asked to wait on anything.
const removeFlushTimeout = 5 * time.Second

var errTransportClosedLocally = errors.New("engbridge: transport closed locally")

type outboundFrame struct {
	seq uint64
	cmd Command
}

// Transport is the driver-side asynchronous request multiplexer: a writer goroutine drains a
// bounded, lock-free outbound queue onto the wire; a reader goroutine demultiplexes inbound
// replies by sequence number onto in-flight futures. Any number of caller goroutines may submit
// concurrently — a short mutex serializes producers onto the underlying
// single-producer/single-consumer ring so the one consumer (the writer goroutine) stays
// lock-free.
type Transport struct {
	w *bufio.Writer
	r *bufio.Reader

	seq sequencer

	sendMu sync.Mutex
	sendQ  lfq.SPSC[outboundFrame]

	inflightMu sync.Mutex
	inflight   map[uint64]*future[Reply]

	removes *pendingRemoves

	closed   atomix.Uint32
	closeErr error
	closeMu  sync.Mutex
	closeCh  chan struct{}

	wg sync.WaitGroup
}

// NewTransport wraps r/w as a driver-side connection to an engine process and starts its writer
// and reader goroutines. Closing the underlying streams (or the engine process exiting) surfaces
// as every in-flight and future request failing with [TransportClosed].
func NewTransport(r io.Reader, w io.Writer) *Transport {
	t := &Transport{
		w:        bufio.NewWriter(w),
		r:        bufio.NewReader(r),
		inflight: make(map[uint64]*future[Reply]),
		removes:  newPendingRemoves(removeFlushThreshold),
		closeCh:  make(chan struct{}),
	}
	t.sendQ.Init(transportQueueCapacity)
	t.wg.Add(2)
	go t.writeLoop()
	go t.readLoop()
	return t
}

func (t *Transport) isClosed() bool { return t.closed.Load() != 0 }

// fail marks the transport permanently broken, waking every in-flight waiter with err. Only the
// first caller's err sticks; later calls (e.g. the writer and reader both hitting I/O errors
// when the peer process dies) are no-ops.
func (t *Transport) fail(err error) {
	t.closeMu.Lock()
	if t.closeErr != nil {
		t.closeMu.Unlock()
		return
	}
	t.closeErr = err
	t.closeMu.Unlock()

	t.closed.Store(1)
	close(t.closeCh)

	t.inflightMu.Lock()
	pending := t.inflight
	t.inflight = make(map[uint64]*future[Reply])
	t.inflightMu.Unlock()

	for _, fut := range pending {
		fut.resolve(Reply{}, err)
	}
}

func (t *Transport) closeError() error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.closeErr != nil {
		return t.closeErr
	}
	return &TransportClosed{Cause: errTransportClosedLocally}
}

func (t *Transport) writeLoop() {
	defer t.wg.Done()
	var bo iox.Backoff
	for {
		select {
		case <-t.closeCh:
			return
		default:
		}
		frame, err := t.sendQ.Dequeue()
		if err != nil {
			bo.Wait()
			continue
		}
		bo = iox.Backoff{}
		if err := WriteCommand(t.w, frame.seq, frame.cmd); err != nil {
			t.fail(&TransportClosed{Cause: err})
			return
		}
		if err := t.w.Flush(); err != nil {
			t.fail(&TransportClosed{Cause: err})
			return
		}
	}
}

func (t *Transport) readLoop() {
	defer t.wg.Done()
	for {
		seq, rep, err := ReadReply(t.r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				t.fail(&TransportClosed{Cause: io.EOF})
			} else {
				t.fail(&TransportClosed{Cause: err})
			}
			return
		}

		t.inflightMu.Lock()
		fut, ok := t.inflight[seq]
		if ok {
			delete(t.inflight, seq)
		}
		t.inflightMu.Unlock()

		if !ok {
			// A reply for a sequence number we have no record of is a protocol violation, not a
			// missing waiter we can silently ignore: seq numbers are never reused.
			t.fail(&TransportClosed{Cause: &ProtocolError{Reason: "reply for unknown sequence number"}})
			return
		}
		fut.resolve(rep, nil)
	}
}

// enqueue serializes producers onto the outbound ring, retrying with backoff while the ring is
// momentarily full.
func (t *Transport) enqueue(f outboundFrame) error {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	var bo iox.Backoff
	for {
		if t.isClosed() {
			return t.closeError()
		}
		if err := t.sendQ.Enqueue(&f); err == nil {
			return nil
		}
		bo.Wait()
	}
}

// request submits cmd and blocks for its matching reply, translating an engine-side failure
// reply into an [EngineError] and a wire/framing failure into whatever [Transport.fail] recorded.
func (t *Transport) request(ctx context.Context, cmd Command) (Data, error) {
	if t.isClosed() {
		return Data{}, t.closeError()
	}
	seq, err := t.seq.next()
	if err != nil {
		return Data{}, err
	}

	fut := newFuture[Reply]()
	t.inflightMu.Lock()
	t.inflight[seq] = fut
	t.inflightMu.Unlock()

	if err := t.enqueue(outboundFrame{seq: seq, cmd: cmd}); err != nil {
		t.inflightMu.Lock()
		delete(t.inflight, seq)
		t.inflightMu.Unlock()
		return Data{}, err
	}

	rep, err := fut.Wait(ctx)
	if err != nil {
		return Data{}, err
	}
	if d, ok := rep.OK(); ok {
		return d, nil
	}
	msg, _ := rep.Err()
	return Data{}, &EngineError{Message: msg}
}

// EvalCode evaluates code for its side effects and discards the (always-empty) result.
func (t *Transport) EvalCode(ctx context.Context, code string) error {
	_, err := t.request(ctx, EvalCodeCmd{Code: code})
	return err
}

// StoreExpr evaluates code and stores the resulting value, returning its new [ObjectID].
func (t *Transport) StoreExpr(ctx context.Context, code string) (ObjectID, error) {
	d, err := t.request(ctx, StoreExprCmd{Code: code})
	if err != nil {
		return 0, err
	}
	iv, ok := d.Int()
	if !ok {
		return 0, &ProtocolError{Reason: "StoreExpr reply payload is not an Int"}
	}
	return ObjectID(iv), nil
}

// Apply invokes the stored function fn on arg and returns the resulting [Data].
func (t *Transport) Apply(ctx context.Context, fn ObjectID, arg Data) (Data, error) {
	return t.request(ctx, ApplyCmd{FuncID: fn, Arg: arg})
}

// Remove synchronously removes ids from the engine store.
func (t *Transport) Remove(ctx context.Context, ids []ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := t.request(ctx, RemoveCmd{IDs: ids})
	return err
}

// ScheduleRemove buffers id for a later batched Remove, flushing eagerly once the buffer crosses
// its threshold. This is the disposal path [Handle.Close] uses: the caller dropping a handle does
// not want to pay for a round trip it has no further use for the result of.
func (t *Transport) ScheduleRemove(id ObjectID) {
	if t.removes.add(id) {
		t.FlushRemoves()
	}
}

// FlushRemoves sends any buffered pending removals now, best-effort: a failure here is not
// reported anywhere, matching the fire-and-forget nature of disposing a handle nobody is waiting
// on a result for.
func (t *Transport) FlushRemoves() {
	ids := t.removes.drain()
	if len(ids) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), removeFlushTimeout)
	defer cancel()
	_ = t.Remove(ctx, ids)
}

// Close flushes any buffered removals, marks the transport closed, and waits for the writer and
// reader goroutines to exit. The reader goroutine exits only once the inbound stream reaches EOF
// or fails, so Close does not return before the engine side has closed its output. Safe to call
// more than once.
func (t *Transport) Close() error {
	t.FlushRemoves()
	t.fail(&TransportClosed{Cause: errTransportClosedLocally})
	t.wg.Wait()
	return nil
}
