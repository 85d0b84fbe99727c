// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge_test

import (
	"context"
	"io"
	"testing"

	"code.hybscloud.com/engbridge"
)

func TestBridgeNewLocalRoundTrip(t *testing.T) {
	skipRace(t)
	b, err := engbridge.NewLocal()
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	defer b.Close()

	h, err := engbridge.CompileValue[int64](context.Background(), b.Transport(), engbridge.IntConverter{}, "42")
	if err != nil {
		t.Fatalf("CompileValue: %v", err)
	}
	defer h.Close()
	v, err := engbridge.Retrieve[int64](context.Background(), engbridge.IntConverter{}, h)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if v != 42 {
		t.Fatalf("got %d, want 42", v)
	}
}

// TestBridgeNewOverPipe builds a Bridge around a caller-supplied reader/writer pair (the [New]
// constructor a real out-of-process engine would connect through) instead of [NewLocal], with a
// [NewReferenceEngine] driving the other end of a manually wired io.Pipe pair.
func TestBridgeNewOverPipe(t *testing.T) {
	skipRace(t)
	driverR, engineW := io.Pipe()
	engineR, driverW := io.Pipe()

	eng := engbridge.NewReferenceEngine(engineR, engineW)
	done := make(chan error, 1)
	go func() { done <- eng.Run() }()

	b, err := engbridge.New(driverR, driverW)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	id, err := b.Transport().StoreExpr(context.Background(), "7")
	if err != nil {
		t.Fatalf("StoreExpr: %v", err)
	}
	v, err := engbridge.IntConverter{}.Retrieve(context.Background(), b.Transport(), id)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if v != 7 {
		t.Fatalf("got %d, want 7", v)
	}

	// Close the pipes first: Transport.Close waits for its reader goroutine, which only exits once
	// the inbound stream reaches EOF.
	_ = driverW.Close()
	_ = engineW.Close()
	if err := b.Transport().Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := <-done; err != nil && err != io.EOF {
		t.Fatalf("engine Run: %v", err)
	}
	_ = driverR.Close()
	_ = engineR.Close()
}

// TestBridgeBootstrapIsIdempotentAcrossSessions confirms the session-start EvalCode declaration
// every Bridge sends doesn't fail the second time around, by constructing two successive
// NewLocal bridges, each over its own fresh engine.
func TestBridgeBootstrapIsIdempotentAcrossSessions(t *testing.T) {
	skipRace(t)
	for i := 0; i < 2; i++ {
		b, err := engbridge.NewLocal()
		if err != nil {
			t.Fatalf("NewLocal attempt %d: %v", i, err)
		}
		v, err := engbridge.IntConverter{}.Retrieve(context.Background(), b.Transport(),
			mustStoreInt(t, b, 1))
		if err != nil {
			t.Fatalf("Retrieve attempt %d: %v", i, err)
		}
		if v != 1 {
			t.Fatalf("attempt %d: got %d, want 1", i, v)
		}
		_ = b.Close()
	}
}

func mustStoreInt(t *testing.T, b *engbridge.Bridge, code int64) engbridge.ObjectID {
	t.Helper()
	h, err := engbridge.IntConverter{}.Store(context.Background(), b.Transport(), code)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	return h.Id()
}

func TestBridgeCloseTearsDownEngineGoroutine(t *testing.T) {
	b, err := engbridge.NewLocal()
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// A request after Close must fail rather than hang, whether or not the engine goroutine has
	// finished unwinding yet.
	if _, err := b.Transport().StoreExpr(context.Background(), "1"); err == nil {
		t.Fatal("StoreExpr after Close succeeded")
	}
}
