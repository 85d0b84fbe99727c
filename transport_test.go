// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge_test

import (
	"context"
	"sync"
	"testing"

	"code.hybscloud.com/engbridge"
)

// Every successful reply completes exactly the request whose sequence number it carries, even
// when many requests are outstanding at once and replies can arrive in any order relative to each
// other. StoreExpr is used as the vehicle since its reply payload (the new id) lets us check each
// request got its own, distinct answer.
func TestTransportSequenceUniqueness(t *testing.T) {
	skipRace(t)
	b := newLocalBridge(t)
	tr := b.Transport()
	ctx := context.Background()

	const n = 64
	ids := make([]engbridge.ObjectID, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			id, err := tr.StoreExpr(ctx, "1")
			ids[i] = id
			errs[i] = err
		}()
	}
	wg.Wait()

	seen := make(map[engbridge.ObjectID]bool, n)
	for i, err := range errs {
		if err != nil {
			t.Fatalf("StoreExpr %d: %v", i, err)
		}
		if seen[ids[i]] {
			t.Fatalf("id %d returned to more than one caller", ids[i])
		}
		seen[ids[i]] = true
	}
}

func TestTransportEvalCode(t *testing.T) {
	skipRace(t)
	b := newLocalBridge(t)
	if err := b.Transport().EvalCode(context.Background(), "let x = 1 in x"); err != nil {
		t.Fatalf("EvalCode: %v", err)
	}
}

func TestTransportApplyUnknownFuncID(t *testing.T) {
	skipRace(t)
	b := newLocalBridge(t)
	_, err := b.Transport().Apply(context.Background(), 9999, engbridge.Int(0))
	if err == nil {
		t.Fatal("Apply on an unknown id succeeded, want EngineError")
	}
}

func TestTransportApplyOnNonFunction(t *testing.T) {
	skipRace(t)
	b := newLocalBridge(t)
	ctx := context.Background()
	tr := b.Transport()

	id, err := tr.StoreExpr(ctx, "42")
	if err != nil {
		t.Fatalf("StoreExpr: %v", err)
	}
	_, err = tr.Apply(ctx, id, engbridge.Int(0))
	if err == nil {
		t.Fatal("Apply on a non-function object succeeded, want EngineError")
	}
}

func TestTransportRemoveEmptyIsNoOp(t *testing.T) {
	skipRace(t)
	b := newLocalBridge(t)
	if err := b.Transport().Remove(context.Background(), nil); err != nil {
		t.Fatalf("Remove(nil) = %v, want nil", err)
	}
}

func TestTransportCloseIsIdempotent(t *testing.T) {
	b, err := engbridge.NewLocal()
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestTransportRequestsFailAfterClose(t *testing.T) {
	b, err := engbridge.NewLocal()
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := b.Transport().StoreExpr(context.Background(), "1"); err == nil {
		t.Fatal("StoreExpr after Close succeeded, want TransportClosed")
	}
}
