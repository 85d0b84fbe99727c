// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge_test

import (
	"context"
	"testing"
	"testing/quick"

	"code.hybscloud.com/engbridge"
)

// TestPropertyStoreRetrieveRoundTrip proves that for any arbitrarily generated batch of
// integers stored concurrently, each value retrieves back unchanged through the handle its own
// store call returned — independent of how many other stores ran alongside it or in what order
// the engine happened to service them.
func TestPropertyStoreRetrieveRoundTrip(t *testing.T) {
	skipRace(t)
	b := newLocalBridge(t)
	ctx := context.Background()
	conv := engbridge.IntConverter{}

	roundTrip := func(values []int64) bool {
		if len(values) > 64 {
			values = values[:64]
		}
		handles := make([]engbridge.Handle[int64], len(values))
		errs := make([]error, len(values))
		done := make(chan int, len(values))
		for i, v := range values {
			i, v := i, v
			go func() {
				h, err := conv.Store(ctx, b.Transport(), v)
				handles[i], errs[i] = h, err
				done <- i
			}()
		}
		for range values {
			<-done
		}
		ok := true
		for i, v := range values {
			if errs[i] != nil {
				t.Logf("Store(%d): %v", v, errs[i])
				ok = false
				continue
			}
			got, err := conv.Retrieve(ctx, b.Transport(), handles[i].Id())
			handles[i].Close()
			if err != nil {
				t.Logf("Retrieve(%d): %v", v, err)
				ok = false
				continue
			}
			if got != v {
				t.Logf("got %d, want %d", got, v)
				ok = false
			}
		}
		return ok
	}
	if err := quick.Check(roundTrip, &quick.Config{MaxCount: 16}); err != nil {
		t.Error(err)
	}
}

// TestPropertyFunctionApplicationEquivalence proves that applying a compiled negation function
// twice is the identity, for any arbitrary int64 — i.e. remote function application composes the
// way the underlying engine code says it does, not just for one hand-picked input.
func TestPropertyFunctionApplicationEquivalence(t *testing.T) {
	skipRace(t)
	b := newLocalBridge(t)
	ctx := context.Background()
	tr := b.Transport()
	ic := engbridge.IntConverter{}

	negate, err := engbridge.CompileFunction[int64, int64](ctx, tr, ic, ic, "fn i => 0 - i")
	if err != nil {
		t.Fatalf("CompileFunction: %v", err)
	}
	defer negate.Close()

	doubleNegateIsIdentity := func(x int64) bool {
		once, err := engbridge.Apply[int64, int64](ctx, tr, ic, ic, negate, x)
		if err != nil {
			t.Logf("Apply: %v", err)
			return false
		}
		twice, err := engbridge.Apply[int64, int64](ctx, tr, ic, ic, negate, once)
		if err != nil {
			t.Logf("Apply: %v", err)
			return false
		}
		return twice == x
	}
	if err := quick.Check(doubleNegateIsIdentity, &quick.Config{MaxCount: 32}); err != nil {
		t.Error(err)
	}
}

// TestPropertyIdsStrictlyIncrease proves that for any arbitrary number of sequential StoreExpr
// calls, the returned object ids form a strictly increasing sequence, matching the engine-side
// counter's single-writer guarantee (spec's id monotonicity invariant).
func TestPropertyIdsStrictlyIncrease(t *testing.T) {
	skipRace(t)
	b := newLocalBridge(t)
	ctx := context.Background()
	tr := b.Transport()

	strictlyIncreasing := func(n uint8) bool {
		count := int(n%32) + 1
		var prev engbridge.ObjectID
		for i := 0; i < count; i++ {
			id, err := tr.StoreExpr(ctx, "0")
			if err != nil {
				t.Logf("StoreExpr: %v", err)
				return false
			}
			if i > 0 && id <= prev {
				t.Logf("id %d did not increase past previous id %d", id, prev)
				return false
			}
			prev = id
		}
		return true
	}
	if err := quick.Check(strictlyIncreasing, &quick.Config{MaxCount: 16}); err != nil {
		t.Error(err)
	}
}
