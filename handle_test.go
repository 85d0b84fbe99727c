// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge_test

import (
	"context"
	"errors"
	"testing"

	"code.hybscloud.com/engbridge"
)

// Cloning a handle and closing every alias except the last must not schedule a removal; only the
// final Close does.
func TestHandleCloneKeepsObjectAliveUntilLastClose(t *testing.T) {
	skipRace(t)
	b := newLocalBridge(t)
	ctx := context.Background()
	tr := b.Transport()
	conv := engbridge.IntConverter{}

	h, err := conv.Store(ctx, tr, 11)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	alias := h.Clone()

	h.Close()
	// alias still holds a reference; the object must still be retrievable.
	if _, err := conv.Retrieve(ctx, tr, alias.Id()); err != nil {
		t.Fatalf("Retrieve after one of two aliases closed: %v", err)
	}

	alias.Close()
	tr.FlushRemoves()
	err = tr.Remove(ctx, []engbridge.ObjectID{alias.Id()})
	if err == nil {
		t.Fatal("Remove succeeded after last alias closed, want EngineError (already removed)")
	}
	var engErr *engbridge.EngineError
	if !errors.As(err, &engErr) {
		t.Fatalf("got %T, want *EngineError", err)
	}
}

func TestHandleIdStableAcrossClone(t *testing.T) {
	skipRace(t)
	b := newLocalBridge(t)
	ctx := context.Background()
	h, err := engbridge.IntConverter{}.Store(ctx, b.Transport(), 1)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	defer h.Close()
	alias := h.Clone()
	defer alias.Close()
	if alias.Id() != h.Id() {
		t.Fatalf("Clone().Id() = %d, want %d", alias.Id(), h.Id())
	}
}

func TestHandleRetrieveNowMatchesFreeRetrieve(t *testing.T) {
	b := newLocalBridge(t)
	ctx := context.Background()
	conv := engbridge.IntConverter{}
	h, err := conv.Store(ctx, b.Transport(), 99)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	defer h.Close()

	v, err := h.RetrieveNow(ctx, conv)
	if err != nil {
		t.Fatalf("RetrieveNow: %v", err)
	}
	if v != 99 {
		t.Fatalf("RetrieveNow = %d, want 99", v)
	}

	v2, err := engbridge.Retrieve[int64](ctx, conv, h)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if v2 != v {
		t.Fatalf("Retrieve = %d, RetrieveNow = %d, want equal", v2, v)
	}
}

func TestHandleFunctionView(t *testing.T) {
	b := newLocalBridge(t)
	ctx := context.Background()
	tr := b.Transport()
	intConv := engbridge.IntConverter{}

	fn, err := engbridge.CompileFunction[int64, int64](ctx, tr, intConv, intConv, "fn i => i * i")
	if err != nil {
		t.Fatalf("CompileFunction: %v", err)
	}
	defer fn.Close()

	view := engbridge.FunctionView[int64, int64](fn, intConv, intConv)
	got, err := view(ctx, 12)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if got != 144 {
		t.Fatalf("view(12) = %d, want 144", got)
	}

	// A FunctionView is just a reassociated handle; it can be called more than once.
	got2, err := view(ctx, 5)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if got2 != 25 {
		t.Fatalf("view(5) = %d, want 25", got2)
	}
}
