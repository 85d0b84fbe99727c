// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge_test

import (
	"bufio"
	"bytes"
	"testing"

	"code.hybscloud.com/engbridge"
)

// runOneCommand feeds a single encoded command frame to a fresh reference engine and returns its
// decoded reply, exercising Engine.Run/dispatch directly without a Transport in the way.
func runOneCommand(t *testing.T, cmd engbridge.Command) engbridge.Reply {
	t.Helper()
	var in bytes.Buffer
	w := bufio.NewWriter(&in)
	if err := engbridge.WriteCommand(w, 1, cmd); err != nil {
		t.Fatalf("WriteCommand: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	var out bytes.Buffer
	eng := engbridge.NewReferenceEngine(&in, &out)
	if err := eng.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	r := bufio.NewReader(&out)
	seq, rep, err := engbridge.ReadReply(r)
	if err != nil {
		t.Fatalf("ReadReply: %v", err)
	}
	if seq != 1 {
		t.Fatalf("seq = %d, want 1", seq)
	}
	return rep
}

func TestEngineEvalCode(t *testing.T) {
	rep := runOneCommand(t, engbridge.EvalCodeCmd{Code: "1 + 1"})
	if _, ok := rep.OK(); !ok {
		msg, _ := rep.Err()
		t.Fatalf("EvalCode failed: %s", msg)
	}
}

func TestEngineStoreExpr(t *testing.T) {
	rep := runOneCommand(t, engbridge.StoreExprCmd{Code: "7"})
	d, ok := rep.OK()
	if !ok {
		msg, _ := rep.Err()
		t.Fatalf("StoreExpr failed: %s", msg)
	}
	id, ok := d.Int()
	if !ok || id != 0 {
		t.Fatalf("StoreExpr reply = %v, want Int(0) for the first object in a fresh store", d)
	}
}

func TestEngineStoreExprBadSyntax(t *testing.T) {
	rep := runOneCommand(t, engbridge.StoreExprCmd{Code: "fn =>"})
	if _, ok := rep.OK(); ok {
		t.Fatal("malformed code evaluated successfully")
	}
}

func TestEngineUnknownCommandTag(t *testing.T) {
	var in bytes.Buffer
	w := bufio.NewWriter(&in)
	if err := engbridge.WriteCommand(w, 1, engbridge.EvalCodeCmd{Code: "1"}); err != nil {
		t.Fatalf("WriteCommand: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	raw := in.Bytes()
	raw[8] = 0xff // overwrite the command tag byte (after the 8-byte seq prefix)

	var out bytes.Buffer
	eng := engbridge.NewReferenceEngine(bytes.NewReader(raw), &out)
	if err := eng.Run(); err == nil {
		t.Fatal("Run succeeded on an unknown command tag, want a ProtocolError")
	}
}
