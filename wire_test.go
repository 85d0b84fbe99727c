// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/quick"
)

func TestWireDataRoundTrip(t *testing.T) {
	roundTrip := func(tag uint8, i int64, s string, n uint8) bool {
		var d Data
		switch tag % 4 {
		case 0:
			d = Int(i)
		case 1:
			d = Str(s)
		case 2:
			d = Object(ObjectID(uint64(i)))
		case 3:
			items := make([]Data, int(n%5))
			for j := range items {
				items[j] = Int(int64(j))
			}
			d = List(items...)
		}

		var buf bytes.Buffer
		if err := writeData(&buf, d); err != nil {
			t.Logf("writeData: %v", err)
			return false
		}
		got, err := readData(&buf)
		if err != nil {
			t.Logf("readData: %v", err)
			return false
		}
		return dataEqual(d, got)
	}
	if err := quick.Check(roundTrip, nil); err != nil {
		t.Error(err)
	}
}

func TestWireStringRoundTrip(t *testing.T) {
	roundTrip := func(s string) bool {
		var buf bytes.Buffer
		if err := writeString(&buf, s); err != nil {
			return false
		}
		got, err := readString(&buf)
		if err != nil {
			return false
		}
		return got == s
	}
	if err := quick.Check(roundTrip, nil); err != nil {
		t.Error(err)
	}
}

func TestWireStringOversizedLengthDiscardsAndReports(t *testing.T) {
	const declared = maxStringLen + 1

	var buf bytes.Buffer
	if err := writeUint32(&buf, declared); err != nil {
		t.Fatalf("writeUint32: %v", err)
	}
	buf.Write(make([]byte, declared))
	// A trailing marker past the declared length: readString must discard exactly the declared
	// number of bytes, not the whole stream, so framing realigns on this marker.
	buf.WriteString("TAIL")

	got, err := readString(&buf)
	if got != "" {
		t.Fatalf("readString returned %q on oversized length, want empty", got)
	}
	var tooLong *StringTooLongError
	if !errors.As(err, &tooLong) {
		t.Fatalf("readString err = %v, want *StringTooLongError", err)
	}
	if tooLong.Declared != declared {
		t.Fatalf("Declared = %d, want %d", tooLong.Declared, declared)
	}

	rest, err := io.ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(rest) != "TAIL" {
		t.Fatalf("remaining stream = %q, want %q (oversized string was not fully discarded)", rest, "TAIL")
	}
}

func TestWireUint64RoundTrip(t *testing.T) {
	roundTrip := func(v uint64) bool {
		var buf bytes.Buffer
		if err := writeUint64(&buf, v); err != nil {
			return false
		}
		got, err := readUint64(&buf)
		if err != nil {
			return false
		}
		return got == v
	}
	if err := quick.Check(roundTrip, nil); err != nil {
		t.Error(err)
	}
}

func dataEqual(a, b Data) bool {
	if a.tag != b.tag {
		return false
	}
	switch a.tag {
	case TagInt:
		return a.i == b.i
	case TagString:
		return a.s == b.s
	case TagObject:
		return a.obj == b.obj
	case TagList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !dataEqual(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// TestEngineRecoversFromOversizedStringCommand confirms the boundary behavior readString's
// maxStringLen bound exists for: an EvalCode command whose Code field declares a length past
// the bound gets a single failure reply, and the session stays usable for the request after it,
// rather than Run tearing down the whole connection.
func TestEngineRecoversFromOversizedStringCommand(t *testing.T) {
	const declared = maxStringLen + 1

	var in bytes.Buffer
	w := bufio.NewWriter(&in)
	if err := writeUint64(w, 1); err != nil {
		t.Fatalf("writeUint64: %v", err)
	}
	if _, err := w.Write([]byte{byte(CmdEvalCode)}); err != nil {
		t.Fatalf("write tag: %v", err)
	}
	if err := writeUint32(w, declared); err != nil {
		t.Fatalf("writeUint32: %v", err)
	}
	if _, err := w.Write(make([]byte, declared)); err != nil {
		t.Fatalf("write oversized payload: %v", err)
	}
	if err := WriteCommand(w, 2, StoreExprCmd{Code: "9"}); err != nil {
		t.Fatalf("WriteCommand: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	var out bytes.Buffer
	eng := NewReferenceEngine(&in, &out)
	if err := eng.Run(); err != nil {
		t.Fatalf("Run: %v, want the connection to survive an oversized string", err)
	}

	r := bufio.NewReader(&out)

	seq1, rep1, err := ReadReply(r)
	if err != nil {
		t.Fatalf("ReadReply 1: %v", err)
	}
	if seq1 != 1 {
		t.Fatalf("seq1 = %d, want 1", seq1)
	}
	if _, ok := rep1.OK(); ok {
		t.Fatal("oversized-string command reported success")
	}

	seq2, rep2, err := ReadReply(r)
	if err != nil {
		t.Fatalf("ReadReply 2: %v", err)
	}
	if seq2 != 2 {
		t.Fatalf("seq2 = %d, want 2", seq2)
	}
	d, ok := rep2.OK()
	if !ok {
		msg, _ := rep2.Err()
		t.Fatalf("StoreExpr after oversized string failed: %s", msg)
	}
	if v, ok := d.Int(); !ok || v != 0 {
		t.Fatalf("StoreExpr reply = %v, want Int(0)", d)
	}
}

func TestCommandRoundTrip(t *testing.T) {
	cases := []Command{
		EvalCodeCmd{Code: "1 + 1"},
		StoreExprCmd{Code: "42"},
		ApplyCmd{FuncID: 7, Arg: Int(9)},
		RemoveCmd{IDs: []ObjectID{1, 2, 3}},
	}
	for _, cmd := range cases {
		var buf bytes.Buffer
		w := bufio.NewWriter(&buf)
		if err := WriteCommand(w, 5, cmd); err != nil {
			t.Fatalf("WriteCommand: %v", err)
		}
		if err := w.Flush(); err != nil {
			t.Fatalf("flush: %v", err)
		}
		r := bufio.NewReader(&buf)
		seq, got, err := ReadCommand(r)
		if err != nil {
			t.Fatalf("ReadCommand: %v", err)
		}
		if seq != 5 {
			t.Fatalf("seq = %d, want 5", seq)
		}
		if !commandEqual(got, cmd) {
			t.Fatalf("got %#v, want %#v", got, cmd)
		}
	}
}

func commandEqual(a, b Command) bool {
	switch av := a.(type) {
	case EvalCodeCmd:
		bv, ok := b.(EvalCodeCmd)
		return ok && av == bv
	case StoreExprCmd:
		bv, ok := b.(StoreExprCmd)
		return ok && av == bv
	case ApplyCmd:
		bv, ok := b.(ApplyCmd)
		return ok && av.FuncID == bv.FuncID && dataEqual(av.Arg, bv.Arg)
	case RemoveCmd:
		bv, ok := b.(RemoveCmd)
		if !ok || len(av.IDs) != len(bv.IDs) {
			return false
		}
		for i := range av.IDs {
			if av.IDs[i] != bv.IDs[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func TestReplyRoundTrip(t *testing.T) {
	cases := []Reply{SuccessReply(Int(1)), FailureReply("boom")}
	for _, rep := range cases {
		var buf bytes.Buffer
		w := bufio.NewWriter(&buf)
		if err := WriteReply(w, 3, rep); err != nil {
			t.Fatalf("WriteReply: %v", err)
		}
		if err := w.Flush(); err != nil {
			t.Fatalf("flush: %v", err)
		}
		r := bufio.NewReader(&buf)
		seq, got, err := ReadReply(r)
		if err != nil {
			t.Fatalf("ReadReply: %v", err)
		}
		if seq != 3 {
			t.Fatalf("seq = %d, want 3", seq)
		}
		if d1, ok1 := rep.OK(); ok1 {
			d2, ok2 := got.OK()
			if !ok2 || !dataEqual(d1, d2) {
				t.Fatalf("got %+v, want %+v", got, rep)
			}
		} else {
			m1, _ := rep.Err()
			m2, ok2 := got.Err()
			if !ok2 || m1 != m2 {
				t.Fatalf("got %+v, want %+v", got, rep)
			}
		}
	}
}
