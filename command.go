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

// CommandTag identifies the variant of an outbound command.
type CommandTag uint8

const (
	CmdEvalCode  CommandTag = 0x01
	CmdStoreExpr CommandTag = 0x04
	CmdApply     CommandTag = 0x07
	CmdRemove    CommandTag = 0x08
)

// Command is a driver-to-engine request body, keyed by a sequence number supplied by the caller.
type Command interface {
	commandTag() CommandTag
	encodeBody(w *bufio.Writer) error
}

// EvalCodeCmd evaluates code for its side effects; the engine replies with an empty List.
type EvalCodeCmd struct{ Code string }

func (EvalCodeCmd) commandTag() CommandTag { return CmdEvalCode }
func (c EvalCodeCmd) encodeBody(w *bufio.Writer) error {
	return writeString(w, c.Code)
}

// StoreExprCmd evaluates code to a value of the engine's universal exception type and stores
// it; the engine replies with the new [ObjectID].
type StoreExprCmd struct{ Code string }

func (StoreExprCmd) commandTag() CommandTag { return CmdStoreExpr }
func (c StoreExprCmd) encodeBody(w *bufio.Writer) error {
	return writeString(w, c.Code)
}

// ApplyCmd applies the stored function FuncID to Arg; the engine replies with the resulting
// [Data].
type ApplyCmd struct {
	FuncID ObjectID
	Arg    Data
}

func (ApplyCmd) commandTag() CommandTag { return CmdApply }
func (c ApplyCmd) encodeBody(w *bufio.Writer) error {
	if err := writeUint64(w, uint64(c.FuncID)); err != nil {
		return err
	}
	return writeData(w, c.Arg)
}

// RemoveCmd removes the named ids from the engine store.
type RemoveCmd struct{ IDs []ObjectID }

func (RemoveCmd) commandTag() CommandTag { return CmdRemove }
func (c RemoveCmd) encodeBody(w *bufio.Writer) error {
	items := make([]Data, len(c.IDs))
	for i, id := range c.IDs {
		items[i] = Int(int64(id))
	}
	return writeData(w, List(items...))
}

// WriteCommand writes a complete outbound frame: seq, command tag, and body.
func WriteCommand(w *bufio.Writer, seq uint64, cmd Command) error {
	if err := writeUint64(w, seq); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(cmd.commandTag())}); err != nil {
		return err
	}
	return cmd.encodeBody(w)
}

// fatalizeNestedStringTooLong turns a [StringTooLongError] surfacing from inside a structured
// Data payload (an Apply argument or a Remove id list, as opposed to EvalCode/StoreExpr's flat
// Code string) into an ordinary fatal [ProtocolError]. Discarding just the oversized string's own
// declared length only resynchronizes the stream when nothing else was expected to follow it in
// the frame; a List with more siblings after the oversized element has no such guarantee, so this
// case escalates instead of risking a reply against a stream position that silently drifted.
func fatalizeNestedStringTooLong(err error) error {
	var tooLong *StringTooLongError
	if errors.As(err, &tooLong) {
		return &ProtocolError{Reason: tooLong.Error()}
	}
	return err
}

// ReadCommand reads a complete inbound frame and returns its sequence number and decoded
// command. An unknown command tag is a fatal [ProtocolError].
func ReadCommand(r *bufio.Reader) (seq uint64, cmd Command, err error) {
	seq, err = readUint64(r)
	if err != nil {
		return 0, nil, err
	}
	// Once the sequence number has been read, running out of input is a truncated frame, not a
	// clean end of stream.
	defer func() {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
	}()
	var tagBuf [1]byte
	if _, err = io.ReadFull(r, tagBuf[:]); err != nil {
		return 0, nil, err
	}
	switch CommandTag(tagBuf[0]) {
	case CmdEvalCode:
		s, err := readString(r)
		if err != nil {
			// seq is preserved (not zeroed) here: a StringTooLongError has already discarded
			// the oversized payload and left the stream at this frame's end, so the caller can
			// still answer this specific request rather than losing its sequence number.
			return seq, nil, err
		}
		return seq, EvalCodeCmd{Code: s}, nil
	case CmdStoreExpr:
		s, err := readString(r)
		if err != nil {
			return seq, nil, err
		}
		return seq, StoreExprCmd{Code: s}, nil
	case CmdApply:
		fid, err := readUint64(r)
		if err != nil {
			return 0, nil, err
		}
		arg, err := readData(r)
		if err != nil {
			return 0, nil, fatalizeNestedStringTooLong(err)
		}
		return seq, ApplyCmd{FuncID: ObjectID(fid), Arg: arg}, nil
	case CmdRemove:
		d, err := readData(r)
		if err != nil {
			return 0, nil, fatalizeNestedStringTooLong(err)
		}
		items, ok := d.List()
		if !ok {
			return 0, nil, &ProtocolError{Reason: "Remove body must be a List"}
		}
		ids := make([]ObjectID, 0, len(items))
		for _, item := range items {
			iv, ok := item.Int()
			if !ok {
				return 0, nil, &ProtocolError{Reason: "Remove body must be a List of Ints"}
			}
			ids = append(ids, ObjectID(iv))
		}
		return seq, RemoveCmd{IDs: ids}, nil
	default:
		return 0, nil, &ProtocolError{Reason: fmt.Sprintf("unknown command tag 0x%02x", tagBuf[0])}
	}
}
