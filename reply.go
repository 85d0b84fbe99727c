// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge

import (
	"bufio"
	"io"

	"code.hybscloud.com/kont"
)

// ReplyTag identifies the variant of an inbound reply.
type ReplyTag uint8

const (
	ReplyOK  ReplyTag = 0x01
	ReplyErr ReplyTag = 0x02
)

// Reply is an engine-to-driver response keyed by the sequence number it completes. Outcome is
// Right(payload) on success and Left(message) on engine-side failure.
type Reply struct {
	Outcome kont.Either[string, Data]
}

// OK reports whether the reply represents success, and if so its payload.
func (r Reply) OK() (Data, bool) {
	if r.Outcome.IsRight() {
		d, _ := r.Outcome.GetRight()
		return d, true
	}
	return Data{}, false
}

// Err reports the engine's error message, if the reply represents failure.
func (r Reply) Err() (string, bool) {
	if r.Outcome.IsLeft() {
		msg, _ := r.Outcome.GetLeft()
		return msg, true
	}
	return "", false
}

// SuccessReply builds a Reply carrying a successful payload.
func SuccessReply(d Data) Reply {
	return Reply{Outcome: kont.Right[string, Data](d)}
}

// FailureReply builds a Reply carrying an engine-side error message.
func FailureReply(message string) Reply {
	return Reply{Outcome: kont.Left[string, Data](message)}
}

// WriteReply writes a complete inbound-direction frame: seq, status tag, and payload.
func WriteReply(w *bufio.Writer, seq uint64, rep Reply) error {
	if err := writeUint64(w, seq); err != nil {
		return err
	}
	if d, ok := rep.OK(); ok {
		if _, err := w.Write([]byte{byte(ReplyOK)}); err != nil {
			return err
		}
		return writeData(w, d)
	}
	msg, _ := rep.Err()
	if _, err := w.Write([]byte{byte(ReplyErr)}); err != nil {
		return err
	}
	return writeString(w, msg)
}

// ReadReply reads a complete reply frame and returns its sequence number and decoded Reply. An
// unknown status tag is a fatal [ProtocolError].
func ReadReply(r *bufio.Reader) (seq uint64, rep Reply, err error) {
	seq, err = readUint64(r)
	if err != nil {
		return 0, Reply{}, err
	}
	var tagBuf [1]byte
	if _, err = io.ReadFull(r, tagBuf[:]); err != nil {
		return 0, Reply{}, err
	}
	switch ReplyTag(tagBuf[0]) {
	case ReplyOK:
		d, err := readData(r)
		if err != nil {
			return 0, Reply{}, err
		}
		return seq, SuccessReply(d), nil
	case ReplyErr:
		msg, err := readString(r)
		if err != nil {
			return 0, Reply{}, err
		}
		return seq, FailureReply(msg), nil
	default:
		return 0, Reply{}, &ProtocolError{Reason: "unknown reply status tag"}
	}
}
