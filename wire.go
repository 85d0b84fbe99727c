// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge

import (
	"encoding/binary"
	"fmt"
	"io"
)

// writeUint32 writes v as 4 bytes big-endian.
func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// readUint32 reads 4 bytes big-endian.
func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// writeUint64 writes v as 8 bytes big-endian.
func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// readUint64 reads 8 bytes big-endian.
func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// writeString writes s as a u32 length prefix followed by its raw bytes.
func writeString(w io.Writer, s string) error {
	if err := writeUint32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// maxStringLen bounds the declared length of an inbound string so a malformed or hostile length
// prefix can never drive an allocation larger than this, no matter what the 32-bit field claims.
const maxStringLen = 64 << 20 // 64 MiB

// StringTooLongError reports a declared string length beyond maxStringLen. readString discards
// the declared number of bytes before returning it, so a top-level command whose entire payload
// is the oversized string (EvalCode's and StoreExpr's Code field) leaves the stream exactly at
// the next frame boundary and recovers cleanly; Engine.Run turns this into a single per-request
// failure reply rather than aborting (spec: "recoverable only on the engine side by discarding
// that many bytes and reporting the error through the reply channel").
type StringTooLongError struct {
	Declared uint32
}

func (e *StringTooLongError) Error() string {
	return fmt.Sprintf("engbridge: declared string length %d exceeds %d-byte limit", e.Declared, maxStringLen)
}

// readString reads a u32-length-prefixed string. A declared length over maxStringLen is never
// allocated: the bytes are discarded from r and a [StringTooLongError] is returned instead.
func readString(r io.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	if n > maxStringLen {
		if _, discardErr := io.CopyN(io.Discard, r, int64(n)); discardErr != nil {
			return "", discardErr
		}
		return "", &StringTooLongError{Declared: n}
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// writeData writes d's tag and payload.
func writeData(w io.Writer, d Data) error {
	switch d.tag {
	case TagInt:
		if _, err := w.Write([]byte{byte(TagInt)}); err != nil {
			return err
		}
		return writeUint64(w, uint64(d.i))
	case TagString:
		if _, err := w.Write([]byte{byte(TagString)}); err != nil {
			return err
		}
		return writeString(w, d.s)
	case TagList:
		if _, err := w.Write([]byte{byte(TagList)}); err != nil {
			return err
		}
		if err := writeUint64(w, uint64(len(d.list))); err != nil {
			return err
		}
		for _, elem := range d.list {
			if err := writeData(w, elem); err != nil {
				return err
			}
		}
		return nil
	case TagObject:
		if _, err := w.Write([]byte{byte(TagObject)}); err != nil {
			return err
		}
		return writeUint64(w, uint64(d.obj))
	default:
		return fmt.Errorf("engbridge: cannot encode Data with invalid tag 0x%02x", uint8(d.tag))
	}
}

// readData reads a tag byte and the corresponding payload. Any tag other than 0x01..0x04 is a
// fatal [ProtocolError].
func readData(r io.Reader) (Data, error) {
	var tagBuf [1]byte
	if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
		return Data{}, err
	}
	switch Tag(tagBuf[0]) {
	case TagInt:
		v, err := readUint64(r)
		if err != nil {
			return Data{}, err
		}
		return Int(int64(v)), nil
	case TagString:
		s, err := readString(r)
		if err != nil {
			return Data{}, err
		}
		return Str(s), nil
	case TagList:
		n, err := readUint64(r)
		if err != nil {
			return Data{}, err
		}
		items := make([]Data, 0, n)
		for i := uint64(0); i < n; i++ {
			elem, err := readData(r)
			if err != nil {
				return Data{}, err
			}
			items = append(items, elem)
		}
		return List(items...), nil
	case TagObject:
		id, err := readUint64(r)
		if err != nil {
			return Data{}, err
		}
		return Object(ObjectID(id)), nil
	default:
		return Data{}, &ProtocolError{Reason: fmt.Sprintf("unknown Data tag 0x%02x", tagBuf[0])}
	}
}
