// Package wire decodes the binary frames exchanged between the game client
// and server into typed trees and canonical events.
//
// Frame layout, all integers big-endian:
//
//	header  1 byte   0x80 binary (required), 0x40 encrypted, 0x20 compressed,
//	                 0x08 large length
//	length  2 bytes  (4 bytes when the large bit is set)
//	body    length bytes; zlib (or raw deflate) when compressed
//
// The body is a single tagged OBJECT value.
package wire

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Header bits.
const (
	FlagBinary     byte = 0x80
	FlagEncrypted  byte = 0x40
	FlagCompressed byte = 0x20
	FlagLarge      byte = 0x08
)

// Defaults for Decoder limits.
const (
	DefaultMaxSize  = 1 << 20
	DefaultMaxDepth = 32
)

// ErrDecode is matched by every DecodeError.
var ErrDecode = errors.New("decode error")

// DecodeError describes why a single frame was dropped.
type DecodeError struct {
	Frame  int // position in the stream, -1 when decoded standalone
	Offset int // byte offset inside the (decompressed) body
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("frame %d: offset %d: %s", e.Frame, e.Offset, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrDecode) true for every DecodeError.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func (e *DecodeError) Unwrap() error { return e.Err }

// Frame is one decoded message.
type Frame struct {
	Header     byte
	Compressed bool
	Root       *Object
	// Payload is the game object at p.p. Nil for control frames.
	Payload *Object
	// Control is set when p.p is absent (handshake, login, keep-alive).
	Control bool
	// Command is the cmd or last_action string, if any.
	Command string
	// Class is advisory; nothing downstream branches on it.
	Class Class
}

// Params returns the object at p. Control frames carry their data here.
func (f *Frame) Params() *Object {
	p, _ := f.Root.Object("p")
	return p
}

// Decoder turns raw frames into trees. The zero value is usable and applies
// the default limits.
type Decoder struct {
	MaxSize  int // cap on the decompressed body
	MaxDepth int // cap on OBJECT/ARRAY nesting
}

func (d *Decoder) maxSize() int {
	if d == nil || d.MaxSize <= 0 {
		return DefaultMaxSize
	}
	return d.MaxSize
}

func (d *Decoder) maxDepth() int {
	if d == nil || d.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return d.MaxDepth
}

// Decode parses one complete frame. On failure it returns a *DecodeError and
// no partial tree.
func (d *Decoder) Decode(raw []byte) (*Frame, error) {
	if len(raw) < 1 {
		return nil, &DecodeError{Frame: -1, Reason: "empty frame"}
	}
	h := raw[0]
	if h&FlagBinary == 0 {
		return nil, &DecodeError{Frame: -1, Reason: fmt.Sprintf("header %#02x: not a binary frame", h)}
	}
	if h&FlagEncrypted != 0 {
		return nil, &DecodeError{Frame: -1, Reason: "encrypted frames are not supported"}
	}

	var n, off int
	if h&FlagLarge != 0 {
		if len(raw) < 5 {
			return nil, &DecodeError{Frame: -1, Offset: 1, Reason: "truncated length"}
		}
		n, off = int(binary.BigEndian.Uint32(raw[1:5])), 5
	} else {
		if len(raw) < 3 {
			return nil, &DecodeError{Frame: -1, Offset: 1, Reason: "truncated length"}
		}
		n, off = int(binary.BigEndian.Uint16(raw[1:3])), 3
	}
	if rem := len(raw) - off; n > rem {
		return nil, &DecodeError{Frame: -1, Offset: off, Reason: fmt.Sprintf("truncated body: want %d bytes, have %d", n, rem)}
	} else if n < rem {
		return nil, &DecodeError{Frame: -1, Offset: off + n, Reason: fmt.Sprintf("%d trailing bytes", rem-n)}
	}
	body := raw[off:]

	f := &Frame{Header: h, Compressed: h&FlagCompressed != 0}
	if f.Compressed {
		var err error
		body, err = d.inflate(body)
		if err != nil {
			return nil, &DecodeError{Frame: -1, Offset: off, Reason: "decompress", Err: err}
		}
	}

	r := &reader{buf: body, maxDepth: d.maxDepth()}
	v, err := r.value(0)
	if err != nil {
		return nil, err
	}
	root, ok := v.(*Object)
	if !ok {
		return nil, &DecodeError{Frame: -1, Reason: "root is not an object"}
	}
	if r.pos != len(r.buf) {
		return nil, &DecodeError{Frame: -1, Offset: r.pos, Reason: "trailing bytes after root object"}
	}

	f.Root = root
	if p, ok := root.Path("p", "p"); ok {
		f.Payload = p
	} else {
		f.Control = true
	}
	f.Command = commandOf(f)
	f.Class = Classify(f.Command)
	return f, nil
}

// inflate tries zlib first and falls back to a raw deflate stream.
func (d *Decoder) inflate(body []byte) ([]byte, error) {
	limit := d.maxSize()
	out, zerr := readCapped(func() (io.ReadCloser, error) { return zlib.NewReader(bytes.NewReader(body)) }, limit)
	if zerr == nil || errors.Is(zerr, errTooLarge) {
		return out, zerr
	}
	out, ferr := readCapped(func() (io.ReadCloser, error) { return flate.NewReader(bytes.NewReader(body)), nil }, limit)
	if ferr != nil {
		return nil, fmt.Errorf("zlib: %v; deflate: %w", zerr, ferr)
	}
	return out, nil
}

var errTooLarge = errors.New("decompressed body exceeds limit")

func readCapped(open func() (io.ReadCloser, error), limit int) ([]byte, error) {
	rc, err := open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	out, err := io.ReadAll(io.LimitReader(rc, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		return nil, errTooLarge
	}
	return out, nil
}

func commandOf(f *Frame) string {
	for _, obj := range []*Object{f.Payload, f.Params()} {
		if obj == nil {
			continue
		}
		if s, ok := obj.String("cmd"); ok {
			return s
		}
		if s, ok := obj.String("last_action"); ok {
			return s
		}
	}
	if s, ok := f.Root.String("c"); ok {
		return s
	}
	return ""
}

// ---------------------------------------------------------------------------
// Tree reader
// ---------------------------------------------------------------------------

type reader struct {
	buf      []byte
	pos      int
	maxDepth int
}

func (r *reader) fail(reason string) error {
	return &DecodeError{Frame: -1, Offset: r.pos, Reason: reason}
}

func (r *reader) need(n int) error {
	if n < 0 || len(r.buf)-r.pos < n {
		return r.fail(fmt.Sprintf("truncated: need %d bytes, have %d", n, len(r.buf)-r.pos))
	}
	return nil
}

func (r *reader) u8() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) u16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) str() (string, error) {
	n, err := r.u16()
	if err != nil {
		return "", err
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func (r *reader) value(depth int) (any, error) {
	start := r.pos
	t, err := r.u8()
	if err != nil {
		return nil, err
	}
	switch Tag(t) {
	case TagNull:
		return nil, nil
	case TagBool:
		b, err := r.u8()
		if err != nil {
			return nil, err
		}
		return b != 0, nil
	case TagByte:
		b, err := r.u8()
		return int8(b), err
	case TagShort:
		v, err := r.u16()
		return int16(v), err
	case TagInt:
		v, err := r.u32()
		return int32(v), err
	case TagLong:
		v, err := r.u64()
		return int64(v), err
	case TagFloat:
		v, err := r.u32()
		return math.Float32frombits(v), err
	case TagDouble:
		v, err := r.u64()
		return math.Float64frombits(v), err
	case TagString:
		return r.str()
	case TagIntArray:
		n, err := r.u16()
		if err != nil {
			return nil, err
		}
		if err := r.need(int(n) * 4); err != nil {
			return nil, err
		}
		out := make([]int32, n)
		for i := range out {
			v, _ := r.u32()
			out[i] = int32(v)
		}
		return out, nil
	case TagLongArray:
		n, err := r.u16()
		if err != nil {
			return nil, err
		}
		if err := r.need(int(n) * 8); err != nil {
			return nil, err
		}
		out := make([]int64, n)
		for i := range out {
			v, _ := r.u64()
			out[i] = int64(v)
		}
		return out, nil
	case TagArray:
		if depth >= r.maxDepth {
			return nil, r.fail("nesting too deep")
		}
		n, err := r.u16()
		if err != nil {
			return nil, err
		}
		out := make(Array, 0, min(int(n), 1024))
		for i := 0; i < int(n); i++ {
			v, err := r.value(depth + 1)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case TagObject:
		if depth >= r.maxDepth {
			return nil, r.fail("nesting too deep")
		}
		n, err := r.u16()
		if err != nil {
			return nil, err
		}
		obj := NewObject()
		for i := 0; i < int(n); i++ {
			k, err := r.str()
			if err != nil {
				return nil, err
			}
			v, err := r.value(depth + 1)
			if err != nil {
				return nil, err
			}
			obj.Set(k, v)
		}
		return obj, nil
	}
	r.pos = start
	return nil, r.fail(fmt.Sprintf("unknown type tag %d", t))
}
