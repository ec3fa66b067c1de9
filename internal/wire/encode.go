package wire

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"math"
)

// Encoder writes frames in the format Decoder reads. It backs the test
// fixtures, the decode round-trip check and capture file generation.
type Encoder struct {
	// Compress deflates bodies at least this long. Zero disables compression.
	CompressAbove int
}

// Encode serialises root into a complete frame.
func (e *Encoder) Encode(root *Object) ([]byte, error) {
	var body bytes.Buffer
	if err := writeValue(&body, root); err != nil {
		return nil, err
	}

	h := FlagBinary
	payload := body.Bytes()
	if e != nil && e.CompressAbove > 0 && len(payload) >= e.CompressAbove {
		var z bytes.Buffer
		zw := zlib.NewWriter(&z)
		if _, err := zw.Write(payload); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		payload = z.Bytes()
		h |= FlagCompressed
	}

	var out bytes.Buffer
	if len(payload) > math.MaxUint16 {
		h |= FlagLarge
		out.WriteByte(h)
		_ = binary.Write(&out, binary.BigEndian, uint32(len(payload)))
	} else {
		out.WriteByte(h)
		_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)))
	}
	out.Write(payload)
	return out.Bytes(), nil
}

// Message wraps payload in the conventional envelope {c, a, p: {c, p}} and
// encodes it.
func (e *Encoder) Message(payload *Object) ([]byte, error) {
	inner := NewObject().Set("c", "game").Set("p", payload)
	root := NewObject().Set("c", int8(1)).Set("a", int16(13)).Set("p", inner)
	return e.Encode(root)
}

func writeValue(buf *bytes.Buffer, v any) error {
	be := binary.BigEndian
	switch x := v.(type) {
	case nil:
		buf.WriteByte(byte(TagNull))
	case bool:
		buf.WriteByte(byte(TagBool))
		if x {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case int8:
		buf.WriteByte(byte(TagByte))
		buf.WriteByte(byte(x))
	case int16:
		buf.WriteByte(byte(TagShort))
		_ = binary.Write(buf, be, x)
	case int32:
		buf.WriteByte(byte(TagInt))
		_ = binary.Write(buf, be, x)
	case int64:
		buf.WriteByte(byte(TagLong))
		_ = binary.Write(buf, be, x)
	case int:
		if x >= math.MinInt32 && x <= math.MaxInt32 {
			return writeValue(buf, int32(x))
		}
		return writeValue(buf, int64(x))
	case float32:
		buf.WriteByte(byte(TagFloat))
		_ = binary.Write(buf, be, math.Float32bits(x))
	case float64:
		buf.WriteByte(byte(TagDouble))
		_ = binary.Write(buf, be, math.Float64bits(x))
	case string:
		if err := checkLen(len(x), "string"); err != nil {
			return err
		}
		buf.WriteByte(byte(TagString))
		_ = binary.Write(buf, be, uint16(len(x)))
		buf.WriteString(x)
	case []int32:
		if err := checkLen(len(x), "int array"); err != nil {
			return err
		}
		buf.WriteByte(byte(TagIntArray))
		_ = binary.Write(buf, be, uint16(len(x)))
		_ = binary.Write(buf, be, x)
	case []int64:
		if err := checkLen(len(x), "long array"); err != nil {
			return err
		}
		buf.WriteByte(byte(TagLongArray))
		_ = binary.Write(buf, be, uint16(len(x)))
		_ = binary.Write(buf, be, x)
	case Array:
		if err := checkLen(len(x), "array"); err != nil {
			return err
		}
		buf.WriteByte(byte(TagArray))
		_ = binary.Write(buf, be, uint16(len(x)))
		for _, e := range x {
			if err := writeValue(buf, e); err != nil {
				return err
			}
		}
	case []any:
		return writeValue(buf, Array(x))
	case *Object:
		if err := checkLen(x.Len(), "object"); err != nil {
			return err
		}
		buf.WriteByte(byte(TagObject))
		_ = binary.Write(buf, be, uint16(x.Len()))
		for _, k := range x.Keys() {
			if err := checkLen(len(k), "key"); err != nil {
				return err
			}
			buf.WriteByte(byte(len(k) >> 8))
			buf.WriteByte(byte(len(k)))
			buf.WriteString(k)
			if err := writeValue(buf, x.vals[k]); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

// checkLen rejects n that does not fit a uint16 length prefix.
func checkLen(n int, what string) error {
	if n > math.MaxUint16 {
		return fmt.Errorf("%s of length %d exceeds the length prefix", what, n)
	}
	return nil
}
