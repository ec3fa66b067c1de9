package wire

// Tag is the one-byte type marker that precedes every encoded value.
type Tag byte

// Type tags. Values 9, 10, 11, 14, 15 and 16 exist in the protocol family
// but never appear in game traffic and are rejected as unknown.
const (
	TagNull      Tag = 0
	TagBool      Tag = 1
	TagByte      Tag = 2
	TagShort     Tag = 3
	TagInt       Tag = 4
	TagLong      Tag = 5
	TagFloat     Tag = 6
	TagDouble    Tag = 7
	TagString    Tag = 8
	TagIntArray  Tag = 12
	TagLongArray Tag = 13
	TagArray     Tag = 17
	TagObject    Tag = 18
)

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagBool:
		return "bool"
	case TagByte:
		return "byte"
	case TagShort:
		return "short"
	case TagInt:
		return "int"
	case TagLong:
		return "long"
	case TagFloat:
		return "float"
	case TagDouble:
		return "double"
	case TagString:
		return "utf_string"
	case TagIntArray:
		return "int_array"
	case TagLongArray:
		return "long_array"
	case TagArray:
		return "array"
	case TagObject:
		return "object"
	}
	return "unknown"
}

// Array is a decoded ARRAY value. Elements hold the same Go types as
// Object values.
type Array []any

// Object is a decoded OBJECT value. Key order is preserved so that an
// encoded tree re-encodes byte for byte.
//
// Value types: nil, bool, int8, int16, int32, int64, float32, float64,
// string, []int32, []int64, Array, *Object.
type Object struct {
	keys []string
	vals map[string]any
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{vals: make(map[string]any)}
}

// Set stores v under k, keeping the first insertion position. It returns o
// so fixtures can chain calls.
func (o *Object) Set(k string, v any) *Object {
	if _, ok := o.vals[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.vals[k] = v
	return o
}

// Get returns the raw value under k.
func (o *Object) Get(k string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.vals[k]
	return v, ok
}

// Has reports whether k is present.
func (o *Object) Has(k string) bool {
	_, ok := o.Get(k)
	return ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Int returns any integer-typed value under k widened to int64.
func (o *Object) Int(k string) (int64, bool) {
	v, ok := o.Get(k)
	if !ok {
		return 0, false
	}
	return asInt(v)
}

// String returns the string under k.
func (o *Object) String(k string) (string, bool) {
	v, ok := o.Get(k)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool returns the bool under k.
func (o *Object) Bool(k string) (bool, bool) {
	v, ok := o.Get(k)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Object returns the nested object under k.
func (o *Object) Object(k string) (*Object, bool) {
	v, ok := o.Get(k)
	if !ok {
		return nil, false
	}
	child, ok := v.(*Object)
	return child, ok && child != nil
}

// Array returns the nested array under k.
func (o *Object) Array(k string) (Array, bool) {
	v, ok := o.Get(k)
	if !ok {
		return nil, false
	}
	a, ok := v.(Array)
	return a, ok
}

// Ints returns an integer list under k. INT_ARRAY, LONG_ARRAY and an ARRAY
// holding only integers are all accepted.
func (o *Object) Ints(k string) ([]int64, bool) {
	v, ok := o.Get(k)
	if !ok {
		return nil, false
	}
	switch a := v.(type) {
	case []int32:
		out := make([]int64, len(a))
		for i, n := range a {
			out[i] = int64(n)
		}
		return out, true
	case []int64:
		return a, true
	case Array:
		out := make([]int64, len(a))
		for i, e := range a {
			n, ok := asInt(e)
			if !ok {
				return nil, false
			}
			out[i] = n
		}
		return out, true
	}
	return nil, false
}

// Path walks nested objects by key.
func (o *Object) Path(keys ...string) (*Object, bool) {
	cur := o
	for _, k := range keys {
		next, ok := cur.Object(k)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}
