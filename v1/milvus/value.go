package milvus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	// KindInvalid is the zero Value. It is rejected by the codec.
	KindInvalid Kind = iota
	KindString
	KindInteger
	KindFloat
	KindBool
	KindFloatVector
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindFloatVector:
		return "float_vector"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "invalid"
	}
}

// Value is a dynamically typed field value: a string, a 64-bit integer, a
// float, a bool, a float32 vector, an array of values or a string keyed map
// of values. Values nest to any depth.
//
// Values are built with the constructors below and are treated as
// immutable; constructors do not copy the slices and maps they are given.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	vec  []float32
	arr  []Value
	obj  map[string]Value
}

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// IntValue returns an integer Value.
func IntValue(i int64) Value { return Value{kind: KindInteger, num: i} }

// FloatValue returns a float Value.
func FloatValue(f float64) Value { return Value{kind: KindFloat, flt: f} }

// BoolValue returns a bool Value.
func BoolValue(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.num = 1
	}
	return v
}

// FloatVectorValue returns a float vector Value.
func FloatVectorValue(v []float32) Value { return Value{kind: KindFloatVector, vec: v} }

// ArrayValue returns an array Value holding items in order.
func ArrayValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// MapValue returns a map Value.
func MapValue(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMap, obj: m}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v was built by one of the constructors.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

func (v Value) AsInt() (int64, bool) { return v.num, v.kind == KindInteger }

func (v Value) AsFloat() (float64, bool) { return v.flt, v.kind == KindFloat }

func (v Value) AsBool() (bool, bool) { return v.num == 1, v.kind == KindBool }

func (v Value) AsFloatVector() ([]float32, bool) { return v.vec, v.kind == KindFloatVector }

func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

func (v Value) AsMap() (map[string]Value, bool) { return v.obj, v.kind == KindMap }

// Equal reports whether v and other hold the same variant and the same
// contents, comparing arrays, maps and vectors element by element.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindInteger, KindBool:
		return v.num == other.num
	case KindFloat:
		return v.flt == other.flt
	case KindFloatVector:
		if len(v.vec) != len(other.vec) {
			return false
		}
		for i := range v.vec {
			if v.vec[i] != other.vec[i] {
				return false
			}
		}
		return true
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.obj) != len(other.obj) {
			return false
		}
		for k, item := range v.obj {
			o, ok := other.obj[k]
			if !ok || !item.Equal(o) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Native returns v as plain Go data: string, int64, float64, bool,
// []float32, []any or map[string]any. The zero Value yields nil.
func (v Value) Native() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInteger:
		return v.num
	case KindFloat:
		return v.flt
	case KindBool:
		return v.num == 1
	case KindFloatVector:
		return v.vec
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Native()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Native()
		}
		return out
	default:
		return nil
	}
}

// String renders v for logs and CLI output.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInteger:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.flt, 'g', -1, 64)
	case KindInvalid:
		return "<invalid>"
	default:
		return fmt.Sprint(v.Native())
	}
}

// MarshalJSON encodes the native form of v.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindInvalid {
		return nil, &EncodingError{Reason: "invalid value"}
	}
	return json.Marshal(v.Native())
}

// UnmarshalJSON decodes any JSON document except null into v. Whole numbers
// become integers, other numbers floats.
func (v *Value) UnmarshalJSON(data []byte) error {
	out, err := valueFromJSON(data, "")
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// ValueOf lifts plain Go data into a Value. It accepts the types produced by
// encoding/json (with or without UseNumber), the column types returned by
// the Milvus SDK and the native forms produced by Value.Native. []byte and
// json.RawMessage are parsed as JSON documents.
//
// nil and any other type fail with an *EncodingError.
func ValueOf(v any) (Value, error) {
	return valueOf(v, "")
}

func valueOf(v any, path string) (Value, error) {
	switch t := v.(type) {
	case Value:
		if t.kind == KindInvalid {
			return Value{}, &EncodingError{Path: path, Reason: "invalid value"}
		}
		return t, nil
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int8:
		return IntValue(int64(t)), nil
	case int16:
		return IntValue(int64(t)), nil
	case int32:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case uint8:
		return IntValue(int64(t)), nil
	case uint16:
		return IntValue(int64(t)), nil
	case uint32:
		return IntValue(int64(t)), nil
	case uint:
		return uintValue(uint64(t), path)
	case uint64:
		return uintValue(t, path)
	case float32:
		return FloatValue(float64(t)), nil
	case float64:
		return FloatValue(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return IntValue(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, &EncodingError{Path: path, Reason: fmt.Sprintf("invalid number %q", t.String())}
		}
		return FloatValue(f), nil
	case []float32:
		return FloatVectorValue(t), nil
	case []byte:
		return valueFromJSON(t, path)
	case json.RawMessage:
		return valueFromJSON(t, path)
	case []Value:
		items := make([]Value, len(t))
		for i, item := range t {
			lifted, err := valueOf(item, indexPath(path, i))
			if err != nil {
				return Value{}, err
			}
			items[i] = lifted
		}
		return ArrayValue(items...), nil
	case []any:
		return liftSlice(t, path)
	case []string:
		return liftSlice(t, path)
	case []int64:
		return liftSlice(t, path)
	case []int:
		return liftSlice(t, path)
	case []float64:
		return liftSlice(t, path)
	case []bool:
		return liftSlice(t, path)
	case map[string]Value:
		out := make(map[string]Value, len(t))
		for k, item := range t {
			lifted, err := valueOf(item, keyPath(path, k))
			if err != nil {
				return Value{}, err
			}
			out[k] = lifted
		}
		return MapValue(out), nil
	case map[string]any:
		out := make(map[string]Value, len(t))
		for k, item := range t {
			lifted, err := valueOf(item, keyPath(path, k))
			if err != nil {
				return Value{}, err
			}
			out[k] = lifted
		}
		return MapValue(out), nil
	case nil:
		return Value{}, &EncodingError{Path: path, Reason: "null values are not supported"}
	default:
		return Value{}, &EncodingError{Path: path, Reason: fmt.Sprintf("unsupported type %T", v)}
	}
}

func liftSlice[T any](items []T, path string) (Value, error) {
	out := make([]Value, len(items))
	for i, item := range items {
		lifted, err := valueOf(item, indexPath(path, i))
		if err != nil {
			return Value{}, err
		}
		out[i] = lifted
	}
	return ArrayValue(out...), nil
}

func uintValue(u uint64, path string) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, &EncodingError{Path: path, Reason: fmt.Sprintf("integer %d overflows int64", u)}
	}
	return IntValue(int64(u)), nil
}

func valueFromJSON(data []byte, path string) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, &EncodingError{Path: path, Reason: "invalid JSON: " + err.Error()}
	}
	return valueOf(raw, path)
}

func keyPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func indexPath(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}
