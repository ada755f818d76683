package milvus

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// Row is one entity to write: the vector field, the primary key field and
// any number of dynamic fields.
type Row map[string]Value

// SerializedRow is the plain Go form of a Row as handed to the database
// client. Values are string, int64, float64, bool, []float32, []any or
// map[string]any.
type SerializedRow map[string]any

// EncodeRow converts row into its serialized form.
//
// The vector field must hold a non-empty FloatVector and the primary key a
// String or Integer; both are written first under their own names. Every
// other key is a dynamic field and is converted recursively with its
// spelling preserved. Conversion never drops or nulls a value: an invalid
// Value or a NaN/Inf float fails with an *EncodingError naming the path.
func EncodeRow(row Row, vectorField, primaryKeyField string) (SerializedRow, error) {
	if vectorField == "" {
		return nil, missing("vector field name")
	}
	if primaryKeyField == "" {
		return nil, missing("primary key field name")
	}
	if vectorField == primaryKeyField {
		return nil, &ValidationError{Field: "primary key field name", Reason: "must differ from the vector field name"}
	}

	out := make(SerializedRow, len(row))

	vec, ok := row[vectorField]
	if !ok {
		return nil, &ValidationError{Field: vectorField, Reason: "vector field is missing from the row"}
	}
	encodedVec, err := encodeVector(vec, vectorField)
	if err != nil {
		return nil, err
	}
	out[vectorField] = encodedVec

	pk, ok := row[primaryKeyField]
	if !ok {
		return nil, &ValidationError{Field: primaryKeyField, Reason: "primary key field is missing from the row"}
	}
	switch pk.Kind() {
	case KindString:
		out[primaryKeyField] = pk.str
	case KindInteger:
		out[primaryKeyField] = pk.num
	default:
		return nil, &EncodingError{Path: primaryKeyField, Reason: fmt.Sprintf("primary key must be a string or an integer, got %s", pk.Kind())}
	}

	for _, key := range slices.Sorted(maps.Keys(row)) {
		if key == vectorField || key == primaryKeyField {
			continue
		}
		encoded, err := encodeValue(row[key], key)
		if err != nil {
			return nil, err
		}
		out[key] = encoded
	}

	return out, nil
}

func encodeVector(v Value, path string) ([]float32, error) {
	vec, ok := v.AsFloatVector()
	if !ok {
		return nil, &EncodingError{Path: path, Reason: fmt.Sprintf("expected a float vector, got %s", v.Kind())}
	}
	if len(vec) == 0 {
		return nil, &EncodingError{Path: path, Reason: "vector is empty"}
	}
	out := make([]float32, len(vec))
	for i, f := range vec {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return nil, &EncodingError{Path: indexPath(path, i), Reason: "vector component is not finite"}
		}
		out[i] = f
	}
	return out, nil
}

func encodeValue(v Value, path string) (any, error) {
	switch v.kind {
	case KindString:
		return v.str, nil
	case KindInteger:
		return v.num, nil
	case KindBool:
		return v.num == 1, nil
	case KindFloat:
		if math.IsNaN(v.flt) || math.IsInf(v.flt, 0) {
			return nil, &EncodingError{Path: path, Reason: "float is not finite"}
		}
		return v.flt, nil
	case KindFloatVector:
		return encodeVector(v, path)
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			encoded, err := encodeValue(item, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			out[i] = encoded
		}
		return out, nil
	case KindMap:
		out := make(map[string]any, len(v.obj))
		for _, k := range slices.Sorted(maps.Keys(v.obj)) {
			encoded, err := encodeValue(v.obj[k], keyPath(path, k))
			if err != nil {
				return nil, err
			}
			out[k] = encoded
		}
		return out, nil
	default:
		return nil, &EncodingError{Path: path, Reason: "unsupported value"}
	}
}

// DecodeEntity lifts an entity returned by Milvus into Values, one key for
// one key, without renaming.
func DecodeEntity(raw SerializedRow) (map[string]Value, error) {
	out := make(map[string]Value, len(raw))
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		v, err := valueOf(raw[key], key)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}
