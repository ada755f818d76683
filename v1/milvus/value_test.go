package milvus

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueOfScalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"string", "x", StringValue("x")},
		{"int", 3, IntValue(3)},
		{"int8", int8(-2), IntValue(-2)},
		{"int32", int32(7), IntValue(7)},
		{"uint32", uint32(9), IntValue(9)},
		{"uint64", uint64(11), IntValue(11)},
		{"float32", float32(0.5), FloatValue(0.5)},
		{"float64", 1.25, FloatValue(1.25)},
		{"bool", true, BoolValue(true)},
		{"json int", json.Number("12"), IntValue(12)},
		{"json float", json.Number("1.5"), FloatValue(1.5)},
		{"vector", []float32{1, 2}, FloatVectorValue([]float32{1, 2})},
		{"value", IntValue(5), IntValue(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValueOf(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v (%s)", got, got.Kind())
		})
	}
}

func TestValueOfNested(t *testing.T) {
	got, err := ValueOf(map[string]any{
		"tags":  []any{"a", "b"},
		"score": []float64{0.5},
		"deep":  map[string]any{"list": []any{map[string]any{"k": int64(1)}}},
	})
	require.NoError(t, err)

	want := MapValue(map[string]Value{
		"tags":  ArrayValue(StringValue("a"), StringValue("b")),
		"score": ArrayValue(FloatValue(0.5)),
		"deep": MapValue(map[string]Value{
			"list": ArrayValue(MapValue(map[string]Value{"k": IntValue(1)})),
		}),
	})
	assert.True(t, want.Equal(got))
}

func TestValueOfJSONBytes(t *testing.T) {
	got, err := ValueOf([]byte(`{"n": 1, "f": 1.5, "s": "x", "b": false, "a": [1, "two"]}`))
	require.NoError(t, err)

	m, ok := got.AsMap()
	require.True(t, ok)
	assert.True(t, IntValue(1).Equal(m["n"]))
	assert.True(t, FloatValue(1.5).Equal(m["f"]))
	assert.True(t, StringValue("x").Equal(m["s"]))
	assert.True(t, BoolValue(false).Equal(m["b"]))
	assert.True(t, ArrayValue(IntValue(1), StringValue("two")).Equal(m["a"]))
}

func TestValueOfRejectsUnsupported(t *testing.T) {
	tests := []struct {
		name string
		in   any
		path string
	}{
		{"nil", nil, ""},
		{"struct", struct{}{}, ""},
		{"nested nil", map[string]any{"meta": map[string]any{"tags": []any{"a", "b", nil}}}, "meta.tags[2]"},
		{"overflow", uint64(math.MaxUint64), ""},
		{"bad json", []byte(`{`), ""},
		{"zero value", Value{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValueOf(tt.in)
			require.Error(t, err)
			assert.True(t, IsEncodingError(err))

			var encErr *EncodingError
			require.ErrorAs(t, err, &encErr)
			assert.Equal(t, tt.path, encErr.Path)
		})
	}
}

func TestValueEqual(t *testing.T) {
	assert.True(t, FloatVectorValue([]float32{1, 2}).Equal(FloatVectorValue([]float32{1, 2})))
	assert.False(t, FloatVectorValue([]float32{1, 2}).Equal(FloatVectorValue([]float32{1})))
	assert.False(t, IntValue(1).Equal(FloatValue(1)))
	assert.False(t, BoolValue(true).Equal(BoolValue(false)))
	assert.False(t, MapValue(map[string]Value{"a": IntValue(1)}).Equal(MapValue(map[string]Value{"b": IntValue(1)})))
	assert.True(t, ArrayValue().Equal(ArrayValue()))
}

func TestValueNativeAndJSON(t *testing.T) {
	v := MapValue(map[string]Value{
		"n":   IntValue(1),
		"arr": ArrayValue(StringValue("x"), BoolValue(true)),
	})

	assert.Equal(t, map[string]any{"n": int64(1), "arr": []any{"x", true}}, v.Native())

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1,"arr":["x",true]}`, string(data))

	var back Value
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, v.Equal(back))

	_, err = json.Marshal(Value{})
	assert.Error(t, err)
}

func TestValueAccessors(t *testing.T) {
	s, ok := StringValue("x").AsString()
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	_, ok = StringValue("x").AsInt()
	assert.False(t, ok)

	b, ok := BoolValue(true).AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	assert.Equal(t, "integer", IntValue(1).Kind().String())
	assert.False(t, Value{}.IsValid())
	assert.Equal(t, "2.5", FloatValue(2.5).String())
}
