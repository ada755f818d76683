package milvus

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRowKeepsDynamicFields(t *testing.T) {
	row := Row{
		"vector": FloatVectorValue([]float32{0.1, 0.2}),
		"id":     StringValue("k1"),
		"tag":    StringValue("x"),
		"meta":   MapValue(map[string]Value{"a": IntValue(1)}),
	}

	out, err := EncodeRow(row, "vector", "id")
	require.NoError(t, err)

	assert.Len(t, out, 4)
	assert.Equal(t, []float32{0.1, 0.2}, out["vector"])
	assert.Equal(t, "k1", out["id"])
	assert.Equal(t, "x", out["tag"])
	assert.Equal(t, map[string]any{"a": int64(1)}, out["meta"])
}

func TestEncodeRowPreservesKeySpelling(t *testing.T) {
	row := Row{
		"Embedding": FloatVectorValue([]float32{1}),
		"DocID":     IntValue(9),
		"CamelCase": MapValue(map[string]Value{"MiXeD": StringValue("v")}),
	}

	out, err := EncodeRow(row, "Embedding", "DocID")
	require.NoError(t, err)
	assert.Equal(t, int64(9), out["DocID"])
	assert.Equal(t, map[string]any{"MiXeD": "v"}, out["CamelCase"])
}

func TestEncodeRowDeepNesting(t *testing.T) {
	row := Row{
		"vector": FloatVectorValue([]float32{1}),
		"id":     IntValue(1),
		"deep": ArrayValue(
			MapValue(map[string]Value{
				"inner": ArrayValue(IntValue(1), ArrayValue(StringValue("x"))),
			}),
		),
	}

	out, err := EncodeRow(row, "vector", "id")
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"inner": []any{int64(1), []any{"x"}}}}, out["deep"])
}

func TestEncodeRowRoundTrip(t *testing.T) {
	row := Row{
		"vector": FloatVectorValue([]float32{0.5, -1}),
		"id":     IntValue(77),
		"title":  StringValue("report"),
		"count":  IntValue(3),
		"ratio":  FloatValue(0.25),
		"public": BoolValue(true),
		"tags":   ArrayValue(StringValue("a"), IntValue(2)),
		"meta": MapValue(map[string]Value{
			"owner": StringValue("ops"),
			"nested": MapValue(map[string]Value{
				"levels": ArrayValue(FloatValue(1.5)),
			}),
		}),
	}

	encoded, err := EncodeRow(row, "vector", "id")
	require.NoError(t, err)

	decoded, err := DecodeEntity(encoded)
	require.NoError(t, err)

	require.Len(t, decoded, len(row))
	for k, want := range row {
		got, ok := decoded[k]
		require.True(t, ok, "missing %s", k)
		assert.True(t, want.Equal(got), "field %s: want %v got %v", k, want, got)
		assert.Equal(t, want.Kind(), got.Kind(), "field %s", k)
	}
}

func TestEncodeRowMissingRequiredFields(t *testing.T) {
	_, err := EncodeRow(Row{"id": IntValue(1)}, "vector", "id")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = EncodeRow(Row{"vector": FloatVectorValue([]float32{1})}, "vector", "id")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = EncodeRow(Row{}, "", "id")
	assert.True(t, IsValidationError(err))

	_, err = EncodeRow(Row{}, "same", "same")
	assert.True(t, IsValidationError(err))
}

func TestEncodeRowRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		path string
	}{
		{
			name: "vector of wrong kind",
			row:  Row{"vector": StringValue("x"), "id": IntValue(1)},
			path: "vector",
		},
		{
			name: "empty vector",
			row:  Row{"vector": FloatVectorValue(nil), "id": IntValue(1)},
			path: "vector",
		},
		{
			name: "nan in vector",
			row:  Row{"vector": FloatVectorValue([]float32{1, float32(math.NaN())}), "id": IntValue(1)},
			path: "vector[1]",
		},
		{
			name: "float primary key",
			row:  Row{"vector": FloatVectorValue([]float32{1}), "id": FloatValue(1)},
			path: "id",
		},
		{
			name: "zero value in nested array",
			row: Row{
				"vector": FloatVectorValue([]float32{1}),
				"id":     IntValue(1),
				"meta":   MapValue(map[string]Value{"tags": ArrayValue(StringValue("a"), StringValue("b"), Value{})}),
			},
			path: "meta.tags[2]",
		},
		{
			name: "infinite float",
			row: Row{
				"vector": FloatVectorValue([]float32{1}),
				"id":     IntValue(1),
				"score":  FloatValue(math.Inf(1)),
			},
			path: "score",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeRow(tt.row, "vector", "id")
			require.Error(t, err)

			var encErr *EncodingError
			require.ErrorAs(t, err, &encErr)
			assert.Equal(t, tt.path, encErr.Path)
		})
	}
}

func TestEncodeRowCopiesVector(t *testing.T) {
	vec := []float32{1, 2}
	out, err := EncodeRow(Row{"vector": FloatVectorValue(vec), "id": IntValue(1)}, "vector", "id")
	require.NoError(t, err)

	vec[0] = 9
	assert.Equal(t, []float32{1, 2}, out["vector"])
}

func TestDecodeEntityIsOneForOne(t *testing.T) {
	decoded, err := DecodeEntity(SerializedRow{
		"Title":  "x",
		"count":  int64(2),
		"vector": []float32{1},
		"meta":   []byte(`{"a":[1,2]}`),
	})
	require.NoError(t, err)

	assert.Len(t, decoded, 4)
	assert.True(t, StringValue("x").Equal(decoded["Title"]))
	assert.True(t, IntValue(2).Equal(decoded["count"]))
	assert.True(t, FloatVectorValue([]float32{1}).Equal(decoded["vector"]))
	assert.True(t, MapValue(map[string]Value{"a": ArrayValue(IntValue(1), IntValue(2))}).Equal(decoded["meta"]))
}

func TestDecodeEntityEmpty(t *testing.T) {
	decoded, err := DecodeEntity(nil)
	require.NoError(t, err)
	assert.NotNil(t, decoded)
	assert.Empty(t, decoded)
}
