package vectordb

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilterSet(t *testing.T) {
	fs := NewFilterSet(
		Must(NewMatch("status", "published")),
		Should(NewUserMatch("tag", "ml"), NewUserMatch("tag", "ai")),
		MustNot(NewMatchAny("level", 1, 2)),
	)

	require.NotNil(t, fs.Must)
	require.NotNil(t, fs.Should)
	require.NotNil(t, fs.MustNot)
	assert.Len(t, fs.Must.Conditions, 1)
	assert.Len(t, fs.Should.Conditions, 2)

	match := fs.Should.Conditions[0].(*MatchCondition)
	assert.Equal(t, UserField, match.FieldType)
	assert.Equal(t, InternalField, fs.Must.Conditions[0].(*MatchCondition).FieldType)
}

func TestMatchAnyPanicsOnMixedTypes(t *testing.T) {
	assert.Panics(t, func() { NewMatchAny("f", "a", 1) })
	assert.Panics(t, func() { NewUserMatchExcept("f", true, "x") })
	assert.NotPanics(t, func() { NewMatchExcept("f", 1, int64(2), 3.5) })
}

func TestFilterSetJSONRoundTrip(t *testing.T) {
	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	low := 0.5

	fs := NewFilterSet(
		Must(
			NewMatch("status", "published"),
			NewNumericRange("score", NumericRange{Gte: &low}),
		),
		Should(NewTimeRange("created", TimeRange{Gt: &after})),
		MustNot(NewMatchExcept("lang", "de", "fr"), NewMatchAny("tag", "x")),
	)

	data, err := json.Marshal(fs)
	require.NoError(t, err)

	var back FilterSet
	require.NoError(t, json.Unmarshal(data, &back))

	require.Len(t, back.Must.Conditions, 2)
	assert.Equal(t, "published", back.Must.Conditions[0].(*MatchCondition).Value)

	rng := back.Must.Conditions[1].(*NumericRangeCondition)
	assert.Equal(t, "score", rng.Field)
	require.NotNil(t, rng.Range.Gte)
	assert.Equal(t, 0.5, *rng.Range.Gte)

	tr := back.Should.Conditions[0].(*TimeRangeCondition)
	require.NotNil(t, tr.Range.Gt)
	assert.True(t, after.Equal(*tr.Range.Gt))

	except := back.MustNot.Conditions[0].(*MatchExceptCondition)
	assert.Equal(t, []any{"de", "fr"}, except.Values)
	assert.IsType(t, &MatchAnyCondition{}, back.MustNot.Conditions[1])
}

func TestFilterSetJSONShape(t *testing.T) {
	fs := NewFilterSet(Must(NewNumericRange("n", NumericRange{Lt: ptr(3.0)})))

	data, err := json.Marshal(fs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"must":[{"field":"n","lessThan":3}]}`, string(data))
}

func TestConditionSetUnmarshalErrors(t *testing.T) {
	var cs ConditionSet
	assert.Error(t, json.Unmarshal([]byte(`[{"field":"x","unknown":1}]`), &cs))
	assert.Error(t, json.Unmarshal([]byte(`[{"field":"x","anyOf":["a",1]}]`), &cs))
	assert.Error(t, json.Unmarshal([]byte(`{"field":"x"}`), &cs))
}

func ptr[T any](v T) *T { return &v }
