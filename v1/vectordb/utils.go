package vectordb

import (
	"encoding/json"
	"fmt"
)

// NewFilterSet builds a FilterSet from Must, Should and MustNot clauses.
//
// Example:
//
//	vectordb.NewFilterSet(
//	    vectordb.Must(vectordb.NewMatch("status", "published")),
//	    vectordb.Should(vectordb.NewMatch("tag", "ml"), vectordb.NewMatch("tag", "ai")),
//	)
func NewFilterSet(clauses ...func(*FilterSet)) *FilterSet {
	fs := &FilterSet{}
	for _, clause := range clauses {
		clause(fs)
	}
	return fs
}

// Must sets the AND clause.
func Must(conditions ...FilterCondition) func(*FilterSet) {
	return func(fs *FilterSet) {
		fs.Must = &ConditionSet{Conditions: conditions}
	}
}

// Should sets the OR clause.
func Should(conditions ...FilterCondition) func(*FilterSet) {
	return func(fs *FilterSet) {
		fs.Should = &ConditionSet{Conditions: conditions}
	}
}

// MustNot sets the NOT clause.
func MustNot(conditions ...FilterCondition) func(*FilterSet) {
	return func(fs *FilterSet) {
		fs.MustNot = &ConditionSet{Conditions: conditions}
	}
}

func NewMatch(field string, value any) *MatchCondition {
	return &MatchCondition{Field: field, Value: value, FieldType: InternalField}
}

func NewUserMatch(field string, value any) *MatchCondition {
	return &MatchCondition{Field: field, Value: value, FieldType: UserField}
}

// NewMatchAny panics when values mix strings, numbers and bools.
func NewMatchAny(field string, values ...any) *MatchAnyCondition {
	mustBeHomogeneous(values)
	return &MatchAnyCondition{Field: field, Values: values, FieldType: InternalField}
}

func NewUserMatchAny(field string, values ...any) *MatchAnyCondition {
	mustBeHomogeneous(values)
	return &MatchAnyCondition{Field: field, Values: values, FieldType: UserField}
}

// NewMatchExcept panics when values mix strings, numbers and bools.
func NewMatchExcept(field string, values ...any) *MatchExceptCondition {
	mustBeHomogeneous(values)
	return &MatchExceptCondition{Field: field, Values: values, FieldType: InternalField}
}

func NewUserMatchExcept(field string, values ...any) *MatchExceptCondition {
	mustBeHomogeneous(values)
	return &MatchExceptCondition{Field: field, Values: values, FieldType: UserField}
}

func NewNumericRange(field string, r NumericRange) *NumericRangeCondition {
	return &NumericRangeCondition{Field: field, Range: r, FieldType: InternalField}
}

func NewUserNumericRange(field string, r NumericRange) *NumericRangeCondition {
	return &NumericRangeCondition{Field: field, Range: r, FieldType: UserField}
}

func NewTimeRange(field string, t TimeRange) *TimeRangeCondition {
	return &TimeRangeCondition{Field: field, Range: t, FieldType: InternalField}
}

func NewUserTimeRange(field string, t TimeRange) *TimeRangeCondition {
	return &TimeRangeCondition{Field: field, Range: t, FieldType: UserField}
}

// MarshalJSON encodes the conditions as a plain JSON array.
func (cs *ConditionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(cs.Conditions)
}

// UnmarshalJSON decodes a JSON array of conditions, picking the concrete
// type of each element from its keys.
func (cs *ConditionSet) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	cs.Conditions = make([]FilterCondition, 0, len(raw))
	for i, r := range raw {
		cond, err := parseCondition(r)
		if err != nil {
			return fmt.Errorf("condition [%d]: %w", i, err)
		}
		cs.Conditions = append(cs.Conditions, cond)
	}
	return nil
}

// parseCondition detects the condition type from its keys:
//   - "equalTo" → MatchCondition
//   - "anyOf" → MatchAnyCondition
//   - "noneOf" → MatchExceptCondition
//   - "greaterThan", "lessThan", ... → NumericRangeCondition
//   - "after", "before", ... → TimeRangeCondition
func parseCondition(data []byte) (FilterCondition, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, err
	}

	var cond FilterCondition
	switch {
	case hasKey(keys, "equalTo"):
		cond = &MatchCondition{}
	case hasKey(keys, "anyOf"):
		cond = &MatchAnyCondition{}
	case hasKey(keys, "noneOf"):
		cond = &MatchExceptCondition{}
	case hasKey(keys, "greaterThan", "greaterThanOrEqualTo", "lessThan", "lessThanOrEqualTo"):
		cond = &NumericRangeCondition{}
	case hasKey(keys, "after", "atOrAfter", "before", "atOrBefore"):
		cond = &TimeRangeCondition{}
	default:
		return nil, fmt.Errorf("unknown filter condition type: %s", string(data))
	}

	if err := json.Unmarshal(data, cond); err != nil {
		return nil, err
	}

	switch c := cond.(type) {
	case *MatchAnyCondition:
		return cond, sameKind(c.Values)
	case *MatchExceptCondition:
		return cond, sameKind(c.Values)
	}
	return cond, nil
}

func hasKey(m map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func mustBeHomogeneous(values []any) {
	if err := sameKind(values); err != nil {
		panic("vectordb: " + err.Error())
	}
}

// sameKind rejects value lists that mix strings, numbers and bools.
func sameKind(values []any) error {
	if len(values) == 0 {
		return nil
	}

	expected := kindOf(values[0])
	if expected == "" {
		return fmt.Errorf("unsupported value type: %T", values[0])
	}
	for i, v := range values[1:] {
		actual := kindOf(v)
		if actual == "" {
			return fmt.Errorf("unsupported value type at index %d: %T", i+1, v)
		}
		if actual != expected {
			return fmt.Errorf("mixed types not allowed in MatchAny/MatchExcept: expected %s but got %s at index %d", expected, actual, i+1)
		}
	}
	return nil
}

func kindOf(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case int, int32, int64, float32, float64:
		return "numeric"
	case bool:
		return "boolean"
	}
	return ""
}
