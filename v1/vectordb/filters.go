package vectordb

import (
	"encoding/json"
	"time"
)

// UserPayloadPrefix is the key under which user-defined fields are stored.
const UserPayloadPrefix = "custom"

// FieldType tells adapters where a filtered field lives.
type FieldType int

const (
	// InternalField is stored at the top level of the entry.
	InternalField FieldType = iota
	// UserField is stored under UserPayloadPrefix.
	UserField
)

// FilterCondition is implemented by every condition type. Adapters switch
// on the concrete type to build their native filter.
type FilterCondition interface {
	IsFilterCondition()
}

// FilterSet combines Must (AND), Should (OR) and MustNot (NOT) clauses.
// The clauses are ANDed together.
//
// Example:
//
//	filters := vectordb.NewFilterSet(
//	    vectordb.Must(vectordb.NewMatch("status", "published")),
//	    vectordb.MustNot(vectordb.NewUserMatch("draft", true)),
//	)
type FilterSet struct {
	Must    *ConditionSet `json:"must,omitempty"`
	Should  *ConditionSet `json:"should,omitempty"`
	MustNot *ConditionSet `json:"mustNot,omitempty"`
}

// ConditionSet is the list of conditions of one clause.
type ConditionSet struct {
	Conditions []FilterCondition `json:"conditions,omitempty"`
}

// MatchCondition is an equality filter: field == value. Value is a string,
// bool or number.
type MatchCondition struct {
	Field     string    `json:"field"`
	Value     any       `json:"equalTo"`
	FieldType FieldType `json:"-"`
}

func (c *MatchCondition) IsFilterCondition() {}

// MatchAnyCondition matches when the field equals one of Values (IN).
type MatchAnyCondition struct {
	Field     string    `json:"field"`
	Values    []any     `json:"anyOf"`
	FieldType FieldType `json:"-"`
}

func (c *MatchAnyCondition) IsFilterCondition() {}

// MatchExceptCondition matches when the field equals none of Values (NOT IN).
type MatchExceptCondition struct {
	Field     string    `json:"field"`
	Values    []any     `json:"noneOf"`
	FieldType FieldType `json:"-"`
}

func (c *MatchExceptCondition) IsFilterCondition() {}

// NumericRange holds optional numeric bounds.
type NumericRange struct {
	Gt  *float64 `json:"greaterThan,omitempty"`
	Gte *float64 `json:"greaterThanOrEqualTo,omitempty"`
	Lt  *float64 `json:"lessThan,omitempty"`
	Lte *float64 `json:"lessThanOrEqualTo,omitempty"`
}

// TimeRange holds optional time bounds. Times are compared as Unix seconds,
// so the filtered field must store Unix seconds.
type TimeRange struct {
	Gt  *time.Time `json:"after,omitempty"`
	Gte *time.Time `json:"atOrAfter,omitempty"`
	Lt  *time.Time `json:"before,omitempty"`
	Lte *time.Time `json:"atOrBefore,omitempty"`
}

// NumericRangeCondition filters by a numeric range. Its JSON form flattens
// the bounds next to the field name.
type NumericRangeCondition struct {
	Field     string       `json:"field"`
	Range     NumericRange `json:"-"`
	FieldType FieldType    `json:"-"`
}

func (c *NumericRangeCondition) IsFilterCondition() {}

type numericRangeJSON struct {
	Field string `json:"field"`
	NumericRange
}

func (c *NumericRangeCondition) MarshalJSON() ([]byte, error) {
	return json.Marshal(numericRangeJSON{Field: c.Field, NumericRange: c.Range})
}

func (c *NumericRangeCondition) UnmarshalJSON(data []byte) error {
	var v numericRangeJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	c.Field = v.Field
	c.Range = v.NumericRange
	return nil
}

// TimeRangeCondition filters by a time range.
type TimeRangeCondition struct {
	Field     string    `json:"field"`
	Range     TimeRange `json:"-"`
	FieldType FieldType `json:"-"`
}

func (c *TimeRangeCondition) IsFilterCondition() {}

type timeRangeJSON struct {
	Field string `json:"field"`
	TimeRange
}

func (c *TimeRangeCondition) MarshalJSON() ([]byte, error) {
	return json.Marshal(timeRangeJSON{Field: c.Field, TimeRange: c.Range})
}

func (c *TimeRangeCondition) UnmarshalJSON(data []byte) error {
	var v timeRangeJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	c.Field = v.Field
	c.Range = v.TimeRange
	return nil
}
