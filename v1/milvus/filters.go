package milvus

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Aleph-Alpha/std-milvus/v1/vectordb"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// BuildFilterExpr compiles a vectordb.FilterSet into a Milvus boolean
// expression. Must conditions are ANDed, Should conditions ORed, MustNot
// conditions each negated, and the three clauses ANDed together. A nil or
// empty FilterSet yields "".
//
// Example:
//
//	expr, _ := BuildFilterExpr(vectordb.NewFilterSet(
//	    vectordb.Must(vectordb.NewMatch("status", "published")),
//	    vectordb.MustNot(vectordb.NewUserMatchAny("tag", "draft", "spam")),
//	))
//	// status == "published" and not (custom["tag"] in ["draft","spam"])
func BuildFilterExpr(fs *vectordb.FilterSet) (string, error) {
	if fs == nil {
		return "", nil
	}

	var clauses []string

	must, err := compileConditions(fs.Must)
	if err != nil {
		return "", err
	}
	clauses = append(clauses, must...)

	should, err := compileConditions(fs.Should)
	if err != nil {
		return "", err
	}
	switch len(should) {
	case 0:
	case 1:
		clauses = append(clauses, should[0])
	default:
		clauses = append(clauses, "("+strings.Join(should, " or ")+")")
	}

	mustNot, err := compileConditions(fs.MustNot)
	if err != nil {
		return "", err
	}
	for _, c := range mustNot {
		clauses = append(clauses, "not ("+c+")")
	}

	return strings.Join(clauses, " and "), nil
}

func compileConditions(cs *vectordb.ConditionSet) ([]string, error) {
	if cs == nil {
		return nil, nil
	}
	out := make([]string, 0, len(cs.Conditions))
	for i, c := range cs.Conditions {
		expr, err := compileCondition(c)
		if err != nil {
			return nil, &ValidationError{Field: fmt.Sprintf("filter condition [%d]", i), Reason: err.Error()}
		}
		out = append(out, expr)
	}
	return out, nil
}

func compileCondition(c vectordb.FilterCondition) (string, error) {
	switch cond := c.(type) {
	case *vectordb.MatchCondition:
		key, err := fieldKey(cond.Field, cond.FieldType)
		if err != nil {
			return "", err
		}
		lit, err := literal(cond.Value)
		if err != nil {
			return "", err
		}
		return key + " == " + lit, nil

	case *vectordb.MatchAnyCondition:
		return compileMembership(cond.Field, cond.FieldType, cond.Values, "in")

	case *vectordb.MatchExceptCondition:
		return compileMembership(cond.Field, cond.FieldType, cond.Values, "not in")

	case *vectordb.NumericRangeCondition:
		key, err := fieldKey(cond.Field, cond.FieldType)
		if err != nil {
			return "", err
		}
		return compileBounds(key, cond.Range.Gt, cond.Range.Gte, cond.Range.Lt, cond.Range.Lte)

	case *vectordb.TimeRangeCondition:
		key, err := fieldKey(cond.Field, cond.FieldType)
		if err != nil {
			return "", err
		}
		return compileBounds(key, unixSeconds(cond.Range.Gt), unixSeconds(cond.Range.Gte),
			unixSeconds(cond.Range.Lt), unixSeconds(cond.Range.Lte))

	default:
		return "", fmt.Errorf("unsupported condition type %T", c)
	}
}

func compileMembership(field string, ft vectordb.FieldType, values []any, op string) (string, error) {
	key, err := fieldKey(field, ft)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", fmt.Errorf("%s on %q needs at least one value", op, field)
	}
	lits := make([]string, len(values))
	for i, v := range values {
		if lits[i], err = literal(v); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%s %s [%s]", key, op, strings.Join(lits, ",")), nil
}

func compileBounds(key string, gt, gte, lt, lte *float64) (string, error) {
	var parts []string
	bounds := []struct {
		op string
		v  *float64
	}{{">", gt}, {">=", gte}, {"<", lt}, {"<=", lte}}
	for _, b := range bounds {
		if b.v == nil {
			continue
		}
		lit, err := finiteFloat(*b.v)
		if err != nil {
			return "", fmt.Errorf("range on %s: %w", key, err)
		}
		parts = append(parts, key+" "+b.op+" "+lit)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("range on %s has no bounds", key)
	}
	return strings.Join(parts, " and "), nil
}

func unixSeconds(t *time.Time) *float64 {
	if t == nil {
		return nil
	}
	s := float64(t.Unix())
	return &s
}

func fieldKey(field string, ft vectordb.FieldType) (string, error) {
	if field == "" {
		return "", fmt.Errorf("field name must not be empty")
	}
	if ft == vectordb.UserField {
		return vectordb.UserPayloadPrefix + "[" + strconv.Quote(field) + "]", nil
	}
	if !identifierPattern.MatchString(field) {
		return "", fmt.Errorf("invalid field name %q", field)
	}
	return field, nil
}

func literal(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return strconv.Quote(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float32:
		return finiteFloat(float64(t))
	case float64:
		return finiteFloat(t)
	default:
		return "", fmt.Errorf("unsupported filter value type %T", v)
	}
}

func finiteFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("non-finite number in filter")
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}
