package milvus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// RawHit is one hit as returned by the database client.
type RawHit struct {
	ID     any
	Score  float32
	Fields map[string]any
}

// RawSearchResponse holds one ranked hit list per query vector.
type RawSearchResponse [][]RawHit

// PrimaryKey is an int64 or string entity identifier.
type PrimaryKey struct {
	isString bool
	num      int64
	str      string
}

// IntKey returns an integer primary key.
func IntKey(id int64) PrimaryKey { return PrimaryKey{num: id} }

// StringKey returns a string primary key.
func StringKey(id string) PrimaryKey { return PrimaryKey{isString: true, str: id} }

// Int returns the key and true when it is an integer.
func (k PrimaryKey) Int() (int64, bool) { return k.num, !k.isString }

// Str returns the key and true when it is a string.
func (k PrimaryKey) Str() (string, bool) { return k.str, k.isString }

func (k PrimaryKey) String() string {
	if k.isString {
		return k.str
	}
	return strconv.FormatInt(k.num, 10)
}

// Hit is one ranked search result.
type Hit struct {
	PrimaryKey PrimaryKey
	Score      float64
	Entity     map[string]Value
}

// SearchResult holds one ranked hit list per query vector, in query order.
type SearchResult [][]Hit

// ProjectSearchResponse converts raw into a SearchResult. Query order and
// the rank order of hits within each query are kept exactly as received;
// hits are never re-sorted by score.
//
// Top-level fields holding null (written by clients that allow it) are left
// out of the hit's entity. A null nested inside an array or map still fails
// with an *EncodingError naming its position.
func ProjectSearchResponse(raw RawSearchResponse) (SearchResult, error) {
	out := make(SearchResult, len(raw))
	for q, hits := range raw {
		projected := make([]Hit, len(hits))
		for h, hit := range hits {
			pos := fmt.Sprintf("results[%d][%d]", q, h)

			pk, err := primaryKeyOf(hit.ID)
			if err != nil {
				return nil, &EncodingError{Path: pos + ".id", Reason: err.Error()}
			}

			entity := make(map[string]Value, len(hit.Fields))
			for name, field := range hit.Fields {
				if isNull(field) {
					continue
				}
				v, err := valueOf(field, pos+"."+name)
				if err != nil {
					return nil, err
				}
				entity[name] = v
			}

			projected[h] = Hit{PrimaryKey: pk, Score: float64(hit.Score), Entity: entity}
		}
		out[q] = projected
	}
	return out, nil
}

func isNull(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case json.RawMessage:
		return bytes.Equal(bytes.TrimSpace(t), []byte("null"))
	case []byte:
		return bytes.Equal(bytes.TrimSpace(t), []byte("null"))
	}
	return false
}

func primaryKeyOf(id any) (PrimaryKey, error) {
	switch v := id.(type) {
	case int64:
		return IntKey(v), nil
	case int32:
		return IntKey(int64(v)), nil
	case int:
		return IntKey(int64(v)), nil
	case string:
		return StringKey(v), nil
	default:
		return PrimaryKey{}, fmt.Errorf("unsupported primary key type %T", id)
	}
}
