package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Aleph-Alpha/std-milvus/v1/milvus"
)

// parseRows reads rows given as one JSON object, a JSON array of objects or
// newline-delimited objects. The vector field must be an array of numbers;
// every other key is lifted with milvus.ValueOf.
func parseRows(r io.Reader, vectorField string) ([]milvus.Row, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no rows given")
		}
		return nil, err
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	var docs []map[string]any
	if first == '[' {
		if err := dec.Decode(&docs); err != nil {
			return nil, fmt.Errorf("parse rows: %w", err)
		}
	} else {
		for {
			var doc map[string]any
			err := dec.Decode(&doc)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("parse row [%d]: %w", len(docs), err)
			}
			docs = append(docs, doc)
		}
	}

	rows := make([]milvus.Row, len(docs))
	for i, doc := range docs {
		row, err := toRow(doc, vectorField)
		if err != nil {
			return nil, fmt.Errorf("row [%d]: %w", i, err)
		}
		rows[i] = row
	}
	return rows, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func toRow(doc map[string]any, vectorField string) (milvus.Row, error) {
	row := make(milvus.Row, len(doc))
	for k, raw := range doc {
		if k == vectorField {
			vec, err := toVector(raw)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			row[k] = milvus.FloatVectorValue(vec)
			continue
		}
		v, err := milvus.ValueOf(raw)
		if err != nil {
			return nil, err
		}
		row[k] = v
	}
	return row, nil
}

func toVector(raw any) ([]float32, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("expected an array of numbers, got %T", raw)
	}
	vec := make([]float32, len(items))
	for i, item := range items {
		n, ok := item.(json.Number)
		if !ok {
			return nil, fmt.Errorf("component [%d] is not a number", i)
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("component [%d]: %w", i, err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}

// parseVector parses a comma separated list of floats.
func parseVector(s string) ([]float32, error) {
	parts := strings.Split(s, ",")
	vec := make([]float32, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q", p)
		}
		vec = append(vec, float32(f))
	}
	if len(vec) == 0 {
		return nil, errors.New("empty vector")
	}
	return vec, nil
}
