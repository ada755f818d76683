package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/Aleph-Alpha/std-milvus/v1/milvus"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

type printer struct {
	out    io.Writer
	format string
}

type hitView struct {
	ID     string         `json:"id" yaml:"id"`
	Score  float64        `json:"score" yaml:"score"`
	Fields map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type queryView struct {
	Query int       `json:"query" yaml:"query"`
	Hits  []hitView `json:"hits" yaml:"hits"`
}

// structured writes v as JSON or YAML. It reports false for table output.
func (p *printer) structured(v any) (bool, error) {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

func (p *printer) collections(names []string) error {
	if done, err := p.structured(map[string][]string{"collections": names}); done {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(p.out, "No collections found")
		return nil
	}
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME")
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
	return w.Flush()
}

func (p *printer) message(key string, value any, text string) error {
	if done, err := p.structured(map[string]any{key: value}); done {
		return err
	}
	fmt.Fprintln(p.out, color.GreenString(text))
	return nil
}

func (p *printer) searchResult(res milvus.SearchResult) error {
	views := make([]queryView, len(res))
	for q, hits := range res {
		views[q] = queryView{Query: q, Hits: make([]hitView, len(hits))}
		for i, h := range hits {
			fields := make(map[string]any, len(h.Entity))
			for k, v := range h.Entity {
				fields[k] = v.Native()
			}
			views[q].Hits[i] = hitView{ID: h.PrimaryKey.String(), Score: h.Score, Fields: fields}
		}
	}

	if done, err := p.structured(map[string][]queryView{"results": views}); done {
		return err
	}

	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "QUERY\tRANK\tID\tSCORE\tFIELDS")
	for _, q := range views {
		for rank, h := range q.Hits {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n",
				q.Query, rank+1, color.CyanString(h.ID), formatScore(h.Score), formatFields(res[q.Query][rank].Entity))
		}
	}
	return w.Flush()
}

func formatScore(s float64) string {
	return fmt.Sprintf("%.4f", s)
}

// formatFields renders an entity as sorted key=value pairs. Vectors are
// summarised by their dimension.
func formatFields(entity map[string]milvus.Value) string {
	parts := make([]string, 0, len(entity))
	for _, k := range slices.Sorted(maps.Keys(entity)) {
		v := entity[k]
		if vec, ok := v.AsFloatVector(); ok {
			parts = append(parts, fmt.Sprintf("%s=<%d dims>", k, len(vec)))
			continue
		}
		parts = append(parts, k+"="+v.String())
	}
	return strings.Join(parts, " ")
}
