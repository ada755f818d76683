package milvus

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/Aleph-Alpha/std-milvus/v1/vectordb"
	"golang.org/x/sync/errgroup"
)

const defaultAdapterConcurrency = 8

// Adapter implements vectordb.Service on top of a Client.
//
// Entries are stored in the quick-setup layout: an Int64 "id" primary key,
// a "vector" field, internal payload fields at the top level and user
// payload fields under "custom", all kept as dynamic fields.
type Adapter struct {
	client      *Client
	concurrency int
}

var _ vectordb.Service = (*Adapter)(nil)

// NewAdapter wraps client.
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client, concurrency: defaultAdapterConcurrency}
}

// WithConcurrency bounds the number of in-flight requests issued by Insert
// and Search. Values below 1 are ignored.
func (a *Adapter) WithConcurrency(n int) *Adapter {
	if n > 0 {
		a.concurrency = n
	}
	return a
}

// Search runs the requests concurrently and returns one result slice per
// request, in request order. Failed requests leave a nil slot; their errors
// are joined into the returned error.
func (a *Adapter) Search(ctx context.Context, requests ...vectordb.SearchRequest) ([][]vectordb.SearchResult, error) {
	if len(requests) == 0 {
		return nil, missing("search requests")
	}

	results := make([][]vectordb.SearchResult, len(requests))
	errs := make([]error, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, req := range requests {
		g.Go(func() error {
			res, err := a.searchOne(gctx, req)
			if err != nil {
				errs[i] = fmt.Errorf("request [%d]: %w", i, err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}

func (a *Adapter) searchOne(ctx context.Context, req vectordb.SearchRequest) ([]vectordb.SearchResult, error) {
	if req.TopK <= 0 || uint64(req.TopK) > math.MaxUint32 {
		return nil, &ValidationError{Field: "topK", Reason: "must be between 1 and 2^32-1"}
	}
	expr, err := BuildFilterExpr(req.Filters)
	if err != nil {
		return nil, err
	}

	res, err := a.client.Search(ctx, SearchQuery{
		CollectionName: req.CollectionName,
		QueryVectors:   [][]float32{req.Vector},
		TopK:           uint32(req.TopK),
		Filter:         expr,
	})
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return []vectordb.SearchResult{}, nil
	}

	out := make([]vectordb.SearchResult, 0, len(res[0]))
	for _, hit := range res[0] {
		r := vectordb.SearchResult{
			ID:             hit.PrimaryKey.String(),
			Score:          float32(hit.Score),
			Payload:        make(map[string]any, len(hit.Entity)),
			CollectionName: req.CollectionName,
		}
		for k, v := range hit.Entity {
			if vec, ok := v.AsFloatVector(); ok && k == DefaultVectorField {
				r.Vector = vec
				continue
			}
			r.Payload[k] = v.Native()
		}
		out = append(out, r)
	}
	return out, nil
}

// Insert upserts inputs with bounded concurrency. Every input is validated
// before the first request is sent.
func (a *Adapter) Insert(ctx context.Context, collectionName string, inputs []vectordb.EmbeddingInput) error {
	if collectionName == "" {
		return missing("collection name")
	}
	if len(inputs) == 0 {
		return nil
	}

	rows := make([]Row, len(inputs))
	for i, in := range inputs {
		row, err := embeddingRow(in)
		if err != nil {
			return fmt.Errorf("input [%d]: %w", i, err)
		}
		rows[i] = row
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, row := range rows {
		g.Go(func() error {
			err := a.client.Upsert(gctx, UpsertSpec{
				CollectionName:  collectionName,
				VectorField:     DefaultVectorField,
				PrimaryKeyField: DefaultPrimaryKeyField,
				Row:             row,
			})
			if err != nil {
				return fmt.Errorf("input [%d]: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func embeddingRow(in vectordb.EmbeddingInput) (Row, error) {
	id, err := strconv.ParseInt(in.ID, 10, 64)
	if err != nil {
		return nil, &ValidationError{Field: "id", Reason: fmt.Sprintf("%q is not an int64", in.ID)}
	}

	row := Row{
		DefaultPrimaryKeyField: IntValue(id),
		DefaultVectorField:     FloatVectorValue(in.Vector),
	}
	for k, v := range in.Payload {
		if k == DefaultPrimaryKeyField || k == DefaultVectorField || k == vectordb.UserPayloadPrefix {
			return nil, &ValidationError{Field: "payload." + k, Reason: "reserved field name"}
		}
		val, err := valueOf(v, k)
		if err != nil {
			return nil, err
		}
		row[k] = val
	}
	if len(in.UserPayload) > 0 {
		user, err := valueOf(in.UserPayload, vectordb.UserPayloadPrefix)
		if err != nil {
			return nil, err
		}
		row[vectordb.UserPayloadPrefix] = user
	}
	return row, nil
}

// Delete removes entries by ID.
func (a *Adapter) Delete(ctx context.Context, collectionName string, ids []string) (int64, error) {
	if collectionName == "" {
		return 0, missing("collection name")
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pks := make([]int64, len(ids))
	for i, id := range ids {
		pk, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return 0, &ValidationError{Field: fmt.Sprintf("ids[%d]", i), Reason: fmt.Sprintf("%q is not an int64", id)}
		}
		pks[i] = pk
	}

	return a.client.Delete(ctx, DeleteSpec{CollectionName: &collectionName, IDs: pks})
}

// EnsureCollection creates the collection in the quick-setup layout and
// loads it when it does not exist yet.
func (a *Adapter) EnsureCollection(ctx context.Context, name string, vectorSize uint64) error {
	if name == "" {
		return missing("collection name")
	}
	if vectorSize == 0 || vectorSize > math.MaxUint32 {
		return &ValidationError{Field: "vector size", Reason: "must be between 1 and 2^32-1"}
	}

	names, err := a.client.ListCollections(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(names, name) {
		return nil
	}

	if err := a.client.CreateCollection(ctx, CollectionSpec{Name: name, Dimension: uint32(vectorSize)}); err != nil {
		return err
	}
	return a.client.LoadCollection(ctx, name)
}

// ListCollections returns the names of all collections.
func (a *Adapter) ListCollections(ctx context.Context) ([]string, error) {
	return a.client.ListCollections(ctx)
}
