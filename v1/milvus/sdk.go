package milvus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	dynamicFieldName = "$meta"
	countExpr        = "count(*)"
)

// SDKConnector connects through the official Milvus Go SDK.
type SDKConnector struct{}

// Connect dials Milvus. The dial, including the initial handshake, is
// bounded by cfg.ConnectTimeout.
func (SDKConnector) Connect(ctx context.Context, cfg ConnectionConfig) (DatabaseClient, error) {
	cfg = cfg.withDefaults()

	opts, err := dialOptions(cfg)
	if err != nil {
		return nil, &ConnectionError{URI: cfg.URI, Err: err}
	}

	sdkCfg := client.Config{
		Address:       cfg.URI,
		DBName:        cfg.Database,
		EnableTLSAuth: usesTLS(cfg),
		DialOptions:   opts,
	}
	if cfg.Credentials != nil {
		sdkCfg.Username = cfg.Credentials.Username
		sdkCfg.Password = cfg.Credentials.Password
	}
	if cfg.Auth != nil {
		sdkCfg.APIKey = cfg.Auth.Token
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	api, err := client.NewClient(dialCtx, sdkCfg)
	if err != nil {
		return nil, &ConnectionError{URI: cfg.URI, Err: err}
	}
	return &sdkClient{api: api}, nil
}

// sdkClient implements DatabaseClient on top of client.Client. Collection
// schemas are cached after the first describe; creating a collection drops
// its cached schema.
type sdkClient struct {
	api     client.Client
	schemas sync.Map
}

func (c *sdkClient) CreateCollection(ctx context.Context, req *CreateCollectionRequest) error {
	fields := req.Fields
	if req.Simple {
		fields = []FieldSchema{
			{Name: req.PrimaryKeyField, DataType: DataTypeInt64, IsPrimaryKey: true},
			{Name: req.VectorField, DataType: DataTypeFloatVector, Dimension: req.Dimension},
		}
	}

	schema := entity.NewSchema().
		WithName(req.CollectionName).
		WithDescription(req.Description).
		WithDynamicFieldEnabled(req.EnableDynamicField)
	for _, f := range fields {
		field := entity.NewField().WithName(f.Name)
		switch f.DataType {
		case DataTypeInt64:
			field = field.WithDataType(entity.FieldTypeInt64)
		case DataTypeFloatVector:
			field = field.WithDataType(entity.FieldTypeFloatVector).WithDim(int64(f.Dimension))
		default:
			return fmt.Errorf("unsupported field type %s for field %q", f.DataType, f.Name)
		}
		if f.IsPrimaryKey {
			field = field.WithIsPrimaryKey(true).WithIsAutoID(f.AutoID)
		}
		schema.WithField(field)
	}

	c.schemas.Delete(req.CollectionName)
	if err := c.api.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return err
	}
	if !req.Simple {
		return nil
	}

	// The quick-setup layout is ready for search right away: index the
	// vector field and load the collection.
	idx := entity.NewGenericIndex(req.VectorField, entity.AUTOINDEX, map[string]string{
		"metric_type": string(req.MetricType),
	})
	if err := c.api.CreateIndex(ctx, req.CollectionName, req.VectorField, idx, false); err != nil {
		return fmt.Errorf("index vector field %q: %w", req.VectorField, err)
	}
	if err := c.api.LoadCollection(ctx, req.CollectionName, false); err != nil {
		return fmt.Errorf("load collection %q: %w", req.CollectionName, err)
	}
	return nil
}

func (c *sdkClient) LoadCollection(ctx context.Context, name string) error {
	return c.api.LoadCollection(ctx, name, false)
}

func (c *sdkClient) ListCollections(ctx context.Context) ([]string, error) {
	collections, err := c.api.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(collections))
	for _, coll := range collections {
		names = append(names, coll.Name)
	}
	return names, nil
}

func (c *sdkClient) CreateIndex(ctx context.Context, req *CreateIndexRequest) error {
	schema, err := c.schema(ctx, req.CollectionName)
	if err != nil {
		return err
	}

	for _, p := range req.IndexParams {
		field := schemaField(schema, p.FieldName)

		params := map[string]string{}
		indexType := entity.IndexType(p.IndexType)
		if field != nil && isVectorType(field.DataType) {
			if indexType == "" {
				indexType = entity.AUTOINDEX
			}
			if p.MetricType != "" {
				params["metric_type"] = string(p.MetricType)
			}
		}

		idx := entity.NewGenericIndex(p.FieldName, indexType, params)
		if err := c.api.CreateIndex(ctx, req.CollectionName, p.FieldName, idx, false); err != nil {
			return fmt.Errorf("index field %q: %w", p.FieldName, err)
		}
	}
	return nil
}

func (c *sdkClient) Upsert(ctx context.Context, req *UpsertRequest) error {
	schema, err := c.schema(ctx, req.CollectionName)
	if err != nil {
		return err
	}
	columns, err := buildColumns(schema, req.Rows)
	if err != nil {
		return err
	}
	_, err = c.api.Upsert(ctx, req.CollectionName, req.PartitionName, columns...)
	return err
}

// Delete combines ids and filter into one boolean expression. Milvus does
// not report how many entities a delete removed, so the count is taken with
// a count(*) query over the same expression first; this requires the
// collection to be loaded.
func (c *sdkClient) Delete(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error) {
	if req.CollectionName == nil || *req.CollectionName == "" {
		return nil, fmt.Errorf("milvus requires a collection name to delete from")
	}
	collection := *req.CollectionName

	pkField := DefaultPrimaryKeyField
	if req.IDs != nil {
		schema, err := c.schema(ctx, collection)
		if err != nil {
			return nil, err
		}
		if pk := primaryField(schema); pk != nil {
			pkField = pk.Name
		}
	}

	expr := deleteExpr(pkField, req.IDs, req.Filter)
	if expr == "" {
		return nil, fmt.Errorf("milvus requires ids or a filter expression to delete")
	}

	var partition string
	var partitions []string
	if req.PartitionName != nil && *req.PartitionName != "" {
		partition = *req.PartitionName
		partitions = []string{partition}
	}

	rs, err := c.api.Query(ctx, collection, partitions, expr, []string{countExpr})
	if err != nil {
		return nil, fmt.Errorf("count entities to delete: %w", err)
	}
	count, err := countOf(rs)
	if err != nil {
		return nil, err
	}

	if err := c.api.Delete(ctx, collection, partition, expr); err != nil {
		return nil, err
	}
	return &DeleteResponse{DeletedCount: count}, nil
}

func (c *sdkClient) Search(ctx context.Context, req *SearchRequest) (RawSearchResponse, error) {
	vectors := make([]entity.Vector, len(req.Vectors))
	for i, v := range req.Vectors {
		vectors[i] = entity.FloatVector(v)
	}

	sp, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, err
	}

	var expr string
	if req.Filter != nil {
		expr = *req.Filter
	}

	results, err := c.api.Search(ctx, req.CollectionName, req.PartitionNames, expr, req.OutputFields,
		vectors, req.VectorField, entity.MetricType(req.MetricType), int(req.TopK), sp)
	if err != nil {
		return nil, err
	}

	raw := make(RawSearchResponse, len(results))
	for q, result := range results {
		hits := make([]RawHit, 0, result.ResultCount)
		for h := 0; h < result.ResultCount; h++ {
			hit, err := rawHit(result, h)
			if err != nil {
				return nil, fmt.Errorf("read hit [%d][%d]: %w", q, h, err)
			}
			hits = append(hits, hit)
		}
		raw[q] = hits
	}
	return raw, nil
}

func (c *sdkClient) Close() error {
	return c.api.Close()
}

func (c *sdkClient) schema(ctx context.Context, collection string) (*entity.Schema, error) {
	if s, ok := c.schemas.Load(collection); ok {
		return s.(*entity.Schema), nil
	}
	coll, err := c.api.DescribeCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("describe collection %q: %w", collection, err)
	}
	if coll.Schema == nil {
		return nil, fmt.Errorf("collection %q has no schema", collection)
	}
	c.schemas.Store(collection, coll.Schema)
	return coll.Schema, nil
}

// ── helpers ────────────────────────────────────────────────────────────────

func schemaField(schema *entity.Schema, name string) *entity.Field {
	for _, f := range schema.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func primaryField(schema *entity.Schema) *entity.Field {
	for _, f := range schema.Fields {
		if f.PrimaryKey {
			return f
		}
	}
	return nil
}

func isVectorType(t entity.FieldType) bool {
	switch t {
	case entity.FieldTypeFloatVector, entity.FieldTypeBinaryVector:
		return true
	default:
		return false
	}
}

func deleteExpr(pkField string, ids []int64, filter *string) string {
	var parts []string
	if len(ids) > 0 {
		strs := make([]string, len(ids))
		for i, id := range ids {
			strs[i] = strconv.FormatInt(id, 10)
		}
		parts = append(parts, fmt.Sprintf("%s in [%s]", pkField, strings.Join(strs, ",")))
	}
	if filter != nil && *filter != "" {
		parts = append(parts, *filter)
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return "(" + parts[0] + ") and (" + parts[1] + ")"
	}
}

func countOf(rs client.ResultSet) (int64, error) {
	col := rs.GetColumn(countExpr)
	if col == nil || col.Len() == 0 {
		return 0, fmt.Errorf("count query returned no %s column", countExpr)
	}
	v, err := col.Get(0)
	if err != nil {
		return 0, err
	}
	n, ok := toInt64(v)
	if !ok {
		return 0, fmt.Errorf("count query returned %T", v)
	}
	return n, nil
}

func rawHit(result client.SearchResult, h int) (RawHit, error) {
	if result.IDs == nil {
		return RawHit{}, fmt.Errorf("result has no id column")
	}
	id, err := result.IDs.Get(h)
	if err != nil {
		return RawHit{}, err
	}

	var score float32
	if h < len(result.Scores) {
		score = result.Scores[h]
	}

	fields := make(map[string]any, len(result.Fields))
	var dynamic map[string]any
	for _, col := range result.Fields {
		if col.Name() == result.IDs.Name() {
			continue
		}
		v, err := col.Get(h)
		if err != nil {
			return RawHit{}, fmt.Errorf("field %q: %w", col.Name(), err)
		}
		if col.Type() == entity.FieldTypeJSON {
			data, ok := v.([]byte)
			if !ok {
				return RawHit{}, fmt.Errorf("field %q: unexpected JSON value %T", col.Name(), v)
			}
			if col.Name() == dynamicFieldName {
				if dynamic, err = decodeDynamic(data); err != nil {
					return RawHit{}, fmt.Errorf("dynamic fields: %w", err)
				}
				continue
			}
			v = json.RawMessage(data)
		}
		fields[col.Name()] = v
	}

	for k, v := range dynamic {
		if _, exists := fields[k]; !exists {
			fields[k] = v
		}
	}

	return RawHit{ID: id, Score: score, Fields: fields}, nil
}

// decodeDynamic parses the "$meta" column. Numbers stay json.Number so
// integers keep their kind and full int64 precision.
func decodeDynamic(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// buildColumns turns serialized rows into SDK columns following schema.
// Keys outside the schema are packed into the dynamic "$meta" column.
func buildColumns(schema *entity.Schema, rows []SerializedRow) ([]entity.Column, error) {
	declared := make(map[string]bool, len(schema.Fields))
	columns := make([]entity.Column, 0, len(schema.Fields)+1)

	for _, f := range schema.Fields {
		if f.IsDynamic || f.Name == dynamicFieldName {
			continue
		}
		declared[f.Name] = true
		if f.PrimaryKey && f.AutoID {
			continue
		}
		col, err := buildColumn(f, rows)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}

	metas := make([][]byte, len(rows))
	hasDynamic := false
	for i, row := range rows {
		meta := map[string]any{}
		for _, k := range slices.Sorted(maps.Keys(row)) {
			if declared[k] {
				continue
			}
			if !schema.EnableDynamicField {
				return nil, &EncodingError{Path: rowPath(i, k), Reason: fmt.Sprintf("collection %q does not accept dynamic fields", schema.CollectionName)}
			}
			meta[k] = row[k]
		}
		if len(meta) > 0 {
			hasDynamic = true
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("dynamic fields of row [%d]: %w", i, err)
		}
		metas[i] = data
	}
	if schema.EnableDynamicField && hasDynamic {
		columns = append(columns, entity.NewColumnJSONBytes(dynamicFieldName, metas).WithIsDynamic(true))
	}

	return columns, nil
}

func buildColumn(f *entity.Field, rows []SerializedRow) (entity.Column, error) {
	values := make([]any, len(rows))
	for i, row := range rows {
		v, ok := row[f.Name]
		if !ok {
			return nil, &EncodingError{Path: rowPath(i, f.Name), Reason: "missing field declared by the collection schema"}
		}
		values[i] = v
	}

	switch f.DataType {
	case entity.FieldTypeInt64:
		data, err := convertAll(f.Name, values, toInt64)
		if err != nil {
			return nil, err
		}
		return entity.NewColumnInt64(f.Name, data), nil
	case entity.FieldTypeInt32:
		data, err := convertAll(f.Name, values, narrowInt[int32](math.MinInt32, math.MaxInt32))
		if err != nil {
			return nil, err
		}
		return entity.NewColumnInt32(f.Name, data), nil
	case entity.FieldTypeInt16:
		data, err := convertAll(f.Name, values, narrowInt[int16](math.MinInt16, math.MaxInt16))
		if err != nil {
			return nil, err
		}
		return entity.NewColumnInt16(f.Name, data), nil
	case entity.FieldTypeInt8:
		data, err := convertAll(f.Name, values, narrowInt[int8](math.MinInt8, math.MaxInt8))
		if err != nil {
			return nil, err
		}
		return entity.NewColumnInt8(f.Name, data), nil
	case entity.FieldTypeVarChar, entity.FieldTypeString:
		data, err := convertAll(f.Name, values, toString)
		if err != nil {
			return nil, err
		}
		return entity.NewColumnVarChar(f.Name, data), nil
	case entity.FieldTypeBool:
		data, err := convertAll(f.Name, values, toBool)
		if err != nil {
			return nil, err
		}
		return entity.NewColumnBool(f.Name, data), nil
	case entity.FieldTypeFloat:
		data, err := convertAll(f.Name, values, toFloat32)
		if err != nil {
			return nil, err
		}
		return entity.NewColumnFloat(f.Name, data), nil
	case entity.FieldTypeDouble:
		data, err := convertAll(f.Name, values, toFloat64)
		if err != nil {
			return nil, err
		}
		return entity.NewColumnDouble(f.Name, data), nil
	case entity.FieldTypeFloatVector:
		data, err := convertAll(f.Name, values, toFloatVector)
		if err != nil {
			return nil, err
		}
		dim, err := vectorDim(f, data)
		if err != nil {
			return nil, err
		}
		return entity.NewColumnFloatVector(f.Name, dim, data), nil
	case entity.FieldTypeJSON:
		data, err := convertAll(f.Name, values, toJSON)
		if err != nil {
			return nil, err
		}
		return entity.NewColumnJSONBytes(f.Name, data), nil
	default:
		return nil, fmt.Errorf("field %q has unsupported type %s", f.Name, f.DataType.Name())
	}
}

func convertAll[T any](field string, values []any, conv func(any) (T, bool)) ([]T, error) {
	out := make([]T, len(values))
	for i, v := range values {
		t, ok := conv(v)
		if !ok {
			return nil, &EncodingError{Path: rowPath(i, field), Reason: fmt.Sprintf("cannot use %T value for this column", v)}
		}
		out[i] = t
	}
	return out, nil
}

func rowPath(i int, field string) string {
	return fmt.Sprintf("rows[%d].%s", i, field)
}

func vectorDim(f *entity.Field, data [][]float32) (int, error) {
	if raw, ok := f.TypeParams[entity.TypeParamDim]; ok {
		dim, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("field %q has invalid dim %q", f.Name, raw)
		}
		return dim, nil
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("field %q: no vectors", f.Name)
	}
	return len(data[0]), nil
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case float64:
		if t == math.Trunc(t) && t >= -(1<<63) && t < 1<<63 {
			return int64(t), true
		}
	}
	return 0, false
}

func narrowInt[T int8 | int16 | int32](lo, hi int64) func(any) (T, bool) {
	return func(v any) (T, bool) {
		n, ok := toInt64(v)
		if !ok || n < lo || n > hi {
			return 0, false
		}
		return T(n), true
	}
}

func toString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func toBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func toFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func toFloat32(v any) (float32, bool) {
	f, ok := toFloat64(v)
	return float32(f), ok
}

func toFloatVector(v any) ([]float32, bool) {
	vec, ok := v.([]float32)
	return vec, ok
}

func toJSON(v any) ([]byte, bool) {
	data, err := json.Marshal(v)
	return data, err == nil
}
