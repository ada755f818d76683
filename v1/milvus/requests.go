package milvus

import "fmt"

// Defaults applied by the request builders.
const (
	DefaultVectorField     = "vector"
	DefaultPrimaryKeyField = "id"
	DefaultMetricType      = MetricCosine
)

// DefaultOutputFields asks Milvus to return every stored field, dynamic
// fields included.
var DefaultOutputFields = []string{"*"}

// MetricType is the similarity metric used by indexes and searches.
type MetricType string

const (
	MetricCosine MetricType = "COSINE"
	MetricL2     MetricType = "L2"
	MetricIP     MetricType = "IP"
)

// IndexType selects the index algorithm.
type IndexType string

const (
	// IndexTypeDefault leaves the choice to the server.
	IndexTypeDefault IndexType = ""

	// IndexTypeAutoIndex lets Milvus pick an index suited to the field type.
	IndexTypeAutoIndex IndexType = "AUTOINDEX"
)

// DataType is the type of an explicitly declared schema field.
type DataType uint8

const (
	DataTypeInt64 DataType = iota + 1
	DataTypeFloatVector
)

func (d DataType) String() string {
	switch d {
	case DataTypeInt64:
		return "Int64"
	case DataTypeFloatVector:
		return "FloatVector"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(d))
	}
}

// ── Create collection ──────────────────────────────────────────────────────

// CollectionSpec describes a collection to create.
type CollectionSpec struct {
	// Name of the collection. Required.
	Name string `json:"name" yaml:"name"`

	// Dimension of the float vector field. Required, > 0.
	Dimension uint32 `json:"dimension" yaml:"dimension"`

	// PrimaryKeyField switches to an explicit schema with an Int64 primary
	// key of this name. When empty the quick-setup layout ("id", "vector")
	// is used.
	PrimaryKeyField string `json:"primaryKeyField,omitempty" yaml:"primary_key_field"`

	// VectorField names the vector field of an explicit schema.
	// Default: "vector".
	VectorField string `json:"vectorField,omitempty" yaml:"vector_field"`

	// AllowDynamicFields controls whether keys outside the schema are
	// accepted. Default: true.
	AllowDynamicFields *bool `json:"allowDynamicFields,omitempty" yaml:"allow_dynamic_fields"`

	Description string     `json:"description,omitempty" yaml:"description"`
	MetricType  MetricType `json:"metricType,omitempty" yaml:"metric_type"`
}

// FieldSchema is one declared field of an explicit schema.
type FieldSchema struct {
	Name         string
	DataType     DataType
	IsPrimaryKey bool
	AutoID       bool
	Dimension    uint32
}

// CreateCollectionRequest is the canonical create-collection request.
type CreateCollectionRequest struct {
	CollectionName string
	Dimension      uint32

	// Simple marks the quick-setup form. Fields is empty in that case and
	// the database client materialises the default layout.
	Simple bool
	Fields []FieldSchema

	PrimaryKeyField    string
	VectorField        string
	EnableDynamicField bool
	Description        string
	MetricType         MetricType
}

// BuildCreateCollectionRequest validates spec and builds the request.
func BuildCreateCollectionRequest(spec CollectionSpec) (*CreateCollectionRequest, error) {
	if spec.Name == "" {
		return nil, missing("collection name")
	}
	if spec.Dimension == 0 {
		return nil, &ValidationError{Field: "dimension", Reason: "must be greater than 0"}
	}

	req := &CreateCollectionRequest{
		CollectionName: spec.Name,
		Dimension:      spec.Dimension,
		Description:    spec.Description,
		MetricType:     spec.MetricType,
	}
	if req.MetricType == "" {
		req.MetricType = DefaultMetricType
	}

	if spec.PrimaryKeyField == "" {
		req.Simple = true
		req.PrimaryKeyField = DefaultPrimaryKeyField
		req.VectorField = DefaultVectorField
		req.EnableDynamicField = true
		return req, nil
	}

	vectorField := spec.VectorField
	if vectorField == "" {
		vectorField = DefaultVectorField
	}
	if vectorField == spec.PrimaryKeyField {
		return nil, &ValidationError{Field: "primary key field", Reason: "must differ from the vector field"}
	}

	req.PrimaryKeyField = spec.PrimaryKeyField
	req.VectorField = vectorField
	req.EnableDynamicField = spec.AllowDynamicFields == nil || *spec.AllowDynamicFields
	req.Fields = []FieldSchema{
		{Name: spec.PrimaryKeyField, DataType: DataTypeInt64, IsPrimaryKey: true, AutoID: false},
		{Name: vectorField, DataType: DataTypeFloatVector, Dimension: spec.Dimension},
	}
	return req, nil
}

// ── Create index ───────────────────────────────────────────────────────────

// CreateIndexSpec lists the fields to index in one collection.
type CreateIndexSpec struct {
	CollectionName  string     `json:"collectionName" yaml:"collection_name"`
	FieldNames      []string   `json:"fieldNames" yaml:"field_names"`
	PrimaryKeyField string     `json:"primaryKeyField" yaml:"primary_key_field"`
	MetricType      MetricType `json:"metricType,omitempty" yaml:"metric_type"`
}

// IndexParam is one index to build.
type IndexParam struct {
	FieldName  string
	IndexType  IndexType
	MetricType MetricType
}

// CreateIndexRequest is the canonical create-index request. IndexParams are
// built in order.
type CreateIndexRequest struct {
	CollectionName string
	IndexParams    []IndexParam
}

// BuildCreateIndexRequest produces one default index per listed field, in
// input order, followed by an AUTOINDEX on the primary key.
func BuildCreateIndexRequest(spec CreateIndexSpec) (*CreateIndexRequest, error) {
	if spec.CollectionName == "" {
		return nil, missing("collection name")
	}
	if spec.PrimaryKeyField == "" {
		return nil, missing("primary key field")
	}

	metric := spec.MetricType
	if metric == "" {
		metric = DefaultMetricType
	}

	params := make([]IndexParam, 0, len(spec.FieldNames)+1)
	for i, name := range spec.FieldNames {
		if name == "" {
			return nil, missing(fmt.Sprintf("field name [%d]", i))
		}
		params = append(params, IndexParam{FieldName: name, IndexType: IndexTypeDefault, MetricType: metric})
	}
	params = append(params, IndexParam{FieldName: spec.PrimaryKeyField, IndexType: IndexTypeAutoIndex})

	return &CreateIndexRequest{CollectionName: spec.CollectionName, IndexParams: params}, nil
}

// ── Upsert ─────────────────────────────────────────────────────────────────

// UpsertSpec describes one row to insert or replace.
type UpsertSpec struct {
	CollectionName string
	PartitionName  string

	// VectorField defaults to "vector", PrimaryKeyField to "id".
	VectorField     string
	PrimaryKeyField string

	Row Row
}

// UpsertRequest is the canonical upsert request. Rows always holds exactly
// one row.
type UpsertRequest struct {
	CollectionName  string
	PartitionName   string
	VectorField     string
	PrimaryKeyField string
	Rows            []SerializedRow
}

// BuildUpsertRequest encodes spec.Row and wraps it in a one-row batch.
func BuildUpsertRequest(spec UpsertSpec) (*UpsertRequest, error) {
	if spec.CollectionName == "" {
		return nil, missing("collection name")
	}
	if len(spec.Row) == 0 {
		return nil, missing("row")
	}

	vectorField := spec.VectorField
	if vectorField == "" {
		vectorField = DefaultVectorField
	}
	pkField := spec.PrimaryKeyField
	if pkField == "" {
		pkField = DefaultPrimaryKeyField
	}

	encoded, err := EncodeRow(spec.Row, vectorField, pkField)
	if err != nil {
		return nil, err
	}

	return &UpsertRequest{
		CollectionName:  spec.CollectionName,
		PartitionName:   spec.PartitionName,
		VectorField:     vectorField,
		PrimaryKeyField: pkField,
		Rows:            []SerializedRow{encoded},
	}, nil
}

// ── Delete ─────────────────────────────────────────────────────────────────

// DeleteSpec selects entities to delete. Every field is optional; a nil
// field places no constraint on that dimension.
type DeleteSpec struct {
	CollectionName *string
	PartitionName  *string
	IDs            []int64
	Filter         *string
}

// DeleteRequest carries exactly the fields supplied in the DeleteSpec.
type DeleteRequest struct {
	CollectionName *string
	PartitionName  *string
	IDs            []int64
	Filter         *string
}

// BuildDeleteRequest copies the supplied subset of spec. It never fills in
// defaults.
func BuildDeleteRequest(spec DeleteSpec) (*DeleteRequest, error) {
	req := &DeleteRequest{
		CollectionName: spec.CollectionName,
		PartitionName:  spec.PartitionName,
		Filter:         spec.Filter,
	}
	if spec.IDs != nil {
		req.IDs = append([]int64{}, spec.IDs...)
	}
	return req, nil
}

// DeleteResponse is returned by DatabaseClient.Delete.
type DeleteResponse struct {
	DeletedCount int64
}

// ── Search ─────────────────────────────────────────────────────────────────

// SearchQuery describes a similarity search with one or more query vectors.
type SearchQuery struct {
	CollectionName string
	PartitionNames []string
	QueryVectors   [][]float32
	Filter         string
	TopK           uint32

	// VectorField defaults to "vector".
	VectorField string

	// OutputFields defaults to ["*"].
	OutputFields []string

	// MetricType defaults to COSINE.
	MetricType MetricType
}

// SearchRequest is the canonical search request. PartitionNames and Filter
// are nil when the query did not set them.
type SearchRequest struct {
	CollectionName string
	PartitionNames []string
	Vectors        [][]float32
	Filter         *string
	TopK           uint32
	VectorField    string
	OutputFields   []string
	MetricType     MetricType
}

// BuildSearchRequest validates q and builds the request. Query vectors are
// copied as given; their length is checked by the server.
func BuildSearchRequest(q SearchQuery) (*SearchRequest, error) {
	if q.CollectionName == "" {
		return nil, missing("collection name")
	}
	if len(q.QueryVectors) == 0 {
		return nil, missing("query vectors")
	}
	if q.TopK == 0 {
		return nil, &ValidationError{Field: "topK", Reason: "must be greater than 0"}
	}

	vectors := make([][]float32, len(q.QueryVectors))
	for i, v := range q.QueryVectors {
		if len(v) == 0 {
			return nil, missing(fmt.Sprintf("query vector [%d]", i))
		}
		vectors[i] = append([]float32(nil), v...)
	}

	req := &SearchRequest{
		CollectionName: q.CollectionName,
		Vectors:        vectors,
		TopK:           q.TopK,
		VectorField:    q.VectorField,
		MetricType:     q.MetricType,
	}
	if len(q.OutputFields) > 0 {
		req.OutputFields = append([]string(nil), q.OutputFields...)
	}
	if len(q.PartitionNames) > 0 {
		req.PartitionNames = append([]string(nil), q.PartitionNames...)
	}
	if q.Filter != "" {
		filter := q.Filter
		req.Filter = &filter
	}
	if req.VectorField == "" {
		req.VectorField = DefaultVectorField
	}
	if len(req.OutputFields) == 0 {
		req.OutputFields = append([]string(nil), DefaultOutputFields...)
	}
	if req.MetricType == "" {
		req.MetricType = DefaultMetricType
	}
	return req, nil
}
