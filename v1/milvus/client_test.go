package milvus

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/Aleph-Alpha/std-milvus/v1/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []observability.OperationContext
}

func (r *recordingObserver) ObserveOperation(ctx observability.OperationContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ctx)
}

func (r *recordingObserver) last() observability.OperationContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

var testConfig = ConnectionConfig{URI: "http://localhost:19530"}

// connectedClient returns a Client connected to a mock database.
func connectedClient(t *testing.T, opts ...Option) (*Client, *MockDatabaseClient) {
	t.Helper()
	ctrl := gomock.NewController(t)
	db := NewMockDatabaseClient(ctrl)
	connector := NewMockConnector(ctrl)
	connector.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(db, nil)

	c := New(connector, opts...)
	require.NoError(t, c.Connect(context.Background(), testConfig))
	return c, db
}

func TestClientNotInitialized(t *testing.T) {
	ctrl := gomock.NewController(t)
	// No expectations: any call on the connector fails the test.
	c := New(NewMockConnector(ctrl))
	ctx := context.Background()

	assert.False(t, c.IsConnected())

	errs := []error{
		c.CreateCollection(ctx, CollectionSpec{Name: "docs", Dimension: 4}),
		c.LoadCollection(ctx, "docs"),
		c.CreateIndex(ctx, CreateIndexSpec{CollectionName: "docs", PrimaryKeyField: "id"}),
		c.Upsert(ctx, UpsertSpec{CollectionName: "docs"}),
	}
	_, err := c.ListCollections(ctx)
	errs = append(errs, err)
	_, err = c.Delete(ctx, DeleteSpec{})
	errs = append(errs, err)
	_, err = c.Search(ctx, SearchQuery{CollectionName: "docs"})
	errs = append(errs, err)

	for _, err := range errs {
		assert.True(t, IsNotInitializedError(err), "got %v", err)
	}

	var notInit *NotInitializedError
	_, err = c.Search(ctx, SearchQuery{})
	require.ErrorAs(t, err, &notInit)
	assert.Equal(t, OpSearch, notInit.Operation)

	assert.NoError(t, c.Close())
}

func TestClientConnectValidatesBeforeDialing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := New(NewMockConnector(ctrl))

	err := c.Connect(context.Background(), ConnectionConfig{})
	assert.True(t, IsConnectionError(err))
	assert.True(t, IsValidationError(err))
	assert.False(t, c.IsConnected())

	err = c.Connect(context.Background(), *FromURI("ftp://milvus:19530"))
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "ftp://milvus:19530", connErr.URI)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "uri", valErr.Field)
	assert.False(t, c.IsConnected())
}

func TestClientConnectWrapsFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	connector := NewMockConnector(ctrl)
	connector.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	obs := &recordingObserver{}
	c := New(connector, WithObserver(obs))

	err := c.Connect(context.Background(), testConfig)
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, testConfig.URI, connErr.URI)
	assert.False(t, c.IsConnected())

	assert.Equal(t, OpConnect, obs.last().Operation)
	assert.Equal(t, err, obs.last().Error)
}

func TestClientConnectAppliesDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := NewMockDatabaseClient(ctrl)
	connector := NewMockConnector(ctrl)
	connector.EXPECT().Connect(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cfg ConnectionConfig) (DatabaseClient, error) {
			assert.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout)
			assert.Equal(t, DefaultKeepAliveTime, cfg.KeepAliveTime)
			return db, nil
		})

	c := New(connector)
	require.NoError(t, c.Connect(context.Background(), testConfig))
}

func TestClientConnectIsIdempotent(t *testing.T) {
	c, _ := connectedClient(t)

	// The connector expects exactly one call.
	require.NoError(t, c.Connect(context.Background(), testConfig))
	assert.True(t, c.IsConnected())
}

func TestClientCloseThenOperate(t *testing.T) {
	c, db := connectedClient(t)
	db.EXPECT().Close().Return(nil)

	require.NoError(t, c.Close())
	assert.False(t, c.IsConnected())

	_, err := c.ListCollections(context.Background())
	assert.True(t, IsNotInitializedError(err))

	// Second close is a no-op.
	assert.NoError(t, c.Close())
}

func TestClientCreateCollection(t *testing.T) {
	c, db := connectedClient(t)
	db.EXPECT().CreateCollection(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *CreateCollectionRequest) error {
			assert.True(t, req.Simple)
			assert.Equal(t, "docs", req.CollectionName)
			return nil
		})

	require.NoError(t, c.CreateCollection(context.Background(), CollectionSpec{Name: "docs", Dimension: 4}))
}

func TestClientValidationSkipsNetwork(t *testing.T) {
	// The mock has no expectations, so a dispatched request would fail.
	c, _ := connectedClient(t)
	ctx := context.Background()

	assert.True(t, IsValidationError(c.CreateCollection(ctx, CollectionSpec{Name: "docs"})))
	assert.True(t, IsValidationError(c.LoadCollection(ctx, "")))
	assert.True(t, IsValidationError(c.CreateIndex(ctx, CreateIndexSpec{CollectionName: "docs"})))
	assert.True(t, IsValidationError(c.Upsert(ctx, UpsertSpec{CollectionName: "docs", Row: Row{"id": IntValue(1)}})))

	_, err := c.Search(ctx, SearchQuery{CollectionName: "docs", QueryVectors: [][]float32{{1}}})
	assert.True(t, IsValidationError(err))

	err = c.Upsert(ctx, UpsertSpec{
		CollectionName: "docs",
		Row:            Row{"id": IntValue(1), "vector": FloatVectorValue([]float32{1}), "bad": FloatValue(math.NaN())},
	})
	assert.True(t, IsEncodingError(err))
}

func TestClientRemoteErrorsKeepCause(t *testing.T) {
	c, db := connectedClient(t)
	db.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(context.DeadlineExceeded)

	err := c.Upsert(context.Background(), UpsertSpec{
		CollectionName: "docs",
		Row:            Row{"id": IntValue(1), "vector": FloatVectorValue([]float32{1})},
	})
	require.Error(t, err)
	assert.True(t, IsRemoteOperationError(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	var remote *RemoteOperationError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, OpUpsert, remote.Operation)
	assert.Equal(t, "failed to upsert data", remote.Message)
}

func TestClientUpsertKeepsBindingEncodingErrors(t *testing.T) {
	c, db := connectedClient(t)
	db.EXPECT().Upsert(gomock.Any(), gomock.Any()).
		Return(&EncodingError{Path: "rows[0].id", Reason: "cannot use string value for this column"})

	err := c.Upsert(context.Background(), UpsertSpec{
		CollectionName: "docs",
		Row:            Row{"id": StringValue("k1"), "vector": FloatVectorValue([]float32{1})},
	})
	require.Error(t, err)
	assert.True(t, IsEncodingError(err))
	assert.False(t, IsRemoteOperationError(err))

	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "rows[0].id", encErr.Path)
}

func TestClientUpsertRowsStopsAtFirstFailure(t *testing.T) {
	c, db := connectedClient(t)
	gomock.InOrder(
		db.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil),
		db.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(errors.New("rejected")),
	)

	row := func(id int64) Row {
		return Row{"id": IntValue(id), "vector": FloatVectorValue([]float32{1})}
	}

	n, err := c.UpsertRows(context.Background(), UpsertSpec{CollectionName: "docs"}, row(1), row(2), row(3))
	assert.Equal(t, 1, n)
	assert.True(t, IsRemoteOperationError(err))
}

func TestClientDeleteReturnsCount(t *testing.T) {
	c, db := connectedClient(t)
	db.EXPECT().Delete(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *DeleteRequest) (*DeleteResponse, error) {
			assert.Nil(t, req.CollectionName)
			assert.Equal(t, []int64{1, 2}, req.IDs)
			return &DeleteResponse{DeletedCount: 2}, nil
		})

	n, err := c.Delete(context.Background(), DeleteSpec{IDs: []int64{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestClientListCollections(t *testing.T) {
	c, db := connectedClient(t)
	db.EXPECT().ListCollections(gomock.Any()).Return(nil, nil)

	names, err := c.ListCollections(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)
}

func TestClientSearch(t *testing.T) {
	c, db := connectedClient(t)
	db.EXPECT().Search(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *SearchRequest) (RawSearchResponse, error) {
			assert.Equal(t, []string{"*"}, req.OutputFields)
			return RawSearchResponse{{
				{ID: int64(2), Score: 0.1},
				{ID: int64(1), Score: 0.8, Fields: map[string]any{"title": "t"}},
			}}, nil
		})

	res, err := c.Search(context.Background(), SearchQuery{
		CollectionName: "docs",
		QueryVectors:   [][]float32{{1, 0}},
		TopK:           2,
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Len(t, res[0], 2)
	assert.Equal(t, "2", res[0][0].PrimaryKey.String())
	assert.Equal(t, "1", res[0][1].PrimaryKey.String())
}

func TestClientObserverAndSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	obs := &recordingObserver{}

	c, db := connectedClient(t, WithObserver(obs), WithTracerProvider(tp))
	db.EXPECT().LoadCollection(gomock.Any(), "docs").Return(errors.New("not found"))
	db.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(&DeleteResponse{DeletedCount: 4}, nil)

	assert.Error(t, c.LoadCollection(context.Background(), "docs"))
	coll := "docs"
	_, err := c.Delete(context.Background(), DeleteSpec{CollectionName: &coll})
	require.NoError(t, err)

	require.Len(t, obs.events, 3)
	assert.Equal(t, OpConnect, obs.events[0].Operation)

	load := obs.events[1]
	assert.Equal(t, "milvus", load.Component)
	assert.Equal(t, OpLoadCollection, load.Operation)
	assert.Equal(t, "docs", load.Resource)
	assert.True(t, IsRemoteOperationError(load.Error))

	del := obs.events[2]
	assert.Equal(t, OpDelete, del.Operation)
	assert.NoError(t, del.Error)
	assert.Equal(t, int64(4), del.Size)

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "milvus.connect", spans[0].Name())

	loadSpan := spans[1]
	assert.Equal(t, "milvus.load_collection", loadSpan.Name())
	assert.Equal(t, codes.Error, loadSpan.Status().Code)
	assert.Contains(t, loadSpan.Attributes(), attribute.String("db.collection.name", "docs"))
	assert.Contains(t, loadSpan.Attributes(), attribute.String("db.system", "milvus"))

	assert.Contains(t, spans[2].Attributes(), attribute.Int64("milvus.items", 4))
}

func TestClientLogging(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := NewMockLogger(ctrl)
	log.EXPECT().InfoWithContext(gomock.Any(), "[Milvus] Milvus client connected", nil, gomock.Any())
	log.EXPECT().DebugWithContext(gomock.Any(), "[Milvus] Milvus operation finished", nil, gomock.Any()).Times(2)

	c, db := connectedClient(t, WithLogger(log))
	db.EXPECT().ListCollections(gomock.Any()).Return([]string{"docs"}, nil)

	names, err := c.ListCollections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, names)
}

func TestClientConcurrentUse(t *testing.T) {
	c, db := connectedClient(t)
	db.EXPECT().ListCollections(gomock.Any()).Return([]string{"docs"}, nil).Times(16)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.ListCollections(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
