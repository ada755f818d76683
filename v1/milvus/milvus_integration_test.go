//go:build integration

package milvus

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Aleph-Alpha/std-milvus/v1/vectordb"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

const embedEtcdConfig = `listen-client-urls: http://0.0.0.0:2379
advertise-client-urls: http://0.0.0.0:2379
`

// MilvusContainer represents a standalone Milvus container for testing
type MilvusContainer struct {
	testcontainers.Container
	URI string
}

// setupMilvusContainer starts Milvus standalone with embedded etcd and local
// storage.
func setupMilvusContainer(ctx context.Context) (*MilvusContainer, error) {
	port, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free port: %w", err)
	}

	portBindings := nat.PortMap{
		"19530/tcp": []nat.PortBinding{{HostPort: strconv.Itoa(port)}},
	}

	req := testcontainers.ContainerRequest{
		Image: "milvusdb/milvus:v2.4.15",
		Cmd:   []string{"milvus", "run", "standalone"},
		Env: map[string]string{
			"ETCD_USE_EMBED":     "true",
			"ETCD_DATA_DIR":      "/var/lib/milvus/etcd",
			"ETCD_CONFIG_PATH":   "/milvus/configs/embedEtcd.yaml",
			"COMMON_STORAGETYPE": "local",
		},
		Files: []testcontainers.ContainerFile{{
			Reader:            strings.NewReader(embedEtcdConfig),
			ContainerFilePath: "/milvus/configs/embedEtcd.yaml",
			FileMode:          0o644,
		}},
		ExposedPorts: []string{"19530/tcp", "9091/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForHTTP("/healthz").WithPort("9091/tcp").WithStartupTimeout(3 * time.Minute),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start milvus container: %w", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get host: %w", err)
	}
	mapped, err := c.MappedPort(ctx, "19530")
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	return &MilvusContainer{
		Container: c,
		URI:       "http://" + net.JoinHostPort(host, mapped.Port()),
	}, nil
}

func getFreePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func randomVector(dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = rand.Float32()
	}
	return v
}

func TestMilvusWithFXModule(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	milvusContainer, err := setupMilvusContainer(ctx)
	require.NoError(t, err)
	defer func() {
		if err := milvusContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	t.Logf("Using Milvus on %s", milvusContainer.URI)

	var client *Client
	app := fxtest.New(t,
		fx.Supply(*FromURI(milvusContainer.URI).WithRPCDeadline(30*time.Second)),
		FXModule,
		fx.Populate(&client),
	)
	require.NoError(t, app.Start(ctx))
	defer func() { require.NoError(t, app.Stop(ctx)) }()

	const dim = 8

	t.Run("QuickSetupRoundTrip", func(t *testing.T) {
		collection := "quick_setup"
		require.NoError(t, client.CreateCollection(ctx, CollectionSpec{Name: collection, Dimension: dim}))

		names, err := client.ListCollections(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, collection)

		vec := randomVector(dim)
		err = client.Upsert(ctx, UpsertSpec{
			CollectionName: collection,
			Row: Row{
				"id":     IntValue(1),
				"vector": FloatVectorValue(vec),
				"title":  StringValue("first"),
				"meta": MapValue(map[string]Value{
					"tags":  ArrayValue(StringValue("a"), StringValue("b")),
					"draft": BoolValue(false),
				}),
			},
		})
		require.NoError(t, err)

		n, err := client.UpsertRows(ctx, UpsertSpec{CollectionName: collection},
			Row{"id": IntValue(2), "vector": FloatVectorValue(randomVector(dim)), "title": StringValue("second")},
			Row{"id": IntValue(3), "vector": FloatVectorValue(randomVector(dim)), "title": StringValue("third")},
		)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		var res SearchResult
		require.Eventually(t, func() bool {
			res, err = client.Search(ctx, SearchQuery{
				CollectionName: collection,
				QueryVectors:   [][]float32{vec},
				TopK:           3,
				Filter:         `title == "first"`,
			})
			return err == nil && len(res) == 1 && len(res[0]) == 1
		}, 30*time.Second, 500*time.Millisecond)

		hit := res[0][0]
		id, ok := hit.PrimaryKey.Int()
		require.True(t, ok)
		assert.Equal(t, int64(1), id)
		assert.True(t, StringValue("first").Equal(hit.Entity["title"]))
		assert.True(t, MapValue(map[string]Value{
			"tags":  ArrayValue(StringValue("a"), StringValue("b")),
			"draft": BoolValue(false),
		}).Equal(hit.Entity["meta"]))

		deleted, err := client.Delete(ctx, DeleteSpec{CollectionName: &collection, IDs: []int64{2, 3}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)
	})

	t.Run("ExplicitSchemaWithIndexes", func(t *testing.T) {
		collection := "explicit_schema"
		require.NoError(t, client.CreateCollection(ctx, CollectionSpec{
			Name:            collection,
			Dimension:       dim,
			PrimaryKeyField: "doc_id",
			VectorField:     "embedding",
		}))
		require.NoError(t, client.CreateIndex(ctx, CreateIndexSpec{
			CollectionName:  collection,
			FieldNames:      []string{"embedding"},
			PrimaryKeyField: "doc_id",
		}))
		require.NoError(t, client.LoadCollection(ctx, collection))

		err := client.Upsert(ctx, UpsertSpec{
			CollectionName:  collection,
			VectorField:     "embedding",
			PrimaryKeyField: "doc_id",
			Row:             Row{"doc_id": IntValue(10), "embedding": FloatVectorValue(randomVector(dim))},
		})
		require.NoError(t, err)

		filter := "doc_id == 10"
		deleted, err := client.Delete(ctx, DeleteSpec{CollectionName: &collection, Filter: &filter})
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)
	})

	t.Run("Adapter", func(t *testing.T) {
		adapter := NewAdapter(client)
		collection := "adapter"

		require.NoError(t, adapter.EnsureCollection(ctx, collection, dim))
		require.NoError(t, adapter.EnsureCollection(ctx, collection, dim))

		inputs := make([]vectordb.EmbeddingInput, 5)
		for i := range inputs {
			inputs[i] = vectordb.EmbeddingInput{
				ID:          strconv.Itoa(i + 1),
				Vector:      randomVector(dim),
				Payload:     map[string]any{"index": i},
				UserPayload: map[string]any{"author": fmt.Sprintf("user-%d", i%2)},
			}
		}
		require.NoError(t, adapter.Insert(ctx, collection, inputs))

		var results [][]vectordb.SearchResult
		require.Eventually(t, func() bool {
			var err error
			results, err = adapter.Search(ctx, vectordb.SearchRequest{
				CollectionName: collection,
				Vector:         inputs[0].Vector,
				TopK:           5,
				Filters:        vectordb.NewFilterSet(vectordb.Must(vectordb.NewUserMatch("author", "user-0"))),
			})
			return err == nil && len(results[0]) == 3
		}, 30*time.Second, 500*time.Millisecond)

		for _, r := range results[0] {
			assert.Equal(t, map[string]any{"author": "user-0"}, r.Payload["custom"])
		}

		deleted, err := adapter.Delete(ctx, collection, []string{"1", "2"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)
	})
}

func TestMilvusConnectionErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	port, err := getFreePort()
	require.NoError(t, err)

	_, err = NewClient(ctx, *FromURI(fmt.Sprintf("http://localhost:%d", port)).WithConnectTimeout(2*time.Second))
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))
}
