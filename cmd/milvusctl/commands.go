package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Aleph-Alpha/std-milvus/v1/milvus"
	"github.com/spf13/cobra"
)

func newCollectionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"collection", "coll"},
		Short:   "Manage collections",
	}
	cmd.AddCommand(newCollectionsListCmd(a))
	cmd.AddCommand(newCollectionsCreateCmd(a))
	cmd.AddCommand(newCollectionsLoadCmd(a))
	return cmd
}

func newCollectionsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			names, err := c.ListCollections(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer().collections(names)
		},
	}
}

func newCollectionsCreateCmd(a *app) *cobra.Command {
	var (
		spec      milvus.CollectionSpec
		metric    string
		noDynamic bool
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a collection",
		Long: `Create a collection.

Without --primary-key the quick-setup layout is used: an Int64 "id" primary key,
a "vector" field, dynamic fields enabled, an AUTOINDEX on the vector and the
collection loaded. With --primary-key an explicit schema is created; index and
load it with "index create" and "collections load".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec.Name = args[0]
			spec.MetricType = milvus.MetricType(strings.ToUpper(metric))
			if cmd.Flags().Changed("no-dynamic") {
				allow := !noDynamic
				spec.AllowDynamicFields = &allow
			}

			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.CreateCollection(cmd.Context(), spec); err != nil {
				return err
			}
			return a.printer().message("created", spec.Name, fmt.Sprintf("Collection %s created", spec.Name))
		},
	}
	cmd.Flags().Uint32Var(&spec.Dimension, "dim", 0, "Vector dimension (required)")
	cmd.Flags().StringVar(&spec.PrimaryKeyField, "primary-key", "", "Int64 primary key field for an explicit schema")
	cmd.Flags().StringVar(&spec.VectorField, "vector-field", "", "Vector field name for an explicit schema")
	cmd.Flags().StringVar(&spec.Description, "description", "", "Collection description")
	cmd.Flags().StringVar(&metric, "metric", string(milvus.DefaultMetricType), "Metric type: COSINE, L2 or IP")
	cmd.Flags().BoolVar(&noDynamic, "no-dynamic", false, "Reject fields outside the schema")
	_ = cmd.MarkFlagRequired("dim")
	return cmd
}

func newCollectionsLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load <name>",
		Short: "Load a collection into memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.LoadCollection(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.printer().message("loaded", args[0], fmt.Sprintf("Collection %s loaded", args[0]))
		},
	}
}

func newIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage indexes",
	}

	var (
		spec   milvus.CreateIndexSpec
		metric string
	)
	create := &cobra.Command{
		Use:   "create <collection>",
		Short: "Create indexes on fields and the primary key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec.CollectionName = args[0]
			spec.MetricType = milvus.MetricType(strings.ToUpper(metric))

			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.CreateIndex(cmd.Context(), spec); err != nil {
				return err
			}
			fields := append(append([]string{}, spec.FieldNames...), spec.PrimaryKeyField)
			return a.printer().message("indexed", fields, "Indexed "+strings.Join(fields, ", "))
		},
	}
	create.Flags().StringSliceVar(&spec.FieldNames, "field", nil, "Field to index (repeatable)")
	create.Flags().StringVar(&spec.PrimaryKeyField, "primary-key", milvus.DefaultPrimaryKeyField, "Primary key field")
	create.Flags().StringVar(&metric, "metric", string(milvus.DefaultMetricType), "Metric type for vector fields")

	cmd.AddCommand(create)
	return cmd
}

func newUpsertCmd(a *app) *cobra.Command {
	var (
		spec milvus.UpsertSpec
		data string
	)
	cmd := &cobra.Command{
		Use:   "upsert <collection>",
		Short: "Insert or replace rows",
		Long: `Insert or replace rows given as JSON.

Rows are read from --data, from a file with --data @rows.json, or from stdin.
Accepted forms are a single object, an array of objects or one object per line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec.CollectionName = args[0]

			in, closeIn, err := a.rowSource(data)
			if err != nil {
				return err
			}
			defer closeIn()

			vectorField := spec.VectorField
			if vectorField == "" {
				vectorField = milvus.DefaultVectorField
			}
			rows, err := parseRows(in, vectorField)
			if err != nil {
				return err
			}

			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := c.UpsertRows(cmd.Context(), spec, rows...)
			if err != nil {
				return fmt.Errorf("upserted %d of %d rows: %w", n, len(rows), err)
			}
			return a.printer().message("upserted", n, fmt.Sprintf("Upserted %d rows", n))
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON rows, or @file")
	cmd.Flags().StringVar(&spec.PartitionName, "partition", "", "Partition name")
	cmd.Flags().StringVar(&spec.VectorField, "vector-field", "", "Vector field name (default \"vector\")")
	cmd.Flags().StringVar(&spec.PrimaryKeyField, "primary-key", "", "Primary key field name (default \"id\")")
	return cmd
}

// rowSource returns the reader for upsert input.
func (a *app) rowSource(data string) (io.Reader, func(), error) {
	switch {
	case strings.HasPrefix(data, "@"):
		f, err := os.Open(strings.TrimPrefix(data, "@"))
		if err != nil {
			return nil, nil, err
		}
		return f, func() { _ = f.Close() }, nil
	case data != "":
		return strings.NewReader(data), func() {}, nil
	default:
		return a.in, func() {}, nil
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	var (
		ids       []int64
		filter    string
		partition string
	)
	cmd := &cobra.Command{
		Use:   "delete <collection>",
		Short: "Delete entities by primary key and/or filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(ids) == 0 && filter == "" {
				return errors.New("one of --ids or --filter is required")
			}

			spec := milvus.DeleteSpec{CollectionName: &args[0]}
			if len(ids) > 0 {
				spec.IDs = ids
			}
			if filter != "" {
				spec.Filter = &filter
			}
			if partition != "" {
				spec.PartitionName = &partition
			}

			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := c.Delete(cmd.Context(), spec)
			if err != nil {
				return err
			}
			return a.printer().message("deleted", n, fmt.Sprintf("Deleted %d entities", n))
		},
	}
	cmd.Flags().Int64SliceVar(&ids, "ids", nil, "Primary keys to delete")
	cmd.Flags().StringVar(&filter, "filter", "", "Boolean filter expression")
	cmd.Flags().StringVar(&partition, "partition", "", "Partition name")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		query   milvus.SearchQuery
		vectors []string
		metric  string
	)
	cmd := &cobra.Command{
		Use:   "search <collection>",
		Short: "Run a similarity search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query.CollectionName = args[0]
			query.MetricType = milvus.MetricType(strings.ToUpper(metric))
			for _, s := range vectors {
				vec, err := parseVector(s)
				if err != nil {
					return err
				}
				query.QueryVectors = append(query.QueryVectors, vec)
			}

			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.Search(cmd.Context(), query)
			if err != nil {
				return err
			}
			return a.printer().searchResult(res)
		},
	}
	cmd.Flags().StringArrayVar(&vectors, "vector", nil, "Query vector as comma separated floats (repeatable)")
	cmd.Flags().Uint32VarP(&query.TopK, "top-k", "k", 10, "Number of hits per query")
	cmd.Flags().StringVar(&query.Filter, "filter", "", "Boolean filter expression")
	cmd.Flags().StringSliceVar(&query.OutputFields, "output-fields", nil, "Fields to return (default all)")
	cmd.Flags().StringSliceVar(&query.PartitionNames, "partition", nil, "Partitions to search")
	cmd.Flags().StringVar(&query.VectorField, "vector-field", "", "Vector field name (default \"vector\")")
	cmd.Flags().StringVar(&metric, "metric", string(milvus.DefaultMetricType), "Metric type: COSINE, L2 or IP")
	_ = cmd.MarkFlagRequired("vector")
	return cmd
}
