package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newApp()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "milvusctl",
		Short: "Command line client for Milvus collections",
		Long: `milvusctl manages collections, indexes and entities in a Milvus instance.

Connection settings are read, in increasing priority, from the config file
(--config, default ./milvusctl.yaml), MILVUSCTL_* environment variables and flags.

Quick start:
  milvusctl collections create docs --dim 384
  echo '{"id": 1, "vector": [0.1, 0.2], "title": "hello"}' | milvusctl upsert docs
  milvusctl search docs --vector 0.1,0.2 --top-k 5`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	a.bindFlags(rootCmd)

	rootCmd.AddCommand(newCollectionsCmd(a))
	rootCmd.AddCommand(newIndexCmd(a))
	rootCmd.AddCommand(newUpsertCmd(a))
	rootCmd.AddCommand(newDeleteCmd(a))
	rootCmd.AddCommand(newSearchCmd(a))
	return rootCmd
}
