// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ugc/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect or prune the service's converted downloads",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List downloadable files as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCatalog()
		if err != nil {
			return err
		}
		defer store.Close()
		return store.ExportYAML(cmd.Context(), cmd.OutOrStdout())
	},
}

var catalogPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete downloads older than --older-than",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		age, _ := cmd.Flags().GetDuration("older-than")
		if age <= 0 {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			age = cfg.Server.Retention
		}
		if age <= 0 {
			return fmt.Errorf("no retention configured: pass --older-than")
		}

		store, err := openCatalog()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Prune(cmd.Context(), time.Now().Add(-age))
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Removed %d download(s) older than %s", n, age)
		return nil
	},
}

func openCatalog() (*catalog.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return catalog.NewStore(cfg.Server.CatalogPath)
}

func init() {
	catalogPruneCmd.Flags().Duration("older-than", 0, "age cutoff (default: server.retention)")

	catalogCmd.AddCommand(catalogListCmd, catalogPruneCmd)
	rootCmd.AddCommand(catalogCmd)
}
