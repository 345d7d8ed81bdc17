// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the litsweep CLI. Each pipeline
// stage is a subcommand that reads and writes JSON artifacts, so stages can
// be run one at a time and inspected in between.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/litsweep/internal/config"
	"github.com/pdiddy/litsweep/internal/secrets"
	"github.com/pdiddy/litsweep/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg is loaded once in PersistentPreRunE and read by every subcommand.
var cfg *types.Config

// rootCmd is the base command for the litsweep CLI.
var rootCmd = &cobra.Command{
	Use:   "litsweep",
	Short: "Search, deduplicate, rank, and expand academic paper collections",
	Long: `litsweep gathers paper metadata from OpenAlex, Semantic Scholar, and arXiv,
removes duplicates across sources, ranks papers against a research question,
and grows the collection through citations.

Stages exchange JSON files: search writes records grouped by source, dedupe
merges them into one list, and rank, expand, stats, and network read either
shape. Sessions keep each stage's output under the artifacts directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			loaded.Log.Level = lvl
		}
		if err := config.InitLogger(loaded.Log); err != nil {
			return err
		}

		s, err := secrets.LoadWithEnv(secrets.DefaultDir)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			zap.L().Debug("loaded secrets", zap.Strings("keys", keys))
		}
		config.ApplySecrets(loaded, s)

		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./litsweep.yaml or ~/.config/litsweep/litsweep.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override: debug, info, warn, error")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = zap.L().Sync()
	if err != nil {
		os.Exit(1)
	}
}

// outputWriter returns stdout for an empty path, else a created file.
func outputWriter(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "creating %s", path)
	}
	return f, f.Close, nil
}

// requireFlags marks flags required. It fails only on a misspelled flag
// name, so the error is fatal at startup.
func requireFlags(cmd *cobra.Command, names ...string) {
	for _, n := range names {
		cobra.CheckErr(cmd.MarkFlagRequired(n))
	}
}

// sourcesFlag parses a --sources value, falling back to def.
func sourcesFlag(cmd *cobra.Command, def []types.Source) ([]types.Source, error) {
	names, _ := cmd.Flags().GetStringSlice("sources")
	if len(names) == 0 {
		return def, nil
	}
	out := make([]types.Source, 0, len(names))
	for _, n := range names {
		s := types.Source(n)
		if !s.Valid() {
			return nil, eris.Errorf("unknown source %q", n)
		}
		out = append(out, s)
	}
	return out, nil
}
