// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pdiddy/litsweep/internal/artifact"
	"github.com/pdiddy/litsweep/internal/search"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export papers as CSL-YAML, a table, or JSON",
	Long: `Export writes a collection in a format for other tools. csl produces
CSL-YAML for Pandoc and reference managers, table prints a readable summary,
and json writes the records as a flat list.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringP("input", "i", "", "papers JSON (flat list or grouped by source)")
	exportCmd.Flags().String("format", "table", "output format: csl, table, or json")
	exportCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	requireFlags(exportCmd, "input")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")

	c, err := artifact.Read(input)
	if err != nil {
		return err
	}
	records := c.All()

	w, closeFn, err := outputWriter(output)
	if err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case "csl":
		err = search.FormatCSL(records, w)
	case "table":
		search.FormatTable(records, w)
	case "json":
		err = search.FormatJSON(records, w)
	default:
		err = eris.Errorf("unknown format %q (use csl, table, or json)", format)
	}
	if cerr := closeFn(); err == nil {
		err = cerr
	}
	return err
}
