package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index <file>",
	Short: "Index a whole file and report its line and byte totals",
	Long: `Read a file to the end, indexing every line start. With checkpoints
enabled the resulting line table is saved, so later locate/offset queries
against the file answer without re-reading it.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	locator, err := newLocator()
	if err != nil {
		return err
	}
	defer locator.Close()

	report, err := locator.Index(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d lines, %d bytes\n", report.Path, report.Lines, report.Bytes)
	return nil
}
