package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var locateZeroBased bool

var locateCmd = &cobra.Command{
	Use:   "locate <file> <offset>",
	Short: "Convert a byte offset to a line:column position",
	Long:  "Convert an absolute byte offset in a file to a line:column position, reading only as much of the file as needed",
	Args:  cobra.ExactArgs(2),
	RunE:  runLocate,
}

func init() {
	locateCmd.Flags().BoolVar(&locateZeroBased, "zero-based", false, "Print zero-based line and column numbers")
}

func runLocate(cmd *cobra.Command, args []string) error {
	path := args[0]
	offset, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid offset %q: %w", args[1], err)
	}
	if offset < 0 {
		return fmt.Errorf("invalid offset %d: must be non-negative", offset)
	}

	locator, err := newLocator()
	if err != nil {
		return err
	}
	defer locator.Close()

	loc, err := locator.LineColOf(cmd.Context(), path, offset)
	if err != nil {
		return err
	}

	line, col := loc.Raw()
	if !locateZeroBased {
		line, col = loc.OneBased()
	}
	fmt.Printf("%s:%d:%d\n", path, line, col)
	return nil
}
