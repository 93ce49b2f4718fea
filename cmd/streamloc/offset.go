package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/streamloc/streamloc"
)

var offsetZeroBased bool

var offsetCmd = &cobra.Command{
	Use:   "offset <file> <line>:<column>",
	Short: "Convert a line:column position to a byte offset",
	Long: `Convert a line:column position in a file to an absolute byte offset.
The position is one-based unless --zero-based is given. The column is not
checked against the line's length; it is added to the line's start offset.`,
	Args: cobra.ExactArgs(2),
	RunE: runOffset,
}

func init() {
	offsetCmd.Flags().BoolVar(&offsetZeroBased, "zero-based", false, "Interpret the position as zero-based")
}

func runOffset(cmd *cobra.Command, args []string) error {
	path := args[0]
	loc, err := parsePosition(args[1], offsetZeroBased)
	if err != nil {
		return err
	}

	locator, err := newLocator()
	if err != nil {
		return err
	}
	defer locator.Close()

	off, err := locator.OffsetOf(cmd.Context(), path, loc)
	if err != nil {
		return err
	}

	fmt.Printf("%d\n", off)
	return nil
}

// parsePosition parses "line:column" ("column" defaults to the first one)
// into a zero-based Location.
func parsePosition(s string, zeroBased bool) (streamloc.Location, error) {
	lineStr, colStr, hasCol := strings.Cut(s, ":")

	line, err := strconv.ParseInt(lineStr, 10, 64)
	if err != nil {
		return streamloc.Location{}, fmt.Errorf("invalid position %q: %w", s, err)
	}

	var col int64
	if hasCol {
		col, err = strconv.ParseInt(colStr, 10, 64)
		if err != nil {
			return streamloc.Location{}, fmt.Errorf("invalid position %q: %w", s, err)
		}
	} else if !zeroBased {
		col = 1
	}

	if !zeroBased {
		line--
		col--
	}
	if line < 0 || col < 0 {
		return streamloc.Location{}, fmt.Errorf("invalid position %q: line and column must be positive", s)
	}

	return streamloc.NewLocation(line, col), nil
}
