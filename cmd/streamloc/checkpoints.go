package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var checkpointsCmd = &cobra.Command{
	Use:   "checkpoints",
	Short: "List stored line-table checkpoints",
	Args:  cobra.NoArgs,
	RunE:  runCheckpoints,
}

var checkpointsClearCmd = &cobra.Command{
	Use:   "clear <file>",
	Short: "Remove the stored checkpoint for a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckpointsClear,
}

func init() {
	checkpointsCmd.AddCommand(checkpointsClearCmd)
}

func runCheckpoints(cmd *cobra.Command, args []string) error {
	locator, err := newLocator()
	if err != nil {
		return err
	}
	defer locator.Close()

	marks, err := locator.Checkpoints(cmd.Context())
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(marks))
	for path := range marks {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		fmt.Printf("%s\t%d bytes indexed\n", path, marks[path])
	}
	return nil
}

func runCheckpointsClear(cmd *cobra.Command, args []string) error {
	locator, err := newLocator()
	if err != nil {
		return err
	}
	defer locator.Close()

	return locator.ClearCheckpoint(cmd.Context(), args[0])
}
