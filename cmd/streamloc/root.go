package main

import (
	"github.com/spf13/cobra"

	"github.com/streamloc/streamloc/internal/config"
	"github.com/streamloc/streamloc/internal/service"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "streamloc",
	Short: "Convert between byte offsets and line:column positions in files",
	Long: `streamloc converts between absolute byte offsets and line:column positions
without reading more of the file than the query needs. Line tables can be
checkpointed (STREAMLOC_CHECKPOINT=true) so repeated queries against large
files skip the already-indexed prefix.

Columns are byte counts within the line, not character counts. Positions are
printed one-based unless --zero-based is given.`,

	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(offsetCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(checkpointsCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute(c *config.Config) error {
	cfg = c
	return rootCmd.Execute()
}

// newLocator creates the service for one command invocation. The caller must
// Close it.
func newLocator() (*service.Locator, error) {
	return service.New(cfg)
}
