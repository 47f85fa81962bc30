package cmd

import (
	"fmt"

	"fetcharr/internal/logger"

	"github.com/spf13/cobra"
)

var (
	runDryRun    bool
	runOverwrite bool
	runMinSize   int64
	runMaxSize   int64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Mirror completed downloads once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		sum, err := runPass(cfg, passOptions{
			dryRun:    runDryRun,
			overwrite: runOverwrite,
			minSize:   runMinSize,
			maxSize:   runMaxSize,
		})
		if err != nil {
			return err
		}

		fmt.Printf("done: %d torrents, %d mirrored, %d failed\n",
			sum.Total, sum.Mirrored, sum.Failed)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Log what would happen without mirroring or changing labels")
	runCmd.Flags().BoolVar(&runOverwrite, "overwrite", false, "Re-download files that already exist locally")
	runCmd.Flags().Int64Var(&runMinSize, "min-size", -1, "Override rules.min_file_size in bytes for this run")
	runCmd.Flags().Int64Var(&runMaxSize, "max-size", -1, "Override rules.max_file_size in bytes for this run")
	rootCmd.AddCommand(runCmd)
}
