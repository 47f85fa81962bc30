package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fetcharr/internal/daemon"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(daemonURL("/status"))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var snap daemon.Snapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		uptime := time.Since(snap.StartedAt).Round(time.Second)
		fmt.Printf("uptime: %s, runs: %d\n", uptime, snap.Runs)

		if snap.Running {
			fmt.Println("currently mirroring")
		}

		if snap.LastRun != nil {
			fmt.Printf("last run: %s (%d torrents, %d mirrored, %d failed)\n",
				snap.LastRun.Format("2006-01-02 15:04:05"),
				snap.Torrents, snap.Mirrored, snap.Failed)
		} else {
			fmt.Println("no run finished yet")
		}

		if snap.LastError != "" {
			fmt.Printf("last error: %s\n", snap.LastError)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
