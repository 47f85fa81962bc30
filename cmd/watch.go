package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fetcharr/internal/config"
	"fetcharr/internal/daemon"
	"fetcharr/internal/logger"
	"fetcharr/internal/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchDryRun bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll rtorrent and mirror completed downloads continuously",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	poller := daemon.NewPoller(cfg, func(c *config.Config) (reconcile.Summary, error) {
		return runPass(c, passOptions{dryRun: watchDryRun, minSize: -1, maxSize: -1})
	}, logger.Log)

	confFile, err := config.File()
	if err != nil {
		return err
	}

	cw, err := daemon.WatchConfig(confFile, poller, logger.Log)
	if err != nil {
		logger.Log.Warn("config hot-reload disabled", zap.Error(err))
	} else {
		defer func() {
			_ = cw.Close()
		}()
	}

	srv := daemon.NewServer(poller, cfg.DaemonPort, logger.Log)
	srv.Start()

	logger.Log.Info("fetcharr daemon started",
		zap.Int("port", cfg.DaemonPort),
		zap.Int("recheck_time", cfg.RTorrent.RecheckTime))

	pollErrCh := make(chan error, 1)
	go func() {
		pollErrCh <- poller.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Log.Info("shutting down",
			zap.String("signal", sig.String()))
	case <-srv.StopCh():
		logger.Log.Info("stop requested via API")
	case runErr = <-pollErrCh:
		if runErr != nil {
			logger.Log.Error("poller stopped", zap.Error(runErr))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		return err
	}

	return runErr
}

func init() {
	watchCmd.Flags().BoolVar(&watchDryRun, "dry-run", false, "Log what would happen without mirroring or changing labels")
	rootCmd.AddCommand(watchCmd)
}
