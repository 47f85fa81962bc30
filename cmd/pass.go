package cmd

import (
	"os"

	"fetcharr/internal/catalog"
	"fetcharr/internal/config"
	"fetcharr/internal/logger"
	"fetcharr/internal/mirror"
	"fetcharr/internal/notify"
	"fetcharr/internal/perms"
	"fetcharr/internal/reconcile"
	"fetcharr/internal/remote"
	"fetcharr/internal/repository"
	"fetcharr/internal/rtorrent"

	"go.uber.org/zap"
)

type passOptions struct {
	dryRun    bool
	overwrite bool
	minSize   int64 // -1 = use config
	maxSize   int64 // -1 = use config
}

// runPass executes one full reconciliation pass: snapshot the catalog,
// mirror every eligible item, update labels, fire actions. Components are
// rebuilt per pass so a config reload between polls takes effect cleanly.
func runPass(cfg *config.Config, opts passOptions) (reconcile.Summary, error) {
	rules := cfg.Rules
	if opts.minSize >= 0 {
		rules.MinFileSize = opts.minSize
	}
	if opts.maxSize >= 0 {
		rules.MaxFileSize = opts.maxSize
	}

	filter, err := mirror.NewFilter(rules)
	if err != nil {
		return reconcile.Summary{}, err
	}

	logger.Log.Info("connecting to rtorrent",
		zap.String("url", rtorrent.URL(cfg.RTorrent)))

	client, err := rtorrent.New(cfg.RTorrent)
	if err != nil {
		return reconcile.Summary{}, err
	}

	defer func() {
		_ = client.Close()
	}()

	cat := catalog.New(client, cfg.CachePath, cfg.RTorrent.AllowCache, logger.Log)

	snap, err := cat.Take()
	if err != nil {
		// The next poll retries from scratch; an unreachable client this
		// round just means an empty catalog.
		logger.Log.Error("failed to query rtorrent", zap.Error(err))
		snap = catalog.Snapshot{}
	}

	norm := perms.New(cfg.Folders.Permissions, logger.Log)
	m := mirror.New(
		remote.FTPDialer(cfg.FTP),
		filter,
		norm,
		mirror.NewConsoleReporter(os.Stdout),
		logger.Log,
	)

	rec := reconcile.New(
		cfg.Folders,
		m,
		notify.NewRegistry(cfg, logger.Log),
		repository.NewHistoryRepository(),
		logger.Log,
		opts.dryRun,
		opts.overwrite,
	)

	return rec.Run(snap, client)
}
