package perms

import (
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"fetcharr/internal/config"

	"go.uber.org/zap"
)

// Normalizer applies the configured mode and group policy to a published
// path tree. Owner is never touched. Every step is best-effort: a node that
// cannot be changed is logged and skipped, never an error for the caller.
type Normalizer struct {
	enabled  bool
	dirMode  os.FileMode
	fileMode os.FileMode
	gid      int
	log      *zap.Logger
}

func New(cfg config.Permissions, log *zap.Logger) *Normalizer {
	n := &Normalizer{
		enabled:  cfg.Change,
		dirMode:  parseMode(cfg.Folders, 0775, log),
		fileMode: parseMode(cfg.Files, 0664, log),
		log:      log,
	}

	n.gid = resolveGroup(cfg.Group, log)
	return n
}

// Apply normalizes path and everything under it. Calling it on a path that
// does not exist is a caller bug; the walk error is logged loudly instead
// of being silently swallowed.
func (n *Normalizer) Apply(path string) {
	if !n.enabled {
		n.log.Debug("skipping permissions", zap.String("path", path))
		return
	}

	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			n.log.Warn("failed to walk for permissions",
				zap.String("path", p),
				zap.Error(err))
			return nil
		}

		mode := n.fileMode
		if d.IsDir() {
			mode = n.dirMode
		}

		if err := os.Chmod(p, mode); err != nil {
			n.log.Warn("failed to chmod",
				zap.String("path", p),
				zap.Error(err))
		}

		if err := os.Chown(p, -1, n.gid); err != nil {
			n.log.Warn("failed to chgrp",
				zap.String("path", p),
				zap.Error(err))
		}

		return nil
	})
	if err != nil {
		n.log.Error("permission walk failed",
			zap.String("path", path),
			zap.Error(err))
	}
}

func parseMode(s string, fallback os.FileMode, log *zap.Logger) os.FileMode {
	if s == "" {
		return fallback
	}

	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		log.Warn("invalid mode in config, using default",
			zap.String("mode", s))
		return fallback
	}

	return os.FileMode(v)
}

// resolveGroup looks the group name up once per run. An unknown group falls
// back to the process group with a warning, matching chgrp-less platforms.
func resolveGroup(name string, log *zap.Logger) int {
	if name == "" {
		return os.Getgid()
	}

	g, err := user.LookupGroup(name)
	if err != nil {
		log.Warn("group not found, using current group",
			zap.String("group", name),
			zap.Error(err))
		return os.Getgid()
	}

	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		log.Warn("non-numeric gid, using current group",
			zap.String("group", name),
			zap.String("gid", g.Gid))
		return os.Getgid()
	}

	return gid
}
