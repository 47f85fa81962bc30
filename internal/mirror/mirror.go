package mirror

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"fetcharr/internal/perms"
	"fetcharr/internal/remote"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// The remote protocol cannot express symlink loops, but a misbehaving
// server could still answer listings forever.
const maxDepth = 64

// Mirrorer recursively copies a remote tree into a local tree through a
// temp staging tree. One session is dialed per Mirror call and released on
// every exit path.
type Mirrorer struct {
	dial   remote.Dialer
	filter *Filter
	norm   *perms.Normalizer
	rep    Reporter
	log    *zap.Logger
}

func New(dial remote.Dialer, filter *Filter, norm *perms.Normalizer, rep Reporter, log *zap.Logger) *Mirrorer {
	return &Mirrorer{
		dial:   dial,
		filter: filter,
		norm:   norm,
		rep:    rep,
		log:    log,
	}
}

func (m *Mirrorer) Mirror(remoteRoot, localRoot, tempRoot string, overwrite bool) error {
	host, err := m.dial()
	if err != nil {
		return fmt.Errorf("failed to open remote session: %w", err)
	}

	defer func() {
		_ = host.Close()
	}()

	tr := NewTransferrer(host, m.filter, m.norm, m.rep, m.log)
	return m.walk(host, tr, remoteRoot, localRoot, tempRoot, overwrite, 0)
}

func (m *Mirrorer) walk(host remote.Host, tr *Transferrer, remoteDir, localDir, tempDir string, overwrite bool, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("remote tree deeper than %d levels at %s", maxDepth, remoteDir)
	}

	entries, err := host.List(remoteDir)
	if err != nil {
		// A path that cannot be listed is a file, not an error: a torrent
		// whose payload is a single file reports its file path here.
		if errors.Is(err, remote.ErrNotDirectory) {
			name := path.Base(remoteDir)
			_, terr := tr.Transfer(remoteDir,
				filepath.Join(localDir, name),
				filepath.Join(tempDir, name),
				overwrite)
			return terr
		}

		return err
	}

	m.log.Debug("listed remote dir",
		zap.String("dir", remoteDir),
		zap.Int("entries", len(entries)))

	var errs error
	for _, e := range entries {
		remotePath := path.Join(remoteDir, e.Name)
		localPath := filepath.Join(localDir, e.Name)
		tempPath := filepath.Join(tempDir, e.Name)

		if e.Dir {
			if err := ensureDir(localPath); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			if err := ensureDir(tempPath); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}

			errs = multierr.Append(errs, m.walk(host, tr, remotePath, localPath, tempPath, overwrite, depth+1))
			continue
		}

		if _, err := tr.Transfer(remotePath, localPath, tempPath, overwrite); err != nil {
			m.log.Error("transfer failed",
				zap.String("path", remotePath),
				zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", remotePath, err))
		}
	}

	return errs
}

func ensureDir(p string) error {
	if err := os.MkdirAll(p, 0755); err != nil {
		return fmt.Errorf("failed to create dir %s: %w", p, err)
	}

	return nil
}
