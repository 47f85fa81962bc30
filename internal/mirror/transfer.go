package mirror

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"fetcharr/internal/perms"
	"fetcharr/internal/remote"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Files stream through in fixed blocks; a whole file is never buffered.
const blockSize = 32 * 1024

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeDownloaded
	OutcomeExists
	OutcomeSkipped
)

// Transferrer downloads one remote file to a temp staging path and
// atomically publishes it to its final path. The destination is only ever
// touched by the final rename, so a crash mid-stream leaves at worst a
// partial temp file behind.
type Transferrer struct {
	host   remote.Host
	filter *Filter
	norm   *perms.Normalizer
	rep    Reporter
	log    *zap.Logger
}

func NewTransferrer(host remote.Host, filter *Filter, norm *perms.Normalizer, rep Reporter, log *zap.Logger) *Transferrer {
	return &Transferrer{
		host:   host,
		filter: filter,
		norm:   norm,
		rep:    rep,
		log:    log,
	}
}

func (t *Transferrer) Transfer(remotePath, localPath, tempPath string, overwrite bool) (Outcome, error) {
	name := path.Base(remotePath)

	if _, err := os.Stat(localPath); err == nil && !overwrite {
		t.norm.Apply(localPath)
		t.log.Info("+ file exists", zap.String("file", abbreviate(name)))
		return OutcomeExists, nil
	}

	size, err := t.host.Size(remotePath)
	if err != nil {
		return OutcomeNone, err
	}

	if reason := t.filter.Admit(remotePath, size); reason != ReasonNone {
		t.log.Warn("- skipped",
			zap.String("file", abbreviate(name)),
			zap.String("reason", reason.String()))
		return OutcomeSkipped, nil
	}

	t.log.Info("+ downloading",
		zap.String("file", abbreviate(name)),
		zap.String("size", humanize.Bytes(uint64(size))))

	if err := os.MkdirAll(filepath.Dir(tempPath), 0755); err != nil {
		return OutcomeNone, fmt.Errorf("failed to create temp dir: %w", err)
	}

	src, err := t.host.Open(remotePath)
	if err != nil {
		return OutcomeNone, err
	}

	serr := t.stream(src, tempPath, name, size)
	cerr := src.Close()
	if serr != nil {
		return OutcomeNone, serr
	}
	if cerr != nil {
		return OutcomeNone, fmt.Errorf("failed to finish download of %s: %w", remotePath, cerr)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return OutcomeNone, fmt.Errorf("failed to create dest dir: %w", err)
	}

	// Publish. Rename is atomic while temp and root share a filesystem,
	// which the config documents as a requirement.
	if err := os.Rename(tempPath, localPath); err != nil {
		return OutcomeNone, fmt.Errorf("failed to publish %s: %w", localPath, err)
	}

	t.log.Debug("moved into place", zap.String("path", localPath))
	t.norm.Apply(localPath)

	return OutcomeDownloaded, nil
}

// stream copies the remote body to tempPath block by block. A short read is
// treated as end-of-stream; the declared size only feeds progress output.
func (t *Transferrer) stream(src io.Reader, tempPath, name string, total int64) error {
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	t.rep.Start(name, total)
	defer t.rep.Finish()

	buf := make([]byte, blockSize)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				_ = f.Close()
				return fmt.Errorf("failed to write temp file: %w", werr)
			}
			t.rep.Add(n)
		}

		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			_ = f.Close()
			return fmt.Errorf("failed to read remote file: %w", rerr)
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	return nil
}
