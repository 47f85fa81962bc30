package remote

import (
	"fmt"
	"io"
	"time"

	"fetcharr/internal/config"

	"github.com/jlaffaye/ftp"
)

type ftpHost struct {
	conn *ftp.ServerConn
}

// DialFTP logs into the seedbox FTP server described by cfg.
func DialFTP(cfg config.FTP) (Host, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	if err := conn.Login(cfg.User, cfg.Pass); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("failed to login as %s: %w", cfg.User, err)
	}

	return &ftpHost{conn: conn}, nil
}

// FTPDialer wraps DialFTP so the mirror can open one session per tree walk.
func FTPDialer(cfg config.FTP) Dialer {
	return func() (Host, error) {
		return DialFTP(cfg)
	}
}

func (h *ftpHost) List(p string) ([]Entry, error) {
	// CWD into a file path fails with a permanent error on every server,
	// which is the only reliable way over plain FTP to tell the two apart.
	if err := h.conn.ChangeDir(p); err != nil {
		return nil, fmt.Errorf("%s: %w", p, ErrNotDirectory)
	}

	raw, err := h.conn.List(p)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", p, err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		if e.Name == "." || e.Name == ".." {
			continue
		}

		entries = append(entries, Entry{
			Name: e.Name,
			Size: int64(e.Size),
			Dir:  e.Type == ftp.EntryTypeFolder,
		})
	}

	return entries, nil
}

func (h *ftpHost) Size(p string) (int64, error) {
	size, err := h.conn.FileSize(p)
	if err != nil {
		return 0, fmt.Errorf("failed to get size of %s: %w", p, err)
	}

	return size, nil
}

func (h *ftpHost) Open(p string) (io.ReadCloser, error) {
	resp, err := h.conn.Retr(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p, err)
	}

	return resp, nil
}

func (h *ftpHost) Close() error {
	return h.conn.Quit()
}
