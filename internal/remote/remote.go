package remote

import (
	"errors"
	"io"
)

// ErrNotDirectory is returned by List when the path names a file. The tree
// mirror relies on it to fall back to a single-file transfer.
var ErrNotDirectory = errors.New("not a directory")

type Entry struct {
	Name string
	Size int64
	Dir  bool
}

// Host is one authenticated session against the remote file server. A Host
// is not safe for concurrent use; the mirror holds one per tree walk.
type Host interface {
	List(path string) ([]Entry, error)
	Size(path string) (int64, error)
	Open(path string) (io.ReadCloser, error)
	Close() error
}

// Dialer opens a fresh session. Released by the caller via Host.Close.
type Dialer func() (Host, error)
