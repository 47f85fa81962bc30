package mirror

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"fetcharr/internal/remote"
)

// fakeHost serves an in-memory remote tree. Directories are implied by the
// file paths; listing a file path returns ErrNotDirectory like the real
// FTP host does.
type fakeHost struct {
	files     map[string][]byte
	openErr   map[string]error
	readErr   map[string]error
	sizeCalls []string
	openCalls []string
	closed    bool
}

func newFakeHost(files map[string][]byte) *fakeHost {
	return &fakeHost{
		files:   files,
		openErr: make(map[string]error),
		readErr: make(map[string]error),
	}
}

func (h *fakeHost) List(p string) ([]remote.Entry, error) {
	if _, ok := h.files[p]; ok {
		return nil, fmt.Errorf("%s: %w", p, remote.ErrNotDirectory)
	}

	prefix := p + "/"
	seen := make(map[string]remote.Entry)
	for f, data := range h.files {
		if len(f) <= len(prefix) || f[:len(prefix)] != prefix {
			continue
		}

		rest := f[len(prefix):]
		if i := indexSlash(rest); i >= 0 {
			name := rest[:i]
			seen[name] = remote.Entry{Name: name, Dir: true}
		} else {
			seen[rest] = remote.Entry{Name: rest, Size: int64(len(data))}
		}
	}

	if len(seen) == 0 {
		return nil, errors.New("no such directory: " + p)
	}

	entries := make([]remote.Entry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return entries, nil
}

func (h *fakeHost) Size(p string) (int64, error) {
	h.sizeCalls = append(h.sizeCalls, p)

	data, ok := h.files[p]
	if !ok {
		return 0, errors.New("no such file: " + p)
	}

	return int64(len(data)), nil
}

func (h *fakeHost) Open(p string) (io.ReadCloser, error) {
	h.openCalls = append(h.openCalls, p)

	if err := h.openErr[p]; err != nil {
		return nil, err
	}

	data, ok := h.files[p]
	if !ok {
		return nil, errors.New("no such file: " + p)
	}

	if err := h.readErr[p]; err != nil {
		return io.NopCloser(&failingReader{data: data, err: err}), nil
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (h *fakeHost) Close() error {
	h.closed = true
	return nil
}

func (h *fakeHost) dialer() remote.Dialer {
	return func() (remote.Host, error) {
		return h, nil
	}
}

// failingReader yields half the data, then the injected error.
type failingReader struct {
	data []byte
	err  error
	off  int
}

func (r *failingReader) Read(p []byte) (int, error) {
	half := len(r.data) / 2
	if r.off >= half {
		return 0, r.err
	}

	n := copy(p, r.data[r.off:half])
	r.off += n
	return n, nil
}

func indexSlash(s string) int {
	for i := range s {
		if s[i] == '/' {
			return i
		}
	}

	return -1
}
