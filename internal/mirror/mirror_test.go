package mirror

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fetcharr/internal/config"
	"fetcharr/internal/perms"
	"fetcharr/internal/remote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMirrorer(t *testing.T, host *fakeHost, rules config.Rules) *Mirrorer {
	t.Helper()

	filter, err := NewFilter(rules)
	require.NoError(t, err)

	norm := perms.New(config.Permissions{}, zap.NewNop())
	return New(host.dialer(), filter, norm, NopReporter{}, zap.NewNop())
}

func TestMirrorTree(t *testing.T) {
	host := newFakeHost(map[string][]byte{
		"/dl/Show.S01/ep1.mkv":        []byte("episode one"),
		"/dl/Show.S01/ep2.mkv":        []byte("episode two"),
		"/dl/Show.S01/Subs/ep1.srt":   []byte("subtitles"),
		"/dl/Show.S01/Subs/ep2.srt":   []byte("more subtitles"),
		"/dl/Show.S01/Extras/cut.mkv": []byte("deleted scene"),
	})
	m := newTestMirrorer(t, host, config.Rules{})

	dir := t.TempDir()
	local := filepath.Join(dir, "lib", "Show.S01")
	temp := filepath.Join(dir, "tmp", "Show.S01")

	require.NoError(t, m.Mirror("/dl/Show.S01", local, temp, false))

	for _, f := range []string{
		"ep1.mkv", "ep2.mkv",
		filepath.Join("Subs", "ep1.srt"),
		filepath.Join("Subs", "ep2.srt"),
		filepath.Join("Extras", "cut.mkv"),
	} {
		_, err := os.Stat(filepath.Join(local, f))
		assert.NoError(t, err, f)
	}

	assert.True(t, host.closed)
}

func TestMirrorSingleFileTorrent(t *testing.T) {
	host := newFakeHost(map[string][]byte{
		"/dl/Movie.2020.mkv": []byte("the whole movie"),
	})
	m := newTestMirrorer(t, host, config.Rules{})

	dir := t.TempDir()
	local := filepath.Join(dir, "lib", "Movie.2020.mkv")
	temp := filepath.Join(dir, "tmp", "Movie.2020.mkv")

	// listing a file path fails with ErrNotDirectory; the walk falls back to
	// a single transfer into the item directory
	require.NoError(t, m.Mirror("/dl/Movie.2020.mkv", local, temp, false))

	data, err := os.ReadFile(filepath.Join(local, "Movie.2020.mkv"))
	require.NoError(t, err)
	assert.Equal(t, []byte("the whole movie"), data)
}

func TestMirrorContinuesPastFailedFile(t *testing.T) {
	host := newFakeHost(map[string][]byte{
		"/dl/Show.S01/ep1.mkv": []byte("episode one"),
		"/dl/Show.S01/ep2.mkv": []byte("episode two"),
		"/dl/Show.S01/ep3.mkv": []byte("episode three"),
	})
	host.openErr["/dl/Show.S01/ep2.mkv"] = errors.New("permission denied")

	m := newTestMirrorer(t, host, config.Rules{})

	dir := t.TempDir()
	local := filepath.Join(dir, "lib", "Show.S01")
	temp := filepath.Join(dir, "tmp", "Show.S01")

	err := m.Mirror("/dl/Show.S01", local, temp, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ep2.mkv")

	// the siblings still landed
	_, serr := os.Stat(filepath.Join(local, "ep1.mkv"))
	assert.NoError(t, serr)
	_, serr = os.Stat(filepath.Join(local, "ep3.mkv"))
	assert.NoError(t, serr)
	_, serr = os.Stat(filepath.Join(local, "ep2.mkv"))
	assert.True(t, os.IsNotExist(serr))

	assert.True(t, host.closed)
}

func TestMirrorAppliesFilter(t *testing.T) {
	host := newFakeHost(map[string][]byte{
		"/dl/Movie.2020/movie.mkv":  []byte("film bytes"),
		"/dl/Movie.2020/movie.nfo":  []byte("junk"),
		"/dl/Movie.2020/sample.mkv": []byte("x"),
	})
	m := newTestMirrorer(t, host, config.Rules{
		MinFileSize:    2,
		SkipExtensions: []string{".nfo"},
	})

	dir := t.TempDir()
	local := filepath.Join(dir, "lib", "Movie.2020")
	temp := filepath.Join(dir, "tmp", "Movie.2020")

	require.NoError(t, m.Mirror("/dl/Movie.2020", local, temp, false))

	_, err := os.Stat(filepath.Join(local, "movie.mkv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(local, "movie.nfo"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(local, "sample.mkv"))
	assert.True(t, os.IsNotExist(err))
}

func TestMirrorDialFailure(t *testing.T) {
	filter, err := NewFilter(config.Rules{})
	require.NoError(t, err)

	norm := perms.New(config.Permissions{}, zap.NewNop())
	dial := remote.Dialer(func() (remote.Host, error) {
		return nil, errors.New("connection refused")
	})

	m := New(dial, filter, norm, NopReporter{}, zap.NewNop())

	require.Error(t, m.Mirror("/dl/x", t.TempDir(), t.TempDir(), false))
}
