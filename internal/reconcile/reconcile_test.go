package reconcile

import (
	"errors"
	"path/filepath"
	"testing"

	"fetcharr/internal/catalog"
	"fetcharr/internal/config"
	"fetcharr/internal/model"
	"fetcharr/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMirror struct {
	calls []mirrorCall
	fail  map[string]error
}

type mirrorCall struct {
	src, dest, temp string
	overwrite       bool
}

func (m *fakeMirror) Mirror(src, dest, temp string, overwrite bool) error {
	m.calls = append(m.calls, mirrorCall{src: src, dest: dest, temp: temp, overwrite: overwrite})
	if m.fail != nil {
		return m.fail[src]
	}

	return nil
}

type fakeLabels struct {
	set map[string]string
	err error
}

func (l *fakeLabels) SetLabel(id, label string) error {
	if l.err != nil {
		return l.err
	}

	if l.set == nil {
		l.set = make(map[string]string)
	}
	l.set[id] = label
	return nil
}

type fakeRecorder struct {
	results []model.MirrorResult
}

func (r *fakeRecorder) Save(result model.MirrorResult) error {
	r.results = append(r.results, result)
	return nil
}

func testFolders(root string) config.Folders {
	return config.Folders{
		Root:      root,
		Temp:      filepath.Join(root, ".tmp"),
		Completed: config.Completed{Label: "completed", ChangeLabel: true},
		LabelMapping: map[string]config.LabelTarget{
			"movies": {Path: "Movies", Priority: 10},
			"tv":     {Path: "TV", Priority: 5},
		},
	}
}

func newTestReconciler(folders config.Folders, m Mirrorer, rec Recorder, dryRun bool) *Reconciler {
	reg := notify.NewRegistry(&config.Config{}, zap.NewNop())
	return New(folders, m, reg, rec, zap.NewNop(), dryRun, false)
}

func TestRunMirrorsEligibleItems(t *testing.T) {
	root := t.TempDir()
	folders := testFolders(root)

	mirror := &fakeMirror{}
	recorder := &fakeRecorder{}
	labels := &fakeLabels{}
	r := newTestReconciler(folders, mirror, recorder, false)

	snap := catalog.Snapshot{Items: []model.Item{
		{ID: "1", Name: "Movie.2020", Label: "movies", Completed: true, Directory: "/dl/Movie.2020"},
		{ID: "2", Name: "Show.S01E01", Label: "tv", Completed: false, Directory: "/dl"},
		{ID: "3", Name: "Old.Movie", Label: "completed", Completed: true, Directory: "/dl/Old.Movie"},
		{ID: "4", Name: "Stray.iso", Label: "linux", Completed: true, Directory: "/dl/Stray.iso"},
	}}

	sum, err := r.Run(snap, labels)
	require.NoError(t, err)

	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 1, sum.Eligible)
	assert.Equal(t, 1, sum.Mirrored)
	assert.Equal(t, 0, sum.Failed)

	require.Len(t, mirror.calls, 1)
	call := mirror.calls[0]
	assert.Equal(t, "/dl/Movie.2020", call.src)
	assert.Equal(t, filepath.Join(root, "Movies", "Movie.2020"), call.dest)
	assert.Equal(t, filepath.Join(root, ".tmp", "Movies", "Movie.2020"), call.temp)

	assert.Equal(t, map[string]string{"1": "completed"}, labels.set)
	require.Len(t, recorder.results, 1)
	assert.NoError(t, recorder.results[0].Err)
}

func TestSourceDir(t *testing.T) {
	tests := []struct {
		name string
		item model.Item
		want string
	}{
		{
			name: "multi_file",
			item: model.Item{Name: "Movie.2020", Directory: "/dl/Movie.2020"},
			want: "/dl/Movie.2020",
		},
		{
			name: "single_file",
			item: model.Item{Name: "File.mkv", Directory: "/dl"},
			want: "/dl/File.mkv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SourceDir(tt.item))
		})
	}
}

func TestRunMissingRootIsFatal(t *testing.T) {
	folders := testFolders(filepath.Join(t.TempDir(), "does-not-exist"))

	mirror := &fakeMirror{}
	r := newTestReconciler(folders, mirror, nil, false)

	snap := catalog.Snapshot{Items: []model.Item{
		{ID: "1", Name: "Movie.2020", Label: "movies", Completed: true, Directory: "/dl/Movie.2020"},
	}}

	_, err := r.Run(snap, &fakeLabels{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no root directory")
	assert.Empty(t, mirror.calls)
}

func TestRunFailureIsolation(t *testing.T) {
	root := t.TempDir()
	folders := testFolders(root)

	mirror := &fakeMirror{fail: map[string]error{
		"/dl/Bad.Movie": errors.New("remote gone"),
	}}
	recorder := &fakeRecorder{}
	labels := &fakeLabels{}
	r := newTestReconciler(folders, mirror, recorder, false)

	snap := catalog.Snapshot{Items: []model.Item{
		{ID: "1", Name: "Bad.Movie", Label: "movies", Completed: true, Directory: "/dl/Bad.Movie"},
		{ID: "2", Name: "Good.Movie", Label: "movies", Completed: true, Directory: "/dl/Good.Movie"},
	}}

	sum, err := r.Run(snap, labels)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Eligible)
	assert.Equal(t, 1, sum.Mirrored)
	assert.Equal(t, 1, sum.Failed)
	assert.Len(t, mirror.calls, 2)

	// the failed item keeps its label and is recorded as failed
	assert.Equal(t, map[string]string{"2": "completed"}, labels.set)
	require.Len(t, recorder.results, 2)

	byName := make(map[string]model.MirrorResult)
	for _, res := range recorder.results {
		byName[res.Item.Name] = res
	}
	assert.Error(t, byName["Bad.Movie"].Err)
	assert.NoError(t, byName["Good.Movie"].Err)
}

func TestRunCachedSnapshotSkipsLabelWrite(t *testing.T) {
	root := t.TempDir()
	folders := testFolders(root)

	labels := &fakeLabels{}
	r := newTestReconciler(folders, &fakeMirror{}, nil, false)

	snap := catalog.Snapshot{
		FromCache: true,
		Items: []model.Item{
			{ID: "1", Name: "Movie.2020", Label: "movies", Completed: true, Directory: "/dl/Movie.2020"},
		},
	}

	sum, err := r.Run(snap, labels)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Mirrored)
	assert.Empty(t, labels.set)
}

func TestRunChangeLabelDisabled(t *testing.T) {
	root := t.TempDir()
	folders := testFolders(root)
	folders.Completed.ChangeLabel = false

	labels := &fakeLabels{}
	r := newTestReconciler(folders, &fakeMirror{}, nil, false)

	snap := catalog.Snapshot{Items: []model.Item{
		{ID: "1", Name: "Movie.2020", Label: "movies", Completed: true, Directory: "/dl/Movie.2020"},
	}}

	sum, err := r.Run(snap, labels)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Mirrored)
	assert.Empty(t, labels.set)
}

func TestRunDryRun(t *testing.T) {
	root := t.TempDir()
	folders := testFolders(root)

	mirror := &fakeMirror{}
	recorder := &fakeRecorder{}
	labels := &fakeLabels{}
	r := newTestReconciler(folders, mirror, recorder, true)

	snap := catalog.Snapshot{Items: []model.Item{
		{ID: "1", Name: "Movie.2020", Label: "movies", Completed: true, Directory: "/dl/Movie.2020"},
	}}

	sum, err := r.Run(snap, labels)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Eligible)
	assert.Equal(t, 0, sum.Mirrored)
	assert.Empty(t, mirror.calls)
	assert.Empty(t, labels.set)
	assert.Empty(t, recorder.results)
}

func TestSortForDisplay(t *testing.T) {
	mapping := map[string]config.LabelTarget{
		"movies": {Priority: 10},
		"tv":     {Priority: 5},
	}

	items := []model.Item{
		{Name: "b-show", Label: "tv"},
		{Name: "stray", Label: "unmapped"},
		{Name: "a-movie", Label: "movies"},
		{Name: "a-show", Label: "tv"},
	}

	sorted := SortForDisplay(items, mapping)

	names := make([]string, 0, len(sorted))
	for _, it := range sorted {
		names = append(names, it.Name)
	}

	// priority desc, then label, then name; unmapped labels sort last
	assert.Equal(t, []string{"a-movie", "a-show", "b-show", "stray"}, names)

	// input order untouched
	assert.Equal(t, "b-show", items[0].Name)
}
