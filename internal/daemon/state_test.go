package daemon

import (
	"errors"
	"testing"

	"fetcharr/internal/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStateLifecycle(t *testing.T) {
	state := NewRunState()

	snap := state.Snapshot()
	assert.False(t, snap.Running)
	assert.Zero(t, snap.Runs)
	assert.Nil(t, snap.LastRun)

	state.Begin()
	assert.True(t, state.Snapshot().Running)

	state.Finish(reconcile.Summary{Total: 5, Mirrored: 3, Failed: 1}, nil)

	snap = state.Snapshot()
	assert.False(t, snap.Running)
	assert.Equal(t, 1, snap.Runs)
	assert.Equal(t, 5, snap.Torrents)
	assert.Equal(t, 3, snap.Mirrored)
	assert.Equal(t, 1, snap.Failed)
	assert.Empty(t, snap.LastError)
	require.NotNil(t, snap.LastRun)
}

func TestRunStateRecordsError(t *testing.T) {
	state := NewRunState()

	state.Begin()
	state.Finish(reconcile.Summary{}, errors.New("no root directory"))
	assert.Equal(t, "no root directory", state.Snapshot().LastError)

	// a clean run clears the previous error
	state.Begin()
	state.Finish(reconcile.Summary{Total: 1, Mirrored: 1}, nil)
	assert.Empty(t, state.Snapshot().LastError)
	assert.Equal(t, 2, state.Snapshot().Runs)
}
