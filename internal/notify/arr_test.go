package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"fetcharr/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestArrNotifierRun(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")

		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	action, err := newArrNotifier("notify_radarr",
		config.Arr{BaseURL: srv.URL, APIKey: "secret"},
		"DownloadedMoviesScan", "/data/Movies")
	require.NoError(t, err)

	require.NoError(t, action.Run("Movie.2020"))

	assert.Equal(t, "/api/v3/command", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, map[string]string{
		"name": "DownloadedMoviesScan",
		"path": "/data/Movies/Movie.2020/",
	}, gotBody)
}

func TestArrNotifierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	action, err := newArrNotifier("notify_radarr",
		config.Arr{BaseURL: srv.URL, APIKey: "wrong"},
		"DownloadedMoviesScan", "/data/Movies")
	require.NoError(t, err)

	err = action.Run("Movie.2020")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestArrNotifierRequiresConfig(t *testing.T) {
	_, err := newArrNotifier("notify_radarr", config.Arr{}, "DownloadedMoviesScan", "/data")
	require.Error(t, err)

	_, err = newArrNotifier("notify_radarr", config.Arr{BaseURL: "http://x"}, "DownloadedMoviesScan", "/data")
	require.Error(t, err)
}

func TestRegistryBuild(t *testing.T) {
	cfg := &config.Config{
		Radarr: config.Arr{BaseURL: "http://radarr:7878", APIKey: "k"},
	}
	reg := NewRegistry(cfg, zap.NewNop())

	action, err := reg.Build(config.Action{Name: "notify_radarr", ImportBasePath: "/data/Movies"})
	require.NoError(t, err)
	assert.Equal(t, "notify_radarr", action.Name())

	// sonarr is registered but unconfigured
	_, err = reg.Build(config.Action{Name: "notify_sonarr"})
	require.Error(t, err)

	_, err = reg.Build(config.Action{Name: "delete_remote"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")
}
