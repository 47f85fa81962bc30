package notify

import (
	"fmt"

	"fetcharr/internal/config"

	"go.uber.org/zap"
)

// Action is one post-mirror side effect, run once per successfully
// mirrored item. Failures are reported by the caller and never retried.
type Action interface {
	Name() string
	Run(itemName string) error
}

// Builder turns a configured action spec into a runnable Action.
type Builder func(spec config.Action) (Action, error)

// Registry maps action names to builders. The set is closed by default
// (radarr and sonarr import scans); Register exists so a new action kind is
// one explicit call, not a stringly-typed dispatch buried in the loop.
type Registry struct {
	builders map[string]Builder
	log      *zap.Logger
}

func NewRegistry(cfg *config.Config, log *zap.Logger) *Registry {
	r := &Registry{
		builders: make(map[string]Builder),
		log:      log,
	}

	r.Register("notify_radarr", func(spec config.Action) (Action, error) {
		return newArrNotifier("notify_radarr", cfg.Radarr, "DownloadedMoviesScan", spec.ImportBasePath)
	})
	r.Register("notify_sonarr", func(spec config.Action) (Action, error) {
		return newArrNotifier("notify_sonarr", cfg.Sonarr, "DownloadedEpisodesScan", spec.ImportBasePath)
	})

	return r
}

func (r *Registry) Register(name string, b Builder) {
	r.builders[name] = b
}

func (r *Registry) Build(spec config.Action) (Action, error) {
	b, ok := r.builders[spec.Name]
	if !ok {
		return nil, fmt.Errorf("unknown action %q", spec.Name)
	}

	return b(spec)
}
