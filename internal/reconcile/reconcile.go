package reconcile

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fetcharr/internal/catalog"
	"fetcharr/internal/config"
	"fetcharr/internal/model"
	"fetcharr/internal/notify"

	"go.uber.org/zap"
)

type Mirrorer interface {
	Mirror(remoteRoot, localRoot, tempRoot string, overwrite bool) error
}

// LabelSetter pushes the completed label back to the live client. May be
// nil when there is nothing to write to (dry runs, cached catalogs).
type LabelSetter interface {
	SetLabel(id, label string) error
}

type Recorder interface {
	Save(result model.MirrorResult) error
}

type Summary struct {
	Total    int
	Eligible int
	Mirrored int
	Failed   int
}

// Reconciler drives one run: map each eligible item to its destination,
// mirror it, push the label update, and fire the configured actions. One
// item's failure never stops the run; only a missing root directory does.
type Reconciler struct {
	folders   config.Folders
	mirror    Mirrorer
	actions   *notify.Registry
	recorder  Recorder
	log       *zap.Logger
	dryRun    bool
	overwrite bool
}

func New(folders config.Folders, mirror Mirrorer, actions *notify.Registry, recorder Recorder, log *zap.Logger, dryRun, overwrite bool) *Reconciler {
	return &Reconciler{
		folders:   folders,
		mirror:    mirror,
		actions:   actions,
		recorder:  recorder,
		log:       log,
		dryRun:    dryRun,
		overwrite: overwrite,
	}
}

func (r *Reconciler) Run(snap catalog.Snapshot, labels LabelSetter) (Summary, error) {
	items := SortForDisplay(snap.Items, r.folders.LabelMapping)

	for _, item := range items {
		if item.Completed {
			r.log.Info("torrent",
				zap.String("label", item.Label),
				zap.String("name", item.Name))
		} else {
			r.log.Warn("torrent incomplete",
				zap.String("label", item.Label),
				zap.String("name", item.Name))
		}
	}

	sum := Summary{Total: len(items)}

	for _, item := range items {
		target, ok := r.eligible(item)
		if !ok {
			continue
		}
		sum.Eligible++

		if _, err := os.Stat(r.folders.Root); err != nil {
			return sum, fmt.Errorf("no root directory %s: %w", r.folders.Root, err)
		}

		dest := filepath.Join(r.folders.Root, target.Path, item.Name)
		tempDest := filepath.Join(r.folders.Temp, target.Path, item.Name)
		src := SourceDir(item)

		r.log.Info("=> mirroring",
			zap.String("name", item.Name),
			zap.String("label", item.Label))
		r.log.Debug("paths",
			zap.String("src", src),
			zap.String("dest", dest))

		if r.dryRun {
			r.log.Info("dry run: would mirror",
				zap.String("src", src),
				zap.String("dest", dest))
			continue
		}

		if err := r.mirror.Mirror(src, dest, tempDest, r.overwrite); err != nil {
			r.log.Error("mirror failed",
				zap.String("name", item.Name),
				zap.Error(err))
			r.record(item, src, dest, err)
			sum.Failed++
			continue
		}
		sum.Mirrored++

		r.updateLabel(item, snap.FromCache, labels)
		r.runActions(item, target)
		r.record(item, src, dest, nil)
	}

	return sum, nil
}

// eligible reports whether the item should be mirrored this run: completed,
// not yet marked done, and routed by the label mapping.
func (r *Reconciler) eligible(item model.Item) (config.LabelTarget, bool) {
	if item.Label == r.folders.Completed.Label {
		return config.LabelTarget{}, false
	}

	target, ok := r.folders.LabelMapping[item.Label]
	if !ok {
		return config.LabelTarget{}, false
	}

	if !item.Completed {
		return config.LabelTarget{}, false
	}

	return target, true
}

// SourceDir resolves where the item's payload lives on the remote side.
// rTorrent reports the containing directory for single-file torrents and
// the payload directory itself for multi-file ones; the substring test is
// how the original tells them apart and is preserved verbatim.
func SourceDir(item model.Item) string {
	if strings.Contains(item.Directory, item.Name) {
		return item.Directory
	}

	return item.Directory + "/" + item.Name
}

// SortForDisplay orders items for human-readable output only: descending
// label priority, then label, then name. Processing does not depend on it.
func SortForDisplay(items []model.Item, mapping map[string]config.LabelTarget) []model.Item {
	out := make([]model.Item, len(items))
	copy(out, items)

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := priority(mapping, out[i].Label), priority(mapping, out[j].Label)
		if pi != pj {
			return pi > pj
		}
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Name < out[j].Name
	})

	return out
}

func priority(mapping map[string]config.LabelTarget, label string) int {
	if target, ok := mapping[label]; ok {
		return target.Priority
	}

	return math.MinInt
}

func (r *Reconciler) updateLabel(item model.Item, fromCache bool, labels LabelSetter) {
	if !r.folders.Completed.ChangeLabel {
		r.log.Warn("= skipping label change",
			zap.String("name", item.Name))
		return
	}

	if fromCache || labels == nil {
		// Cached ids are not trusted for writes; the live client is the
		// source of truth for label identity.
		r.log.Error("= cannot set label when catalog was served from cache",
			zap.String("name", item.Name))
		return
	}

	if err := labels.SetLabel(item.ID, r.folders.Completed.Label); err != nil {
		r.log.Error("= failed to set label",
			zap.String("name", item.Name),
			zap.Error(err))
		return
	}

	r.log.Info("= label set",
		zap.String("name", item.Name),
		zap.String("label", r.folders.Completed.Label))
}

func (r *Reconciler) runActions(item model.Item, target config.LabelTarget) {
	for _, spec := range target.Actions {
		action, err := r.actions.Build(spec)
		if err != nil {
			r.log.Error("= invalid action",
				zap.String("action", spec.Name),
				zap.Error(err))
			continue
		}

		r.log.Info("= executing action",
			zap.String("action", action.Name()),
			zap.String("name", item.Name))

		if err := action.Run(item.Name); err != nil {
			r.log.Error("= action failed",
				zap.String("action", action.Name()),
				zap.Error(err))
		}
	}
}

func (r *Reconciler) record(item model.Item, src, dst string, mirrorErr error) {
	if r.recorder == nil {
		return
	}

	result := model.MirrorResult{
		Item:    item,
		SrcPath: src,
		DstPath: dst,
		Err:     mirrorErr,
	}

	if err := r.recorder.Save(result); err != nil {
		r.log.Warn("failed to save history", zap.Error(err))
	}
}
