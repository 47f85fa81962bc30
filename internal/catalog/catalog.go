package catalog

import (
	"fmt"

	"fetcharr/internal/model"

	"go.uber.org/zap"
)

// Client is the capability the torrent client must provide: enumerate item
// ids, read per-item fields, and write a label back.
type Client interface {
	List() ([]string, error)
	Name(id string) (string, error)
	Label(id string) (string, error)
	Completed(id string) (bool, error)
	Directory(id string) (string, error)
	Hash(id string) (string, error)
	SetLabel(id, label string) error
}

// Snapshot is the item list for one run. FromCache marks that the list was
// served from disk; label writes are refused for such snapshots because the
// ids may no longer match the live client.
type Snapshot struct {
	Items     []model.Item
	FromCache bool
}

type Catalog struct {
	client    Client
	cachePath string
	useCache  bool
	log       *zap.Logger
}

func New(client Client, cachePath string, useCache bool, log *zap.Logger) *Catalog {
	return &Catalog{
		client:    client,
		cachePath: cachePath,
		useCache:  useCache,
		log:       log,
	}
}

// Take queries the client for the full item list. One round trip per field
// per item, which dominates latency on large lists; the cache exists so an
// operator can trade staleness for speed while iterating on config.
func (c *Catalog) Take() (Snapshot, error) {
	if c.useCache {
		items := c.loadCache()
		if len(items) > 0 {
			c.log.Warn("loaded torrents from cache",
				zap.Int("count", len(items)),
				zap.String("path", c.cachePath))
			return Snapshot{Items: items, FromCache: true}, nil
		}
	}

	ids, err := c.client.List()
	if err != nil {
		return Snapshot{}, err
	}

	c.log.Info("found torrents", zap.Int("count", len(ids)))

	items := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		item, err := c.fetchItem(id)
		if err != nil {
			return Snapshot{}, err
		}

		items = append(items, item)
	}

	if c.useCache {
		if err := c.saveCache(items); err != nil {
			c.log.Warn("failed to save torrent cache",
				zap.String("path", c.cachePath),
				zap.Error(err))
		} else {
			c.log.Info("saved torrents to cache",
				zap.Int("count", len(items)))
		}
	}

	return Snapshot{Items: items}, nil
}

func (c *Catalog) fetchItem(id string) (model.Item, error) {
	item := model.Item{ID: id}

	var err error
	if item.Name, err = c.client.Name(id); err != nil {
		return item, fmt.Errorf("item %s: %w", id, err)
	}
	if item.Label, err = c.client.Label(id); err != nil {
		return item, fmt.Errorf("item %s: %w", id, err)
	}
	if item.Completed, err = c.client.Completed(id); err != nil {
		return item, fmt.Errorf("item %s: %w", id, err)
	}
	if item.Directory, err = c.client.Directory(id); err != nil {
		return item, fmt.Errorf("item %s: %w", id, err)
	}
	if item.Hash, err = c.client.Hash(id); err != nil {
		return item, fmt.Errorf("item %s: %w", id, err)
	}

	return item, nil
}
