package catalog

import (
	"encoding/json"
	"os"

	"fetcharr/internal/model"

	"go.uber.org/zap"
)

// loadCache returns the cached item list, or nil when the cache is missing
// or unreadable. A broken cache is an empty catalog, never a fatal error.
func (c *Catalog) loadCache() []model.Item {
	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		return nil
	}

	var items []model.Item
	if err := json.Unmarshal(data, &items); err != nil {
		c.log.Warn("ignoring unreadable torrent cache",
			zap.String("path", c.cachePath),
			zap.Error(err))
		return nil
	}

	return items
}

func (c *Catalog) saveCache(items []model.Item) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.cachePath, data, 0644)
}
