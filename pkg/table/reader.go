// Package table lit les onglets du classeur à travers le cache et fournit les requêtes
// de filtrage et de pagination utilisées par les vues.
package table

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"incidents-dashboard/pkg/cache"
	"incidents-dashboard/pkg/datastore"
	"incidents-dashboard/pkg/models"
)

// Settings fournit le classeur et l'onglet configurés.
type Settings interface {
	SheetID() (string, error)
	SheetName() string
}

// Reader charge un onglet entier, depuis le cache quand c'est possible.
type Reader struct {
	Cache    cache.Cache
	Backend  datastore.Backend
	Settings Settings
	TTL      time.Duration
	Logger   *slog.Logger
}

func cacheKey(name string) string {
	return "sheet_" + name
}

// Resolve remplace le nom historique par l'onglet configuré.
func (r *Reader) Resolve(name string) string {
	if name == "" || name == models.DefaultSheetName {
		return r.Settings.SheetName()
	}
	return name
}

func (r *Reader) Read(ctx context.Context, name string) (models.Table, error) {
	name = r.Resolve(name)
	key := cacheKey(name)

	if raw, ok := r.Cache.Get(key); ok {
		var values [][]string
		if err := json.Unmarshal([]byte(raw), &values); err == nil {
			return models.NewTable(values), nil
		}
		r.Cache.Remove(key)
	}

	id, err := r.Settings.SheetID()
	if err != nil {
		return models.Table{}, err
	}
	wb, err := r.Backend.Open(ctx, id)
	if err != nil {
		return models.Table{}, err
	}
	values, err := wb.ReadAll(ctx, name)
	if err != nil {
		return models.Table{}, err
	}

	raw, err := json.Marshal(values)
	if err == nil {
		r.Cache.Put(key, string(raw), r.TTL)
	}
	if r.Logger != nil {
		r.Logger.Debug("sheet loaded", "sheet", name, "rows", len(values))
	}
	return models.NewTable(values), nil
}

// Invalidate retire l'onglet du cache, ainsi que l'entrée historique.
func (r *Reader) Invalidate(name string) {
	name = r.Resolve(name)
	r.Cache.Remove(cacheKey(name))
	r.Cache.Remove(cacheKey(models.DefaultSheetName))
}
