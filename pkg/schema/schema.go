// Package schema déduit les rôles de colonnes à partir de l'en-tête et lit les listes
// déroulantes (domaines) des colonnes contraintes.
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"incidents-dashboard/pkg/cache"
	"incidents-dashboard/pkg/datastore"
	"incidents-dashboard/pkg/models"
)

// matcher décrit comment reconnaître un rôle dans un libellé normalisé.
type matcher struct {
	label     string
	substring bool
}

var matchers = map[models.Role]matcher{
	models.RoleTicketID:        {label: "ticket id"},
	models.RoleCableSystem:     {label: "cable system"},
	models.RoleAffectedSegment: {label: "affected segment", substring: true},
	models.RoleRFO:             {label: "rfo"},
	models.RoleStartDate:       {label: "start date", substring: true},
	models.RoleEndDate:         {label: "end date", substring: true},
}

// Columns associe chaque rôle résolu à son index de colonne.
type Columns struct {
	index map[models.Role]int
}

// ResolveColumns applique les règles de correspondance; la première colonne qui
// correspond gagne.
func ResolveColumns(header []string) Columns {
	cols := Columns{index: make(map[models.Role]int, len(models.Roles))}
	for i, h := range header {
		label := models.NormalizeLabel(h)
		if label == "" {
			continue
		}
		for _, r := range models.Roles {
			if _, done := cols.index[r]; done {
				continue
			}
			m := matchers[r]
			if label == m.label || (m.substring && strings.Contains(label, m.label)) {
				cols.index[r] = i
			}
		}
	}
	return cols
}

// Index renvoie la colonne d'un rôle, ok=false s'il est absent de l'en-tête.
func (c Columns) Index(r models.Role) (int, bool) {
	i, ok := c.index[r]
	return i, ok
}

// Require vérifie la présence des rôles demandés.
func (c Columns) Require(roles ...models.Role) error {
	var missing []models.Role
	for _, r := range roles {
		if _, ok := c.index[r]; !ok {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return &models.MissingColumnsError{Roles: missing}
	}
	return nil
}

// TableReader est la lecture d'onglet consommée par le Resolver.
type TableReader interface {
	Read(ctx context.Context, name string) (models.Table, error)
	Resolve(name string) string
}

// SheetIDSource fournit l'identifiant du classeur configuré.
type SheetIDSource interface {
	SheetID() (string, error)
}

// Resolver lit les domaines des colonnes Cable System et Affected Segment.
type Resolver struct {
	Reader   TableReader
	Backend  datastore.Backend
	Settings SheetIDSource
	Cache    cache.Cache
	TTL      time.Duration
}

func domainsKey(name string) string {
	return "dropdown_options_" + name
}

// Invalidate retire les domaines de l'onglet du cache.
func (r *Resolver) Invalidate(name string) {
	if r.Cache != nil {
		r.Cache.Remove(domainsKey(r.Reader.Resolve(name)))
	}
}

// Domains renvoie les valeurs autorisées, dans l'ordre de la règle de validation.
// Une colonne absente ou sans règle donne une liste vide.
func (r *Resolver) Domains(ctx context.Context, name string) (models.Domains, error) {
	name = r.Reader.Resolve(name)
	key := domainsKey(name)
	if r.Cache != nil {
		if raw, ok := r.Cache.Get(key); ok {
			var d models.Domains
			if err := json.Unmarshal([]byte(raw), &d); err == nil {
				return d, nil
			}
			r.Cache.Remove(key)
		}
	}

	t, err := r.Reader.Read(ctx, name)
	if err != nil {
		return models.Domains{}, err
	}
	id, err := r.Settings.SheetID()
	if err != nil {
		return models.Domains{}, err
	}
	wb, err := r.Backend.Open(ctx, id)
	if err != nil {
		return models.Domains{}, err
	}

	cols := ResolveColumns(t.Header)
	d := models.Domains{CableSystem: []string{}, AffectedSegment: []string{}}
	for _, role := range []models.Role{models.RoleCableSystem, models.RoleAffectedSegment} {
		col, ok := cols.Index(role)
		if !ok {
			continue
		}
		allowed, err := wb.ValidationList(ctx, name, col)
		if err != nil {
			return models.Domains{}, fmt.Errorf("%s dropdown: %w", role, err)
		}
		values := []string{}
		for _, v := range allowed {
			if v != "" {
				values = append(values, v)
			}
		}
		if role == models.RoleCableSystem {
			d.CableSystem = values
		} else {
			d.AffectedSegment = values
		}
	}

	if r.Cache != nil {
		if raw, err := json.Marshal(d); err == nil {
			r.Cache.Put(key, string(raw), r.TTL)
		}
	}
	return d, nil
}
