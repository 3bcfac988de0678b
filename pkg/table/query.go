package table

import (
	"strings"

	"incidents-dashboard/pkg/models"
)

// Messages des résultats vides, renvoyés comme données et non comme erreurs.
const (
	MsgNoData       = "No data found."
	MsgNoDataForKey = "No data found for this Ticket ID."
)

// Page est une pagination à partir de 1. La valeur zéro désactive le découpage.
type Page struct {
	Number int
	Size   int
}

func (p Page) Enabled() bool {
	return p.Number > 0 && p.Size > 0
}

// bounds renvoie la tranche [from, to) de la page dans une séquence de n éléments.
func (p Page) bounds(n int) (int, int) {
	if !p.Enabled() {
		return 0, n
	}
	// Comparaison par division : (Number-1)*Size peut déborder.
	if n == 0 || p.Number-1 > (n-1)/p.Size {
		return n, n
	}
	from := (p.Number - 1) * p.Size
	to := n
	if p.Size < n-from {
		to = from + p.Size
	}
	return from, to
}

func containsFold(s, search string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(search))
}

// ListDistinct renvoie les valeurs distinctes (ordre de première apparition) de la
// colonne clé (cellules vides ignorées), filtrées par recherche, puis la page demandée et le total filtré.
func ListDistinct(t models.Table, keyCol int, search string, page Page) ([]string, int) {
	search = strings.TrimSpace(search)
	seen := map[string]struct{}{}
	var filtered []string
	for r := range t.Rows {
		v := t.Cell(r, keyCol)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if search == "" || containsFold(v, search) {
			filtered = append(filtered, v)
		}
	}
	from, to := page.bounds(len(filtered))
	return append([]string{}, filtered[from:to]...), len(filtered)
}

// Predicate sélectionne une ligne de données.
type Predicate func(row []string) bool

// KeyEquals compare la colonne clé (valeurs rognées) à l'identifiant donné.
func KeyEquals(col int, id string) Predicate {
	id = strings.TrimSpace(id)
	return func(row []string) bool {
		return col < len(row) && strings.TrimSpace(row[col]) == id
	}
}

// AnyCellContains est vrai si une cellule contient la recherche (sans casse).
// Une recherche vide accepte toutes les lignes.
func AnyCellContains(search string) Predicate {
	search = strings.TrimSpace(search)
	return func(row []string) bool {
		if search == "" {
			return true
		}
		for _, c := range row {
			if containsFold(c, search) {
				return true
			}
		}
		return false
	}
}

func And(preds ...Predicate) Predicate {
	return func(row []string) bool {
		for _, p := range preds {
			if !p(row) {
				return false
			}
		}
		return true
	}
}

// FilterResult : en-tête, lignes retenues (page) et total filtré.
type FilterResult struct {
	Columns []string
	Rows    [][]string
	Total   int
}

// FilterRows applique le prédicat aux lignes de données, complétées à la largeur
// de l'en-tête, puis la pagination.
func FilterRows(t models.Table, pred Predicate, page Page) FilterResult {
	width := len(t.Header)
	var matched [][]string
	for _, row := range t.Rows {
		if width > 0 && len(row) != width {
			row = models.FitRow(row, width)
		}
		if pred == nil || pred(row) {
			matched = append(matched, row)
		}
	}
	from, to := page.bounds(len(matched))
	return FilterResult{
		Columns: append([]string{}, t.Header...),
		Rows:    append([][]string{}, matched[from:to]...),
		Total:   len(matched),
	}
}
