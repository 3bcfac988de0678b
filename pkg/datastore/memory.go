package datastore

import (
	"context"
	"sync"
	"time"

	"incidents-dashboard/pkg/models"
)

// MemoryBackend garde des classeurs en mémoire. Il compte les appels pour les tests.
type MemoryBackend struct {
	mu        sync.Mutex
	workbooks map[string]*MemoryWorkbook
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{workbooks: map[string]*MemoryWorkbook{}}
}

// Add enregistre (ou remplace) un classeur.
func (b *MemoryBackend) Add(id, title string) *MemoryWorkbook {
	b.mu.Lock()
	defer b.mu.Unlock()
	wb := &MemoryWorkbook{
		title:       title,
		tables:      map[string][][]string{},
		validations: map[string]map[int][]string{},
		updated:     time.Now().UTC(),
	}
	b.workbooks[id] = wb
	return wb
}

func (b *MemoryBackend) Open(_ context.Context, id string) (Workbook, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	wb, ok := b.workbooks[id]
	if !ok {
		return nil, models.NotFoundf("Spreadsheet %q not found.", id)
	}
	return wb, nil
}

type MemoryWorkbook struct {
	mu          sync.Mutex
	title       string
	order       []string
	tables      map[string][][]string
	validations map[string]map[int][]string
	updated     time.Time

	Reads   int
	Appends int
	Updates int
	Deletes int
}

// SetTable remplace le contenu d'un onglet (en-tête compris).
func (w *MemoryWorkbook) SetTable(name string, values [][]string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.tables[name]; !ok {
		w.order = append(w.order, name)
	}
	cp := make([][]string, len(values))
	for i, r := range values {
		cp[i] = append([]string(nil), r...)
	}
	w.tables[name] = cp
	w.touch()
}

// SetValidation pose une liste de valeurs autorisées sur une colonne.
func (w *MemoryWorkbook) SetValidation(table string, col int, allowed []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.validations[table] == nil {
		w.validations[table] = map[int][]string{}
	}
	w.validations[table][col] = append([]string(nil), allowed...)
}

// Snapshot renvoie une copie de l'onglet.
func (w *MemoryWorkbook) Snapshot(name string) [][]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]string, len(w.tables[name]))
	for i, r := range w.tables[name] {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func (w *MemoryWorkbook) touch() {
	w.updated = time.Now().UTC()
}

func (w *MemoryWorkbook) Title() string { return w.title }

func (w *MemoryWorkbook) LastUpdated(context.Context) (time.Time, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.updated, nil
}

func (w *MemoryWorkbook) TableNames(context.Context) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.order...), nil
}

func (w *MemoryWorkbook) table(name string) ([][]string, error) {
	t, ok := w.tables[name]
	if !ok {
		return nil, models.NotFoundf("Sheet %q not found.", name)
	}
	return t, nil
}

func (w *MemoryWorkbook) ReadAll(_ context.Context, name string) ([][]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, err := w.table(name)
	if err != nil {
		return nil, err
	}
	w.Reads++
	// Comme une plage de données : toutes les lignes ont la largeur maximale.
	width := 0
	for _, r := range t {
		if len(r) > width {
			width = len(r)
		}
	}
	out := make([][]string, len(t))
	for i, r := range t {
		out[i] = models.FitRow(r, width)
	}
	return out, nil
}

func (w *MemoryWorkbook) ReadCell(_ context.Context, name, a1 string) (string, error) {
	row, col, err := ParseA1(a1)
	if err != nil {
		return "", err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	t, err := w.table(name)
	if err != nil {
		return "", err
	}
	if row < 0 || col < 0 || row >= len(t) || col >= len(t[row]) {
		return "", nil
	}
	return t[row][col], nil
}

func (w *MemoryWorkbook) AppendRow(_ context.Context, name string, row []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, err := w.table(name)
	if err != nil {
		return err
	}
	w.tables[name] = append(t, append([]string(nil), row...))
	w.Appends++
	w.touch()
	return nil
}

func (w *MemoryWorkbook) UpdateCell(_ context.Context, name string, row, col int, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, err := w.table(name)
	if err != nil {
		return err
	}
	if row < 0 || row >= len(t) || col < 0 {
		return models.NotFoundf("Row not found.")
	}
	for len(t[row]) <= col {
		t[row] = append(t[row], "")
	}
	t[row][col] = value
	w.Updates++
	w.touch()
	return nil
}

func (w *MemoryWorkbook) DeleteRow(_ context.Context, name string, row int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, err := w.table(name)
	if err != nil {
		return err
	}
	if row < 0 || row >= len(t) {
		return models.NotFoundf("Row not found.")
	}
	w.tables[name] = append(t[:row], t[row+1:]...)
	w.Deletes++
	w.touch()
	return nil
}

func (w *MemoryWorkbook) ValidationList(_ context.Context, name string, col int) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.table(name); err != nil {
		return nil, err
	}
	return append([]string(nil), w.validations[name][col]...), nil
}
