package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"incidents-dashboard/pkg/datastore"
	"incidents-dashboard/pkg/models"
)

// Backend sert les classeurs stockés dans MySQL/MariaDB.
type Backend struct {
	db *sql.DB
}

func NewBackend(db *sql.DB) *Backend {
	return &Backend{db: db}
}

func (b *Backend) Open(ctx context.Context, spreadsheetID string) (datastore.Workbook, error) {
	var title string
	err := b.db.QueryRowContext(ctx, `SELECT title FROM workbooks WHERE id = ?`, spreadsheetID).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundf("Spreadsheet %q not found.", spreadsheetID)
	}
	if err != nil {
		return nil, models.ExternalStore("open workbook", err)
	}
	return &workbook{db: b.db, id: spreadsheetID, title: title}, nil
}

type workbook struct {
	db    *sql.DB
	id    string
	title string
}

func (w *workbook) Title() string { return w.title }

func (w *workbook) LastUpdated(ctx context.Context) (time.Time, error) {
	var t time.Time
	if err := w.db.QueryRowContext(ctx, `SELECT updated_at FROM workbooks WHERE id = ?`, w.id).Scan(&t); err != nil {
		return time.Time{}, models.ExternalStore("last updated", err)
	}
	return t, nil
}

func (w *workbook) TableNames(ctx context.Context) ([]string, error) {
	rows, err := w.db.QueryContext(ctx,
		`SELECT sheet_name FROM sheet_headers WHERE workbook_id = ? ORDER BY position, sheet_name`, w.id)
	if err != nil {
		return nil, models.ExternalStore("list sheets", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (w *workbook) header(ctx context.Context, q queryer, table string) ([]string, error) {
	var raw []byte
	err := q.QueryRowContext(ctx,
		`SELECT cells FROM sheet_headers WHERE workbook_id = ? AND sheet_name = ?`, w.id, table).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundf("Sheet %q not found.", table)
	}
	if err != nil {
		return nil, models.ExternalStore("read header", err)
	}
	return decodeCells(raw)
}

func (w *workbook) ReadAll(ctx context.Context, table string) ([][]string, error) {
	header, err := w.header(ctx, w.db, table)
	if err != nil {
		return nil, err
	}
	rows, err := w.db.QueryContext(ctx,
		`SELECT cells FROM sheet_rows WHERE workbook_id = ? AND sheet_name = ? ORDER BY id`, w.id, table)
	if err != nil {
		return nil, models.ExternalStore("read rows", err)
	}
	defer rows.Close()

	values := [][]string{header}
	width := len(header)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		cells, err := decodeCells(raw)
		if err != nil {
			return nil, err
		}
		if len(cells) > width {
			width = len(cells)
		}
		values = append(values, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range values {
		values[i] = models.FitRow(values[i], width)
	}
	return values, nil
}

func (w *workbook) ReadCell(ctx context.Context, table, a1 string) (string, error) {
	row, col, err := datastore.ParseA1(a1)
	if err != nil {
		return "", models.Invalid(err.Error())
	}
	cells, _, err := w.gridRow(ctx, w.db, table, row)
	if err != nil {
		var nf *models.NotFoundError
		if errors.As(err, &nf) && row > 0 {
			return "", nil
		}
		return "", err
	}
	if col >= len(cells) {
		return "", nil
	}
	return cells[col], nil
}

// gridRow renvoie la ligne de grille demandée (0 = en-tête) et son id (0 pour l'en-tête).
func (w *workbook) gridRow(ctx context.Context, q queryer, table string, row int) ([]string, int64, error) {
	if row == 0 {
		h, err := w.header(ctx, q, table)
		return h, 0, err
	}
	if _, err := w.header(ctx, q, table); err != nil {
		return nil, 0, err
	}
	var (
		id  int64
		raw []byte
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, cells FROM sheet_rows WHERE workbook_id = ? AND sheet_name = ? ORDER BY id LIMIT 1 OFFSET ?`,
		w.id, table, row-1).Scan(&id, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, models.NotFoundf("Row not found.")
	}
	if err != nil {
		return nil, 0, models.ExternalStore("read row", err)
	}
	cells, err := decodeCells(raw)
	return cells, id, err
}

func (w *workbook) AppendRow(ctx context.Context, table string, row []string) error {
	if _, err := w.header(ctx, w.db, table); err != nil {
		return err
	}
	cells, err := encodeCells(row)
	if err != nil {
		return err
	}
	if _, err := w.db.ExecContext(ctx,
		`INSERT INTO sheet_rows (workbook_id, sheet_name, cells) VALUES (?, ?, ?)`, w.id, table, cells); err != nil {
		return models.ExternalStore("append row", err)
	}
	return w.touch(ctx, w.db)
}

func (w *workbook) UpdateCell(ctx context.Context, table string, row, col int, value string) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ExternalStore("update cell", err)
	}
	defer tx.Rollback()

	cells, id, err := w.gridRow(ctx, tx, table, row)
	if err != nil {
		return err
	}
	for len(cells) <= col {
		cells = append(cells, "")
	}
	cells[col] = value
	raw, err := encodeCells(cells)
	if err != nil {
		return err
	}
	if row == 0 {
		_, err = tx.ExecContext(ctx,
			`UPDATE sheet_headers SET cells = ? WHERE workbook_id = ? AND sheet_name = ?`, raw, w.id, table)
	} else {
		_, err = tx.ExecContext(ctx, `UPDATE sheet_rows SET cells = ? WHERE id = ?`, raw, id)
	}
	if err != nil {
		return models.ExternalStore("update cell", err)
	}
	if err := w.touch(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (w *workbook) DeleteRow(ctx context.Context, table string, row int) error {
	if row == 0 {
		return models.Invalid("the header row cannot be deleted")
	}
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ExternalStore("delete row", err)
	}
	defer tx.Rollback()

	_, id, err := w.gridRow(ctx, tx, table, row)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sheet_rows WHERE id = ?`, id); err != nil {
		return models.ExternalStore("delete row", err)
	}
	if err := w.touch(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (w *workbook) ValidationList(ctx context.Context, table string, col int) ([]string, error) {
	var raw []byte
	err := w.db.QueryRowContext(ctx,
		`SELECT allowed FROM column_validations WHERE workbook_id = ? AND sheet_name = ? AND col_index = ?`,
		w.id, table, col).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, models.ExternalStore("read validation", err)
	}
	allowed, err := decodeCells(raw)
	if err != nil {
		return nil, err
	}
	out := allowed[:0]
	for _, v := range allowed {
		if v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

func (w *workbook) touch(ctx context.Context, q queryer) error {
	if _, err := q.ExecContext(ctx, `UPDATE workbooks SET updated_at = ? WHERE id = ?`, time.Now().UTC(), w.id); err != nil {
		return fmt.Errorf("touch workbook: %w", err)
	}
	return nil
}

// queryer couvre *sql.DB et *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
