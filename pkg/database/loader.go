package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open DSN mariadb:// ou mysql:// → format MySQL driver
func Open(dsn string) (*sql.DB, string, error) {
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, "", err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, mysqlDSN, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("dsn incomplet (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

// Schéma : un classeur = une ligne de workbooks, un onglet = un en-tête + des lignes
// ordonnées par id croissant (l'ordre d'insertion tient lieu de numéro de ligne).
var schema = []string{
	`CREATE TABLE IF NOT EXISTS workbooks (
		id         VARCHAR(128) NOT NULL PRIMARY KEY,
		title      VARCHAR(255) NOT NULL,
		updated_at DATETIME(3)  NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sheet_headers (
		workbook_id VARCHAR(128) NOT NULL,
		sheet_name  VARCHAR(255) NOT NULL,
		position    INT          NOT NULL,
		cells       JSON         NOT NULL,
		PRIMARY KEY (workbook_id, sheet_name)
	)`,
	`CREATE TABLE IF NOT EXISTS sheet_rows (
		id          BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
		workbook_id VARCHAR(128) NOT NULL,
		sheet_name  VARCHAR(255) NOT NULL,
		cells       JSON         NOT NULL,
		INDEX idx_sheet_rows (workbook_id, sheet_name, id)
	)`,
	`CREATE TABLE IF NOT EXISTS column_validations (
		workbook_id VARCHAR(128) NOT NULL,
		sheet_name  VARCHAR(255) NOT NULL,
		col_index   INT          NOT NULL,
		allowed     JSON         NOT NULL,
		PRIMARY KEY (workbook_id, sheet_name, col_index)
	)`,
}

// Migrate crée les tables si besoin.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// ImportTable remplace le contenu d'un onglet (ligne 0 = en-tête). onRow est appelé
// après chaque ligne insérée, pour suivre la progression.
func ImportTable(ctx context.Context, db *sql.DB, workbookID, title, sheet string, values [][]string, onRow func()) error {
	if len(values) == 0 {
		return fmt.Errorf("table vide")
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO workbooks (id, title, updated_at) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE title = VALUES(title), updated_at = VALUES(updated_at)`,
		workbookID, title, now); err != nil {
		return fmt.Errorf("upsert workbook: %w", err)
	}

	var position int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sheet_headers WHERE workbook_id = ? AND sheet_name <> ?`,
		workbookID, sheet).Scan(&position); err != nil {
		return err
	}
	header, err := encodeCells(values[0])
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sheet_headers (workbook_id, sheet_name, position, cells) VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE cells = VALUES(cells)`,
		workbookID, sheet, position, header); err != nil {
		return fmt.Errorf("upsert header: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sheet_rows WHERE workbook_id = ? AND sheet_name = ?`, workbookID, sheet); err != nil {
		return err
	}
	for _, row := range values[1:] {
		cells, err := encodeCells(row)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sheet_rows (workbook_id, sheet_name, cells) VALUES (?, ?, ?)`,
			workbookID, sheet, cells); err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
		if onRow != nil {
			onRow()
		}
	}
	return tx.Commit()
}

// SetValidation enregistre la liste déroulante d'une colonne.
func SetValidation(ctx context.Context, db *sql.DB, workbookID, sheet string, col int, allowed []string) error {
	cells, err := encodeCells(allowed)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO column_validations (workbook_id, sheet_name, col_index, allowed) VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE allowed = VALUES(allowed)`,
		workbookID, sheet, col, cells)
	return err
}

func encodeCells(cells []string) (string, error) {
	if cells == nil {
		cells = []string{}
	}
	b, err := json.Marshal(cells)
	if err != nil {
		return "", fmt.Errorf("encode cells: %w", err)
	}
	return string(b), nil
}

func decodeCells(raw []byte) ([]string, error) {
	var cells []string
	if err := json.Unmarshal(raw, &cells); err != nil {
		return nil, fmt.Errorf("decode cells: %w", err)
	}
	return cells, nil
}
