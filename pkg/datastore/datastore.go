// Package datastore décrit le classeur externe qui sert de base de données
// (un onglet = une table, ligne 0 = en-tête) et fournit une implémentation en mémoire.
package datastore

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Backend ouvre un classeur par identifiant.
type Backend interface {
	Open(ctx context.Context, spreadsheetID string) (Workbook, error)
}

// Workbook expose les opérations consommées sur un classeur ouvert.
// Les coordonnées sont des index de grille à partir de 0 (ligne 0 = en-tête).
type Workbook interface {
	Title() string
	LastUpdated(ctx context.Context) (time.Time, error)
	TableNames(ctx context.Context) ([]string, error)
	ReadAll(ctx context.Context, table string) ([][]string, error)
	ReadCell(ctx context.Context, table, a1 string) (string, error)
	AppendRow(ctx context.Context, table string, row []string) error
	UpdateCell(ctx context.Context, table string, row, col int, value string) error
	DeleteRow(ctx context.Context, table string, row int) error
	// ValidationList renvoie les valeurs autorisées par la règle de validation posée
	// sur la première ligne de données de la colonne, nil s'il n'y en a pas.
	ValidationList(ctx context.Context, table string, col int) ([]string, error)
}

// Limites de grille d'un classeur Google Sheets.
const (
	MaxRows    = 10_000_000
	MaxColumns = 18_278
)

// ParseA1 convertit une adresse "C12" en coordonnées de grille (11, 2). Une adresse
// hors des limites de grille est refusée.
func ParseA1(cell string) (row, col int, err error) {
	s := strings.ToUpper(strings.TrimSpace(cell))
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		col = col*26 + int(s[i]-'A'+1)
		if col > MaxColumns {
			return 0, 0, fmt.Errorf("adresse hors grille %q", cell)
		}
		i++
	}
	if i == 0 || i == len(s) {
		return 0, 0, fmt.Errorf("adresse invalide %q", cell)
	}
	for _, ch := range s[i:] {
		if ch < '0' || ch > '9' {
			return 0, 0, fmt.Errorf("adresse invalide %q", cell)
		}
		row = row*10 + int(ch-'0')
		if row > MaxRows {
			return 0, 0, fmt.Errorf("adresse hors grille %q", cell)
		}
	}
	if row == 0 {
		return 0, 0, fmt.Errorf("adresse invalide %q", cell)
	}
	return row - 1, col - 1, nil
}

// ColumnLetters convertit un index de colonne (0 → "A", 27 → "AB").
func ColumnLetters(col int) string {
	col++
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

// A1 construit l'adresse d'une cellule à partir de coordonnées de grille.
func A1(row, col int) string {
	return fmt.Sprintf("%s%d", ColumnLetters(col), row+1)
}
