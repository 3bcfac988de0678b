// Package gsheets branche le classeur Google Sheets (API Sheets v4, Drive v3 pour la
// date de modification) derrière l'interface datastore.Workbook.
package gsheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"incidents-dashboard/pkg/datastore"
	"incidents-dashboard/pkg/models"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	valueInputOption  = "USER_ENTERED"
	valueRenderOption = "FORMATTED_VALUE"
)

type Backend struct {
	sheets *sheets.Service
	drive  *drive.Service
}

// NewBackend crée les clients Sheets et Drive à partir d'une clé de compte de service.
// Sans fichier, les identifiants par défaut de l'environnement sont utilisés.
func NewBackend(ctx context.Context, credentialsFile string) (*Backend, error) {
	opts := []option.ClientOption{
		option.WithScopes(sheets.SpreadsheetsScope, drive.DriveMetadataReadonlyScope),
	}
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); err != nil {
			return nil, fmt.Errorf("service account key not found at path %s: %w", credentialsFile, err)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return NewBackendWithOptions(ctx, opts...)
}

// NewBackendWithOptions permet de pointer les clients vers un autre endpoint (tests).
func NewBackendWithOptions(ctx context.Context, opts ...option.ClientOption) (*Backend, error) {
	sh, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	dr, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return &Backend{sheets: sh, drive: dr}, nil
}

func (b *Backend) Open(ctx context.Context, spreadsheetID string) (datastore.Workbook, error) {
	ss, err := b.sheets.Spreadsheets.Get(spreadsheetID).
		Fields("spreadsheetId", "properties.title", "sheets.properties(sheetId,title)").
		Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, models.NotFoundf("Spreadsheet %q not found.", spreadsheetID)
		}
		return nil, models.ExternalStore("open spreadsheet", err)
	}
	wb := &workbook{
		backend:  b,
		id:       spreadsheetID,
		sheetIDs: map[string]int64{},
	}
	if ss.Properties != nil {
		wb.title = ss.Properties.Title
	}
	for _, sh := range ss.Sheets {
		if sh.Properties == nil {
			continue
		}
		wb.order = append(wb.order, sh.Properties.Title)
		wb.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
	}
	return wb, nil
}

type workbook struct {
	backend  *Backend
	id       string
	title    string
	order    []string
	sheetIDs map[string]int64
}

func (w *workbook) Title() string { return w.title }

func (w *workbook) LastUpdated(ctx context.Context) (time.Time, error) {
	f, err := w.backend.drive.Files.Get(w.id).
		Fields("modifiedTime").
		SupportsAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return time.Time{}, models.ExternalStore("get modified time", err)
	}
	t, err := time.Parse(time.RFC3339, f.ModifiedTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse modifiedTime %q: %w", f.ModifiedTime, err)
	}
	return t, nil
}

func (w *workbook) TableNames(context.Context) ([]string, error) {
	return append([]string(nil), w.order...), nil
}

func (w *workbook) sheetID(table string) (int64, error) {
	id, ok := w.sheetIDs[table]
	if !ok {
		return 0, models.NotFoundf("Sheet %q not found.", table)
	}
	return id, nil
}

func (w *workbook) ReadAll(ctx context.Context, table string) ([][]string, error) {
	if _, err := w.sheetID(table); err != nil {
		return nil, err
	}
	vr, err := w.backend.sheets.Spreadsheets.Values.Get(w.id, quote(table)).
		ValueRenderOption(valueRenderOption).
		Context(ctx).Do()
	if err != nil {
		return nil, models.ExternalStore("read sheet", err)
	}
	return rectangular(vr.Values), nil
}

func (w *workbook) ReadCell(ctx context.Context, table, a1 string) (string, error) {
	if _, err := w.sheetID(table); err != nil {
		return "", err
	}
	if _, _, err := datastore.ParseA1(a1); err != nil {
		return "", models.Invalid(err.Error())
	}
	vr, err := w.backend.sheets.Spreadsheets.Values.Get(w.id, quote(table)+"!"+a1).
		ValueRenderOption(valueRenderOption).
		Context(ctx).Do()
	if err != nil {
		return "", models.ExternalStore("read cell", err)
	}
	if len(vr.Values) == 0 || len(vr.Values[0]) == 0 {
		return "", nil
	}
	return fmt.Sprint(vr.Values[0][0]), nil
}

func (w *workbook) AppendRow(ctx context.Context, table string, row []string) error {
	if _, err := w.sheetID(table); err != nil {
		return err
	}
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	_, err := w.backend.sheets.Spreadsheets.Values.Append(w.id, quote(table), &sheets.ValueRange{
		Values: [][]interface{}{cells},
	}).ValueInputOption(valueInputOption).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return models.ExternalStore("append row", err)
	}
	return nil
}

func (w *workbook) UpdateCell(ctx context.Context, table string, row, col int, value string) error {
	if _, err := w.sheetID(table); err != nil {
		return err
	}
	rng := quote(table) + "!" + datastore.A1(row, col)
	_, err := w.backend.sheets.Spreadsheets.Values.Update(w.id, rng, &sheets.ValueRange{
		Values: [][]interface{}{{value}},
	}).ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return models.ExternalStore("update cell", err)
	}
	return nil
}

func (w *workbook) DeleteRow(ctx context.Context, table string, row int) error {
	sid, err := w.sheetID(table)
	if err != nil {
		return err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sid,
					Dimension:  "ROWS",
					StartIndex: int64(row),
					EndIndex:   int64(row + 1),
					// SheetId et StartIndex valent souvent 0, qui serait omis sinon.
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := w.backend.sheets.Spreadsheets.BatchUpdate(w.id, req).Context(ctx).Do(); err != nil {
		return models.ExternalStore("delete row", err)
	}
	return nil
}

func (w *workbook) ValidationList(ctx context.Context, table string, col int) ([]string, error) {
	if _, err := w.sheetID(table); err != nil {
		return nil, err
	}
	// Règle lue sur la première ligne de données (ligne 2 de la feuille).
	ss, err := w.backend.sheets.Spreadsheets.Get(w.id).
		Ranges(quote(table) + "!" + datastore.A1(1, col)).
		IncludeGridData(true).
		Fields("sheets(data(rowData(values(dataValidation))))").
		Context(ctx).Do()
	if err != nil {
		return nil, models.ExternalStore("read validation rule", err)
	}
	rule := firstValidation(ss)
	if rule == nil || rule.Condition == nil {
		return nil, nil
	}
	switch rule.Condition.Type {
	case "ONE_OF_LIST":
		out := make([]string, 0, len(rule.Condition.Values))
		for _, v := range rule.Condition.Values {
			out = append(out, v.UserEnteredValue)
		}
		return out, nil
	case "ONE_OF_RANGE":
		if len(rule.Condition.Values) == 0 {
			return nil, nil
		}
		ref := strings.TrimPrefix(rule.Condition.Values[0].UserEnteredValue, "=")
		vr, err := w.backend.sheets.Spreadsheets.Values.Get(w.id, ref).
			ValueRenderOption(valueRenderOption).
			Context(ctx).Do()
		if err != nil {
			return nil, models.ExternalStore("read validation range", err)
		}
		var out []string
		for _, r := range vr.Values {
			for _, c := range r {
				if s := fmt.Sprint(c); s != "" {
					out = append(out, s)
				}
			}
		}
		return out, nil
	}
	return nil, nil
}

func firstValidation(ss *sheets.Spreadsheet) *sheets.DataValidationRule {
	if ss == nil || len(ss.Sheets) == 0 || len(ss.Sheets[0].Data) == 0 {
		return nil
	}
	data := ss.Sheets[0].Data[0]
	if len(data.RowData) == 0 || len(data.RowData[0].Values) == 0 {
		return nil
	}
	return data.RowData[0].Values[0].DataValidation
}

// rectangular complète les lignes irrégulières renvoyées par l'API (cellules vides
// de fin omises) pour obtenir une plage de données rectangulaire.
func rectangular(values [][]interface{}) [][]string {
	width := 0
	for _, r := range values {
		if len(r) > width {
			width = len(r)
		}
	}
	out := make([][]string, len(values))
	for i, r := range values {
		row := make([]string, width)
		for j, c := range r {
			row[j] = fmt.Sprint(c)
		}
		out[i] = row
	}
	return out
}

func quote(table string) string {
	return "'" + strings.ReplaceAll(table, "'", "''") + "'"
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
