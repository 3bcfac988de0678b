package models

import "time"

/*
RÉPONSES → formes renvoyées à l'interface. Les erreurs sont portées par le champ Error,
SheetIDError distingue « classeur non configuré » des autres échecs.
*/

type TicketPage struct {
	Tickets      []string `json:"tickets"`
	Total        int      `json:"total"`
	SheetIDError bool     `json:"sheetIdError"`
}

type RowsResult struct {
	Columns      []string   `json:"columns"`
	Rows         [][]string `json:"rows"`
	Total        int        `json:"total"`
	Error        string     `json:"error,omitempty"`
	SheetIDError bool       `json:"sheetIdError"`
}

type ColumnsResult struct {
	Columns []string `json:"columns"`
	Error   string   `json:"error,omitempty"`
}

type OutageSummaryResult struct {
	OutageSummary
	Error        string `json:"error,omitempty"`
	SheetIDError bool   `json:"sheetIdError"`
}

type AvailabilityResult struct {
	AvailabilityReport
	Error        string `json:"error,omitempty"`
	SheetIDError bool   `json:"sheetIdError"`
}

type DropdownResult struct {
	Domains
	Error        string `json:"error,omitempty"`
	SheetIDError bool   `json:"sheetIdError"`
}

type CellResult struct {
	Value string `json:"value"`
	Error string `json:"error,omitempty"`
}

type TablesResult struct {
	Tables       map[string][][]string `json:"tables"`
	Error        string                `json:"error,omitempty"`
	SheetIDError bool                  `json:"sheetIdError"`
}

type SettingsResult struct {
	SheetID         string     `json:"sheetId,omitempty"`
	SheetName       string     `json:"sheetName"`
	SpreadsheetName string     `json:"spreadsheetName,omitempty"`
	LastUpdated     *time.Time `json:"lastUpdated,omitempty"`
}

// MutationResult : {success, error} des opérations d'écriture.
type MutationResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ExportResult : fichier encodé en base64, prêt à être téléchargé.
type ExportResult struct {
	Success  bool   `json:"success"`
	Data     string `json:"data,omitempty"`
	Filename string `json:"filename,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Failed construit un MutationResult en échec.
func Failed(err error) MutationResult {
	return MutationResult{Success: false, Error: err.Error()}
}
