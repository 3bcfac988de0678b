// Package export produit les rapports téléchargeables (CSV, PDF) à partir des
// résultats de requête et d'agrégation.
package export

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"incidents-dashboard/pkg/models"

	"github.com/jonboulle/clockwork"
)

type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"

	mimeCSV = "text/csv"
	mimePDF = "application/pdf"

	// Marqueur des mois futurs ou sans valeur.
	placeholder = "---"

	generatedLayout = "1/2/2006, 3:04:05 PM"
)

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ParseFormat accepte "csv" et "pdf", sans tenir compte de la casse.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", models.Invalid("Invalid export format specified.")
}

// Meta regroupe les options communes à tous les rapports.
type Meta struct {
	Filename    string `json:"filename"`
	Title       string `json:"title"`
	IncludeDate bool   `json:"includeDate"`
}

type MajorIncidentsOptions struct {
	Meta
	IncludeHeaders bool   `json:"includeHeaders"`
	SearchFilter   string `json:"searchFilter"`
}

type OutageSummaryOptions struct {
	Meta
	IncludeRFO          bool   `json:"includeRFO"`
	IncludeCableSystems bool   `json:"includeCableSystems"`
	IncludeTotals       bool   `json:"includeTotals"`
	SearchFilter        string `json:"searchFilter"`
}

type AvailabilityOptions struct {
	Meta
	CableSystem         string `json:"cableSystem"`
	Segment             string `json:"segment"`
	YearStart           int    `json:"yearStart"`
	YearEnd             int    `json:"yearEnd"`
	IncludeMonthHeaders bool   `json:"includeMonthHeaders"`
	IncludeColorCoding  bool   `json:"includeColorCoding"`
	IncludeAverages     bool   `json:"includeAverages"`
}

func DefaultMajorIncidentsOptions() MajorIncidentsOptions {
	return MajorIncidentsOptions{
		Meta:           Meta{Filename: "major-incidents", Title: "Major Incidents Report", IncludeDate: true},
		IncludeHeaders: true,
	}
}

func DefaultOutageSummaryOptions() OutageSummaryOptions {
	return OutageSummaryOptions{
		Meta:                Meta{Filename: "outage-summary", Title: "Outage Summary Report", IncludeDate: true},
		IncludeRFO:          true,
		IncludeCableSystems: true,
	}
}

func DefaultAvailabilityOptions() AvailabilityOptions {
	return AvailabilityOptions{
		Meta:                Meta{Filename: "network-availability", Title: "Network Availability Report", IncludeDate: true},
		IncludeMonthHeaders: true,
	}
}

// File est un rapport rendu.
type File struct {
	Data     []byte
	Filename string
	MimeType string
}

// Result encode le fichier en base64 pour l'interface.
func (f File) Result() models.ExportResult {
	return models.ExportResult{
		Success:  true,
		Data:     base64.StdEncoding.EncodeToString(f.Data),
		Filename: f.Filename,
		MimeType: f.MimeType,
	}
}

// PDFConverter convertit un document HTML en PDF.
type PDFConverter interface {
	Convert(html []byte) ([]byte, error)
}

type Exporter struct {
	Clock    clockwork.Clock
	PDF      PDFConverter
	Location *time.Location
}

func (e *Exporter) now() time.Time {
	loc := e.Location
	if loc == nil {
		loc = time.UTC
	}
	clock := e.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return clock.Now().In(loc)
}

func (e *Exporter) file(format Format, filename string, data []byte) (File, error) {
	if filename == "" {
		filename = "export"
	}
	switch format {
	case FormatCSV:
		return File{Data: data, Filename: filename + ".csv", MimeType: mimeCSV}, nil
	case FormatPDF:
		if e.PDF == nil {
			return File{}, fmt.Errorf("no PDF converter configured")
		}
		pdf, err := e.PDF.Convert(data)
		if err != nil {
			return File{}, fmt.Errorf("convert to pdf: %w", err)
		}
		return File{Data: pdf, Filename: filename + ".pdf", MimeType: mimePDF}, nil
	}
	return File{}, models.Invalid("Invalid export format specified.")
}

// MajorIncidents exporte l'onglet (colonnes et lignes déjà filtrées).
func (e *Exporter) MajorIncidents(format Format, columns []string, rows [][]string, opts MajorIncidentsOptions) (File, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data = e.majorIncidentsCSV(columns, rows, opts)
	case FormatPDF:
		data, err = e.majorIncidentsHTML(columns, rows, opts)
	default:
		return File{}, models.Invalid("Invalid export format specified.")
	}
	if err != nil {
		return File{}, err
	}
	return e.file(format, opts.Filename, data)
}

// OutageSummary exporte le tableau RFO × câble. SearchFilter restreint les RFO.
func (e *Exporter) OutageSummary(format Format, summary models.OutageSummary, opts OutageSummaryOptions) (File, error) {
	summary = filterRFO(summary, opts.SearchFilter)
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data = e.outageSummaryCSV(summary, opts)
	case FormatPDF:
		data, err = e.outageSummaryHTML(summary, opts)
	default:
		return File{}, models.Invalid("Invalid export format specified.")
	}
	if err != nil {
		return File{}, err
	}
	return e.file(format, opts.Filename, data)
}

// Availability exporte le rapport de disponibilité, filtré par câble, segment et années.
func (e *Exporter) Availability(format Format, report models.AvailabilityReport, opts AvailabilityOptions) (File, error) {
	report = filterAvailability(report, opts)
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data = e.availabilityCSV(report, opts)
	case FormatPDF:
		data, err = e.availabilityHTML(report, opts)
	default:
		return File{}, models.Invalid("Invalid export format specified.")
	}
	if err != nil {
		return File{}, err
	}
	return e.file(format, opts.Filename, data)
}

func filterRFO(s models.OutageSummary, search string) models.OutageSummary {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return s
	}
	out := s
	out.RFOTypes = nil
	for _, rfo := range s.RFOTypes {
		if strings.Contains(strings.ToLower(rfo), search) {
			out.RFOTypes = append(out.RFOTypes, rfo)
		}
	}
	return out
}

func filterAvailability(r models.AvailabilityReport, opts AvailabilityOptions) models.AvailabilityReport {
	out := r
	if opts.CableSystem != "" {
		out.CableSystems = []string{opts.CableSystem}
	}
	if opts.Segment != "" {
		out.Segments = []string{opts.Segment}
	}
	if (opts.YearStart != 0 || opts.YearEnd != 0) && len(r.Years) > 0 {
		from, to := r.Years[0], r.Years[len(r.Years)-1]
		if opts.YearStart != 0 {
			from = opts.YearStart
		}
		if opts.YearEnd != 0 {
			to = opts.YearEnd
		}
		out.Years = nil
		for _, y := range r.Years {
			if y >= from && y <= to {
				out.Years = append(out.Years, y)
			}
		}
	}
	return out
}

// isFuture est vrai pour un mois (0-11) strictement après le mois courant.
func isFuture(year, month int, now time.Time) bool {
	return year > now.Year() || (year == now.Year() && month > int(now.Month())-1)
}

// CellClass renvoie la classe de couleur d'un pourcentage.
func CellClass(v float64) string {
	switch {
	case v >= 90:
		return "na-darkblue"
	case v >= 70:
		return "na-lightgreen"
	case v >= 40:
		return "na-yellow"
	case v >= 20:
		return "na-orange"
	}
	return "na-red"
}

// availabilityCell est une cellule mois du rapport, déjà formatée.
type availabilityCell struct {
	Text  string
	Class string
}

type availabilityRow struct {
	Year    int
	Months  []availabilityCell
	Average string
}

// availabilityRows prépare les lignes (une par année) d'un couple câble/segment.
// suffix est ajouté aux pourcentages ("%" pour le PDF).
func availabilityRows(r models.AvailabilityReport, cs, seg string, opts AvailabilityOptions, now time.Time, suffix string) []availabilityRow {
	rows := make([]availabilityRow, 0, len(r.Years))
	for _, y := range r.Years {
		row := availabilityRow{Year: y}
		var sum float64
		count := 0
		if opts.IncludeMonthHeaders {
			for m := 0; m < 12; m++ {
				if isFuture(y, m, now) {
					row.Months = append(row.Months, availabilityCell{Text: placeholder, Class: "na-future"})
					continue
				}
				v, ok := r.Value(cs, seg, y, m)
				if !ok {
					row.Months = append(row.Months, availabilityCell{Text: placeholder})
					continue
				}
				cell := availabilityCell{Text: fmt.Sprintf("%.2f%s", v, suffix)}
				if opts.IncludeColorCoding {
					cell.Class = CellClass(v)
				}
				row.Months = append(row.Months, cell)
				sum += v
				count++
			}
		}
		if opts.IncludeAverages {
			row.Average = placeholder
			if count > 0 {
				row.Average = fmt.Sprintf("%.2f%s", sum/float64(count), suffix)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
