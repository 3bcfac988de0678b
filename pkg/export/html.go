package export

import (
	"bytes"
	"html/template"

	"incidents-dashboard/pkg/models"
)

const layoutHTML = `{{define "head"}}<html>
<head>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
h1 { color: #333; text-align: center; }
h2 { color: #555; margin-top: 30px; }
.metadata { text-align: center; margin-bottom: 20px; color: #666; }
table { width: 100%; border-collapse: collapse; margin-top: 15px; page-break-inside: avoid; }
th, td { border: 1px solid #ddd; padding: 6px; text-align: center; font-size: 12px; }
th { background-color: #f2f2f2; font-weight: bold; }
tr:nth-child(even) { background-color: #f9f9f9; }
.na-darkblue { background-color: #26348d !important; color: white; }
.na-lightgreen { background-color: #b9e7c5 !important; }
.na-yellow { background-color: #ffe066 !important; }
.na-orange { background-color: #fd7e14 !important; color: white; }
.na-red { background-color: #dc3545 !important; color: white; }
.na-future { color: #999999; background-color: #f8f9fa; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Generated}}<div class="metadata">Generated on: {{.Generated}}</div>
{{end}}{{end}}`

const majorIncidentsHTML = `{{template "head" .}}<table>
{{if .Columns}}<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
{{end}}<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody></table>
</body></html>`

const outageSummaryHTML = `{{template "head" .}}<table><thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody></table>
</body></html>`

const availabilityHTML = `{{template "head" .}}{{$months := .Months}}{{$avg := .Averages}}{{range .Blocks}}<h2>{{.CableSystem}} - {{.Segment}}</h2>
<table><thead><tr><th>Year</th>{{range $months}}<th>{{.}}</th>{{end}}{{if $avg}}<th>Average</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.Year}}</td>{{range .Months}}<td{{if .Class}} class="{{.Class}}"{{end}}>{{.Text}}</td>{{end}}{{if $avg}}<td>{{.Average}}</td>{{end}}</tr>
{{end}}</tbody></table>
{{end}}</body></html>`

var templates = template.Must(template.Must(template.Must(template.Must(
	template.New("layout").Parse(layoutHTML)).
	New("major-incidents").Parse(majorIncidentsHTML)).
	New("outage-summary").Parse(outageSummaryHTML)).
	New("availability").Parse(availabilityHTML))

type page struct {
	Title     string
	Generated string
}

func (e *Exporter) page(m Meta) page {
	p := page{Title: m.Title}
	if m.IncludeDate {
		p.Generated = e.now().Format(generatedLayout)
	}
	return p
}

func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Exporter) majorIncidentsHTML(columns []string, rows [][]string, opts MajorIncidentsOptions) ([]byte, error) {
	data := struct {
		page
		Columns []string
		Rows    [][]string
	}{page: e.page(opts.Meta), Rows: rows}
	if opts.IncludeHeaders {
		data.Columns = columns
	}
	return render("major-incidents", data)
}

func (e *Exporter) outageSummaryHTML(s models.OutageSummary, opts OutageSummaryOptions) ([]byte, error) {
	data := struct {
		page
		Header []string
		Rows   [][]any
	}{page: e.page(opts.Meta)}

	if opts.IncludeRFO {
		data.Header = append(data.Header, "RFO")
	}
	if opts.IncludeCableSystems {
		data.Header = append(data.Header, s.CableSystems...)
	}
	if opts.IncludeTotals {
		data.Header = append(data.Header, "Total")
	}
	for _, rfo := range s.RFOTypes {
		var row []any
		if opts.IncludeRFO {
			row = append(row, rfo)
		}
		total := 0
		if opts.IncludeCableSystems {
			for _, cs := range s.CableSystems {
				n := s.Count(rfo, cs)
				total += n
				row = append(row, n)
			}
		}
		if opts.IncludeTotals {
			row = append(row, total)
		}
		data.Rows = append(data.Rows, row)
	}
	return render("outage-summary", data)
}

type availabilityBlock struct {
	CableSystem string
	Segment     string
	Rows        []availabilityRow
}

func (e *Exporter) availabilityHTML(r models.AvailabilityReport, opts AvailabilityOptions) ([]byte, error) {
	data := struct {
		page
		Months   []string
		Averages bool
		Blocks   []availabilityBlock
	}{page: e.page(opts.Meta), Averages: opts.IncludeAverages}

	if opts.IncludeMonthHeaders {
		data.Months = monthLabels[:]
	}
	now := e.now()
	for _, cs := range r.CableSystems {
		for _, seg := range r.Segments {
			data.Blocks = append(data.Blocks, availabilityBlock{
				CableSystem: cs,
				Segment:     seg,
				Rows:        availabilityRows(r, cs, seg, opts, now, "%"),
			})
		}
	}
	return render("availability", data)
}
