package export

import (
	"bytes"
	"strconv"
	"strings"

	"incidents-dashboard/pkg/models"
)

// csvBuilder écrit des lignes où chaque champ texte est entre guillemets, les
// guillemets internes doublés. Les nombres et marqueurs restent nus.
type csvBuilder struct {
	buf bytes.Buffer
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (b *csvBuilder) line(fields ...string) {
	b.buf.WriteString(strings.Join(fields, ","))
	b.buf.WriteByte('\n')
}

func (b *csvBuilder) quoted(fields []string) {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = quote(f)
	}
	b.line(out...)
}

func (e *Exporter) preamble(b *csvBuilder, m Meta) {
	if m.IncludeDate {
		b.line(quote("Generated on"), quote(e.now().Format(generatedLayout)))
	}
	b.line(quote("Report"), quote(m.Title))
	b.buf.WriteByte('\n')
}

func (e *Exporter) majorIncidentsCSV(columns []string, rows [][]string, opts MajorIncidentsOptions) []byte {
	var b csvBuilder
	e.preamble(&b, opts.Meta)
	if opts.IncludeHeaders {
		b.quoted(columns)
	}
	for _, r := range rows {
		b.quoted(r)
	}
	return b.buf.Bytes()
}

func (e *Exporter) outageSummaryCSV(s models.OutageSummary, opts OutageSummaryOptions) []byte {
	var b csvBuilder
	e.preamble(&b, opts.Meta)

	var header []string
	if opts.IncludeRFO {
		header = append(header, "RFO")
	}
	if opts.IncludeCableSystems {
		header = append(header, s.CableSystems...)
	}
	if opts.IncludeTotals {
		header = append(header, "Total")
	}
	b.quoted(header)

	for _, rfo := range s.RFOTypes {
		var row []string
		if opts.IncludeRFO {
			row = append(row, quote(rfo))
		}
		total := 0
		if opts.IncludeCableSystems {
			for _, cs := range s.CableSystems {
				n := s.Count(rfo, cs)
				total += n
				row = append(row, strconv.Itoa(n))
			}
		}
		if opts.IncludeTotals {
			row = append(row, strconv.Itoa(total))
		}
		b.line(row...)
	}
	return b.buf.Bytes()
}

func (e *Exporter) availabilityCSV(r models.AvailabilityReport, opts AvailabilityOptions) []byte {
	var b csvBuilder
	e.preamble(&b, opts.Meta)

	header := []string{"Cable System", "Segment", "Year"}
	if opts.IncludeMonthHeaders {
		header = append(header, monthLabels[:]...)
	}
	if opts.IncludeAverages {
		header = append(header, "Average")
	}
	b.quoted(header)

	// Pas de couleurs en CSV.
	opts.IncludeColorCoding = false
	now := e.now()
	for _, cs := range r.CableSystems {
		for _, seg := range r.Segments {
			for _, row := range availabilityRows(r, cs, seg, opts, now, "") {
				fields := []string{quote(cs), quote(seg), strconv.Itoa(row.Year)}
				for _, c := range row.Months {
					fields = append(fields, c.Text)
				}
				if opts.IncludeAverages {
					fields = append(fields, row.Average)
				}
				b.line(fields...)
			}
		}
	}
	return b.buf.Bytes()
}
