package export

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"incidents-dashboard/pkg/models"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

// captureConverter garde le HTML reçu et renvoie un faux PDF.
type captureConverter struct {
	html string
	err  error
}

func (c *captureConverter) Convert(doc []byte) ([]byte, error) {
	c.html = string(doc)
	if c.err != nil {
		return nil, c.err
	}
	return []byte("%PDF-fake"), nil
}

func newExporter(conv PDFConverter) *Exporter {
	return &Exporter{
		Clock:    clockwork.NewFakeClockAt(time.Date(2024, 3, 15, 14, 5, 9, 0, time.UTC)),
		PDF:      conv,
		Location: time.UTC,
	}
}

func sampleReport() models.AvailabilityReport {
	return models.AvailabilityReport{
		CableSystems: []string{"CableA", "CableB"},
		Segments:     []string{"SegA"},
		Years:        []int{2023, 2024},
		Percent: map[string]map[string]map[int][12]float64{
			"CableA": {"SegA": {
				2023: {100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100},
				2024: {67.741935, 95, 15, 100, 100, 100, 100, 100, 100, 100, 100, 100},
			}},
			"CableB": {"SegA": {
				2023: {100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100},
				2024: {100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100},
			}},
		},
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	f, err := ParseFormat(" CSV ")
	require.NoError(t, err)
	require.Equal(t, FormatCSV, f)
	f, err = ParseFormat("pdf")
	require.NoError(t, err)
	require.Equal(t, FormatPDF, f)
	_, err = ParseFormat("xlsx")
	require.EqualError(t, err, "Invalid export format specified.")
}

func TestMajorIncidentsCSV(t *testing.T) {
	t.Parallel()
	e := newExporter(nil)

	opts := DefaultMajorIncidentsOptions()
	file, err := e.MajorIncidents(FormatCSV, []string{"Ticket ID", "Remarks"},
		[][]string{{"T1", `cut near "Bay" 3`}, {"T2", ""}}, opts)
	require.NoError(t, err)
	require.Equal(t, "major-incidents.csv", file.Filename)
	require.Equal(t, "text/csv", file.MimeType)

	want := `"Generated on","3/15/2024, 2:05:09 PM"
"Report","Major Incidents Report"

"Ticket ID","Remarks"
"T1","cut near ""Bay"" 3"
"T2",""
`
	require.Equal(t, want, string(file.Data))

	res := file.Result()
	require.True(t, res.Success)
	decoded, err := base64.StdEncoding.DecodeString(res.Data)
	require.NoError(t, err)
	require.Equal(t, want, string(decoded))
}

func TestMajorIncidentsCSV_NoHeadersNoDate(t *testing.T) {
	t.Parallel()
	e := newExporter(nil)

	opts := DefaultMajorIncidentsOptions()
	opts.IncludeHeaders = false
	opts.IncludeDate = false
	opts.Filename = "mi"
	file, err := e.MajorIncidents(FormatCSV, []string{"Ticket ID"}, [][]string{{"T1"}}, opts)
	require.NoError(t, err)
	require.Equal(t, "mi.csv", file.Filename)
	require.Equal(t, "\"Report\",\"Major Incidents Report\"\n\n\"T1\"\n", string(file.Data))
}

func TestOutageSummaryCSV(t *testing.T) {
	t.Parallel()
	e := newExporter(nil)
	summary := models.OutageSummary{
		CableSystems: []string{"CableA", "CableB"},
		RFOTypes:     []string{"Fiber Cut", "Power", "Fiber Degradation"},
		Counts: map[string]map[string]int{
			"Fiber Cut":         {"CableA": 2, "CableB": 1},
			"Power":             {"CableB": 4},
			"Fiber Degradation": {"CableA": 1},
		},
	}
	opts := DefaultOutageSummaryOptions()
	opts.IncludeTotals = true
	opts.IncludeDate = false
	opts.SearchFilter = "fiber"

	file, err := e.OutageSummary(FormatCSV, summary, opts)
	require.NoError(t, err)
	require.Equal(t, "outage-summary.csv", file.Filename)
	want := `"Report","Outage Summary Report"

"RFO","CableA","CableB","Total"
"Fiber Cut",2,1,3
"Fiber Degradation",1,0,1
`
	require.Equal(t, want, string(file.Data))
}

func TestAvailabilityCSV_FutureMonthsAndAverages(t *testing.T) {
	t.Parallel()
	e := newExporter(nil)

	opts := DefaultAvailabilityOptions()
	opts.IncludeDate = false
	opts.IncludeAverages = true
	opts.CableSystem = "CableA"
	opts.YearStart = 2024

	file, err := e.Availability(FormatCSV, sampleReport(), opts)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, `"Cable System","Segment","Year","Jan","Feb","Mar","Apr","May","Jun","Jul","Aug","Sep","Oct","Nov","Dec","Average"`, lines[2])
	// Mars 2024 est le mois courant : avril à décembre sont futurs.
	require.Equal(t, `"CableA","SegA",2024,67.74,95.00,15.00,---,---,---,---,---,---,---,---,---,59.25`, lines[3])
}

func TestAvailabilityPDF_RendersEscapedHTML(t *testing.T) {
	t.Parallel()
	conv := &captureConverter{}
	e := newExporter(conv)

	report := sampleReport()
	report.CableSystems = []string{"CableA"}
	opts := DefaultAvailabilityOptions()
	opts.IncludeColorCoding = true
	opts.IncludeAverages = true
	opts.Title = "Availability <Q1>"

	file, err := e.Availability(FormatPDF, report, opts)
	require.NoError(t, err)
	require.Equal(t, "network-availability.pdf", file.Filename)
	require.Equal(t, "application/pdf", file.MimeType)
	require.Equal(t, []byte("%PDF-fake"), file.Data)

	require.Contains(t, conv.html, "<h1>Availability &lt;Q1&gt;</h1>")
	require.Contains(t, conv.html, `<div class="metadata">Generated on: 3/15/2024, 2:05:09 PM</div>`)
	require.Contains(t, conv.html, "<h2>CableA - SegA</h2>")
	require.Contains(t, conv.html, `<td class="na-yellow">67.74%</td>`)
	require.Contains(t, conv.html, `<td class="na-darkblue">95.00%</td>`)
	require.Contains(t, conv.html, `<td class="na-red">15.00%</td>`)
	require.Contains(t, conv.html, `<td class="na-future">---</td>`)
	require.Contains(t, conv.html, "<td>59.25%</td>")
	require.Contains(t, conv.html, "<td>100.00%</td>", "averages of a past year")
}

func TestMajorIncidentsPDF_EscapesCells(t *testing.T) {
	t.Parallel()
	conv := &captureConverter{}
	e := newExporter(conv)

	_, err := e.MajorIncidents(FormatPDF, []string{"Ticket ID"}, [][]string{{"<script>x</script>"}}, DefaultMajorIncidentsOptions())
	require.NoError(t, err)
	require.Contains(t, conv.html, "<th>Ticket ID</th>")
	require.Contains(t, conv.html, "<td>&lt;script&gt;x&lt;/script&gt;</td>")
	require.NotContains(t, conv.html, "<script>")
}

func TestOutageSummaryPDF(t *testing.T) {
	t.Parallel()
	conv := &captureConverter{}
	e := newExporter(conv)
	summary := models.OutageSummary{
		CableSystems: []string{"CableA"},
		RFOTypes:     []string{"Cut"},
		Counts:       map[string]map[string]int{"Cut": {"CableA": 3}},
	}
	opts := DefaultOutageSummaryOptions()
	opts.IncludeRFO = false
	opts.IncludeTotals = true

	_, err := e.OutageSummary(FormatPDF, summary, opts)
	require.NoError(t, err)
	require.Contains(t, conv.html, "<tr><th>CableA</th><th>Total</th></tr>")
	require.Contains(t, conv.html, "<tr><td>3</td><td>3</td></tr>")
}

func TestExport_ConverterFailure(t *testing.T) {
	t.Parallel()
	e := newExporter(&captureConverter{err: errors.New("boom")})

	_, err := e.OutageSummary(FormatPDF, models.OutageSummary{}, DefaultOutageSummaryOptions())
	require.ErrorContains(t, err, "boom")
}

func TestExport_InvalidFormat(t *testing.T) {
	t.Parallel()
	e := newExporter(nil)
	_, err := e.Availability(Format("xml"), sampleReport(), DefaultAvailabilityOptions())
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestCellClass(t *testing.T) {
	t.Parallel()
	cases := map[float64]string{
		100: "na-darkblue", 90: "na-darkblue", 89.99: "na-lightgreen", 70: "na-lightgreen",
		40: "na-yellow", 20: "na-orange", 19.99: "na-red", 0: "na-red",
	}
	for v, want := range cases {
		require.Equal(t, want, CellClass(v), "%v", v)
	}
}

func TestFPDFConverter(t *testing.T) {
	t.Parallel()
	e := newExporter(&FPDFConverter{
		Orientation: "L",
		PageSize:    "A4",
		CreatedAt:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	report := sampleReport()
	opts := DefaultAvailabilityOptions()
	opts.IncludeColorCoding = true

	file, err := e.Availability(FormatPDF, report, opts)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(file.Data, []byte("%PDF-")))

	rows := make([][]string, 120)
	for i := range rows {
		rows[i] = []string{"INC-0001", "Très long commentaire sur la réparation du câble sous-marin", "x"}
	}
	file, err = e.MajorIncidents(FormatPDF, []string{"Ticket ID", "Remarks", "Other"}, rows, DefaultMajorIncidentsOptions())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(file.Data, []byte("%PDF-")))
}
