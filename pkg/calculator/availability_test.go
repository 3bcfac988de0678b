package calculator

import (
	"testing"
	"time"

	"incidents-dashboard/pkg/models"
	"incidents-dashboard/pkg/schema"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var availabilityHeader = []string{"Ticket ID", "Cable System", "Affected Segment", "Start Date", "End Date"}

func availabilityTable(rows ...[]string) models.Table {
	return models.Table{Header: availabilityHeader, Rows: rows}
}

func singleDomain() models.Domains {
	return models.Domains{CableSystem: []string{"CableA"}, AffectedSegment: []string{"SegA"}}
}

func TestComputeAvailability_SingleEvent(t *testing.T) {
	t.Parallel()

	tbl := availabilityTable([]string{"T1", "CableA", "SegA", "2024-01-10", "2024-01-20"})
	report, err := ComputeAvailability(tbl, singleDomain(), time.UTC)
	require.NoError(t, err)

	require.Equal(t, []int{2024}, report.Years)
	jan, ok := report.Value("CableA", "SegA", 2024, 0)
	require.True(t, ok)
	require.InDelta(t, 67.74, jan, 0.01)
	for m := 1; m < 12; m++ {
		v, ok := report.Value("CableA", "SegA", 2024, m)
		require.True(t, ok)
		require.Equal(t, 100.0, v, "month %d", m)
	}
}

func TestComputeAvailability_MergesOverlaps(t *testing.T) {
	t.Parallel()

	tbl := availabilityTable(
		[]string{"T1", "CableA", "SegA", "2024-03-01 00:00", "2024-03-05 00:00"},
		[]string{"T2", "CableA", "SegA", "2024-03-03 00:00", "2024-03-08 00:00"},
	)
	report, err := ComputeAvailability(tbl, singleDomain(), time.UTC)
	require.NoError(t, err)

	mar, _ := report.Value("CableA", "SegA", 2024, 2)
	// 7 jours d'interruption sur 31, pas 9.
	require.InDelta(t, 100*float64(31-7)/31, mar, 1e-9)
}

func TestComputeAvailability_AdjacentIntervalsMerge(t *testing.T) {
	t.Parallel()

	tbl := availabilityTable(
		[]string{"T1", "CableA", "SegA", "2024-04-01 00:00", "2024-04-02 00:00"},
		[]string{"T2", "CableA", "SegA", "2024-04-02 00:00", "2024-04-03 00:00"},
	)
	report, err := ComputeAvailability(tbl, singleDomain(), time.UTC)
	require.NoError(t, err)

	apr, _ := report.Value("CableA", "SegA", 2024, 3)
	require.InDelta(t, 100*float64(30-2)/30, apr, 1e-9)
}

func TestComputeAvailability_SpansMonthsAndYears(t *testing.T) {
	t.Parallel()

	tbl := availabilityTable([]string{"T1", "CableA", "SegA", "2023-12-31 00:00", "2024-01-02 00:00"})
	report, err := ComputeAvailability(tbl, singleDomain(), time.UTC)
	require.NoError(t, err)

	require.Equal(t, []int{2023, 2024}, report.Years)
	dec, _ := report.Value("CableA", "SegA", 2023, 11)
	require.InDelta(t, 100*float64(30)/31, dec, 1e-9)
	jan, _ := report.Value("CableA", "SegA", 2024, 0)
	require.InDelta(t, 100*float64(29)/31, jan, 1e-9)
	// Cellules sans événement dans une année observée.
	jan23, ok := report.Value("CableA", "SegA", 2023, 0)
	require.True(t, ok)
	require.Equal(t, 100.0, jan23)
}

func TestComputeAvailability_WholeMonthIsZero(t *testing.T) {
	t.Parallel()

	tbl := availabilityTable(
		[]string{"T1", "CableA", "SegA", "2024-02-01", "2024-03-01"},
		[]string{"T2", "CableA", "SegA", "2024-01-15", "2024-03-10"},
	)
	report, err := ComputeAvailability(tbl, singleDomain(), time.UTC)
	require.NoError(t, err)

	feb, _ := report.Value("CableA", "SegA", 2024, 1)
	require.Equal(t, 0.0, feb)
	for _, cs := range report.CableSystems {
		for _, seg := range report.Segments {
			for _, y := range report.Years {
				for m := 0; m < 12; m++ {
					v, _ := report.Value(cs, seg, y, m)
					require.GreaterOrEqual(t, v, 0.0)
					require.LessOrEqual(t, v, 100.0)
				}
			}
		}
	}
}

func TestComputeAvailability_AxesAreDomains(t *testing.T) {
	t.Parallel()

	domains := models.Domains{
		CableSystem:     []string{"Zeta", "Alpha"},
		AffectedSegment: []string{"S2", "S1"},
	}
	tbl := availabilityTable(
		[]string{"T1", "Unknown", "S1", "2024-05-01", "2024-05-02"},
		[]string{"T2", "Alpha", "S1", "2024-05-01", "2024-05-02"},
	)
	report, err := ComputeAvailability(tbl, domains, time.UTC)
	require.NoError(t, err)

	require.Equal(t, []string{"Zeta", "Alpha"}, report.CableSystems)
	require.Equal(t, []string{"S2", "S1"}, report.Segments)
	_, ok := report.Percent["Unknown"]
	require.False(t, ok)
	zeta, _ := report.Value("Zeta", "S1", 2024, 4)
	require.Equal(t, 100.0, zeta)
	alpha, _ := report.Value("Alpha", "S1", 2024, 4)
	require.Less(t, alpha, 100.0)
}

func TestComputeAvailability_SkipsInvalidRows(t *testing.T) {
	t.Parallel()

	tbl := availabilityTable(
		[]string{"T1", "", "SegA", "2024-01-10", "2024-01-20"},
		[]string{"T2", "CableA", "", "2024-01-10", "2024-01-20"},
		[]string{"T3", "CableA", "SegA", "not a date", "2024-01-20"},
		[]string{"T4", "CableA", "SegA", "2024-01-20", "2024-01-10"},
		[]string{"T5", "CableA", "SegA", "2024-01-10", "2024-01-10"},
		[]string{"T6", "CableA", "SegA"},
	)
	report, err := ComputeAvailability(tbl, singleDomain(), time.UTC)
	require.NoError(t, err)
	require.Empty(t, report.Years)
	require.Empty(t, report.Percent["CableA"]["SegA"])
}

func TestComputeAvailability_MissingColumns(t *testing.T) {
	t.Parallel()

	tbl := models.Table{Header: []string{"Ticket ID", "Cable System", "Start Date"}}
	report, err := ComputeAvailability(tbl, singleDomain(), time.UTC)

	var missing *models.MissingColumnsError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, []models.Role{models.RoleAffectedSegment, models.RoleEndDate}, missing.Roles)
	require.Empty(t, report.CableSystems)
	require.Empty(t, report.Percent)
}

func TestComputeAvailability_Idempotent(t *testing.T) {
	t.Parallel()

	tbl := availabilityTable(
		[]string{"T1", "CableA", "SegA", "1/10/2024 3:00 PM", "2/2/2024 9:30 AM"},
		[]string{"T2", "CableA", "SegA", "2024-01-12T00:00:00Z", "2024-01-14T00:00:00Z"},
	)
	first, err := ComputeAvailability(tbl, singleDomain(), time.UTC)
	require.NoError(t, err)
	second, err := ComputeAvailability(tbl, singleDomain(), time.UTC)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("reports differ (-first +second):\n%s", diff)
	}
}

func TestComputeAvailability_UsesLocation(t *testing.T) {
	t.Parallel()

	manila := time.FixedZone("PHT", 8*60*60)
	// 31/01 20:00 UTC correspond au 01/02 04:00 à Manille.
	tbl := availabilityTable([]string{"T1", "CableA", "SegA", "2024-01-31T20:00:00Z", "2024-01-31T22:00:00Z"})

	local, err := ComputeAvailability(tbl, singleDomain(), manila)
	require.NoError(t, err)
	jan, _ := local.Value("CableA", "SegA", 2024, 0)
	feb, _ := local.Value("CableA", "SegA", 2024, 1)
	require.Equal(t, 100.0, jan)
	require.Less(t, feb, 100.0)

	utc, err := ComputeAvailability(tbl, singleDomain(), time.UTC)
	require.NoError(t, err)
	janUTC, _ := utc.Value("CableA", "SegA", 2024, 0)
	febUTC, _ := utc.Value("CableA", "SegA", 2024, 1)
	require.Less(t, janUTC, 100.0)
	require.Equal(t, 100.0, febUTC)
}

func TestSliceByMonth(t *testing.T) {
	t.Parallel()

	ev := Event{
		CableSystem: "CableA",
		Segment:     "SegA",
		Start:       time.Date(2024, 1, 30, 12, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	slices := SliceByMonth(ev, time.UTC)
	require.Len(t, slices, 2, "an end exactly on a month boundary emits no empty slice")

	require.Equal(t, 2024, slices[0].Year)
	require.Equal(t, 0, slices[0].Month)
	require.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), slices[0].End)
	require.Equal(t, 1, slices[1].Month)
	require.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), slices[1].Start)
	require.Equal(t, ev.End, slices[1].End)
	require.Contains(t, slices[0].String(), "01/2024")
}

func TestMergeIntervals(t *testing.T) {
	t.Parallel()

	at := func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }
	got := mergeIntervals([]interval{
		{start: at(10), end: at(12)},
		{start: at(1), end: at(5)},
		{start: at(3), end: at(4)},
		{start: at(5), end: at(6)},
	})
	want := []interval{{start: at(1), end: at(6)}, {start: at(10), end: at(12)}}
	require.Equal(t, want, got)
	require.Nil(t, mergeIntervals(nil))
}

func TestDowntimeSecondsTruncates(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got := downtimeSeconds([]interval{
		{start: base, end: base.Add(1500 * time.Millisecond)},
		{start: base.Add(time.Hour), end: base.Add(time.Hour + 2900*time.Millisecond)},
	})
	require.Equal(t, int64(3), got)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Time{
		"2024-01-10":           time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		"2024-01-10 08:15":     time.Date(2024, 1, 10, 8, 15, 0, 0, time.UTC),
		"2024-01-10 08:15:30":  time.Date(2024, 1, 10, 8, 15, 30, 0, time.UTC),
		"1/10/2024":            time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		"1/10/2024 14:05":      time.Date(2024, 1, 10, 14, 5, 0, 0, time.UTC),
		"1/10/2024 2:05 PM":    time.Date(2024, 1, 10, 14, 5, 0, 0, time.UTC),
		"Jan 10, 2024":         time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		"January 10, 2024":     time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		" 10 Jan 2024 ":        time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		"2024-01-10T08:00:00Z": time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, ok := ParseDate(in, time.UTC)
		require.True(t, ok, in)
		require.True(t, want.Equal(got), "%s: got %v want %v", in, got, want)
	}
	for _, in := range []string{"", "N/A", "2024-13-01", "yesterday"} {
		_, ok := ParseDate(in, time.UTC)
		require.False(t, ok, in)
	}
}

func TestOutageSummary(t *testing.T) {
	t.Parallel()

	tbl := models.Table{
		Header: []string{"Ticket ID", "Cable System", "RFO"},
		Rows: [][]string{
			{"T1", "CableA", "Fault"},
			{"T2", "CableB", "Cut"},
			{"T3", "CableA", "Fault"},
			{"T4", "", "Fault"},
			{"T5", "CableA", ""},
			{"T6", "CableC", "Cut"},
		},
	}
	summary, err := OutageSummary(tbl, []string{"CableA", "CableB"})
	require.NoError(t, err)
	require.Equal(t, []string{"Fault", "Cut"}, summary.RFOTypes)
	require.Equal(t, []string{"CableA", "CableB"}, summary.CableSystems)
	require.Equal(t, 2, summary.Count("Fault", "CableA"))
	require.Equal(t, 1, summary.Count("Cut", "CableB"))
	require.Equal(t, 1, summary.Count("Cut", "CableC"))
	require.Equal(t, 0, summary.Count("Cut", "CableA"))
}

func TestOutageSummary_MissingColumns(t *testing.T) {
	t.Parallel()

	_, err := OutageSummary(models.Table{Header: []string{"Ticket ID", "Cable System"}}, nil)
	var missing *models.MissingColumnsError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, []models.Role{models.RoleRFO}, missing.Roles)
}

func TestExtractEvents_TrimsLabels(t *testing.T) {
	t.Parallel()

	tbl := availabilityTable([]string{"T1", " CableA ", "SegA ", "2024-01-10", "2024-01-11"})
	events := ExtractEvents(tbl, schema.ResolveColumns(tbl.Header), time.UTC)
	require.Len(t, events, 1)
	require.Equal(t, "CableA", events[0].CableSystem)
	require.Equal(t, "SegA", events[0].Segment)
}

func TestComputeAvailability_EndAtNewYearAddsNoYear(t *testing.T) {
	t.Parallel()

	tbl := availabilityTable([]string{"T1", "CableA", "SegA", "2023-12-01 00:00", "2024-01-01 00:00"})
	report, err := ComputeAvailability(tbl, singleDomain(), time.UTC)
	require.NoError(t, err)

	require.Equal(t, []int{2023}, report.Years)
	dec, ok := report.Value("CableA", "SegA", 2023, 11)
	require.True(t, ok)
	require.Equal(t, 0.0, dec)
	_, ok = report.Value("CableA", "SegA", 2024, 0)
	require.False(t, ok)
}
