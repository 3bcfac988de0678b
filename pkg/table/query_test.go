package table

import (
	"fmt"
	"math"
	"testing"

	"incidents-dashboard/pkg/models"

	"github.com/stretchr/testify/require"
)

func ticketTable(n int) models.Table {
	t := models.Table{Header: []string{"Ticket ID", "Cable System", "RFO"}}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("T%02d", i)
		t.Rows = append(t.Rows, []string{id, "CableA", "Fault"})
		if i%3 == 0 {
			// Lignes de détail supplémentaires pour le même ticket.
			t.Rows = append(t.Rows, []string{id, "CableB", "Cut"})
		}
	}
	return t
}

func TestListDistinct_Pagination(t *testing.T) {
	t.Parallel()
	tbl := ticketTable(25)

	items, total := ListDistinct(tbl, 0, "", Page{Number: 2, Size: 10})
	require.Equal(t, 25, total)
	require.Len(t, items, 10)
	require.Equal(t, "T10", items[0])
	require.Equal(t, "T19", items[9])

	items, total = ListDistinct(tbl, 0, "", Page{Number: 4, Size: 10})
	require.Equal(t, 25, total)
	require.Empty(t, items)

	items, total = ListDistinct(tbl, 0, "", Page{})
	require.Equal(t, 25, total)
	require.Len(t, items, 25)
}

func TestPaging_HugePageNumbersReturnEmpty(t *testing.T) {
	t.Parallel()
	tbl := ticketTable(2)

	for _, p := range []Page{
		{Number: math.MaxInt64/2 + 2, Size: 3},
		{Number: math.MaxInt64/2 + 2, Size: 4},
		{Number: math.MaxInt64, Size: math.MaxInt64},
		{Number: 2, Size: math.MaxInt64},
	} {
		items, total := ListDistinct(tbl, 0, "", p)
		require.Equal(t, 2, total)
		require.Empty(t, items, "%+v", p)

		res := FilterRows(tbl, nil, p)
		require.Equal(t, 3, res.Total)
		require.Empty(t, res.Rows, "%+v", p)
	}

	items, _ := ListDistinct(tbl, 0, "", Page{Number: 1, Size: math.MaxInt64})
	require.Len(t, items, 2)
}

func TestListDistinct_SearchAndDedup(t *testing.T) {
	t.Parallel()
	tbl := models.Table{
		Header: []string{"Ticket ID"},
		Rows:   [][]string{{"INC-1"}, {""}, {"inc-2"}, {"INC-1"}, {"CHG-3"}},
	}
	items, total := ListDistinct(tbl, 0, " inc ", Page{Number: 1, Size: 10})
	require.Equal(t, []string{"INC-1", "inc-2"}, items)
	require.Equal(t, 2, total)
}

func TestFilterRows_KeyAndSearch(t *testing.T) {
	t.Parallel()
	tbl := ticketTable(4)

	res := FilterRows(tbl, KeyEquals(0, " T00 "), Page{})
	require.Equal(t, tbl.Header, res.Columns)
	require.Equal(t, 2, res.Total)
	require.Equal(t, [][]string{{"T00", "CableA", "Fault"}, {"T00", "CableB", "Cut"}}, res.Rows)

	res = FilterRows(tbl, And(KeyEquals(0, "T00"), AnyCellContains("CUT")), Page{})
	require.Equal(t, 1, res.Total)
	require.Equal(t, "CableB", res.Rows[0][1])

	res = FilterRows(tbl, KeyEquals(0, "T00"), Page{Number: 2, Size: 1})
	require.Equal(t, 2, res.Total)
	require.Equal(t, [][]string{{"T00", "CableB", "Cut"}}, res.Rows)

	res = FilterRows(tbl, KeyEquals(0, "T00"), Page{Number: 5, Size: 1})
	require.Equal(t, 2, res.Total)
	require.Empty(t, res.Rows)
}

func TestFilterRows_PadsShortRows(t *testing.T) {
	t.Parallel()
	tbl := models.Table{Header: []string{"A", "B", "C"}, Rows: [][]string{{"x"}, {"y", "z", "w", "extra"}}}

	res := FilterRows(tbl, AnyCellContains(""), Page{})
	require.Equal(t, [][]string{{"x", "", ""}, {"y", "z", "w"}}, res.Rows)

	res = FilterRows(tbl, nil, Page{})
	require.Equal(t, 2, res.Total)
}

func TestPage_Enabled(t *testing.T) {
	t.Parallel()
	require.False(t, Page{}.Enabled())
	require.False(t, Page{Number: 1}.Enabled())
	require.True(t, Page{Number: 1, Size: 10}.Enabled())
}
