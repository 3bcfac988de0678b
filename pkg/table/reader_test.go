package table

import (
	"context"
	"testing"

	"incidents-dashboard/pkg/cache"
	"incidents-dashboard/pkg/datastore"
	"incidents-dashboard/pkg/models"
	"incidents-dashboard/pkg/settings"

	"github.com/stretchr/testify/require"
)

const testSheetID = "1AbCdEfGhIjKlMnOpQrStUvWxYz"

func newTestReader(t *testing.T) (*Reader, *datastore.MemoryWorkbook, *settings.Settings) {
	t.Helper()
	backend := datastore.NewMemoryBackend()
	wb := backend.Add(testSheetID, "Incidents")
	wb.SetTable(models.DefaultSheetName, [][]string{
		{"Ticket ID", "Cable System"},
		{"T1", "CableA"},
	})
	wb.SetTable("Archive", [][]string{{"Ticket ID"}, {"OLD-1"}})

	s := settings.New(settings.NewMemory())
	require.NoError(t, s.SetSheetID(testSheetID))
	return &Reader{Cache: cache.NewTTL(), Backend: backend, Settings: s}, wb, s
}

func TestReader_CachesWholeTable(t *testing.T) {
	t.Parallel()
	r, wb, _ := newTestReader(t)
	ctx := context.Background()

	first, err := r.Read(ctx, models.DefaultSheetName)
	require.NoError(t, err)
	require.Equal(t, []string{"Ticket ID", "Cable System"}, first.Header)
	require.Equal(t, [][]string{{"T1", "CableA"}}, first.Rows)

	second, err := r.Read(ctx, models.DefaultSheetName)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, wb.Reads)
}

func TestReader_InvalidateForcesReload(t *testing.T) {
	t.Parallel()
	r, wb, _ := newTestReader(t)
	ctx := context.Background()

	_, err := r.Read(ctx, models.DefaultSheetName)
	require.NoError(t, err)
	require.NoError(t, wb.AppendRow(ctx, models.DefaultSheetName, []string{"T2", "CableB"}))

	stale, err := r.Read(ctx, models.DefaultSheetName)
	require.NoError(t, err)
	require.Len(t, stale.Rows, 1)

	r.Invalidate(models.DefaultSheetName)
	fresh, err := r.Read(ctx, models.DefaultSheetName)
	require.NoError(t, err)
	require.Len(t, fresh.Rows, 2)
	require.Equal(t, 2, wb.Reads)
}

func TestReader_ResolvesConfiguredSheetName(t *testing.T) {
	t.Parallel()
	r, _, s := newTestReader(t)
	require.NoError(t, s.SetSheetName("Archive"))

	require.Equal(t, "Archive", r.Resolve(models.DefaultSheetName))
	require.Equal(t, "Archive", r.Resolve(""))
	require.Equal(t, "Other", r.Resolve("Other"))

	tbl, err := r.Read(context.Background(), models.DefaultSheetName)
	require.NoError(t, err)
	require.Equal(t, [][]string{{"OLD-1"}}, tbl.Rows)
}

func TestReader_Errors(t *testing.T) {
	t.Parallel()
	r, _, s := newTestReader(t)
	ctx := context.Background()

	_, err := r.Read(ctx, "Missing")
	require.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, s.RemoveSheetID())
	_, err = r.Read(ctx, "Archive")
	require.ErrorIs(t, err, models.ErrSheetIDNotSet)
}
