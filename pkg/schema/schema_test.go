package schema

import (
	"context"
	"testing"

	"incidents-dashboard/pkg/cache"
	"incidents-dashboard/pkg/datastore"
	"incidents-dashboard/pkg/models"
	"incidents-dashboard/pkg/settings"
	"incidents-dashboard/pkg/table"

	"github.com/stretchr/testify/require"
)

const testSheetID = "1AbCdEfGhIjKlMnOpQrStUvWxYz"

func TestResolveColumns(t *testing.T) {
	t.Parallel()

	cols := ResolveColumns([]string{
		" TICKET ID ", "Cable System", "Affected Segment (Primary)", "RFO",
		"Outage Start Date", "Outage End Date", "Affected Segment (Secondary)", "Cable Systems",
	})
	for role, want := range map[models.Role]int{
		models.RoleTicketID:        0,
		models.RoleCableSystem:     1,
		models.RoleAffectedSegment: 2,
		models.RoleRFO:             3,
		models.RoleStartDate:       4,
		models.RoleEndDate:         5,
	} {
		got, ok := cols.Index(role)
		require.True(t, ok, role.String())
		require.Equal(t, want, got, role.String())
	}
}

func TestResolveColumns_ExactMatchRoles(t *testing.T) {
	t.Parallel()

	cols := ResolveColumns([]string{"Ticket IDs", "Cable System Name", "RFO category"})
	for _, r := range []models.Role{models.RoleTicketID, models.RoleCableSystem, models.RoleRFO} {
		_, ok := cols.Index(r)
		require.False(t, ok, r.String())
	}
	err := cols.Require(models.RoleTicketID, models.RoleRFO)
	var missing *models.MissingColumnsError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, []models.Role{models.RoleTicketID, models.RoleRFO}, missing.Roles)
	require.EqualError(t, err, "missing columns: Ticket ID, RFO")
}

func newResolver(t *testing.T) (*Resolver, *datastore.MemoryWorkbook) {
	t.Helper()
	backend := datastore.NewMemoryBackend()
	wb := backend.Add(testSheetID, "Incidents")
	wb.SetTable(models.DefaultSheetName, [][]string{
		{"Ticket ID", "Cable System", "Affected Segment", "RFO"},
		{"T1", "CableA", "SegA", "Cut"},
	})
	wb.SetValidation(models.DefaultSheetName, 1, []string{"CableB", "", "CableA"})

	s := settings.New(settings.NewMemory())
	require.NoError(t, s.SetSheetID(testSheetID))
	c := cache.NewTTL()
	reader := &table.Reader{Cache: c, Backend: backend, Settings: s}
	return &Resolver{Reader: reader, Backend: backend, Settings: s, Cache: c}, wb
}

func TestResolver_Domains(t *testing.T) {
	t.Parallel()
	r, wb := newResolver(t)
	ctx := context.Background()

	d, err := r.Domains(ctx, models.DefaultSheetName)
	require.NoError(t, err)
	require.Equal(t, []string{"CableB", "CableA"}, d.CableSystem)
	require.NotNil(t, d.AffectedSegment)
	require.Empty(t, d.AffectedSegment)

	// Servi par le cache : la nouvelle règle n'est pas vue avant expiration.
	wb.SetValidation(models.DefaultSheetName, 2, []string{"SegA"})
	d, err = r.Domains(ctx, models.DefaultSheetName)
	require.NoError(t, err)
	require.Empty(t, d.AffectedSegment)

	r.Cache.Remove("dropdown_options_" + models.DefaultSheetName)
	d, err = r.Domains(ctx, models.DefaultSheetName)
	require.NoError(t, err)
	require.Equal(t, []string{"SegA"}, d.AffectedSegment)
}

func TestResolver_DomainsWithoutSheetID(t *testing.T) {
	t.Parallel()
	r, _ := newResolver(t)
	s := r.Settings.(*settings.Settings)
	require.NoError(t, s.RemoveSheetID())

	_, err := r.Domains(context.Background(), models.DefaultSheetName)
	require.ErrorIs(t, err, models.ErrSheetIDNotSet)
}
