// Package dashboard expose les opérations du tableau de bord. Chaque opération
// renvoie un résultat structuré portant le message d'erreur et, le cas échéant,
// l'indicateur « classeur non configuré ».
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"incidents-dashboard/pkg/cache"
	"incidents-dashboard/pkg/calculator"
	"incidents-dashboard/pkg/datastore"
	"incidents-dashboard/pkg/export"
	"incidents-dashboard/pkg/models"
	"incidents-dashboard/pkg/mutation"
	"incidents-dashboard/pkg/schema"
	"incidents-dashboard/pkg/settings"
	"incidents-dashboard/pkg/table"
)

const (
	msgMissingColumns = "Missing columns."
	msgNoTicketID     = "No Ticket ID provided."

	// Taille de page utilisée pour exporter l'onglet complet.
	exportPageSize = 1000
)

type Config struct {
	Settings *settings.Settings
	Backend  datastore.Backend
	Cache    cache.Cache
	CacheTTL time.Duration
	Exporter *export.Exporter
	Location *time.Location
	Logger   *slog.Logger
}

type Service struct {
	settings  *settings.Settings
	backend   datastore.Backend
	reader    *table.Reader
	resolver  *schema.Resolver
	mutations *mutation.Engine
	exporter  *export.Exporter
	loc       *time.Location
	logger    *slog.Logger
}

func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	exporter := cfg.Exporter
	if exporter == nil {
		exporter = &export.Exporter{PDF: export.NewFPDFConverter(), Location: loc}
	}
	reader := &table.Reader{
		Cache:    cfg.Cache,
		Backend:  cfg.Backend,
		Settings: cfg.Settings,
		TTL:      cfg.CacheTTL,
		Logger:   logger,
	}
	resolver := &schema.Resolver{
		Reader:   reader,
		Backend:  cfg.Backend,
		Settings: cfg.Settings,
		Cache:    cfg.Cache,
		TTL:      cfg.CacheTTL,
	}
	return &Service{
		settings: cfg.Settings,
		backend:  cfg.Backend,
		reader:   reader,
		resolver: resolver,
		mutations: &mutation.Engine{
			Backend:  cfg.Backend,
			Settings: cfg.Settings,
			Cache:    reader,
			Domains:  resolver,
			Logger:   logger,
		},
		exporter: exporter,
		loc:      loc,
		logger:   logger,
	}
}

// fail journalise les erreurs inattendues et renvoie le message et l'indicateur
// de configuration.
func (s *Service) fail(op string, err error) (string, bool) {
	if models.IsConfiguration(err) {
		return err.Error(), true
	}
	var nf *models.NotFoundError
	var verr *models.ValidationError
	if !errors.As(err, &nf) && !errors.As(err, &verr) {
		s.logger.Error("operation failed", "op", op, "error", err)
	}
	return err.Error(), false
}

func (s *Service) current(ctx context.Context) (models.Table, error) {
	return s.reader.Read(ctx, s.settings.SheetName())
}

func (s *Service) keyColumn(t models.Table) int {
	if col, ok := schema.ResolveColumns(t.Header).Index(models.RoleTicketID); ok {
		return col
	}
	return 0
}

// TicketList renvoie une page de tickets distincts. Seule l'absence de classeur est
// convertie en résultat; toute autre erreur est renvoyée à l'appelant.
func (s *Service) TicketList(ctx context.Context, search string, page table.Page) (models.TicketPage, error) {
	t, err := s.current(ctx)
	if err != nil {
		if models.IsConfiguration(err) {
			return models.TicketPage{Tickets: []string{}, SheetIDError: true}, nil
		}
		return models.TicketPage{}, err
	}
	items, total := table.ListDistinct(t, s.keyColumn(t), search, page)
	return models.TicketPage{Tickets: items, Total: total}, nil
}

func emptyRows(msg string, sheetIDErr bool) models.RowsResult {
	return models.RowsResult{Columns: []string{}, Rows: [][]string{}, Error: msg, SheetIDError: sheetIDErr}
}

// TicketDetails renvoie les lignes d'un ticket, filtrées et paginées.
func (s *Service) TicketDetails(ctx context.Context, ticketID string, page table.Page, search string) models.RowsResult {
	if ticketID == "" {
		return emptyRows(msgNoTicketID, false)
	}
	t, err := s.current(ctx)
	if err != nil {
		return emptyRows(s.fail("ticket_details", err))
	}
	if t.Empty() {
		return emptyRows(table.MsgNoData, false)
	}
	res := table.FilterRows(t, table.And(table.KeyEquals(s.keyColumn(t), ticketID), table.AnyCellContains(search)), page)
	if res.Total == 0 {
		return emptyRows(table.MsgNoDataForKey, false)
	}
	return models.RowsResult{Columns: res.Columns, Rows: res.Rows, Total: res.Total}
}

// MajorIncidents renvoie une page de l'onglet, filtrée par recherche.
func (s *Service) MajorIncidents(ctx context.Context, page table.Page, search string) models.RowsResult {
	t, err := s.current(ctx)
	if err != nil {
		return emptyRows(s.fail("major_incidents", err))
	}
	if t.Empty() {
		return emptyRows(table.MsgNoData, false)
	}
	res := table.FilterRows(t, table.AnyCellContains(search), page)
	return models.RowsResult{Columns: res.Columns, Rows: res.Rows, Total: res.Total}
}

func (s *Service) MajorIncidentsColumns(ctx context.Context) models.ColumnsResult {
	t, err := s.current(ctx)
	if err != nil {
		msg, _ := s.fail("major_incidents_columns", err)
		return models.ColumnsResult{Columns: []string{}, Error: msg}
	}
	if t.Empty() {
		return models.ColumnsResult{Columns: []string{}, Error: table.MsgNoData}
	}
	return models.ColumnsResult{Columns: t.Header}
}

func (s *Service) DropdownOptions(ctx context.Context) models.DropdownResult {
	d, err := s.resolver.Domains(ctx, s.settings.SheetName())
	if err != nil {
		msg, cfg := s.fail("dropdown_options", err)
		return models.DropdownResult{
			Domains:      models.Domains{CableSystem: []string{}, AffectedSegment: []string{}},
			Error:        msg,
			SheetIDError: cfg,
		}
	}
	return models.DropdownResult{Domains: d}
}

func emptySummary() models.OutageSummary {
	return models.OutageSummary{CableSystems: []string{}, RFOTypes: []string{}, Counts: map[string]map[string]int{}}
}

func (s *Service) OutageSummary(ctx context.Context) models.OutageSummaryResult {
	t, err := s.current(ctx)
	if err != nil {
		msg, cfg := s.fail("outage_summary", err)
		return models.OutageSummaryResult{OutageSummary: emptySummary(), Error: msg, SheetIDError: cfg}
	}
	if t.Empty() {
		return models.OutageSummaryResult{OutageSummary: emptySummary(), Error: table.MsgNoData}
	}
	if err := schema.ResolveColumns(t.Header).Require(models.RoleCableSystem, models.RoleRFO); err != nil {
		return models.OutageSummaryResult{OutageSummary: emptySummary(), Error: msgMissingColumns}
	}
	d, err := s.resolver.Domains(ctx, s.settings.SheetName())
	if err != nil {
		msg, cfg := s.fail("outage_summary", err)
		return models.OutageSummaryResult{OutageSummary: emptySummary(), Error: msg, SheetIDError: cfg}
	}
	summary, err := calculator.OutageSummary(t, d.CableSystem)
	if err != nil {
		return models.OutageSummaryResult{OutageSummary: emptySummary(), Error: msgMissingColumns}
	}
	return models.OutageSummaryResult{OutageSummary: summary}
}

func emptyReport() models.AvailabilityReport {
	return models.AvailabilityReport{
		CableSystems: []string{},
		Segments:     []string{},
		Years:        []int{},
		Percent:      map[string]map[string]map[int][12]float64{},
	}
}

func (s *Service) NetworkAvailability(ctx context.Context) models.AvailabilityResult {
	t, err := s.current(ctx)
	if err != nil {
		msg, cfg := s.fail("network_availability", err)
		return models.AvailabilityResult{AvailabilityReport: emptyReport(), Error: msg, SheetIDError: cfg}
	}
	if t.Empty() {
		return models.AvailabilityResult{AvailabilityReport: emptyReport(), Error: table.MsgNoData}
	}
	cols := schema.ResolveColumns(t.Header)
	if err := cols.Require(models.RoleCableSystem, models.RoleAffectedSegment,
		models.RoleStartDate, models.RoleEndDate); err != nil {
		return models.AvailabilityResult{AvailabilityReport: emptyReport(), Error: msgMissingColumns}
	}
	d, err := s.resolver.Domains(ctx, s.settings.SheetName())
	if err != nil {
		msg, cfg := s.fail("network_availability", err)
		return models.AvailabilityResult{AvailabilityReport: emptyReport(), Error: msg, SheetIDError: cfg}
	}
	report, err := calculator.ComputeAvailability(t, d, s.loc)
	if err != nil {
		return models.AvailabilityResult{AvailabilityReport: emptyReport(), Error: msgMissingColumns}
	}
	return models.AvailabilityResult{AvailabilityReport: report}
}

// CellValue lit une cellule par son adresse A1, sans cache.
func (s *Service) CellValue(ctx context.Context, sheet, a1 string) models.CellResult {
	wb, err := s.workbook(ctx)
	if err != nil {
		msg, _ := s.fail("cell_value", err)
		return models.CellResult{Error: msg}
	}
	v, err := wb.ReadCell(ctx, sheet, a1)
	if err != nil {
		msg, _ := s.fail("cell_value", err)
		return models.CellResult{Error: msg}
	}
	return models.CellResult{Value: v}
}

// AllTables lit tous les onglets du classeur, sans cache.
func (s *Service) AllTables(ctx context.Context) models.TablesResult {
	out := models.TablesResult{Tables: map[string][][]string{}}
	wb, err := s.workbook(ctx)
	if err != nil {
		out.Error, out.SheetIDError = s.fail("all_tables", err)
		return out
	}
	names, err := wb.TableNames(ctx)
	if err != nil {
		out.Error, out.SheetIDError = s.fail("all_tables", err)
		return out
	}
	for _, name := range names {
		values, err := wb.ReadAll(ctx, name)
		if err != nil {
			out.Error, out.SheetIDError = s.fail("all_tables", err)
			return out
		}
		out.Tables[name] = values
	}
	return out
}

func (s *Service) workbook(ctx context.Context) (datastore.Workbook, error) {
	id, err := s.settings.SheetID()
	if err != nil {
		return nil, err
	}
	return s.backend.Open(ctx, id)
}
