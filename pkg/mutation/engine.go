// Package mutation écrit dans l'onglet configuré : ajout, modification et suppression
// de lignes, avec validation des listes déroulantes et invalidation du cache.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"incidents-dashboard/pkg/datastore"
	"incidents-dashboard/pkg/metrics"
	"incidents-dashboard/pkg/models"
	"incidents-dashboard/pkg/schema"
)

// Settings fournit le classeur et l'onglet cibles.
type Settings interface {
	SheetID() (string, error)
	SheetName() string
}

// Invalidator retire un onglet du cache de lecture.
type Invalidator interface {
	Invalidate(name string)
}

// DomainSource fournit les listes déroulantes de l'onglet.
type DomainSource interface {
	Domains(ctx context.Context, name string) (models.Domains, error)
}

type Engine struct {
	Backend  datastore.Backend
	Settings Settings
	Cache    Invalidator
	Domains  DomainSource
	Logger   *slog.Logger
}

// sheet est l'état frais de l'onglet au moment de l'écriture.
type sheet struct {
	wb     datastore.Workbook
	name   string
	table  models.Table
	cols   schema.Columns
	keyCol int
}

func (s *sheet) width() int {
	return len(s.table.Header)
}

// gridRow convertit un index de ligne de données en ligne de grille (en-tête = 0).
func gridRow(dataIndex int) int {
	return dataIndex + 1
}

// open relit l'onglet sans passer par le cache : les positions doivent être exactes.
func (e *Engine) open(ctx context.Context) (*sheet, error) {
	id, err := e.Settings.SheetID()
	if err != nil {
		return nil, err
	}
	name := e.Settings.SheetName()
	wb, err := e.Backend.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	values, err := wb.ReadAll(ctx, name)
	if err != nil {
		return nil, err
	}
	t := models.NewTable(values)
	cols := schema.ResolveColumns(t.Header)
	keyCol, ok := cols.Index(models.RoleTicketID)
	if !ok {
		keyCol = 0
	}
	return &sheet{wb: wb, name: name, table: t, cols: cols, keyCol: keyCol}, nil
}

// validate rogne les cellules, ajuste la ligne à la largeur de l'en-tête et vérifie
// les colonnes contraintes. Une cellule vide n'est pas contrôlée.
func (e *Engine) validate(ctx context.Context, s *sheet, row []string) ([]string, error) {
	out := models.FitRow(row, s.width())
	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	var domains *models.Domains
	for _, role := range []models.Role{models.RoleCableSystem, models.RoleAffectedSegment} {
		col, ok := s.cols.Index(role)
		if !ok || out[col] == "" {
			continue
		}
		if domains == nil {
			d, err := e.Domains.Domains(ctx, s.name)
			if err != nil {
				return nil, err
			}
			domains = &d
		}
		allowed := domains.For(role)
		if !models.Contains(allowed, out[col]) {
			return nil, models.NotInDomain(role, allowed)
		}
	}
	return out, nil
}

// rowsForKey renvoie les index de données des lignes dont la clé vaut id, de haut en bas.
func (s *sheet) rowsForKey(id string) []int {
	var out []int
	for r := range s.table.Rows {
		if strings.TrimSpace(s.table.Cell(r, s.keyCol)) == id {
			out = append(out, r)
		}
	}
	return out
}

// done invalide le cache dès qu'une écriture a pu avoir lieu (s non nil), puis
// compte et journalise le résultat.
func (e *Engine) done(s *sheet, op string, err error) error {
	if s != nil {
		e.Cache.Invalidate(s.name)
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrNotFound):
		outcome = "rejected"
	default:
		outcome = "error"
	}
	metrics.RecordMutation(op, outcome)
	if e.Logger != nil {
		if err != nil {
			e.Logger.Warn("mutation failed", "op", op, "error", err)
		} else {
			e.Logger.Info("mutation applied", "op", op, "sheet", s.name)
		}
	}
	return err
}

func (e *Engine) appendRow(ctx context.Context, s *sheet, row []string) error {
	if err := s.wb.AppendRow(ctx, s.name, row); err != nil {
		return models.ExternalStore("append row", err)
	}
	return nil
}

// AddTicket ajoute une ligne ne contenant que l'identifiant, s'il n'existe pas déjà.
func (e *Engine) AddTicket(ctx context.Context, ticketID string) error {
	const op = "add_ticket"
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return e.done(nil, op, models.Invalid("Ticket ID required."))
	}
	s, err := e.open(ctx)
	if err != nil {
		return e.done(nil, op, err)
	}
	if len(s.rowsForKey(ticketID)) > 0 {
		return e.done(nil, op, models.Invalid("Ticket ID already exists."))
	}
	row := make([]string, s.width())
	if s.keyCol >= len(row) {
		row = models.FitRow(row, s.keyCol+1)
	}
	row[s.keyCol] = ticketID
	return e.done(s, op, e.appendRow(ctx, s, row))
}

// AddTicketRow ajoute une ligne de détail rattachée au ticket.
func (e *Engine) AddTicketRow(ctx context.Context, ticketID string, row []string) error {
	const op = "add_ticket_row"
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return e.done(nil, op, models.Invalid("Ticket ID required."))
	}
	s, err := e.open(ctx)
	if err != nil {
		return e.done(nil, op, err)
	}
	out, err := e.validate(ctx, s, row)
	if err != nil {
		return e.done(nil, op, err)
	}
	if s.keyCol < len(out) {
		out[s.keyCol] = ticketID
	}
	return e.done(s, op, e.appendRow(ctx, s, out))
}

// AddRow ajoute une ligne complète.
func (e *Engine) AddRow(ctx context.Context, row []string) error {
	const op = "add_row"
	if len(row) == 0 {
		return e.done(nil, op, models.Invalid("Invalid input data."))
	}
	s, err := e.open(ctx)
	if err != nil {
		return e.done(nil, op, err)
	}
	out, err := e.validate(ctx, s, row)
	if err != nil {
		return e.done(nil, op, err)
	}
	return e.done(s, op, e.appendRow(ctx, s, out))
}

// write met à jour les cellules modifiées de la ligne de données index.
func (e *Engine) write(ctx context.Context, s *sheet, index int, row []string) error {
	current := models.FitRow(s.table.Rows[index], s.width())
	for c, v := range row {
		if current[c] == v {
			continue
		}
		if err := s.wb.UpdateCell(ctx, s.name, gridRow(index), c, v); err != nil {
			return models.ExternalStore("update cell", err)
		}
	}
	return nil
}

// EditTicketRow remplace la rank-ième ligne (à partir de 0) du ticket.
func (e *Engine) EditTicketRow(ctx context.Context, ticketID string, rank int, row []string) error {
	const op = "edit_ticket_row"
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return e.done(nil, op, models.Invalid("Ticket ID required."))
	}
	s, err := e.open(ctx)
	if err != nil {
		return e.done(nil, op, err)
	}
	matches := s.rowsForKey(ticketID)
	if rank < 0 || rank >= len(matches) {
		return e.done(nil, op, models.NotFoundf("Row not found."))
	}
	out, err := e.validate(ctx, s, row)
	if err != nil {
		return e.done(nil, op, err)
	}
	return e.done(s, op, e.write(ctx, s, matches[rank], out))
}

// EditRow remplace la ligne de données à la position index (à partir de 0).
func (e *Engine) EditRow(ctx context.Context, index int, row []string) error {
	const op = "edit_row"
	s, err := e.open(ctx)
	if err != nil {
		return e.done(nil, op, err)
	}
	if index < 0 || index >= len(s.table.Rows) {
		return e.done(nil, op, models.NotFoundf("Row not found."))
	}
	out, err := e.validate(ctx, s, row)
	if err != nil {
		return e.done(nil, op, err)
	}
	return e.done(s, op, e.write(ctx, s, index, out))
}

// deleteBottomUp supprime les lignes de données en partant du bas, pour que les
// positions restantes ne bougent pas.
func (e *Engine) deleteBottomUp(ctx context.Context, s *sheet, indices []int) error {
	sort.Sort(sort.Reverse(sort.IntSlice(indices)))
	for _, i := range indices {
		if err := s.wb.DeleteRow(ctx, s.name, gridRow(i)); err != nil {
			return models.ExternalStore(fmt.Sprintf("delete row %d", gridRow(i)+1), err)
		}
	}
	return nil
}

// DeleteTickets supprime toutes les lignes des tickets donnés.
func (e *Engine) DeleteTickets(ctx context.Context, ticketIDs []string) error {
	const op = "delete_tickets"
	if len(ticketIDs) == 0 {
		return e.done(nil, op, models.Invalid("No tickets selected."))
	}
	s, err := e.open(ctx)
	if err != nil {
		return e.done(nil, op, err)
	}
	var indices []int
	seen := map[string]bool{}
	for _, id := range ticketIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		indices = append(indices, s.rowsForKey(id)...)
	}
	return e.done(s, op, e.deleteBottomUp(ctx, s, indices))
}

// DeleteTicketRows supprime des lignes du ticket désignées par leur rang.
func (e *Engine) DeleteTicketRows(ctx context.Context, ticketID string, ranks []int) error {
	const op = "delete_ticket_rows"
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" || len(ranks) == 0 {
		return e.done(nil, op, models.Invalid("Invalid input."))
	}
	s, err := e.open(ctx)
	if err != nil {
		return e.done(nil, op, err)
	}
	matches := s.rowsForKey(ticketID)
	var indices []int
	seen := map[int]bool{}
	for _, rank := range ranks {
		if rank < 0 || rank >= len(matches) {
			return e.done(nil, op, models.NotFoundf("Row not found."))
		}
		if !seen[rank] {
			seen[rank] = true
			indices = append(indices, matches[rank])
		}
	}
	return e.done(s, op, e.deleteBottomUp(ctx, s, indices))
}

// DeleteRows supprime des lignes de données par position. Toutes les positions sont
// vérifiées avant la première suppression.
func (e *Engine) DeleteRows(ctx context.Context, indices []int) error {
	const op = "delete_rows"
	if len(indices) == 0 {
		return e.done(nil, op, models.Invalid("No rows specified for deletion."))
	}
	s, err := e.open(ctx)
	if err != nil {
		return e.done(nil, op, err)
	}
	var unique []int
	seen := map[int]bool{}
	for _, i := range indices {
		if i < 0 || i >= len(s.table.Rows) {
			return e.done(nil, op, models.Invalid(fmt.Sprintf("Invalid row index: %d", i)))
		}
		if !seen[i] {
			seen[i] = true
			unique = append(unique, i)
		}
	}
	return e.done(s, op, e.deleteBottomUp(ctx, s, unique))
}
