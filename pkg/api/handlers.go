package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"incidents-dashboard/pkg/models"
	"incidents-dashboard/pkg/table"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Pagination par défaut de la vue des incidents.
const (
	defaultPage     = 1
	defaultPageSize = 10
	maxBodyBytes    = 1 << 20
)

type ticketRequest struct {
	TicketID string `json:"ticketId" validate:"max=256"`
}

type rowRequest struct {
	Row []string `json:"row" validate:"max=256"`
}

type ticketIDsRequest struct {
	TicketIDs []string `json:"ticketIds" validate:"max=10000"`
}

type positionsRequest struct {
	Positions []int `json:"positions" validate:"max=10000"`
}

type sheetIDRequest struct {
	SheetID string `json:"sheetId" validate:"max=256"`
}

type sheetNameRequest struct {
	SheetName string `json:"sheetName" validate:"max=100"`
}

type exportRequest struct {
	Format  string          `json:"format" validate:"required"`
	Options json.RawMessage `json:"options"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// decode lit et valide le corps JSON. Renvoie false après avoir répondu 400.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		badRequest(w, "Invalid request body.")
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			badRequest(w, fmt.Sprintf("Invalid request: %s failed on %q.", verrs[0].Field(), verrs[0].Tag()))
			return false
		}
		badRequest(w, "Invalid request body.")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}

func pathInt(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, key))
	if err != nil {
		badRequest(w, fmt.Sprintf("Invalid %s.", key))
		return 0, false
	}
	return v, true
}

func pageOf(r *http.Request, defNumber, defSize int) table.Page {
	return table.Page{
		Number: queryInt(r, "page", defNumber),
		Size:   queryInt(r, "pageSize", defSize),
	}
}

func (h *handler) listTickets(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.TicketList(r.Context(), r.URL.Query().Get("search"), pageOf(r, 0, 0))
	if err != nil {
		h.logger.Error("list tickets", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *handler) ticketDetails(w http.ResponseWriter, r *http.Request) {
	res := h.svc.TicketDetails(r.Context(), chi.URLParam(r, "ticketID"), pageOf(r, 0, 0), r.URL.Query().Get("search"))
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) addTicket(w http.ResponseWriter, r *http.Request) {
	var req ticketRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.AddTicket(r.Context(), req.TicketID))
}

func (h *handler) addTicketRow(w http.ResponseWriter, r *http.Request) {
	var req rowRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.AddTicketRow(r.Context(), chi.URLParam(r, "ticketID"), req.Row))
}

func (h *handler) editTicketRow(w http.ResponseWriter, r *http.Request) {
	rank, ok := pathInt(w, r, "rank")
	if !ok {
		return
	}
	var req rowRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.EditTicketRow(r.Context(), chi.URLParam(r, "ticketID"), rank, req.Row))
}

func (h *handler) deleteTickets(w http.ResponseWriter, r *http.Request) {
	var req ticketIDsRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.DeleteTickets(r.Context(), req.TicketIDs))
}

func (h *handler) deleteTicketRows(w http.ResponseWriter, r *http.Request) {
	var req positionsRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.DeleteTicketRows(r.Context(), chi.URLParam(r, "ticketID"), req.Positions))
}

func (h *handler) majorIncidents(w http.ResponseWriter, r *http.Request) {
	res := h.svc.MajorIncidents(r.Context(), pageOf(r, defaultPage, defaultPageSize), r.URL.Query().Get("search"))
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) majorIncidentsColumns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.MajorIncidentsColumns(r.Context()))
}

func (h *handler) addRow(w http.ResponseWriter, r *http.Request) {
	var req rowRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.AddRow(r.Context(), req.Row))
}

func (h *handler) editRow(w http.ResponseWriter, r *http.Request) {
	index, ok := pathInt(w, r, "index")
	if !ok {
		return
	}
	var req rowRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.EditRow(r.Context(), index, req.Row))
}

func (h *handler) deleteRows(w http.ResponseWriter, r *http.Request) {
	var req positionsRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.DeleteRows(r.Context(), req.Positions))
}

func (h *handler) outageSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.OutageSummary(r.Context()))
}

func (h *handler) networkAvailability(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.NetworkAvailability(r.Context()))
}

func (h *handler) dropdownOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.DropdownOptions(r.Context()))
}

func (h *handler) allTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.AllTables(r.Context()))
}

func (h *handler) cellValue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.CellValue(r.Context(), chi.URLParam(r, "sheet"), chi.URLParam(r, "cell")))
}

func (h *handler) currentSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.CurrentSettings(r.Context()))
}

func (h *handler) setSheetID(w http.ResponseWriter, r *http.Request) {
	var req sheetIDRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.SetSheetID(req.SheetID))
}

func (h *handler) removeSheetID(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.RemoveSheetID())
}

func (h *handler) setSheetName(w http.ResponseWriter, r *http.Request) {
	var req sheetNameRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.SetSheetName(r.Context(), req.SheetName))
}

type resetResponse struct {
	models.MutationResult
	Settings models.SettingsResult `json:"settings"`
}

func (h *handler) resetSheetName(w http.ResponseWriter, r *http.Request) {
	cur, res := h.svc.ResetSheetName(r.Context())
	writeJSON(w, http.StatusOK, resetResponse{MutationResult: res, Settings: cur})
}

func (h *handler) export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Export(r.Context(), chi.URLParam(r, "report"), req.Format, req.Options))
}
