/*
handlers.go - HTTP API handlers for the shift allowance service

PURPOSE:
  Exposes the allowance engine, duty rosters and the holiday table via REST
  API. Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Allowance:
    POST   /api/allowance/compute        Compute events from the body
    POST   /api/allowance/report         Same, as an XLSX download

  Workers:
    GET    /api/workers                       Ids of saved workers
    GET    /api/workers/{id}/roster           Saved events
    PUT    /api/workers/{id}/roster           Replace saved events
    POST   /api/workers/{id}/roster/generate  Lay a duty loop
    POST   /api/workers/{id}/roster/modify    Add / change / clear one duty
    POST   /api/workers/{id}/compute          Compute and persist a run
    GET    /api/workers/{id}/runs             Past runs
    GET    /api/runs/{id}                     One run with its result

  Tables:
    GET    /api/holidays                 Holiday table
    POST   /api/holidays                 Add or rename a holiday
    DELETE /api/holidays/{date}          Remove a holiday
    GET    /api/holidays/check?date=     Classify a date
    GET    /api/schedule                 Active rate schedule
    GET    /api/duty-types               Duty type table

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: holidays and computation runs
  - Rosters: any roster.Store (the same sqlite store in production)
  - engine: immutable snapshot, swapped whole when the holiday table changes

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, duplicate event ids
  - 404: Worker, run, event or holiday not found
  - 422: No duty to compute
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/warp/shift-allowance/allowance"
	"github.com/warp/shift-allowance/calendar"
	"github.com/warp/shift-allowance/factory"
	"github.com/warp/shift-allowance/metrics"
	"github.com/warp/shift-allowance/report"
	"github.com/warp/shift-allowance/roster"
	"github.com/warp/shift-allowance/store/sqlite"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Options are the static tables and settings a Handler serves.
type Options struct {
	Rates          *allowance.RateSchedule
	DutyTypes      roster.DutyTypes
	Thresholds     allowance.Thresholds
	Location       *time.Location
	AllowedOrigins []string
	Logger         logrus.FieldLogger

	// Rosters defaults to the sqlite store.
	Rosters roster.Store
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Rosters roster.Store

	rates          *allowance.RateSchedule
	types          roster.DutyTypes
	thresholds     allowance.Thresholds
	loc            *time.Location
	allowedOrigins []string
	log            logrus.FieldLogger
	validate       *validator.Validate

	mu     sync.RWMutex
	engine *allowance.Engine
}

// NewHandler creates a handler. The engine starts without holidays until
// LoadHolidays runs.
func NewHandler(store *sqlite.Store, opts Options) *Handler {
	h := &Handler{
		Store:          store,
		Rosters:        opts.Rosters,
		rates:          opts.Rates,
		types:          opts.DutyTypes,
		thresholds:     opts.Thresholds,
		loc:            opts.Location,
		allowedOrigins: opts.AllowedOrigins,
		log:            opts.Logger,
		validate:       validator.New(),
	}
	if h.Rosters == nil {
		h.Rosters = store
	}
	if h.loc == nil {
		h.loc = time.UTC
	}
	if h.log == nil {
		h.log = logrus.StandardLogger()
	}
	if h.thresholds.Full.IsZero() {
		h.thresholds = allowance.DefaultThresholds()
	}
	h.engine = allowance.NewEngine(calendar.NoHolidays{}, h.rates)
	return h
}

// LoadHolidays rebuilds the engine from the stored holiday table.
func (h *Handler) LoadHolidays(ctx context.Context) error {
	cal, err := h.Store.LoadCalendar(ctx)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.engine = allowance.NewEngine(cal, h.rates)
	h.mu.Unlock()
	return nil
}

// Engine returns the current engine snapshot.
func (h *Handler) Engine() *allowance.Engine {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engine
}

// =============================================================================
// ALLOWANCE HANDLERS
// =============================================================================

// Compute computes the events in the body.
// POST /api/allowance/compute
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	events, err := toEvents(req.Events, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event", err)
		return
	}

	result, err := h.compute("", events)
	if err != nil {
		writeComputeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toComputeResponse(result, allowance.AssessAll(result, h.thresholds)))
}

// Report computes the events in the body and returns a workbook.
// POST /api/allowance/report
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	events, err := toEvents(req.Events, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event", err)
		return
	}

	result, err := h.compute("", events)
	if err != nil {
		writeComputeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, result, allowance.AssessAll(result, h.thresholds)); err != nil {
		h.log.WithError(err).Error("failed to render report")
		writeError(w, http.StatusInternalServerError, "Failed to render report", err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="allowance.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// compute prunes tombstones and runs the current engine.
func (h *Handler) compute(workerID string, events []allowance.DutyEvent) (allowance.ComputeResult, error) {
	events = roster.Prune(events)

	started := time.Now()
	result, err := h.Engine().Compute(events)
	elapsed := time.Since(started)
	metrics.ObserveRun(result, elapsed, metrics.Outcome(err))

	entry := h.log.WithFields(logrus.Fields{
		"worker":   workerID,
		"events":   len(events),
		"duration": elapsed,
	})
	if err != nil {
		entry.WithError(err).Debug("compute rejected")
		return allowance.ComputeResult{}, err
	}
	entry.WithField("months", result.Months()).Info("allowance computed")
	return result, nil
}

// =============================================================================
// WORKER HANDLERS
// =============================================================================

// ListWorkers returns the ids of every worker with a saved roster.
// GET /api/workers
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Rosters.ListWorkers(r.Context())
	if err != nil {
		h.writeStoreError(w, "Failed to list workers", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, WorkersResponse{Workers: ids})
}

// GetRoster returns a worker's saved events.
// GET /api/workers/{id}/roster
func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "id")

	events, err := h.Rosters.LoadRoster(r.Context(), workerID)
	if err != nil {
		h.writeStoreError(w, "Failed to load roster", err)
		return
	}

	writeJSON(w, http.StatusOK, RosterResponse{WorkerID: workerID, Events: toEventDTOs(events)})
}

// PutRoster replaces a worker's saved events.
// PUT /api/workers/{id}/roster
func (h *Handler) PutRoster(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "id")

	var req RosterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	events, err := toEvents(req.Events, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event", err)
		return
	}
	for i, ev := range events {
		if ev.End.Before(ev.Start) {
			writeError(w, http.StatusBadRequest, "Invalid event", &allowance.EventError{Index: i, ID: ev.ID, Reason: "end before start"})
			return
		}
	}

	h.saveAndWriteRoster(r.Context(), w, workerID, events, http.StatusOK)
}

// GenerateRoster lays a duty loop and replaces the worker's roster with it.
// POST /api/workers/{id}/roster/generate
func (h *Handler) GenerateRoster(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "id")

	var req GenerateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	start, err := calendar.ParseDate(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	events, err := roster.Generate(start, req.Pattern, req.Cycles, h.types, h.loc)
	if err != nil {
		writeRosterError(w, err)
		return
	}

	h.saveAndWriteRoster(r.Context(), w, workerID, events, http.StatusCreated)
}

// ModifyRoster applies one change to the worker's roster. A worker without
// a roster starts from an empty one.
// POST /api/workers/{id}/roster/modify
func (h *Handler) ModifyRoster(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workerID := chi.URLParam(r, "id")

	var req ModifyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	events, err := h.Rosters.LoadRoster(ctx, workerID)
	if err != nil && !errors.Is(err, roster.ErrWorkerNotFound) {
		h.writeStoreError(w, "Failed to load roster", err)
		return
	}

	modified, err := roster.Modify(events, date, *req.DutyTypeID, req.EventID, h.types, h.loc)
	if err != nil {
		writeRosterError(w, err)
		return
	}

	h.saveAndWriteRoster(ctx, w, workerID, modified, http.StatusOK)
}

func (h *Handler) saveAndWriteRoster(ctx context.Context, w http.ResponseWriter, workerID string, events []allowance.DutyEvent, status int) {
	if err := h.Rosters.SaveRoster(ctx, workerID, events); err != nil {
		h.writeStoreError(w, "Failed to save roster", err)
		return
	}
	writeJSON(w, status, RosterResponse{WorkerID: workerID, Events: toEventDTOs(events)})
}

// ComputeWorker computes the worker's saved roster and persists the run.
// POST /api/workers/{id}/compute
func (h *Handler) ComputeWorker(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workerID := chi.URLParam(r, "id")

	events, err := h.Rosters.LoadRoster(ctx, workerID)
	if err != nil {
		h.writeStoreError(w, "Failed to load roster", err)
		return
	}

	result, err := h.compute(workerID, events)
	if err != nil {
		writeComputeError(w, err)
		return
	}

	run, err := h.Store.SaveRun(ctx, sqlite.Run{WorkerID: workerID, Result: result})
	if err != nil {
		h.writeStoreError(w, "Failed to save run", err)
		return
	}

	resp := toComputeResponse(result, allowance.AssessAll(result, h.thresholds))
	resp.RunID = run.ID
	writeJSON(w, http.StatusCreated, resp)
}

// ListRuns returns a worker's runs without their results.
// GET /api/workers/{id}/runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeStoreError(w, "Failed to list runs", err)
		return
	}

	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run, h.thresholds, false)
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// GetRun returns one run with its result.
// GET /api/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeStoreError(w, "Failed to get run", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(*run, h.thresholds, true))
}

// =============================================================================
// TABLE HANDLERS
// =============================================================================

// ListHolidays returns the holiday table.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		h.writeStoreError(w, "Failed to get holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"holidays": factory.HolidaysToJSON(holidays)})
}

// CreateHoliday adds a holiday, or renames the one on that date.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateHolidayRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	date, err := calendar.ParseHolidayDate(req.Date, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid holiday date", err)
		return
	}

	holiday := calendar.Holiday{Date: date, Name: req.Description}
	if err := h.Store.SaveHoliday(ctx, holiday); err != nil {
		h.writeStoreError(w, "Failed to create holiday", err)
		return
	}
	if err := h.LoadHolidays(ctx); err != nil {
		h.writeStoreError(w, "Failed to reload holidays", err)
		return
	}

	writeJSON(w, http.StatusCreated, factory.HolidayJSON{Date: date.String(), Description: holiday.Name})
}

// DeleteHoliday removes the holiday on a date.
// DELETE /api/holidays/{date}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date, err := calendar.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if err := h.Store.DeleteHoliday(ctx, date); err != nil {
		h.writeStoreError(w, "Failed to delete holiday", err)
		return
	}
	if err := h.LoadHolidays(ctx); err != nil {
		h.writeStoreError(w, "Failed to reload holidays", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// CheckHoliday classifies a date against the current table.
// GET /api/holidays/check?date=YYYY-MM-DD
func (h *Handler) CheckHoliday(w http.ResponseWriter, r *http.Request) {
	date, err := calendar.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	engine := h.Engine()
	midnight := date.Midnight(h.loc)
	name, ok := engine.Holidays().IsHoliday(midnight)

	writeJSON(w, http.StatusOK, HolidayCheckResponse{
		Date:    date.String(),
		Holiday: ok,
		Name:    name,
		Class:   engine.ClassOfDate(midnight).String(),
	})
}

// GetSchedule returns the active rate schedule.
// GET /api/schedule
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"timezone":   h.loc.String(),
		"entries":    factory.RateScheduleToJSON(h.Engine().Rates()),
		"thresholds": h.thresholds,
	})
}

// ListDutyTypes returns the duty type table.
// GET /api/duty-types
func (h *Handler) ListDutyTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"duty_types": factory.DutyTypesToJSON(h.types)})
}

// Health reports whether the database is reachable.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeComputeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, allowance.ErrNoDuty):
		writeError(w, http.StatusUnprocessableEntity, "No duty configured", err)
	case allowance.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid event", err)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to compute allowance", err)
	}
}

func writeRosterError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, roster.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "Event not found", err)
	case roster.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid roster change", err)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to change roster", err)
	}
}

func (h *Handler) writeStoreError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, roster.ErrWorkerNotFound),
		errors.Is(err, sqlite.ErrRunNotFound),
		errors.Is(err, sqlite.ErrHolidayNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, roster.ErrDuplicateEvent):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.log.WithError(err).Error(message)
		writeError(w, http.StatusInternalServerError, message, errors.New("internal error"))
	}
}
