/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Timestamps cross the
  wire as RFC3339 strings and are converted into the server location on the
  way in, so calendar dates are always evaluated in that zone.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Request types carry go-playground/validator struct tags, checked in
  handlers by decodeAndValidate. Timestamp parsing happens after validation.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/tables.go: Table row types reused for holidays and schedules
*/
package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/shift-allowance/allowance"
	"github.com/warp/shift-allowance/store/sqlite"
)

// =============================================================================
// EVENTS
// =============================================================================

// EventDTO is a duty event on the wire.
type EventDTO struct {
	ID         int    `json:"id" validate:"gte=-1"`
	Title      string `json:"title"`
	Start      string `json:"start" validate:"required"`
	End        string `json:"end" validate:"required"`
	DutyTypeID int    `json:"duty_type_id" validate:"gte=0"`
}

// ComputeRequest is the body of the compute and report endpoints.
type ComputeRequest struct {
	Events []EventDTO `json:"events" validate:"dive"`
}

// RosterRequest replaces a worker's roster.
type RosterRequest struct {
	Events []EventDTO `json:"events" validate:"dive"`
}

// GenerateRequest lays a duty loop from Start. Pattern holds duty type ids,
// 0 for a rest day.
type GenerateRequest struct {
	Start   string `json:"start" validate:"required"`
	Pattern []int  `json:"pattern" validate:"required,min=1,dive,gte=0"`
	Cycles  int    `json:"cycles" validate:"required,gte=1,lte=366"`
}

// ModifyRequest adds (event_id -1), changes or clears (duty_type_id 0) a duty.
type ModifyRequest struct {
	Date       string `json:"date" validate:"required"`
	DutyTypeID *int   `json:"duty_type_id" validate:"required,gte=0"`
	EventID    int    `json:"event_id" validate:"gte=-1"`
}

// WorkersResponse lists the workers with a saved roster.
type WorkersResponse struct {
	Workers []string `json:"workers"`
}

// RosterResponse is a worker's saved events.
type RosterResponse struct {
	WorkerID string     `json:"worker_id"`
	Events   []EventDTO `json:"events"`
}

// =============================================================================
// RESULTS
// =============================================================================

// DetailDTO is one allowance piece or month aggregate.
type DetailDTO struct {
	Start       string          `json:"start"`
	End         string          `json:"end"`
	Hours       decimal.Decimal `json:"hours"`
	Description string          `json:"description,omitempty"`
}

// ComputeResponse is a computation result with its tier assessments.
type ComputeResponse struct {
	RunID       string                 `json:"run_id,omitempty"`
	Month       []DetailDTO            `json:"month"`
	Day         [][]DetailDTO          `json:"day"`
	EarnedCO    []int                  `json:"earned_co"`
	Assessments []allowance.Assessment `json:"assessments"`
}

// RunDTO is a persisted computation.
type RunDTO struct {
	ID         string           `json:"id"`
	WorkerID   string           `json:"worker_id"`
	CreatedAt  string           `json:"created_at"`
	Months     int              `json:"months"`
	TotalHours decimal.Decimal  `json:"total_hours"`
	Result     *ComputeResponse `json:"result,omitempty"`
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// CreateHolidayRequest adds or renames a holiday.
type CreateHolidayRequest struct {
	Date        string `json:"date" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// HolidayCheckResponse tells how a date is classified.
type HolidayCheckResponse struct {
	Date    string `json:"date"`
	Holiday bool   `json:"holiday"`
	Name    string `json:"name,omitempty"`
	Class   string `json:"class"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEvent(d EventDTO, loc *time.Location) (allowance.DutyEvent, error) {
	start, err := time.Parse(time.RFC3339, d.Start)
	if err != nil {
		return allowance.DutyEvent{}, fmt.Errorf("event %d: invalid start: %w", d.ID, err)
	}
	end, err := time.Parse(time.RFC3339, d.End)
	if err != nil {
		return allowance.DutyEvent{}, fmt.Errorf("event %d: invalid end: %w", d.ID, err)
	}
	return allowance.DutyEvent{
		ID:         d.ID,
		Title:      d.Title,
		Start:      start.In(loc),
		End:        end.In(loc),
		DutyTypeID: d.DutyTypeID,
	}, nil
}

func toEvents(dtos []EventDTO, loc *time.Location) ([]allowance.DutyEvent, error) {
	events := make([]allowance.DutyEvent, 0, len(dtos))
	for _, d := range dtos {
		ev, err := toEvent(d, loc)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func toEventDTOs(events []allowance.DutyEvent) []EventDTO {
	dtos := make([]EventDTO, len(events))
	for i, ev := range events {
		dtos[i] = EventDTO{
			ID:         ev.ID,
			Title:      ev.Title,
			Start:      ev.Start.Format(time.RFC3339Nano),
			End:        ev.End.Format(time.RFC3339Nano),
			DutyTypeID: ev.DutyTypeID,
		}
	}
	return dtos
}

func toDetailDTO(d allowance.Detail) DetailDTO {
	return DetailDTO{
		Start:       d.Start.Format(time.RFC3339Nano),
		End:         d.End.Format(time.RFC3339Nano),
		Hours:       d.Hours,
		Description: d.Description,
	}
}

func toComputeResponse(r allowance.ComputeResult, assessments []allowance.Assessment) *ComputeResponse {
	resp := &ComputeResponse{
		Month:       make([]DetailDTO, len(r.Month)),
		Day:         make([][]DetailDTO, len(r.Day)),
		EarnedCO:    r.EarnedCO,
		Assessments: assessments,
	}
	for i, m := range r.Month {
		resp.Month[i] = toDetailDTO(m)
	}
	for i, pieces := range r.Day {
		resp.Day[i] = make([]DetailDTO, len(pieces))
		for j, p := range pieces {
			resp.Day[i][j] = toDetailDTO(p)
		}
	}
	return resp
}

func toRunDTO(r sqlite.Run, th allowance.Thresholds, withResult bool) RunDTO {
	dto := RunDTO{
		ID:         r.ID,
		WorkerID:   r.WorkerID,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
		Months:     r.Months,
		TotalHours: r.TotalHours,
	}
	if withResult {
		dto.Result = toComputeResponse(r.Result, allowance.AssessAll(r.Result, th))
	}
	return dto
}
