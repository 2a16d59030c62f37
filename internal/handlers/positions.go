package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"redeploy/db"
	"redeploy/internal/apperr"
	"redeploy/internal/httpjson"
	"redeploy/models"
)

type positionInput struct {
	ID                string                `json:"id"`
	RequestingOrgID   int                   `json:"requestingOrgId"`
	RequestingOrg     *string               `json:"requestingOrg"`
	RequestingArea    string                `json:"requestingArea"`
	ProfileRequiredID int                   `json:"profileRequiredId"`
	ProfileRequired   *string               `json:"profileRequired"`
	MainFunctions     string                `json:"mainFunctions"`
	HoursRequired     *int                  `json:"hoursRequired"`
	RequestDate       models.Date           `json:"requestDate"`
	Status            models.PositionStatus `json:"status"`
}

func (in *positionInput) toPosition() *models.PositionRequest {
	p := &models.PositionRequest{
		ID:                strings.TrimSpace(in.ID),
		RequestingOrgID:   in.RequestingOrgID,
		RequestingArea:    strings.TrimSpace(in.RequestingArea),
		ProfileRequiredID: in.ProfileRequiredID,
		MainFunctions:     strings.TrimSpace(in.MainFunctions),
		HoursRequired:     defaultWorkingHours,
		RequestDate:       in.RequestDate,
		Status:            in.Status,
	}
	if in.HoursRequired != nil {
		p.HoursRequired = *in.HoursRequired
	}
	return p
}

func validatePosition(p *models.PositionRequest) error {
	if p.RequestingOrgID <= 0 {
		return apperr.Validation("requestingOrgId", "requestingOrgId must be positive")
	}
	if p.RequestingArea == "" || utf8.RuneCountInString(p.RequestingArea) > maxNameLength {
		return apperr.Validation("requestingArea", "requestingArea is required and max length 200")
	}
	if p.ProfileRequiredID <= 0 {
		return apperr.Validation("profileRequiredId", "profileRequiredId must be positive")
	}
	if p.HoursRequired <= 0 || p.HoursRequired > maxWeeklyHours {
		return apperr.Validation("hoursRequired", "hoursRequired must be between 1 and 168")
	}
	if p.RequestDate.IsZero() {
		return apperr.Validation("requestDate", "requestDate is required (YYYY-MM-DD)")
	}
	return nil
}

// GetPositionsHandler: GET /api/positions?status=&limit=&offset=
func (h *Handler) GetPositionsHandler(w http.ResponseWriter, r *http.Request) {
	params, err := parsePaginationParams(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	filter := db.PositionFilter{
		Status: models.PositionStatus(r.URL.Query().Get("status")),
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		h.respondError(w, r, apperr.Validation("status", "status must be Open, Filled or Void"))
		return
	}
	positions, err := h.Store.ListPositions(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, positions)
}

func (h *Handler) GetPositionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := stringURLParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	position, err := h.Store.GetPosition(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, position)
}

// CreatePositionHandler: POST /api/positions. Заявка создаётся Open (или сразу Void), но не Filled.
func (h *Handler) CreatePositionHandler(w http.ResponseWriter, r *http.Request) {
	var in positionInput
	if err := httpjson.Decode(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	position := in.toPosition()
	if position.Status == "" {
		position.Status = models.PositionOpen
	}
	if position.Status != models.PositionOpen && position.Status != models.PositionVoid {
		h.respondError(w, r, apperr.Validation("status", "a new position request must be Open or Void"))
		return
	}
	if err := validatePosition(position); err != nil {
		h.respondError(w, r, err)
		return
	}

	err := createWithID(&position.ID, positionIDPrefix, func() error {
		return h.Store.CreatePosition(r.Context(), position)
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, position)
}

func (h *Handler) UpdatePositionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := stringURLParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var in positionInput
	if err := httpjson.Decode(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	if in.ID != "" && strings.TrimSpace(in.ID) != id {
		h.respondError(w, r, apperr.Validation("id", "id in body does not match URL"))
		return
	}

	current, err := h.Store.GetPosition(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if in.Status != "" && in.Status != current.Status {
		h.respondError(w, r, apperr.Validation("status",
			fmt.Sprintf("status is %s and can only change through matches", current.Status)))
		return
	}

	position := in.toPosition()
	position.ID = id
	position.Status = current.Status
	if in.HoursRequired == nil {
		position.HoursRequired = current.HoursRequired
	}
	if err := validatePosition(position); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Store.UpdatePosition(r.Context(), position); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, position)
}
