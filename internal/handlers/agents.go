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

const (
	defaultWorkingHours = 40
	maxWeeklyHours      = 168
)

// agentInput: тело POST/PUT. originOrg и profile принимаются, но игнорируются:
// это поля модели чтения, UI отправляет агента целиком.
type agentInput struct {
	ID                   string             `json:"id"`
	FullName             string             `json:"fullName"`
	OriginOrgID          int                `json:"originOrgId"`
	OriginOrg            *string            `json:"originOrg"`
	ProfileID            int                `json:"profileId"`
	Profile              *string            `json:"profile"`
	KeyCompetencies      string             `json:"keyCompetencies"`
	WorkingHours         *int               `json:"workingHours"`
	AvailableForRotation *bool              `json:"availableForRotation"`
	InterviewDate        models.Date        `json:"interviewDate"`
	Status               models.AgentStatus `json:"status"`
}

func (in *agentInput) toAgent() *models.Agent {
	a := &models.Agent{
		ID:                   strings.TrimSpace(in.ID),
		FullName:             strings.TrimSpace(in.FullName),
		OriginOrgID:          in.OriginOrgID,
		ProfileID:            in.ProfileID,
		KeyCompetencies:      strings.TrimSpace(in.KeyCompetencies),
		WorkingHours:         defaultWorkingHours,
		AvailableForRotation: true,
		InterviewDate:        in.InterviewDate,
	}
	if in.WorkingHours != nil {
		a.WorkingHours = *in.WorkingHours
	}
	if in.AvailableForRotation != nil {
		a.AvailableForRotation = *in.AvailableForRotation
	}
	return a
}

// validateAgent проверяет поля анкеты
func validateAgent(a *models.Agent) error {
	if a.FullName == "" || utf8.RuneCountInString(a.FullName) > maxNameLength {
		return apperr.Validation("fullName", "fullName is required and max length 200")
	}
	if a.OriginOrgID <= 0 {
		return apperr.Validation("originOrgId", "originOrgId must be positive")
	}
	if a.ProfileID <= 0 {
		return apperr.Validation("profileId", "profileId must be positive")
	}
	if a.WorkingHours <= 0 || a.WorkingHours > maxWeeklyHours {
		return apperr.Validation("workingHours", "workingHours must be between 1 and 168")
	}
	if a.InterviewDate.IsZero() {
		return apperr.Validation("interviewDate", "interviewDate is required (YYYY-MM-DD)")
	}
	return nil
}

// GetAgentsHandler: GET /api/agents?status=&q=&limit=&offset=
func (h *Handler) GetAgentsHandler(w http.ResponseWriter, r *http.Request) {
	params, err := parsePaginationParams(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	filter := db.AgentFilter{Status: models.AgentStatus(r.URL.Query().Get("status"))}
	if filter.Status != "" && !filter.Status.Valid() {
		h.respondError(w, r, apperr.Validation("status", "status must be Available or Assigned"))
		return
	}

	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	if query == "" {
		filter.Limit, filter.Offset = params.Limit, params.Offset
	}
	agents, err := h.Store.ListAgents(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if query != "" {
		found := []models.Agent{}
		for _, a := range agents {
			if strings.Contains(strings.ToLower(a.FullName), query) ||
				strings.Contains(strings.ToLower(a.ProfileName), query) ||
				strings.Contains(strings.ToLower(a.ID), query) {
				found = append(found, a)
			}
		}
		agents = page(found, params)
	}
	httpjson.Write(w, http.StatusOK, agents)
}

func (h *Handler) GetAgentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := stringURLParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	agent, err := h.Store.GetAgent(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, agent)
}

// CreateAgentHandler: POST /api/agents. Новый агент всегда Available; занятый id даёт 409.
func (h *Handler) CreateAgentHandler(w http.ResponseWriter, r *http.Request) {
	var in agentInput
	if err := httpjson.Decode(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	if in.Status != "" && in.Status != models.AgentAvailable {
		h.respondError(w, r, apperr.Validation("status", "a new agent must be Available; status changes only through matches"))
		return
	}
	agent := in.toAgent()
	if err := validateAgent(agent); err != nil {
		h.respondError(w, r, err)
		return
	}

	err := createWithID(&agent.ID, agentIDPrefix, func() error {
		return h.Store.CreateAgent(r.Context(), agent)
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, agent)
}

// UpdateAgentHandler: PUT /api/agents/{id}. Статус можно передать, только если он не меняется.
func (h *Handler) UpdateAgentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := stringURLParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var in agentInput
	if err := httpjson.Decode(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	if in.ID != "" && strings.TrimSpace(in.ID) != id {
		h.respondError(w, r, apperr.Validation("id", "id in body does not match URL"))
		return
	}

	current, err := h.Store.GetAgent(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if in.Status != "" && in.Status != current.Status {
		h.respondError(w, r, apperr.Validation("status",
			fmt.Sprintf("status is %s and can only change through matches", current.Status)))
		return
	}

	agent := in.toAgent()
	agent.ID = id
	if in.WorkingHours == nil {
		agent.WorkingHours = current.WorkingHours
	}
	if in.AvailableForRotation == nil {
		agent.AvailableForRotation = current.AvailableForRotation
	}
	if err := validateAgent(agent); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Store.UpdateAgent(r.Context(), agent); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, agent)
}
