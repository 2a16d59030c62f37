package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"redeploy/internal/apperr"
	"redeploy/internal/httpjson"
	"redeploy/models"
)

const maxNameLength = 200

type catalogInput struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func decodeCatalogInput(w http.ResponseWriter, r *http.Request) (string, error) {
	var in catalogInput
	if err := httpjson.Decode(w, r, &in); err != nil {
		return "", err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return "", apperr.Validation("name", "name is required and max length 200")
	}
	return name, nil
}

// GetOrganizationsHandler: GET /api/organizations
func (h *Handler) GetOrganizationsHandler(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.Store.ListOrganizations(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, orgs)
}

func (h *Handler) GetOrganizationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := intURLParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	org, err := h.Store.GetOrganization(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, org)
}

func (h *Handler) CreateOrganizationHandler(w http.ResponseWriter, r *http.Request) {
	name, err := decodeCatalogInput(w, r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	org := &models.Organization{Name: name}
	if err := h.Store.CreateOrganization(r.Context(), org); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, org)
}

func (h *Handler) UpdateOrganizationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := intURLParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	name, err := decodeCatalogInput(w, r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	org := &models.Organization{ID: id, Name: name}
	if err := h.Store.UpdateOrganization(r.Context(), org); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, org)
}

// DeleteOrganizationHandler: удаление запрещено, пока на организацию ссылаются агенты или заявки
func (h *Handler) DeleteOrganizationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := intURLParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Store.DeleteOrganization(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetProfilesHandler(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Store.ListProfiles(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, profiles)
}

func (h *Handler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	id, err := intURLParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	profile, err := h.Store.GetProfile(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, profile)
}

func (h *Handler) CreateProfileHandler(w http.ResponseWriter, r *http.Request) {
	name, err := decodeCatalogInput(w, r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	profile := &models.FunctionalProfile{Name: name}
	if err := h.Store.CreateProfile(r.Context(), profile); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, profile)
}

func (h *Handler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	id, err := intURLParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	name, err := decodeCatalogInput(w, r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	profile := &models.FunctionalProfile{ID: id, Name: name}
	if err := h.Store.UpdateProfile(r.Context(), profile); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, profile)
}

func (h *Handler) DeleteProfileHandler(w http.ResponseWriter, r *http.Request) {
	id, err := intURLParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Store.DeleteProfile(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
