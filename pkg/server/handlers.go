package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"citadel-sec/citadel/pkg/policy"
)

// policyHandler serves the /v1/policies routes.
type policyHandler struct {
	manager *policy.Manager
	logger  *slog.Logger
}

func newPolicyHandler(manager *policy.Manager, logger *slog.Logger) *policyHandler {
	return &policyHandler{manager: manager, logger: logger}
}

// errorResponse is the JSON body returned for every error status.
type errorResponse struct {
	Error string `json:"error"`
}

// validityResponse is the body of GET /v1/policies/{name}/valid.
type validityResponse struct {
	Name  string `json:"name"`
	Valid bool   `json:"valid"`
}

// handleCollection serves /v1/policies: GET searches by prefix, POST adds
// a policy.
func (h *policyHandler) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.search(w, r)
	case http.MethodPost:
		h.add(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleItem serves /v1/policies/{name} and /v1/policies/{name}/valid.
func (h *policyHandler) handleItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/policies/")
	if rest == "" {
		writeError(w, http.StatusNotFound, "policy name missing")
		return
	}

	if name, ok := strings.CutSuffix(rest, "/valid"); ok {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.checkValid(w, r, name)
		return
	}

	if strings.Contains(rest, "/") {
		writeError(w, http.StatusNotFound, "unknown path")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.read(w, r, rest)
	case http.MethodPut:
		h.update(w, r, rest)
	case http.MethodDelete:
		h.delete(w, r, rest)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *policyHandler) search(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	matches, err := h.manager.Search(r.Context(), prefix)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (h *policyHandler) add(w http.ResponseWriter, r *http.Request) {
	var p policy.PasswordPolicy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.manager.Add(r.Context(), &p); err != nil {
		h.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, &p)
}

func (h *policyHandler) read(w http.ResponseWriter, r *http.Request, name string) {
	p, err := h.manager.Read(r.Context(), name)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *policyHandler) update(w http.ResponseWriter, r *http.Request, name string) {
	var p policy.PasswordPolicy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	// The path, not the body, names the policy being updated.
	p.Name = name

	if err := h.manager.Update(r.Context(), &p); err != nil {
		h.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &p)
}

func (h *policyHandler) delete(w http.ResponseWriter, r *http.Request, name string) {
	err := h.manager.Delete(r.Context(), &policy.PasswordPolicy{Name: name})
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *policyHandler) checkValid(w http.ResponseWriter, r *http.Request, name string) {
	writeJSON(w, http.StatusOK, validityResponse{
		Name:  name,
		Valid: h.manager.IsValid(name),
	})
}

// writeManagerError maps the policy error taxonomy onto HTTP statuses.
func (h *policyHandler) writeManagerError(w http.ResponseWriter, err error) {
	var verr *policy.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Error())
		return
	}
	var nf *policy.NotFoundError
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, nf.Error())
		return
	}
	var ae *policy.AlreadyExistsError
	if errors.As(err, &ae) {
		writeError(w, http.StatusConflict, ae.Error())
		return
	}

	h.logger.Error("store operation failed", "error", err)
	writeError(w, http.StatusBadGateway, "store operation failed")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
