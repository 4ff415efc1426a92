package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Billy-Davies-2/teamforge/internal/auth"
	"github.com/Billy-Davies-2/teamforge/internal/commands"
	"github.com/Billy-Davies-2/teamforge/internal/dal"
	"github.com/Billy-Davies-2/teamforge/internal/formation"
	"github.com/Billy-Davies-2/teamforge/internal/logger"
	"github.com/Billy-Davies-2/teamforge/internal/models"
	"github.com/Billy-Davies-2/teamforge/internal/pubsub"
)

// EventSource is the bus the SSE endpoint subscribes to
type EventSource interface {
	Subscribe() chan pubsub.Event
	Unsubscribe(chan pubsub.Event)
}

// APIHandlers contains all API handler methods
type APIHandlers struct {
	svc     *commands.Service
	events  EventSource
	history *pubsub.History
}

// NewAPIHandlers creates a new API handlers instance. history may be nil.
func NewAPIHandlers(svc *commands.Service, events EventSource, history *pubsub.History) *APIHandlers {
	return &APIHandlers{
		svc:     svc,
		events:  events,
		history: history,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, dal.ErrPlayerNotFound), errors.Is(err, commands.ErrNoFormation):
		return http.StatusNotFound
	case errors.Is(err, dal.ErrPlayerExists):
		return http.StatusConflict
	case errors.Is(err, commands.ErrInvalidName),
		errors.Is(err, commands.ErrInvalidPower),
		errors.Is(err, commands.ErrInvalidProbability),
		errors.Is(err, commands.ErrInvalidCap),
		errors.Is(err, commands.ErrNoNames),
		errors.Is(err, models.ErrUnknownProfession),
		errors.Is(err, formation.ErrInvalidStrategy),
		errors.Is(err, formation.ErrCarryListEmpty):
		return http.StatusBadRequest
	case formation.StatusOf(err) != "":
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Warn("Failed to decode request", "path", r.URL.Path, "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// Members lists the roster (GET), adds a member (POST) or removes one (DELETE ?name=)
func (h *APIHandlers) Members(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		res, err := h.svc.MemberList()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case http.MethodPost:
		var req struct {
			Name       string `json:"name"`
			Profession string `json:"profession"`
			Power      int    `json:"power"`
		}
		if !decode(w, r, &req) {
			return
		}
		logger.Info("Adding member", "name", req.Name, "profession", req.Profession)
		res, err := h.svc.AddMember(req.Name, req.Profession, req.Power)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	case http.MethodDelete:
		name := r.URL.Query().Get("name")
		logger.Info("Removing member", "name", name)
		res, err := h.svc.RemoveMember(name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	default:
		methodNotAllowed(w)
	}
}

// RenameMember changes a member's name
func (h *APIHandlers) RenameMember(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		OldName string `json:"oldName"`
		NewName string `json:"newName"`
	}
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.RenameMember(req.OldName, req.NewName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SetPower updates a member's power
func (h *APIHandlers) SetPower(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Name  string `json:"name"`
		Power int    `json:"power"`
	}
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.SetPower(req.Name, req.Power)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SwapPower exchanges the powers of two members
func (h *APIHandlers) SwapPower(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		A string `json:"a"`
		B string `json:"b"`
	}
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.SwapPower(req.A, req.B)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// PowerList returns the power rankings
func (h *APIHandlers) PowerList(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.PowerList()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Reset restores the seeded roster
func (h *APIHandlers) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	logger.Info("Resetting roster", "operator_id", auth.OperatorID(r))
	if err := h.svc.Reset(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
