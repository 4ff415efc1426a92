package handlers

import (
	"net/http"

	"github.com/Billy-Davies-2/teamforge/internal/auth"
	"github.com/Billy-Davies-2/teamforge/internal/commands"
	"github.com/Billy-Davies-2/teamforge/internal/logger"
)

type namesRequest struct {
	Names string `json:"names"`
}

// listHandler serves POST (add names) and DELETE (clear) for one operator list
func (h *APIHandlers) listHandler(
	add func(op string, names []string) (*commands.BatchResult, error),
	clear func(op string) (*commands.ClearResult, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op := auth.OperatorID(r)
		switch r.Method {
		case http.MethodPost:
			var req namesRequest
			if !decode(w, r, &req) {
				return
			}
			res, err := add(op, commands.SplitNames(req.Names))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, res)
		case http.MethodDelete:
			res, err := clear(op)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, res)
		default:
			methodNotAllowed(w)
		}
	}
}

// Carried is set_carried (POST) and clear_carried (DELETE)
func (h *APIHandlers) Carried(w http.ResponseWriter, r *http.Request) {
	h.listHandler(h.svc.SetCarried, h.svc.ClearCarried)(w, r)
}

// Excluded is exclude_member (POST) and clear_excluded (DELETE)
func (h *APIHandlers) Excluded(w http.ResponseWriter, r *http.Request) {
	h.listHandler(h.svc.ExcludeMembers, h.svc.ClearExcluded)(w, r)
}

// Fixed is fix_team (POST) and clear_fixed (DELETE)
func (h *APIHandlers) Fixed(w http.ResponseWriter, r *http.Request) {
	op := auth.OperatorID(r)
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Fixed     string `json:"fixed"`
			Preferred string `json:"preferred"`
		}
		if !decode(w, r, &req) {
			return
		}
		res, err := h.svc.FixTeam(op, commands.SplitNames(req.Fixed), commands.SplitNames(req.Preferred))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case http.MethodDelete:
		res, err := h.svc.ClearFixed(op)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	default:
		methodNotAllowed(w)
	}
}

// Settings shows the operator configuration (GET) or stores formation defaults (POST)
func (h *APIHandlers) Settings(w http.ResponseWriter, r *http.Request) {
	op := auth.OperatorID(r)
	switch r.Method {
	case http.MethodGet:
		res, err := h.svc.OperatorConfig(op)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case http.MethodPost:
		var req commands.Settings
		if !decode(w, r, &req) {
			return
		}
		res, err := h.svc.SetFormationDefaults(op, req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	default:
		methodNotAllowed(w)
	}
}

// Available is check_available
func (h *APIHandlers) Available(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.CheckAvailable(auth.OperatorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Groups is auto_create_group. Formation failures still return the rendered message.
func (h *APIHandlers) Groups(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req commands.FormRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	req.OperatorID = auth.OperatorID(r)

	logger.Info("Forming groups", "operator_id", req.OperatorID, "strategy", req.Strategy)
	entry, err := h.svc.Form(r.Context(), req)
	if err != nil && entry == nil {
		writeError(w, err)
		return
	}
	if err != nil {
		writeJSON(w, statusFor(err), entry)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// LastGroup is last_group
func (h *APIHandlers) LastGroup(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.LastGroup(r.Context(), auth.OperatorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Leaders lists (GET) or adds (POST) leader candidates
func (h *APIHandlers) Leaders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		res, err := h.svc.LeaderList()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case http.MethodPost:
		var req namesRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := h.svc.AddLeaderCandidates(commands.SplitNames(req.Names))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	default:
		methodNotAllowed(w)
	}
}

// RemoveLeaders is remove_leader_candidate
func (h *APIHandlers) RemoveLeaders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req namesRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.RemoveLeaderCandidates(commands.SplitNames(req.Names))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
