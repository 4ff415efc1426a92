// Package handlers exposes the roster commands as a JSON HTTP API.
package handlers

import "net/http"

// Route is one API endpoint
type Route struct {
	Path    string
	Handler http.HandlerFunc
}

// Routes lists every operator-facing API endpoint
func (h *APIHandlers) Routes() []Route {
	return []Route{
		{"/api/members", h.Members},
		{"/api/members/rename", h.RenameMember},
		{"/api/members/power", h.SetPower},
		{"/api/members/swap", h.SwapPower},
		{"/api/powers", h.PowerList},
		{"/api/carried", h.Carried},
		{"/api/excluded", h.Excluded},
		{"/api/fixed", h.Fixed},
		{"/api/settings", h.Settings},
		{"/api/available", h.Available},
		{"/api/groups", h.Groups},
		{"/api/groups/last", h.LastGroup},
		{"/api/leaders", h.Leaders},
		{"/api/leaders/remove", h.RemoveLeaders},
		{"/api/events", h.EventsSSE},
		{"/api/events/recent", h.RecentEvents},
	}
}

// DevRoutes are only registered in development
func (h *APIHandlers) DevRoutes() []Route {
	return []Route{
		{"/api/reset", h.Reset},
	}
}
