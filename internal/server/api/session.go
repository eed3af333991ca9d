package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/starkcad/internal/app"
	"github.com/ayusman/starkcad/internal/interaction"
)

// SessionHandler serves the interaction session: state, tool, selection and
// tracking.
//
//	GET    /api/state
//	GET    /api/tool          PUT /api/tool      {"tool": "SKETCH_LINE"}
//	GET    /api/selection     PUT /api/selection {"ids": [...]}
//	DELETE /api/selection
//	GET    /api/tracking      PUT /api/tracking  {"enabled": true}
type SessionHandler struct {
	app *app.App
}

// NewSessionHandler creates a SessionHandler for the given controller.
func NewSessionHandler(a *app.App) *SessionHandler {
	return &SessionHandler{app: a}
}

// ServeHTTP routes requests by path and method.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/state":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, h.app.State())
	case "/api/tool":
		h.tool(w, r)
	case "/api/selection":
		h.selection(w, r)
	case "/api/tracking":
		h.tracking(w, r)
	default:
		http.NotFound(w, r)
	}
}

type toolRequest struct {
	Tool string `json:"tool"`
}

type toolResponse struct {
	Tool  interaction.ToolMode   `json:"tool"`
	Tools []interaction.ToolMode `json:"tools"`
}

func (h *SessionHandler) tool(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req toolRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		tool, err := interaction.ParseTool(req.Tool)
		if err != nil {
			if errors.Is(err, interaction.ErrUnknownTool) {
				writeError(w, http.StatusBadRequest, "Unknown tool: "+req.Tool)
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to set tool")
			return
		}
		h.app.SetTool(tool)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, toolResponse{
		Tool:  h.app.State().Tool,
		Tools: interaction.ToolModes(),
	})
}

type selectionRequest struct {
	IDs []string `json:"ids"`
}

type selectionResponse struct {
	Selection []string `json:"selection"`
}

type deleteResponse struct {
	Removed int `json:"removed"`
}

func (h *SessionHandler) selection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req selectionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		h.app.Select(req.IDs...)
	case http.MethodDelete:
		writeJSON(w, http.StatusOK, deleteResponse{Removed: h.app.DeleteSelection()})
		return
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sel := h.app.State().Selection
	if sel == nil {
		sel = []string{}
	}
	writeJSON(w, http.StatusOK, selectionResponse{Selection: sel})
}

type trackingRequest struct {
	Enabled *bool `json:"enabled"`
}

type trackingResponse struct {
	Enabled bool `json:"enabled"`
}

func (h *SessionHandler) tracking(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req trackingRequest
		if err := decodeJSON(w, r, &req); err != nil || req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		if err := h.app.SetTracking(*req.Enabled); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, trackingResponse{Enabled: h.app.Tracking()})
}
