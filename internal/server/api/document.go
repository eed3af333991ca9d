package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/starkcad/internal/app"
	"github.com/ayusman/starkcad/internal/document"
)

// DocumentHandler exposes the CAD document.
//
//	GET    /api/document
//	GET    /api/document/{id}   solid or sketch
//	PATCH  /api/document/{id}   solids only
//	DELETE /api/document/{id}
type DocumentHandler struct {
	app *app.App
}

// NewDocumentHandler creates a DocumentHandler for the given controller.
func NewDocumentHandler(a *app.App) *DocumentHandler {
	return &DocumentHandler{app: a}
}

// ServeHTTP routes between the collection and item endpoints.
func (h *DocumentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/document")
	id := strings.TrimPrefix(path, "/")

	if id == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, id)
	case http.MethodPatch:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type documentResponse struct {
	Solids   []document.Solid  `json:"solids"`
	Sketches []document.Sketch `json:"sketches"`
}

type updateSolidRequest struct {
	Position *document.Point `json:"position"`
	Rotation *document.Point `json:"rotation"`
	Scale    *document.Point `json:"scale"`
	Color    *string         `json:"color"`
	Params   map[string]any  `json:"params"`
}

func (h *DocumentHandler) list(w http.ResponseWriter) {
	doc := h.app.Document()
	resp := documentResponse{
		Solids:   doc.Solids(),
		Sketches: doc.Sketches(),
	}
	if resp.Solids == nil {
		resp.Solids = []document.Solid{}
	}
	if resp.Sketches == nil {
		resp.Sketches = []document.Sketch{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// get returns a solid or a sketch. PATCH stays solid-only.
func (h *DocumentHandler) get(w http.ResponseWriter, id string) {
	doc := h.app.Document()
	if s, ok := doc.Solid(id); ok {
		writeJSON(w, http.StatusOK, s)
		return
	}
	if sk, ok := doc.Sketch(id); ok {
		writeJSON(w, http.StatusOK, sk)
		return
	}
	writeError(w, http.StatusNotFound, "Entity not found")
}

func (h *DocumentHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req updateSolidRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ok := h.app.UpdateSolid(id, document.SolidUpdate{
		Position: req.Position,
		Rotation: req.Rotation,
		Scale:    req.Scale,
		Color:    req.Color,
		Params:   req.Params,
	})
	if !ok {
		writeError(w, http.StatusNotFound, "Solid not found")
		return
	}

	s, _ := h.app.Document().Solid(id)
	writeJSON(w, http.StatusOK, s)
}

func (h *DocumentHandler) delete(w http.ResponseWriter, id string) {
	if !h.app.RemoveEntity(id) {
		writeError(w, http.StatusNotFound, "Entity not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
