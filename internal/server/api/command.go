package api

import (
	"net/http"

	"github.com/ayusman/starkcad/internal/app"
	"github.com/ayusman/starkcad/internal/interaction"
)

// CommandHandler accepts operation descriptors from an external command
// interpreter at POST /api/command.
type CommandHandler struct {
	app *app.App
}

// NewCommandHandler creates a CommandHandler for the given controller.
func NewCommandHandler(a *app.App) *CommandHandler {
	return &CommandHandler{app: a}
}

type commandResponse struct {
	Applied bool   `json:"applied"`
	ID      string `json:"id,omitempty"`
}

// ServeHTTP applies one command. Commands the core does not act on are
// acknowledged with applied=false rather than rejected.
func (h *CommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	cmd, err := interaction.DecodeCommand(body)
	if err != nil {
		h.app.Metrics().Command("invalid")
		writeError(w, http.StatusBadRequest, "Invalid command")
		return
	}

	id, ok := h.app.ApplyCommand(cmd)
	writeJSON(w, http.StatusOK, commandResponse{Applied: ok, ID: id})
}
