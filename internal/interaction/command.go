package interaction

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ayusman/starkcad/internal/document"
)

// OpCreateSolid is the only command operation the core acts on.
const OpCreateSolid = "CREATE_SOLID"

// Command is an operation descriptor produced by an external interpreter.
type Command struct {
	Operation   string         `json:"operation"`
	Parameters  map[string]any `json:"parameters"`
	Explanation string         `json:"explanation,omitempty"`
}

// DecodeCommand parses a JSON command descriptor.
func DecodeCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	return cmd, nil
}

// commandPlacement is where command-created solids appear.
var commandPlacement = document.Point{X: 0, Y: 2, Z: 0}

// Apply executes a command descriptor. Unknown operations and malformed
// parameters are ignored; the boolean reports whether anything was created.
func (m *Machine) Apply(cmd Command) (string, bool) {
	if cmd.Operation != OpCreateSolid || m.doc == nil {
		return "", false
	}

	kind, ok := solidKind(cmd.Parameters)
	if !ok {
		return "", false
	}

	color := "white"
	if c, ok := cmd.Parameters["color"].(string); ok && c != "" {
		color = c
	}

	params := make(map[string]any, len(cmd.Parameters))
	for k, v := range cmd.Parameters {
		params[k] = v
	}

	id := m.doc.AddSolid(document.Solid{
		Kind:     kind,
		Position: commandPlacement,
		Scale:    document.Point{X: 1, Y: 1, Z: 1},
		Params:   params,
		Color:    color,
	})
	return id, true
}

func solidKind(params map[string]any) (document.SolidKind, bool) {
	raw, ok := params["type"].(string)
	if !ok {
		return "", false
	}
	switch kind := document.SolidKind(strings.ToUpper(raw)); kind {
	case document.SolidCube, document.SolidSphere:
		return kind, true
	default:
		return "", false
	}
}
