// Package v1 implements the v1 HTTP API of the consortium backend.
package v1

import (
	"github.com/consorcio/backend/internal/engine"
)

// Controller serves the v1 API. Reads and writes of plain resources use
// models.DB directly, all schedule and contemplation logic goes through
// the Engine.
type Controller struct {
	Engine *engine.Engine
}

func New(e *engine.Engine) Controller {
	return Controller{Engine: e}
}
