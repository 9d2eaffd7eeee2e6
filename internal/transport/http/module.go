package http

import (
	"go.uber.org/fx"

	productiontransport "github.com/Additional-Code/millflow/internal/transport/http/production"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	productiontransport.Module,
)
