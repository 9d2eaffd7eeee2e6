package production

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/millflow/internal/config"
	repo "github.com/Additional-Code/millflow/internal/repository/production"
	"github.com/Additional-Code/millflow/internal/tracking"
)

// Module provides the tracking engine and production service to Fx.
var Module = fx.Provide(
	NewEngine,
	func(r *repo.Repository) Repository { return r },
	NewService,
)

// NewEngine builds the tracking engine from configuration.
func NewEngine(cfg config.Config) *tracking.Engine {
	return tracking.NewEngine(tracking.WithSplitSeparator(cfg.Production.SplitPrefixSeparator))
}
