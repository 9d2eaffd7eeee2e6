package tracking

import (
	"strings"

	"github.com/Additional-Code/millflow/internal/entity"
	"github.com/Additional-Code/millflow/pkg/errorbank"
)

// ValidStage reports whether stage is part of the pipeline.
func ValidStage(stage entity.Stage) bool {
	return stage.Index() >= 0
}

// ParseStage normalises user input such as "Edge-Banding" into a Stage.
func ParseStage(raw string) (entity.Stage, error) {
	normalised := strings.ToLower(strings.TrimSpace(raw))
	normalised = strings.ReplaceAll(normalised, "-", "_")
	stage := entity.Stage(normalised)
	if !ValidStage(stage) {
		return "", errorbank.BadRequest("unknown stage",
			errorbank.WithCode(CodeInvalidArgument),
			errorbank.WithDetail("stage", raw),
		)
	}
	return stage, nil
}

// after reports whether a comes later in the pipeline than b.
func after(a, b entity.Stage) bool {
	return a.Index() > b.Index()
}

// gatingPredecessor returns the stage whose completion unlocks stage.
// Kit assembly runs alongside packaging, so it never gates anything.
func gatingPredecessor(stage entity.Stage) (entity.Stage, bool) {
	for i := stage.Index() - 1; i >= 0; i-- {
		prev := entity.Stages[i]
		if prev == entity.StageKitAssembly {
			continue
		}
		return prev, true
	}
	return "", false
}
