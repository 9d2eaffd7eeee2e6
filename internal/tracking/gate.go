package tracking

import "github.com/Additional-Code/millflow/internal/entity"

// CanOpen reports whether work may start on stage for order.
func CanOpen(order *entity.Order, stage entity.Stage) bool {
	_, blocked := BlockingStage(order, stage)
	return !blocked
}

// BlockingStage returns the unfinished stage that keeps stage locked.
// The first stage and kit assembly are never blocked.
func BlockingStage(order *entity.Order, stage entity.Stage) (entity.Stage, bool) {
	if stage == entity.StageKitAssembly {
		return "", false
	}
	prev, ok := gatingPredecessor(stage)
	if !ok {
		return "", false
	}
	task := order.Task(prev)
	if task == nil {
		return "", false
	}
	if task.Status != entity.TaskCompleted {
		return prev, true
	}
	return "", false
}

func checkOpen(order *entity.Order, stage entity.Stage) error {
	if blocking, blocked := BlockingStage(order, stage); blocked {
		return stageLocked(stage, blocking)
	}
	return nil
}
