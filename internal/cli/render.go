package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Additional-Code/millflow/internal/entity"
	"github.com/Additional-Code/millflow/internal/tracking"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#73F59F"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5C542"))
	blockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

func renderOrder(w io.Writer, order *entity.Order) error {
	var b strings.Builder
	title := "Order " + order.Number
	if order.Customer != "" {
		title += " / " + order.Customer
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render(order.ID))
	b.WriteString("\n\n")

	for _, p := range tracking.Progress(order) {
		b.WriteString(fmt.Sprintf("%-14s %s %s\n", p.Stage, statusCell(p), progressCell(p)))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func statusCell(p tracking.StageProgress) string {
	label := fmt.Sprintf("%-12s", p.Status)
	switch {
	case p.Status == entity.TaskCompleted:
		return doneStyle.Render(label)
	case !p.Open:
		return blockedStyle.Render(label)
	case p.Status == entity.TaskInProgress:
		return activeStyle.Render(label)
	default:
		return label
	}
}

func progressCell(p tracking.StageProgress) string {
	if !p.Open {
		return subtleStyle.Render("waiting on " + string(p.BlockingStage))
	}
	if p.Planned == 0 {
		return fmt.Sprintf("%d scanned", p.Scanned)
	}
	return fmt.Sprintf("%d/%d", p.Scanned, p.Planned)
}
