// Package notify delivers task lists to the user: on the terminal or by email.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/harrisonrobin/taskflow/pkg/model"
)

// DisplayDateLayout is how dates are shown in summaries and reminders.
const DisplayDateLayout = "Monday, January 2, 2006"

// Notifier receives a finished task list and the date it is for.
type Notifier interface {
	Notify(ctx context.Context, tasks []model.Task, displayDate string) error
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	timeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	overdueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Faint(true)
	progressStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	idStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// TimeRange renders "9:00 AM - 10:00 AM", a lone start time, or "all day".
func TimeRange(t model.Task) string {
	switch {
	case t.StartTime != "" && t.EndTime != "":
		return t.StartTime + " - " + t.EndTime
	case t.StartTime != "":
		return t.StartTime
	default:
		return "all day"
	}
}

func statusStyle(s model.Status) lipgloss.Style {
	switch s {
	case model.OVERDUE:
		return overdueStyle
	case model.COMPLETED:
		return completedStyle
	case model.IN_PROGRESS:
		return progressStyle
	default:
		return lipgloss.NewStyle()
	}
}

// Render lays tasks out for the terminal under a heading.
func Render(heading string, tasks []model.Task, now time.Time) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(heading))
	b.WriteString("\n")
	if len(tasks) == 0 {
		b.WriteString(timeStyle.Render("  no tasks"))
		b.WriteString("\n")
		return b.String()
	}

	width := 0
	for _, t := range tasks {
		if w := len(TimeRange(t)); w > width {
			width = w
		}
	}
	for _, t := range tasks {
		status := t.DisplayStatus(now)
		fmt.Fprintf(&b, "  %s  %s  %s  %s\n",
			timeStyle.Render(fmt.Sprintf("%-*s", width, TimeRange(t))),
			statusStyle(status).Render(fmt.Sprintf("%-11s", status)),
			t.Title,
			idStyle.Render(t.ID),
		)
	}
	return b.String()
}
