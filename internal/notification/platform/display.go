package platform

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"alertsphere/internal/notification/domain"
)

var (
	alertBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 1)
	alertTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	alertBodyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	alertIconStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// TerminalDisplay draws notifications as boxed alerts on a terminal.
type TerminalDisplay struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTerminalDisplay(out io.Writer) *TerminalDisplay {
	return &TerminalDisplay{out: out}
}

func (d *TerminalDisplay) Show(ctx context.Context, n domain.Notification) error {
	if strings.TrimSpace(n.Title) == "" {
		return &domain.PlatformError{Op: "showNotification", Code: "missing-title"}
	}

	lines := []string{alertTitleStyle.Render(n.Title)}
	if n.Body != "" {
		lines = append(lines, alertBodyStyle.Render(n.Body))
	}
	if n.Icon != "" {
		lines = append(lines, alertIconStyle.Render(n.Icon))
	}
	box := alertBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := fmt.Fprintln(d.out, box); err != nil {
		return fmt.Errorf("write notification: %w", err)
	}
	return nil
}
