package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	alertdomain "alertsphere/internal/alert/domain"
	chatdomain "alertsphere/internal/chat/domain"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	countStyle     = lipgloss.NewStyle().Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

const maxBroadcastLines = 5

func printDashboard(w io.Writer, s alertdomain.Stats) {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Live situation") + "\n")
	fmt.Fprintf(&b, "  incidents %s  shelters %s  safe zones %s  reports %s\n",
		countStyle.Render(fmt.Sprint(s.Incidents)),
		countStyle.Render(fmt.Sprint(s.Shelters)),
		countStyle.Render(fmt.Sprint(s.SafeZones)),
		countStyle.Render(fmt.Sprint(s.CitizenReports)),
	)
	for i, br := range s.Broadcasts {
		if i == maxBroadcastLines {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  ... %d more", len(s.Broadcasts)-i)) + "\n")
			break
		}
		when := "pending"
		if br.Timestamp != nil {
			when = br.Timestamp.Local().Format("Jan 2 15:04")
		}
		fmt.Fprintf(&b, "  %s %s  %s\n", mutedStyle.Render(when), br.Title, mutedStyle.Render(br.Message))
	}
	fmt.Fprint(w, b.String())
}

type chatSession interface {
	Send(ctx context.Context, text string) (chatdomain.Message, error)
	Transcript() []chatdomain.Message
}

// runChat reads questions line by line until EOF, "/quit" or ctx is done.
func runChat(ctx context.Context, chat chatSession, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, m := range chat.Transcript() {
		printMessage(out, m)
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if strings.TrimSpace(line) == "/quit" {
				return nil
			}
			msg, err := chat.Send(ctx, line)
			if errors.Is(err, chatdomain.ErrEmptyMessage) {
				continue
			}
			printMessage(out, msg)
		}
	}
}

func printMessage(w io.Writer, m chatdomain.Message) {
	if m.Sender == chatdomain.SenderAssistant {
		fmt.Fprintln(w, assistantStyle.Render("assistant: ")+m.Text)
		return
	}
	fmt.Fprintln(w, "you: "+m.Text)
}
