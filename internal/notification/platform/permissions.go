package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"alertsphere/internal/notification/domain"
)

// Prompter asks the user for notification permission.
type Prompter interface {
	Prompt(ctx context.Context) (domain.Permission, error)
}

// PermissionStore persists the user's decision.
type PermissionStore interface {
	Permission(ctx context.Context) (domain.Permission, error)
	SetPermission(ctx context.Context, p domain.Permission) error
}

// Permissions prompts at most once per decision: a granted or denied answer
// is remembered and returned without prompting again. A dismissed prompt
// leaves the state at default.
type Permissions struct {
	store    PermissionStore
	prompter Prompter
}

func NewPermissions(store PermissionStore, prompter Prompter) *Permissions {
	return &Permissions{store: store, prompter: prompter}
}

func (p *Permissions) Request(ctx context.Context) (domain.Permission, error) {
	current, err := p.store.Permission(ctx)
	if err != nil {
		return domain.PermissionDefault, err
	}
	if current == domain.PermissionGranted || current == domain.PermissionDenied {
		return current, nil
	}

	answer, err := p.prompter.Prompt(ctx)
	if err != nil {
		return domain.PermissionDefault, &domain.PlatformError{Op: "requestPermission", Code: "prompt-failed", Err: err}
	}
	if answer == domain.PermissionDefault {
		return answer, nil
	}
	if err := p.store.SetPermission(ctx, answer); err != nil {
		return domain.PermissionDefault, fmt.Errorf("persist permission: %w", err)
	}
	return answer, nil
}

// HuhPrompter asks on the terminal with a yes/no confirm. Aborting the form
// (esc or ctrl+c) counts as dismissing the prompt.
type HuhPrompter struct {
	Title       string
	Description string
}

func (h HuhPrompter) Prompt(ctx context.Context) (domain.Permission, error) {
	title := h.Title
	if title == "" {
		title = "Allow emergency alert notifications?"
	}
	allow := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(h.Description).
				Affirmative("Allow").
				Negative("Block").
				Value(&allow),
		),
	)

	err := form.RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return domain.PermissionDefault, nil
	}
	if err != nil {
		return domain.PermissionDefault, err
	}
	if allow {
		return domain.PermissionGranted, nil
	}
	return domain.PermissionDenied, nil
}

// StaticPrompter answers every prompt with a fixed decision. It is used for
// headless runs where NOTIFICATION_PERMISSION is preset.
type StaticPrompter domain.Permission

func (s StaticPrompter) Prompt(context.Context) (domain.Permission, error) {
	return domain.Permission(s), nil
}
