package domain

import (
	"encoding/json"
	"strings"
)

// DefaultIcon is the icon resource every displayed alert carries.
const DefaultIcon = "/icons/alert.png"

// Payload is the JSON body carried by the push delivery channel.
type Payload struct {
	Notification *PayloadNotification `json:"notification,omitempty"`
	Data         map[string]string    `json:"data,omitempty"`
}

type PayloadNotification struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

// DecodePayload parses a push payload.
func DecodePayload(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// Title returns the notification title, or "" when the payload has none.
func (p Payload) Title() string {
	if p.Notification == nil {
		return ""
	}
	return strings.TrimSpace(p.Notification.Title)
}

func (p Payload) Body() string {
	if p.Notification == nil {
		return ""
	}
	return p.Notification.Body
}

// Notification is what the display primitive renders. It is consumed once.
type Notification struct {
	Title string
	Body  string
	Icon  string
}

// ToNotification builds the displayable notification for a payload. ok is
// false when the payload has no title.
func (p Payload) ToNotification(icon string) (Notification, bool) {
	title := p.Title()
	if title == "" {
		return Notification{}, false
	}
	if icon == "" {
		icon = DefaultIcon
	}
	return Notification{Title: title, Body: p.Body(), Icon: icon}, true
}
