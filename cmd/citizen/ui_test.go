package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	alertdomain "alertsphere/internal/alert/domain"
	chatdomain "alertsphere/internal/chat/domain"
	chatRepo "alertsphere/internal/chat/repository"
	chatUsecase "alertsphere/internal/chat/usecase"
	"alertsphere/pkg/remote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunChat(t *testing.T) {
	var asked []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		asked = append(asked, r.URL.Path)
		_, _ = w.Write([]byte(`{"reply":"Shelter A is 2km north."}`))
	}))
	defer srv.Close()

	relay := chatUsecase.NewRelay(chatRepo.NewHTTPChatClient(remote.NewClient(srv.URL, time.Second)), nil)
	in := strings.NewReader("Where is the nearest shelter?\n   \n/quit\nignored\n")
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), relay, in, &out))

	assert.Equal(t, []string{"/api/chat"}, asked)
	assert.Contains(t, out.String(), chatdomain.Greeting)
	assert.Contains(t, out.String(), "Shelter A is 2km north.")
	assert.NotContains(t, out.String(), "ignored")
	assert.Len(t, relay.Transcript(), 3)
}

func TestRunChat_EOF(t *testing.T) {
	relay := chatUsecase.NewRelay(chatRepo.NewHTTPChatClient(remote.NewClient("http://127.0.0.1:1", time.Second)), nil)
	var out bytes.Buffer

	assert.NoError(t, runChat(context.Background(), relay, strings.NewReader(""), &out))
	assert.Contains(t, out.String(), chatdomain.Greeting)
}

func TestPrintDashboard(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	var out bytes.Buffer

	printDashboard(&out, alertdomain.Stats{
		Incidents: 3,
		Shelters:  2,
		Broadcasts: []alertdomain.BroadcastRecord{
			{ID: "b1", Title: "Flood Warning", Message: "Move to higher ground", Timestamp: &ts},
			{ID: "b2", Title: "Road closed"},
		},
	})

	assert.Contains(t, out.String(), "Flood Warning")
	assert.Contains(t, out.String(), "pending")
	assert.Contains(t, out.String(), "3")
}
