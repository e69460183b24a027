package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alertsphere/internal/chat/domain"
	"alertsphere/internal/chat/repository"
	"alertsphere/pkg/remote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRelay(t *testing.T, h http.HandlerFunc) (*Relay, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	client := repository.NewHTTPChatClient(remote.NewClient(srv.URL, time.Second))
	return NewRelay(client, slog.New(slog.NewTextHandler(io.Discard, nil))), &calls
}

func TestRelay_Greeting(t *testing.T) {
	r, _ := newRelay(t, func(w http.ResponseWriter, r *http.Request) {})

	tr := r.Transcript()
	require.Len(t, tr, 1)
	assert.Equal(t, domain.SenderAssistant, tr[0].Sender)
	assert.Equal(t, domain.Greeting, tr[0].Text)
}

func TestRelay_Send(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "reply",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"reply":"Shelter A is 2km north."}`))
			},
			want: "Shelter A is 2km north.",
		},
		{
			name: "missing reply",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{}`))
			},
			want: domain.NoReplyText,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			want: domain.ServerErrorText,
		},
		{
			name: "unparseable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			want: domain.TransportErrorText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, calls := newRelay(t, tt.handler)

			msg, err := r.Send(context.Background(), "Where is the nearest shelter?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg.Text)
			assert.Equal(t, 1, *calls)

			tr := r.Transcript()
			require.Len(t, tr, 3)
			assert.Equal(t, domain.Message{Sender: domain.SenderUser, Text: "Where is the nearest shelter?"}, tr[1])
			assert.Equal(t, domain.Message{Sender: domain.SenderAssistant, Text: tt.want}, tr[2])
		})
	}
}

func TestRelay_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	r := NewRelay(repository.NewHTTPChatClient(remote.NewClient(url, time.Second)), nil)

	msg, err := r.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, domain.TransportErrorText, msg.Text)
}

func TestRelay_BlankInputIgnored(t *testing.T) {
	r, calls := newRelay(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := r.Send(context.Background(), "   ")
	assert.True(t, errors.Is(err, domain.ErrEmptyMessage))
	assert.Equal(t, 0, *calls)
	assert.Len(t, r.Transcript(), 1)
}

type stubAssistant struct {
	reply string
	err   error
}

func (s stubAssistant) Reply(ctx context.Context, message string) (string, error) {
	return s.reply, s.err
}

func TestChatUsecase_Reply(t *testing.T) {
	uc := NewChatUsecase(stubAssistant{reply: "stay indoors"})
	got, err := uc.Reply(context.Background(), " flood? ")
	require.NoError(t, err)
	assert.Equal(t, "stay indoors", got)

	_, err = uc.Reply(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)

	_, err = NewChatUsecase(nil).Reply(context.Background(), "hi")
	assert.Error(t, err)
}
