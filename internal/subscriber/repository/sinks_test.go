package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	notificationdomain "alertsphere/internal/notification/domain"
	"alertsphere/internal/subscriber/domain"
	"alertsphere/pkg/remote"
	"alertsphere/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) retry.Config {
	return retry.Config{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestHTTPSink_Persist(t *testing.T) {
	var got domain.RegisterTokenRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/register-token", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewHTTPSink(remote.NewClient(srv.URL, time.Second), fastRetry(3), "jwt-abc")
	err := sink.Persist(context.Background(), notificationdomain.DeviceToken{Value: "tok-1", Platform: "pubsub"})

	require.NoError(t, err)
	assert.Equal(t, "http", sink.Name())
	assert.Equal(t, domain.RegisterTokenRequest{Token: "tok-1", Platform: "pubsub"}, got)
	assert.Equal(t, "Bearer jwt-abc", auth)
}

func TestHTTPSink_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewHTTPSink(remote.NewClient(srv.URL, time.Second), fastRetry(3), "")

	require.NoError(t, sink.Persist(context.Background(), notificationdomain.DeviceToken{Value: "tok"}))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPSink_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	sink := NewHTTPSink(remote.NewClient(srv.URL, time.Second), fastRetry(3), "")
	err := sink.Persist(context.Background(), notificationdomain.DeviceToken{Value: "tok"})

	var se *remote.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTokenDocID(t *testing.T) {
	id := TokenDocID("tok-1")
	assert.Len(t, id, 64)
	assert.Equal(t, id, TokenDocID("tok-1"))
	assert.NotEqual(t, id, TokenDocID("tok-2"))
}
