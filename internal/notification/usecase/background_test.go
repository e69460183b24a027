package usecase

import (
	"context"
	"testing"

	"alertsphere/internal/notification/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlePush_ShowsTitleAndBody(t *testing.T) {
	display := &recordingDisplay{}
	h := NewBackgroundHandler(display, domain.DefaultIcon, discardLogger())

	err := h.HandlePush(context.Background(), []byte(`{"notification":{"title":"Evacuation Order","body":"Leave Sector 5 now"}}`))

	require.NoError(t, err)
	require.Len(t, display.shown, 1)
	assert.Equal(t, domain.Notification{Title: "Evacuation Order", Body: "Leave Sector 5 now", Icon: domain.DefaultIcon}, display.shown[0])
}

func TestHandlePush_SameEventTwiceShowsTwice(t *testing.T) {
	display := &recordingDisplay{}
	h := NewBackgroundHandler(display, domain.DefaultIcon, discardLogger())
	raw := []byte(`{"notification":{"title":"Aftershock"}}`)

	require.NoError(t, h.HandlePush(context.Background(), raw))
	require.NoError(t, h.HandlePush(context.Background(), raw))

	assert.Len(t, display.shown, 2)
}

func TestHandlePush_TitlelessIsDropped(t *testing.T) {
	display := &recordingDisplay{}
	h := NewBackgroundHandler(display, domain.DefaultIcon, discardLogger())

	err := h.HandlePush(context.Background(), []byte(`{"data":{"kind":"ping"}}`))

	assert.NoError(t, err)
	assert.Empty(t, display.shown)
}

func TestHandlePush_MalformedPayload(t *testing.T) {
	display := &recordingDisplay{}
	h := NewBackgroundHandler(display, domain.DefaultIcon, discardLogger())

	err := h.HandlePush(context.Background(), []byte(`{not json`))

	assert.Error(t, err)
	assert.Empty(t, display.shown)
}
