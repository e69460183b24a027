package usecase

import (
	"errors"
	"testing"
	"time"

	"alertsphere/internal/notification/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForegroundBridge_TitleWithoutBody(t *testing.T) {
	g := newFakeGateway(domain.PermissionGranted)
	m := readyMessaging()
	bridge := NewForegroundBridge(m, g, domain.DefaultIcon, discardLogger())

	var events []domain.Notification
	require.True(t, bridge.Listen(func(n domain.Notification) { events = append(events, n) }))

	m.deliver(domain.Payload{Notification: &domain.PayloadNotification{Title: "Flood Warning"}})

	shown := g.Shown()
	require.Len(t, shown, 1)
	assert.Equal(t, "Flood Warning", shown[0].Title)
	assert.Equal(t, "", shown[0].Body)
	assert.Equal(t, domain.DefaultIcon, shown[0].Icon)
	assert.Len(t, events, 1)
}

func TestForegroundBridge_DropsTitleless(t *testing.T) {
	g := newFakeGateway(domain.PermissionGranted)
	m := readyMessaging()
	bridge := NewForegroundBridge(m, g, domain.DefaultIcon, discardLogger())
	require.True(t, bridge.Listen(nil))

	m.deliver(domain.Payload{})
	m.deliver(domain.Payload{Notification: &domain.PayloadNotification{Body: "no title here"}})
	m.deliver(domain.Payload{Notification: &domain.PayloadNotification{Title: "   "}})

	assert.Empty(t, g.Shown())
}

func TestForegroundBridge_NotReadyIsNoop(t *testing.T) {
	g := newFakeGateway(domain.PermissionGranted)
	m := newFakeMessaging()
	bridge := NewForegroundBridge(m, g, domain.DefaultIcon, discardLogger())

	assert.False(t, bridge.Listen(nil))
	assert.Zero(t, m.attaches)

	m.ready.Resolve(nil)
	assert.True(t, bridge.Listen(nil))
	assert.Equal(t, 1, m.attaches)
}

func TestForegroundBridge_FailedMessagingIsNoop(t *testing.T) {
	m := newFakeMessaging()
	m.ready.Resolve(errors.New("init failed"))
	bridge := NewForegroundBridge(m, newFakeGateway(domain.PermissionGranted), "", discardLogger())

	assert.False(t, bridge.Listen(nil))
	assert.Zero(t, m.attaches)
}

func TestForegroundBridge_AttachesAtMostOnce(t *testing.T) {
	g := newFakeGateway(domain.PermissionGranted)
	m := readyMessaging()
	bridge := NewForegroundBridge(m, g, domain.DefaultIcon, discardLogger())

	assert.True(t, bridge.Listen(nil))
	assert.False(t, bridge.Listen(nil))
	assert.Equal(t, 1, m.attaches)

	m.deliver(domain.Payload{Notification: &domain.PayloadNotification{Title: "Fire", Body: "Evacuate Block B"}})
	assert.Len(t, g.Shown(), 1)
}

func TestForegroundBridge_CloseDetaches(t *testing.T) {
	g := newFakeGateway(domain.PermissionGranted)
	m := readyMessaging()
	bridge := NewForegroundBridge(m, g, domain.DefaultIcon, discardLogger())
	require.True(t, bridge.Listen(nil))

	bridge.Close()
	m.deliver(domain.Payload{Notification: &domain.PayloadNotification{Title: "Late"}})

	assert.Empty(t, g.Shown())
}

func TestForegroundBridge_DisplayFailureSkipsCallback(t *testing.T) {
	g := newFakeGateway(domain.PermissionGranted)
	g.showErr = errors.New("display gone")
	m := readyMessaging()
	bridge := NewForegroundBridge(m, g, domain.DefaultIcon, discardLogger())

	called := false
	require.True(t, bridge.Listen(func(domain.Notification) { called = true }))
	m.deliver(domain.Payload{Notification: &domain.PayloadNotification{Title: "Storm"}})

	assert.False(t, called)
}

func TestForegroundBridge_ReattachesAfterDeliveryEnds(t *testing.T) {
	g := newFakeGateway(domain.PermissionGranted)
	m := readyMessaging()
	bridge := NewForegroundBridge(m, g, domain.DefaultIcon, discardLogger())
	require.True(t, bridge.Listen(nil))

	m.failAll()
	require.Eventually(t, func() bool { return !bridge.Attached() }, time.Second, 5*time.Millisecond)

	require.True(t, bridge.Listen(nil))
	assert.Equal(t, 2, m.attaches)

	m.deliver(domain.Payload{Notification: &domain.PayloadNotification{Title: "Flood Warning"}})
	assert.Len(t, g.Shown(), 1)
}
