package notification

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConn(isAdmin bool, buffer int) *conn {
	return &conn{
		userID:  "u1",
		isAdmin: isAdmin,
		send:    make(chan []byte, buffer),
	}
}

func TestHubBroadcastReachesAdminsOnly(t *testing.T) {
	h := NewHub()
	admin := newTestConn(true, 4)
	customer := newTestConn(false, 4)
	h.register(admin)
	h.register(customer)

	assert.Equal(t, 1, h.AdminCount())

	h.BroadcastToAdmins(NewReadEvent("n1"))

	require.Len(t, admin.send, 1)
	assert.Empty(t, customer.send)

	var ev ServerEvent
	require.NoError(t, json.Unmarshal(<-admin.send, &ev))
	assert.Equal(t, "notification_read", ev.Event)
	assert.Equal(t, "n1", ev.NotificationID)
}

func TestHubSlowClientDoesNotBlockBroadcast(t *testing.T) {
	h := NewHub()
	slow := newTestConn(true, 1)
	fast := newTestConn(true, 4)
	h.register(slow)
	h.register(fast)

	// The slow client's buffer fills after one event; further broadcasts are
	// dropped for it but still reach everyone else.
	h.BroadcastToAdmins(NewReadEvent("n1"))
	h.BroadcastToAdmins(NewReadEvent("n2"))

	assert.Len(t, slow.send, 1)
	assert.Len(t, fast.send, 2)
}

func TestHubUnregisterClosesSendChannel(t *testing.T) {
	h := NewHub()
	c := newTestConn(true, 1)
	h.register(c)
	h.unregister(c)
	// A second unregister for the same connection is a no-op.
	h.unregister(c)

	_, open := <-c.send
	assert.False(t, open)
	assert.Equal(t, 0, h.AdminCount())
}

func TestHubSendToSingleConnection(t *testing.T) {
	h := NewHub()
	c := newTestConn(true, 1)
	h.register(c)

	h.sendTo(c, NewConnectedEvent(5))

	var ev ServerEvent
	require.NoError(t, json.Unmarshal(<-c.send, &ev))
	assert.Equal(t, "connected", ev.Event)
	require.NotNil(t, ev.Counts)
	assert.Equal(t, int64(5), ev.Counts.UnreadNotifications)
}
