package notification

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stitchworks/internal/domain/auth"
	jwtsvc "stitchworks/internal/pkg/jwt"
)

type wsFixture struct {
	server  *httptest.Server
	jwt     *jwtsvc.Service
	service *Service
	repo    *Repository
	users   *auth.UserRepository
	hub     *Hub
}

func setupWSTest(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	require.NoError(t, db.AutoMigrate(&auth.User{}))

	j := jwtsvc.New("test-secret", time.Hour)
	users := auth.NewUserRepository(db)
	hub := NewHub()
	repo := NewRepository(db)
	svc := NewService(repo, hub)

	r := gin.New()
	r.GET("/ws/notifications", NewWSHandler(hub, j, svc, users).HandleWebSocket)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &wsFixture{server: srv, jwt: j, service: svc, repo: repo, users: users, hub: hub}
}

func (f *wsFixture) createUser(t *testing.T, role string) *auth.User {
	t.Helper()
	u := &auth.User{
		ID:        uuid.NewString(),
		Email:     uuid.NewString() + "@stitchworks.test",
		Name:      "Test User",
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *wsFixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	wsURL := strings.Replace(f.server.URL, "http", "ws", 1) + "/ws/notifications"
	if token != "" {
		wsURL += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) ServerEvent {
	t.Helper()
	var ev ServerEvent
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

// expectClose asserts the server closed the handshake with the given
// application close code.
func expectClose(t *testing.T, conn *websocket.Conn, code int) {
	t.Helper()
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	closeErr, ok := err.(*websocket.CloseError)
	require.True(t, ok, "expected close error, got %v", err)
	assert.Equal(t, code, closeErr.Code)
}

func TestWebSocketRequiresToken(t *testing.T) {
	f := setupWSTest(t)
	conn := f.dial(t, "")
	expectClose(t, conn, CloseTokenRequired)
}

func TestWebSocketRejectsInvalidToken(t *testing.T) {
	f := setupWSTest(t)
	conn := f.dial(t, "garbage")
	expectClose(t, conn, CloseTokenInvalid)
}

func TestWebSocketRejectsExpiredToken(t *testing.T) {
	f := setupWSTest(t)
	expired := jwtsvc.New("test-secret", -time.Hour)
	token, err := expired.GenerateToken(uuid.NewString(), "admin")
	require.NoError(t, err)

	conn := f.dial(t, token)
	expectClose(t, conn, CloseTokenExpired)
}

func TestWebSocketRejectsUnknownUser(t *testing.T) {
	f := setupWSTest(t)
	token, err := f.jwt.GenerateToken(uuid.NewString(), "admin")
	require.NoError(t, err)

	conn := f.dial(t, token)
	expectClose(t, conn, CloseUserNotFound)
}

func TestWebSocketHandshakeSendsUnreadBaseline(t *testing.T) {
	f := setupWSTest(t)
	now := time.Now().UTC()
	seedNotification(t, f.repo, TypeNewOrder, false, now)
	seedNotification(t, f.repo, TypeLowStock, false, now)
	seedNotification(t, f.repo, TypeNewEnquiry, true, now)

	admin := f.createUser(t, auth.RoleAdmin)
	token, err := f.jwt.GenerateToken(admin.ID, admin.Role)
	require.NoError(t, err)

	conn := f.dial(t, token)
	ev := readEvent(t, conn)
	assert.Equal(t, "connected", ev.Event)
	require.NotNil(t, ev.Counts)
	assert.Equal(t, int64(2), ev.Counts.UnreadNotifications)
}

func TestWebSocketPingPong(t *testing.T) {
	f := setupWSTest(t)
	admin := f.createUser(t, auth.RoleAdmin)
	token, err := f.jwt.GenerateToken(admin.ID, admin.Role)
	require.NoError(t, err)

	conn := f.dial(t, token)
	readEvent(t, conn) // connected

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "ping"}))
	ev := readEvent(t, conn)
	assert.Equal(t, "pong", ev.Type)
}

func TestWebSocketMarkReadEchoesToAllAdmins(t *testing.T) {
	f := setupWSTest(t)
	n := seedNotification(t, f.repo, TypeNewOrder, false, time.Now().UTC())

	admin := f.createUser(t, auth.RoleAdmin)
	token, err := f.jwt.GenerateToken(admin.ID, admin.Role)
	require.NoError(t, err)

	first := f.dial(t, token)
	readEvent(t, first) // connected
	second := f.dial(t, token)
	readEvent(t, second) // connected

	require.NoError(t, first.WriteJSON(ClientMessage{Type: "mark_read", NotificationID: n.ID}))

	// The echo reaches both the originating connection and its peers.
	ev := readEvent(t, first)
	assert.Equal(t, "notification_read", ev.Event)
	assert.Equal(t, n.ID, ev.NotificationID)

	ev = readEvent(t, second)
	assert.Equal(t, "notification_read", ev.Event)
	assert.Equal(t, n.ID, ev.NotificationID)

	stored, err := f.repo.GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.True(t, stored.Read)
}

func TestWebSocketBroadcastOnCreate(t *testing.T) {
	f := setupWSTest(t)
	admin := f.createUser(t, auth.RoleAdmin)
	token, err := f.jwt.GenerateToken(admin.ID, admin.Role)
	require.NoError(t, err)

	conn := f.dial(t, token)
	readEvent(t, conn) // connected

	require.NoError(t, f.service.NotifyNewOrder(context.Background(), "ORD-42", "Ada Obi", "Polo Shirt", 250))

	ev := readEvent(t, conn)
	assert.Equal(t, "notification", ev.Event)
	require.NotNil(t, ev.Notification)
	assert.Equal(t, TypeNewOrder, ev.Notification.Type)
	require.NotNil(t, ev.Notification.OrderID)
	assert.Equal(t, "ORD-42", *ev.Notification.OrderID)
}

func TestWebSocketCustomerGetsNoAdminEvents(t *testing.T) {
	f := setupWSTest(t)
	customer := f.createUser(t, auth.RoleCustomer)
	token, err := f.jwt.GenerateToken(customer.ID, customer.Role)
	require.NoError(t, err)

	conn := f.dial(t, token)

	// Broadcasts are admin-only; a customer connection stays silent.
	require.NoError(t, f.service.NotifyLowStock(context.Background(), "Plain White Tee (L)", 12))

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "customer connection must not receive the broadcast")
}

func TestWebSocketMalformedMessageIgnored(t *testing.T) {
	f := setupWSTest(t)
	admin := f.createUser(t, auth.RoleAdmin)
	token, err := f.jwt.GenerateToken(admin.ID, admin.Role)
	require.NoError(t, err)

	conn := f.dial(t, token)
	readEvent(t, conn) // connected

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	// The connection survives: a ping still gets its pong.
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "ping"}))
	ev := readEvent(t, conn)
	assert.Equal(t, "pong", ev.Type)
}
