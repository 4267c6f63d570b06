package notification

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"stitchworks/internal/database"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []*ServerEvent
}

func (r *recordingBroadcaster) BroadcastToAdmins(ev *ServerEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingBroadcaster) all() []*ServerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ServerEvent, len(r.events))
	copy(out, r.events)
	return out
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Notification{}))
	return db
}

func setupTestService(t *testing.T) (*Service, *recordingBroadcaster, *Repository) {
	t.Helper()
	db := setupTestDB(t)
	repo := NewRepository(db)
	rec := &recordingBroadcaster{}
	return NewService(repo, rec), rec, repo
}

func seedNotification(t *testing.T, repo *Repository, typ Type, read bool, createdAt time.Time) *Notification {
	t.Helper()
	n := &Notification{
		ID:        uuid.NewString(),
		Type:      typ,
		Title:     "Title",
		Message:   "Message",
		Read:      read,
		CreatedAt: createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), n))
	return n
}

func TestCreatePersistsAndBroadcasts(t *testing.T) {
	svc, rec, repo := setupTestService(t)
	orderID := "ORD-1001"

	n, err := svc.Create(context.Background(), TypeNewOrder, "New Order", "Order ORD-1001 from Ada Obi", &orderID)
	require.NoError(t, err)
	require.NotEmpty(t, n.ID)
	assert.False(t, n.Read)

	stored, err := repo.GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, TypeNewOrder, stored.Type)
	require.NotNil(t, stored.OrderID)
	assert.Equal(t, orderID, *stored.OrderID)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, "notification", events[0].Event)
	require.NotNil(t, events[0].Notification)
	assert.Equal(t, n.ID, events[0].Notification.ID)
}

func TestListNewestFirstWithLimit(t *testing.T) {
	svc, _, repo := setupTestService(t)
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		seedNotification(t, repo, TypeNewOrder, false, base.Add(time.Duration(i)*time.Minute))
	}

	got, err := svc.List(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].CreatedAt.After(got[1].CreatedAt))
	assert.True(t, got[1].CreatedAt.After(got[2].CreatedAt))

	// Out-of-range limits fall back to the default.
	got, err = svc.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, got, 5)

	got, err = svc.List(context.Background(), 1000)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestUnreadCount(t *testing.T) {
	svc, _, repo := setupTestService(t)
	now := time.Now().UTC()
	seedNotification(t, repo, TypeNewOrder, false, now)
	seedNotification(t, repo, TypeLowStock, false, now)
	seedNotification(t, repo, TypeNewEnquiry, true, now)

	count, err := svc.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMarkReadIdempotentAndBroadcasts(t *testing.T) {
	svc, rec, repo := setupTestService(t)
	n := seedNotification(t, repo, TypeNewOrder, false, time.Now().UTC())

	require.NoError(t, svc.MarkRead(context.Background(), n.ID))
	// Marking an already-read notification still succeeds.
	require.NoError(t, svc.MarkRead(context.Background(), n.ID))

	stored, err := repo.GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.True(t, stored.Read)

	events := rec.all()
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, "notification_read", ev.Event)
		assert.Equal(t, n.ID, ev.NotificationID)
	}
}

func TestMarkReadUnknownID(t *testing.T) {
	svc, rec, _ := setupTestService(t)

	err := svc.MarkRead(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotificationNotFound)
	assert.Empty(t, rec.all(), "no echo for a failed mark")
}

func TestMarkAllRead(t *testing.T) {
	svc, _, repo := setupTestService(t)
	now := time.Now().UTC()
	seedNotification(t, repo, TypeNewOrder, false, now)
	seedNotification(t, repo, TypeLowStock, false, now)

	require.NoError(t, svc.MarkAllRead(context.Background()))

	count, err := svc.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestDeleteReadBefore(t *testing.T) {
	_, _, repo := setupTestService(t)
	now := time.Now().UTC()
	old := now.Add(-40 * 24 * time.Hour)

	seedNotification(t, repo, TypeNewOrder, true, old)       // purged
	seedNotification(t, repo, TypeNewOrder, false, old)      // unread survives regardless of age
	recent := seedNotification(t, repo, TypeLowStock, true, now) // too recent

	deleted, err := repo.DeleteReadBefore(context.Background(), now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)

	_, err = repo.GetByID(context.Background(), recent.ID)
	assert.NoError(t, err)
}

func TestNotifyHelpers(t *testing.T) {
	svc, rec, _ := setupTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.NotifyNewOrder(ctx, "ORD-1", "Ada Obi", "Polo Shirt", 250))
	require.NoError(t, svc.NotifyPaymentSubmitted(ctx, "ORD-1", "Ada Obi"))
	require.NoError(t, svc.NotifyPaymentProofUploaded(ctx, "ORD-2"))
	require.NoError(t, svc.NotifyLowStock(ctx, "Plain White Tee (L)", 12))
	require.NoError(t, svc.NotifyCustomRequest(ctx, "REQ-9", "Bode Ayeni"))
	require.NoError(t, svc.NotifyNewEnquiry(ctx, "ENQ-4", "Chidinma Eze", "Agbada", 4))

	events := rec.all()
	require.Len(t, events, 6)

	byType := map[Type]*Notification{}
	for _, ev := range events {
		require.NotNil(t, ev.Notification)
		byType[ev.Notification.Type] = ev.Notification
	}

	require.Len(t, byType, 6)
	require.NotNil(t, byType[TypeNewOrder].OrderID)
	assert.Equal(t, "ORD-1", *byType[TypeNewOrder].OrderID)
	assert.Nil(t, byType[TypeLowStock].OrderID)
	require.NotNil(t, byType[TypeNewEnquiry].OrderID)
	assert.Equal(t, "ENQ-4", *byType[TypeNewEnquiry].OrderID)
	assert.Contains(t, byType[TypeLowStock].Message, "12 remaining")
}

func TestNilBroadcasterDefaultsToNop(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(NewRepository(db), nil)

	_, err := svc.Create(context.Background(), TypeLowStock, "Low Stock Alert", "x", nil)
	assert.NoError(t, err)
}
