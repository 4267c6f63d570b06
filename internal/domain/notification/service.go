package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Broadcaster pushes events to connected admin clients. The websocket Hub
// implements it; tests substitute a recorder.
type Broadcaster interface {
	BroadcastToAdmins(event *ServerEvent)
}

// NopBroadcaster drops all events. Used when no hub is wired (seeding, tests).
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastToAdmins(*ServerEvent) {}

type Service struct {
	repo        *Repository
	broadcaster Broadcaster
}

func NewService(repo *Repository, broadcaster Broadcaster) *Service {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &Service{repo: repo, broadcaster: broadcaster}
}

// Create persists a notification and pushes it to connected admins. The
// broadcast is best-effort; persistence is the source of truth.
func (s *Service) Create(ctx context.Context, t Type, title, message string, orderID *string) (*Notification, error) {
	n := &Notification{
		ID:        uuid.NewString(),
		Type:      t,
		Title:     title,
		Message:   message,
		OrderID:   orderID,
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastToAdmins(NewNotificationEvent(n))
	return n, nil
}

func (s *Service) List(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.List(ctx, limit)
}

func (s *Service) UnreadCount(ctx context.Context) (int64, error) {
	return s.repo.CountUnread(ctx)
}

// MarkRead persists the read flag and echoes notification_read to every
// connected admin, so clients that marked via the fallback path (or other
// tabs) stay reconciled.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return err
	}
	s.broadcaster.BroadcastToAdmins(NewReadEvent(id))
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context) error {
	return s.repo.MarkAllRead(ctx)
}

func (s *Service) NotifyNewOrder(ctx context.Context, orderID, customerName, item string, qty int) error {
	_, err := s.Create(ctx, TypeNewOrder,
		"New Order",
		fmt.Sprintf("Order %s from %s - %s x%d", orderID, customerName, item, qty),
		&orderID,
	)
	return err
}

func (s *Service) NotifyPaymentSubmitted(ctx context.Context, orderID, customerName string) error {
	_, err := s.Create(ctx, TypePaymentSubmitted,
		"Payment Submitted",
		fmt.Sprintf("Payment submitted for order %s by %s", orderID, customerName),
		&orderID,
	)
	return err
}

func (s *Service) NotifyPaymentProofUploaded(ctx context.Context, orderID string) error {
	_, err := s.Create(ctx, TypePaymentProofUploaded,
		"Payment Proof Uploaded",
		fmt.Sprintf("Payment proof uploaded for order %s", orderID),
		&orderID,
	)
	return err
}

func (s *Service) NotifyLowStock(ctx context.Context, itemName string, remaining int) error {
	_, err := s.Create(ctx, TypeLowStock,
		"Low Stock Alert",
		fmt.Sprintf("%s is running low: %d remaining", itemName, remaining),
		nil,
	)
	return err
}

func (s *Service) NotifyCustomRequest(ctx context.Context, requestID, customerName string) error {
	_, err := s.Create(ctx, TypeCustomRequest,
		"New Custom Tailoring Request",
		fmt.Sprintf("Custom request %s from %s", requestID, customerName),
		&requestID,
	)
	return err
}

func (s *Service) NotifyNewEnquiry(ctx context.Context, enquiryID, customerName, item string, qty int) error {
	_, err := s.Create(ctx, TypeNewEnquiry,
		"New Custom Order Enquiry",
		fmt.Sprintf("New enquiry %s from %s - %s x%d", enquiryID, customerName, item, qty),
		&enquiryID,
	)
	return err
}

// CleanupLoop periodically purges read notifications older than retention.
// Runs until ctx is cancelled.
func (s *Service) CleanupLoop(ctx context.Context, interval time.Duration, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-retention)
			deleted, err := s.repo.DeleteReadBefore(ctx, cutoff)
			if err != nil {
				log.Error().Err(err).Msg("notification cleanup failed")
				continue
			}
			if deleted > 0 {
				log.Info().Int64("deleted", deleted).Msg("purged old read notifications")
			}
		}
	}
}
