package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// maxNotifications bounds the in-memory feed.
const maxNotifications = 100

// Sender is the channel-path transmit hook. The connection Manager
// implements it; sends fail with ErrNotConnected when the channel is not
// open, and the Store falls back to the HTTP client.
type Sender interface {
	Send(msg outboundMessage) error
}

// Store is the single source of truth for the unread count and the bounded
// notification list. It reconciles channel events with fallback fetches and
// keeps two invariants: the unread count never goes negative, and a read
// flag never regresses to false.
type Store struct {
	api *Client

	mu     sync.Mutex
	unread int
	items  []Notification
	sender Sender

	onChange  func()
	onNewItem func(Notification)
}

func NewStore(api *Client) *Store {
	return &Store{api: api}
}

// SetSender wires the channel path. May be nil (fallback-only operation).
func (s *Store) SetSender(sender Sender) {
	s.mu.Lock()
	s.sender = sender
	s.mu.Unlock()
}

// OnChange registers a callback fired after every state mutation. Used by
// the UI to re-render.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// OnNewNotification registers a best-effort hook for transient alerts
// (toast, audible cue). A panicking hook is swallowed: side effects must
// never break the dispatch path.
func (s *Store) OnNewNotification(fn func(Notification)) {
	s.mu.Lock()
	s.onNewItem = fn
	s.mu.Unlock()
}

// UnreadCount returns the current badge value.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Notifications returns a copy of the feed, newest first.
func (s *Store) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}

// HandleConnected applies the handshake snapshot: the authoritative unread
// baseline for a freshly opened channel.
func (s *Store) HandleConnected(unread int) {
	s.setUnread(unread)
}

// HandleNotification applies an inbound push. A duplicate id replaces the
// existing record instead of appending; the count increments only for a
// genuinely new unread record.
func (s *Store) HandleNotification(n Notification) {
	s.mu.Lock()
	isNew := true
	if i := s.indexOf(n.ID); i >= 0 {
		s.items[i] = n
		isNew = false
	} else {
		s.items = append([]Notification{n}, s.items...)
		if len(s.items) > maxNotifications {
			s.items = s.items[:maxNotifications]
		}
		if !n.Read {
			s.unread++
		}
	}
	onNew := s.onNewItem
	s.mu.Unlock()

	s.notifyChange()
	if isNew && onNew != nil {
		fireAlert(onNew, n)
	}
}

// HandleRead applies a read acknowledgement, whether it arrived as a channel
// echo or was applied optimistically before. The decrement is guarded by the
// per-notification read flag, so a duplicate ack is a no-op; an ack for an
// unknown id is ignored.
func (s *Store) HandleRead(id string) {
	s.applyRead(id)
}

// FetchUnreadCount overwrites the local count from the fallback API.
func (s *Store) FetchUnreadCount(ctx context.Context) error {
	n, err := s.api.UnreadCount(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("fetch unread count failed")
		return err
	}
	s.setUnread(n)
	return nil
}

// FetchNotifications replaces the feed wholesale from the fallback API.
// Called lazily, when the panel opens.
func (s *Store) FetchNotifications(ctx context.Context) error {
	items, err := s.api.Notifications(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("fetch notifications failed")
		return err
	}
	if len(items) > maxNotifications {
		items = items[:maxNotifications]
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	s.notifyChange()
	return nil
}

// MarkAsRead marks one notification read. Idempotent from the caller's
// perspective. Channel first with an optimistic local update; HTTP fallback
// otherwise. A fallback failure leaves state unchanged; marking read is
// best-effort, not critical.
func (s *Store) MarkAsRead(ctx context.Context, id string) error {
	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 && s.items[i].Read {
		s.mu.Unlock()
		return nil
	}
	sender := s.sender
	s.mu.Unlock()

	if sender != nil {
		err := sender.Send(outboundMessage{Type: "mark_read", NotificationID: id})
		if err == nil {
			// Optimistic: the server echo re-applies harmlessly.
			s.applyRead(id)
			return nil
		}
		if !errors.Is(err, ErrNotConnected) {
			log.Warn().Err(err).Str("id", id).Msg("channel mark_read failed, using fallback")
		}
	}

	if err := s.api.MarkRead(ctx, id); err != nil {
		log.Warn().Err(err).Str("id", id).Msg("fallback mark_read failed")
		return err
	}
	s.applyRead(id)
	return nil
}

func (s *Store) setUnread(n int) {
	if n < 0 {
		n = 0
	}
	s.mu.Lock()
	s.unread = n
	s.mu.Unlock()
	s.notifyChange()
}

func (s *Store) applyRead(id string) {
	s.mu.Lock()
	changed := false
	if i := s.indexOf(id); i >= 0 && !s.items[i].Read {
		s.items[i].Read = true
		if s.unread > 0 {
			s.unread--
		}
		changed = true
	}
	s.mu.Unlock()

	if changed {
		s.notifyChange()
	}
}

// indexOf must be called with the lock held.
func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) notifyChange() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func fireAlert(fn func(Notification), n Notification) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("notification alert hook panicked")
		}
	}()
	fn(n)
}
