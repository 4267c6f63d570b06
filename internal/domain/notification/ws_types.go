package notification

// ClientMessage is an inbound websocket payload, tagged by Type.
type ClientMessage struct {
	Type           string `json:"type"`
	NotificationID string `json:"notification_id,omitempty"`
}

// ServerEvent is an outbound websocket payload. Push events are tagged by
// Event; direct replies to client messages (pong) are tagged by Type.
type ServerEvent struct {
	Event          string        `json:"event,omitempty"`
	Type           string        `json:"type,omitempty"`
	Counts         *Counts       `json:"counts,omitempty"`
	Notification   *Notification `json:"notification,omitempty"`
	NotificationID string        `json:"notification_id,omitempty"`
}

// Counts is the handshake snapshot sent right after an admin connects.
type Counts struct {
	UnreadNotifications int64 `json:"unread_notifications"`
}

func NewConnectedEvent(unread int64) *ServerEvent {
	return &ServerEvent{
		Event:  "connected",
		Counts: &Counts{UnreadNotifications: unread},
	}
}

func NewNotificationEvent(n *Notification) *ServerEvent {
	return &ServerEvent{
		Event:        "notification",
		Notification: n,
	}
}

func NewReadEvent(notificationID string) *ServerEvent {
	return &ServerEvent{
		Event:          "notification_read",
		NotificationID: notificationID,
	}
}

func NewPongEvent() *ServerEvent {
	return &ServerEvent{Type: "pong"}
}
