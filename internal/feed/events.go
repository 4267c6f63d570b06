package feed

import "time"

// Notification is the client-side view of one admin alert.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	OrderID   string    `json:"order_id,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification type tags the server emits. Anything else renders with the
// generic icon and routes to the orders view.
const (
	TypeNewOrder             = "new_order"
	TypePaymentSubmitted     = "payment_submitted"
	TypePaymentProofUploaded = "payment_proof_uploaded"
	TypeLowStock             = "low_stock"
	TypeCustomRequest        = "custom_request"
	TypeNewEnquiry           = "new_enquiry"
)

// outboundMessage is a client -> service payload, tagged by Type.
type outboundMessage struct {
	Type           string `json:"type"`
	NotificationID string `json:"notification_id,omitempty"`
}

// inboundEvent is a service -> client payload. Push events are tagged by
// Event; replies to client messages (pong) are tagged by Type.
type inboundEvent struct {
	Event          string         `json:"event"`
	Type           string         `json:"type"`
	Counts         *inboundCounts `json:"counts"`
	Notification   *Notification  `json:"notification"`
	NotificationID string         `json:"notification_id"`
}

type inboundCounts struct {
	UnreadNotifications int `json:"unread_notifications"`
}
