package notification

import "time"

// Type categorizes a notification. It drives icon selection and the
// navigation target in admin clients.
type Type string

const (
	TypeNewOrder             Type = "new_order"
	TypePaymentSubmitted     Type = "payment_submitted"
	TypePaymentProofUploaded Type = "payment_proof_uploaded"
	TypeLowStock             Type = "low_stock"
	TypeCustomRequest        Type = "custom_request"
	TypeNewEnquiry           Type = "new_enquiry"
)

// Notification is one alert surfaced to admin users. Read transitions
// false -> true exactly once; there is no un-reading.
type Notification struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	Type      Type      `gorm:"column:type" json:"type"`
	Title     string    `gorm:"column:title" json:"title"`
	Message   string    `gorm:"column:message" json:"message"`
	OrderID   *string   `gorm:"column:order_id" json:"order_id,omitempty"`
	Read      bool      `gorm:"column:read;index:idx_notifications_read" json:"read"`
	CreatedAt time.Time `gorm:"column:created_at;index:idx_notifications_created" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
