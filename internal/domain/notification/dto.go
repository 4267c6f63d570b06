package notification

// UnreadCountResponse for the count endpoint.
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

// CreateNotificationRequest creates a notification via the API. Used by
// internal tooling and tests; production notifications come from the
// order/inventory/enquiry flows through the Notify* helpers.
type CreateNotificationRequest struct {
	Type    string  `json:"type" binding:"required"`
	Title   string  `json:"title" binding:"required,max=255"`
	Message string  `json:"message" binding:"required"`
	OrderID *string `json:"order_id,omitempty"`
}
