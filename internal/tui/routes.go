package tui

import "stitchworks/internal/feed"

// Admin views reachable from a notification. Mirrors the admin web app's
// routing so staff land in the same place regardless of client.
const (
	RouteDashboard      = "/admin/dashboard"
	RouteOrders         = "/admin/dashboard/orders"
	RouteEnquiries      = "/admin/enquiries"
	RouteInventory      = "/admin/inventory"
	RouteCustomRequests = "/admin/dashboard/custom-requests"
)

// RouteFor maps a notification to its navigation target. Precedence matches
// the web client: enquiries first, then anything tied to an order, then the
// per-type views, with orders as the generic fallback.
func RouteFor(n feed.Notification) string {
	switch {
	case n.Type == feed.TypeNewEnquiry:
		if n.OrderID != "" {
			return RouteEnquiries + "?highlight=" + n.OrderID
		}
		return RouteEnquiries
	case n.OrderID != "":
		return RouteOrders
	case n.Type == feed.TypeLowStock:
		return RouteInventory
	case n.Type == feed.TypeCustomRequest:
		return RouteCustomRequests
	default:
		return RouteOrders
	}
}

// iconFor picks the feed glyph for a notification type.
func iconFor(t string) string {
	switch t {
	case feed.TypeNewOrder:
		return "📦"
	case feed.TypePaymentSubmitted, feed.TypePaymentProofUploaded:
		return "💰"
	case feed.TypeLowStock:
		return "⚠️"
	case feed.TypeCustomRequest, feed.TypeNewEnquiry:
		return "👤"
	default:
		return "🔔"
	}
}
