package domain

// OrderStatus represents the status of a placed order. Only the remote
// system advances it; the storefront creates orders as processing.
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Label returns the human readable status text
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusProcessing:
		return "🔄 Processing"
	case OrderStatusShipped:
		return "🚚 Shipped"
	case OrderStatusDelivered:
		return "✅ Delivered"
	case OrderStatusCancelled:
		return "❌ Cancelled"
	default:
		return string(s)
	}
}

// Color returns the CSS colour used for the status badge
func (s OrderStatus) Color() string {
	switch s {
	case OrderStatusProcessing:
		return "#3498db"
	case OrderStatusShipped:
		return "#f39c12"
	case OrderStatusDelivered:
		return "#27ae60"
	case OrderStatusCancelled:
		return "#e74c3c"
	default:
		return "#666"
	}
}

// DeliveryMethod is the delivery option chosen at checkout
type DeliveryMethod string

const (
	DeliveryCourier DeliveryMethod = "courier"
	DeliveryPickup  DeliveryMethod = "pickup"
)

// IsValid checks if the delivery method is one of the offered options
func (d DeliveryMethod) IsValid() bool {
	return d == DeliveryCourier || d == DeliveryPickup
}

// PaymentMethod is the payment option chosen at checkout
type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentCash PaymentMethod = "cash"
)

// IsValid checks if the payment method is one of the offered options
func (p PaymentMethod) IsValid() bool {
	return p == PaymentCard || p == PaymentCash
}

// SortKey selects a catalog ordering
type SortKey string

const (
	SortPopularity SortKey = "popularity"
	SortPriceAsc   SortKey = "price-asc"
	SortPriceDesc  SortKey = "price-desc"
	SortNewest     SortKey = "newest"
	SortRating     SortKey = "rating"
)

// Role identifies the author of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// NoticeLevel is the severity of a user-visible notice
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
)
