// internal/models/common.go
package models

// Logical collection names in the document store. Each collection is
// partitioned to match the storefront's access patterns: orders by their
// own id, order items by owning order, products by category, users by
// email.
const (
	CollectionUsers      = "users"
	CollectionProducts   = "products"
	CollectionOrders     = "orders"
	CollectionOrderItems = "order_items"
)

// OrderStatus is stored as text, not a numeric code, so documents stay
// readable across schema versions.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)
