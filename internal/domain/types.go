package domain

import (
	"time"
)

// Category enumerates the fixed grocery catalog categories.
type Category string

const (
	// CategoryRice covers rice varieties.
	CategoryRice Category = "Rice"
	// CategoryPulses covers whole pulses.
	CategoryPulses Category = "Pulses"
	// CategoryOil covers cooking oils.
	CategoryOil Category = "Oil"
	// CategorySpices covers whole and ground spices.
	CategorySpices Category = "Spices"
	// CategoryGrains covers flours and other grains.
	CategoryGrains Category = "Grains"
	// CategoryLentils covers split lentils.
	CategoryLentils Category = "Lentils"
)

// Categories lists every valid catalog category in display order.
func Categories() []Category {
	return []Category{
		CategoryRice,
		CategoryPulses,
		CategoryOil,
		CategorySpices,
		CategoryGrains,
		CategoryLentils,
	}
}

// ValidCategory reports whether the value is one of the fixed categories.
func ValidCategory(value Category) bool {
	switch value {
	case CategoryRice, CategoryPulses, CategoryOil, CategorySpices, CategoryGrains, CategoryLentils:
		return true
	}
	return false
}

// Product describes a purchasable catalog entry. Products are owned by the
// catalog and immutable from the cart/order subsystem's point of view.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       int64
	Category    Category
	ImageURL    string
	InStock     bool
	Rating      float64
	Reviews     int
	Weight      string
	Brand       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CartItem is a single cart line: a product reference plus a positive
// quantity. Prices are never stored on the line; carts are priced live
// against the catalog on every read.
type CartItem struct {
	ID        string
	ProductID string
	Quantity  int
	AddedAt   time.Time
	UpdatedAt *time.Time
}

// Cart holds the purchase lines for exactly one user. The document keyed by
// user ID is created lazily on first add and emptied, not deleted, after a
// successful order.
type Cart struct {
	ID        string
	UserID    string
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PricedCartItem is a cart line joined with its current catalog product.
// LineTotal is always Product.Price * Quantity at read time.
type PricedCartItem struct {
	Item      CartItem
	Product   Product
	LineTotal int64
}

// PricedCart is the live-priced view of a cart returned to callers. The
// total is recomputed from current catalog prices on every read and write;
// it is never persisted.
type PricedCart struct {
	Cart        Cart
	Items       []PricedCartItem
	TotalAmount int64
}

// OrderStatus enumerates order lifecycle states.
type OrderStatus string

const (
	// OrderStatusPending is the initial state of every placed order.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing indicates the order is being prepared.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped indicates the order has left the warehouse.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered is the terminal success state.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled is the terminal cancellation state.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ValidOrderStatus reports whether the value is a known order status.
func ValidOrderStatus(value OrderStatus) bool {
	switch value {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// ShippingAddress carries the delivery destination captured at checkout.
type ShippingAddress struct {
	FullName string
	Address  string
	City     string
	State    string
	ZipCode  string
	Phone    string
}

// OrderItem is an immutable order line. UnitPrice is the catalog price at
// the moment the order was placed and is never re-derived afterwards.
type OrderItem struct {
	ProductID string
	Name      string
	UnitPrice int64
	Quantity  int
	Total     int64
}

// Order is the immutable snapshot produced at checkout. Status is the only
// field mutated after creation.
type Order struct {
	ID              string
	OrderNumber     string
	UserID          string
	Items           []OrderItem
	Subtotal        int64
	DeliveryFee     int64
	Tax             int64
	TotalAmount     int64
	ShippingAddress ShippingAddress
	PaymentMethod   string
	Status          OrderStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
