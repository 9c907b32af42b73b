package services

import (
	"context"

	domain "github.com/shoppie-mart/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Product         = domain.Product
	Category        = domain.Category
	Cart            = domain.Cart
	CartItem        = domain.CartItem
	PricedCart      = domain.PricedCart
	PricedCartItem  = domain.PricedCartItem
	Order           = domain.Order
	OrderItem       = domain.OrderItem
	OrderStatus     = domain.OrderStatus
	ShippingAddress = domain.ShippingAddress
)

// CatalogService manages grocery products for public browsing and admin upkeep.
type CatalogService interface {
	ListProducts(ctx context.Context, filter ProductListFilter) ([]Product, error)
	GetProduct(ctx context.Context, productID string) (Product, error)
	Categories(ctx context.Context) ([]Category, error)
	CreateProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error)
	UpdateProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error)
}

// CartService manages the per-user cart. Every returned cart is priced live
// against the current catalog.
type CartService interface {
	GetCart(ctx context.Context, userID string) (PricedCart, error)
	AddItem(ctx context.Context, cmd AddCartItemCommand) (PricedCart, error)
	UpdateItemQuantity(ctx context.Context, cmd UpdateCartItemCommand) (PricedCart, error)
	RemoveItem(ctx context.Context, cmd RemoveCartItemCommand) (PricedCart, error)
	ClearCart(ctx context.Context, userID string) error
}

// OrderService finalises carts into orders and guards the status lifecycle.
type OrderService interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (Order, error)
	ListOrders(ctx context.Context, cmd ListOrdersCommand) ([]Order, error)
	GetOrder(ctx context.Context, userID string, orderID string) (Order, error)
	UpdateStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (Order, error)
}

// ProductListFilter narrows catalog listings.
type ProductListFilter struct {
	Category *Category
	InStock  *bool
}

// UpsertProductCommand carries admin product create/update input.
type UpsertProductCommand struct {
	ProductID   string
	Name        string
	Description string
	Price       int64
	Category    Category
	ImageURL    string
	InStock     *bool
	Rating      float64
	Reviews     int
	Weight      string
	Brand       string
}

// AddCartItemCommand adds a product to the user's cart.
type AddCartItemCommand struct {
	UserID    string
	ProductID string
	Quantity  int
}

// UpdateCartItemCommand replaces the quantity of an existing cart line.
type UpdateCartItemCommand struct {
	UserID    string
	ProductID string
	Quantity  int
}

// RemoveCartItemCommand removes a cart line.
type RemoveCartItemCommand struct {
	UserID    string
	ProductID string
}

// PlaceOrderCommand finalises the user's cart into an order.
type PlaceOrderCommand struct {
	UserID          string
	ShippingAddress ShippingAddress
	PaymentMethod   string
}

// ListOrdersCommand scopes order listings to a user, newest first.
type ListOrdersCommand struct {
	UserID string
	Status []OrderStatus
	Limit  int
}

// UpdateOrderStatusCommand requests a guarded status transition.
type UpdateOrderStatusCommand struct {
	UserID  string
	OrderID string
	Status  OrderStatus
}
