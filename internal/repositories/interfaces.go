package repositories

import (
	"context"
	"time"

	domain "github.com/shoppie-mart/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	Counters() CounterRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProductRepository persists catalog products and supports category filtered listings.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	FindByIDs(ctx context.Context, productIDs []string) (map[string]domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) ([]domain.Product, error)
}

// CartRepository owns the single cart document per user, items embedded.
type CartRepository interface {
	UpsertCart(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	GetCart(ctx context.Context, userID string) (domain.Cart, error)
	ReplaceItems(ctx context.Context, userID string, items []domain.CartItem, now time.Time) (domain.Cart, error)
}

// OrderRepository persists immutable order snapshots and their status field.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	ListByUser(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)
}

// CounterRepository provides transaction-safe sequence numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Ping(ctx context.Context) error
}

// ProductListFilter narrows catalog listings.
type ProductListFilter struct {
	Category *domain.Category
	InStock  *bool
}

// OrderListFilter scopes order listings to a user, newest first.
type OrderListFilter struct {
	UserID string
	Status []domain.OrderStatus
	Limit  int
}
