package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/shoppie-mart/api/internal/domain"
	"github.com/shoppie-mart/api/internal/repositories"
)

const cartItemIDPrefix = "itm_"

var (
	// ErrCartInvalidInput indicates the caller supplied invalid input.
	ErrCartInvalidInput = errors.New("cart: invalid input")
	// ErrCartItemNotFound indicates the requested cart line does not exist.
	ErrCartItemNotFound = errors.New("cart: item not found")
	// ErrCartUnavailable indicates the cart service cannot fulfil the request due to backend issues.
	ErrCartUnavailable = errors.New("cart: unavailable")
)

// CartServiceDeps wires the repositories and ambient dependencies for cart operations.
type CartServiceDeps struct {
	Carts       repositories.CartRepository
	Products    repositories.ProductRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type cartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
	clock    func() time.Time
	newID    func() string
	logger   func(context.Context, string, map[string]any)
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errors.New("cart service: cart repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("cart service: product repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &cartService{
		carts:    deps.Carts,
		products: deps.Products,
		clock:    func() time.Time { return clock().UTC() },
		newID:    idGen,
		logger:   logger,
	}, nil
}

// GetCart loads the user's cart and prices it against the current catalog.
// A user without a cart document gets an empty cart, not an error.
func (s *cartService) GetCart(ctx context.Context, userID string) (PricedCart, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return PricedCart{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}

	cart, err := s.loadOrEmptyCart(ctx, uid)
	if err != nil {
		return PricedCart{}, err
	}
	return s.price(ctx, cart)
}

// AddItem adds a product to the cart or bumps the quantity of an existing line.
func (s *cartService) AddItem(ctx context.Context, cmd AddCartItemCommand) (PricedCart, error) {
	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return PricedCart{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return PricedCart{}, fmt.Errorf("%w: product_id is required", ErrCartInvalidInput)
	}
	if cmd.Quantity < 1 {
		return PricedCart{}, fmt.Errorf("%w: quantity must be at least 1", ErrCartInvalidInput)
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return PricedCart{}, s.mapProductError(err)
	}

	cart, err := s.loadOrEmptyCart(ctx, uid)
	if err != nil {
		return PricedCart{}, err
	}

	now := s.clock()
	items := cloneCartItems(cart.Items)
	if idx := indexOfCartItem(items, productID); idx >= 0 {
		items[idx].Quantity += cmd.Quantity
		ts := now
		items[idx].UpdatedAt = &ts
	} else {
		items = append(items, domain.CartItem{
			ID:        cartItemIDPrefix + s.newID(),
			ProductID: productID,
			Quantity:  cmd.Quantity,
			AddedAt:   now,
		})
	}

	saved, err := s.carts.ReplaceItems(ctx, uid, items, now)
	if err != nil {
		return PricedCart{}, s.translateRepoError(err)
	}

	s.logger(ctx, "cart.item.added", map[string]any{
		"userID":    uid,
		"productID": productID,
		"quantity":  cmd.Quantity,
	})
	return s.price(ctx, saved)
}

// UpdateItemQuantity replaces the quantity of an existing line.
func (s *cartService) UpdateItemQuantity(ctx context.Context, cmd UpdateCartItemCommand) (PricedCart, error) {
	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return PricedCart{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return PricedCart{}, fmt.Errorf("%w: product_id is required", ErrCartInvalidInput)
	}
	if cmd.Quantity < 1 {
		return PricedCart{}, fmt.Errorf("%w: quantity must be at least 1", ErrCartInvalidInput)
	}

	cart, err := s.loadOrEmptyCart(ctx, uid)
	if err != nil {
		return PricedCart{}, err
	}

	items := cloneCartItems(cart.Items)
	idx := indexOfCartItem(items, productID)
	if idx < 0 {
		return PricedCart{}, ErrCartItemNotFound
	}

	now := s.clock()
	items[idx].Quantity = cmd.Quantity
	ts := now
	items[idx].UpdatedAt = &ts

	saved, err := s.carts.ReplaceItems(ctx, uid, items, now)
	if err != nil {
		return PricedCart{}, s.translateRepoError(err)
	}
	return s.price(ctx, saved)
}

// RemoveItem deletes the line for the given product.
func (s *cartService) RemoveItem(ctx context.Context, cmd RemoveCartItemCommand) (PricedCart, error) {
	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return PricedCart{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return PricedCart{}, fmt.Errorf("%w: product_id is required", ErrCartInvalidInput)
	}

	cart, err := s.loadOrEmptyCart(ctx, uid)
	if err != nil {
		return PricedCart{}, err
	}

	items := cloneCartItems(cart.Items)
	idx := indexOfCartItem(items, productID)
	if idx < 0 {
		return PricedCart{}, ErrCartItemNotFound
	}
	items = append(items[:idx], items[idx+1:]...)

	saved, err := s.carts.ReplaceItems(ctx, uid, items, s.clock())
	if err != nil {
		return PricedCart{}, s.translateRepoError(err)
	}
	return s.price(ctx, saved)
}

// ClearCart empties the cart without deleting the document.
func (s *cartService) ClearCart(ctx context.Context, userID string) error {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}
	if _, err := s.carts.ReplaceItems(ctx, uid, []domain.CartItem{}, s.clock()); err != nil {
		return s.translateRepoError(err)
	}
	return nil
}

func (s *cartService) loadOrEmptyCart(ctx context.Context, userID string) (domain.Cart, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		if isRepoNotFound(err) {
			now := s.clock()
			return domain.Cart{
				ID:        userID,
				UserID:    userID,
				Items:     []domain.CartItem{},
				CreatedAt: now,
				UpdatedAt: now,
			}, nil
		}
		return domain.Cart{}, s.translateRepoError(err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return cart, nil
}

// price joins cart lines with the live catalog. Lines whose product no
// longer resolves are dropped from the view.
func (s *cartService) price(ctx context.Context, cart domain.Cart) (PricedCart, error) {
	ids := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return PricedCart{}, s.translateRepoError(err)
	}

	priced := make([]PricedCartItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		if !ok {
			s.logger(ctx, "cart.item.orphaned", map[string]any{
				"userID":    cart.UserID,
				"productID": item.ProductID,
			})
			continue
		}
		priced = append(priced, PricedCartItem{
			Item:      item,
			Product:   product,
			LineTotal: product.Price * int64(item.Quantity),
		})
	}

	return PricedCart{
		Cart:        cart,
		Items:       priced,
		TotalAmount: domain.CartSubtotal(priced),
	}, nil
}

func (s *cartService) mapProductError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrProductNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
}

func (s *cartService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return ErrCartItemNotFound
	}
	return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func indexOfCartItem(items []domain.CartItem, productID string) int {
	target := strings.TrimSpace(productID)
	if target == "" {
		return -1
	}
	for i, item := range items {
		if strings.EqualFold(strings.TrimSpace(item.ProductID), target) {
			return i
		}
	}
	return -1
}

func cloneCartItems(items []domain.CartItem) []domain.CartItem {
	if len(items) == 0 {
		return []domain.CartItem{}
	}
	dup := make([]domain.CartItem, len(items))
	copy(dup, items)
	for i := range dup {
		if dup[i].UpdatedAt != nil {
			ts := dup[i].UpdatedAt.UTC()
			dup[i].UpdatedAt = &ts
		}
	}
	return dup
}
