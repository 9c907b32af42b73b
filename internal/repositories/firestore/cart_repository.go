package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/shoppie-mart/api/internal/domain"
	pfirestore "github.com/shoppie-mart/api/internal/platform/firestore"
	"github.com/shoppie-mart/api/internal/repositories"
)

const cartCollection = "carts"

type cartItemDocument struct {
	ID        string     `firestore:"id"`
	ProductID string     `firestore:"productId"`
	Quantity  int        `firestore:"quantity"`
	AddedAt   time.Time  `firestore:"addedAt"`
	UpdatedAt *time.Time `firestore:"updatedAt,omitempty"`
}

type cartDocument struct {
	Items     []cartItemDocument `firestore:"items"`
	CreatedAt time.Time          `firestore:"createdAt"`
	UpdatedAt time.Time          `firestore:"updatedAt"`
}

// CartRepository persists one cart document per user with items embedded.
// Totals are never written; pricing happens in the service layer against the
// live catalog.
type CartRepository struct {
	base *pfirestore.BaseRepository[cartDocument]
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[cartDocument](provider, cartCollection, nil, nil)
	return &CartRepository{base: base}, nil
}

// UpsertCart writes the full cart document keyed by user ID.
func (r *CartRepository) UpsertCart(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(cart.UserID)
	if uid == "" {
		uid = strings.TrimSpace(cart.ID)
	}
	if uid == "" {
		return domain.Cart{}, errors.New("cart repository: user id is required")
	}

	now := cart.UpdatedAt.UTC()
	if now.IsZero() {
		now = time.Now().UTC()
	}
	createdAt := cart.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = now
	}

	doc := cartDocument{
		Items:     encodeCartItems(cart.Items),
		CreatedAt: createdAt,
		UpdatedAt: now,
	}
	if _, err := r.base.Set(ctx, uid, doc); err != nil {
		return domain.Cart{}, err
	}
	return decodeCart(uid, doc), nil
}

// GetCart loads the cart for the given user ID.
func (r *CartRepository) GetCart(ctx context.Context, userID string) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Cart{}, errors.New("cart repository: user id is required")
	}

	doc, err := r.base.Get(ctx, uid)
	if err != nil {
		return domain.Cart{}, err
	}
	return decodeCart(uid, doc.Data), nil
}

// ReplaceItems overwrites the item list of an existing cart, creating the
// document when absent. An empty slice empties the cart without deleting it.
func (r *CartRepository) ReplaceItems(ctx context.Context, userID string, items []domain.CartItem, now time.Time) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Cart{}, errors.New("cart repository: user id is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	existing, err := r.base.Get(ctx, uid)
	createdAt := now.UTC()
	if err == nil {
		if !existing.Data.CreatedAt.IsZero() {
			createdAt = existing.Data.CreatedAt
		}
	} else {
		var repoErr repositories.RepositoryError
		if !errors.As(err, &repoErr) || !repoErr.IsNotFound() {
			return domain.Cart{}, err
		}
	}

	doc := cartDocument{
		Items:     encodeCartItems(items),
		CreatedAt: createdAt,
		UpdatedAt: now.UTC(),
	}
	if _, err := r.base.Set(ctx, uid, doc); err != nil {
		return domain.Cart{}, err
	}
	return decodeCart(uid, doc), nil
}

func encodeCartItems(items []domain.CartItem) []cartItemDocument {
	out := make([]cartItemDocument, 0, len(items))
	for _, item := range items {
		out = append(out, cartItemDocument{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			AddedAt:   item.AddedAt.UTC(),
			UpdatedAt: item.UpdatedAt,
		})
	}
	return out
}

func decodeCart(userID string, doc cartDocument) domain.Cart {
	items := make([]domain.CartItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, domain.CartItem{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			AddedAt:   item.AddedAt,
			UpdatedAt: item.UpdatedAt,
		})
	}
	return domain.Cart{
		ID:        userID,
		UserID:    userID,
		Items:     items,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

var _ repositories.CartRepository = (*CartRepository)(nil)
