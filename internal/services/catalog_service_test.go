package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/shoppie-mart/api/internal/domain"
	"github.com/shoppie-mart/api/internal/repositories"
)

func newTestCatalogService(t *testing.T, products repositories.ProductRepository) CatalogService {
	t.Helper()
	svc, err := NewCatalogService(CatalogServiceDeps{
		Products:    products,
		Clock:       fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		IDGenerator: sequentialIDs("01X"),
	})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	return svc
}

func TestCatalogListProductsPassesFilter(t *testing.T) {
	category := domain.CategoryRice
	products := &stubProductRepo{
		listFn: func(_ context.Context, filter repositories.ProductListFilter) ([]domain.Product, error) {
			if filter.Category == nil || *filter.Category != category {
				t.Fatalf("unexpected category filter %+v", filter.Category)
			}
			return []domain.Product{{ID: "p1", Category: category}}, nil
		},
	}
	svc := newTestCatalogService(t, products)

	listed, err := svc.ListProducts(context.Background(), ProductListFilter{Category: &category})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != "p1" {
		t.Fatalf("unexpected products: %+v", listed)
	}
}

func TestCatalogListProductsRejectsUnknownCategory(t *testing.T) {
	svc := newTestCatalogService(t, &stubProductRepo{})

	bad := domain.Category("Snacks")
	if _, err := svc.ListProducts(context.Background(), ProductListFilter{Category: &bad}); !errors.Is(err, ErrProductInvalidInput) {
		t.Fatalf("expected ErrProductInvalidInput, got %v", err)
	}
}

func TestCatalogGetProductNotFound(t *testing.T) {
	svc := newTestCatalogService(t, &stubProductRepo{})

	if _, err := svc.GetProduct(context.Background(), "ghost"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCatalogCategories(t *testing.T) {
	svc := newTestCatalogService(t, &stubProductRepo{})

	categories, err := svc.Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(categories) != 6 {
		t.Fatalf("expected 6 categories, got %d", len(categories))
	}
	if categories[0] != domain.CategoryRice {
		t.Fatalf("expected Rice first, got %q", categories[0])
	}
}

func TestCatalogCreateProduct(t *testing.T) {
	var inserted domain.Product
	products := &stubProductRepo{
		insertFn: func(_ context.Context, product domain.Product) error {
			inserted = product
			return nil
		},
	}
	svc := newTestCatalogService(t, products)

	created, err := svc.CreateProduct(context.Background(), UpsertProductCommand{
		Name:     "Basmati Rice",
		Price:    250,
		Category: domain.CategoryRice,
		Rating:   4.5,
		Reviews:  10,
		Weight:   "1kg",
		Brand:    "Shoppie",
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if created.ID != "prd_01X" {
		t.Errorf("product id = %q, want prd_01X", created.ID)
	}
	if !created.InStock {
		t.Error("new products should default to in stock")
	}
	if inserted.ID != created.ID {
		t.Errorf("inserted id = %q", inserted.ID)
	}
}

func TestCatalogCreateProductValidation(t *testing.T) {
	svc := newTestCatalogService(t, &stubProductRepo{})

	cases := []UpsertProductCommand{
		{Name: "", Price: 100, Category: domain.CategoryRice},
		{Name: "Rice", Price: 0, Category: domain.CategoryRice},
		{Name: "Rice", Price: -5, Category: domain.CategoryRice},
		{Name: "Rice", Price: 100, Category: "Snacks"},
		{Name: "Rice", Price: 100, Category: domain.CategoryRice, Rating: 5.5},
		{Name: "Rice", Price: 100, Category: domain.CategoryRice, Reviews: -1},
	}
	for _, cmd := range cases {
		if _, err := svc.CreateProduct(context.Background(), cmd); !errors.Is(err, ErrProductInvalidInput) {
			t.Errorf("CreateProduct(%+v) = %v, want ErrProductInvalidInput", cmd, err)
		}
	}
}

func TestCatalogUpdateProductKeepsCreatedAt(t *testing.T) {
	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	products := &stubProductRepo{
		findFn: func(context.Context, string) (domain.Product, error) {
			return domain.Product{ID: "p1", Name: "Old", Price: 90, Category: domain.CategoryOil, InStock: true, CreatedAt: createdAt}, nil
		},
	}
	svc := newTestCatalogService(t, products)

	updated, err := svc.UpdateProduct(context.Background(), UpsertProductCommand{
		ProductID: "p1",
		Name:      "Sunflower Oil",
		Price:     180,
		Category:  domain.CategoryOil,
	})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if !updated.CreatedAt.Equal(createdAt) {
		t.Errorf("createdAt changed: %v", updated.CreatedAt)
	}
	if updated.Price != 180 || updated.Name != "Sunflower Oil" {
		t.Errorf("unexpected update result: %+v", updated)
	}
	if !updated.InStock {
		t.Error("expected InStock preserved when omitted")
	}
}

func TestCatalogUpdateMissingProduct(t *testing.T) {
	svc := newTestCatalogService(t, &stubProductRepo{})

	_, err := svc.UpdateProduct(context.Background(), UpsertProductCommand{
		ProductID: "ghost",
		Name:      "Rice",
		Price:     100,
		Category:  domain.CategoryRice,
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}
