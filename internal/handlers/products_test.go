package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domain "github.com/shoppie-mart/api/internal/domain"
	"github.com/shoppie-mart/api/internal/services"
)

type stubCatalogService struct {
	listFn       func(ctx context.Context, filter services.ProductListFilter) ([]domain.Product, error)
	getFn        func(ctx context.Context, productID string) (domain.Product, error)
	categoriesFn func(ctx context.Context) ([]domain.Category, error)
	createFn     func(ctx context.Context, cmd services.UpsertProductCommand) (domain.Product, error)
	updateFn     func(ctx context.Context, cmd services.UpsertProductCommand) (domain.Product, error)
}

func (s *stubCatalogService) ListProducts(ctx context.Context, filter services.ProductListFilter) ([]domain.Product, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, nil
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if s.getFn != nil {
		return s.getFn(ctx, productID)
	}
	return domain.Product{}, fmt.Errorf("%w: %s", services.ErrProductNotFound, productID)
}

func (s *stubCatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	if s.categoriesFn != nil {
		return s.categoriesFn(ctx)
	}
	return domain.Categories(), nil
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, cmd services.UpsertProductCommand) (domain.Product, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return domain.Product{}, fmt.Errorf("%w: create not stubbed", services.ErrCatalogUnavailable)
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, cmd services.UpsertProductCommand) (domain.Product, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, cmd)
	}
	return domain.Product{}, fmt.Errorf("%w: update not stubbed", services.ErrCatalogUnavailable)
}

var _ services.CatalogService = (*stubCatalogService)(nil)

func newCatalogRouter(catalog services.CatalogService) http.Handler {
	h := NewProductHandlers(catalog)
	return NewRouter(
		WithProductRoutes(h.Routes),
		WithAdminRoutes(h.AdminRoutes),
	)
}

func decodeErrorBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse error body: %v", err)
	}
	return body
}

func TestListProductsAppliesCategoryFilter(t *testing.T) {
	catalog := &stubCatalogService{
		listFn: func(_ context.Context, filter services.ProductListFilter) ([]domain.Product, error) {
			if filter.Category == nil || *filter.Category != domain.CategoryPulses {
				t.Fatalf("unexpected filter %+v", filter)
			}
			return []domain.Product{{ID: "prd_1", Name: "Toor Dal", Price: 150, Category: domain.CategoryPulses, InStock: true}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?category=Pulses", nil)
	rr := httptest.NewRecorder()
	newCatalogRouter(catalog).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body productsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if len(body.Products) != 1 || body.Products[0].ID != "prd_1" {
		t.Fatalf("unexpected products %+v", body.Products)
	}
	if body.Products[0].Category != "Pulses" {
		t.Fatalf("unexpected category %q", body.Products[0].Category)
	}
}

func TestListProductsRejectsBadInStock(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?in_stock=maybe", nil)
	rr := httptest.NewRecorder()
	newCatalogRouter(&stubCatalogService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if body := decodeErrorBody(t, rr); body["error"] != "invalid_request" {
		t.Fatalf("unexpected error code %v", body["error"])
	}
}

func TestGetProductNotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/ghost", nil)
	rr := httptest.NewRecorder()
	newCatalogRouter(&stubCatalogService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if body := decodeErrorBody(t, rr); body["error"] != "product_not_found" {
		t.Fatalf("unexpected error code %v", body["error"])
	}
}

func TestListCategoriesReturnsFixedSet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/categories", nil)
	rr := httptest.NewRecorder()
	newCatalogRouter(&stubCatalogService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body categoriesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if len(body.Categories) != 6 {
		t.Fatalf("expected 6 categories, got %v", body.Categories)
	}
	if body.Categories[0] != "Rice" {
		t.Fatalf("expected Rice first, got %q", body.Categories[0])
	}
}

func TestAdminCreateProduct(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	catalog := &stubCatalogService{
		createFn: func(_ context.Context, cmd services.UpsertProductCommand) (domain.Product, error) {
			if cmd.Name != "Basmati Rice" || cmd.Price != 250 {
				t.Fatalf("unexpected command %+v", cmd)
			}
			return domain.Product{
				ID: "prd_01X", Name: cmd.Name, Price: cmd.Price, Category: cmd.Category,
				InStock: true, CreatedAt: now, UpdatedAt: now,
			}, nil
		},
	}

	payload := `{"name":"Basmati Rice","price":250,"category":"Rice","rating":4.5,"reviews":10}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	newCatalogRouter(catalog).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var body productResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if body.Product.ID != "prd_01X" || !body.Product.InStock {
		t.Fatalf("unexpected product %+v", body.Product)
	}
}

func TestAdminCreateProductValidationError(t *testing.T) {
	catalog := &stubCatalogService{
		createFn: func(_ context.Context, cmd services.UpsertProductCommand) (domain.Product, error) {
			return domain.Product{}, fmt.Errorf("%w: price must be positive", services.ErrProductInvalidInput)
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", strings.NewReader(`{"name":"Rice","price":-1,"category":"Rice"}`))
	rr := httptest.NewRecorder()
	newCatalogRouter(catalog).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if body := decodeErrorBody(t, rr); body["error"] != "invalid_request" {
		t.Fatalf("unexpected error code %v", body["error"])
	}
}

func TestAdminUpdateProductUsesPathID(t *testing.T) {
	catalog := &stubCatalogService{
		updateFn: func(_ context.Context, cmd services.UpsertProductCommand) (domain.Product, error) {
			if cmd.ProductID != "prd_9" {
				t.Fatalf("expected path product id, got %q", cmd.ProductID)
			}
			return domain.Product{ID: cmd.ProductID, Name: cmd.Name, Price: cmd.Price, Category: cmd.Category}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/products/prd_9", strings.NewReader(`{"name":"Sunflower Oil","price":180,"category":"Oil"}`))
	rr := httptest.NewRecorder()
	newCatalogRouter(catalog).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAdminCreateProductRejectsEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", strings.NewReader("  "))
	rr := httptest.NewRecorder()
	newCatalogRouter(&stubCatalogService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
