package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/storefront/internal/model"
	"example.com/storefront/internal/service"
)

type mockCatalog struct {
	products    []model.Product
	product     *model.Product
	err         error
	lastFilters service.ProductFilters
	lastCreate  service.CreateProductInput
}

func (m *mockCatalog) CreateProduct(in service.CreateProductInput) (*model.Product, error) {
	m.lastCreate = in
	return m.product, m.err
}

func (m *mockCatalog) Products(f service.ProductFilters) ([]model.Product, service.Pagination, error) {
	m.lastFilters = f
	return m.products, service.Pagination{Page: f.Page, Limit: f.Limit, Total: int64(len(m.products))}, m.err
}

func (m *mockCatalog) ProductByID(id uint) (*model.Product, error)       { return m.product, m.err }
func (m *mockCatalog) ProductBySlug(slug string) (*model.Product, error) { return m.product, m.err }

func (m *mockCatalog) UpdateProduct(id uint, in service.UpdateProductInput) (*model.Product, error) {
	return m.product, m.err
}

func (m *mockCatalog) DeleteProduct(id uint) (*model.Product, error) { return m.product, m.err }
func (m *mockCatalog) DecrementStock(id uint, qty int) error         { return m.err }
func (m *mockCatalog) IncrementStock(id uint, qty int) error         { return m.err }

func (m *mockCatalog) AddReview(productID, userID uint, rating int, comment string) (*model.Product, error) {
	return m.product, m.err
}

func (m *mockCatalog) LowStockProducts(threshold int) ([]model.Product, error) {
	return m.products, m.err
}

func productRouter(t *testing.T, catalog service.CatalogService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewProductHTTP(catalog, quietLogger())

	r := gin.New()
	r.GET("/products", h.List)
	r.GET("/products/:id", h.Get)
	r.POST("/products", h.Create)
	return r
}

func TestListProductsParsesFilters(t *testing.T) {
	mock := &mockCatalog{products: []model.Product{{ID: 1, Name: "Thing"}}}
	r := productRouter(t, mock)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/products?category=Books&search=go&min_price_cents=1000&max_price_cents=5000&page=2&limit=5&sort_by=price", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.CategoryBooks, mock.lastFilters.Category)
	assert.Equal(t, "go", mock.lastFilters.Search)
	assert.Equal(t, "price", mock.lastFilters.SortBy)
	assert.Equal(t, 2, mock.lastFilters.Page)
	assert.Equal(t, 5, mock.lastFilters.Limit)
	require.NotNil(t, mock.lastFilters.MinPriceCents)
	assert.EqualValues(t, 1000, *mock.lastFilters.MinPriceCents)
	require.NotNil(t, mock.lastFilters.MaxPriceCents)
	assert.EqualValues(t, 5000, *mock.lastFilters.MaxPriceCents)
}

func TestGetProductNotFound(t *testing.T) {
	mock := &mockCatalog{err: service.Errorf(service.KindNotFound, "product 99 not found")}
	r := productRouter(t, mock)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/99", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestCreateProductValidation(t *testing.T) {
	mock := &mockCatalog{product: &model.Product{ID: 1, SKU: "SKU-1"}}
	r := productRouter(t, mock)

	t.Run("missing fields rejected at the edge", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products",
			bytes.NewReader([]byte(`{"name":"No SKU"}`))))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate sku maps to conflict", func(t *testing.T) {
		dup := &mockCatalog{err: service.Errorf(service.KindDuplicate, "product with sku SKU-1 already exists")}
		r := productRouter(t, dup)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products",
			bytes.NewReader([]byte(`{"name":"X","description":"y","category":"Books","sku":"SKU-1"}`))))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("valid body created", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products",
			bytes.NewReader([]byte(`{"name":"Go Book","description":"learn go","category":"Books","price_cents":2500,"stock":3,"sku":"BK-GO"}`))))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "BK-GO", mock.lastCreate.SKU)
		assert.EqualValues(t, 2500, mock.lastCreate.PriceCents)
	})
}
