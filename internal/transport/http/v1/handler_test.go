package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/catalogbot/internal/auth"
	"github.com/xiaot623/catalogbot/internal/domain"
	"github.com/xiaot623/catalogbot/internal/repository"
	"github.com/xiaot623/catalogbot/internal/service"
	"github.com/xiaot623/catalogbot/internal/session"
	"github.com/xiaot623/catalogbot/tests/helpers"
)

func newTestRouter(t *testing.T, apiKey string) (*echo.Echo, *repository.SQLStore) {
	t.Helper()

	db := helpers.NewTestStore(t)
	helpers.SeedAdmin(t, db, "alice", "s3cret", "Color", "Size")
	policy, err := auth.NewPolicy(context.Background(), auth.DefaultPolicy, []string{"admin"})
	require.NoError(t, err)

	svc := service.New(db, auth.NewGate(db, nil, policy), session.NewMemoryStore(time.Hour, nil), service.Options{})
	e := echo.New()
	NewHandler(svc, apiKey).RegisterRoutes(e)
	return e, db
}

const testKey = "k3y"

func get(e *echo.Echo, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if key != "" {
		req.Header.Set(APIKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListProductsEmpty(t *testing.T) {
	e, _ := newTestRouter(t, testKey)

	rec := get(e, "/v1/products", testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"products":[]}`, rec.Body.String())
}

func TestListAndGetProduct(t *testing.T) {
	ctx := context.Background()
	e, db := newTestRouter(t, testKey)

	id, err := db.CreateProduct(ctx, domain.ProductDraft{Name: "Widget", Price: "9.99", Stock: "3", Description: "blue"})
	require.NoError(t, err)
	require.NoError(t, db.UpsertProductAttribute(ctx, domain.ProductAttribute{ProductID: id, AttributeID: 1, Value: "red"}))

	rec := get(e, "/v1/products", testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Products []domain.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Products, 1)
	assert.Equal(t, "Widget", list.Products[0].Name)

	rec = get(e, "/v1/products/1", testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Product    domain.Product          `json:"product"`
		Attributes []domain.AttributeValue `json:"attributes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "9.99", detail.Product.Price)
	require.Len(t, detail.Attributes, 2)
	require.NotNil(t, detail.Attributes[0].Value)
	assert.Equal(t, "red", *detail.Attributes[0].Value)
	assert.Nil(t, detail.Attributes[1].Value)
}

func TestGetProductErrors(t *testing.T) {
	e, _ := newTestRouter(t, testKey)

	assert.Equal(t, http.StatusBadRequest, get(e, "/v1/products/abc", testKey).Code)
	assert.Equal(t, http.StatusNotFound, get(e, "/v1/products/42", testKey).Code)
}

func TestAPIKeyRequired(t *testing.T) {
	e, _ := newTestRouter(t, testKey)

	assert.NotEqual(t, http.StatusOK, get(e, "/v1/products", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(e, "/v1/products", "bad").Code)
	assert.Equal(t, http.StatusUnauthorized, get(e, "/v1/products/1", "bad").Code)
	assert.Equal(t, http.StatusOK, get(e, "/v1/products", testKey).Code)
}

func TestEmptyAPIKeyRejectsEveryRequest(t *testing.T) {
	e, _ := newTestRouter(t, "")

	assert.NotEqual(t, http.StatusOK, get(e, "/v1/products", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(e, "/v1/products", "anything").Code)
}

func TestDatabaseError(t *testing.T) {
	e, db := newTestRouter(t, testKey)
	require.NoError(t, db.Close())

	rec := get(e, "/v1/products", testKey)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sql")
}
