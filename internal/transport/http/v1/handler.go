// Package v1 provides the read-only catalog API.
package v1

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/catalogbot/internal/domain"
	"github.com/xiaot623/catalogbot/internal/service"
)

// APIKeyHeader carries the API key.
const APIKeyHeader = "X-API-Key"

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	apiKey  string
}

// NewHandler creates a new handler. Every request must present apiKey; an
// empty apiKey matches nothing.
func NewHandler(service *service.Service, apiKey string) *Handler {
	return &Handler{
		service: service,
		apiKey:  apiKey,
	}
}

// RegisterRoutes registers the catalog routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/v1")
	g.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + APIKeyHeader,
		Validator: func(key string, c echo.Context) (bool, error) {
			if h.apiKey == "" {
				return false, nil
			}
			return subtle.ConstantTimeCompare([]byte(key), []byte(h.apiKey)) == 1, nil
		},
	}))

	g.GET("/products", h.ListProducts)
	g.GET("/products/:product_id", h.GetProduct)
}

// ListProducts lists the catalog.
// GET /v1/products
func (h *Handler) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	products, err := h.service.ListProducts(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "database error"})
	}
	if products == nil {
		products = []domain.Product{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"products": products,
	})
}

// GetProduct returns one product with its attribute values.
// GET /v1/products/:product_id
func (h *Handler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "product_id must be a number"})
	}

	product, attributes, err := h.service.GetProduct(ctx, productID)
	if domain.IsNotFound(err) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "product not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "database error"})
	}
	if attributes == nil {
		attributes = []domain.AttributeValue{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"product":    product,
		"attributes": attributes,
	})
}
