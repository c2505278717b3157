// internal/handlers/order_test.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contoso/storefront/internal/docstore"
	"github.com/contoso/storefront/internal/services"
)

func newOrderAPI(t *testing.T) (*gin.Engine, *docstore.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := docstore.NewMemoryStore()
	h := NewOrderHandler(services.NewOrderService(store, services.NewMaxScanAllocator(store)))

	r := gin.New()
	r.GET("/v1/orders", h.ListOrders)
	r.GET("/v1/orders/:id", h.GetOrder)
	r.POST("/v1/orders", h.CreateOrder)
	return r, store
}

func seedCatalog(t *testing.T, store *docstore.MemoryStore) {
	t.Helper()
	svc := services.NewProductService(store, nil, "catalog")
	_, err := svc.CreateProduct(context.Background(), &services.CreateProductRequest{
		Name: "Classic Mug", Category: "mugs", Price: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)
}

func TestOrderAPICreateAndFetch(t *testing.T) {
	r, store := newOrderAPI(t)
	seedCatalog(t, store)

	w := doJSON(t, r, http.MethodPost, "/v1/orders", gin.H{
		"user_id": 5,
		"total":   "20.00",
		"items": []gin.H{
			{"product_id": 1, "quantity": 2, "unit_price": "10.00"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data struct {
			Order struct {
				ID    int `json:"id"`
				Items []struct {
					ID        int    `json:"id"`
					UnitPrice string `json:"unit_price"`
				} `json:"items"`
			} `json:"order"`
			ItemsWritten int `json:"items_written"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, 1, created.Data.Order.ID)
	assert.Equal(t, 1, created.Data.ItemsWritten)
	require.Len(t, created.Data.Order.Items, 1)
	assert.Equal(t, "10", created.Data.Order.Items[0].UnitPrice)

	w = doJSON(t, r, http.MethodGet, "/v1/orders/1?user_id=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Classic Mug")

	// Another user cannot see the order, and cannot tell it exists.
	w = doJSON(t, r, http.MethodGet, "/v1/orders/1?user_id=6", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderAPIRequiresOwner(t *testing.T) {
	r, _ := newOrderAPI(t)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/v1/orders", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/v1/orders/1?user_id=0", nil).Code)
}

func TestOrderAPIListEmpty(t *testing.T) {
	r, _ := newOrderAPI(t)

	w := doJSON(t, r, http.MethodGet, "/v1/orders?user_id=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
}
