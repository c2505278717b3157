// internal/services/helpers_test.go
package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/contoso/storefront/internal/docstore"
	"github.com/contoso/storefront/internal/models"
)

func seedProduct(t *testing.T, store docstore.Client, id int, name, category, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:        id,
		Name:      name,
		Category:  category,
		Price:     decimal.RequireFromString(price),
		CreatedAt: time.Now().UTC(),
	}
	body, err := json.Marshal(product)
	require.NoError(t, err)
	_, err = store.Upsert(context.Background(), models.CollectionProducts, &docstore.Document{
		ID:        idString(id),
		Partition: category,
		Data:      body,
	})
	require.NoError(t, err)
	return product
}

func seedOrder(t *testing.T, store docstore.Client, id, userID int, total string) {
	t.Helper()
	order := &models.Order{
		ID:        id,
		UserID:    userID,
		Status:    models.OrderStatusPending,
		Total:     decimal.RequireFromString(total),
		CreatedAt: time.Now().UTC(),
	}
	body, err := json.Marshal(order)
	require.NoError(t, err)
	_, err = store.Upsert(context.Background(), models.CollectionOrders, &docstore.Document{
		ID:        idString(id),
		Partition: idString(id),
		Data:      body,
	})
	require.NoError(t, err)
}

func seedOrderItem(t *testing.T, store docstore.Client, id, orderID, productID, quantity int, unitPrice string) {
	t.Helper()
	item := &models.OrderItem{
		ID:        id,
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: decimal.RequireFromString(unitPrice),
	}
	body, err := json.Marshal(item)
	require.NoError(t, err)
	_, err = store.Upsert(context.Background(), models.CollectionOrderItems, &docstore.Document{
		ID:        idString(id),
		Partition: idString(orderID),
		Data:      body,
	})
	require.NoError(t, err)
}
