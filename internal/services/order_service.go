// internal/services/order_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contoso/storefront/internal/apperrors"
	"github.com/contoso/storefront/internal/docstore"
	"github.com/contoso/storefront/internal/models"
	"github.com/contoso/storefront/internal/utils"
)

// OrderService assembles order aggregates from the three flat
// collections and runs the non-atomic create sequence. The store offers
// no multi-document transaction, so callers must treat CreateOrder as
// best-effort and reconcile on partial failure.
type OrderService struct {
	store docstore.Client
	ids   IDAllocator
}

func NewOrderService(store docstore.Client, ids IDAllocator) *OrderService {
	return &OrderService{store: store, ids: ids}
}

type CreateOrderLine struct {
	ProductID int             `json:"product_id" validate:"required,min=1"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CreateOrderRequest struct {
	UserID int               `json:"user_id" validate:"required,min=1"`
	Total  decimal.Decimal   `json:"total"`
	Items  []CreateOrderLine `json:"items" validate:"dive"`
}

// CreateOrderResult reports how far the write sequence got. On partial
// failure the order header exists with ItemsWritten items persisted and
// the accompanying error tells the caller to reconcile or retry.
type CreateOrderResult struct {
	Order        *models.Order `json:"order"`
	ItemsWritten int           `json:"items_written"`
}

// GetOrders loads every order owned by the user, items and product
// references resolved. An owner with no orders gets an empty slice.
func (s *OrderService) GetOrders(ctx context.Context, userID int) ([]models.Order, error) {
	docs, err := s.store.Query(ctx, models.CollectionOrders, &docstore.Filter{Field: "user_id", Value: userID}, 0, 0)
	if err != nil {
		return nil, err
	}
	orders := make([]models.Order, 0, len(docs))
	for i := range docs {
		var order models.Order
		if err := json.Unmarshal(docs[i].Data, &order); err != nil {
			return nil, apperrors.Unavailable(err)
		}
		if err := s.loadItems(ctx, &order); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// GetOrder loads a single order. NotFound covers both a missing order
// and an order owned by someone else; ownership is never leaked.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int) (*models.Order, error) {
	doc, err := s.store.GetByID(ctx, models.CollectionOrders, idString(orderID), idString(orderID))
	if err != nil {
		return nil, err
	}
	var order models.Order
	if err := json.Unmarshal(doc.Data, &order); err != nil {
		return nil, apperrors.Unavailable(err)
	}
	if order.UserID != userID {
		return nil, apperrors.NotFound(fmt.Sprintf("order %d", orderID))
	}
	if err := s.loadItems(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateOrder persists the order header first, then each item. Item ids
// come from one block allocation: a single max read, incremented locally
// per item, which shrinks both the collision window and the I/O cost.
// Unit prices are taken from the request lines, never re-fetched from
// the catalog.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResult, error) {
	if req == nil {
		return nil, apperrors.Invalid("request is required")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Invalid(err.Error())
	}

	orderID, err := s.ids.NextID(ctx, models.CollectionOrders)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:        orderID,
		UserID:    req.UserID,
		Status:    models.OrderStatusPending,
		Total:     req.Total,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.upsertOrder(ctx, order); err != nil {
		return nil, err
	}

	result := &CreateOrderResult{Order: order}
	if len(req.Items) == 0 {
		return result, nil
	}

	firstItemID, err := s.ids.NextBlock(ctx, models.CollectionOrderItems, len(req.Items))
	if err != nil {
		return result, fmt.Errorf("order %d created without items: %w", orderID, err)
	}

	for i, line := range req.Items {
		item := models.OrderItem{
			ID:        firstItemID + i,
			OrderID:   orderID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
		if err := s.upsertItem(ctx, &item); err != nil {
			// No rollback: the header and the first i items are
			// persisted. Surface how far we got.
			return result, fmt.Errorf("order %d persisted %d of %d items: %w",
				orderID, i, len(req.Items), err)
		}
		order.Items = append(order.Items, item)
		result.ItemsWritten++
	}

	// Resolve product references for the returned aggregate only; this
	// has no persistence impact and missing products are tolerated.
	for i := range order.Items {
		s.resolveProduct(ctx, &order.Items[i])
	}
	return result, nil
}

// loadItems performs the manual join: items by owning order, then the
// referenced product per item. A deleted product becomes an explicit
// missing marker and never aborts assembly of the rest of the order.
func (s *OrderService) loadItems(ctx context.Context, order *models.Order) error {
	docs, err := s.store.Query(ctx, models.CollectionOrderItems,
		&docstore.Filter{Field: "order_id", Value: order.ID}, 0, 0)
	if err != nil {
		return err
	}
	order.Items = make([]models.OrderItem, 0, len(docs))
	for i := range docs {
		var item models.OrderItem
		if err := json.Unmarshal(docs[i].Data, &item); err != nil {
			return apperrors.Unavailable(err)
		}
		if err := s.resolveProductStrict(ctx, &item); err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}
	return nil
}

func (s *OrderService) resolveProductStrict(ctx context.Context, item *models.OrderItem) error {
	doc, err := s.store.GetByID(ctx, models.CollectionProducts, "", idString(item.ProductID))
	if err != nil {
		if apperrors.IsNotFound(err) {
			item.Product = nil
			item.ProductMissing = true
			return nil
		}
		return err
	}
	var product models.Product
	if err := json.Unmarshal(doc.Data, &product); err != nil {
		return apperrors.Unavailable(err)
	}
	item.Product = &product
	return nil
}

// resolveProduct is the lenient variant used on the CreateOrder return
// value: any failure degrades to the missing marker.
func (s *OrderService) resolveProduct(ctx context.Context, item *models.OrderItem) {
	if err := s.resolveProductStrict(ctx, item); err != nil {
		item.Product = nil
		item.ProductMissing = true
	}
}

func (s *OrderService) upsertOrder(ctx context.Context, order *models.Order) error {
	body, err := json.Marshal(order)
	if err != nil {
		return err
	}
	_, err = s.store.Upsert(ctx, models.CollectionOrders, &docstore.Document{
		ID:        idString(order.ID),
		Partition: idString(order.ID),
		Data:      body,
	})
	return err
}

func (s *OrderService) upsertItem(ctx context.Context, item *models.OrderItem) error {
	body, err := json.Marshal(item)
	if err != nil {
		return err
	}
	_, err = s.store.Upsert(ctx, models.CollectionOrderItems, &docstore.Document{
		ID:        idString(item.ID),
		Partition: idString(item.OrderID),
		Data:      body,
	})
	return err
}
