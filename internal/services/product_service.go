// internal/services/product_service.go
package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/contoso/storefront/internal/apperrors"
	"github.com/contoso/storefront/internal/docstore"
	"github.com/contoso/storefront/internal/events"
	"github.com/contoso/storefront/internal/models"
	"github.com/contoso/storefront/internal/utils"
)

const (
	maxPageSize         = 100
	productUpdatedEvent = "storefront.product.updated"
)

// ProductService is the catalog read/write surface. Listing is
// offset-based; the item page and the total count come from two separate
// queries against the same filter and are only best-effort consistent
// with each other.
type ProductService struct {
	store     docstore.Client
	publisher events.Publisher
	topic     string
}

func NewProductService(store docstore.Client, publisher events.Publisher, topic string) *ProductService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ProductService{store: store, publisher: publisher, topic: topic}
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Category    string          `json:"category" validate:"max=100"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageName   string          `json:"image_name"`
}

type UpdateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageName   string          `json:"image_name"`
}

type PagedProducts struct {
	Items      []models.Product `json:"items"`
	TotalCount int              `json:"total_count"`
	StartIndex int              `json:"start_index"`
	PageSize   int              `json:"page_size"`
}

// ListProducts returns one page of products plus the filtered total. An
// empty category matches everything.
func (s *ProductService) ListProducts(ctx context.Context, category string, startIndex, pageSize int) (*PagedProducts, error) {
	if startIndex < 0 {
		return nil, apperrors.Invalid("start index must not be negative")
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return nil, apperrors.Invalid("page size must be between 1 and 100")
	}
	filter := categoryFilter(category)

	docs, err := s.store.Query(ctx, models.CollectionProducts, filter, startIndex, pageSize)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Count(ctx, models.CollectionProducts, filter)
	if err != nil {
		return nil, err
	}

	items := make([]models.Product, 0, len(docs))
	for i := range docs {
		var product models.Product
		if err := json.Unmarshal(docs[i].Data, &product); err != nil {
			return nil, apperrors.Unavailable(err)
		}
		items = append(items, product)
	}
	return &PagedProducts{
		Items:      items,
		TotalCount: total,
		StartIndex: startIndex,
		PageSize:   pageSize,
	}, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	// Partition is the category, which the caller does not know, so this
	// is a cross-partition lookup.
	doc, err := s.store.GetByID(ctx, models.CollectionProducts, "", idString(id))
	if err != nil {
		return nil, err
	}
	var product models.Product
	if err := json.Unmarshal(doc.Data, &product); err != nil {
		return nil, apperrors.Unavailable(err)
	}
	return &product, nil
}

// CreateProduct persists a new product under the store's own key
// strategy; product ids are store-native keys, not allocator-scanned.
func (s *ProductService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	if req == nil {
		return nil, apperrors.Invalid("request is required")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Invalid(err.Error())
	}
	id, err := s.store.NextKey(ctx, models.CollectionProducts)
	if err != nil {
		return nil, err
	}
	product := &models.Product{
		ID:          id,
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Price:       req.Price,
		ImageName:   req.ImageName,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.upsert(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct is a full-document overwrite, not a partial patch. The
// category is retained from the stored document: it is the partition key
// and must not change (or become empty) once written. On success a
// ProductUpdated notification goes out best-effort; a publish failure is
// logged and never fails the update.
func (s *ProductService) UpdateProduct(ctx context.Context, id int, req *UpdateProductRequest) (*models.Product, error) {
	if req == nil {
		return nil, apperrors.Invalid("request is required")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Invalid(err.Error())
	}
	existing, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	product := &models.Product{
		ID:          existing.ID,
		Name:        req.Name,
		Category:    existing.Category,
		Description: req.Description,
		Price:       req.Price,
		ImageName:   req.ImageName,
		CreatedAt:   existing.CreatedAt,
	}
	if err := s.upsert(ctx, product); err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, s.topic, productUpdatedEvent, product); err != nil {
		logrus.WithFields(logrus.Fields{
			"product_id": product.ID,
			"topic":      s.topic,
		}).WithError(err).Warn("product update notification failed")
	}
	return product, nil
}

// DeleteProduct is idempotent: deleting an id that does not exist is
// success.
func (s *ProductService) DeleteProduct(ctx context.Context, id int) error {
	existing, err := s.GetProduct(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return err
	}
	err = s.store.Delete(ctx, models.CollectionProducts, existing.Category, idString(id))
	if err != nil && !apperrors.IsNotFound(err) {
		return err
	}
	return nil
}

// ListCategories returns the distinct non-empty categories across all
// products. Order is unspecified.
func (s *ProductService) ListCategories(ctx context.Context) ([]string, error) {
	docs, err := s.store.Query(ctx, models.CollectionProducts, nil, 0, 0)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var categories []string
	for i := range docs {
		var probe struct {
			Category string `json:"category"`
		}
		if err := json.Unmarshal(docs[i].Data, &probe); err != nil {
			continue
		}
		if probe.Category == "" {
			continue
		}
		if _, ok := seen[probe.Category]; ok {
			continue
		}
		seen[probe.Category] = struct{}{}
		categories = append(categories, probe.Category)
	}
	return categories, nil
}

func (s *ProductService) upsert(ctx context.Context, product *models.Product) error {
	body, err := json.Marshal(product)
	if err != nil {
		return err
	}
	_, err = s.store.Upsert(ctx, models.CollectionProducts, &docstore.Document{
		ID:        idString(product.ID),
		Partition: product.Category,
		Data:      body,
	})
	return err
}

func categoryFilter(category string) *docstore.Filter {
	if category == "" {
		return nil
	}
	return &docstore.Filter{Field: "category", Value: category}
}
