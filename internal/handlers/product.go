// internal/handlers/product.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/contoso/storefront/internal/services"
	"github.com/contoso/storefront/internal/utils"
)

type ProductHandler struct {
	products *services.ProductService
}

func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	page, err := h.products.ListProducts(c.Request.Context(), params.Category, params.StartIndex(), params.PageSize)
	if err != nil {
		utils.FailWith(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(page.Items, page.TotalCount, params))
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "product id must be an integer", nil)
		return
	}
	product, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		utils.FailWith(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	product, err := h.products.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		utils.FailWith(c, err)
		return
	}
	utils.CreatedResponse(c, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "product id must be an integer", nil)
		return
	}
	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	product, err := h.products.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		utils.FailWith(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "product id must be an integer", nil)
		return
	}
	if err := h.products.DeleteProduct(c.Request.Context(), id); err != nil {
		utils.FailWith(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) ListCategories(c *gin.Context) {
	categories, err := h.products.ListCategories(c.Request.Context())
	if err != nil {
		utils.FailWith(c, err)
		return
	}
	utils.SuccessResponse(c, categories)
}
