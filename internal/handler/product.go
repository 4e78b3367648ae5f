package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xenking/storefront/internal/domain/catalog"
)

type productResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CategoryID  int64  `json:"categoryId"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
	Active      bool   `json:"active"`
	Image       string `json:"image,omitempty"`
	Color       string `json:"color,omitempty"`
	Size        string `json:"size,omitempty"`
}

type productListResponse struct {
	Items    []productResponse `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ListProducts returns one page of the catalog. Query parameters: category,
// search, page, pageSize. Inactive products are hidden on this public route.
func (h *Handler) ListProducts(c *gin.Context) {
	params := catalog.ListParams{
		Search:     c.Query("search"),
		ActiveOnly: true,
	}
	if v := c.Query("category"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid category id"})
			return
		}
		params.CategoryID = &id
	}
	params.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	params.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "0"))

	products, total, err := h.products.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]productResponse, len(products))
	for i, p := range products {
		items[i] = h.toProductResponse(p)
	}
	c.JSON(http.StatusOK, productListResponse{
		Items:    items,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
}

// GetProduct returns a single product by id.
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid product id"})
		return
	}

	p, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toProductResponse(*p))
}

// ListCategories returns all active categories.
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.products.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]categoryResponse, len(categories))
	for i, cat := range categories {
		out[i] = categoryResponse{ID: cat.ID, Name: cat.Name}
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (h *Handler) toProductResponse(p catalog.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		Category:    p.CategoryName,
		Price:       p.Price.String(),
		Stock:       p.Stock,
		Active:      p.Active,
		Image:       h.imageURL(p.Image),
		Color:       p.Color,
		Size:        p.Size,
	}
}
