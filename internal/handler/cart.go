package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type cartItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Image     string `json:"image,omitempty"`
	Stock     int    `json:"stock"`
	Category  string `json:"category"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type cartResponse struct {
	Items       []cartItemResponse `json:"items"`
	Subtotal    string             `json:"subtotal"`
	ShippingFee string             `json:"shippingFee"`
	Total       string             `json:"total"`
	ItemCount   int                `json:"itemCount"`
}

type addItemRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart returns the caller's active cart with priced lines and totals.
func (h *Handler) GetCart(c *gin.Context) {
	ident := currentIdentity(c)

	view, err := h.carts.Get(c.Request.Context(), ident.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]cartItemResponse, len(view.Items))
	for i, it := range view.Items {
		items[i] = cartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Product.Name,
			Price:     it.Product.Price.String(),
			Image:     h.imageURL(it.Product.Image),
			Stock:     it.Product.Stock,
			Category:  it.Product.CategoryName,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal().String(),
		}
	}
	c.JSON(http.StatusOK, cartResponse{
		Items:       items,
		Subtotal:    view.Subtotal.String(),
		ShippingFee: view.ShippingFee.String(),
		Total:       view.Total.String(),
		ItemCount:   view.ItemCount,
	})
}

// AddCartItem puts a product into the caller's cart, incrementing the line
// when the product is already there.
func (h *Handler) AddCartItem(c *gin.Context) {
	ident := currentIdentity(c)

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	summary, err := h.carts.AddItem(c.Request.Context(), ident.UserID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "added to cart",
		"itemCount": summary.ItemCount,
	})
}

// UpdateCartItem sets a line's quantity; zero or negative removes the line.
func (h *Handler) UpdateCartItem(c *gin.Context) {
	ident := currentIdentity(c)

	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid cart item id"})
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	change, err := h.carts.UpdateQuantity(c.Request.Context(), ident.UserID, itemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"removed":      change.Removed,
		"itemSubtotal": change.ItemSubtotal.String(),
		"subtotal":     change.Subtotal.String(),
		"shippingFee":  change.ShippingFee.String(),
		"total":        change.Total.String(),
		"itemCount":    change.ItemCount,
	})
}

// RemoveCartItem deletes one line from the caller's cart.
func (h *Handler) RemoveCartItem(c *gin.Context) {
	ident := currentIdentity(c)

	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid cart item id"})
		return
	}

	summary, err := h.carts.RemoveItem(c.Request.Context(), ident.UserID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "removed from cart",
		"itemCount": summary.ItemCount,
	})
}

// ClearCart empties the caller's cart.
func (h *Handler) ClearCart(c *gin.Context) {
	ident := currentIdentity(c)

	if err := h.carts.Clear(c.Request.Context(), ident.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}
