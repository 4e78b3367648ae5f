package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/order"
)

const checkoutScope = "checkout"

type checkoutRequest struct {
	ShippingAddress string `json:"shippingAddress"`
}

type checkoutResponse struct {
	OrderID     int64  `json:"orderId"`
	Total       string `json:"total,omitempty"`
	CartCleared bool   `json:"cartCleared"`
	Warning     string `json:"warning,omitempty"`
}

type orderItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	Category  string `json:"category"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Subtotal  string `json:"subtotal"`
}

type orderUserResponse struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

type orderResponse struct {
	ID              int64               `json:"id"`
	UserID          int64               `json:"userId"`
	OrderedAt       time.Time           `json:"orderedAt"`
	Total           string              `json:"total"`
	Status          string              `json:"status"`
	ShippingAddress string              `json:"shippingAddress"`
	ApprovedBy      *int64              `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time          `json:"approvedAt,omitempty"`
	Approver        string              `json:"approver,omitempty"`
	User            *orderUserResponse  `json:"user,omitempty"`
	Items           []orderItemResponse `json:"items,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Checkout converts the caller's cart into an order. An optional
// X-Idempotency-Key header deduplicates retries: a replay of a completed
// checkout returns the original order id, a replay racing an in-flight one
// gets 409.
func (h *Handler) Checkout(c *gin.Context) {
	ident := currentIdentity(c)
	ctx := c.Request.Context()

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	idemKey := c.GetHeader("X-Idempotency-Key")
	if idemKey != "" && h.idem != nil {
		if val, ok, err := h.idem.Recall(ctx, checkoutScope, idemKey); err == nil && ok {
			orderID, _ := strconv.ParseInt(val, 10, 64)
			c.JSON(http.StatusOK, checkoutResponse{OrderID: orderID, CartCleared: true})
			return
		}
		locked, err := h.idem.TryLock(ctx, checkoutScope, idemKey)
		if err != nil {
			// Redis being down must not block checkout; log and continue.
			zctx.From(ctx).Warn("idempotency store unavailable", zap.Error(err))
		} else if !locked {
			c.JSON(http.StatusConflict, gin.H{"message": "duplicate checkout request"})
			return
		}
	}

	result, err := h.orders.Checkout(ctx, ident.UserID, req.ShippingAddress)
	if err != nil {
		respondError(c, err)
		return
	}

	if idemKey != "" && h.idem != nil {
		if err := h.idem.Remember(ctx, checkoutScope, idemKey, strconv.FormatInt(result.OrderID, 10)); err != nil {
			zctx.From(ctx).Warn("remember idempotency key", zap.Error(err))
		}
	}

	resp := checkoutResponse{
		OrderID:     result.OrderID,
		Total:       result.Total.String(),
		CartCleared: result.CartCleared,
	}
	if !result.CartCleared {
		resp.Warning = "order placed but the cart could not be cleared"
	}
	c.JSON(http.StatusCreated, resp)
}

// ListOrders returns the caller's orders, newest first, optionally filtered
// by ?status=.
func (h *Handler) ListOrders(c *gin.Context) {
	ident := currentIdentity(c)

	status, ok := statusQuery(c)
	if !ok {
		return
	}

	orders, err := h.orders.ListForUser(c.Request.Context(), ident.UserID, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": h.toOrderResponses(orders)})
}

// GetOrder returns one order. Customers only see their own; staff see all.
func (h *Handler) GetOrder(c *gin.Context) {
	ident := currentIdentity(c)

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid order id"})
		return
	}

	o, err := h.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	if o.UserID != ident.UserID && !ident.Role.IsStaff() {
		// Same body as an unknown id so existence never leaks.
		respondError(c, order.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, h.toOrderResponse(*o))
}

// CancelOrder cancels the caller's own Pending order.
func (h *Handler) CancelOrder(c *gin.Context) {
	ident := currentIdentity(c)

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid order id"})
		return
	}

	if err := h.orders.UpdateStatus(c.Request.Context(), orderID, order.StatusCancelled, ident); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order cancelled"})
}

// ListAllOrders is the back-office listing across all users.
func (h *Handler) ListAllOrders(c *gin.Context) {
	status, ok := statusQuery(c)
	if !ok {
		return
	}

	orders, err := h.orders.ListAll(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": h.toOrderResponses(orders)})
}

// UpdateOrderStatus moves an order along the status machine (staff/admin).
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	ident := currentIdentity(c)

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid order id"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if err := h.orders.UpdateStatus(c.Request.Context(), orderID, status, ident); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order status updated"})
}

// statusQuery parses the optional ?status= filter, responding 400 itself on
// an unknown value.
func statusQuery(c *gin.Context) (*order.Status, bool) {
	v := c.Query("status")
	if v == "" {
		return nil, true
	}
	status, err := order.ParseStatus(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return nil, false
	}
	return &status, true
}

func (h *Handler) toOrderResponses(orders []order.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = h.toOrderResponse(o)
	}
	return out
}

func (h *Handler) toOrderResponse(o order.Order) orderResponse {
	resp := orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderedAt:       o.OrderedAt,
		Total:           o.Total.String(),
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		ApprovedBy:      o.ApprovedBy,
		ApprovedAt:      o.ApprovedAt,
		Approver:        o.ApproverName,
	}
	if o.User != nil {
		resp.User = &orderUserResponse{
			ID:       o.User.ID,
			FullName: o.User.FullName,
			Email:    o.User.Email,
			Phone:    o.User.Phone,
		}
	}
	if len(o.Items) > 0 {
		resp.Items = make([]orderItemResponse, len(o.Items))
		for i, it := range o.Items {
			resp.Items[i] = orderItemResponse{
				ID:        it.ID,
				ProductID: it.ProductID,
				Name:      it.ProductName,
				Image:     h.imageURL(it.ProductImage),
				Category:  it.CategoryName,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice.String(),
				Subtotal:  it.Subtotal().String(),
			}
		}
	}
	return resp
}
