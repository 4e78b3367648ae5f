package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/order"
)

// respondError maps domain errors to HTTP responses. Validation failures get
// their message verbatim; ownership misses and unknown ids share one generic
// not-found body; anything unrecognized is an infrastructure fault and comes
// back as an opaque 500 after being logged.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrEmptyAddress):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return

	case errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		return
	}

	var stockErr *cart.InsufficientStockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": stockErr.Error()})
		return
	}

	var transitionErr *order.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		c.JSON(http.StatusConflict, gin.H{"message": transitionErr.Error()})
		return
	}

	zctx.From(c.Request.Context()).Error("request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
}
