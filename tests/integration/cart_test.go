//go:build integration

package integration

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestCart_RequiresAuth(t *testing.T) {
	resp := doGet(t, "/api/cart")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCart_Empty(t *testing.T) {
	token := customerToken(t)
	clearCart(t, token)

	cart := getCart(t, token)
	if len(cart.Items) != 0 {
		t.Errorf("expected empty cart, got %d items", len(cart.Items))
	}
	if cart.ItemCount != 0 {
		t.Errorf("itemCount: got %d, want 0", cart.ItemCount)
	}
	if cart.Subtotal != "0" {
		t.Errorf("subtotal: got %q, want 0", cart.Subtotal)
	}
}

func TestCart_AddAccumulatesOneLine(t *testing.T) {
	token := customerToken(t)
	clearCart(t, token)

	addToCart(t, token, 1, 2) // Classic Crew Tee, 150000 each
	addToCart(t, token, 1, 3)

	cart := getCart(t, token)
	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 5 {
		t.Errorf("quantity: got %d, want 5", cart.Items[0].Quantity)
	}
	if cart.Subtotal != "750000" {
		t.Errorf("subtotal: got %q, want 750000", cart.Subtotal)
	}
	if cart.ShippingFee != "30000" {
		t.Errorf("shippingFee: got %q, want 30000", cart.ShippingFee)
	}
	if cart.Total != "780000" {
		t.Errorf("total: got %q, want 780000", cart.Total)
	}
}

func TestCart_FreeShippingAboveThreshold(t *testing.T) {
	token := customerToken(t)
	clearCart(t, token)

	addToCart(t, token, 6, 4) // Runner Mesh Sneaker, 1480000 each => 5920000

	cart := getCart(t, token)
	if cart.Subtotal != "5920000" {
		t.Errorf("subtotal: got %q, want 5920000", cart.Subtotal)
	}
	if cart.ShippingFee != "0" {
		t.Errorf("shippingFee: got %q, want 0", cart.ShippingFee)
	}
	if cart.Total != "5920000" {
		t.Errorf("total: got %q, want 5920000", cart.Total)
	}
}

func TestCart_UpdateQuantity(t *testing.T) {
	token := customerToken(t)
	clearCart(t, token)
	addToCart(t, token, 1, 2)

	itemID := getCart(t, token).Items[0].ID

	resp := doRequest(t, http.MethodPut, "/api/cart/items/"+itoa(itemID), token, map[string]any{
		"quantity": 7,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update quantity: expected 200, got %d", resp.StatusCode)
	}

	cart := getCart(t, token)
	if cart.Items[0].Quantity != 7 {
		t.Errorf("quantity: got %d, want 7", cart.Items[0].Quantity)
	}

	// Zero quantity removes the line entirely.
	resp = doRequest(t, http.MethodPut, "/api/cart/items/"+itoa(itemID), token, map[string]any{
		"quantity": 0,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("zero quantity: expected 200, got %d", resp.StatusCode)
	}

	cart = getCart(t, token)
	if len(cart.Items) != 0 {
		t.Errorf("expected empty cart after zero-quantity update, got %d items", len(cart.Items))
	}
}

func TestCart_RemoveItem(t *testing.T) {
	token := customerToken(t)
	clearCart(t, token)
	addToCart(t, token, 1, 1)
	addToCart(t, token, 7, 1)

	itemID := getCart(t, token).Items[0].ID

	resp := doRequest(t, http.MethodDelete, "/api/cart/items/"+itoa(itemID), token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("remove item: expected 200, got %d", resp.StatusCode)
	}

	cart := getCart(t, token)
	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 line left, got %d", len(cart.Items))
	}
}

func TestCart_OtherUsersLineIsInvisible(t *testing.T) {
	owner := customerToken(t)
	clearCart(t, owner)
	addToCart(t, owner, 1, 1)

	itemID := getCart(t, owner).Items[0].ID

	// A different authenticated user probing the line id gets the same 404
	// as a nonexistent line.
	intruder := tokenFor(t, adminID, "Customer")
	resp := doRequest(t, http.MethodDelete, "/api/cart/items/"+itoa(itemID), intruder, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	// The owner's line is untouched.
	if got := len(getCart(t, owner).Items); got != 1 {
		t.Errorf("owner cart lines: got %d, want 1", got)
	}
}

func TestCart_InsufficientStock(t *testing.T) {
	token := customerToken(t)
	clearCart(t, token)

	resp := doRequest(t, http.MethodPost, "/api/cart/items", token, map[string]any{
		"productId": 1,
		"quantity":  99999,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Message == "" {
		t.Error("error message is empty")
	}
}

func TestCart_ConcurrentAddsKeepOneLine(t *testing.T) {
	token := customerToken(t)
	clearCart(t, token)

	// Raw requests here: helpers call t.Fatalf, which must not run off the
	// test goroutine.
	const workers = 8
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			body := bytes.NewReader([]byte(`{"productId": 7, "quantity": 1}`)) // Canvas Tote Bag, plenty of stock
			req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, baseURL+"/api/cart/items", body)
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := httpClient.Do(req)
			if err != nil {
				return err
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("add to cart: status %d", resp.StatusCode)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent adds: %v", err)
	}

	cart := getCart(t, token)
	if len(cart.Items) != 1 {
		t.Fatalf("expected a single line after concurrent adds, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != workers {
		t.Errorf("quantity: got %d, want %d", cart.Items[0].Quantity, workers)
	}
}
