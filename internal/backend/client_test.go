package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/backend"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *backend.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return backend.NewClientWithHTTPClient(srv.URL+"/api", srv.Client(), nil)
}

func TestProductsMapsDollarsToMinorUnits(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/products", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "name": "Holographic Sticker", "price": 9.50, "category": "stickers", "stockQuantity": 10},
			{"id": 2, "name": "Enamel Pin", "price": 12.00, "category": "pins", "stockQuantity": 0}
		]`))
	}))

	products, err := client.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	require.Equal(t, "1", products[0].ID)
	require.Equal(t, int64(950), products[0].PriceMinor)
	require.Equal(t, int32(10), products[0].StockLimit())
	// Нулевой остаток означает «лимит неизвестен», а не «нет в наличии».
	require.Equal(t, domain.DefaultStockLimit, products[1].StockLimit())
}

func TestSearchProductsSendsQuery(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/products/search", r.URL.Path)
		require.Equal(t, "holo sticker", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))

	products, err := client.SearchProducts(context.Background(), "holo sticker")
	require.NoError(t, err)
	require.Empty(t, products)
}

func TestCategories(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/products/categories", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`["stickers", "pins"]`))
	}))

	categories, err := client.Categories(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"stickers", "pins"}, categories)
}

func TestCreateOrderSendsWireContract(t *testing.T) {
	var got map[string]interface{}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/orders", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "orderId": 42}`))
	}))

	draft := domain.OrderDraft{
		Items: []domain.LineItem{
			{ProductID: "1", Name: "Holographic Sticker", PriceMinor: 950, Qty: 2, StockLimit: 10},
		},
		TotalMinor:     1900,
		Customer:       domain.CustomerInfo{Email: "ann@example.com", FirstName: "Ann", SameAsBilling: true},
		Timestamp:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		IdempotencyKey: "key-1",
	}

	ack, err := client.CreateOrder(context.Background(), draft)
	require.NoError(t, err)
	require.True(t, ack.Success)
	// Числовой идентификатор backend становится строкой на стороне клиента.
	require.Equal(t, "42", ack.OrderID)

	// На проводе суммы — доллары.
	require.Equal(t, 19.0, got["total"])
	cart := got["cart"].([]interface{})
	require.Len(t, cart, 1)
	item := cart[0].(map[string]interface{})
	require.Equal(t, 9.5, item["price"])
	require.Equal(t, float64(2), item["quantity"])
	customer := got["customerInfo"].(map[string]interface{})
	require.Equal(t, "ann@example.com", customer["email"])
	require.Equal(t, "2025-06-01T12:00:00Z", got["timestamp"])
	// Ключ идемпотентности едет полем тела запроса, не заголовком.
	require.Equal(t, "key-1", got["idempotencyKey"])
}

func TestCreateOrderBusinessRejection(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": false, "message": "product out of stock"}`))
	}))

	ack, err := client.CreateOrder(context.Background(), domain.OrderDraft{
		Items:      []domain.LineItem{{ProductID: "1", Name: "x", PriceMinor: 100, Qty: 1, StockLimit: 1}},
		TotalMinor: 100,
	})
	require.NoError(t, err)
	require.False(t, ack.Success)
	require.Equal(t, "product out of stock", ack.Message)
}

func TestOrderMapsNestedItems(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/orders/42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 42,
			"totalAmount": 19.00,
			"email": "ann@example.com",
			"firstName": "Ann",
			"lastName": "Lee",
			"items": [{"productName": "Holographic Sticker", "quantity": 2, "price": 9.50}],
			"createdAt": "2025-06-01T12:00:00Z"
		}`))
	}))

	order, err := client.Order(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, "42", order.OrderID)
	require.Equal(t, int64(1900), order.TotalMinor)
	require.Len(t, order.Items, 1)
	require.Equal(t, int64(950), order.Items[0].UnitPriceMinor)
	require.Equal(t, int32(2), order.Items[0].Qty)
	require.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), order.CreatedAt)
	require.False(t, order.Synthesized)
}

func TestHTTPErrorBecomesAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Order not found"}`))
	}))

	_, err := client.Order(context.Background(), "99")
	require.Error(t, err)

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Equal(t, "Order not found", apiErr.Message)
	require.Equal(t, "Order not found", domain.UserMessage(err, "fallback"))
}

func TestHTTPErrorWithoutBodyUsesFallbackMessage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.Products(context.Background())
	require.Error(t, err)

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Empty(t, apiErr.Message)
	require.Equal(t, "fallback", domain.UserMessage(err, "fallback"))
}

func TestCreatePaymentIntentSendsDollars(t *testing.T) {
	var got map[string]interface{}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/payments/create-payment-intent", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "clientSecret": "pi_1_secret_2"}`))
	}))

	ack, err := client.CreatePaymentIntent(context.Background(), "42", 1900, "usd")
	require.NoError(t, err)
	require.True(t, ack.Success)
	require.Equal(t, "pi_1_secret_2", ack.ClientSecret)
	require.Equal(t, "42", got["orderId"])
	require.Equal(t, 19.0, got["amount"])
	require.Equal(t, "usd", got["currency"])
}

func TestCreateCheckoutSession(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/payments/create-checkout-session", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "url": "https://checkout.stripe.com/pay/cs_test"}`))
	}))

	ack, err := client.CreateCheckoutSession(context.Background(), "42")
	require.NoError(t, err)
	require.True(t, ack.Success)
	require.Equal(t, "https://checkout.stripe.com/pay/cs_test", ack.URL)
}

func TestSessionStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/payments/session/cs_test", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sessionId": "cs_test", "orderId": 42, "paymentStatus": "paid"}`))
	}))

	status, err := client.SessionStatus(context.Background(), "cs_test")
	require.NoError(t, err)
	require.Equal(t, "cs_test", status.SessionID)
	require.Equal(t, "42", status.OrderID)
	require.Equal(t, "paid", status.PaymentStatus)
}

func TestPaymentConfig(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/payments/config", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"publishableKey": "pk_test_123"}`))
	}))

	cfg, err := client.PaymentConfig(context.Background())
	require.NoError(t, err)
	require.Equal(t, "pk_test_123", cfg.PublishableKey)
}

func TestMoneyConversionRounds(t *testing.T) {
	require.Equal(t, int64(950), backend.MinorFromDollars(9.50))
	require.Equal(t, int64(1900), backend.MinorFromDollars(19.00))
	// 0.1+0.2 в float64 чуть больше 0.3; округление убирает хвост.
	require.Equal(t, int64(30), backend.MinorFromDollars(0.1+0.2))
	require.Equal(t, 19.0, backend.DollarsFromMinor(1900))
}
