package commerce_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-checkout/internal/commerce"
)

const orderJSON = `{"order":{
  "id":"order_01",
  "currency_code":"mxn",
  "total":1150,
  "items":[{"id":"li_1","quantity":12,"unit_price":100,"adjustments":[{"code":"BULK_20_AUTO","amount":240}]}],
  "payment_collections":[{"payments":[{
    "provider_id":"pp_mercadopago_mercadopago",
    "amount":1150,
    "created_at":"2026-01-02T03:04:05Z",
    "data":{"card_last4":"4242","installments":6,"installment_amount":"191.67"}
  }]}]
}}`

func TestClientGetOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/store/orders/order_01", r.URL.Path)
		require.Equal(t, "pk_test", r.Header.Get("x-publishable-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(orderJSON))
	}))
	t.Cleanup(srv.Close)

	client := commerce.NewClient(commerce.ClientConfig{BaseURL: srv.URL + "/", PublishableKey: "pk_test"})
	order, err := client.GetOrder(context.Background(), "order_01")
	require.NoError(t, err)
	require.Equal(t, "order_01", order.ID)
	require.True(t, decimal.NewFromInt(1150).Equal(order.Total))

	payment, ok := order.PrimaryPayment()
	require.True(t, ok)
	require.Equal(t, "pp_mercadopago_mercadopago", payment.ProviderID)
	require.Equal(t, "4242", payment.CardLast4())
	require.NotNil(t, payment.CreatedAt)

	cart := order.Cart()
	require.Len(t, cart.Items, 1)
	require.Equal(t, "BULK_20_AUTO", cart.Items[0].Adjustments[0].Code)
}

func TestClientGetCartNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	client := commerce.NewClient(commerce.ClientConfig{BaseURL: srv.URL})
	_, err := client.GetCart(context.Background(), "cart_missing")
	require.ErrorIs(t, err, commerce.ErrNotFound)
}

func TestClientNotConfigured(t *testing.T) {
	client := commerce.NewClient(commerce.ClientConfig{})
	require.False(t, client.Configured())
	_, err := client.GetCart(context.Background(), "cart_1")
	require.ErrorIs(t, err, commerce.ErrNotConfigured)
}

func TestPrimaryPaymentMissing(t *testing.T) {
	var order *commerce.Order
	_, ok := order.PrimaryPayment()
	require.False(t, ok)

	order = &commerce.Order{PaymentCollections: []commerce.PaymentCollection{{}}}
	_, ok = order.PrimaryPayment()
	require.False(t, ok)
}
