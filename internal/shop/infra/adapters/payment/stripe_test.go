package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"

	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
)

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1999), MinorUnits(19.99, "inr"))
	assert.Equal(t, int64(1001), MinorUnits(10.005, "usd"))
	assert.Equal(t, int64(30), MinorUnits(0.1+0.2, "eur"))
	assert.Equal(t, int64(500), MinorUnits(500, "JPY"))
}

func TestStripeCheckoutSession(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_123","object":"checkout.session","url":"https://checkout.test/cs_123"}`))
	}))
	defer srv.Close()

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	gw := NewStripe("sk_test_x", WithBackend(backend))

	sess, err := gw.CreateCheckoutSession(context.Background(), entity.CheckoutRequest{
		Currency:   "inr",
		Items:      []entity.LineItem{{Name: "Lamp", UnitPrice: 12.5, Quantity: 2}},
		SuccessURL: "http://front/checkout/success",
		CancelURL:  "http://front/checkout/cancel",
		Reference:  "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.CheckoutSession{ID: "cs_123", URL: "https://checkout.test/cs_123"}, sess)

	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, "card", form.Get("payment_method_types[0]"))
	assert.Equal(t, "1250", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "inr", form.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "Lamp", form.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "2", form.Get("line_items[0][quantity]"))
	assert.Equal(t, "u1", form.Get("client_reference_id"))
}

func TestOfflineGateway(t *testing.T) {
	sess, err := Offline{}.CreateCheckoutSession(context.Background(), entity.CheckoutRequest{SuccessURL: "http://front/ok"})
	require.NoError(t, err)
	assert.Contains(t, sess.ID, "cs_offline_")
	assert.Equal(t, "http://front/ok", sess.URL)
}
