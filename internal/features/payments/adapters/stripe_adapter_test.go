package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"zapshift/internal/core/apperror"
	"zapshift/internal/core/config"
	"zapshift/internal/features/payments/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(url string) *StripeAdapter {
	return NewStripeAdapter(config.StripeConfig{SecretKey: "sk_test", APIURL: url, Currency: "usd"})
}

func TestStripeAdapter_CreateSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "500", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "please pay for Books", r.PostForm.Get("line_items[0][price_data][product_data][name]"))
		assert.Equal(t, "p-1", r.PostForm.Get("metadata[parcelId]"))
		assert.Equal(t, "s@example.com", r.PostForm.Get("customer_email"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"cs_1","url":"https://checkout.test/cs_1","payment_status":"unpaid","payment_intent":null}`))
	}))
	defer server.Close()

	s, err := newTestAdapter(server.URL).CreateSession(context.Background(), domain.SessionParams{
		AmountMinor:   500,
		Currency:      "usd",
		ProductName:   "please pay for Books",
		CustomerEmail: "s@example.com",
		Metadata:      map[string]string{domain.MetaParcelID: "p-1"},
		SuccessURL:    "https://site.test/ok",
		CancelURL:     "https://site.test/cancel",
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_1", s.ID)
	assert.Equal(t, "https://checkout.test/cs_1", s.URL)
	assert.Empty(t, s.PaymentIntent)
}

func TestStripeAdapter_RetrieveSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/checkout/sessions/cs_1", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"id":"cs_1","payment_status":"paid","payment_intent":"pi_1",
			"amount_total":500,"currency":"usd","customer_email":"s@example.com",
			"metadata":{"parcelId":"p-1","parcelName":"Books"}
		}`))
	}))
	defer server.Close()

	s, err := newTestAdapter(server.URL).RetrieveSession(context.Background(), "cs_1")

	require.NoError(t, err)
	assert.Equal(t, domain.ProviderStatusPaid, s.PaymentStatus)
	assert.Equal(t, "pi_1", s.PaymentIntent)
	assert.Equal(t, int64(500), s.AmountTotal)
	assert.Equal(t, "p-1", s.Metadata[domain.MetaParcelID])
}

func TestStripeAdapter_ExpandedPaymentIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"cs_1","payment_intent":{"id":"pi_9","object":"payment_intent"}}`))
	}))
	defer server.Close()

	s, err := newTestAdapter(server.URL).RetrieveSession(context.Background(), "cs_1")

	require.NoError(t, err)
	assert.Equal(t, "pi_9", s.PaymentIntent)
}

func TestStripeAdapter_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		isErr  error
	}{
		{"not found", http.StatusNotFound, apperror.ErrNotFound},
		{"server error", http.StatusInternalServerError, nil},
		{"unauthorized", http.StatusUnauthorized, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such checkout.session"}}`))
			}))
			defer server.Close()

			s, err := newTestAdapter(server.URL).RetrieveSession(context.Background(), "cs_missing")

			require.Error(t, err)
			assert.Nil(t, s)
			if tt.isErr != nil {
				assert.ErrorIs(t, err, tt.isErr)
			} else {
				assert.Contains(t, err.Error(), "stripe API returned status")
			}
		})
	}
}
