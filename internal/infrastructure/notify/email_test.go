package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/counterparty"
	"shopledger/internal/domain/documents/order"
)

func testOrder() *order.Order {
	return &order.Order{
		ID:    id.New(),
		Code:  "SO-2026-00001",
		Type:  order.TypeSale,
		Total: types.MustMoney("200"),
		Paid:  types.MustMoney("50"),
		Items: []order.Item{{
			LineNo:    1,
			Quantity:  2,
			Unit:      "kg",
			UnitPrice: types.MustMoney("100"),
			LineTotal: types.MustMoney("200"),
		}},
	}
}

func customerWithEmail(email string) *counterparty.Counterparty {
	return &counterparty.Counterparty{ID: id.New(), Kind: counterparty.KindCustomer, Name: "Lan", Email: &email}
}

func TestEmailNotifier_PostsMail(t *testing.T) {
	var got MailRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewEmailNotifier(Config{BaseURL: srv.URL + "/", Token: "secret", From: "shop@example.com"})
	err := n.SaleOrderCreated(context.Background(), testOrder(), customerWithEmail("lan@example.com"))
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "lan@example.com", got.To)
	assert.Equal(t, "shop@example.com", got.From)
	assert.Equal(t, "Order SO-2026-00001 received", got.Subject)
	assert.Contains(t, got.Text, "Outstanding: 150.00")
	assert.Equal(t, "SO-2026-00001", got.Tags["order_code"])
}

func TestEmailNotifier_RelayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"upstream down"}`))
	}))
	defer srv.Close()

	n := NewEmailNotifier(Config{BaseURL: srv.URL})
	err := n.SaleOrderCreated(context.Background(), testOrder(), customerWithEmail("lan@example.com"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=502")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestEmailNotifier_SkipsWithoutAddress(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	n := NewEmailNotifier(Config{BaseURL: srv.URL})
	require.NoError(t, n.SaleOrderCreated(context.Background(), testOrder(), nil))
	require.NoError(t, n.SaleOrderCreated(context.Background(), testOrder(), &counterparty.Counterparty{Name: "walk-in"}))

	assert.False(t, called)
}
