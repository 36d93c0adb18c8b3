package paypal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-settlement/internal/domain/payment"
)

func newStubServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(Config{
		BaseURL:      srv.URL,
		ClientID:     "client",
		ClientSecret: "secret",
		ReturnURL:    "https://shop.example.com/return",
		CancelURL:    "https://shop.example.com/cancel",
	})
	return srv, client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestCreateIntent(t *testing.T) {
	var tokenCalls int32
	var gotCreate map[string]any

	_, client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			atomic.AddInt32(&tokenCalls, 1)
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "client", user)
			assert.Equal(t, "secret", pass)
			writeJSON(t, w, http.StatusOK, map[string]any{"access_token": "tok", "expires_in": 3600})
		case "/v1/payments/payment":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotCreate))
			writeJSON(t, w, http.StatusCreated, map[string]any{
				"id":    "PAY-123",
				"state": "created",
				"links": []map[string]string{
					{"rel": "self", "href": "https://api.example.com/self"},
					{"rel": "approval_url", "href": "https://www.example.com/approve/PAY-123"},
				},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	intent, err := client.CreateIntent(context.Background(), payment.CreateIntentRequest{
		Total:    "2.00",
		Currency: "USD",
		Items: []payment.LineItem{
			{Name: "Shirt", SKU: "p1", Price: "1.00", Currency: "USD", Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "PAY-123", intent.ID)
	assert.Equal(t, "https://www.example.com/approve/PAY-123", intent.ApprovalURL)

	assert.Equal(t, "sale", gotCreate["intent"])
	txns := gotCreate["transactions"].([]any)
	require.Len(t, txns, 1)
	amt := txns[0].(map[string]any)["amount"].(map[string]any)
	assert.Equal(t, "2.00", amt["total"])
	assert.Equal(t, "USD", amt["currency"])

	// The token is cached, so a second call only hits the payment endpoint.
	_, err = client.CreateIntent(context.Background(), payment.CreateIntentRequest{
		Total: "2.00", Currency: "USD",
		Items: []payment.LineItem{{Name: "Shirt", SKU: "p1", Price: "1.00", Currency: "USD", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
}

func TestCreateIntent_GatewayErrorKeepsRawBody(t *testing.T) {
	_, client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			writeJSON(t, w, http.StatusOK, map[string]any{"access_token": "tok", "expires_in": 3600})
			return
		}
		writeJSON(t, w, http.StatusBadRequest, map[string]any{
			"name":    "VALIDATION_ERROR",
			"message": "Invalid request",
		})
	})

	_, err := client.CreateIntent(context.Background(), payment.CreateIntentRequest{Total: "2.00", Currency: "USD"})

	var gwErr *payment.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "create", gwErr.Op)
	assert.Equal(t, "Invalid request", gwErr.Message)
	assert.Contains(t, gwErr.Raw, "VALIDATION_ERROR")
}

func TestCreateIntent_MissingApprovalURL(t *testing.T) {
	_, client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			writeJSON(t, w, http.StatusOK, map[string]any{"access_token": "tok", "expires_in": 3600})
			return
		}
		writeJSON(t, w, http.StatusCreated, map[string]any{"id": "PAY-123", "links": []map[string]string{}})
	})

	_, err := client.CreateIntent(context.Background(), payment.CreateIntentRequest{Total: "2.00", Currency: "USD"})

	var gwErr *payment.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "create", gwErr.Op)
}

func TestExecute(t *testing.T) {
	var gotBody map[string]string

	_, client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			writeJSON(t, w, http.StatusOK, map[string]any{"access_token": "tok", "expires_in": 3600})
		case "/v1/payments/payment/PAY-123/execute":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			writeJSON(t, w, http.StatusOK, map[string]any{"id": "PAY-123", "state": "approved"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	capture, err := client.Execute(context.Background(), "PAY-123", "PAYER-9")
	require.NoError(t, err)
	assert.Equal(t, "PAY-123", capture.PaymentID)
	assert.Equal(t, payment.StateApproved, capture.State)
	assert.Equal(t, "PAYER-9", gotBody["payer_id"])
}

// A 200 with a non-approved state is not an error here; the workflow decides.
func TestExecute_PassesStateThrough(t *testing.T) {
	_, client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			writeJSON(t, w, http.StatusOK, map[string]any{"access_token": "tok", "expires_in": 3600})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"id": "PAY-123", "state": "failed"})
	})

	capture, err := client.Execute(context.Background(), "PAY-123", "PAYER-9")
	require.NoError(t, err)
	assert.Equal(t, "failed", capture.State)
}

func TestToken_Error(t *testing.T) {
	_, client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{
			"error":             "invalid_client",
			"error_description": "Client Authentication failed",
		})
	})

	_, err := client.Execute(context.Background(), "PAY-123", "PAYER-9")

	var gwErr *payment.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "oauth", gwErr.Op)
	assert.Equal(t, "Client Authentication failed", gwErr.Message)
}
