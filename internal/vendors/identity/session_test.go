package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"peakcredit/origination-backend/internal/vendors"
)

func TestTokenIsCachedAcrossEnquiries(t *testing.T) {
	var logins int64
	mux := http.NewServeMux()
	mux.HandleFunc("/otv/token/v1/login/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&logins, 1)
		w.Write([]byte(`{"detail":{"token":"token-1"}}`))
	})
	mux.HandleFunc("/otv/enquiry/v1/demographic", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":0,"detail":{"verified":true}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, "login-id", "user", "pass", zap.NewNop())

	for i := 0; i < 3; i++ {
		_, _, err := client.DemographicEnquiry(context.Background(), "9001015009087")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&logins))
}

func TestRejectedTokenTriggersRelogin(t *testing.T) {
	var logins int64
	mux := http.NewServeMux()
	mux.HandleFunc("/otv/token/v1/login/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&logins, 1)
		w.Write([]byte(`{"detail":{"token":"token-1"}}`))
	})
	rejected := true
	mux.HandleFunc("/otv/enquiry/v1/demographic", func(w http.ResponseWriter, r *http.Request) {
		if rejected {
			rejected = false
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"code":0,"detail":{"verified":true}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, "login-id", "user", "pass", zap.NewNop())

	_, _, err := client.DemographicEnquiry(context.Background(), "9001015009087")
	var aerr *vendors.AuthError
	require.ErrorAs(t, err, &aerr)

	_, _, err = client.DemographicEnquiry(context.Background(), "9001015009087")
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&logins))
}

func TestLoginWithoutTokenIsAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"detail":{}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "login-id", "user", "pass", zap.NewNop())

	_, _, err := client.DemographicEnquiry(context.Background(), "9001015009087")
	var aerr *vendors.AuthError
	require.ErrorAs(t, err, &aerr)
}
