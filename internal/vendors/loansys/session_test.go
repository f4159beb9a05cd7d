package loansys

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"peakcredit/origination-backend/internal/vendors"
)

func TestSessionIsCachedAcrossCalls(t *testing.T) {
	var logins int64
	mux := http.NewServeMux()
	mux.HandleFunc("/MaxIntegrate/login", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&logins, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"return_code": 0,
			"login_token": "token-1",
			"user_id":     7,
			"branch_id":   2,
			"mle_id":      1,
		})
	})
	mux.HandleFunc("/MaxIntegrate/client_create", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"return_code": 0, "client_no": "C-1"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, "user", "pass", zap.NewNop())

	for i := 0; i < 3; i++ {
		_, _, err := client.CreateClient(context.Background(), map[string]interface{}{})
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&logins))
}

func TestSessionInvalidatedOn401(t *testing.T) {
	var logins int64
	mux := http.NewServeMux()
	mux.HandleFunc("/MaxIntegrate/login", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&logins, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"return_code": 0,
			"login_token": "token-1",
		})
	})
	unauthorized := true
	mux.HandleFunc("/MaxIntegrate/client_create", func(w http.ResponseWriter, r *http.Request) {
		if unauthorized {
			unauthorized = false
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"return_code": 0, "client_no": "C-1"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, "user", "pass", zap.NewNop())

	_, _, err := client.CreateClient(context.Background(), map[string]interface{}{})
	var aerr *vendors.AuthError
	require.ErrorAs(t, err, &aerr)

	// The rejected session was dropped, so the retry logs in again.
	_, _, err = client.CreateClient(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&logins))
}

func TestLoginDomainFailureIsAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// HTTP 200 with a non-zero return code is still a login failure.
		json.NewEncoder(w).Encode(map[string]interface{}{
			"return_code":   3,
			"return_reason": "invalid credentials",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "wrong", zap.NewNop())

	_, err := client.Session(context.Background())
	var aerr *vendors.AuthError
	require.True(t, errors.As(err, &aerr))
	assert.Contains(t, aerr.Error(), "invalid credentials")
}
