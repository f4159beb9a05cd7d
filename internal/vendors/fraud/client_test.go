package fraud

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalSearchSendsFixedCriteria(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/normalsearch", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"pTransactionCompleted":true,"pRetData":""}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "pass", zap.NewNop())
	resp, _, err := client.NormalSearch(context.Background(), SearchRequest{
		IDNumber:  "9001015009087",
		FirstName: "Thabo",
		Surname:   "Nkosi",
	})
	require.NoError(t, err)
	assert.True(t, resp.TransactionCompleted)

	assert.Equal(t, "user", received["pUsername"])
	assert.Equal(t, true, received["pSearchId"])
	assert.Equal(t, true, received["pSearchName"])
	assert.Equal(t, true, received["pSearchAddress"])
	assert.Equal(t, false, received["pSearchTelephone"])
}

func TestHasUsableArchive(t *testing.T) {
	zip := base64.StdEncoding.EncodeToString([]byte("PK\x03\x04rest-of-archive"))
	notZip := base64.StdEncoding.EncodeToString([]byte("plain text"))

	tests := []struct {
		name    string
		retData string
		want    bool
	}{
		{"zip archive", zip, true},
		{"not a zip", notZip, false},
		{"empty", "", false},
		{"invalid base64", "!!!not-base64!!!", false},
		{"too short", base64.StdEncoding.EncodeToString([]byte("P")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &SearchResponse{RetData: tt.retData}
			assert.Equal(t, tt.want, resp.HasUsableArchive())
		})
	}
}
