package meeting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvisioner(apiSrv, oauthSrv *httptest.Server) *ZoomProvisioner {
	return &ZoomProvisioner{
		accountID:    "test-account",
		clientID:     "test-client",
		clientSecret: "test-secret",
		baseURL:      apiSrv.URL,
		oauthURL:     oauthSrv.URL,
		client:       &http.Client{Timeout: 5 * time.Second},
	}
}

func TestZoomProvisioner_Provision(t *testing.T) {
	oauthSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "test-client", user)
		assert.Equal(t, "test-secret", pass)
		assert.Equal(t, "account_credentials", r.URL.Query().Get("grant_type"))

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-123",
			"expires_in":   3600,
		})
	}))
	defer oauthSrv.Close()

	t.Run("creates meeting and maps response", func(t *testing.T) {
		apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/me/meetings", r.URL.Path)
			assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

			var req zoomMeetingRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 1, req.Type)

			json.NewEncoder(w).Encode(map[string]any{
				"id":       int64(987654321),
				"join_url": "https://zoom.us/j/987654321",
				"password": "s3cret",
			})
		}))
		defer apiSrv.Close()

		p := newTestProvisioner(apiSrv, oauthSrv)
		m, err := p.Provision(context.Background(), "1-on-1 Session")
		require.NoError(t, err)
		assert.Equal(t, "987654321", m.ID)
		assert.Equal(t, "https://zoom.us/j/987654321", m.JoinURL)
		assert.Equal(t, "s3cret", m.Password)
	})

	t.Run("returns error on provider failure", func(t *testing.T) {
		apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer apiSrv.Close()

		p := newTestProvisioner(apiSrv, oauthSrv)
		_, err := p.Provision(context.Background(), "1-on-1 Session")
		assert.Error(t, err)
	})

	t.Run("reuses cached token across calls", func(t *testing.T) {
		tokenCalls := 0
		countingOAuth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenCalls++
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok-123",
				"expires_in":   3600,
			})
		}))
		defer countingOAuth.Close()

		apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"id":       int64(1),
				"join_url": "https://zoom.us/j/1",
				"password": "pw",
			})
		}))
		defer apiSrv.Close()

		p := newTestProvisioner(apiSrv, countingOAuth)
		_, err := p.Provision(context.Background(), "a")
		require.NoError(t, err)
		_, err = p.Provision(context.Background(), "b")
		require.NoError(t, err)
		assert.Equal(t, 1, tokenCalls)
	})
}
