package gateway_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/gatekeep/internal/gateway"
	"github.com/stretchr/testify/require"
)

func TestPermissionTableLookup(t *testing.T) {
	table := gateway.NewPermissionTable(map[string]string{
		"GET:/v1/api/user":        "USER:READ",
		"GET:/v1/api/user/export": "USER:EXPORT",
		"post:/v1/api/user":       "USER:CREATE", // method is case-insensitive
	})

	t.Run("prefix match", func(t *testing.T) {
		perm, ok := table.Required(http.MethodGet, "/v1/api/user/paged")
		require.True(t, ok)
		require.Equal(t, "USER:READ", perm)
	})

	t.Run("longest prefix wins", func(t *testing.T) {
		perm, ok := table.Required(http.MethodGet, "/v1/api/user/export/csv")
		require.True(t, ok)
		require.Equal(t, "USER:EXPORT", perm)
	})

	t.Run("method distinguishes rules", func(t *testing.T) {
		perm, ok := table.Required(http.MethodPost, "/v1/api/user")
		require.True(t, ok)
		require.Equal(t, "USER:CREATE", perm)
	})

	t.Run("unmapped route", func(t *testing.T) {
		_, ok := table.Required(http.MethodGet, "/v1/api/orders")
		require.False(t, ok)

		_, ok = table.Required(http.MethodDelete, "/v1/api/user")
		require.False(t, ok)
	})
}

func TestProxyRoutesByPrefix(t *testing.T) {
	users := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", "users")
	}))
	t.Cleanup(users.Close)

	orders := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", "orders")
	}))
	t.Cleanup(orders.Close)

	proxy, err := gateway.NewProxy(map[string]string{
		"/v1/api/user":   users.URL,
		"/v1/api/orders": orders.URL,
	})
	require.NoError(t, err)

	edge := httptest.NewServer(proxy)
	t.Cleanup(edge.Close)

	tests := []struct {
		path string
		want string
		code int
	}{
		{"/v1/api/user/paged", "users", http.StatusOK},
		{"/v1/api/orders/42", "orders", http.StatusOK},
		{"/v1/api/unknown", "", http.StatusNotFound},
	}
	for _, tc := range tests {
		resp, err := http.Get(edge.URL + tc.path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, tc.code, resp.StatusCode, tc.path)
		require.Equal(t, tc.want, resp.Header.Get("X-Upstream"), tc.path)
	}
}

func TestProxyRejectsBadUpstream(t *testing.T) {
	_, err := gateway.NewProxy(map[string]string{"/v1": "not a url"})
	require.Error(t, err)

	_, err = gateway.NewProxy(map[string]string{"/v1": "/relative/only"})
	require.Error(t, err)
}
