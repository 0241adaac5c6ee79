package app_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/roledesk/internal/app"
	"github.com/odyssey-erp/roledesk/internal/observability"
	"github.com/odyssey-erp/roledesk/internal/platform/kv"
	"github.com/odyssey-erp/roledesk/internal/roles"
	"github.com/odyssey-erp/roledesk/internal/users"
	_ "github.com/odyssey-erp/roledesk/testing"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetrics()
	backend := kv.NewMemoryStore()
	roleStore := roles.NewStore(ctx, backend, logger, metrics.StoreListener())
	userStore := users.NewStore(ctx, backend, roleStore, logger, metrics.StoreListener())
	return app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       &app.Config{AppEnv: "production", RateLimitPerMinute: 1000},
		RolesHandler: roles.NewHandler(logger, roleStore),
		UsersHandler: users.NewHandler(logger, userStore),
		Metrics:      metrics,
	})
}

func call(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-Proto", "https")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	rr := call(t, newTestRouter(t), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}

func TestRoleUserLifecycle(t *testing.T) {
	h := newTestRouter(t)

	rr := call(t, h, http.MethodPost, "/roles", `{"name":"Admin","permissions":{"read":true,"write":true,"delete":true,"customPermissions":[]}}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = call(t, h, http.MethodPost, "/users", `{"name":"Alice","email":"alice@x.com","roleId":1}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = call(t, h, http.MethodDelete, "/roles/1", "")
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = call(t, h, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []users.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Alice", list[0].Name)
	assert.Equal(t, users.RoleNotFound, list[0].RoleName)

	rr = call(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `roledesk_store_mutations_total{collection="roles",op="create"} 1`)
	assert.Contains(t, body, `roledesk_store_mutations_total{collection="roles",op="delete"} 1`)
	assert.Contains(t, body, `roledesk_store_mutations_total{collection="users",op="create"} 1`)
}
