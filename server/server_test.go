package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pevans/newsmap/auth"
	"github.com/pevans/newsmap/config"
	"github.com/pevans/newsmap/newspapers"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Test helper: create a server backed by a temp database
func setupTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	cfg := config.Default()
	cfg.Storage.DSN = filepath.Join(t.TempDir(), "newsmap.db")
	cfg.Auth.SecretKey = "test-secret"
	if mutate != nil {
		mutate(cfg)
	}

	s, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func do(h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// TestServer_AdminFlow walks through login, subscribing and adding a
// newspaper
func TestServer_AdminFlow(t *testing.T) {
	h := setupTestServer(t, nil).Handler()

	w := do(h, http.MethodPost, "/api/newspapers", "", newspapers.CreateNewspaperRequest{
		Title: "El País", URL: "https://elpais.com", CountryCode: "ESP",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(h, http.MethodPost, "/api/auth/login", "", auth.LoginRequest{Username: "admin", Password: "admin123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login auth.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	token := login.AccessToken

	w = do(h, http.MethodPost, "/api/notifications/subscribe", token, map[string]any{
		"country_codes": []string{"ESP"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(h, http.MethodPost, "/api/newspapers", token, newspapers.CreateNewspaperRequest{
		Title: "El País", URL: "https://elpais.com", CountryCode: "esp",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(h, http.MethodGet, "/api/notifications/unread-count", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count": 1}`, w.Body.String())

	w = do(h, http.MethodGet, "/api/countries/match?name=Spain", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name": "Spain", "codes": ["ESP"], "has_news": true}`, w.Body.String())

	w = do(h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `newsmap_country_matches_total{rule="canonical"} 1`)
	assert.Contains(t, w.Body.String(), "newsmap_notifications_sent_total 1")
}

// TestServer_Settings verifies the settings routes are mounted
func TestServer_Settings(t *testing.T) {
	h := setupTestServer(t, nil).Handler()

	w := do(h, http.MethodGet, "/api/settings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"headline_limit": 5}`, w.Body.String())
}

// TestServer_NoGeoIP verifies locate without a database
func TestServer_NoGeoIP(t *testing.T) {
	h := setupTestServer(t, nil).Handler()

	assert.Equal(t, http.StatusServiceUnavailable, do(h, http.MethodGet, "/api/locate", "", nil).Code)
}

// TestServer_ReloadWithoutGeoIP verifies reload is a no-op without a database
func TestServer_ReloadWithoutGeoIP(t *testing.T) {
	s := setupTestServer(t, nil)

	assert.NoError(t, s.ReloadGeoIP())
}

// TestServer_BadGeoIPDatabase verifies startup fails on an unreadable database
func TestServer_BadGeoIPDatabase(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.DSN = filepath.Join(t.TempDir(), "newsmap.db")
	cfg.GeoIP.Database = filepath.Join(t.TempDir(), "missing.bin")

	_, err := New(cfg, zerolog.Nop())
	assert.Error(t, err)
}

// TestServer_CustomRegistry verifies a registry file replaces the default
func TestServer_CustomRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countries.yaml")
	require.NoError(t, writeFile(path, "- code: ATL\n  name: Atlantis\n"))

	h := setupTestServer(t, func(cfg *config.Config) {
		cfg.Registry.Path = path
	}).Handler()

	w := do(h, http.MethodGet, "/api/countries/registry", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"code": "ATL", "name": "Atlantis"}]`, w.Body.String())
}

// TestCORS verifies preflight requests and allowed origins
func TestCORS(t *testing.T) {
	h := setupTestServer(t, func(cfg *config.Config) {
		cfg.Server.CORSOrigins = []string{"https://newsmap.example"}
	}).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/newspapers", nil)
	req.Header.Set("Origin", "https://newsmap.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://newsmap.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodPost, w.Header().Get("Access-Control-Allow-Methods"))

	req = httptest.NewRequest(http.MethodGet, "/api/newspapers", nil)
	req.Header.Set("Origin", "https://newsmap.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "https://newsmap.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/newspapers", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

// TestConfigureLogging verifies level parsing
func TestConfigureLogging(t *testing.T) {
	cfg := config.Default()
	var buf bytes.Buffer

	cfg.Log.Level = "warn"
	logger, err := ConfigureLogging(cfg, &buf)
	require.NoError(t, err)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	cfg.Log.Level = "loud"
	_, err = ConfigureLogging(cfg, &buf)
	assert.Error(t, err)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
