package tests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/its7amo/clean-and-green-website-sub003/internal/config"
	"github.com/its7amo/clean-and-green-website-sub003/internal/fetch"
	"github.com/its7amo/clean-and-green-website-sub003/internal/gateway"
	"github.com/its7amo/clean-and-green-website-sub003/internal/lifecycle"
	"github.com/its7amo/clean-and-green-website-sub003/internal/store"
)

// fixture_upstream creates a test origin serving a small site
func fixture_upstream() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/site.webmanifest":
			w.Header().Set("Content-Type", "application/manifest+json")
			_, _ = w.Write([]byte(`{"name": "clean and green"}`))
		case "/static/logo.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("logo bytes"))
		case "/api/widgets":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"widgets": []}`))
		case "/":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>home</html>"))
		default:
			http.NotFound(w, r)
		}
	}))
}

// fixture_gateway installs and activates a generation over a fresh store
// and returns the running gateway test server plus the registry.
func fixture_gateway(t *testing.T, origin, version string, manifest []string) (*httptest.Server, *lifecycle.Registry) {
	t.Helper()

	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	originURL, err := url.Parse(origin)
	require.NoError(t, err)

	registry := lifecycle.NewRegistry()
	controller := lifecycle.NewController(lifecycle.Config{
		Version:  version,
		Origin:   originURL,
		Manifest: manifest,
		Rule:     fetch.Rule{APIPrefix: "/api/"},
		Store:    s,
		Registry: registry,
		Metrics:  fetch.NewMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, controller.Install(context.Background()))
	require.NoError(t, controller.Activate())

	cfg := &config.Config{
		Server:   config.ServerConfig{Port: 8080},
		Upstream: config.UpstreamConfig{Origin: origin},
		Cache:    config.CacheConfig{DB: "unused", Version: version, APIPrefix: "/api/"},
	}
	server, err := gateway.New(cfg, registry)
	require.NoError(t, err)

	gatewayServer := httptest.NewServer(server.Handler())
	t.Cleanup(gatewayServer.Close)

	return gatewayServer, registry
}
