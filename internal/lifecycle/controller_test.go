package lifecycle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/its7amo/clean-and-green-website-sub003/internal/fetch"
	"github.com/its7amo/clean-and-green-website-sub003/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestController(t *testing.T, s *store.SQLiteStore, registry *Registry, version, origin string, manifest []string) *Controller {
	t.Helper()
	originURL, err := url.Parse(origin)
	require.NoError(t, err)
	return NewController(Config{
		Version:  version,
		Origin:   originURL,
		Manifest: manifest,
		Rule:     fetch.Rule{APIPrefix: "/api/"},
		Store:    s,
		Registry: registry,
		Metrics:  fetch.NewMetrics(prometheus.NewRegistry()),
	})
}

func TestInstallPrecachesManifest(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/a.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("a bytes"))
	}))
	defer upstream.Close()

	s := newTestStore(t)
	c := newTestController(t, s, NewRegistry(), "v1", upstream.URL, []string{"/a.png"})

	require.NoError(t, c.Install(context.Background()))
	require.Equal(t, StateWaiting, c.State())

	h, err := s.Open("v1")
	require.NoError(t, err)
	snap, err := h.Get(store.Key("GET", upstream.URL+"/a.png"))
	require.NoError(t, err)
	require.Equal(t, []byte("a bytes"), snap.Body)
}

func TestInstallFailureBlocksActivation(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer upstream.Close()

	s := newTestStore(t)
	registry := NewRegistry()
	c := newTestController(t, s, registry, "v2", upstream.URL, []string{"/missing.png"})

	require.Error(t, c.Install(context.Background()))
	require.Equal(t, StateInstalling, c.State())

	// a generation with an incomplete baseline cache must not take control
	require.Error(t, c.Activate())
	require.Nil(t, registry.Current())
}

func TestActivateReconcilesAndClaims(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("asset"))
	}))
	defer upstream.Close()

	s := newTestStore(t)
	_, err := s.Open("v1")
	require.NoError(t, err)

	registry := NewRegistry()
	c := newTestController(t, s, registry, "v2", upstream.URL, []string{"/icons/icon-192.png"})

	require.NoError(t, c.Install(context.Background()))
	require.NoError(t, c.Activate())

	require.Equal(t, StateControlling, c.State())
	require.Same(t, c, registry.Current())

	versions, err := s.Versions()
	require.NoError(t, err)
	require.Equal(t, []string{"v2"}, versions)
}

func TestHandoffSupersedesPreviousGeneration(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("asset"))
	}))
	defer upstream.Close()

	s := newTestStore(t)
	registry := NewRegistry()

	first := newTestController(t, s, registry, "v1", upstream.URL, nil)
	require.NoError(t, first.Install(context.Background()))
	require.NoError(t, first.Activate())
	require.Equal(t, StateControlling, first.State())

	second := newTestController(t, s, registry, "v2", upstream.URL, nil)
	require.NoError(t, second.Install(context.Background()))
	require.NoError(t, second.Activate())

	require.Equal(t, StateSuperseded, first.State())
	require.Equal(t, StateControlling, second.State())
	require.Same(t, second.Interceptor(), registry.Interceptor())
}

func TestActivateRequiresInstall(t *testing.T) {
	s := newTestStore(t)
	c := newTestController(t, s, NewRegistry(), "v1", "http://localhost:0", nil)
	require.Error(t, c.Activate())
}
