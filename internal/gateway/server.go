// The transparent HTTP surface between the application and the network.
package gateway

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/its7amo/clean-and-green-website-sub003/internal/config"
	"github.com/its7amo/clean-and-green-website-sub003/internal/lifecycle"
)

// Server forwards the application's requests through the currently
// controlling generation's interceptor. Responses are copied verbatim, so
// the layer is indistinguishable from the network except for the cache-hit
// and offline cases.
type Server struct {
	config   *config.Config
	registry *lifecycle.Registry
	origin   *url.URL
}

// New creates a new gateway server
func New(cfg *config.Config, registry *lifecycle.Registry) (*Server, error) {
	origin, err := cfg.OriginURL()
	if err != nil {
		return nil, fmt.Errorf("invalid upstream origin: %w", err)
	}
	return &Server{
		config:   cfg,
		registry: registry,
		origin:   origin,
	}, nil
}

// Start starts the gateway server
func (s *Server) Start() error {
	logrus.Infof("Starting offline gateway on port %d", s.config.Server.Port)
	logrus.Infof("Upstream origin: %s", s.origin)
	logrus.Infof("Cache version: %s", s.config.Cache.Version)

	return http.ListenAndServe(fmt.Sprintf(":%d", s.config.Server.Port), s.Handler())
}

// Handler returns the request handler (exported for testing)
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleRequest)
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	upstream, err := s.upstreamRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	interceptor := s.registry.Interceptor()
	if interceptor == nil {
		// no generation controls traffic yet, pass straight through
		resp, err := http.DefaultTransport.RoundTrip(upstream)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()
		writeResponse(w, resp)
		return
	}

	resp := interceptor.Fetch(upstream)
	defer resp.Body.Close()
	writeResponse(w, resp)
}

// upstreamRequest rewrites an incoming request to the configured origin,
// preserving method, path, query and headers.
func (s *Server) upstreamRequest(r *http.Request) (*http.Request, error) {
	target := s.origin.ResolveReference(&url.URL{Path: r.URL.Path, RawQuery: r.URL.RawQuery})

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		return nil, fmt.Errorf("building upstream request: %w", err)
	}
	for key, values := range r.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	return req, nil
}

func writeResponse(w http.ResponseWriter, resp *http.Response) {
	for key, values := range resp.Header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		logrus.Errorf("Failed to write response body: %v", err)
	}
}
