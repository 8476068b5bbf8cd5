package fetch

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/its7amo/clean-and-green-website-sub003/internal/store"
)

// Interceptor resolves requests network-first, falling back to its
// generation's cache, and finally to a synthesized offline response.
// It is bound to a single cache version for its whole lifetime.
type Interceptor struct {
	handle    store.Handle
	rule      Rule
	transport http.RoundTripper
	writes    *writeQueue
	metrics   *Metrics
}

// NewInterceptor builds an interceptor over the given generation handle.
// A nil transport means http.DefaultTransport.
func NewInterceptor(h store.Handle, rule Rule, transport http.RoundTripper, metrics *Metrics) *Interceptor {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Interceptor{
		handle:    h,
		rule:      rule,
		transport: transport,
		writes:    newWriteQueue(0, metrics),
		metrics:   metrics,
	}
}

// Version returns the cache version this interceptor serves under.
func (i *Interceptor) Version() string {
	return i.handle.Version()
}

// Fetch resolves a request. It always returns a response: the live network
// result, a cached snapshot, or the offline fallback. HTTP error statuses
// from the network are returned as-is; only transport-level failures divert
// to the cache.
func (i *Interceptor) Fetch(req *http.Request) *http.Response {
	resp, err := i.transport.RoundTrip(req)
	if err != nil {
		i.metrics.NetworkRequests.WithLabelValues("error").Inc()
		logrus.Debugf("Network fetch failed for %s %s: %v", req.Method, req.URL, err)
		return i.fromCache(req)
	}
	i.metrics.NetworkRequests.WithLabelValues("ok").Inc()

	if resp.StatusCode == http.StatusOK && req.Method == http.MethodGet && i.rule.Cacheable(req.URL.Path) {
		return i.writeThrough(req, resp)
	}
	return resp
}

// writeThrough captures the response body and hands a snapshot to the
// background writer. The network body is a single-consumption stream, so
// the caller and the cache writer each get an independent copy.
func (i *Interceptor) writeThrough(req *http.Request, resp *http.Response) *http.Response {
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		// the connection died mid-body; same recovery as a failed dial
		i.metrics.NetworkRequests.WithLabelValues("error").Inc()
		logrus.Debugf("Network body read failed for %s: %v", req.URL, err)
		return i.fromCache(req)
	}

	snap := store.Snapshot{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       append([]byte(nil), body...),
	}
	i.writes.enqueue(i.handle, store.Key(req.Method, req.URL.String()), snap)

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp
}

// fromCache serves a stored snapshot, or the offline fallback on a miss.
// Read errors count as misses.
func (i *Interceptor) fromCache(req *http.Request) *http.Response {
	key := store.Key(req.Method, req.URL.String())
	snap, err := i.handle.Get(key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logrus.Errorf("Cache lookup failed for %s: %v", key, err)
		}
		i.metrics.OfflineResponses.Inc()
		logrus.Infof("Serving offline response for %s", key)
		return offlineResponse(req)
	}
	i.metrics.CacheFallbacks.Inc()
	logrus.Infof("Serving cached response for %s", key)
	return snapshotResponse(req, snap)
}

// Close drains pending cache writes. Call before process shutdown.
func (i *Interceptor) Close() {
	i.writes.drain()
}

func snapshotResponse(req *http.Request, snap store.Snapshot) *http.Response {
	return &http.Response{
		StatusCode:    snap.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        snap.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(snap.Body)),
		ContentLength: int64(len(snap.Body)),
		Request:       req,
	}
}
