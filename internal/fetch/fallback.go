package fetch

import (
	"io"
	"net/http"
	"strings"
)

// OfflineBody is the fixed body of the synthesized offline response.
const OfflineBody = "You appear to be offline and this page has not been cached yet.\n"

// offlineResponse synthesizes the deterministic fallback served when both
// the network and the cache have no answer. Built locally with no I/O, so
// resolving a request can never fail twice.
func offlineResponse(req *http.Request) *http.Response {
	return &http.Response{
		Status:        "503 Service Unavailable",
		StatusCode:    http.StatusServiceUnavailable,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": []string{"text/plain"}},
		Body:          io.NopCloser(strings.NewReader(OfflineBody)),
		ContentLength: int64(len(OfflineBody)),
		Request:       req,
	}
}
