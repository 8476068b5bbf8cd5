package store

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
)

const sentinel = "---HTTP-SNAPSHOT---\n"

// Serialize encodes a snapshot in HTTP/1.1 wire format with a sentinel
// prefix, so corrupted rows are detectable on read.
func Serialize(snap Snapshot) ([]byte, error) {
	resp := &http.Response{
		StatusCode:    snap.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        snap.Header,
		Body:          io.NopCloser(bytes.NewReader(snap.Body)),
		ContentLength: int64(len(snap.Body)),
	}
	b, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return nil, err
	}
	return append([]byte(sentinel), b...), nil
}

// Deserialize decodes bytes produced by Serialize.
func Deserialize(b []byte) (Snapshot, error) {
	if len(b) < len(sentinel) || string(b[:len(sentinel)]) != sentinel {
		return Snapshot{}, fmt.Errorf("invalid snapshot encoding: missing sentinel")
	}
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(b[len(sentinel):])), nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot body: %w", err)
	}
	return Snapshot{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
