package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxLoggedBody = 4096

// Transport traces HTTP exchanges at debug level. Request headers carrying
// secrets are redacted and streaming response bodies are never buffered.
type Transport struct {
	base   http.RoundTripper
	logger *Logger
}

// NewTransport wraps base (http.DefaultTransport when nil) with tracing
// through DefaultLogger.
func NewTransport(base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{base: base, logger: DefaultLogger.With(Fields{"component": "http"})}
}

// NewHTTPClient returns a client with the tracing transport and timeout.
// A zero timeout leaves the client unbounded, which streaming callers rely on.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout, Transport: NewTransport(nil)}
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.logger.Enabled(LevelDebug) {
		return t.base.RoundTrip(req)
	}

	start := time.Now()
	t.logger.Debug("http request", Fields{
		"method":  req.Method,
		"url":     req.URL.Redacted(),
		"headers": redactHeaders(req.Header),
	})

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Error("http request failed", err, Fields{
			"method": req.Method,
			"url":    req.URL.Redacted(),
		})
		return nil, err
	}

	fields := Fields{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if isStreamingResponse(resp) {
		fields["streaming"] = true
	} else if resp.StatusCode >= 400 && resp.Body != nil {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(body))
		fields["body"] = describeBody(body)
	}
	t.logger.Debug("http response", fields)

	return resp, nil
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) == 0 {
			continue
		}
		if isSensitiveHeader(k) {
			out[k] = "[REDACTED]"
		} else {
			out[k] = v[0]
		}
	}
	return out
}

func isSensitiveHeader(name string) bool {
	switch strings.ToLower(name) {
	case "authorization", "api-key", "x-api-key", "x-goog-api-key", "cookie", "set-cookie":
		return true
	}
	return false
}

func isStreamingResponse(resp *http.Response) bool {
	contentType := resp.Header.Get("Content-Type")
	return strings.Contains(contentType, "text/event-stream") ||
		strings.Contains(contentType, "application/x-ndjson")
}

// describeBody returns parsed JSON when possible so error payloads read
// naturally in JSON logs, truncated text otherwise.
func describeBody(body []byte) interface{} {
	if json.Valid(body) {
		var parsed interface{}
		if err := json.Unmarshal(body, &parsed); err == nil {
			return parsed
		}
	}
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody]) + "...[truncated]"
	}
	return string(body)
}
