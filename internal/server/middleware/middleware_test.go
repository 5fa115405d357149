package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoggingCapturesStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("oops"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/dashboard?max_hours=24", nil))

	out := buf.String()
	assert.Contains(t, out, `"status":502`)
	assert.Contains(t, out, `"bytes":4`)
	assert.Contains(t, out, `"query":"max_hours=24"`)
	assert.Contains(t, out, `"level":"WARN"`)
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.1.1.1:80", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": " 10.0.0.9 "}, "1.1.1.1:80", "10.0.0.9"},
		{"remote", nil, "1.1.1.1:80", "1.1.1.1"},
		{"remote without port", nil, "1.1.1.1", "1.1.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, extractClientIP(r))
		})
	}
}

type keyRecorder struct{ keys []string }

func (k *keyRecorder) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	k.keys = append(k.keys, key)
	return true, nil
}

func TestRateLimitKeysByClient(t *testing.T) {
	rec := &keyRecorder{}
	h := RateLimit(rec, 10, time.Minute, slog.Default())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "8.8.8.8:1234"
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, []string{"api:8.8.8.8"}, rec.keys)
}
