package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/tabexport/internal/config"
	"github.com/JonMunkholm/tabexport/internal/logging"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(r.RemoteAddr))
})

func TestAPIKeyAuth(t *testing.T) {
	cfg := &config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"alpha", "beta"}}
	h := APIKeyAuth(cfg)(okHandler)

	tests := []struct {
		name     string
		header   string
		value    string
		wantCode int
		wantBody string
	}{
		{"missing", "", "", http.StatusUnauthorized, "AUTH_MISSING_KEY"},
		{"invalid", "X-API-Key", "gamma", http.StatusForbidden, "AUTH_INVALID_KEY"},
		{"valid header", "X-API-Key", "beta", http.StatusOK, ""},
		{"bearer", "Authorization", "Bearer alpha", http.StatusOK, ""},
		{"bearer lowercase", "Authorization", "bearer alpha", http.StatusOK, ""},
		{"basic ignored", "Authorization", "Basic alpha", http.StatusUnauthorized, "AUTH_MISSING_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/presets", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want %s", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	h := APIKeyAuth(&config.SecurityConfig{})(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestIsValidAPIKey(t *testing.T) {
	keys := []string{"one", "two"}
	if !isValidAPIKey("two", keys) {
		t.Error("isValidAPIKey(two) = false")
	}
	if isValidAPIKey("three", keys) || isValidAPIKey("", nil) {
		t.Error("isValidAPIKey accepted an unknown key")
	}
}

func TestTrustedRealIP(t *testing.T) {
	h := TrustedRealIP([]string{"10.0.0.0/8", "192.168.1.5", "bogus"})(okHandler)

	tests := []struct {
		name   string
		remote string
		real   string
		xff    string
		want   string
	}{
		{"trusted real ip", "10.1.2.3:5000", "203.0.113.9", "", "203.0.113.9"},
		{"trusted xff first hop", "192.168.1.5:80", "", "198.51.100.7, 10.0.0.1", "198.51.100.7"},
		{"untrusted ignored", "8.8.8.8:443", "1.1.1.1", "", "8.8.8.8:443"},
		{"invalid header ignored", "10.0.0.1:1", "not-an-ip", "", "10.0.0.1:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.real != "" {
				req.Header.Set("X-Real-IP", tt.real)
			}
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:8080"
	if got := ClientIP(req); got != "2001:db8::1" {
		t.Errorf("ClientIP() = %q", got)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "info", "text"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("nope"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/presets/x", nil)
	req.RemoteAddr = "127.0.0.1:9999"
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"level=WARN", "status=404", "bytes=4", "path=/api/presets/x", "ip=127.0.0.1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %s", out, want)
		}
	}
}
