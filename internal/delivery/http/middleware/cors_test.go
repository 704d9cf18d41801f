package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		origins     []string
		origin      string
		method      string
		wantStatus  int
		wantAllowed string
	}{
		{
			name:        "allowed origin echoed",
			origins:     []string{"https://app.example.com"},
			origin:      "https://app.example.com",
			method:      http.MethodGet,
			wantStatus:  http.StatusOK,
			wantAllowed: "https://app.example.com",
		},
		{
			name:       "unknown origin gets no CORS headers",
			origins:    []string{"https://app.example.com"},
			origin:     "https://evil.example.com",
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
		},
		{
			name:        "wildcard admits any origin",
			origins:     []string{"*"},
			origin:      "https://anywhere.example.com",
			method:      http.MethodGet,
			wantStatus:  http.StatusOK,
			wantAllowed: "https://anywhere.example.com",
		},
		{
			name:        "preflight for allowed origin",
			origins:     []string{"https://app.example.com/"},
			origin:      "https://app.example.com",
			method:      http.MethodOptions,
			wantStatus:  http.StatusNoContent,
			wantAllowed: "https://app.example.com",
		},
		{
			name:       "preflight for unknown origin",
			origins:    []string{"https://app.example.com"},
			origin:     "https://evil.example.com",
			method:     http.MethodOptions,
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORS(tt.origins, next)

			req := httptest.NewRequest(tt.method, "/events", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantAllowed, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "Origin", rec.Header().Get("Vary"))
		})
	}
}
