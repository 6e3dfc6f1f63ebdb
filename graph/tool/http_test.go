package tool

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPTool_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if got := r.Header.Get("X-Test"); got != "yes" {
			t.Errorf("X-Test header = %q, want yes", got)
		}
		w.Header().Set("X-Reply", "ok")
		_, _ = io.WriteString(w, "hello")
	}))
	defer srv.Close()

	h := NewHTTPTool(WithHTTPClient(srv.Client()))
	out, err := h.Call(context.Background(), map[string]any{
		"url":     srv.URL,
		"headers": map[string]any{"X-Test": "yes"},
	})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if out["status_code"] != http.StatusOK {
		t.Errorf("status_code = %v, want 200", out["status_code"])
	}
	if out["response_body"] != "hello" {
		t.Errorf("response_body = %v, want hello", out["response_body"])
	}
	headers := out["response_headers"].(map[string]any)
	if headers["X-Reply"] != "ok" {
		t.Errorf("X-Reply = %v, want ok", headers["X-Reply"])
	}
}

func TestHTTPTool_PostPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["name"] != "graphflow" {
			t.Errorf("payload name = %v", body["name"])
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	h := NewHTTPTool(WithHTTPClient(srv.Client()))
	out, err := h.Call(context.Background(), map[string]any{
		"url":     srv.URL,
		"method":  "post",
		"payload": map[string]any{"name": "graphflow"},
	})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if out["status_code"] != http.StatusCreated {
		t.Errorf("status_code = %v, want 201", out["status_code"])
	}
}

func TestHTTPTool_Errors(t *testing.T) {
	h := NewHTTPTool()
	tests := []struct {
		name    string
		state   map[string]any
		wantErr string
	}{
		{name: "missing url", state: map[string]any{}, wantErr: "url is required"},
		{name: "bad method", state: map[string]any{"url": "http://x", "method": "DELETE"}, wantErr: "unsupported HTTP method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Call(context.Background(), tt.state)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestHTTPTool_BodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, strings.Repeat("x", 100))
	}))
	defer srv.Close()

	h := NewHTTPTool(WithHTTPClient(srv.Client()), WithMaxBodyBytes(10))
	out, err := h.Call(context.Background(), map[string]any{"url": srv.URL})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got := out["response_body"].(string); len(got) != 10 {
		t.Errorf("len(response_body) = %d, want 10", len(got))
	}
}
