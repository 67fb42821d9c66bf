package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDoReturnsBodyOn2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "trendscope/") {
			t.Errorf("unexpected user agent: %q", r.Header.Get("User-Agent"))
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := NewCaller(server.URL+"/", time.Second, 0)
	body, err := c.Do(context.Background(), "test", http.MethodGet, "/thing", nil)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("body = %s", body)
	}
}

func TestBaseURLTrimsTrailingSlash(t *testing.T) {
	c := NewCaller("http://localhost:5000///", 0, 0)
	if c.BaseURL() != "http://localhost:5000" {
		t.Errorf("BaseURL() = %q", c.BaseURL())
	}
}

func TestDoServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewCaller(server.URL, time.Second, 0)
	_, err := c.Do(context.Background(), "drilldown", http.MethodGet, "/x", nil)

	var re *Error
	if !errors.As(err, &re) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if re.Kind != KindServer || re.Status != 500 || re.Op != "drilldown" {
		t.Errorf("unexpected error: %+v", re)
	}
	if !strings.Contains(re.Error(), "status 500") {
		t.Errorf("Error() = %q, want status in message", re.Error())
	}
	if IsNetwork(err) {
		t.Error("server error reported as network error")
	}
}

func TestDoCancelledContextIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCaller(server.URL, time.Second, 0)
	_, err := c.Do(ctx, "analyze", http.MethodGet, "/", nil)
	if !IsNetwork(err) {
		t.Errorf("expected network error, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected error to wrap context.Canceled, got %v", err)
	}
}

func TestGetReturnsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer server.Close()

	c := NewCaller("http://unused.invalid", time.Second, 0)
	h, err := c.Get(context.Background(), "image", server.URL+"/img")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if h.Get("Content-Type") != "image/png" {
		t.Errorf("Content-Type = %q", h.Get("Content-Type"))
	}
}

func TestKindString(t *testing.T) {
	if KindNetwork.String() != "network" || KindServer.String() != "server" {
		t.Errorf("unexpected kind strings: %s %s", KindNetwork, KindServer)
	}
}
