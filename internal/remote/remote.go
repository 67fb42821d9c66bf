// Package remote is the HTTP plumbing shared by the trend and drilldown clients.
//
// A Caller sends exactly one request per call. It never retries: recovery is
// always an explicit user action. Failures come back as *Error so callers can
// tell "no response at all" (KindNetwork) from "the server said no" (KindServer).
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 << 20

// userAgent identifies the client to the backend.
const userAgent = "trendscope/0.3 (+https://github.com/abelbrown/trendscope)"

// Kind classifies a failed call.
type Kind int

const (
	// KindNetwork means no response reached the client.
	KindNetwork Kind = iota
	// KindServer means the server answered with a non-2xx status.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is the failure type returned by Caller. Op names the pipeline
// ("analyze", "drilldown", "image") so messages stay scoped.
type Error struct {
	Op      string
	Kind    Kind
	Status  int    // set for KindServer
	Message string // transport detail for KindNetwork, body excerpt for KindServer
	Err     error  // underlying transport error, if any
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		if e.Message != "" {
			return fmt.Sprintf("%s: server returned status %d: %s", e.Op, e.Status, e.Message)
		}
		return fmt.Sprintf("%s: server returned status %d", e.Op, e.Status)
	default:
		return fmt.Sprintf("%s: network error: %s", e.Op, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsServer reports whether err is a *Error of KindServer, returning the status.
func IsServer(err error) (int, bool) {
	var re *Error
	if errors.As(err, &re) && re.Kind == KindServer {
		return re.Status, true
	}
	return 0, false
}

// IsNetwork reports whether err is a *Error of KindNetwork.
func IsNetwork(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Kind == KindNetwork
}

// Caller issues JSON requests against one base URL.
type Caller struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewCaller creates a Caller. A zero timeout means 30s; rps <= 0 disables limiting.
func NewCaller(baseURL string, timeout time.Duration, rps float64) *Caller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Caller{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// BaseURL returns the normalized base URL (no trailing slash).
func (c *Caller) BaseURL() string {
	return c.baseURL
}

// Do sends method+path with an optional JSON body and returns the response body
// of a 2xx answer. It sends exactly one request.
func (c *Caller) Do(ctx context.Context, op, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.send(ctx, op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Op: op, Kind: KindNetwork, Message: "read response: " + err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Op: op, Kind: KindServer, Status: resp.StatusCode, Message: excerpt(data)}
	}
	return data, nil
}

// Get fetches an absolute URL and returns the response headers of a 2xx answer.
// The body is drained and discarded.
func (c *Caller) Get(ctx context.Context, op, rawURL string) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	resp, err := c.send(ctx, op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Op: op, Kind: KindServer, Status: resp.StatusCode}
	}
	return resp.Header, nil
}

func (c *Caller) send(ctx context.Context, op string, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Op: op, Kind: KindNetwork, Message: "rate limiter: " + err.Error(), Err: err}
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &Error{Op: op, Kind: KindNetwork, Message: "request cancelled", Err: ctx.Err()}
		}
		return nil, &Error{Op: op, Kind: KindNetwork, Message: err.Error(), Err: err}
	}
	return resp, nil
}

// excerpt trims a response body for inclusion in an error message.
func excerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	r := []rune(s)
	if len(r) > 120 {
		return string(r[:117]) + "..."
	}
	return s
}
