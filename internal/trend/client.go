package trend

import (
	"context"
	"net/http"
	"time"

	"github.com/abelbrown/trendscope/internal/remote"
)

// Op is the operation name carried by errors from this client.
const Op = "analyze"

// Client runs the primary analysis request.
type Client struct {
	caller *remote.Caller
}

type analyzeRequest struct {
	Prompt string `json:"prompt"`
}

// NewClient creates a Client for the backend at baseURL. The Client owns its
// rate limiter, so other pipelines never queue behind analysis requests.
func NewClient(baseURL string, timeout time.Duration, rps float64) *Client {
	return &Client{caller: remote.NewCaller(baseURL, timeout, rps)}
}

// Analyze posts the prompt and normalizes the answer. One request per call,
// no retries. The prompt is sent as given; validation happens before dispatch.
func (c *Client) Analyze(ctx context.Context, prompt string) (Analysis, error) {
	body, err := c.caller.Do(ctx, Op, http.MethodPost, "/analyze", analyzeRequest{Prompt: prompt})
	if err != nil {
		return Analysis{}, err
	}
	return Normalize(body), nil
}
