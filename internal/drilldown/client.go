package drilldown

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abelbrown/trendscope/internal/remote"
)

// Op names the drilldown pipeline in errors.
const Op = "drilldown"

// ImageOp names image probes in errors. Probe failures are per image and
// never become pipeline errors.
const ImageOp = "image"

// Client fetches posts for one hashtag.
type Client struct {
	caller *remote.Caller // post lists
	images *remote.Caller // image probes, limited separately
	media  Media
}

// NewClient creates a Client against the backend at baseURL. Post fetches and
// image probes each get their own Caller, so a batch of probes never delays
// the next post fetch. An empty ProxyBase defaults to baseURL (the backend
// serves /proxy-image itself).
func NewClient(baseURL string, media Media, timeout time.Duration, rps float64) *Client {
	c := &Client{
		caller: remote.NewCaller(baseURL, timeout, rps),
		images: remote.NewCaller(baseURL, timeout, rps),
		media:  media,
	}
	if c.media.ProxyBase == "" {
		c.media.ProxyBase = c.caller.BaseURL()
	}
	return c
}

// Media returns the URL templates in use.
func (c *Client) Media() Media {
	return c.media
}

// FetchPosts loads posts for tag. Leading "#" characters are stripped before
// building the path. An empty list is a success, not an error.
func (c *Client) FetchPosts(ctx context.Context, tag string) ([]Post, error) {
	clean := strings.TrimLeft(strings.TrimSpace(tag), "#")
	if clean == "" {
		return nil, fmt.Errorf("%s: empty tag", Op)
	}

	body, err := c.caller.Do(ctx, Op, http.MethodGet, "/hashtag/"+url.PathEscape(clean), nil)
	if err != nil {
		return nil, err
	}
	return parsePosts(body, c.media), nil
}

// ProbeImage checks that a proxied image loads. It returns an error when the
// proxy is unreachable, answers non-2xx, or serves something that is not an image.
func (c *Client) ProbeImage(ctx context.Context, imageURL string) error {
	h, err := c.images.Get(ctx, ImageOp, imageURL)
	if err != nil {
		return err
	}
	if ct := h.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("%s: unexpected content type %q", ImageOp, ct)
	}
	return nil
}
