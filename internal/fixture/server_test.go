package fixture

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/trendscope/internal/drilldown"
	"github.com/abelbrown/trendscope/internal/remote"
	"github.com/abelbrown/trendscope/internal/trend"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(Router(nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzeKeepsTrendOrder(t *testing.T) {
	srv := newServer(t)
	c := trend.NewClient(srv.URL, 5*time.Second, 0)

	got, err := c.Analyze(context.Background(), "Fitness and gym content for beginners")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(got.Keywords) == 0 || got.Keywords[0] != "fitness" || got.Keywords[1] != "gym" {
		t.Errorf("keywords = %v", got.Keywords)
	}
	wantTags := []string{"#fitness", "#workout", "#fitfam", "#homegym", "#gymlife"}
	if len(got.Trends) != len(wantTags) {
		t.Fatalf("trends = %+v", got.Trends)
	}
	for i, w := range wantTags {
		if got.Trends[i].Tag != w {
			t.Errorf("trend[%d] = %q, want %q", i, got.Trends[i].Tag, w)
		}
		if got.Trends[i].Velocity != nil {
			t.Errorf("trend[%d] velocity = %v, want nil", i, *got.Trends[i].Velocity)
		}
	}
	if got.Trends[0].Volume != 1520 || got.Trends[0].Score != 8.7 {
		t.Errorf("first trend = %+v", got.Trends[0])
	}
	// One bulleted line plus a three-item numbered run.
	if len(got.Suggestions) != 4 {
		t.Errorf("suggestions = %q", got.Suggestions)
	}
	for _, s := range got.Suggestions {
		if strings.HasPrefix(s, "•") || strings.HasPrefix(s, "1.") {
			t.Errorf("suggestion kept its marker: %q", s)
		}
	}
}

func TestAnalyzeErrors(t *testing.T) {
	srv := newServer(t)
	c := trend.NewClient(srv.URL, 5*time.Second, 0)

	tests := []struct {
		prompt string
		status int
	}{
		{"  ", http.StatusBadRequest},
		{"a b", http.StatusInternalServerError},
		{"knitting patterns", http.StatusNotFound},
	}
	for _, tt := range tests {
		_, err := c.Analyze(context.Background(), tt.prompt)
		status, ok := remote.IsServer(err)
		if !ok || status != tt.status {
			t.Errorf("Analyze(%q) error = %v, want status %d", tt.prompt, err, tt.status)
		}
	}
}

func TestHashtagTopSixByEngagement(t *testing.T) {
	srv := newServer(t)
	c := drilldown.NewClient(srv.URL, drilldown.Media{
		AvatarTemplate: "https://avatars.example/{username}",
		FallbackImage:  "https://example.com/none.png",
	}, 5*time.Second, 0)

	posts, err := c.FetchPosts(context.Background(), "#Fitness")
	if err != nil {
		t.Fatalf("FetchPosts() error = %v", err)
	}
	if len(posts) != maxPosts {
		t.Fatalf("got %d posts, want %d", len(posts), maxPosts)
	}
	for i := 1; i < len(posts); i++ {
		if posts[i-1].Likes+posts[i-1].Comments < posts[i].Likes+posts[i].Comments {
			t.Errorf("posts not sorted by engagement at %d", i)
		}
	}
	for _, p := range posts {
		if strings.Contains(p.Caption, "<p>") || strings.Contains(p.Caption, "&amp;") {
			t.Errorf("caption not cleaned: %q", p.Caption)
		}
		if !strings.HasPrefix(p.ImageURL, srv.URL+"/proxy-image?url=") {
			t.Errorf("image not proxied: %q", p.ImageURL)
		}
	}
}

func TestHashtagUnknownIsEmpty(t *testing.T) {
	srv := newServer(t)
	c := drilldown.NewClient(srv.URL, drilldown.Media{}, 5*time.Second, 0)

	posts, err := c.FetchPosts(context.Background(), "#nothing_here")
	if err != nil {
		t.Fatalf("FetchPosts() error = %v", err)
	}
	if posts == nil || len(posts) != 0 {
		t.Errorf("posts = %v, want empty non-nil", posts)
	}
}

func TestSanitizeTag(t *testing.T) {
	tests := map[string]string{
		"fitness":     "fitness",
		"fit-ness!":   "fitness",
		"café_2024":   "caf_2024",
		"../../etc":   "etc",
		"":            "",
	}
	for in, want := range tests {
		if got := SanitizeTag(in); got != want {
			t.Errorf("SanitizeTag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProxyImage(t *testing.T) {
	srv := newServer(t)
	c := drilldown.NewClient(srv.URL, drilldown.Media{}, 5*time.Second, 0)
	media := c.Media()
	ctx := context.Background()

	if err := c.ProbeImage(ctx, media.ProxyURL("https://cdn.example.com/a.jpg")); err != nil {
		t.Errorf("ProbeImage(good) error = %v", err)
	}
	if err := c.ProbeImage(ctx, media.ProxyURL("https://cdn.example.com/broken/x")); err == nil {
		t.Error("ProbeImage(broken) should fail")
	}

	resp, err := http.Get(srv.URL + "/proxy-image")
	if err != nil {
		t.Fatal(err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing url status = %d", resp.StatusCode)
	}
}

func TestOrderedTrendsJSON(t *testing.T) {
	b, err := orderedTrends{{"zeta", 1.5, 3}, {"alpha", 2, 1}}.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"zeta":{"score":1.5,"volume":3,"velocity":null,"window_start":null},"alpha":{"score":2,"volume":1,"velocity":null,"window_start":null}}`
	if string(b) != want {
		t.Errorf("got %s", b)
	}
}

func TestExtractKeywords(t *testing.T) {
	got := extractKeywords("My travel vlog about coffee and the best coffee shops")
	want := []string{"travel", "coffee", "vlog"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}
