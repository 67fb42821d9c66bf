package drilldown

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/trendscope/internal/remote"
)

var testMedia = Media{
	ProxyBase:        "http://proxy.test",
	AvatarTemplate:   "https://avatars.test/api/?name={username}",
	FallbackImage:    "https://static.test/fallback.png",
	UnavailableImage: "https://static.test/unavailable.png",
}

func TestFetchPostsStripsHashAndMapsDefaults(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"posts":[
			{"username":"ana","avatarUrl":"https://cdn.test/ana.jpg","caption":"Leg day <b>done</b> &amp; dusted","imageUrl":"https://cdn.test/p1.jpg?x=1&y=2","likes":1200,"comments":33,"timestamp":"2025-05-01T10:00:00Z","url":"https://insta.test/p/1"},
			{"username":"bo","likes":-5}
		]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, testMedia, 5*time.Second, 0)
	posts, err := c.FetchPosts(context.Background(), "#fitness")
	if err != nil {
		t.Fatalf("FetchPosts() error = %v", err)
	}
	if gotPath != "/hashtag/fitness" {
		t.Errorf("path = %q, want /hashtag/fitness", gotPath)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}

	p := posts[0]
	if p.Caption != "Leg day done & dusted" {
		t.Errorf("Caption = %q", p.Caption)
	}
	wantImage := "http://proxy.test/proxy-image?url=" + url.QueryEscape("https://cdn.test/p1.jpg?x=1&y=2")
	if p.ImageURL != wantImage {
		t.Errorf("ImageURL = %q, want %q", p.ImageURL, wantImage)
	}
	if p.SourceImageURL != "https://cdn.test/p1.jpg?x=1&y=2" {
		t.Errorf("SourceImageURL = %q", p.SourceImageURL)
	}
	if p.Permalink != "https://insta.test/p/1" || p.ID != "https://insta.test/p/1" {
		t.Errorf("Permalink/ID = %q/%q", p.Permalink, p.ID)
	}
	if p.Likes != 1200 || p.Comments != 33 {
		t.Errorf("Likes/Comments = %d/%d", p.Likes, p.Comments)
	}

	d := posts[1]
	if d.AvatarURL != "https://avatars.test/api/?name=bo" {
		t.Errorf("AvatarURL = %q", d.AvatarURL)
	}
	if d.ImageURL != testMedia.ProxyURL(testMedia.FallbackImage) {
		t.Errorf("ImageURL = %q, want proxied fallback", d.ImageURL)
	}
	if d.Timestamp != RecentlyLabel {
		t.Errorf("Timestamp = %q, want %q", d.Timestamp, RecentlyLabel)
	}
	if d.Likes != 0 {
		t.Errorf("Likes = %d, want 0 for negative input", d.Likes)
	}
	if d.ID != "bo-1" {
		t.Errorf("ID = %q, want bo-1", d.ID)
	}
}

func TestFetchPostsEmptyIsSuccess(t *testing.T) {
	for _, body := range []string{`{"posts":[]}`, `{}`, `{"posts":null}`} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		c := NewClient(server.URL, testMedia, 5*time.Second, 0)
		posts, err := c.FetchPosts(context.Background(), "quiet")
		server.Close()

		if err != nil {
			t.Errorf("body %s: unexpected error %v", body, err)
		}
		if posts == nil || len(posts) != 0 {
			t.Errorf("body %s: posts = %v, want empty non-nil", body, posts)
		}
	}
}

func TestFetchPostsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to fetch posts"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, testMedia, 5*time.Second, 0)
	_, err := c.FetchPosts(context.Background(), "#food")

	status, ok := remote.IsServer(err)
	if !ok || status != 500 {
		t.Errorf("expected server error 500, got %v", err)
	}
}

func TestFetchPostsEmptyTag(t *testing.T) {
	c := NewClient("http://unused.invalid", testMedia, time.Second, 0)
	if _, err := c.FetchPosts(context.Background(), "##"); err == nil {
		t.Error("expected error for empty tag")
	}
}

func TestFetchPostsEscapesPath(t *testing.T) {
	var gotRaw string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRaw = r.URL.EscapedPath()
		w.Write([]byte(`{"posts":[]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, testMedia, 5*time.Second, 0)
	if _, err := c.FetchPosts(context.Background(), "#a/b"); err != nil {
		t.Fatalf("FetchPosts() error = %v", err)
	}
	if gotRaw != "/hashtag/a%2Fb" {
		t.Errorf("escaped path = %q", gotRaw)
	}
}

func TestProxyBaseDefaultsToBackend(t *testing.T) {
	c := NewClient("http://backend.test:5000/", Media{}, time.Second, 0)
	got := c.Media().ProxyURL("https://x.test/a.jpg")
	if !strings.HasPrefix(got, "http://backend.test:5000/proxy-image?url=") {
		t.Errorf("ProxyURL = %q", got)
	}
}

func TestAvatarURLDeterministic(t *testing.T) {
	a := testMedia.AvatarURL("jo smith")
	b := testMedia.AvatarURL("jo smith")
	if a != b {
		t.Errorf("AvatarURL not deterministic: %q vs %q", a, b)
	}
	if a != "https://avatars.test/api/?name=jo+smith" {
		t.Errorf("AvatarURL = %q", a)
	}
}

func TestDisplayImage(t *testing.T) {
	p := Post{ImageURL: "http://proxy.test/proxy-image?url=x"}
	if got := testMedia.DisplayImage(p, false); got != p.ImageURL {
		t.Errorf("DisplayImage(ok) = %q", got)
	}
	if got := testMedia.DisplayImage(p, true); got != testMedia.UnavailableImage {
		t.Errorf("DisplayImage(failed) = %q", got)
	}
}

func TestProbeImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("url") {
		case "good":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("jpeg"))
		case "html":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, Media{}, 5*time.Second, 0)
	m := c.Media()

	if err := c.ProbeImage(context.Background(), m.ProxyURL("good")); err != nil {
		t.Errorf("ProbeImage(good) error = %v", err)
	}
	if err := c.ProbeImage(context.Background(), m.ProxyURL("html")); err == nil {
		t.Error("ProbeImage(html) should fail")
	}
	if err := c.ProbeImage(context.Background(), m.ProxyURL("missing")); err == nil {
		t.Error("ProbeImage(missing) should fail")
	}
}

func TestParsePostsLargeCounts(t *testing.T) {
	posts := parsePosts([]byte(`{"posts":[
		{"username":"ana","likes":3000000000,"comments":1e30}
	]}`), testMedia)
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	if posts[0].Likes != 3000000000 {
		t.Errorf("Likes = %d, want 3000000000", posts[0].Likes)
	}
	if posts[0].Comments != math.MaxInt {
		t.Errorf("Comments = %d, want math.MaxInt", posts[0].Comments)
	}
}

func TestParsePostsIDsUniquePerFetch(t *testing.T) {
	posts := parsePosts([]byte(`{"posts":[
		{"username":"ana","url":"https://insta.test/p/1"},
		{"username":"bo","url":"https://insta.test/p/1"},
		{"username":"cy","id":"p9"},
		{"username":"di","id":"p9"}
	]}`), testMedia)
	if len(posts) != 4 {
		t.Fatalf("expected 4 posts, got %d", len(posts))
	}
	seen := map[string]bool{}
	for _, p := range posts {
		if seen[p.ID] {
			t.Errorf("duplicate ID %q", p.ID)
		}
		seen[p.ID] = true
	}
	if posts[0].ID != "https://insta.test/p/1" || posts[2].ID != "p9" {
		t.Errorf("first occurrences should keep their ID, got %q and %q", posts[0].ID, posts[2].ID)
	}
}

func TestImageChecksDoNotDelayFetchPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/proxy-image") {
			w.Header().Set("Content-Type", "image/png")
			return
		}
		w.Write([]byte(`{"posts":[]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, Media{}, 5*time.Second, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := range 6 {
		go c.ProbeImage(ctx, c.Media().ProxyURL(fmt.Sprintf("img-%d", i)))
	}
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	if _, err := c.FetchPosts(context.Background(), "fitness"); err != nil {
		t.Fatalf("FetchPosts() error = %v", err)
	}
	if waited := time.Since(start); waited > time.Second {
		t.Errorf("FetchPosts waited %v behind image checks", waited)
	}
}

func TestCancelledImageCheckSkipsLimiter(t *testing.T) {
	c := NewClient("http://unused.invalid", Media{}, 5*time.Second, 0.001)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := c.ProbeImage(ctx, "http://unused.invalid/b")
	if !remote.IsNetwork(err) {
		t.Errorf("ProbeImage() error = %v, want network error", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled image check should not wait for the limiter")
	}
}
