// Package drilldown fetches representative posts for one hashtag.
package drilldown

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/abelbrown/trendscope/internal/trend"
	"github.com/microcosm-cc/bluemonday"
	"github.com/tidwall/gjson"
)

// RecentlyLabel replaces a missing post timestamp.
const RecentlyLabel = "Recently"

// unknownUser replaces a missing username, matching the backend's own default.
const unknownUser = "unknown"

// Post is one representative post. ImageURL is already routed through the
// image proxy; SourceImageURL keeps the original for reference.
type Post struct {
	ID             string
	Username       string
	AvatarURL      string
	ImageURL       string
	SourceImageURL string
	Caption        string
	Likes          int
	Comments       int
	Timestamp      string
	Permalink      string
}

// Media holds the URL templates used to complete a post.
type Media struct {
	// ProxyBase is the base URL of the image proxy; images become
	// {ProxyBase}/proxy-image?url={escaped original}.
	ProxyBase string
	// AvatarTemplate contains "{username}", replaced by the escaped username.
	AvatarTemplate string
	// FallbackImage is used when a post carries no image.
	FallbackImage string
	// UnavailableImage is shown when a proxied image fails to load.
	UnavailableImage string
}

// ProxyURL routes rawURL through the image proxy.
func (m Media) ProxyURL(rawURL string) string {
	return strings.TrimRight(m.ProxyBase, "/") + "/proxy-image?url=" + url.QueryEscape(rawURL)
}

// AvatarURL builds the placeholder avatar for username. Deterministic.
func (m Media) AvatarURL(username string) string {
	return strings.ReplaceAll(m.AvatarTemplate, "{username}", url.QueryEscape(username))
}

// DisplayImage returns the image to render for p, substituting the
// unavailable placeholder when the proxied image failed to load.
func (m Media) DisplayImage(p Post, loadFailed bool) string {
	if loadFailed {
		return m.UnavailableImage
	}
	return p.ImageURL
}

var captionPolicy = bluemonday.StrictPolicy()

// parsePosts maps the "posts" array of a /hashtag body. A missing or
// non-array value is an empty (successful) result. IDs are unique within
// the result: a repeated ID gets its position appended.
func parsePosts(body []byte, media Media) []Post {
	posts := []Post{}
	if !gjson.ValidBytes(body) {
		return posts
	}
	arr := gjson.GetBytes(body, "posts")
	if !arr.IsArray() {
		return posts
	}
	seen := map[string]bool{}
	arr.ForEach(func(_, raw gjson.Result) bool {
		if !raw.IsObject() {
			return true
		}
		p := mapPost(raw, len(posts), media)
		if seen[p.ID] {
			p.ID = fmt.Sprintf("%s#%d", p.ID, len(posts))
		}
		seen[p.ID] = true
		posts = append(posts, p)
		return true
	})
	return posts
}

func mapPost(raw gjson.Result, index int, media Media) Post {
	p := Post{
		Username:  firstString(raw, "username", "ownerUsername", "author"),
		AvatarURL: firstString(raw, "avatarUrl"),
		Caption:   cleanCaption(firstString(raw, "caption", "description", "text")),
		Likes:     trend.Count(raw.Get("likes")),
		Comments:  trend.Count(raw.Get("comments")),
		Timestamp: firstString(raw, "timestamp"),
		Permalink: firstString(raw, "permalink", "url"),
	}
	if p.Username == "" {
		p.Username = unknownUser
	}
	if p.AvatarURL == "" {
		p.AvatarURL = media.AvatarURL(p.Username)
	}
	if p.Timestamp == "" {
		p.Timestamp = RecentlyLabel
	}

	p.SourceImageURL = firstString(raw, "imageUrl")
	if p.SourceImageURL == "" {
		p.SourceImageURL = media.FallbackImage
	}
	p.ImageURL = media.ProxyURL(p.SourceImageURL)

	switch id := raw.Get("id"); {
	case id.Type == gjson.String && id.String() != "":
		p.ID = id.String()
	case id.Type == gjson.Number:
		p.ID = id.Raw
	case p.Permalink != "":
		p.ID = p.Permalink
	default:
		p.ID = fmt.Sprintf("%s-%d", p.Username, index)
	}
	return p
}

// cleanCaption strips markup. StrictPolicy escapes entities, which a
// terminal would print literally, so they are decoded again.
func cleanCaption(s string) string {
	return strings.TrimSpace(html.UnescapeString(captionPolicy.Sanitize(s)))
}

// firstString returns the first non-blank string field among keys.
func firstString(raw gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := raw.Get(k); v.Type == gjson.String {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}
