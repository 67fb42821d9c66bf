// Package fixture is a self-contained stand-in for the analysis backend.
// It serves the same three endpoints with deterministic data so the client
// can be demoed and tested without scraping or language models.
package fixture

import (
	"bytes"
	"encoding/json"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router returns the backend's HTTP handler. logger may be nil.
func Router(logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if logger != nil {
		r.Use(requestLogger(logger))
	}

	r.Post("/analyze", handleAnalyze)
	r.Get("/hashtag/{tag}", handleHashtag)
	r.Get("/proxy-image", handleProxyImage)
	return r
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", r.Header.Get("X-Request-ID"),
				"dur", time.Since(start))
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// orderedTrends encodes as a JSON object whose keys keep slice order.
type orderedTrends []trendStat

func (o orderedTrends) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(t.Tag)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(`:{"score":`)
		buf.WriteString(strconv.FormatFloat(t.Score, 'f', -1, 64))
		buf.WriteString(`,"volume":`)
		buf.WriteString(strconv.Itoa(t.Volume))
		buf.WriteString(`,"velocity":null,"window_start":null}`)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type analyzeResponse struct {
	Keywords    []string      `json:"keywords"`
	Trends      orderedTrends `json:"trends"`
	Suggestions []string      `json:"suggestions"`
}

func handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "Missing prompt")
		return
	}

	keywords := extractKeywords(req.Prompt)
	if len(keywords) == 0 {
		writeError(w, http.StatusInternalServerError, "No keywords extracted")
		return
	}

	trends := trendsFor(keywords)
	if len(trends) == 0 {
		writeError(w, http.StatusNotFound, "No posts found")
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Keywords:    keywords,
		Trends:      orderedTrends(trends),
		Suggestions: suggestionsFor(req.Prompt, trends),
	})
}

var unsafeTagChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// SanitizeTag drops everything outside [A-Za-z0-9_], as the backend does
// before looking a hashtag up.
func SanitizeTag(tag string) string {
	return unsafeTagChars.ReplaceAllString(tag, "")
}

type postJSON struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
	Caption   string `json:"caption"`
	ImageURL  string `json:"imageUrl"`
	Likes     int    `json:"likes"`
	Comments  int    `json:"comments"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
}

func handleHashtag(w http.ResponseWriter, r *http.Request) {
	tag := strings.ToLower(SanitizeTag(chi.URLParam(r, "tag")))
	posts := postsFor(tag)

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Likes+posts[i].Comments > posts[j].Likes+posts[j].Comments
	})
	if len(posts) > maxPosts {
		posts = posts[:maxPosts]
	}

	out := make([]postJSON, 0, len(posts))
	for _, p := range posts {
		out = append(out, postJSON{
			Username:  p.OwnerUsername,
			AvatarURL: p.ProfilePicURL,
			Caption:   p.Description,
			ImageURL:  p.DisplayURL,
			Likes:     p.Likes,
			Comments:  p.Comments,
			Timestamp: p.Timestamp,
			URL:       p.URL,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": out})
}

// handleProxyImage answers with a small solid PNG whose color is derived
// from the URL. URLs under /broken/ and empty URLs get 404, like an
// upstream that refused the request.
func handleProxyImage(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("url")
	if u == "" || strings.Contains(u, "/broken/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	h := fnv.New32a()
	h.Write([]byte(u))
	sum := h.Sum32()
	fill := color.RGBA{R: uint8(sum), G: uint8(sum >> 8), B: uint8(sum >> 16), A: 0xff}

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := range 8 {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}
