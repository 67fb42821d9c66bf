package fixture

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// trendStat is one hashtag's numbers as the backend reports them.
type trendStat struct {
	Tag    string
	Score  float64
	Volume int
}

// topics maps a keyword to the hashtags the demo backend reports for it,
// already in ranked order.
var topics = map[string][]trendStat{
	"fitness": {
		{"fitness", 8.7, 1520}, {"workout", 6.2, 910}, {"fitfam", 4.1, 388}, {"homegym", 1.6, 72},
	},
	"gym": {
		{"gymlife", 7.4, 1204}, {"legday", 5.3, 530}, {"gains", 2.2, 141},
	},
	"food": {
		{"food", 9.1, 2301}, {"foodie", 7.9, 1877}, {"instafood", 5.0, 640}, {"homecooking", 2.4, 133},
	},
	"vegan": {
		{"vegan", 8.2, 1450}, {"plantbased", 6.6, 802}, {"veganrecipes", 3.3, 210},
	},
	"travel": {
		{"travel", 9.4, 3120}, {"wanderlust", 6.8, 1003}, {"travelgram", 5.5, 770}, {"backpacking", 1.9, 95},
	},
	"coffee": {
		{"coffee", 7.1, 1180}, {"latteart", 4.8, 402}, {"coffeetime", 3.0, 260},
	},
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "about": true, "my": true,
	"our": true, "your": true, "this": true, "that": true, "content": true, "posts": true,
	"videos": true, "photos": true, "page": true, "account": true, "new": true,
}

// maxKeywords mirrors the backend's keyword extraction limit.
const maxKeywords = 3

// maxTrends is how many hashtags an analysis reports.
const maxTrends = 5

// extractKeywords picks up to maxKeywords distinct lower-case words,
// preferring ones the dataset knows about.
func extractKeywords(prompt string) []string {
	words := strings.FieldsFunc(strings.ToLower(prompt), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})

	var known, other []string
	seen := map[string]bool{}
	for _, w := range words {
		if len(w) < 3 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		if _, ok := topics[w]; ok {
			known = append(known, w)
		} else {
			other = append(other, w)
		}
	}
	kw := append(known, other...)
	if len(kw) > maxKeywords {
		kw = kw[:maxKeywords]
	}
	return kw
}

// trendsFor merges the topic lists of keywords, keeping first-seen order
// and dropping duplicates.
func trendsFor(keywords []string) []trendStat {
	var out []trendStat
	seen := map[string]bool{}
	for _, kw := range keywords {
		for _, t := range topics[kw] {
			if seen[t.Tag] {
				continue
			}
			seen[t.Tag] = true
			out = append(out, t)
			if len(out) == maxTrends {
				return out
			}
		}
	}
	return out
}

// suggestionsFor returns tips in the loose shapes a language model produces:
// bulleted lines and a numbered run on one line.
func suggestionsFor(prompt string, trends []trendStat) []string {
	if len(trends) == 0 {
		return []string{}
	}
	lead := "#" + trends[0].Tag
	return []string{
		fmt.Sprintf("• Open with a hook that ties %q to %s.", strings.TrimSpace(prompt), lead),
		fmt.Sprintf("1. Post when %s peaks, early evening works. 2. Use reels for reach. 3. Reply to comments in the first hour.", lead),
	}
}

// rawPost is a scraped post before the backend formats it.
type rawPost struct {
	OwnerUsername string
	ProfilePicURL string
	Description   string
	DisplayURL    string
	Likes         int
	Comments      int
	Timestamp     string
	URL           string
}

// postsPerTag is how many raw posts the dataset holds per hashtag; the
// endpoint returns only the top maxPosts.
const postsPerTag = 9

// maxPosts is the backend's drilldown limit.
const maxPosts = 6

var handles = []string{"ana.moves", "coach_ben", "lia", "mateo.eats", "nomad_kai", "ruby_r", "sam", "tessa.daily", "yuki_k"}

// postsFor deterministically generates raw posts for tag. Tags the
// dataset does not know return nil.
func postsFor(tag string) []rawPost {
	if !knownTag(tag) {
		return nil
	}
	posts := make([]rawPost, postsPerTag)
	for i := range posts {
		h := fnv.New32a()
		fmt.Fprintf(h, "%s/%d", tag, i)
		sum := h.Sum32()

		user := handles[(int(sum)+i)%len(handles)]
		p := rawPost{
			OwnerUsername: user,
			Description:   fmt.Sprintf("<p>Day %d of #%s &amp; loving it</p>", i+1, tag),
			DisplayURL:    fmt.Sprintf("https://cdn.example.com/%s/%d.jpg", tag, i),
			Likes:         int(sum % 5000),
			Comments:      int(sum>>16) % 300,
			Timestamp:     fmt.Sprintf("2024-05-%02dT12:00:00.000Z", 1+i),
			URL:           fmt.Sprintf("https://www.instagram.com/p/%s%d/", tag, i),
		}
		// Some posts come back without an image or owner, like the scraper's.
		switch i % 4 {
		case 1:
			p.DisplayURL = ""
		case 2:
			p.ProfilePicURL = fmt.Sprintf("https://cdn.example.com/avatars/%s.jpg", user)
		case 3:
			p.DisplayURL = "https://cdn.example.com/broken/" + tag
		}
		if i == postsPerTag-1 {
			p.OwnerUsername = ""
			p.Timestamp = ""
		}
		posts[i] = p
	}
	return posts
}

func knownTag(tag string) bool {
	for _, list := range topics {
		for _, t := range list {
			if t.Tag == tag {
				return true
			}
		}
	}
	return false
}
