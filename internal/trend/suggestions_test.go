package trend

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestSplitSuggestions(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "concatenated markers",
			in:   []string{"1. Post more. 2. Use reels."},
			want: []string{"Post more.", "Use reels."},
		},
		{
			name: "one marker per entry",
			in:   []string{"1. Post at 6pm", "2. Reply to comments"},
			want: []string{"Post at 6pm", "Reply to comments"},
		},
		{
			name: "no marker",
			in:   []string{"  Keep captions short  "},
			want: []string{"Keep captions short"},
		},
		{
			name: "text before first marker is kept",
			in:   []string{"Tips: 1. Film vertically 2. Add captions"},
			want: []string{"Tips:", "Film vertically", "Add captions"},
		},
		{
			name: "decimal numbers are not markers",
			in:   []string{"Aim for 1.5x more reach"},
			want: []string{"Aim for 1.5x more reach"},
		},
		{
			name: "empty entries dropped",
			in:   []string{"", "   ", "1. ", "3. Collaborate"},
			want: []string{"Collaborate"},
		},
		{
			name: "line breaks and bullets",
			in:   []string{"• Use trending audio\n- Post daily\r\n* Tag locations"},
			want: []string{"Use trending audio", "Post daily", "Tag locations"},
		},
		{
			name: "multi digit markers",
			in:   []string{"10. Ten 11. Eleven"},
			want: []string{"Ten", "Eleven"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSuggestions(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitSuggestions(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitSuggestionsNMarkersYieldNEntries(t *testing.T) {
	for n := 1; n <= 12; n++ {
		var b strings.Builder
		for k := 1; k <= n; k++ {
			fmt.Fprintf(&b, "%d. Try idea %c. ", k, 'A'+k-1)
		}

		got := SplitSuggestions([]string{b.String()})

		if len(got) != n {
			t.Fatalf("n=%d: got %d entries: %q", n, len(got), got)
		}
		for k, s := range got {
			want := fmt.Sprintf("Try idea %c.", 'A'+k)
			if s != want {
				t.Errorf("n=%d: entry %d = %q, want %q", n, k, s, want)
			}
		}
	}
}

func TestSplitSuggestionsNeverNil(t *testing.T) {
	if got := SplitSuggestions(nil); got == nil {
		t.Error("SplitSuggestions(nil) returned nil, want empty slice")
	}
}

func TestNormalizeSuggestionsIgnoresNonStrings(t *testing.T) {
	got := Normalize([]byte(`{"suggestions":["1. Post more. 2. Use reels.", 42, null]}`))
	want := []string{"Post more.", "Use reels."}
	if !reflect.DeepEqual(got.Suggestions, want) {
		t.Errorf("Suggestions = %q, want %q", got.Suggestions, want)
	}
}
