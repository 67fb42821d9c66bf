package session

import (
	"errors"
	"fmt"

	"github.com/abelbrown/trendscope/internal/drilldown"
	"github.com/abelbrown/trendscope/internal/remote"
)

// Describe turns a pipeline error into the message shown to the user.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrEmptyPrompt):
		return "Describe your content or campaign first."
	case errors.Is(err, ErrPromptTooLong):
		return fmt.Sprintf("Keep the description under %d characters.", MaxPromptRunes)
	case errors.Is(err, ErrBusy):
		return "Still working on the previous request."
	}

	var re *remote.Error
	if !errors.As(err, &re) {
		return err.Error()
	}

	what := "analyze your content"
	if re.Op == drilldown.Op {
		what = "load posts for this hashtag"
	}
	switch re.Kind {
	case remote.KindServer:
		return fmt.Sprintf("Couldn't %s: the trend service answered HTTP %d. Try again.", what, re.Status)
	default:
		return fmt.Sprintf("Couldn't %s: the trend service is unreachable. Check the connection and try again.", what)
	}
}
