package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/abelbrown/trendscope/internal/config"
	"github.com/abelbrown/trendscope/internal/otel"
)

// dirFlag registers -dir on fs.
func dirFlag(fs *flag.FlagSet) *string {
	return fs.String("dir", config.DefaultDataDir(), "Data directory")
}

func eventLogPath(dir string) string {
	return filepath.Join(dir, otel.EventsFile)
}

func historyPath(dir string) string {
	return filepath.Join(dir, "history.db")
}

// exists reports whether path is present, so missing files get a friendly error
// instead of an empty database being created.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// truncate shortens s to max runes, appending "..." when cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
