package main

import (
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/abelbrown/trendscope/internal/store"
	"github.com/dustin/go-humanize"
)

func runHistory(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	dir := dirFlag(fs)
	n := fs.Int("n", 20, "Number of prompts to list")
	prune := fs.Int("prune", -1, "Keep only the N most recent prompts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := historyPath(*dir)
	if !exists(path) {
		return fmt.Errorf("no history at %s", path)
	}
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	if *prune >= 0 {
		removed, err := st.Prune(*prune)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Removed %d prompts.\n", removed)
		return nil
	}

	entries, err := st.RecentPrompts(*n)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No prompts yet.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LAST USED\tUSES\tSTATUS\tTRENDS\tPROMPT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n",
			humanize.Time(e.LastUsed), e.Uses, e.Status, e.TrendCount, truncate(e.Prompt, 60))
	}
	return tw.Flush()
}
