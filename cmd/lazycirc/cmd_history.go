package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazycirc/internal/history"
)

var (
	historySearch string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cfg)
		if err != nil {
			return err
		}
		if store == nil {
			return fmt.Errorf("search history is disabled")
		}
		defer func() { _ = store.Close() }()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		var entries []history.Entry
		if historySearch != "" {
			entries, err = store.Search(ctx, historySearch, historyLimit)
		} else {
			entries, err = store.GetRecent(ctx, historyLimit)
		}
		if err != nil {
			return err
		}
		return printHistory(cmd.OutOrStdout(), entries)
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historySearch, "search", "s", "", "Only show searches containing this text")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of searches to show")
}

func printHistory(w io.Writer, entries []history.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tLIBRARY\tBACKEND\tRESULTS\tDURATION\tQUERY")
	for _, e := range entries {
		results := fmt.Sprint(e.ResultCount)
		if !e.Success {
			results = "error"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ExecutedAt.Format("2006-01-02 15:04"),
			e.Library,
			e.Backend,
			results,
			e.Duration.Round(time.Millisecond),
			e.Expression,
		)
	}
	return tw.Flush()
}
