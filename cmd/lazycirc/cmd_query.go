package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazycirc/internal/export"
	"github.com/rebeliceyang/lazycirc/internal/filter"
	"github.com/rebeliceyang/lazycirc/internal/models"
)

var (
	searchFormat string
	searchPages  int
)

// queryCmd prints the q parameter for an expression
var queryCmd = &cobra.Command{
	Use:   "query [expression]",
	Short: "Print the q parameter for a query expression",
	Long: `Parses a query expression and prints the JSON q parameter the
circulation manager's advanced search expects.

Example:
  lazycirc query 'genre = Horror and (author : King or title ~ "^It")'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printQueryParam(cmd.OutOrStdout(), strings.Join(args, " "))
	},
}

// searchCmd runs an expression and writes the results
var searchCmd = &cobra.Command{
	Use:   "search [expression]",
	Short: "Run a query expression and print the results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := filter.ParseExpression(strings.Join(args, " "), filter.NewIDGenerator())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		svc, err := openServices(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		var entries []models.Entry
		after := 0
		for page := 0; page < max(searchPages, 1); page++ {
			reqCtx, cancel := context.WithTimeout(ctx, cfg.Server.Timeout())
			res, err := svc.Search.Run(reqCtx, tree, after)
			cancel()
			if err != nil {
				return err
			}
			entries = append(entries, res.Entries...)
			if !res.HasMore {
				break
			}
			after = res.Next
		}

		logger.Debug("search finished", zap.Int("entries", len(entries)))
		return export.WriteEntries(cmd.OutOrStdout(), searchFormat, entries)
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchFormat, "format", "f", export.FormatCSV, "Output format: csv or json")
	searchCmd.Flags().IntVarP(&searchPages, "pages", "p", 1, "Number of result pages to fetch")
}

func printQueryParam(w io.Writer, expression string) error {
	tree, err := filter.ParseExpression(expression, filter.NewIDGenerator())
	if err != nil {
		return err
	}
	param, err := filter.QueryParam(tree)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, param)
	return err
}
