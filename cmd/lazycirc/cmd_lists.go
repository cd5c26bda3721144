package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazycirc/internal/export"
	"github.com/rebeliceyang/lazycirc/internal/filter"
)

var (
	listsExportFormat string
	listsExportOutput string
	listsSaveDesc     string
	listsSaveTags     []string
)

var listsCmd = &cobra.Command{
	Use:   "lists [search]",
	Short: "Show saved custom lists",
	Long: `Shows saved custom lists. The optional search accepts plain words,
t:tag, lib:library and a leading ! to exclude matches.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openLists()
		if err != nil {
			return err
		}
		all := mgr.GetAll()
		if len(args) > 0 {
			all = mgr.Search(strings.Join(args, " "))
		}
		return export.WriteLists(cmd.OutOrStdout(), export.FormatCSV, all)
	},
}

var listsSaveCmd = &cobra.Command{
	Use:   "save [name] [expression]",
	Short: "Save a query expression as a custom list",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openLists()
		if err != nil {
			return err
		}
		tree, err := filter.ParseExpression(strings.Join(args[1:], " "), filter.NewIDGenerator())
		if err != nil {
			return err
		}
		l, err := mgr.Add(args[0], listsSaveDesc, cfg.Server.Library, tree, listsSaveTags)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", l.Name, l.ID)
		return nil
	},
}

var listsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved custom lists to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openLists()
		if err != nil {
			return err
		}
		path, err := mgr.Export(listsExportFormat, listsExportOutput)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d lists to %s\n", len(mgr.GetAll()), path)
		return nil
	},
}

func init() {
	listsSaveCmd.Flags().StringVarP(&listsSaveDesc, "description", "d", "", "List description")
	listsSaveCmd.Flags().StringSliceVarP(&listsSaveTags, "tag", "t", nil, "Tags, repeatable or comma separated")

	listsExportCmd.Flags().StringVarP(&listsExportFormat, "format", "f", export.FormatJSON, "Export format: csv or json")
	listsExportCmd.Flags().StringVarP(&listsExportOutput, "output", "o", "", "Output file (default: lists.<format> in the config directory)")

	listsCmd.AddCommand(listsSaveCmd, listsExportCmd)
}
