package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/netpyoung/booknav/internal/navtree"
)

var (
	treeSummary string
	treeList    bool
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the navigation tree fragment",
	RunE: func(cmd *cobra.Command, args []string) error {
		var fragment string
		if treeSummary != "" {
			f, err := navtree.Load("", treeSummary)
			if err != nil {
				return err
			}
			fragment = f
		} else {
			_, f, err := loadConfig()
			if err != nil {
				return err
			}
			fragment = f
		}
		if !treeList {
			fmt.Fprintln(cmd.OutOrStdout(), fragment)
			return nil
		}
		tree, err := navtree.Parse(strings.NewReader(fragment))
		if err != nil {
			return err
		}
		return listLinks(cmd.OutOrStdout(), tree)
	},
}

// listLinks prints one navigable entry per line, indented by depth.
func listLinks(w io.Writer, tree *navtree.Tree) error {
	for _, e := range tree.Links() {
		indent := strings.Repeat("  ", e.Depth)
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s%s\t%s\n", e.Depth, e.Kind, indent, e.Label, e.Href); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	treeCmd.Flags().StringVar(&treeSummary, "summary", "", "SUMMARY.md to convert")
	treeCmd.Flags().BoolVar(&treeList, "list", false, "list the linked entries with depth and kind instead of printing HTML")
	rootCmd.AddCommand(treeCmd)
}
