package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/netpyoung/booknav/internal/dom"
	"github.com/netpyoung/booknav/internal/session"
	"github.com/netpyoung/booknav/internal/sidebar"
)

var (
	renderURL       string
	renderRoot      string
	renderScrollTop int
	renderClick     string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Mount the sidebar for one page and print it",
	Long: `Mount the sidebar headlessly for --url and print the container markup.

With --click, the link with that href is clicked after mounting and the
sidebar is mounted again for the page it leads to, carrying the scroll
position over in session storage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd.ErrOrStderr())

		cfg, tree, err := loadConfig()
		if err != nil {
			return err
		}
		if _, err := url.Parse(renderURL); err != nil {
			return fmt.Errorf("invalid --url: %w", err)
		}

		layout := dom.Layout{RowHeight: cfg.RowHeight, ViewportHeight: cfg.ViewportHeight}
		storage := session.NewMemory()
		if cmd.Flags().Changed("scroll-top") {
			storage.Set(cfg.StorageKey, strconv.Itoa(renderScrollTop))
		}

		mount := func(pageURL, root string) (*dom.Page, sidebar.Result) {
			page := dom.NewPage(pageURL, layout)
			w := sidebar.New(sidebar.Options{
				Tree:       tree,
				PathToRoot: root,
				Storage:    storage,
				IndexName:  cfg.IndexName,
				StorageKey: cfg.StorageKey,
				Log:        log,
			})
			return page, w.Mount(page)
		}

		page, res := mount(renderURL, renderRoot)
		if renderClick != "" {
			link := page.FindLink(renderClick)
			if link == nil {
				return fmt.Errorf("no sidebar link with href %q", renderClick)
			}
			page.Click(link)

			href := attr(link, "href")
			next := resolveRef(renderURL, href)
			page, res = mount(next, sidebar.PathToRoot(strings.TrimPrefix(href, renderRoot)))
		}

		log.Info("sidebar rendered",
			"url", page.CurrentURL(),
			"active", res.Active,
			"expanded", res.Expanded,
			"restored", res.Restored,
			"scroll_top", res.ScrollTop,
		)
		fmt.Fprintln(cmd.OutOrStdout(), page.SidebarHTML())
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderURL, "url", "", "URL of the page being displayed")
	renderCmd.Flags().StringVar(&renderRoot, "root", "", "path from the page back to the book root")
	renderCmd.Flags().IntVar(&renderScrollTop, "scroll-top", 0, "scroll offset saved by the previous page")
	renderCmd.Flags().StringVar(&renderClick, "click", "", "href of a sidebar link to click after mounting")
	renderCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(renderCmd)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func resolveRef(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
