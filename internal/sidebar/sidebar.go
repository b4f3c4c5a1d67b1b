// Package sidebar mounts a book's navigation tree into a page: it rewrites
// relative links, marks and reveals the entry for the current page, keeps the
// sidebar scroll position across navigations and wires section toggles.
package sidebar

import (
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/netpyoung/booknav/internal/dom"
	"github.com/netpyoung/booknav/internal/session"
)

// DefaultStorageKey is the session storage entry holding the scroll offset.
const DefaultStorageKey = "sidebar-scroll"

// CSS classes of the navigation tree.
const (
	classActive      = "active"
	classExpanded    = "expanded"
	classChapterItem = "chapter-item"
)

// Host is the page a widget is mounted into.
type Host interface {
	CurrentURL() string
	Container() *goquery.Selection
	On(target *html.Node, event string, h dom.Handler)
	ScrollTop() int
	SetScrollTop(px int)
	ScrollIntoView(n *html.Node)
}

// AliasPolicy decides whether the link at index i is active even though its
// target does not equal the canonical URL. indexName is the widget's
// configured index resource.
type AliasPolicy func(i int, pathToRoot, canonical, indexName string) bool

// RootIndexAliasesFirst treats the book's root index page as the first
// chapter.
func RootIndexAliasesFirst(i int, pathToRoot, canonical, indexName string) bool {
	return i == 0 && pathToRoot == "" && strings.HasSuffix(canonical, "/"+indexName)
}

// NoAlias only ever matches by URL.
func NoAlias(int, string, string, string) bool {
	return false
}

// Options configures a widget. Storage may be nil when the page has no
// session storage.
type Options struct {
	Tree       string // navigation fragment
	PathToRoot string
	Storage    session.Storage
	IndexName  string
	StorageKey string
	Alias      AliasPolicy
	Log        *slog.Logger
}

// Widget is a sidebar ready to be mounted into pages.
type Widget struct {
	opts Options
	log  *slog.Logger
}

// Result describes the state a mount left the sidebar in.
type Result struct {
	Active    string // resolved URL of the active link, empty if none
	Links     int    // anchors in the tree
	Expanded  int    // sections expanded to reveal the active link
	Restored  bool   // scroll offset came from session storage
	ScrollTop int
}

func New(opts Options) *Widget {
	if opts.IndexName == "" {
		opts.IndexName = DefaultIndexName
	}
	if opts.StorageKey == "" {
		opts.StorageKey = DefaultStorageKey
	}
	if opts.Alias == nil {
		opts.Alias = RootIndexAliasesFirst
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	return &Widget{opts: opts, log: log}
}

// Mount replaces the host container's content with the navigation tree and
// brings it in line with the current page. It never fails: anything it
// cannot find is left alone.
func (w *Widget) Mount(host Host) Result {
	var res Result

	container := host.Container()
	if container == nil || container.Length() == 0 {
		w.log.Debug("sidebar container missing")
		return res
	}
	container.SetHtml(w.opts.Tree)

	current := CanonicalURL(host.CurrentURL(), w.opts.IndexName)
	base, err := url.Parse(host.CurrentURL())
	if err != nil {
		base = nil
	}

	var active *goquery.Selection
	links := container.Find("a")
	res.Links = links.Length()
	links.Each(func(i int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if ok && IsRelative(href) {
			href = w.opts.PathToRoot + href
			link.SetAttr("href", href)
		}
		if active != nil || !ok {
			return
		}
		if resolve(base, href) == current || w.opts.Alias(i, w.opts.PathToRoot, current, w.opts.IndexName) {
			active = link
		}
	})

	if active != nil {
		active.AddClass(classActive)
		res.Active = resolve(base, active.AttrOr("href", ""))
		res.Expanded = expandAncestors(active, container.Get(0))
	}

	host.On(container.Get(0), "click", func(ev dom.Event) {
		if !isElement(ev.Target, "a") || w.opts.Storage == nil {
			return
		}
		w.opts.Storage.Set(w.opts.StorageKey, strconv.Itoa(host.ScrollTop()))
	})

	res.Restored = w.restoreScroll(host, active)
	res.ScrollTop = host.ScrollTop()

	container.Find("a.toggle").Each(func(_ int, toggle *goquery.Selection) {
		host.On(toggle.Get(0), "click", toggleSection)
	})

	w.log.Debug("sidebar mounted",
		"url", current,
		"active", res.Active,
		"expanded", res.Expanded,
		"restored", res.Restored,
		"scroll_top", res.ScrollTop,
	)
	return res
}

// expandAncestors reveals every section that contains link and returns the
// number of sections it marked. The link's own row is not a section
// container, so its preceding sibling is left alone.
func expandAncestors(link *goquery.Selection, root *html.Node) int {
	expanded := 0
	parent := link.Parent()
	if parent.HasClass(classChapterItem) {
		parent.AddClass(classExpanded)
		expanded++
	}
	var own *html.Node
	if li := link.Closest("li"); li.Length() > 0 {
		own = li.Get(0)
	}
	for ; parent.Length() > 0 && parent.Get(0) != root; parent = parent.Parent() {
		if goquery.NodeName(parent) != "li" || parent.Get(0) == own {
			continue
		}
		if prev := parent.Prev(); prev.HasClass(classChapterItem) {
			prev.AddClass(classExpanded)
			expanded++
		}
	}
	return expanded
}

// restoreScroll applies and clears a saved offset, falling back to centring
// the active link. It reports whether a saved offset was used.
func (w *Widget) restoreScroll(host Host, active *goquery.Selection) bool {
	if w.opts.Storage != nil {
		saved, ok := w.opts.Storage.Get(w.opts.StorageKey)
		w.opts.Storage.Remove(w.opts.StorageKey)
		if ok && saved != "" {
			if px, err := strconv.Atoi(saved); err == nil {
				host.SetScrollTop(px)
				return true
			}
			w.log.Debug("ignoring malformed scroll offset", "value", saved)
		}
	}
	if active != nil {
		host.ScrollIntoView(active.Get(0))
	}
	return false
}

func toggleSection(ev dom.Event) {
	if ev.CurrentTarget == nil || ev.CurrentTarget.Parent == nil {
		return
	}
	goquery.NewDocumentFromNode(ev.CurrentTarget.Parent).Selection.ToggleClass(classExpanded)
}

func isElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}
