// Package dom provides a headless page: an HTML document with a sidebar
// container, click dispatch and scroll bookkeeping, enough to host the
// sidebar widget outside a browser.
package dom

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ContainerTag is the element the sidebar is mounted into.
const ContainerTag = "mdbook-sidebar-scrollbox"

const shell = `<!DOCTYPE html><html><head></head><body>` +
	`<nav id="sidebar" class="sidebar"><` + ContainerTag + ` class="sidebar-scrollbox"></` + ContainerTag + `></nav>` +
	`</body></html>`

// Event is a dispatched UI event.
type Event struct {
	Type          string
	Target        *html.Node // element the event was dispatched on
	CurrentTarget *html.Node // element whose listener is running
}

// Handler reacts to an event.
type Handler func(Event)

type listener struct {
	event   string
	handler Handler
}

// Layout holds the metrics used to centre an element in the container.
type Layout struct {
	RowHeight      int
	ViewportHeight int
}

// DefaultLayout approximates a desktop sidebar.
func DefaultLayout() Layout {
	return Layout{RowHeight: 32, ViewportHeight: 640}
}

// Page is a single loaded document.
type Page struct {
	url       string
	container *goquery.Selection
	listeners map[*html.Node][]listener
	scrollTop int
	layout    Layout
}

// NewPage loads an empty page shell at rawURL.
func NewPage(rawURL string, layout Layout) *Page {
	if layout.RowHeight <= 0 {
		layout.RowHeight = DefaultLayout().RowHeight
	}
	if layout.ViewportHeight <= 0 {
		layout.ViewportHeight = DefaultLayout().ViewportHeight
	}
	// Reading a constant from a strings.Reader cannot fail.
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(shell))
	return &Page{
		url:       rawURL,
		container: doc.Find(ContainerTag).First(),
		listeners: make(map[*html.Node][]listener),
		layout:    layout,
	}
}

func (p *Page) CurrentURL() string {
	return p.url
}

func (p *Page) Container() *goquery.Selection {
	return p.container
}

// On registers h for events of the given type reaching target.
func (p *Page) On(target *html.Node, event string, h Handler) {
	if target == nil || h == nil {
		return
	}
	p.listeners[target] = append(p.listeners[target], listener{event: event, handler: h})
}

// Click dispatches a click on n, bubbling up to the document root.
func (p *Page) Click(n *html.Node) {
	p.dispatch(Event{Type: "click", Target: n})
}

func (p *Page) dispatch(ev Event) {
	for cur := ev.Target; cur != nil; cur = cur.Parent {
		for _, l := range p.listeners[cur] {
			if l.event != ev.Type {
				continue
			}
			ev.CurrentTarget = cur
			l.handler(ev)
		}
	}
}

func (p *Page) ScrollTop() int {
	return p.scrollTop
}

func (p *Page) SetScrollTop(px int) {
	if px < 0 {
		px = 0
	}
	if limit := p.maxScroll(); px > limit {
		px = limit
	}
	p.scrollTop = px
}

// ScrollIntoView scrolls the container so the row holding n is vertically
// centred.
func (p *Page) ScrollIntoView(n *html.Node) {
	rows := p.rows()
	row := -1
	for cur := n; cur != nil && row < 0; cur = cur.Parent {
		for i, r := range rows {
			if r == cur {
				row = i
				break
			}
		}
	}
	if row < 0 {
		return
	}
	offset := row*p.layout.RowHeight + p.layout.RowHeight/2 - p.layout.ViewportHeight/2
	p.SetScrollTop(offset)
}

// rows lists the rendered list items of the sidebar in document order.
// Wrapper items that only hold a nested list take no vertical space.
func (p *Page) rows() []*html.Node {
	var out []*html.Node
	p.container.Find("li").Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("chapter-item") || s.HasClass("part-title") || s.HasClass("spacer") {
			out = append(out, s.Get(0))
		}
	})
	return out
}

func (p *Page) maxScroll() int {
	limit := len(p.rows())*p.layout.RowHeight - p.layout.ViewportHeight
	if limit < 0 {
		return 0
	}
	return limit
}

// FindLink returns the sidebar anchor whose href attribute, or whose
// resolved URL, equals href.
func (p *Page) FindLink(href string) *html.Node {
	base, _ := url.Parse(p.url)
	var found *html.Node
	p.container.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		attr, _ := s.Attr("href")
		if attr == href || (base != nil && resolve(base, attr) == href) {
			found = s.Get(0)
			return false
		}
		return true
	})
	return found
}

// SidebarHTML returns the container's current markup.
func (p *Page) SidebarHTML() string {
	out, _ := p.container.Html()
	return out
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
