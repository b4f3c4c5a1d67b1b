package navtree

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse reads a navigation fragment in the generator's ol/li format.
func Parse(r io.Reader) (*Tree, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(r, context)
	if err != nil {
		return nil, fmt.Errorf("parse nav fragment: %w", err)
	}

	tree := &Tree{}

	// depth counts enclosing <ol> elements; entries of the outermost list are depth 0.
	var walk func(n *html.Node, depth int)
	walk = func(n *html.Node, depth int) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "ol", "ul":
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c, depth+1)
				}
				return
			case "li":
				if e := entryFor(n, depth-1); e != nil {
					tree.Entries = append(tree.Entries, e)
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, depth)
		}
	}
	for _, n := range nodes {
		walk(n, 0)
	}

	return tree, nil
}

// entryFor converts a marked <li> into an entry. Wrapper items (the <li>
// that holds a nested section list) and empty chapter items return nil.
func entryFor(li *html.Node, depth int) *Entry {
	if depth < 0 {
		depth = 0
	}
	classes := classList(li)
	switch {
	case classes["part-title"]:
		return &Entry{Label: textContent(li), Depth: depth, Kind: KindPartTitle}
	case classes["spacer"]:
		return &Entry{Depth: depth, Kind: KindSpacer}
	case classes["chapter-item"]:
		e := &Entry{Depth: depth, Kind: KindChapter, Expanded: classes["expanded"]}
		if classes["affix"] {
			e.Kind = KindAffix
		}
		if a := findAnchor(li); a != nil {
			e.Href = attr(a, "href")
			e.Label = textContent(a)
		} else {
			e.Label = textContent(li)
		}
		if e.Label == "" && e.Href == "" {
			return nil
		}
		return e
	}
	return nil
}

func classList(n *html.Node) map[string]bool {
	set := make(map[string]bool)
	for _, c := range strings.Fields(attr(n, "class")) {
		set[c] = true
	}
	return set
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// findAnchor returns the first <a> under n without descending into nested lists.
func findAnchor(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.Data == "a" {
			return c
		}
		if c.Data == "ol" || c.Data == "ul" {
			continue
		}
		if a := findAnchor(c); a != nil {
			return a
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "ol" || c.Data == "ul") {
				continue
			}
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}
