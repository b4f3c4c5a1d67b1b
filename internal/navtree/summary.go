package navtree

import (
	"io"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// FromSummary builds a tree from a SUMMARY.md-style outline: links outside
// lists become affix chapters, "# headings" after the first become part
// titles, thematic breaks become spacers and nested list items become
// chapters at their list depth.
func FromSummary(r io.Reader) (*Tree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	tree := &Tree{}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := strings.TrimSpace(string(node.Text(src)))
			if tree.Title == "" && len(tree.Entries) == 0 {
				tree.Title = title
				continue
			}
			tree.Entries = append(tree.Entries, &Entry{Label: title, Kind: KindPartTitle})
		case *ast.ThematicBreak:
			tree.Entries = append(tree.Entries, &Entry{Kind: KindSpacer})
		case *ast.Paragraph:
			for _, link := range links(node) {
				tree.Entries = append(tree.Entries, &Entry{
					Label:    strings.TrimSpace(string(link.Text(src))),
					Href:     pageFor(string(link.Destination)),
					Kind:     KindAffix,
					Expanded: true,
				})
			}
		case *ast.List:
			walkList(node, 0, src, tree)
		}
	}
	return tree, nil
}

func walkList(list *ast.List, depth int, src []byte, tree *Tree) {
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch node := c.(type) {
			case *ast.List:
				walkList(node, depth+1, src, tree)
			case *ast.TextBlock, *ast.Paragraph:
				e := &Entry{Depth: depth, Kind: KindChapter, Expanded: true}
				if ls := links(node); len(ls) > 0 {
					e.Label = strings.TrimSpace(string(ls[0].Text(src)))
					e.Href = pageFor(string(ls[0].Destination))
				} else {
					// Draft chapter: listed without a target.
					e.Label = strings.TrimSpace(string(node.Text(src)))
				}
				if e.Label != "" {
					tree.Entries = append(tree.Entries, e)
				}
			}
		}
	}
}

func links(n ast.Node) []*ast.Link {
	var out []*ast.Link
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if l, ok := c.(*ast.Link); ok {
			out = append(out, l)
		}
	}
	return out
}

// pageFor maps a summary source path to the rendered page path.
func pageFor(dest string) string {
	if dest == "" {
		return ""
	}
	if strings.EqualFold(path.Base(dest), "README.md") {
		dir := path.Dir(dest)
		if dir == "." {
			return "index.html"
		}
		return dir + "/index.html"
	}
	if strings.HasSuffix(dest, ".md") {
		return strings.TrimSuffix(dest, ".md") + ".html"
	}
	return dest
}
