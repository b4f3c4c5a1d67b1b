package navtree

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoLinks is returned for a tree fragment without a single navigable entry.
var ErrNoLinks = errors.New("tree has no links")

// Kind classifies a navigation entry by the CSS marker it renders with.
type Kind string

const (
	KindChapter   Kind = "chapter"    // li.chapter-item
	KindAffix     Kind = "affix"      // li.chapter-item.affix, never collapsible
	KindPartTitle Kind = "part-title" // li.part-title, not navigable
	KindSpacer    Kind = "spacer"     // li.spacer
)

// Tree is the ordered navigation tree of a book.
type Tree struct {
	Title   string   // Book title (from the summary heading, empty for fragments)
	Entries []*Entry // Flattened in document order
}

// Entry is a single item of the navigation tree.
type Entry struct {
	Label    string // Visible label
	Href     string // Relative target; empty for headers, spacers and draft chapters
	Depth    int    // 0 for top level
	Kind     Kind
	Expanded bool
}

// Links returns the entries that carry a navigable target, in order.
func (t *Tree) Links() []*Entry {
	var out []*Entry
	for _, e := range t.Entries {
		if e.Href != "" {
			out = append(out, e)
		}
	}
	return out
}

//go:embed book.html
var defaultFragment string

// Default returns the navigation fragment compiled into the binary.
func Default() string {
	return defaultFragment
}

// Load resolves the fragment to mount. A tree file is checked and used
// verbatim, a summary file is converted, and with neither the embedded
// default is used.
func Load(treeFile, summaryFile string) (string, error) {
	switch {
	case treeFile != "" && summaryFile != "":
		return "", fmt.Errorf("tree file and summary file are mutually exclusive")
	case treeFile != "":
		data, err := os.ReadFile(treeFile)
		if err != nil {
			return "", fmt.Errorf("read tree file: %w", err)
		}
		tree, err := Parse(strings.NewReader(string(data)))
		if err != nil {
			return "", fmt.Errorf("tree file %s: %w", treeFile, err)
		}
		if len(tree.Links()) == 0 {
			return "", fmt.Errorf("tree file %s: %w", treeFile, ErrNoLinks)
		}
		return string(data), nil
	case summaryFile != "":
		f, err := os.Open(summaryFile)
		if err != nil {
			return "", fmt.Errorf("open summary: %w", err)
		}
		defer f.Close()
		tree, err := FromSummary(f)
		if err != nil {
			return "", err
		}
		return tree.HTML(), nil
	}
	return Default(), nil
}
