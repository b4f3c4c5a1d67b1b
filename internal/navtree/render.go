package navtree

import (
	"html"
	"strings"
)

// HTML renders the tree in the generator's fragment format. Children of an
// entry live in a sibling <li><ol class="section"> that follows it, which is
// what the sidebar's ancestor walk relies on.
func (t *Tree) HTML() string {
	var b strings.Builder
	b.WriteString(`<ol class="chapter">`)
	depth := 0
	for _, e := range t.Entries {
		for depth < e.Depth {
			b.WriteString(`<li><ol class="section">`)
			depth++
		}
		for depth > e.Depth {
			b.WriteString(`</ol></li>`)
			depth--
		}
		writeEntry(&b, e)
	}
	for ; depth > 0; depth-- {
		b.WriteString(`</ol></li>`)
	}
	b.WriteString(`</ol>`)
	return b.String()
}

func writeEntry(b *strings.Builder, e *Entry) {
	label := html.EscapeString(e.Label)
	switch e.Kind {
	case KindPartTitle:
		b.WriteString(`<li class="part-title">` + label + `</li>`)
	case KindSpacer:
		b.WriteString(`<li class="spacer"></li>`)
	default:
		class := "chapter-item "
		if e.Expanded {
			class += "expanded "
		}
		if e.Kind == KindAffix {
			class += "affix "
		}
		b.WriteString(`<li class="` + class + `">`)
		if e.Href != "" {
			b.WriteString(`<a href="` + html.EscapeString(e.Href) + `">` + label + `</a>`)
		} else {
			b.WriteString(`<div>` + label + `</div>`)
		}
		b.WriteString(`</li>`)
	}
}
