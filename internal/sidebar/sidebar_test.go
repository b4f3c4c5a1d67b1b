package sidebar

import (
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/netpyoung/booknav/internal/dom"
	"github.com/netpyoung/booknav/internal/navtree"
	"github.com/netpyoung/booknav/internal/session"
)

var _ Host = (*dom.Page)(nil)

const nestedTree = `<ol class="chapter">` +
	`<li class="chapter-item "><a href="index.html">Intro</a></li>` +
	`<li class="chapter-item "><a href="guide.html">Guide</a><a class="toggle"><div>❱</div></a></li>` +
	`<li><ol class="section">` +
	`<li class="chapter-item "><a href="guide/setup.html">Setup</a><a class="toggle"><div>❱</div></a></li>` +
	`<li><ol class="section">` +
	`<li class="chapter-item "><a href="guide/setup/linux.html">Linux</a></li>` +
	`<li class="chapter-item "><a href="guide/setup/mac.html">Mac</a></li>` +
	`</ol></li>` +
	`</ol></li>` +
	`<li class="chapter-item "><a href="reference.html">Reference</a><a class="toggle"><div>❱</div></a></li>` +
	`<li><ol class="section"><li class="chapter-item "><a href="reference/api.html">API</a></li></ol></li>` +
	`<li class="chapter-item "><a href="https://example.org/">External</a></li>` +
	`<li class="chapter-item "><a href="#top">Top</a></li>` +
	`</ol>`

var testLayout = dom.Layout{RowHeight: 20, ViewportHeight: 100}

func mount(t *testing.T, pageURL string, opts Options) (*dom.Page, Result) {
	t.Helper()
	if opts.Tree == "" {
		opts.Tree = nestedTree
	}
	page := dom.NewPage(pageURL, testLayout)
	return page, New(opts).Mount(page)
}

// row returns the list item holding the link labelled label.
func row(t *testing.T, page *dom.Page, label string) *goquery.Selection {
	t.Helper()
	var found *goquery.Selection
	page.Container().Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Text() == label {
			found = s.Parent()
			return false
		}
		return true
	})
	if found == nil {
		t.Fatalf("no entry labelled %q", label)
	}
	return found
}

func activeLabels(page *dom.Page) []string {
	var out []string
	page.Container().Find("a.active").Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.Text())
	})
	return out
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		raw   string
		index string
		want  string
	}{
		{"http://example.com/book/ch01.html", "", "http://example.com/book/ch01.html"},
		{"http://example.com/book/ch01.html#intro", "", "http://example.com/book/ch01.html"},
		{"http://example.com/book/ch01.html?search=x#intro", "", "http://example.com/book/ch01.html"},
		{"http://example.com/book/", "", "http://example.com/book/index.html"},
		{"http://example.com/book/?q=1", "", "http://example.com/book/index.html"},
		{"http://example.com/book/#top", "", "http://example.com/book/index.html"},
		{"http://example.com/docs/", "README.html", "http://example.com/docs/README.html"},
		{"http://example.com", "", "http://example.com/index.html"},
		{"http://example.com#top", "", "http://example.com/index.html"},
		{"http://example.com?q=1", "README.html", "http://example.com/README.html"},
	}
	for _, tt := range tests {
		if got := CanonicalURL(tt.raw, tt.index); got != tt.want {
			t.Errorf("CanonicalURL(%q, %q) = %q, want %q", tt.raw, tt.index, got, tt.want)
		}
	}
}

func TestIsRelative(t *testing.T) {
	tests := []struct {
		href string
		want bool
	}{
		{"ch01.html", true},
		{"guide/setup.html", true},
		{"../up.html", true},
		{"", false},
		{"#top", false},
		{"https://example.org/", false},
		{"http://example.org/x.html", false},
		{"//cdn.example.org/x.js", false},
		{"git+ssh://host/repo", false},
	}
	for _, tt := range tests {
		if got := IsRelative(tt.href); got != tt.want {
			t.Errorf("IsRelative(%q) = %v, want %v", tt.href, got, tt.want)
		}
	}
}

func TestPathToRoot(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/ch01.html", ""},
		{"ch01.html", ""},
		{"/", ""},
		{"/guide/setup.html", "../"},
		{"/guide/setup/linux.html", "../../"},
		{"/guide/", "../"},
	}
	for _, tt := range tests {
		if got := PathToRoot(tt.path); got != tt.want {
			t.Errorf("PathToRoot(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMount_MarksExactlyOneActiveLink(t *testing.T) {
	page, res := mount(t, "http://example.com/book/guide/setup/mac.html?x=1#part", Options{PathToRoot: "../../"})

	got := activeLabels(page)
	if len(got) != 1 || got[0] != "Mac" {
		t.Fatalf("expected only Mac to be active, got %v", got)
	}
	if res.Active != "http://example.com/book/guide/setup/mac.html" {
		t.Errorf("unexpected active url %q", res.Active)
	}
	if res.Links != 12 {
		t.Errorf("expected 12 anchors, got %d", res.Links)
	}
}

func TestMount_NormalizesRelativeLinks(t *testing.T) {
	page, _ := mount(t, "http://example.com/book/guide/setup.html", Options{PathToRoot: "../"})

	want := map[string]string{
		"Intro":    "../index.html",
		"Guide":    "../guide.html",
		"Linux":    "../guide/setup/linux.html",
		"External": "https://example.org/",
		"Top":      "#top",
	}
	for label, href := range want {
		a := row(t, page, label).Find("a").First()
		if got := a.AttrOr("href", ""); got != href {
			t.Errorf("%s: expected href %q, got %q", label, href, got)
		}
	}
}

func TestMount_DirectoryURLMatchesIndex(t *testing.T) {
	page, _ := mount(t, "http://example.com/book/", Options{Alias: NoAlias})
	if got := activeLabels(page); len(got) != 1 || got[0] != "Intro" {
		t.Fatalf("expected Intro to be active, got %v", got)
	}
}

func TestMount_RootIndexAliasesFirstChapter(t *testing.T) {
	// The first link of the bundled book is "Index.html", which differs
	// from the canonical ".../index.html" by case.
	tree := navtree.Default()

	page, res := mount(t, "http://example.com/book/", Options{Tree: tree})
	got := activeLabels(page)
	if len(got) != 1 || got[0] != "들어가며" {
		t.Fatalf("expected the first chapter to be active, got %v", got)
	}
	if res.Active != "http://example.com/book/Index.html" {
		t.Errorf("unexpected active url %q", res.Active)
	}

	page, _ = mount(t, "http://example.com/book/sub/", Options{Tree: tree, PathToRoot: "../"})
	if got := activeLabels(page); len(got) != 0 {
		t.Errorf("expected no alias with a non-empty base path, got %v", got)
	}

	page, _ = mount(t, "http://example.com/book/", Options{Tree: tree, Alias: NoAlias})
	if got := activeLabels(page); len(got) != 0 {
		t.Errorf("expected no alias under NoAlias, got %v", got)
	}
}

func TestMount_RootIndexAliasUsesConfiguredIndexName(t *testing.T) {
	tree := `<ol class="chapter"><li class="chapter-item "><a href="intro.html">Intro</a></li></ol>`

	page, res := mount(t, "http://example.com/book/", Options{Tree: tree, IndexName: "README.html"})
	if got := activeLabels(page); len(got) != 1 || got[0] != "Intro" {
		t.Fatalf("expected Intro to be active at the README.html root, got %v", got)
	}
	if res.Active != "http://example.com/book/intro.html" {
		t.Errorf("unexpected active url %q", res.Active)
	}

	page, _ = mount(t, "http://example.com/book/index.html", Options{Tree: tree, IndexName: "README.html"})
	if got := activeLabels(page); len(got) != 0 {
		t.Errorf("expected index.html not to alias when the index is README.html, got %v", got)
	}
}

func TestMount_FirstMatchWins(t *testing.T) {
	tree := `<ol class="chapter">` +
		`<li class="chapter-item affix "><a href="index.html">Intro</a></li>` +
		`<li class="chapter-item "><a href="ch1.html">One</a></li>` +
		`<li class="chapter-item "><a href="index.html">Again</a></li>` +
		`</ol>`

	page, res := mount(t, "http://example.com/index.html", Options{Tree: tree, Alias: NoAlias})
	if got := activeLabels(page); len(got) != 1 || got[0] != "Intro" {
		t.Fatalf("expected only the first matching link to be active, got %v", got)
	}
	if res.Active != "http://example.com/index.html" {
		t.Errorf("unexpected active url %q", res.Active)
	}
	if row(t, page, "Again").Find("a.active").Length() != 0 {
		t.Error("expected the later duplicate to stay inactive")
	}
}

func TestMount_BareHostMatchesIndex(t *testing.T) {
	tree := `<ol class="chapter">` +
		`<li class="chapter-item "><a href="ch1.html">One</a></li>` +
		`<li class="chapter-item "><a href="index.html">Home</a></li>` +
		`</ol>`

	page, res := mount(t, "http://example.com", Options{Tree: tree, Alias: NoAlias})
	if got := activeLabels(page); len(got) != 1 || got[0] != "Home" {
		t.Fatalf("expected Home to be active, got %v", got)
	}
	if res.Active != "http://example.com/index.html" {
		t.Errorf("unexpected active url %q", res.Active)
	}
}

func TestMount_ExpandsAncestorSections(t *testing.T) {
	page, res := mount(t, "http://example.com/guide/setup/linux.html", Options{PathToRoot: "../../"})

	for _, label := range []string{"Linux", "Setup", "Guide"} {
		if !row(t, page, label).HasClass("expanded") {
			t.Errorf("expected %s to be expanded", label)
		}
	}
	for _, label := range []string{"Intro", "Mac", "Reference", "API"} {
		if row(t, page, label).HasClass("expanded") {
			t.Errorf("expected %s to be untouched", label)
		}
	}
	if res.Expanded != 3 {
		t.Errorf("expected 3 expanded sections, got %d", res.Expanded)
	}
}

func TestMount_LeavesPrecedingSiblingCollapsed(t *testing.T) {
	page, _ := mount(t, "http://example.com/guide/setup/mac.html", Options{PathToRoot: "../../"})
	if row(t, page, "Linux").HasClass("expanded") {
		t.Error("expected sibling Linux to stay collapsed")
	}
	if !row(t, page, "Mac").HasClass("expanded") {
		t.Error("expected Mac to be expanded")
	}
}

func TestMount_ScrollRoundTrip(t *testing.T) {
	store := session.NewMemory()

	page, _ := mount(t, "http://example.com/index.html", Options{Storage: store})
	page.SetScrollTop(60)
	page.Click(page.FindLink("guide/setup/linux.html"))

	saved, ok := store.Get(DefaultStorageKey)
	if !ok || saved != "60" {
		t.Fatalf("expected saved offset %q, got %q (ok=%v)", "60", saved, ok)
	}

	next, res := mount(t, "http://example.com/guide/setup/linux.html", Options{Storage: store, PathToRoot: "../../"})
	if !res.Restored {
		t.Error("expected scroll to be restored")
	}
	if next.ScrollTop() != 60 || res.ScrollTop != 60 {
		t.Errorf("expected scroll 60, got %d (result %d)", next.ScrollTop(), res.ScrollTop)
	}
	if _, ok := store.Get(DefaultStorageKey); ok {
		t.Error("expected storage entry to be cleared")
	}

	// The offset is one-shot: a later mount falls back to centring.
	_, res = mount(t, "http://example.com/guide/setup/linux.html", Options{Storage: store, PathToRoot: "../../"})
	if res.Restored {
		t.Error("expected no restore on the following mount")
	}
}

func TestMount_RestoresZeroOffset(t *testing.T) {
	store := session.NewMemory()
	store.Set(DefaultStorageKey, "0")

	_, res := mount(t, "http://example.com/guide/setup/mac.html", Options{Storage: store, PathToRoot: "../../"})
	if !res.Restored || res.ScrollTop != 0 {
		t.Errorf("expected restored offset 0, got restored=%v scroll=%d", res.Restored, res.ScrollTop)
	}
}

func TestMount_MalformedOffsetFallsBackToCentring(t *testing.T) {
	store := session.NewMemory()
	store.Set(DefaultStorageKey, "lots")

	_, res := mount(t, "http://example.com/guide/setup/mac.html", Options{Storage: store, PathToRoot: "../../"})
	if res.Restored {
		t.Error("expected malformed offset to be ignored")
	}
	if res.ScrollTop != 40 {
		t.Errorf("expected centred offset 40, got %d", res.ScrollTop)
	}
	if _, ok := store.Get(DefaultStorageKey); ok {
		t.Error("expected malformed entry to be cleared")
	}
}

func TestMount_WithoutStorageCentresActive(t *testing.T) {
	page, res := mount(t, "http://example.com/guide/setup/mac.html", Options{PathToRoot: "../../"})
	if res.Restored {
		t.Error("expected no restore without storage")
	}
	// Mac is row 4 of 9: 4*20 + 10 - 50.
	if page.ScrollTop() != 40 {
		t.Errorf("expected centred offset 40, got %d", page.ScrollTop())
	}

	// Clicks are harmless without storage.
	page.Click(page.FindLink("../../reference.html"))
}

func TestMount_NoActiveEntryLeavesScroll(t *testing.T) {
	page, res := mount(t, "http://example.com/elsewhere.html", Options{})
	if res.Active != "" || len(activeLabels(page)) != 0 {
		t.Errorf("expected no active entry, got %q", res.Active)
	}
	if res.Expanded != 0 || page.ScrollTop() != 0 {
		t.Errorf("expected nothing expanded and no scroll, got %d and %d", res.Expanded, page.ScrollTop())
	}
}

func TestMount_ClickOnNonLinkDoesNotSave(t *testing.T) {
	store := session.NewMemory()
	page, _ := mount(t, "http://example.com/index.html", Options{Storage: store})
	page.SetScrollTop(20)

	page.Click(row(t, page, "Guide").Get(0))
	if _, ok := store.Get(DefaultStorageKey); ok {
		t.Error("expected a click on a list item not to save the offset")
	}
}

func TestMount_ToggleFlipsOwnSection(t *testing.T) {
	page, _ := mount(t, "http://example.com/index.html", Options{})

	setup := row(t, page, "Setup")
	toggle := setup.Find("a.toggle").Get(0)
	before := snapshotExpanded(page)

	page.Click(toggle)
	if !setup.HasClass("expanded") {
		t.Fatal("expected Setup to expand after one click")
	}
	after := snapshotExpanded(page)
	for label, was := range before {
		if label != "Setup" && after[label] != was {
			t.Errorf("expected %s to be unaffected by the toggle", label)
		}
	}

	page.Click(toggle)
	if setup.HasClass("expanded") {
		t.Error("expected Setup to collapse after a second click")
	}
}

func TestMount_ToggleClickOnInnerElementBubbles(t *testing.T) {
	page, _ := mount(t, "http://example.com/index.html", Options{})
	reference := row(t, page, "Reference")

	inner := reference.Find("a.toggle div").Get(0)
	page.Click(inner)
	if !reference.HasClass("expanded") {
		t.Error("expected the toggle listener to see clicks on its children")
	}
}

func TestMount_ReusesTreeAcrossPages(t *testing.T) {
	w := New(Options{Tree: nestedTree, PathToRoot: ""})

	first := dom.NewPage("http://example.com/guide.html", testLayout)
	w.Mount(first)
	second := dom.NewPage("http://example.com/reference.html", testLayout)
	w.Mount(second)

	if got := activeLabels(first); len(got) != 1 || got[0] != "Guide" {
		t.Errorf("first page: expected Guide, got %v", got)
	}
	if got := activeLabels(second); len(got) != 1 || got[0] != "Reference" {
		t.Errorf("second page: expected Reference, got %v", got)
	}
}

type emptyHost struct{ *dom.Page }

func (emptyHost) Container() *goquery.Selection { return &goquery.Selection{} }

func TestMount_MissingContainerIsNoop(t *testing.T) {
	host := &emptyHost{dom.NewPage("http://example.com/", testLayout)}
	res := New(Options{Tree: nestedTree}).Mount(host)
	if res != (Result{}) {
		t.Errorf("expected zero result, got %+v", res)
	}
}

func snapshotExpanded(page *dom.Page) map[string]bool {
	out := make(map[string]bool)
	page.Container().Find("li.chapter-item").Each(func(_ int, s *goquery.Selection) {
		out[s.Find("a").First().Text()] = s.HasClass("expanded")
	})
	return out
}
