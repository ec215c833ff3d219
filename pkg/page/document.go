package page

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"sync"

	"bottagger/pkg/scoring"

	"github.com/PuerkitoBio/goquery"
)

const (
	// BadgeClass marks an injected badge.
	BadgeClass = "bot-likelihood"
	// MarkerAttr is set on the tagline of a post that was hidden.
	MarkerAttr = "data-bot-likelihood"
)

// ErrNoLayout is returned when no known variant matches the page.
var ErrNoLayout = errors.New("no known listing layout found")

// Target is where a result is delivered: the badge goes after User, and
// Tagline scopes the already-annotated check.
type Target struct {
	User    *goquery.Selection
	Tagline *goquery.Selection
}

// Candidate is one post author found by a scan.
type Candidate struct {
	Username  string
	Target    *Target
	Annotated bool
}

// Discover runs the first layout whose detector matches anything and
// extracts its candidates. Comment authors and nodes missing structure are
// skipped.
func Discover(doc *goquery.Document) (Kind, []Candidate, error) {
	for _, layout := range Layouts {
		nodes := layout.Detect(doc)
		if nodes.Length() == 0 {
			continue
		}
		var out []Candidate
		nodes.Each(func(_ int, node *goquery.Selection) {
			if inComment(node) {
				return
			}
			if c, ok := layout.Extract(node); ok {
				out = append(out, c)
			}
		})
		return layout.Kind(), out, nil
	}
	return KindNone, nil, ErrNoLayout
}

func isAnnotated(tagline *goquery.Selection) bool {
	if tagline.Find("."+BadgeClass).Length() > 0 {
		return true
	}
	_, marked := tagline.Attr(MarkerAttr)
	return marked
}

// Document is a parsed listing page shared between the scan and drain
// loops. Every access goes through its mutex.
type Document struct {
	mu  sync.Mutex
	doc *goquery.Document
	gen uint64
}

// NewDocument wraps doc.
func NewDocument(doc *goquery.Document) *Document {
	return &Document{doc: doc}
}

// Parse reads HTML into a Document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return NewDocument(doc), nil
}

// ParseString is Parse for an in-memory page.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Scan discovers candidates in the current page.
func (d *Document) Scan() (Kind, []Candidate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Discover(d.doc)
}

// Replace swaps in a freshly loaded page. Targets from the old page stay
// valid but no longer affect the output.
func (d *Document) Replace(doc *goquery.Document) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc = doc
	d.gen++
}

// Generation counts Replace calls.
func (d *Document) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

// RenderBadge inserts the label badge after the target's user element.
func (d *Document) RenderBadge(t *Target, r scoring.Result, color string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if isAnnotated(t.Tagline) {
		return
	}
	t.User.AfterHtml(badgeHTML(r, color))
}

// HidePost hides the post containing the target and marks it annotated.
// It returns false when no post container could be found.
func (d *Document) HidePost(t *Target) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	container := postContainer(t.User)
	if container.Length() == 0 {
		return false
	}
	style := strings.TrimSpace(container.AttrOr("style", ""))
	if style != "" && !strings.HasSuffix(style, ";") {
		style += ";"
	}
	container.SetAttr("style", strings.TrimSpace(style+" display: none;"))
	t.Tagline.SetAttr(MarkerAttr, "hidden")
	return true
}

// HTML renders the current page.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return goquery.OuterHtml(d.doc.Selection)
}

// WriteTo renders the current page to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	s, err := d.HTML()
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(w, bytes.NewBufferString(s))
	return n, err
}

var containerSelectors = []string{".thing", `[data-testid="post-container"]`, "shreddit-post"}

func postContainer(user *goquery.Selection) *goquery.Selection {
	for _, sel := range containerSelectors {
		if c := user.Closest(sel); c.Length() > 0 {
			return c
		}
	}
	return user.Closest(containerSelectors[0])
}

func badgeHTML(r scoring.Result, color string) string {
	title := fmt.Sprintf("Adjusted score %s (ratio %s)", r.Adjusted, r.RawRatio)
	style := fmt.Sprintf("background-color: %s; color: #fff; padding: 2px; margin: 3px; font-weight: bold; border-radius: 3px;", color)
	return fmt.Sprintf(`<span class="%s" data-label="%s" title="%s" style="%s">Bot Likelihood: %s</span>`,
		BadgeClass,
		html.EscapeString(r.Label.String()),
		html.EscapeString(title),
		html.EscapeString(style),
		html.EscapeString(r.Label.String()),
	)
}
