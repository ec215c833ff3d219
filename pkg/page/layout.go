package page

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Kind names a listing markup variant.
type Kind string

const (
	KindNone                     Kind = ""
	KindOld                      Kind = "old"
	KindNewDesktop               Kind = "new-desktop"
	KindNewMobileLoggedIn        Kind = "new-mobile-logged-in"
	KindNewMobileLoggedOut       Kind = "new-mobile-logged-out"
	KindNewOtherDesktopLoggedOut Kind = "new-other-desktop-logged-out"
)

// Layout detects one markup variant and extracts author candidates from it.
type Layout interface {
	Kind() Kind
	// Detect returns the variant's anchor nodes in document order.
	Detect(doc *goquery.Document) *goquery.Selection
	// Extract resolves one anchor node into a candidate. It returns false
	// when a required piece of structure is missing.
	Extract(node *goquery.Selection) (Candidate, bool)
}

// Layouts lists every supported variant in detection priority order.
var Layouts = []Layout{
	oldLayout{},
	linkLayout{kind: KindNewDesktop, selector: `a[data-testid="post_author_link"]`, userUp: 2, taglineUp: 3},
	linkLayout{kind: KindNewMobileLoggedIn, selector: `a[class^="PostHeader__author"]`, userUp: 0, taglineUp: 1},
	linkLayout{kind: KindNewMobileLoggedOut, selector: `a[slot="authorName"]`, userUp: 0, taglineUp: 2},
	linkLayout{kind: KindNewOtherDesktopLoggedOut, selector: `a[href^="/user/"]:not([aria-label$="avatar"])`, userUp: 1, taglineUp: 2},
}

// oldLayout is old.reddit.com: a .tagline holding an .author link whose
// text is the username.
type oldLayout struct{}

func (oldLayout) Kind() Kind { return KindOld }

func (oldLayout) Detect(doc *goquery.Document) *goquery.Selection {
	return doc.Find(".tagline")
}

func (oldLayout) Extract(node *goquery.Selection) (Candidate, bool) {
	user := node.Find(".author").First()
	if user.Length() == 0 {
		return Candidate{}, false
	}
	username := strings.TrimSpace(user.Text())
	if username == "" {
		return Candidate{}, false
	}
	return newCandidate(username, user, node), true
}

// linkLayout covers the variants where the anchor is a profile link and the
// insertion point and tagline sit a fixed number of levels above it.
type linkLayout struct {
	kind      Kind
	selector  string
	userUp    int
	taglineUp int
}

func (l linkLayout) Kind() Kind { return l.kind }

func (l linkLayout) Detect(doc *goquery.Document) *goquery.Selection {
	return doc.Find(l.selector)
}

func (l linkLayout) Extract(node *goquery.Selection) (Candidate, bool) {
	href, ok := node.Attr("href")
	if !ok {
		return Candidate{}, false
	}
	username := usernameFromHref(href)
	if username == "" {
		return Candidate{}, false
	}
	user := ancestor(node, l.userUp)
	tagline := ancestor(node, l.taglineUp)
	if user.Length() == 0 || tagline.Length() == 0 {
		return Candidate{}, false
	}
	return newCandidate(username, user, tagline), true
}

func ancestor(s *goquery.Selection, levels int) *goquery.Selection {
	for i := 0; i < levels && s.Length() > 0; i++ {
		s = s.Parent()
	}
	return s
}

// usernameFromHref returns the path segment after /user/ or /u/.
func usernameFromHref(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "user" || segments[i] == "u" {
			return segments[i+1]
		}
	}
	return ""
}

func newCandidate(username string, user, tagline *goquery.Selection) Candidate {
	return Candidate{
		Username:  username,
		Target:    &Target{User: user, Tagline: tagline},
		Annotated: isAnnotated(tagline),
	}
}

var commentSelectors = []string{".comment", `[data-testid="comment"]`, "shreddit-comment"}

func inComment(node *goquery.Selection) bool {
	for _, sel := range commentSelectors {
		if node.Closest(sel).Length() > 0 {
			return true
		}
	}
	return false
}
