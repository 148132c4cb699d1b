package post

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Post is the renderable form of a submission: hexo-style front matter
// followed by the markdown body.
type Post struct {
	Title  string
	Author string
	Tags   []string
	Cover  string // cover image filename, empty when the post has no images
	Body   string
}

// Render produces the markdown document with front matter. The date is the
// publish instant, formatted the way the target blog expects.
func (p Post) Render(now time.Time) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %s\n", p.Title)
	fmt.Fprintf(&b, "author: %s\n", p.Author)
	fmt.Fprintf(&b, "date: %s\n", now.Format("2006-01-02 15:04:05"))
	b.WriteString("tags:\n")
	for _, tag := range p.Tags {
		fmt.Fprintf(&b, "- %s\n", tag)
	}
	if p.Cover != "" {
		fmt.Fprintf(&b, "cover: %s\n", p.Cover)
	}
	b.WriteString("---\n")
	b.WriteString(p.Body)
	if !strings.HasSuffix(p.Body, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

// Slug converts a title into a repository-safe path segment: lowercase
// alphanumerics with single hyphens. Anything else (including path
// separators) is squeezed out so a title can never escape the content dir.
func Slug(title string) string {
	var b strings.Builder
	prevHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevHyphen = false
		case !prevHyphen:
			b.WriteByte('-')
			prevHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}
