package post

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRender_FrontMatter(t *testing.T) {
	p := Post{
		Title:  "My Post",
		Author: "Alice",
		Tags:   []string{"go", "hexo"},
		Cover:  "cover.webp",
		Body:   "Hello, world!",
	}
	out := p.Render(time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC))

	assert.Contains(t, out, "title: My Post\n")
	assert.Contains(t, out, "author: Alice\n")
	assert.Contains(t, out, "date: 2026-03-01 12:30:00\n")
	assert.Contains(t, out, "tags:\n- go\n- hexo\n")
	assert.Contains(t, out, "cover: cover.webp\n")
	assert.Contains(t, out, "---\nHello, world!\n")
}

func TestRender_NoCoverOmitsKey(t *testing.T) {
	out := Post{Title: "t", Author: "a", Body: "b"}.Render(time.Now())
	assert.NotContains(t, out, "cover:")
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "my-first-post", Slug("My First Post"))
	assert.Equal(t, "a-b", Slug("  a -- b!! "))
	assert.Equal(t, "etc-passwd", Slug("../../etc/passwd"))
	assert.Equal(t, "", Slug("!!!"))
}
