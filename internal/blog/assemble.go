package blog

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/alnah/go-vidblog/internal/textstat"
)

// Assemble concatenates sections into the final post. Each section becomes a
// level-2 heading followed by its body.
func Assemble(o Outline, sections []Section, videoURL string) BlogPost {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, "## "+s.Heading+"\n\n"+strings.TrimSpace(s.Content))
	}
	content := strings.Join(parts, "\n\n")
	return newPost(o.Title, o.Excerpt, content, normalizeTags(o.Tags), videoURL)
}

func newPost(title, excerpt, content string, tags []string, videoURL string) BlogPost {
	words := textstat.CountWords(content)
	if tags == nil {
		tags = []string{}
	}
	return BlogPost{
		Title:              title,
		Excerpt:            excerpt,
		Content:            content,
		Tags:               tags,
		Headings:           ExtractHeadings(content),
		WordCount:          words,
		ReadingTimeMinutes: textstat.ReadingTime(words),
		Sources:            sources(videoURL),
	}
}

func sources(videoURL string) []string {
	if u := strings.TrimSpace(videoURL); u != "" {
		return []string{u}
	}
	return []string{}
}

// ExtractHeadings returns the text of every markdown heading in document order.
func ExtractHeadings(markdown string) []string {
	src := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	headings := []string{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			var b bytes.Buffer
			inlineText(h, src, &b)
			headings = append(headings, strings.TrimSpace(b.String()))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return headings
}

func inlineText(n ast.Node, src []byte, b *bytes.Buffer) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		default:
			inlineText(c, src, b)
		}
	}
}
