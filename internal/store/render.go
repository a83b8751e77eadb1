package store

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<meta name="description" content="%s">
</head>
<body>
<article>
<h1>%s</h1>
%s</article>
</body>
</html>
`

// RenderHTML converts a post body to a standalone HTML page.
func RenderHTML(title, excerpt, markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	t := html.EscapeString(title)
	return fmt.Sprintf(htmlPage, t, html.EscapeString(excerpt), t, buf.String()), nil
}
