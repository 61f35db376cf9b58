package resolver

import (
	"strings"

	"golang.org/x/net/html"
)

// skipElements are subtrees that carry no analyzable text.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"svg":      true,
	"head":     true,
	"iframe":   true,
	"template": true,
}

// blockElements get a newline after their text so document structure
// survives flattening.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "tr": true, "br": true, "ul": true, "ol": true,
	"table": true, "header": true, "footer": true, "main": true,
	"blockquote": true, "pre": true,
}

// flattenHTML extracts visible text from rendered HTML in document order.
// It is deliberately lossy: the model needs readable text, not structure.
func flattenHTML(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skipElements[n.Data] {
				return
			}
			// Headings read better with a marker, roughly like markdown.
			if len(n.Data) == 2 && n.Data[0] == 'h' && n.Data[1] >= '1' && n.Data[1] <= '6' {
				b.WriteString("\n")
				b.WriteString(strings.Repeat("#", int(n.Data[1]-'0')))
				b.WriteString(" ")
			}
		case html.TextNode:
			text := strings.TrimSpace(n.Data)
			if text != "" {
				b.WriteString(text)
				b.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			b.WriteString("\n")
		}
	}
	walk(doc)

	return collapseBlankLines(b.String())
}

// collapseBlankLines trims trailing spaces and squeezes runs of blank lines.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
