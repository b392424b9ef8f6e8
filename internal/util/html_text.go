package util

import (
	"strings"

	"golang.org/x/net/html"
)

// HTMLToText flattens rich-text HTML (course descriptions are authored in a
// rich editor) to plain text with paragraph breaks.
func HTMLToText(src string) string {
	if !strings.ContainsAny(src, "<&") {
		return strings.TrimSpace(src)
	}
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return strings.TrimSpace(src)
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			b.WriteString(node.Data)
		case html.ElementNode:
			switch node.Data {
			case "script", "style":
				return
			case "li":
				b.WriteString("- ")
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if node.Type == html.ElementNode && (node.Data == "p" || node.Data == "br" || node.Data == "div" || node.Data == "li" || node.Data == "h1" || node.Data == "h2" || node.Data == "h3") {
			b.WriteString("\n")
		}
	}
	walk(doc)
	return normalizeLines(b.String())
}

func normalizeLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
