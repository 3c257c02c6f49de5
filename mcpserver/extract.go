package mcpserver

import (
	"bytes"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// pageContent is the minimal extraction fetch_url returns: enough for a
// model to orient on a page without shipping the raw HTML.
type pageContent struct {
	Title string
	Text  string
	Links []string
}

// extractPage pulls the title, visible text and outgoing links from an
// HTML body. Non-HTML input degrades gracefully: no title, no links, and
// the raw bytes (truncated) as text.
func extractPage(body []byte, baseURL string, maxLinks, maxTextLen int) pageContent {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return pageContent{Text: truncate(string(body), maxTextLen)}
	}

	base, _ := url.Parse(baseURL)

	var page pageContent
	var text strings.Builder
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if page.Title == "" && n.FirstChild != nil {
					page.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a":
				if link := absoluteHref(n, base); link != "" && !seen[link] && len(page.Links) < maxLinks {
					seen[link] = true
					page.Links = append(page.Links, link)
				}
			}
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				if text.Len() > 0 {
					text.WriteByte(' ')
				}
				text.WriteString(t)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	page.Text = truncate(collapseSpace(text.String()), maxTextLen)
	return page
}

// absoluteHref resolves an anchor's href against the page URL, dropping
// fragments, javascript: pseudo-links and anything unparsable.
func absoluteHref(n *html.Node, base *url.URL) string {
	for _, attr := range n.Attr {
		if attr.Key != "href" {
			continue
		}
		href := strings.TrimSpace(attr.Val)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return ""
		}
		ref, err := url.Parse(href)
		if err != nil {
			return ""
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}
		if ref.Scheme != "http" && ref.Scheme != "https" {
			return ""
		}
		ref.Fragment = ""
		return ref.String()
	}
	return ""
}

func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}
