package impl

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// firstImageFromHTML returns the first remotely hosted <img> in an item body,
// resolved against base. Embedded data: URIs are skipped since they cannot be
// sent as a photo URL.
func firstImageFromHTML(htmlText string, base string) string {
	if htmlText == "" || !strings.Contains(strings.ToLower(htmlText), "<img") {
		return ""
	}

	// Feed bodies are partial HTML, so parse as a fragment.
	ctx := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	nodes, err := html.ParseFragment(strings.NewReader(htmlText), ctx)
	if err != nil {
		return ""
	}

	var found string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n == nil || found != "" {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Img {
			// Lazy-loading attributes are checked after src.
			src := firstNonEmpty(attrValue(n, "src"), attrValue(n, "data-src"), attrValue(n, "data-original"), attrValue(n, "data-lazy-src"))
			if src != "" && !strings.HasPrefix(strings.ToLower(src), "data:") {
				found = resolveImageURL(base, src)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return found
}

func resolveImageURL(base, src string) string {
	ref, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return ""
	}
	if ref.IsAbs() || base == "" {
		return ref.String()
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref.String()
	}
	return baseURL.ResolveReference(ref).String()
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
