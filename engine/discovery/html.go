package discovery

import (
	"strings"

	"golang.org/x/net/html"
)

// extractHrefs walks the parsed document and collects every anchor's href
// attribute, in document order.
func extractHrefs(document string) []string {
	node, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return nil
	}

	var hrefs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					hrefs = append(hrefs, attr.Val)
					break
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)
	return hrefs
}
