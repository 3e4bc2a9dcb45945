package htmlutil

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText concatenates every text node under node, markup is discarded.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// Text returns the trimmed text of the first node in the selection, or ""
// if the selection is empty.
func Text(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(GetText(sel.Nodes[0]))
}

type Anchor struct {
	Name string
	Href string
}

// FirstAnchor returns the first <a> found in sel (or sel itself if it is an anchor).
func FirstAnchor(sel *goquery.Selection) (Anchor, bool) {
	a := sel.Filter("a")
	if a.Length() == 0 {
		a = sel.Find("a")
	}
	if a.Length() == 0 {
		return Anchor{}, false
	}
	a = a.First()
	href, _ := a.Attr("href")
	return Anchor{
		Name: Text(a),
		Href: href,
	}, true
}
