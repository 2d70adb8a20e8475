package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

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

// InnerHTML serializes the children of the selection's first node, without
// the node's own tag.
func InnerHTML(sel *goquery.Selection) string {
	h, err := sel.Html()
	if err != nil {
		return ""
	}
	return h
}

var (
	innerWhitespace = regexp.MustCompile(`\s\s+`)
	brWhitespace    = regexp.MustCompile(`\s*(<br\s*/?>)\s*`)
	htmlComment     = regexp.MustCompile(`<!--.*?-->`)
)

// CleanHTML strips comments, collapses runs of whitespace, and removes the
// whitespace around <br> tags so that stored HTML fragments compare stably
// across fetches.
func CleanHTML(fragment string) string {
	fragment = htmlComment.ReplaceAllString(fragment, "")
	fragment = innerWhitespace.ReplaceAllString(fragment, " ")
	fragment = brWhitespace.ReplaceAllString(fragment, "$1")
	return strings.TrimSpace(fragment)
}

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText extracts the selection's text with printable characters only
// and whitespace runs collapsed.
func CleanText(sel *goquery.Selection) string {
	text := removeNonPrintable(sel.Text())
	text = strings.Trim(text, " \t\n")
	return innerWhitespace.ReplaceAllString(text, " ")
}

type Anchor struct {
	Name string
	Href string
}

// GetAnchors collects the (text, href) pairs of every anchor node in the
// selection. Anchors without an href come back with Href == "".
func GetAnchors(sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	sel.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		anchors = append(anchors, Anchor{
			Name: CleanText(a),
			Href: href,
		})
	})
	return anchors
}
