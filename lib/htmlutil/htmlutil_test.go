package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanHTML(t *testing.T) {
	in := "  <p>a   b</p> <!-- hidden -->\n<br />  more  "
	require.Equal(t, "<p>a b</p><br />more", CleanHTML(in))
}

func TestCleanText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		"<div>  one\n\ttwo   three </div>",
	))
	require.NoError(t, err)
	require.Equal(t, "one two three", CleanText(doc.Find("div")))
}

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div><a href="/one">One</a><a>NoHref</a></div>`,
	))
	require.NoError(t, err)

	anchors := GetAnchors(doc.Find("a"))
	require.Len(t, anchors, 2)
	require.Equal(t, Anchor{Name: "One", Href: "/one"}, anchors[0])
	require.Equal(t, Anchor{Name: "NoHref", Href: ""}, anchors[1])
}
