package textutil

import (
	"strings"

	"github.com/frustra/bbcode"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var bbcodeCompiler = newBBCodeCompiler()

func newBBCodeCompiler() bbcode.Compiler {
	compiler := bbcode.NewCompiler(true, true)
	compiler.SetTag("quote", func(node *bbcode.BBCodeNode) (*bbcode.HTMLTag, bool) {
		block := bbcode.NewHTMLTag("")
		block.Name = "blockquote"
		return block, true
	})
	return compiler
}

// BBCodeToHTML renders site-flavored BBCode to an HTML fragment.
func BBCodeToHTML(src string) string {
	return bbcodeCompiler.Compile(src)
}

// HTMLToBBCode converts a description fragment back to BBCode. Tags with no
// BBCode equivalent contribute their text content only, so the conversion
// never drops words. Unparsable input comes back unchanged.
func HTMLToBBCode(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return fragment
	}
	var buffer strings.Builder
	for _, node := range nodes {
		writeBBCode(node, &buffer)
	}
	return strings.TrimSpace(buffer.String())
}

func writeBBCode(node *html.Node, buffer *strings.Builder) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	if node.Type != html.ElementNode {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			writeBBCode(child, buffer)
		}
		return
	}

	open, closing := "", ""
	switch node.Data {
	case "br":
		buffer.WriteString("\n")
		return
	case "hr":
		buffer.WriteString("\n-----\n")
		return
	case "b", "strong":
		open, closing = "[b]", "[/b]"
	case "i", "em":
		open, closing = "[i]", "[/i]"
	case "u":
		open, closing = "[u]", "[/u]"
	case "s", "strike", "del":
		open, closing = "[s]", "[/s]"
	case "sub":
		open, closing = "[sub]", "[/sub]"
	case "sup":
		open, closing = "[sup]", "[/sup]"
	case "blockquote":
		open, closing = "[quote]", "[/quote]"
	case "code", "pre":
		open, closing = "[code]", "[/code]"
	case "a":
		if href := attr(node, "href"); href != "" {
			open, closing = "[url="+href+"]", "[/url]"
		}
	case "img":
		if src := attr(node, "src"); src != "" {
			buffer.WriteString("[img]" + src + "[/img]")
		}
		return
	case "p", "div":
		defer buffer.WriteString("\n")
	}

	buffer.WriteString(open)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		writeBBCode(child, buffer)
	}
	buffer.WriteString(closing)
}

func attr(node *html.Node, key string) string {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
