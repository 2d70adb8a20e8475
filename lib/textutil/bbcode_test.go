package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBBCodeToHTML(t *testing.T) {
	require.Equal(t, "<b>bold</b>", BBCodeToHTML("[b]bold[/b]"))

	html := BBCodeToHTML("[url=https://example.com]link[/url]")
	require.Contains(t, html, `href="https://example.com"`)
	require.Contains(t, html, ">link</a>")

	require.Contains(t, BBCodeToHTML("[quote]said[/quote]"), "<blockquote>")
}

func TestHTMLToBBCode(t *testing.T) {
	cases := map[string]string{
		"<b>bold</b>":                       "[b]bold[/b]",
		"<strong>bold</strong>":             "[b]bold[/b]",
		"<i>it</i> and <u>under</u>":        "[i]it[/i] and [u]under[/u]",
		`<a href="https://x.example">x</a>`: "[url=https://x.example]x[/url]",
		`<img src="https://x.example/i.png">`: "[img]https://x.example/i.png[/img]",
		"one<br>two":                        "one\ntwo",
		"<blockquote>said</blockquote>":     "[quote]said[/quote]",
		"<code>x := 1</code>":               "[code]x := 1[/code]",
		"<span>plain</span>":                "plain",
	}
	for input, expected := range cases {
		require.Equal(t, expected, HTMLToBBCode(input), "input %q", input)
	}
}

func TestHTMLToBBCodeKeepsText(t *testing.T) {
	// tags without a bbcode form keep their text content
	out := HTMLToBBCode(`<section><em>every</em> <var>word</var> survives</section>`)
	require.Equal(t, "[i]every[/i] word survives", out)
}
