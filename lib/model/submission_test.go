package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubmissionBBCodeAccessors(t *testing.T) {
	sub := &Submission{
		Description: "a <b>bold</b> claim<br/>next line",
		Footer:      `<a href="https://example.com">link</a>`,
	}
	require.Equal(t, "a [b]bold[/b] claim\nnext line", sub.DescriptionBBCode())
	require.Equal(t, "[url=https://example.com]link[/url]", sub.FooterBBCode())
}

func TestJournalBBCodeAccessors(t *testing.T) {
	journal := &Journal{
		JournalPartial: JournalPartial{Content: "<i>soon</i>"},
		Header:         "<u>hi</u>",
		Footer:         "plain",
	}
	require.Equal(t, "[i]soon[/i]", journal.ContentBBCode())
	require.Equal(t, "[u]hi[/u]", journal.HeaderBBCode())
	require.Equal(t, "plain", journal.FooterBBCode())
}

func TestCommentTextBBCode(t *testing.T) {
	comment := &Comment{Text: "<blockquote>quoted</blockquote>reply"}
	require.Equal(t, "[quote]quoted[/quote]reply", comment.TextBBCode())
}

func TestSubmissionExportCarriesURL(t *testing.T) {
	sub := &Submission{ID: 12345, URL: "https://www.furaffinity.net/view/12345"}
	require.Equal(t, "https://www.furaffinity.net/view/12345", sub.Export()["url"])

	journal := &Journal{JournalPartial: JournalPartial{ID: 7, URL: "https://www.weasyl.com/journal/7"}}
	require.Equal(t, "https://www.weasyl.com/journal/7", journal.Export()["url"])
}
