package model

import (
	"cmp"
	"time"

	"furapi/lib/textutil"
)

type JournalStats struct {
	Comments int64
}

func (s JournalStats) Export() map[string]any {
	return map[string]any{
		"comments": s.Comments,
	}
}

// JournalPartial is the listing view of a journal.
type JournalPartial struct {
	ID     int64
	Title  string
	Author UserPartial
	// URL is the canonical page the journal lives at, composed by the
	// backend from its site root.
	URL      string
	Date     time.Time
	Stats    JournalStats
	Content  string
	Mentions []string
}

// ContentBBCode renders the body back to the BBCode form the sites accept
// in their posting forms.
func (j JournalPartial) ContentBBCode() string {
	return textutil.HTMLToBBCode(j.Content)
}

func (j JournalPartial) Compare(other JournalPartial) int {
	return cmp.Compare(j.ID, other.ID)
}

func (j JournalPartial) Export() map[string]any {
	return map[string]any{
		"id":       j.ID,
		"title":    j.Title,
		"author":   j.Author.Export(),
		"url":      j.URL,
		"date":     j.Date,
		"stats":    j.Stats.Export(),
		"content":  j.Content,
		"mentions": j.Mentions,
	}
}

// Journal is the full journal-page view.
type Journal struct {
	JournalPartial

	Header   string
	Footer   string
	Comments []*Comment
}

func (j *Journal) HeaderBBCode() string {
	return textutil.HTMLToBBCode(j.Header)
}

func (j *Journal) FooterBBCode() string {
	return textutil.HTMLToBBCode(j.Footer)
}

func (j *Journal) Export() map[string]any {
	out := j.JournalPartial.Export()
	comments := make([]map[string]any, 0, len(j.Comments))
	for _, c := range j.Comments {
		comments = append(comments, c.Export())
	}
	out["header"] = j.Header
	out["footer"] = j.Footer
	out["comments"] = comments
	return out
}
