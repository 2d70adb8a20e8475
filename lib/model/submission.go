package model

import (
	"cmp"
	"time"

	"furapi/lib/textutil"
)

type SubmissionStats struct {
	Views     int64
	Comments  int64
	Favorites int64
}

func (s SubmissionStats) Export() map[string]any {
	return map[string]any{
		"views":     s.Views,
		"comments":  s.Comments,
		"favorites": s.Favorites,
	}
}

// SubmissionFolder is a user-curated folder a submission is filed under.
type SubmissionFolder struct {
	Name  string
	URL   string
	Group string
}

func (f SubmissionFolder) Export() map[string]any {
	return map[string]any{
		"name":  f.Name,
		"url":   f.URL,
		"group": f.Group,
	}
}

// SubmissionPartial is the listing-card view of a submission. It is only
// ever constructed from a listing figure; a full Submission is only ever
// constructed from a detail page, and the two never convert implicitly.
type SubmissionPartial struct {
	ID           int64
	Title        string
	Author       UserPartial
	Rating       Rating
	Type         SubmissionType
	ThumbnailURL string
}

func (s SubmissionPartial) Compare(other SubmissionPartial) int {
	return cmp.Compare(s.ID, other.ID)
}

func (s SubmissionPartial) Export() map[string]any {
	return map[string]any{
		"id":            s.ID,
		"title":         s.Title,
		"author":        s.Author.Export(),
		"rating":        string(s.Rating),
		"type":          string(s.Type),
		"thumbnail_url": s.ThumbnailURL,
	}
}

// Submission is the full detail-page view.
type Submission struct {
	ID     int64
	Title  string
	Author UserPartial
	// URL is the canonical page the submission lives at, composed by the
	// backend from its site root.
	URL  string
	Date time.Time
	Rating Rating
	Type   SubmissionType
	Stats  SubmissionStats

	Tags     []string
	Category string
	Species  string
	Gender   string

	Description string
	Footer      string
	Mentions    []string

	Folder      string
	UserFolders []SubmissionFolder

	// FileURLs lists every downloadable file; multi-part submissions
	// carry more than one. FileURL is the first, kept as a convenience.
	FileURL      string
	FileURLs     []string
	ThumbnailURL string

	// Prev and Next are sibling ids inside the author's gallery, zero at
	// either end.
	Prev int64
	Next int64

	// Favorite state comes from which toggle action the page offers:
	// an "unfavorite" link means the submission is currently favorited.
	Favorite           bool
	FavoriteToggleLink string

	Comments []*Comment
}

func (s *Submission) Compare(other *Submission) int {
	return cmp.Compare(s.ID, other.ID)
}

// DescriptionBBCode renders the description back to the BBCode form the
// sites accept in their posting forms.
func (s *Submission) DescriptionBBCode() string {
	return textutil.HTMLToBBCode(s.Description)
}

func (s *Submission) FooterBBCode() string {
	return textutil.HTMLToBBCode(s.Footer)
}

func (s *Submission) Export() map[string]any {
	folders := make([]map[string]any, 0, len(s.UserFolders))
	for _, f := range s.UserFolders {
		folders = append(folders, f.Export())
	}
	comments := make([]map[string]any, 0, len(s.Comments))
	for _, c := range s.Comments {
		comments = append(comments, c.Export())
	}
	return map[string]any{
		"id":                   s.ID,
		"title":                s.Title,
		"author":               s.Author.Export(),
		"url":                  s.URL,
		"date":                 s.Date,
		"rating":               string(s.Rating),
		"type":                 string(s.Type),
		"stats":                s.Stats.Export(),
		"tags":                 s.Tags,
		"category":             s.Category,
		"species":              s.Species,
		"gender":               s.Gender,
		"description":          s.Description,
		"footer":               s.Footer,
		"mentions":             s.Mentions,
		"folder":               s.Folder,
		"user_folders":         folders,
		"file_url":             s.FileURL,
		"file_urls":            s.FileURLs,
		"thumbnail_url":        s.ThumbnailURL,
		"prev":                 s.Prev,
		"next":                 s.Next,
		"favorite":             s.Favorite,
		"favorite_toggle_link": s.FavoriteToggleLink,
		"comments":             comments,
	}
}
