package weasyl

import (
	"strings"
	"testing"

	"furapi/lib/model"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestSubmissionCardPartial(t *testing.T) {
	card := submissionCard{
		SubmitID: 2031439,
		Title:    "Sunset",
		Owner:    "Painter",
		Rating:   "moderate",
		Subtype:  "visual",
		Media: mediaMap{
			"thumbnail": {{URL: "https://cdn.weasyl.com/thumb/2031439.png"}},
		},
	}

	partial, err := card.partial()
	require.NoError(t, err)
	require.EqualValues(t, 2031439, partial.ID)
	require.Equal(t, "Sunset", partial.Title)
	require.Equal(t, "Painter", partial.Author.Name)
	require.Equal(t, model.RatingMature, partial.Rating)
	require.Equal(t, model.TypeImage, partial.Type)
	require.Equal(t, "https://cdn.weasyl.com/thumb/2031439.png", partial.ThumbnailURL)
}

func TestSubmissionCardUnknownVocabulary(t *testing.T) {
	var vocabErr *model.VocabularyError

	_, err := submissionCard{Rating: "radioactive", Subtype: "visual"}.partial()
	require.ErrorAs(t, err, &vocabErr)
	require.Equal(t, "radioactive", vocabErr.Value)

	_, err = submissionCard{Rating: "general", Subtype: "interpretive dance"}.partial()
	require.ErrorAs(t, err, &vocabErr)
	require.Equal(t, "submission type", vocabErr.Kind)
}

func TestSubmissionViewFolders(t *testing.T) {
	view := submissionView{
		SubmitID:   10,
		Title:      "In a folder",
		Owner:      "Painter",
		OwnerLogin: "painter",
		Rating:     "general",
		Subtype:    "literary",
		PostedAt:   "2021-05-02T12:49:00Z",
		FolderID:   7,
		FolderName: "Sketches",
	}

	sub, err := view.submission()
	require.NoError(t, err)
	require.Equal(t, "https://www.weasyl.com/submission/10", sub.URL)
	require.Equal(t, "gallery", sub.Folder)
	require.Len(t, sub.UserFolders, 1)
	require.Equal(t, "Sketches", sub.UserFolders[0].Name)
	require.Equal(t, "https://www.weasyl.com/submissions/painter?folderid=7", sub.UserFolders[0].URL)
}

func TestUserViewContacts(t *testing.T) {
	view := userView{
		Username:  "Painter",
		CreatedAt: "2015-01-01T00:00:00Z",
	}
	view.UserInfo.UserLinks = map[string][]string{
		"telegram": {"https://t.me/painter"},
		"website":  {"https://painter.example", "https://blog.painter.example"},
	}

	user, err := view.user()
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"telegram":  "https://t.me/painter",
		"website 1": "https://painter.example",
		"website 2": "https://blog.painter.example",
	}, user.Contacts)
}

const favoritesFixture = `
<div class="item">
  <a href="/~painter/submissions/2031439/sunset"><img src="https://cdn.weasyl.com/thumb/2031439.png"></a>
  <a class="title" title="Sunset">Sunset</a>
  <a class="byline" title="by Painter">Painter</a>
</div>
<div class="item">
  <a href="/submission/2031440"><img src="https://cdn.weasyl.com/thumb/2031440.png"></a>
  <a class="title" title="Moonrise">Moonrise</a>
  <a class="byline" title="by Sketcher">Sketcher</a>
</div>
<a href="/favorites?userid=54321&amp;feature=submit&amp;nextid=2031440">Next</a>`

func TestParseFavoritesPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(favoritesFixture))
	require.NoError(t, err)

	figures, next, err := parseFavoritesPage(doc)
	require.NoError(t, err)
	require.Len(t, figures, 2)

	require.EqualValues(t, 2031439, figures[0].ID)
	require.Equal(t, "Sunset", figures[0].Title)
	require.Equal(t, "Painter", figures[0].Author.Name)
	require.Equal(t, "https://cdn.weasyl.com/thumb/2031439.png", figures[0].ThumbnailURL)
	require.EqualValues(t, 2031440, figures[1].ID)

	require.Equal(t, "2031440", next)
}

func TestParseFavoritesLastPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div class="items"></div>`))
	require.NoError(t, err)

	figures, next, err := parseFavoritesPage(doc)
	require.NoError(t, err)
	require.Empty(t, figures)
	require.Equal(t, "", next)
}
