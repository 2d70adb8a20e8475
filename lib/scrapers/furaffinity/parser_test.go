package furaffinity

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"furapi/lib/fetch"
	"furapi/lib/model"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func document(t *testing.T, html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

const figuresFixture = `
<html><head><title>Gallery</title></head><body>
<section class="gallery">
  <figure id="sid-12345" class="r-adult t-image">
    <b><u><a href="/view/12345/"><img src="//t.furaffinity.net/12345@200-1.jpg"></a></u></b>
    <figcaption>
      <p><a href="/view/12345/" title="Test">Test</a></p>
      <p>by <a href="/user/fender/" title="Fender">Fender</a></p>
    </figcaption>
  </figure>
  <figure id="sid-12346" class="r-general t-text">
    <b><u><a href="/view/12346/"><img src="//t.furaffinity.net/12346@200-2.jpg"></a></u></b>
    <figcaption>
      <p><a href="/view/12346/" title="Story">Story</a></p>
      <p>by <a href="/user/fender/" title="Fender">Fender</a></p>
    </figcaption>
  </figure>
</section>
</body></html>`

func TestParseSubmissionFigures(t *testing.T) {
	doc := document(t, figuresFixture)
	figures, err := parseSubmissionFigures(doc)
	require.NoError(t, err)
	require.Len(t, figures, 2)

	first := figures[0]
	require.EqualValues(t, 12345, first.ID)
	require.Equal(t, "Test", first.Title)
	require.Equal(t, model.RatingExplicit, first.Rating)
	require.Equal(t, model.TypeImage, first.Type)
	require.Equal(t, "fender", first.Author.NameURL)
	require.Equal(t, "https://t.furaffinity.net/12345@200-1.jpg", first.ThumbnailURL)

	require.Equal(t, model.RatingGeneral, figures[1].Rating)
	require.Equal(t, model.TypeText, figures[1].Type)
}

func TestParseSubmissionFigureUnknownRating(t *testing.T) {
	doc := document(t, `<figure id="sid-1" class="r-ultra t-image"><figcaption><a href="/view/1/">x</a></figcaption></figure>`)
	_, err := parseSubmissionFigure(doc.Find("figure").First())
	var vocabErr *model.VocabularyError
	require.ErrorAs(t, err, &vocabErr)
}

const commentsFixture = `
<div id="comments-submission">
  <div class="comment_container" style="width:100%">
    <a id="cid:100"></a>
    <div class="comment_username">Alice</div>
    <span class="popup_date" title="May 2, 2021 12:00 PM">2 hours ago</span>
    <div class="comment_text">first</div>
  </div>
  <div class="comment_container" style="width:97%">
    <a id="cid:101"></a>
    <div class="comment_username">Bob</div>
    <span class="popup_date" title="May 2, 2021 12:10 PM">2 hours ago</span>
    <div class="comment_text">reply to first</div>
  </div>
  <div class="comment_container" style="width:94%">
    <a id="cid:102"></a>
    <div class="comment_username">Alice</div>
    <span class="popup_date" title="May 2, 2021 12:20 PM">an hour ago</span>
    <div class="comment_text">reply to reply</div>
  </div>
  <div class="comment_container" style="width:100%">
    <a id="cid:103"></a>
    <div class="comment_username">Carol</div>
    <span class="popup_date" title="May 2, 2021 12:30 PM">an hour ago</span>
    <div class="comment-deleted">Comment hidden by its owner</div>
  </div>
</div>`

func TestParseCommentsNesting(t *testing.T) {
	comments := parseComments(document(t, commentsFixture))
	require.Len(t, comments, 4)

	byID := map[int64]*model.Comment{}
	for _, c := range comments {
		byID[c.ID] = c
	}
	require.EqualValues(t, 0, byID[100].ReplyToID)
	require.EqualValues(t, 100, byID[101].ReplyToID)
	require.EqualValues(t, 101, byID[102].ReplyToID)
	require.EqualValues(t, 0, byID[103].ReplyToID)

	require.True(t, byID[103].Hidden)
	require.False(t, byID[100].Hidden)
	require.Equal(t, "alice", byID[100].Author.NameURL)

	roots := model.SortComments(comments)
	require.Len(t, roots, 2)
	require.Len(t, roots[0].Replies, 1)
	require.Len(t, roots[0].Replies[0].Replies, 1)
}

func TestParseFavoritesNext(t *testing.T) {
	doc := document(t, `
<div class="submission-list">
  <a class="button" href="/favorites/fender/1400000000/next/">Next 48</a>
</div>`)
	require.Equal(t, "1400000000/next", parseFavoritesNext(doc))

	lastPage := document(t, `<div class="submission-list"></div>`)
	require.Equal(t, "", parseFavoritesNext(lastPage))
}

func TestParseWatchlist(t *testing.T) {
	doc := document(t, `
<div class="watch-list">
  <div class="watch-list-item"><a href="/user/alice/">~alice</a></div>
  <div class="watch-list-item"><a href="/user/bob/">!bob</a></div>
</div>
<div class="section-footer">
  <a class="button" href="/watchlist/to/fender/2/">Next 200</a>
</div>`)

	entries, next := parseWatchlist(doc)
	require.Len(t, entries, 2)
	require.Equal(t, watchlistEntry{status: "~", name: "alice"}, entries[0])
	require.Equal(t, watchlistEntry{status: "!", name: "bob"}, entries[1])
	require.EqualValues(t, 2, next)
}

func TestCheckPage(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		err := checkPage(document(t, `<html><head><title></title></head><body></body></html>`))
		require.ErrorIs(t, err, fetch.ErrNonePage)
	})
	t.Run("system error", func(t *testing.T) {
		err := checkPage(document(t, `<html><head><title>System Error</title></head><body><div class="section-body">it broke</div></body></html>`))
		require.ErrorIs(t, err, fetch.ErrServerError)
	})
	t.Run("not found", func(t *testing.T) {
		err := checkPage(document(t, `<html><head><title>Notice</title></head><body>
<section class="notice-message"><div class="section-body">The submission you are trying to find is not in our database.</div></section>
</body></html>`))
		require.ErrorIs(t, err, fetch.ErrNotFound)
	})
	t.Run("healthy", func(t *testing.T) {
		require.NoError(t, checkPage(document(t, `<html><head><title>Gallery</title></head><body></body></html>`)))
	})
}

func TestLoggedInUser(t *testing.T) {
	doc := document(t, `<a id="my-username" href="/user/fender/">~Fender</a>`)
	require.Equal(t, "fender", loggedInUser(doc))

	require.Equal(t, "", loggedInUser(document(t, `<div></div>`)))
}

func submissionFixture(favorited bool) string {
	toggle := `<a href="/fav/12345/?key=abc">+Fav</a>`
	if favorited {
		toggle = `<a href="/unfav/12345/?key=abc">-Fav</a>`
	}
	return fmt.Sprintf(`
<html><head>
<title>Test -- Fur Affinity</title>
<meta property="og:url" content="https://www.furaffinity.net/view/12345/">
</head><body>
<div class="submission-title"><h2>Test</h2></div>
<div class="submission-id-sub-container">
  <a href="/user/fender/">Fender</a>
  <span class="popup_date" title="May 2, 2021 12:49 PM">May 2, 2021 12:49 PM</span>
</div>
<div class="rating"><span class="rating-box">Adult</span></div>
<section class="info text">
  <div><strong>Category</strong><span>Artwork (Digital)</span></div>
  <div><strong>Species</strong><span>Wolf</span></div>
</section>
<section class="tags-row"><a href="/search/@keywords wolf">wolf</a></section>
<section class="stats-container">
  <div class="views"><span>1,234</span></div>
  <div class="comments"><span>5</span></div>
  <div class="favorites"><span>67</span></div>
</section>
<div class="submission-description">hello</div>
<div class="download"><a href="//d.furaffinity.net/art/fender/12345/full.png">Download</a></div>
<div class="favorite-nav">
  <a href="/view/12344/">Prev</a>
  %s
  <a href="/view/12346/">Next</a>
</div>
</body></html>`, toggle)
}

func TestParseSubmissionPage(t *testing.T) {
	sub, err := parseSubmissionPage(document(t, submissionFixture(false)))
	require.NoError(t, err)

	require.EqualValues(t, 12345, sub.ID)
	require.Equal(t, "https://www.furaffinity.net/view/12345", sub.URL)
	require.Equal(t, "Test", sub.Title)
	require.Equal(t, "fender", sub.Author.NameURL)
	require.Equal(t, model.RatingExplicit, sub.Rating)
	require.Equal(t, model.TypeImage, sub.Type)
	require.Equal(t, "Wolf", sub.Species)
	require.Equal(t, []string{"wolf"}, sub.Tags)
	require.Equal(t, time.Date(2021, 5, 2, 12, 49, 0, 0, time.UTC), sub.Date)
	require.EqualValues(t, 1234, sub.Stats.Views)
	require.Equal(t, "https://d.furaffinity.net/art/fender/12345/full.png", sub.FileURL)
	require.EqualValues(t, 12344, sub.Prev)
	require.EqualValues(t, 12346, sub.Next)

	// only the favorite link is present, so the submission is not favorited
	// and the toggle points at it
	require.False(t, sub.Favorite)
	require.Equal(t, "https://www.furaffinity.net/fav/12345/?key=abc", sub.FavoriteToggleLink)
}

func TestParseSubmissionPageFavorited(t *testing.T) {
	sub, err := parseSubmissionPage(document(t, submissionFixture(true)))
	require.NoError(t, err)
	require.True(t, sub.Favorite)
	require.Equal(t, "https://www.furaffinity.net/unfav/12345/?key=abc", sub.FavoriteToggleLink)
}

func TestParseUserHeader(t *testing.T) {
	cases := map[string]struct {
		meta      string
		title     string
		hasJoined bool
	}{
		"title and join date": {"Artist | Member Since: May 2, 2021", "Artist", true},
		"join date only":      {"Member Since: May 2, 2021", "", true},
		"title only":          {"Just A Title", "Just A Title", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			doc := document(t, fmt.Sprintf(`
<div class="username">
  <h2><span>~Fender</span></h2>
  <span class="font-small">%s</span>
</div>`, tc.meta))

			info, err := parseUserHeader(doc)
			require.NoError(t, err)
			require.Equal(t, "Fender", info.partial.Name)
			require.Equal(t, "~", info.partial.Status)
			require.Equal(t, tc.title, info.partial.Title)
			if tc.hasJoined {
				require.Equal(t, time.Date(2021, 5, 2, 0, 0, 0, 0, time.UTC), info.partial.JoinDate)
			} else {
				require.True(t, info.partial.JoinDate.IsZero())
			}
		})
	}
}

func TestUniqueFigures(t *testing.T) {
	figures, err := parseSubmissionFigures(document(t, figuresFixture))
	require.NoError(t, err)
	require.Len(t, figures, 2)

	// the landing page repeats submissions across its sections
	doubled := append(append([]model.SubmissionPartial{}, figures...), figures...)
	unique := uniqueFigures(doubled)
	require.Len(t, unique, 2)
	require.EqualValues(t, 12345, unique[0].ID)
	require.EqualValues(t, 12346, unique[1].ID)
}

func TestSearchNextButton(t *testing.T) {
	doc := document(t, `<div id="search-results"><a class="button" href="/search/?page=2">Next 48</a></div>`)
	require.True(t, hasNextButton(doc, "div#search-results"))

	last := document(t, `<div id="search-results"><a class="button" href="/search/?page=1">Back</a></div>`)
	require.False(t, hasNextButton(last, "div#search-results"))
}

func TestCategoryType(t *testing.T) {
	require.Equal(t, "text", categoryType("Story"))
	require.Equal(t, "music", categoryType("Music / Audio"))
	require.Equal(t, "flash", categoryType("Flash Animation"))
	require.Equal(t, "image", categoryType("Artwork (Digital)"))
}
