package inkbunny

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"furapi/lib/fetch"
	"furapi/lib/model"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestAPIInt(t *testing.T) {
	var payload struct {
		Bare   apiInt `json:"bare"`
		Quoted apiInt `json:"quoted"`
		Empty  apiInt `json:"empty"`
		Null   apiInt `json:"null"`
	}
	err := json.Unmarshal([]byte(`{"bare": 7, "quoted": "42", "empty": "", "null": null}`), &payload)
	require.NoError(t, err)
	require.EqualValues(t, 7, payload.Bare)
	require.EqualValues(t, 42, payload.Quoted)
	require.EqualValues(t, 0, payload.Empty)
	require.EqualValues(t, 0, payload.Null)

	var bad apiInt
	require.Error(t, json.Unmarshal([]byte(`"seven"`), &bad))
}

func TestAPIError(t *testing.T) {
	require.NoError(t, apiError{}.err())

	code := 2
	err := apiError{ErrorCode: &code, ErrorMessage: "invalid session id"}.err()
	require.ErrorIs(t, err, fetch.ErrServerError)

	var siteErr *fetch.SiteError
	require.ErrorAs(t, err, &siteErr)
	require.Equal(t, "invalid session id", siteErr.Message)
}

func TestSubmissionPartial(t *testing.T) {
	var card apiSubmission
	err := json.Unmarshal([]byte(`{
		"submission_id": "12345",
		"title": "Test",
		"username": "Fender",
		"rating_name": "Adult",
		"type_name": "Picture/Pinup",
		"thumbnail_url_medium_noncustom": "https://nl.ib.metapix.net/thumbs/medium/12345.jpg"
	}`), &card)
	require.NoError(t, err)

	partial, err := card.partial()
	require.NoError(t, err)
	require.EqualValues(t, 12345, partial.ID)
	require.Equal(t, "Test", partial.Title)
	require.Equal(t, model.RatingExplicit, partial.Rating)
	require.Equal(t, model.TypeImage, partial.Type)
	require.Equal(t, "https://nl.ib.metapix.net/thumbs/medium/12345.jpg", partial.ThumbnailURL)
}

func TestSubmissionPartialUnknownRating(t *testing.T) {
	_, err := apiSubmission{RatingName: "Radioactive", TypeName: "Comic"}.partial()
	var vocabErr *model.VocabularyError
	require.ErrorAs(t, err, &vocabErr)
	require.Equal(t, "Radioactive", vocabErr.Value)
}

func TestParseDatetime(t *testing.T) {
	posted, err := parseDatetime("2021-05-02 12:49:00.000000+00")
	require.NoError(t, err)
	require.Equal(t, time.Date(2021, 5, 2, 12, 49, 0, 0, time.UTC), posted.UTC())

	_, err = parseDatetime("whenever")
	require.Error(t, err)
}

func TestSubmissionDetail(t *testing.T) {
	card := apiSubmission{
		SubmissionID:   99,
		Title:          "Scrapped",
		Username:       "Fender",
		RatingName:     "General",
		TypeName:       "Writing - Document",
		CreateDatetime: "2021-05-02 12:49:00+00",
		Favorite:       "t",
		Scraps:         "t",
		FileFull:       "https://nl.ib.metapix.net/files/full/99.txt",
		FilePreview:    "https://nl.ib.metapix.net/files/preview/99.txt",
		Keywords: []struct {
			KeywordName string `json:"keyword_name"`
		}{{"wolf"}, {"drama"}},
		Pools: []struct {
			PoolID apiInt `json:"pool_id"`
			Name   string `json:"name"`
		}{{5, "Long Saga"}},
	}

	sub, err := card.submission()
	require.NoError(t, err)
	require.Equal(t, "https://inkbunny.net/s/99", sub.URL)
	require.Equal(t, "scraps", sub.Folder)
	require.True(t, sub.Favorite)
	require.Equal(t, []string{"drama", "wolf"}, sub.Tags)
	require.Equal(t, "https://nl.ib.metapix.net/files/full/99.txt", sub.FileURL)
	require.Len(t, sub.UserFolders, 1)
	require.Equal(t, "Long Saga", sub.UserFolders[0].Name)
	require.Equal(t, "https://inkbunny.net/poolview_process.php?pool_id=5", sub.UserFolders[0].URL)
}

const userPageFixture = `
<html><head>
<meta property="og:image" content="https://nl.ib.metapix.net/usericons/large/fender.png">
</head><body>
<div id="usernavigation"><div class="loggedin_userdetails">
  <a class="widget_userNameSmall" href="/Fender">Fender</a>
</div></div>
<div class="title">Profile</div>
<div><span>Hello, I draw <b>wolves</b>.</span></div>
<div class="title">Links and Contact Details</div>
<div>
  <span></span>
  <div><div>Telegram</div><div><a href="https://t.me/fender">@fender</a></div></div>
  <div><div>Website</div><div><a href="https://fender.example">fender.example</a></div></div>
</div>
<span title="Submission Views Received"><strong>1,234</strong></span>
<span title="Submissions Uploaded"><strong>56</strong></span>
<span title="Favorites Received"><strong>789</strong></span>
<span title="Comments Received"><strong>12</strong></span>
<span title="Comments Given"><strong>34</strong></span>
<span title="Journals Created"><strong>5</strong></span>
<span title="Watches Received"><strong>67</strong></span>
<div id="watches"><strong>89</strong></div>
<input id="widget-watchbox-watchstate" value="true">
</body></html>`

func TestParseUserPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(userPageFixture))
	require.NoError(t, err)

	user, err := parseUserPage("Fender", doc)
	require.NoError(t, err)

	require.Equal(t, "Fender", user.Name)
	require.Equal(t, "fender", user.NameURL)
	require.Equal(t, "https://nl.ib.metapix.net/usericons/large/fender.png", user.AvatarURL)
	require.Contains(t, user.Profile, "wolves")

	require.EqualValues(t, 1234, user.Stats.Views)
	require.EqualValues(t, 56, user.Stats.Submissions)
	require.EqualValues(t, 789, user.Stats.Favorites)
	require.EqualValues(t, 12, user.Stats.CommentsEarned)
	require.EqualValues(t, 34, user.Stats.CommentsMade)
	require.EqualValues(t, 5, user.Stats.Journals)
	require.EqualValues(t, 67, user.Stats.WatchedBy)
	require.EqualValues(t, 89, user.Stats.Watching)

	require.Equal(t, map[string]string{
		"Telegram": "https://t.me/fender",
		"Website":  "https://fender.example",
	}, user.Contacts)
	require.True(t, user.Watched)
	require.False(t, user.Blocked)
}

func TestParseUserPageMissing(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body></body></html>`))
	require.NoError(t, err)

	_, err = parseUserPage("ghost", doc)
	require.ErrorIs(t, err, fetch.ErrNotFound)
}

func TestLoggedInUser(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(userPageFixture))
	require.NoError(t, err)
	require.Equal(t, "Fender", loggedInUser(doc))
}
