package inkbunny

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"furapi/lib/fetch"
	"furapi/lib/htmlutil"
	"furapi/lib/model"
	"furapi/lib/textutil"
	"furapi/lib/timezone"

	"github.com/PuerkitoBio/goquery"
)

var ratingVocabulary = model.RatingVocabulary{
	"General": model.RatingGeneral,
	"Mature":  model.RatingMature,
	"Adult":   model.RatingExplicit,
}

var typeVocabulary = model.TypeVocabulary{
	"Comic":              model.TypeImage,
	"Picture/Pinup":      model.TypeImage,
	"Writing - Document": model.TypeText,
	"swf":                model.TypeFlash,
	"mp3":                model.TypeMusic,
}

// apiInt decodes the API's counters, which arrive as bare numbers or
// quoted strings depending on the endpoint.
type apiInt int64

func (n *apiInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	value, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*n = apiInt(value)
	return nil
}

// apiError is the API's error envelope, embedded in every response shape.
type apiError struct {
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func (e apiError) err() error {
	if e.ErrorCode == nil {
		return nil
	}
	return &fetch.SiteError{Kind: fetch.ErrServerError, Message: e.ErrorMessage}
}

// apiSubmission is the submission shape shared by the search and
// submission endpoints; the latter fills the detail fields. Image urls
// come in several sizes, picked best-first.
type apiSubmission struct {
	SubmissionID apiInt `json:"submission_id"`
	Title        string `json:"title"`
	Username     string `json:"username"`
	RatingName   string `json:"rating_name"`
	TypeName     string `json:"type_name"`

	ThumbnailHuge            string `json:"thumbnail_url_huge"`
	ThumbnailLarge           string `json:"thumbnail_url_large"`
	ThumbnailMedium          string `json:"thumbnail_url_medium"`
	ThumbnailHugeNonCustom   string `json:"thumbnail_url_huge_noncustom"`
	ThumbnailLargeNonCustom  string `json:"thumbnail_url_large_noncustom"`
	ThumbnailMediumNonCustom string `json:"thumbnail_url_medium_noncustom"`

	UserIconLarge  string `json:"user_icon_url_large"`
	UserIconMedium string `json:"user_icon_url_medium"`
	UserIconSmall  string `json:"user_icon_url_small"`

	FileFull    string `json:"file_url_full"`
	FileScreen  string `json:"file_url_screen"`
	FilePreview string `json:"file_url_preview"`

	CreateDatetime string `json:"create_datetime"`
	Views          apiInt `json:"views"`
	CommentsCount  apiInt `json:"comments_count"`
	FavoritesCount apiInt `json:"favorites_count"`
	Favorite       string `json:"favorite"`
	Scraps         string `json:"scraps"`
	Description    string `json:"description_bbcode_parsed"`

	Keywords []struct {
		KeywordName string `json:"keyword_name"`
	} `json:"keywords"`
	Pools []struct {
		PoolID apiInt `json:"pool_id"`
		Name   string `json:"name"`
	} `json:"pools"`
}

func firstOf(urls ...string) string {
	for _, u := range urls {
		if u != "" {
			return u
		}
	}
	return ""
}

func (s apiSubmission) thumbnail() string {
	return firstOf(
		s.ThumbnailHuge, s.ThumbnailLarge, s.ThumbnailMedium,
		s.ThumbnailHugeNonCustom, s.ThumbnailLargeNonCustom, s.ThumbnailMediumNonCustom,
	)
}

func (s apiSubmission) userIcon() string {
	return firstOf(s.UserIconLarge, s.UserIconMedium, s.UserIconSmall)
}

func (s apiSubmission) file() string {
	return firstOf(s.FileFull, s.FileScreen, s.FilePreview)
}

func (s apiSubmission) partial() (model.SubmissionPartial, error) {
	rating, err := ratingVocabulary.Parse(s.RatingName)
	if err != nil {
		return model.SubmissionPartial{}, err
	}
	kind, err := typeVocabulary.Parse(s.TypeName)
	if err != nil {
		return model.SubmissionPartial{}, err
	}
	return model.SubmissionPartial{
		ID:           int64(s.SubmissionID),
		Title:        s.Title,
		Author:       model.UserPartial{Name: s.Username},
		Rating:       rating,
		Type:         kind,
		ThumbnailURL: s.thumbnail(),
	}, nil
}

// datetimeZoneSuffix matches the bare-hour offsets ("+00") the API emits,
// which the date parser wants fully qualified.
var datetimeZoneSuffix = regexp.MustCompile(`([+-]\d{2})$`)

func parseDatetime(s string) (time.Time, error) {
	return timezone.ParseDate(datetimeZoneSuffix.ReplaceAllString(s, "$1:00"))
}

func (s apiSubmission) submission() (*model.Submission, error) {
	partial, err := s.partial()
	if err != nil {
		return nil, err
	}
	posted, err := parseDatetime(s.CreateDatetime)
	if err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(s.Keywords))
	for _, keyword := range s.Keywords {
		tags = append(tags, keyword.KeywordName)
	}
	sort.Strings(tags)

	folder := "gallery"
	if s.Scraps == "t" {
		folder = "scraps"
	}
	pools := make([]model.SubmissionFolder, 0, len(s.Pools))
	for _, pool := range s.Pools {
		pools = append(pools, model.SubmissionFolder{
			Name: pool.Name,
			URL:  root + "/poolview_process.php?pool_id=" + strconv.FormatInt(int64(pool.PoolID), 10),
		})
	}

	sub := &model.Submission{
		ID:     partial.ID,
		URL:    root + "/s/" + strconv.FormatInt(partial.ID, 10),
		Title:  partial.Title,
		Rating: partial.Rating,
		Type:   partial.Type,
		Author: model.UserPartial{
			Name:      s.Username,
			AvatarURL: s.userIcon(),
		},
		Date:         posted,
		Tags:         tags,
		Description:  s.Description,
		Folder:       folder,
		UserFolders:  pools,
		ThumbnailURL: partial.ThumbnailURL,
		Favorite:     s.Favorite == "t",
		Stats: model.SubmissionStats{
			Views:     int64(s.Views),
			Comments:  int64(s.CommentsCount),
			Favorites: int64(s.FavoritesCount),
		},
	}
	if fileURL := s.file(); fileURL != "" {
		sub.FileURL = fileURL
		sub.FileURLs = []string{fileURL}
	}
	return sub, nil
}

type submissionsResponse struct {
	apiError
	Submissions []apiSubmission `json:"submissions"`
}

type searchResponse struct {
	apiError
	RID         string          `json:"rid"`
	Page        apiInt          `json:"page"`
	PagesCount  apiInt          `json:"pages_count"`
	Submissions []apiSubmission `json:"submissions"`
}

type watchlistResponse struct {
	apiError
	Watches []struct {
		Username string `json:"username"`
	} `json:"watches"`
}

// loggedInUser reads the session user from the page header widget.
func loggedInUser(doc *goquery.Document) string {
	return doc.Find("#usernavigation .loggedin_userdetails a.widget_userNameSmall").First().Text()
}

// findTitledSection locates a titled profile block: a div.title holding
// the given heading, whose following sibling wraps the content span.
func findTitledSection(doc *goquery.Document, title string) *goquery.Selection {
	var section *goquery.Selection
	doc.Find("div.title").EachWithBreak(func(_ int, heading *goquery.Selection) bool {
		if strings.TrimSpace(heading.Text()) != title {
			return true
		}
		section = heading.Next().Find("span").First()
		return false
	})
	return section
}

func parseStatCounter(doc *goquery.Document, title string) (int64, error) {
	tag := doc.Find(`span[title="` + title + `"] > strong`).First()
	if tag.Length() == 0 {
		return 0, fetch.Missing(`"` + title + `" counter`)
	}
	return textutil.ParseCount(tag.Text())
}

func parseContacts(doc *goquery.Document) map[string]string {
	contacts := map[string]string{}
	section := findTitledSection(doc, "Links and Contact Details")
	if section == nil {
		return contacts
	}
	section.NextAll().Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("div")
		if cells.Length() != 2 {
			return
		}
		site := strings.TrimSpace(cells.Eq(0).Text())
		link, ok := cells.Eq(1).Find("a").First().Attr("href")
		if ok && site != "" {
			contacts[site] = link
		}
	})
	return contacts
}

// parseUserPage reads a profile page. Profiles expose no join date and no
// display title, and the watch/block toggles are form widgets rather than
// links, so those fields stay empty.
func parseUserPage(name string, doc *goquery.Document) (*model.User, error) {
	profileTag := findTitledSection(doc, "Profile")
	if profileTag == nil {
		return nil, &fetch.SiteError{Kind: fetch.ErrNotFound, Message: "user profile not found"}
	}
	profile := htmlutil.CleanHTML(htmlutil.InnerHTML(profileTag))

	var stats model.UserStats
	for title, field := range map[string]*int64{
		"Submission Views Received": &stats.Views,
		"Submissions Uploaded":      &stats.Submissions,
		"Favorites Received":        &stats.Favorites,
		"Comments Received":         &stats.CommentsEarned,
		"Comments Given":            &stats.CommentsMade,
		"Journals Created":          &stats.Journals,
		"Watches Received":          &stats.WatchedBy,
	} {
		value, err := parseStatCounter(doc, title)
		if err != nil {
			return nil, err
		}
		*field = value
	}
	watchesTag := doc.Find("#watches strong").First()
	if watchesTag.Length() == 0 {
		return nil, fetch.Missing("watches counter")
	}
	watching, err := textutil.ParseCount(watchesTag.Text())
	if err != nil {
		return nil, err
	}
	stats.Watching = watching

	avatarURL, _ := doc.Find(`meta[property="og:image"]`).First().Attr("content")

	watchState, _ := doc.Find("#widget-watchbox-watchstate").First().Attr("value")
	blocked := strings.Contains(
		doc.Find("#block_remove_form").First().Next().Text(),
		"UnBlock user's submissions.",
	)

	return &model.User{
		UserPartial: model.UserPartial{
			Name:      name,
			NameURL:   textutil.Slug(name),
			AvatarURL: avatarURL,
		},
		Profile:  profile,
		Stats:    stats,
		Info:     map[string]string{},
		Contacts: parseContacts(doc),
		Watched:  watchState == "true",
		Blocked:  blocked,
	}, nil
}
