package weasyl

import (
	"fmt"
	"regexp"
	"strconv"

	"furapi/lib/fetch"
	"furapi/lib/model"
	"furapi/lib/timezone"

	"github.com/PuerkitoBio/goquery"
)

var ratingVocabulary = model.RatingVocabulary{
	"general":  model.RatingGeneral,
	"moderate": model.RatingMature,
	"mature":   model.RatingMature,
	"explicit": model.RatingExplicit,
}

// typeVocabulary keys the API's subtype field, which is the only
// media-kind signal the site exposes.
var typeVocabulary = model.TypeVocabulary{
	"visual":     model.TypeImage,
	"literary":   model.TypeText,
	"multimedia": model.TypeMusic,
}

// mediaFile is one entry in the API's media maps, keyed by purpose
// ("submission", "thumbnail", "thumbnail-generated", "avatar", ...).
type mediaFile struct {
	URL string `json:"url"`
}

type mediaMap map[string][]mediaFile

// first returns the url of the first file under the first present key.
func (m mediaMap) first(keys ...string) string {
	for _, key := range keys {
		if files := m[key]; len(files) > 0 {
			return files[0].URL
		}
	}
	return ""
}

type whoamiResponse struct {
	Login  string `json:"login"`
	UserID int64  `json:"userid"`
}

// submissionCard is the listing shape shared by the frontpage and gallery
// endpoints.
type submissionCard struct {
	SubmitID int64    `json:"submitid"`
	Title    string   `json:"title"`
	Owner    string   `json:"owner"`
	Rating   string   `json:"rating"`
	Subtype  string   `json:"subtype"`
	Media    mediaMap `json:"media"`
}

func (card submissionCard) partial() (model.SubmissionPartial, error) {
	rating, err := ratingVocabulary.Parse(card.Rating)
	if err != nil {
		return model.SubmissionPartial{}, err
	}
	kind, err := typeVocabulary.Parse(card.Subtype)
	if err != nil {
		return model.SubmissionPartial{}, err
	}
	return model.SubmissionPartial{
		ID:           card.SubmitID,
		Title:        card.Title,
		Author:       model.UserPartial{Name: card.Owner},
		Rating:       rating,
		Type:         kind,
		ThumbnailURL: card.Media.first("thumbnail", "thumbnail-generated"),
	}, nil
}

type galleryResponse struct {
	Submissions []submissionCard `json:"submissions"`
	NextID      *int64           `json:"nextid"`
	BackID      *int64           `json:"backid"`
}

type submissionView struct {
	SubmitID    int64    `json:"submitid"`
	Title       string   `json:"title"`
	Owner       string   `json:"owner"`
	OwnerLogin  string   `json:"owner_login"`
	OwnerMedia  mediaMap `json:"owner_media"`
	Media       mediaMap `json:"media"`
	Rating      string   `json:"rating"`
	Subtype     string   `json:"subtype"`
	PostedAt    string   `json:"posted_at"`
	Tags        []string `json:"tags"`
	Views       int64    `json:"views"`
	Comments    int64    `json:"comments"`
	Favorites   int64    `json:"favorites"`
	Favorited   bool     `json:"favorited"`
	FolderID    int64    `json:"folderid"`
	FolderName  string   `json:"folder_name"`
	Description string   `json:"description"`
}

func (view submissionView) submission() (*model.Submission, error) {
	rating, err := ratingVocabulary.Parse(view.Rating)
	if err != nil {
		return nil, err
	}
	kind, err := typeVocabulary.Parse(view.Subtype)
	if err != nil {
		return nil, err
	}
	posted, err := timezone.ParseDate(view.PostedAt)
	if err != nil {
		return nil, err
	}

	sub := &model.Submission{
		ID:  view.SubmitID,
		URL: fmt.Sprintf("%s/submission/%d", root, view.SubmitID),
		Author: model.UserPartial{
			Name:      view.Owner,
			NameURL:   view.OwnerLogin,
			AvatarURL: view.OwnerMedia.first("avatar"),
		},
		Title:        view.Title,
		Date:         posted,
		Rating:       rating,
		Type:         kind,
		Tags:         view.Tags,
		Description:  view.Description,
		Folder:       "gallery",
		ThumbnailURL: view.Media.first("thumbnail-generated", "thumbnail"),
		Favorite:     view.Favorited,
		Stats: model.SubmissionStats{
			Views:     view.Views,
			Comments:  view.Comments,
			Favorites: view.Favorites,
		},
	}
	if fileURL := view.Media.first("submission"); fileURL != "" {
		sub.FileURL = fileURL
		sub.FileURLs = []string{fileURL}
	}
	if view.FolderID != 0 {
		sub.UserFolders = []model.SubmissionFolder{{
			Name: view.FolderName,
			URL:  fmt.Sprintf("%s/submissions/%s?folderid=%d", root, view.OwnerLogin, view.FolderID),
		}}
	}
	return sub, nil
}

type journalView struct {
	JournalID  int64    `json:"journalid"`
	Title      string   `json:"title"`
	Owner      string   `json:"owner"`
	OwnerLogin string   `json:"owner_login"`
	OwnerMedia mediaMap `json:"owner_media"`
	PostedAt   string   `json:"posted_at"`
	Comments   int64    `json:"comments"`
	Content    string   `json:"content"`
}

func (view journalView) journal() (*model.Journal, error) {
	posted, err := timezone.ParseDate(view.PostedAt)
	if err != nil {
		return nil, err
	}
	return &model.Journal{
		JournalPartial: model.JournalPartial{
			ID:    view.JournalID,
			URL:   fmt.Sprintf("%s/journal/%d", root, view.JournalID),
			Title: view.Title,
			Author: model.UserPartial{
				Name:      view.Owner,
				NameURL:   view.OwnerLogin,
				AvatarURL: view.OwnerMedia.first("avatar"),
			},
			Date:    posted,
			Stats:   model.JournalStats{Comments: view.Comments},
			Content: view.Content,
		},
	}, nil
}

type userView struct {
	UserID      int64  `json:"userid"`
	Username    string `json:"username"`
	FullName    string `json:"full_name"`
	Catchphrase string `json:"catchphrase"`
	CreatedAt   string `json:"created_at"`
	ProfileText string `json:"profile_text"`

	Media      mediaMap `json:"media"`
	Statistics struct {
		PageViews   int64 `json:"page_views"`
		Submissions int64 `json:"submissions"`
		Journals    int64 `json:"journals"`
		FavesSent   int64 `json:"faves_sent"`
		Followed    int64 `json:"followed"`
		Following   int64 `json:"following"`
	} `json:"statistics"`

	UserInfo struct {
		Age        string              `json:"age"`
		Gender     string              `json:"gender"`
		Location   string              `json:"location"`
		Occupation string              `json:"occupation"`
		UserLinks  map[string][]string `json:"user_links"`
	} `json:"user_info"`
	CommissionInfo map[string]string `json:"commission_info"`

	Relationship struct {
		Follow bool `json:"follow"`
	} `json:"relationship"`
}

func (view userView) user() (*model.User, error) {
	joined, err := timezone.ParseDate(view.CreatedAt)
	if err != nil {
		return nil, err
	}

	info := map[string]string{}
	for key, value := range map[string]string{
		"age":        view.UserInfo.Age,
		"gender":     view.UserInfo.Gender,
		"location":   view.UserInfo.Location,
		"occupation": view.UserInfo.Occupation,
	} {
		if value != "" {
			info[key] = value
		}
	}
	for key, value := range view.CommissionInfo {
		if value != "" {
			info[key] = value
		}
	}

	// Each contact site can carry several urls; extras get a numeric
	// suffix so the map stays flat.
	contacts := map[string]string{}
	for site, urls := range view.UserInfo.UserLinks {
		if len(urls) == 1 {
			contacts[site] = urls[0]
			continue
		}
		for i, u := range urls {
			contacts[fmt.Sprintf("%s %d", site, i+1)] = u
		}
	}

	return &model.User{
		UserPartial: model.UserPartial{
			Name:      view.Username,
			Status:    view.Catchphrase,
			Title:     view.FullName,
			JoinDate:  joined,
			AvatarURL: view.Media.first("avatar"),
		},
		Profile: view.ProfileText,
		Stats: model.UserStats{
			Views:       view.Statistics.PageViews,
			Submissions: view.Statistics.Submissions,
			Journals:    view.Statistics.Journals,
			Favorites:   view.Statistics.FavesSent,
			WatchedBy:   view.Statistics.Followed,
			Watching:    view.Statistics.Following,
		},
		Info:     info,
		Contacts: contacts,
		Watched:  view.Relationship.Follow,
	}, nil
}

// The favorites listing has no API endpoint, so it is the one page this
// backend scrapes as HTML.

var (
	submissionHrefID = regexp.MustCompile(`/submissions?/(\d+)`)
	favoritesNextID  = regexp.MustCompile(`^/favorites\?userid=\d+&feature=submit&nextid=(\d+)$`)
)

func parseFavoriteFigure(figure *goquery.Selection) (model.SubmissionPartial, error) {
	var partial model.SubmissionPartial

	href, ok := figure.Find("a").First().Attr("href")
	if !ok {
		return partial, fetch.Missing("favorite figure link")
	}
	match := submissionHrefID.FindStringSubmatch(href)
	if match == nil {
		return partial, fetch.Missing("favorite figure submission id")
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return partial, err
	}
	partial.ID = id

	title, ok := figure.Find(".title").First().Attr("title")
	if !ok {
		return partial, fetch.Missing("favorite figure title")
	}
	partial.Title = title

	byline, ok := figure.Find(".byline").First().Attr("title")
	if !ok {
		return partial, fetch.Missing("favorite figure byline")
	}
	// byline reads "by <name>"
	if len(byline) > 3 {
		partial.Author = model.UserPartial{Name: byline[3:]}
	}

	partial.ThumbnailURL, _ = figure.Find("img").First().Attr("src")
	return partial, nil
}

func parseFavoritesPage(doc *goquery.Document) ([]model.SubmissionPartial, string, error) {
	var figures []model.SubmissionPartial
	var parseErr error
	doc.Find(".item").EachWithBreak(func(_ int, figure *goquery.Selection) bool {
		partial, err := parseFavoriteFigure(figure)
		if err != nil {
			parseErr = err
			return false
		}
		figures = append(figures, partial)
		return true
	})
	if parseErr != nil {
		return nil, "", parseErr
	}

	next := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		if match := favoritesNextID.FindStringSubmatch(href); match != nil {
			next = match[1]
			return false
		}
		return true
	})
	return figures, next, nil
}
