package sofurry

import (
	"fmt"
	"regexp"
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

// Listing thumbnails carry the rating as a box-shadow class; "adult" is the
// middle tier here, "extreme" the explicit one.
var ratingVocabulary = model.RatingVocabulary{
	"general": model.RatingGeneral,
	"adult":   model.RatingMature,
	"extreme": model.RatingExplicit,
}

// The site partitions a gallery into one subgallery per submission type.
var typeVocabulary = model.TypeVocabulary{
	"stories": model.TypeText,
	"artwork": model.TypeImage,
	"photos":  model.TypeImage,
	"music":   model.TypeMusic,
}

// subgalleries lists the per-type streams a logical gallery splits into.
var subgalleries = []string{"stories", "artwork", "photos", "music"}

func ratingFromClasses(class string) (model.Rating, error) {
	for _, c := range strings.Fields(class) {
		if v, ok := strings.CutPrefix(c, "sf-boxshadow-"); ok {
			if v == "default" {
				v = "general"
			}
			return ratingVocabulary.Parse(v)
		}
	}
	// thumbnails without a shadow class are unrated uploads
	return model.RatingGeneral, nil
}

var subdomainUser = regexp.MustCompile(`https?://([^.]+)\.sofurry\.com/`)

// loggedInUser reads the session user from the top bar avatar link.
func loggedInUser(doc *goquery.Document) string {
	if doc.Find("div.topbar-user a.avatar").Length() == 0 {
		return ""
	}
	name := ""
	doc.Find("div.topbar-user a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		if m := subdomainUser.FindStringSubmatch(href); m != nil {
			name = m[1]
			return false
		}
		return true
	})
	return name
}

func checkPage(doc *goquery.Document) error {
	if doc.Find("body").Length() == 0 {
		return &fetch.SiteError{Kind: fetch.ErrNonePage}
	}
	title := strings.ToLower(htmlutil.CleanText(doc.Find("head title").First()))
	switch {
	case strings.HasPrefix(title, "account disabled"):
		return &fetch.SiteError{Kind: fetch.ErrDisabledAccount}
	case title == "system error":
		message := htmlutil.CleanText(doc.Find("div.section-body").First())
		if strings.Contains(strings.ToLower(message), "not found") {
			return &fetch.SiteError{Kind: fetch.ErrNotFound, Message: message}
		}
		return &fetch.SiteError{Kind: fetch.ErrServerError, Message: message}
	}
	return nil
}

// statsSection returns the text rows of the "Stats" box on submission and
// journal pages.
func statsSection(doc *goquery.Document) ([]string, error) {
	var rows []string
	found := false
	doc.Find("div.section-title").EachWithBreak(func(_ int, header *goquery.Selection) bool {
		if htmlutil.CleanText(header) != "Stats" {
			return true
		}
		found = true
		content := header.NextAllFiltered("div.section-content").First()
		for _, line := range strings.Split(content.Text(), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				rows = append(rows, line)
			}
		}
		return false
	})
	if !found {
		return nil, fetch.Missing("stats section")
	}
	return rows, nil
}

func statMatch(rows []string, pattern *regexp.Regexp) (string, error) {
	for _, row := range rows {
		if m := pattern.FindStringSubmatch(row); m != nil {
			return m[1], nil
		}
	}
	return "", fetch.Missing(fmt.Sprintf("stat %s", pattern))
}

var (
	statPosted   = regexp.MustCompile(`^Posted (.*)$`)
	statViews    = regexp.MustCompile(`^([\d,]+) views?$`)
	statFaves    = regexp.MustCompile(`^([\d,]+) faves?$`)
	statComments = regexp.MustCompile(`^([\d,]+) comments?$`)
)

func parseStats(doc *goquery.Document) (posted time.Time, stats model.SubmissionStats, err error) {
	rows, err := statsSection(doc)
	if err != nil {
		return posted, stats, err
	}
	postedStr, err := statMatch(rows, statPosted)
	if err != nil {
		return posted, stats, err
	}
	if posted, err = timezone.ParseDate(postedStr); err != nil {
		return posted, stats, fetch.Missing("posted date")
	}
	views, err := statMatch(rows, statViews)
	if err != nil {
		return posted, stats, err
	}
	faves, err := statMatch(rows, statFaves)
	if err != nil {
		return posted, stats, err
	}
	comments, err := statMatch(rows, statComments)
	if err != nil {
		return posted, stats, err
	}
	stats.Views, _ = textutil.ParseCount(views)
	stats.Favorites, _ = textutil.ParseCount(faves)
	stats.Comments, _ = textutil.ParseCount(comments)
	return posted, stats, nil
}

var folderHref = regexp.MustCompile(`/browse/folder/stories\?by=[^&]*&folder=([^&]+)`)

// parseSubmissionPage maps a detail page onto a full submission. The page
// carries no rating marker of its own, so the rating comes from the
// preview image's box-shadow class where present.
func parseSubmissionPage(doc *goquery.Document) (*model.Submission, string, string, error) {
	sub := &model.Submission{}

	idTag := doc.Find("#sfPageId").First()
	if idTag.Length() == 0 {
		return nil, "", "", fetch.Missing("submission id")
	}
	id, err := strconv.ParseInt(strings.TrimSpace(idTag.Text()), 10, 64)
	if err != nil || id <= 0 {
		return nil, "", "", fetch.Missing("submission id")
	}
	sub.ID = id
	sub.URL = fmt.Sprintf("%s/view/%d", root, sub.ID)

	titleTag := doc.Find("#sfContentTitle").First()
	if titleTag.Length() == 0 {
		return nil, "", "", fetch.Missing("submission title")
	}
	sub.Title = htmlutil.CleanText(titleTag)

	image := doc.Find("[itemprop=image]").First()
	if image.Length() == 0 {
		return nil, "", "", fetch.Missing("submission image")
	}
	imageSrc, _ := image.Attr("src")
	isImage := strings.Contains(imageSrc, "preview")
	if width, _ := image.Attr("width"); width != "0px" {
		sub.ThumbnailURL = imageSrc
	}
	imageClass, _ := image.Attr("class")
	if sub.Rating, err = ratingFromClasses(imageClass); err != nil {
		return nil, "", "", err
	}

	author, err := parseUserSmall(doc.Find("#sf-userinfo-outer").First())
	if err != nil {
		return nil, "", "", err
	}
	sub.Author = author

	doc.Find(`[id^="sftagbox-"]`).Each(func(_ int, tag *goquery.Selection) {
		sub.Tags = append(sub.Tags, htmlutil.CleanText(tag))
	})

	posted, stats, err := parseStats(doc)
	if err != nil {
		return nil, "", "", err
	}
	sub.Date = posted
	sub.Stats = stats

	switch {
	case doc.Find("#sfContentMusic").Length() > 0:
		sub.Category, sub.Type = "music", model.TypeMusic
	case isImage:
		sub.Category, sub.Type = "image", model.TypeImage
	default:
		sub.Category, sub.Type = "story", model.TypeText
	}

	descriptionSelector := "#sfContentDescription"
	if isImage {
		descriptionSelector = "#sfContentBody"
	}
	sub.Description = htmlutil.CleanHTML(htmlutil.InnerHTML(doc.Find(descriptionSelector).First()))

	doc.Find("a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		if m := folderHref.FindStringSubmatch(href); m != nil {
			sub.Folder = m[1]
			return false
		}
		return true
	})

	// files are served off a fixed content endpoint addressed by page id
	sub.FileURL = fmt.Sprintf("https://www.sofurryfiles.com/std/content?page=%d", sub.ID)
	sub.FileURLs = []string{sub.FileURL}

	// the favorite button carries class "yes" while the submission is
	// favorited
	favLink, unfavLink := "", ""
	if button := doc.Find("#sfFavorite_outer.yes").First(); button.Length() > 0 {
		unfavLink, _ = button.Attr("href")
	} else if button := doc.Find("#sfFavorite_outer").First(); button.Length() > 0 {
		favLink, _ = button.Attr("href")
	}
	return sub, favLink, unfavLink, nil
}

var journalThumbID = regexp.MustCompile(`https://www\.sofurryfiles\.com/std/thumb\?page=(\d+)`)

func parseJournalPage(doc *goquery.Document) (*model.Journal, error) {
	journal := &model.Journal{}

	idTag, ok := doc.Find(`meta[name="og:image"]`).First().Attr("content")
	if !ok {
		return nil, fetch.Missing("journal id meta")
	}
	m := journalThumbID.FindStringSubmatch(idTag)
	if m == nil {
		return nil, fetch.Missing("journal id")
	}
	id, _ := strconv.ParseInt(m[1], 10, 64)
	if id <= 0 {
		return nil, fetch.Missing("journal id")
	}
	journal.ID = id
	journal.URL = fmt.Sprintf("%s/view/%d", root, journal.ID)

	titleTag := doc.Find("#sfContentTitle").First()
	if titleTag.Length() == 0 {
		return nil, fetch.Missing("journal title")
	}
	journal.Title = htmlutil.CleanText(titleTag)

	contentTag := doc.Find("#sfContentBody").First()
	if contentTag.Length() == 0 {
		return nil, fetch.Missing("journal content")
	}
	journal.Content = htmlutil.CleanHTML(htmlutil.InnerHTML(contentTag))

	posted, stats, err := parseStats(doc)
	if err != nil {
		return nil, err
	}
	journal.Date = posted
	journal.Stats.Comments = stats.Comments

	author, err := parseUserSmall(doc.Selection)
	if err != nil {
		return nil, err
	}
	journal.Author = author
	return journal, nil
}

// parseUserSmall reads the compact author blurb attached to submissions
// and journals.
func parseUserSmall(sel *goquery.Selection) (model.UserPartial, error) {
	var out model.UserPartial

	nameTag := sel.Find("span.sf-username").First()
	if nameTag.Length() == 0 {
		return out, fetch.Missing("author name")
	}
	out.Name = htmlutil.CleanText(nameTag)
	out.NameURL = textutil.Slug(out.Name)

	icon := sel.Find("img").First()
	if icon.Length() == 0 {
		return out, fetch.Missing("author icon")
	}
	out.AvatarURL, _ = icon.Attr("src")
	return out, nil
}

var commentChildrenID = regexp.MustCompile(`^sfCommentChildren(\d+)$`)

// parseComments extracts the flat comment list. The site nests replies
// inside "sfCommentChildren<id>" containers, which is where the parent id
// comes from; comments carry no timestamp, so ordering falls back to ids.
func parseComments(doc *goquery.Document) []*model.Comment {
	var comments []*model.Comment
	doc.Find("div.sfCommentOuter").Each(func(_ int, outer *goquery.Selection) {
		anchor, ok := outer.Find("a[name]").First().Attr("name")
		if !ok {
			return
		}
		id, err := strconv.ParseInt(anchor, 10, 64)
		if err != nil || id <= 0 {
			return
		}
		comment := &model.Comment{ID: id}

		if name := outer.Find("span.sf-comment-username a").First(); name.Length() > 0 {
			comment.Author.Name = htmlutil.CleanText(name)
			comment.Author.NameURL = textutil.Slug(comment.Author.Name)
		}
		comment.Author.AvatarURL, _ = outer.Find("img.sf-comments-avlarge").First().Attr("src")
		comment.Text = htmlutil.CleanHTML(htmlutil.InnerHTML(outer.Find("div.sfCommentBodyContent").First()))

		if parentAttr, ok := outer.Parent().Attr("id"); ok {
			if m := commentChildrenID.FindStringSubmatch(parentAttr); m != nil {
				comment.ReplyToID, _ = strconv.ParseInt(m[1], 10, 64)
			}
		}
		comments = append(comments, comment)
	})
	return comments
}

// parseNextPage returns the href of the pager's "next" item, "" on the
// last page.
func parseNextPage(doc *goquery.Document) string {
	next := doc.Find("li.next").First()
	if next.Length() == 0 {
		return ""
	}
	if class, _ := next.Attr("class"); strings.Contains(class, "hidden") {
		return ""
	}
	href, _ := next.Find("a").First().Attr("href")
	return href
}

func isFirstPage(doc *goquery.Document) bool {
	return doc.Find("li.previous").Length() == 0
}

// parseUserBig reads the expanded profile header shown on subdomain pages.
func parseUserBig(doc *goquery.Document) (model.UserPartial, error) {
	var out model.UserPartial

	nameTag := doc.Find(".user-text").First()
	if nameTag.Length() == 0 {
		return out, fetch.Missing("user name")
	}
	out.Name = htmlutil.CleanText(nameTag)
	out.NameURL = textutil.Slug(out.Name)
	out.Title = htmlutil.CleanText(doc.Find(".user .sfTextMedLight").First())

	joinTag := doc.Find("span.user-stats strong").First()
	if joinTag.Length() == 0 {
		return out, fetch.Missing("user join date")
	}
	if joined, err := timezone.ParseDate(htmlutil.CleanText(joinTag)); err == nil {
		out.JoinDate = joined
	}
	out.AvatarURL, _ = doc.Find(".user-info img").First().Attr("src")
	return out, nil
}

type parsedUserPage struct {
	user        model.User
	watchLink   string
	unwatchLink string
	blockLink   string
	unblockLink string
}

var watchlistCount = regexp.MustCompile(`\(([\d,]+)\)`)

func parseUserPage(doc *goquery.Document) (parsedUserPage, error) {
	var out parsedUserPage

	partial, err := parseUserBig(doc)
	if err != nil {
		return out, err
	}
	out.user.UserPartial = partial
	out.user.Profile = htmlutil.CleanHTML(htmlutil.InnerHTML(doc.Find("#sf-section-1 .sftc-content").First()))

	// the stats box mixes labeled stat rows and free-form info rows;
	// which side the label sits on tells them apart
	out.user.Info = map[string]string{}
	statLabels := map[string]*int64{
		"page views":        &out.user.Stats.Views,
		"submissions":       &out.user.Stats.Submissions,
		"comments received": &out.user.Stats.CommentsEarned,
		"comments posted":   &out.user.Stats.CommentsMade,
	}
	doc.Find("div.user-statistics span.stat-row").Each(func(_ int, row *goquery.Selection) {
		cells := row.Children()
		if cells.Length() < 2 {
			return
		}
		left := htmlutil.CleanText(cells.Eq(0))
		right := htmlutil.CleanText(cells.Eq(1))
		if left == "groups" || right == "groups" {
			return
		}
		if field, ok := statLabels[strings.ToLower(right)]; ok {
			if count, err := textutil.ParseCount(left); err == nil {
				*field = count
			}
			return
		}
		if left != "" {
			out.user.Info[left] = right
		}
	})

	// watcher counts live on the sidebar links as "(1,234)" suffixes
	doc.Find("a.wide-inactive").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		count := int64(0)
		if m := watchlistCount.FindStringSubmatch(htmlutil.CleanText(link.Find("span").First())); m != nil {
			count, _ = textutil.ParseCount(m[1])
		}
		switch {
		case strings.HasSuffix(href, "/watchers"):
			out.user.Stats.WatchedBy = count
		case strings.HasSuffix(href, "/watching"):
			out.user.Stats.Watching = count
		}
	})

	out.user.Contacts = map[string]string{}
	doc.Find("#sf-accounts a[href]").Each(func(_ int, link *goquery.Selection) {
		label := htmlutil.CleanText(link)
		if label == "" {
			return
		}
		href, _ := link.Attr("href")
		out.user.Contacts[label] = href
	})

	// watch/block are forms, not links
	doc.Find("form[action]").Each(func(_ int, form *goquery.Selection) {
		action, _ := form.Attr("action")
		switch {
		case strings.HasSuffix(action, "/unwatch"):
			out.unwatchLink = root + action
		case strings.HasSuffix(action, "/watch"):
			out.watchLink = root + action
		case strings.HasSuffix(action, "/unblock"):
			out.unblockLink = root + action
		case strings.HasSuffix(action, "/block"):
			out.blockLink = root + action
		}
	})
	return out, nil
}

var figureID = regexp.MustCompile(`(\d+)$`)

// parseWrittenFigure maps a story/journal card onto listing fields.
func parseWrittenFigure(figure *goquery.Selection) (model.SubmissionPartial, error) {
	var out model.SubmissionPartial

	titleTag := figure.Find(".sf-story-big-headline a, .sf-story-headline a").First()
	if titleTag.Length() == 0 {
		return out, fetch.Missing("story title")
	}
	out.Title = htmlutil.CleanText(titleTag)

	idAttr, _ := figure.Attr("id")
	m := figureID.FindStringSubmatch(idAttr)
	if m == nil {
		return out, fetch.Missing("story figure id")
	}
	out.ID, _ = strconv.ParseInt(m[1], 10, 64)

	authorTag := figure.Find(".sfTextAttention").First()
	if authorTag.Length() == 0 {
		return out, fetch.Missing("story author")
	}
	name := htmlutil.CleanText(authorTag)
	out.Author = model.UserPartial{Name: name, NameURL: textutil.Slug(name)}

	icon := figure.Find(".sf-story-big-avatar img, .sf-story-avatar img").First()
	if icon.Length() == 0 {
		return out, fetch.Missing("story icon")
	}
	out.ThumbnailURL, _ = icon.Attr("src")

	class, _ := icon.Attr("class")
	var err error
	if out.Rating, err = ratingFromClasses(class); err != nil {
		return out, err
	}
	return out, nil
}

var artworkID = regexp.MustCompile(`^sfArtwork(\d+)$`)

// parseArtworkFigure maps an artwork/photo thumbnail onto listing fields.
func parseArtworkFigure(figure *goquery.Selection) (model.SubmissionPartial, error) {
	var out model.SubmissionPartial

	img := figure.Find("img").First()
	if img.Length() == 0 {
		return out, fetch.Missing("artwork image")
	}
	idAttr, _ := img.Attr("id")
	m := artworkID.FindStringSubmatch(idAttr)
	if m == nil {
		return out, fetch.Missing("artwork figure id")
	}
	out.ID, _ = strconv.ParseInt(m[1], 10, 64)

	alt, _ := img.Attr("alt")
	title, author, found := strings.Cut(alt, " by ")
	if !found || title == "" {
		return out, fetch.Missing("artwork title")
	}
	out.Title = strings.TrimSpace(title)
	name := strings.TrimSpace(author)
	out.Author = model.UserPartial{Name: name, NameURL: textutil.Slug(name)}
	out.ThumbnailURL, _ = img.Attr("src")

	class, _ := img.Attr("class")
	var err error
	if out.Rating, err = ratingFromClasses(class); err != nil {
		return out, err
	}
	return out, nil
}

// parseSubmissionFigures collects both card shapes present on a listing
// page.
func parseSubmissionFigures(doc *goquery.Document) ([]model.SubmissionPartial, error) {
	var out []model.SubmissionPartial
	var err error
	doc.Find(".sf-story, .sf-story-big").EachWithBreak(func(_ int, figure *goquery.Selection) bool {
		var partial model.SubmissionPartial
		if partial, err = parseWrittenFigure(figure); err != nil {
			return false
		}
		out = append(out, partial)
		return true
	})
	if err != nil {
		return nil, err
	}
	doc.Find(".sfBrowseListContent .sfArtworkSmallWrapper").EachWithBreak(func(_ int, figure *goquery.Selection) bool {
		var partial model.SubmissionPartial
		if partial, err = parseArtworkFigure(figure); err != nil {
			return false
		}
		out = append(out, partial)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// parseSubfolders lists the folder links on a subgallery's first page;
// folder contents never appear in the main stream.
func parseSubfolders(doc *goquery.Document) []string {
	var urls []string
	doc.Find(".sfBrowseListFolders .sfArtworkSmallWrapper a[href]").Each(func(_ int, link *goquery.Selection) {
		if href, _ := link.Attr("href"); href != "" {
			urls = append(urls, href)
		}
	})
	return urls
}

// parseJournalSection maps a journal card (same markup as story cards)
// onto a partial journal. Only the first card on a page carries a content
// preview.
func parseJournalSection(section *goquery.Selection) (model.JournalPartial, error) {
	var out model.JournalPartial

	figure, err := parseWrittenFigure(section)
	if err != nil {
		return out, err
	}
	out.ID = figure.ID
	out.Title = figure.Title
	out.Author = figure.Author

	if abbr := section.Find("abbr").First(); abbr.Length() > 0 {
		if title, ok := abbr.Attr("title"); ok {
			if out.Date, err = timezone.ParseDate(title); err != nil {
				return out, fetch.Missing("journal date")
			}
		}
	} else {
		dateTag := section.Find(".sf-story-big-metadata strong span").First()
		if dateTag.Length() == 0 {
			return out, fetch.Missing("journal date")
		}
		if out.Date, err = timezone.ParseDate(htmlutil.CleanText(dateTag)); err != nil {
			return out, fetch.Missing("journal date")
		}
	}
	out.Content = htmlutil.CleanHTML(htmlutil.InnerHTML(section.Find(".sf-story-big-content").First()))
	return out, nil
}

// parseWatchlistPage lists the users on a watchers/watching page.
func parseWatchlistPage(doc *goquery.Document) []model.UserPartial {
	var users []model.UserPartial
	doc.Find("span.sf-item-h-info-content").Each(func(_ int, item *goquery.Selection) {
		name := htmlutil.CleanText(item)
		if name == "" {
			return
		}
		avatar, _ := item.Find("img").First().Attr("src")
		users = append(users, model.UserPartial{
			Name:      name,
			NameURL:   textutil.Slug(name),
			AvatarURL: avatar,
		})
	})
	return users
}
