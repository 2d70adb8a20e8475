package furaffinity

import (
	"fmt"
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

// Figure classes and the submission sidebar both speak the site's rating
// vocabulary; "adult" is its word for explicit content.
var ratingVocabulary = model.RatingVocabulary{
	"general": model.RatingGeneral,
	"mature":  model.RatingMature,
	"adult":   model.RatingExplicit,
}

var typeVocabulary = model.TypeVocabulary{
	"image": model.TypeImage,
	"text":  model.TypeText,
	"flash": model.TypeFlash,
	"audio": model.TypeMusic,
	"music": model.TypeMusic,
}

func parseRating(value string) (model.Rating, error) {
	return ratingVocabulary.Parse(strings.ToLower(strings.TrimSpace(value)))
}

func parseType(value string) (model.SubmissionType, error) {
	return typeVocabulary.Parse(strings.ToLower(strings.TrimSpace(value)))
}

// checkPage classifies recognized failure pages by their title and notice
// sections.
func checkPage(doc *goquery.Document) error {
	title := htmlutil.CleanText(doc.Find("head title").First())
	if title == "" {
		return &fetch.SiteError{Kind: fetch.ErrNonePage}
	}
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "system error"):
		return &fetch.SiteError{
			Kind:    fetch.ErrServerError,
			Message: htmlutil.CleanText(doc.Find("div.section-body").First()),
		}
	case strings.Contains(lower, "account disabled"):
		return &fetch.SiteError{
			Kind:    fetch.ErrDisabledAccount,
			Message: htmlutil.CleanText(doc.Find("div.section-body").First()),
		}
	}
	if notice := doc.Find("section.notice-message").First(); notice.Length() > 0 {
		message := htmlutil.CleanText(notice.Find("div.section-body").First())
		if strings.Contains(strings.ToLower(message), "not in our database") {
			return &fetch.SiteError{Kind: fetch.ErrNotFound, Message: message}
		}
		return &fetch.SiteError{Kind: fetch.ErrNoticeMessage, Message: message}
	}
	return nil
}

var loggedInStatusPrefix = regexp.MustCompile("^[~!∞]")

// loggedInUser pulls the session user's slug from the navigation bar, ""
// when the page carries no session.
func loggedInUser(doc *goquery.Document) string {
	link := doc.Find("#my-username").First()
	if link.Length() == 0 {
		return ""
	}
	name := loggedInStatusPrefix.ReplaceAllString(htmlutil.CleanText(link), "")
	return textutil.Slug(name)
}

// parseDate handles the two ways the site renders timestamps: an exact
// string, or a fuzzy "X hours ago" whose exact value hides in the title
// attribute.
func parseDate(sel *goquery.Selection) (time.Time, error) {
	text := htmlutil.CleanText(sel)
	if strings.HasSuffix(text, "ago") {
		if title, ok := sel.Attr("title"); ok {
			text = title
		}
	}
	return timezone.ParseDate(text)
}

// parseSubmissionFigure maps one listing card onto a partial submission.
// Cards carry the id in their element id ("sid-12345") and the rating and
// type in their class list ("r-adult", "t-image").
func parseSubmissionFigure(figure *goquery.Selection) (model.SubmissionPartial, error) {
	var out model.SubmissionPartial

	id, ok := figure.Attr("id")
	if !ok {
		return out, fetch.Missing("figure id")
	}
	parsed, err := strconv.ParseInt(strings.TrimPrefix(id, "sid-"), 10, 64)
	if err != nil || parsed <= 0 {
		return out, fetch.Missing("figure submission id")
	}
	out.ID = parsed

	class, _ := figure.Attr("class")
	ratingValue, typeValue := "", ""
	for _, c := range strings.Fields(class) {
		if v, ok := strings.CutPrefix(c, "r-"); ok {
			ratingValue = v
		}
		if v, ok := strings.CutPrefix(c, "t-"); ok {
			typeValue = v
		}
	}
	if out.Rating, err = parseRating(ratingValue); err != nil {
		return out, err
	}
	if out.Type, err = parseType(typeValue); err != nil {
		return out, err
	}

	titleLink := figure.Find(`figcaption a[href^="/view/"]`).First()
	if titleLink.Length() == 0 {
		return out, fetch.Missing("figure title link")
	}
	out.Title = htmlutil.CleanText(titleLink)

	if authorLink := figure.Find(`figcaption a[href^="/user/"]`).First(); authorLink.Length() > 0 {
		name := htmlutil.CleanText(authorLink)
		out.Author = model.UserPartial{Name: name, NameURL: textutil.Slug(name)}
	}
	if thumb, ok := figure.Find("img").First().Attr("src"); ok {
		out.ThumbnailURL = absoluteURL(thumb)
	}
	return out, nil
}

func parseSubmissionFigures(doc *goquery.Document) ([]model.SubmissionPartial, error) {
	var out []model.SubmissionPartial
	var err error
	doc.Find(`figure[id^="sid-"]`).EachWithBreak(func(_ int, figure *goquery.Selection) bool {
		var partial model.SubmissionPartial
		partial, err = parseSubmissionFigure(figure)
		if err != nil {
			return false
		}
		out = append(out, partial)
		return true
	})
	return out, err
}

var (
	viewHrefID    = regexp.MustCompile(`/view/(\d+)`)
	journalHrefID = regexp.MustCompile(`/journal/(\d+)`)
)

// uniqueFigures drops repeated ids; the landing page shows the same
// submission in several of its sections.
func uniqueFigures(figures []model.SubmissionPartial) []model.SubmissionPartial {
	seen := map[int64]bool{}
	out := figures[:0]
	for _, figure := range figures {
		if seen[figure.ID] {
			continue
		}
		seen[figure.ID] = true
		out = append(out, figure)
	}
	return out
}

// parseSubmissionPage maps a detail page onto a full submission, except
// for comments which parseComments extracts from the same document.
func parseSubmissionPage(doc *goquery.Document) (*model.Submission, error) {
	sub := &model.Submission{}

	titleTag := doc.Find("div.submission-title h2").First()
	if titleTag.Length() == 0 {
		return nil, fetch.Missing("submission title")
	}
	sub.Title = htmlutil.CleanText(titleTag)

	idAttr, ok := doc.Find("meta[property='og:url']").First().Attr("content")
	if m := viewHrefID.FindStringSubmatch(idAttr); ok && m != nil {
		sub.ID, _ = strconv.ParseInt(m[1], 10, 64)
	}
	if sub.ID <= 0 {
		return nil, fetch.Missing("submission id")
	}
	sub.URL = fmt.Sprintf("%s/view/%d", root, sub.ID)

	authorLink := doc.Find(`div.submission-id-sub-container a[href^="/user/"]`).First()
	if authorLink.Length() == 0 {
		return nil, fetch.Missing("submission author")
	}
	authorName := htmlutil.CleanText(authorLink)
	sub.Author = model.UserPartial{Name: authorName, NameURL: textutil.Slug(authorName)}
	if avatar, ok := doc.Find("img.submission-user-icon").First().Attr("src"); ok {
		sub.Author.AvatarURL = absoluteURL(avatar)
	}

	dateTag := doc.Find("div.submission-id-sub-container span.popup_date").First()
	if dateTag.Length() == 0 {
		return nil, fetch.Missing("submission date")
	}
	date, err := parseDate(dateTag)
	if err != nil {
		return nil, fetch.Missing("submission date")
	}
	sub.Date = date

	ratingTag := doc.Find("div.rating span.rating-box").First()
	if ratingTag.Length() == 0 {
		return nil, fetch.Missing("submission rating")
	}
	if sub.Rating, err = parseRating(htmlutil.CleanText(ratingTag)); err != nil {
		return nil, err
	}

	// the info sidebar is label/value rows
	category := ""
	doc.Find("section.info.text div").Each(func(_ int, row *goquery.Selection) {
		label := strings.ToLower(htmlutil.CleanText(row.Find("strong").First()))
		value := htmlutil.CleanText(row.Find("span").First())
		switch label {
		case "category":
			category = value
		case "species":
			sub.Species = value
		case "gender":
			sub.Gender = value
		}
	})
	sub.Category = category
	if sub.Type, err = parseType(categoryType(category)); err != nil {
		return nil, err
	}

	doc.Find("section.tags-row a").Each(func(_ int, tag *goquery.Selection) {
		sub.Tags = append(sub.Tags, htmlutil.CleanText(tag))
	})

	stats := doc.Find("section.stats-container").First()
	if sub.Stats.Views, err = textutil.ParseCount(htmlutil.CleanText(stats.Find("div.views span").First())); err != nil {
		return nil, fetch.Missing("submission view count")
	}
	if sub.Stats.Comments, err = textutil.ParseCount(htmlutil.CleanText(stats.Find("div.comments span").First())); err != nil {
		return nil, fetch.Missing("submission comment count")
	}
	if sub.Stats.Favorites, err = textutil.ParseCount(htmlutil.CleanText(stats.Find("div.favorites span").First())); err != nil {
		return nil, fetch.Missing("submission favorite count")
	}

	description := doc.Find("div.submission-description").First()
	sub.Description = htmlutil.CleanHTML(htmlutil.InnerHTML(description))
	sub.Footer = htmlutil.CleanHTML(htmlutil.InnerHTML(doc.Find("div.submission-footer").First()))
	sub.Mentions = parseMentions(description)

	if file, ok := doc.Find("div.download a").First().Attr("href"); ok {
		sub.FileURL = absoluteURL(file)
		sub.FileURLs = []string{sub.FileURL}
	} else {
		return nil, fetch.Missing("submission file link")
	}
	if thumb, ok := doc.Find("img#submissionImg").First().Attr("data-preview-src"); ok {
		sub.ThumbnailURL = absoluteURL(thumb)
	}

	sub.Folder = "gallery"
	if doc.Find(`div.submission-content a[href^="/scraps/"]`).Length() > 0 {
		sub.Folder = "scraps"
	}
	doc.Find("section.folder-list-container a").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		sub.UserFolders = append(sub.UserFolders, model.SubmissionFolder{
			Name:  htmlutil.CleanText(link.Find("span").First()),
			URL:   absoluteURL(href),
			Group: htmlutil.CleanText(link.Find("strong").First()),
		})
	})

	nav := doc.Find("div.favorite-nav").First()
	nav.Find("a").Each(func(_ int, link *goquery.Selection) {
		text := strings.ToLower(htmlutil.CleanText(link))
		href, _ := link.Attr("href")
		if m := viewHrefID.FindStringSubmatch(href); m != nil {
			id, _ := strconv.ParseInt(m[1], 10, 64)
			switch text {
			case "prev":
				sub.Prev = id
			case "next":
				sub.Next = id
			}
		}
	})

	// exactly one of the two toggle links is present; "unfav" means the
	// submission is currently favorited
	favLink, _ := nav.Find(`a[href^="/fav/"]`).First().Attr("href")
	unfavLink, _ := nav.Find(`a[href^="/unfav/"]`).First().Attr("href")
	sub.Favorite = unfavLink != ""
	if unfavLink != "" {
		sub.FavoriteToggleLink = absoluteURL(unfavLink)
	} else if favLink != "" {
		sub.FavoriteToggleLink = absoluteURL(favLink)
	}

	return sub, nil
}

// categoryType reduces the sidebar category ("Artwork (Digital)", "Story",
// "Music") to the figure-class type vocabulary.
func categoryType(category string) string {
	lower := strings.ToLower(category)
	switch {
	case strings.Contains(lower, "story"), strings.Contains(lower, "poetry"), strings.Contains(lower, "prose"):
		return "text"
	case strings.Contains(lower, "music"), strings.Contains(lower, "audio"):
		return "music"
	case strings.Contains(lower, "flash"):
		return "flash"
	default:
		return "image"
	}
}

var userHref = regexp.MustCompile(`^(?:https?://www\.furaffinity\.net)?/user/([^/#]+)`)

// parseMentions collects the distinct linked users in a text block, as
// slugs, sorted ascending.
func parseMentions(sel *goquery.Selection) []string {
	seen := map[string]bool{}
	for _, anchor := range htmlutil.GetAnchors(sel.Find("a")) {
		m := userHref.FindStringSubmatch(anchor.Href)
		if m == nil {
			continue
		}
		slug := textutil.Slug(m[1])
		if slug != "" {
			seen[slug] = true
		}
	}
	mentions := make([]string, 0, len(seen))
	for slug := range seen {
		mentions = append(mentions, slug)
	}
	sort.Strings(mentions)
	return mentions
}

type userInfo struct {
	partial model.UserPartial
}

// parseUserHeader reads the display name, status symbol, title, and join
// date block shared by the profile page and listing pages.
func parseUserHeader(doc *goquery.Document) (userInfo, error) {
	var out userInfo

	nameTag := doc.Find("div.username h2 span").First()
	if nameTag.Length() == 0 {
		return out, fetch.Missing("user name")
	}
	raw := htmlutil.CleanText(nameTag)
	out.partial.Status = ""
	if loggedInStatusPrefix.MatchString(raw) {
		r := []rune(raw)
		out.partial.Status = string(r[0])
		raw = strings.TrimSpace(string(r[1:]))
	}
	out.partial.Name = raw
	out.partial.NameURL = textutil.Slug(raw)

	// "Title | Member Since: May 2, 2021" with both halves optional
	meta := htmlutil.CleanText(doc.Find("div.username span.font-small").First())
	title, joined, found := strings.Cut(meta, "|")
	if !found {
		if strings.Contains(strings.ToLower(meta), "member since") {
			title, joined = "", meta
		} else {
			title, joined = meta, ""
		}
	}
	out.partial.Title = strings.TrimSpace(title)
	if _, date, ok := strings.Cut(joined, ":"); ok {
		if parsed, err := timezone.ParseDate(strings.TrimSpace(date)); err == nil {
			out.partial.JoinDate = parsed
		}
	}

	if avatar, ok := doc.Find("img.user-nav-avatar").First().Attr("src"); ok {
		out.partial.AvatarURL = absoluteURL(avatar)
	}
	return out, nil
}

type parsedUserPage struct {
	user        model.User
	watchLink   string
	unwatchLink string
	blockLink   string
	unblockLink string
}

func parseUserPage(doc *goquery.Document) (parsedUserPage, error) {
	var out parsedUserPage

	header, err := parseUserHeader(doc)
	if err != nil {
		return out, err
	}
	out.user.UserPartial = header.partial
	out.user.Profile = htmlutil.CleanHTML(htmlutil.InnerHTML(doc.Find("div.userpage-profile").First()))

	statFields := map[string]*int64{
		"views":           &out.user.Stats.Views,
		"submissions":     &out.user.Stats.Submissions,
		"favorites":       &out.user.Stats.Favorites,
		"comments earned": &out.user.Stats.CommentsEarned,
		"comments made":   &out.user.Stats.CommentsMade,
		"journals":        &out.user.Stats.Journals,
		"watched by":      &out.user.Stats.WatchedBy,
		"watching":        &out.user.Stats.Watching,
	}
	doc.Find("div.userpage-stats div").Each(func(_ int, row *goquery.Selection) {
		label, value, ok := strings.Cut(htmlutil.CleanText(row), ":")
		if !ok {
			return
		}
		field, ok := statFields[strings.ToLower(strings.TrimSpace(label))]
		if !ok {
			return
		}
		if count, err := textutil.ParseCount(value); err == nil {
			*field = count
		}
	})

	out.user.Info = map[string]string{}
	doc.Find("div.user-info div.table-row").Each(func(_ int, row *goquery.Selection) {
		label := htmlutil.CleanText(row.Find("strong").First())
		value := htmlutil.CleanText(row.Find("span").First())
		if label != "" {
			out.user.Info[label] = value
		}
	})
	out.user.Contacts = map[string]string{}
	doc.Find("div.user-contact-item").Each(func(_ int, item *goquery.Selection) {
		label := htmlutil.CleanText(item.Find("strong").First())
		if label == "" {
			return
		}
		if link, ok := item.Find("a").First().Attr("href"); ok {
			out.user.Contacts[label] = link
			return
		}
		out.user.Contacts[label] = htmlutil.CleanText(item.Find("span").First())
	})

	out.watchLink, _ = doc.Find(`a[href^="/watch/"]`).First().Attr("href")
	out.unwatchLink, _ = doc.Find(`a[href^="/unwatch/"]`).First().Attr("href")
	out.blockLink, _ = doc.Find(`a[href^="/block/"]`).First().Attr("href")
	out.unblockLink, _ = doc.Find(`a[href^="/unblock/"]`).First().Attr("href")
	return out, nil
}

var commentWidth = regexp.MustCompile(`width\s*:\s*([\d.]+)%`)
var commentID = regexp.MustCompile(`cid:(\d+)`)

// parseComments extracts a page's flat comment list. The site renders
// nesting as shrinking container widths rather than an explicit parent
// attribute, so each comment's parent is the nearest preceding comment
// with a wider container.
func parseComments(doc *goquery.Document) []*model.Comment {
	type frame struct {
		width float64
		id    int64
	}
	var stack []frame
	var comments []*model.Comment

	doc.Find("div.comment_container").Each(func(_ int, container *goquery.Selection) {
		anchor := container.Find(`a[id^="cid:"]`).First()
		anchorID, _ := anchor.Attr("id")
		m := commentID.FindStringSubmatch(anchorID)
		if m == nil {
			return
		}
		id, _ := strconv.ParseInt(m[1], 10, 64)

		width := 100.0
		if style, ok := container.Attr("style"); ok {
			if wm := commentWidth.FindStringSubmatch(style); wm != nil {
				width, _ = strconv.ParseFloat(wm[1], 64)
			}
		}
		for len(stack) > 0 && stack[len(stack)-1].width <= width {
			stack = stack[:len(stack)-1]
		}
		var parent int64
		if len(stack) > 0 {
			parent = stack[len(stack)-1].id
		}
		stack = append(stack, frame{width: width, id: id})

		comment := &model.Comment{ID: id, ReplyToID: parent}

		if name := container.Find("div.comment_username").First(); name.Length() > 0 {
			comment.Author.Name = htmlutil.CleanText(name)
			comment.Author.NameURL = textutil.Slug(comment.Author.Name)
		}
		comment.Author.Title = htmlutil.CleanText(container.Find("span.custom-title").First())
		if avatar, ok := container.Find("img.comment_useravatar").First().Attr("src"); ok {
			comment.Author.AvatarURL = absoluteURL(avatar)
		}
		if date, err := parseDate(container.Find("span.popup_date").First()); err == nil {
			comment.Date = date
		}

		text := container.Find("div.comment_text").First()
		if text.Length() == 0 {
			// hidden comments keep their container but lose the body
			comment.Hidden = true
			comment.Text = htmlutil.CleanHTML(htmlutil.InnerHTML(container.Find("div.comment-deleted").First()))
		} else {
			comment.Text = htmlutil.CleanHTML(htmlutil.InnerHTML(text))
		}
		comment.Edited = container.Find("img.edited").Length() > 0

		comments = append(comments, comment)
	})
	return comments
}

// hasNextButton reports whether a listing page offers a "Next" control;
// the last page is detected by its absence, never by counting items.
func hasNextButton(doc *goquery.Document, section string) bool {
	found := false
	doc.Find(section + " a.button, " + section + " button.button").Each(func(_ int, control *goquery.Selection) {
		if strings.HasPrefix(strings.ToLower(htmlutil.CleanText(control)), "next") {
			found = true
		}
	})
	return found
}

var favoritesNext = regexp.MustCompile(`^/favorites/[^/]+/(.+?)/?$`)

// parseFavoritesNext extracts the opaque continuation token from the
// favorites "Next" control, "" on the last page.
func parseFavoritesNext(doc *goquery.Document) string {
	token := ""
	doc.Find(`div.submission-list a[href^="/favorites/"]`).Each(func(_ int, link *goquery.Selection) {
		if !strings.HasPrefix(strings.ToLower(htmlutil.CleanText(link)), "next") {
			return
		}
		href, _ := link.Attr("href")
		if m := favoritesNext.FindStringSubmatch(href); m != nil {
			token = m[1]
		}
	})
	return token
}

type watchlistEntry struct {
	status string
	name   string
}

var watchlistNextPage = regexp.MustCompile(`/watchlist/(?:to|by)/[^/]+/(\d+)`)

func parseWatchlist(doc *goquery.Document) ([]watchlistEntry, int64) {
	var entries []watchlistEntry
	doc.Find("div.watch-list-item a").Each(func(_ int, link *goquery.Selection) {
		raw := htmlutil.CleanText(link)
		if raw == "" {
			return
		}
		status := ""
		if loggedInStatusPrefix.MatchString(raw) {
			r := []rune(raw)
			status = string(r[0])
			raw = strings.TrimSpace(string(r[1:]))
		}
		entries = append(entries, watchlistEntry{status: status, name: raw})
	})

	var next int64
	doc.Find("div.section-footer a").Each(func(_ int, link *goquery.Selection) {
		if !strings.HasPrefix(strings.ToLower(htmlutil.CleanText(link)), "next") {
			return
		}
		href, _ := link.Attr("href")
		if m := watchlistNextPage.FindStringSubmatch(href); m != nil {
			next, _ = strconv.ParseInt(m[1], 10, 64)
		}
	})
	return entries, next
}

// parseJournalSection maps one listing entry ("jid:12345" sections) onto a
// partial journal.
func parseJournalSection(section *goquery.Selection) (model.JournalPartial, error) {
	var out model.JournalPartial

	id, _ := section.Attr("id")
	parsed, err := strconv.ParseInt(strings.TrimPrefix(id, "jid:"), 10, 64)
	if err != nil || parsed <= 0 {
		return out, fetch.Missing("journal id")
	}
	out.ID = parsed

	titleTag := section.Find("h2").First()
	if titleTag.Length() == 0 {
		return out, fetch.Missing("journal title")
	}
	out.Title = htmlutil.CleanText(titleTag)

	dateTag := section.Find("span.popup_date").First()
	if dateTag.Length() == 0 {
		return out, fetch.Missing("journal date")
	}
	if out.Date, err = parseDate(dateTag); err != nil {
		return out, fetch.Missing("journal date")
	}

	body := section.Find("div.journal-body").First()
	out.Content = htmlutil.CleanHTML(htmlutil.InnerHTML(body))
	out.Mentions = parseMentions(body)
	if count, err := textutil.ParseCount(htmlutil.CleanText(section.Find("a.comment-count").First())); err == nil {
		out.Stats.Comments = count
	}
	return out, nil
}

func parseJournalPage(doc *goquery.Document) (*model.Journal, error) {
	journal := &model.Journal{}

	idAttr, _ := doc.Find("meta[property='og:url']").First().Attr("content")
	if m := journalHrefID.FindStringSubmatch(idAttr); m != nil {
		journal.ID, _ = strconv.ParseInt(m[1], 10, 64)
	}
	if journal.ID <= 0 {
		return nil, fetch.Missing("journal id")
	}
	journal.URL = fmt.Sprintf("%s/journal/%d", root, journal.ID)

	titleTag := doc.Find("h2.journal-title").First()
	if titleTag.Length() == 0 {
		return nil, fetch.Missing("journal title")
	}
	journal.Title = htmlutil.CleanText(titleTag)

	header, err := parseUserHeader(doc)
	if err != nil {
		return nil, err
	}
	journal.Author = header.partial

	dateTag := doc.Find("div.journal-title-box span.popup_date").First()
	if dateTag.Length() == 0 {
		return nil, fetch.Missing("journal date")
	}
	if journal.Date, err = parseDate(dateTag); err != nil {
		return nil, fetch.Missing("journal date")
	}

	content := doc.Find("div.journal-content").First()
	journal.Content = htmlutil.CleanHTML(htmlutil.InnerHTML(content))
	journal.Header = htmlutil.CleanHTML(htmlutil.InnerHTML(doc.Find("div.journal-header").First()))
	journal.Footer = htmlutil.CleanHTML(htmlutil.InnerHTML(doc.Find("div.journal-footer").First()))
	journal.Mentions = parseMentions(content)
	return journal, nil
}
