package furaffinity

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"furapi/lib/fetch"
	"furapi/lib/model"
	"furapi/lib/scrapers"
	"furapi/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/scrapers/furaffinity")

const Name = "furaffinity"
const root = "https://www.furaffinity.net"

func init() {
	scrapers.Register(Name, func(ctx context.Context, opts scrapers.Options) (scrapers.Backend, error) {
		return NewClient(ctx, opts)
	})
}

// Client scrapes the primary site. All pages are HTML; the site sits
// behind cloudflare and enforces robots.txt, so the fetch client carries
// the bypass transport and the path policy.
type Client struct {
	http *fetch.Client
}

func NewClient(ctx context.Context, opts scrapers.Options) (*Client, error) {
	ctx, span := tracer.Start(ctx, "furaffinity:NewClient")
	defer span.End()

	http, err := fetch.NewClient(ctx, fetch.Options{
		Root:             root,
		Cookies:          opts.Cookies,
		UserAgent:        opts.UserAgent,
		Timeout:          opts.Timeout,
		CloudflareBypass: true,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to construct fetch client")
		return nil, err
	}
	http.Classify = checkPage
	http.LoggedInUser = loggedInUser
	http.RaiseForUnauthorized = true
	return &Client{http: http}, nil
}

func (c *Client) Name() string {
	return Name
}

func (c *Client) CrawlDelay() time.Duration {
	return c.http.CrawlDelay()
}

func absoluteURL(href string) string {
	if href == "" || strings.Contains(href, "://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return root + "/" + strings.TrimLeft(href, "/")
}

func userPath(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return strings.Join(escaped, "/")
}

func (c *Client) LoginStatus(ctx context.Context) (bool, error) {
	doc, err := c.http.GetDocument(ctx, "login", fetch.DocumentOptions{SkipAuthCheck: true})
	if err != nil {
		return false, err
	}
	return loggedInUser(doc) != "", nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	doc, err := c.http.GetDocument(ctx, "login", fetch.DocumentOptions{})
	if err != nil {
		return nil, err
	}
	name := loggedInUser(doc)
	if name == "" {
		return nil, fetch.ErrUnauthorized
	}
	return c.User(ctx, name)
}

func (c *Client) User(ctx context.Context, name string) (*model.User, error) {
	ctx, span := tracer.Start(ctx, "furaffinity:User")
	defer span.End()
	span.SetAttributes(attribute.String("user", name))

	doc, err := c.http.GetDocument(ctx, userPath("user", textutil.Slug(name)), fetch.DocumentOptions{})
	if err != nil {
		return nil, err
	}
	parsed, err := parseUserPage(doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse user page")
		return nil, err
	}

	user := parsed.user
	user.Watched = parsed.watchLink == "" && parsed.unwatchLink != ""
	if link := firstNonEmpty(parsed.unwatchLink, parsed.watchLink); link != "" {
		user.WatchedToggleLink = absoluteURL(link)
	}
	user.Blocked = parsed.blockLink == "" && parsed.unblockLink != ""
	if link := firstNonEmpty(parsed.unblockLink, parsed.blockLink); link != "" {
		user.BlockedToggleLink = absoluteURL(link)
	}
	return &user, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c *Client) Submission(ctx context.Context, id int64) (*model.Submission, error) {
	ctx, span := tracer.Start(ctx, "furaffinity:Submission")
	defer span.End()
	span.SetAttributes(attribute.Int64("id", id))

	doc, err := c.http.GetDocument(ctx, fmt.Sprintf("view/%d", id), fetch.DocumentOptions{})
	if err != nil {
		return nil, err
	}
	sub, err := parseSubmissionPage(doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse submission page")
		return nil, err
	}
	sub.Comments = model.SortComments(parseComments(doc))
	return sub, nil
}

func (c *Client) SubmissionFiles(ctx context.Context, submission *model.Submission) ([][]byte, error) {
	ctx, span := tracer.Start(ctx, "furaffinity:SubmissionFiles")
	defer span.End()

	files := make([][]byte, 0, len(submission.FileURLs))
	for _, fileURL := range submission.FileURLs {
		data, err := c.http.Download(ctx, fileURL)
		if err != nil {
			return files, err
		}
		files = append(files, data)
	}
	return files, nil
}

func (c *Client) Journal(ctx context.Context, id int64) (*model.Journal, error) {
	ctx, span := tracer.Start(ctx, "furaffinity:Journal")
	defer span.End()
	span.SetAttributes(attribute.Int64("id", id))

	doc, err := c.http.GetDocument(ctx, fmt.Sprintf("journal/%d", id), fetch.DocumentOptions{})
	if err != nil {
		return nil, err
	}
	journal, err := parseJournalPage(doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse journal page")
		return nil, err
	}
	journal.Comments = model.SortComments(parseComments(doc))
	return journal, nil
}

// submissionListing fetches one gallery-shaped page (gallery or scraps,
// both paginate by integer index).
func (c *Client) submissionListing(ctx context.Context, section, user string, page model.Page) (model.Listing[model.SubmissionPartial], error) {
	var out model.Listing[model.SubmissionPartial]

	number := int64(1)
	if page.Kind == model.PageNumber && page.Number > 0 {
		number = page.Number
	}
	doc, err := c.http.GetDocument(ctx, fmt.Sprintf("%s/%s/%d", section, url.PathEscape(textutil.Slug(user)), number), fetch.DocumentOptions{})
	if err != nil {
		return out, err
	}

	header, err := parseUserHeader(doc)
	if err != nil {
		return out, err
	}
	figures, err := parseSubmissionFigures(doc)
	if err != nil {
		return out, err
	}
	for i := range figures {
		figures[i].Author = header.partial
	}
	out.Items = figures
	if hasNextButton(doc, "div.submission-list") {
		out.Next = model.NumberPage(number + 1)
	}
	return out, nil
}

func (c *Client) Gallery(ctx context.Context, user string, page model.Page) (model.Listing[model.SubmissionPartial], error) {
	ctx, span := tracer.Start(ctx, "furaffinity:Gallery")
	defer span.End()
	return c.submissionListing(ctx, "gallery", user, page)
}

func (c *Client) Scraps(ctx context.Context, user string, page model.Page) (model.Listing[model.SubmissionPartial], error) {
	ctx, span := tracer.Start(ctx, "furaffinity:Scraps")
	defer span.End()
	return c.submissionListing(ctx, "scraps", user, page)
}

// Favorites paginates with an opaque continuation token taken from the
// page's "Next" control rather than an index.
func (c *Client) Favorites(ctx context.Context, user string, page model.Page) (model.Listing[model.SubmissionPartial], error) {
	ctx, span := tracer.Start(ctx, "furaffinity:Favorites")
	defer span.End()

	var out model.Listing[model.SubmissionPartial]
	path := userPath("favorites", textutil.Slug(user))
	if page.Kind == model.PageCursor && page.Cursor != "" {
		path += "/" + page.Cursor
	}
	doc, err := c.http.GetDocument(ctx, path, fetch.DocumentOptions{})
	if err != nil {
		return out, err
	}
	if out.Items, err = parseSubmissionFigures(doc); err != nil {
		return out, err
	}
	if next := parseFavoritesNext(doc); next != "" {
		out.Next = model.CursorPage(next)
	}
	return out, nil
}

func (c *Client) Journals(ctx context.Context, user string, page model.Page) (model.Listing[model.JournalPartial], error) {
	ctx, span := tracer.Start(ctx, "furaffinity:Journals")
	defer span.End()

	var out model.Listing[model.JournalPartial]
	number := int64(1)
	if page.Kind == model.PageNumber && page.Number > 0 {
		number = page.Number
	}
	doc, err := c.http.GetDocument(ctx, fmt.Sprintf("journals/%s/%d", url.PathEscape(textutil.Slug(user)), number), fetch.DocumentOptions{})
	if err != nil {
		return out, err
	}

	header, err := parseUserHeader(doc)
	if err != nil {
		return out, err
	}
	var journals []model.JournalPartial
	var parseErr error
	doc.Find(`section[id^="jid:"]`).EachWithBreak(func(_ int, section *goquery.Selection) bool {
		journal, err := parseJournalSection(section)
		if err != nil {
			parseErr = err
			return false
		}
		journal.Author = header.partial
		journals = append(journals, journal)
		return true
	})
	if parseErr != nil {
		return out, parseErr
	}
	out.Items = journals
	if hasNextButton(doc, "div.journal-list") {
		out.Next = model.NumberPage(number + 1)
	}
	return out, nil
}

func (c *Client) watchlist(ctx context.Context, direction, user string, page model.Page) (model.Listing[model.UserPartial], error) {
	var out model.Listing[model.UserPartial]

	number := int64(1)
	if page.Kind == model.PageNumber && page.Number > 0 {
		number = page.Number
	}
	doc, err := c.http.GetDocument(
		ctx,
		fmt.Sprintf("watchlist/%s/%s/%d", direction, url.PathEscape(textutil.Slug(user)), number),
		fetch.DocumentOptions{SkipAuthCheck: true},
	)
	if err != nil {
		return out, err
	}

	entries, next := parseWatchlist(doc)
	for _, entry := range entries {
		out.Items = append(out.Items, model.UserPartial{
			Name:    entry.name,
			NameURL: textutil.Slug(entry.name),
			Status:  entry.status,
		})
	}
	if next > number {
		out.Next = model.NumberPage(next)
	}
	return out, nil
}

func (c *Client) WatchlistTo(ctx context.Context, user string, page model.Page) (model.Listing[model.UserPartial], error) {
	ctx, span := tracer.Start(ctx, "furaffinity:WatchlistTo")
	defer span.End()
	return c.watchlist(ctx, "to", user, page)
}

func (c *Client) WatchlistBy(ctx context.Context, user string, page model.Page) (model.Listing[model.UserPartial], error) {
	ctx, span := tracer.Start(ctx, "furaffinity:WatchlistBy")
	defer span.End()
	return c.watchlist(ctx, "by", user, page)
}

// Frontpage lists the latest submissions on the landing page,
// deduplicated and newest first.
func (c *Client) Frontpage(ctx context.Context) ([]model.SubmissionPartial, error) {
	ctx, span := tracer.Start(ctx, "furaffinity:Frontpage")
	defer span.End()

	doc, err := c.http.GetDocument(ctx, "/", fetch.DocumentOptions{})
	if err != nil {
		return nil, err
	}
	figures, err := parseSubmissionFigures(doc)
	if err != nil {
		return nil, err
	}
	figures = uniqueFigures(figures)
	sort.Slice(figures, func(i, j int) bool { return figures[i].ID > figures[j].ID })
	return figures, nil
}

// Search runs a keyword search over all ratings and types, paginated by
// integer index.
func (c *Client) Search(ctx context.Context, keywords string, page model.Page) (model.Listing[model.SubmissionPartial], error) {
	ctx, span := tracer.Start(ctx, "furaffinity:Search")
	defer span.End()
	span.SetAttributes(attribute.String("keywords", keywords))

	var out model.Listing[model.SubmissionPartial]
	number := int64(1)
	if page.Kind == model.PageNumber && page.Number > 0 {
		number = page.Number
	}
	query := url.Values{
		"page":            {fmt.Sprintf("%d", number)},
		"q":               {keywords},
		"order-by":        {"date"},
		"order-direction": {"desc"},
		"range":           {"all"},
		"rating-general":  {"1"},
		"rating-mature":   {"1"},
		"rating-adult":    {"1"},
		"type-art":        {"1"},
		"type-music":      {"1"},
		"type-flash":      {"1"},
		"type-story":      {"1"},
		"type-photo":      {"1"},
		"type-poetry":     {"1"},
		"mode":            {"extended"},
	}
	doc, err := c.http.GetDocument(ctx, "search", fetch.DocumentOptions{Query: query})
	if err != nil {
		return out, err
	}
	if out.Items, err = parseSubmissionFigures(doc); err != nil {
		return out, err
	}
	if hasNextButton(doc, "div#search-results") {
		out.Next = model.NumberPage(number + 1)
	}
	return out, nil
}
