package sofurry

import (
	"context"
	"fmt"
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

var tracer = otel.Tracer("lib/scrapers/sofurry")

const Name = "sofurry"
const root = "https://www.sofurry.com"

func init() {
	scrapers.Register(Name, func(ctx context.Context, opts scrapers.Options) (scrapers.Backend, error) {
		return NewClient(ctx, opts)
	})
}

// Client scrapes the secondary HTML site. Every user gets their own
// subdomain, and one logical gallery is split into per-type subgalleries
// (stories, artwork, photos, music), so listing tokens are (category, url)
// compounds: the url names the exact page, the category tells the parser
// which type the figures on it are.
type Client struct {
	http *fetch.Client
}

func NewClient(ctx context.Context, opts scrapers.Options) (*Client, error) {
	ctx, span := tracer.Start(ctx, "sofurry:NewClient")
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

// pageURL resolves the url half of a listing token: pager links come back
// scheme-relative or site-relative depending on the subdomain that served
// them.
func pageURL(href string) string {
	switch {
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return root + href
	default:
		return href
	}
}

func subdomain(user string, path string) string {
	return fmt.Sprintf("https://%s.sofurry.com/%s", textutil.Slug(user), path)
}

func (c *Client) LoginStatus(ctx context.Context) (bool, error) {
	doc, err := c.http.GetDocument(ctx, "", fetch.DocumentOptions{SkipAuthCheck: true})
	if err != nil {
		return false, err
	}
	return loggedInUser(doc) != "", nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	doc, err := c.http.GetDocument(ctx, "", fetch.DocumentOptions{})
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
	ctx, span := tracer.Start(ctx, "sofurry:User")
	defer span.End()
	span.SetAttributes(attribute.String("user", name))

	doc, err := c.http.GetDocument(ctx, subdomain(name, "?adult=1"), fetch.DocumentOptions{})
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
	if parsed.unwatchLink != "" {
		user.WatchedToggleLink = parsed.unwatchLink
	} else {
		user.WatchedToggleLink = parsed.watchLink
	}
	user.Blocked = parsed.blockLink == "" && parsed.unblockLink != ""
	if parsed.unblockLink != "" {
		user.BlockedToggleLink = parsed.unblockLink
	} else {
		user.BlockedToggleLink = parsed.blockLink
	}
	return &user, nil
}

func (c *Client) Submission(ctx context.Context, id int64) (*model.Submission, error) {
	ctx, span := tracer.Start(ctx, "sofurry:Submission")
	defer span.End()
	span.SetAttributes(attribute.Int64("id", id))

	doc, err := c.http.GetDocument(ctx, fmt.Sprintf("view/%d", id), fetch.DocumentOptions{})
	if err != nil {
		return nil, err
	}
	sub, favLink, unfavLink, err := parseSubmissionPage(doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse submission page")
		return nil, err
	}
	sub.Favorite = unfavLink != ""
	if unfavLink != "" {
		sub.FavoriteToggleLink = pageURL(unfavLink)
	} else if favLink != "" {
		sub.FavoriteToggleLink = pageURL(favLink)
	}
	sub.Comments = model.SortComments(parseComments(doc))
	return sub, nil
}

func (c *Client) SubmissionFiles(ctx context.Context, submission *model.Submission) ([][]byte, error) {
	ctx, span := tracer.Start(ctx, "sofurry:SubmissionFiles")
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

// Journal fetches a journal; journals share the submission view endpoint.
func (c *Client) Journal(ctx context.Context, id int64) (*model.Journal, error) {
	ctx, span := tracer.Start(ctx, "sofurry:Journal")
	defer span.End()
	span.SetAttributes(attribute.Int64("id", id))

	doc, err := c.http.GetDocument(ctx, fmt.Sprintf("view/%d", id), fetch.DocumentOptions{})
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

// subgalleryTokens is the fan-out returned for a zero gallery token: one
// compound token per submission type.
func subgalleryTokens(user string, favorites bool) []model.Page {
	tokens := make([]model.Page, 0, len(subgalleries))
	for _, category := range subgalleries {
		path := category
		if favorites {
			path = "favorites?type=" + category
		}
		tokens = append(tokens, model.CompoundPage(category, subdomain(user, path), 0))
	}
	return tokens
}

// Gallery fans out to the per-type subgalleries on the first call, then
// walks each one page by page. Folder links found on a subgallery's first
// page join the subcollection queue, since folder contents never appear
// in the main stream.
func (c *Client) Gallery(ctx context.Context, user string, page model.Page) (model.Listing[model.SubmissionPartial], error) {
	ctx, span := tracer.Start(ctx, "sofurry:Gallery")
	defer span.End()

	var out model.Listing[model.SubmissionPartial]
	if page.IsZero() {
		out.Subcollections = subgalleryTokens(user, false)
		return out, nil
	}

	kind, err := typeVocabulary.Parse(page.Category)
	if err != nil {
		return out, err
	}
	doc, err := c.http.GetDocument(ctx, pageURL(page.Cursor), fetch.DocumentOptions{})
	if err != nil {
		return out, err
	}

	author, err := parseUserBig(doc)
	if err != nil {
		return out, err
	}
	figures, err := parseSubmissionFigures(doc)
	if err != nil {
		return out, err
	}
	for i := range figures {
		figures[i].Author = author
		figures[i].Type = kind
	}
	out.Items = figures

	if next := parseNextPage(doc); next != "" {
		out.Next = model.CompoundPage(page.Category, pageURL(next), 0)
	}
	if isFirstPage(doc) {
		for _, folder := range parseSubfolders(doc) {
			out.Subcollections = append(out.Subcollections, model.CompoundPage(page.Category, pageURL(folder), 0))
		}
	}
	return out, nil
}

// Scraps is empty: the site has no scraps section.
func (c *Client) Scraps(ctx context.Context, user string, page model.Page) (model.Listing[model.SubmissionPartial], error) {
	return model.Listing[model.SubmissionPartial]{}, nil
}

func (c *Client) Favorites(ctx context.Context, user string, page model.Page) (model.Listing[model.SubmissionPartial], error) {
	ctx, span := tracer.Start(ctx, "sofurry:Favorites")
	defer span.End()

	var out model.Listing[model.SubmissionPartial]
	if page.IsZero() {
		out.Subcollections = subgalleryTokens(user, true)
		return out, nil
	}

	kind, err := typeVocabulary.Parse(page.Category)
	if err != nil {
		return out, err
	}
	doc, err := c.http.GetDocument(ctx, pageURL(page.Cursor), fetch.DocumentOptions{})
	if err != nil {
		return out, err
	}
	figures, err := parseSubmissionFigures(doc)
	if err != nil {
		return out, err
	}
	for i := range figures {
		figures[i].Type = kind
	}
	out.Items = figures
	if next := parseNextPage(doc); next != "" {
		out.Next = model.CompoundPage(page.Category, pageURL(next), 0)
	}
	return out, nil
}

func (c *Client) Journals(ctx context.Context, user string, page model.Page) (model.Listing[model.JournalPartial], error) {
	ctx, span := tracer.Start(ctx, "sofurry:Journals")
	defer span.End()

	var out model.Listing[model.JournalPartial]
	target := subdomain(user, "journals")
	if page.Kind == model.PageCursor && page.Cursor != "" {
		target = pageURL(page.Cursor)
	}
	doc, err := c.http.GetDocument(ctx, target, fetch.DocumentOptions{})
	if err != nil {
		return out, err
	}

	author, err := parseUserBig(doc)
	if err != nil {
		return out, err
	}
	var parseErr error
	doc.Find(".sf-story, .sf-story-big").EachWithBreak(func(_ int, section *goquery.Selection) bool {
		journal, err := parseJournalSection(section)
		if err != nil {
			parseErr = err
			return false
		}
		journal.Author = author
		out.Items = append(out.Items, journal)
		return true
	})
	if parseErr != nil {
		return out, parseErr
	}
	if next := parseNextPage(doc); next != "" {
		out.Next = model.CursorPage(pageURL(next))
	}
	return out, nil
}

func (c *Client) watchlist(ctx context.Context, section, user string, page model.Page) (model.Listing[model.UserPartial], error) {
	var out model.Listing[model.UserPartial]

	target := subdomain(user, section)
	if page.Kind == model.PageCursor && page.Cursor != "" {
		target = pageURL(page.Cursor)
	}
	doc, err := c.http.GetDocument(ctx, target, fetch.DocumentOptions{SkipAuthCheck: true})
	if err != nil {
		return out, err
	}
	out.Items = parseWatchlistPage(doc)
	if next := parseNextPage(doc); next != "" {
		out.Next = model.CursorPage(pageURL(next))
	}
	return out, nil
}

func (c *Client) WatchlistTo(ctx context.Context, user string, page model.Page) (model.Listing[model.UserPartial], error) {
	ctx, span := tracer.Start(ctx, "sofurry:WatchlistTo")
	defer span.End()
	return c.watchlist(ctx, "watchers", user, page)
}

func (c *Client) WatchlistBy(ctx context.Context, user string, page model.Page) (model.Listing[model.UserPartial], error) {
	ctx, span := tracer.Start(ctx, "sofurry:WatchlistBy")
	defer span.End()
	return c.watchlist(ctx, "watching", user, page)
}

// Frontpage is not offered: the landing page mixes promoted content with
// no stable figure markup.
func (c *Client) Frontpage(ctx context.Context) ([]model.SubmissionPartial, error) {
	return nil, fetch.ErrUnsupported
}
