package weasyl

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"furapi/lib/fetch"
	"furapi/lib/model"
	"furapi/lib/scrapers"
	"furapi/lib/textutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/scrapers/weasyl")

const Name = "weasyl"
const root = "https://www.weasyl.com"

func init() {
	scrapers.Register(Name, func(ctx context.Context, opts scrapers.Options) (scrapers.Backend, error) {
		return NewClient(ctx, opts)
	})
}

// Client talks to the site's JSON API for everything the API covers and
// falls back to HTML scraping for the favorites listing, which has no
// endpoint. The robots policy is skipped: it does not describe the api/
// namespace this client lives in.
type Client struct {
	http *fetch.Client
}

func NewClient(ctx context.Context, opts scrapers.Options) (*Client, error) {
	ctx, span := tracer.Start(ctx, "weasyl:NewClient")
	defer span.End()

	http, err := fetch.NewClient(ctx, fetch.Options{
		Root:       root,
		Cookies:    opts.Cookies,
		UserAgent:  opts.UserAgent,
		Timeout:    opts.Timeout,
		SkipRobots: true,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to construct fetch client")
		return nil, err
	}
	return &Client{http: http}, nil
}

func (c *Client) Name() string {
	return Name
}

func (c *Client) CrawlDelay() time.Duration {
	return c.http.CrawlDelay()
}

// userPath builds an api path for a user, normalized to the site's login
// name form.
func userPath(user string, suffix string) string {
	return fmt.Sprintf("api/users/%s/%s", url.PathEscape(textutil.SlugStrict(user)), suffix)
}

func (c *Client) whoami(ctx context.Context) (whoamiResponse, error) {
	var whoami whoamiResponse
	err := c.http.GetJSON(ctx, "api/whoami", fetch.JSONOptions{SkipAuthCheck: true}, &whoami)
	return whoami, err
}

func (c *Client) LoginStatus(ctx context.Context) (bool, error) {
	whoami, err := c.whoami(ctx)
	if errors.Is(err, fetch.ErrUnauthorized) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return whoami.Login != "", nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	whoami, err := c.whoami(ctx)
	if err != nil {
		return nil, err
	}
	if whoami.Login == "" {
		return nil, fetch.ErrUnauthorized
	}
	return c.User(ctx, whoami.Login)
}

func (c *Client) User(ctx context.Context, name string) (*model.User, error) {
	ctx, span := tracer.Start(ctx, "weasyl:User")
	defer span.End()
	span.SetAttributes(attribute.String("user", name))

	var view userView
	if err := c.http.GetJSON(ctx, userPath(name, "view"), fetch.JSONOptions{}, &view); err != nil {
		return nil, err
	}
	user, err := view.user()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to convert user response")
		return nil, err
	}
	return user, nil
}

func (c *Client) Submission(ctx context.Context, id int64) (*model.Submission, error) {
	ctx, span := tracer.Start(ctx, "weasyl:Submission")
	defer span.End()
	span.SetAttributes(attribute.Int64("id", id))

	var view submissionView
	path := fmt.Sprintf("api/submissions/%d/view", id)
	if err := c.http.GetJSON(ctx, path, fetch.JSONOptions{}, &view); err != nil {
		return nil, err
	}
	if view.SubmitID != id {
		return nil, fetch.Missing("submission id in response")
	}
	sub, err := view.submission()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to convert submission response")
		return nil, err
	}
	return sub, nil
}

func (c *Client) SubmissionFiles(ctx context.Context, submission *model.Submission) ([][]byte, error) {
	ctx, span := tracer.Start(ctx, "weasyl:SubmissionFiles")
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
	ctx, span := tracer.Start(ctx, "weasyl:Journal")
	defer span.End()
	span.SetAttributes(attribute.Int64("id", id))

	var view journalView
	path := fmt.Sprintf("api/journals/%d/view", id)
	if err := c.http.GetJSON(ctx, path, fetch.JSONOptions{}, &view); err != nil {
		return nil, err
	}
	if view.JournalID != id {
		return nil, fetch.Missing("journal id in response")
	}
	journal, err := view.journal()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to convert journal response")
		return nil, err
	}
	return journal, nil
}

// Gallery pages with the API's nextid cursor.
func (c *Client) Gallery(ctx context.Context, user string, page model.Page) (model.Listing[model.SubmissionPartial], error) {
	ctx, span := tracer.Start(ctx, "weasyl:Gallery")
	defer span.End()

	var out model.Listing[model.SubmissionPartial]
	query := url.Values{}
	if page.Kind == model.PageCursor && page.Cursor != "" {
		query.Set("nextid", page.Cursor)
	}

	var response galleryResponse
	err := c.http.GetJSON(ctx, userPath(user, "gallery"), fetch.JSONOptions{Query: query}, &response)
	if err != nil {
		return out, err
	}

	for _, card := range response.Submissions {
		partial, err := card.partial()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to convert gallery card")
			return out, err
		}
		if partial.Author.Name == "" {
			partial.Author = model.UserPartial{Name: user}
		}
		out.Items = append(out.Items, partial)
	}
	if response.NextID != nil {
		out.Next = model.CursorPage(strconv.FormatInt(*response.NextID, 10))
	}
	return out, nil
}

// Scraps is empty: the site has no scraps section.
func (c *Client) Scraps(ctx context.Context, user string, page model.Page) (model.Listing[model.SubmissionPartial], error) {
	return model.Listing[model.SubmissionPartial]{}, nil
}

// Favorites scrapes the HTML favorites page, which needs the owner's
// numeric id. The zero page resolves that id through the API and carries
// it forward inside the compound token so later pages skip the lookup.
func (c *Client) Favorites(ctx context.Context, user string, page model.Page) (model.Listing[model.SubmissionPartial], error) {
	ctx, span := tracer.Start(ctx, "weasyl:Favorites")
	defer span.End()

	var out model.Listing[model.SubmissionPartial]

	userID := page.Category
	if page.IsZero() {
		var view userView
		if err := c.http.GetJSON(ctx, userPath(user, "view"), fetch.JSONOptions{}, &view); err != nil {
			return out, err
		}
		userID = strconv.FormatInt(view.UserID, 10)
	}

	query := url.Values{}
	query.Set("userid", userID)
	query.Set("feature", "submit")
	if page.Cursor != "" {
		query.Set("nextid", page.Cursor)
	}
	doc, err := c.http.GetDocument(ctx, "favorites", fetch.DocumentOptions{Query: query})
	if err != nil {
		return out, err
	}

	figures, next, err := parseFavoritesPage(doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse favorites page")
		return out, err
	}
	out.Items = figures
	if next != "" {
		out.Next = model.CompoundPage(userID, next, 0)
	}
	return out, nil
}

// Journals is not offered: the API has no journal listing endpoint and the
// HTML journals page carries no stable markup to scrape.
func (c *Client) Journals(ctx context.Context, user string, page model.Page) (model.Listing[model.JournalPartial], error) {
	return model.Listing[model.JournalPartial]{}, fetch.ErrUnsupported
}

func (c *Client) WatchlistTo(ctx context.Context, user string, page model.Page) (model.Listing[model.UserPartial], error) {
	return model.Listing[model.UserPartial]{}, fetch.ErrUnsupported
}

func (c *Client) WatchlistBy(ctx context.Context, user string, page model.Page) (model.Listing[model.UserPartial], error) {
	return model.Listing[model.UserPartial]{}, fetch.ErrUnsupported
}

// Frontpage lists the latest submissions, deduplicated and ordered by
// descending id.
func (c *Client) Frontpage(ctx context.Context) ([]model.SubmissionPartial, error) {
	ctx, span := tracer.Start(ctx, "weasyl:Frontpage")
	defer span.End()

	var cards []submissionCard
	if err := c.http.GetJSON(ctx, "api/submissions/frontpage", fetch.JSONOptions{}, &cards); err != nil {
		return nil, err
	}

	seen := map[int64]bool{}
	submissions := make([]model.SubmissionPartial, 0, len(cards))
	for _, card := range cards {
		if seen[card.SubmitID] {
			continue
		}
		seen[card.SubmitID] = true
		partial, err := card.partial()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to convert frontpage card")
			return nil, err
		}
		submissions = append(submissions, partial)
	}
	sort.Slice(submissions, func(i, j int) bool {
		return submissions[i].ID > submissions[j].ID
	})
	return submissions, nil
}
