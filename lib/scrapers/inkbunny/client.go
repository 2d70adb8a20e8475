package inkbunny

import (
	"context"
	"fmt"
	"net/url"
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

var tracer = otel.Tracer("lib/scrapers/inkbunny")

const Name = "inkbunny"
const root = "https://inkbunny.net"

func init() {
	scrapers.Register(Name, func(ctx context.Context, opts scrapers.Options) (scrapers.Backend, error) {
		return NewClient(ctx, opts)
	})
}

// Client drives the site's JSON API, which authenticates with a session id
// query parameter instead of cookies. The id is lifted from the "sid"
// cookie of the supplied session so that all backends share one cookie
// surface. Profile pages have no API endpoint and are scraped as HTML.
type Client struct {
	http *fetch.Client
	sid  string
}

func NewClient(ctx context.Context, opts scrapers.Options) (*Client, error) {
	ctx, span := tracer.Start(ctx, "inkbunny:NewClient")
	defer span.End()

	sid := ""
	for _, cookie := range opts.Cookies {
		if cookie.Name == "sid" {
			sid = cookie.Value
		}
	}

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
	http.LoggedInUser = loggedInUser
	http.RaiseForUnauthorized = true
	return &Client{http: http, sid: sid}, nil
}

func (c *Client) Name() string {
	return Name
}

func (c *Client) CrawlDelay() time.Duration {
	return c.http.CrawlDelay()
}

// getAPI fetches an api_*.php endpoint, stamping the session id and
// surfacing the response's error envelope.
func (c *Client) getAPI(ctx context.Context, path string, query url.Values, out interface {
	err() error
}) error {
	query.Set("sid", c.sid)
	if err := c.http.GetJSON(ctx, path, fetch.JSONOptions{Query: query}, out); err != nil {
		return err
	}
	return out.err()
}

func (c *Client) myUsername(ctx context.Context) (string, error) {
	doc, err := c.http.GetDocument(ctx, "", fetch.DocumentOptions{SkipAuthCheck: true})
	if err != nil {
		return "", err
	}
	return loggedInUser(doc), nil
}

func (c *Client) LoginStatus(ctx context.Context) (bool, error) {
	name, err := c.myUsername(ctx)
	if err != nil {
		return false, err
	}
	return name != "", nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	name, err := c.myUsername(ctx)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fetch.ErrUnauthorized
	}
	return c.User(ctx, name)
}

func (c *Client) User(ctx context.Context, name string) (*model.User, error) {
	ctx, span := tracer.Start(ctx, "inkbunny:User")
	defer span.End()
	span.SetAttributes(attribute.String("user", name))

	doc, err := c.http.GetDocument(ctx, url.PathEscape(textutil.Slug(name)), fetch.DocumentOptions{})
	if err != nil {
		return nil, err
	}
	user, err := parseUserPage(name, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse user page")
		return nil, err
	}
	return user, nil
}

func (c *Client) Submission(ctx context.Context, id int64) (*model.Submission, error) {
	ctx, span := tracer.Start(ctx, "inkbunny:Submission")
	defer span.End()
	span.SetAttributes(attribute.Int64("id", id))

	query := url.Values{}
	query.Set("submission_ids", strconv.FormatInt(id, 10))
	query.Set("show_description_bbcode_parsed", "yes")
	query.Set("show_pools", "yes")

	var response submissionsResponse
	if err := c.getAPI(ctx, "api_submissions.php", query, &response); err != nil {
		return nil, err
	}
	if len(response.Submissions) != 1 || int64(response.Submissions[0].SubmissionID) != id {
		return nil, &fetch.SiteError{Kind: fetch.ErrNotFound, Message: fmt.Sprintf("submission %d", id)}
	}
	sub, err := response.Submissions[0].submission()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to convert submission response")
		return nil, err
	}
	return sub, nil
}

func (c *Client) SubmissionFiles(ctx context.Context, submission *model.Submission) ([][]byte, error) {
	ctx, span := tracer.Start(ctx, "inkbunny:SubmissionFiles")
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

// Journal is not offered: the API has no journal endpoints.
func (c *Client) Journal(ctx context.Context, id int64) (*model.Journal, error) {
	return nil, fetch.ErrUnsupported
}

// search runs one page of the search API. The first call asks for a
// results id; later pages replay it with a page number, which is what the
// compound token carries.
func (c *Client) search(ctx context.Context, params url.Values, page model.Page) (model.Listing[model.SubmissionPartial], error) {
	var out model.Listing[model.SubmissionPartial]

	query := url.Values{}
	if page.Kind == model.PageCompound && page.Cursor != "" {
		query.Set("rid", page.Cursor)
		query.Set("page", strconv.FormatInt(page.Number, 10))
	} else {
		query.Set("get_rid", "yes")
		query.Set("submissions_per_page", "100")
		for key := range params {
			query.Set(key, params.Get(key))
		}
	}

	var response searchResponse
	if err := c.getAPI(ctx, "api_search.php", query, &response); err != nil {
		return out, err
	}

	for _, card := range response.Submissions {
		partial, err := card.partial()
		if err != nil {
			return out, err
		}
		out.Items = append(out.Items, partial)
	}
	if response.Page < response.PagesCount {
		out.Next = model.CompoundPage("", response.RID, int64(response.Page)+1)
	}
	return out, nil
}

func (c *Client) Gallery(ctx context.Context, user string, page model.Page) (model.Listing[model.SubmissionPartial], error) {
	ctx, span := tracer.Start(ctx, "inkbunny:Gallery")
	defer span.End()
	return c.search(ctx, url.Values{"username": {user}, "scraps": {"no"}}, page)
}

func (c *Client) Scraps(ctx context.Context, user string, page model.Page) (model.Listing[model.SubmissionPartial], error) {
	ctx, span := tracer.Start(ctx, "inkbunny:Scraps")
	defer span.End()
	return c.search(ctx, url.Values{"username": {user}, "scraps": {"only"}}, page)
}

// Favorites is not offered: the API exposes no per-user favorites query.
func (c *Client) Favorites(ctx context.Context, user string, page model.Page) (model.Listing[model.SubmissionPartial], error) {
	return model.Listing[model.SubmissionPartial]{}, fetch.ErrUnsupported
}

func (c *Client) Journals(ctx context.Context, user string, page model.Page) (model.Listing[model.JournalPartial], error) {
	return model.Listing[model.JournalPartial]{}, fetch.ErrUnsupported
}

func (c *Client) WatchlistTo(ctx context.Context, user string, page model.Page) (model.Listing[model.UserPartial], error) {
	return model.Listing[model.UserPartial]{}, fetch.ErrUnsupported
}

// WatchlistBy works only for the session user; the watchlist endpoint has
// no username parameter. It returns the full list in one page.
func (c *Client) WatchlistBy(ctx context.Context, user string, page model.Page) (model.Listing[model.UserPartial], error) {
	ctx, span := tracer.Start(ctx, "inkbunny:WatchlistBy")
	defer span.End()

	var out model.Listing[model.UserPartial]
	me, err := c.myUsername(ctx)
	if err != nil {
		return out, err
	}
	if textutil.Slug(user) != textutil.Slug(me) {
		return out, fetch.ErrUnsupported
	}

	var response watchlistResponse
	if err := c.getAPI(ctx, "api_watchlist.php", url.Values{}, &response); err != nil {
		return out, err
	}
	for _, watch := range response.Watches {
		out.Items = append(out.Items, model.UserPartial{Name: watch.Username})
	}
	return out, nil
}

func (c *Client) Frontpage(ctx context.Context) ([]model.SubmissionPartial, error) {
	return nil, fetch.ErrUnsupported
}
