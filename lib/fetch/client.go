package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"furapi/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/fetch")

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Options struct {
	Root      string
	Cookies   []*http.Cookie
	UserAgent string
	// zero means 30 seconds
	Timeout time.Duration
	// treat every path as allowed instead of fetching robots.txt;
	// used by backends whose API paths the policy file does not cover
	SkipRobots bool
	// route requests through the cloudflare bypass transport
	CloudflareBypass bool
}

// Client issues rate-gated, robots-checked GET requests against one site.
// Parsing hooks (page classification, session-user detection) are supplied
// by the owning backend since they are site-specific.
type Client struct {
	Root   *url.URL
	Http   *resty.Client
	gate   *Gate
	policy *PathPolicy

	// Classify inspects a parsed page and returns a SiteError if it is a
	// recognized failure page. Nil disables the check.
	Classify func(doc *goquery.Document) error
	// LoggedInUser extracts the session user from a parsed page, or ""
	// when the page shows no login session. Nil disables the check.
	LoggedInUser func(doc *goquery.Document) string
	// RaiseForUnauthorized makes GetDocument fail with ErrUnauthorized
	// when LoggedInUser comes back empty.
	RaiseForUnauthorized bool
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	root, err := url.Parse(opts.Root)
	if err != nil {
		return nil, err
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}

	client := resty.New()
	client.SetBaseURL(opts.Root)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	if len(opts.Cookies) > 0 {
		client.SetCookies(opts.Cookies)
	}
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(root.Hostname()))
	client.SetTimeout(timeout)

	telemetry.InstrumentResty(client, "fetch/http")

	policy := OpenPolicy()
	if !opts.SkipRobots {
		policy, err = FetchPolicy(ctx, client, userAgent)
		if err != nil {
			return nil, err
		}
	}

	return &Client{
		Root:   root,
		Http:   client,
		gate:   NewGate(policy.CrawlDelay()),
		policy: policy,
	}, nil
}

// CrawlDelay reports the delay enforced between successive fetches.
func (c *Client) CrawlDelay() time.Duration {
	return c.gate.Delay()
}

func (c *Client) IsAllowed(path string) bool {
	return c.policy.IsAllowed(path)
}

func (c *Client) CheckPath(path string) error {
	return c.policy.Check(path)
}

// Get fetches a path relative to the client root (or an absolute URL, used
// by backends whose pagination tokens are full URLs). The robots check and
// the crawl delay are both paid before the request goes out; the delay is
// paid even when the request ultimately fails.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*resty.Response, error) {
	ctx, span := tracer.Start(ctx, "client:Get")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	checkPath := path
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		checkPath = u.Path
	}
	if err := c.policy.Check(checkPath); err != nil {
		span.SetStatus(codes.Error, "path disallowed by robots.txt")
		return nil, err
	}
	if err := c.gate.Wait(ctx); err != nil {
		return nil, err
	}

	req := c.Http.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	res, err := req.Get(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, err
	}
	return res, nil
}

type DocumentOptions struct {
	SkipPageCheck bool
	SkipAuthCheck bool
	Query         url.Values
}

// GetDocument fetches a path and parses the body as HTML, running the
// backend's page classification and login checks unless skipped.
func (c *Client) GetDocument(ctx context.Context, path string, opts DocumentOptions) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "client:GetDocument")
	defer span.End()

	res, err := c.Get(ctx, path, opts.Query)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		err := &StatusError{Code: res.StatusCode(), URL: res.Request.URL}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}

	if !opts.SkipPageCheck && c.Classify != nil {
		if err := c.Classify(doc); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}
	if !opts.SkipAuthCheck && c.RaiseForUnauthorized && c.LoggedInUser != nil {
		if c.LoggedInUser(doc) == "" {
			span.SetStatus(codes.Error, "no session user on page")
			return nil, ErrUnauthorized
		}
	}
	return doc, nil
}

type JSONOptions struct {
	SkipAuthCheck bool
	Query         url.Values
}

// GetJSON fetches a path and decodes the body into out. A 401 maps to
// ErrUnauthorized rather than a transport error so that backends can
// distinguish "not logged in" from a failed request.
func (c *Client) GetJSON(ctx context.Context, path string, opts JSONOptions, out any) error {
	ctx, span := tracer.Start(ctx, "client:GetJSON")
	defer span.End()

	res, err := c.Get(ctx, path, opts.Query)
	if err != nil {
		return err
	}
	if res.StatusCode() == http.StatusUnauthorized {
		if !opts.SkipAuthCheck {
			span.SetStatus(codes.Error, "unauthorized")
		}
		return ErrUnauthorized
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		err := &StatusError{Code: res.StatusCode(), URL: res.Request.URL}
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := json.Unmarshal(res.Body(), out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode json")
		return err
	}
	return nil
}

// Download fetches a file URL (absolute, typically from a parsed
// submission) and returns the raw bytes. The crawl delay applies, the
// robots check does not: file hosts live on separate CDN domains that the
// site policy does not describe.
func (c *Client) Download(ctx context.Context, fileURL string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:Download")
	defer span.End()
	span.SetAttributes(attribute.String("url", fileURL))

	if err := c.gate.Wait(ctx); err != nil {
		return nil, err
	}
	res, err := c.Http.R().
		SetContext(ctx).
		Get(fileURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "download failed")
		return nil, err
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		err := &StatusError{Code: res.StatusCode(), URL: fileURL}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res.Body(), nil
}
