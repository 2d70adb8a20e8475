package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/temoto/robotstxt"
	"go.opentelemetry.io/otel/codes"
)

// PathPolicy answers whether a path may be fetched according to the site's
// robots.txt. Backends whose access pattern is not covered by the policy
// file (JSON APIs) construct an open policy instead.
type PathPolicy struct {
	group *robotstxt.Group
	delay time.Duration
}

// OpenPolicy allows every path and carries the minimum crawl delay.
func OpenPolicy() *PathPolicy {
	return &PathPolicy{delay: MinCrawlDelay}
}

// FetchPolicy downloads and parses robots.txt from the client's root.
// A missing or unparsable policy file yields an open policy, matching how
// robots-respecting crawlers treat absent files.
func FetchPolicy(ctx context.Context, http *resty.Client, userAgent string) (*PathPolicy, error) {
	ctx, span := tracer.Start(ctx, "fetch:FetchPolicy")
	defer span.End()

	res, err := http.R().
		SetContext(ctx).
		Get("/robots.txt")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch robots.txt")
		return nil, err
	}

	data, err := robotstxt.FromStatusAndBytes(res.StatusCode(), res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse robots.txt")
		return OpenPolicy(), nil
	}

	group := data.FindGroup(userAgent)
	delay := MinCrawlDelay
	if group != nil && group.CrawlDelay > delay {
		delay = group.CrawlDelay
	}
	return &PathPolicy{group: group, delay: delay}, nil
}

// CrawlDelay reports the delay requested by the policy, never below
// MinCrawlDelay.
func (p *PathPolicy) CrawlDelay() time.Duration {
	return p.delay
}

func (p *PathPolicy) IsAllowed(path string) bool {
	if p.group == nil {
		return true
	}
	return p.group.Test("/" + strings.TrimLeft(path, "/"))
}

// Check returns a DisallowedPathError when the policy blocks the path.
func (p *PathPolicy) Check(path string) error {
	if !p.IsAllowed(path) {
		return &DisallowedPathError{Path: path}
	}
	return nil
}
