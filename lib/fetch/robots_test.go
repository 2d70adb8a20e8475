package fetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/temoto/robotstxt"
)

func policyFromString(t *testing.T, body string, userAgent string) *PathPolicy {
	data, err := robotstxt.FromStatusAndBytes(200, []byte(body))
	require.NoError(t, err)

	group := data.FindGroup(userAgent)
	delay := MinCrawlDelay
	if group != nil && group.CrawlDelay > delay {
		delay = group.CrawlDelay
	}
	return &PathPolicy{group: group, delay: delay}
}

func TestOpenPolicy(t *testing.T) {
	policy := OpenPolicy()
	require.True(t, policy.IsAllowed("/anything"))
	require.NoError(t, policy.Check("/anything"))
	require.Equal(t, MinCrawlDelay, policy.CrawlDelay())
}

func TestPolicyDisallows(t *testing.T) {
	policy := policyFromString(t, `
User-agent: *
Disallow: /msg/
Crawl-delay: 3
`, "Mozilla/5.0")

	require.True(t, policy.IsAllowed("/view/12345"))
	require.False(t, policy.IsAllowed("/msg/inbox"))
	require.Equal(t, 3*time.Second, policy.CrawlDelay())

	err := policy.Check("/msg/inbox")
	var disallowed *DisallowedPathError
	require.ErrorAs(t, err, &disallowed)
	require.Equal(t, "/msg/inbox", disallowed.Path)
}

func TestPolicyDelayNeverBelowMinimum(t *testing.T) {
	policy := policyFromString(t, `
User-agent: *
Crawl-delay: 0.1
`, "Mozilla/5.0")
	require.Equal(t, MinCrawlDelay, policy.CrawlDelay())
}
