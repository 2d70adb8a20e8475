package fetch

import (
	"errors"
	"fmt"
)

// Sentinel errors for classified failure pages. Backends wrap these with
// site-supplied text where available, so callers should match with
// errors.Is.
var (
	ErrNonePage        = errors.New("page is empty or could not be classified")
	ErrDisabledAccount = errors.New("account is disabled")
	ErrNotFound        = errors.New("resource not found")
	ErrServerError     = errors.New("site reported a server error")
	ErrNoticeMessage   = errors.New("site returned a notice page")
	ErrUnauthorized    = errors.New("not logged in")
	ErrUnsupported     = errors.New("operation not supported by this backend")
)

// ParsingError reports a required structural element missing from a fetched
// page. Optional elements never produce one; their fields default instead.
type ParsingError struct {
	Element string
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("missing %s", e.Element)
}

// Missing is shorthand for constructing a ParsingError.
func Missing(element string) error {
	return &ParsingError{Element: element}
}

// DisallowedPathError reports a path blocked by the robots policy.
type DisallowedPathError struct {
	Path string
}

func (e *DisallowedPathError) Error() string {
	return fmt.Sprintf("path %q is not allowed by robots.txt", e.Path)
}

// StatusError reports a non-2xx response that no backend rule tolerated.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.Code, e.URL)
}

// SiteError carries message text scraped from a classified failure page,
// wrapping one of the sentinel errors above.
type SiteError struct {
	Kind    error
	Message string
}

func (e *SiteError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Message)
}

func (e *SiteError) Unwrap() error {
	return e.Kind
}
