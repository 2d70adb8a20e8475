package textutil

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

var (
	// most sites keep lowercase letters, digits, and .~`- in profile URLs
	slugDisallowed = regexp.MustCompile("[^a-z0-9.~`-]")
	// weasyl drops the backtick too
	slugDisallowedStrict = regexp.MustCompile(`[^a-z0-9.~-]`)
)

// stripMarks decomposes accented letters and drops the combining marks,
// so "é" survives slugging as "e" rather than vanishing.
func stripMarks(s string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(s) {
		if !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Slug converts a display name into the form sites use in profile URLs:
// lowercased, with every character outside the site's allowed set removed.
// Slugging an already-slugged name is a no-op.
func Slug(name string) string {
	return slugDisallowed.ReplaceAllString(strings.ToLower(stripMarks(name)), "")
}

// SlugStrict is Slug with the backtick also removed, for sites whose URL
// names exclude it.
func SlugStrict(name string) string {
	return slugDisallowedStrict.ReplaceAllString(strings.ToLower(stripMarks(name)), "")
}

var countSeparators = regexp.MustCompile(`[,. ]`)

// ParseCount reads an integer that may carry thousands separators, as
// rendered on profile stat rows ("1,234" or "1.234"). Empty input is zero.
func ParseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(countSeparators.ReplaceAllString(s, ""), 10, 64)
}
