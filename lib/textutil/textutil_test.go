package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Fender":       "fender",
		"Some User":    "someuser",
		"dot.tilde~":   "dot.tilde~",
		"back`tick":    "back`tick",
		"Under_Score!": "underscore",
		"Café":         "cafe",
	}
	for input, expected := range cases {
		require.Equal(t, expected, Slug(input), "input %q", input)
	}
}

func TestSlugIdempotent(t *testing.T) {
	inputs := []string{"Fender", "Some User", "weird -- Name~", "ünïcode", "a`b.c-d"}
	for _, input := range inputs {
		once := Slug(input)
		require.Equal(t, once, Slug(once), "input %q", input)

		strict := SlugStrict(input)
		require.Equal(t, strict, SlugStrict(strict), "input %q", input)
	}
}

func TestSlugStrictDropsBacktick(t *testing.T) {
	require.Equal(t, "backtick", SlugStrict("back`tick"))
	require.Equal(t, "back`tick", Slug("back`tick"))
}

func TestParseCount(t *testing.T) {
	cases := map[string]int64{
		"":          0,
		"0":         0,
		"42":        42,
		"1,234":     1234,
		"1.234":     1234,
		"1 234 567": 1234567,
		"  987  ":   987,
	}
	for input, expected := range cases {
		n, err := ParseCount(input)
		require.NoError(t, err, "input %q", input)
		require.Equal(t, expected, n, "input %q", input)
	}

	_, err := ParseCount("lots")
	require.Error(t, err)
}

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "johnsmith", NormalizeName(" John Smith\n"))
	require.True(t, MatchName("John Smith", []string{"johns"}))
	require.False(t, MatchName("John Smith", []string{"jane"}))
}
