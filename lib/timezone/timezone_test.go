package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		input  string
		expect time.Time
	}{
		{
			input:  "May 2, 2021 12:49 PM",
			expect: time.Date(2021, time.May, 2, 12, 49, 0, 0, time.UTC),
		},
		{
			input:  "2021-05-02 17:49:00",
			expect: time.Date(2021, time.May, 2, 17, 49, 0, 0, time.UTC),
		},
		{
			input:  "Apr 30, 2016 05:22",
			expect: time.Date(2016, time.April, 30, 5, 22, 0, 0, time.UTC),
		},
	}

	for _, test := range cases {
		parsed, err := ParseDate(test.input)
		require.NoError(t, err, test.input)
		require.Equal(t, test.expect, parsed, test.input)
		require.Equal(t, time.UTC, parsed.Location())
	}

	_, err := ParseDate("not a date")
	require.Error(t, err)
}

func TestParseUnix(t *testing.T) {
	parsed := ParseUnix(1619963340)
	require.Equal(t, time.UTC, parsed.Location())
	require.Equal(t, int64(1619963340), parsed.Unix())
}
