package timezone

import (
	"time"

	"github.com/araddon/dateparse"
)

// All timestamps in the library are canonicalized to UTC, whatever zone
// the site renders them in. Sites that print naive local times are treated
// as UTC rather than guessed at.
var Location = time.UTC

func Now() time.Time {
	return time.Now().In(Location)
}

// ParseDate reads the free-form date strings sites render ("May 2, 2021
// 12:49 PM", "2021-05-02 17:49:00") and returns a timezone-aware UTC time.
func ParseDate(s string) (time.Time, error) {
	t, err := dateparse.ParseIn(s, Location)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(Location), nil
}

// ParseUnix converts a site-reported unix timestamp to UTC.
func ParseUnix(sec int64) time.Time {
	return time.Unix(sec, 0).In(Location)
}
