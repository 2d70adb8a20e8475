package model

import (
	"strings"
	"time"

	"furapi/lib/textutil"
)

// UserStats aggregates the counters a profile page shows. Backends populate
// the subset their site reports; absent counters stay zero.
type UserStats struct {
	Views          int64
	Submissions    int64
	Favorites      int64
	CommentsEarned int64
	CommentsMade   int64
	Journals       int64
	WatchedBy      int64
	Watching       int64
}

func (s UserStats) Export() map[string]any {
	return map[string]any{
		"views":           s.Views,
		"submissions":     s.Submissions,
		"favorites":       s.Favorites,
		"comments_earned": s.CommentsEarned,
		"comments_made":   s.CommentsMade,
		"journals":        s.Journals,
		"watched_by":      s.WatchedBy,
		"watching":        s.Watching,
	}
}

// UserPartial is the author view embedded in listings and comments.
type UserPartial struct {
	// Name is the display name; NameURL is the site's slug form and the
	// user's identity. Parsers fill NameURL with the backend's slug;
	// when left empty it falls back to the shared slug transform.
	Name      string
	NameURL   string
	Status    string
	Title     string
	JoinDate  time.Time
	AvatarURL string
}

// Identity returns the normalized name the user is compared and hashed by.
func (u UserPartial) Identity() string {
	if u.NameURL != "" {
		return u.NameURL
	}
	return textutil.Slug(u.Name)
}

// Compare orders users by identity.
func (u UserPartial) Compare(other UserPartial) int {
	return strings.Compare(u.Identity(), other.Identity())
}

func (u UserPartial) Same(other UserPartial) bool {
	return u.Identity() == other.Identity()
}

func (u UserPartial) Export() map[string]any {
	return map[string]any{
		"name":       u.Name,
		"name_url":   u.Identity(),
		"status":     u.Status,
		"title":      u.Title,
		"join_date":  u.JoinDate,
		"avatar_url": u.AvatarURL,
	}
}

// User is the full profile view.
type User struct {
	UserPartial

	Profile  string
	Stats    UserStats
	Info     map[string]string
	Contacts map[string]string

	Watched           bool
	WatchedToggleLink string
	Blocked           bool
	BlockedToggleLink string
}

func (u User) Export() map[string]any {
	out := u.UserPartial.Export()
	out["profile"] = u.Profile
	out["stats"] = u.Stats.Export()
	out["info"] = u.Info
	out["contacts"] = u.Contacts
	out["watched"] = u.Watched
	out["watched_toggle_link"] = u.WatchedToggleLink
	out["blocked"] = u.Blocked
	out["blocked_toggle_link"] = u.BlockedToggleLink
	return out
}
