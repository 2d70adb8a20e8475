package model

import (
	"cmp"
	"log/slog"
	"slices"
	"time"

	"furapi/lib/textutil"
)

// Comment is one entry in an item's discussion. Comments are parsed flat
// with ReplyToID carrying the raw parent id (zero for top-level), then
// linked into a tree by SortComments. Identity is the numeric id scoped to
// the owning submission or journal; trees are never shared across items.
type Comment struct {
	ID     int64
	Author UserPartial
	Date   time.Time
	Text   string
	Edited bool
	Hidden bool

	// ReplyToID is the raw parent comment id from the parse, zero when
	// top-level. ReplyTo is the resolved parent, assigned once by
	// SortComments along with Replies.
	ReplyToID int64
	ReplyTo   *Comment
	Replies   []*Comment
}

// Compare orders comments by id.
func (c *Comment) Compare(other *Comment) int {
	return cmp.Compare(c.ID, other.ID)
}

// TextBBCode renders the comment body back to the BBCode form the sites
// accept in their reply forms.
func (c *Comment) TextBBCode() string {
	return textutil.HTMLToBBCode(c.Text)
}

// Export serializes the comment with its replies expanded recursively and
// the parent backreference reduced to a bare id, which keeps the mapping
// acyclic and finite.
func (c *Comment) Export() map[string]any {
	replies := make([]map[string]any, 0, len(c.Replies))
	for _, reply := range c.Replies {
		replies = append(replies, reply.Export())
	}
	var replyTo any
	if c.ReplyToID != 0 {
		replyTo = c.ReplyToID
	}
	return map[string]any{
		"id":       c.ID,
		"author":   c.Author.Export(),
		"date":     c.Date,
		"text":     c.Text,
		"replies":  replies,
		"reply_to": replyTo,
		"edited":   c.Edited,
		"hidden":   c.Hidden,
	}
}

func compareByDateThenID(a, b *Comment) int {
	if d := a.Date.Compare(b.Date); d != 0 {
		return d
	}
	return cmp.Compare(a.ID, b.ID)
}

// FlattenComments collects every comment reachable through Replies into one
// flat list, deduplicated by id and sorted ascending by date then id. The
// input may be flat, a tree, or a mix; Replies are left untouched.
func FlattenComments(comments []*Comment) []*Comment {
	seen := map[int64]*Comment{}
	var collect func(cs []*Comment)
	collect = func(cs []*Comment) {
		for _, c := range cs {
			if _, ok := seen[c.ID]; !ok {
				seen[c.ID] = c
			}
			collect(c.Replies)
		}
	}
	collect(comments)

	flat := make([]*Comment, 0, len(seen))
	for _, c := range seen {
		flat = append(flat, c)
	}
	slices.SortFunc(flat, compareByDateThenID)
	return flat
}

// SortComments links a comment set into a reply tree and returns the roots.
// Replies are rebuilt from scratch in ascending (date, id) order and every
// resolvable ReplyToID gains a ReplyTo pointer. A comment whose parent id
// matches nothing in the set becomes a root; that leniency matches how
// sites tolerate deleted parents, but it can also hide a mis-parsed id, so
// each case is logged.
func SortComments(comments []*Comment) []*Comment {
	flat := FlattenComments(comments)

	byID := make(map[int64]*Comment, len(flat))
	for _, c := range flat {
		byID[c.ID] = c
		c.Replies = nil
		c.ReplyTo = nil
	}

	roots := make([]*Comment, 0, len(flat))
	for _, c := range flat {
		if c.ReplyToID == 0 {
			roots = append(roots, c)
			continue
		}
		parent, ok := byID[c.ReplyToID]
		if !ok {
			slog.Warn(
				"comment parent not present in set, treating as root",
				"comment", c.ID,
				"parent", c.ReplyToID,
			)
			roots = append(roots, c)
			continue
		}
		c.ReplyTo = parent
		parent.Replies = append(parent.Replies, c)
	}
	return roots
}
