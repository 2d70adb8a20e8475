package model

import "fmt"

// PageKind tags the shape of a pagination token.
type PageKind int

const (
	// PageNone is the zero token: no further page.
	PageNone PageKind = iota
	// PageNumber is a 1-based page index.
	PageNumber
	// PageCursor is an opaque cursor string issued by the site.
	PageCursor
	// PageCompound pairs a category (a subgallery or search session) with
	// a cursor or index for the position inside it.
	PageCompound
)

// Page is a backend-specific pagination token behind one tagged type.
// Backends interpret only the tokens they minted; callers pass tokens back
// unmodified.
type Page struct {
	Kind     PageKind
	Number   int64
	Cursor   string
	Category string
}

func NumberPage(n int64) Page {
	return Page{Kind: PageNumber, Number: n}
}

func CursorPage(cursor string) Page {
	return Page{Kind: PageCursor, Cursor: cursor}
}

func CompoundPage(category, cursor string, number int64) Page {
	return Page{Kind: PageCompound, Category: category, Cursor: cursor, Number: number}
}

// IsZero reports whether the token marks the end of a listing.
func (p Page) IsZero() bool {
	return p.Kind == PageNone
}

func (p Page) String() string {
	switch p.Kind {
	case PageNone:
		return "<end>"
	case PageNumber:
		return fmt.Sprintf("page %d", p.Number)
	case PageCursor:
		return fmt.Sprintf("cursor %q", p.Cursor)
	default:
		return fmt.Sprintf("%s: cursor %q page %d", p.Category, p.Cursor, p.Number)
	}
}

// Listing is one page of a paginated collection. Next is the token for the
// following page (zero when exhausted). Subcollections carries the entry
// tokens of additional independent streams the caller must drain alongside
// the primary chain; most backends leave it empty.
type Listing[T any] struct {
	Items          []T
	Next           Page
	Subcollections []Page
}
