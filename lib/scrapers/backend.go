package scrapers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"furapi/lib/model"
)

// Backend is the uniform surface every supported site implements. All
// methods are synchronous and perform blocking I/O; every outbound request
// funnels through the backend's rate gate, so concurrent callers against
// one instance serialize there. Listing operations fetch exactly one page;
// callers follow Next tokens (and drain Subcollections) themselves, see
// DrainSubmissions and friends.
type Backend interface {
	// Name is the registry key, e.g. "furaffinity".
	Name() string
	// CrawlDelay reports the politeness interval between fetches.
	CrawlDelay() time.Duration

	// LoginStatus reports whether the supplied cookies carry a live
	// session. Me fetches the session user's own profile.
	LoginStatus(ctx context.Context) (bool, error)
	Me(ctx context.Context) (*model.User, error)

	User(ctx context.Context, name string) (*model.User, error)
	Submission(ctx context.Context, id int64) (*model.Submission, error)
	// SubmissionFiles downloads every file of an already-fetched
	// submission, in FileURLs order.
	SubmissionFiles(ctx context.Context, submission *model.Submission) ([][]byte, error)
	Journal(ctx context.Context, id int64) (*model.Journal, error)

	Gallery(ctx context.Context, user string, page model.Page) (model.Listing[model.SubmissionPartial], error)
	Scraps(ctx context.Context, user string, page model.Page) (model.Listing[model.SubmissionPartial], error)
	Favorites(ctx context.Context, user string, page model.Page) (model.Listing[model.SubmissionPartial], error)
	Journals(ctx context.Context, user string, page model.Page) (model.Listing[model.JournalPartial], error)

	// WatchlistTo lists the users watching the given user, WatchlistBy
	// the users the given user watches.
	WatchlistTo(ctx context.Context, user string, page model.Page) (model.Listing[model.UserPartial], error)
	WatchlistBy(ctx context.Context, user string, page model.Page) (model.Listing[model.UserPartial], error)

	Frontpage(ctx context.Context) ([]model.SubmissionPartial, error)
}

// Options carries the session inputs shared by every backend constructor.
// Cookies are opaque to the library; nothing is persisted.
type Options struct {
	Cookies   []*http.Cookie
	UserAgent string
	Timeout   time.Duration
}

type Factory func(ctx context.Context, opts Options) (Backend, error)

var registry = map[string]Factory{}

// Register installs a backend constructor under its name. Backend packages
// call this from init.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// New constructs the named backend.
func New(ctx context.Context, name string, opts Options) (Backend, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q", name)
	}
	return factory(ctx, opts)
}

// Names lists the registered backends.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// FetchPage is one paginated listing operation with the user already bound.
type FetchPage[T any] func(ctx context.Context, page model.Page) (model.Listing[T], error)

// Drain walks a listing to exhaustion: it follows the Next chain and
// queues every subcollection token it encounters. A page whose Next token
// repeats the token that produced it ends that chain, which keeps a
// misbehaving site from inducing an infinite crawl.
func Drain[T any](ctx context.Context, fetch FetchPage[T], start model.Page) ([]T, error) {
	var items []T
	queue := []model.Page{start}
	visited := map[model.Page]bool{}

	for len(queue) > 0 {
		page := queue[0]
		queue = queue[1:]
		if visited[page] {
			continue
		}
		visited[page] = true

		listing, err := fetch(ctx, page)
		if err != nil {
			return items, err
		}
		items = append(items, listing.Items...)

		if !listing.Next.IsZero() && listing.Next != page {
			queue = append(queue, listing.Next)
		}
		queue = append(queue, listing.Subcollections...)
	}
	return items, nil
}
