package scrapers

import (
	"context"
	"testing"
	"time"

	"furapi/lib/model"

	"github.com/stretchr/testify/require"
)

// stubBackend satisfies Backend with empty results, for registry tests.
type stubBackend struct{}

func (stubBackend) Name() string              { return "fake" }
func (stubBackend) CrawlDelay() time.Duration { return time.Second }
func (stubBackend) LoginStatus(ctx context.Context) (bool, error) {
	return false, nil
}
func (stubBackend) Me(ctx context.Context) (*model.User, error) { return nil, nil }
func (stubBackend) User(ctx context.Context, name string) (*model.User, error) {
	return nil, nil
}
func (stubBackend) Submission(ctx context.Context, id int64) (*model.Submission, error) {
	return nil, nil
}
func (stubBackend) SubmissionFiles(ctx context.Context, submission *model.Submission) ([][]byte, error) {
	return nil, nil
}
func (stubBackend) Journal(ctx context.Context, id int64) (*model.Journal, error) {
	return nil, nil
}
func (stubBackend) Gallery(ctx context.Context, user string, page model.Page) (model.Listing[model.SubmissionPartial], error) {
	return model.Listing[model.SubmissionPartial]{}, nil
}
func (stubBackend) Scraps(ctx context.Context, user string, page model.Page) (model.Listing[model.SubmissionPartial], error) {
	return model.Listing[model.SubmissionPartial]{}, nil
}
func (stubBackend) Favorites(ctx context.Context, user string, page model.Page) (model.Listing[model.SubmissionPartial], error) {
	return model.Listing[model.SubmissionPartial]{}, nil
}
func (stubBackend) Journals(ctx context.Context, user string, page model.Page) (model.Listing[model.JournalPartial], error) {
	return model.Listing[model.JournalPartial]{}, nil
}
func (stubBackend) WatchlistTo(ctx context.Context, user string, page model.Page) (model.Listing[model.UserPartial], error) {
	return model.Listing[model.UserPartial]{}, nil
}
func (stubBackend) WatchlistBy(ctx context.Context, user string, page model.Page) (model.Listing[model.UserPartial], error) {
	return model.Listing[model.UserPartial]{}, nil
}
func (stubBackend) Frontpage(ctx context.Context) ([]model.SubmissionPartial, error) {
	return nil, nil
}

func init() {
	Register("fake", func(ctx context.Context, opts Options) (Backend, error) {
		return stubBackend{}, nil
	})
}

// fakeListing serves a canned page graph keyed by token.
type fakeListing struct {
	pages   map[model.Page]model.Listing[int]
	fetched []model.Page
}

func (f *fakeListing) fetch(ctx context.Context, page model.Page) (model.Listing[int], error) {
	f.fetched = append(f.fetched, page)
	return f.pages[page], nil
}

func TestDrainFollowsChain(t *testing.T) {
	fake := &fakeListing{pages: map[model.Page]model.Listing[int]{
		{}:                 {Items: []int{1, 2}, Next: model.NumberPage(2)},
		model.NumberPage(2): {Items: []int{3}, Next: model.NumberPage(3)},
		model.NumberPage(3): {Items: []int{4}},
	}}

	items, err := Drain(context.Background(), fake.fetch, model.Page{})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4}, items)
	require.Len(t, fake.fetched, 3)
}

func TestDrainQueuesSubcollections(t *testing.T) {
	stories := model.CompoundPage("stories", "https://example.com/stories", 0)
	artwork := model.CompoundPage("artwork", "https://example.com/artwork", 0)
	fake := &fakeListing{pages: map[model.Page]model.Listing[int]{
		{}:      {Subcollections: []model.Page{stories, artwork}},
		stories: {Items: []int{1}},
		artwork: {Items: []int{2, 3}},
	}}

	items, err := Drain(context.Background(), fake.fetch, model.Page{})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, items)
}

func TestDrainTerminatesOnCycle(t *testing.T) {
	// a misbehaving site can hand back the token that produced the page,
	// or a loop of tokens; both must terminate
	self := model.CursorPage("self")
	loopA := model.CursorPage("a")
	loopB := model.CursorPage("b")
	fake := &fakeListing{pages: map[model.Page]model.Listing[int]{
		{}:    {Items: []int{1}, Next: self},
		self:  {Items: []int{2}, Next: self},
		loopA: {Items: []int{3}, Next: loopB},
		loopB: {Items: []int{4}, Next: loopA},
	}}

	items, err := Drain(context.Background(), fake.fetch, model.Page{})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, items)

	items, err = Drain(context.Background(), fake.fetch, loopA)
	require.NoError(t, err)
	require.Equal(t, []int{3, 4}, items)
}

func TestRegistry(t *testing.T) {
	require.Contains(t, Names(), "fake")
	backend, err := New(context.Background(), "fake", Options{})
	require.NoError(t, err)
	require.Equal(t, "fake", backend.Name())

	_, err = New(context.Background(), "nonexistent", Options{})
	require.Error(t, err)
}
