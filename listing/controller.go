// Package listing drives the home view: a paginated, searchable list of
// posts. Search edits are debounced, every page or search change triggers
// exactly one fetch, and only the most recently issued fetch may update the
// state.
package listing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/eringen/blogfront/domain"
)

// DefaultDebounce is the quiet period after the last search edit before
// the search is applied.
const DefaultDebounce = 500 * time.Millisecond

// Fetcher loads one page of posts. gateway.PostSource satisfies it.
type Fetcher interface {
	ListPosts(ctx context.Context, q domain.ListQuery) (domain.PostPage, error)
}

// State is a snapshot of the controller.
type State struct {
	SearchText      string
	DebouncedSearch string
	Page            int
	TotalPages      int
	Posts           []domain.BlogPost
	Loading         bool
	Offline         bool
	Err             error
	// Version increases with every change, so consumers can drop
	// snapshots that arrive out of order.
	Version uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the real clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithPageSize sets the number of posts requested per page.
func WithPageSize(n int) Option {
	return func(ctl *Controller) {
		if n > 0 {
			ctl.pageSize = n
		}
	}
}

// WithDebounce sets the search debounce window.
func WithDebounce(d time.Duration) Option {
	return func(ctl *Controller) { ctl.debounce = d }
}

// OnChange registers a callback that receives a snapshot after every state
// change. It runs outside the controller's lock and may call back into it.
func OnChange(fn func(State)) Option {
	return func(ctl *Controller) { ctl.onChange = fn }
}

// Controller owns the listing state.
type Controller struct {
	src      Fetcher
	clock    clockwork.Clock
	debounce time.Duration
	pageSize int
	onChange func(State)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	st      State
	timer   clockwork.Timer
	pending uint64 // debounce generation
	seq     uint64 // last issued fetch
	closed  bool
}

// New returns a controller on page 1 with an empty search. Nothing is
// fetched until Start.
func New(src Fetcher, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		src:      src,
		clock:    clockwork.NewRealClock(),
		debounce: DefaultDebounce,
		pageSize: domain.DefaultPageSize,
		ctx:      ctx,
		cancel:   cancel,
		st:       State{Page: 1},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start issues the initial fetch.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	snap := c.fetchLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// SetSearchText records an edit of the search box and restarts the
// debounce window.
func (c *Controller) SetSearchText(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.st.SearchText = text
	if c.timer != nil {
		c.timer.Stop()
	}
	c.pending++
	gen := c.pending
	c.timer = c.clock.AfterFunc(c.debounce, func() { c.applySearch(gen, text) })
	snap := c.changedLocked()
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Controller) applySearch(gen uint64, text string) {
	c.mu.Lock()
	if c.closed || gen != c.pending {
		c.mu.Unlock()
		return
	}
	if text == c.st.DebouncedSearch && c.st.Page == 1 {
		c.mu.Unlock()
		return
	}
	c.st.DebouncedSearch = text
	c.st.Page = 1
	snap := c.fetchLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// SetPage moves to page p. Pages below 1 are ignored, as is the current page.
// Pages past TotalPages are fetched as asked; the service answers them empty.
func (c *Controller) SetPage(p int) {
	c.mu.Lock()
	if c.closed || p < 1 || p == c.st.Page {
		c.mu.Unlock()
		return
	}
	c.st.Page = p
	snap := c.fetchLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// NextPage and PrevPage step within [1, TotalPages].
func (c *Controller) NextPage() {
	st := c.State()
	if st.Page < st.TotalPages {
		c.SetPage(st.Page + 1)
	}
}

func (c *Controller) PrevPage() {
	st := c.State()
	if st.Page > 1 {
		c.SetPage(st.Page - 1)
	}
}

// State returns a snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Window returns the page links for the current state.
func (c *Controller) Window() []int {
	st := c.State()
	return PageWindow(st.Page, st.TotalPages)
}

// Close cancels in-flight fetches and pending debounces, then waits for the
// fetch goroutines to return.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}

func (c *Controller) fetchLocked() State {
	c.seq++
	seq := c.seq
	c.st.Loading = true
	q := domain.ListQuery{Page: c.st.Page, Limit: c.pageSize, Search: c.st.DebouncedSearch}
	c.wg.Add(1)
	go c.run(seq, q)
	return c.changedLocked()
}

func (c *Controller) run(seq uint64, q domain.ListQuery) {
	defer c.wg.Done()
	var (
		page domain.PostPage
		err  error
	)
	defer func() { c.finish(seq, page, err) }()
	page, err = c.src.ListPosts(c.ctx, q)
}

func (c *Controller) finish(seq uint64, page domain.PostPage, err error) {
	c.mu.Lock()
	if latest := c.seq; seq != latest {
		c.mu.Unlock()
		slog.Debug("Discarding stale listing result", "seq", seq, "latest", latest)
		return
	}
	c.st.Loading = false
	if err != nil {
		c.st.Posts = nil
		c.st.TotalPages = 0
		c.st.Offline = false
		c.st.Err = err
	} else {
		c.st.Posts = page.Items
		c.st.TotalPages = page.TotalPages
		c.st.Offline = page.Offline
		c.st.Err = nil
	}
	snap := c.changedLocked()
	closed := c.closed
	c.mu.Unlock()
	if !closed {
		c.notify(snap)
	}
}

func (c *Controller) changedLocked() State {
	c.st.Version++
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	st := c.st
	st.Posts = append([]domain.BlogPost(nil), c.st.Posts...)
	return st
}

func (c *Controller) notify(st State) {
	if c.onChange != nil {
		c.onChange(st)
	}
}
