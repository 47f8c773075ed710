package article

import (
	"context"
	"slices"
	"sync"
	"time"

	"news-aggregator/internal/domain/entity"
)

// DefaultDebounce is how long the query must stay unchanged before it is applied.
const DefaultDebounce = 300 * time.Millisecond

// ViewConfig tunes a View. A zero Debounce selects DefaultDebounce; a
// negative one applies every query immediately. A nil Clock selects SystemClock.
type ViewConfig struct {
	Debounce time.Duration
	Clock    Clock
}

// View is the filtered, live article list for one selection.
//
// Two inputs drive it: the search query, applied after the debounce window
// (each SetQuery restarts the window and only the last value survives), and
// store snapshots for the current selection. Either input triggers one
// recompute, which publishes the list to Current and to subscribers unless
// it is unchanged.
type View struct {
	store    *LiveStore
	clock    Clock
	debounce time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	closed       bool
	sources      []string
	watchGen     uint64
	stopWatch    context.CancelFunc
	query        string
	pendingQuery string
	timer        Timer
	timerGen     uint64
	snapshot     []*entity.Article
	current      []*entity.Article
	recomputes   int
	publishes    int
	subs         map[chan []*entity.Article]struct{}
}

// NewView starts a view over the given sources. It stops when ctx ends or
// Close is called.
func NewView(ctx context.Context, store *LiveStore, sources []string, cfg ViewConfig) *View {
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	ctx, cancel := context.WithCancel(ctx)
	v := &View{
		store:    store,
		clock:    cfg.Clock,
		debounce: cfg.Debounce,
		ctx:      ctx,
		cancel:   cancel,
		current:  []*entity.Article{},
		subs:     make(map[chan []*entity.Article]struct{}),
	}
	v.SetSources(sources)
	go func() {
		<-ctx.Done()
		v.Close()
	}()
	return v
}

// SetQuery schedules q to become the active query once the debounce window
// passes without another call.
func (v *View) SetQuery(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.pendingQuery = q
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.timerGen++
	if v.debounce < 0 {
		v.applyQueryLocked()
		return
	}
	gen := v.timerGen
	v.timer = v.clock.AfterFunc(v.debounce, func() { v.fire(gen) })
}

func (v *View) fire(gen uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || gen != v.timerGen {
		return
	}
	v.timer = nil
	v.applyQueryLocked()
}

func (v *View) applyQueryLocked() {
	v.query = v.pendingQuery
	v.recomputeLocked()
}

// SetSources switches the view to a new selection. Snapshots still in
// flight for the previous selection are dropped.
func (v *View) SetSources(names []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	if v.stopWatch != nil {
		v.stopWatch()
	}
	v.sources = slices.Clone(names)
	v.watchGen++
	gen := v.watchGen

	ctx, stop := context.WithCancel(v.ctx)
	v.stopWatch = stop
	ch := v.store.Watch(ctx, v.sources)
	go func() {
		for arts := range ch {
			v.onSnapshot(gen, arts)
		}
	}()
}

func (v *View) onSnapshot(gen uint64, arts []*entity.Article) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || gen != v.watchGen {
		return
	}
	v.snapshot = arts
	v.recomputeLocked()
}

func (v *View) recomputeLocked() {
	next := Filter(v.snapshot, v.query)
	v.recomputes++
	if sameList(v.current, next) {
		return
	}
	v.current = next
	v.publishes++
	for ch := range v.subs {
		publish(ch, v.current)
	}
}

// sameList reports whether next would render exactly like prev.
func sameList(prev, next []*entity.Article) bool {
	if len(prev) != len(next) {
		return false
	}
	for i := range prev {
		if !prev[i].SameArticle(next[i]) || !prev[i].Equal(next[i]) {
			return false
		}
	}
	return true
}

// publish replaces any undelivered list in ch with list.
func publish(ch chan []*entity.Article, list []*entity.Article) {
	select {
	case <-ch:
	default:
	}
	ch <- list
}

// Current returns the latest filtered list.
func (v *View) Current() []*entity.Article {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Query returns the applied query, which lags SetQuery by the debounce window.
func (v *View) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

// Sources returns the current selection.
func (v *View) Sources() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.sources)
}

// Recomputes returns how many times the filtered list has been rebuilt.
func (v *View) Recomputes() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.recomputes
}

// Publishes returns how many recomputes changed the list and were sent to
// subscribers.
func (v *View) Publishes() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.publishes
}

// Subscribe returns a channel that receives the current list immediately
// and every recomputed list after it. Undelivered lists are replaced by
// newer ones. The channel is closed when ctx ends or the view closes.
func (v *View) Subscribe(ctx context.Context) <-chan []*entity.Article {
	ch := make(chan []*entity.Article, 1)
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		close(ch)
		return ch
	}
	v.subs[ch] = struct{}{}
	ch <- v.current
	v.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-v.ctx.Done():
		}
		v.unsubscribe(ch)
	}()
	return ch
}

func (v *View) unsubscribe(ch chan []*entity.Article) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.subs[ch]; ok {
		delete(v.subs, ch)
		close(ch)
	}
}

// Close stops the view, its store watch and any pending query timer, and
// closes every subscription.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	if v.stopWatch != nil {
		v.stopWatch()
	}
	for ch := range v.subs {
		delete(v.subs, ch)
		close(ch)
	}
	v.cancel()
}
