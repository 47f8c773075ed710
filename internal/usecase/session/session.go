// Package session is the presentation boundary: it owns the reader's source
// selection and search query, runs refreshes in the background and exposes
// the live filtered article list together with a loading/error status.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/observability/logging"
	"news-aggregator/internal/repository"
	"news-aggregator/internal/usecase/article"
	"news-aggregator/internal/usecase/fetch"
)

// Refresher runs one refresh over the selected sources.
// *fetch.Service is the production implementation.
type Refresher interface {
	Refresh(ctx context.Context, selected []string) (*fetch.RefreshReport, error)
}

// Config wires a Session. Settings may be nil, in which case preferences
// live only as long as the process.
type Config struct {
	Registry  *entity.Registry
	Store     *article.LiveStore
	Settings  repository.SettingsRepository
	Refresher Refresher
	View      article.ViewConfig
}

// Status is what the presentation layer shows around the article list.
// Error holds a reader-facing message for the last refresh and is cleared
// by the next successful one; cached articles stay visible either way.
type Status struct {
	Loading     bool                 `json:"loading"`
	Error       string               `json:"error,omitempty"`
	LastRefresh *time.Time           `json:"last_refresh,omitempty"`
	LastReport  *fetch.RefreshReport `json:"last_report,omitempty"`
}

// Session is safe for concurrent use.
type Session struct {
	registry  *entity.Registry
	store     *article.LiveStore
	settings  repository.SettingsRepository
	refresher Refresher
	view      *article.View

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	closed     bool
	selected   []string
	status     Status
	statusSubs map[chan Status]struct{}
}

// New restores the persisted selection and starts the live view. Unknown
// persisted names are dropped; an empty or missing selection means every
// registered source.
func New(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Registry == nil || cfg.Store == nil || cfg.Refresher == nil {
		return nil, errors.New("New: registry, store and refresher are required")
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		registry:   cfg.Registry,
		store:      cfg.Store,
		settings:   cfg.Settings,
		refresher:  cfg.Refresher,
		ctx:        ctx,
		cancel:     cancel,
		statusSubs: make(map[chan Status]struct{}),
	}
	s.selected = s.restoreSelection(ctx)
	s.view = article.NewView(ctx, cfg.Store, s.selected, cfg.View)
	return s, nil
}

func (s *Session) restoreSelection(ctx context.Context) []string {
	all := s.registry.Names()
	if s.settings == nil {
		return all
	}
	logger := logging.FromContext(ctx)

	names, ok, err := s.settings.SelectedSources(ctx)
	if err != nil {
		logger.Warn("failed to load selected sources, selecting all",
			slog.Any("error", err))
		return all
	}
	if !ok {
		return all
	}
	if unknown := s.registry.Unknown(names); len(unknown) > 0 {
		logger.Warn("ignoring unknown persisted sources",
			slog.Any("sources", unknown))
	}
	selected := sourceNames(s.registry.Select(names))
	if len(selected) == 0 {
		return all
	}
	return selected
}

// Articles returns the current filtered list, newest first.
func (s *Session) Articles() []*entity.Article {
	return s.view.Current()
}

// Subscribe streams the filtered list, starting with the current one.
func (s *Session) Subscribe(ctx context.Context) <-chan []*entity.Article {
	return s.view.Subscribe(ctx)
}

// SetQuery updates the search query. It is applied after the debounce window.
func (s *Session) SetQuery(q string) {
	s.view.SetQuery(q)
}

// Query returns the applied search query.
func (s *Session) Query() string {
	return s.view.Query()
}

// SelectedSources returns the current selection in registry order.
func (s *Session) SelectedSources() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.selected)
}

// SetSelectedSources replaces the selection, persists it and switches the
// live view. Empty selections and unknown names are rejected without side
// effects.
func (s *Session) SetSelectedSources(ctx context.Context, names []string) error {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	if len(cleaned) == 0 {
		return ErrEmptySelection
	}
	if unknown := s.registry.Unknown(cleaned); len(unknown) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSource, strings.Join(unknown, ", "))
	}
	selected := sourceNames(s.registry.Select(cleaned))

	if s.settings != nil {
		if err := s.settings.SetSelectedSources(ctx, selected); err != nil {
			return fmt.Errorf("SetSelectedSources: persist: %w", err)
		}
	}

	s.mu.Lock()
	s.selected = selected
	s.mu.Unlock()
	s.view.SetSources(selected)

	logging.FromContext(ctx).Info("source selection changed",
		slog.Any("sources", selected))
	return nil
}

// Refresh starts a refresh of the selected sources in the background and
// returns at once. Progress is reported through Status.
func (s *Session) Refresh() error {
	selected, err := s.begin(true)
	if err != nil {
		return err
	}
	go func() {
		defer s.wg.Done()
		s.finish(s.refresher.Refresh(s.ctx, selected))
	}()
	return nil
}

// RefreshAndWait runs a refresh of the selected sources and waits for it.
// Scheduled refreshes use it.
func (s *Session) RefreshAndWait(ctx context.Context) (*fetch.RefreshReport, error) {
	selected, err := s.begin(false)
	if err != nil {
		return nil, err
	}
	report, err := s.refresher.Refresh(ctx, selected)
	s.finish(report, err)
	return report, err
}

// begin marks a refresh as running. Background refreshes are added to wg
// under the lock so Close cannot miss them.
func (s *Session) begin(background bool) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.status.Loading {
		return nil, ErrRefreshInProgress
	}
	if background {
		s.wg.Add(1)
	}
	s.status.Loading = true
	s.publishStatusLocked()
	return slices.Clone(s.selected), nil
}

func (s *Session) finish(report *fetch.RefreshReport, err error) {
	if err != nil {
		logging.FromContext(s.ctx).Warn("refresh failed",
			slog.Any("error", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.status.Loading = false
	s.status.Error = UserMessage(err)
	s.status.LastRefresh = &now
	if report != nil {
		s.status.LastReport = report
	}
	s.publishStatusLocked()
}

// Status returns the current loading/error state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SubscribeStatus streams status changes, starting with the current status.
// Undelivered values are replaced by newer ones.
func (s *Session) SubscribeStatus(ctx context.Context) <-chan Status {
	ch := make(chan Status, 1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	s.statusSubs[ch] = struct{}{}
	ch <- s.status
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.ctx.Done():
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.statusSubs[ch]; ok {
			delete(s.statusSubs, ch)
			close(ch)
		}
	}()
	return ch
}

func (s *Session) publishStatusLocked() {
	for ch := range s.statusSubs {
		select {
		case <-ch:
		default:
		}
		ch <- s.status
	}
}

// Search filters the cache once without touching the live view. Empty
// names mean the current selection.
func (s *Session) Search(ctx context.Context, names []string, query string) ([]*entity.Article, error) {
	selected := s.SelectedSources()
	if len(names) > 0 {
		if unknown := s.registry.Unknown(names); len(unknown) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSource, strings.Join(unknown, ", "))
		}
		selected = sourceNames(s.registry.Select(names))
	}
	arts, err := s.store.ListBySources(ctx, selected)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	return article.Filter(arts, query), nil
}

// Navigate resolves link to a cached article.
func (s *Session) Navigate(ctx context.Context, link string) (*entity.Article, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, ErrArticleNotFound
	}
	a, err := s.store.FindByLink(ctx, link)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrArticleNotFound, link)
	}
	if err != nil {
		return nil, fmt.Errorf("Navigate: %w", err)
	}
	return a, nil
}

// ClearCache deletes every cached article.
func (s *Session) ClearCache(ctx context.Context) error {
	if err := s.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("ClearCache: %w: %w", fetch.ErrStoreFailed, err)
	}
	logging.FromContext(ctx).Info("article cache cleared")
	return nil
}

// DarkMode returns the persisted theme preference.
func (s *Session) DarkMode(ctx context.Context) (bool, error) {
	if s.settings == nil {
		return false, nil
	}
	on, err := s.settings.DarkMode(ctx)
	if err != nil {
		return false, fmt.Errorf("DarkMode: %w", err)
	}
	return on, nil
}

// SetDarkMode persists the theme preference.
func (s *Session) SetDarkMode(ctx context.Context, enabled bool) error {
	if s.settings == nil {
		return nil
	}
	if err := s.settings.SetDarkMode(ctx, enabled); err != nil {
		return fmt.Errorf("SetDarkMode: %w", err)
	}
	return nil
}

// Registry returns the source registry the session selects from.
func (s *Session) Registry() *entity.Registry { return s.registry }

// Close cancels running refreshes, waits for them and stops the live view.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.view.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.statusSubs {
		delete(s.statusSubs, ch)
		close(ch)
	}
}

func sourceNames(srcs []entity.Source) []string {
	out := make([]string, len(srcs))
	for i, src := range srcs {
		out[i] = src.Name
	}
	return out
}
