// Package article holds the read side of the article cache: the observable
// store decorator, free-text filtering and the debounced view that the
// presentation layer renders.
package article

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/observability/logging"
	"news-aggregator/internal/repository"
)

// LiveStore decorates an ArticleRepository with change notification.
// Reads pass straight through; every successful write wakes the watchers
// whose selection it touched. Writes made elsewhere arrive via Invalidate
// or Resync.
type LiveStore struct {
	repository.ArticleRepository

	mu       sync.Mutex
	watchers map[*watcher]struct{}
}

type watcher struct {
	names []string
	wake  chan struct{}
}

// NewLiveStore wraps repo.
func NewLiveStore(repo repository.ArticleRepository) *LiveStore {
	return &LiveStore{ArticleRepository: repo, watchers: make(map[*watcher]struct{})}
}

var _ repository.ArticleRepository = (*LiveStore)(nil)

func (s *LiveStore) InsertAll(ctx context.Context, articles []*entity.Article) error {
	if err := s.ArticleRepository.InsertAll(ctx, articles); err != nil {
		return err
	}
	if len(articles) == 0 {
		return nil
	}
	names := make([]string, 0, len(articles))
	for _, a := range articles {
		names = append(names, a.Source)
	}
	s.notify(names...)
	return nil
}

func (s *LiveStore) DeleteBySource(ctx context.Context, name string) error {
	if err := s.ArticleRepository.DeleteBySource(ctx, name); err != nil {
		return err
	}
	s.notify(name)
	return nil
}

func (s *LiveStore) DeleteAll(ctx context.Context) error {
	if err := s.ArticleRepository.DeleteAll(ctx); err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *LiveStore) ReplaceBySource(ctx context.Context, name string, articles []*entity.Article) error {
	if err := s.ArticleRepository.ReplaceBySource(ctx, name, articles); err != nil {
		return err
	}
	s.notify(name)
	return nil
}

// Watch streams the articles of the named sources. The current list is
// delivered first, then a fresh list after every write touching one of the
// sources. A slow reader only ever sees the latest list. The channel is
// closed when ctx ends.
func (s *LiveStore) Watch(ctx context.Context, names []string) <-chan []*entity.Article {
	w := &watcher{names: slices.Clone(names), wake: make(chan struct{}, 1)}
	out := make(chan []*entity.Article, 1)

	s.mu.Lock()
	s.watchers[w] = struct{}{}
	s.mu.Unlock()

	go func() {
		defer close(out)
		defer s.remove(w)
		logger := logging.FromContext(ctx)

		for {
			arts, err := s.ListBySources(ctx, w.names)
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				logger.Error("failed to load watched articles",
					slog.Any("sources", w.names),
					slog.Any("error", err))
			default:
				select {
				case <-out:
				default:
				}
				out <- arts
			}

			select {
			case <-ctx.Done():
				return
			case <-w.wake:
			}
		}
	}()
	return out
}

// Invalidate wakes the watchers of sources, or every watcher when none are
// named, so they re-read the store. Writers in other processes reach the
// view through it.
func (s *LiveStore) Invalidate(sources ...string) {
	s.notify(sources...)
}

// Resync invalidates every watcher each interval until ctx ends. It picks up
// writes no change feed reported.
func (s *LiveStore) Resync(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.notify()
		}
	}
}

// Watchers returns the number of active watches.
func (s *LiveStore) Watchers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers)
}

func (s *LiveStore) remove(w *watcher) {
	s.mu.Lock()
	delete(s.watchers, w)
	s.mu.Unlock()
}

// notify wakes the watchers of any of sources; no sources wakes everyone.
func (s *LiveStore) notify(sources ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for w := range s.watchers {
		if len(sources) > 0 && !overlaps(w.names, sources) {
			continue
		}
		select {
		case w.wake <- struct{}{}:
		default:
		}
	}
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}
