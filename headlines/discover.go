package headlines

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pevans/newsmap/newspapers"
	"github.com/rs/zerolog"
)

// DiscoveryResult summarizes one discovery pass.
type DiscoveryResult struct {
	Checked int `json:"checked"`
	Found   int `json:"found"`
	NoFeed  int `json:"no_feed"`
	Failed  int `json:"failed"`
}

// FeedDiscoverer finds and stores feed URLs for newspapers that have none.
type FeedDiscoverer struct {
	store     *newspapers.NewspaperStore
	client    *Client
	semaphore chan struct{}
	logger    zerolog.Logger
}

// NewFeedDiscoverer creates a FeedDiscoverer fetching at most concurrency
// homepages at once.
func NewFeedDiscoverer(store *newspapers.NewspaperStore, client *Client, concurrency int, logger zerolog.Logger) *FeedDiscoverer {
	return &FeedDiscoverer{
		store:     store,
		client:    client,
		semaphore: make(chan struct{}, max(1, concurrency)),
		logger:    logger.With().Str("component", "feed-discovery").Logger(),
	}
}

// Run checks every newspaper without a feed URL once.
func (d *FeedDiscoverer) Run(ctx context.Context) (DiscoveryResult, error) {
	all, err := d.store.List(newspapers.NewspaperFilter{})
	if err != nil {
		return DiscoveryResult{}, fmt.Errorf("failed to list newspapers: %w", err)
	}

	var (
		result DiscoveryResult
		mu     sync.Mutex
		wg     sync.WaitGroup
	)

	record := func(f func(*DiscoveryResult)) {
		mu.Lock()
		defer mu.Unlock()
		f(&result)
	}

	for _, newspaper := range all {
		if newspaper.FeedURL != nil {
			continue
		}

		select {
		case <-ctx.Done():
			wg.Wait()
			return result, ctx.Err()
		case d.semaphore <- struct{}{}:
			wg.Add(1)
			go func(n newspapers.Newspaper) {
				defer wg.Done()
				defer func() { <-d.semaphore }()

				found, err := d.discover(ctx, n)
				record(func(r *DiscoveryResult) {
					r.Checked++
					switch {
					case errors.Is(err, ErrNoFeed):
						r.NoFeed++
					case err != nil:
						r.Failed++
					case found:
						r.Found++
					}
				})
			}(newspaper)
		}
	}

	wg.Wait()
	d.logger.Info().
		Int("checked", result.Checked).
		Int("found", result.Found).
		Int("failed", result.Failed).
		Msg("feed discovery finished")
	return result, nil
}

func (d *FeedDiscoverer) discover(ctx context.Context, n newspapers.Newspaper) (bool, error) {
	feedURL, err := d.client.DiscoverFeedURL(ctx, n.URL)
	if err != nil {
		if !errors.Is(err, ErrNoFeed) {
			d.logger.Warn().Err(err).Str("url", n.URL).Msg("feed discovery failed")
		}
		return false, err
	}

	if err := d.store.Update(n.ID, newspapers.NewspaperUpdate{FeedURL: &feedURL}); err != nil {
		d.logger.Error().Err(err).Str("id", n.ID.String()).Msg("failed to store feed URL")
		return false, err
	}
	return true, nil
}
