package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/ports"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MetricFailureObserver is told about every click count folded to zero.
type MetricFailureObserver interface {
	ObserveMetricFailure()
}

type AggregatorOptions struct {
	// Concurrency bounds the per-link click count fetches in flight.
	Concurrency int
	// Retries applies to the link list fetch only.
	Retries   int
	RetryBase time.Duration
}

// LinkAggregator joins the link list with per-link click counts and keeps
// the last committed result as the local view.
type LinkAggregator struct {
	api     ports.LinkAPI
	opts    AggregatorOptions
	metrics MetricFailureObserver
	log     *zap.Logger

	mu     sync.Mutex
	gen    uint64
	loaded bool
	view   []domain.AggregatedLinkView
}

func NewLinkAggregator(api ports.LinkAPI, opts AggregatorOptions, metrics MetricFailureObserver, log *zap.Logger) *LinkAggregator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 200 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LinkAggregator{api: api, opts: opts, metrics: metrics, log: log.Named("aggregator")}
}

// ListAggregated fetches the link list, then every link's click count. A
// failed count never fails the list: that link shows zero clicks.
func (a *LinkAggregator) ListAggregated(ctx context.Context) ([]domain.AggregatedLinkView, error) {
	gen := a.begin()

	records, err := a.fetchLinks(ctx)
	if err != nil {
		return nil, err
	}

	counts := make([]int64, len(records))
	var g errgroup.Group
	g.SetLimit(a.opts.Concurrency)
	for i, rec := range records {
		g.Go(func() error {
			n, err := a.api.ClickCount(ctx, rec.ShortCode)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				a.log.Warn("click count unavailable, showing zero",
					zap.String("short_code", rec.ShortCode),
					zap.String("kind", domain.KindOf(err).String()),
					zap.Error(err))
				if a.metrics != nil {
					a.metrics.ObserveMetricFailure()
				}
				return nil
			}
			counts[i] = n
			return nil
		})
	}
	_ = g.Wait()

	// Counts of an abandoned pass are meaningless; keep the committed view.
	if err := ctx.Err(); err != nil {
		a.log.Debug("refresh abandoned", zap.Error(err))
		return nil, err
	}

	views := make([]domain.AggregatedLinkView, len(records))
	for i, rec := range records {
		views[i] = domain.NewAggregatedLinkView(rec, domain.LinkMetric{ShortCode: rec.ShortCode, ClickCount: counts[i]})
	}

	a.commit(gen, views)
	return views, nil
}

// Current returns the committed view, refetching when asked to or when
// nothing has been loaded yet.
func (a *LinkAggregator) Current(ctx context.Context, refresh bool) ([]domain.AggregatedLinkView, error) {
	if !refresh {
		if view, ok := a.View(); ok {
			return view, nil
		}
	}
	return a.ListAggregated(ctx)
}

// View returns a copy of the committed view and whether one was ever loaded.
func (a *LinkAggregator) View() ([]domain.AggregatedLinkView, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.view), a.loaded
}

// Create asks the server for a new short link. The view gains the link, with
// zero clicks, only once the server has confirmed it.
func (a *LinkAggregator) Create(ctx context.Context, originalURL string) (*domain.AggregatedLinkView, error) {
	record, err := a.api.CreateLink(ctx, originalURL)
	if err != nil {
		return nil, err
	}
	view := domain.NewAggregatedLinkView(*record, domain.LinkMetric{ShortCode: record.ShortCode})

	a.mu.Lock()
	a.gen++
	if a.loaded {
		a.view = append(a.view, view)
	}
	a.mu.Unlock()

	a.log.Info("link created", zap.String("short_code", view.ShortCode))
	return &view, nil
}

// Delete removes a link on the server, then from the view.
func (a *LinkAggregator) Delete(ctx context.Context, shortCode string) error {
	if err := a.api.DeleteLink(ctx, shortCode); err != nil {
		return err
	}

	a.mu.Lock()
	a.gen++
	a.view = slices.DeleteFunc(a.view, func(v domain.AggregatedLinkView) bool {
		return v.ShortCode == shortCode
	})
	a.mu.Unlock()

	a.log.Info("link deleted", zap.String("short_code", shortCode))
	return nil
}

// Reset forgets the committed view and outdates any refresh in flight.
func (a *LinkAggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.view = nil
	a.loaded = false
}

func (a *LinkAggregator) fetchLinks(ctx context.Context) ([]domain.LinkRecord, error) {
	var records []domain.LinkRecord
	backoff := retry.WithMaxRetries(uint64(a.opts.Retries), retry.NewExponential(a.opts.RetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		recs, err := a.api.ListLinks(ctx)
		if err != nil {
			switch domain.KindOf(err) {
			case domain.KindNetworkFailure, domain.KindServerFailure:
				a.log.Debug("link list fetch failed, retrying", zap.Error(err))
				return retry.RetryableError(err)
			}
			return err
		}
		records = recs
		return nil
	})
	return records, err
}

func (a *LinkAggregator) begin() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	return a.gen
}

func (a *LinkAggregator) commit(gen uint64, views []domain.AggregatedLinkView) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		a.log.Debug("discarding stale refresh", zap.Uint64("generation", gen), zap.Uint64("current", a.gen))
		return
	}
	a.view = slices.Clone(views)
	a.loaded = true
}
