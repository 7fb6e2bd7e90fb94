package services

import (
	"context"
	"fmt"

	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// AnalyticsService assembles the per-link analytics view.
type AnalyticsService struct {
	api     ports.LinkAPI
	history *HistoryReader
}

func NewAnalyticsService(api ports.LinkAPI, history *HistoryReader) *AnalyticsService {
	return &AnalyticsService{api: api, history: history}
}

// Analytics loads the link, its total click count and one page of clicks
// together. Any of the three failing fails the whole view.
func (s *AnalyticsService) Analytics(ctx context.Context, shortCode string, pageNumber int) (*domain.LinkAnalytics, error) {
	var (
		records []domain.LinkRecord
		total   int64
		page    *domain.Page[domain.ClickEvent]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.api.ListLinks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.api.ClickCount(gctx, shortCode)
		return err
	})
	g.Go(func() error {
		var err error
		page, err = s.history.FetchPage(gctx, ports.PageRequest{
			ShortCode:  shortCode,
			PageNumber: pageNumber,
			SortOrder:  domain.SortDesc,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec.ShortCode == shortCode {
			return &domain.LinkAnalytics{
				Link:        rec,
				TotalClicks: total,
				Clicks:      page,
				Stats:       SummarizeClicks(page.Content),
			}, nil
		}
	}
	return nil, &domain.Error{
		Kind:    domain.KindNotFound,
		Op:      "analytics",
		Message: fmt.Sprintf("URL not found for short code: %s", shortCode),
	}
}
