package services

import (
	"context"
	"fmt"

	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/ports"
	"go.uber.org/zap"
)

const DefaultPageSize = 20

// HistoryReader pages through a link's click events by absolute page index.
type HistoryReader struct {
	api      ports.LinkAPI
	pageSize int
	log      *zap.Logger
}

func NewHistoryReader(api ports.LinkAPI, pageSize int, log *zap.Logger) *HistoryReader {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HistoryReader{api: api, pageSize: pageSize, log: log.Named("history")}
}

// FetchPage returns page req.PageNumber (zero-based). Asking past the last
// page yields an empty last page rather than an error.
func (r *HistoryReader) FetchPage(ctx context.Context, req ports.PageRequest) (*domain.Page[domain.ClickEvent], error) {
	const op = "fetch click page"
	if req.ShortCode == "" {
		return nil, &domain.Error{Kind: domain.KindValidationFailure, Op: op, Message: "short code is required"}
	}
	if req.PageNumber < 0 {
		return nil, &domain.Error{Kind: domain.KindValidationFailure, Op: op, Message: fmt.Sprintf("page number %d is negative", req.PageNumber)}
	}
	if req.PageSize <= 0 {
		req.PageSize = r.pageSize
	}
	if req.SortOrder == "" {
		req.SortOrder = domain.SortDesc
	}

	page, err := r.api.ClickPage(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.PageNumber >= page.TotalPages {
		if len(page.Content) > 0 {
			r.log.Debug("dropping content past the last page",
				zap.String("short_code", req.ShortCode),
				zap.Int("page", req.PageNumber),
				zap.Int("total_pages", page.TotalPages))
		}
		page = domain.EmptyPage[domain.ClickEvent](req.PageNumber, req.PageSize, page.TotalPages, page.TotalElements)
	}
	if page.Content == nil {
		page.Content = []domain.ClickEvent{}
	}

	if err := page.Validate(); err != nil {
		return nil, &domain.Error{Kind: domain.KindShapeMismatch, Op: op, Err: err}
	}
	return page, nil
}
