package domain

// LinkRecord is a shortened URL as owned by the resource server
type LinkRecord struct {
	ShortCode   string `json:"shortCode" validate:"required"`
	OriginalURL string `json:"originalUrl" validate:"required"`
}

// LinkMetric is recomputed on every aggregation pass and never cached across sessions
type LinkMetric struct {
	ShortCode  string `json:"shortCode"`
	ClickCount int64  `json:"clickCount"`
}

// AggregatedLinkView is the unit rendered by the dashboard
type AggregatedLinkView struct {
	ShortCode   string `json:"shortCode"`
	OriginalURL string `json:"originalUrl"`
	Clicks      int64  `json:"clicks"`
}

func NewAggregatedLinkView(record LinkRecord, metric LinkMetric) AggregatedLinkView {
	return AggregatedLinkView{
		ShortCode:   record.ShortCode,
		OriginalURL: record.OriginalURL,
		Clicks:      metric.ClickCount,
	}
}

// LinkAnalytics backs the per-link analytics view
type LinkAnalytics struct {
	Link        LinkRecord        `json:"link"`
	TotalClicks int64             `json:"totalClicks"`
	Clicks      *Page[ClickEvent] `json:"clicks"`
	Stats       ClickStats        `json:"stats"`
}
