package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ClickEvent represents a single recorded visit of a short link
type ClickEvent struct {
	ID          int64     `json:"id" validate:"required"`
	ShortCode   string    `json:"shortCode" validate:"required"`
	OriginalURL string    `json:"originalUrl,omitempty"`
	ClickedAt   Timestamp `json:"clickedAt"`
	UserAgent   string    `json:"userAgent"`
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder mirrors the resource server: "asc" in any case is ascending,
// anything else falls back to newest first.
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(s, string(SortAsc)) {
		return SortAsc
	}
	return SortDesc
}

// Page is one slice of an ordered, index-addressed collection.
type Page[T any] struct {
	Content       []T   `json:"content"`
	PageNumber    int   `json:"pageNumber"`
	PageSize      int   `json:"pageSize"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	IsFirst       bool  `json:"first"`
	IsLast        bool  `json:"last"`
}

// EmptyPage is what a request past the last page resolves to.
func EmptyPage[T any](pageNumber, pageSize, totalPages int, totalElements int64) *Page[T] {
	return &Page[T]{
		Content:       []T{},
		PageNumber:    pageNumber,
		PageSize:      pageSize,
		TotalPages:    totalPages,
		TotalElements: totalElements,
		IsFirst:       pageNumber == 0,
		IsLast:        true,
	}
}

// Validate checks the size and last-page invariants.
func (p *Page[T]) Validate() error {
	if p.PageNumber < 0 || p.PageSize <= 0 || p.TotalPages < 0 {
		return fmt.Errorf("page %d/%d with size %d out of range", p.PageNumber, p.TotalPages, p.PageSize)
	}
	if len(p.Content) > p.PageSize {
		return fmt.Errorf("page holds %d items, more than its size %d", len(p.Content), p.PageSize)
	}
	if p.TotalPages == 0 {
		if len(p.Content) != 0 || !p.IsLast {
			return fmt.Errorf("empty collection must yield an empty last page")
		}
		return nil
	}
	if p.PageNumber < p.TotalPages && p.IsLast != (p.PageNumber == p.TotalPages-1) {
		return fmt.Errorf("page %d of %d has last=%t", p.PageNumber, p.TotalPages, p.IsLast)
	}
	return nil
}

// ClickStats is a breakdown of a set of clicks for charting
type ClickStats struct {
	Total    int            `json:"total"`
	Browsers map[string]int `json:"browsers"`
	Systems  map[string]int `json:"operatingSystems"`
	Timeline []TimeBucket   `json:"timeline"` // ascending by time
}

type TimeBucket struct {
	Time   string `json:"time"` // HH:MM
	Clicks int    `json:"clicks"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// Timestamp decodes the formats the resource server emits for dates:
// RFC3339, zone-less ISO local time, or epoch milliseconds.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if len(b) > 0 && b[0] != '"' {
		var millis int64
		if err := json.Unmarshal(b, &millis); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		t.Time = time.UnixMilli(millis).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time)
}
