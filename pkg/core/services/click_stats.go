package services

import (
	"sort"
	"strings"

	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
)

const unknownAgent = "Unknown"

func browserOf(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Chrome"):
		return "Chrome"
	case strings.Contains(userAgent, "Firefox"):
		return "Firefox"
	case strings.Contains(userAgent, "Safari"):
		return "Safari"
	case strings.Contains(userAgent, "Edge"):
		return "Edge"
	}
	return unknownAgent
}

func systemOf(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Mac OS X"), strings.Contains(userAgent, "Macintosh"):
		return "Mac OS"
	case strings.Contains(userAgent, "Windows"):
		return "Windows"
	case strings.Contains(userAgent, "Linux"):
		return "Linux"
	case strings.Contains(userAgent, "Android"):
		return "Android"
	case strings.Contains(userAgent, "iOS"), strings.Contains(userAgent, "iPhone"), strings.Contains(userAgent, "iPad"):
		return "iOS"
	}
	return unknownAgent
}

// SummarizeClicks groups clicks by browser, operating system and minute of
// the day (HH:MM, UTC). The timeline is sorted by time.
func SummarizeClicks(clicks []domain.ClickEvent) domain.ClickStats {
	stats := domain.ClickStats{
		Total:    len(clicks),
		Browsers: map[string]int{},
		Systems:  map[string]int{},
		Timeline: []domain.TimeBucket{},
	}

	buckets := map[string]int{}
	for _, c := range clicks {
		stats.Browsers[browserOf(c.UserAgent)]++
		stats.Systems[systemOf(c.UserAgent)]++
		if !c.ClickedAt.IsZero() {
			buckets[c.ClickedAt.UTC().Format("15:04")]++
		}
	}

	for t, n := range buckets {
		stats.Timeline = append(stats.Timeline, domain.TimeBucket{Time: t, Clicks: n})
	}
	sort.Slice(stats.Timeline, func(i, j int) bool {
		return stats.Timeline[i].Time < stats.Timeline[j].Time
	})
	return stats
}
