package reporting

import (
	"context"
	"fmt"
	"time"

	"ms-reporting/internal/models"
)

// maxDailyPoints bounds the gap-filled series
const maxDailyPoints = 366

// GetPageViewStats counts storefront views in range. Views without a
// visitor id count toward totals but not toward unique visitors.
func (s *Service) GetPageViewStats(ctx context.Context, f Filter) (*PageViewStats, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	views, err := s.store.PageViews(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page views: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return aggregatePageViews(f, views), nil
}

type dayAcc struct {
	views    int
	visitors map[string]struct{}
}

func aggregatePageViews(f Filter, views []models.PageView) *PageViewStats {
	stats := &PageViewStats{
		BusinessID:      f.BusinessID,
		ViewsByPageType: make(map[string]int),
		Daily:           []DailyViews{},
	}

	visitors := make(map[string]struct{})
	days := make(map[string]*dayAcc)
	var first, last time.Time

	for _, v := range views {
		stats.TotalViews++
		stats.ViewsByPageType[v.PageType]++

		at := v.CreatedAt.UTC()
		if first.IsZero() || at.Before(first) {
			first = at
		}
		if at.After(last) {
			last = at
		}

		key := at.Format(dateLayout)
		day, ok := days[key]
		if !ok {
			day = &dayAcc{visitors: make(map[string]struct{})}
			days[key] = day
		}
		day.views++

		if v.VisitorID != "" {
			visitors[v.VisitorID] = struct{}{}
			day.visitors[v.VisitorID] = struct{}{}
		}
	}
	stats.UniqueVisitors = len(visitors)

	from, to := first, last
	if f.Range.From != nil {
		from = f.Range.From.UTC()
	}
	if f.Range.To != nil {
		to = f.Range.To.UTC()
	}
	if from.IsZero() || to.IsZero() {
		return stats
	}
	stats.Daily = fillDailyGaps(days, from, to)
	return stats
}

// fillDailyGaps emits one point per UTC day in [from, to], zero where no
// views landed, keeping at most the latest maxDailyPoints days
func fillDailyGaps(days map[string]*dayAcc, from, to time.Time) []DailyViews {
	cur := dayStart(from)
	end := dayStart(to)
	if earliest := end.AddDate(0, 0, -(maxDailyPoints - 1)); cur.Before(earliest) {
		cur = earliest
	}

	var out []DailyViews
	for !cur.After(end) {
		key := cur.Format(dateLayout)
		point := DailyViews{Date: key}
		if day, ok := days[key]; ok {
			point.Views = day.views
			point.UniqueVisitors = len(day.visitors)
		}
		out = append(out, point)
		cur = cur.AddDate(0, 0, 1)
	}
	if out == nil {
		out = []DailyViews{}
	}
	return out
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
