package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

const dateLayout = "2006-01-02"

// DateRange is an inclusive [From, To] bound on created_at. A nil side is
// unbounded; the zero value means all time. One DateRange is shared by
// every query of an aggregation call.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// NewDateRange builds a range from two instants; zero instants are unbounded
func NewDateRange(from, to time.Time) DateRange {
	var r DateRange
	if !from.IsZero() {
		f := from
		r.From = &f
	}
	if !to.IsZero() {
		t := to
		r.To = &t
	}
	return r
}

// ParseDateRange parses the query-string form of a range. Both bounds accept
// RFC3339 or YYYY-MM-DD; a date-only upper bound covers that whole day.
func ParseDateRange(from, to string) (DateRange, error) {
	var r DateRange

	if s := strings.TrimSpace(from); s != "" {
		t, _, err := parseBound(s)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: from %q", ErrInvalidDateRange, from)
		}
		r.From = &t
	}

	if s := strings.TrimSpace(to); s != "" {
		t, dateOnly, err := parseBound(s)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: to %q", ErrInvalidDateRange, to)
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		r.To = &t
	}

	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

func parseBound(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), false, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.UTC(), true, nil
}

// IsZero reports whether the range is unbounded on both sides
func (r DateRange) IsZero() bool {
	return r.From == nil && r.To == nil
}

// Validate rejects ranges whose lower bound is after the upper bound
func (r DateRange) Validate() error {
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return fmt.Errorf("%w: from %s is after to %s", ErrInvalidDateRange,
			r.From.Format(time.RFC3339), r.To.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t falls inside the inclusive bound
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// Apply adds the bound to q on the given column ("alias.created_at")
func (r DateRange) Apply(q *bun.SelectQuery, column string) *bun.SelectQuery {
	if r.From != nil {
		q = q.Where(column+" >= ?", r.From.UTC())
	}
	if r.To != nil {
		q = q.Where(column+" <= ?", r.To.UTC())
	}
	return q
}
