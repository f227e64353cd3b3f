package reporting

import (
	"context"
	"fmt"
	"strings"

	"ms-reporting/internal/logger"

	"golang.org/x/sync/errgroup"
)

// Reporter is the read-side surface shared by the HTTP API and the report worker
type Reporter interface {
	GetBusinessAnalytics(ctx context.Context, f Filter) (*BusinessAnalytics, error)
	GetTrackingLinkAnalytics(ctx context.Context, f Filter) ([]TrackingLinkAnalytics, error)
	GetPageViewStats(ctx context.Context, f Filter) (*PageViewStats, error)
}

// Service computes reports on demand. It holds no state between calls.
type Service struct {
	store  Store
	logger *logger.Logger
}

// NewService creates a new reporting service
func NewService(store Store, logger *logger.Logger) *Service {
	return &Service{store: store, logger: logger}
}

var _ Reporter = (*Service)(nil)

func (f Filter) validate() error {
	if strings.TrimSpace(f.BusinessID) == "" {
		return ErrBusinessRequired
	}
	return f.Range.Validate()
}

// secondary runs fn in the group and never fails it. A failed query is
// logged and its destination stays empty.
func (s *Service) secondary(g *errgroup.Group, ctx context.Context, what string, fn func(context.Context) error) {
	g.Go(func() error {
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("REPORTING", fmt.Sprintf("%s query failed, continuing without it: %v", what, err))
		}
		return nil
	})
}

// wait joins the group and drops the result if the caller went away
func wait(ctx context.Context, g *errgroup.Group) error {
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
