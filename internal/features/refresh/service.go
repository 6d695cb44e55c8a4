package refresh

import (
	"context"
	"fmt"

	"go-stationwatch/internal/config"
	"go-stationwatch/internal/features/report"
	"go-stationwatch/internal/query"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher periodically invalidates the aggregate-stats entry so dashboard
// subscribers are refetched on schedule instead of waiting for a read.
type Refresher interface {
	InitializeScheduler(ctx context.Context) error
	StopScheduler() error
}

type RefresherImpl struct {
	store     *query.Store
	cfg       *config.Config
	log       *zap.Logger
	scheduler *cron.Cron
}

func NewRefresher(store *query.Store, cfg *config.Config, log *zap.Logger) Refresher {
	return &RefresherImpl{store: store, cfg: cfg, log: log}
}

func (s *RefresherImpl) InitializeScheduler(ctx context.Context) error {
	s.scheduler = cron.New()
	_, err := s.scheduler.AddFunc(s.cfg.StatsRefresh, func() {
		s.store.Invalidate(report.StatsKey())
		s.log.Debug("stats cache invalidated on schedule")
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.cfg.StatsRefresh, err)
	}
	s.scheduler.Start()
	return nil
}

func (s *RefresherImpl) StopScheduler() error {
	if s.scheduler != nil {
		<-s.scheduler.Stop().Done()
	}
	return nil
}
