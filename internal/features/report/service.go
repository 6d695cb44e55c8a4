package report

import (
	"context"
	"fmt"

	"go-stationwatch/internal/config"
	"go-stationwatch/internal/features/stats"
	"go-stationwatch/internal/features/submit"
	"go-stationwatch/internal/query"

	"go.uber.org/zap"
)

// ReportService is the mutation pipeline plus the cached read paths. Reads
// go through the query store; writes never touch cache entries directly —
// correctness relies on invalidation and refetch, since the server derives
// status, timestamps and ids.
type ReportService interface {
	ListReports(f FilterState) query.Entry
	GetReport(id string) query.Entry
	GetStats() query.Entry
	Record(ctx context.Context, id string) (*Report, error)
	DerivedView(ctx context.Context, f FilterState) ([]Report, error)
	StatsSeries(ctx context.Context) (stats.Series, error)
	CreateReport(ctx context.Context, draft submit.Draft, photo *submit.Photo) (*Report, error)
	UpdateReport(ctx context.Context, id string, patch UpdatePatch) (*Report, error)
}

type ReportServiceImpl struct {
	Repo    ReportRepository
	Store   *query.Store
	Builder *submit.Builder
	Cfg     *config.Config
	Log     *zap.Logger
}

func NewReportService(repo ReportRepository, store *query.Store, builder *submit.Builder, cfg *config.Config, log *zap.Logger) ReportService {
	return &ReportServiceImpl{
		Repo:    repo,
		Store:   store,
		Builder: builder,
		Cfg:     cfg,
		Log:     log,
	}
}

func (s *ReportServiceImpl) ListReports(f FilterState) query.Entry {
	return s.Store.Read(ListKey(f), func(ctx context.Context) (any, error) {
		return s.Repo.List(ctx, f)
	}, s.Cfg.ListStaleTime)
}

func (s *ReportServiceImpl) GetReport(id string) query.Entry {
	return s.Store.Read(RecordKey(id), func(ctx context.Context) (any, error) {
		return s.Repo.Get(ctx, id)
	}, s.Cfg.RecordStaleTime)
}

func (s *ReportServiceImpl) GetStats() query.Entry {
	return s.Store.Read(StatsKey(), func(ctx context.Context) (any, error) {
		return s.Repo.Stats(ctx)
	}, s.Cfg.StatsStaleTime)
}

// Record reads one report through the cache and waits for it to settle.
func (s *ReportServiceImpl) Record(ctx context.Context, id string) (*Report, error) {
	s.GetReport(id)
	entry, err := s.Store.Wait(ctx, RecordKey(id))
	if err != nil {
		return nil, err
	}
	if entry.Status == query.StatusError {
		return nil, entry.Err
	}
	rep, ok := entry.Data.(*Report)
	if !ok {
		return nil, fmt.Errorf("unexpected cache payload for %s", RecordKey(id))
	}
	return rep, nil
}

// DerivedView reads the list through the cache, waits for it to settle, and
// runs the pure filter/sort derivation over the collection.
func (s *ReportServiceImpl) DerivedView(ctx context.Context, f FilterState) ([]Report, error) {
	s.ListReports(f)
	entry, err := s.Store.Wait(ctx, ListKey(f))
	if err != nil {
		return nil, err
	}
	if entry.Status == query.StatusError {
		return nil, entry.Err
	}
	reports, ok := entry.Data.([]Report)
	if !ok {
		return nil, fmt.Errorf("unexpected cache payload for %s", ListKey(f))
	}
	return DeriveView(reports, f), nil
}

func (s *ReportServiceImpl) StatsSeries(ctx context.Context) (stats.Series, error) {
	s.GetStats()
	entry, err := s.Store.Wait(ctx, StatsKey())
	if err != nil {
		return stats.Series{}, err
	}
	if entry.Status == query.StatusError {
		return stats.Series{}, entry.Err
	}
	aggregate, ok := entry.Data.(stats.AggregateStats)
	if !ok {
		return stats.Series{}, fmt.Errorf("unexpected cache payload for %s", StatsKey())
	}
	return stats.BuildSeries(aggregate), nil
}

// CreateReport builds the enriched multipart payload and submits it. A new
// report changes every list and the aggregates, so both are invalidated on
// success; a failed create leaves the cache untouched.
func (s *ReportServiceImpl) CreateReport(ctx context.Context, draft submit.Draft, photo *submit.Photo) (*Report, error) {
	payload, err := s.Builder.Build(ctx, draft, photo)
	if err != nil {
		return nil, err
	}
	created, err := s.Repo.Create(ctx, payload)
	if err != nil {
		return nil, err
	}
	s.Store.InvalidateResource(ResourceReportList)
	s.Store.Invalidate(StatsKey())
	s.Log.Info("report created", zap.String("id", created.ID), zap.String("station", created.StationName))
	return created, nil
}

// UpdateReport patches one record, then invalidates the record, the lists
// and the aggregates.
func (s *ReportServiceImpl) UpdateReport(ctx context.Context, id string, patch UpdatePatch) (*Report, error) {
	updated, err := s.Repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.Store.Invalidate(RecordKey(id), StatsKey())
	s.Store.InvalidateResource(ResourceReportList)
	s.Log.Info("report updated", zap.String("id", id))
	return updated, nil
}
