package report

import (
	"context"
	"fmt"
	"net/url"

	"go-stationwatch/internal/features/stats"
	"go-stationwatch/internal/features/submit"
	"go-stationwatch/internal/transport"

	"github.com/gorilla/schema"
)

// ReportRepository is the REST-backed data access for reports. All network
// I/O of the sync layer goes through here.
type ReportRepository interface {
	List(ctx context.Context, f FilterState) ([]Report, error)
	Get(ctx context.Context, id string) (*Report, error)
	Stats(ctx context.Context) (stats.AggregateStats, error)
	Create(ctx context.Context, payload *submit.Payload) (*Report, error)
	Update(ctx context.Context, id string, patch UpdatePatch) (*Report, error)
}

type RestReportRepository struct {
	Client  *transport.Client
	encoder *schema.Encoder
}

func NewReportRepository(client *transport.Client) ReportRepository {
	return &RestReportRepository{
		Client:  client,
		encoder: schema.NewEncoder(),
	}
}

// EncodeFilters turns a FilterState into query parameters, omitting empty
// values. Exported because the cache key uses the same canonical encoding.
func (r *RestReportRepository) EncodeFilters(f FilterState) (url.Values, error) {
	vals := url.Values{}
	if err := r.encoder.Encode(&f, vals); err != nil {
		return nil, fmt.Errorf("encode filters: %w", err)
	}
	return vals, nil
}

func (r *RestReportRepository) List(ctx context.Context, f FilterState) ([]Report, error) {
	vals, err := r.EncodeFilters(f)
	if err != nil {
		return nil, err
	}
	var reports []Report
	if err := r.Client.Get(ctx, "/reports", vals, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *RestReportRepository) Get(ctx context.Context, id string) (*Report, error) {
	var rep Report
	if err := r.Client.Get(ctx, "/reports/"+url.PathEscape(id), nil, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *RestReportRepository) Stats(ctx context.Context) (stats.AggregateStats, error) {
	var st stats.AggregateStats
	if err := r.Client.Get(ctx, "/reports/stats", nil, &st); err != nil {
		return stats.AggregateStats{}, err
	}
	return st, nil
}

func (r *RestReportRepository) Create(ctx context.Context, payload *submit.Payload) (*Report, error) {
	var rep Report
	if err := r.Client.PostMultipart(ctx, "/reports", payload.Body, payload.ContentType, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *RestReportRepository) Update(ctx context.Context, id string, patch UpdatePatch) (*Report, error) {
	var rep Report
	if err := r.Client.Patch(ctx, "/reports/"+url.PathEscape(id), patch, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}
