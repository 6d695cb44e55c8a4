package submit

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"strconv"
	"time"

	"go-stationwatch/internal/features/geo"
	"go-stationwatch/internal/features/report"

	"go.uber.org/zap"
)

// MaxPhotoBytes is the photo size ceiling. Exactly this size is accepted.
const MaxPhotoBytes = 10 << 20

// Draft holds the user-entered fields of a new report.
type Draft struct {
	StationCity   string
	StationName   string
	IssueCategory string
	Description   string
	UrgencyLevel  report.Urgency
	CreatedBy     string
}

// Photo is an attachment selected for upload.
type Photo struct {
	Name    string
	Content []byte
}

// Payload is the encoded multipart body handed to the create mutation, plus
// the coordinates that made it in (for callers that echo them back).
type Payload struct {
	Body        []byte
	ContentType string
	Latitude    *float64
	Longitude   *float64
}

// Builder assembles create payloads: validation, photo ceiling, best-effort
// geolocation under a bounded wait, multipart encoding.
type Builder struct {
	Geo  geo.Provider
	Wait time.Duration
	Log  *zap.Logger
}

func NewBuilder(provider geo.Provider, wait time.Duration, log *zap.Logger) *Builder {
	return &Builder{Geo: provider, Wait: wait, Log: log}
}

// Build validates the draft and encodes it. The geolocation attempt is
// bounded by the configured wait and can only widen the payload; it never
// fails the submission.
func (b *Builder) Build(ctx context.Context, draft Draft, photo *Photo) (*Payload, error) {
	if err := validate(draft); err != nil {
		return nil, err
	}
	if photo != nil && len(photo.Content) > MaxPhotoBytes {
		return nil, &ValidationError{Reason: fmt.Sprintf("photo exceeds the %d byte limit", MaxPhotoBytes)}
	}

	var lat, lng *float64
	if b.Geo != nil {
		gctx, cancel := context.WithTimeout(ctx, b.Wait)
		coords, err := b.Geo.Locate(gctx)
		cancel()
		if err != nil {
			// Silent degrade: submit without coordinates.
			b.Log.Debug("geolocation skipped", zap.Error(err))
		} else {
			lat, lng = &coords.Latitude, &coords.Longitude
		}
	}

	urgency := draft.UrgencyLevel
	if urgency == "" {
		urgency = report.UrgencyMedium
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"station_city":   draft.StationCity,
		"station_name":   draft.StationName,
		"issue_category": draft.IssueCategory,
		"description":    draft.Description,
		"urgency_level":  string(urgency),
		"status":         string(report.StatusSubmitted),
	}
	if draft.CreatedBy != "" {
		fields["created_by"] = draft.CreatedBy
	}
	if lat != nil && lng != nil {
		fields["latitude"] = strconv.FormatFloat(*lat, 'f', -1, 64)
		fields["longitude"] = strconv.FormatFloat(*lng, 'f', -1, 64)
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("encode field %s: %w", name, err)
		}
	}
	if photo != nil {
		part, err := w.CreateFormFile("photo", photo.Name)
		if err != nil {
			return nil, fmt.Errorf("encode photo part: %w", err)
		}
		if _, err := part.Write(photo.Content); err != nil {
			return nil, fmt.Errorf("write photo part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart payload: %w", err)
	}

	return &Payload{
		Body:        buf.Bytes(),
		ContentType: w.FormDataContentType(),
		Latitude:    lat,
		Longitude:   lng,
	}, nil
}

func validate(draft Draft) error {
	var missing []string
	if draft.StationCity == "" {
		missing = append(missing, "station_city")
	}
	if draft.StationName == "" {
		missing = append(missing, "station_name")
	}
	if draft.IssueCategory == "" {
		missing = append(missing, "issue_category")
	}
	if draft.Description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	if !report.ValidStation(draft.StationCity, draft.StationName) {
		return &ValidationError{Reason: fmt.Sprintf("station %q does not belong to %s", draft.StationName, draft.StationCity)}
	}
	return nil
}
