package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go-stationwatch/internal/config"
	"go-stationwatch/internal/features/auth"
	"go-stationwatch/internal/features/export"
	"go-stationwatch/internal/features/geo"
	"go-stationwatch/internal/features/refresh"
	"go-stationwatch/internal/features/report"
	"go-stationwatch/internal/features/stats"
	"go-stationwatch/internal/features/submit"
	"go-stationwatch/internal/logger"
	"go-stationwatch/internal/query"
	"go-stationwatch/internal/transport"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewHTTPDoer is the real network transport behind the client.
func NewHTTPDoer(cfg *config.Config) transport.Doer {
	return &http.Client{Timeout: cfg.RequestTimeout}
}

func NewRegistry() prometheus.Registerer {
	return prometheus.NewRegistry()
}

func NewSubmitBuilder(provider geo.Provider, cfg *config.Config, log *zap.Logger) *submit.Builder {
	return submit.NewBuilder(provider, cfg.GeoWait, log)
}

// AttachAuthTokens wires the auth service into the transport after both are
// built, so authenticated requests carry the bearer token.
func AttachAuthTokens(client *transport.Client, authService auth.AuthService) {
	client.Tokens = authService
}

// StartScheduler runs the background stats refresher for the lifetime of the
// app.
func StartScheduler(lc fx.Lifecycle, refresher refresh.Refresher) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return refresher.InitializeScheduler(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return refresher.StopScheduler()
		},
	})
}

// RunCommand executes the subcommand and shuts the app down when it is done.
func RunCommand(lc fx.Lifecycle, shutdowner fx.Shutdowner, svc report.ReportService, exporter export.ExportService, client *transport.Client, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := run(svc, exporter, client); err != nil {
					log.Error("command failed", zap.Error(err))
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			NewHTTPDoer,
			transport.NewClient,
			NewRegistry,
			query.NewMetrics,
			query.NewStore,
			geo.FromConfig,
			NewSubmitBuilder,
			report.NewReportRepository,
			report.NewReportService,
			auth.NewAuthService,
			export.NewExportService,
			refresh.NewRefresher,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			AttachAuthTokens,
			StartScheduler,
			RunCommand,
		),
	)

	app.Run()
}

func run(svc report.ReportService, exporter export.ExportService, client *transport.Client) error {
	if len(os.Args) < 2 {
		usage()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "list":
		return runList(ctx, svc, client, os.Args[2:])
	case "stats":
		return runStats(ctx, svc)
	case "submit":
		return runSubmit(ctx, svc, os.Args[2:])
	case "update":
		return runUpdate(ctx, svc, os.Args[2:])
	case "export":
		return runExport(ctx, svc, exporter, os.Args[2:])
	default:
		usage()
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

func usage() {
	fmt.Println("usage: stationwatch <list|stats|submit|update|export> [flags]")
}

func filterFlags(fs *flag.FlagSet) *report.FilterState {
	f := &report.FilterState{}
	fs.StringVar(&f.Search, "search", "", "substring match on station, city, description")
	fs.StringVar(&f.Status, "status", "", "filter by status")
	fs.StringVar(&f.Urgency, "urgency", "", "filter by urgency level")
	fs.StringVar(&f.City, "city", "", "filter by city")
	fs.StringVar(&f.Sort, "sort", report.SortCreatedDesc, "created_date:desc or urgency_level:desc")
	return f
}

func runList(ctx context.Context, svc report.ReportService, client *transport.Client, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	f := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	view, err := svc.DerivedView(ctx, *f)
	if err != nil {
		return err
	}
	for _, r := range view {
		line := fmt.Sprintf("%-6s %-10s %-14s %-18s %-8s %-12s %s",
			r.ID, r.StationCity, r.StationName, r.IssueCategory, r.UrgencyLevel, r.Status, r.Description)
		if r.PhotoURL != "" {
			line += "  photo: " + client.ResolvePhotoURL(r.PhotoURL)
		}
		fmt.Println(line)
	}
	fmt.Printf("%d report(s)\n", len(view))
	return nil
}

func runStats(ctx context.Context, svc report.ReportService) error {
	series, err := svc.StatsSeries(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("completion rate: %.1f%%  pending: %d\n", series.CompletionRate, series.PendingCount)
	printSection("by category", series.Category)
	printSection("by urgency", series.Urgency)
	printSection("top stations", series.Stations)
	printSection("by city", series.City)
	return nil
}

func printSection(title string, points []stats.Point) {
	fmt.Println(title + ":")
	for _, p := range points {
		fmt.Printf("  %-20s %d\n", p.Name, p.Value)
	}
}

func runSubmit(ctx context.Context, svc report.ReportService, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	draft := submit.Draft{}
	var urgency, photoPath string
	fs.StringVar(&draft.StationCity, "city", "", "station city")
	fs.StringVar(&draft.StationName, "station", "", "station name")
	fs.StringVar(&draft.IssueCategory, "category", "", "issue category")
	fs.StringVar(&draft.Description, "description", "", "issue description")
	fs.StringVar(&urgency, "urgency", string(report.UrgencyMedium), "urgency level")
	fs.StringVar(&draft.CreatedBy, "email", "", "reporter email")
	fs.StringVar(&photoPath, "photo", "", "path to a photo attachment")
	if err := fs.Parse(args); err != nil {
		return err
	}
	draft.UrgencyLevel = report.Urgency(urgency)

	var photo *submit.Photo
	if photoPath != "" {
		content, err := os.ReadFile(photoPath)
		if err != nil {
			return fmt.Errorf("read photo: %w", err)
		}
		photo = &submit.Photo{Name: filepath.Base(photoPath), Content: content}
	}

	created, err := svc.CreateReport(ctx, draft, photo)
	if err != nil {
		return err
	}
	fmt.Printf("created report %s (%s, %s)\n", created.ID, created.StationName, created.Status)
	return nil
}

func runUpdate(ctx context.Context, svc report.ReportService, args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	var id, status, notes string
	fs.StringVar(&id, "id", "", "report id")
	fs.StringVar(&status, "status", "", "new status")
	fs.StringVar(&notes, "notes", "", "resolution notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("-id is required")
	}

	patch := report.UpdatePatch{}
	if status != "" {
		s := report.ReportStatus(status)
		patch.Status = &s
	}
	if notes != "" {
		patch.Notes = &notes
	}

	updated, err := svc.UpdateReport(ctx, id, patch)
	if err != nil {
		return err
	}
	fmt.Printf("updated report %s -> %s\n", updated.ID, updated.Status)
	return nil
}

func runExport(ctx context.Context, svc report.ReportService, exporter export.ExportService, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	f := filterFlags(fs)
	var format, out string
	fs.StringVar(&format, "format", "xlsx", "xlsx or csv")
	fs.StringVar(&out, "out", "reports", "output filename")
	if err := fs.Parse(args); err != nil {
		return err
	}

	view, err := svc.DerivedView(ctx, *f)
	if err != nil {
		return err
	}
	data, filename, err := exporter.ExportReports(view, format, out)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %d report(s) to %s\n", len(view), filename)
	return nil
}
