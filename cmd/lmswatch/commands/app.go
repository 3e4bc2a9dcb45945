package commands

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"lmswatch-backend/internal/chrono"
	"lmswatch-backend/internal/config"
	"lmswatch-backend/internal/db"
	"lmswatch-backend/internal/notify"
	"lmswatch-backend/internal/scrapers/lms"
	"lmswatch-backend/internal/service"
	"lmswatch-backend/internal/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
)

// stoppable is a scheduler that can wait for its running jobs.
type stoppable interface {
	Stop()
}

type app struct {
	cron      chrono.CronAPI
	cfg       config.Config
	sqlite    *sql.DB
	qry       *db.Queries
	service   service.Service
	tel       telemetry.API
	providers telemetry.Providers
}

func newApp(ctx context.Context, cron chrono.CronAPI) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	providers, err := telemetry.Setup(ctx, "lmswatch", cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("setup telemetry: %w", err)
	}

	var tel telemetry.API = telemetry.SlogAPI{}
	if providers.MeterProvider != nil {
		otelTel, err := telemetry.NewOtelAPI(tel)
		if err != nil {
			return nil, err
		}
		tel = otelTel
	}

	sqlite, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	qry := db.New(sqlite)

	var notifier notify.Notifier
	switch cfg.Notifier.Kind {
	case "email":
		notifier = notify.NewEmail(cfg.Notifier.Email, tel)
	default:
		notifier = notify.NewTelegram(cfg.Notifier.Telegram, tel)
	}

	if cron == nil {
		cron = chrono.NoopCron{}
	}

	svc := service.NewService(
		qry,
		db.NewMakeTx(sqlite),
		lms.NewClient(cfg.Portal, tel),
		notify.NewDispatcher(notifier, qry, cfg.Portal.BaseURL, tel),
		cron,
		cfg.Schedule,
		tel,
	)

	return &app{
		cron:      cron,
		cfg:       cfg,
		sqlite:    sqlite,
		qry:       qry,
		service:   svc,
		tel:       tel,
		providers: providers,
	}, nil
}

// Close stops the scheduler before closing the database, jobs that are
// still running need it.
func (a *app) Close(ctx context.Context) {
	if cron, ok := a.cron.(stoppable); ok {
		cron.Stop()
	}
	err := a.sqlite.Close()
	if err != nil {
		slog.Warn("close database", "err", err)
	}
	err = a.providers.Shutdown(ctx)
	if err != nil {
		slog.Warn("shutdown telemetry", "err", err)
	}
}

func mustApp(ctx context.Context, cron chrono.CronAPI) *app {
	a, err := newApp(ctx, cron)
	if err != nil {
		fatal("failed to initialize", err)
	}
	return a
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}

func parseUserID(arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		fatal("invalid user id", err)
	}
	return id
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
