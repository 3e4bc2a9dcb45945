package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"lmswatch-backend/internal/api"
	"lmswatch-backend/internal/chrono"
	"lmswatch-backend/internal/telemetry"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Schedules every registered user and serves the job endpoints over http.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cron := chrono.NewStandardCron(time.UTC, telemetry.SlogAPI{})
		a := mustApp(ctx, cron)
		defer a.Close(context.Background())

		telemetry.InstrumentPerfStats(ctx, a.tel)

		scheduled, err := a.service.ScheduleAll(ctx)
		if err != nil {
			fatal("failed to schedule users", err)
		}
		slog.Info("scheduled users", "count", scheduled, "jobs", cron.Len())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", a.cfg.Http.Port),
			Handler:           api.NewHandler(a.service, a.tel).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := server.Shutdown(shutdownCtx)
			if err != nil {
				slog.Warn("http shutdown", "err", err)
			}
		}()

		slog.Info("listening", "addr", server.Addr)
		err = server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("http server", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
