package commands

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"lmswatch-backend/internal/chrono"
	"lmswatch-backend/internal/telemetry"

	"github.com/stretchr/testify/require"
)

const testConfig = `{
  portal: { base_url: "http://127.0.0.1:1", cookie_name: "session" },
  database: { file: "lmswatch.db" },
  notifier: { telegram: { bot_token: "test-token" } },
}`

func TestAppCloseWaitsForRunningJobs(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile("config.json5", []byte(testConfig), 0o644))
	configPath = "config.json5"

	ctx := context.Background()
	cron := chrono.NewStandardCron(time.UTC, &telemetry.TestAPI{})
	a, err := newApp(ctx, cron)
	require.NoError(t, err)

	started := make(chan struct{})
	done := make(chan error, 1)
	var once sync.Once
	err = cron.Cron("job", "@every 1s", func() {
		once.Do(func() {
			close(started)
			time.Sleep(200 * time.Millisecond)
			_, err := a.qry.ListUsers(context.Background())
			done <- err
		})
	})
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job never started")
	}
	a.Close(ctx)

	require.NoError(t, <-done)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
