package chrono

import (
	"fmt"
	"sync"
	"time"

	"lmswatch-backend/internal/telemetry"

	"github.com/robfig/cron/v3"
)

// CronAPI is the interface that anything depending on things to happen on a cron job should use.
//
// Jobs are identified by key, registering a key a second time replaces the previous job.
type CronAPI interface {
	Cron(key, spec string, callback func()) error
	Remove(key string)
}

// StandardCron is the standard implementation of CronAPI using `github.com/robfig/cron/v3`
type StandardCron struct {
	cron *cron.Cron

	mutex   *sync.Mutex
	entries map[string]cron.EntryID
}

// NewStandardCron is the constructor of StandardCron, the scheduler is started immediately.
func NewStandardCron(loc *time.Location, tel telemetry.API) StandardCron {
	cronner := cron.New(
		cron.WithLogger(cronLogger{tel: tel}),
		cron.WithLocation(loc),
	)
	cronner.Start()

	return StandardCron{
		cron:    cronner,
		mutex:   &sync.Mutex{},
		entries: map[string]cron.EntryID{},
	}
}

func (s StandardCron) Cron(key, spec string, callback func()) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id, err := s.cron.AddFunc(spec, callback)
	if err != nil {
		return fmt.Errorf("add cron %s (%s): %w", key, spec, err)
	}
	if previous, ok := s.entries[key]; ok {
		s.cron.Remove(previous)
	}
	s.entries[key] = id
	return nil
}

func (s StandardCron) Remove(key string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id, ok := s.entries[key]
	if !ok {
		return
	}
	s.cron.Remove(id)
	delete(s.entries, key)
}

// Len returns the amount of registered jobs.
func (s StandardCron) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.entries)
}

// Stop stops the scheduler and waits for running jobs to complete.
func (s StandardCron) Stop() {
	<-s.cron.Stop().Done()
}

// NoopCron accepts every job and never runs any of them, it is meant for one-shot commands.
type NoopCron struct{}

func (NoopCron) Cron(key, spec string, callback func()) error {
	_, err := cron.ParseStandard(spec)
	return err
}

func (NoopCron) Remove(key string) {}

type cronLogger struct {
	tel telemetry.API
}

func (l cronLogger) formatParams(keysAndValues []any) []any {
	params := []any{}
	for i := 0; i < len(keysAndValues)/2; i++ {
		idx := i * 2
		params = append(params, fmt.Sprintf("%v: %v", keysAndValues[idx], keysAndValues[idx+1]))
	}
	return params
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.tel.ReportDebug(
		fmt.Sprintf("cron: %s", msg),
		l.formatParams(keysAndValues)...,
	)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.tel.ReportBroken(
		"cron",
		append([]any{fmt.Errorf("%s: %w", msg, err)}, l.formatParams(keysAndValues)...)...,
	)
}
