package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lmswatch-backend/internal/assert"
	"lmswatch-backend/internal/chrono"
	"lmswatch-backend/internal/db"
	"lmswatch-backend/internal/notify"
	"lmswatch-backend/internal/session"
	"lmswatch-backend/internal/telemetry"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	report_db_query           = "db.query"
	report_pipeline_session   = "pipeline.session"
	report_pipeline_course    = "pipeline.check-course"
	report_pipeline_new_count = "pipeline.new-records"
	report_roster_sync        = "roster.sync"
	report_roster_count       = "roster.active-courses"
	report_register           = "register"
	report_schedule           = "schedule"
)

var (
	ErrAlreadyRegistered = errors.New("user is already registered")
	ErrUnknownUser       = errors.New("unknown user")
)

// PortalAPI is everything the service needs from the portal.
type PortalAPI interface {
	session.PortalAPI
	FetchPage(ctx context.Context, token, path string) (string, error)
	HomePath() string
}

type Config struct {
	// RosterCron is the cron spec on which course rosters are refreshed.
	RosterCron             string `json:"roster_cron"`
	DefaultIntervalMinutes int64  `json:"default_interval_minutes"`
	// JobTimeoutSeconds bounds a single scheduled sync or check.
	JobTimeoutSeconds int `json:"job_timeout_seconds"`
}

func (c *Config) setDefaults() {
	if c.RosterCron == "" {
		c.RosterCron = "0 0 * * 4"
	}
	if c.DefaultIntervalMinutes <= 0 {
		c.DefaultIntervalMinutes = 5
	}
	if c.JobTimeoutSeconds <= 0 {
		c.JobTimeoutSeconds = 180
	}
}

type Service struct {
	qry        *db.Queries
	makeTx     db.MakeTx
	portal     PortalAPI
	sessions   session.Manager
	dispatcher notify.Dispatcher
	cron       chrono.CronAPI
	config     Config
	tel        telemetry.API

	// active courses per user, invalidated on every roster sync
	courseCache *expirable.LRU[int64, []db.Course]
}

func NewService(
	qry *db.Queries,
	makeTx db.MakeTx,
	portal PortalAPI,
	dispatcher notify.Dispatcher,
	cron chrono.CronAPI,
	config Config,
	tel telemetry.API,
) Service {
	assert.NotNil(qry, "db")
	assert.NotNil(makeTx, "makeTx")
	assert.NotNil(portal, "portal")
	assert.NotNil(cron, "cron")
	assert.NotNil(tel, "telemetry")

	config.setDefaults()
	tel = telemetry.NewScopedAPI("service", tel)

	return Service{
		qry:         qry,
		makeTx:      makeTx,
		portal:      portal,
		sessions:    session.NewManager(portal, qry, tel),
		dispatcher:  dispatcher,
		cron:        cron,
		config:      config,
		tel:         tel,
		courseCache: expirable.NewLRU[int64, []db.Course](512, nil, time.Minute*30),
	}
}

func (s Service) getUser(ctx context.Context, userID int64) (db.User, error) {
	user, err := s.qry.GetUser(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return db.User{}, fmt.Errorf("%w: %d", ErrUnknownUser, userID)
	}
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetUser", userID)
		return db.User{}, err
	}
	return user, nil
}

func (s Service) activeCourses(ctx context.Context, userID int64) ([]db.Course, error) {
	cached, ok := s.courseCache.Get(userID)
	if ok {
		return cached, nil
	}
	courses, err := s.qry.ListActiveCourses(ctx, userID)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "ListActiveCourses", userID)
		return nil, err
	}
	s.courseCache.Add(userID, courses)
	return courses, nil
}
