package service

import (
	"context"
	"fmt"
	"time"

	"lmswatch-backend/internal/db"
)

func rosterKey(userID int64) string {
	return fmt.Sprintf("courses:%d", userID)
}

func messagesKey(userID int64) string {
	return fmt.Sprintf("messages:%d", userID)
}

// Schedule registers the two recurring jobs of a user, replacing any jobs
// registered for them before.
func (s Service) Schedule(user db.User) error {
	interval := user.IntervalMinutes
	if interval <= 0 {
		interval = s.config.DefaultIntervalMinutes
	}
	timeout := time.Duration(s.config.JobTimeoutSeconds) * time.Second

	err := s.cron.Cron(rosterKey(user.ID), s.config.RosterCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := s.SyncCourses(ctx, user.ID)
		if err != nil {
			s.tel.ReportWarning(report_roster_sync, err, user.ID)
		}
	})
	if err != nil {
		s.tel.ReportBroken(report_schedule, err, user.ID)
		return err
	}

	err = s.cron.Cron(messagesKey(user.ID), fmt.Sprintf("@every %dm", interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_, err := s.CheckNewMessages(ctx, user.ID, false)
		if err != nil {
			s.tel.ReportWarning(report_pipeline_course, err, user.ID)
		}
	})
	if err != nil {
		s.tel.ReportBroken(report_schedule, err, user.ID)
		return err
	}
	return nil
}

// ScheduleAll registers the jobs of every stored user.
func (s Service) ScheduleAll(ctx context.Context) (int, error) {
	users, err := s.qry.ListUsers(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "ListUsers")
		return 0, err
	}
	for _, user := range users {
		err := s.Schedule(user)
		if err != nil {
			return 0, err
		}
	}
	return len(users), nil
}
