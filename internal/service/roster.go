package service

import (
	"context"
	"fmt"

	"lmswatch-backend/internal/db"
	"lmswatch-backend/internal/scrapers/lms"
)

// SyncCourses refreshes the course roster of a user. Courses missing from the
// latest roster are deactivated, never deleted.
func (s Service) SyncCourses(ctx context.Context, userID int64) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	sess, err := s.sessions.GetValidSession(ctx, user)
	if err != nil {
		s.tel.ReportWarning(report_pipeline_session, err, userID)
		return err
	}

	page, err := s.portal.FetchPage(ctx, sess.Token, s.portal.HomePath())
	if err != nil {
		return err
	}
	roster, ok := lms.ParseRoster(page)
	if !ok {
		err := fmt.Errorf("sync courses: home page has no course roster")
		s.tel.ReportWarning(report_roster_sync, err, userID)
		return err
	}

	tx, discard, commit, err := s.makeTx()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("make tx: %w", err))
		return err
	}
	defer discard()

	err = tx.DeactivateCourses(ctx, userID)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "DeactivateCourses", userID)
		return err
	}
	for _, info := range roster {
		_, err = tx.UpsertCourse(ctx, db.UpsertCourseParams{
			UserID:    userID,
			SuffixURL: info.SuffixURL,
			Name:      info.Name,
		})
		if err != nil {
			s.tel.ReportBroken(report_db_query, err, "UpsertCourse", userID, info.SuffixURL)
			return err
		}
	}
	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("commit: %w", err))
		return err
	}

	s.courseCache.Remove(userID)
	s.tel.ReportCount(report_roster_count, int64(len(roster)))
	return nil
}
