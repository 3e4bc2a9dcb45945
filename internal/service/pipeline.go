package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"lmswatch-backend/internal/db"
	"lmswatch-backend/internal/scrapers/lms"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("lmswatch.service")

// CheckNewMessages fetches every active course of a user concurrently, stores
// the records that are new or changed and notifies the user of them. When
// firstBatch is set nothing is sent, the records are only stored.
//
// It returns how many records were stored. A course that fails is reported
// and skipped, it does not affect the other courses.
func (s Service) CheckNewMessages(ctx context.Context, userID int64, firstBatch bool) (int, error) {
	ctx, span := tracer.Start(ctx, "CheckNewMessages", trace.WithAttributes(
		attribute.Int64("user_id", userID),
		attribute.Bool("first_batch", firstBatch),
	))
	defer span.End()

	user, err := s.getUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get user")
		return 0, err
	}
	sess, err := s.sessions.GetValidSession(ctx, user)
	if err != nil {
		s.tel.ReportWarning(report_pipeline_session, err, userID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get session")
		return 0, err
	}
	courses, err := s.activeCourses(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list courses")
		return 0, err
	}

	var stored atomic.Int64
	wg := sync.WaitGroup{}
	for _, course := range courses {
		wg.Add(1)
		go func(course db.Course) {
			defer wg.Done()
			n, err := s.checkCourse(ctx, user, sess.Token, course, firstBatch)
			stored.Add(int64(n))
			if err != nil {
				s.tel.ReportWarning(report_pipeline_course, err, userID, course.SuffixURL)
			}
		}(course)
	}
	wg.Wait()

	count := int(stored.Load())
	span.SetAttributes(attribute.Int("stored", count))
	s.tel.ReportCount(report_pipeline_new_count, int64(count))
	return count, nil
}

func (s Service) checkCourse(ctx context.Context, user db.User, token string, course db.Course, firstBatch bool) (int, error) {
	ctx, span := tracer.Start(ctx, "checkCourse", trace.WithAttributes(
		attribute.String("course", course.SuffixURL),
	))
	defer span.End()

	page, err := s.portal.FetchPage(ctx, token, course.SuffixURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch course page")
		return 0, err
	}
	if page == "" {
		err := fmt.Errorf("empty page for course %s", course.SuffixURL)
		span.RecordError(err)
		span.SetStatus(codes.Error, "empty course page")
		return 0, err
	}

	count := 0
	for _, candidate := range lms.ParseCourseRecords(page, course) {
		rec, changed, err := s.storeIfChanged(ctx, candidate, course)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to store record")
			return count, err
		}
		if !changed {
			continue
		}
		count++

		_, err = s.dispatcher.Dispatch(ctx, rec, course, user.ChatID, firstBatch)
		if err != nil {
			s.tel.ReportWarning(report_pipeline_course, err, user.ID, rec.ID)
			span.RecordError(err)
		}
	}
	span.SetAttributes(attribute.Int("stored", count))
	return count, nil
}
