package service

import (
	"context"
	"errors"
	"fmt"

	"lmswatch-backend/internal/changes"
	"lmswatch-backend/internal/db"
)

// findPrevious returns the latest stored observation of the same item, or nil.
// Author and timestamp are part of the identity, so a record whose author or
// timestamp changed is treated as a new item.
func findPrevious(ctx context.Context, qry *db.Queries, candidate db.Record, course db.Course) (*db.Record, error) {
	previous, err := qry.FindLatestRecord(ctx, db.FindLatestRecordParams{
		UserID:          candidate.UserID,
		ItemID:          candidate.ItemID,
		CourseSuffixURL: course.SuffixURL,
		Author:          candidate.Author,
		SentAt:          candidate.SentAt,
	})
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &previous, nil
}

// storeIfChanged classifies candidate against its previous observation and
// stores it when it is new or changed. Lookup and insert share a transaction
// so two concurrent passes cannot both see "no previous record".
func (s Service) storeIfChanged(ctx context.Context, candidate db.Record, course db.Course) (db.Record, bool, error) {
	tx, discard, commit, err := s.makeTx()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("make tx: %w", err))
		return db.Record{}, false, err
	}
	defer discard()

	previous, err := findPrevious(ctx, tx, candidate, course)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "FindLatestRecord", candidate.ItemID)
		return db.Record{}, false, err
	}

	result := changes.Classify(candidate, previous)
	if !result.HasChanged {
		return db.Record{}, false, nil
	}
	result.Apply(&candidate)
	candidate.IsSent = false

	id, err := tx.CreateRecord(ctx, candidate)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "CreateRecord", candidate.ItemID)
		return db.Record{}, false, err
	}
	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("commit: %w", err))
		return db.Record{}, false, err
	}

	candidate.ID = id
	return candidate, true, nil
}
