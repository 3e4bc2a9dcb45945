package service

import (
	"context"
	"errors"
	"fmt"

	"lmswatch-backend/internal/db"
)

// Register creates a user, verifies their credentials against the portal and
// populates their backlog without notifying them of it. A user whose
// credentials are rejected is removed again.
//
// It returns the new user and the size of their backlog.
func (s Service) Register(ctx context.Context, username, password, chatID string) (db.User, int, error) {
	user, err := s.createUser(ctx, username, password)
	if err != nil {
		return db.User{}, 0, err
	}

	_, err = s.sessions.GetValidSession(ctx, user)
	if err != nil {
		s.tel.ReportWarning(report_register, err, username)
		undoErr := s.deleteUser(ctx, user.ID)
		if undoErr != nil {
			return db.User{}, 0, errors.Join(err, undoErr)
		}
		return db.User{}, 0, err
	}

	err = s.qry.SetUserChatID(ctx, user.ID, chatID)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "SetUserChatID", user.ID)
		undoErr := s.deleteUser(ctx, user.ID)
		if undoErr != nil {
			return db.User{}, 0, errors.Join(err, undoErr)
		}
		return db.User{}, 0, err
	}
	user.ChatID = chatID

	var firstErr error
	count := 0
	err = s.SyncCourses(ctx, user.ID)
	if err != nil {
		firstErr = fmt.Errorf("initial course sync: %w", err)
	} else {
		count, err = s.CheckNewMessages(ctx, user.ID, true)
		if err != nil {
			firstErr = fmt.Errorf("initial message check: %w", err)
		} else {
			err = s.dispatcher.Welcome(ctx, chatID, count)
			if err != nil {
				firstErr = fmt.Errorf("welcome message: %w", err)
			}
		}
	}

	// scheduled jobs retry whatever failed above
	err = s.Schedule(user)
	if err != nil {
		return user, count, errors.Join(firstErr, err)
	}
	return user, count, firstErr
}

func (s Service) createUser(ctx context.Context, username, password string) (db.User, error) {
	tx, discard, commit, err := s.makeTx()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("make tx: %w", err))
		return db.User{}, err
	}
	defer discard()

	_, err = tx.GetUserByCredentials(ctx, username, password)
	if err == nil {
		return db.User{}, ErrAlreadyRegistered
	}
	if !errors.Is(err, db.ErrNotFound) {
		s.tel.ReportBroken(report_db_query, err, "GetUserByCredentials", username)
		return db.User{}, err
	}

	user, err := tx.CreateUser(ctx, db.CreateUserParams{
		Username:        username,
		Password:        password,
		IntervalMinutes: s.config.DefaultIntervalMinutes,
	})
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "CreateUser", username)
		return db.User{}, err
	}
	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("commit: %w", err))
		return db.User{}, err
	}
	return user, nil
}

func (s Service) deleteUser(ctx context.Context, userID int64) error {
	tx, discard, commit, err := s.makeTx()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("make tx: %w", err))
		return err
	}
	defer discard()

	err = tx.DeleteUser(ctx, userID)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "DeleteUser", userID)
		return err
	}
	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("commit: %w", err))
		return err
	}

	s.courseCache.Remove(userID)
	s.cron.Remove(rosterKey(userID))
	s.cron.Remove(messagesKey(userID))
	return nil
}

// RemoveUser deletes a user with everything they own and stops their jobs.
func (s Service) RemoveUser(ctx context.Context, userID int64) error {
	_, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.deleteUser(ctx, userID)
}

// SetInterval changes how often (in minutes) a user's courses are checked.
func (s Service) SetInterval(ctx context.Context, userID int64, minutes int64) error {
	if minutes <= 0 {
		return fmt.Errorf("interval must be positive, got %d", minutes)
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	err = s.qry.SetUserInterval(ctx, userID, minutes)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "SetUserInterval", userID)
		return err
	}
	user.IntervalMinutes = minutes
	return s.Schedule(user)
}
