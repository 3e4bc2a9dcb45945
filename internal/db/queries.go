package db

import (
	"context"
	"database/sql"
	"errors"
)

// ErrNotFound is returned by single row lookups that matched nothing.
var ErrNotFound = errors.New("not found")

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

const userColumns = `id, username, password, chat_id, interval_minutes, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.Password,
		&i.ChatID,
		&i.IntervalMinutes,
		&i.CreatedAt,
	)
	return i, err
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (username, password, interval_minutes)
VALUES (?, ?, ?)
RETURNING ` + userColumns

type CreateUserParams struct {
	Username        string
	Password        string
	IntervalMinutes int64
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser, arg.Username, arg.Password, arg.IntervalMinutes)
	return scanUser(row)
}

const getUser = `-- name: GetUser :one
SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, id)
	i, err := scanUser(row)
	return i, notFound(err)
}

const getUserByCredentials = `-- name: GetUserByCredentials :one
SELECT ` + userColumns + ` FROM users WHERE username = ? AND password = ?`

func (q *Queries) GetUserByCredentials(ctx context.Context, username, password string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByCredentials, username, password)
	i, err := scanUser(row)
	return i, notFound(err)
}

const listUsers = `-- name: ListUsers :many
SELECT ` + userColumns + ` FROM users ORDER BY id`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		i, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setUserChatID = `-- name: SetUserChatID :exec
UPDATE users SET chat_id = ? WHERE id = ?`

func (q *Queries) SetUserChatID(ctx context.Context, id int64, chatID string) error {
	_, err := q.db.ExecContext(ctx, setUserChatID, chatID, id)
	return err
}

const setUserInterval = `-- name: SetUserInterval :exec
UPDATE users SET interval_minutes = ? WHERE id = ?`

func (q *Queries) SetUserInterval(ctx context.Context, id int64, minutes int64) error {
	_, err := q.db.ExecContext(ctx, setUserInterval, minutes, id)
	return err
}

const deleteUserRecords = `-- name: DeleteUserRecords :exec
DELETE FROM records WHERE user_id = ?`

const deleteUserCourses = `-- name: DeleteUserCourses :exec
DELETE FROM courses WHERE user_id = ?`

const deleteUserSession = `-- name: DeleteUserSession :exec
DELETE FROM sessions WHERE user_id = ?`

const deleteUser = `-- name: DeleteUser :exec
DELETE FROM users WHERE id = ?`

// DeleteUser removes a user along with everything that belongs to them,
// it should be run inside a transaction.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	for _, stmt := range []string{
		deleteUserRecords,
		deleteUserCourses,
		deleteUserSession,
		deleteUser,
	} {
		_, err := q.db.ExecContext(ctx, stmt, id)
		if err != nil {
			return err
		}
	}
	return nil
}

const getSessionToken = `-- name: GetSessionToken :one
SELECT token FROM sessions WHERE user_id = ?`

// GetSessionToken returns the stored token for a user, or "" if none was ever stored.
func (q *Queries) GetSessionToken(ctx context.Context, userID int64) (string, error) {
	row := q.db.QueryRowContext(ctx, getSessionToken, userID)
	var token string
	err := row.Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return token, err
}

const upsertSessionToken = `-- name: UpsertSessionToken :exec
INSERT INTO sessions (user_id, token) VALUES (?, ?)
ON CONFLICT (user_id) DO UPDATE SET token = excluded.token`

func (q *Queries) UpsertSessionToken(ctx context.Context, userID int64, token string) error {
	_, err := q.db.ExecContext(ctx, upsertSessionToken, userID, token)
	return err
}

const courseColumns = `id, user_id, suffix_url, name, active`

func scanCourse(row interface{ Scan(...any) error }) (Course, error) {
	var i Course
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.SuffixURL,
		&i.Name,
		&i.Active,
	)
	return i, err
}

const deactivateCourses = `-- name: DeactivateCourses :exec
UPDATE courses SET active = 0 WHERE user_id = ?`

func (q *Queries) DeactivateCourses(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx, deactivateCourses, userID)
	return err
}

const upsertCourse = `-- name: UpsertCourse :one
INSERT INTO courses (user_id, suffix_url, name, active) VALUES (?, ?, ?, 1)
ON CONFLICT (user_id, suffix_url) DO UPDATE SET active = 1
RETURNING ` + courseColumns

type UpsertCourseParams struct {
	UserID    int64
	SuffixURL string
	Name      string
}

// UpsertCourse creates the course if it does not exist yet and marks it as active,
// the name of an existing course is kept.
func (q *Queries) UpsertCourse(ctx context.Context, arg UpsertCourseParams) (Course, error) {
	row := q.db.QueryRowContext(ctx, upsertCourse, arg.UserID, arg.SuffixURL, arg.Name)
	return scanCourse(row)
}

const listCourses = `-- name: ListCourses :many
SELECT ` + courseColumns + ` FROM courses WHERE user_id = ? ORDER BY id`

const listActiveCourses = `-- name: ListActiveCourses :many
SELECT ` + courseColumns + ` FROM courses WHERE user_id = ? AND active = 1 ORDER BY id`

func (q *Queries) listCoursesQuery(ctx context.Context, query string, userID int64) ([]Course, error) {
	rows, err := q.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Course
	for rows.Next() {
		i, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) ListCourses(ctx context.Context, userID int64) ([]Course, error) {
	return q.listCoursesQuery(ctx, listCourses, userID)
}

func (q *Queries) ListActiveCourses(ctx context.Context, userID int64) ([]Course, error) {
	return q.listCoursesQuery(ctx, listActiveCourses, userID)
}

const recordColumns = `r.id, r.user_id, r.course_id, r.item_id, r.author, r.text, r.sent_at, r.header, r.footer,
    r.has_attachment, r.attachment_name, r.attachment_link,
    r.is_exercise, r.is_exercise_finished, r.exercise_name, r.exercise_start, r.exercise_deadline,
    r.is_online_session, r.online_session_name, r.online_session_link, r.online_session_status,
    r.online_session_start, r.online_session_end,
    r.is_sent, r.created_at`

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var i Record
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.CourseID,
		&i.ItemID,
		&i.Author,
		&i.Text,
		&i.SentAt,
		&i.Header,
		&i.Footer,
		&i.HasAttachment,
		&i.AttachmentName,
		&i.AttachmentLink,
		&i.IsExercise,
		&i.IsExerciseFinished,
		&i.ExerciseName,
		&i.ExerciseStart,
		&i.ExerciseDeadline,
		&i.IsOnlineSession,
		&i.OnlineSessionName,
		&i.OnlineSessionLink,
		&i.OnlineSessionStatus,
		&i.OnlineSessionStart,
		&i.OnlineSessionEnd,
		&i.IsSent,
		&i.CreatedAt,
	)
	return i, err
}

const findLatestRecord = `-- name: FindLatestRecord :one
SELECT ` + recordColumns + `
FROM records r
INNER JOIN courses c ON c.id = r.course_id
WHERE r.user_id = ?
    AND r.item_id = ?
    AND c.suffix_url = ?
    AND r.author = ?
    AND r.sent_at = ?
ORDER BY r.id DESC
LIMIT 1`

// FindLatestRecordParams is the identity of a record.
type FindLatestRecordParams struct {
	UserID          int64
	ItemID          string
	CourseSuffixURL string
	Author          string
	SentAt          string
}

// FindLatestRecord returns the most recently written record matching the given identity.
func (q *Queries) FindLatestRecord(ctx context.Context, arg FindLatestRecordParams) (Record, error) {
	row := q.db.QueryRowContext(ctx, findLatestRecord,
		arg.UserID,
		arg.ItemID,
		arg.CourseSuffixURL,
		arg.Author,
		arg.SentAt,
	)
	i, err := scanRecord(row)
	return i, notFound(err)
}

const getRecord = `-- name: GetRecord :one
SELECT ` + recordColumns + ` FROM records r WHERE r.id = ?`

func (q *Queries) GetRecord(ctx context.Context, id int64) (Record, error) {
	row := q.db.QueryRowContext(ctx, getRecord, id)
	i, err := scanRecord(row)
	return i, notFound(err)
}

const createRecord = `-- name: CreateRecord :one
INSERT INTO records (
    user_id, course_id, item_id, author, text, sent_at, header, footer,
    has_attachment, attachment_name, attachment_link,
    is_exercise, is_exercise_finished, exercise_name, exercise_start, exercise_deadline,
    is_online_session, online_session_name, online_session_link, online_session_status,
    online_session_start, online_session_end,
    is_sent
) VALUES (
    ?, ?, ?, ?, ?, ?, ?, ?,
    ?, ?, ?,
    ?, ?, ?, ?, ?,
    ?, ?, ?, ?,
    ?, ?,
    ?
)
RETURNING id`

func (q *Queries) CreateRecord(ctx context.Context, arg Record) (int64, error) {
	row := q.db.QueryRowContext(ctx, createRecord,
		arg.UserID,
		arg.CourseID,
		arg.ItemID,
		arg.Author,
		arg.Text,
		arg.SentAt,
		arg.Header,
		arg.Footer,
		arg.HasAttachment,
		arg.AttachmentName,
		arg.AttachmentLink,
		arg.IsExercise,
		arg.IsExerciseFinished,
		arg.ExerciseName,
		arg.ExerciseStart,
		arg.ExerciseDeadline,
		arg.IsOnlineSession,
		arg.OnlineSessionName,
		arg.OnlineSessionLink,
		arg.OnlineSessionStatus,
		arg.OnlineSessionStart,
		arg.OnlineSessionEnd,
		arg.IsSent,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const markRecordSent = `-- name: MarkRecordSent :exec
UPDATE records SET is_sent = 1 WHERE id = ?`

func (q *Queries) MarkRecordSent(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markRecordSent, id)
	return err
}

const deleteRecord = `-- name: DeleteRecord :exec
DELETE FROM records WHERE id = ?`

func (q *Queries) DeleteRecord(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteRecord, id)
	return err
}

const countRecords = `-- name: CountRecords :one
SELECT count(*) FROM records WHERE user_id = ?`

func (q *Queries) CountRecords(ctx context.Context, userID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countRecords, userID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
