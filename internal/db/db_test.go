package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

func setup(t testing.TB) (*sql.DB, *Queries) {
	sqlite, err := Open(Config{File: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })
	return sqlite, New(sqlite)
}

func TestMigrateIsIdempotent(t *testing.T) {
	sqlite, _ := setup(t)
	require.NoError(t, Migrate(sqlite))
}

func TestUsersAndSessions(t *testing.T) {
	_, qry := setup(t)
	ctx := context.Background()

	user, err := qry.CreateUser(ctx, CreateUserParams{
		Username:        "alice",
		Password:        "secret",
		IntervalMinutes: 5,
	})
	require.NoError(t, err)
	require.NotZero(t, user.ID)

	_, err = qry.CreateUser(ctx, CreateUserParams{Username: "alice", Password: "secret"})
	require.Error(t, err)

	found, err := qry.GetUserByCredentials(ctx, "alice", "secret")
	require.NoError(t, err)
	require.Equal(t, user.ID, found.ID)

	_, err = qry.GetUser(ctx, 404)
	require.ErrorIs(t, err, ErrNotFound)

	token, err := qry.GetSessionToken(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, token)

	require.NoError(t, qry.UpsertSessionToken(ctx, user.ID, "first"))
	require.NoError(t, qry.UpsertSessionToken(ctx, user.ID, "second"))
	token, err = qry.GetSessionToken(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "second", token)

	require.NoError(t, qry.SetUserChatID(ctx, user.ID, "1234"))
	found, err = qry.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "1234", found.ChatID)
	require.EqualValues(t, 5, found.IntervalMinutes)

	require.NoError(t, qry.DeleteUser(ctx, user.ID))
	_, err = qry.GetUser(ctx, user.ID)
	require.ErrorIs(t, err, ErrNotFound)
	token, err = qry.GetSessionToken(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestCourseActivation(t *testing.T) {
	sqlite, qry := setup(t)
	ctx := context.Background()
	makeTx := NewMakeTx(sqlite)

	user, err := qry.CreateUser(ctx, CreateUserParams{Username: "bob", Password: "pw", IntervalMinutes: 5})
	require.NoError(t, err)

	sync := func(suffixes ...string) {
		tx, discard, commit, err := makeTx()
		require.NoError(t, err)
		defer discard()
		require.NoError(t, tx.DeactivateCourses(ctx, user.ID))
		for _, s := range suffixes {
			_, err := tx.UpsertCourse(ctx, UpsertCourseParams{UserID: user.ID, SuffixURL: s, Name: "name " + s})
			require.NoError(t, err)
		}
		require.NoError(t, commit())
	}

	sync("/a", "/b")
	active, err := qry.ListActiveCourses(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, active, 2)

	sync("/b", "/c")
	active, err = qry.ListActiveCourses(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, "/b", active[0].SuffixURL)
	require.Equal(t, "/c", active[1].SuffixURL)

	all, err := qry.ListCourses(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.False(t, all[0].Active)

	sync("/a")
	active, err = qry.ListActiveCourses(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, all[0].ID, active[0].ID)
}

func TestFindLatestRecord(t *testing.T) {
	_, qry := setup(t)
	ctx := context.Background()

	user, err := qry.CreateUser(ctx, CreateUserParams{Username: "carol", Password: "pw", IntervalMinutes: 5})
	require.NoError(t, err)
	course, err := qry.UpsertCourse(ctx, UpsertCourseParams{UserID: user.ID, SuffixURL: "/groups/1", Name: "Math"})
	require.NoError(t, err)

	identity := FindLatestRecordParams{
		UserID:          user.ID,
		ItemID:          "item-1",
		CourseSuffixURL: "/groups/1",
		Author:          "Ali Fakheran",
		SentAt:          "yesterday",
	}
	_, err = qry.FindLatestRecord(ctx, identity)
	require.ErrorIs(t, err, ErrNotFound)

	rec := Record{
		UserID:   user.ID,
		CourseID: course.ID,
		ItemID:   "item-1",
		Author:   "Ali Fakheran",
		SentAt:   "yesterday",
		Text:     "first",
	}
	firstID, err := qry.CreateRecord(ctx, rec)
	require.NoError(t, err)
	rec.Text = "second"
	rec.HasAttachment = true
	secondID, err := qry.CreateRecord(ctx, rec)
	require.NoError(t, err)

	latest, err := qry.FindLatestRecord(ctx, identity)
	require.NoError(t, err)
	require.Equal(t, secondID, latest.ID)
	require.Equal(t, "second", latest.Text)
	require.True(t, latest.HasAttachment)
	require.False(t, latest.IsSent)

	require.NoError(t, qry.MarkRecordSent(ctx, secondID))
	latest, err = qry.GetRecord(ctx, secondID)
	require.NoError(t, err)
	require.True(t, latest.IsSent)

	identity.Author = "Someone Else"
	_, err = qry.FindLatestRecord(ctx, identity)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, qry.DeleteRecord(ctx, secondID))
	require.NoError(t, qry.DeleteRecord(ctx, firstID))
	count, err := qry.CountRecords(ctx, user.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}
