package lms

import (
	"os"
	"testing"

	"lmswatch-backend/internal/db"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func readFixture(t testing.TB, name string) string {
	contents, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(contents)
}

func TestParseCourseRecords(t *testing.T) {
	course := db.Course{ID: 7, UserID: 3, SuffixURL: "/groups/10", Name: "Mathematics 1"}
	records := ParseCourseRecords(readFixture(t, "course.html"), course)

	base := func(itemID string) db.Record {
		return db.Record{UserID: 3, CourseID: 7, ItemID: itemID}
	}

	expected := []db.Record{}

	plain := base("activity-item-101")
	plain.Author = "Ali Fakheran"
	plain.Text = "Full announcement text"
	plain.SentAt = "10 Mehr 1403 10:30"
	expected = append(expected, plain)

	file := base("activity-item-102")
	file.Author = "Sara Rahimi"
	file.Text = "Please read the slides"
	file.SentAt = "11 Mehr 1403 08:00"
	file.HasAttachment = true
	file.AttachmentName = "slides.pdf"
	file.AttachmentLink = "/files/slides.pdf"
	expected = append(expected, file)

	link := base("activity-item-103")
	link.Author = "Sara Rahimi"
	link.Text = "Useful resource\nhttps://example.com"
	link.SentAt = "12 Mehr 1403 09:15"
	expected = append(expected, link)

	exercise := base("activity-item-104")
	exercise.Author = "Ali Fakheran"
	exercise.Text = "Homework 3"
	exercise.SentAt = "13 Mehr 1403 12:00"
	exercise.IsExercise = true
	exercise.ExerciseName = "Homework 3"
	exercise.HasAttachment = true
	exercise.AttachmentName = "hw3.pdf"
	exercise.AttachmentLink = "/files/hw3.pdf"
	exercise.ExerciseStart = "13 Mehr 1403"
	exercise.ExerciseDeadline = "پایان یافته"
	exercise.IsExerciseFinished = true
	expected = append(expected, exercise)

	session := base("activity-item-105")
	session.Author = "Ali Fakheran"
	session.Text = "Online class"
	session.SentAt = "14 Mehr 1403 16:00"
	session.IsOnlineSession = true
	session.OnlineSessionName = "Week 4 session"
	session.OnlineSessionLink = "/meeting/55"
	session.OnlineSessionStatus = "در حال برگزاری"
	session.OnlineSessionStart = "14 Mehr 16:00"
	session.OnlineSessionEnd = "14 Mehr 17:30"
	expected = append(expected, session)

	odd := base("activity-item-106")
	odd.Text = "Odd shape"
	expected = append(expected, odd)

	diff := cmp.Diff(expected, records)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestParseCourseRecordsMalformed(t *testing.T) {
	course := db.Course{ID: 1, UserID: 1}

	testCases := []struct {
		name  string
		page  string
		count int
	}{
		{name: "empty page", page: "", count: 0},
		{name: "not html", page: "<<<>>> {json: true}", count: 0},
		{name: "bare item", page: `<div class="wall-action-item"></div>`, count: 1},
		{
			name:  "session table without rows",
			page:  `<div class="wall-action-item" id="x"><div class="feed_item_attachments"><table></table></div></div>`,
			count: 1,
		},
		{
			name:  "link span without title",
			page:  `<div class="wall-action-item"><div class="feed_item_attachments"><span>?</span></div></div>`,
			count: 1,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			records := ParseCourseRecords(test.page, course)
			require.Len(t, records, test.count)
		})
	}
}

func TestOnlineSessionWithoutEndLabel(t *testing.T) {
	page := `<div class="wall-action-item" id="s1"><div class="feed_item_attachments"><table>
		<tr><td><a class="adobe_meeting_url" href="/m/1">Lecture</a></td><td></td>
		<td><span>ضبط شده</span><div>زمان شروع : 09:00</div></td></tr>
	</table></div></div>`

	records := ParseCourseRecords(page, db.Course{})
	require.Len(t, records, 1)
	require.True(t, records[0].IsOnlineSession)
	require.Equal(t, "09:00", records[0].OnlineSessionStart)
	require.Empty(t, records[0].OnlineSessionEnd)
	require.Equal(t, "ضبط شده", records[0].OnlineSessionStatus)
}

func TestCanonicalAuthor(t *testing.T) {
	require.Equal(t, "Ali Fakheran", canonicalAuthor("Fakheran - Ali"))
	require.Equal(t, "Single", canonicalAuthor("Single"))
}

func TestParseRoster(t *testing.T) {
	courses, ok := ParseRoster(readFixture(t, "home.html"))
	require.True(t, ok)
	require.Equal(t, []CourseInfo{
		{SuffixURL: "/groups/10", Name: "Mathematics 1"},
		{SuffixURL: "/groups/11", Name: "Physics"},
		{SuffixURL: "/groups/12", Name: ""},
	}, courses)

	courses, ok = ParseRoster("<html>please log in</html>")
	require.False(t, ok)
	require.Empty(t, courses)

	courses, ok = ParseRoster(`<div id="profile_groups"><ul></ul></div>`)
	require.True(t, ok)
	require.Empty(t, courses)
}
