package notify

import (
	"strings"
	"testing"

	"lmswatch-backend/internal/db"

	"github.com/stretchr/testify/require"
)

func TestRenderMinimal(t *testing.T) {
	doc := Render(db.Record{Author: "Ali Fakheran"}, db.Course{Name: "Math"}, "https://lms.example.com")
	require.Equal(t, "📚  Math\n\n👤  Ali Fakheran"+zeroWidthNonJoiner+"\n", doc)
}

func TestRenderFull(t *testing.T) {
	rec := db.Record{
		Author:              "Sara Rahimi",
		Header:              "Exercise HW1 was added.",
		Text:                "Read <chapter 3> & solve",
		Footer:              "- Attachment added",
		SentAt:              "yesterday",
		IsExercise:          true,
		ExerciseName:        "HW1",
		ExerciseStart:       "monday",
		ExerciseDeadline:    "پایان یافته",
		IsExerciseFinished:  true,
		HasAttachment:       true,
		AttachmentName:      "hw1.pdf",
		AttachmentLink:      "/files/hw1.pdf",
		IsOnlineSession:     true,
		OnlineSessionName:   "Week 1",
		OnlineSessionLink:   "/meeting/1",
		OnlineSessionStatus: "در حال برگزاری",
		OnlineSessionStart:  "10:00",
		OnlineSessionEnd:    "11:00",
	}
	doc := Render(rec, db.Course{Name: "Physics"}, "https://lms.example.com/")

	sections := []string{
		"📚  Physics",
		"👤  Sara Rahimi",
		"▫️<b>Exercise HW1 was added.</b>",
		"✍🏻  Read &lt;chapter 3&gt; &amp; solve",
		"Minor changes:\n- Attachment added",
		"Exercise: HW1\nStart: monday\nDeadline: پایان یافته (finished)",
		`File: <a href="https://lms.example.com/files/hw1.pdf">hw1.pdf</a>`,
		`🌐 Session: <a href="https://lms.example.com/meeting/1">Week 1</a>`,
		"🟢 Status: در حال برگزاری",
		"🚀 Start: 10:00\n🏁 End: 11:00",
		"🕑  yesterday",
	}
	last := -1
	for _, section := range sections {
		idx := strings.Index(doc, section)
		require.Greater(t, idx, last, "section %q out of order or missing", section)
		last = idx
	}
	require.True(t, strings.HasSuffix(doc, zeroWidthNonJoiner+"\n"))
}

func TestSessionIcon(t *testing.T) {
	require.Equal(t, "🟢", sessionIcon("در حال برگزاری"))
	require.Equal(t, "🔴", sessionIcon("ضبط شده"))
	require.Equal(t, "⏳", sessionIcon("شروع نشده"))
}
