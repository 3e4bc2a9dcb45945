package notify

import (
	"fmt"
	"html"
	"strings"

	"lmswatch-backend/internal/db"
)

// the portal's (persian) wording for live and recorded sessions.
const (
	statusInProgress = "در حال"
	statusRecorded   = "ضبط"
)

const zeroWidthNonJoiner = "\u200c"

func sessionIcon(status string) string {
	switch {
	case strings.Contains(status, statusInProgress):
		return "🟢"
	case strings.Contains(status, statusRecorded):
		return "🔴"
	default:
		return "⏳"
	}
}

// Render turns a record into a telegram flavored html document. Links on the
// record are relative to baseURL.
func Render(rec db.Record, course db.Course, baseURL string) string {
	esc := html.EscapeString
	baseURL = strings.TrimSuffix(baseURL, "/")

	var sb strings.Builder
	fmt.Fprintf(&sb, "📚  %s", esc(course.Name))
	fmt.Fprintf(&sb, "\n\n👤  %s", esc(rec.Author))
	if rec.Header != "" {
		fmt.Fprintf(&sb, "\n\n▫️<b>%s</b>", esc(rec.Header))
	}
	if rec.Text != "" {
		fmt.Fprintf(&sb, "\n\n✍🏻  %s", esc(rec.Text))
	}
	if rec.Footer != "" {
		fmt.Fprintf(&sb, "\n\nMinor changes:\n%s", esc(rec.Footer))
	}

	if rec.IsExercise {
		fmt.Fprintf(
			&sb,
			"\n\nExercise: %s\nStart: %s\nDeadline: %s",
			esc(rec.ExerciseName),
			esc(rec.ExerciseStart),
			esc(rec.ExerciseDeadline),
		)
		if rec.IsExerciseFinished {
			sb.WriteString(" (finished)")
		}
	}

	if rec.HasAttachment {
		fmt.Fprintf(
			&sb,
			"\n\nFile: <a href=\"%s\">%s</a>",
			esc(baseURL+rec.AttachmentLink),
			esc(rec.AttachmentName),
		)
	}

	if rec.IsOnlineSession {
		fmt.Fprintf(
			&sb,
			"\n\n🌐 Session: <a href=\"%s\">%s</a>\n%s Status: %s\n🚀 Start: %s\n🏁 End: %s",
			esc(baseURL+rec.OnlineSessionLink),
			esc(rec.OnlineSessionName),
			sessionIcon(rec.OnlineSessionStatus),
			esc(rec.OnlineSessionStatus),
			esc(rec.OnlineSessionStart),
			esc(rec.OnlineSessionEnd),
		)
	}

	if rec.SentAt != "" {
		fmt.Fprintf(&sb, "\n\n🕑  %s", esc(rec.SentAt))
	}
	sb.WriteString(zeroWidthNonJoiner)
	sb.WriteString("\n")

	return sb.String()
}

// Welcome is sent once after the backlog of a new user has been stored.
func Welcome(processed int) string {
	return fmt.Sprintf("%d messages were processed, new announcements will be notified from now on.", processed)
}
