package lms

import (
	"strings"

	"lmswatch-backend/internal/db"
	"lmswatch-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// markers the portal renders in its (persian) interface.
const (
	sessionStartLabel = "زمان شروع : "
	sessionEndLabel   = "زمان پایان : "
	exerciseEnded     = "پایان"
)

// ParseCourseRecords extracts every item posted on a course page. It never
// fails, a fragment that does not have the expected shape simply leaves the
// corresponding fields empty.
func ParseCourseRecords(page string, course db.Course) []db.Record {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil
	}

	var records []db.Record
	doc.Find(".wall-action-item").Each(func(_ int, item *goquery.Selection) {
		records = append(records, parseItem(item, course))
	})
	return records
}

func parseItem(item *goquery.Selection, course db.Course) db.Record {
	rec := db.Record{
		UserID:   course.UserID,
		CourseID: course.ID,
		ItemID:   item.AttrOr("id", ""),
	}

	author := htmlutil.Text(item.Find(`a[class~="feed_item_username"]`))
	if author != "" {
		rec.Author = canonicalAuthor(author)
	}

	body := item.Find(`span[class="feed_item_bodytext"]`).First()
	if body.Length() > 0 {
		expanded := htmlutil.Text(body.Find(`span[class="view_more"][style^="display"]`))
		if expanded != "" {
			rec.Text = expanded
		} else {
			rec.Text = htmlutil.Text(body)
		}
	}

	rec.SentAt = htmlutil.Text(item.Find(`span[class="timestamp"]`))

	attachments := item.Find(`div[class="feed_item_attachments"]`).First()
	if attachments.Length() > 0 {
		parseAttachments(attachments, &rec)
	}

	return rec
}

// canonicalAuthor turns "Family - Given" into "Given Family".
func canonicalAuthor(author string) string {
	parts := strings.Split(author, " - ")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " ")
}

func parseAttachments(attachments *goquery.Selection, rec *db.Record) {
	table := attachments.Find("table").First()
	if table.Length() > 0 {
		parseOnlineSession(table, rec)
		return
	}

	spans := attachments.ChildrenFiltered("span")
	switch spans.Length() {
	case 0:
		rec.HasAttachment = true
		anchor, ok := htmlutil.FirstAnchor(attachments)
		if ok {
			rec.AttachmentName = anchor.Name
			rec.AttachmentLink = anchor.Href
		}
	case 1:
		title := spans.Find(".feed_item_link_title")
		if title.Length() == 0 {
			return
		}
		link := htmlutil.Text(title)
		if !strings.Contains(rec.Text, link) {
			rec.Text += "\n" + link
		}
	case 4:
		parseExercise(spans, rec)
	}
}

func parseOnlineSession(table *goquery.Selection, rec *db.Record) {
	rec.IsOnlineSession = true

	meeting := table.Find(".adobe_meeting_url").First()
	rec.OnlineSessionName = htmlutil.Text(meeting)
	rec.OnlineSessionLink = meeting.AttrOr("href", "")

	cell := table.Find("tr").Last().Find("td").Eq(2)
	rec.OnlineSessionStatus = htmlutil.Text(cell.Find("span"))

	timing := htmlutil.Text(cell.Find("div"))
	start, end, found := strings.Cut(timing, sessionEndLabel)
	if !found {
		rec.OnlineSessionStart = strings.TrimSpace(strings.ReplaceAll(timing, sessionStartLabel, ""))
		return
	}
	rec.OnlineSessionStart = strings.TrimSpace(strings.ReplaceAll(start, sessionStartLabel, ""))
	rec.OnlineSessionEnd = strings.TrimSpace(end)
}

// afterColon returns the trimmed text following the first colon, and false
// if there is no colon.
func afterColon(text string) (string, bool) {
	_, value, found := strings.Cut(text, ":")
	if !found {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func parseExercise(spans *goquery.Selection, rec *db.Record) {
	rec.IsExercise = true

	if name, ok := afterColon(htmlutil.Text(spans.Eq(0))); ok {
		rec.ExerciseName = name
	}

	anchor, ok := htmlutil.FirstAnchor(spans.Eq(1).Find("a"))
	if ok {
		rec.HasAttachment = true
		rec.AttachmentName = anchor.Name
		rec.AttachmentLink = anchor.Href
	}

	if start, ok := afterColon(htmlutil.Text(spans.Eq(2))); ok {
		rec.ExerciseStart = start
	}

	if deadline, ok := afterColon(htmlutil.Text(spans.Eq(3))); ok {
		rec.ExerciseDeadline = deadline
		rec.IsExerciseFinished = strings.Contains(deadline, exerciseEnded)
	}
}
