package lms

import (
	"strings"

	"lmswatch-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// CourseInfo is a single entry of the roster listed on the home page.
type CourseInfo struct {
	SuffixURL string
	Name      string
}

// ParseRoster lists the courses found on the home page, entries without a
// link are skipped. The bool is false when the page has no roster at all
// (for example a login page), which must not be mistaken for zero courses.
func ParseRoster(page string) ([]CourseInfo, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, false
	}

	roster := doc.Find("#profile_groups")
	if roster.Length() == 0 {
		return nil, false
	}

	var courses []CourseInfo
	roster.Find("li").Each(func(_ int, li *goquery.Selection) {
		href := strings.TrimSpace(li.Find("a").First().AttrOr("href", ""))
		if href == "" {
			return
		}
		courses = append(courses, CourseInfo{
			SuffixURL: href,
			Name:      rosterName(li.Find("div").Eq(1)),
		})
	})
	return courses, true
}

// the name div renders as "<icon>\t<name>", only the name is kept.
func rosterName(div *goquery.Selection) string {
	if div.Length() == 0 {
		return ""
	}
	text := htmlutil.GetText(div.Nodes[0])
	parts := strings.Split(text, "\t")
	if len(parts) < 2 {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(parts[1])
}
