// Package changes decides whether a freshly extracted record differs from the
// last stored observation of the same item and describes what changed.
package changes

import (
	"fmt"
	"strings"

	"lmswatch-backend/internal/db"
)

// Result describes the outcome of a single classification. It is never persisted,
// callers copy Header and Footer onto the record they store with Apply.
type Result struct {
	HasChanged bool
	// IsMajor is set when some change owns the headline (or the item is new).
	IsMajor    bool
	Header     string
	MinorNotes []string
}

// Footer renders the minor notes as a dash bulleted list.
func (r Result) Footer() string {
	if len(r.MinorNotes) == 0 {
		return ""
	}
	return "- " + strings.Join(r.MinorNotes, "\n- ")
}

// Apply copies the derived header and footer onto rec.
func (r Result) Apply(rec *db.Record) {
	rec.Header = r.Header
	rec.Footer = r.Footer()
}

// diff holds one flag per monitored field, true when the field differs.
type diff struct {
	exercise         bool
	exerciseFinished bool
	exerciseDeadline bool
	hasAttachment    bool
	attachmentLink   bool
	attachmentName   bool
	exerciseName     bool
	exerciseStart    bool
	onlineSession    bool
	sessionName      bool
	sessionLink      bool
	sessionStatus    bool
	sessionStart     bool
	sessionEnd       bool
}

func compare(candidate, previous db.Record) diff {
	return diff{
		exercise:         candidate.IsExercise != previous.IsExercise,
		exerciseFinished: candidate.IsExerciseFinished != previous.IsExerciseFinished,
		exerciseDeadline: candidate.ExerciseDeadline != previous.ExerciseDeadline,
		hasAttachment:    candidate.HasAttachment != previous.HasAttachment,
		attachmentLink:   candidate.AttachmentLink != previous.AttachmentLink,
		attachmentName:   candidate.AttachmentName != previous.AttachmentName,
		exerciseName:     candidate.ExerciseName != previous.ExerciseName,
		exerciseStart:    candidate.ExerciseStart != previous.ExerciseStart,
		onlineSession:    candidate.IsOnlineSession != previous.IsOnlineSession,
		sessionName:      candidate.OnlineSessionName != previous.OnlineSessionName,
		sessionLink:      candidate.OnlineSessionLink != previous.OnlineSessionLink,
		sessionStatus:    candidate.OnlineSessionStatus != previous.OnlineSessionStatus,
		sessionStart:     candidate.OnlineSessionStart != previous.OnlineSessionStart,
		sessionEnd:       candidate.OnlineSessionEnd != previous.OnlineSessionEnd,
	}
}

func (d diff) any() bool {
	return d.exercise ||
		d.exerciseFinished ||
		d.exerciseDeadline ||
		d.hasAttachment ||
		d.attachmentLink ||
		d.attachmentName ||
		d.exerciseName ||
		d.exerciseStart ||
		d.onlineSession ||
		d.sessionName ||
		d.sessionLink ||
		d.sessionStatus ||
		d.sessionStart ||
		d.sessionEnd
}

// builder accumulates a result, the header slot can only be claimed once.
type builder struct {
	major  bool
	header string
	notes  []string
}

// claim takes the header if nothing has claimed it yet, otherwise the change
// is demoted to a minor note.
func (b *builder) claim(header, note string) {
	if b.major {
		b.notes = append(b.notes, note)
		return
	}
	b.header = header
	b.major = true
}

type pass struct {
	diff      diff
	candidate db.Record
	previous  db.Record
}

type rule struct {
	applies func(p pass) bool
	apply   func(b *builder, p pass)
}

// rules are evaluated in order, earlier rules have priority over the header.
var rules = []rule{
	{
		applies: func(p pass) bool { return p.diff.exerciseFinished },
		apply: func(b *builder, p pass) {
			b.header = exerciseFinishedHeader(p.candidate)
			b.major = true
		},
	},
	{
		applies: func(p pass) bool { return p.diff.exerciseDeadline && !p.diff.exerciseFinished },
		apply: func(b *builder, p pass) {
			b.claim(exerciseDeadlineHeader(p.candidate), "Submission deadline changed")
		},
	},
	{
		applies: func(p pass) bool {
			return p.diff.hasAttachment || p.diff.attachmentLink || p.diff.attachmentName
		},
		apply: attachmentRule,
	},
	{
		applies: func(p pass) bool { return p.diff.exerciseName },
		apply: func(b *builder, p pass) {
			header := "The exercise name was removed."
			if p.candidate.ExerciseName != "" {
				header = fmt.Sprintf("The exercise was renamed to %s.", p.candidate.ExerciseName)
			}
			b.claim(header, "Exercise renamed")
		},
	},
	{
		applies: func(p pass) bool { return p.diff.exerciseStart },
		apply: func(b *builder, p pass) {
			b.claim(
				fmt.Sprintf("The exercise start time changed to %s.", p.candidate.ExerciseStart),
				"Exercise start time changed",
			)
		},
	},
	{
		applies: func(p pass) bool { return p.diff.onlineSession },
		apply: func(b *builder, p pass) {
			b.claim("A new online session was created.", "Online session created")
		},
	},
	{
		applies: func(p pass) bool { return p.diff.sessionName },
		apply: func(b *builder, p pass) {
			b.claim(
				fmt.Sprintf("The online session was renamed to %s.", p.candidate.OnlineSessionName),
				"Online session renamed",
			)
		},
	},
	{
		applies: func(p pass) bool { return p.diff.sessionLink },
		apply: func(b *builder, p pass) {
			b.claim("The online session link changed.", "Online session link changed")
		},
	},
	{
		applies: func(p pass) bool { return p.diff.sessionStatus },
		apply: func(b *builder, p pass) {
			b.claim(
				fmt.Sprintf("The online session status changed to %s.", p.candidate.OnlineSessionStatus),
				"Online session status changed",
			)
		},
	},
	{
		applies: func(p pass) bool { return p.diff.sessionStart },
		apply: func(b *builder, p pass) {
			b.claim(
				fmt.Sprintf("The online session start time changed to %s.", p.candidate.OnlineSessionStart),
				"Online session start time changed",
			)
		},
	},
	{
		applies: func(p pass) bool { return p.diff.sessionEnd },
		apply: func(b *builder, p pass) {
			b.claim(
				fmt.Sprintf("The online session end time changed to %s.", p.candidate.OnlineSessionEnd),
				"Online session end time changed",
			)
		},
	},
}

// Classify compares candidate with the latest stored record of the same item
// (nil when there is none). Neither record is modified.
func Classify(candidate db.Record, previous *db.Record) Result {
	if previous == nil {
		return Result{HasChanged: true, IsMajor: true}
	}

	p := pass{
		diff:      compare(candidate, *previous),
		candidate: candidate,
		previous:  *previous,
	}
	if !p.diff.any() {
		return Result{}
	}

	// an exercise appearing or disappearing overrides everything else
	if p.diff.exercise {
		return Result{
			HasChanged: true,
			IsMajor:    true,
			Header:     exerciseToggledHeader(candidate, *previous),
		}
	}

	b := &builder{}
	for _, r := range rules {
		if r.applies(p) {
			r.apply(b, p)
		}
	}

	return Result{
		HasChanged: true,
		IsMajor:    b.major,
		Header:     b.header,
		MinorNotes: b.notes,
	}
}

func attachmentRule(b *builder, p pass) {
	c := p.candidate
	switch {
	case p.diff.hasAttachment:
		source := c
		verb := "added"
		note := "Attachment added"
		if !c.HasAttachment {
			source = p.previous
			verb = "removed"
			note = "Attachment removed"
		}
		b.claim(withName("Attachment", source.AttachmentName, verb), note)
	case p.diff.attachmentLink && p.diff.attachmentName:
		header := "A new attachment was uploaded."
		if c.AttachmentName != "" {
			header = fmt.Sprintf("A new attachment named %s was uploaded.", c.AttachmentName)
		}
		b.claim(header, "New attachment uploaded")
	case p.diff.attachmentLink:
		b.claim("The attachment link changed.", "Attachment link changed")
	case p.diff.attachmentName:
		b.claim("The attachment name changed.", "Attachment name changed")
	}
}

func exerciseToggledHeader(candidate, previous db.Record) string {
	if candidate.IsExercise {
		return withName("Exercise", candidate.ExerciseName, "added")
	}
	return withName("Exercise", previous.ExerciseName, "removed")
}

func exerciseFinishedHeader(candidate db.Record) string {
	if candidate.IsExerciseFinished {
		return withName("The submission deadline of exercise", candidate.ExerciseName, "reached")
	}
	return withName("The submission status of exercise", candidate.ExerciseName, "changed")
}

func exerciseDeadlineHeader(candidate db.Record) string {
	header := withName("The submission deadline of exercise", candidate.ExerciseName, "changed")
	if candidate.IsExerciseFinished {
		header += " The deadline is still over."
	}
	return header
}

// withName renders "<subject> <name> was <verb>." leaving the name out when empty.
func withName(subject, name, verb string) string {
	if name == "" {
		return fmt.Sprintf("%s was %s.", subject, verb)
	}
	return fmt.Sprintf("%s %s was %s.", subject, name, verb)
}
