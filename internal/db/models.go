package db

type User struct {
	ID              int64
	Username        string
	Password        string
	ChatID          string
	IntervalMinutes int64
	CreatedAt       string
}

type Course struct {
	ID        int64
	UserID    int64
	SuffixURL string
	Name      string
	Active    bool
}

// Record is a single announcement, exercise or online session posted on a course page.
type Record struct {
	ID       int64
	UserID   int64
	CourseID int64
	ItemID   string
	Author   string
	Text     string
	SentAt   string
	Header   string
	Footer   string

	HasAttachment  bool
	AttachmentName string
	AttachmentLink string

	IsExercise         bool
	IsExerciseFinished bool
	ExerciseName       string
	ExerciseStart      string
	ExerciseDeadline   string

	IsOnlineSession     bool
	OnlineSessionName   string
	OnlineSessionLink   string
	OnlineSessionStatus string
	OnlineSessionStart  string
	OnlineSessionEnd    string

	IsSent    bool
	CreatedAt string
}
