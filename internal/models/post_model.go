package models

// ScheduledPost is a row in an account's scheduled_post table.
type ScheduledPost struct {
	PostID        string `db:"post_id"`
	FileLocation  string `db:"file_location"`
	Caption       string `db:"caption"`
	PostMusic     string `db:"post_music"`
	PostType      string `db:"post_type"`
	PostLocation  string `db:"post_location"`
	ScheduledDate string `db:"scheduled_date"`
	Date          string `db:"date"`
	IsPublished   int    `db:"is_published"`
}

type DuplicateDecision string

const (
	DecisionReplace  DuplicateDecision = "replace"
	DecisionSkip     DuplicateDecision = "skip"
	DecisionKeepBoth DuplicateDecision = "keep-both"
	DecisionSkipAll  DuplicateDecision = "skip-all"
	// DecisionInsert is the implicit decision when no duplicate exists.
	DecisionInsert DuplicateDecision = "insert"
)

// Conflict carries the context shown to the operator when a candidate's
// caption collides with an existing stored post.
type Conflict struct {
	Account          string
	ExistingPostID   string
	ExistingSchedule string
	ExistingFile     string
	Caption          string
}

// BatchConfirmation is queued for push-back to the record source after a
// local commit. ScheduledDate is the normalized ISO-8601 timestamp.
type BatchConfirmation struct {
	RemoteID      string
	PostID        string
	ScheduledDate string
}
