package models

// CandidateRecord is one row fetched from the remote record source.
// Immutable once fetched.
type CandidateRecord struct {
	RemoteID     string `json:"id"`
	AssetURL     string `json:"media_file_path"`
	ScheduleDate string `json:"schedule_date"`
	ScheduleTime string `json:"schedule_time"`
	Caption      string `json:"caption"`
	Song         string `json:"song"`
	PostType     string `json:"post_type"`
	PostLocation string `json:"post_location"`
	Username     string `json:"username"`
}

// ScheduledDateTime joins the schedule date and time columns the way the
// record source stores them, ready for format-ordered parsing.
func (c *CandidateRecord) ScheduledDateTime() string {
	if c.ScheduleTime == "" {
		return c.ScheduleDate
	}
	return c.ScheduleDate + " " + c.ScheduleTime
}

type AssetState string

const (
	AssetStateAbsent      AssetState = "absent"
	AssetStateDownloading AssetState = "downloading"
	AssetStatePresent     AssetState = "present"
	AssetStateFailed      AssetState = "failed"
)

// ResolvedAsset is the materialization of one candidate's media file.
type ResolvedAsset struct {
	AssetID      string
	RelativePath string
	LocalPath    string
	State        AssetState
	FailReason   string
}
