package models

type RecordStage string

const (
	StagePending   RecordStage = "pending"
	StageFetched   RecordStage = "asset-fetched"
	StageResolved  RecordStage = "resolved"
	StageStored    RecordStage = "stored"
	StageConfirmed RecordStage = "confirmed"
	StageFailed    RecordStage = "failed"
	StageSkipped   RecordStage = "skipped"
)

// RecordResult tracks one candidate through the pipeline state machine.
type RecordResult struct {
	Candidate *CandidateRecord
	Asset     *ResolvedAsset
	// Ordinal is the record's 1-based position in the original batch. It
	// stays fixed across retry passes so derived filenames do not drift.
	Ordinal int
	Stage   RecordStage
	PostID  string
	Reason  string
	// FailedAt records the stage a failed record was attempting, so the
	// retry pass can select fetch-stage failures only.
	FailedAt RecordStage
	// Permanent marks malformed-record failures that a retry cannot fix.
	Permanent bool
	Retried   bool
}

// Failed reports whether the record ended in the terminal failed state.
// Skipped records are not failures.
func (r *RecordResult) Failed() bool {
	return r.Stage == StageFailed
}

// RunReport aggregates one account's pipeline run.
type RunReport struct {
	Account       string
	Records       []*RecordResult
	FailedBatches int
}

func (r *RunReport) Succeeded() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Stage == StageConfirmed || rec.Stage == StageStored {
			n++
		}
	}
	return n
}

func (r *RunReport) Skipped() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Stage == StageSkipped {
			n++
		}
	}
	return n
}

func (r *RunReport) Failed() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Failed() {
			n++
		}
	}
	return n
}
