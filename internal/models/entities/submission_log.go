package entities

import "time"

type SubmissionLog struct {
	ID            int64     `db:"id"`
	EditorID      string    `db:"editor_id"`
	ListingID     int64     `db:"listing_id"`     // 0 when persistence failed on create
	Mode          string    `db:"mode"`           // create | edit
	Outcome       string    `db:"outcome"`        // success | partial | failed
	FailedStage   string    `db:"failed_stage"`   // empty on success
	MediaFailures int       `db:"media_failures"` // per-item failures in upload/delete
	Detail        string    `db:"detail"`
	CreatedAt     time.Time `db:"created_at"`
}
