package gorm

import "time"

// EditorDraft is an autosaved editor. Payload holds the JSON-encoded draft.
type EditorDraft struct {
	EditorID  string    `gorm:"column:editor_id;primaryKey;type:varchar(64)"`
	Mode      string    `gorm:"column:mode;type:varchar(10);not null"`
	ListingID int64     `gorm:"column:listing_id;index"`
	Payload   []byte    `gorm:"column:payload;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (EditorDraft) TableName() string {
	return "editor_drafts"
}
