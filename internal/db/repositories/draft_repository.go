package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"autobazar/listing-editor/internal/editor"
	gormModels "autobazar/listing-editor/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DraftRepository stores autosaved editors using GORM
type DraftRepository struct {
	db *gorm.DB
}

var _ editor.DraftStore = (*DraftRepository)(nil)

func NewDraftRepository(db *gorm.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

// Save inserts or replaces the draft for its editor id
func (r *DraftRepository) Save(ctx context.Context, d editor.Draft) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	row := gormModels.EditorDraft{
		EditorID:  d.EditorID,
		Mode:      string(d.Mode),
		ListingID: d.ListingID,
		Payload:   payload,
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "editor_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"mode", "listing_id", "payload", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Load returns the draft or editor.ErrEditorNotFound
func (r *DraftRepository) Load(ctx context.Context, editorID string) (*editor.Draft, error) {
	var row gormModels.EditorDraft

	err := r.db.WithContext(ctx).
		Where("editor_id = ?", editorID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, editor.ErrEditorNotFound
		}
		return nil, fmt.Errorf("failed to fetch draft: %w", err)
	}

	var d editor.Draft
	if err := json.Unmarshal(row.Payload, &d); err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", editorID, err)
	}
	d.UpdatedAt = row.UpdatedAt
	return &d, nil
}

func (r *DraftRepository) Delete(ctx context.Context, editorID string) error {
	err := r.db.WithContext(ctx).
		Where("editor_id = ?", editorID).
		Delete(&gormModels.EditorDraft{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// DraftSummary is a saved draft without its payload.
type DraftSummary struct {
	EditorID  string `json:"editorId"`
	Mode      string `json:"mode"`
	ListingID int64  `json:"listingId,omitempty"`
	UpdatedAt string `json:"updatedAt"`
}

// List returns the saved drafts, most recently updated first
func (r *DraftRepository) List(ctx context.Context) ([]DraftSummary, error) {
	var rows []gormModels.EditorDraft

	err := r.db.WithContext(ctx).
		Select("editor_id", "mode", "listing_id", "updated_at").
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	out := make([]DraftSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, DraftSummary{
			EditorID:  row.EditorID,
			Mode:      row.Mode,
			ListingID: row.ListingID,
			UpdatedAt: row.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return out, nil
}

// DeleteOlderThan removes drafts not updated since cutoff
func (r *DraftRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&gormModels.EditorDraft{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete stale drafts: %w", res.Error)
	}
	return res.RowsAffected, nil
}
