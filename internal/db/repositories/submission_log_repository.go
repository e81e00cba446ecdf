package repositories

import (
	"context"
	"fmt"

	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/models/entities"

	"github.com/jmoiron/sqlx"
)

type SubmissionLogRepo struct {
	db *sqlx.DB
}

func NewSubmissionLogRepo(db *sqlx.DB) *SubmissionLogRepo {
	return &SubmissionLogRepo{db}
}

func (r *SubmissionLogRepo) Record(ctx context.Context, entry entities.SubmissionLog) error {
	if _, err := r.db.NamedExecContext(ctx, constants.InsertSubmissionLog, entry); err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

func (r *SubmissionLogRepo) Recent(ctx context.Context, limit int) ([]entities.SubmissionLog, error) {
	if limit <= 0 {
		limit = 50
	}
	logs := []entities.SubmissionLog{}
	if err := r.db.SelectContext(ctx, &logs, r.db.Rebind(constants.RecentSubmissionLogs), limit); err != nil {
		return nil, fmt.Errorf("failed to read submission log: %w", err)
	}
	return logs, nil
}

func (r *SubmissionLogRepo) ByEditor(ctx context.Context, editorID string) ([]entities.SubmissionLog, error) {
	logs := []entities.SubmissionLog{}
	if err := r.db.SelectContext(ctx, &logs, r.db.Rebind(constants.SubmissionLogsByEditor), editorID); err != nil {
		return nil, fmt.Errorf("failed to read submission log: %w", err)
	}
	return logs, nil
}
