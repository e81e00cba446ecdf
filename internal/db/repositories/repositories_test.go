package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"autobazar/listing-editor/internal/cascade"
	"autobazar/listing-editor/internal/config"
	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/db"
	"autobazar/listing-editor/internal/editor"
	"autobazar/listing-editor/internal/models/dtos"
	"autobazar/listing-editor/internal/models/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryDSN(t *testing.T) config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}
}

func TestDraftRepository_SaveLoadDelete(t *testing.T) {
	orm, err := db.OpenORM(memoryDSN(t))
	require.NoError(t, err)
	repo := NewDraftRepository(orm)
	ctx := context.Background()

	d := editor.Draft{
		EditorID: "d1",
		Mode:     constants.EditorModeCreate,
		Profile:  constants.ProfilePrivate,
		Values:   map[cascade.Field]int64{cascade.FieldBrand: 7, cascade.FieldModel: 42},
		Dirty:    map[cascade.Field]bool{cascade.FieldBrand: true},
		Details:  editor.Details{Price: 15000, PhoneNumbers: []string{"+77011234567"}},
		NewMedia: []dtos.MediaFile{{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte{1, 2, 3}}},
	}
	require.NoError(t, repo.Save(ctx, d))

	got, err := repo.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Values[cascade.FieldModel])
	assert.True(t, got.Dirty[cascade.FieldBrand])
	assert.Equal(t, []byte{1, 2, 3}, got.NewMedia[0].Data)
	assert.False(t, got.UpdatedAt.IsZero())

	d.Mode = constants.EditorModeEdit
	d.ListingID = 900
	require.NoError(t, repo.Save(ctx, d), "saving again replaces the row")

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(900), list[0].ListingID)
	assert.Equal(t, "edit", list[0].Mode)

	require.NoError(t, repo.Delete(ctx, "d1"))
	_, err = repo.Load(ctx, "d1")
	assert.ErrorIs(t, err, editor.ErrEditorNotFound)
}

func TestSubmissionLogRepo_RecordAndQuery(t *testing.T) {
	sqlDB, err := db.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	defer sqlDB.Close()
	repo := NewSubmissionLogRepo(sqlDB)
	ctx := context.Background()

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Record(ctx, entities.SubmissionLog{
		EditorID: "d1", Mode: "create", Outcome: "failed", FailedStage: "persist", Detail: "Price is out of range", CreatedAt: base,
	}))
	require.NoError(t, repo.Record(ctx, entities.SubmissionLog{
		EditorID: "d1", ListingID: 900, Mode: "create", Outcome: "partial", FailedStage: "upload", MediaFailures: 1, CreatedAt: base.Add(time.Minute),
	}))
	require.NoError(t, repo.Record(ctx, entities.SubmissionLog{
		EditorID: "d2", ListingID: 555, Mode: "edit", Outcome: "success", CreatedAt: base.Add(2 * time.Minute),
	}))

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "d2", recent[0].EditorID)
	assert.Equal(t, "partial", recent[1].Outcome)

	mine, err := repo.ByEditor(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, int64(900), mine[0].ListingID)
	assert.Equal(t, "Price is out of range", mine[1].Detail)
}
