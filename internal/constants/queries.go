package constants

// Submission audit log
const (
	CreateSubmissionLogsSQLite = `
CREATE TABLE IF NOT EXISTS submission_logs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	editor_id      TEXT    NOT NULL,
	listing_id     INTEGER NOT NULL DEFAULT 0,
	mode           TEXT    NOT NULL,
	outcome        TEXT    NOT NULL,
	failed_stage   TEXT    NOT NULL DEFAULT '',
	media_failures INTEGER NOT NULL DEFAULT 0,
	detail         TEXT    NOT NULL DEFAULT '',
	created_at     TIMESTAMP NOT NULL
)`

	CreateSubmissionLogsPostgres = `
CREATE TABLE IF NOT EXISTS submission_logs (
	id             BIGSERIAL PRIMARY KEY,
	editor_id      TEXT        NOT NULL,
	listing_id     BIGINT      NOT NULL DEFAULT 0,
	mode           VARCHAR(10) NOT NULL,
	outcome        VARCHAR(10) NOT NULL,
	failed_stage   VARCHAR(20) NOT NULL DEFAULT '',
	media_failures INTEGER     NOT NULL DEFAULT 0,
	detail         TEXT        NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL
)`

	InsertSubmissionLog = `
INSERT INTO submission_logs (editor_id, listing_id, mode, outcome, failed_stage, media_failures, detail, created_at)
VALUES (:editor_id, :listing_id, :mode, :outcome, :failed_stage, :media_failures, :detail, :created_at)`

	RecentSubmissionLogs = `
SELECT id, editor_id, listing_id, mode, outcome, failed_stage, media_failures, detail, created_at
FROM submission_logs
ORDER BY created_at DESC, id DESC
LIMIT ?`

	SubmissionLogsByEditor = `
SELECT id, editor_id, listing_id, mode, outcome, failed_stage, media_failures, detail, created_at
FROM submission_logs
WHERE editor_id = ?
ORDER BY created_at DESC, id DESC`
)
