package jobs

import (
	"context"
	"fmt"
)

const createJobsTable = `
CREATE TABLE IF NOT EXISTS jobs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    job_key TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL,
    status_message TEXT,
    source_locale TEXT NOT NULL,
    target_locale TEXT NOT NULL,
    media_url TEXT,
    media_path TEXT,
    resolved_media TEXT,
    voice_mode TEXT,
    speaker_count INTEGER NOT NULL DEFAULT 0,
    subtitle_chars INTEGER NOT NULL DEFAULT 0,
    subtitle_lines INTEGER NOT NULL DEFAULT 0,
    translation_id TEXT,
    iteration_id TEXT,
    iteration_number INTEGER NOT NULL DEFAULT 0,
    output_video_url TEXT,
    source_subtitle_url TEXT,
    target_subtitle_url TEXT,
    stored_video_path TEXT,
    stored_source_path TEXT,
    stored_target_path TEXT,
    review_json TEXT,
    decision_json TEXT,
    error_message TEXT,
    degraded_steps INTEGER NOT NULL DEFAULT 0,
    needs_review INTEGER NOT NULL DEFAULT 0,
    review_reason TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    last_heartbeat TEXT,
    approval_deadline TEXT
)`

var schemaStatements = []string{
	createJobsTable,
	`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at)`,
}

func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
