package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"overdub/internal/config"
)

// Store manages job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// SubmitRequest carries the caller-supplied parameters for a new job.
type SubmitRequest struct {
	SourceLocale  string
	TargetLocale  string
	MediaURL      string
	MediaPath     string
	VoiceMode     string
	SpeakerCount  int
	SubtitleChars int
	SubtitleLines int
}

// Open initializes or connects to the job database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "jobs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location for diagnostics.
func (s *Store) Path() string {
	return s.path
}

// NewJob inserts a freshly submitted job.
func (s *Store) NewJob(ctx context.Context, req SubmitRequest) (*Job, error) {
	if strings.TrimSpace(req.SourceLocale) == "" || strings.TrimSpace(req.TargetLocale) == "" {
		return nil, errors.New("source and target locales are required")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	jobKey := uuid.NewString()

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
            job_key, status, status_message, source_locale, target_locale,
            media_url, media_path, voice_mode, speaker_count,
            subtitle_chars, subtitle_lines, iteration_number,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		jobKey,
		StatusSubmitted,
		"Submitted",
		strings.TrimSpace(req.SourceLocale),
		strings.TrimSpace(req.TargetLocale),
		nullableString(req.MediaURL),
		nullableString(req.MediaPath),
		nullableString(req.VoiceMode),
		req.SpeakerCount,
		req.SubtitleChars,
		req.SubtitleLines,
		1,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a job by numeric identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// GetByKey fetches a job by its external key.
func (s *Store) GetByKey(ctx context.Context, key string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE job_key = ?`, strings.TrimSpace(key))
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job by key: %w", err)
	}
	return job, nil
}

// Update persists changes to an existing job. Forward-only status movement is
// enforced against the previously persisted status.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	current, err := s.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("job %d not found", job.ID)
	}
	if current.Status.IsTerminal() {
		return fmt.Errorf("job %d is %s and immutable", job.ID, current.Status)
	}
	if current.Status != job.Status && !CanTransition(current.Status, job.Status) {
		return fmt.Errorf("illegal status transition %s -> %s for job %d", current.Status, job.Status, job.ID)
	}

	job.UpdatedAt = time.Now().UTC()
	_, err = s.db.ExecContext(
		ctx,
		`UPDATE jobs SET
            status = ?, status_message = ?, source_locale = ?, target_locale = ?,
            media_url = ?, media_path = ?, resolved_media = ?, voice_mode = ?,
            speaker_count = ?, subtitle_chars = ?, subtitle_lines = ?,
            translation_id = ?, iteration_id = ?, iteration_number = ?,
            output_video_url = ?, source_subtitle_url = ?, target_subtitle_url = ?,
            stored_video_path = ?, stored_source_path = ?, stored_target_path = ?,
            review_json = ?, decision_json = ?, error_message = ?,
            degraded_steps = ?, needs_review = ?, review_reason = ?,
            updated_at = ?, last_heartbeat = ?, approval_deadline = ?
        WHERE id = ?`,
		job.Status,
		nullableString(job.StatusMessage),
		job.SourceLocale,
		job.TargetLocale,
		nullableString(job.MediaURL),
		nullableString(job.MediaPath),
		nullableString(job.ResolvedMedia),
		nullableString(job.VoiceMode),
		job.SpeakerCount,
		job.SubtitleChars,
		job.SubtitleLines,
		nullableString(job.TranslationID),
		nullableString(job.IterationID),
		job.IterationNumber,
		nullableString(job.OutputVideoURL),
		nullableString(job.SourceSubtitleURL),
		nullableString(job.TargetSubtitleURL),
		nullableString(job.StoredVideoPath),
		nullableString(job.StoredSourcePath),
		nullableString(job.StoredTargetPath),
		nullableString(job.ReviewJSON),
		nullableString(job.DecisionJSON),
		nullableString(job.ErrorMessage),
		job.DegradedSteps,
		boolToInt(job.NeedsReview),
		nullableString(job.ReviewReason),
		job.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(job.LastHeartbeat),
		nullableTime(job.ApprovalDeadline),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// List returns jobs filtered by status set (or all jobs when no status is
// provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	baseQuery := `SELECT ` + jobColumns + ` FROM jobs`
	orderClause := ` ORDER BY created_at`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var list []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, job)
	}
	return list, rows.Err()
}

// NextForStatuses returns the oldest job matching any of the provided
// statuses, skipping the listed identifiers.
func (s *Store) NextForStatuses(ctx context.Context, exclude []int64, statuses ...Status) (*Job, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, 0, len(statuses)+len(exclude))
	for _, status := range statuses {
		args = append(args, status)
	}
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status IN (` + placeholders + `)`
	if len(exclude) > 0 {
		query += ` AND id NOT IN (` + makePlaceholders(len(exclude)) + `)`
		for _, id := range exclude {
			args = append(args, id)
		}
	}
	query += ` ORDER BY created_at LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, args...)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ResetStuckProcessing rolls in-flight jobs back to their stage start status
// so the owning stage re-runs after a restart. Jobs already holding an
// approval deadline keep it so the approval window is not extended by
// restarts.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	var total int64
	for processing, start := range stageRollbacks {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE jobs
             SET status = ?, status_message = 'Resumed after restart',
                 last_heartbeat = NULL, updated_at = ?
             WHERE status = ?`,
			start,
			time.Now().UTC().Format(time.RFC3339Nano),
			processing,
		)
		if err != nil {
			return total, fmt.Errorf("reset stuck jobs from %s: %w", processing, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += affected
	}
	return total, nil
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight job.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now,
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// RetryFailed moves failed jobs back to submitted for reprocessing. With no
// ids, every failed job retries.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE jobs
            SET status = ?, status_message = 'Retry requested', error_message = NULL,
                degraded_steps = 0, needs_review = 0, review_reason = NULL, updated_at = ?
            WHERE status = ?`,
			StatusSubmitted,
			timestamp,
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed jobs: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, StatusSubmitted, timestamp)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE jobs
        SET status = ?, status_message = 'Retry requested', error_message = NULL,
            degraded_steps = 0, needs_review = 0, review_reason = NULL, updated_at = ?
        WHERE id IN (` + placeholders + `) AND status = '` + string(StatusFailed) + `'`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected jobs: %w", err)
	}
	return res.RowsAffected()
}

// Remove deletes a job by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates job state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusSubmitted:
			health.Submitted += count
		case StatusPendingApproval:
			health.Pending += count
		case StatusFailed:
			health.Failed += count
		case StatusApproved:
			health.Approved += count
		case StatusRejected:
			health.Rejected += count
		default:
			if IsProcessingStatus(status) {
				health.Processing += count
			}
		}
	}
	return health, nil
}

const jobColumns = `id, job_key, status, status_message, source_locale, target_locale,
    media_url, media_path, resolved_media, voice_mode, speaker_count,
    subtitle_chars, subtitle_lines, translation_id, iteration_id, iteration_number,
    output_video_url, source_subtitle_url, target_subtitle_url,
    stored_video_path, stored_source_path, stored_target_path,
    review_json, decision_json, error_message, degraded_steps, needs_review, review_reason,
    created_at, updated_at, last_heartbeat, approval_deadline`

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id              int64
		jobKey          string
		statusStr       string
		statusMessage   sql.NullString
		sourceLocale    string
		targetLocale    string
		mediaURL        sql.NullString
		mediaPath       sql.NullString
		resolvedMedia   sql.NullString
		voiceMode       sql.NullString
		speakerCount    int
		subtitleChars   int
		subtitleLines   int
		translationID   sql.NullString
		iterationID     sql.NullString
		iterationNumber int
		outputVideoURL  sql.NullString
		sourceSubURL    sql.NullString
		targetSubURL    sql.NullString
		storedVideo     sql.NullString
		storedSource    sql.NullString
		storedTarget    sql.NullString
		reviewJSON      sql.NullString
		decisionJSON    sql.NullString
		errorMessage    sql.NullString
		degradedSteps   int
		needsReview     sql.NullInt64
		reviewReason    sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
		heartbeatRaw    sql.NullString
		deadlineRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id, &jobKey, &statusStr, &statusMessage, &sourceLocale, &targetLocale,
		&mediaURL, &mediaPath, &resolvedMedia, &voiceMode, &speakerCount,
		&subtitleChars, &subtitleLines, &translationID, &iterationID, &iterationNumber,
		&outputVideoURL, &sourceSubURL, &targetSubURL,
		&storedVideo, &storedSource, &storedTarget,
		&reviewJSON, &decisionJSON, &errorMessage, &degradedSteps, &needsReview, &reviewReason,
		&createdRaw, &updatedRaw, &heartbeatRaw, &deadlineRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:                id,
		JobKey:            jobKey,
		Status:            Status(statusStr),
		StatusMessage:     statusMessage.String,
		SourceLocale:      sourceLocale,
		TargetLocale:      targetLocale,
		MediaURL:          mediaURL.String,
		MediaPath:         mediaPath.String,
		ResolvedMedia:     resolvedMedia.String,
		VoiceMode:         voiceMode.String,
		SpeakerCount:      speakerCount,
		SubtitleChars:     subtitleChars,
		SubtitleLines:     subtitleLines,
		TranslationID:     translationID.String,
		IterationID:       iterationID.String,
		IterationNumber:   iterationNumber,
		OutputVideoURL:    outputVideoURL.String,
		SourceSubtitleURL: sourceSubURL.String,
		TargetSubtitleURL: targetSubURL.String,
		StoredVideoPath:   storedVideo.String,
		StoredSourcePath:  storedSource.String,
		StoredTargetPath:  storedTarget.String,
		ReviewJSON:        reviewJSON.String,
		DecisionJSON:      decisionJSON.String,
		ErrorMessage:      errorMessage.String,
		DegradedSteps:     degradedSteps,
		ReviewReason:      reviewReason.String,
	}
	if needsReview.Valid {
		job.NeedsReview = needsReview.Int64 != 0
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if heartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(heartbeatRaw.String); err == nil {
			job.LastHeartbeat = &heartbeat
		}
	}
	if deadlineRaw.Valid {
		if deadline, err := parseTimeString(deadlineRaw.String); err == nil {
			job.ApprovalDeadline = &deadline
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
