package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/ministry-attendance/pkg/db"
)

const upsertAttendanceSQL = `
	INSERT INTO attendance_export (
		schedule_id, member_id, category, shelter_name, team_id, team_number,
		schedule_label, schedule_date, member_name, status, comment, exported_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	ON CONFLICT (schedule_id, member_id, category) DO UPDATE SET
		shelter_name = EXCLUDED.shelter_name,
		team_id = EXCLUDED.team_id,
		team_number = EXCLUDED.team_number,
		schedule_label = EXCLUDED.schedule_label,
		schedule_date = EXCLUDED.schedule_date,
		member_name = EXCLUDED.member_name,
		status = EXCLUDED.status,
		comment = EXCLUDED.comment,
		exported_at = NOW()
`

// WriteAttendanceRows upserts rows keyed by (schedule_id, member_id, category)
func (d *DB) WriteAttendanceRows(ctx context.Context, rows []db.AttendanceRow) (int, error) {
	rows = db.DedupeAttendanceRows(rows)
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range rows {
		var comment *string
		if r.Comment != "" {
			comment = &r.Comment
		}
		batch.Queue(upsertAttendanceSQL,
			r.ScheduleID, r.MemberID, r.Category, r.ShelterName, r.TeamID, r.TeamNumber,
			r.ScheduleLabel, r.ScheduleDate, r.MemberName, r.Status, comment)
	}

	results := tx.SendBatch(ctx, batch)
	for _, r := range rows {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("failed to upsert attendance for %s: %w", r.Key(), err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return len(rows), nil
}

// InsertExportRun records a completed export
func (d *DB) InsertExportRun(ctx context.Context, run *db.ExportRun) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO export_run (id, sink, range_start, range_end, row_count, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, run.ID, run.Sink, run.RangeStart, run.RangeEnd, run.RowCount, run.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to insert export run: %w", err)
	}
	return nil
}

// GetExportRuns returns the most recent export runs first
func (d *DB) GetExportRuns(ctx context.Context, limit int) ([]db.ExportRun, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, sink, range_start, range_end, row_count, completed_at
		FROM export_run
		ORDER BY completed_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query export runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (db.ExportRun, error) {
		var r db.ExportRun
		err := row.Scan(&r.ID, &r.Sink, &r.RangeStart, &r.RangeEnd, &r.RowCount, &r.CompletedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan export runs: %w", err)
	}
	return runs, nil
}
