package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"aadinath/api/models"
)

const submissionColumns = "id, session_id, scan_event_id, name, email, phone, city, state, country, " +
	"use_case, quantity_needed, batch_id, source, submitted_at, time_from_scan_to_submit"

// SubmissionPGStore keeps lead submissions in PostgreSQL.
type SubmissionPGStore struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

func NewSubmissionStore(db *sql.DB, log *zap.SugaredLogger) *SubmissionPGStore {
	return &SubmissionPGStore{db: db, log: log}
}

// InsertSubmission writes sub and fills its ID and, when unset, its timestamp.
func (s *SubmissionPGStore) InsertSubmission(ctx context.Context, sub *models.CustomerSubmission) error {
	query := `
		INSERT INTO customer_submissions (
			session_id, scan_event_id, name, email, phone, city, state, country,
			use_case, quantity_needed, batch_id, source, submitted_at, time_from_scan_to_submit
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, COALESCE($13::timestamptz, now()), $14)
		RETURNING id, submitted_at;
	`
	var submittedAt any
	if !sub.Timestamp.IsZero() {
		submittedAt = sub.Timestamp
	}

	err := s.db.QueryRowContext(ctx, query,
		nullString(sub.SessionID), nullString(sub.ScanEventID), sub.Name, sub.Email, sub.Phone,
		sub.City, sub.State, sub.Country, sub.UseCase, sub.QuantityNeeded, sub.BatchID, sub.Source,
		submittedAt, nullInt64(sub.TimeFromScanToSubmit),
	).Scan(&sub.ID, &sub.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}

	s.log.Infof("Submission saved: ID=%d, session=%q", sub.ID, sub.SessionID)
	return nil
}

func (s *SubmissionPGStore) ListSubmissions(ctx context.Context, f Filter) ([]models.CustomerSubmission, error) {
	where, args := submissionWhere(f)

	dir := "ASC"
	if f.descending() {
		dir = "DESC"
	}
	query := fmt.Sprintf("SELECT %s FROM customer_submissions%s ORDER BY submitted_at %s, id %s",
		submissionColumns, where, dir, dir)
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var results []models.CustomerSubmission
	for rows.Next() {
		var (
			sub                  models.CustomerSubmission
			sessionID, scanEvent sql.NullString
			lag                  sql.NullInt64
		)
		if err := rows.Scan(
			&sub.ID, &sessionID, &scanEvent, &sub.Name, &sub.Email, &sub.Phone,
			&sub.City, &sub.State, &sub.Country, &sub.UseCase, &sub.QuantityNeeded,
			&sub.BatchID, &sub.Source, &sub.Timestamp, &lag,
		); err != nil {
			return nil, fmt.Errorf("failed to scan submission row: %w", err)
		}
		sub.SessionID = sessionID.String
		sub.ScanEventID = scanEvent.String
		if lag.Valid {
			v := lag.Int64
			sub.TimeFromScanToSubmit = &v
		}
		results = append(results, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submission rows: %w", err)
	}
	return results, nil
}

func (s *SubmissionPGStore) CountSubmissions(ctx context.Context, f Filter) (int, error) {
	where, args := submissionWhere(f)
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM customer_submissions"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return n, nil
}

func submissionWhere(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Start != nil {
		add("submitted_at >= $%d", *f.Start)
	}
	if f.End != nil {
		add("submitted_at <= $%d", *f.End)
	}
	if f.SessionID != "" {
		add("session_id = $%d", f.SessionID)
	}
	if f.City != "" {
		add("lower(city) = lower($%d)", f.City)
	}
	if f.UseCase != "" {
		add("lower(use_case) = lower($%d)", f.UseCase)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
