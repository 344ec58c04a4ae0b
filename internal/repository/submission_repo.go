package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/event-regform/internal/dispatch"
	"github.com/garyjia/event-regform/internal/domain/entity"
)

// SubmissionRepository handles dispatch log database operations
type SubmissionRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *sql.DB, logger *zap.Logger) *SubmissionRepository {
	return &SubmissionRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Create inserts a submission and sets its ID and creation time
func (r *SubmissionRepository) Create(ctx context.Context, tx *sql.Tx, s *entity.Submission) error {
	query := `
		INSERT INTO submissions (
			session_id, full_name, project_name, attendance_type,
			provider, file_name, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	if s.CreatedAt.IsZero() {
		s.CreatedAt = r.now().UTC().Truncate(time.Second)
	}
	args := []interface{}{
		s.SessionID,
		s.FullName,
		s.ProjectName,
		string(s.AttendanceType),
		s.Provider,
		s.FileName,
		s.CreatedAt,
	}

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.ExecContext(ctx, query, args...)
	} else {
		result, err = r.db.ExecContext(ctx, query, args...)
	}

	if err != nil {
		r.logger.Error("Failed to create submission", zap.Error(err))
		return fmt.Errorf("failed to create submission: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	s.ID = id
	return nil
}

// List returns submissions newest first. A non-positive limit returns all rows.
func (r *SubmissionRepository) List(ctx context.Context, limit int) ([]*entity.Submission, error) {
	query := `
		SELECT id, session_id, full_name, project_name, attendance_type,
			provider, file_name, created_at
		FROM submissions
		ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list submissions", zap.Error(err))
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var records []*entity.Submission
	for rows.Next() {
		var s entity.Submission
		var attendance string
		if err := rows.Scan(
			&s.ID,
			&s.SessionID,
			&s.FullName,
			&s.ProjectName,
			&attendance,
			&s.Provider,
			&s.FileName,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		s.AttendanceType = entity.AttendanceType(attendance)
		records = append(records, &s)
	}

	return records, rows.Err()
}

// Append records a successful dispatch of a session
func (r *SubmissionRepository) Append(ctx context.Context, sessionID string, result dispatch.Result) error {
	s := &entity.Submission{
		SessionID:      sessionID,
		FullName:       result.Record.FullName,
		ProjectName:    result.Record.ProjectName,
		AttendanceType: result.Record.AttendanceType,
		Provider:       string(result.Provider),
		FileName:       result.FileName,
	}
	if err := r.Create(ctx, nil, s); err != nil {
		return err
	}

	r.logger.Info("Submission recorded",
		zap.Int64("id", s.ID),
		zap.String("session_id", sessionID),
		zap.String("provider", s.Provider))
	return nil
}
