package repository

import (
	"context"
	"database/sql"

	"mastery/internal/model"
)

// ProgressRepository tracks per-user lecture completion.
type ProgressRepository interface {
	// MarkCompleted upserts the completion row for (user, lecture).
	MarkCompleted(ctx context.Context, p *model.Progress) error
	GetProgressByUserID(ctx context.Context, userID string) ([]model.Progress, error)
}

type progressRepo struct {
	db *sql.DB
}

func NewProgressRepo(db *sql.DB) ProgressRepository {
	return &progressRepo{db: db}
}

func (r *progressRepo) MarkCompleted(ctx context.Context, p *model.Progress) error {
	query := `
		INSERT INTO progress (user_id, course_id, unit_id, lecture_id, completed, completed_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW())
		ON CONFLICT (user_id, lecture_id)
		DO UPDATE SET completed = TRUE, completed_at = NOW()
		RETURNING completed, completed_at
	`
	return r.db.QueryRowContext(ctx, query, p.UserID, p.CourseID, p.UnitID, p.LectureID).
		Scan(&p.Completed, &p.CompletedAt)
}

func (r *progressRepo) GetProgressByUserID(ctx context.Context, userID string) ([]model.Progress, error) {
	query := `
		SELECT user_id, course_id, unit_id, lecture_id, completed, completed_at
		FROM progress
		WHERE user_id = $1
		ORDER BY completed_at DESC NULLS LAST
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.Progress
	for rows.Next() {
		var p model.Progress
		if err := rows.Scan(&p.UserID, &p.CourseID, &p.UnitID, &p.LectureID, &p.Completed, &p.CompletedAt); err != nil {
			return nil, err
		}
		entries = append(entries, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []model.Progress{}, nil
	}
	return entries, nil
}
