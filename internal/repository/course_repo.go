package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mastery/internal/model"

	"github.com/rs/zerolog"
)

// CourseRepository accesses the course rows at the root of the content
// hierarchy. Unit, lecture and asset rows live in RegistryRepository.
type CourseRepository interface {
	CreateCourse(ctx context.Context, c *model.Course) error
	GetCourseByID(ctx context.Context, courseID string) (*model.Course, error)
	// ListCourses pages over courses, optionally filtered by a title search
	// term and a category. Returns the page plus the total match count.
	ListCourses(ctx context.Context, search, category string, limit, offset int) ([]model.Course, int, error)
	UpdateCourse(ctx context.Context, c *model.Course) error
	DeleteCourse(ctx context.Context, courseID string) error
}

type courseRepo struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewCourseRepo(db *sql.DB, logger zerolog.Logger) CourseRepository {
	return &courseRepo{db: db, log: logger.With().Str("repository", "CourseRepository").Logger()}
}

func (r *courseRepo) CreateCourse(ctx context.Context, c *model.Course) error {
	query := `
		INSERT INTO courses (title, description, category, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, c.Title, c.Description, c.Category, c.CreatedBy).
		Scan(&c.CourseID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *courseRepo) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	query := `
		SELECT id, title, description, category, created_by, created_at, updated_at
		FROM courses
		WHERE id = $1
	`
	var c model.Course
	err := r.db.QueryRowContext(ctx, query, courseID).Scan(
		&c.CourseID,
		&c.Title,
		&c.Description,
		&c.Category,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *courseRepo) ListCourses(ctx context.Context, search, category string, limit, offset int) ([]model.Course, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if search != "" {
		args = append(args, "%"+search+"%")
		where += fmt.Sprintf(" AND title ILIKE $%d", len(args))
	}
	if category != "" {
		args = append(args, category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM courses " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	listQuery := fmt.Sprintf(`
		SELECT id, title, description, category, created_by, created_at, updated_at
		FROM courses %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.CourseID, &c.Title, &c.Description, &c.Category, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		courses = append(courses, c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(courses) == 0 {
		return []model.Course{}, total, nil
	}
	return courses, total, nil
}

func (r *courseRepo) UpdateCourse(ctx context.Context, c *model.Course) error {
	query := `
		UPDATE courses
		SET title = $1, description = $2, category = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING created_by, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, c.Title, c.Description, c.Category, c.CourseID).
		Scan(&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
}

func (r *courseRepo) DeleteCourse(ctx context.Context, courseID string) error {
	// Units, lectures and asset rows cascade via foreign keys; each statement
	// is a single atomic write.
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, courseID)
	if err != nil {
		r.log.Error().Err(err).Str("course_id", courseID).Msg("Failed to delete course")
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
