package repository

import (
	"context"
	"database/sql"
	"errors"

	"mastery/internal/model"

	"github.com/rs/zerolog"
)

// RegistryRepository holds the unit/lecture/asset rows under a course and
// answers the registry lookups the authorization gate and signed-URL engine
// depend on: which course owns a public id, and what version is current.
// All lookup methods are pure reads.
type RegistryRepository interface {
	CreateAsset(ctx context.Context, a *model.AssetRef) error
	GetAsset(ctx context.Context, publicID string) (*model.AssetRef, error)
	// MarkAssetReady records the version assigned at upload completion and
	// flips the asset live in a single atomic update.
	MarkAssetReady(ctx context.Context, publicID, version string) error
	MarkAssetFailed(ctx context.Context, publicID string) error

	AddUnit(ctx context.Context, u *model.Unit) error
	GetUnitByID(ctx context.Context, unitID string) (*model.Unit, error)
	AddLecture(ctx context.Context, l *model.Lecture) error
	GetLectureByID(ctx context.Context, lectureID string) (*model.Lecture, error)
	// GetUnitsWithContent loads the full unit/lecture hierarchy for a course,
	// introduction and lecture assets included.
	GetUnitsWithContent(ctx context.Context, courseID string) ([]model.Unit, error)

	// FindOwnerByPublicID resolves the course owning the unit introduction or
	// lecture whose asset matches publicID, or nil if none does.
	FindOwnerByPublicID(ctx context.Context, publicID string) (*model.Course, error)
	// CurrentVersion returns the registry's version for publicID, or nil when
	// the asset is unknown or not yet live.
	CurrentVersion(ctx context.Context, publicID string) (*string, error)
	// ListCourseAssets enumerates every asset nested under a course, for
	// provider-side cleanup when the course is deleted.
	ListCourseAssets(ctx context.Context, courseID string) ([]model.AssetRef, error)
}

type registryRepo struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewRegistryRepo(db *sql.DB, logger zerolog.Logger) RegistryRepository {
	return &registryRepo{db: db, log: logger.With().Str("repository", "RegistryRepository").Logger()}
}

func (r *registryRepo) CreateAsset(ctx context.Context, a *model.AssetRef) error {
	query := `
		INSERT INTO assets (public_id, file_type, version, status)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, a.PublicID, a.Kind, a.Version, a.Status)
	return err
}

func (r *registryRepo) GetAsset(ctx context.Context, publicID string) (*model.AssetRef, error) {
	query := `SELECT public_id, file_type, version, status FROM assets WHERE public_id = $1`
	var a model.AssetRef
	err := r.db.QueryRowContext(ctx, query, publicID).Scan(&a.PublicID, &a.Kind, &a.Version, &a.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *registryRepo) MarkAssetReady(ctx context.Context, publicID, version string) error {
	query := `UPDATE assets SET version = $1, status = $2, updated_at = NOW() WHERE public_id = $3`
	_, err := r.db.ExecContext(ctx, query, version, model.AssetStatusReady, publicID)
	return err
}

func (r *registryRepo) MarkAssetFailed(ctx context.Context, publicID string) error {
	query := `UPDATE assets SET status = $1, updated_at = NOW() WHERE public_id = $2`
	_, err := r.db.ExecContext(ctx, query, model.AssetStatusFailed, publicID)
	return err
}

func (r *registryRepo) AddUnit(ctx context.Context, u *model.Unit) error {
	query := `
		INSERT INTO units (course_id, title, introduction_public_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query, u.CourseID, u.Title, u.Introduction.PublicID).
		Scan(&u.UnitID, &u.CreatedAt)
}

func (r *registryRepo) GetUnitByID(ctx context.Context, unitID string) (*model.Unit, error) {
	query := `
		SELECT u.id, u.course_id, u.title, u.created_at,
		       a.public_id, a.file_type, a.version, a.status
		FROM units u
		JOIN assets a ON a.public_id = u.introduction_public_id
		WHERE u.id = $1
	`
	var u model.Unit
	err := r.db.QueryRowContext(ctx, query, unitID).Scan(
		&u.UnitID, &u.CourseID, &u.Title, &u.CreatedAt,
		&u.Introduction.PublicID, &u.Introduction.Kind, &u.Introduction.Version, &u.Introduction.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *registryRepo) AddLecture(ctx context.Context, l *model.Lecture) error {
	// (unit_id, display_order) is unique, so a duplicate order fails here
	// rather than silently reordering playback.
	query := `
		INSERT INTO lectures (unit_id, title, display_order, public_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query, l.UnitID, l.Title, l.Order, l.Asset.PublicID).
		Scan(&l.LectureID, &l.CreatedAt)
}

func (r *registryRepo) GetLectureByID(ctx context.Context, lectureID string) (*model.Lecture, error) {
	query := `
		SELECT l.id, l.unit_id, l.title, l.display_order, l.created_at,
		       a.public_id, a.file_type, a.version, a.status
		FROM lectures l
		JOIN assets a ON a.public_id = l.public_id
		WHERE l.id = $1
	`
	var l model.Lecture
	err := r.db.QueryRowContext(ctx, query, lectureID).Scan(
		&l.LectureID, &l.UnitID, &l.Title, &l.Order, &l.CreatedAt,
		&l.Asset.PublicID, &l.Asset.Kind, &l.Asset.Version, &l.Asset.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *registryRepo) GetUnitsWithContent(ctx context.Context, courseID string) ([]model.Unit, error) {
	unitQuery := `
		SELECT u.id, u.course_id, u.title, u.created_at,
		       a.public_id, a.file_type, a.version, a.status
		FROM units u
		JOIN assets a ON a.public_id = u.introduction_public_id
		WHERE u.course_id = $1
		ORDER BY u.created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, unitQuery, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []model.Unit
	for rows.Next() {
		var u model.Unit
		if err := rows.Scan(
			&u.UnitID, &u.CourseID, &u.Title, &u.CreatedAt,
			&u.Introduction.PublicID, &u.Introduction.Kind, &u.Introduction.Version, &u.Introduction.Status,
		); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	for i := range units {
		lectures, err := r.lecturesByUnitID(ctx, units[i].UnitID)
		if err != nil {
			return nil, err
		}
		units[i].Lectures = lectures
	}
	if len(units) == 0 {
		return []model.Unit{}, nil
	}
	return units, nil
}

func (r *registryRepo) lecturesByUnitID(ctx context.Context, unitID string) ([]model.Lecture, error) {
	query := `
		SELECT l.id, l.unit_id, l.title, l.display_order, l.created_at,
		       a.public_id, a.file_type, a.version, a.status
		FROM lectures l
		JOIN assets a ON a.public_id = l.public_id
		WHERE l.unit_id = $1
		ORDER BY l.display_order ASC
	`
	rows, err := r.db.QueryContext(ctx, query, unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lectures []model.Lecture
	for rows.Next() {
		var l model.Lecture
		if err := rows.Scan(
			&l.LectureID, &l.UnitID, &l.Title, &l.Order, &l.CreatedAt,
			&l.Asset.PublicID, &l.Asset.Kind, &l.Asset.Version, &l.Asset.Status,
		); err != nil {
			return nil, err
		}
		lectures = append(lectures, l)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if len(lectures) == 0 {
		return []model.Lecture{}, nil
	}
	return lectures, nil
}

func (r *registryRepo) FindOwnerByPublicID(ctx context.Context, publicID string) (*model.Course, error) {
	query := `
		SELECT c.id, c.title, c.description, c.category, c.created_by, c.created_at, c.updated_at
		FROM courses c
		WHERE EXISTS (
			SELECT 1 FROM units u
			WHERE u.course_id = c.id AND u.introduction_public_id = $1
		)
		OR EXISTS (
			SELECT 1 FROM lectures l
			JOIN units u ON u.id = l.unit_id
			WHERE u.course_id = c.id AND l.public_id = $1
		)
		LIMIT 1
	`
	var c model.Course
	err := r.db.QueryRowContext(ctx, query, publicID).Scan(
		&c.CourseID, &c.Title, &c.Description, &c.Category, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *registryRepo) CurrentVersion(ctx context.Context, publicID string) (*string, error) {
	query := `SELECT version FROM assets WHERE public_id = $1 AND status = $2`
	var version string
	err := r.db.QueryRowContext(ctx, query, publicID, model.AssetStatusReady).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &version, nil
}

func (r *registryRepo) ListCourseAssets(ctx context.Context, courseID string) ([]model.AssetRef, error) {
	query := `
		SELECT a.public_id, a.file_type, a.version, a.status
		FROM assets a
		WHERE a.public_id IN (
			SELECT introduction_public_id FROM units WHERE course_id = $1
			UNION
			SELECT l.public_id FROM lectures l JOIN units u ON u.id = l.unit_id WHERE u.course_id = $1
		)
	`
	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []model.AssetRef
	for rows.Next() {
		var a model.AssetRef
		if err := rows.Scan(&a.PublicID, &a.Kind, &a.Version, &a.Status); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return []model.AssetRef{}, nil
	}
	return assets, nil
}
