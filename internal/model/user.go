package model

import "time"

// Roles assignable to a user.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account.
type User struct {
	UserID       string `db:"id" json:"user_id"`
	Username     string `db:"username" json:"username"`
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         string `db:"role" json:"role"`
	// RefreshToken is the single currently valid refresh token for this user.
	// Login and registration overwrite it, invalidating earlier chains.
	RefreshToken *string   `db:"refresh_token" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Principal is the authenticated actor attached to a request context.
type Principal struct {
	ID   string
	Role string
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Progress records one user's completion state for a lecture.
type Progress struct {
	UserID      string     `db:"user_id" json:"user_id"`
	CourseID    string     `db:"course_id" json:"course_id"`
	UnitID      string     `db:"unit_id" json:"unit_id"`
	LectureID   string     `db:"lecture_id" json:"lecture_id"`
	Completed   bool       `db:"completed" json:"completed"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}
