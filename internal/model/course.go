package model

import "time"

// Resource kinds for stored media.
const (
	KindVideo    = "video"
	KindDocument = "pdf"
)

// Asset statuses through the two-phase upload flow.
const (
	AssetStatusPending = "pending"
	AssetStatusReady   = "ready"
	AssetStatusFailed  = "failed"
)

// AssetRef identifies one stored media object. (PublicID, Kind) resolves to at
// most one live asset; Version changes whenever the underlying bytes are
// replaced and must match the registry's current value for a signed URL to be
// honored.
type AssetRef struct {
	PublicID string `db:"public_id" json:"public_id"`
	Kind     string `db:"file_type" json:"file_type"`
	Version  string `db:"version" json:"version"`
	Status   string `db:"status" json:"status"`
}

// Course is the root of the content hierarchy. CreatedBy (or an admin) is the
// only principal allowed to mint playback URLs for assets nested under it.
type Course struct {
	CourseID    string    `db:"id" json:"course_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	Units       []Unit    `db:"-" json:"units,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Unit groups lectures and carries one introduction asset.
type Unit struct {
	UnitID       string    `db:"id" json:"unit_id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	Title        string    `db:"title" json:"title"`
	Introduction AssetRef  `db:"-" json:"introduction"`
	Lectures     []Lecture `db:"-" json:"lectures,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Lecture owns exactly one asset plus a display order unique within its unit.
type Lecture struct {
	LectureID string    `db:"id" json:"lecture_id"`
	UnitID    string    `db:"unit_id" json:"unit_id"`
	Title     string    `db:"title" json:"title"`
	Asset     AssetRef  `db:"-" json:"asset"`
	Order     int       `db:"display_order" json:"order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
