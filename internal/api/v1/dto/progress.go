package dto

import "time"

// ProgressCreateDTO marks a lecture complete
type ProgressCreateDTO struct {
	CourseID  string `json:"course_id" validate:"required"`
	UnitID    string `json:"unit_id" validate:"required"`
	LectureID string `json:"lecture_id" validate:"required"`
}

// ProgressResponseDTO is one completion entry
type ProgressResponseDTO struct {
	CourseID    string     `json:"course_id"`
	UnitID      string     `json:"unit_id"`
	LectureID   string     `json:"lecture_id"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
