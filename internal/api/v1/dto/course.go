package dto

import (
	"time"

	"mastery/internal/model"
)

// CourseCreateDTO is used for incoming course creation requests
type CourseCreateDTO struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
}

// CourseUpdateDTO is used for incoming course update requests
type CourseUpdateDTO struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
}

// CourseResponseDTO is returned in API responses for courses
type CourseResponseDTO struct {
	CourseID    string       `json:"course_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	CreatedBy   string       `json:"created_by"`
	Units       []model.Unit `json:"units,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// CourseListResponseDTO wraps a paged course listing
type CourseListResponseDTO struct {
	Courses []CourseResponseDTO `json:"courses"`
	Total   int                 `json:"total"`
	Page    int                 `json:"page"`
	Limit   int                 `json:"limit"`
}

func NewCourseResponse(c *model.Course) CourseResponseDTO {
	return CourseResponseDTO{
		CourseID:    c.CourseID,
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		CreatedBy:   c.CreatedBy,
		Units:       c.Units,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
