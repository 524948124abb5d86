package dto

import (
	"time"

	"mastery/internal/model"
)

// UnitCreateDTO is used for incoming unit creation requests. The introduction
// file is uploaded in a second phase against the returned pre-signed URL.
type UnitCreateDTO struct {
	CourseID string `json:"course_id" validate:"required"`
	Title    string `json:"title" validate:"required"`
	Filename string `json:"filename" validate:"required"`
	FileSize int64  `json:"file_size" validate:"required,gt=0"`
}

// LectureCreateDTO is used for incoming lecture creation requests
type LectureCreateDTO struct {
	CourseID string `json:"course_id" validate:"required"`
	Title    string `json:"title" validate:"required"`
	Order    int    `json:"order" validate:"required,gt=0"`
	Filename string `json:"filename" validate:"required"`
	FileSize int64  `json:"file_size" validate:"required,gt=0"`
}

// UploadDTO describes the pre-signed upload the client must perform
type UploadDTO struct {
	PublicID  string `json:"public_id"`
	FileType  string `json:"file_type"`
	Version   string `json:"version"`
	UploadURL string `json:"upload_url"`
}

// UnitResponseDTO is returned after unit creation
type UnitResponseDTO struct {
	UnitID    string    `json:"unit_id"`
	CourseID  string    `json:"course_id"`
	Title     string    `json:"title"`
	Upload    UploadDTO `json:"upload"`
	CreatedAt time.Time `json:"created_at"`
}

// LectureResponseDTO is returned after lecture creation
type LectureResponseDTO struct {
	LectureID string    `json:"lecture_id"`
	UnitID    string    `json:"unit_id"`
	Title     string    `json:"title"`
	Order     int       `json:"order"`
	Upload    UploadDTO `json:"upload"`
	CreatedAt time.Time `json:"created_at"`
}

// ReplaceUploadDTO is used to request a replacement upload for an asset
type ReplaceUploadDTO struct {
	FileSize int64 `json:"file_size" validate:"required,gt=0"`
}

// AssetResponseDTO is returned once an upload completes
type AssetResponseDTO struct {
	PublicID string `json:"public_id"`
	FileType string `json:"file_type"`
	Version  string `json:"version"`
	Status   string `json:"status"`
}

func NewAssetResponse(a *model.AssetRef) AssetResponseDTO {
	return AssetResponseDTO{
		PublicID: a.PublicID,
		FileType: a.Kind,
		Version:  a.Version,
		Status:   a.Status,
	}
}
