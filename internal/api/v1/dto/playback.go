package dto

import "time"

// SignedURLRequestDTO asks for a time-boxed playback URL for one asset.
// Version is the client's view of the asset; minting fails if it is stale.
type SignedURLRequestDTO struct {
	PublicID string `json:"publicId" validate:"required"`
	FileType string `json:"fileType" validate:"required,oneof=video pdf"`
	Version  string `json:"version" validate:"required"`
}

// SignedURLResponseDTO carries the minted URL. Exactly one of URL and
// EncryptedURL is set, depending on server configuration.
type SignedURLResponseDTO struct {
	URL          string    `json:"url,omitempty"`
	EncryptedURL string    `json:"encryptedUrl,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}
