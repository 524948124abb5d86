package dto

import "time"

// UserResponseDTO is the public shape of a user profile
type UserResponseDTO struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
