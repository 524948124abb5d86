package dto

// RegisterDTO is used for incoming registration requests
type RegisterDTO struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
}

// LoginDTO is used for incoming login requests
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponseDTO is returned after register/login/refresh
type AuthResponseDTO struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	AccessToken string `json:"access_token"`
}

// TokenResponseDTO is returned by the refresh endpoint
type TokenResponseDTO struct {
	AccessToken string `json:"access_token"`
}

// DecryptionKeyResponseDTO is returned by the key retrieval endpoint
type DecryptionKeyResponseDTO struct {
	Key string `json:"key"`
}
