package dto

import "github.com/spec-kit/task-service/internal/domain"

// LoginRequest payload for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest payload for POST /api/auth/refresh and /api/auth/logout.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LoginResponse mirrors the documented login contract.
type LoginResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Role         domain.Role `json:"role"`
}

// RefreshResponse returns a new access token alongside the unchanged refresh
// token.
type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
