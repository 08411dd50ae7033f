package dto

type TokenRequest struct {
	AccessKey string `json:"access_key" validate:"required"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}
