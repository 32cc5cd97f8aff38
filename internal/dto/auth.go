package dto

// ── 认证模块 DTO ──

// RegisterRequest 注册请求，user_type 注册后不可修改
type RegisterRequest struct {
	Email    string `json:"email"     binding:"required,email"`
	Password string `json:"password"  binding:"required,min=8,max=72"`
	FullName string `json:"full_name" binding:"required,min=2,max=100"`
	UserType string `json:"user_type" binding:"required,oneof=client translator"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresIn    int             `json:"expires_in"` // Access Token 有效期（秒）
	Profile      ProfileResponse `json:"profile"`
}

// MeResponse 当前登录用户（GET /auth/me）
type MeResponse struct {
	UserID  string          `json:"user_id"`
	Email   string          `json:"email"`
	Profile ProfileResponse `json:"profile"`
}
