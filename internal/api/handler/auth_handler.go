package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jlayese/translator-service-application/config"
	"github.com/jlayese/translator-service-application/internal/dto"
	"github.com/jlayese/translator-service-application/internal/service"
	pkgerrors "github.com/jlayese/translator-service-application/pkg/errors"
	"github.com/jlayese/translator-service-application/pkg/response"
)

const refreshCookieName = "refresh_token"

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
	cfg     *config.Config
}

// NewAuthHandler 创建 AuthHandler，cfg 为 nil 时不写 Cookie
func NewAuthHandler(authSvc service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cfg: cfg}
}

// Register 注册
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c)
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.Created(c, result)
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.OK(c, result)
}

// RefreshToken 刷新 Token，优先读取请求体，其次读取 Cookie
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token := h.refreshTokenFrom(c)
	if token == "" {
		response.BadRequest(c, response.CodeInvalidParams, "缺少 refresh_token")
		return
	}

	result, err := h.authSvc.RefreshToken(c.Request.Context(), token)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.OK(c, result)
}

// Logout 用户登出
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := MustGetClaims(c)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), claims, h.refreshTokenFrom(c)); err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	response.OK(c, nil)
}

// Me 当前登录用户
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	me, err := h.authSvc.Me(c.Request.Context(), actor)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, me)
}

// ── 内部方法 ──

func (h *AuthHandler) refreshTokenFrom(c *gin.Context) string {
	var req dto.RefreshTokenRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
			return req.RefreshToken
		}
	}
	if v, err := c.Cookie(refreshCookieName); err == nil {
		return v
	}
	return ""
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	if h.cfg == nil || token == "" {
		return
	}
	maxAge := int(h.cfg.Auth.RefreshTokenTTL.Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, token, maxAge, "/api/v1/auth", "", h.secureCookie(), true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, "/api/v1/auth", "", h.secureCookie(), true)
}

func (h *AuthHandler) secureCookie() bool {
	return h.cfg != nil && strings.HasPrefix(h.cfg.Server.BaseURL, "https://")
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	if respondCommon(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 11001, "邮箱或密码错误")
	case errors.Is(err, service.ErrEmailTaken):
		response.Conflict(c, 11002, "该邮箱已注册")
	case errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(c, 11003, "Token 无效或已过期")
	case errors.Is(err, service.ErrTokenRevoked):
		response.Unauthorized(c, 11004, "Token 已注销")
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, 11005, "用户不存在")
	default:
		response.InternalError(c)
	}
}
