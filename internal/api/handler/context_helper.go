package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jlayese/translator-service-application/internal/model"
	"github.com/jlayese/translator-service-application/internal/service"
	"github.com/jlayese/translator-service-application/pkg/jwt"
	"github.com/jlayese/translator-service-application/pkg/response"
)

// 上下文键，由 JWTAuth 中间件注入
const (
	CtxUserID    = "user_id"
	CtxProfileID = "profile_id"
	CtxUserType  = "user_type"
	CtxClaims    = "claims"
)

// MustGetActor 从 Gin 上下文中提取当前操作者。
// 如果 JWT 中间件未正确注入身份，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetActor(c *gin.Context) (service.Actor, bool) {
	userID := c.GetString(CtxUserID)
	profileID := c.GetString(CtxProfileID)
	userType := model.UserType(c.GetString(CtxUserType))

	if userID == "" || profileID == "" || !userType.Valid() {
		response.Unauthorized(c, response.CodeUnauthorized, "未认证")
		return service.Actor{}, false
	}
	return service.Actor{UserID: userID, ProfileID: profileID, UserType: userType}, true
}

// MustGetClaims 提取当前 Access Token 的声明（登出时用于拉黑 jti）
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(CtxClaims)
	if !exists {
		response.Unauthorized(c, response.CodeUnauthorized, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, response.CodeUnauthorized, "未认证")
		return nil, false
	}
	return claims, true
}
