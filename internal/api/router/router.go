package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jlayese/translator-service-application/config"
	"github.com/jlayese/translator-service-application/internal/api/handler"
	"github.com/jlayese/translator-service-application/internal/api/middleware"
	"github.com/jlayese/translator-service-application/internal/model"
	"github.com/jlayese/translator-service-application/pkg/jwt"
	"github.com/jlayese/translator-service-application/pkg/redis"
)

const (
	maxBodyBytes = 1 << 20

	authRateLimit  = 10
	authRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 与 db 均可为 nil：前者降级为不限流、不查黑名单，后者让 /health 只返回存活状态
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	// 避免把 nil *redis.Client 装进非 nil 接口
	var (
		limiter   middleware.RateLimiter
		blacklist middleware.TokenChecker
	)
	if rdb != nil {
		limiter = rdb
		blacklist = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查与指标 ──
	r.GET("/health", healthCheck(db, rdb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	client := middleware.UserTypeAuth(string(model.UserTypeClient))
	translator := middleware.UserTypeAuth(string(model.UserTypeTranslator))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(limiter, authRateLimit, authRateWindow))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 语言字典（公开）
		v1.GET("/languages", h.Language.ListLanguages)
		v1.GET("/languages/:id", h.Language.GetLanguage)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 资料模块
			profiles := authorized.Group("/profiles")
			{
				profiles.GET("/me", h.Profile.GetMyProfile)
				profiles.PUT("/me", h.Profile.UpdateMyProfile)
			}

			// 译员模块
			translators := authorized.Group("/translators")
			{
				translators.PUT("/me", translator, h.Profile.UpdateMyCapability)
				translators.GET("/:id", h.Profile.GetTranslator)
				translators.GET("/:id/reputation", h.Rating.TranslatorReputation)
			}
			authorized.GET("/clients/:id/reputation", h.Rating.ClientReputation)

			// 需求模块
			requests := authorized.Group("/requests")
			{
				requests.POST("", client, h.Request.CreateRequest)
				requests.GET("/mine", client, h.Request.ListMyRequests)
				requests.GET("/open", translator, h.Request.ListOpenRequests)
				requests.GET("/:id", h.Request.GetRequest) // 所有者或可见的译员（Service 层鉴权）
				requests.POST("/:id/submit", client, h.Request.SubmitDraft)
				requests.POST("/:id/cancel", client, h.Request.CancelRequest)
				requests.GET("/:id/eligible-translators", client, h.Assignment.ListEligibleTranslators)
				requests.GET("/:id/applications", client, h.Assignment.ListApplications)
				requests.POST("/:id/apply", translator, h.Assignment.Apply)
			}

			// 申请/指派模块
			assignments := authorized.Group("/assignments")
			{
				assignments.GET("/mine", translator, h.Assignment.ListMyAssignments)
				assignments.POST("/:id/accept", client, h.Assignment.Accept)
				assignments.POST("/:id/start", h.Assignment.StartWork) // 需求方或被接受的译员
				assignments.POST("/:id/rating", h.Rating.SubmitRating)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/requests", client, h.Export.ExportRequests)
				export.GET("/calendar", translator, h.Export.ExportCalendar)
			}
		}
	}

	return r
}

// healthCheck 数据库不可达时返回 503；Redis 为可选依赖，仅报告状态
func healthCheck(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok"}
		code := http.StatusOK

		if db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
				status["status"] = "degraded"
				status["database"] = "unreachable"
				code = http.StatusServiceUnavailable
			} else {
				status["database"] = "ok"
			}
		}

		if rdb == nil {
			status["redis"] = "disabled"
		} else if err := rdb.Ping(ctx); err != nil {
			status["redis"] = "unreachable"
		} else {
			status["redis"] = "ok"
		}

		c.JSON(code, status)
	}
}
