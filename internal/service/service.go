package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jlayese/translator-service-application/config"
	"github.com/jlayese/translator-service-application/internal/model"
	"github.com/jlayese/translator-service-application/internal/repository"
	pkgerrors "github.com/jlayese/translator-service-application/pkg/errors"
	"github.com/jlayese/translator-service-application/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth     AuthService
	Language LanguageService
	Profile  ProfileService
	Request  RequestService
	Matching MatchingService
	Rating   RatingService
	Export   ExportService
}

// Deps 可选的外部依赖，Redis 不可用时均可为 nil
type Deps struct {
	Blacklist TokenBlacklist
	Cache     Cache
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	deps Deps,
	logger *zap.Logger,
) *Service {
	timeout := cfg.Database.QueryTimeout
	requests := NewRequestService(repo, timeout, logger)
	return &Service{
		Auth:     NewAuthService(cfg, repo, jwtMgr, deps.Blacklist, logger),
		Language: NewLanguageService(repo, deps.Cache, timeout, logger),
		Profile:  NewProfileService(repo, timeout, logger),
		Request:  requests,
		Matching: NewMatchingService(repo, requests, cfg.Matching.Ranking, timeout, logger),
		Rating:   NewRatingService(repo, cfg.Rating.GracePeriod, timeout, logger),
		Export:   NewExportService(repo, cfg.Export.Timezone, timeout, logger),
	}
}

// Actor 当前操作者，来自已验证的 Access Token
type Actor struct {
	UserID    string
	ProfileID string
	UserType  model.UserType
}

// IsClient 是否为客户
func (a Actor) IsClient() bool { return a.UserType == model.UserTypeClient }

// IsTranslator 是否为译员
func (a Actor) IsTranslator() bool { return a.UserType == model.UserTypeTranslator }

// ── 公共辅助 ──

// withTimeout 每个业务操作的存储调用共享一个有界超时
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// storageError 对存储层错误分类并记录日志
func storageError(logger *zap.Logger, msg string, err error) error {
	classified := pkgerrors.Storage(err)
	if errors.Is(classified, pkgerrors.ErrStorageUnavailable) {
		logger.Warn(msg, zap.Error(err))
	} else {
		logger.Error(msg, zap.Error(err))
	}
	return classified
}

// forbidden 非所有者对实体的状态操作
func forbidden(entity string, from string, to string) error {
	return &pkgerrors.TransitionError{Entity: entity, From: from, To: to, Cause: pkgerrors.ErrForbidden}
}
