package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/jlayese/translator-service-application/config"
	"github.com/jlayese/translator-service-application/internal/dto"
	"github.com/jlayese/translator-service-application/internal/model"
	"github.com/jlayese/translator-service-application/internal/repository"
	pkgerrors "github.com/jlayese/translator-service-application/pkg/errors"
	"github.com/jlayese/translator-service-application/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrEmailTaken         = errors.New("该邮箱已注册")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrInvalidToken       = errors.New("Token 无效或已过期")
	ErrTokenRevoked       = errors.New("Token 已注销")
)

// TokenBlacklist Token 黑名单，由 Redis 实现
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService 认证业务接口
type AuthService interface {
	// Register 同一事务内创建凭据、资料，译员额外创建能力记录
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// RefreshToken 轮换 Token 对，旧 Refresh Token 作废
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout 注销当前 Access Token 以及可选的 Refresh Token
	Logout(ctx context.Context, claims *jwt.Claims, refreshToken string) error
	Me(ctx context.Context, actor Actor) (*dto.MeResponse, error)
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例，blacklist 可为 nil
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	userType := model.UserType(req.UserType)
	if !userType.Valid() {
		v := &pkgerrors.ValidationError{}
		v.Add("user_type", "取值必须为 client 或 translator")
		return nil, v
	}

	ctx, cancel := withTimeout(ctx, s.cfg.Database.QueryTimeout)
	defer cancel()

	email := strings.TrimSpace(req.Email)
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storageError(s.logger, "查询用户失败", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{Email: email, PasswordHash: string(hash)}
	profile := &model.Profile{FullName: strings.TrimSpace(req.FullName), UserType: userType}

	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.User.Create(ctx, user); err != nil {
			return err
		}
		profile.UserID = user.UserID
		if err := tx.Profile.Create(ctx, profile); err != nil {
			return err
		}
		if userType == model.UserTypeTranslator {
			return tx.Translator.Create(ctx, &model.TranslatorProfile{ProfileID: profile.ProfileID, IsAvailable: true})
		}
		return nil
	})
	if err != nil {
		err = storageError(s.logger, "注册失败", err)
		if errors.Is(err, pkgerrors.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info("新用户注册",
		zap.String("user_id", user.UserID),
		zap.String("user_type", string(userType)),
	)
	return s.issueTokens(profile)
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.Database.QueryTimeout)
	defer cancel()

	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storageError(s.logger, "查询用户失败", err)
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 资料
	profile := user.Profile
	if profile == nil {
		profile, err = s.repo.Profile.GetByUserID(ctx, user.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProfileNotFound
			}
			return nil, storageError(s.logger, "查询资料失败", err)
		}
	}

	// 4. 生成 Token 对
	return s.issueTokens(profile)
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	ctx, cancel := withTimeout(ctx, s.cfg.Database.QueryTimeout)
	defer cancel()

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("检查 Token 黑名单失败", zap.Error(err))
		} else if revoked {
			return nil, ErrTokenRevoked
		}
	}

	profile, err := s.repo.Profile.GetByID(ctx, claims.ProfileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageError(s.logger, "查询资料失败", err)
	}

	resp, err := s.issueTokens(profile)
	if err != nil {
		return nil, err
	}
	s.revoke(ctx, claims)
	return resp, nil
}

func (s *authService) Logout(ctx context.Context, claims *jwt.Claims, refreshToken string) error {
	s.revoke(ctx, claims)
	if refreshToken != "" {
		if rc, err := s.jwtMgr.ParseToken(refreshToken); err == nil && rc.UserID == claims.UserID {
			s.revoke(ctx, rc)
		}
	}
	return nil
}

func (s *authService) Me(ctx context.Context, actor Actor) (*dto.MeResponse, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.Database.QueryTimeout)
	defer cancel()

	user, err := s.repo.User.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageError(s.logger, "查询用户失败", err)
	}
	if user.Profile == nil {
		return nil, ErrProfileNotFound
	}

	return &dto.MeResponse{
		UserID:  user.UserID,
		Email:   user.Email,
		Profile: toProfileResponse(user.Profile),
	}, nil
}

// ── 辅助 ──

func (s *authService) issueTokens(profile *model.Profile) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(profile.UserID, profile.ProfileID, string(profile.UserType))
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(profile.UserID, profile.ProfileID, string(profile.UserType))
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		Profile:      toProfileResponse(profile),
	}, nil
}

// revoke 将 Token 加入黑名单直至其自然过期；Redis 不可用时仅记录日志
func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) {
	if s.blacklist == nil || claims == nil || claims.ExpiresAt == nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Warn("写入 Token 黑名单失败", zap.String("jti", claims.ID), zap.Error(err))
	}
}
