package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jlayese/translator-service-application/internal/dto"
	"github.com/jlayese/translator-service-application/internal/repository"
	pkgerrors "github.com/jlayese/translator-service-application/pkg/errors"
)

var ErrLanguageNotFound = fmt.Errorf("语言不存在: %w", pkgerrors.ErrNotFound)

const (
	languageCacheKey = "lingua:languages:v1"
	languageCacheTTL = 10 * time.Minute
)

// Cache 字节缓存，由 Redis 实现
type Cache interface {
	GetCache(ctx context.Context, key string) ([]byte, error)
	SetCache(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// LanguageService 语言字典业务接口（只读）
type LanguageService interface {
	// List 按名称排序
	List(ctx context.Context) ([]dto.LanguageResponse, error)
	GetByID(ctx context.Context, id string) (*dto.LanguageResponse, error)
	GetByCode(ctx context.Context, code string) (*dto.LanguageResponse, error)
}

type languageService struct {
	repo    *repository.Repository
	cache   Cache
	timeout time.Duration
	logger  *zap.Logger
}

// NewLanguageService 创建 LanguageService 实例，cache 可为 nil
func NewLanguageService(repo *repository.Repository, cache Cache, timeout time.Duration, logger *zap.Logger) LanguageService {
	return &languageService{repo: repo, cache: cache, timeout: timeout, logger: logger}
}

func (s *languageService) List(ctx context.Context) ([]dto.LanguageResponse, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if cached, ok := s.fromCache(ctx); ok {
		return cached, nil
	}

	langs, err := s.repo.Language.List(ctx)
	if err != nil {
		return nil, storageError(s.logger, "查询语言列表失败", err)
	}

	list := make([]dto.LanguageResponse, 0, len(langs))
	for i := range langs {
		list = append(list, toLanguageResponse(&langs[i]))
	}

	s.toCache(ctx, list)
	return list, nil
}

func (s *languageService) GetByID(ctx context.Context, id string) (*dto.LanguageResponse, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	lang, err := s.repo.Language.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLanguageNotFound
		}
		return nil, storageError(s.logger, "查询语言失败", err)
	}
	resp := toLanguageResponse(lang)
	return &resp, nil
}

func (s *languageService) GetByCode(ctx context.Context, code string) (*dto.LanguageResponse, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	lang, err := s.repo.Language.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLanguageNotFound
		}
		return nil, storageError(s.logger, "查询语言失败", err)
	}
	resp := toLanguageResponse(lang)
	return &resp, nil
}

// ── 缓存（失败仅记录日志，不影响主流程） ──

func (s *languageService) fromCache(ctx context.Context) ([]dto.LanguageResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.GetCache(ctx, languageCacheKey)
	if err != nil {
		return nil, false
	}
	var list []dto.LanguageResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		s.logger.Warn("语言缓存反序列化失败", zap.Error(err))
		return nil, false
	}
	return list, true
}

func (s *languageService) toCache(ctx context.Context, list []dto.LanguageResponse) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := s.cache.SetCache(ctx, languageCacheKey, raw, languageCacheTTL); err != nil {
		s.logger.Warn("写入语言缓存失败", zap.Error(err))
	}
}
