package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jlayese/translator-service-application/internal/dto"
	"github.com/jlayese/translator-service-application/internal/model"
	"github.com/jlayese/translator-service-application/internal/repository"
	pkgerrors "github.com/jlayese/translator-service-application/pkg/errors"
)

// ── 资料模块业务错误 ──

var (
	ErrProfileNotFound    = fmt.Errorf("用户资料不存在: %w", pkgerrors.ErrNotFound)
	ErrTranslatorNotFound = fmt.Errorf("译员不存在: %w", pkgerrors.ErrNotFound)
)

const maxLanguagePairs = 50

// ProfileService 资料与译员能力业务接口
type ProfileService interface {
	GetProfile(ctx context.Context, profileID string) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, req *dto.UpdateProfileRequest, actor Actor) (*dto.ProfileResponse, error)
	// GetCapability 译员能力与口碑
	GetCapability(ctx context.Context, translatorID string) (*dto.TranslatorResponse, error)
	// UpdateCapability 仅译员本人可修改
	UpdateCapability(ctx context.Context, req *dto.UpdateTranslatorRequest, actor Actor) (*dto.TranslatorResponse, error)
}

type profileService struct {
	repo    *repository.Repository
	timeout time.Duration
	logger  *zap.Logger
}

// NewProfileService 创建 ProfileService 实例
func NewProfileService(repo *repository.Repository, timeout time.Duration, logger *zap.Logger) ProfileService {
	return &profileService{repo: repo, timeout: timeout, logger: logger}
}

func (s *profileService) GetProfile(ctx context.Context, profileID string) (*dto.ProfileResponse, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	p, err := s.repo.Profile.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, storageError(s.logger, "查询资料失败", err)
	}
	resp := toProfileResponse(p)
	return &resp, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, req *dto.UpdateProfileRequest, actor Actor) (*dto.ProfileResponse, error) {
	v := &pkgerrors.ValidationError{}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
			v.Add("full_name", "长度必须在 2-100 之间")
		}
		req.FullName = &name
	}
	if req.AvatarURL != nil && *req.AvatarURL != "" && !validHTTPURL(*req.AvatarURL) {
		v.Add("avatar_url", "必须是 http(s) 地址")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	p, err := s.repo.Profile.GetByID(ctx, actor.ProfileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, storageError(s.logger, "查询资料失败", err)
	}

	if req.FullName != nil {
		p.FullName = *req.FullName
	}
	if req.AvatarURL != nil {
		if *req.AvatarURL == "" {
			p.AvatarURL = nil
		} else {
			p.AvatarURL = req.AvatarURL
		}
	}

	if err := s.repo.Profile.Update(ctx, p); err != nil {
		return nil, storageError(s.logger, "更新资料失败", err)
	}

	resp := toProfileResponse(p)
	return &resp, nil
}

func (s *profileService) GetCapability(ctx context.Context, translatorID string) (*dto.TranslatorResponse, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	tp, err := s.repo.Translator.GetCapability(ctx, translatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTranslatorNotFound
		}
		return nil, storageError(s.logger, "查询译员能力失败", err)
	}

	stats, err := s.repo.Assignment.TranslatorRatingStats(ctx, []string{translatorID})
	if err != nil {
		return nil, storageError(s.logger, "查询译员口碑失败", err)
	}

	return toTranslatorResponse(tp, stats[translatorID]), nil
}

func (s *profileService) UpdateCapability(ctx context.Context, req *dto.UpdateTranslatorRequest, actor Actor) (*dto.TranslatorResponse, error) {
	if !actor.IsTranslator() {
		return nil, pkgerrors.ErrForbidden
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	pairs, err := s.validateCapability(ctx, req)
	if err != nil {
		return nil, err
	}

	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		tp, err := tx.Translator.GetCapability(ctx, actor.ProfileID)
		if err != nil {
			return err
		}
		if req.Bio != nil {
			tp.Bio = req.Bio
		}
		if req.HourlyRate != nil {
			tp.HourlyRate = req.HourlyRate
		}
		if req.IsAvailable != nil {
			tp.IsAvailable = *req.IsAvailable
		}
		if err := tx.Translator.Update(ctx, tp); err != nil {
			return err
		}
		if pairs != nil {
			return tx.Translator.ReplaceLanguagePairs(ctx, actor.ProfileID, pairs)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTranslatorNotFound
		}
		return nil, storageError(s.logger, "更新译员能力失败", err)
	}

	s.logger.Info("译员能力已更新", zap.String("translator_id", actor.ProfileID))
	return s.GetCapability(ctx, actor.ProfileID)
}

// validateCapability 校验全部字段；language_pairs 未传入时返回 nil 表示不修改
func (s *profileService) validateCapability(ctx context.Context, req *dto.UpdateTranslatorRequest) ([]model.TranslatorLanguagePair, error) {
	v := &pkgerrors.ValidationError{}

	if req.HourlyRate != nil && *req.HourlyRate < 0 {
		v.Add("hourly_rate", "不能为负数")
	}
	if req.Bio != nil && utf8.RuneCountInString(*req.Bio) > 2000 {
		v.Add("bio", "不能超过 2000 字")
	}

	if req.LanguagePairs == nil {
		return nil, v.OrNil()
	}

	input := *req.LanguagePairs
	if len(input) > maxLanguagePairs {
		v.Add("language_pairs", fmt.Sprintf("最多 %d 个语言对", maxLanguagePairs))
		return nil, v
	}

	pairs := make([]model.TranslatorLanguagePair, 0, len(input))
	seen := make(map[string]bool, len(input))
	known := make(map[string]bool)
	for i, p := range input {
		field := fmt.Sprintf("language_pairs[%d]", i)
		ok := true
		for _, id := range []struct{ name, id string }{{"source_language_id", p.SourceLanguageID}, {"target_language_id", p.TargetLanguageID}} {
			if id.id == "" {
				v.Add(field+"."+id.name, "不能为空")
				ok = false
				continue
			}
			exists, err := s.languageExists(ctx, known, id.id)
			if err != nil {
				return nil, err
			}
			if !exists {
				v.Add(field+"."+id.name, "语言不存在")
				ok = false
			}
		}
		if p.SourceLanguageID != "" && p.SourceLanguageID == p.TargetLanguageID {
			v.Add(field, "源语言与目标语言不能相同")
			ok = false
		}
		if p.ProficiencyLevel != nil && !model.ValidProficiency(*p.ProficiencyLevel) {
			v.Add(field+".proficiency_level", "取值必须为 basic / conversational / fluent / native")
			ok = false
		}
		key := p.SourceLanguageID + "→" + p.TargetLanguageID
		if ok && seen[key] {
			v.Add(field, "语言对重复")
			ok = false
		}
		seen[key] = true
		if ok {
			pairs = append(pairs, model.TranslatorLanguagePair{
				SourceLanguageID: p.SourceLanguageID,
				TargetLanguageID: p.TargetLanguageID,
				ProficiencyLevel: p.ProficiencyLevel,
			})
		}
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return pairs, nil
}

// languageExists 带本次请求内缓存的语言存在性检查
func (s *profileService) languageExists(ctx context.Context, known map[string]bool, id string) (bool, error) {
	if exists, ok := known[id]; ok {
		return exists, nil
	}
	_, err := s.repo.Language.GetByID(ctx, id)
	switch {
	case err == nil:
		known[id] = true
	case errors.Is(err, gorm.ErrRecordNotFound):
		known[id] = false
	default:
		return false, storageError(s.logger, "查询语言失败", err)
	}
	return known[id], nil
}

func toTranslatorResponse(tp *model.TranslatorProfile, stats repository.RatingStats) *dto.TranslatorResponse {
	resp := &dto.TranslatorResponse{
		Bio:           tp.Bio,
		HourlyRate:    tp.HourlyRate,
		IsAvailable:   tp.IsAvailable,
		LanguagePairs: make([]dto.LanguagePairResponse, 0, len(tp.LanguagePairs)),
		Reputation:    toReputation(stats),
	}
	if tp.Profile != nil {
		resp.Profile = toProfileResponse(tp.Profile)
	} else {
		resp.Profile = dto.ProfileResponse{ID: tp.ProfileID}
	}
	for _, p := range tp.LanguagePairs {
		pair := dto.LanguagePairResponse{
			Source:           dto.LanguageResponse{ID: p.SourceLanguageID},
			Target:           dto.LanguageResponse{ID: p.TargetLanguageID},
			ProficiencyLevel: p.ProficiencyLevel,
		}
		if p.SourceLanguage != nil {
			pair.Source = toLanguageResponse(p.SourceLanguage)
		}
		if p.TargetLanguage != nil {
			pair.Target = toLanguageResponse(p.TargetLanguage)
		}
		resp.LanguagePairs = append(resp.LanguagePairs, pair)
	}
	return resp
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
