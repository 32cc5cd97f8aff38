package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"

	"github.com/jlayese/translator-service-application/internal/model"
)

// EligibleTranslator 候选译员（匹配查询的投影行）
type EligibleTranslator struct {
	TranslatorID     string
	FullName         string
	AvatarURL        *string
	Bio              *string
	HourlyRate       *float64
	ProficiencyLevel *string
}

// TranslatorRepository 译员能力数据访问接口
type TranslatorRepository interface {
	Create(ctx context.Context, tp *model.TranslatorProfile) error
	// GetCapability 预加载资料与语言对
	GetCapability(ctx context.Context, profileID string) (*model.TranslatorProfile, error)
	Update(ctx context.Context, tp *model.TranslatorProfile) error
	// ReplaceLanguagePairs 整体替换译员语言对
	ReplaceLanguagePairs(ctx context.Context, profileID string, pairs []model.TranslatorLanguagePair) error
	// ListEligible 具备 (source, target) 语言对且当前可接单的译员
	ListEligible(ctx context.Context, sourceID, targetID string) ([]EligibleTranslator, error)
	// IsEligible 单个译员是否满足 ListEligible 的条件
	IsEligible(ctx context.Context, profileID, sourceID, targetID string) (bool, error)
}

type translatorRepo struct {
	db *gorm.DB
	sq sq.StatementBuilderType
}

// NewTranslatorRepo 创建 TranslatorRepository 实例
func NewTranslatorRepo(db *gorm.DB) TranslatorRepository {
	return &translatorRepo{db: db, sq: sq.StatementBuilder}
}

func (r *translatorRepo) Create(ctx context.Context, tp *model.TranslatorProfile) error {
	return r.db.WithContext(ctx).Omit("Profile", "LanguagePairs").Create(tp).Error
}

func (r *translatorRepo) GetCapability(ctx context.Context, profileID string) (*model.TranslatorProfile, error) {
	var tp model.TranslatorProfile
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Preload("LanguagePairs").
		Preload("LanguagePairs.SourceLanguage").
		Preload("LanguagePairs.TargetLanguage").
		Where("profile_id = ?", profileID).
		First(&tp).Error
	if err != nil {
		return nil, err
	}
	return &tp, nil
}

func (r *translatorRepo) Update(ctx context.Context, tp *model.TranslatorProfile) error {
	result := r.db.WithContext(ctx).
		Model(&model.TranslatorProfile{}).
		Where("profile_id = ?", tp.ProfileID).
		Updates(map[string]interface{}{
			"bio":          tp.Bio,
			"hourly_rate":  tp.HourlyRate,
			"is_available": tp.IsAvailable,
			"updated_at":   gorm.Expr("now()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *translatorRepo) ReplaceLanguagePairs(ctx context.Context, profileID string, pairs []model.TranslatorLanguagePair) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("translator_id = ?", profileID).Delete(&model.TranslatorLanguagePair{}).Error; err != nil {
		return err
	}
	if len(pairs) == 0 {
		return nil
	}
	for i := range pairs {
		pairs[i].TranslatorID = profileID
	}
	return db.Omit("SourceLanguage", "TargetLanguage").Create(&pairs).Error
}

// eligibleBase 可接单且具备指定语言对的译员
func (r *translatorRepo) eligibleBase(columns ...string) sq.SelectBuilder {
	return r.sq.Select(columns...).
		From("translator_profiles tp").
		Join("profiles p ON p.id = tp.profile_id").
		Join("translator_language_pairs lp ON lp.translator_id = tp.profile_id").
		Where(sq.Eq{"tp.is_available": true})
}

func (r *translatorRepo) ListEligible(ctx context.Context, sourceID, targetID string) ([]EligibleTranslator, error) {
	query, args, err := r.eligibleBase(
		"tp.profile_id AS translator_id",
		"p.full_name",
		"p.avatar_url",
		"tp.bio",
		"tp.hourly_rate",
		"lp.proficiency_level",
	).
		Where(sq.Eq{"lp.source_language_id": sourceID, "lp.target_language_id": targetID}).
		OrderBy("tp.created_at ASC", "tp.profile_id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []EligibleTranslator
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *translatorRepo) IsEligible(ctx context.Context, profileID, sourceID, targetID string) (bool, error) {
	query, args, err := r.eligibleBase("COUNT(*)").
		Where(sq.Eq{
			"tp.profile_id":         profileID,
			"lp.source_language_id": sourceID,
			"lp.target_language_id": targetID,
		}).
		ToSql()
	if err != nil {
		return false, err
	}

	var n int64
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
