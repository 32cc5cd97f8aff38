package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jlayese/translator-service-application/internal/model"
)

// LanguageRepository 语言字典只读接口
type LanguageRepository interface {
	List(ctx context.Context) ([]model.Language, error)
	GetByID(ctx context.Context, id string) (*model.Language, error)
	GetByCode(ctx context.Context, code string) (*model.Language, error)
}

type languageRepo struct {
	db *gorm.DB
}

// NewLanguageRepo 创建 LanguageRepository 实例
func NewLanguageRepo(db *gorm.DB) LanguageRepository {
	return &languageRepo{db: db}
}

func (r *languageRepo) List(ctx context.Context) ([]model.Language, error) {
	var langs []model.Language
	err := r.db.WithContext(ctx).Order("name ASC").Find(&langs).Error
	return langs, err
}

func (r *languageRepo) GetByID(ctx context.Context, id string) (*model.Language, error) {
	var lang model.Language
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&lang).Error; err != nil {
		return nil, err
	}
	return &lang, nil
}

func (r *languageRepo) GetByCode(ctx context.Context, code string) (*model.Language, error) {
	var lang model.Language
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&lang).Error; err != nil {
		return nil, err
	}
	return &lang, nil
}
