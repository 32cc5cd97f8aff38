package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User       UserRepository
	Profile    ProfileRepository
	Translator TranslatorRepository
	Language   LanguageRepository
	Request    RequestRepository
	Assignment AssignmentRepository

	// Tx 将多个仓储操作组合进同一个数据库事务
	Tx Transactor
}

// Transactor 事务执行器
// fn 收到的 Repository 绑定在事务连接上；fn 返回错误时整体回滚
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *Repository) error) error
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:       NewUserRepo(db),
		Profile:    NewProfileRepo(db),
		Translator: NewTranslatorRepo(db),
		Language:   NewLanguageRepo(db),
		Request:    NewRequestRepo(db),
		Assignment: NewAssignmentRepo(db),
		Tx:         &gormTransactor{db: db},
	}
}

// gormTransactor Transactor 的 GORM 实现
type gormTransactor struct {
	db *gorm.DB
}

func (t *gormTransactor) WithinTx(ctx context.Context, fn func(tx *Repository) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
