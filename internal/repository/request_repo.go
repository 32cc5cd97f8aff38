package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jlayese/translator-service-application/internal/model"
)

// OpenRequestFilter 待接单需求筛选条件
type OpenRequestFilter struct {
	RequestType      string
	SourceLanguageID string
	TargetLanguageID string
	// EligibleFor 非空时只返回该译员具备语言对的需求
	EligibleFor string
	Offset      int
	Limit       int
}

// RequestRepository 翻译需求数据访问接口
type RequestRepository interface {
	Create(ctx context.Context, req *model.TranslationRequest) error
	GetByID(ctx context.Context, id string) (*model.TranslationRequest, error)
	// LockShared 在事务内以 FOR SHARE 读取需求行，持锁期间其他事务无法修改其状态
	LockShared(ctx context.Context, id string) (*model.TranslationRequest, error)
	// CompareAndSwapStatus 仅当当前状态为 from 时改为 to，返回是否命中
	CompareAndSwapStatus(ctx context.Context, id string, from, to model.RequestStatus, at time.Time) (bool, error)
	ListByClient(ctx context.Context, clientID string, status model.RequestStatus, offset, limit int) ([]model.TranslationRequest, int64, error)
	ListOpen(ctx context.Context, filter OpenRequestFilter) ([]model.TranslationRequest, int64, error)
}

type requestRepo struct {
	db *gorm.DB
}

// NewRequestRepo 创建 RequestRepository 实例
func NewRequestRepo(db *gorm.DB) RequestRepository {
	return &requestRepo{db: db}
}

func (r *requestRepo) Create(ctx context.Context, req *model.TranslationRequest) error {
	return r.db.WithContext(ctx).
		Omit("Client", "SourceLanguage", "TargetLanguage", "Assignments").
		Create(req).Error
}

func (r *requestRepo) GetByID(ctx context.Context, id string) (*model.TranslationRequest, error) {
	var req model.TranslationRequest
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("SourceLanguage").
		Preload("TargetLanguage").
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) LockShared(ctx context.Context, id string) (*model.TranslationRequest, error) {
	var req model.TranslationRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) CompareAndSwapStatus(ctx context.Context, id string, from, to model.RequestStatus, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.TranslationRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": at,
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *requestRepo) ListByClient(ctx context.Context, clientID string, status model.RequestStatus, offset, limit int) ([]model.TranslationRequest, int64, error) {
	var reqs []model.TranslationRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.TranslationRequest{}).Where("client_id = ?", clientID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Preload("SourceLanguage").Preload("TargetLanguage").Order("created_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&reqs).Error; err != nil {
		return nil, 0, err
	}

	return reqs, total, nil
}

// openCondition 组装待接单需求的筛选条件
func openCondition(f OpenRequestFilter) sq.And {
	cond := sq.And{sq.Eq{"status": model.RequestStatusPending}}
	if f.RequestType != "" {
		cond = append(cond, sq.Eq{"request_type": f.RequestType})
	}
	if f.SourceLanguageID != "" {
		cond = append(cond, sq.Eq{"source_language_id": f.SourceLanguageID})
	}
	if f.TargetLanguageID != "" {
		cond = append(cond, sq.Eq{"target_language_id": f.TargetLanguageID})
	}
	if f.EligibleFor != "" {
		cond = append(cond, sq.Expr(
			`EXISTS (SELECT 1 FROM translator_language_pairs lp
			WHERE lp.translator_id = ?
			AND lp.source_language_id = translation_requests.source_language_id
			AND lp.target_language_id = translation_requests.target_language_id)`,
			f.EligibleFor,
		))
	}
	return cond
}

func (r *requestRepo) ListOpen(ctx context.Context, filter OpenRequestFilter) ([]model.TranslationRequest, int64, error) {
	where, args, err := openCondition(filter).ToSql()
	if err != nil {
		return nil, 0, err
	}

	var reqs []model.TranslationRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.TranslationRequest{}).Where(where, args...)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Preload("Client").Preload("SourceLanguage").Preload("TargetLanguage").Order("created_at DESC")
	if filter.Limit > 0 {
		q = q.Offset(filter.Offset).Limit(filter.Limit)
	}
	if err := q.Find(&reqs).Error; err != nil {
		return nil, 0, err
	}

	return reqs, total, nil
}
