package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jlayese/translator-service-application/internal/model"
)

// RatingStats 评分聚合结果
type RatingStats struct {
	Average *float64
	Count   int64
}

// AssignmentRepository 申请/指派数据访问接口
type AssignmentRepository interface {
	Create(ctx context.Context, a *model.TranslationAssignment) error
	GetByID(ctx context.Context, id string) (*model.TranslationAssignment, error)
	// FindActive 同一译员对同一需求未被拒绝的申请
	FindActive(ctx context.Context, requestID, translatorID string) (*model.TranslationAssignment, error)
	// CompareAndSwapStatus 仅当当前状态为 from 时改为 to；accepted/completed 同时写入对应时间戳
	CompareAndSwapStatus(ctx context.Context, id string, from, to model.AssignmentStatus, at time.Time) (bool, error)
	// RejectPendingSiblings 将同一需求下除 exceptID 外的 pending 申请全部拒绝
	RejectPendingSiblings(ctx context.Context, requestID, exceptID string, at time.Time) (int64, error)
	// CancelByRequest 将需求下状态为 from 的申请全部取消
	CancelByRequest(ctx context.Context, requestID string, from model.AssignmentStatus, at time.Time) (int64, error)
	// SaveRating 只写评价方自己的评分列；申请须处于 accepted
	SaveRating(ctx context.Context, id string, role model.UserType, rating int, review *string, at time.Time) (bool, error)
	ListByRequest(ctx context.Context, requestID string) ([]model.TranslationAssignment, error)
	ListByTranslator(ctx context.Context, translatorID string, statuses []model.AssignmentStatus, offset, limit int) ([]model.TranslationAssignment, int64, error)
	// ListOverdue 单方评价时间早于 cutoff 仍未完成的申请
	ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]model.TranslationAssignment, error)
	CountByRequests(ctx context.Context, requestIDs []string) (map[string]int, error)
	// TranslatorRatingStats 译员口碑：已完成申请上客户评分的均值
	TranslatorRatingStats(ctx context.Context, translatorIDs []string) (map[string]RatingStats, error)
	// ClientRatingStats 客户口碑：其需求下已完成申请上译员评分的均值
	ClientRatingStats(ctx context.Context, clientID string) (RatingStats, error)
}

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, a *model.TranslationAssignment) error {
	return r.db.WithContext(ctx).Omit("Request", "Translator").Create(a).Error
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.TranslationAssignment, error) {
	var a model.TranslationAssignment
	err := r.db.WithContext(ctx).
		Preload("Request").
		Preload("Translator").
		Where("id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) FindActive(ctx context.Context, requestID, translatorID string) (*model.TranslationAssignment, error) {
	var a model.TranslationAssignment
	err := r.db.WithContext(ctx).
		Where("request_id = ? AND translator_id = ? AND status IN ?", requestID, translatorID, model.ReapplyBlockingStatuses()).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) CompareAndSwapStatus(ctx context.Context, id string, from, to model.AssignmentStatus, at time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": at,
		"version":    gorm.Expr("version + 1"),
	}
	switch to {
	case model.AssignmentStatusAccepted:
		updates["accepted_at"] = at
	case model.AssignmentStatusCompleted:
		updates["completed_at"] = at
	}

	result := r.db.WithContext(ctx).
		Model(&model.TranslationAssignment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *assignmentRepo) RejectPendingSiblings(ctx context.Context, requestID, exceptID string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.TranslationAssignment{}).
		Where("request_id = ? AND id <> ? AND status = ?", requestID, exceptID, model.AssignmentStatusPending).
		Updates(map[string]interface{}{
			"status":     model.AssignmentStatusRejected,
			"updated_at": at,
			"version":    gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

func (r *assignmentRepo) CancelByRequest(ctx context.Context, requestID string, from model.AssignmentStatus, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.TranslationAssignment{}).
		Where("request_id = ? AND status = ?", requestID, from).
		Updates(map[string]interface{}{
			"status":     model.AssignmentStatusCancelled,
			"updated_at": at,
			"version":    gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

func (r *assignmentRepo) SaveRating(ctx context.Context, id string, role model.UserType, rating int, review *string, at time.Time) (bool, error) {
	ratingCol, reviewCol := "client_rating", "client_review"
	if role == model.UserTypeTranslator {
		ratingCol, reviewCol = "translator_rating", "translator_review"
	}

	result := r.db.WithContext(ctx).
		Model(&model.TranslationAssignment{}).
		Where("id = ? AND status = ?", id, model.AssignmentStatusAccepted).
		Updates(map[string]interface{}{
			ratingCol:        rating,
			reviewCol:        review,
			"first_rated_at": gorm.Expr("COALESCE(first_rated_at, ?)", at),
			"updated_at":     at,
			"version":        gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *assignmentRepo) ListByRequest(ctx context.Context, requestID string) ([]model.TranslationAssignment, error) {
	var list []model.TranslationAssignment
	err := r.db.WithContext(ctx).
		Preload("Translator").
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *assignmentRepo) ListByTranslator(ctx context.Context, translatorID string, statuses []model.AssignmentStatus, offset, limit int) ([]model.TranslationAssignment, int64, error) {
	var list []model.TranslationAssignment
	var total int64

	db := r.db.WithContext(ctx).Model(&model.TranslationAssignment{}).Where("translator_id = ?", translatorID)
	if len(statuses) > 0 {
		db = db.Where("status IN ?", statuses)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Preload("Request").
		Preload("Request.SourceLanguage").
		Preload("Request.TargetLanguage").
		Order("created_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *assignmentRepo) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]model.TranslationAssignment, error) {
	var list []model.TranslationAssignment
	q := r.db.WithContext(ctx).
		Preload("Request").
		Where("status = ? AND first_rated_at IS NOT NULL AND first_rated_at <= ?", model.AssignmentStatusAccepted, cutoff).
		Order("first_rated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&list).Error
	return list, err
}

func (r *assignmentRepo) CountByRequests(ctx context.Context, requestIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(requestIDs))
	if len(requestIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		RequestID string
		N         int
	}
	err := r.db.WithContext(ctx).
		Model(&model.TranslationAssignment{}).
		Select("request_id, COUNT(*) AS n").
		Where("request_id IN ?", requestIDs).
		Group("request_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.RequestID] = row.N
	}
	return counts, nil
}

func (r *assignmentRepo) TranslatorRatingStats(ctx context.Context, translatorIDs []string) (map[string]RatingStats, error) {
	stats := make(map[string]RatingStats, len(translatorIDs))
	if len(translatorIDs) == 0 {
		return stats, nil
	}

	var rows []struct {
		TranslatorID string
		Average      *float64
		Count        int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.TranslationAssignment{}).
		Select("translator_id, AVG(client_rating)::float8 AS average, COUNT(client_rating) AS count").
		Where("translator_id IN ? AND status = ? AND client_rating IS NOT NULL", translatorIDs, model.AssignmentStatusCompleted).
		Group("translator_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats[row.TranslatorID] = RatingStats{Average: row.Average, Count: row.Count}
	}
	return stats, nil
}

func (r *assignmentRepo) ClientRatingStats(ctx context.Context, clientID string) (RatingStats, error) {
	var row struct {
		Average *float64
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Table("translation_assignments a").
		Select("AVG(a.translator_rating)::float8 AS average, COUNT(a.translator_rating) AS count").
		Joins("JOIN translation_requests r ON r.id = a.request_id").
		Where("r.client_id = ? AND a.status = ? AND a.translator_rating IS NOT NULL", clientID, model.AssignmentStatusCompleted).
		Scan(&row).Error
	if err != nil {
		return RatingStats{}, err
	}
	return RatingStats{Average: row.Average, Count: row.Count}, nil
}
