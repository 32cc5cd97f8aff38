package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jlayese/translator-service-application/config"
	"github.com/jlayese/translator-service-application/internal/dto"
	"github.com/jlayese/translator-service-application/internal/model"
	"github.com/jlayese/translator-service-application/internal/repository"
	pkgerrors "github.com/jlayese/translator-service-application/pkg/errors"
)

var ErrAssignmentNotFound = fmt.Errorf("申请不存在: %w", pkgerrors.ErrNotFound)

// MatchingService 申请与匹配业务接口
type MatchingService interface {
	// ListEligibleTranslators 具备需求语言对且可接单的译员，纯读
	ListEligibleTranslators(ctx context.Context, requestID string, actor Actor) ([]dto.EligibleTranslatorResponse, error)
	// Apply 译员申请需求，资格在调用时重新校验
	Apply(ctx context.Context, requestID string, actor Actor) (*dto.AssignmentResponse, error)
	// Accept 客户接受申请；并发接受同一需求的不同申请时只有一个成功
	Accept(ctx context.Context, assignmentID string, actor Actor) (*dto.AcceptResponse, error)
	// StartWork 已接受的译员或需求所有者开始工作
	StartWork(ctx context.Context, assignmentID string, actor Actor) (*dto.AssignmentResponse, error)
	ListApplications(ctx context.Context, requestID string, actor Actor) ([]dto.AssignmentResponse, error)
	ListMyAssignments(ctx context.Context, req *dto.PaginationRequest, actor Actor) ([]dto.AssignmentResponse, int64, error)
}

type matchingService struct {
	repo     *repository.Repository
	requests RequestService
	ranking  string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewMatchingService 创建 MatchingService 实例
// ranking 只影响列表展示顺序，接受操作始终先到先得
func NewMatchingService(repo *repository.Repository, requests RequestService, ranking string, timeout time.Duration, logger *zap.Logger) MatchingService {
	return &matchingService{repo: repo, requests: requests, ranking: ranking, timeout: timeout, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ListEligibleTranslators
// ═══════════════════════════════════════════════════════════

func (s *matchingService) ListEligibleTranslators(ctx context.Context, requestID string, actor Actor) ([]dto.EligibleTranslatorResponse, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ClientID != actor.ProfileID {
		return nil, pkgerrors.ErrForbidden
	}

	rows, err := s.repo.Translator.ListEligible(ctx, req.SourceLanguageID, req.TargetLanguageID)
	if err != nil {
		return nil, storageError(s.logger, "查询候选译员失败", err)
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.TranslatorID)
	}
	stats, err := s.repo.Assignment.TranslatorRatingStats(ctx, ids)
	if err != nil {
		return nil, storageError(s.logger, "查询译员口碑失败", err)
	}

	result := make([]dto.EligibleTranslatorResponse, 0, len(rows))
	for _, r := range rows {
		result = append(result, dto.EligibleTranslatorResponse{
			TranslatorID: r.TranslatorID,
			FullName:     r.FullName,
			AvatarURL:    r.AvatarURL,
			Bio:          r.Bio,
			HourlyRate:   r.HourlyRate,
			Proficiency:  r.ProficiencyLevel,
			Reputation:   toReputation(stats[r.TranslatorID]),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return s.less(result[i].Reputation, result[i].HourlyRate, result[j].Reputation, result[j].HourlyRate)
	})
	return result, nil
}

// less 按配置的排序策略比较；applied_at 保持查询顺序
func (s *matchingService) less(ri dto.ReputationResponse, rateI *float64, rj dto.ReputationResponse, rateJ *float64) bool {
	switch s.ranking {
	case config.RankingRating:
		return nilLast(ri.Average, rj.Average, func(a, b float64) bool { return a > b })
	case config.RankingRate:
		return nilLast(rateI, rateJ, func(a, b float64) bool { return a < b })
	}
	return false
}

// nilLast 空值排在最后
func nilLast(a, b *float64, less func(a, b float64) bool) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	}
	return less(*a, *b)
}

// ═══════════════════════════════════════════════════════════
// Apply
// ═══════════════════════════════════════════════════════════

func (s *matchingService) Apply(ctx context.Context, requestID string, actor Actor) (*dto.AssignmentResponse, error) {
	if !actor.IsTranslator() {
		return nil, pkgerrors.ErrForbidden
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != model.RequestStatusPending {
		applicationsTotal.WithLabelValues("invalid").Inc()
		return nil, pkgerrors.NewTransitionError("request", string(req.Status), "apply")
	}

	// 资格在申请时重新校验，不使用任何缓存
	eligible, err := s.repo.Translator.IsEligible(ctx, actor.ProfileID, req.SourceLanguageID, req.TargetLanguageID)
	if err != nil {
		return nil, storageError(s.logger, "校验译员资格失败", err)
	}
	if !eligible {
		applicationsTotal.WithLabelValues("ineligible").Inc()
		return nil, pkgerrors.ErrIneligibleTranslator
	}

	// 需求行持共享锁直到提交：并发的 Accept/Cancel 要么先提交（此处读到非 pending），
	// 要么等本事务提交后才能改状态，随后其批量拒绝/取消会覆盖这条新申请
	a := &model.TranslationAssignment{
		RequestID:    requestID,
		TranslatorID: actor.ProfileID,
		Status:       model.AssignmentStatusPending,
	}
	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		locked, err := tx.Request.LockShared(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if locked.Status != model.RequestStatusPending {
			return pkgerrors.NewTransitionError("request", string(locked.Status), "apply")
		}

		if _, err := tx.Assignment.FindActive(ctx, requestID, actor.ProfileID); err == nil {
			return pkgerrors.ErrDuplicateApplication
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Assignment.Create(ctx, a)
	})
	if err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrInvalidTransition):
			applicationsTotal.WithLabelValues("invalid").Inc()
			return nil, err
		case errors.Is(err, pkgerrors.ErrNotFound):
			return nil, err
		case errors.Is(err, pkgerrors.ErrDuplicateApplication):
			applicationsTotal.WithLabelValues("duplicate").Inc()
			return nil, err
		}
		err = storageError(s.logger, "创建申请失败", err)
		// 并发重复申请由唯一索引兜底
		if errors.Is(err, pkgerrors.ErrDuplicate) {
			applicationsTotal.WithLabelValues("duplicate").Inc()
			return nil, pkgerrors.ErrDuplicateApplication
		}
		return nil, err
	}

	applicationsTotal.WithLabelValues("created").Inc()
	s.logger.Info("译员已申请",
		zap.String("request_id", requestID),
		zap.String("translator_id", actor.ProfileID),
		zap.String("assignment_id", a.AssignmentID),
	)

	resp := toAssignmentResponse(a)
	return &resp, nil
}

// ═══════════════════════════════════════════════════════════
// Accept
// ═══════════════════════════════════════════════════════════
//
// 单个事务内：
//  1. 需求 pending → matched 条件更新；未命中则重新读取：已被指派 → ErrAlreadyAssigned，否则 TransitionError
//  2. 申请 pending → accepted 条件更新；未命中则整体回滚
//  3. 同一需求其余 pending 申请 → rejected
//
// 不做应用层的先读后写，也不自动重试。

func (s *matchingService) Accept(ctx context.Context, assignmentID string, actor Actor) (*dto.AcceptResponse, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	a, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.Request == nil || a.Request.ClientID != actor.ProfileID {
		return nil, forbidden("assignment", string(a.Status), string(model.AssignmentStatusAccepted))
	}
	requestID := a.RequestID

	var rejected int64
	now := time.Now()
	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := casRequest(ctx, tx, requestID, model.RequestStatusPending, model.RequestStatusMatched, now); err != nil {
			if lostToAssignment(err) {
				return pkgerrors.ErrAlreadyAssigned
			}
			return err
		}

		if err := casAssignment(ctx, tx, assignmentID, model.AssignmentStatusPending, model.AssignmentStatusAccepted, now); err != nil {
			return err
		}

		rejected, err = rejectPendingSiblings(ctx, tx, requestID, assignmentID, now)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrAlreadyAssigned):
			acceptOutcomes.WithLabelValues("already_assigned").Inc()
			s.logger.Info("接受申请失败：需求已被指派",
				zap.String("request_id", requestID),
				zap.String("assignment_id", assignmentID),
			)
			return nil, err
		case errors.Is(err, pkgerrors.ErrInvalidTransition), errors.Is(err, pkgerrors.ErrNotFound):
			acceptOutcomes.WithLabelValues("invalid").Inc()
			return nil, err
		}
		acceptOutcomes.WithLabelValues("error").Inc()
		return nil, storageError(s.logger, "接受申请失败", err)
	}

	acceptOutcomes.WithLabelValues("won").Inc()
	s.logger.Info("申请已接受",
		zap.String("request_id", requestID),
		zap.String("assignment_id", assignmentID),
		zap.String("translator_id", a.TranslatorID),
		zap.Int64("rejected", rejected),
	)

	accepted, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return &dto.AcceptResponse{
		Request:    toRequestResponse(req),
		Assignment: toAssignmentResponse(accepted),
		Rejected:   rejected,
	}, nil
}

// ═══════════════════════════════════════════════════════════
// StartWork
// ═══════════════════════════════════════════════════════════

func (s *matchingService) StartWork(ctx context.Context, assignmentID string, actor Actor) (*dto.AssignmentResponse, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	a, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.TranslatorID != actor.ProfileID && (a.Request == nil || a.Request.ClientID != actor.ProfileID) {
		return nil, forbidden("request", requestStatusOf(a), string(model.RequestStatusInProgress))
	}
	if a.Status != model.AssignmentStatusAccepted {
		return nil, pkgerrors.NewTransitionError("assignment", string(a.Status), string(model.RequestStatusInProgress))
	}

	if err := s.requests.MarkInProgress(ctx, a.RequestID); err != nil {
		return nil, err
	}

	s.logger.Info("翻译工作已开始", zap.String("request_id", a.RequestID), zap.String("assignment_id", assignmentID))

	updated, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	resp := toAssignmentResponse(updated)
	return &resp, nil
}

// ═══════════════════════════════════════════════════════════
// 列表
// ═══════════════════════════════════════════════════════════

func (s *matchingService) ListApplications(ctx context.Context, requestID string, actor Actor) ([]dto.AssignmentResponse, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ClientID != actor.ProfileID {
		return nil, pkgerrors.ErrForbidden
	}

	list, err := s.repo.Assignment.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, storageError(s.logger, "查询申请列表失败", err)
	}

	ids := make([]string, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.TranslatorID)
	}
	stats, err := s.repo.Assignment.TranslatorRatingStats(ctx, ids)
	if err != nil {
		return nil, storageError(s.logger, "查询译员口碑失败", err)
	}

	var rates map[string]*float64
	if s.ranking == config.RankingRate {
		rates = make(map[string]*float64, len(ids))
		for _, id := range ids {
			tp, err := s.repo.Translator.GetCapability(ctx, id)
			if err == nil {
				rates[id] = tp.HourlyRate
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, storageError(s.logger, "查询译员能力失败", err)
			}
		}
	}

	sort.SliceStable(list, func(i, j int) bool {
		ti, tj := list[i].TranslatorID, list[j].TranslatorID
		return s.less(toReputation(stats[ti]), rates[ti], toReputation(stats[tj]), rates[tj])
	})

	result := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		result = append(result, toAssignmentResponse(&list[i]))
	}
	return result, nil
}

func (s *matchingService) ListMyAssignments(ctx context.Context, req *dto.PaginationRequest, actor Actor) ([]dto.AssignmentResponse, int64, error) {
	if !actor.IsTranslator() {
		return nil, 0, pkgerrors.ErrForbidden
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	list, total, err := s.repo.Assignment.ListByTranslator(ctx, actor.ProfileID, nil, req.GetOffset(), req.GetPageSize())
	if err != nil {
		return nil, 0, storageError(s.logger, "查询我的申请失败", err)
	}

	result := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		result = append(result, toAssignmentResponse(&list[i]))
	}
	return result, total, nil
}

// ── 辅助 ──

func (s *matchingService) getRequest(ctx context.Context, id string) (*model.TranslationRequest, error) {
	req, err := s.repo.Request.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, storageError(s.logger, "查询翻译需求失败", err)
	}
	return req, nil
}

func (s *matchingService) getAssignment(ctx context.Context, id string) (*model.TranslationAssignment, error) {
	a, err := s.repo.Assignment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, storageError(s.logger, "查询申请失败", err)
	}
	return a, nil
}

func requestStatusOf(a *model.TranslationAssignment) string {
	if a.Request == nil {
		return ""
	}
	return string(a.Request.Status)
}
