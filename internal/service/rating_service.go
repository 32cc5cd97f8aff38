package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jlayese/translator-service-application/internal/dto"
	"github.com/jlayese/translator-service-application/internal/model"
	"github.com/jlayese/translator-service-application/internal/repository"
	pkgerrors "github.com/jlayese/translator-service-application/pkg/errors"
)

const (
	maxReviewLength    = 2000
	finalizeBatchLimit = 200
)

// 完成触发方式
const (
	triggerBothRated   = "both_rated"
	triggerGracePeriod = "grace_period"
)

// RatingService 双向评价与口碑业务接口
type RatingService interface {
	// CompleteAssignment 提交评价；评价方角色取自登录身份，重复提交只覆盖自己一侧
	// 双方都评价后申请与需求各完成一次
	CompleteAssignment(ctx context.Context, assignmentID string, req *dto.SubmitRatingRequest, actor Actor) (*dto.RatingResponse, error)
	// FinalizeOverdue 宽限期到期的单方评价申请直接完成，返回完成数量
	// 每条申请独立超时；任一条失败时在处理完其余申请后返回汇总错误
	FinalizeOverdue(ctx context.Context, now time.Time) (int, error)
	// TranslatorReputation 客户评分均值，读取时计算
	TranslatorReputation(ctx context.Context, translatorID string) (*dto.ReputationResponse, error)
	// ClientReputation 译员评分均值，读取时计算
	ClientReputation(ctx context.Context, clientID string) (*dto.ReputationResponse, error)
}

type ratingService struct {
	repo        *repository.Repository
	gracePeriod time.Duration
	timeout     time.Duration
	logger      *zap.Logger
}

// NewRatingService 创建 RatingService 实例；gracePeriod 为 0 时必须双方都评价
func NewRatingService(repo *repository.Repository, gracePeriod, timeout time.Duration, logger *zap.Logger) RatingService {
	return &ratingService{repo: repo, gracePeriod: gracePeriod, timeout: timeout, logger: logger}
}

func (s *ratingService) CompleteAssignment(ctx context.Context, assignmentID string, req *dto.SubmitRatingRequest, actor Actor) (*dto.RatingResponse, error) {
	v := &pkgerrors.ValidationError{}
	if req.Rating < model.MinRating || req.Rating > model.MaxRating {
		v.Add("rating", fmt.Sprintf("必须在 %d-%d 之间", model.MinRating, model.MaxRating))
	}
	if req.Review != nil && utf8.RuneCountInString(*req.Review) > maxReviewLength {
		v.Add("review", fmt.Sprintf("不能超过 %d 字", maxReviewLength))
	}
	if !actor.UserType.Valid() {
		v.Add("rater_role", "未知的评价方角色")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	a, err := s.get(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.Request == nil {
		return nil, ErrRequestNotFound
	}

	// 评价方必须是该申请对应的客户或译员
	switch actor.UserType {
	case model.UserTypeClient:
		if a.Request.ClientID != actor.ProfileID {
			return nil, forbidden("assignment", string(a.Status), string(model.AssignmentStatusCompleted))
		}
	case model.UserTypeTranslator:
		if a.TranslatorID != actor.ProfileID {
			return nil, forbidden("assignment", string(a.Status), string(model.AssignmentStatusCompleted))
		}
	}

	if a.Status != model.AssignmentStatusAccepted {
		return nil, pkgerrors.NewTransitionError("assignment", string(a.Status), string(model.AssignmentStatusCompleted))
	}
	if a.Request.Status != model.RequestStatusInProgress {
		return nil, pkgerrors.NewTransitionError("request", string(a.Request.Status), string(model.RequestStatusCompleted))
	}

	ok, err := s.repo.Assignment.SaveRating(ctx, assignmentID, actor.UserType, req.Rating, req.Review, time.Now())
	if err != nil {
		return nil, storageError(s.logger, "保存评价失败", err)
	}
	if !ok {
		// 评价期间申请已离开 accepted
		cur, err := s.get(ctx, assignmentID)
		if err != nil {
			return nil, err
		}
		return nil, pkgerrors.NewTransitionError("assignment", string(cur.Status), string(model.AssignmentStatusCompleted))
	}
	ratingsSubmitted.WithLabelValues(string(actor.UserType)).Inc()

	a, err = s.get(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	completed := false
	if a.BothRated() {
		completed, err = s.finalize(ctx, a, triggerBothRated)
		if err != nil {
			return nil, err
		}
		if completed {
			if a, err = s.get(ctx, assignmentID); err != nil {
				return nil, err
			}
		}
	}

	return &dto.RatingResponse{Assignment: toAssignmentResponse(a), Completed: completed}, nil
}

// finalize 申请 accepted → completed；条件更新的胜者负责把需求 in_progress → completed
// 两次更新在同一事务内，返回本次调用是否完成了申请
func (s *ratingService) finalize(ctx context.Context, a *model.TranslationAssignment, trigger string) (bool, error) {
	won := false
	now := time.Now()
	err := s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := casAssignment(ctx, tx, a.AssignmentID, model.AssignmentStatusAccepted, model.AssignmentStatusCompleted, now); err != nil {
			if missedTerminal(err) {
				return nil // 另一方已完成
			}
			return err
		}
		if err := casRequest(ctx, tx, a.RequestID, model.RequestStatusInProgress, model.RequestStatusCompleted, now); err != nil {
			return err
		}
		won = true
		return nil
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrInvalidTransition) || errors.Is(err, pkgerrors.ErrNotFound) {
			return false, err
		}
		return false, storageError(s.logger, "完成申请失败", err)
	}

	if won {
		assignmentsCompleted.WithLabelValues(trigger).Inc()
		s.logger.Info("申请已完成",
			zap.String("assignment_id", a.AssignmentID),
			zap.String("request_id", a.RequestID),
			zap.String("trigger", trigger),
		)
	}
	return won, nil
}

func (s *ratingService) FinalizeOverdue(ctx context.Context, now time.Time) (int, error) {
	if s.gracePeriod <= 0 {
		return 0, nil
	}

	listCtx, cancel := withTimeout(ctx, s.timeout)
	list, err := s.repo.Assignment.ListOverdue(listCtx, now.Add(-s.gracePeriod), finalizeBatchLimit)
	cancel()
	if err != nil {
		return 0, storageError(s.logger, "查询超期申请失败", err)
	}

	// 每条申请单独计时，单条失败或超时不影响其余申请
	done, failed := 0, 0
	var firstErr error
	for i := range list {
		a := &list[i]
		ok, err := s.finalizeOne(ctx, a)
		if err != nil {
			s.logger.Warn("超期申请完成失败", zap.String("assignment_id", a.AssignmentID), zap.Error(err))
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			done++
		}
	}
	if failed > 0 {
		return done, fmt.Errorf("%d/%d 条超期申请完成失败: %w", failed, len(list), firstErr)
	}
	return done, nil
}

func (s *ratingService) finalizeOne(ctx context.Context, a *model.TranslationAssignment) (bool, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.finalize(ctx, a, triggerGracePeriod)
}

func (s *ratingService) TranslatorReputation(ctx context.Context, translatorID string) (*dto.ReputationResponse, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	stats, err := s.repo.Assignment.TranslatorRatingStats(ctx, []string{translatorID})
	if err != nil {
		return nil, storageError(s.logger, "查询译员口碑失败", err)
	}
	resp := toReputation(stats[translatorID])
	return &resp, nil
}

func (s *ratingService) ClientReputation(ctx context.Context, clientID string) (*dto.ReputationResponse, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	stats, err := s.repo.Assignment.ClientRatingStats(ctx, clientID)
	if err != nil {
		return nil, storageError(s.logger, "查询客户口碑失败", err)
	}
	resp := toReputation(stats)
	return &resp, nil
}

func (s *ratingService) get(ctx context.Context, id string) (*model.TranslationAssignment, error) {
	a, err := s.repo.Assignment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, storageError(s.logger, "查询申请失败", err)
	}
	return a, nil
}
