package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jlayese/translator-service-application/internal/model"
	"github.com/jlayese/translator-service-application/internal/repository"
	pkgerrors "github.com/jlayese/translator-service-application/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// 状态写入
// ═══════════════════════════════════════════════════════════
//
// 需求与申请的每一次状态写入都经过这里：先查转移表，再做条件更新。
// 未命中时重新读取当前状态并返回 TransitionError，不自动重试。

// casRequest 经转移表校验的条件更新；未命中时按当前状态返回 TransitionError
func casRequest(ctx context.Context, repo *repository.Repository, id string, from, to model.RequestStatus, at time.Time) error {
	if !from.CanTransitionTo(to) {
		return pkgerrors.NewTransitionError("request", string(from), string(to))
	}
	ok, err := repo.Request.CompareAndSwapStatus(ctx, id, from, to, at)
	if err != nil {
		return err
	}
	if !ok {
		cur, err := repo.Request.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		return pkgerrors.NewTransitionError("request", string(cur.Status), string(to))
	}
	requestTransitions.WithLabelValues(string(from), string(to)).Inc()
	return nil
}

// checkAssignmentEdge 申请状态转移表校验
func checkAssignmentEdge(from, to model.AssignmentStatus) error {
	if !from.CanTransitionTo(to) {
		return pkgerrors.NewTransitionError("assignment", string(from), string(to))
	}
	return nil
}

// casAssignment 申请的条件更新，语义同 casRequest
func casAssignment(ctx context.Context, repo *repository.Repository, id string, from, to model.AssignmentStatus, at time.Time) error {
	if err := checkAssignmentEdge(from, to); err != nil {
		return err
	}
	ok, err := repo.Assignment.CompareAndSwapStatus(ctx, id, from, to, at)
	if err != nil {
		return err
	}
	if !ok {
		cur, err := repo.Assignment.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAssignmentNotFound
			}
			return err
		}
		return pkgerrors.NewTransitionError("assignment", string(cur.Status), string(to))
	}
	return nil
}

// rejectPendingSiblings 同一需求下除 exceptID 外的 pending 申请 → rejected
func rejectPendingSiblings(ctx context.Context, repo *repository.Repository, requestID, exceptID string, at time.Time) (int64, error) {
	if err := checkAssignmentEdge(model.AssignmentStatusPending, model.AssignmentStatusRejected); err != nil {
		return 0, err
	}
	return repo.Assignment.RejectPendingSiblings(ctx, requestID, exceptID, at)
}

// cancelAssignments 需求下状态为 from 的申请 → cancelled
func cancelAssignments(ctx context.Context, repo *repository.Repository, requestID string, from model.AssignmentStatus, at time.Time) (int64, error) {
	if err := checkAssignmentEdge(from, model.AssignmentStatusCancelled); err != nil {
		return 0, err
	}
	return repo.Assignment.CancelByRequest(ctx, requestID, from, at)
}

// lostToAssignment 需求条件更新未命中且需求已被其他申请指派
func lostToAssignment(err error) bool {
	var te *pkgerrors.TransitionError
	return errors.As(err, &te) && te.Entity == "request" && model.RequestStatus(te.From).Assigned()
}

// missedTerminal 条件更新未命中且申请已处于终态（被另一方抢先完成或已取消）
func missedTerminal(err error) bool {
	var te *pkgerrors.TransitionError
	return errors.As(err, &te) && te.Entity == "assignment" && model.AssignmentStatus(te.From).Terminal()
}
