package service

import (
	"context"
	"errors"
	"fmt"
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

// ── 需求模块业务错误 ──

var ErrRequestNotFound = fmt.Errorf("翻译需求不存在: %w", pkgerrors.ErrNotFound)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
	maxDurationHours     = 24
)

// RequestService 翻译需求生命周期业务接口
//
//	draft → pending → matched → in_progress → completed
//	cancelled 只能从 pending 或 matched 进入
type RequestService interface {
	// CreateRequest 校验全部字段，一次返回所有违规
	CreateRequest(ctx context.Context, req *dto.CreateRequestRequest, actor Actor) (*dto.RequestResponse, error)
	// SubmitDraft 草稿提交为 pending
	SubmitDraft(ctx context.Context, requestID string, actor Actor) (*dto.RequestResponse, error)
	// CancelRequest 取消需求并级联取消其申请
	CancelRequest(ctx context.Context, requestID string, actor Actor) (*dto.RequestResponse, error)
	// MarkInProgress matched → in_progress，由匹配引擎调用
	MarkInProgress(ctx context.Context, requestID string) error
	// MarkCompleted in_progress → completed，由评价模块调用
	MarkCompleted(ctx context.Context, requestID string) error
	GetRequest(ctx context.Context, requestID string, actor Actor) (*dto.RequestResponse, error)
	ListMyRequests(ctx context.Context, req *dto.ListMyRequestsRequest, actor Actor) ([]dto.RequestResponse, int64, error)
	ListOpenRequests(ctx context.Context, req *dto.ListOpenRequestsRequest, actor Actor) ([]dto.RequestResponse, int64, error)
}

type requestService struct {
	repo    *repository.Repository
	timeout time.Duration
	logger  *zap.Logger
}

// NewRequestService 创建 RequestService 实例
func NewRequestService(repo *repository.Repository, timeout time.Duration, logger *zap.Logger) RequestService {
	return &requestService{repo: repo, timeout: timeout, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// CreateRequest
// ═══════════════════════════════════════════════════════════

func (s *requestService) CreateRequest(ctx context.Context, req *dto.CreateRequestRequest, actor Actor) (*dto.RequestResponse, error) {
	if !actor.IsClient() {
		return nil, pkgerrors.ErrForbidden
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	entity, err := s.validateCreate(ctx, req)
	if err != nil {
		return nil, err
	}
	entity.ClientID = actor.ProfileID
	entity.Status = model.RequestStatusPending
	if req.SaveAsDraft {
		entity.Status = model.RequestStatusDraft
	}

	if err := s.repo.Request.Create(ctx, entity); err != nil {
		return nil, storageError(s.logger, "创建翻译需求失败", err)
	}

	s.logger.Info("翻译需求已创建",
		zap.String("request_id", entity.RequestID),
		zap.String("client_id", entity.ClientID),
		zap.String("status", string(entity.Status)),
	)
	return s.load(ctx, entity.RequestID)
}

// validateCreate 收集全部违规字段后统一返回
func (s *requestService) validateCreate(ctx context.Context, req *dto.CreateRequestRequest) (*model.TranslationRequest, error) {
	v := &pkgerrors.ValidationError{}

	title := strings.TrimSpace(req.Title)
	switch {
	case title == "":
		v.Add("title", "不能为空")
	case utf8.RuneCountInString(title) > maxTitleLength:
		v.Add("title", fmt.Sprintf("不能超过 %d 字", maxTitleLength))
	}
	if req.Description != nil && utf8.RuneCountInString(*req.Description) > maxDescriptionLength {
		v.Add("description", fmt.Sprintf("不能超过 %d 字", maxDescriptionLength))
	}

	// 语言对
	for _, f := range []struct{ name, id string }{
		{"source_language_id", req.SourceLanguageID},
		{"target_language_id", req.TargetLanguageID},
	} {
		if f.id == "" {
			v.Add(f.name, "不能为空")
			continue
		}
		if _, err := s.repo.Language.GetByID(ctx, f.id); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, storageError(s.logger, "查询语言失败", err)
			}
			v.Add(f.name, "语言不存在")
		}
	}
	if req.SourceLanguageID != "" && req.SourceLanguageID == req.TargetLanguageID {
		v.Add("target_language_id", "不能与源语言相同")
	}

	// 需求类型与条件必填字段
	requestType := model.RequestType(req.RequestType)
	switch requestType {
	case model.RequestTypeLive:
		if req.ScheduledDate == nil {
			v.Add("scheduled_date", "现场口译必须填写")
		}
		switch {
		case req.DurationHours == nil:
			v.Add("duration_hours", "现场口译必须填写")
		case *req.DurationHours <= 0 || *req.DurationHours > maxDurationHours:
			v.Add("duration_hours", fmt.Sprintf("必须在 0-%d 小时之间", maxDurationHours))
		}
		switch {
		case req.LocationType == nil || *req.LocationType == "":
			v.Add("location_type", "现场口译必须填写")
		case !model.LocationType(*req.LocationType).Valid():
			v.Add("location_type", "取值必须为 virtual / in_person / phone")
		case model.LocationType(*req.LocationType) == model.LocationTypeInPerson &&
			(req.LocationDetails == nil || strings.TrimSpace(*req.LocationDetails) == ""):
			v.Add("location_details", "线下口译必须填写地点")
		}
	case model.RequestTypeDocument:
		if req.ScheduledDate != nil {
			v.Add("scheduled_date", "文档翻译不能填写")
		}
		if req.DurationHours != nil {
			v.Add("duration_hours", "文档翻译不能填写")
		}
		if req.LocationType != nil {
			v.Add("location_type", "文档翻译不能填写")
		}
	default:
		v.Add("request_type", "取值必须为 live 或 document")
	}

	if req.Budget != nil && *req.Budget < 0 {
		v.Add("budget", "不能为负数")
	}
	if req.DocumentURL != nil && *req.DocumentURL != "" && !validHTTPURL(*req.DocumentURL) {
		v.Add("document_url", "必须是 http(s) 地址")
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}

	entity := &model.TranslationRequest{
		Title:            title,
		Description:      req.Description,
		RequestType:      requestType,
		SourceLanguageID: req.SourceLanguageID,
		TargetLanguageID: req.TargetLanguageID,
		Budget:           req.Budget,
		DocumentURL:      req.DocumentURL,
	}
	if requestType == model.RequestTypeLive {
		scheduled := req.ScheduledDate.UTC()
		lt := model.LocationType(*req.LocationType)
		entity.ScheduledDate = &scheduled
		entity.DurationHours = req.DurationHours
		entity.LocationType = &lt
		entity.LocationDetails = req.LocationDetails
	}
	return entity, nil
}

// ═══════════════════════════════════════════════════════════
// 状态迁移
// ═══════════════════════════════════════════════════════════

func (s *requestService) SubmitDraft(ctx context.Context, requestID string, actor Actor) (*dto.RequestResponse, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	req, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ClientID != actor.ProfileID {
		return nil, forbidden("request", string(req.Status), string(model.RequestStatusPending))
	}
	if err := casRequest(ctx, s.repo, requestID, model.RequestStatusDraft, model.RequestStatusPending, time.Now()); err != nil {
		return nil, s.transitionError(err)
	}
	return s.load(ctx, requestID)
}

func (s *requestService) CancelRequest(ctx context.Context, requestID string, actor Actor) (*dto.RequestResponse, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	req, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ClientID != actor.ProfileID {
		return nil, forbidden("request", string(req.Status), string(model.RequestStatusCancelled))
	}

	from := req.Status
	if !from.CanTransitionTo(model.RequestStatusCancelled) {
		return nil, pkgerrors.NewTransitionError("request", string(from), string(model.RequestStatusCancelled))
	}

	// pending: 取消全部待处理申请；matched: 取消已接受的申请
	cascade := model.AssignmentStatusPending
	if from == model.RequestStatusMatched {
		cascade = model.AssignmentStatusAccepted
	}

	var cancelled int64
	now := time.Now()
	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := casRequest(ctx, tx, requestID, from, model.RequestStatusCancelled, now); err != nil {
			return err
		}
		n, err := cancelAssignments(ctx, tx, requestID, cascade, now)
		cancelled = n
		return err
	})
	if err != nil {
		return nil, s.transitionError(err)
	}

	s.logger.Info("翻译需求已取消",
		zap.String("request_id", requestID),
		zap.String("from", string(from)),
		zap.Int64("cancelled_assignments", cancelled),
	)
	return s.load(ctx, requestID)
}

func (s *requestService) MarkInProgress(ctx context.Context, requestID string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := casRequest(ctx, s.repo, requestID, model.RequestStatusMatched, model.RequestStatusInProgress, time.Now()); err != nil {
		return s.transitionError(err)
	}
	return nil
}

func (s *requestService) MarkCompleted(ctx context.Context, requestID string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := casRequest(ctx, s.repo, requestID, model.RequestStatusInProgress, model.RequestStatusCompleted, time.Now()); err != nil {
		return s.transitionError(err)
	}
	return nil
}

// transitionError 业务错误原样返回，其余按存储错误处理
func (s *requestService) transitionError(err error) error {
	if errors.Is(err, pkgerrors.ErrInvalidTransition) || errors.Is(err, pkgerrors.ErrNotFound) {
		return err
	}
	return storageError(s.logger, "更新需求状态失败", err)
}

// ═══════════════════════════════════════════════════════════
// 查询
// ═══════════════════════════════════════════════════════════

func (s *requestService) GetRequest(ctx context.Context, requestID string, actor Actor) (*dto.RequestResponse, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	req, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	visible, err := s.visibleTo(ctx, req, actor)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, pkgerrors.ErrForbidden
	}

	resp := toRequestResponse(req)
	if req.ClientID == actor.ProfileID {
		counts, err := s.repo.Assignment.CountByRequests(ctx, []string{requestID})
		if err != nil {
			return nil, storageError(s.logger, "统计申请数失败", err)
		}
		resp.ApplicationCount = counts[requestID]
	}
	return &resp, nil
}

// visibleTo 所有者可见；译员可见待接单需求以及自己申请过的需求
func (s *requestService) visibleTo(ctx context.Context, req *model.TranslationRequest, actor Actor) (bool, error) {
	if req.ClientID == actor.ProfileID {
		return true, nil
	}
	if !actor.IsTranslator() {
		return false, nil
	}
	if req.Status == model.RequestStatusPending {
		return true, nil
	}
	_, err := s.repo.Assignment.FindActive(ctx, req.RequestID, actor.ProfileID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	default:
		return false, storageError(s.logger, "查询申请失败", err)
	}
}

func (s *requestService) ListMyRequests(ctx context.Context, req *dto.ListMyRequestsRequest, actor Actor) ([]dto.RequestResponse, int64, error) {
	if !actor.IsClient() {
		return nil, 0, pkgerrors.ErrForbidden
	}
	status := model.RequestStatus(req.Status)
	if status != "" && !status.Valid() {
		v := &pkgerrors.ValidationError{}
		v.Add("status", "未知的需求状态")
		return nil, 0, v
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	list, total, err := s.repo.Request.ListByClient(ctx, actor.ProfileID, status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		return nil, 0, storageError(s.logger, "查询我的需求失败", err)
	}

	ids := make([]string, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.RequestID)
	}
	counts, err := s.repo.Assignment.CountByRequests(ctx, ids)
	if err != nil {
		return nil, 0, storageError(s.logger, "统计申请数失败", err)
	}

	result := make([]dto.RequestResponse, 0, len(list))
	for i := range list {
		resp := toRequestResponse(&list[i])
		resp.ApplicationCount = counts[list[i].RequestID]
		result = append(result, resp)
	}
	return result, total, nil
}

func (s *requestService) ListOpenRequests(ctx context.Context, req *dto.ListOpenRequestsRequest, actor Actor) ([]dto.RequestResponse, int64, error) {
	if !actor.IsTranslator() {
		return nil, 0, pkgerrors.ErrForbidden
	}
	if req.RequestType != "" && req.RequestType != string(model.RequestTypeLive) && req.RequestType != string(model.RequestTypeDocument) {
		v := &pkgerrors.ValidationError{}
		v.Add("request_type", "取值必须为 live 或 document")
		return nil, 0, v
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	filter := repository.OpenRequestFilter{
		RequestType:      req.RequestType,
		SourceLanguageID: req.SourceLanguageID,
		TargetLanguageID: req.TargetLanguageID,
		Offset:           req.GetOffset(),
		Limit:            req.GetPageSize(),
	}
	if req.EligibleOnly {
		filter.EligibleFor = actor.ProfileID
	}

	list, total, err := s.repo.Request.ListOpen(ctx, filter)
	if err != nil {
		return nil, 0, storageError(s.logger, "查询待接单需求失败", err)
	}

	result := make([]dto.RequestResponse, 0, len(list))
	for i := range list {
		result = append(result, toRequestResponse(&list[i]))
	}
	return result, total, nil
}

// ── 辅助 ──

func (s *requestService) get(ctx context.Context, id string) (*model.TranslationRequest, error) {
	req, err := s.repo.Request.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, storageError(s.logger, "查询翻译需求失败", err)
	}
	return req, nil
}

func (s *requestService) load(ctx context.Context, id string) (*dto.RequestResponse, error) {
	req, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toRequestResponse(req)
	return &resp, nil
}
