package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jlayese/translator-service-application/internal/dto"
	"github.com/jlayese/translator-service-application/internal/service"
	pkgerrors "github.com/jlayese/translator-service-application/pkg/errors"
	"github.com/jlayese/translator-service-application/pkg/response"
)

// RequestHandler 翻译需求 HTTP 处理器
type RequestHandler struct {
	requestSvc service.RequestService
}

// NewRequestHandler 创建 RequestHandler
func NewRequestHandler(requestSvc service.RequestService) *RequestHandler {
	return &RequestHandler{requestSvc: requestSvc}
}

// CreateRequest 客户创建需求，save_as_draft=true 时保存为草稿
// POST /api/v1/requests
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c)
		return
	}

	result, err := h.requestSvc.CreateRequest(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.Created(c, result)
}

// GetRequest 需求详情
// GET /api/v1/requests/:id
func (h *RequestHandler) GetRequest(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.requestSvc.GetRequest(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, result)
}

// SubmitDraft 提交草稿
// POST /api/v1/requests/:id/submit
func (h *RequestHandler) SubmitDraft(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.requestSvc.SubmitDraft(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, result)
}

// CancelRequest 取消需求，未结束的申请一并取消
// POST /api/v1/requests/:id/cancel
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.requestSvc.CancelRequest(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, result)
}

// ListMyRequests 客户自己的需求
// GET /api/v1/requests/mine?status=&page=&page_size=
func (h *RequestHandler) ListMyRequests(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.ListMyRequestsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c)
		return
	}

	list, total, err := h.requestSvc.ListMyRequests(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListOpenRequests 译员浏览待接单需求
// GET /api/v1/requests/open?request_type=&source_language_id=&target_language_id=&eligible_only=
func (h *RequestHandler) ListOpenRequests(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.ListOpenRequestsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c)
		return
	}

	list, total, err := h.requestSvc.ListOpenRequests(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// handleRequestError ErrForbidden 需先于 ErrInvalidTransition 判断：
// 非所有者的状态操作同时满足两者
func (h *RequestHandler) handleRequestError(c *gin.Context, err error) {
	if respondCommon(c, err) {
		return
	}
	switch {
	case errors.Is(err, pkgerrors.ErrForbidden):
		response.Forbidden(c, 14001, "无权操作该需求")
	case errors.Is(err, service.ErrRequestNotFound), errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, 14002, "翻译需求不存在")
	case errors.Is(err, pkgerrors.ErrInvalidTransition):
		response.ErrorWithDetails(c, http.StatusConflict, 14003, "当前状态不允许该操作", err.Error())
	default:
		response.InternalError(c)
	}
}
