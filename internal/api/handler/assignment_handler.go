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

// AssignmentHandler 匹配引擎 HTTP 处理器：候选译员、申请、接受、开工
type AssignmentHandler struct {
	matchingSvc service.MatchingService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(matchingSvc service.MatchingService) *AssignmentHandler {
	return &AssignmentHandler{matchingSvc: matchingSvc}
}

// ListEligibleTranslators 需求的候选译员
// GET /api/v1/requests/:id/eligible-translators
func (h *AssignmentHandler) ListEligibleTranslators(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.matchingSvc.ListEligibleTranslators(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, list)
}

// ListApplications 需求收到的申请
// GET /api/v1/requests/:id/applications
func (h *AssignmentHandler) ListApplications(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.matchingSvc.ListApplications(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, list)
}

// Apply 译员申请需求
// POST /api/v1/requests/:id/apply
func (h *AssignmentHandler) Apply(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.matchingSvc.Apply(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.Created(c, result)
}

// Accept 客户接受申请，同一需求的并发接受只有一个成功
// POST /api/v1/assignments/:id/accept
func (h *AssignmentHandler) Accept(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.matchingSvc.Accept(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, result)
}

// StartWork 开始服务，需求进入 in_progress
// POST /api/v1/assignments/:id/start
func (h *AssignmentHandler) StartWork(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.matchingSvc.StartWork(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, result)
}

// ListMyAssignments 译员自己的申请
// GET /api/v1/assignments/mine?page=&page_size=
func (h *AssignmentHandler) ListMyAssignments(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		bindFailed(c)
		return
	}

	list, total, err := h.matchingSvc.ListMyAssignments(c.Request.Context(), &page, actor)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OKPage(c, list, total, page.GetPage(), page.GetPageSize())
}

func (h *AssignmentHandler) handleAssignmentError(c *gin.Context, err error) {
	if respondCommon(c, err) {
		return
	}
	switch {
	case errors.Is(err, pkgerrors.ErrForbidden):
		response.Forbidden(c, 15001, "无权操作该申请")
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 15002, "申请不存在")
	case errors.Is(err, service.ErrRequestNotFound), errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, 15003, "翻译需求不存在")
	case errors.Is(err, pkgerrors.ErrAlreadyAssigned):
		response.Conflict(c, 15004, "该需求已被其他申请抢先接受")
	case errors.Is(err, pkgerrors.ErrDuplicateApplication):
		response.Conflict(c, 15005, "已申请过该需求")
	case errors.Is(err, pkgerrors.ErrIneligibleTranslator):
		response.Conflict(c, 15006, "译员不满足该需求的语言对或当前不可接单")
	case errors.Is(err, pkgerrors.ErrInvalidTransition):
		response.ErrorWithDetails(c, http.StatusConflict, 15007, "当前状态不允许该操作", err.Error())
	default:
		response.InternalError(c)
	}
}
