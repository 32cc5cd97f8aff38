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

// RatingHandler 评价与口碑 HTTP 处理器
type RatingHandler struct {
	ratingSvc service.RatingService
}

// NewRatingHandler 创建 RatingHandler
func NewRatingHandler(ratingSvc service.RatingService) *RatingHandler {
	return &RatingHandler{ratingSvc: ratingSvc}
}

// SubmitRating 提交评价，双方都评价后指派完成
// POST /api/v1/assignments/:id/rating
func (h *RatingHandler) SubmitRating(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c)
		return
	}

	result, err := h.ratingSvc.CompleteAssignment(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		h.handleRatingError(c, err)
		return
	}
	response.OK(c, result)
}

// TranslatorReputation 译员口碑
// GET /api/v1/translators/:id/reputation
func (h *RatingHandler) TranslatorReputation(c *gin.Context) {
	rep, err := h.ratingSvc.TranslatorReputation(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleRatingError(c, err)
		return
	}
	response.OK(c, rep)
}

// ClientReputation 客户口碑
// GET /api/v1/clients/:id/reputation
func (h *RatingHandler) ClientReputation(c *gin.Context) {
	rep, err := h.ratingSvc.ClientReputation(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleRatingError(c, err)
		return
	}
	response.OK(c, rep)
}

func (h *RatingHandler) handleRatingError(c *gin.Context, err error) {
	if respondCommon(c, err) {
		return
	}
	switch {
	case errors.Is(err, pkgerrors.ErrForbidden):
		response.Forbidden(c, 16001, "仅指派双方可评价")
	case errors.Is(err, service.ErrAssignmentNotFound), errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, 16002, "申请不存在")
	case errors.Is(err, pkgerrors.ErrInvalidTransition):
		response.ErrorWithDetails(c, http.StatusConflict, 16003, "服务尚未开始或已结束，无法评价", err.Error())
	default:
		response.InternalError(c)
	}
}
