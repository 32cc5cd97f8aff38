package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jlayese/translator-service-application/internal/dto"
	"github.com/jlayese/translator-service-application/internal/service"
	pkgerrors "github.com/jlayese/translator-service-application/pkg/errors"
	"github.com/jlayese/translator-service-application/pkg/response"
)

// ProfileHandler 资料与译员能力 HTTP 处理器
type ProfileHandler struct {
	profileSvc service.ProfileService
}

// NewProfileHandler 创建 ProfileHandler
func NewProfileHandler(profileSvc service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileSvc: profileSvc}
}

// GetMyProfile 当前用户资料
// GET /api/v1/profiles/me
func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	profile, err := h.profileSvc.GetProfile(c.Request.Context(), actor.ProfileID)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}
	response.OK(c, profile)
}

// UpdateMyProfile 更新当前用户资料
// PUT /api/v1/profiles/me
func (h *ProfileHandler) UpdateMyProfile(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c)
		return
	}

	profile, err := h.profileSvc.UpdateProfile(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}
	response.OK(c, profile)
}

// GetTranslator 译员详情（含语言对与口碑）
// GET /api/v1/translators/:id
func (h *ProfileHandler) GetTranslator(c *gin.Context) {
	tr, err := h.profileSvc.GetCapability(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleProfileError(c, err)
		return
	}
	response.OK(c, tr)
}

// UpdateMyCapability 译员更新自己的能力，language_pairs 整体替换
// PUT /api/v1/translators/me
func (h *ProfileHandler) UpdateMyCapability(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.UpdateTranslatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c)
		return
	}

	tr, err := h.profileSvc.UpdateCapability(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}
	response.OK(c, tr)
}

func (h *ProfileHandler) handleProfileError(c *gin.Context, err error) {
	if respondCommon(c, err) {
		return
	}
	switch {
	case errors.Is(err, pkgerrors.ErrForbidden):
		response.Forbidden(c, 12001, "仅译员可维护能力信息")
	case errors.Is(err, service.ErrTranslatorNotFound):
		response.NotFound(c, 12002, "译员不存在")
	case errors.Is(err, service.ErrProfileNotFound):
		response.NotFound(c, 12003, "用户资料不存在")
	default:
		response.InternalError(c)
	}
}
