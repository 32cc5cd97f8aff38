package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jlayese/translator-service-application/internal/service"
	"github.com/jlayese/translator-service-application/pkg/response"
)

// LanguageHandler 语言字典 HTTP 处理器
type LanguageHandler struct {
	languageSvc service.LanguageService
}

// NewLanguageHandler 创建 LanguageHandler
func NewLanguageHandler(languageSvc service.LanguageService) *LanguageHandler {
	return &LanguageHandler{languageSvc: languageSvc}
}

// ListLanguages 语言列表，?code= 时按代码查询单个
// GET /api/v1/languages
func (h *LanguageHandler) ListLanguages(c *gin.Context) {
	if code := c.Query("code"); code != "" {
		lang, err := h.languageSvc.GetByCode(c.Request.Context(), code)
		if err != nil {
			h.handleLanguageError(c, err)
			return
		}
		response.OK(c, lang)
		return
	}

	list, err := h.languageSvc.List(c.Request.Context())
	if err != nil {
		h.handleLanguageError(c, err)
		return
	}
	response.OK(c, list)
}

// GetLanguage 语言详情
// GET /api/v1/languages/:id
func (h *LanguageHandler) GetLanguage(c *gin.Context) {
	lang, err := h.languageSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleLanguageError(c, err)
		return
	}
	response.OK(c, lang)
}

func (h *LanguageHandler) handleLanguageError(c *gin.Context, err error) {
	if respondCommon(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrLanguageNotFound):
		response.NotFound(c, 13001, "语言不存在")
	default:
		response.InternalError(c)
	}
}
