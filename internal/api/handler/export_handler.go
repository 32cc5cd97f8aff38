package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/jlayese/translator-service-application/internal/service"
	pkgerrors "github.com/jlayese/translator-service-application/pkg/errors"
	"github.com/jlayese/translator-service-application/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportRequests 客户导出自己的需求与指派情况
// GET /api/v1/export/requests
func (h *ExportHandler) ExportRequests(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportRequests(c.Request.Context(), actor)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	sendFile(c, buf, filename, contentTypeXLSX)
}

// ExportCalendar 译员导出已接受的口译日程
// GET /api/v1/export/calendar
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportCalendar(c.Request.Context(), actor)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	sendFile(c, buf, filename, contentTypeICS)
}

// sendFile 设置下载响应头
func sendFile(c *gin.Context, buf *bytes.Buffer, filename, contentType string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	if respondCommon(c, err) {
		return
	}
	switch {
	case errors.Is(err, pkgerrors.ErrForbidden):
		response.Forbidden(c, 17001, "当前身份不支持该导出")
	case errors.Is(err, service.ErrExportNoData):
		response.NotFound(c, 17002, "暂无可导出的数据")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
