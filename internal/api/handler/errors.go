package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/jlayese/translator-service-application/pkg/errors"
	"github.com/jlayese/translator-service-application/pkg/response"
)

// 业务错误码分段
//   11xxx 认证  12xxx 资料  13xxx 语言  14xxx 需求
//   15xxx 申请  16xxx 评价  17xxx 导出

// respondCommon 处理各模块共有的错误类别，已写入响应时返回 true
func respondCommon(c *gin.Context, err error) bool {
	if ve, ok := pkgerrors.IsValidation(err); ok {
		response.Validation(c, ve)
		return true
	}
	if errors.Is(err, pkgerrors.ErrStorageUnavailable) {
		response.Unavailable(c)
		return true
	}
	return false
}

// bindFailed 请求体无法解析
func bindFailed(c *gin.Context) {
	response.BadRequest(c, response.CodeInvalidParams, "参数校验失败")
}
