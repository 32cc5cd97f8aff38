package handler

import (
	"github.com/jlayese/translator-service-application/config"
	"github.com/jlayese/translator-service-application/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Language   *LanguageHandler
	Profile    *ProfileHandler
	Request    *RequestHandler
	Assignment *AssignmentHandler
	Rating     *RatingHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth, cfg),
		Language:   NewLanguageHandler(svc.Language),
		Profile:    NewProfileHandler(svc.Profile),
		Request:    NewRequestHandler(svc.Request),
		Assignment: NewAssignmentHandler(svc.Matching),
		Rating:     NewRatingHandler(svc.Rating),
		Export:     NewExportHandler(svc.Export),
	}
}
