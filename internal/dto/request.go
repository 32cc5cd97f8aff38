package dto

import "time"

// ── 翻译需求模块 DTO ──

// CreateRequestRequest 创建需求
// 字段校验在服务层完成，一次返回全部违规字段
type CreateRequestRequest struct {
	Title            string     `json:"title"`
	Description      *string    `json:"description"`
	RequestType      string     `json:"request_type"` // live | document
	SourceLanguageID string     `json:"source_language_id"`
	TargetLanguageID string     `json:"target_language_id"`
	ScheduledDate    *time.Time `json:"scheduled_date"`
	DurationHours    *float64   `json:"duration_hours"`
	LocationType     *string    `json:"location_type"` // virtual | in_person | phone
	LocationDetails  *string    `json:"location_details"`
	Budget           *float64   `json:"budget"`
	DocumentURL      *string    `json:"document_url"`
	SaveAsDraft      bool       `json:"save_as_draft"`
}

// ListMyRequestsRequest 客户查询自己的需求
type ListMyRequestsRequest struct {
	PaginationRequest
	Status string `form:"status"`
}

// ListOpenRequestsRequest 译员浏览待接单需求
type ListOpenRequestsRequest struct {
	PaginationRequest
	RequestType      string `form:"request_type"`
	SourceLanguageID string `form:"source_language_id"`
	TargetLanguageID string `form:"target_language_id"`
	EligibleOnly     bool   `form:"eligible_only"` // 仅显示与自己语言对匹配的需求
}

// RequestResponse 需求详情
type RequestResponse struct {
	ID               string            `json:"id"`
	ClientID         string            `json:"client_id"`
	ClientName       string            `json:"client_name,omitempty"`
	Title            string            `json:"title"`
	Description      *string           `json:"description,omitempty"`
	RequestType      string            `json:"request_type"`
	SourceLanguage   *LanguageResponse `json:"source_language,omitempty"`
	TargetLanguage   *LanguageResponse `json:"target_language,omitempty"`
	SourceLanguageID string            `json:"source_language_id"`
	TargetLanguageID string            `json:"target_language_id"`
	ScheduledDate    *string           `json:"scheduled_date,omitempty"`
	DurationHours    *float64          `json:"duration_hours,omitempty"`
	LocationType     *string           `json:"location_type,omitempty"`
	LocationDetails  *string           `json:"location_details,omitempty"`
	Budget           *float64          `json:"budget,omitempty"`
	Status           string            `json:"status"`
	DocumentURL      *string           `json:"document_url,omitempty"`
	ApplicationCount int               `json:"application_count"`
	Version          int               `json:"version"` // 每次状态迁移加一
	CreatedAt        string            `json:"created_at"`
	UpdatedAt        string            `json:"updated_at"`
}
