package dto

// ── 申请/指派模块 DTO ──

// AssignmentResponse 申请详情
type AssignmentResponse struct {
	ID               string           `json:"id"`
	RequestID        string           `json:"request_id"`
	TranslatorID     string           `json:"translator_id"`
	TranslatorName   string           `json:"translator_name,omitempty"`
	Status           string           `json:"status"`
	AcceptedAt       *string          `json:"accepted_at,omitempty"`
	CompletedAt      *string          `json:"completed_at,omitempty"`
	ClientRating     *int             `json:"client_rating,omitempty"`
	TranslatorRating *int             `json:"translator_rating,omitempty"`
	ClientReview     *string          `json:"client_review,omitempty"`
	TranslatorReview *string          `json:"translator_review,omitempty"`
	Version          int              `json:"version"`
	CreatedAt        string           `json:"created_at"`
	Request          *RequestResponse `json:"request,omitempty"`
}

// AcceptResponse 接受申请结果
type AcceptResponse struct {
	Request    RequestResponse    `json:"request"`
	Assignment AssignmentResponse `json:"assignment"`
	Rejected   int64              `json:"rejected"` // 同时被拒绝的其他申请数
}

// SubmitRatingRequest 提交评价，评价方角色由登录身份决定
type SubmitRatingRequest struct {
	Rating int     `json:"rating"`
	Review *string `json:"review"`
}

// RatingResponse 评价结果
type RatingResponse struct {
	Assignment AssignmentResponse `json:"assignment"`
	Completed  bool               `json:"completed"` // 本次评价是否触发了完成
}
