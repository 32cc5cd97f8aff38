package dto

// ── 资料模块 DTO ──

// ProfileResponse 用户资料
type ProfileResponse struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	UserType  string  `json:"user_type"`
	CreatedAt string  `json:"created_at"`
}

// UpdateProfileRequest 更新资料，user_type 不可修改
type UpdateProfileRequest struct {
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

// LanguagePairInput 语言对输入
type LanguagePairInput struct {
	SourceLanguageID string  `json:"source_language_id"`
	TargetLanguageID string  `json:"target_language_id"`
	ProficiencyLevel *string `json:"proficiency_level"`
}

// UpdateTranslatorRequest 更新译员能力
// language_pairs 传入时整体替换
type UpdateTranslatorRequest struct {
	Bio           *string              `json:"bio"`
	HourlyRate    *float64             `json:"hourly_rate"`
	IsAvailable   *bool                `json:"is_available"`
	LanguagePairs *[]LanguagePairInput `json:"language_pairs"`
}

// LanguagePairResponse 语言对
type LanguagePairResponse struct {
	Source           LanguageResponse `json:"source"`
	Target           LanguageResponse `json:"target"`
	ProficiencyLevel *string          `json:"proficiency_level,omitempty"`
}

// ReputationResponse 口碑：评分均值在读取时计算
type ReputationResponse struct {
	Average *float64 `json:"average"` // 无评价时为 null
	Count   int64    `json:"count"`
}

// TranslatorResponse 译员详情
type TranslatorResponse struct {
	Profile       ProfileResponse        `json:"profile"`
	Bio           *string                `json:"bio,omitempty"`
	HourlyRate    *float64               `json:"hourly_rate,omitempty"`
	IsAvailable   bool                   `json:"is_available"`
	LanguagePairs []LanguagePairResponse `json:"language_pairs"`
	Reputation    ReputationResponse     `json:"reputation"`
}

// EligibleTranslatorResponse 候选译员
type EligibleTranslatorResponse struct {
	TranslatorID string             `json:"translator_id"`
	FullName     string             `json:"full_name"`
	AvatarURL    *string            `json:"avatar_url,omitempty"`
	Bio          *string            `json:"bio,omitempty"`
	HourlyRate   *float64           `json:"hourly_rate,omitempty"`
	Proficiency  *string            `json:"proficiency_level,omitempty"`
	Reputation   ReputationResponse `json:"reputation"`
}
