package model

import "time"

// 评分取值范围
const (
	MinRating = 1
	MaxRating = 5
)

// TranslationAssignment 译员申请/指派，对应 translation_assignments，从不删除
type TranslationAssignment struct {
	AssignmentID     string           `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	RequestID        string           `gorm:"type:uuid;not null"                                        json:"request_id"`
	TranslatorID     string           `gorm:"type:uuid;not null"                                        json:"translator_id"`
	Status           AssignmentStatus `gorm:"type:varchar(20);not null;default:'pending'"               json:"status"`
	AcceptedAt       *time.Time       `json:"accepted_at,omitempty"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	ClientRating     *int             `gorm:"type:smallint"                                             json:"client_rating,omitempty"`     // 客户给译员的评分
	TranslatorRating *int             `gorm:"type:smallint"                                             json:"translator_rating,omitempty"` // 译员给客户的评分
	ClientReview     *string          `gorm:"type:text"                                                 json:"client_review,omitempty"`
	TranslatorReview *string          `gorm:"type:text"                                                 json:"translator_review,omitempty"`
	FirstRatedAt     *time.Time       `json:"first_rated_at,omitempty"`
	VersionedModel

	// 关联
	Request    *TranslationRequest `gorm:"foreignKey:RequestID;references:RequestID"     json:"request,omitempty"`
	Translator *Profile            `gorm:"foreignKey:TranslatorID;references:ProfileID"  json:"translator,omitempty"`
}

// TableName 指定表名
func (TranslationAssignment) TableName() string { return "translation_assignments" }

// BothRated 双方是否均已评价
func (a *TranslationAssignment) BothRated() bool {
	return a.ClientRating != nil && a.TranslatorRating != nil
}
