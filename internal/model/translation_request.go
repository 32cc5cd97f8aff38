package model

import "time"

// RequestType 需求类型
type RequestType string

const (
	RequestTypeLive     RequestType = "live"     // 现场/实时口译
	RequestTypeDocument RequestType = "document" // 文档笔译
)

// LocationType 口译地点类型
type LocationType string

const (
	LocationTypeVirtual  LocationType = "virtual"
	LocationTypeInPerson LocationType = "in_person"
	LocationTypePhone    LocationType = "phone"
)

// Valid 是否为已知地点类型
func (t LocationType) Valid() bool {
	switch t {
	case LocationTypeVirtual, LocationTypeInPerson, LocationTypePhone:
		return true
	}
	return false
}

// TranslationRequest 翻译需求，对应 translation_requests
type TranslationRequest struct {
	RequestID        string        `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"request_id"`
	ClientID         string        `gorm:"type:uuid;not null"                                        json:"client_id"`
	Title            string        `gorm:"type:varchar(200);not null"                                json:"title"`
	Description      *string       `gorm:"type:text"                                                 json:"description,omitempty"`
	RequestType      RequestType   `gorm:"type:varchar(20);not null"                                 json:"request_type"`
	SourceLanguageID string        `gorm:"type:uuid;not null"                                        json:"source_language_id"`
	TargetLanguageID string        `gorm:"type:uuid;not null"                                        json:"target_language_id"`
	ScheduledDate    *time.Time    `json:"scheduled_date,omitempty"`
	DurationHours    *float64      `gorm:"type:numeric(6,2)"                                         json:"duration_hours,omitempty"`
	LocationType     *LocationType `gorm:"type:varchar(20)"                                          json:"location_type,omitempty"`
	LocationDetails  *string       `gorm:"type:text"                                                 json:"location_details,omitempty"`
	Budget           *float64      `gorm:"type:numeric(12,2)"                                        json:"budget,omitempty"`
	Status           RequestStatus `gorm:"type:varchar(20);not null;default:'pending'"               json:"status"`
	DocumentURL      *string       `gorm:"type:text"                                                 json:"document_url,omitempty"`
	VersionedModel

	// 关联
	Client         *Profile                `gorm:"foreignKey:ClientID;references:ProfileID"          json:"client,omitempty"`
	SourceLanguage *Language               `gorm:"foreignKey:SourceLanguageID;references:LanguageID" json:"source_language,omitempty"`
	TargetLanguage *Language               `gorm:"foreignKey:TargetLanguageID;references:LanguageID" json:"target_language,omitempty"`
	Assignments    []TranslationAssignment `gorm:"foreignKey:RequestID;references:RequestID"         json:"assignments,omitempty"`
}

// TableName 指定表名
func (TranslationRequest) TableName() string { return "translation_requests" }
