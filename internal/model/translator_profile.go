package model

import "time"

// 语言熟练度
const (
	ProficiencyBasic          = "basic"
	ProficiencyConversational = "conversational"
	ProficiencyFluent         = "fluent"
	ProficiencyNative         = "native"
)

// ValidProficiency 是否为已知熟练度
func ValidProficiency(level string) bool {
	switch level {
	case ProficiencyBasic, ProficiencyConversational, ProficiencyFluent, ProficiencyNative:
		return true
	}
	return false
}

// TranslatorProfile 译员能力，对应 translator_profiles，主键即资料 ID
type TranslatorProfile struct {
	ProfileID   string   `gorm:"type:uuid;primaryKey"   json:"translator_id"`
	Bio         *string  `gorm:"type:text"              json:"bio,omitempty"`
	HourlyRate  *float64 `gorm:"type:numeric(10,2)"     json:"hourly_rate,omitempty"`
	IsAvailable bool     `gorm:"not null;default:true"  json:"is_available"`
	BaseModel

	// 关联
	Profile       *Profile                 `gorm:"foreignKey:ProfileID;references:ProfileID"    json:"profile,omitempty"`
	LanguagePairs []TranslatorLanguagePair `gorm:"foreignKey:TranslatorID;references:ProfileID" json:"language_pairs"`
}

// TableName 指定表名
func (TranslatorProfile) TableName() string { return "translator_profiles" }

// Supports 是否具备指定方向的语言对
func (p *TranslatorProfile) Supports(sourceID, targetID string) bool {
	for _, pair := range p.LanguagePairs {
		if pair.SourceLanguageID == sourceID && pair.TargetLanguageID == targetID {
			return true
		}
	}
	return false
}

// TranslatorLanguagePair 译员语言对，对应 translator_language_pairs
type TranslatorLanguagePair struct {
	PairID           string    `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"pair_id"`
	TranslatorID     string    `gorm:"type:uuid;not null"                                        json:"translator_id"`
	SourceLanguageID string    `gorm:"type:uuid;not null"                                        json:"source_language_id"`
	TargetLanguageID string    `gorm:"type:uuid;not null"                                        json:"target_language_id"`
	ProficiencyLevel *string   `gorm:"type:varchar(20)"                                          json:"proficiency_level,omitempty"`
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                        json:"created_at"`

	// 关联
	SourceLanguage *Language `gorm:"foreignKey:SourceLanguageID;references:LanguageID" json:"source_language,omitempty"`
	TargetLanguage *Language `gorm:"foreignKey:TargetLanguageID;references:LanguageID" json:"target_language,omitempty"`
}

// TableName 指定表名
func (TranslatorLanguagePair) TableName() string { return "translator_language_pairs" }
