package model

import "time"

// Language 语言字典，对应 languages，由迁移种子数据维护
type Language struct {
	LanguageID string    `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"language_id"`
	Code       string    `gorm:"type:varchar(10);not null;uniqueIndex"                     json:"code"`
	Name       string    `gorm:"type:varchar(100);not null"                                json:"name"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                        json:"created_at"`
}

// TableName 指定表名
func (Language) TableName() string { return "languages" }
