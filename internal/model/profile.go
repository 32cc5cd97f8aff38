package model

// UserType 用户角色，注册时确定且不可变更
type UserType string

const (
	UserTypeClient     UserType = "client"
	UserTypeTranslator UserType = "translator"
)

// Valid 是否为已知角色
func (t UserType) Valid() bool {
	return t == UserTypeClient || t == UserTypeTranslator
}

// Profile 用户资料，对应 profiles
type Profile struct {
	ProfileID string   `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"profile_id"`
	UserID    string   `gorm:"type:uuid;not null;uniqueIndex"                            json:"user_id"`
	FullName  string   `gorm:"type:varchar(100);not null"                                json:"full_name"`
	AvatarURL *string  `gorm:"type:text"                                                 json:"avatar_url,omitempty"`
	UserType  UserType `gorm:"type:varchar(20);not null"                                 json:"user_type"`
	BaseModel
}

// TableName 指定表名
func (Profile) TableName() string { return "profiles" }
