package model

// User 登录凭据，对应 users
type User struct {
	UserID       string `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Email        string `gorm:"type:varchar(255);not null"                                json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                                json:"-"`
	BaseModel

	// 关联
	Profile *Profile `gorm:"foreignKey:UserID;references:UserID" json:"profile,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
