package dto

// LanguageResponse 语言
type LanguageResponse struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}
