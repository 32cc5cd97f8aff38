package dto

// 分页默认值与上限，与 binding 标签保持一致
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationRequest 通用分页参数（query string）
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 页码从 1 开始，缺省为第一页
func (p *PaginationRequest) GetPage() int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

// GetPageSize 缺省为 DefaultPageSize；绕过绑定直接构造时仍按 MaxPageSize 截断
func (p *PaginationRequest) GetPageSize() int {
	switch {
	case p.PageSize < 1:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}
