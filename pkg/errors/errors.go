package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ── 业务错误分类 ──
// 校验类与业务规则类错误从不自动重试，原样返回给调用方

var (
	ErrNotFound             = errors.New("记录不存在")
	ErrForbidden            = errors.New("无权操作该记录")
	ErrInvalidTransition    = errors.New("当前状态不允许该操作")
	ErrIneligibleTranslator = errors.New("译员不满足该需求的语言对或当前不可接单")
	ErrDuplicateApplication = errors.New("已申请过该需求")
	ErrAlreadyAssigned      = errors.New("该需求已被其他申请抢先接受")
	ErrStorageUnavailable   = errors.New("存储服务暂不可用")
	// ErrDuplicate 唯一约束冲突，由调用方翻译为具体业务错误
	ErrDuplicate = errors.New("唯一约束冲突")
)

// Violation 单个字段的校验失败
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 输入校验失败，包含全部违规字段而非第一个
type ValidationError struct {
	Violations []Violation
}

// Add 追加一条违规
func (e *ValidationError) Add(field, message string) {
	e.Violations = append(e.Violations, Violation{Field: field, Message: message})
}

// OrNil 无违规时返回 nil，便于 `return v.OrNil()`
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Violations) == 0 {
		return nil
	}
	return e
}

// Fields 返回违规字段名列表
func (e *ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}
	return fields
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "参数校验失败: " + strings.Join(parts, "; ")
}

// TransitionError 状态机违规
// errors.Is(err, ErrInvalidTransition) 恒为 true；Cause 可携带更具体的原因（如 ErrForbidden）
type TransitionError struct {
	Entity string
	From   string
	To     string
	Cause  error
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("%s 状态不允许 %s → %s", e.Entity, e.From, e.To)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func (e *TransitionError) Unwrap() error {
	return e.Cause
}

// NewTransitionError 构造状态机违规错误
func NewTransitionError(entity, from, to string) *TransitionError {
	return &TransitionError{Entity: entity, From: from, To: to}
}

// IsValidation 判断是否为输入校验错误
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Storage 对存储层原始错误分类
//   - 超时、网络错误、连接类 SQLSTATE → ErrStorageUnavailable
//   - 唯一约束冲突 → ErrDuplicate
//   - 其他错误原样返回
func Storage(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		case strings.HasPrefix(pgErr.Code, "08"), // connection exception
			strings.HasPrefix(pgErr.Code, "53"), // insufficient resources
			pgErr.Code == "57P01", pgErr.Code == "57P03", // admin shutdown / cannot connect now
			pgErr.Code == "40001", pgErr.Code == "40P01": // serialization failure / deadlock
			return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	return err
}
