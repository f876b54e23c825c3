// Package errors 提供统一的错误处理框架
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 错误码
type Code string

const (
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeTimeout      Code = "TIMEOUT"

	// 排班引擎相关
	CodeInvalidInstance      Code = "INVALID_INSTANCE"
	CodeInfeasibleRequest    Code = "INFEASIBLE_REQUEST"
	CodeIncompatibleSchedule Code = "INCOMPATIBLE_SCHEDULE"

	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeValidationFail Code = "VALIDATION_FAILED"
)

// AppError 应用错误
type AppError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 设置底层错误
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithField 添加字段
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New 创建新错误
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: codeToHTTPStatus(code)}
}

// Wrap 包装错误，err 本身是 AppError 时保留其字段
func Wrap(err error, code Code, message string) *AppError {
	wrapped := New(code, message)
	wrapped.Cause = err
	var inner *AppError
	if errors.As(err, &inner) && len(inner.Fields) > 0 {
		for k, v := range inner.Fields {
			wrapped.WithField(k, v)
		}
	}
	return wrapped
}

// codeToHTTPStatus 错误码转HTTP状态码
func codeToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeValidationFail, CodeInvalidInstance:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeIncompatibleSchedule:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeInfeasibleRequest:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Is 检查错误是否为特定类型
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode 获取错误码
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetHTTPStatus 获取HTTP状态码
func GetHTTPStatus(err error) int {
	return codeToHTTPStatus(GetCode(err))
}

// InvalidInput 创建输入无效错误
func InvalidInput(field, reason string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("字段 '%s' 无效: %s", field, reason))
}

// NotFound 创建资源不存在错误
func NotFound(resource, id string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s '%s' 不存在", resource, id))
}

// InvalidInstance 创建问题实例无效错误（未知班段、非正限制等）
func InvalidInstance(reason string) *AppError {
	return New(CodeInvalidInstance, reason)
}

// InfeasibleRequest 创建人员申请不可满足错误，仅用于报告，不中断求解
func InfeasibleRequest(person, reason string) *AppError {
	return New(CodeInfeasibleRequest, fmt.Sprintf("人员 %s 的申请无法满足: %s", person, reason)).
		WithField("person", person)
}

// IncompatibleSchedule 创建外部排班无法转换错误
func IncompatibleSchedule(person, label, reason string) *AppError {
	return New(CodeIncompatibleSchedule, fmt.Sprintf("人员 %s 的班次 %s 无法转换: %s", person, label, reason)).
		WithField("person", person).
		WithField("label", label)
}

// ValidationErrors 验证错误集合
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ValidationError 单个验证错误
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 实现 error 接口
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "验证失败"
	}
	return fmt.Sprintf("验证失败: %s - %s", ve.Errors[0].Field, ve.Errors[0].Message)
}

// Add 添加验证错误
func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

// HasErrors 检查是否有错误
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// ToAppError 转换为 AppError，同一字段的多条消息以 "; " 连接
func (ve *ValidationErrors) ToAppError() *AppError {
	err := New(CodeValidationFail, "验证失败")
	err.Fields = make(map[string]interface{}, len(ve.Errors))
	for _, e := range ve.Errors {
		if prev, ok := err.Fields[e.Field].(string); ok {
			err.Fields[e.Field] = prev + "; " + e.Message
			continue
		}
		err.Fields[e.Field] = e.Message
	}
	if len(ve.Errors) > 0 {
		err.Details = ve.Error()
	}
	return err
}
