package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// errorMessageEstimateLen 单条错误消息的预估长度，用于预分配
const errorMessageEstimateLen = 64

// FieldError 单个成员的校验错误
type FieldError struct {
	// Namespace 成员的完整路径（如 User.Profile.Email）
	Namespace string `json:"namespace"`
	// Field 成员名（路径的最后一段，类型级错误为空）
	Field string `json:"field,omitempty"`
	// Tag 规则类别（required、range 等）
	Tag string `json:"tag,omitempty"`
	// Message 错误消息
	Message string `json:"message"`
}

// NewFieldError 创建字段错误
func NewFieldError(namespace, tag, message string) *FieldError {
	return &FieldError{
		Namespace: namespace,
		Field:     lastSegment(namespace),
		Tag:       tag,
		Message:   message,
	}
}

// String 返回友好的错误信息
func (fe *FieldError) String() string {
	if fe.Namespace == "" {
		return fe.Message
	}
	return fmt.Sprintf("field '%s': %s", fe.Namespace, fe.Message)
}

// ValidationErrors 校验错误集合，实现 error 接口
type ValidationErrors []*FieldError

// Error 实现 error 接口
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}

	var builder strings.Builder
	builder.Grow(len(ve) * errorMessageEstimateLen)
	builder.WriteString("validation failed: ")
	for i, fe := range ve {
		if i > 0 {
			builder.WriteString("; ")
		}
		builder.WriteString(fe.String())
	}
	return builder.String()
}

// Has 指定命名空间是否有错误
func (ve ValidationErrors) Has(namespace string) bool {
	for _, fe := range ve {
		if fe.Namespace == namespace {
			return true
		}
	}
	return false
}

// Get 获取指定命名空间的所有错误消息
func (ve ValidationErrors) Get(namespace string) []string {
	var messages []string
	for _, fe := range ve {
		if fe.Namespace == namespace {
			messages = append(messages, fe.Message)
		}
	}
	return messages
}

// Fields 返回出错的命名空间（去重，保持顺序）
func (ve ValidationErrors) Fields() []string {
	var fields []string
	seen := make(map[string]struct{}, len(ve))
	for _, fe := range ve {
		if _, ok := seen[fe.Namespace]; ok {
			continue
		}
		seen[fe.Namespace] = struct{}{}
		fields = append(fields, fe.Namespace)
	}
	return fields
}

// ToJSON 转换为 JSON 格式
func (ve ValidationErrors) ToJSON() ([]byte, error) {
	return json.Marshal(ve)
}

// AsValidationErrors 从 error 中提取 ValidationErrors
func AsValidationErrors(err error) (ValidationErrors, bool) {
	if err == nil {
		return nil, false
	}
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// joinNamespace 拼接成员路径
func joinNamespace(prefix, name string) string {
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	default:
		return prefix + "." + name
	}
}

// lastSegment 返回路径的最后一段
func lastSegment(namespace string) string {
	if i := strings.LastIndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
