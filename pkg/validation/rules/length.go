package rules

import (
	"reflect"
	"unicode/utf8"

	"katydid-model-validation/pkg/validation"
)

// StringLength 字符串长度规则（按字符计数）
// Max 为 0 表示不限制上限；nil 视为通过
type StringLength struct {
	Min int
	Max int
	// Message 自定义消息模板（%[1]s 显示名，%[2]d 最小长度，%[3]d 最大长度）
	Message string
}

// NewStringLength 创建长度规则
func NewStringLength(min, max int) StringLength {
	return StringLength{Min: min, Max: max}
}

// Kind 实现 validation.Rule 接口
func (StringLength) Kind() validation.RuleKind {
	return validation.KindLength
}

// FormatErrorMessage 实现 validation.Rule 接口
func (r StringLength) FormatErrorMessage(name string) string {
	switch {
	case r.Max > 0 && r.Min > 0:
		return formatMessage(r.Message, "The field %s must be a string with a minimum length of %d and a maximum length of %d.", name, r.Min, r.Max)
	case r.Max > 0:
		return formatMessage(r.Message, "The field %s must be a string with a maximum length of %[3]d.", name, r.Min, r.Max)
	default:
		return formatMessage(r.Message, "The field %s must be a string with a minimum length of %d.", name, r.Min)
	}
}

// IsValid 实现 validation.ValueRule 接口
func (r StringLength) IsValid(value any) bool {
	if value == nil {
		return true
	}

	val := reflect.ValueOf(value)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return true
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.String {
		return false
	}

	n := utf8.RuneCountInString(val.String())
	if n < r.Min {
		return false
	}
	return r.Max <= 0 || n <= r.Max
}
