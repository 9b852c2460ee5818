package rules

import (
	"reflect"
	"strings"

	"katydid-model-validation/pkg/validation"
)

// Required 必填规则
// 以下值视为缺失：nil、nil 指针/切片/映射、空字符串（默认包含只有空白的字符串）
// 自定义类型可以嵌入 Required 继承其类别，校验器据此识别必填规则
type Required struct {
	// AllowEmptyStrings 是否允许空字符串
	AllowEmptyStrings bool
	// Message 自定义消息模板（%[1]s 为显示名）
	Message string
}

// Kind 实现 validation.Rule 接口
func (Required) Kind() validation.RuleKind {
	return validation.KindRequired
}

// FormatErrorMessage 实现 validation.Rule 接口
func (r Required) FormatErrorMessage(name string) string {
	return formatMessage(r.Message, "The %s field is required.", name)
}

// IsValid 实现 validation.ValueRule 接口
func (r Required) IsValid(value any) bool {
	if value == nil {
		return false
	}

	if s, ok := value.(string); ok {
		return r.AllowEmptyStrings || strings.TrimSpace(s) != ""
	}

	val := reflect.ValueOf(value)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface:
		if val.IsNil() {
			return false
		}
		// 指向字符串的指针按字符串处理
		return r.IsValid(val.Elem().Interface())
	case reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return !val.IsNil()
	default:
		return true
	}
}
