package rules

import (
	"reflect"
	"strconv"
	"strings"

	"katydid-model-validation/pkg/validation"
)

// Range 数值范围规则（闭区间）
// nil 视为通过，缺失值由 Required 负责；数字字符串会先解析
type Range struct {
	Min float64
	Max float64
	// Message 自定义消息模板（%[1]s 显示名，%[2]v 最小值，%[3]v 最大值）
	Message string
}

// NewRange 创建范围规则
func NewRange(min, max float64) Range {
	return Range{Min: min, Max: max}
}

// Kind 实现 validation.Rule 接口
func (Range) Kind() validation.RuleKind {
	return validation.KindRange
}

// FormatErrorMessage 实现 validation.Rule 接口
func (r Range) FormatErrorMessage(name string) string {
	return formatMessage(r.Message, "The field %s must be between %v and %v.", name, r.Min, r.Max)
}

// IsValid 实现 validation.ValueRule 接口
func (r Range) IsValid(value any) bool {
	if value == nil {
		return true
	}

	n, ok := toFloat(value)
	if !ok {
		return false
	}
	return n >= r.Min && n <= r.Max
}

// toFloat 把数值（或数字字符串）转换为 float64
func toFloat(value any) (float64, bool) {
	val := reflect.ValueOf(value)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return 0, false
		}
		val = val.Elem()
	}

	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(val.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(val.Uint()), true
	case reflect.Float32, reflect.Float64:
		return val.Float(), true
	case reflect.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(val.String()), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
