package rules

import (
	"fmt"
	"reflect"
	"regexp"

	"katydid-model-validation/pkg/validation"
)

// Pattern 正则规则，整个字符串必须匹配
// nil 和空字符串视为通过
type Pattern struct {
	expr string
	re   *regexp.Regexp
	// Message 自定义消息模板（%[1]s 显示名，%[2]s 正则表达式）
	Message string
}

// NewPattern 创建正则规则
func NewPattern(expr string) (Pattern, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	return Pattern{expr: expr, re: re}, nil
}

// MustPattern 创建正则规则，表达式非法时 panic
func MustPattern(expr string) Pattern {
	p, err := NewPattern(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Expr 返回原始正则表达式
func (r Pattern) Expr() string {
	return r.expr
}

// Kind 实现 validation.Rule 接口
func (Pattern) Kind() validation.RuleKind {
	return validation.KindPattern
}

// FormatErrorMessage 实现 validation.Rule 接口
func (r Pattern) FormatErrorMessage(name string) string {
	return formatMessage(r.Message, "The field %s must match the regular expression '%s'.", name, r.expr)
}

// IsValid 实现 validation.ValueRule 接口
func (r Pattern) IsValid(value any) bool {
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

	s := val.String()
	if s == "" {
		return true
	}
	// 零值 Pattern 没有正则，任何非空字符串都不通过
	return r.re != nil && r.re.MatchString(s)
}
