package rules

import "katydid-model-validation/pkg/validation"

// Func 函数形式的值校验规则
type Func struct {
	check func(value any) bool
	// Message 消息模板（%[1]s 显示名）
	Message string
}

// NewFunc 创建函数规则
func NewFunc(message string, check func(value any) bool) Func {
	return Func{check: check, Message: message}
}

// Kind 实现 validation.Rule 接口
func (Func) Kind() validation.RuleKind {
	return validation.KindCustom
}

// FormatErrorMessage 实现 validation.Rule 接口
func (r Func) FormatErrorMessage(name string) string {
	return formatMessage(r.Message, "The field %s is invalid.", name)
}

// IsValid 实现 validation.ValueRule 接口
func (r Func) IsValid(value any) bool {
	return r.check == nil || r.check(value)
}

// ContextFunc 函数形式的上下文校验规则
type ContextFunc struct {
	evaluate func(value any, ctx *validation.Context) *validation.RuleResult
	// Message 消息模板（%[1]s 显示名）
	Message string
}

// NewContextFunc 创建上下文函数规则
func NewContextFunc(message string, evaluate func(value any, ctx *validation.Context) *validation.RuleResult) ContextFunc {
	return ContextFunc{evaluate: evaluate, Message: message}
}

// Kind 实现 validation.Rule 接口
func (ContextFunc) Kind() validation.RuleKind {
	return validation.KindCustom
}

// FormatErrorMessage 实现 validation.Rule 接口
func (r ContextFunc) FormatErrorMessage(name string) string {
	return formatMessage(r.Message, "The field %s is invalid.", name)
}

// Evaluate 实现 validation.ContextRule 接口
func (r ContextFunc) Evaluate(value any, ctx *validation.Context) *validation.RuleResult {
	if r.evaluate == nil {
		return validation.Success
	}
	return r.evaluate(value, ctx)
}
