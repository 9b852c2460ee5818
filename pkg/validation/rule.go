package validation

import "katydid-model-validation/pkg/validation/metadata"

// RuleKind 规则类别
// 说明：在注册时显式声明，替代基于类型继承的判断
type RuleKind int

const (
	KindCustom RuleKind = iota
	KindRequired
	KindRange
	KindLength
	KindPattern
	KindTag
	KindCompare
	KindNested
)

// String 返回规则类别名
func (k RuleKind) String() string {
	switch k {
	case KindCustom:
		return "custom"
	case KindRequired:
		return "required"
	case KindRange:
		return "range"
	case KindLength:
		return "length"
	case KindPattern:
		return "pattern"
	case KindTag:
		return "tag"
	case KindCompare:
		return "compare"
	case KindNested:
		return "nested"
	default:
		return "unknown"
	}
}

// Rule 校验规则（声明式注解实例）
// 规则由外部注入，核心不管理其生命周期；实现必须是不可变的
type Rule interface {
	// Kind 规则类别
	Kind() RuleKind

	// FormatErrorMessage 用成员的显示名格式化错误消息
	FormatErrorMessage(name string) string
}

// ValueRule 单参数形式：只根据值判断
type ValueRule interface {
	Rule

	// IsValid 值是否通过校验
	IsValid(value any) bool
}

// ContextRule 双参数形式：可以访问容器实例和提供者注册表
// 用于跨字段校验、嵌套校验等需要重新进入注册表的规则
type ContextRule interface {
	Rule

	// Evaluate 执行校验，返回 Success（nil）表示通过
	Evaluate(value any, ctx *Context) *RuleResult
}

// RuleResult 上下文形式的校验结果
type RuleResult struct {
	// Message 错误消息（为空时使用校验器预先格式化的消息）
	Message string
	// MemberNames 出错的成员名（可选）
	MemberNames []string
}

// Success 校验通过的哨兵值
var Success *RuleResult

// Fail 构造失败结果
func Fail(message string, memberNames ...string) *RuleResult {
	return &RuleResult{
		Message:     message,
		MemberNames: memberNames,
	}
}

// Context 上下文形式规则看到的校验环境
type Context struct {
	// Container 容器实例（类型级校验时为模型本身）
	Container any
	// Metadata 被校验成员的元数据
	Metadata *metadata.Metadata
	// DisplayName 成员显示名
	DisplayName string
	// MemberName 成员名
	MemberName string
	// Providers 当前生效的提供者注册表，用于嵌套校验时重新进入
	Providers *Registry
	// MetadataProvider 当前生效的元数据提供者，解析关联成员和子模型时使用
	MetadataProvider metadata.Provider
}
