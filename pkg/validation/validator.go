package validation

import (
	"reflect"

	"katydid-model-validation/pkg/validation/core"
	"katydid-model-validation/pkg/validation/metadata"
)

// ModelValidator 模型校验器接口
// 由 Provider 产出，被绑定层调用
type ModelValidator interface {
	// Validate 对 container 中的成员执行校验，空结果表示通过
	Validate(container any) []Result

	// IsRequired 是否为必填类校验器
	IsRequired() bool
}

// dispatchMode 规则调用形式，构造时确定
type dispatchMode int

const (
	dispatchValue dispatchMode = iota + 1
	dispatchContext
)

// Validator 把一条规则绑定到一个成员元数据上的校验器
// 特性：
//   - 构造时校验参数，nil 参数立即返回参数错误
//   - 错误消息在构造时格式化并缓存，校验时不再格式化
//   - 调用形式（值/上下文）在构造时选定，不在校验时探测
//   - 构造后无状态，同一输入多次校验结果一致
type Validator struct {
	metadata     *metadata.Metadata
	providers    *Registry
	rule         Rule
	mode         dispatchMode
	errorMessage string
}

// NewValidator 创建校验器
// 参数：
//   - md: 成员元数据
//   - providers: 当前生效的提供者注册表（可以为空注册表，不能为 nil）
//   - rule: 校验规则，必须实现 ValueRule 或 ContextRule
func NewValidator(md *metadata.Metadata, providers *Registry, rule Rule) (*Validator, error) {
	if md == nil {
		return nil, core.NewArgumentNilError("metadata")
	}
	if providers == nil {
		return nil, core.NewArgumentNilError("validatorProviders")
	}
	if IsNilRule(rule) {
		return nil, core.NewArgumentNilError("rule")
	}

	var mode dispatchMode
	switch rule.(type) {
	case ContextRule:
		mode = dispatchContext
	case ValueRule:
		mode = dispatchValue
	default:
		return nil, core.ErrUnsupportedRule
	}

	return &Validator{
		metadata:     md,
		providers:    providers,
		rule:         rule,
		mode:         mode,
		errorMessage: rule.FormatErrorMessage(md.GetDisplayName()),
	}, nil
}

// IsNilRule 判断规则是否为 nil，包含装在接口里的 nil 指针
func IsNilRule(rule Rule) bool {
	if rule == nil {
		return true
	}
	val := reflect.ValueOf(rule)
	switch val.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return val.IsNil()
	default:
		return false
	}
}

// MustNewValidator 创建校验器，参数错误时 panic
// 仅用于启动阶段的静态注册
func MustNewValidator(md *metadata.Metadata, providers *Registry, rule Rule) *Validator {
	v, err := NewValidator(md, providers, rule)
	if err != nil {
		panic(err)
	}
	return v
}

// Metadata 返回绑定的元数据
func (v *Validator) Metadata() *metadata.Metadata {
	return v.metadata
}

// Rule 返回绑定的规则
func (v *Validator) Rule() Rule {
	return v.rule
}

// ErrorMessage 返回构造时格式化好的错误消息
func (v *Validator) ErrorMessage() string {
	return v.errorMessage
}

// IsRequired 实现 ModelValidator 接口
func (v *Validator) IsRequired() bool {
	return v.rule.Kind() == KindRequired
}

// Validate 实现 ModelValidator 接口
// 规则本身的 panic 不会被捕获，由调用方决定是否隔离
func (v *Validator) Validate(container any) []Result {
	if v.mode == dispatchContext {
		return v.validateWithContext(container)
	}

	if v.rule.(ValueRule).IsValid(v.metadata.Model()) {
		return nil
	}
	return []Result{{MemberName: "", Message: v.errorMessage}}
}

// validateWithContext 使用上下文形式执行规则
func (v *Validator) validateWithContext(container any) []Result {
	ctx := &Context{
		Container:   container,
		Metadata:    v.metadata,
		DisplayName: v.metadata.GetDisplayName(),
		MemberName:  v.metadata.PropertyName(),
		Providers:   v.providers,

		MetadataProvider: v.providers.Metadata(),
	}

	result := v.rule.(ContextRule).Evaluate(v.metadata.Model(), ctx)
	if result == Success {
		return nil
	}

	message := result.Message
	if message == "" {
		message = v.errorMessage
	}

	if len(result.MemberNames) == 0 {
		return []Result{{MemberName: "", Message: message}}
	}

	// 多个成员共用同一条消息
	results := make([]Result, 0, len(result.MemberNames))
	for _, name := range result.MemberNames {
		results = append(results, Result{MemberName: name, Message: message})
	}
	return results
}
