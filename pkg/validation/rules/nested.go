package rules

import (
	"reflect"

	"katydid-model-validation/pkg/validation"
	"katydid-model-validation/pkg/validation/metadata"
)

// Nested 嵌套校验规则：重新进入提供者注册表，校验子结构体的每个成员
// 返回第一个失败，成员名形如 "Address.City"（相对于外层容器）
// 成员带有该规则时 Engine 不再自动递归，子结构体只由规则校验一次
type Nested struct {
	// Metadata 元数据提供者，nil 时使用校验上下文中的提供者
	Metadata metadata.Provider
	// Message 自定义消息模板（%[1]s 显示名）
	Message string
}

// metadataFor 选择元数据提供者：规则显式配置 > 校验上下文 > 全局默认
func metadataFor(mp metadata.Provider, ctx *validation.Context) metadata.Provider {
	if mp != nil {
		return mp
	}
	if ctx != nil && ctx.MetadataProvider != nil {
		return ctx.MetadataProvider
	}
	return metadata.Default()
}

// Kind 实现 validation.Rule 接口
func (Nested) Kind() validation.RuleKind {
	return validation.KindNested
}

// FormatErrorMessage 实现 validation.Rule 接口
func (r Nested) FormatErrorMessage(name string) string {
	return formatMessage(r.Message, "The field %s is invalid.", name)
}

// Evaluate 实现 validation.ContextRule 接口
func (r Nested) Evaluate(value any, ctx *validation.Context) *validation.RuleResult {
	if value == nil || ctx == nil || ctx.Providers == nil {
		return validation.Success
	}

	val := reflect.ValueOf(value)
	if val.Kind() == reflect.Ptr && val.IsNil() {
		return validation.Success
	}

	mp := metadataFor(r.Metadata, ctx)

	properties, err := mp.GetMetadataForProperties(value, reflect.TypeOf(value))
	if err != nil {
		return validation.Fail(err.Error(), ctx.MemberName)
	}

	for _, md := range properties {
		for _, v := range ctx.Providers.GetValidators(md) {
			results := v.Validate(value)
			if len(results) == 0 {
				continue
			}
			first := results[0]
			member := md.PropertyName()
			if first.MemberName != "" {
				member = first.MemberName
			}
			if ctx.MemberName != "" {
				member = ctx.MemberName + "." + member
			}
			return validation.Fail(first.Message, member)
		}
	}
	return validation.Success
}
