package rules

import (
	"fmt"
	"reflect"

	"katydid-model-validation/pkg/validation"
	"katydid-model-validation/pkg/validation/metadata"
)

// Compare 跨字段比较规则：成员值必须与容器中另一个成员相等
// 例如 ConfirmPassword 必须等于 Password
type Compare struct {
	// Other 被比较的成员名
	Other string
	// Metadata 元数据提供者，nil 时使用校验上下文中的提供者
	Metadata metadata.Provider
	// Message 自定义消息模板（%[1]s 显示名，%[2]s 被比较的成员名）
	Message string
}

// NewCompare 创建比较规则
func NewCompare(other string) Compare {
	return Compare{Other: other}
}

// Kind 实现 validation.Rule 接口
func (Compare) Kind() validation.RuleKind {
	return validation.KindCompare
}

// FormatErrorMessage 实现 validation.Rule 接口
func (r Compare) FormatErrorMessage(name string) string {
	return formatMessage(r.Message, "'%s' and '%s' do not match.", name, r.Other)
}

// Evaluate 实现 validation.ContextRule 接口
func (r Compare) Evaluate(value any, ctx *validation.Context) *validation.RuleResult {
	if ctx == nil || ctx.Container == nil || ctx.Metadata == nil || ctx.Metadata.ContainerType() == nil {
		return validation.Fail(fmt.Sprintf("Could not find a property named %s.", r.Other))
	}

	mp := metadataFor(r.Metadata, ctx)

	properties, err := mp.GetMetadataForProperties(ctx.Container, ctx.Metadata.ContainerType())
	if err != nil {
		return validation.Fail(err.Error())
	}

	for _, md := range properties {
		if md.PropertyName() != r.Other {
			continue
		}
		if reflect.DeepEqual(value, md.Model()) {
			return validation.Success
		}
		// 消息留空，由校验器使用预先格式化的消息
		return validation.Fail("", ctx.MemberName)
	}

	return validation.Fail(fmt.Sprintf("Could not find a property named %s.", r.Other))
}
