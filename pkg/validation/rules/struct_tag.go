package rules

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"katydid-model-validation/pkg/validation"
)

// crossFieldTags 需要访问同级字段的 go-playground 标签
var crossFieldTags = map[string]struct{}{
	"eqfield": {}, "nefield": {}, "gtfield": {}, "gtefield": {}, "ltfield": {}, "ltefield": {},
	"eqcsfield": {}, "necsfield": {}, "gtcsfield": {}, "gtecsfield": {}, "ltcsfield": {}, "ltecsfield": {},
	"fieldcontains": {}, "fieldexcludes": {},
	"required_if": {}, "required_unless": {},
	"required_with": {}, "required_with_all": {}, "required_without": {}, "required_without_all": {},
	"excluded_if": {}, "excluded_unless": {},
	"excluded_with": {}, "excluded_with_all": {}, "excluded_without": {}, "excluded_without_all": {},
	"skip_unless": {},
}

// CrossFieldTag 返回表达式中第一个跨字段标签的名称
func CrossFieldTag(expr string) (string, bool) {
	for _, part := range strings.FieldsFunc(expr, func(r rune) bool { return r == ',' || r == '|' }) {
		name, _, _ := strings.Cut(strings.TrimSpace(part), "=")
		if _, ok := crossFieldTags[name]; ok {
			return name, true
		}
	}
	return "", false
}

// StructTag 在容器结构体上下文中执行字段标签的规则
// 通过 StructPartial 校验单个字段，eqfield、required_with 等跨字段标签可以看到同级字段
// 执行的是字段上声明的标签（由校验器的标签名决定），expr 只用于错误消息
type StructTag struct {
	field    string
	expr     string
	validate *validator.Validate
	// Message 自定义消息模板（%[1]s 显示名，%[2]s 标签表达式）
	Message string
}

// NewStructTag 创建结构体上下文标签规则
// field 为相对于 containerType 的字段路径（嵌入字段形如 "Audit.CreatedBy"）
// 构造时在 containerType 的零值上试运行一次，标签错误立即返回
func NewStructTag(v *validator.Validate, containerType reflect.Type, field, expr string) (StructTag, error) {
	if containerType == nil {
		return StructTag{}, fmt.Errorf("struct tag %q: nil container type", expr)
	}
	for containerType.Kind() == reflect.Ptr {
		containerType = containerType.Elem()
	}
	if containerType.Kind() != reflect.Struct {
		return StructTag{}, fmt.Errorf("struct tag %q: %s is not a struct", expr, containerType)
	}
	if field == "" {
		return StructTag{}, fmt.Errorf("struct tag %q: empty field", expr)
	}
	if v == nil {
		v = SharedValidate()
	}

	r := StructTag{field: field, expr: strings.TrimSpace(expr), validate: v}
	if err := r.run(reflect.New(containerType).Interface()); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return StructTag{}, err
		}
	}
	return r, nil
}

// Expr 返回标签表达式
func (r StructTag) Expr() string {
	return r.expr
}

// Field 返回字段路径
func (r StructTag) Field() string {
	return r.field
}

// Kind 实现 validation.Rule 接口
func (StructTag) Kind() validation.RuleKind {
	return validation.KindTag
}

// FormatErrorMessage 实现 validation.Rule 接口
func (r StructTag) FormatErrorMessage(name string) string {
	return formatMessage(r.Message, "The field %s is invalid (%s).", name, r.expr)
}

// Evaluate 实现 validation.ContextRule 接口
func (r StructTag) Evaluate(_ any, ctx *validation.Context) *validation.RuleResult {
	if r.validate == nil || ctx == nil || ctx.Container == nil {
		return validation.Fail(fmt.Sprintf("Could not validate %s without its container.", r.field))
	}

	err := r.run(ctx.Container)
	if err == nil {
		return validation.Success
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		// 消息留空，由校验器使用预先格式化的消息
		return validation.Fail("")
	}
	return validation.Fail(err.Error())
}

// run 执行 StructPartial，panic 转换为错误
func (r StructTag) run(container any) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("invalid tag expression %q on %s: %v", r.expr, r.field, p)
		}
	}()
	return r.validate.StructPartial(container, r.field)
}
