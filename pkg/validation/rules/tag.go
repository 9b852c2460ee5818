package rules

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"katydid-model-validation/pkg/validation"
)

var stringType = reflect.TypeOf("")

var (
	// sharedValidate 共享的 go-playground 校验器实例
	// 说明：*validator.Validate 是并发安全的，并且内部缓存了标签解析结果
	sharedValidate     *validator.Validate
	sharedValidateOnce sync.Once
)

// SharedValidate 返回共享的 go-playground 校验器
// 可以在启动阶段通过 RegisterValidation 注册自定义标签
func SharedValidate() *validator.Validate {
	sharedValidateOnce.Do(func() {
		sharedValidate = validator.New()
	})
	return sharedValidate
}

// Tag 基于 go-playground/validator 标签表达式的规则
// 如 "email"、"uuid4"、"oneof=red green"、"min=3,max=20"
type Tag struct {
	expr     string
	validate *validator.Validate
	// Message 自定义消息模板（%[1]s 显示名，%[2]s 标签表达式）
	Message string
}

// NewTag 使用共享校验器创建标签规则
func NewTag(expr string) (Tag, error) {
	return NewTagWith(SharedValidate(), expr)
}

// NewTagWith 使用指定的校验器创建标签规则，按字符串试运行表达式
func NewTagWith(v *validator.Validate, expr string) (Tag, error) {
	return NewTagFor(v, expr, stringType)
}

// NewTagFor 使用指定的校验器创建标签规则，按成员类型 typ 的零值试运行表达式
// 未知标签、参数错误、与类型不匹配的标签都会在这里返回错误
// 跨字段标签（eqfield、required_with 等）需要容器实例，应使用 StructTag
func NewTagFor(v *validator.Validate, expr string, typ reflect.Type) (Tag, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Tag{}, fmt.Errorf("empty tag expression")
	}
	if name, ok := CrossFieldTag(expr); ok {
		return Tag{}, fmt.Errorf("tag %q in %q needs the container struct, use StructTag", name, expr)
	}
	if v == nil {
		v = SharedValidate()
	}
	if err := trialTag(v, expr, typ); err != nil {
		return Tag{}, err
	}
	return Tag{expr: expr, validate: v}, nil
}

// Expr 返回标签表达式
func (r Tag) Expr() string {
	return r.expr
}

// Kind 实现 validation.Rule 接口
func (Tag) Kind() validation.RuleKind {
	return validation.KindTag
}

// FormatErrorMessage 实现 validation.Rule 接口
func (r Tag) FormatErrorMessage(name string) string {
	return formatMessage(r.Message, "The field %s is invalid (%s).", name, r.expr)
}

// IsValid 实现 validation.ValueRule 接口
// nil 值只在表达式包含 required 时不通过
func (r Tag) IsValid(value any) bool {
	if r.validate == nil {
		return false
	}
	if value == nil {
		return !strings.Contains(r.expr, "required")
	}

	val := reflect.ValueOf(value)
	if val.Kind() == reflect.Ptr && val.IsNil() {
		return !strings.Contains(r.expr, "required")
	}

	return r.check(value)
}

// check 执行表达式，值的类型与表达式不匹配导致的 panic 视为不通过
func (r Tag) check(value any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return r.validate.Var(value, r.expr) == nil
}

// trialTag 试运行标签表达式
// go-playground 对未注册的标签、非法参数、不支持的类型都会 panic，这里统一转换为错误
func trialTag(v *validator.Validate, expr string, typ reflect.Type) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid tag expression %q: %v", expr, r)
		}
	}()
	_ = v.Var(sampleValue(typ), expr)
	return nil
}

// sampleValue 构造试运行用的值：指针取指向零值的指针，其余取零值
func sampleValue(typ reflect.Type) any {
	if typ == nil {
		return ""
	}
	if typ.Kind() == reflect.Ptr {
		return reflect.New(typ.Elem()).Interface()
	}
	return reflect.Zero(typ).Interface()
}
