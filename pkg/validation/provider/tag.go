package provider

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"katydid-model-validation/pkg/validation"
	"katydid-model-validation/pkg/validation/metadata"
	"katydid-model-validation/pkg/validation/rules"
)

const (
	// defaultTagName 默认的结构体标签名
	defaultTagName = "validate"
	// tagRequired 必填标签
	tagRequired = "required"
	// tagOmitEmpty 空值跳过标签
	tagOmitEmpty = "omitempty"
	// tagSkip 跳过校验
	tagSkip = "-"
)

// TagProvider 从结构体标签推导校验规则
// 规则：
//   - `validate:"required"` 映射为 rules.Required（必填校验器）
//   - 其余标签合并为一个 rules.Tag，交给 go-playground/validator 执行
//   - 含跨字段标签（eqfield、required_with 等）时改用 rules.StructTag，在容器上下文中执行
//   - 每个成员的标签只解析一次并缓存
type TagProvider struct {
	tagName  string
	validate *validator.Validate
	// cache key: memberKey, value: []validation.Rule
	cache sync.Map
}

// TagOption TagProvider 选项
type TagOption func(*TagProvider)

// WithTagName 设置标签名（默认 validate）
func WithTagName(name string) TagOption {
	return func(p *TagProvider) {
		if name != "" {
			p.tagName = name
		}
	}
}

// WithValidate 使用指定的 go-playground 校验器（例如注册了自定义标签的实例）
// 与 WithTagName 同时使用时，v 需要自行 SetTagName，跨字段标签按 v 的标签名读取
func WithValidate(v *validator.Validate) TagOption {
	return func(p *TagProvider) {
		if v != nil {
			p.validate = v
		}
	}
}

// NewTagProvider 创建标签提供者
func NewTagProvider(opts ...TagOption) *TagProvider {
	p := &TagProvider{
		tagName: defaultTagName,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.validate == nil {
		if p.tagName == defaultTagName {
			p.validate = rules.SharedValidate()
		} else {
			p.validate = validator.New()
			p.validate.SetTagName(p.tagName)
		}
	}
	return p
}

// GetValidators 实现 validation.Provider 接口
// 标签表达式非法属于配置错误，直接 panic
func (p *TagProvider) GetValidators(md *metadata.Metadata, providers *validation.Registry) []validation.ModelValidator {
	if md == nil || md.ContainerType() == nil {
		return nil
	}

	ruleSet, err := p.rulesFor(md.ContainerType(), md.PropertyName())
	if err != nil {
		panic(err)
	}
	if len(ruleSet) == 0 {
		return nil
	}

	validators := make([]validation.ModelValidator, 0, len(ruleSet))
	for _, rule := range ruleSet {
		validators = append(validators, validation.MustNewValidator(md, providers, rule))
	}
	return validators
}

// rulesFor 获取（或解析并缓存）成员的规则
func (p *TagProvider) rulesFor(containerType reflect.Type, member string) ([]validation.Rule, error) {
	key := memberKey{typ: indirectType(containerType), member: member}
	if cached, ok := p.cache.Load(key); ok {
		return cached.([]validation.Rule), nil
	}

	var parsed []validation.Rule
	if key.typ.Kind() == reflect.Struct {
		if field, ok := key.typ.FieldByName(member); ok {
			var err error
			parsed, err = p.parse(key.typ, field)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", key.typ, member, err)
			}
		}
	}

	actual, _ := p.cache.LoadOrStore(key, parsed)
	return actual.([]validation.Rule), nil
}

// parse 把字段的标签表达式拆分为规则
func (p *TagProvider) parse(containerType reflect.Type, field reflect.StructField) ([]validation.Rule, error) {
	expr := strings.TrimSpace(field.Tag.Get(p.tagName))
	if expr == "" || expr == tagSkip {
		return nil, nil
	}

	var (
		result   []validation.Rule
		rest     []string
		required bool
	)
	for i, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		// dive 之后的标签作用于元素，整体交给 go-playground
		if part == "dive" {
			rest = append(rest, strings.Split(expr, ",")[i:]...)
			break
		}
		if part == tagRequired {
			required = true
			continue
		}
		if part != "" {
			rest = append(rest, part)
		}
	}

	if required {
		result = append(result, rules.Required{})
	}
	if len(rest) == 0 || (len(rest) == 1 && rest[0] == tagOmitEmpty) {
		return result, nil
	}

	joined := strings.Join(rest, ",")
	if _, ok := rules.CrossFieldTag(joined); ok {
		tag, err := rules.NewStructTag(p.validate, containerType, fieldPath(containerType, field.Index), joined)
		if err != nil {
			return nil, err
		}
		return append(result, tag), nil
	}

	tag, err := rules.NewTagFor(p.validate, joined, field.Type)
	if err != nil {
		return nil, err
	}
	return append(result, tag), nil
}

// fieldPath 把字段索引转换为 StructPartial 使用的路径（嵌入字段形如 "Audit.CreatedBy"）
func fieldPath(typ reflect.Type, index []int) string {
	names := make([]string, 0, len(index))
	for _, i := range index {
		for typ.Kind() == reflect.Ptr {
			typ = typ.Elem()
		}
		f := typ.Field(i)
		names = append(names, f.Name)
		typ = f.Type
	}
	return strings.Join(names, ".")
}
