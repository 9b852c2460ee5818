package provider

import (
	"reflect"

	"katydid-model-validation/pkg/validation"
	"katydid-model-validation/pkg/validation/metadata"
)

var selfValidatorType = reflect.TypeOf((*validation.SelfValidator)(nil)).Elem()

// SelfValidatingProvider 为实现了 validation.SelfValidator 的模型提供类型级校验器
type SelfValidatingProvider struct{}

// NewSelfValidatingProvider 创建自校验提供者
func NewSelfValidatingProvider() *SelfValidatingProvider {
	return &SelfValidatingProvider{}
}

// GetValidators 实现 validation.Provider 接口
func (p *SelfValidatingProvider) GetValidators(md *metadata.Metadata, _ *validation.Registry) []validation.ModelValidator {
	if md == nil || md.ContainerType() != nil || md.ModelType() == nil {
		return nil
	}

	typ := md.ModelType()
	if !typ.Implements(selfValidatorType) && !reflect.PointerTo(typ).Implements(selfValidatorType) {
		return nil
	}
	return []validation.ModelValidator{&selfValidator{metadata: md}}
}

// selfValidator 调用模型自身的 ValidateSelf
type selfValidator struct {
	metadata *metadata.Metadata
}

// IsRequired 实现 validation.ModelValidator 接口
func (v *selfValidator) IsRequired() bool {
	return false
}

// Validate 实现 validation.ModelValidator 接口
func (v *selfValidator) Validate(_ any) []validation.Result {
	sv, ok := asSelfValidator(v.metadata.Model())
	if !ok {
		return nil
	}

	var results []validation.Result
	sv.ValidateSelf(func(memberName, message string) {
		results = append(results, validation.Result{MemberName: memberName, Message: message})
	})
	return results
}

// asSelfValidator 值类型只在指针上实现接口时，复制一份取地址后调用
func asSelfValidator(model any) (validation.SelfValidator, bool) {
	if model == nil {
		return nil, false
	}
	if sv, ok := model.(validation.SelfValidator); ok {
		return sv, true
	}

	val := reflect.ValueOf(model)
	if val.Kind() == reflect.Ptr {
		return nil, false
	}
	ptr := reflect.New(val.Type())
	ptr.Elem().Set(val)
	sv, ok := ptr.Interface().(validation.SelfValidator)
	return sv, ok
}
