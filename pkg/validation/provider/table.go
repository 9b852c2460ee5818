package provider

import (
	"fmt"
	"reflect"
	"sync"

	"katydid-model-validation/pkg/validation"
	"katydid-model-validation/pkg/validation/core"
	"katydid-model-validation/pkg/validation/metadata"
)

// RuleFactory 规则工厂，按成员元数据产出规则
// 返回 nil 表示该成员不需要此规则
type RuleFactory func(md *metadata.Metadata) validation.Rule

// Static 把固定规则包装为工厂
func Static(rule validation.Rule) RuleFactory {
	return func(*metadata.Metadata) validation.Rule {
		return rule
	}
}

// memberKey 注册表键，member 为空表示类型级
type memberKey struct {
	typ    reflect.Type
	member string
}

// Table 显式注册的校验规则表
// 设计目标：
//   - 启动阶段注册 (容器类型, 成员) -> 有序的规则工厂列表，不依赖反射发现
//   - 读多写少，使用读写锁保护
type Table struct {
	mu      sync.RWMutex
	entries map[memberKey][]RuleFactory
}

// NewTable 创建规则表
func NewTable() *Table {
	return &Table{
		entries: make(map[memberKey][]RuleFactory),
	}
}

// Register 为成员注册规则工厂，member 为空表示类型级规则
// 同一成员多次注册时按注册顺序追加
func (t *Table) Register(containerType reflect.Type, member string, factories ...RuleFactory) error {
	if containerType == nil {
		return core.NewArgumentNilError("containerType")
	}
	for i, f := range factories {
		if f == nil {
			return fmt.Errorf("factory #%d: %w", i, core.NewArgumentNilError("factory"))
		}
	}

	key := memberKey{typ: indirectType(containerType), member: member}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[key] = append(t.entries[key], factories...)
	return nil
}

// RegisterRules 为成员注册固定规则
// 规则必须实现 ValueRule 或 ContextRule，否则返回 core.ErrUnsupportedRule
func (t *Table) RegisterRules(containerType reflect.Type, member string, rules ...validation.Rule) error {
	factories := make([]RuleFactory, 0, len(rules))
	for i, rule := range rules {
		if err := checkRule(rule); err != nil {
			return fmt.Errorf("rule #%d for %s: %w", i, member, err)
		}
		factories = append(factories, Static(rule))
	}
	return t.Register(containerType, member, factories...)
}

// Len 已注册的成员数量
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// GetValidators 实现 validation.Provider 接口
// 工厂返回不支持的规则属于配置错误，直接 panic
func (t *Table) GetValidators(md *metadata.Metadata, providers *validation.Registry) []validation.ModelValidator {
	if md == nil {
		return nil
	}

	key, ok := keyOf(md)
	if !ok {
		return nil
	}

	t.mu.RLock()
	factories := t.entries[key]
	t.mu.RUnlock()

	if len(factories) == 0 {
		return nil
	}

	validators := make([]validation.ModelValidator, 0, len(factories))
	for _, factory := range factories {
		rule := factory(md)
		if validation.IsNilRule(rule) {
			continue
		}
		v, err := validation.NewValidator(md, providers, rule)
		if err != nil {
			panic(fmt.Errorf("rule table %s: %w", md.Key(), err))
		}
		validators = append(validators, v)
	}
	return validators
}

// TypeBuilder 泛型注册构建器
//
// 示例：
//
//	err := provider.For[User](table).
//	    Field("Username", rules.Required{}, rules.NewStringLength(3, 20)).
//	    Field("Email", rules.Required{}, rules.MustTag("email")).
//	    Err()
type TypeBuilder struct {
	table *Table
	typ   reflect.Type
	err   error
}

// For 为类型 T 创建注册构建器
func For[T any](t *Table) *TypeBuilder {
	return &TypeBuilder{
		table: t,
		typ:   reflect.TypeOf((*T)(nil)).Elem(),
	}
}

// Field 注册成员规则
func (b *TypeBuilder) Field(name string, rules ...validation.Rule) *TypeBuilder {
	if b.err != nil {
		return b
	}
	if name == "" {
		b.err = core.NewArgumentEmptyError("name")
		return b
	}
	b.err = b.table.RegisterRules(b.typ, name, rules...)
	return b
}

// FieldFunc 注册成员规则工厂
func (b *TypeBuilder) FieldFunc(name string, factories ...RuleFactory) *TypeBuilder {
	if b.err != nil {
		return b
	}
	if name == "" {
		b.err = core.NewArgumentEmptyError("name")
		return b
	}
	b.err = b.table.Register(b.typ, name, factories...)
	return b
}

// Type 注册类型级规则
func (b *TypeBuilder) Type(rules ...validation.Rule) *TypeBuilder {
	if b.err != nil {
		return b
	}
	b.err = b.table.RegisterRules(b.typ, "", rules...)
	return b
}

// Err 返回注册过程中的第一个错误
func (b *TypeBuilder) Err() error {
	return b.err
}

// keyOf 计算元数据对应的注册表键
func keyOf(md *metadata.Metadata) (memberKey, bool) {
	if container := md.ContainerType(); container != nil {
		return memberKey{typ: indirectType(container), member: md.PropertyName()}, true
	}
	if typ := md.ModelType(); typ != nil {
		return memberKey{typ: indirectType(typ)}, true
	}
	return memberKey{}, false
}

// checkRule 检查规则是否可以被校验器调用
func checkRule(rule validation.Rule) error {
	if validation.IsNilRule(rule) {
		return core.NewArgumentNilError("rule")
	}
	switch rule.(type) {
	case validation.ContextRule, validation.ValueRule:
		return nil
	default:
		return core.ErrUnsupportedRule
	}
}

// indirectType 解引用指针类型
func indirectType(typ reflect.Type) reflect.Type {
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return typ
}
