package metadata

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"katydid-model-validation/pkg/validation/core"
)

// Provider 元数据提供者接口
// 职责：根据容器类型和成员名解析元数据描述
type Provider interface {
	// GetMetadataForType 获取类型级元数据
	// typ 为 nil 时返回参数错误
	GetMetadataForType(accessor Accessor, typ reflect.Type) (*Metadata, error)

	// GetMetadataForProperty 获取单个成员的元数据
	// containerType 为 nil 或 propertyName 为空时返回参数错误
	GetMetadataForProperty(accessor Accessor, containerType reflect.Type, propertyName string) (*Metadata, error)

	// GetMetadataForProperties 获取容器所有成员的元数据（按声明顺序）
	// 每个成员的访问器都绑定到传入的 container 实例
	GetMetadataForProperties(container any, containerType reflect.Type) ([]*Metadata, error)
}

// PropertySchema 成员的静态注册信息
// 用途：不依赖反射，显式声明容器类型的成员表
type PropertySchema struct {
	// Name 成员名（必填）
	Name string
	// DisplayName 显示名（可选）
	DisplayName string
	// ModelType 成员类型（可选，缺省时从同名结构体字段推导）
	ModelType reflect.Type
	// Getter 从容器实例读取成员值（可选，缺省时按同名结构体字段读取）
	Getter func(container any) any
}

// CacheStats 缓存统计信息
type CacheStats struct {
	Hits   int64
	Misses int64
	Size   int
}

// propertyPrototype 成员原型（缓存的不可变数据）
type propertyPrototype struct {
	name        string
	displayName string
	modelType   reflect.Type
	getter      func(container any) any
}

// typePrototype 类型原型（缓存的不可变数据）
type typePrototype struct {
	typ        reflect.Type
	properties []*propertyPrototype
	byName     map[string]*propertyPrototype
	// source 构建时使用的注册表，反射推导时为 nil
	source *schemaEntry
}

// schemaEntry 一次 Register 调用的成员表，以指针身份区分不同的注册
type schemaEntry struct {
	properties []PropertySchema
}

// CachedProvider 带缓存的元数据提供者
// 设计目标：
//   - 每个类型只推导一次（静态注册表或反射），进程生命周期内缓存
//   - 读路径无锁（sync.Map），并发首次填充时以先写入者为准
//   - 重复推导是安全的：原型是 (类型, 注册表) 的纯函数
type CachedProvider struct {
	// prototypes key: reflect.Type, value: *typePrototype
	prototypes sync.Map
	// schemas key: reflect.Type, value: *schemaEntry
	schemas sync.Map

	hits   atomic.Int64
	misses atomic.Int64
}

var (
	// defaultProvider 全局默认提供者（单例）
	defaultProvider *CachedProvider
	// providerOnce 确保默认提供者只初始化一次
	providerOnce sync.Once
)

// Default 获取全局默认元数据提供者
func Default() *CachedProvider {
	providerOnce.Do(func() {
		defaultProvider = NewCachedProvider()
	})
	return defaultProvider
}

// NewCachedProvider 创建带缓存的元数据提供者
func NewCachedProvider() *CachedProvider {
	return &CachedProvider{}
}

// Register 为容器类型静态注册成员表
// 注册后该类型不再走反射推导；应在启动阶段调用
// 与查找并发时，并发中的查找可能仍返回旧原型，Register 返回后开始的查找一定使用新成员表
func (p *CachedProvider) Register(containerType reflect.Type, properties ...PropertySchema) error {
	if containerType == nil {
		return core.NewArgumentNilError("containerType")
	}
	containerType = indirectType(containerType)

	seen := make(map[string]struct{}, len(properties))
	for i, prop := range properties {
		if prop.Name == "" {
			return fmt.Errorf("property #%d: %w", i, core.NewArgumentEmptyError("name"))
		}
		if _, dup := seen[prop.Name]; dup {
			return fmt.Errorf("duplicate property '%s' for type %s", prop.Name, containerType)
		}
		seen[prop.Name] = struct{}{}
	}

	schema := make([]PropertySchema, len(properties))
	copy(schema, properties)
	p.schemas.Store(containerType, &schemaEntry{properties: schema})
	// 丢弃旧原型，下一次查找按注册表重建
	p.prototypes.Delete(containerType)
	return nil
}

// RegisterType 泛型便捷注册
func RegisterType[T any](p *CachedProvider, properties ...PropertySchema) error {
	return p.Register(reflect.TypeOf((*T)(nil)).Elem(), properties...)
}

// GetMetadataForType 实现 Provider 接口
func (p *CachedProvider) GetMetadataForType(accessor Accessor, typ reflect.Type) (*Metadata, error) {
	if typ == nil {
		return nil, core.NewArgumentNilError("modelType")
	}
	return newMetadata(nil, typ, "", "", accessor), nil
}

// GetMetadataForProperty 实现 Provider 接口
func (p *CachedProvider) GetMetadataForProperty(accessor Accessor, containerType reflect.Type, propertyName string) (*Metadata, error) {
	if containerType == nil {
		return nil, core.NewArgumentNilError("containerType")
	}
	if propertyName == "" {
		return nil, core.NewArgumentEmptyError("propertyName")
	}

	proto := p.prototype(containerType)
	prop, ok := proto.byName[propertyName]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", core.ErrPropertyNotFound, proto.typ, propertyName)
	}

	return newMetadata(proto.typ, prop.modelType, prop.name, prop.displayName, accessor), nil
}

// GetMetadataForProperties 实现 Provider 接口
func (p *CachedProvider) GetMetadataForProperties(container any, containerType reflect.Type) ([]*Metadata, error) {
	if containerType == nil {
		return nil, core.NewArgumentNilError("containerType")
	}

	proto := p.prototype(containerType)
	result := make([]*Metadata, 0, len(proto.properties))
	for _, prop := range proto.properties {
		result = append(result, newMetadata(proto.typ, prop.modelType, prop.name, prop.displayName, bindAccessor(container, prop)))
	}
	return result, nil
}

// Stats 返回缓存统计信息
func (p *CachedProvider) Stats() CacheStats {
	size := 0
	p.prototypes.Range(func(_, _ any) bool {
		size++
		return true
	})
	return CacheStats{
		Hits:   p.hits.Load(),
		Misses: p.misses.Load(),
		Size:   size,
	}
}

// ClearCache 清空原型缓存（静态注册表保留）
// 仅用于测试或热加载场景
func (p *CachedProvider) ClearCache() {
	p.prototypes.Range(func(key, _ any) bool {
		p.prototypes.Delete(key)
		return true
	})
}

// prototype 获取或构建类型原型
func (p *CachedProvider) prototype(containerType reflect.Type) *typePrototype {
	typ := indirectType(containerType)

	for {
		// 热路径：命中缓存
		if cached, ok := p.prototypes.Load(typ); ok {
			p.hits.Add(1)
			return cached.(*typePrototype)
		}
		p.misses.Add(1)

		// 冷路径：推导原型，LoadOrStore 保证并发时只有一个结果生效
		entry := p.schema(typ)
		var proto *typePrototype
		if entry != nil {
			proto = buildFromSchema(typ, entry.properties)
		} else {
			proto = buildFromReflection(typ)
		}
		proto.source = entry

		actual, _ := p.prototypes.LoadOrStore(typ, proto)
		got := actual.(*typePrototype)
		if got.source == p.schema(typ) {
			return got
		}
		// 推导期间发生了 Register，丢弃按旧成员表构建的原型后重建
		p.prototypes.CompareAndDelete(typ, got)
	}
}

// schema 返回类型当前的注册表，未注册时为 nil
func (p *CachedProvider) schema(typ reflect.Type) *schemaEntry {
	if entry, ok := p.schemas.Load(typ); ok {
		return entry.(*schemaEntry)
	}
	return nil
}

// buildFromSchema 由静态注册表构建原型
func buildFromSchema(typ reflect.Type, schema []PropertySchema) *typePrototype {
	proto := &typePrototype{
		typ:        typ,
		properties: make([]*propertyPrototype, 0, len(schema)),
		byName:     make(map[string]*propertyPrototype, len(schema)),
	}

	for _, s := range schema {
		prop := &propertyPrototype{
			name:        s.Name,
			displayName: s.DisplayName,
			modelType:   s.ModelType,
			getter:      s.Getter,
		}

		// 缺省项从同名结构体字段补齐
		if typ.Kind() == reflect.Struct {
			if field, ok := typ.FieldByName(s.Name); ok && field.IsExported() {
				if prop.modelType == nil {
					prop.modelType = field.Type
				}
				if prop.getter == nil {
					prop.getter = fieldGetter(field.Index)
				}
			}
		}

		proto.properties = append(proto.properties, prop)
		proto.byName[prop.name] = prop
	}
	return proto
}

// buildFromReflection 由结构体反射构建原型
// 规则：
//   - 只收集导出字段（包含嵌入结构体提升的字段）
//   - display tag 作为显示名，display:"-" 或 json:"-" 表示隐藏
func buildFromReflection(typ reflect.Type) *typePrototype {
	proto := &typePrototype{
		typ:    typ,
		byName: make(map[string]*propertyPrototype),
	}
	if typ.Kind() != reflect.Struct {
		return proto
	}

	for _, field := range reflect.VisibleFields(typ) {
		if field.Anonymous || !field.IsExported() {
			continue
		}
		// 同名字段被外层遮蔽时 VisibleFields 只返回外层字段
		if _, exists := proto.byName[field.Name]; exists {
			continue
		}

		display := field.Tag.Get("display")
		if display == "-" || strings.SplitN(field.Tag.Get("json"), ",", 2)[0] == "-" {
			continue
		}

		prop := &propertyPrototype{
			name:        field.Name,
			displayName: display,
			modelType:   field.Type,
			getter:      fieldGetter(field.Index),
		}
		proto.properties = append(proto.properties, prop)
		proto.byName[prop.name] = prop
	}
	return proto
}

// fieldGetter 按字段索引读取值
// 嵌入的 nil 指针、非结构体容器都返回 nil
func fieldGetter(index []int) func(container any) any {
	return func(container any) any {
		val := reflect.ValueOf(container)
		for val.Kind() == reflect.Ptr {
			if val.IsNil() {
				return nil
			}
			val = val.Elem()
		}
		if val.Kind() != reflect.Struct {
			return nil
		}
		field, err := val.FieldByIndexErr(index)
		if err != nil || !field.CanInterface() {
			return nil
		}
		return field.Interface()
	}
}

// bindAccessor 把成员原型绑定到具体容器实例
func bindAccessor(container any, prop *propertyPrototype) Accessor {
	if container == nil || prop.getter == nil {
		return nil
	}
	getter := prop.getter
	return func() any {
		return getter(container)
	}
}

// indirectType 解引用指针类型
func indirectType(typ reflect.Type) reflect.Type {
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return typ
}
