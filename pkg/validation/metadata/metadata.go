package metadata

import (
	"reflect"
	"sync"
)

// Accessor 模型值的延迟访问器
// 说明：只有在真正需要值时才会被调用（例如执行校验规则时）
type Accessor func() any

// Metadata 可绑定模型成员的元数据描述
// 设计原则：
//   - 不可变：构造完成后不再修改（Model 只在首次访问时求值一次）
//   - 每次查找都返回新实例，原型数据来自 Provider 的缓存
type Metadata struct {
	containerType reflect.Type
	modelType     reflect.Type
	propertyName  string
	displayName   string
	accessor      Accessor

	modelOnce sync.Once
	model     any
}

// newMetadata 基于原型数据创建元数据，绑定访问器
func newMetadata(containerType, modelType reflect.Type, propertyName, displayName string, accessor Accessor) *Metadata {
	return &Metadata{
		containerType: containerType,
		modelType:     modelType,
		propertyName:  propertyName,
		displayName:   displayName,
		accessor:      accessor,
	}
}

// ContainerType 容器类型（类型级元数据为 nil）
func (m *Metadata) ContainerType() reflect.Type {
	return m.containerType
}

// ModelType 成员类型
func (m *Metadata) ModelType() reflect.Type {
	return m.modelType
}

// PropertyName 成员名（类型级元数据为空）
func (m *Metadata) PropertyName() string {
	return m.propertyName
}

// DisplayName 显示名（未配置时为空）
func (m *Metadata) DisplayName() string {
	return m.displayName
}

// Model 返回成员的当前值
// 访问器为 nil 时返回 nil；访问器只会被调用一次
func (m *Metadata) Model() any {
	m.modelOnce.Do(func() {
		if m.accessor != nil {
			m.model = m.accessor()
		}
	})
	return m.model
}

// GetDisplayName 返回用于错误消息的名称
// 优先级：DisplayName > PropertyName > 类型名
func (m *Metadata) GetDisplayName() string {
	if m.displayName != "" {
		return m.displayName
	}
	if m.propertyName != "" {
		return m.propertyName
	}
	if m.modelType != nil {
		return m.modelType.Name()
	}
	return ""
}

// IsComplexType 成员类型是否为结构体（指针会先解引用）
func (m *Metadata) IsComplexType() bool {
	typ := m.modelType
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return typ != nil && typ.Kind() == reflect.Struct
}

// Key 元数据的缓存键，形如 "pkg.User.Email"
func (m *Metadata) Key() string {
	if m.containerType == nil {
		if m.modelType == nil {
			return ""
		}
		return m.modelType.String()
	}
	return m.containerType.String() + "." + m.propertyName
}
