package validation

import (
	"sync"

	"katydid-model-validation/pkg/validation/core"
	"katydid-model-validation/pkg/validation/metadata"
)

// Provider 校验器提供者
// 职责：给定成员元数据，产出适用的校验器
// 新的提供者可以直接注册，无需修改核心代码
type Provider interface {
	// GetValidators 返回适用于 md 的校验器
	// providers 为当前生效的注册表，需要传给产出的校验器
	GetValidators(md *metadata.Metadata, providers *Registry) []ModelValidator
}

// ProviderFunc 函数适配器
type ProviderFunc func(md *metadata.Metadata, providers *Registry) []ModelValidator

// GetValidators 实现 Provider 接口
func (f ProviderFunc) GetValidators(md *metadata.Metadata, providers *Registry) []ModelValidator {
	return f(md, providers)
}

// Registry 校验器提供者注册表
// 特性：
//   - 按注册顺序保存提供者，按注册顺序汇总校验器
//   - 不做去重，也不做缓存（提供者自行缓存）
//   - 空注册表是合法的，此时不会产出任何校验器
//   - 可以绑定元数据提供者，上下文形式的规则通过它解析关联成员
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
	metadata  metadata.Provider
}

// NewRegistry 创建注册表
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{
		providers: make([]Provider, 0, len(providers)),
	}
	for _, p := range providers {
		if p != nil {
			r.providers = append(r.providers, p)
		}
	}
	return r
}

// Register 追加提供者，nil 会被忽略
func (r *Registry) Register(p Provider) *Registry {
	if p == nil {
		return r
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers = append(r.providers, p)
	return r
}

// WithMetadata 绑定元数据提供者，nil 会被忽略
func (r *Registry) WithMetadata(mp metadata.Provider) *Registry {
	if mp == nil {
		return r
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.metadata = mp
	return r
}

// bindMetadata 仅在尚未绑定时绑定元数据提供者
func (r *Registry) bindMetadata(mp metadata.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.metadata == nil {
		r.metadata = mp
	}
}

// Metadata 返回绑定的元数据提供者，未绑定时为全局默认提供者
func (r *Registry) Metadata() metadata.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.metadata == nil {
		return metadata.Default()
	}
	return r.metadata
}

// Len 已注册的提供者数量
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// Providers 返回提供者快照
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]Provider, len(r.providers))
	copy(snapshot, r.providers)
	return snapshot
}

// GetValidators 按注册顺序汇总所有提供者的校验器
// md 为 nil 时返回 nil
func (r *Registry) GetValidators(md *metadata.Metadata) []ModelValidator {
	validators, _ := r.GetValidatorsE(md)
	return validators
}

// GetValidatorsE 同 GetValidators，md 为 nil 时返回参数错误
func (r *Registry) GetValidatorsE(md *metadata.Metadata) ([]ModelValidator, error) {
	if md == nil {
		return nil, core.NewArgumentNilError("metadata")
	}

	var validators []ModelValidator
	for _, p := range r.Providers() {
		validators = append(validators, p.GetValidators(md, r)...)
	}
	return validators, nil
}
