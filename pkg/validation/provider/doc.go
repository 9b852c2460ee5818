// Package provider 内置的校验器提供者
//
//   - Table：启动阶段显式注册 (类型, 成员) -> 规则工厂列表
//   - TagProvider：从 `validate` 结构体标签推导规则（go-playground/validator 语法）
//   - SelfValidatingProvider：为实现了 validation.SelfValidator 的模型提供类型级校验
//
// 提供者按注册顺序加入 validation.Registry，彼此独立，不做去重。
package provider
