// Package validation 模型校验核心：校验器、校验器提供者注册表与校验引擎
//
// 组成（自底向上）：
//   - metadata.Provider：解析成员元数据（显示名、类型、延迟取值），进程级缓存
//   - Validator：把一条 Rule 绑定到一个成员元数据上，构造时格式化错误消息
//   - Registry：按注册顺序保存 Provider，给定元数据汇总所有适用的校验器
//   - Engine：遍历模型成员，执行校验器并汇总为 ValidationErrors
//
// 规则有两种形式，构造校验器时确定调用方式：
//   - ValueRule：IsValid(value) bool
//   - ContextRule：Evaluate(value, ctx) *RuleResult，可访问容器实例与注册表
//
// 错误分类：
//   - 配置错误（nil 参数、空成员名）：立即返回 core.ArgumentError
//   - 校验失败：不是 error，以非空的 []Result 返回
//   - 规则实现 panic：Validator 不捕获；Engine 可通过 WithRecoverPanics 隔离
//
// 使用示例：
//
//	reg := validation.NewRegistry(provider.NewTagProvider(), provider.NewSelfValidatingProvider())
//	engine := validation.NewEngine(metadata.Default(), reg)
//	if err := engine.Validate(&req); err != nil {
//	    if verrs, ok := validation.AsValidationErrors(err); ok {
//	        // 逐个字段处理
//	    }
//	}
package validation
