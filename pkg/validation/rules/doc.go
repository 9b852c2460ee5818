// Package rules 内置校验规则
//
// 值形式（validation.ValueRule）：Required、Range、StringLength、Pattern、Tag、Func
// 上下文形式（validation.ContextRule）：Compare、Nested、ContextFunc
//
// 所有规则都是不可变的值类型，可以在多个校验器、多个 goroutine 之间共享。
// 默认消息沿用 DataAnnotations 的措辞，Message 字段可以覆盖。
package rules
