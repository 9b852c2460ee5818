package validation

// ReportFunc 错误报告函数
// memberName 相对于模型本身，为空表示错误属于整个模型
type ReportFunc func(memberName, message string)

// SelfValidator 自校验模型接口 - 跨字段验证和复杂业务逻辑验证
// 在模型的所有成员都通过校验后执行
//
// 示例：
//
//	func (u *User) ValidateSelf(report validation.ReportFunc) {
//	    if u.Password != u.ConfirmPassword {
//	        report("ConfirmPassword", "两次输入的密码不一致")
//	    }
//	}
type SelfValidator interface {
	ValidateSelf(report ReportFunc)
}
