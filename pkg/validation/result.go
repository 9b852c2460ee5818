package validation

// Result 单条校验结果
// MemberName 为空表示错误属于被校验的成员本身
type Result struct {
	MemberName string `json:"member_name"`
	Message    string `json:"message"`
}

// Results 一次校验的结果序列，空序列表示通过
type Results []Result

// IsValid 是否通过校验
func (rs Results) IsValid() bool {
	return len(rs) == 0
}

// Messages 返回所有错误消息
func (rs Results) Messages() []string {
	messages := make([]string, 0, len(rs))
	for _, r := range rs {
		messages = append(messages, r.Message)
	}
	return messages
}
