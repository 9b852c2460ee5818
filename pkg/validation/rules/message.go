package rules

import (
	"fmt"
	"strings"
)

// formatMessage 格式化错误消息
// 规则：
//   - custom 为空时使用 fallback 模板
//   - custom 不含格式化动词时原样返回
//   - 模板的第一个参数是成员显示名，其余为规则参数；自定义模板建议使用 %[1]s 这类显式索引
func formatMessage(custom, fallback, name string, args ...any) string {
	template := fallback
	if custom != "" {
		if !strings.Contains(custom, "%") {
			return custom
		}
		template = custom
	}
	return fmt.Sprintf(template, append([]any{name}, args...)...)
}
