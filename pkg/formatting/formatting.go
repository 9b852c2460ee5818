// Package formatting HTTP 内容协商相关的常量和工具函数
package formatting

import (
	"mime"
	"net/http"
	"strings"
)

const (
	// DefaultMaxDepth 反序列化允许的默认最大嵌套深度
	DefaultMaxDepth = 256
	// DefaultMinDepth 允许设置的最小嵌套深度
	DefaultMinDepth = 1

	// HTTPRequestedWithHeader 标识 AJAX 请求的头
	HTTPRequestedWithHeader = "x-requested-with"
	// HTTPRequestedWithHeaderValue AJAX 请求头的取值
	HTTPRequestedWithHeaderValue = "xmlhttprequest"
	// HTTPHostHeader Host 头
	HTTPHostHeader = "Host"
	// HTTPVersionToken 状态行中的协议标识
	HTTPVersionToken = "HTTP"
)

// UnquoteToken 去掉 token 两端成对的双引号
// 空白 token 原样返回
func UnquoteToken(token string) string {
	if strings.TrimSpace(token) == "" {
		return token
	}
	if len(token) > 1 && strings.HasPrefix(token, `"`) && strings.HasSuffix(token, `"`) {
		return token[1 : len(token)-1]
	}
	return token
}

// MediaTypesEqual 两组媒体类型是否相同（忽略顺序）
// 数量必须相等，expected 中的每一项都要出现在 actual 中；媒体类型和参数名不区分大小写
func MediaTypesEqual(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	normalized := make(map[string]struct{}, len(actual))
	for _, mt := range actual {
		normalized[normalizeMediaType(mt)] = struct{}{}
	}
	for _, mt := range expected {
		if _, ok := normalized[normalizeMediaType(mt)]; !ok {
			return false
		}
	}
	return true
}

// IsAjaxRequest 请求是否由 XMLHttpRequest 发起
func IsAjaxRequest(h http.Header) bool {
	if h == nil {
		return false
	}
	return strings.EqualFold(h.Get(HTTPRequestedWithHeader), HTTPRequestedWithHeaderValue)
}

// normalizeMediaType 规范化媒体类型，解析失败时退化为去空白的小写形式
func normalizeMediaType(mt string) string {
	mediaType, params, err := mime.ParseMediaType(mt)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mt))
	}
	return mime.FormatMediaType(mediaType, params)
}
