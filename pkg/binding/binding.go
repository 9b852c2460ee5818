// Package binding 把请求数据绑定到模型并执行校验（gin 集成）
package binding

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"katydid-model-validation/pkg/validation"
)

// Binder 模型绑定器
type Binder interface {
	// Bind 从请求中读取数据写入 target
	Bind(c *gin.Context, target any) error
}

// BinderFunc 函数适配器
type BinderFunc func(c *gin.Context, target any) error

// Bind 实现 Binder 接口
func (f BinderFunc) Bind(c *gin.Context, target any) error {
	return f(c, target)
}

var (
	// JSON 从请求体解析 JSON
	JSON Binder = BinderFunc(func(c *gin.Context, target any) error {
		return c.ShouldBindJSON(target)
	})

	// Query 从查询参数绑定
	Query Binder = BinderFunc(func(c *gin.Context, target any) error {
		return c.ShouldBindQuery(target)
	})

	// SkipBinding 不做任何绑定，target 保持原样
	SkipBinding Binder = BinderFunc(func(*gin.Context, any) error {
		return nil
	})
)

// ErrorItem 响应中的单条错误
type ErrorItem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse 校验失败时的响应体
type ErrorResponse struct {
	Errors []ErrorItem `json:"errors"`
}

// NewErrorResponse 把错误转换为响应体
// ValidationErrors 逐条展开，其他错误作为一条无字段的错误
func NewErrorResponse(err error) ErrorResponse {
	if ve, ok := validation.AsValidationErrors(err); ok {
		items := make([]ErrorItem, 0, len(ve))
		for _, fe := range ve {
			items = append(items, ErrorItem{Field: fe.Namespace, Message: fe.Message})
		}
		return ErrorResponse{Errors: items}
	}
	return ErrorResponse{Errors: []ErrorItem{{Message: err.Error()}}}
}

// BindAndValidate 绑定并校验模型
// 失败时以 400 终止请求并返回 false
func BindAndValidate(c *gin.Context, binder Binder, engine *validation.Engine, target any) bool {
	if binder == nil {
		binder = SkipBinding
	}
	if engine == nil {
		abortWithError(c, errors.New("validation engine is not configured"), http.StatusInternalServerError)
		return false
	}

	if err := binder.Bind(c, target); err != nil {
		abortWithError(c, err, http.StatusBadRequest)
		return false
	}
	if err := engine.Validate(target); err != nil {
		abortWithError(c, err, http.StatusBadRequest)
		return false
	}
	return true
}

// abortWithError 终止请求并写入错误响应
func abortWithError(c *gin.Context, err error, status int) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, NewErrorResponse(err))
}
