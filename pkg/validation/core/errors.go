package core

import (
	"errors"
	"fmt"
)

var (
	// ErrArgumentNil 参数为 nil
	ErrArgumentNil = errors.New("argument cannot be nil")

	// ErrArgumentEmpty 参数为空字符串
	ErrArgumentEmpty = errors.New("argument cannot be nil or empty")

	// ErrPropertyNotFound 容器类型上找不到指定成员
	ErrPropertyNotFound = errors.New("property not found")

	// ErrUnsupportedRule 规则既没有实现值校验形式，也没有实现上下文校验形式
	ErrUnsupportedRule = errors.New("unsupported validation rule")
)

// ArgumentError 参数错误（配置错误）
// 说明：属于集成方的编程错误，在构造/查找时立即返回，不做延迟和重试
type ArgumentError struct {
	// Param 出错的参数名
	Param string
	// Err 底层哨兵错误（ErrArgumentNil / ErrArgumentEmpty）
	Err error
}

// Error 实现 error 接口
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: parameter '%s'", e.Err, e.Param)
}

// Unwrap 支持 errors.Is / errors.As
func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// NewArgumentNilError 创建参数为 nil 的错误
func NewArgumentNilError(param string) error {
	return &ArgumentError{Param: param, Err: ErrArgumentNil}
}

// NewArgumentEmptyError 创建参数为空的错误
func NewArgumentEmptyError(param string) error {
	return &ArgumentError{Param: param, Err: ErrArgumentEmpty}
}

// IsArgumentError 判断是否为参数错误，并返回出错的参数名
func IsArgumentError(err error) (string, bool) {
	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		return argErr.Param, true
	}
	return "", false
}
