package config

import (
	"errors"
	"fmt"
)

// ErrUsage 标记需要同时输出帮助信息的参数错误。
var ErrUsage = errors.New("参数错误")

// FieldError 提供字段路径与错误原因，便于 CLI 向用户反馈。
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// newFieldError 创建包含字段路径与原因的 error，便于 CLI 定位。
func newFieldError(field, reason string) error {
	return FieldError{Field: field, Reason: reason}
}

// mappingField 用于拼接映射项字段路径，方便输出 map[1].local 形式。
func mappingField(idx int, field string) string {
	return fmt.Sprintf("map[%d].%s", idx, field)
}
