package shortcut

import (
	"errors"
	"fmt"
	"strings"
)

// 错误分类，调用方使用 errors.Is 判断。
var (
	// ErrInvalidArgument 表示调用方输入为空或格式错误，总在任何 I/O 之前检出。
	ErrInvalidArgument = errors.New("shortcut: invalid argument")

	// ErrConflict 表示 ID 冲突：存储层发现 ID 已存在，或重试次数耗尽仍无法分配。
	ErrConflict = errors.New("shortcut: conflict")

	// ErrNotFound 表示记录不存在。服务层以 found=false 表达不存在，
	// 该错误仅供 HTTP 等上层边界使用。
	ErrNotFound = errors.New("shortcut: not found")

	// ErrInternal 表示依赖组件的意外失败，总是包装原始错误。
	ErrInternal = errors.New("shortcut: internal error")
)

// Blank 报告 s 是否为空或只含空白字符。
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func invalidArgument(name string) error {
	return fmt.Errorf("%w: %s must not be blank", ErrInvalidArgument, name)
}

func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}
