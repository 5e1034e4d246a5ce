package xlru

import "errors"

var (
	// ErrInvalidSize 表示缓存容量配置无效（必须 >= 1）。
	ErrInvalidSize = errors.New("xlru: size must be greater than 0")

	// ErrSizeExceedsMax 表示缓存容量超过上限 (16,777,216)。
	ErrSizeExceedsMax = errors.New("xlru: size must not exceed 16777216")

	// ErrInvalidTTL 表示 TTL 为负值。
	ErrInvalidTTL = errors.New("xlru: TTL must not be negative")

	// ErrNilKey 表示传入了 nil 键（nil 指针、nil 接口、nil map 等）。
	ErrNilKey = errors.New("xlru: key must not be nil")
)
