package errors

import "errors"

// 存储层共享错误，读路径上统一按“记录不存在”处理
var (
	// ErrRecordCorrupted 存储记录不满足不变量（星期越界、时间格式错误等）
	ErrRecordCorrupted = errors.New("存储记录已损坏")
	// ErrStoreUnavailable 后端存储不可用
	ErrStoreUnavailable = errors.New("存储服务不可用")
)
