// Package model 定义回测内核中使用的核心数据结构。
package model

import "errors"

// 错误类别哨兵
// 致命错误在回测开始前中止整个运行，内核不会返回半成品结果；
// 调用方用 errors.Is 判断失败类别。
var (
	// ErrConfig 配置错误（致命，运行前）
	// 缺少必需配置项、预热期超过数据长度等。
	ErrConfig = errors.New("配置错误")
	// ErrData 数据错误（致命，运行前）
	// 缺少必需指标列、时间戳乱序或重复等。
	ErrData = errors.New("数据错误")
	// ErrOrder 订单错误（该笔订单致命）
	// 未知订单类型、limit 单缺少限价、未知手续费类型等。
	ErrOrder = errors.New("订单错误")
)
