// Package execution 实现订单执行模拟。
// 将策略意图转化为成交: 滑点模型决定价格冲击，手续费模型决定成本。
package execution

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"regime-trend-backtester/internal/config"
	"regime-trend-backtester/internal/core/model"
)

// Side 订单方向
type Side string

const (
	// SideBuy 买入
	SideBuy Side = "buy"
	// SideSell 卖出
	SideSell Side = "sell"
)

// OrderType 订单类型
type OrderType string

const (
	// OrderMarket 市价单
	OrderMarket OrderType = "market"
	// OrderLimit 限价单
	OrderLimit OrderType = "limit"
)

// Order 待执行订单
type Order struct {
	// Symbol 交易对标识
	Symbol string
	// Side 订单方向: buy 或 sell
	Side Side
	// Quantity 数量
	Quantity float64
	// Type 订单类型: market 或 limit
	Type OrderType
	// LimitPrice 限价（仅限价单）
	LimitPrice float64
	// Timestamp 订单时间
	Timestamp time.Time
}

// Fill 成交结果
type Fill struct {
	// Order 原始订单
	Order Order
	// Price 含滑点的成交价
	Price float64
	// Quantity 成交数量
	Quantity float64
	// Commission 手续费
	Commission float64
	// Slippage 滑点（每单位价格）
	Slippage float64
	// Timestamp 成交时间
	Timestamp time.Time
}

// Executor 订单执行模拟器
type Executor struct {
	// cfg 执行配置
	cfg config.ExecutionConfig
	// log 日志记录器
	log *zap.Logger
}

// NewExecutor 创建订单执行模拟器
func NewExecutor(cfg config.ExecutionConfig, log *zap.Logger) *Executor {
	return &Executor{cfg: cfg, log: log}
}

// Execute 执行订单
// 市价单按当前价成交，限价单按限价成交；买入加滑点，卖出减滑点。
// 参数 order: 待执行订单
// 参数 currentPrice: 当前价格
// 参数 volume: 当根 K 线成交量（volume_based 滑点模型用，0 表示缺失）
// 返回: 成交结果，订单不合法返回 ErrOrder 类别错误
func (e *Executor) Execute(order Order, currentPrice, volume float64) (*Fill, error) {
	var fillPrice float64
	switch order.Type {
	case OrderMarket:
		fillPrice = currentPrice
	case OrderLimit:
		if order.LimitPrice <= 0 {
			return nil, fmt.Errorf("%w: 限价单缺少有效的限价", model.ErrOrder)
		}
		fillPrice = order.LimitPrice
	default:
		return nil, fmt.Errorf("%w: 未知的订单类型 %q", model.ErrOrder, order.Type)
	}

	slippage := e.slippage(fillPrice, order.Quantity, volume)
	if order.Side == SideBuy {
		fillPrice += slippage
	} else {
		fillPrice -= slippage
	}

	commission, err := e.commission(fillPrice * order.Quantity)
	if err != nil {
		return nil, err
	}

	fill := &Fill{
		Order:      order,
		Price:      fillPrice,
		Quantity:   order.Quantity,
		Commission: commission,
		Slippage:   slippage,
		Timestamp:  order.Timestamp,
	}

	e.log.Debug("订单成交",
		zap.String("side", string(order.Side)),
		zap.Float64("quantity", order.Quantity),
		zap.Float64("price", fillPrice),
		zap.Float64("commission", commission),
		zap.Float64("slippage", slippage))

	return fill, nil
}

// slippage 计算每单位价格滑点
// 未知模型记录警告并回退到 fixed_pct。
func (e *Executor) slippage(price, quantity, volume float64) float64 {
	cfg := e.cfg.Slippage
	switch cfg.Model {
	case "none":
		return 0
	case "fixed_pct":
		return price * cfg.FixedPct
	case "volume_based":
		// 成交量缺失时退化为固定比例
		if volume == 0 {
			return price * cfg.FixedPct
		}
		volumeRatio := quantity / volume
		pct := cfg.VolumeBased.BaseSlippage + volumeRatio*cfg.VolumeBased.VolumeImpact
		return price * pct
	case "historical":
		// 简化实现，与 fixed_pct 等价
		return price * cfg.FixedPct
	default:
		e.log.Warn("未知的滑点模型，回退到 fixed_pct",
			zap.String("model", cfg.Model))
		return price * cfg.FixedPct
	}
}

// commission 计算手续费
// percentage: 市价单按 taker 费率 × 成交额；fixed: 固定费用。
// 未知类型返回 ErrOrder 类别错误。
func (e *Executor) commission(tradeValue float64) (float64, error) {
	cfg := e.cfg.Commission
	switch cfg.Type {
	case "percentage":
		return tradeValue * cfg.Taker, nil
	case "fixed":
		return cfg.Fixed, nil
	default:
		return 0, fmt.Errorf("%w: 未知的手续费类型 %q", model.ErrOrder, cfg.Type)
	}
}
