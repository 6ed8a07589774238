package strategy

import (
	"go.uber.org/zap"

	"regime-trend-backtester/internal/config"
	"regime-trend-backtester/internal/core/indicator"
	"regime-trend-backtester/internal/core/model"
)

// signalRules 配置驱动的进出场条件评估器
// 进场: 方向规则 = 要求的市场状态 + 条件列表（全部满足才触发）。
// 离场: 止损最先检查（最廉价），其后为状态翻转和持仓时间上限。
type signalRules struct {
	entry config.EntryConfig
	exit  config.ExitConfig
	log   *zap.Logger
}

func newSignalRules(cfg *config.StrategyConfig, log *zap.Logger) *signalRules {
	return &signalRules{
		entry: cfg.Entry,
		exit:  cfg.Exit,
		log:   log,
	}
}

// checkEntry 检查指定方向的进场条件
func (r *signalRules) checkEntry(bars []model.Bar, idx int, regime model.Regime, dir model.Direction) bool {
	if idx < 0 || idx >= len(bars) {
		return false
	}

	rules := r.entry.Long
	if dir == model.DirectionShort {
		rules = r.entry.Short
	}

	// 状态门控: 配置了要求状态时必须匹配
	if rules.Regime != "" && string(regime) != rules.Regime {
		return false
	}

	for i := range rules.Conditions {
		if !r.checkCondition(bars, idx, &rules.Conditions[i]) {
			return false
		}
	}
	return true
}

// checkCondition 检查单个条件
// 未知条件类型记录警告并按不满足处理
func (r *signalRules) checkCondition(bars []model.Bar, idx int, cond *config.ConditionConfig) bool {
	switch cond.Type {
	case "price_cross":
		return r.checkPriceCross(bars, idx, cond)
	case "volume_filter":
		return r.checkVolumeFilter(bars, idx, cond)
	default:
		r.log.Warn("未知的进场条件类型，按不满足处理",
			zap.String("type", cond.Type))
		return false
	}
}

// checkPriceCross 价格穿越指标条件
// below_or_equal: 收盘价从指标上方穿到下方（含相等）
// above_or_equal: 收盘价从指标下方穿到上方（含相等）
func (r *signalRules) checkPriceCross(bars []model.Bar, idx int, cond *config.ConditionConfig) bool {
	if idx == 0 {
		return false
	}

	curInd, ok1 := bars[idx].Indicator(cond.Indicator)
	prevInd, ok2 := bars[idx-1].Indicator(cond.Indicator)
	if !ok1 || !ok2 {
		return false
	}

	cur := bars[idx].Close
	prev := bars[idx-1].Close

	switch cond.Direction {
	case "below_or_equal":
		return prev > prevInd && cur <= curInd
	case "above_or_equal":
		return prev < prevInd && cur >= curInd
	default:
		r.log.Warn("未知的价格穿越方向，按不满足处理",
			zap.String("direction", cond.Direction))
		return false
	}
}

// checkVolumeFilter 量比过滤条件
// 量比 = 当前成交量 / 成交量均线，要求落在 [min_ratio, max_ratio] 内。
// 成交量均线缺失或为 0 时按通过处理。
func (r *signalRules) checkVolumeFilter(bars []model.Bar, idx int, cond *config.ConditionConfig) bool {
	volMA, ok := bars[idx].Indicator(indicator.NameVolumeMA)
	if !ok || volMA == 0 {
		return true
	}
	ratio := bars[idx].Volume / volMA
	return cond.MinRatio <= ratio && ratio <= cond.MaxRatio
}

// checkExit 检查离场条件
// 参数 barsHeld: 已持仓 K 线数
func (r *signalRules) checkExit(bars []model.Bar, idx int, pos *model.Position, regime model.Regime, barsHeld int) bool {
	// 硬止损
	if pos.StopHit(bars[idx].Close) {
		return true
	}

	// 市场状态翻转
	if r.exit.RegimeExit.Enabled && regime != pos.RegimeAtEntry {
		return true
	}

	// 持仓时间上限
	if r.exit.TimeExit.Enabled && barsHeld >= r.exit.TimeExit.MaxBars {
		return true
	}

	return false
}
