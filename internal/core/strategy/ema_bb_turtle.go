package strategy

import (
	"go.uber.org/zap"

	"regime-trend-backtester/internal/config"
	"regime-trend-backtester/internal/core/indicator"
	"regime-trend-backtester/internal/core/model"
	"regime-trend-backtester/internal/core/regime"
)

// NameEMABBTurtle ema_bb_turtle 策略的注册名称
const NameEMABBTurtle = "ema_bb_turtle"

func init() {
	Register(NameEMABBTurtle, func(cfg *config.StrategyConfig, log *zap.Logger) (Strategy, error) {
		return newEMABBTurtle(cfg, log), nil
	})
}

// emaBBTurtle 均线趋势 + 布林带回调 + 海龟式移动止损策略
// 多头: bull 状态下收盘价自上而下触及布林带下轨，量比在允许区间内；
// 空头为镜像条件。止损 = 进场价 ∓ ATR × 倍数，按 update_on 策略棘轮式收紧。
type emaBBTurtle struct {
	cfg        *config.StrategyConfig
	pipeline   *indicator.Pipeline
	classifier *regime.Classifier
	rules      *signalRules
	log        *zap.Logger

	// atrMultiplier 止损距离的 ATR 倍数
	atrMultiplier float64
	// updateOn 移动止损更新策略: always, favorable_move, never
	updateOn string
}

func newEMABBTurtle(cfg *config.StrategyConfig, log *zap.Logger) *emaBBTurtle {
	return &emaBBTurtle{
		cfg:           cfg,
		pipeline:      indicator.NewPipeline(cfg.Indicators),
		classifier:    regime.NewClassifier(cfg.Regime),
		rules:         newSignalRules(cfg, log),
		log:           log,
		atrMultiplier: cfg.Exit.StopLoss.ATRMultiplier,
		updateOn:      cfg.Exit.StopLoss.UpdateOn,
	}
}

func (s *emaBBTurtle) Name() string {
	return NameEMABBTurtle
}

func (s *emaBBTurtle) CalculateIndicators(bars []model.Bar) ([]string, error) {
	return s.pipeline.Apply(bars)
}

func (s *emaBBTurtle) DetectRegime(bars []model.Bar) []model.Regime {
	return s.classifier.Classify(bars)
}

func (s *emaBBTurtle) GenerateEntrySignal(bars []model.Bar, regimes []model.Regime, idx int, pos *model.Position) model.Signal {
	if idx < 0 || idx >= len(bars) {
		last := len(bars) - 1
		return model.NoAction(bars[last].Close, bars[last].Timestamp, model.RegimeSideways)
	}

	bar := &bars[idx]
	cur := regimes[idx]

	// 已有持仓时不再进场
	if pos != nil {
		return model.NoAction(bar.Close, bar.Timestamp, cur)
	}

	if s.rules.checkEntry(bars, idx, cur, model.DirectionLong) {
		return model.Signal{
			Kind:      model.SignalLongEntry,
			Price:     bar.Close,
			Timestamp: bar.Timestamp,
			Regime:    cur,
			StopLoss:  s.initialStop(bar, model.DirectionLong),
		}
	}

	if s.rules.checkEntry(bars, idx, cur, model.DirectionShort) {
		return model.Signal{
			Kind:      model.SignalShortEntry,
			Price:     bar.Close,
			Timestamp: bar.Timestamp,
			Regime:    cur,
			StopLoss:  s.initialStop(bar, model.DirectionShort),
		}
	}

	return model.NoAction(bar.Close, bar.Timestamp, cur)
}

// initialStop 进场止损价
// ATR 缺失时返回 0（未设置）
func (s *emaBBTurtle) initialStop(bar *model.Bar, dir model.Direction) float64 {
	atr, ok := bar.Indicator(indicator.NameATR)
	if !ok || atr == 0 {
		return 0
	}
	if dir == model.DirectionLong {
		return bar.Close - atr*s.atrMultiplier
	}
	return bar.Close + atr*s.atrMultiplier
}

func (s *emaBBTurtle) GenerateExitSignal(bars []model.Bar, regimes []model.Regime, idx int, pos *model.Position) model.Signal {
	if idx < 0 || idx >= len(bars) {
		last := len(bars) - 1
		return model.NoAction(bars[last].Close, bars[last].Timestamp, model.RegimeSideways)
	}

	bar := &bars[idx]
	cur := regimes[idx]
	barsHeld := idx - pos.Meta.EntryIndex

	if s.rules.checkExit(bars, idx, pos, cur, barsHeld) {
		return model.Signal{
			Kind:      model.ExitKindFor(pos.Direction),
			Price:     bar.Close,
			Timestamp: bar.Timestamp,
			Regime:    cur,
		}
	}

	return model.NoAction(bar.Close, bar.Timestamp, cur)
}

func (s *emaBBTurtle) UpdateStopLoss(bars []model.Bar, idx int, pos *model.Position) float64 {
	if idx < 0 || idx >= len(bars) {
		return pos.StopLoss
	}

	bar := &bars[idx]
	atr, ok := bar.Indicator(indicator.NameATR)
	if !ok || atr == 0 {
		return pos.StopLoss
	}

	price := bar.Close
	if pos.IsLong() {
		newStop := price - atr*s.atrMultiplier
		switch s.updateOn {
		case "always":
			// 只向有利方向棘轮式收紧
			return maxFloat(newStop, pos.StopLoss)
		case "favorable_move":
			if price > pos.EntryPrice {
				return maxFloat(newStop, pos.StopLoss)
			}
			return pos.StopLoss
		default:
			return pos.StopLoss
		}
	}

	newStop := price + atr*s.atrMultiplier
	switch s.updateOn {
	case "always":
		return minFloat(newStop, pos.StopLoss)
	case "favorable_move":
		if price < pos.EntryPrice {
			return minFloat(newStop, pos.StopLoss)
		}
		return pos.StopLoss
	default:
		return pos.StopLoss
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
