// Package strategy 策略模块测试
package strategy

import (
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"

	"regime-trend-backtester/internal/config"
	"regime-trend-backtester/internal/core/indicator"
	"regime-trend-backtester/internal/core/model"
)

// testStrategyConfig 构造测试用策略配置
func testStrategyConfig() *config.StrategyConfig {
	return &config.StrategyConfig{
		Name: NameEMABBTurtle,
		Indicators: config.IndicatorsConfig{
			EMA:       config.EMAConfig{Periods: []int{3, 5, 8}},
			Bollinger: config.BollingerConfig{Period: 5, StdDev: 2.0},
			ATR:       config.ATRConfig{Period: 5, Method: "wilder"},
			VolumeMA:  config.VolumeMAConfig{Period: 5, Type: "sma"},
		},
		Regime: config.RegimeConfig{
			MinSeparationPct: 0.1,
			Transition:       config.TransitionConfig{MinBars: 2, ConfirmationBars: 2},
		},
		Entry: config.EntryConfig{
			Long: config.DirectionRules{
				Regime: "bull",
				Conditions: []config.ConditionConfig{
					{Type: "price_cross", Indicator: indicator.NameBBLower, Direction: "below_or_equal"},
					{Type: "volume_filter", MinRatio: 0.5, MaxRatio: 3.0},
				},
			},
			Short: config.DirectionRules{
				Regime: "bear",
				Conditions: []config.ConditionConfig{
					{Type: "price_cross", Indicator: indicator.NameBBUpper, Direction: "above_or_equal"},
					{Type: "volume_filter", MinRatio: 0.5, MaxRatio: 3.0},
				},
			},
		},
		Exit: config.ExitConfig{
			StopLoss: config.StopLossConfig{ATRMultiplier: 2.0, UpdateOn: "favorable_move"},
		},
	}
}

// barAt 构造单根 K 线并写入常用指标
func barAt(i int, close, volume float64) model.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return model.Bar{
		Timestamp: base.Add(time.Duration(i) * time.Minute),
		Open:      close, High: close + 1, Low: close - 1, Close: close,
		Volume: volume,
	}
}

// TestRegistry_New 测试注册表按名称创建策略
func TestRegistry_New(t *testing.T) {
	cfg := testStrategyConfig()
	s, err := New(NameEMABBTurtle, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("创建已注册策略失败: %v", err)
	}
	if s.Name() != NameEMABBTurtle {
		t.Fatalf("Name=%s, want %s", s.Name(), NameEMABBTurtle)
	}
}

// TestRegistry_UnknownName 测试未注册名称返回配置错误
func TestRegistry_UnknownName(t *testing.T) {
	_, err := New("no_such_strategy", testStrategyConfig(), zap.NewNop())
	if err == nil {
		t.Fatal("未注册策略应返回错误")
	}
	if !errors.Is(err, model.ErrConfig) {
		t.Fatalf("错误应属于 ErrConfig 类别, 实际: %v", err)
	}
}

// TestEntrySignal_RegimeGate 测试状态门控
// bull 要求下 sideways 状态不产生多头进场
func TestEntrySignal_RegimeGate(t *testing.T) {
	cfg := testStrategyConfig()
	s := newEMABBTurtle(cfg, zap.NewNop())

	// 构造价格下穿下轨的两根 K 线
	bars := []model.Bar{barAt(0, 105, 1000), barAt(1, 95, 1000)}
	for i := range bars {
		bars[i].SetIndicator(indicator.NameBBLower, 100)
		bars[i].SetIndicator(indicator.NameVolumeMA, 1000)
		bars[i].SetIndicator(indicator.NameATR, 2)
	}
	regimes := []model.Regime{model.RegimeSideways, model.RegimeSideways}

	sig := s.GenerateEntrySignal(bars, regimes, 1, nil)
	if sig.Kind != model.SignalNoAction {
		t.Fatalf("sideways 状态下应无动作, 实际: %s", sig.Kind)
	}

	// 同样的 K 线在 bull 状态下应触发多头进场
	regimes = []model.Regime{model.RegimeBull, model.RegimeBull}
	sig = s.GenerateEntrySignal(bars, regimes, 1, nil)
	if sig.Kind != model.SignalLongEntry {
		t.Fatalf("bull 状态下穿下轨应产生多头进场, 实际: %s", sig.Kind)
	}
	// 止损 = close - ATR × 2 = 95 - 4 = 91
	if sig.StopLoss != 91 {
		t.Fatalf("StopLoss=%f, want 91", sig.StopLoss)
	}
}

// TestEntrySignal_HeldPosition 测试已有持仓时不再进场
func TestEntrySignal_HeldPosition(t *testing.T) {
	cfg := testStrategyConfig()
	s := newEMABBTurtle(cfg, zap.NewNop())

	bars := []model.Bar{barAt(0, 105, 1000), barAt(1, 95, 1000)}
	for i := range bars {
		bars[i].SetIndicator(indicator.NameBBLower, 100)
		bars[i].SetIndicator(indicator.NameATR, 2)
	}
	regimes := []model.Regime{model.RegimeBull, model.RegimeBull}

	pos := &model.Position{Direction: model.DirectionLong, EntryPrice: 100, Quantity: 1}
	sig := s.GenerateEntrySignal(bars, regimes, 1, pos)
	if sig.Kind != model.SignalNoAction {
		t.Fatalf("有持仓时应无动作, 实际: %s", sig.Kind)
	}
}

// TestEntrySignal_VolumeFilter 测试量比过滤
func TestEntrySignal_VolumeFilter(t *testing.T) {
	cfg := testStrategyConfig()
	s := newEMABBTurtle(cfg, zap.NewNop())

	bars := []model.Bar{barAt(0, 105, 1000), barAt(1, 95, 10000)}
	for i := range bars {
		bars[i].SetIndicator(indicator.NameBBLower, 100)
		bars[i].SetIndicator(indicator.NameVolumeMA, 1000)
		bars[i].SetIndicator(indicator.NameATR, 2)
	}
	regimes := []model.Regime{model.RegimeBull, model.RegimeBull}

	// 量比 = 10，超出 [0.5, 3.0] 区间
	sig := s.GenerateEntrySignal(bars, regimes, 1, nil)
	if sig.Kind != model.SignalNoAction {
		t.Fatalf("量比超限应无动作, 实际: %s", sig.Kind)
	}
}

// TestExitSignal_StopLoss 测试止损触发离场
func TestExitSignal_StopLoss(t *testing.T) {
	cfg := testStrategyConfig()
	s := newEMABBTurtle(cfg, zap.NewNop())

	bars := []model.Bar{barAt(0, 100, 1000), barAt(1, 89, 1000)}
	regimes := []model.Regime{model.RegimeBull, model.RegimeBull}

	pos := &model.Position{
		Direction:     model.DirectionLong,
		EntryPrice:    100,
		Quantity:      1,
		StopLoss:      90,
		RegimeAtEntry: model.RegimeBull,
	}
	sig := s.GenerateExitSignal(bars, regimes, 1, pos)
	if sig.Kind != model.SignalLongExit {
		t.Fatalf("跌破止损应产生多头离场, 实际: %s", sig.Kind)
	}
}

// TestExitSignal_RegimeFlip 测试状态翻转离场
func TestExitSignal_RegimeFlip(t *testing.T) {
	cfg := testStrategyConfig()
	cfg.Exit.RegimeExit.Enabled = true
	s := newEMABBTurtle(cfg, zap.NewNop())

	bars := []model.Bar{barAt(0, 100, 1000), barAt(1, 101, 1000)}
	regimes := []model.Regime{model.RegimeBull, model.RegimeBear}

	pos := &model.Position{
		Direction:     model.DirectionLong,
		EntryPrice:    100,
		Quantity:      1,
		StopLoss:      90,
		RegimeAtEntry: model.RegimeBull,
	}
	sig := s.GenerateExitSignal(bars, regimes, 1, pos)
	if sig.Kind != model.SignalLongExit {
		t.Fatalf("状态翻转应产生离场, 实际: %s", sig.Kind)
	}
}

// TestExitSignal_TimeExit 测试持仓时间上限离场
func TestExitSignal_TimeExit(t *testing.T) {
	cfg := testStrategyConfig()
	cfg.Exit.TimeExit.Enabled = true
	cfg.Exit.TimeExit.MaxBars = 3
	s := newEMABBTurtle(cfg, zap.NewNop())

	bars := make([]model.Bar, 6)
	for i := range bars {
		bars[i] = barAt(i, 100, 1000)
	}
	regimes := make([]model.Regime, 6)
	for i := range regimes {
		regimes[i] = model.RegimeBull
	}

	pos := &model.Position{
		Direction:     model.DirectionLong,
		EntryPrice:    100,
		Quantity:      1,
		StopLoss:      90,
		RegimeAtEntry: model.RegimeBull,
		Meta:          model.PositionMeta{EntryIndex: 1},
	}

	// 持仓 2 根，未达上限
	sig := s.GenerateExitSignal(bars, regimes, 3, pos)
	if sig.Kind != model.SignalNoAction {
		t.Fatalf("未达持仓上限应无动作, 实际: %s", sig.Kind)
	}

	// 持仓 4 根，超过上限
	sig = s.GenerateExitSignal(bars, regimes, 5, pos)
	if sig.Kind != model.SignalLongExit {
		t.Fatalf("超过持仓上限应产生离场, 实际: %s", sig.Kind)
	}
}

// TestUpdateStopLoss_FavorableMove 测试 favorable_move 策略
func TestUpdateStopLoss_FavorableMove(t *testing.T) {
	cfg := testStrategyConfig()
	cfg.Exit.StopLoss.UpdateOn = "favorable_move"
	cfg.Exit.StopLoss.ATRMultiplier = 2.0
	s := newEMABBTurtle(cfg, zap.NewNop())

	pos := &model.Position{
		Direction:  model.DirectionLong,
		EntryPrice: 100,
		StopLoss:   96,
	}

	// 价格未超过进场价: 不更新
	bar := barAt(0, 99, 1000)
	bar.SetIndicator(indicator.NameATR, 2)
	got := s.UpdateStopLoss([]model.Bar{bar}, 0, pos)
	if got != 96 {
		t.Fatalf("不利方向不应更新止损: got %f, want 96", got)
	}

	// 价格超过进场价: 上移至 110 - 4 = 106
	bar = barAt(0, 110, 1000)
	bar.SetIndicator(indicator.NameATR, 2)
	got = s.UpdateStopLoss([]model.Bar{bar}, 0, pos)
	if got != 106 {
		t.Fatalf("有利方向应上移止损: got %f, want 106", got)
	}
}

// TestUpdateStopLoss_MonotonicRatchet 测试移动止损单调性属性
// 属性: 多头止损只升不降，空头止损只降不升
func TestUpdateStopLoss_MonotonicRatchet(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	cfg := testStrategyConfig()
	cfg.Exit.StopLoss.UpdateOn = "always"
	s := newEMABBTurtle(cfg, zap.NewNop())

	properties.Property("多头止损单调不降", prop.ForAll(
		func(prices []float64, atr float64) bool {
			pos := &model.Position{
				Direction:  model.DirectionLong,
				EntryPrice: 100,
				StopLoss:   50,
			}
			prev := pos.StopLoss
			for i, px := range prices {
				bar := barAt(i, px, 1000)
				bar.SetIndicator(indicator.NameATR, atr)
				pos.StopLoss = s.UpdateStopLoss([]model.Bar{bar}, 0, pos)
				if pos.StopLoss < prev {
					return false
				}
				prev = pos.StopLoss
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(1, 1000)),
		gen.Float64Range(0.1, 50),
	))

	properties.Property("空头止损单调不升", prop.ForAll(
		func(prices []float64, atr float64) bool {
			pos := &model.Position{
				Direction:  model.DirectionShort,
				EntryPrice: 100,
				StopLoss:   2000,
			}
			prev := pos.StopLoss
			for i, px := range prices {
				bar := barAt(i, px, 1000)
				bar.SetIndicator(indicator.NameATR, atr)
				pos.StopLoss = s.UpdateStopLoss([]model.Bar{bar}, 0, pos)
				if pos.StopLoss > prev {
					return false
				}
				prev = pos.StopLoss
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(1, 1000)),
		gen.Float64Range(0.1, 50),
	))

	properties.TestingRun(t)
}
