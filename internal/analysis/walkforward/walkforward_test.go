// Package walkforward Walk-Forward 分析测试
package walkforward

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"regime-trend-backtester/internal/config"
	"regime-trend-backtester/internal/core/model"
	"regime-trend-backtester/internal/core/strategy"
)

// testConfig 构造测试用完整配置
func testConfig(inSampleDays, outSampleDays int, anchored bool) *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "test"
	cfg.Engine.InitialCapital = 100000
	cfg.Engine.Currency = "USDT"
	cfg.Engine.EquitySampleStride = 10
	cfg.Warmup.Bars = 10
	cfg.Strategy.Name = strategy.NameEMABBTurtle
	cfg.Strategy.Indicators.EMA.Periods = []int{3, 5, 8}
	cfg.Strategy.Indicators.Bollinger.Period = 5
	cfg.Strategy.Indicators.Bollinger.StdDev = 2.0
	cfg.Strategy.Indicators.ATR.Period = 5
	cfg.Strategy.Indicators.ATR.Method = "wilder"
	cfg.Strategy.Indicators.VolumeMA.Period = 5
	cfg.Strategy.Indicators.VolumeMA.Type = "sma"
	cfg.Strategy.Regime.MinSeparationPct = 0.1
	cfg.Strategy.Regime.Transition.MinBars = 2
	cfg.Strategy.Regime.Transition.ConfirmationBars = 2
	cfg.Strategy.Entry.Long.Regime = "bull"
	cfg.Strategy.Entry.Short.Regime = "bear"
	cfg.Strategy.Exit.StopLoss.ATRMultiplier = 2.0
	cfg.Strategy.Exit.StopLoss.UpdateOn = "favorable_move"
	cfg.Risk.Portfolio.MaxOpenPositions = 1
	cfg.Risk.Portfolio.MaxDrawdownLimit = 0.20
	cfg.Risk.Portfolio.DailyLossLimit = 0.99
	cfg.Risk.Portfolio.MaxDailyTrades = 50
	cfg.Risk.PositionSizing.Method = "fixed"
	cfg.Risk.PositionSizing.Fixed.Quantity = 1
	cfg.Execution.Commission.Type = "percentage"
	cfg.Execution.Slippage.Model = "none"
	cfg.WalkForward.InSampleDays = inSampleDays
	cfg.WalkForward.OutOfSampleDays = outSampleDays
	cfg.WalkForward.Anchored = anchored
	return cfg
}

// hourlyBars 构造按小时推进的恒定价格 K 线
func hourlyBars(days int) []model.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, days*24)
	for i := range bars {
		bars[i] = model.Bar{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      100, High: 101, Low: 99, Close: 100,
			Volume: 1000,
		}
	}
	return bars
}

func TestBuildWindows_Rolling(t *testing.T) {
	a := NewAnalyzer(testConfig(4, 2, false), zap.NewNop())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 10)

	windows := a.buildWindows(start, end)
	if len(windows) != 3 {
		t.Fatalf("len(windows)=%d, want 3", len(windows))
	}
	// 滚动模式: 样本内起点每步平移 out_of_sample 天数
	if !windows[1].InSampleStart.Equal(start.AddDate(0, 0, 2)) {
		t.Fatalf("窗口1样本内起点=%v, want %v", windows[1].InSampleStart, start.AddDate(0, 0, 2))
	}
	for _, w := range windows {
		if !w.OutSampleStart.Equal(w.InSampleEnd) {
			t.Fatalf("窗口 %d 样本外起点应等于样本内终点", w.Index)
		}
		if inSpan := w.InSampleEnd.Sub(w.InSampleStart); inSpan != 4*24*time.Hour {
			t.Fatalf("窗口 %d 样本内跨度=%v, want 96h", w.Index, inSpan)
		}
	}
	// 末窗口样本外被数据终点截断
	last := windows[len(windows)-1]
	if !last.OutSampleEnd.Equal(end) {
		t.Fatalf("末窗口样本外终点=%v, want %v", last.OutSampleEnd, end)
	}
}

func TestBuildWindows_Anchored(t *testing.T) {
	a := NewAnalyzer(testConfig(4, 2, true), zap.NewNop())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 12)

	windows := a.buildWindows(start, end)
	if len(windows) < 2 {
		t.Fatalf("len(windows)=%d, want >= 2", len(windows))
	}
	for i, w := range windows {
		// 锚定模式: 样本内起点固定为数据起点，终点逐步延后
		if !w.InSampleStart.Equal(start) {
			t.Fatalf("窗口 %d 样本内起点=%v, want %v", w.Index, w.InSampleStart, start)
		}
		wantEnd := start.AddDate(0, 0, 4+2*i)
		if !w.InSampleEnd.Equal(wantEnd) {
			t.Fatalf("窗口 %d 样本内终点=%v, want %v", w.Index, w.InSampleEnd, wantEnd)
		}
	}
}

func TestBuildWindows_SpanTooShort(t *testing.T) {
	a := NewAnalyzer(testConfig(180, 30, false), zap.NewNop())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	windows := a.buildWindows(start, start.AddDate(0, 0, 30))
	if len(windows) != 0 {
		t.Fatalf("跨度不足时 len(windows)=%d, want 0", len(windows))
	}
}

func TestSliceByTime(t *testing.T) {
	bars := hourlyBars(4)
	start := bars[0].Timestamp.Add(24 * time.Hour)
	end := bars[0].Timestamp.Add(48 * time.Hour)

	got := sliceByTime(bars, start, end)
	if len(got) != 24 {
		t.Fatalf("len=%d, want 24", len(got))
	}
	if !got[0].Timestamp.Equal(start) {
		t.Fatalf("首根时间戳=%v, want %v", got[0].Timestamp, start)
	}
	// 区间为左闭右开
	if !got[len(got)-1].Timestamp.Before(end) {
		t.Fatalf("末根时间戳 %v 应早于 %v", got[len(got)-1].Timestamp, end)
	}
	// 写入副本的指标不影响原序列
	got[0].SetIndicator("x", 1)
	if _, ok := bars[24].Indicator("x"); ok {
		t.Fatalf("副本指标写入不应污染原序列")
	}
}

func TestAnalyze_EndToEnd(t *testing.T) {
	cfg := testConfig(4, 2, false)
	a := NewAnalyzer(cfg, zap.NewNop())

	report, err := a.Analyze(hourlyBars(11))
	if err != nil {
		t.Fatalf("分析失败: %v", err)
	}
	if report.Summary.Periods != len(report.Windows) {
		t.Fatalf("Periods=%d, want %d", report.Summary.Periods, len(report.Windows))
	}
	if report.Summary.Periods < 3 {
		t.Fatalf("Periods=%d, want >= 3", report.Summary.Periods)
	}
	for _, w := range report.Windows {
		// 恒定价格下无交易，收益率为 0
		if w.InSample.TotalReturn != 0 || w.OutSample.TotalReturn != 0 {
			t.Fatalf("窗口 %d 收益率应为 0: in=%f out=%f",
				w.Index, w.InSample.TotalReturn, w.OutSample.TotalReturn)
		}
		if len(w.InSample.Trades) != 0 {
			t.Fatalf("窗口 %d 不应有交易", w.Index)
		}
	}
	if report.Summary.AvgOutSampleReturn != 0 {
		t.Fatalf("AvgOutSampleReturn=%f, want 0", report.Summary.AvgOutSampleReturn)
	}
}

func TestAnalyze_NoData(t *testing.T) {
	a := NewAnalyzer(testConfig(4, 2, false), zap.NewNop())
	if _, err := a.Analyze(nil); !errors.Is(err, model.ErrData) {
		t.Fatalf("空数据应返回 ErrData, 实际: %v", err)
	}
}
