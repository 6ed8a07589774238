// Package config 配置模块测试
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"regime-trend-backtester/internal/core/model"
)

// TestConfigValidation_RateRange 测试比例类配置范围验证
// 属性: 费率/限额在 [0, 1] 范围外应验证失败
func TestConfigValidation_RateRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// 属性: 手续费率超出 [0, 1] 应验证失败
	properties.Property("手续费率超出范围应验证失败", prop.ForAll(
		func(rate float64) bool {
			cfg := createValidConfig()
			cfg.Execution.Commission.Taker = rate
			err := cfg.Validate()
			return err != nil
		},
		gen.OneGenOf(
			gen.Float64Range(-1000, -0.0001), // 负数
			gen.Float64Range(1.0001, 1000),   // 超过1
		),
	))

	// 属性: 回撤限额超出 [0, 1] 应验证失败
	properties.Property("回撤限额超出范围应验证失败", prop.ForAll(
		func(limit float64) bool {
			cfg := createValidConfig()
			cfg.Risk.Portfolio.MaxDrawdownLimit = limit
			err := cfg.Validate()
			return err != nil
		},
		gen.OneGenOf(
			gen.Float64Range(-1000, -0.0001),
			gen.Float64Range(1.0001, 1000),
		),
	))

	// 属性: 费率在 [0, 1] 范围内应验证通过
	properties.Property("比例在有效范围内应通过验证", prop.ForAll(
		func(rate float64) bool {
			cfg := createValidConfig()
			cfg.Execution.Commission.Taker = rate
			cfg.Execution.Slippage.FixedPct = rate
			cfg.Risk.Portfolio.MaxDrawdownLimit = rate
			cfg.Risk.Portfolio.DailyLossLimit = rate
			err := cfg.Validate()
			return err == nil
		},
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}

// TestConfigValidation_EngineParams 测试引擎参数验证
// 属性: 初始资金、采样步长必须为正数
func TestConfigValidation_EngineParams(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// 属性: 初始资金非正数应验证失败
	properties.Property("初始资金非正数应验证失败", prop.ForAll(
		func(capital float64) bool {
			cfg := createValidConfig()
			cfg.Engine.InitialCapital = capital
			err := cfg.Validate()
			return err != nil
		},
		gen.Float64Range(-1000000, 0),
	))

	// 属性: 初始资金为正数应通过验证
	properties.Property("初始资金为正数应通过验证", prop.ForAll(
		func(capital float64) bool {
			cfg := createValidConfig()
			cfg.Engine.InitialCapital = capital
			err := cfg.Validate()
			return err == nil
		},
		gen.Float64Range(0.0001, 1e9),
	))

	// 属性: 均线周期非正数应验证失败
	properties.Property("均线周期非正数应验证失败", prop.ForAll(
		func(period int) bool {
			cfg := createValidConfig()
			cfg.Strategy.Indicators.EMA.Periods = []int{period, 40, 80}
			err := cfg.Validate()
			return err != nil
		},
		gen.IntRange(-1000, 0),
	))

	properties.TestingRun(t)
}

// TestConfigValidation_StopLossUpdateOn 测试移动止损策略校验
func TestConfigValidation_StopLossUpdateOn(t *testing.T) {
	valid := []string{"always", "favorable_move", "never"}
	for _, v := range valid {
		cfg := createValidConfig()
		cfg.Strategy.Exit.StopLoss.UpdateOn = v
		if err := cfg.Validate(); err != nil {
			t.Fatalf("update_on=%s 应通过验证, 错误: %v", v, err)
		}
	}

	cfg := createValidConfig()
	cfg.Strategy.Exit.StopLoss.UpdateOn = "sometimes"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("无效的 update_on 应验证失败")
	}
	if !errors.Is(err, model.ErrConfig) {
		t.Fatalf("验证错误应属于 ErrConfig 类别, 实际: %v", err)
	}
}

// TestLoad_ValidFile 测试从有效文件加载配置
func TestLoad_ValidFile(t *testing.T) {
	content := `
app:
  name: test-backtester
  log_level: debug

engine:
  initial_capital: 50000
  currency: USDT
  close_at_end: true

data:
  path: ./testdata/btc_1m.csv

strategy:
  name: ema_bb_turtle
  indicators:
    ema:
      periods: [10, 30, 60]
  regime:
    min_separation_pct: 0.2

risk:
  position_sizing:
    method: risk_pct
    risk_pct:
      account_risk_per_trade: 0.02

execution:
  commission:
    type: percentage
    taker: 0.0005
  slippage:
    model: volume_based
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入临时配置文件失败: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载有效配置失败: %v", err)
	}

	if cfg.Engine.InitialCapital != 50000 {
		t.Fatalf("InitialCapital=%f, want 50000", cfg.Engine.InitialCapital)
	}
	if !cfg.Engine.CloseAtEnd {
		t.Fatal("CloseAtEnd 应为 true")
	}
	if cfg.Strategy.FastPeriod() != 10 || cfg.Strategy.SlowPeriod() != 60 {
		t.Fatalf("EMA 周期解析错误: %v", cfg.Strategy.Indicators.EMA.Periods)
	}
	if cfg.Risk.PositionSizing.Method != "risk_pct" {
		t.Fatalf("Method=%s, want risk_pct", cfg.Risk.PositionSizing.Method)
	}
	if cfg.Risk.PositionSizing.RiskPct.AccountRiskPerTrade != 0.02 {
		t.Fatalf("AccountRiskPerTrade=%f, want 0.02", cfg.Risk.PositionSizing.RiskPct.AccountRiskPerTrade)
	}
	if cfg.Execution.Slippage.Model != "volume_based" {
		t.Fatalf("Slippage.Model=%s, want volume_based", cfg.Execution.Slippage.Model)
	}

	// 未显式配置的字段应填入默认值
	if cfg.Engine.EquitySampleStride != 10 {
		t.Fatalf("EquitySampleStride=%d, want 默认值 10", cfg.Engine.EquitySampleStride)
	}
	if cfg.Warmup.Bars != 100 {
		t.Fatalf("Warmup.Bars=%d, want 默认值 100", cfg.Warmup.Bars)
	}
	if cfg.Strategy.Exit.StopLoss.ATRMultiplier != 2.0 {
		t.Fatalf("ATRMultiplier=%f, want 默认值 2.0", cfg.Strategy.Exit.StopLoss.ATRMultiplier)
	}
	if cfg.Risk.Portfolio.MaxOpenPositions != 1 {
		t.Fatalf("MaxOpenPositions=%d, want 默认值 1", cfg.Risk.Portfolio.MaxOpenPositions)
	}
}

// TestLoad_MissingFile 测试加载不存在的文件
func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("加载不存在的文件应返回错误")
	}
	if !errors.Is(err, model.ErrConfig) {
		t.Fatalf("错误应属于 ErrConfig 类别, 实际: %v", err)
	}
}

// TestLoad_InvalidYAML 测试加载格式错误的文件
func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("app: [unclosed"), 0o644); err != nil {
		t.Fatalf("写入临时配置文件失败: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("解析格式错误的文件应返回错误")
	}
	if !errors.Is(err, model.ErrConfig) {
		t.Fatalf("错误应属于 ErrConfig 类别, 实际: %v", err)
	}
}

// TestSetDefaults_EMAPadding 测试均线周期不足时的补齐
func TestSetDefaults_EMAPadding(t *testing.T) {
	cfg := &Config{}
	cfg.Strategy.Indicators.EMA.Periods = []int{15}
	cfg.setDefaults()

	if len(cfg.Strategy.Indicators.EMA.Periods) != 3 {
		t.Fatalf("周期数=%d, want 3", len(cfg.Strategy.Indicators.EMA.Periods))
	}
	if cfg.Strategy.FastPeriod() != 15 {
		t.Fatalf("FastPeriod=%d, want 15", cfg.Strategy.FastPeriod())
	}
	if cfg.Strategy.SlowPeriod() != 80 {
		t.Fatalf("SlowPeriod=%d, want 补齐值 80", cfg.Strategy.SlowPeriod())
	}
}

// createValidConfig 创建一个有效的配置用于测试
func createValidConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	cfg.Data.Path = "./testdata/btc_1m.csv"
	return cfg
}
