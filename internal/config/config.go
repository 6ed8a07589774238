// Package config 负责加载和验证 YAML 配置文件。
// 提供回测所需的所有配置项，包括引擎、策略参数、风险限额、执行成本模型等。
// 所有默认值集中在 setDefaults 中，验证在运行开始前一次性完成。
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"regime-trend-backtester/internal/core/model"
)

// Config 应用配置根结构
// 包含所有子模块的配置项
type Config struct {
	// App 应用基础配置
	App AppConfig `yaml:"app"`
	// Engine 回测引擎配置
	Engine EngineConfig `yaml:"engine"`
	// Warmup 预热期配置
	Warmup WarmupConfig `yaml:"warmup"`
	// Data 数据源配置
	Data DataConfig `yaml:"data"`
	// Strategy 策略参数配置
	Strategy StrategyConfig `yaml:"strategy"`
	// Risk 风险管理配置
	Risk RiskConfig `yaml:"risk"`
	// Execution 执行成本模型配置
	Execution ExecutionConfig `yaml:"execution"`
	// Output 输出配置
	Output OutputConfig `yaml:"output"`
	// WalkForward Walk-Forward 分析配置
	WalkForward WalkForwardConfig `yaml:"walk_forward"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	// Name 应用名称，用于日志标识
	Name string `yaml:"name"`
	// LogLevel 日志级别: debug, info, warn, error
	LogLevel string `yaml:"log_level"`
}

// EngineConfig 回测引擎配置
type EngineConfig struct {
	// InitialCapital 初始资金
	InitialCapital float64 `yaml:"initial_capital"`
	// Currency 计价货币
	Currency string `yaml:"currency"`
	// CloseAtEnd 数据结束时是否强制按最后收盘价平仓
	// false 时持仓保持未实现状态，仅按市值计入最终资产
	CloseAtEnd bool `yaml:"close_at_end"`
	// EquitySampleStride 资产曲线采样步长（每 N 根 K 线采样一次）
	EquitySampleStride int `yaml:"equity_sample_stride"`
}

// WarmupConfig 预热期配置
type WarmupConfig struct {
	// Bars 预热 K 线数，回测从该索引开始
	Bars int `yaml:"bars"`
}

// DataConfig 数据源配置
type DataConfig struct {
	// Path CSV 数据文件路径
	Path string `yaml:"path"`
	// TimestampLayout 时间戳解析格式（Go layout）
	TimestampLayout string `yaml:"timestamp_layout"`
	// Start 起始日期过滤（含，RFC3339 或空）
	Start string `yaml:"start"`
	// End 结束日期过滤（含，RFC3339 或空）
	End string `yaml:"end"`
}

// StrategyConfig 策略参数配置
type StrategyConfig struct {
	// Name 策略名称（注册表键）
	Name string `yaml:"name"`
	// Indicators 指标参数
	Indicators IndicatorsConfig `yaml:"indicators"`
	// Regime 市场状态分类参数
	Regime RegimeConfig `yaml:"regime"`
	// Entry 进场规则
	Entry EntryConfig `yaml:"entry"`
	// Exit 离场规则
	Exit ExitConfig `yaml:"exit"`
}

// IndicatorsConfig 指标参数配置
type IndicatorsConfig struct {
	// EMA 指数均线配置
	EMA EMAConfig `yaml:"ema"`
	// Bollinger 布林带配置
	Bollinger BollingerConfig `yaml:"bollinger"`
	// ATR 平均真实波幅配置
	ATR ATRConfig `yaml:"atr"`
	// VolumeMA 成交量均线配置
	VolumeMA VolumeMAConfig `yaml:"volume_ma"`
}

// EMAConfig 指数均线配置
type EMAConfig struct {
	// Periods 快/中/慢三条均线的周期
	Periods []int `yaml:"periods"`
}

// BollingerConfig 布林带配置
type BollingerConfig struct {
	// Period 周期
	Period int `yaml:"period"`
	// StdDev 标准差倍数
	StdDev float64 `yaml:"std_dev"`
}

// ATRConfig 平均真实波幅配置
type ATRConfig struct {
	// Period 周期
	Period int `yaml:"period"`
	// Method 平滑方法: wilder, sma, ema
	Method string `yaml:"method"`
}

// VolumeMAConfig 成交量均线配置
type VolumeMAConfig struct {
	// Period 周期
	Period int `yaml:"period"`
	// Type 均线类型: sma, ema
	Type string `yaml:"type"`
}

// RegimeConfig 市场状态分类配置
type RegimeConfig struct {
	// MinSeparationPct 均线最小分离度（百分比）
	// Bull/Bear 需要相邻均线的间距均超过该值
	MinSeparationPct float64 `yaml:"min_separation_pct"`
	// Transition 状态切换噪声过滤配置
	Transition TransitionConfig `yaml:"transition"`
}

// TransitionConfig 状态切换噪声过滤配置
type TransitionConfig struct {
	// MinBars 最小维持窗口：窗口内不一致则沿用前值
	MinBars int `yaml:"min_bars"`
	// ConfirmationBars 确认窗口：连续出现该根数才接受新状态
	ConfirmationBars int `yaml:"confirmation_bars"`
}

// EntryConfig 进场规则配置
type EntryConfig struct {
	// Long 多头进场规则
	Long DirectionRules `yaml:"long"`
	// Short 空头进场规则
	Short DirectionRules `yaml:"short"`
}

// DirectionRules 单方向进场规则
type DirectionRules struct {
	// Regime 要求的市场状态（bull/bear/sideways，空表示不限制）
	Regime string `yaml:"regime"`
	// Conditions 条件列表，全部满足才触发
	Conditions []ConditionConfig `yaml:"conditions"`
}

// ConditionConfig 单个进场条件
type ConditionConfig struct {
	// Type 条件类型: price_cross, volume_filter
	Type string `yaml:"type"`
	// Indicator price_cross 条件的目标指标名
	Indicator string `yaml:"indicator"`
	// Direction price_cross 条件的穿越方向: below_or_equal, above_or_equal
	Direction string `yaml:"direction"`
	// MinRatio volume_filter 条件的最小量比
	MinRatio float64 `yaml:"min_ratio"`
	// MaxRatio volume_filter 条件的最大量比
	MaxRatio float64 `yaml:"max_ratio"`
}

// ExitConfig 离场规则配置
type ExitConfig struct {
	// StopLoss 止损配置
	StopLoss StopLossConfig `yaml:"stop_loss"`
	// RegimeExit 市场状态翻转离场配置
	RegimeExit RegimeExitConfig `yaml:"regime_exit"`
	// TimeExit 时间离场配置
	TimeExit TimeExitConfig `yaml:"time_exit"`
}

// StopLossConfig 止损配置
type StopLossConfig struct {
	// ATRMultiplier ATR 倍数，止损距离 = ATR × 倍数
	ATRMultiplier float64 `yaml:"atr_multiplier"`
	// UpdateOn 移动止损更新策略: always, favorable_move, never
	UpdateOn string `yaml:"update_on"`
}

// RegimeExitConfig 市场状态翻转离场配置
type RegimeExitConfig struct {
	// Enabled 是否启用
	Enabled bool `yaml:"enabled"`
}

// TimeExitConfig 时间离场配置
type TimeExitConfig struct {
	// Enabled 是否启用
	Enabled bool `yaml:"enabled"`
	// MaxBars 最大持仓 K 线数
	MaxBars int `yaml:"max_bars"`
}

// RiskConfig 风险管理配置
type RiskConfig struct {
	// Portfolio 组合级风险限额
	Portfolio PortfolioRiskConfig `yaml:"portfolio"`
	// PositionSizing 仓位规模策略
	PositionSizing PositionSizingConfig `yaml:"position_sizing"`
}

// PortfolioRiskConfig 组合级风险限额
type PortfolioRiskConfig struct {
	// MaxOpenPositions 最大同时持仓数
	MaxOpenPositions int `yaml:"max_open_positions"`
	// MaxDrawdownLimit 最大回撤限额（0-1）
	MaxDrawdownLimit float64 `yaml:"max_drawdown_limit"`
	// DailyLossLimit 单日亏损限额（占初始资金比例，0-1）
	DailyLossLimit float64 `yaml:"daily_loss_limit"`
	// MaxDailyTrades 单日最大交易次数
	MaxDailyTrades int `yaml:"max_daily_trades"`
}

// PositionSizingConfig 仓位规模策略配置
type PositionSizingConfig struct {
	// Method 规模计算方法: fixed, risk_pct, kelly, volatility_adjusted
	// 未知方法记录警告并回退到 fixed
	Method string `yaml:"method"`
	// Fixed 固定数量配置
	Fixed FixedSizingConfig `yaml:"fixed"`
	// RiskPct 风险百分比配置
	RiskPct RiskPctSizingConfig `yaml:"risk_pct"`
	// Kelly Kelly 准则配置
	Kelly KellySizingConfig `yaml:"kelly"`
	// VolatilityAdjusted 波动率调整配置
	VolatilityAdjusted VolSizingConfig `yaml:"volatility_adjusted"`
}

// FixedSizingConfig 固定数量配置
type FixedSizingConfig struct {
	// Quantity 每次进场的固定数量
	Quantity float64 `yaml:"quantity"`
}

// RiskPctSizingConfig 风险百分比配置
type RiskPctSizingConfig struct {
	// AccountRiskPerTrade 单笔风险占资产比例（0-1）
	AccountRiskPerTrade float64 `yaml:"account_risk_per_trade"`
}

// KellySizingConfig Kelly 准则配置
type KellySizingConfig struct {
	// Fraction Kelly 比例缩放系数（如 0.25 = 四分之一 Kelly）
	Fraction float64 `yaml:"fraction"`
	// LookbackTrades 计算所需的最少历史交易数
	LookbackTrades int `yaml:"lookback_trades"`
}

// VolSizingConfig 波动率调整配置
type VolSizingConfig struct {
	// BaseSize 基础数量（当前实现为简化的占位策略，直接返回该值）
	BaseSize float64 `yaml:"base_size"`
	// TargetVolatility 目标波动率（预留）
	TargetVolatility float64 `yaml:"target_volatility"`
}

// ExecutionConfig 执行成本模型配置
type ExecutionConfig struct {
	// Commission 手续费配置
	Commission CommissionConfig `yaml:"commission"`
	// Slippage 滑点配置
	Slippage SlippageConfig `yaml:"slippage"`
}

// CommissionConfig 手续费配置
type CommissionConfig struct {
	// Type 手续费类型: percentage, fixed
	Type string `yaml:"type"`
	// Taker percentage 类型的 taker 费率（0-1）
	Taker float64 `yaml:"taker"`
	// Fixed fixed 类型的固定费用
	Fixed float64 `yaml:"fixed"`
}

// SlippageConfig 滑点配置
type SlippageConfig struct {
	// Model 滑点模型: none, fixed_pct, volume_based, historical
	// 未知模型记录警告并回退到 fixed_pct
	Model string `yaml:"model"`
	// FixedPct fixed_pct 模型的固定比例（0-1）
	FixedPct float64 `yaml:"fixed_pct"`
	// VolumeBased volume_based 模型参数
	VolumeBased VolumeBasedConfig `yaml:"volume_based"`
}

// VolumeBasedConfig 成交量滑点模型参数
type VolumeBasedConfig struct {
	// BaseSlippage 基础滑点比例
	BaseSlippage float64 `yaml:"base_slippage"`
	// VolumeImpact 量比冲击系数
	VolumeImpact float64 `yaml:"volume_impact"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	// Dir 输出目录
	Dir string `yaml:"dir"`
	// TradesEnabled 是否输出交易台账文件
	TradesEnabled bool `yaml:"trades_enabled"`
	// EquityEnabled 是否输出资产曲线文件
	EquityEnabled bool `yaml:"equity_enabled"`
	// BufferSize 异步写入缓冲区大小
	BufferSize int `yaml:"buffer_size"`
}

// WalkForwardConfig Walk-Forward 分析配置
type WalkForwardConfig struct {
	// InSampleDays 样本内天数
	InSampleDays int `yaml:"in_sample_days"`
	// OutOfSampleDays 样本外天数
	OutOfSampleDays int `yaml:"out_of_sample_days"`
	// Anchored 是否锚定起点（true 时样本内窗口从数据起点开始累积）
	Anchored bool `yaml:"anchored"`
}

// Load 从文件加载配置并验证
// 参数 path: 配置文件路径
// 返回: 解析后的配置对象，若失败则返回 ErrConfig 类别错误
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取配置文件失败: %v", model.ErrConfig, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: 解析配置文件失败: %v", model.ErrConfig, err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults 设置配置默认值
// 默认值与原则: 只补空缺，不覆盖显式配置。
func (c *Config) setDefaults() {
	// 应用默认值
	if c.App.Name == "" {
		c.App.Name = "regime-trend-backtester"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}

	// 引擎默认值
	if c.Engine.InitialCapital == 0 {
		c.Engine.InitialCapital = 100000
	}
	if c.Engine.Currency == "" {
		c.Engine.Currency = "USDT"
	}
	if c.Engine.EquitySampleStride == 0 {
		c.Engine.EquitySampleStride = 10
	}

	// 预热默认值
	if c.Warmup.Bars == 0 {
		c.Warmup.Bars = 100
	}

	// 数据默认值
	if c.Data.TimestampLayout == "" {
		c.Data.TimestampLayout = "2006-01-02 15:04:05"
	}

	// 策略默认值
	if c.Strategy.Name == "" {
		c.Strategy.Name = "ema_bb_turtle"
	}
	if len(c.Strategy.Indicators.EMA.Periods) == 0 {
		c.Strategy.Indicators.EMA.Periods = []int{20, 40, 80}
	}
	// 不足三条均线时用最慢周期补齐
	for len(c.Strategy.Indicators.EMA.Periods) < 3 {
		c.Strategy.Indicators.EMA.Periods = append(c.Strategy.Indicators.EMA.Periods, 80)
	}
	if c.Strategy.Indicators.Bollinger.Period == 0 {
		c.Strategy.Indicators.Bollinger.Period = 20
	}
	if c.Strategy.Indicators.Bollinger.StdDev == 0 {
		c.Strategy.Indicators.Bollinger.StdDev = 2.0
	}
	if c.Strategy.Indicators.ATR.Period == 0 {
		c.Strategy.Indicators.ATR.Period = 20
	}
	if c.Strategy.Indicators.ATR.Method == "" {
		c.Strategy.Indicators.ATR.Method = "wilder"
	}
	if c.Strategy.Indicators.VolumeMA.Period == 0 {
		c.Strategy.Indicators.VolumeMA.Period = 20
	}
	if c.Strategy.Indicators.VolumeMA.Type == "" {
		c.Strategy.Indicators.VolumeMA.Type = "sma"
	}
	if c.Strategy.Regime.MinSeparationPct == 0 {
		c.Strategy.Regime.MinSeparationPct = 0.1
	}
	if c.Strategy.Regime.Transition.MinBars == 0 {
		c.Strategy.Regime.Transition.MinBars = 5
	}
	if c.Strategy.Regime.Transition.ConfirmationBars == 0 {
		c.Strategy.Regime.Transition.ConfirmationBars = 3
	}
	setConditionDefaults(c.Strategy.Entry.Long.Conditions)
	setConditionDefaults(c.Strategy.Entry.Short.Conditions)
	if c.Strategy.Exit.StopLoss.ATRMultiplier == 0 {
		c.Strategy.Exit.StopLoss.ATRMultiplier = 2.0
	}
	if c.Strategy.Exit.StopLoss.UpdateOn == "" {
		c.Strategy.Exit.StopLoss.UpdateOn = "favorable_move"
	}
	if c.Strategy.Exit.TimeExit.MaxBars == 0 {
		c.Strategy.Exit.TimeExit.MaxBars = 1440
	}

	// 风险默认值
	if c.Risk.Portfolio.MaxOpenPositions == 0 {
		c.Risk.Portfolio.MaxOpenPositions = 1
	}
	if c.Risk.Portfolio.MaxDrawdownLimit == 0 {
		c.Risk.Portfolio.MaxDrawdownLimit = 0.20
	}
	if c.Risk.Portfolio.DailyLossLimit == 0 {
		c.Risk.Portfolio.DailyLossLimit = 0.05
	}
	if c.Risk.Portfolio.MaxDailyTrades == 0 {
		c.Risk.Portfolio.MaxDailyTrades = 50
	}
	if c.Risk.PositionSizing.Method == "" {
		c.Risk.PositionSizing.Method = "fixed"
	}
	if c.Risk.PositionSizing.Fixed.Quantity == 0 {
		c.Risk.PositionSizing.Fixed.Quantity = 1.0
	}
	if c.Risk.PositionSizing.RiskPct.AccountRiskPerTrade == 0 {
		c.Risk.PositionSizing.RiskPct.AccountRiskPerTrade = 0.01
	}
	if c.Risk.PositionSizing.Kelly.Fraction == 0 {
		c.Risk.PositionSizing.Kelly.Fraction = 0.25
	}
	if c.Risk.PositionSizing.Kelly.LookbackTrades == 0 {
		c.Risk.PositionSizing.Kelly.LookbackTrades = 100
	}
	if c.Risk.PositionSizing.VolatilityAdjusted.BaseSize == 0 {
		c.Risk.PositionSizing.VolatilityAdjusted.BaseSize = 1.0
	}
	if c.Risk.PositionSizing.VolatilityAdjusted.TargetVolatility == 0 {
		c.Risk.PositionSizing.VolatilityAdjusted.TargetVolatility = 0.02
	}

	// 执行默认值
	if c.Execution.Commission.Type == "" {
		c.Execution.Commission.Type = "percentage"
	}
	if c.Execution.Commission.Taker == 0 {
		c.Execution.Commission.Taker = 0.0004
	}
	if c.Execution.Slippage.Model == "" {
		c.Execution.Slippage.Model = "fixed_pct"
	}
	if c.Execution.Slippage.FixedPct == 0 {
		c.Execution.Slippage.FixedPct = 0.0001
	}
	if c.Execution.Slippage.VolumeBased.BaseSlippage == 0 {
		c.Execution.Slippage.VolumeBased.BaseSlippage = 0.0001
	}
	if c.Execution.Slippage.VolumeBased.VolumeImpact == 0 {
		c.Execution.Slippage.VolumeBased.VolumeImpact = 0.00001
	}

	// 输出默认值
	if c.Output.Dir == "" {
		c.Output.Dir = "./output"
	}
	if c.Output.BufferSize == 0 {
		c.Output.BufferSize = 1000
	}

	// Walk-Forward 默认值
	if c.WalkForward.InSampleDays == 0 {
		c.WalkForward.InSampleDays = 180
	}
	if c.WalkForward.OutOfSampleDays == 0 {
		c.WalkForward.OutOfSampleDays = 30
	}
}

// setConditionDefaults 补齐进场条件的默认参数
// volume_filter 的量比区间默认 [0.5, 3.0]。
func setConditionDefaults(conditions []ConditionConfig) {
	for i := range conditions {
		if conditions[i].Type != "volume_filter" {
			continue
		}
		if conditions[i].MinRatio == 0 {
			conditions[i].MinRatio = 0.5
		}
		if conditions[i].MaxRatio == 0 {
			conditions[i].MaxRatio = 3.0
		}
	}
}

// Validate 验证配置合法性
// 检查所有必填项和数值范围；失败返回 ErrConfig 类别错误。
func (c *Config) Validate() error {
	var errs []string

	// 验证引擎配置
	if c.Engine.InitialCapital <= 0 {
		errs = append(errs, "engine.initial_capital: 初始资金必须为正数")
	}
	if c.Engine.EquitySampleStride <= 0 {
		errs = append(errs, "engine.equity_sample_stride: 采样步长必须为正数")
	}

	// 验证预热配置
	if c.Warmup.Bars < 0 {
		errs = append(errs, "warmup.bars: 预热 K 线数不能为负数")
	}

	// 验证数据配置
	if c.Data.Path == "" {
		errs = append(errs, "data.path: 数据文件路径不能为空")
	}

	// 验证策略配置
	if c.Strategy.Name == "" {
		errs = append(errs, "strategy.name: 策略名称不能为空")
	}
	for i, p := range c.Strategy.Indicators.EMA.Periods {
		if p <= 0 {
			errs = append(errs, fmt.Sprintf("strategy.indicators.ema.periods[%d]: 周期必须为正数", i))
		}
	}
	if c.Strategy.Indicators.Bollinger.Period <= 0 {
		errs = append(errs, "strategy.indicators.bollinger.period: 周期必须为正数")
	}
	if c.Strategy.Indicators.Bollinger.StdDev <= 0 {
		errs = append(errs, "strategy.indicators.bollinger.std_dev: 标准差倍数必须为正数")
	}
	if c.Strategy.Indicators.ATR.Period <= 0 {
		errs = append(errs, "strategy.indicators.atr.period: 周期必须为正数")
	}
	if c.Strategy.Regime.MinSeparationPct < 0 {
		errs = append(errs, "strategy.regime.min_separation_pct: 最小分离度不能为负数")
	}
	if c.Strategy.Regime.Transition.MinBars <= 0 {
		errs = append(errs, "strategy.regime.transition.min_bars: 最小维持窗口必须为正数")
	}
	if c.Strategy.Regime.Transition.ConfirmationBars <= 0 {
		errs = append(errs, "strategy.regime.transition.confirmation_bars: 确认窗口必须为正数")
	}
	if c.Strategy.Exit.StopLoss.ATRMultiplier <= 0 {
		errs = append(errs, "strategy.exit.stop_loss.atr_multiplier: ATR 倍数必须为正数")
	}
	switch c.Strategy.Exit.StopLoss.UpdateOn {
	case "always", "favorable_move", "never":
	default:
		errs = append(errs, fmt.Sprintf(
			"strategy.exit.stop_loss.update_on: 无效的更新策略 '%s'，有效值: always, favorable_move, never",
			c.Strategy.Exit.StopLoss.UpdateOn))
	}
	if c.Strategy.Exit.TimeExit.Enabled && c.Strategy.Exit.TimeExit.MaxBars <= 0 {
		errs = append(errs, "strategy.exit.time_exit.max_bars: 最大持仓 K 线数必须为正数")
	}

	// 验证风险配置
	if c.Risk.Portfolio.MaxOpenPositions <= 0 {
		errs = append(errs, "risk.portfolio.max_open_positions: 最大持仓数必须为正数")
	}
	if err := validateRate(c.Risk.Portfolio.MaxDrawdownLimit, "risk.portfolio.max_drawdown_limit"); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRate(c.Risk.Portfolio.DailyLossLimit, "risk.portfolio.daily_loss_limit"); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Risk.Portfolio.MaxDailyTrades <= 0 {
		errs = append(errs, "risk.portfolio.max_daily_trades: 单日最大交易次数必须为正数")
	}
	if err := validateRate(c.Risk.PositionSizing.RiskPct.AccountRiskPerTrade, "risk.position_sizing.risk_pct.account_risk_per_trade"); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Risk.PositionSizing.Kelly.Fraction < 0 || c.Risk.PositionSizing.Kelly.Fraction > 1 {
		errs = append(errs, fmt.Sprintf(
			"risk.position_sizing.kelly.fraction: 比例必须在 0-1 之间，当前值: %f",
			c.Risk.PositionSizing.Kelly.Fraction))
	}
	if c.Risk.PositionSizing.Kelly.LookbackTrades <= 0 {
		errs = append(errs, "risk.position_sizing.kelly.lookback_trades: 最少历史交易数必须为正数")
	}
	if c.Risk.PositionSizing.Fixed.Quantity < 0 {
		errs = append(errs, "risk.position_sizing.fixed.quantity: 固定数量不能为负数")
	}

	// 验证执行配置（费率范围 0-1）
	if err := validateRate(c.Execution.Commission.Taker, "execution.commission.taker"); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Execution.Commission.Fixed < 0 {
		errs = append(errs, "execution.commission.fixed: 固定手续费不能为负数")
	}
	if err := validateRate(c.Execution.Slippage.FixedPct, "execution.slippage.fixed_pct"); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Execution.Slippage.VolumeBased.BaseSlippage < 0 {
		errs = append(errs, "execution.slippage.volume_based.base_slippage: 基础滑点不能为负数")
	}
	if c.Execution.Slippage.VolumeBased.VolumeImpact < 0 {
		errs = append(errs, "execution.slippage.volume_based.volume_impact: 冲击系数不能为负数")
	}

	// 验证 Walk-Forward 配置
	if c.WalkForward.InSampleDays <= 0 {
		errs = append(errs, "walk_forward.in_sample_days: 样本内天数必须为正数")
	}
	if c.WalkForward.OutOfSampleDays <= 0 {
		errs = append(errs, "walk_forward.out_of_sample_days: 样本外天数必须为正数")
	}

	// 验证日志级别
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.App.LogLevel)] {
		errs = append(errs, fmt.Sprintf("app.log_level: 无效的日志级别 '%s'，有效值: debug, info, warn, error", c.App.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: 配置验证错误:\n  - %s", model.ErrConfig, strings.Join(errs, "\n  - "))
	}

	return nil
}

// validateRate 验证比例类配置的范围
// 参数 rate: 比例值
// 参数 field: 字段名称，用于错误消息
// 返回: 若比例无效则返回错误
func validateRate(rate float64, field string) error {
	if rate < 0 || rate > 1 {
		return fmt.Errorf("%s: 比例必须在 0-1 之间，当前值: %f", field, rate)
	}
	return nil
}

// FastPeriod 快速均线周期
func (c *StrategyConfig) FastPeriod() int { return c.Indicators.EMA.Periods[0] }

// MidPeriod 中速均线周期
func (c *StrategyConfig) MidPeriod() int { return c.Indicators.EMA.Periods[1] }

// SlowPeriod 慢速均线周期
func (c *StrategyConfig) SlowPeriod() int { return c.Indicators.EMA.Periods[2] }
