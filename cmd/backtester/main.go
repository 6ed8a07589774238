// Package main 是趋势回测器的入口点。
// 从 CSV 加载 K 线数据，按配置驱动回测引擎运行指定策略，
// 计算绩效指标并将成交台账、资产曲线与汇总落盘为 JSONL/JSON。
//
// 本系统仅离线重放历史数据，不连接任何交易所，严禁真实下单。
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"regime-trend-backtester/internal/analysis/walkforward"
	"regime-trend-backtester/internal/config"
	"regime-trend-backtester/internal/core/engine"
	"regime-trend-backtester/internal/core/model"
	"regime-trend-backtester/internal/core/strategy"
	"regime-trend-backtester/internal/data/csvload"
	"regime-trend-backtester/internal/output/jsonl"
	"regime-trend-backtester/internal/stats/metrics"
)

// summary 单次回测的落盘汇总
type summary struct {
	// Result 回测结果（不含台账与曲线明细，明细单独落盘）
	Result *engine.Result `json:"result"`
	// Metrics 绩效指标
	Metrics metrics.PerformanceMetrics `json:"metrics"`
}

func main() {
	var configPath string
	var runWalkForward bool
	flag.StringVar(&configPath, "config", "config.yaml", "配置文件路径")
	flag.BoolVar(&runWalkForward, "walkforward", false, "执行 Walk-Forward 分析而非单次回测")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.App.LogLevel)
	defer logger.Sync()

	loader := csvload.NewLoader(cfg.Data, logger)
	bars, err := loader.Load()
	if err != nil {
		logger.Error("数据加载失败", zap.Error(err))
		os.Exit(exitCode(err))
	}

	if runWalkForward {
		if err := analyzeWalkForward(cfg, bars, logger); err != nil {
			logger.Error("Walk-Forward 分析失败", zap.Error(err))
			os.Exit(exitCode(err))
		}
		return
	}

	if err := runBacktest(cfg, bars, logger); err != nil {
		logger.Error("回测失败", zap.Error(err))
		os.Exit(exitCode(err))
	}
}

// runBacktest 执行单次回测并落盘结果
func runBacktest(cfg *config.Config, bars []model.Bar, logger *zap.Logger) error {
	strat, err := strategy.New(cfg.Strategy.Name, &cfg.Strategy, logger)
	if err != nil {
		return err
	}

	e := engine.New(cfg, strat, logger, engine.WithProgress(func(current, total int) {
		logger.Info("回测进度", zap.Int("current", current), zap.Int("total", total))
	}))

	result, err := e.Run(bars)
	if err != nil {
		return err
	}

	perf := metrics.Calculate(result.Trades, result.EquityCurve, cfg.Engine.InitialCapital, metrics.DefaultPeriodsPerYear)
	logger.Info("回测完成",
		zap.String("run_id", result.RunID),
		zap.Float64("total_return", perf.TotalReturn),
		zap.Float64("max_drawdown", perf.MaxDrawdown),
		zap.Float64("sharpe", perf.SharpeRatio),
		zap.Int("trades", perf.TotalTrades),
	)

	recorder, err := jsonl.NewRecorder(cfg.Output, result.RunID, logger)
	if err != nil {
		return err
	}
	defer recorder.Close()

	if err := recorder.RecordTrades(result.Trades); err != nil {
		return err
	}
	if err := recorder.RecordEquityCurve(result.EquityCurve); err != nil {
		return err
	}
	return recorder.RecordSummary(&summary{Result: result, Metrics: perf})
}

// analyzeWalkForward 执行 Walk-Forward 分析并落盘报告
func analyzeWalkForward(cfg *config.Config, bars []model.Bar, logger *zap.Logger) error {
	report, err := walkforward.NewAnalyzer(cfg, logger).Analyze(bars)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	recorder, err := jsonl.NewRecorder(config.OutputConfig{Dir: cfg.Output.Dir}, runID+"_walkforward", logger)
	if err != nil {
		return err
	}
	defer recorder.Close()
	return recorder.RecordSummary(report)
}

// exitCode 按错误类别映射退出码
// 配置错误 2，数据错误 3，其余 1。
func exitCode(err error) int {
	switch {
	case errors.Is(err, model.ErrConfig):
		return 2
	case errors.Is(err, model.ErrData):
		return 3
	default:
		return 1
	}
}

func newLogger(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
