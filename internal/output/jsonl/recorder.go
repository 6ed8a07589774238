package jsonl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"regime-trend-backtester/internal/config"
	"regime-trend-backtester/internal/core/model"
)

// Recorder 单次回测运行的结果落盘器
// 成交台账与资产曲线分别写入 <run_id>_trades.jsonl 和
// <run_id>_equity.jsonl，汇总写入 <run_id>_summary.json。
// 被配置关闭的输出静默跳过。
type Recorder struct {
	cfg   config.OutputConfig
	runID string

	trades *Writer
	equity *Writer

	log *zap.Logger
}

// NewRecorder 创建结果落盘器
func NewRecorder(cfg config.OutputConfig, runID string, log *zap.Logger) (*Recorder, error) {
	r := &Recorder{cfg: cfg, runID: runID, log: log}

	var err error
	if cfg.TradesEnabled {
		r.trades, err = newRunWriter(cfg.Dir, runID, "trades", cfg.BufferSize)
		if err != nil {
			return nil, fmt.Errorf("创建成交输出失败: %w", err)
		}
	}
	if cfg.EquityEnabled {
		r.equity, err = newRunWriter(cfg.Dir, runID, "equity", cfg.BufferSize)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("创建资产曲线输出失败: %w", err)
		}
	}
	return r, nil
}

// RecordTrades 写入成交台账
func (r *Recorder) RecordTrades(trades []model.Trade) error {
	if r.trades == nil {
		return nil
	}
	for i := range trades {
		if err := r.trades.Write(&trades[i]); err != nil {
			return err
		}
	}
	return nil
}

// RecordEquityCurve 写入资产曲线采样点
func (r *Recorder) RecordEquityCurve(curve []model.EquityPoint) error {
	if r.equity == nil {
		return nil
	}
	for i := range curve {
		if err := r.equity.Write(&curve[i]); err != nil {
			return err
		}
	}
	return nil
}

// RecordSummary 写入汇总 JSON（同步，缩进格式）
func (r *Recorder) RecordSummary(v any) error {
	if err := os.MkdirAll(r.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("编码汇总失败: %w", err)
	}
	path := filepath.Join(r.cfg.Dir, r.runID+"_summary.json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("写入汇总失败: %w", err)
	}
	r.log.Info("汇总已写入", zap.String("path", path))
	return nil
}

// Close 刷新并关闭全部输出文件
func (r *Recorder) Close() error {
	var err error
	if r.trades != nil {
		err = multierr.Append(err, r.trades.Close())
		r.trades = nil
	}
	if r.equity != nil {
		err = multierr.Append(err, r.equity.Close())
		r.equity = nil
	}
	return err
}
