// Package csvload 从 CSV 文件加载 K 线序列。
// CSV 必须包含 timestamp/open/high/low/close/volume 列，
// 时间戳按配置的 layout 解析，序列要求严格升序且无重复。
package csvload

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"regime-trend-backtester/internal/config"
	"regime-trend-backtester/internal/core/model"
)

// csvBar CSV 行的反序列化中间结构
type csvBar struct {
	// Timestamp 原始时间戳字符串（按配置 layout 解析）
	Timestamp string `csv:"timestamp"`
	// Open 开盘价
	Open float64 `csv:"open"`
	// High 最高价
	High float64 `csv:"high"`
	// Low 最低价
	Low float64 `csv:"low"`
	// Close 收盘价
	Close float64 `csv:"close"`
	// Volume 成交量
	Volume float64 `csv:"volume"`
}

// Loader CSV 数据加载器
type Loader struct {
	cfg config.DataConfig
	log *zap.Logger
}

// NewLoader 创建 CSV 数据加载器
func NewLoader(cfg config.DataConfig, log *zap.Logger) *Loader {
	return &Loader{cfg: cfg, log: log}
}

// Load 读取并校验 CSV 数据
// 流程: 读文件 → 解析行 → 解析时间戳 → 升序/去重校验 → 日期过滤。
// 文件缺失、解析失败、时间戳乱序或重复均返回 ErrData 类别错误。
func (l *Loader) Load() ([]model.Bar, error) {
	f, err := os.Open(l.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: 打开 CSV 文件失败: %v", model.ErrData, err)
	}
	defer f.Close()

	var rows []csvBar
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("%w: 解析 CSV 失败: %v", model.ErrData, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: CSV 文件 %s 无数据行", model.ErrData, l.cfg.Path)
	}

	bars := make([]model.Bar, 0, len(rows))
	for i, row := range rows {
		ts, err := time.Parse(l.cfg.TimestampLayout, row.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: 第 %d 行时间戳 %q 不符合格式 %q",
				model.ErrData, i+1, row.Timestamp, l.cfg.TimestampLayout)
		}
		bars = append(bars, model.Bar{
			Timestamp: ts.UTC(),
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
		})
	}

	if err := model.ValidateSeries(bars); err != nil {
		return nil, err
	}

	bars, err = l.filterByDate(bars)
	if err != nil {
		return nil, err
	}

	l.log.Info("CSV 数据加载完成",
		zap.String("path", l.cfg.Path),
		zap.Int("bars", len(bars)),
	)
	return bars, nil
}

// filterByDate 按配置的起止日期过滤（闭区间，均可为空）
func (l *Loader) filterByDate(bars []model.Bar) ([]model.Bar, error) {
	start, err := parseBound(l.cfg.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: 起始日期 %q 无法解析", model.ErrData, l.cfg.Start)
	}
	end, err := parseBound(l.cfg.End)
	if err != nil {
		return nil, fmt.Errorf("%w: 结束日期 %q 无法解析", model.ErrData, l.cfg.End)
	}
	if start.IsZero() && end.IsZero() {
		return bars, nil
	}

	filtered := bars[:0:0]
	for _, b := range bars {
		if !start.IsZero() && b.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && b.Timestamp.After(end) {
			continue
		}
		filtered = append(filtered, b)
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("%w: 日期过滤后无剩余数据 [%s, %s]",
			model.ErrData, l.cfg.Start, l.cfg.End)
	}
	l.log.Debug("日期过滤完成",
		zap.Int("before", len(bars)),
		zap.Int("after", len(filtered)),
	)
	return filtered, nil
}

// parseBound 解析日期边界，支持 RFC3339 与纯日期两种写法
func parseBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
