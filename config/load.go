package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"risk-engine-go/cost"
	"risk-engine-go/infrastructure/logger"
	"risk-engine-go/risk"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env        string                    `yaml:"env"`
	Logger     logger.Config             `yaml:"logger"`
	Metrics    MetricsConfig             `yaml:"metrics"`
	SignalFeed SignalFeedConfig          `yaml:"signalFeed"`
	Strategies map[string]StrategyConfig `yaml:"strategies"`
}

type MetricsConfig struct {
	Addr      string `yaml:"addr"` // 留空则不启动 metrics 服务
	Namespace string `yaml:"namespace"`
}

// SignalFeedConfig 保护性退出信号源（外部保护器的 WS 端点）。
type SignalFeedConfig struct {
	URL              string `yaml:"url"` // 留空则不接入外部信号
	ReconnectSeconds int    `yaml:"reconnectSeconds"`
}

// StrategyConfig 单个策略实例的层级与限额。
type StrategyConfig struct {
	Tier       string       `yaml:"tier"`
	StaleTicks int          `yaml:"staleTicks"` // 残留信号过期周期数
	Limits     LimitsConfig `yaml:"limits"`
}

// LimitsConfig 限额与止损止盈参数，装载时校验，运行期不再复查。
type LimitsConfig struct {
	MaxPosition         float64 `yaml:"maxPosition"`
	MaxSingleStock      float64 `yaml:"maxSingleStock"`
	MaxIndustry         float64 `yaml:"maxIndustry"`
	StopLossPct         float64 `yaml:"stopLossPct"`   // 负数
	TakeProfitPct       float64 `yaml:"takeProfitPct"` // 正数
	LiquidityThreshold  float64 `yaml:"liquidityThreshold"`
	MaxOrderPctOfVolume float64 `yaml:"maxOrderPctOfVolume"`
}

// ToLimits 转换为引擎使用的不可变限额。
func (c LimitsConfig) ToLimits() risk.Limits {
	return risk.Limits{
		MaxPosition:         c.MaxPosition,
		MaxSingleStock:      c.MaxSingleStock,
		MaxIndustry:         c.MaxIndustry,
		StopLossPct:         c.StopLossPct,
		TakeProfitPct:       c.TakeProfitPct,
		LiquidityThreshold:  c.LiquidityThreshold,
		MaxOrderPctOfVolume: c.MaxOrderPctOfVolume,
	}
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("RISK_SIGNAL_FEED_URL"); v != "" {
		cfg.SignalFeed.URL = v
	}
	if v := os.Getenv("RISK_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	return cfg, Validate(cfg)
}

// Validate ensures required fields are present and limit ranges are sane.
// 引擎运行期信任输入，参数合法性只在这里把关。
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if len(cfg.Strategies) == 0 {
		return errors.New("strategies config is required")
	}
	for name, sc := range cfg.Strategies {
		if _, err := cost.ParseTier(sc.Tier); err != nil {
			return fmt.Errorf("strategy %s: %w", name, err)
		}
		if sc.StaleTicks < 0 {
			return fmt.Errorf("strategy %s staleTicks must be >= 0", name)
		}
		l := sc.Limits
		if l.MaxPosition <= 0 || l.MaxPosition > 1 {
			return fmt.Errorf("strategy %s maxPosition must be in (0,1]", name)
		}
		if l.MaxSingleStock <= 0 || l.MaxSingleStock > 1 {
			return fmt.Errorf("strategy %s maxSingleStock must be in (0,1]", name)
		}
		if l.MaxIndustry <= 0 || l.MaxIndustry > 1 {
			return fmt.Errorf("strategy %s maxIndustry must be in (0,1]", name)
		}
		if l.StopLossPct >= 0 {
			return fmt.Errorf("strategy %s stopLossPct must be < 0", name)
		}
		if l.TakeProfitPct <= 0 {
			return fmt.Errorf("strategy %s takeProfitPct must be > 0", name)
		}
		if l.LiquidityThreshold < 0 {
			return fmt.Errorf("strategy %s liquidityThreshold must be >= 0", name)
		}
		if l.MaxOrderPctOfVolume < 0 || l.MaxOrderPctOfVolume > 1 {
			return fmt.Errorf("strategy %s maxOrderPctOfVolume must be in [0,1]", name)
		}
	}
	if cfg.SignalFeed.ReconnectSeconds < 0 {
		return errors.New("signalFeed.reconnectSeconds must be >= 0")
	}
	return nil
}
