package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor Prometheus监控指标收集器
type Monitor struct {
	registry *prometheus.Registry

	// 限额指标
	singleClamps   prometheus.Counter
	industryScales prometheus.Counter
	totalScales    prometheus.Counter
	totalExposure  prometheus.Gauge

	// 出场仲裁指标
	exitTriggers   *prometheus.CounterVec
	exitSuppressed prometheus.Counter
	exitDeferred   prometheus.Counter
	exitExpired    prometheus.Counter
	activeSignals  prometheus.Gauge

	// 流动性指标
	liquidityDrops prometheus.Counter

	// 成本指标
	estimatedCost     prometheus.Histogram
	recommendedSplits prometheus.Histogram
	stealthPlans      prometheus.Counter

	// 信号接入指标
	wsConnections prometheus.Counter
	wsDisconnects prometheus.Counter
	signalErrors  prometheus.Counter
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "riskengine",
		Subsystem: "strategy",
	}
}

// New 创建新的Monitor实例
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Monitor{
		registry: reg,

		// 限额指标
		singleClamps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "single_clamps_total",
			Help:      "单票限额截断次数",
		}),
		industryScales: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "industry_scales_total",
			Help:      "行业限额缩放次数",
		}),
		totalScales: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "total_scales_total",
			Help:      "总仓位缩放次数",
		}),
		totalExposure: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "total_exposure",
			Help:      "归一化后的总仓位",
		}),

		// 出场仲裁指标
		exitTriggers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "exit_triggers_total",
				Help:      "内部出场触发总数",
			},
			[]string{"kind"}, // stop_loss / take_profit
		),
		exitSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "exit_suppressed_total",
			Help:      "被保护性退出信号压制的内部检查次数",
		}),
		exitDeferred: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "exit_deferred_total",
			Help:      "让位于外部信号的内部触发次数",
		}),
		exitExpired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "exit_expired_total",
			Help:      "自动过期的残留信号数",
		}),
		activeSignals: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "active_exit_signals",
			Help:      "当前活跃的保护性退出信号数",
		}),

		// 流动性指标
		liquidityDrops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "liquidity_drops_total",
			Help:      "流动性准入剔除的标的数",
		}),

		// 成本指标
		estimatedCost: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "estimated_cost_pct",
			Help:      "预估总执行成本分布（比例值）",
			Buckets:   []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1},
		}),
		recommendedSplits: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "recommended_splits",
			Help:      "建议拆单数分布",
			Buckets:   []float64{1, 3, 5, 10, 20, 50},
		}),
		stealthPlans: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "stealth_plans_total",
			Help:      "生成拆单方案总数",
		}),

		// 信号接入指标
		wsConnections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "ws_connections_total",
			Help:      "信号源WebSocket连接次数",
		}),
		wsDisconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "ws_disconnects_total",
			Help:      "信号源WebSocket断开次数",
		}),
		signalErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "signal_errors_total",
			Help:      "非法退出信号总数",
		}),
	}

	return m
}

// 限额相关方法
func (m *Monitor) RecordEnforce(singleClamped, industryScaled int, totalScaled bool, totalAfter float64) {
	m.singleClamps.Add(float64(singleClamped))
	m.industryScales.Add(float64(industryScaled))
	if totalScaled {
		m.totalScales.Inc()
	}
	m.totalExposure.Set(totalAfter)
}

// 出场相关方法
func (m *Monitor) RecordExitTrigger(kind string, n int) {
	m.exitTriggers.WithLabelValues(kind).Add(float64(n))
}

func (m *Monitor) RecordExitSuppressed(n int) {
	m.exitSuppressed.Add(float64(n))
}

func (m *Monitor) RecordExitDeferred(n int) {
	m.exitDeferred.Add(float64(n))
}

func (m *Monitor) RecordExitExpired(n int) {
	m.exitExpired.Add(float64(n))
}

func (m *Monitor) SetActiveSignals(n int) {
	m.activeSignals.Set(float64(n))
}

// 流动性相关方法
func (m *Monitor) RecordLiquidityDrops(n int) {
	m.liquidityDrops.Add(float64(n))
}

// 成本相关方法
func (m *Monitor) RecordCostEstimate(totalCostPct float64, split int) {
	m.estimatedCost.Observe(totalCostPct)
	if split > 0 {
		m.recommendedSplits.Observe(float64(split))
	}
}

func (m *Monitor) RecordStealthPlan() {
	m.stealthPlans.Inc()
}

// 信号接入相关方法
func (m *Monitor) RecordWSConnection() { m.wsConnections.Inc() }
func (m *Monitor) RecordWSDisconnect() { m.wsDisconnects.Inc() }
func (m *Monitor) RecordSignalError()  { m.signalErrors.Inc() }

// Handler 返回可挂载的 /metrics handler。
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 暴露底层registry，便于测试采样。
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}
