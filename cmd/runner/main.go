package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"

	"risk-engine-go/config"
	"risk-engine-go/cost"
	"risk-engine-go/engine"
	"risk-engine-go/gateway"
	"risk-engine-go/infrastructure/logger"
	"risk-engine-go/infrastructure/monitor"
	"risk-engine-go/sim"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	strategyName := flag.String("strategy", "", "策略名，留空取配置中的第一个")
	tickInterval := flag.Duration("tickInterval", 3*time.Second, "评估周期间隔")
	ticks := flag.Int("ticks", 0, "运行周期数，0 表示不限")
	symbols := flag.Int("symbols", 50, "演练模式的标的数量")
	seed := flag.Int64("seed", 0, "演练随机种子，0 表示取当前时间")
	watch := flag.Bool("watch", false, "启用配置热更新")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zlog, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Close()

	mon := monitor.New(monitor.Config{
		Namespace: metricsNamespace(cfg),
		Subsystem: "strategy",
	})
	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr, mon)
	}

	name := pickStrategy(cfg, *strategyName)
	active, err := newDrill(cfg, name, *symbols, *seed, zlog, mon)
	if err != nil {
		log.Fatalf("初始化引擎失败: %v", err)
	}
	zlog.Info("engine started")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 外部保护器信号流：读循环只投递，应用统一在 tick 循环里串行完成
	sigCh := make(chan gateway.Signal, 128)
	if cfg.SignalFeed.URL != "" {
		feed := gateway.NewExitFeed(cfg.SignalFeed.URL, func(s gateway.Signal) {
			select {
			case sigCh <- s:
			default: // 信号积压时丢最旧的意义不大，直接丢新帧并靠计数暴露
			}
		}, zlog, mon)
		if cfg.SignalFeed.ReconnectSeconds > 0 {
			feed.Reconnect = time.Duration(cfg.SignalFeed.ReconnectSeconds) * time.Second
		}
		go func() { _ = feed.Run(ctx) }()
	}

	// 限额不可变，热更新走整机替换：新配置 = 新的策略实例
	updates := make(chan config.AppConfig, 1)
	if *watch {
		go func() {
			_ = config.Watcher{Path: *cfgPath}.Start(ctx, func(c config.AppConfig) {
				select {
				case updates <- c:
				default:
				}
			})
		}()
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	defer func() { _, _ = daemon.SdNotify(false, daemon.SdNotifyStopping) }()

	ticker := time.NewTicker(*tickInterval)
	defer ticker.Stop()

	done := 0
	for {
		select {
		case <-ctx.Done():
			logStats(zlog, active)
			return
		case newCfg := <-updates:
			replaced, err := newDrill(newCfg, name, *symbols, *seed, zlog, mon)
			if err != nil {
				zlog.LogError(err, map[string]interface{}{"stage": "hot_reload"})
				continue
			}
			logStats(zlog, active)
			active = replaced
			zlog.Info("engine replaced after config reload")
		case s := <-sigCh:
			applySignal(active.eng, s, zlog)
		case <-ticker.C:
			active.runner.Step()
			done++
			if *ticks > 0 && done >= *ticks {
				logStats(zlog, active)
				return
			}
		}
	}
}

func logStats(zlog *logger.Logger, d *drill) {
	s := d.runner.Stats()
	zlog.Info("drill_stats",
		zap.Int("ticks", s.Ticks),
		zap.Int("stop_loss_fired", s.StopLossFired),
		zap.Int("take_profit_fired", s.TakeProfitFired),
		zap.Int("signals_set", s.SignalsSet),
		zap.Int("signals_cleared", s.SignalsCleared),
		zap.Int("plans_generated", s.PlansGenerated),
		zap.Int("stealth_plans", s.StealthPlans),
	)
}

type drill struct {
	eng    *engine.Engine
	runner *sim.Runner
}

func newDrill(cfg config.AppConfig, name string, symbols int, seed int64, zlog *logger.Logger, mon *monitor.Monitor) (*drill, error) {
	sc := cfg.Strategies[name]
	eng := engine.New(engine.Config{
		Strategy:   name,
		Tier:       tierOf(sc),
		Limits:     sc.Limits.ToLimits(),
		StaleTicks: sc.StaleTicks,
	}, zlog, mon)

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	runner, err := sim.New(eng, sim.Config{Symbols: symbols, Ticks: 1, Seed: seed})
	if err != nil {
		return nil, err
	}
	return &drill{eng: eng, runner: runner}, nil
}

func applySignal(eng *engine.Engine, s gateway.Signal, zlog *logger.Logger) {
	switch s.Action {
	case "clear":
		eng.ClearExitSignal(s.Symbol)
	case "set":
		if err := eng.SetExitSignal(s.Symbol, s.Urgency, s.ReduceRatio, s.Reason); err != nil {
			zlog.LogError(err, map[string]interface{}{"symbol": s.Symbol})
		}
	}
}

func pickStrategy(cfg config.AppConfig, name string) string {
	if name != "" {
		if _, ok := cfg.Strategies[name]; !ok {
			log.Fatalf("strategy %s not found in config", name)
		}
		return name
	}
	names := make([]string, 0, len(cfg.Strategies))
	for n := range cfg.Strategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names[0]
}

// tierOf 配置装载时已校验过层级合法性，这里不会失败。
func tierOf(sc config.StrategyConfig) cost.Tier {
	t, _ := cost.ParseTier(sc.Tier)
	return t
}

func metricsNamespace(cfg config.AppConfig) string {
	if cfg.Metrics.Namespace != "" {
		return cfg.Metrics.Namespace
	}
	return monitor.DefaultConfig().Namespace
}

func serveMetrics(addr string, mon *monitor.Monitor) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", mon.Handler())
	_ = http.ListenAndServe(addr, mux)
}
