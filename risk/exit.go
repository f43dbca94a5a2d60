package risk

import (
	"fmt"
	"time"
)

// Urgency 保护性退出信号的紧急程度。
type Urgency int

const (
	UrgencyNormal Urgency = iota // 无外部信号
	UrgencyMedium
	UrgencyHigh
	UrgencyCritical
)

func (u Urgency) String() string {
	switch u {
	case UrgencyMedium:
		return "medium"
	case UrgencyHigh:
		return "high"
	case UrgencyCritical:
		return "critical"
	default:
		return "normal"
	}
}

// ParseUrgency 解析外部信号里的紧急程度字符串。
func ParseUrgency(s string) (Urgency, error) {
	switch s {
	case "medium":
		return UrgencyMedium, nil
	case "high":
		return UrgencyHigh, nil
	case "critical":
		return UrgencyCritical, nil
	default:
		return UrgencyNormal, fmt.Errorf("%w: %q", ErrUnknownUrgency, s)
	}
}

// ExitSignal 外部保护器下发的退出指令。同一 symbol 后到覆盖先到。
type ExitSignal struct {
	Symbol      string
	Urgency     Urgency
	ReduceRatio float64 // 建议减仓比例 [0,1]
	Reason      string
	Ts          time.Time

	missedTicks int // 连续未出现在持仓清单中的评估周期数
}

// 内部触发的隐含减仓力度：止损=全平，止盈=减半。
// MEDIUM 信号下内部触发只有力度严格更大才抢过控制权。
const (
	stopLossReduceRatio   = 1.0
	takeProfitReduceRatio = 0.5
)

// DefaultStaleTicks 陈旧信号过期阈值：信号对应的 symbol 连续这么多个
// 评估周期不在持仓里，就视为残留信号自动清除。
const DefaultStaleTicks = 30

// TickDecision 一次检查的完整结果，上层用它打日志/记指标。
type TickDecision struct {
	Fired      []string // 内部触发生效的 symbol
	Suppressed []string // 被 HIGH/CRITICAL 信号整体压制的 symbol
	Deferred   []string // MEDIUM 信号力度不低于内部触发，让位于外部信号
}

// ExitCoordinator 维护每 symbol 的保护性退出状态，并在每个评估周期
// 仲裁外部信号与引擎自身止损/止盈的优先级。单调用方使用，不加锁。
type ExitCoordinator struct {
	limits     Limits
	clock      Clock
	staleTicks int
	signals    map[string]*ExitSignal
}

// NewExitCoordinator 创建协调器；staleTicks<=0 时取 DefaultStaleTicks。
func NewExitCoordinator(limits Limits, staleTicks int) *ExitCoordinator {
	if staleTicks <= 0 {
		staleTicks = DefaultStaleTicks
	}
	return &ExitCoordinator{
		limits:     limits,
		clock:      NowUTC,
		staleTicks: staleTicks,
		signals:    make(map[string]*ExitSignal),
	}
}

// SetClock 替换时钟，测试用。
func (c *ExitCoordinator) SetClock(clk Clock) {
	if clk != nil {
		c.clock = clk
	}
}

// SetExitSignal 登记/覆盖外部退出信号（last-write-wins）。
func (c *ExitCoordinator) SetExitSignal(symbol string, urgency Urgency, reduceRatio float64, reason string) error {
	if urgency != UrgencyMedium && urgency != UrgencyHigh && urgency != UrgencyCritical {
		return fmt.Errorf("%w: %d", ErrUnknownUrgency, urgency)
	}
	if reduceRatio < 0 || reduceRatio > 1 {
		return fmt.Errorf("%w: %.4f", ErrBadReduceRatio, reduceRatio)
	}
	c.signals[symbol] = &ExitSignal{
		Symbol:      symbol,
		Urgency:     urgency,
		ReduceRatio: reduceRatio,
		Reason:      reason,
		Ts:          c.clock.Now(),
	}
	return nil
}

// ClearExitSignal 外部保护器解除信号，该 symbol 回到 NORMAL。
func (c *ExitCoordinator) ClearExitSignal(symbol string) {
	delete(c.signals, symbol)
}

// IsInExitMode 该 symbol 当前是否处于保护性退出状态。
func (c *ExitCoordinator) IsInExitMode(symbol string) bool {
	_, ok := c.signals[symbol]
	return ok
}

// Signal 返回当前信号副本（若存在）。
func (c *ExitCoordinator) Signal(symbol string) (ExitSignal, bool) {
	s, ok := c.signals[symbol]
	if !ok {
		return ExitSignal{}, false
	}
	return *s, true
}

// ActiveSignals 当前活跃信号数，供指标上报。
func (c *ExitCoordinator) ActiveSignals() int {
	return len(c.signals)
}

// ExpireStale 每个评估周期调用一次：持仓中已不存在的 symbol 累计
// 未命中周期数，超过阈值的残留信号被清除并返回。
func (c *ExitCoordinator) ExpireStale(positions []Position) []string {
	live := make(map[string]struct{}, len(positions))
	for _, p := range positions {
		live[p.Symbol] = struct{}{}
	}
	var expired []string
	for sym, sig := range c.signals {
		if _, ok := live[sym]; ok {
			sig.missedTicks = 0
			continue
		}
		sig.missedTicks++
		if sig.missedTicks >= c.staleTicks {
			delete(c.signals, sym)
			expired = append(expired, sym)
		}
	}
	return expired
}

// CheckStopLoss 返回需要强制止损的 symbol 列表。
func (c *ExitCoordinator) CheckStopLoss(positions []Position) []string {
	return c.CheckStopLossDetailed(positions).Fired
}

// CheckStopLossDetailed 带仲裁明细的止损检查。
func (c *ExitCoordinator) CheckStopLossDetailed(positions []Position) TickDecision {
	var d TickDecision
	for _, p := range positions {
		triggered := p.PnLPct <= c.limits.StopLossPct // 边界相等也触发
		c.arbitrate(&d, p.Symbol, triggered, stopLossReduceRatio)
	}
	return d
}

// CheckTakeProfit 返回需要止盈的 symbol 列表。
func (c *ExitCoordinator) CheckTakeProfit(positions []Position) []string {
	return c.CheckTakeProfitDetailed(positions).Fired
}

// CheckTakeProfitDetailed 带仲裁明细的止盈检查。
func (c *ExitCoordinator) CheckTakeProfitDetailed(positions []Position) TickDecision {
	var d TickDecision
	for _, p := range positions {
		triggered := p.PnLPct >= c.limits.TakeProfitPct
		c.arbitrate(&d, p.Symbol, triggered, takeProfitReduceRatio)
	}
	return d
}

// arbitrate 按 symbol 独立裁决：外部信号优先级见各分支。
func (c *ExitCoordinator) arbitrate(d *TickDecision, symbol string, triggered bool, impliedRatio float64) {
	sig, ok := c.signals[symbol]
	if !ok {
		// NORMAL：纯内部判定
		if triggered {
			d.Fired = append(d.Fired, symbol)
		}
		return
	}
	switch sig.Urgency {
	case UrgencyCritical, UrgencyHigh:
		// 保护性退出独占该 symbol 的出场决策，内部检查整体压制
		d.Suppressed = append(d.Suppressed, symbol)
	case UrgencyMedium:
		if !triggered {
			return
		}
		// 比较干预力度：内部隐含比例严格大于外部建议才放行
		if impliedRatio > sig.ReduceRatio {
			d.Fired = append(d.Fired, symbol)
		} else {
			d.Deferred = append(d.Deferred, symbol)
		}
	}
}
