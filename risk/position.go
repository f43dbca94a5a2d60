package risk

// Position 策略提交的候选持仓。Size 为占总资金的比例，(0,1]。
// 引擎只读不改：所有调整都返回新的副本，调用方持有的原值不受影响。
type Position struct {
	Symbol       string
	Size         float64
	EntryPrice   float64
	CurrentPrice float64
	PnLPct       float64
	HoldingDays  int
	Industry     string
}

// Limits 每个策略实例一份，构造后不可变（生命周期与策略相同）。
// 合法性在 config 装载时校验，引擎内部不再重复校验。
type Limits struct {
	MaxPosition         float64 // 组合总仓位上限
	MaxSingleStock      float64 // 单票仓位上限
	MaxIndustry         float64 // 单行业仓位上限
	StopLossPct         float64 // 止损线，负数（如 -0.05）
	TakeProfitPct       float64 // 止盈线，正数（如 0.15）
	LiquidityThreshold  float64 // 流动性门槛（成交额，元）
	MaxOrderPctOfVolume float64 // 单笔订单占日成交量上限
}
