package execution

import (
	"math"
	"math/rand"
	"time"
)

// OrderType 单笔子单的下单方式。
type OrderType string

const (
	OrderLimit  OrderType = "limit"
	OrderMarket OrderType = "market"
)

// AvoidPeriod 不下单的时间窗口（交易所本地时间 HH:MM）。
type AvoidPeriod struct {
	Name  string
	Start string
	End   string
}

// StealthPlan 一次性的拆单执行方案：把大单伪装成零散的散户单流。
// 纯计算产物，不持久化。
type StealthPlan struct {
	Splits            int
	OrderSizes        []float64
	TimeIntervalsSec  []int       // 相邻子单间隔，长度 Splits-1
	OrderTypes        []OrderType // 每笔子单的下单方式
	LimitPriceOffsets []float64   // 限价子单的价格偏移（负=低于现价），市价子单为 0
	AvoidPeriods      []AvoidPeriod
}

// 集合竞价时段一律回避，拆单掩护在连续竞价里才有意义。
var auctionWindows = []AvoidPeriod{
	{Name: "opening_auction", Start: "09:15", End: "09:30"},
	{Name: "closing_auction", Start: "14:57", End: "15:00"},
}

// Splitter 拆单器。随机源按实例注入：生产用时间种子，测试传固定种子；
// 每个 symbol 各建一个实例即可避免并发下共享 RNG。
type Splitter struct {
	rng *rand.Rand
}

// NewSplitter 创建拆单器；rng 为 nil 时用时间种子。
func NewSplitter(rng *rand.Rand) *Splitter {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Splitter{rng: rng}
}

// GenerateStealthPlan 生成拆单方案。
//   - 子单数在建议拆单数上随机上浮 20%~50%，且至少比建议多 2 笔；
//   - 前 n-1 笔从均值 orderSize/n、标准差 30% 的正态分布抽样，
//     夹到 [0.5,1.5] 倍均值之间，且单笔不超过剩余量的 80%；
//   - 最后一笔吃掉全部剩余量，保证总量分毫不差；
//   - 间隔按量比分档随机，量比越大拖得越长。
func (s *Splitter) GenerateStealthPlan(orderSize float64, baseSplit int, ratio float64) StealthPlan {
	if baseSplit < 1 {
		baseSplit = 1
	}
	splits := int(math.Round(float64(baseSplit) * (1.2 + s.rng.Float64()*0.3)))
	if splits < baseSplit+2 {
		splits = baseSplit + 2
	}

	plan := StealthPlan{
		Splits:            splits,
		OrderSizes:        make([]float64, 0, splits),
		TimeIntervalsSec:  make([]int, 0, splits-1),
		OrderTypes:        make([]OrderType, 0, splits),
		LimitPriceOffsets: make([]float64, 0, splits),
		AvoidPeriods:      auctionWindows,
	}

	mean := orderSize / float64(splits)
	remaining := orderSize
	for i := 0; i < splits-1; i++ {
		size := mean + s.rng.NormFloat64()*mean*0.3
		size = clamp(size, mean*0.5, mean*1.5)
		if maxSlice := remaining * 0.8; size > maxSlice {
			size = maxSlice
		}
		plan.OrderSizes = append(plan.OrderSizes, size)
		remaining -= size
	}
	plan.OrderSizes = append(plan.OrderSizes, remaining)

	loSec, hiSec := intervalBand(ratio)
	for i := 0; i < splits-1; i++ {
		plan.TimeIntervalsSec = append(plan.TimeIntervalsSec, loSec+s.rng.Intn(hiSec-loSec+1))
	}

	for i := 0; i < splits; i++ {
		if s.rng.Float64() < 0.7 {
			plan.OrderTypes = append(plan.OrderTypes, OrderLimit)
			// 买方惯例：挂在现价下方 0.1%~0.5%
			plan.LimitPriceOffsets = append(plan.LimitPriceOffsets, -0.001-s.rng.Float64()*0.004)
		} else {
			plan.OrderTypes = append(plan.OrderTypes, OrderMarket)
			plan.LimitPriceOffsets = append(plan.LimitPriceOffsets, 0)
		}
	}
	return plan
}

// intervalBand 量比越高，子单间隔拉得越开。
func intervalBand(ratio float64) (lo, hi int) {
	switch {
	case ratio > 0.10:
		return 120, 600
	case ratio > 0.05:
		return 60, 300
	default:
		return 30, 180
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
