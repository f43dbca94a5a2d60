// Package market 定义引擎消费的行情切面。数据由调用方在调用时整体传入，
// 引擎不做任何缓存或订阅。
package market

// Data 单只标的的流动性快照。
type Data struct {
	DailyVolume  float64 // 当日成交额（元）
	TurnoverRate float64 // 换手率
	BidAskSpread float64 // 相对买卖价差（如 0.001 表示 10bps）
}

// DataMap 按 symbol 索引的快照集合。缺失条目按"无流动性"处理。
type DataMap map[string]Data

// Get 返回快照与是否存在。
func (m DataMap) Get(symbol string) (Data, bool) {
	d, ok := m[symbol]
	return d, ok
}
