// costprobe 打印各资金层级在不同量比下的成本模型输出，
// 供运营核对分层参数与拆单建议。
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"risk-engine-go/cost"
	"risk-engine-go/execution"
	"risk-engine-go/market"
)

func main() {
	spread := flag.Float64("spread", 0.001, "增强模型使用的买卖价差")
	volume := flag.Float64("volume", 100_000_000, "假设的日成交额（元）")
	tierFlag := flag.String("tier", "", "只看某一层级，留空看全部")
	flag.Parse()

	tiers := cost.Tiers
	if *tierFlag != "" {
		t, err := cost.ParseTier(*tierFlag)
		if err != nil {
			log.Fatalf("无效层级: %v", err)
		}
		tiers = []cost.Tier{t}
	}

	ratios := []float64{0.001, 0.01, 0.03, 0.05, 0.08, 0.10, 0.20, 0.50}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("COST MODEL / 成本模型")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"tier", "ratio", "slippage", "impact", "total", "split", "algo"})

	for _, tier := range tiers {
		for _, ratio := range ratios {
			orderSize := ratio * *volume
			md := market.Data{DailyVolume: *volume, BidAskSpread: *spread}

			var est cost.Estimate
			if cost.IsLargeTier(tier) {
				est = cost.EstimateEnhanced(tier, orderSize, md)
			} else {
				est = cost.EstimateCost(tier, orderSize, *volume)
				est.TotalCostPct = est.SlippagePct + est.ImpactCostPct
				est.RecommendedSplit = 1
			}
			algo := execution.SuggestAlgorithm(orderSize, *volume, tier)

			t.AppendRow(table.Row{
				string(tier),
				fmt.Sprintf("%.3f", ratio),
				fmt.Sprintf("%.4f%%", est.SlippagePct*100),
				fmt.Sprintf("%.4f%%", est.ImpactCostPct*100),
				fmt.Sprintf("%.4f%%", est.TotalCostPct*100),
				est.RecommendedSplit,
				string(algo),
			})
		}
		t.AppendSeparator()
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()
}
