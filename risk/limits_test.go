package risk

import (
	"math"
	"math/rand"
	"testing"
)

func TestEnforceScenario(t *testing.T) {
	limits := Limits{MaxPosition: 0.8, MaxSingleStock: 0.1, MaxIndustry: 0.3}
	positions := []Position{
		{Symbol: "600519.SH", Size: 0.15, Industry: "tech"},
		{Symbol: "000858.SZ", Size: 0.20, Industry: "tech"},
	}

	res := Enforce(positions, limits)
	if res.SingleClamped != 2 {
		t.Fatalf("expected both positions clamped, got %d", res.SingleClamped)
	}
	// 截断后两票各 0.1，行业合计 0.2 ≤ 0.3，不再缩放
	for _, p := range res.Positions {
		if p.Size > limits.MaxSingleStock+1e-12 {
			t.Fatalf("%s size %.4f exceeds single cap", p.Symbol, p.Size)
		}
	}
	if res.TotalAfter > limits.MaxPosition+1e-12 {
		t.Fatalf("total %.4f exceeds max position", res.TotalAfter)
	}
	// 原始输入不被修改
	if positions[0].Size != 0.15 || positions[1].Size != 0.20 {
		t.Fatalf("input positions mutated: %+v", positions)
	}
}

func TestEnforceIndustryProportional(t *testing.T) {
	limits := Limits{MaxPosition: 1.0, MaxSingleStock: 0.5, MaxIndustry: 0.3}
	positions := []Position{
		{Symbol: "A", Size: 0.30, Industry: "bank"},
		{Symbol: "B", Size: 0.10, Industry: "bank"},
		{Symbol: "C", Size: 0.05, Industry: "steel"},
	}

	out := EnforceLimits(positions, limits)
	// bank 合计 0.4 → 缩放到 0.3，行业内 3:1 权重保持
	sum := out[0].Size + out[1].Size
	if math.Abs(sum-0.3) > 1e-9 {
		t.Fatalf("industry sum = %.6f, want 0.3", sum)
	}
	if math.Abs(out[0].Size/out[1].Size-3.0) > 1e-9 {
		t.Fatalf("intra-industry ratio broken: %.4f / %.4f", out[0].Size, out[1].Size)
	}
	if out[2].Size != 0.05 {
		t.Fatalf("untouched industry scaled: %.4f", out[2].Size)
	}
}

func TestEnforceEmpty(t *testing.T) {
	out := EnforceLimits(nil, Limits{MaxPosition: 0.8, MaxSingleStock: 0.1, MaxIndustry: 0.3})
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %d", len(out))
	}
}

func TestEnforceSingleOversized(t *testing.T) {
	// 单票同时超过三道上限，三道处理后收敛到最严的一道
	limits := Limits{MaxPosition: 0.05, MaxSingleStock: 0.1, MaxIndustry: 0.08}
	out := EnforceLimits([]Position{{Symbol: "A", Size: 0.9, Industry: "tech"}}, limits)
	if math.Abs(out[0].Size-0.05) > 1e-9 {
		t.Fatalf("size = %.4f, want 0.05", out[0].Size)
	}
}

// TestEnforceInvariants 随机批次下三条不变量必须全部成立。
func TestEnforceInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	industries := []string{"tech", "bank", "steel", "pharma", "energy"}

	for iter := 0; iter < 200; iter++ {
		limits := Limits{
			MaxPosition:    0.3 + rng.Float64()*0.7,
			MaxSingleStock: 0.02 + rng.Float64()*0.2,
			MaxIndustry:    0.1 + rng.Float64()*0.4,
		}
		n := rng.Intn(20)
		positions := make([]Position, n)
		for i := range positions {
			positions[i] = Position{
				Symbol:   string(rune('A' + i)),
				Size:     rng.Float64(),
				Industry: industries[rng.Intn(len(industries))],
			}
		}

		out := EnforceLimits(positions, limits)

		total := 0.0
		byIndustry := make(map[string]float64)
		for _, p := range out {
			if p.Size > limits.MaxSingleStock+1e-9 {
				t.Fatalf("iter %d: single cap broken: %.6f > %.6f", iter, p.Size, limits.MaxSingleStock)
			}
			total += p.Size
			byIndustry[p.Industry] += p.Size
		}
		for ind, sum := range byIndustry {
			if sum > limits.MaxIndustry+1e-9 {
				t.Fatalf("iter %d: industry %s cap broken: %.6f > %.6f", iter, ind, sum, limits.MaxIndustry)
			}
		}
		if total > limits.MaxPosition+1e-9 {
			t.Fatalf("iter %d: total cap broken: %.6f > %.6f", iter, total, limits.MaxPosition)
		}
	}
}
