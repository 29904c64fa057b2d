package hybrid

import (
	"math"
	"testing"

	"github.com/rushteam/recfusion/core"
)

func testItem(id string, score, confidence float64, source string) *core.Item {
	it := core.NewItem(id)
	it.Score = score
	it.Confidence = confidence
	if source != "" {
		it.AddSource(source)
	}
	return it
}

func TestWeightedStrategy_FusesBothSources(t *testing.T) {
	cf := []*core.Item{testItem("x", 0.8, 0.9, "collaborative")}
	cb := []*core.Item{testItem("x", 0.4, 0.5, "content_based")}

	s := &WeightedStrategy{}
	out := s.Combine(cf, cb, CombineContext{CFWeight: 0.7, CBWeight: 0.3, TopN: 10})
	if len(out) != 1 {
		t.Fatalf("got %d items, want 1", len(out))
	}

	// (0.8*0.7 + 0.4*0.3) / (0.7 + 0.3)
	if math.Abs(out[0].Score-0.68) > 1e-9 {
		t.Errorf("fused score = %v, want 0.68", out[0].Score)
	}
	// avg confidence 0.7 boosted by the two-source factor 1.2
	if math.Abs(out[0].Confidence-0.84) > 1e-9 {
		t.Errorf("fused confidence = %v, want 0.84", out[0].Confidence)
	}
	if got := len(out[0].Sources()); got != 2 {
		t.Errorf("fused item has %d sources, want 2", got)
	}
}

func TestWeightedStrategy_AdaptiveWeighting(t *testing.T) {
	cf := []*core.Item{testItem("x", 0.8, 0.9, "collaborative")}
	cb := []*core.Item{testItem("x", 0.4, 0.5, "content_based")}

	s := &WeightedStrategy{}
	out := s.Combine(cf, cb, CombineContext{
		CFWeight: 0.7, CBWeight: 0.3, AdaptiveWeighting: true, TopN: 10,
	})
	if len(out) != 1 {
		t.Fatalf("got %d items, want 1", len(out))
	}
	// CF side has higher confidence so its weight doubles:
	// (0.8*1.4 + 0.4*0.3) / (1.4 + 0.3)
	want := (0.8*1.4 + 0.4*0.3) / 1.7
	if math.Abs(out[0].Score-want) > 1e-9 {
		t.Errorf("adaptive score = %v, want %v", out[0].Score, want)
	}
}

func TestWeightedStrategy_SingleSourceKeepsScore(t *testing.T) {
	cf := []*core.Item{testItem("a", 0.9, 0.8, "collaborative")}
	cb := []*core.Item{testItem("b", 0.3, 0.4, "content_based")}

	s := &WeightedStrategy{}
	out := s.Combine(cf, cb, CombineContext{CFWeight: 0.7, CBWeight: 0.3, TopN: 10})
	if len(out) != 2 {
		t.Fatalf("got %d items, want 2", len(out))
	}
	if out[0].ID != "a" || out[0].Score != 0.9 {
		t.Errorf("top item = %s score %v, want a with untouched 0.9", out[0].ID, out[0].Score)
	}
	if out[1].ID != "b" || out[1].Score != 0.3 {
		t.Errorf("second item = %s score %v, want b with untouched 0.3", out[1].ID, out[1].Score)
	}
}

func TestWeightedStrategy_DoesNotMutateInputs(t *testing.T) {
	cfIt := testItem("x", 0.8, 0.9, "collaborative")
	cbIt := testItem("x", 0.4, 0.5, "content_based")

	s := &WeightedStrategy{}
	s.Combine([]*core.Item{cfIt}, []*core.Item{cbIt}, CombineContext{CFWeight: 0.7, CBWeight: 0.3, TopN: 10})

	if cfIt.Score != 0.8 || cbIt.Score != 0.4 {
		t.Error("Combine mutated input items")
	}
	if len(cfIt.Sources()) != 1 {
		t.Errorf("input item sources grew to %v", cfIt.Sources())
	}
}

func TestSwitchingStrategy(t *testing.T) {
	cf := []*core.Item{
		testItem("a", 0.9, 0.8, "collaborative"),
		testItem("b", 0.7, 0.8, "collaborative"),
	}
	cb := []*core.Item{
		testItem("c", 0.6, 0.5, "content_based"),
		testItem("a", 0.5, 0.5, "content_based"),
	}

	s := &SwitchingStrategy{}

	t.Run("cold start uses content only", func(t *testing.T) {
		out := s.Combine(cf, cb, CombineContext{ColdStart: true, TopN: 10})
		if len(out) != 2 {
			t.Fatalf("got %d items, want 2", len(out))
		}
		for _, it := range out {
			srcs := it.Sources()
			if len(srcs) != 1 || srcs[0] != "content_based" {
				t.Errorf("item %s sources = %v, want content only", it.ID, srcs)
			}
		}
	})

	t.Run("warm user uses collaborative", func(t *testing.T) {
		out := s.Combine(cf, cb, CombineContext{ColdStart: false, TopN: 4})
		if len(out) != 2 {
			t.Fatalf("got %d items, want 2 (cf covers half of topN)", len(out))
		}
		if out[0].ID != "a" || out[1].ID != "b" {
			t.Errorf("items = %v, want [a b]", []string{out[0].ID, out[1].ID})
		}
	})

	t.Run("thin collaborative backfills from content", func(t *testing.T) {
		thin := cf[:1]
		out := s.Combine(thin, cb, CombineContext{ColdStart: false, TopN: 6})
		// a from cf, then c from cb; duplicate a from cb is dropped
		if len(out) != 2 {
			t.Fatalf("got %d items, want 2", len(out))
		}
		seen := map[string]int{}
		for _, it := range out {
			seen[it.ID]++
		}
		if seen["a"] != 1 || seen["c"] != 1 {
			t.Errorf("backfill produced %v, want one a and one c", seen)
		}
	})
}

func TestCascadeStrategy(t *testing.T) {
	cf := []*core.Item{
		testItem("a", 0.8, 0.6, "collaborative"),
		testItem("b", 0.6, 0.6, "collaborative"),
	}
	cb := []*core.Item{testItem("c", 0.5, 0.5, "content_based")}

	s := &CascadeStrategy{}

	t.Run("no similarity leaves scores unchanged", func(t *testing.T) {
		out := s.Combine(cf, cb, CombineContext{TopN: 10})
		if len(out) != 2 {
			t.Fatalf("got %d items, want 2", len(out))
		}
		if out[0].Score != 0.8 || out[1].Score != 0.6 {
			t.Errorf("scores = %v %v, want untouched 0.8 0.6", out[0].Score, out[1].Score)
		}
	})

	t.Run("content similarity refines scores", func(t *testing.T) {
		sim := func(a, b string) float64 { return 0.5 }
		out := s.Combine(cf, cb, CombineContext{TopN: 10, ItemSimilarity: sim})
		// 0.8*score + 0.2*avgSim
		if math.Abs(out[0].Score-(0.8*0.8+0.2*0.5)) > 1e-9 {
			t.Errorf("refined score = %v, want %v", out[0].Score, 0.8*0.8+0.2*0.5)
		}
		if _, ok := out[0].Labels["cascade_boost"]; !ok {
			t.Error("refined item missing cascade_boost label")
		}
	})

	t.Run("empty first stage falls back to content", func(t *testing.T) {
		out := s.Combine(nil, cb, CombineContext{TopN: 10})
		if len(out) != 1 || out[0].ID != "c" {
			t.Errorf("fallback items = %v, want [c]", ids(out))
		}
	})
}

func TestMixedStrategy(t *testing.T) {
	cf := []*core.Item{
		testItem("a", 0.9, 0.8, "collaborative"),
		testItem("b", 0.8, 0.8, "collaborative"),
		testItem("c", 0.7, 0.8, "collaborative"),
	}
	cb := []*core.Item{
		testItem("c", 0.6, 0.5, "content_based"),
		testItem("d", 0.5, 0.5, "content_based"),
	}

	s := &MixedStrategy{}
	out := s.Combine(cf, cb, CombineContext{CFWeight: 0.7, CBWeight: 0.3, TopN: 4})

	got := ids(out)
	// quota of round(4*0.7) = 3 from cf, remainder from cb with dedup on c
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("items = %v, want %v", got, want)
		}
	}
}

func TestMixedStrategy_RespectsTopN(t *testing.T) {
	cf := []*core.Item{
		testItem("a", 0.9, 0.8, "collaborative"),
		testItem("b", 0.8, 0.8, "collaborative"),
	}
	cb := []*core.Item{
		testItem("c", 0.6, 0.5, "content_based"),
		testItem("d", 0.5, 0.5, "content_based"),
	}
	s := &MixedStrategy{}
	out := s.Combine(cf, cb, CombineContext{CFWeight: 0.5, CBWeight: 0.5, TopN: 2})
	if len(out) != 2 {
		t.Errorf("got %d items, want 2", len(out))
	}
}

func TestStrategyFor(t *testing.T) {
	tests := []struct {
		kind StrategyKind
		want StrategyKind
	}{
		{StrategyWeighted, StrategyWeighted},
		{StrategySwitching, StrategySwitching},
		{StrategyCascade, StrategyCascade},
		{StrategyMixed, StrategyMixed},
		{StrategyFeatureCombined, StrategyFeatureCombined},
		{"unknown", StrategyWeighted},
		{"", StrategyWeighted},
	}
	for _, tt := range tests {
		if got := strategyFor(tt.kind).Name(); got != tt.want {
			t.Errorf("strategyFor(%q).Name() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func ids(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
