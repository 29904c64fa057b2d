package core

import (
	"testing"

	"github.com/rushteam/recfusion/pkg/utils"
)

func TestItem_Sources(t *testing.T) {
	it := NewItem("p1")
	if got := it.Sources(); got != nil {
		t.Errorf("new item sources = %v, want nil", got)
	}

	it.AddSource("collaborative")
	it.AddSource("content_based")
	it.AddSource("collaborative") // duplicate is ignored

	got := it.Sources()
	want := []string{"collaborative", "content_based"}
	if len(got) != len(want) {
		t.Fatalf("sources = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sources[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestItem_Category(t *testing.T) {
	it := NewItem("p1")
	if got := it.Category(); got != "" {
		t.Errorf("Category() = %q, want empty", got)
	}

	it.Meta["category"] = "kitchen"
	if got := it.Category(); got != "kitchen" {
		t.Errorf("Category() from meta = %q, want kitchen", got)
	}

	// label takes precedence over meta
	it.PutLabel("category", utils.Label{Value: "electronics", Source: "test"})
	if got := it.Category(); got != "electronics" {
		t.Errorf("Category() = %q, want label value electronics", got)
	}
}

func TestItem_Clone(t *testing.T) {
	it := NewItem("p1")
	it.Score = 0.8
	it.Confidence = 0.6
	it.Features["f"] = 1.0
	it.Meta["category"] = "a"
	it.AddSource("collaborative")

	cp := it.Clone()
	cp.Score = 0.1
	cp.Features["f"] = 2.0
	cp.Meta["category"] = "b"
	cp.AddSource("content_based")

	if it.Score != 0.8 || it.Features["f"] != 1.0 || it.Meta["category"] != "a" {
		t.Error("mutating the clone changed the original")
	}
	if len(it.Sources()) != 1 {
		t.Errorf("original sources grew to %v", it.Sources())
	}
}

func TestItem_ClampScores(t *testing.T) {
	it := NewItem("p1")
	it.Score = 1.7
	it.Confidence = -0.2
	it.ClampScores()
	if it.Score != 1.0 || it.Confidence != 0.0 {
		t.Errorf("after clamp: score=%v confidence=%v, want 1.0 and 0.0", it.Score, it.Confidence)
	}
}

func TestMergeLabel(t *testing.T) {
	a := utils.Label{Value: "x", Source: "recall"}
	b := utils.Label{Value: "y", Source: "hybrid"}
	merged := utils.MergeLabel(a, b)
	if merged.Value != "x|y" {
		t.Errorf("merged value = %q, want x|y", merged.Value)
	}
	if merged.Source != "recall,hybrid" {
		t.Errorf("merged source = %q, want recall,hybrid", merged.Source)
	}

	if got := utils.MergeLabel(utils.Label{}, b); got != b {
		t.Errorf("merge with empty existing = %+v, want incoming", got)
	}
	if got := utils.MergeLabel(a, utils.Label{}); got != a {
		t.Errorf("merge with empty incoming = %+v, want existing", got)
	}
}
