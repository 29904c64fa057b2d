package crosscat

import (
	"math"
	"testing"
	"time"
)

func view(user, item string) Interaction {
	return Interaction{UserID: user, ItemID: item, Type: "view", Timestamp: time.Now()}
}

func purchase(user, item string, at time.Time) Interaction {
	return Interaction{UserID: user, ItemID: item, Type: "purchase", Timestamp: at}
}

func TestEngine_CollaborativeDiscovery(t *testing.T) {
	products := []Product{
		{ID: "ph1", Category: "phones"},
		{ID: "cs1", Category: "cases"},
	}
	interactions := []Interaction{
		view("u1", "ph1"), view("u1", "cs1"),
		view("u2", "ph1"), view("u2", "cs1"),
	}

	e := NewEngine(Config{})
	if err := e.Fit(products, interactions, nil); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	rels := e.Relationships()
	if len(rels) != 1 {
		t.Fatalf("got %d relationships, want 1 (pair stored once)", len(rels))
	}
	rel := rels[0]
	if rel.Source != "cases" || rel.Target != "phones" {
		t.Errorf("pair = (%s, %s), want alphabetical (cases, phones)", rel.Source, rel.Target)
	}
	if rel.Method != MethodCollaborative {
		t.Errorf("method = %s, want %s", rel.Method, MethodCollaborative)
	}
	if rel.EvidenceCount != 2 {
		t.Errorf("evidence = %d, want 2", rel.EvidenceCount)
	}
	if rel.Strength != 1.0 {
		t.Errorf("strength = %v, want capped 1.0", rel.Strength)
	}

	// lookups are order independent
	a, okA := e.RelationshipBetween("phones", "cases")
	b, okB := e.RelationshipBetween("cases", "phones")
	if !okA || !okB || a != b {
		t.Error("RelationshipBetween is not symmetric")
	}
}

func TestEngine_PruneByEvidence(t *testing.T) {
	products := []Product{
		{ID: "ph1", Category: "phones"},
		{ID: "cs1", Category: "cases"},
	}
	interactions := []Interaction{
		view("u1", "ph1"), view("u1", "cs1"),
		view("u2", "ph1"), view("u2", "cs1"),
	}

	e := NewEngine(Config{MinEvidenceCount: 3})
	if err := e.Fit(products, interactions, nil); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if got := len(e.Relationships()); got != 0 {
		t.Errorf("got %d relationships, want 0 (evidence 2 below threshold 3)", got)
	}
}

func TestEngine_SequenceMergesIntoHybrid(t *testing.T) {
	products := []Product{
		{ID: "ph1", Category: "phones"},
		{ID: "cs1", Category: "cases"},
	}
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	interactions := []Interaction{
		purchase("u1", "ph1", t0),
		purchase("u1", "cs1", t0.Add(time.Hour)),
	}

	e := NewEngine(Config{})
	if err := e.Fit(products, interactions, nil); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	rel, ok := e.RelationshipBetween("phones", "cases")
	if !ok {
		t.Fatal("expected phones-cases relationship")
	}
	// the pair is found by both co-occurrence and purchase sequence
	if rel.Method != MethodHybrid {
		t.Errorf("method = %s, want %s", rel.Method, MethodHybrid)
	}
	if rel.EvidenceCount != 2 {
		t.Errorf("evidence = %d, want 2 (both passes counted)", rel.EvidenceCount)
	}
}

func TestEngine_SemanticDiscovery(t *testing.T) {
	products := []Product{
		{ID: "b1", Category: "bottles", Name: "stainless steel travel bottle"},
		{ID: "f1", Category: "flasks", Name: "stainless steel travel flask"},
	}

	e := NewEngine(Config{MinEvidenceCount: 1})
	if err := e.Fit(products, nil, nil); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	rel, ok := e.RelationshipBetween("bottles", "flasks")
	if !ok {
		t.Fatal("expected semantic relationship between bottles and flasks")
	}
	if rel.Method != MethodSemantic {
		t.Errorf("method = %s, want %s", rel.Method, MethodSemantic)
	}
	// token jaccard: 3 shared of 5 distinct tokens
	if math.Abs(rel.Strength-0.6) > 1e-9 {
		t.Errorf("strength = %v, want 0.6", rel.Strength)
	}
}

func TestEngine_ManualOverrides(t *testing.T) {
	products := []Product{
		{ID: "ph1", Category: "phones"},
		{ID: "cs1", Category: "cases"},
	}
	interactions := []Interaction{
		view("u1", "ph1"), view("u1", "cs1"),
		view("u2", "ph1"), view("u2", "cs1"),
	}
	manual := []*CategoryRelationship{
		{Source: "phones", Target: "cases", Strength: 0.42},
	}

	e := NewEngine(Config{})
	if err := e.Fit(products, interactions, manual); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	rel, ok := e.RelationshipBetween("phones", "cases")
	if !ok {
		t.Fatal("expected phones-cases relationship")
	}
	if rel.Method != MethodManual {
		t.Errorf("method = %s, want %s", rel.Method, MethodManual)
	}
	if rel.Strength != 0.42 {
		t.Errorf("strength = %v, want manual 0.42", rel.Strength)
	}
}

func TestEngine_SuggestCrossCategoryProducts(t *testing.T) {
	products := []Product{
		{ID: "ph1", Category: "phones"},
		{ID: "cs1", Category: "cases"},
		{ID: "cs2", Category: "cases"},
	}
	interactions := []Interaction{
		view("u1", "ph1"), view("u1", "cs1"),
		view("u2", "ph1"), view("u2", "cs1"),
	}

	e := NewEngine(Config{})
	if err := e.Fit(products, interactions, nil); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	items := e.SuggestCrossCategoryProducts("ph1", 10)
	if len(items) == 0 {
		t.Fatal("no cross category suggestions")
	}
	for _, it := range items {
		if it.ID == "ph1" {
			t.Error("query product present in suggestions")
		}
		if lbl := it.Labels["category"]; lbl.Value != "cases" {
			t.Errorf("item %s category label = %q, want cases", it.ID, lbl.Value)
		}
		srcs := it.Sources()
		if len(srcs) != 1 || srcs[0] != "cross_category" {
			t.Errorf("item %s sources = %v, want [cross_category]", it.ID, srcs)
		}
		if it.Score < 0 || it.Score > 1 || it.Confidence < 0 || it.Confidence > 1 {
			t.Errorf("item %s score %v confidence %v out of [0,1]", it.ID, it.Score, it.Confidence)
		}
	}
	// cs1 carries all the popularity
	if items[0].ID != "cs1" {
		t.Errorf("top suggestion = %s, want cs1", items[0].ID)
	}
}

func TestEngine_SuggestEdgeCases(t *testing.T) {
	e := NewEngine(Config{})
	if got := e.SuggestCrossCategoryProducts("ph1", 5); got != nil {
		t.Error("unfitted engine returned suggestions")
	}

	products := []Product{{ID: "ph1", Category: "phones"}}
	if err := e.Fit(products, nil, nil); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if got := e.SuggestCrossCategoryProducts("ghost", 5); got != nil {
		t.Error("unknown product returned suggestions")
	}
	if got := e.SuggestCrossCategoryProducts("ph1", 5); got != nil {
		t.Error("product with no related categories returned suggestions")
	}
}

func TestEngine_FitEmpty(t *testing.T) {
	e := NewEngine(Config{})
	if err := e.Fit(nil, nil, nil); err == nil {
		t.Fatal("Fit with no products expected error")
	}
}

func TestPairStrength(t *testing.T) {
	tests := []struct {
		name         string
		count        int
		popA, popB   int
		weight, want float64
	}{
		{"normalized by populations", 1, 25, 25, 1.0, 0.2},
		{"sequence weight", 1, 25, 25, 1.5, 0.3},
		{"capped at one", 1, 1, 1, 1.0, 1.0},
		{"empty population", 1, 0, 5, 1.0, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pairStrength(tt.count, tt.popA, tt.popB, tt.weight); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("pairStrength(%d, %d, %d, %v) = %v, want %v",
					tt.count, tt.popA, tt.popB, tt.weight, got, tt.want)
			}
		})
	}
}

func TestTokenJaccardScorer(t *testing.T) {
	s := TokenJaccardScorer{}
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"steel bottle"}, []string{"steel bottle"}, 1.0},
		{"disjoint", []string{"steel bottle"}, []string{"wool scarf"}, 0.0},
		{"partial", []string{"steel travel bottle"}, []string{"steel travel flask"}, 0.5},
		{"empty side", nil, []string{"steel"}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Similarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPopularityRanker(t *testing.T) {
	products := []Product{
		{ID: "a", Category: "x"},
		{ID: "b", Category: "x"},
	}

	t.Run("ranks by interaction count", func(t *testing.T) {
		r := NewPopularityRanker([]Interaction{view("u1", "b"), view("u2", "b"), view("u1", "a")})
		items := r.Rank("x", products)
		if items[0].ID != "b" || items[0].Score != 1.0 {
			t.Errorf("top = %s score %v, want b 1.0", items[0].ID, items[0].Score)
		}
		if items[1].ID != "a" || items[1].Score != 0.5 {
			t.Errorf("second = %s score %v, want a 0.5", items[1].ID, items[1].Score)
		}
	})

	t.Run("no data gives floor score in id order", func(t *testing.T) {
		r := NewPopularityRanker(nil)
		items := r.Rank("x", products)
		if items[0].ID != "a" || items[1].ID != "b" {
			t.Errorf("order = %v, want [a b]", []string{items[0].ID, items[1].ID})
		}
		for _, it := range items {
			if it.Score != 0.5 {
				t.Errorf("item %s score = %v, want floor 0.5", it.ID, it.Score)
			}
		}
	})
}
