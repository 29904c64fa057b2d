package improve

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/rushteam/recfusion/core"
	"github.com/rushteam/recfusion/feedback"
	"github.com/rushteam/recfusion/store"
)

func addSuggestion(t *testing.T, tr *Tracker, status Status) string {
	t.Helper()
	id, err := tr.AddSuggestion(context.Background(), &ImprovementSuggestion{
		Title:    "tune diversity factor",
		Category: CategoryDiversity,
		Status:   status,
	})
	if err != nil {
		t.Fatalf("AddSuggestion() error = %v", err)
	}
	return id
}

func setStatus(t *testing.T, tr *Tracker, id string, status Status) {
	t.Helper()
	if err := tr.UpdateSuggestion(context.Background(), id, SuggestionUpdate{Status: &status}); err != nil {
		t.Fatalf("UpdateSuggestion(%s) error = %v", status, err)
	}
}

func mustStatus(t *testing.T, tr *Tracker, id string, want Status) {
	t.Helper()
	s, ok := tr.Suggestion(id)
	if !ok {
		t.Fatalf("suggestion %s not found", id)
	}
	if s.Status != want {
		t.Fatalf("status = %s, want %s", s.Status, want)
	}
}

func TestTracker_AddSuggestionDefaults(t *testing.T) {
	tr := NewTracker()
	id, err := tr.AddSuggestion(context.Background(), &ImprovementSuggestion{
		Title:    "improve ctr",
		Category: CategoryRelevance,
	})
	if err != nil {
		t.Fatalf("AddSuggestion() error = %v", err)
	}
	s, ok := tr.Suggestion(id)
	if !ok {
		t.Fatal("suggestion not stored")
	}
	if s.Status != StatusIdentified {
		t.Errorf("default status = %s, want %s", s.Status, StatusIdentified)
	}
	if s.Priority != PriorityMedium {
		t.Errorf("default priority = %s, want %s", s.Priority, PriorityMedium)
	}
	if s.CreatedAt.IsZero() || s.UpdatedAt.IsZero() {
		t.Error("timestamps not filled")
	}
}

func TestTracker_AddSuggestionInvalidEnum(t *testing.T) {
	tr := NewTracker()
	_, err := tr.AddSuggestion(context.Background(), &ImprovementSuggestion{
		Title:    "bad",
		Category: "nonsense",
	})
	if err == nil {
		t.Fatal("invalid category accepted")
	}
}

func TestTracker_StatusLifecycle(t *testing.T) {
	tr := NewTracker()
	id := addSuggestion(t, tr, StatusIdentified)

	for _, next := range []Status{StatusProposed, StatusPlanned, StatusInProgress, StatusTesting, StatusImplemented} {
		setStatus(t, tr, id, next)
		mustStatus(t, tr, id, next)
	}
	setStatus(t, tr, id, StatusReverted)
	mustStatus(t, tr, id, StatusReverted)
}

func TestTracker_IdentifiedCannotJumpToImplemented(t *testing.T) {
	tr := NewTracker()
	id := addSuggestion(t, tr, StatusIdentified)

	setStatus(t, tr, id, StatusImplemented)

	// the illegal transition is ignored, the suggestion stays identified
	mustStatus(t, tr, id, StatusIdentified)
}

func TestTracker_InvalidTransitionKeepsOtherFields(t *testing.T) {
	tr := NewTracker()
	id := addSuggestion(t, tr, StatusIdentified)

	title := "renamed"
	bad := StatusReverted
	if err := tr.UpdateSuggestion(context.Background(), id, SuggestionUpdate{
		Title:  &title,
		Status: &bad,
	}); err != nil {
		t.Fatalf("UpdateSuggestion() error = %v", err)
	}
	s, _ := tr.Suggestion(id)
	if s.Title != "renamed" {
		t.Errorf("title = %q, want the update applied", s.Title)
	}
	if s.Status != StatusIdentified {
		t.Errorf("status = %s, want unchanged %s", s.Status, StatusIdentified)
	}
}

func TestTracker_UpdateUnknownSuggestion(t *testing.T) {
	tr := NewTracker()
	status := StatusProposed
	err := tr.UpdateSuggestion(context.Background(), "ghost", SuggestionUpdate{Status: &status})
	if err == nil {
		t.Fatal("update of unknown suggestion expected error")
	}
	if !core.IsNotFound(err) {
		t.Errorf("error = %v, want NOT_FOUND domain error", err)
	}
}

func TestTracker_ImplementationResult(t *testing.T) {
	t.Run("success from testing implements", func(t *testing.T) {
		tr := NewTracker()
		id := addSuggestion(t, tr, StatusTesting)
		err := tr.AddImplementationResult(context.Background(), &ImplementationResult{
			SuggestionID: id,
			Success:      true,
			Metrics:      map[string]float64{"ctr": 0.03},
		})
		if err != nil {
			t.Fatalf("AddImplementationResult() error = %v", err)
		}
		s, _ := tr.Suggestion(id)
		if s.Status != StatusImplemented {
			t.Errorf("status = %s, want %s", s.Status, StatusImplemented)
		}
		if s.MetricImpacts["ctr"] != 0.03 {
			t.Errorf("metric impacts = %v, want ctr merged", s.MetricImpacts)
		}
	})

	t.Run("failure after implementation reverts", func(t *testing.T) {
		tr := NewTracker()
		id := addSuggestion(t, tr, StatusTesting)
		_ = tr.AddImplementationResult(context.Background(), &ImplementationResult{SuggestionID: id, Success: true})
		_ = tr.AddImplementationResult(context.Background(), &ImplementationResult{SuggestionID: id, Success: false})
		mustStatus(t, tr, id, StatusReverted)
	})

	t.Run("success from identified does not implement", func(t *testing.T) {
		tr := NewTracker()
		id := addSuggestion(t, tr, StatusIdentified)
		_ = tr.AddImplementationResult(context.Background(), &ImplementationResult{SuggestionID: id, Success: true})
		mustStatus(t, tr, id, StatusIdentified)
	})
}

func TestTracker_AddFeedbackPattern(t *testing.T) {
	tests := []struct {
		name         string
		confidence   float64
		wantCreated  bool
		wantPriority Priority
	}{
		{"below gate", 0.4, false, ""},
		{"medium", 0.6, true, PriorityMedium},
		{"high", 0.85, true, PriorityHigh},
		{"critical", 0.95, true, PriorityCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			id, err := tr.AddFeedbackPattern(context.Background(), &FeedbackPattern{
				ID:         "pat_1",
				Type:       CategoryRelevance,
				Confidence: tt.confidence,
			})
			if err != nil {
				t.Fatalf("AddFeedbackPattern() error = %v", err)
			}
			if tt.wantCreated && id == "" {
				t.Fatal("expected a suggestion, got none")
			}
			if !tt.wantCreated {
				if id != "" {
					t.Fatalf("unexpected suggestion %s below the confidence gate", id)
				}
				return
			}
			s, _ := tr.Suggestion(id)
			if s.Priority != tt.wantPriority {
				t.Errorf("priority = %s, want %s", s.Priority, tt.wantPriority)
			}
			if s.Status != StatusIdentified {
				t.Errorf("status = %s, want %s", s.Status, StatusIdentified)
			}
		})
	}
}

func TestTracker_AnalyzeFeedbackData(t *testing.T) {
	tr := NewTracker()

	// 100 impressions with a single click, all recommendations in one category
	var events []feedback.Event
	for i := 0; i < 100; i++ {
		events = append(events, feedback.Event{UserID: "u1", ItemID: "p1", Type: feedback.TypeImpression})
	}
	events = append(events, feedback.Event{UserID: "u1", ItemID: "p1", Type: feedback.TypeClick})

	recs := make([]*core.Item, 0, 3)
	for _, id := range []string{"p1", "p2", "p3"} {
		it := core.NewItem(id)
		it.Meta["category"] = "electronics"
		recs = append(recs, it)
	}

	patterns := tr.AnalyzeFeedbackData(context.Background(), events, recs)
	types := make(map[Category]bool)
	for _, p := range patterns {
		types[p.Type] = true
	}
	if !types[CategoryRelevance] {
		t.Error("low relevance pattern not detected (ctr 0.01)")
	}
	if !types[CategoryDiversity] {
		t.Error("low diversity pattern not detected (single category)")
	}
	if len(tr.Patterns()) != len(patterns) {
		t.Errorf("tracker recorded %d patterns, want %d", len(tr.Patterns()), len(patterns))
	}
	if len(tr.Suggestions()) != len(patterns) {
		t.Errorf("tracker created %d suggestions, want %d", len(tr.Suggestions()), len(patterns))
	}
}

func TestDetectors(t *testing.T) {
	t.Run("healthy metrics detect nothing", func(t *testing.T) {
		var events []feedback.Event
		for i := 0; i < 10; i++ {
			events = append(events, feedback.Event{ItemID: "p1", Type: feedback.TypeImpression})
		}
		events = append(events,
			feedback.Event{ItemID: "p1", Type: feedback.TypeClick},
			feedback.Event{ItemID: "p1", Type: feedback.TypePurchase},
			feedback.Event{ItemID: "p2", Type: feedback.TypeClick},
		)
		recs := []*core.Item{}
		for i, cat := range []string{"a", "b", "c"} {
			it := core.NewItem([]string{"p1", "p2", "p3"}[i])
			it.Meta["category"] = cat
			recs = append(recs, it)
		}

		if p := (LowRelevanceDetector{}).Detect(events, recs); p != nil {
			t.Errorf("LowRelevanceDetector fired on healthy data: %+v", p)
		}
		if p := (LowDiversityDetector{}).Detect(events, recs); p != nil {
			t.Errorf("LowDiversityDetector fired on balanced categories: %+v", p)
		}
		if p := (PoorCoverageDetector{}).Detect(events, recs); p != nil {
			t.Errorf("PoorCoverageDetector fired with engaged items: %+v", p)
		}
	})

	t.Run("no impressions yields no relevance pattern", func(t *testing.T) {
		if p := (LowRelevanceDetector{}).Detect(nil, nil); p != nil {
			t.Errorf("detector fired without impressions: %+v", p)
		}
	})

	t.Run("catalog coverage check", func(t *testing.T) {
		recs := []*core.Item{core.NewItem("p1")}
		events := []feedback.Event{{ItemID: "p1", Type: feedback.TypeClick}}
		// 1 of 100 catalog items recommended
		p := PoorCoverageDetector{CatalogSize: 100}.Detect(events, recs)
		if p == nil {
			t.Fatal("expected poor coverage pattern")
		}
		if p.Type != CategoryCoverage {
			t.Errorf("pattern type = %s, want %s", p.Type, CategoryCoverage)
		}
		// zero catalog size skips the coverage ratio
		if p := (PoorCoverageDetector{}).Detect(events, recs); p != nil {
			t.Errorf("detector fired with unknown catalog size and engaged items: %+v", p)
		}
	})
}

func TestTracker_ConcurrentUpdatesPersistConsistently(t *testing.T) {
	// Updates and persistence run concurrently; the stored payload must
	// always reflect a single update, never a torn mix of two writers.
	tr := NewTracker()
	tr.Store = store.NewMemoryStore()
	id := addSuggestion(t, tr, StatusIdentified)

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			title := fmt.Sprintf("tune diversity factor v%d", n)
			desc := fmt.Sprintf("iteration %d", n)
			if err := tr.UpdateSuggestion(context.Background(), id, SuggestionUpdate{
				Title:       &title,
				Description: &desc,
			}); err != nil {
				t.Errorf("UpdateSuggestion() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	data, err := tr.Store.Get(context.Background(), "improve:suggestion:"+id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("persisted payload is not valid JSON: %v", err)
	}
	title, _ := got["title"].(string)
	desc, _ := got["description"].(string)
	matched := false
	for i := 0; i < writers; i++ {
		if title == fmt.Sprintf("tune diversity factor v%d", i) &&
			desc == fmt.Sprintf("iteration %d", i) {
			matched = true
			break
		}
	}
	if !matched {
		t.Errorf("persisted title/description = %q / %q, not from a single update", title, desc)
	}
}
