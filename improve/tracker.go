package improve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/recfusion/core"
	"github.com/rushteam/recfusion/feedback"
)

// 从反馈模式生成建议的置信度门槛与优先级升档阈值
const (
	minPatternConfidence = 0.5
	highConfidence       = 0.8
	criticalConfidence   = 0.9
)

// Tracker 改进建议跟踪器：登记建议、执行状态机迁移、
// 把检测到的反馈模式转成建议。所有方法可并发调用。
type Tracker struct {
	// Store 可选持久化后端，写失败只记 warning
	Store core.Store

	// KeyPrefix 持久化键前缀，默认 "improve"
	KeyPrefix string

	// Detectors 反馈分析用的检测器集合，
	// 为空时使用三个内置检测器
	Detectors []Detector

	// Logger 可选；为 nil 时使用 slog.Default()
	Logger *slog.Logger

	mu          sync.RWMutex
	suggestions map[string]*ImprovementSuggestion
	patterns    []*FeedbackPattern
	results     []*ImplementationResult
	seq         int
}

func NewTracker() *Tracker {
	return &Tracker{suggestions: make(map[string]*ImprovementSuggestion)}
}

func (t *Tracker) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}

func (t *Tracker) keyPrefix() string {
	if t.KeyPrefix != "" {
		return t.KeyPrefix
	}
	return "improve"
}

func (t *Tracker) detectors() []Detector {
	if len(t.Detectors) > 0 {
		return t.Detectors
	}
	return []Detector{
		LowRelevanceDetector{},
		LowDiversityDetector{},
		PoorCoverageDetector{},
	}
}

// AddSuggestion 登记一条建议并返回其 ID。
// ID 为空时自动生成；状态为空时置为 identified；
// 枚举字段非法时拒绝并返回 INVALID_INPUT。
func (t *Tracker) AddSuggestion(ctx context.Context, s *ImprovementSuggestion) (string, error) {
	if s.Status == "" {
		s.Status = StatusIdentified
	}
	if s.Priority == "" {
		s.Priority = PriorityMedium
	}
	if !s.Status.Valid() || !s.Priority.Valid() || !s.Category.Valid() {
		return "", core.NewDomainError(core.ModuleImprove, core.ErrorCodeInvalidInput,
			fmt.Sprintf("invalid enum in suggestion: status=%q priority=%q category=%q",
				s.Status, s.Priority, s.Category))
	}

	t.mu.Lock()
	if s.ID == "" {
		t.seq++
		s.ID = fmt.Sprintf("sug_%d_%d", time.Now().Unix(), t.seq)
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if t.suggestions == nil {
		t.suggestions = make(map[string]*ImprovementSuggestion)
	}
	t.suggestions[s.ID] = s
	id := s.ID
	payload := t.marshalSuggestionLocked(s)
	t.mu.Unlock()

	t.persistSuggestion(ctx, id, payload)
	return id, nil
}

// UpdateSuggestion 部分更新一条建议。
//
// 状态迁移非法时该字段保持不变并记 warning，其余字段照常更新，
// 调用整体仍算成功。建议不存在时返回 NOT_FOUND。
func (t *Tracker) UpdateSuggestion(ctx context.Context, id string, upd SuggestionUpdate) error {
	t.mu.Lock()
	s, ok := t.suggestions[id]
	if !ok {
		t.mu.Unlock()
		return core.NewDomainError(core.ModuleImprove, core.ErrorCodeNotFound,
			"suggestion not found: "+id)
	}
	if upd.Title != nil {
		s.Title = *upd.Title
	}
	if upd.Description != nil {
		s.Description = *upd.Description
	}
	if upd.Category != nil {
		if upd.Category.Valid() {
			s.Category = *upd.Category
		} else {
			t.logger().Warn("improve: invalid category ignored", "id", id, "category", *upd.Category)
		}
	}
	if upd.Priority != nil {
		if upd.Priority.Valid() {
			s.Priority = *upd.Priority
		} else {
			t.logger().Warn("improve: invalid priority ignored", "id", id, "priority", *upd.Priority)
		}
	}
	if upd.Status != nil {
		switch {
		case !upd.Status.Valid():
			t.logger().Warn("improve: invalid status ignored", "id", id, "status", *upd.Status)
		case !s.Status.CanTransition(*upd.Status):
			t.logger().Warn("improve: invalid status transition ignored",
				"id", id, "from", s.Status, "to", *upd.Status)
		default:
			s.Status = *upd.Status
		}
	}
	s.UpdatedAt = time.Now()
	payload := t.marshalSuggestionLocked(s)
	t.mu.Unlock()

	t.persistSuggestion(ctx, id, payload)
	return nil
}

// AddImplementationResult 记录落地结果并驱动状态迁移：
// 成功时从 testing 迁到 implemented；失败时若建议已是
// implemented 则迁到 reverted。其余状态下只登记结果并记 warning。
func (t *Tracker) AddImplementationResult(ctx context.Context, res *ImplementationResult) error {
	t.mu.Lock()
	s, ok := t.suggestions[res.SuggestionID]
	if !ok {
		t.mu.Unlock()
		return core.NewDomainError(core.ModuleImprove, core.ErrorCodeNotFound,
			"suggestion not found: "+res.SuggestionID)
	}
	t.results = append(t.results, res)

	switch {
	case res.Success && s.Status.CanTransition(StatusImplemented):
		s.Status = StatusImplemented
		for k, v := range res.Metrics {
			if s.MetricImpacts == nil {
				s.MetricImpacts = make(map[string]float64)
			}
			s.MetricImpacts[k] = v
		}
	case !res.Success && s.Status == StatusImplemented:
		s.Status = StatusReverted
	default:
		t.logger().Warn("improve: implementation result does not trigger transition",
			"id", s.ID, "status", s.Status, "success", res.Success)
	}
	s.UpdatedAt = time.Now()
	id := s.ID
	payload := t.marshalSuggestionLocked(s)
	t.mu.Unlock()

	t.persistSuggestion(ctx, id, payload)
	return nil
}

// AddFeedbackPattern 登记一个反馈模式；置信度达到门槛时生成建议。
// 返回生成的建议 ID（未生成时为空串）。
func (t *Tracker) AddFeedbackPattern(ctx context.Context, p *FeedbackPattern) (string, error) {
	t.mu.Lock()
	t.patterns = append(t.patterns, p)
	t.mu.Unlock()
	t.persistPattern(ctx, p)

	if p.Confidence < minPatternConfidence {
		return "", nil
	}

	priority := PriorityMedium
	if p.Confidence > criticalConfidence {
		priority = PriorityCritical
	} else if p.Confidence > highConfidence {
		priority = PriorityHigh
	}

	return t.AddSuggestion(ctx, &ImprovementSuggestion{
		Title:         "detected pattern: " + string(p.Type),
		Description:   p.Description,
		Category:      p.Type,
		Priority:      priority,
		Status:        StatusIdentified,
		Evidence:      p.Examples,
		MetricImpacts: p.Metrics,
	})
}

// AnalyzeFeedbackData 跑全部检测器，把检出的模式通过
// AddFeedbackPattern 转成建议，返回检出的模式列表。
func (t *Tracker) AnalyzeFeedbackData(ctx context.Context, events []feedback.Event, recommendations []*core.Item) []*FeedbackPattern {
	var out []*FeedbackPattern
	for _, d := range t.detectors() {
		p := d.Detect(events, recommendations)
		if p == nil {
			continue
		}
		if _, err := t.AddFeedbackPattern(ctx, p); err != nil {
			t.logger().Warn("improve: add pattern failed", "detector", d.Name(), "err", err)
			continue
		}
		out = append(out, p)
	}
	return out
}

// Suggestion 按 ID 查询建议。
func (t *Tracker) Suggestion(id string) (*ImprovementSuggestion, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.suggestions[id]
	return s, ok
}

// Suggestions 返回全部建议，按创建时间升序（同刻按 ID）。
func (t *Tracker) Suggestions() []*ImprovementSuggestion {
	t.mu.RLock()
	out := make([]*ImprovementSuggestion, 0, len(t.suggestions))
	for _, s := range t.suggestions {
		out = append(out, s)
	}
	t.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Patterns 返回已登记的全部反馈模式。
func (t *Tracker) Patterns() []*FeedbackPattern {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*FeedbackPattern, len(t.patterns))
	copy(out, t.patterns)
	return out
}

// marshalSuggestionLocked 在持锁状态下生成持久化载荷。
// 建议结构体会被并发更新，快照必须在锁内完成，锁外只做 Store 写入。
func (t *Tracker) marshalSuggestionLocked(s *ImprovementSuggestion) []byte {
	if t.Store == nil {
		return nil
	}
	data, err := json.Marshal(s.ToMap())
	if err != nil {
		t.logger().Warn("improve: marshal suggestion failed", "id", s.ID, "err", err)
		return nil
	}
	return data
}

func (t *Tracker) persistSuggestion(ctx context.Context, id string, payload []byte) {
	if payload == nil {
		return
	}
	key := t.keyPrefix() + ":suggestion:" + id
	if err := t.Store.Set(ctx, key, payload); err != nil {
		t.logger().Warn("improve: persist suggestion failed", "key", key, "err", err)
	}
}

func (t *Tracker) persistPattern(ctx context.Context, p *FeedbackPattern) {
	if t.Store == nil {
		return
	}
	data, err := json.Marshal(p.ToMap())
	if err != nil {
		t.logger().Warn("improve: marshal pattern failed", "id", p.ID, "err", err)
		return
	}
	key := t.keyPrefix() + ":pattern:" + p.ID
	if err := t.Store.Set(ctx, key, data); err != nil {
		t.logger().Warn("improve: persist pattern failed", "key", key, "err", err)
	}
}
