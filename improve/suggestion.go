// Package improve 实现持续改进系统：从反馈事件中检测质量问题模式，
// 生成带优先级的改进建议，并用状态机跟踪建议的落地过程。
package improve

import "time"

// Status 建议状态。状态机：
//
//	identified → proposed → planned → in_progress → testing
//	testing → implemented | rejected
//	implemented → reverted
//
// 此外每个非终态都可直接 rejected。reverted 只能从 implemented 到达。
type Status string

const (
	StatusIdentified  Status = "identified"
	StatusProposed    Status = "proposed"
	StatusPlanned     Status = "planned"
	StatusInProgress  Status = "in_progress"
	StatusTesting     Status = "testing"
	StatusImplemented Status = "implemented"
	StatusReverted    Status = "reverted"
	StatusRejected    Status = "rejected"
)

// statusTransitions 各状态允许的下一状态。
var statusTransitions = map[Status][]Status{
	StatusIdentified:  {StatusProposed, StatusRejected},
	StatusProposed:    {StatusPlanned, StatusRejected},
	StatusPlanned:     {StatusInProgress, StatusRejected},
	StatusInProgress:  {StatusTesting, StatusRejected},
	StatusTesting:     {StatusImplemented, StatusRejected},
	StatusImplemented: {StatusReverted},
	StatusReverted:    {},
	StatusRejected:    {},
}

// Valid 判断是否为合法状态值。
func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransition 判断能否从当前状态迁移到 next。
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Priority 建议优先级。
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Category 建议所属的质量维度。
type Category string

const (
	CategoryRelevance   Category = "relevance"
	CategoryDiversity   Category = "diversity"
	CategoryCoverage    Category = "coverage"
	CategoryPerformance Category = "performance"
	CategoryDataQuality Category = "data_quality"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryRelevance, CategoryDiversity, CategoryCoverage,
		CategoryPerformance, CategoryDataQuality:
		return true
	}
	return false
}

// ImprovementSuggestion 一条改进建议。
type ImprovementSuggestion struct {
	ID          string
	Title       string
	Description string
	Category    Category
	Priority    Priority
	Status      Status

	// MetricImpacts 预估的指标影响，如 {"ctr": +0.02}
	MetricImpacts map[string]float64

	// Evidence 支撑证据（事件摘要、样例 item 等）
	Evidence []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ToMap 转成 JSON 可序列化的扁平结构，供外部存储/通知服务消费。
func (s *ImprovementSuggestion) ToMap() map[string]any {
	return map[string]any{
		"id":             s.ID,
		"title":          s.Title,
		"description":    s.Description,
		"category":       string(s.Category),
		"priority":       string(s.Priority),
		"status":         string(s.Status),
		"metric_impacts": s.MetricImpacts,
		"evidence":       s.Evidence,
		"created_at":     s.CreatedAt.Format(time.RFC3339),
		"updated_at":     s.UpdatedAt.Format(time.RFC3339),
	}
}

// SuggestionUpdate 建议的部分更新。nil 字段表示不修改。
type SuggestionUpdate struct {
	Title       *string
	Description *string
	Category    *Category
	Priority    *Priority
	Status      *Status
}

// ImplementationResult 建议落地结果。
type ImplementationResult struct {
	SuggestionID string
	Success      bool
	Notes        string

	// Metrics 实测指标变化
	Metrics map[string]float64
}
