package improve

import (
	"fmt"
	"time"

	"github.com/rushteam/recfusion/core"
	"github.com/rushteam/recfusion/feedback"
)

// FeedbackPattern 一次批量分析中检测到的质量问题模式。
// 置信度是各检测器的固定常量，不随数据量变化。
type FeedbackPattern struct {
	ID          string
	Type        Category
	Description string
	Confidence  float64

	// Frequency 模式涉及的事件/物品数
	Frequency int

	// Examples 样例 item ID
	Examples []string

	// Metrics 检测时的关键指标快照
	Metrics map[string]float64

	DetectedAt time.Time
}

// ToMap 转成 JSON 可序列化结构。
func (p *FeedbackPattern) ToMap() map[string]any {
	return map[string]any{
		"id":          p.ID,
		"type":        string(p.Type),
		"description": p.Description,
		"confidence":  p.Confidence,
		"frequency":   p.Frequency,
		"examples":    p.Examples,
		"metrics":     p.Metrics,
		"detected_at": p.DetectedAt.Format(time.RFC3339),
	}
}

// 各检测器的固定置信度与阈值
const (
	lowRelevanceConfidence = 0.8
	lowDiversityConfidence = 0.7
	poorCoverageConfidence = 0.6

	minCTR              = 0.05 // 点击率下限
	minConversionRate   = 0.02 // 点击到购买转化率下限
	maxCategoryShare    = 0.4  // 单一类别在推荐中的占比上限
	minCatalogCoverage  = 0.1  // 被推荐物品占全目录比例下限
	minEngagedItemShare = 0.2  // 有互动的被推荐物品比例下限
)

// Detector 在一批反馈事件与推荐结果上检测单一类型的质量问题。
// 未检出时返回 nil。
type Detector interface {
	Name() string
	Detect(events []feedback.Event, recommendations []*core.Item) *FeedbackPattern
}

// LowRelevanceDetector 点击率或转化率过低。
type LowRelevanceDetector struct{}

func (LowRelevanceDetector) Name() string { return "low_relevance" }

func (LowRelevanceDetector) Detect(events []feedback.Event, _ []*core.Item) *FeedbackPattern {
	var impressions, clicks, purchases int
	for _, ev := range events {
		switch ev.Type {
		case feedback.TypeImpression:
			impressions++
		case feedback.TypeClick:
			clicks++
		case feedback.TypePurchase:
			purchases++
		}
	}
	if impressions == 0 {
		return nil
	}
	ctr := float64(clicks) / float64(impressions)
	conversion := 0.0
	if clicks > 0 {
		conversion = float64(purchases) / float64(clicks)
	}
	if ctr >= minCTR && (clicks == 0 || conversion >= minConversionRate) {
		return nil
	}
	return &FeedbackPattern{
		ID:   fmt.Sprintf("low_relevance_%d", time.Now().UnixNano()),
		Type: CategoryRelevance,
		Description: fmt.Sprintf(
			"recommendation engagement below thresholds: ctr=%.3f conversion=%.3f", ctr, conversion),
		Confidence: lowRelevanceConfidence,
		Frequency:  impressions,
		Metrics: map[string]float64{
			"ctr":         ctr,
			"conversion":  conversion,
			"impressions": float64(impressions),
		},
		DetectedAt: time.Now(),
	}
}

// LowDiversityDetector 推荐结果被单一类别主导。
type LowDiversityDetector struct{}

func (LowDiversityDetector) Name() string { return "low_diversity" }

func (LowDiversityDetector) Detect(_ []feedback.Event, recommendations []*core.Item) *FeedbackPattern {
	if len(recommendations) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, it := range recommendations {
		counts[it.Category()]++
	}
	topCat, topCount := "", 0
	for cat, n := range counts {
		if n > topCount || (n == topCount && cat < topCat) {
			topCat, topCount = cat, n
		}
	}
	share := float64(topCount) / float64(len(recommendations))
	if share <= maxCategoryShare {
		return nil
	}
	var examples []string
	for _, it := range recommendations {
		if it.Category() == topCat && len(examples) < 5 {
			examples = append(examples, it.ID)
		}
	}
	return &FeedbackPattern{
		ID:   fmt.Sprintf("low_diversity_%d", time.Now().UnixNano()),
		Type: CategoryDiversity,
		Description: fmt.Sprintf(
			"category %q dominates %.0f%% of recommendations", topCat, share*100),
		Confidence: lowDiversityConfidence,
		Frequency:  topCount,
		Examples:   examples,
		Metrics: map[string]float64{
			"top_category_share":  share,
			"distinct_categories": float64(len(counts)),
		},
		DetectedAt: time.Now(),
	}
}

// PoorCoverageDetector 推荐覆盖的目录比例过低，或被推荐物品少有互动。
// CatalogSize 为 0 时跳过目录覆盖检查，只看互动多样性。
type PoorCoverageDetector struct {
	CatalogSize int
}

func (PoorCoverageDetector) Name() string { return "poor_coverage" }

func (d PoorCoverageDetector) Detect(events []feedback.Event, recommendations []*core.Item) *FeedbackPattern {
	if len(recommendations) == 0 {
		return nil
	}
	recommended := make(map[string]bool)
	for _, it := range recommendations {
		recommended[it.ID] = true
	}
	engaged := make(map[string]bool)
	for _, ev := range events {
		if ev.Type == feedback.TypeImpression {
			continue
		}
		if recommended[ev.ItemID] {
			engaged[ev.ItemID] = true
		}
	}

	coverage := 1.0
	if d.CatalogSize > 0 {
		coverage = float64(len(recommended)) / float64(d.CatalogSize)
	}
	engagedShare := float64(len(engaged)) / float64(len(recommended))
	if coverage >= minCatalogCoverage && engagedShare >= minEngagedItemShare {
		return nil
	}
	return &FeedbackPattern{
		ID:   fmt.Sprintf("poor_coverage_%d", time.Now().UnixNano()),
		Type: CategoryCoverage,
		Description: fmt.Sprintf(
			"catalog coverage %.3f, engaged item share %.3f", coverage, engagedShare),
		Confidence: poorCoverageConfidence,
		Frequency:  len(recommended),
		Metrics: map[string]float64{
			"catalog_coverage":   coverage,
			"engaged_item_share": engagedShare,
		},
		DetectedAt: time.Now(),
	}
}
