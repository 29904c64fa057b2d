// Package contextual 实现上下文感知推荐：包装一个基础推荐器
// （通常是 hybrid.Recommender），按时间/地理/设备/天气/近期行为
// 等维度与 CEL 规则对候选做过滤或调权。
package contextual

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/rushteam/recfusion/core"
	"github.com/rushteam/recfusion/pkg/utils"
)

// Strategy 上下文应用策略。
type Strategy string

const (
	// StrategyPreFilter 基础推荐前，按规则从候选池剔除不匹配物品
	StrategyPreFilter Strategy = "pre_filter"
	// StrategyPostFilter 基础推荐超量生成后，按规则过滤结果
	StrategyPostFilter Strategy = "post_filter"
	// StrategyScoreAdjustment 按上下文相关性与规则做分数调整（默认）
	StrategyScoreAdjustment Strategy = "score_adjustment"
	// StrategyContextualModeling 当前等价于 score_adjustment
	StrategyContextualModeling Strategy = "contextual_modeling"
)

// BaseRecommender 是被包装的基础推荐器（hybrid.Recommender 满足该契约）。
type BaseRecommender interface {
	RecommendN(ctx context.Context, userID string, excludedIDs []string, topN int) []*core.Item
}

// Config 上下文推荐配置，零值字段回退到默认值。
type Config struct {
	// Strategy 默认 score_adjustment
	Strategy Strategy

	// BoostFactor 相关性加成系数，默认 0.3
	BoostFactor float64

	// MinFinalScore 调整后保留的最低分数，默认 0.1
	MinFinalScore float64

	// DimensionWeights 各相关性维度权重（key 见 Dim* 常量），缺省每维 1.0
	DimensionWeights map[string]float64

	// TopN 返回条数，默认 10
	TopN int
}

func (c Config) strategy() Strategy {
	switch c.Strategy {
	case StrategyPreFilter, StrategyPostFilter, StrategyScoreAdjustment:
		return c.Strategy
	case StrategyContextualModeling:
		return StrategyScoreAdjustment
	default:
		return StrategyScoreAdjustment
	}
}

func (c Config) boostFactor() float64 {
	if c.BoostFactor > 0 {
		return c.BoostFactor
	}
	return 0.3
}

func (c Config) minFinalScore() float64 {
	if c.MinFinalScore > 0 {
		return c.MinFinalScore
	}
	return 0.1
}

func (c Config) topN() int {
	if c.TopN > 0 {
		return c.TopN
	}
	return 10
}

func (c Config) dimWeight(dim string) float64 {
	if w, ok := c.DimensionWeights[dim]; ok && w > 0 {
		return w
	}
	return 1.0
}

// Recommender 上下文推荐器。
type Recommender struct {
	Config Config
	Base   BaseRecommender

	// Rules 上下文规则，由 NewRecommender 编译
	Rules []*Rule

	// Pool 候选池全集，pre_filter 策略需要；为空时 pre_filter
	// 退化为 post_filter 并记 warning
	Pool []*core.Item

	// Logger 可选；为 nil 时使用 slog.Default()
	Logger *slog.Logger
}

// NewRecommender 创建上下文推荐器并编译规则。
func NewRecommender(cfg Config, base BaseRecommender, rules []*Rule) (*Recommender, error) {
	if err := CompileRules(rules); err != nil {
		return nil, err
	}
	return &Recommender{Config: cfg, Base: base, Rules: rules}, nil
}

func (r *Recommender) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Recommend 生成上下文调整后的推荐。rctx 不携带任何上下文维度时
// 相关性为 0，规则照常按 When 条件判定。
//
// 失败语义同混合层：缺基础推荐器或基础层返回空时记 warning 并返回空。
func (r *Recommender) Recommend(ctx context.Context, rctx *core.RecommendContext, excludedIDs []string) []*core.Item {
	if r.Base == nil {
		r.logger().Warn("contextual: no base recommender configured")
		return nil
	}
	if rctx == nil {
		rctx = core.NewRecommendContext("")
	}

	topN := r.Config.topN()
	active := r.activeRules(rctx)

	switch r.Config.strategy() {
	case StrategyPreFilter:
		return r.preFilter(ctx, rctx, excludedIDs, active, topN)
	case StrategyPostFilter:
		return r.postFilter(ctx, rctx, excludedIDs, active, topN)
	default:
		return r.scoreAdjust(ctx, rctx, excludedIDs, active, topN)
	}
}

// activeRules 返回当前上下文生效的规则。
func (r *Recommender) activeRules(rctx *core.RecommendContext) []*Rule {
	var out []*Rule
	for _, rule := range r.Rules {
		if rule.active(rctx, r.logger()) {
			out = append(out, rule)
		}
	}
	return out
}

// preFilter 先按规则从候选池算出排除集，再让基础推荐器在剩余空间内生成。
func (r *Recommender) preFilter(ctx context.Context, rctx *core.RecommendContext, excludedIDs []string, active []*Rule, topN int) []*core.Item {
	if len(r.Pool) == 0 {
		r.logger().Warn("contextual: pre_filter without candidate pool, falling back to post_filter")
		return r.postFilter(ctx, rctx, excludedIDs, active, topN)
	}
	excluded := append([]string(nil), excludedIDs...)
	for _, it := range r.Pool {
		if !r.passesAll(it, rctx, active) {
			excluded = append(excluded, it.ID)
		}
	}
	out := r.Base.RecommendN(ctx, rctx.UserID, excluded, topN)
	if len(out) == 0 {
		r.logger().Warn("contextual: empty result after pre_filter", "user_id", rctx.UserID)
	}
	return out
}

// postFilter 超量生成 2 倍候选，规则过滤后按分数截断。
func (r *Recommender) postFilter(ctx context.Context, rctx *core.RecommendContext, excludedIDs []string, active []*Rule, topN int) []*core.Item {
	candidates := r.Base.RecommendN(ctx, rctx.UserID, excludedIDs, topN*2)
	var out []*core.Item
	for _, it := range candidates {
		if r.passesAll(it, rctx, active) {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		r.logger().Warn("contextual: empty result after post_filter", "user_id", rctx.UserID)
		return nil
	}
	sortByScore(out)
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// scoreAdjust 超量生成后按相关性加成与规则调整分数，
// 过滤低于 MinFinalScore 的候选。
func (r *Recommender) scoreAdjust(ctx context.Context, rctx *core.RecommendContext, excludedIDs []string, active []*Rule, topN int) []*core.Item {
	candidates := r.Base.RecommendN(ctx, rctx.UserID, excludedIDs, topN*2)
	if len(candidates) == 0 {
		r.logger().Warn("contextual: no base candidates", "user_id", rctx.UserID)
		return nil
	}

	boost := r.Config.boostFactor()
	minScore := r.Config.minFinalScore()

	var out []*core.Item
	for _, cand := range candidates {
		it := cand.Clone()
		rel := r.relevance(it, rctx)
		it.Score += rel * boost
		for _, rule := range active {
			if rule.matches(it, rctx, r.logger()) {
				it.Score += rule.ScoreAdjustment
			}
		}
		it.ClampScores()
		if it.Score < minScore {
			continue
		}
		it.PutLabel("context_relevance", utils.Label{
			Value:  fmt.Sprintf("%.3f", rel),
			Source: "contextual",
		})
		out = append(out, it)
	}
	if len(out) == 0 {
		r.logger().Warn("contextual: all candidates below min final score", "user_id", rctx.UserID)
		return nil
	}
	sortByScore(out)
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// passesAll 物品需通过所有生效规则的 ItemFilter。
func (r *Recommender) passesAll(item *core.Item, rctx *core.RecommendContext, active []*Rule) bool {
	for _, rule := range active {
		if rule.filterPrg == nil {
			continue
		}
		if !rule.matches(item, rctx, r.logger()) {
			return false
		}
	}
	return true
}

// relevance 各维度相关性的加权平均，缺失维度不计入分母。
func (r *Recommender) relevance(item *core.Item, rctx *core.RecommendContext) float64 {
	type dim struct {
		name  string
		score float64
		ok    bool
	}
	dims := []dim{}
	if s, ok := timeRelevance(item, rctx.Time); ok {
		dims = append(dims, dim{DimTime, s, ok})
	}
	if s, ok := locationRelevance(item, rctx.Location); ok {
		dims = append(dims, dim{DimLocation, s, ok})
	}
	if s, ok := deviceRelevance(item, rctx.Device); ok {
		dims = append(dims, dim{DimDevice, s, ok})
	}
	if s, ok := weatherRelevance(item, rctx.Weather); ok {
		dims = append(dims, dim{DimWeather, s, ok})
	}
	if s, ok := activityRelevance(item, rctx.Activity); ok {
		dims = append(dims, dim{DimActivity, s, ok})
	}
	if s, ok := interestRelevance(item, rctx.User); ok {
		dims = append(dims, dim{DimInterest, s, ok})
	}
	if len(dims) == 0 {
		return 0
	}
	var sum, weightSum float64
	for _, d := range dims {
		w := r.Config.dimWeight(d.name)
		sum += d.score * w
		weightSum += w
	}
	return sum / weightSum
}

func sortByScore(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
}
