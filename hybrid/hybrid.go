// Package hybrid 实现混合推荐：把协同过滤与内容过滤两路候选
// 按可配置策略（weighted / switching / cascade / mixed）融合成单一有序列表，
// 带冷启动自适应权重、多源置信度提升与多样性重排。
package hybrid

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/recfusion/content"
	"github.com/rushteam/recfusion/core"
	"github.com/rushteam/recfusion/feature"
	"github.com/rushteam/recfusion/pkg/utils"
	"github.com/rushteam/recfusion/recall"
)

// Config 是混合推荐的配置，零值字段在使用处回退到默认值。
type Config struct {
	// Strategy 融合策略，默认 weighted
	Strategy StrategyKind

	// CFWeight / CBWeight 两路候选的默认权重，默认 0.7 / 0.3
	CFWeight float64
	CBWeight float64

	// ColdStartThreshold 冷启动阈值：交互数低于该值的用户
	// 协同权重按 interaction_count / threshold 线性缩放，默认 5
	ColdStartThreshold int

	// AdaptiveWeighting 双源物品按置信度高的一方 2 倍加权
	AdaptiveWeighting bool

	// DiversityFactor 多样性强度，> 0 时启用融合后的多样性重排
	DiversityFactor float64

	// TopN 返回条数，默认 10
	TopN int
}

func (c Config) weights() (float64, float64) {
	if c.CFWeight > 0 || c.CBWeight > 0 {
		return c.CFWeight, c.CBWeight
	}
	return 0.7, 0.3
}

func (c Config) coldStartThreshold() int {
	if c.ColdStartThreshold > 0 {
		return c.ColdStartThreshold
	}
	return 5
}

func (c Config) topN() int {
	if c.TopN > 0 {
		return c.TopN
	}
	return 10
}

// Recommender 是混合推荐器。Fit 一次构建，之后并发只读；
// 并发 Fit 与 Recommend 需要调用方做 rebuild-then-swap。
type Recommender struct {
	Config Config

	// CF 协同过滤模型（契约见 recall.CollaborativeModel）
	CF recall.CollaborativeModel

	// CB 内容过滤模型
	CB *content.Filter

	// Logger 可选；为 nil 时使用 slog.Default()
	Logger *slog.Logger

	// Profiles 可选用户画像表。画像存在时冷启动判定使用画像的
	// 累计交互数（画像服务回写的跨会话口径），否则回退到
	// Fit 留存的交互矩阵。
	Profiles map[string]*core.UserProfile

	interactions map[string]map[string]float64
}

// NewRecommender 创建混合推荐器；cf / cb 为 nil 时使用默认实现。
func NewRecommender(cfg Config, cf recall.CollaborativeModel, cb *content.Filter) *Recommender {
	if cf == nil {
		cf = &recall.ItemBasedCF{}
	}
	if cb == nil {
		cb = content.NewFilter(content.Config{})
	}
	return &Recommender{Config: cfg, CF: cf, CB: cb}
}

func (r *Recommender) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Fit 训练两路模型并留存交互计数（冷启动判定用）。
func (r *Recommender) Fit(interactions map[string]map[string]float64, items []feature.RawItem, exCfg feature.ExtractorConfig) error {
	if err := r.CF.Fit(interactions); err != nil {
		return err
	}
	if err := r.CB.Fit(items, exCfg, interactions); err != nil {
		return err
	}
	r.interactions = interactions
	return nil
}

// InteractionCount 返回用户累计交互数，优先取画像口径。
func (r *Recommender) InteractionCount(userID string) int {
	if p, ok := r.Profiles[userID]; ok && p != nil {
		return p.InteractionCount
	}
	return len(r.interactions[userID])
}

// EffectiveWeights 返回按冷启动缩放后的生效权重。
// 交互数从 0 涨到阈值的过程中，协同权重单调升向配置默认值。
func (r *Recommender) EffectiveWeights(userID string) (cfW, cbW float64) {
	cfW, cbW = r.Config.weights()
	threshold := r.Config.coldStartThreshold()
	count := r.InteractionCount(userID)
	if count >= threshold {
		return cfW, cbW
	}
	scale := float64(count) / float64(threshold)
	cfW = cfW * scale
	cbW = 1 - cfW
	return cfW, cbW
}

// Recommend 为用户生成融合推荐。
//
// 失败语义（fail-soft）：
//   - 单路失败/为空：记 warning，仅用另一路
//   - 两路都失败或都为空：记 warning，返回空列表
//
// 返回列表严格按分数降序（多样性重排之后同样成立）。
func (r *Recommender) Recommend(ctx context.Context, userID string, excludedIDs []string) []*core.Item {
	return r.RecommendN(ctx, userID, excludedIDs, 0)
}

// RecommendN 与 Recommend 相同，但用 topN 覆盖配置条数（<=0 时用配置值）。
// 上层（如上下文推荐器）借此实现超量生成再过滤。
func (r *Recommender) RecommendN(ctx context.Context, userID string, excludedIDs []string, topN int) []*core.Item {
	if topN <= 0 {
		topN = r.Config.topN()
	}
	var (
		cfItems, cbItems []*core.Item
		cfErr            error
	)

	// 两路候选并发生成；goroutine 内不返回 error，失败降级由本层统一处理
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		cfItems, cfErr = r.CF.Recommend(egCtx, userID, excludedIDs)
		return nil
	})
	eg.Go(func() error {
		cbItems = r.CB.RecommendForUser(egCtx, userID, excludedIDs)
		return nil
	})
	_ = eg.Wait()

	if cfErr != nil {
		r.logger().Warn("hybrid: collaborative source failed, degrading to content",
			"user_id", userID, "err", cfErr)
		cfItems = nil
	}
	if len(cfItems) == 0 && len(cbItems) == 0 {
		r.logger().Warn("hybrid: no candidates from any source", "user_id", userID)
		return nil
	}

	cfW, cbW := r.EffectiveWeights(userID)
	sctx := CombineContext{
		CFWeight:          cfW,
		CBWeight:          cbW,
		AdaptiveWeighting: r.Config.AdaptiveWeighting,
		InteractionCount:  r.InteractionCount(userID),
		ColdStart:         r.InteractionCount(userID) < r.Config.coldStartThreshold(),
		TopN:              topN,
		ItemSimilarity:    r.itemSimilarity,
	}

	strategy := strategyFor(r.Config.Strategy)
	out := strategy.Combine(cfItems, cbItems, sctx)

	if r.Config.DiversityFactor > 0 {
		reranker := &DiversityReranker{Factor: r.Config.DiversityFactor}
		out = reranker.Rerank(out, sctx.TopN)
	}

	for _, it := range out {
		it.ClampScores()
		it.PutLabel("strategy", utils.Label{Value: string(strategy.Name()), Source: "hybrid"})
	}
	return out
}

// itemSimilarity 用内容模型的特征空间算两个物品的加权余弦（cascade 用）。
func (r *Recommender) itemSimilarity(a, b string) float64 {
	ex := r.CB.Extractor()
	if ex == nil {
		return 0
	}
	va, vb := ex.Vectors(a), ex.Vectors(b)
	if va == nil || vb == nil {
		return 0
	}
	// 四类平权的快速近似，cascade 只需要相对量级
	var sum float64
	var n int
	for _, pair := range [][2][]float64{
		{va.Text, vb.Text},
		{va.Categorical, vb.Categorical},
		{va.Numerical, vb.Numerical},
		{va.Tags, vb.Tags},
	} {
		if len(pair[0]) == 0 || len(pair[1]) == 0 {
			continue
		}
		sum += feature.Cosine(pair[0], pair[1])
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
