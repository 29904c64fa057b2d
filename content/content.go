// Package content 实现基于内容的过滤（Content-Based Filtering）。
//
// 核心思想："用户喜欢具有某些特征的物品，推荐具有相似特征的其他物品"
//
// 算法流程：
//  1. Fit：对物品集做特征抽取（文本 TF-IDF / 类别 one-hot / 数值归一化 / 标签二值）
//  2. 对有交互的用户构建加权平均画像
//  3. 推荐时按特征类型分别算余弦相似度，加权融合为一个分数
//
// 分数融合：每个"双方都有信号"的特征类型贡献 similarity_i × weight_i，
// 最终分 = Σ贡献 / Σ参与类型的权重。缺失某类特征的物品不会因此被惩罚，
// 只在它具备的类型上取加权平均。
package content

import (
	"context"
	"log/slog"
	"sort"
	"strconv"

	"github.com/rushteam/recfusion/core"
	"github.com/rushteam/recfusion/feature"
	"github.com/rushteam/recfusion/pkg/utils"
)

const (
	kindText        = "text"
	kindCategorical = "categorical"
	kindNumerical   = "numerical"
	kindTags        = "tags"

	// SourceName 写入 item "source" 标签的算法来源名
	SourceName = "content_based"
)

// Config 是内容过滤的配置，零值字段在使用处回退到默认值。
type Config struct {
	// FeatureWeights 各特征类型的融合权重
	// 默认 text=1.0 categorical=1.0 numerical=0.5 tags=2.0
	FeatureWeights map[string]float64

	// MinSimilarity 相似度阈值，低于该值的候选在排序前被过滤，默认 0.1
	MinSimilarity float64

	// MinInteractions 构建用户画像所需的最少交互条数，默认 1
	MinInteractions int

	// TopN 返回的推荐条数，默认 10
	TopN int
}

func (c Config) featureWeights() map[string]float64 {
	if len(c.FeatureWeights) > 0 {
		return c.FeatureWeights
	}
	return map[string]float64{
		kindText:        1.0,
		kindCategorical: 1.0,
		kindNumerical:   0.5,
		kindTags:        2.0,
	}
}

func (c Config) minSimilarity() float64 {
	if c.MinSimilarity > 0 {
		return c.MinSimilarity
	}
	return 0.1
}

func (c Config) minInteractions() int {
	if c.MinInteractions > 0 {
		return c.MinInteractions
	}
	return 1
}

func (c Config) topN() int {
	if c.TopN > 0 {
		return c.TopN
	}
	return 10
}

// Filter 是内容过滤模型。Fit 一次构建，之后并发只读；
// 并发 Fit 与 Recommend 需要调用方做 rebuild-then-swap。
type Filter struct {
	Config Config

	// Logger 可选；为 nil 时使用 slog.Default()
	Logger *slog.Logger

	extractor    *feature.Extractor
	profiles     map[string]*Profile
	interactions map[string]map[string]float64
}

// NewFilter 创建内容过滤模型。
func NewFilter(cfg Config) *Filter {
	return &Filter{Config: cfg}
}

func (f *Filter) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

// Extractor 返回已 fit 的特征抽取器（供混合层/上下文层复用）。
func (f *Filter) Extractor() *feature.Extractor { return f.extractor }

// Fit 构建特征矩阵；interactions 非空时同时构建用户画像。
// interactions 形如 userID -> {itemID: 强度}。
func (f *Filter) Fit(items []feature.RawItem, cfg feature.ExtractorConfig, interactions map[string]map[string]float64) error {
	ex := feature.NewExtractor(cfg)
	if err := ex.Fit(items); err != nil {
		return err
	}

	profiles := make(map[string]*Profile)
	minInter := f.Config.minInteractions()
	for userID, userItems := range interactions {
		if len(userItems) < minInter {
			continue
		}
		if p := buildProfile(userID, userItems, ex); p != nil {
			profiles[userID] = p
		}
	}

	f.extractor = ex
	f.profiles = profiles
	f.interactions = interactions
	return nil
}

// Fitted 返回是否已完成 Fit。
func (f *Filter) Fitted() bool { return f.extractor != nil }

// Profile 返回用户画像；不存在返回 nil。
func (f *Filter) Profile(userID string) *Profile {
	return f.profiles[userID]
}

// RecommendForUser 返回与用户画像加权余弦相似的 TopN 物品。
// 没有画像（用户未知或交互不足）时记 warning 并返回空列表，不报错。
// 用户已交互过的物品与 excludedIDs 均不出现在结果里。
func (f *Filter) RecommendForUser(ctx context.Context, userID string, excludedIDs []string) []*core.Item {
	if f.extractor == nil {
		f.logger().Warn("content: recommend called before fit")
		return nil
	}
	profile := f.profiles[userID]
	if profile == nil {
		f.logger().Warn("content: no profile for user", "user_id", userID)
		return nil
	}

	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}
	for itemID := range f.interactions[userID] {
		excluded[itemID] = true
	}

	query := func(kind string) []float64 { return profile.vectorOf(kind) }
	items := f.rankBySimilarity(query, excluded)
	for _, it := range items {
		it.PutLabel("profile_interactions", utils.Label{Value: strconv.Itoa(profile.InteractionCount), Source: "content"})
	}
	return items
}

// SimilarItems 返回与目标物品加权余弦相似的 TopN 物品（item-item）。
// 未知物品记 warning 并返回空列表。
func (f *Filter) SimilarItems(ctx context.Context, itemID string, excludedIDs []string) []*core.Item {
	if f.extractor == nil {
		f.logger().Warn("content: similar_items called before fit")
		return nil
	}
	vecs := f.extractor.Vectors(itemID)
	if vecs == nil {
		f.logger().Warn("content: unknown item", "item_id", itemID)
		return nil
	}

	excluded := make(map[string]bool, len(excludedIDs)+1)
	excluded[itemID] = true
	for _, id := range excludedIDs {
		excluded[id] = true
	}

	query := func(kind string) []float64 { return vectorOfKind(vecs, kind) }
	return f.rankBySimilarity(query, excluded)
}

// rankBySimilarity 是 RecommendForUser 与 SimilarItems 共用的打分/排序主体。
func (f *Filter) rankBySimilarity(query func(kind string) []float64, excluded map[string]bool) []*core.Item {
	weights := f.Config.featureWeights()
	minSim := f.Config.minSimilarity()

	type scored struct {
		id    string
		score float64
	}
	candidates := make([]scored, 0)

	for _, candID := range f.extractor.ItemIDs() {
		if excluded[candID] {
			continue
		}
		candVecs := f.extractor.Vectors(candID)
		if candVecs == nil {
			continue
		}

		var sum, weightSum float64
		for _, kind := range []string{kindText, kindCategorical, kindNumerical, kindTags} {
			w, ok := weights[kind]
			if !ok || w <= 0 {
				continue
			}
			qv := query(kind)
			cv := vectorOfKind(candVecs, kind)
			// 双方都有信号该类型才参与，缺失类型不计入分母
			if !hasSignal(qv) || !hasSignal(cv) {
				continue
			}
			sum += feature.Cosine(qv, cv) * w
			weightSum += w
		}
		if weightSum == 0 {
			continue
		}
		score := sum / weightSum
		if score < minSim {
			continue
		}
		candidates = append(candidates, scored{id: candID, score: score})
	}

	// 降序稳定排序；同分按 fit 顺序保持自然稳定
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	topN := f.Config.topN()
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}

	// 置信度：特征致密度 × (分数 / 本批最高分)
	// 稀疏特征物品即便内容匹配分高，置信度也要低于致密物品
	var batchMax float64
	for _, c := range candidates {
		if c.score > batchMax {
			batchMax = c.score
		}
	}

	out := make([]*core.Item, 0, len(candidates))
	for _, c := range candidates {
		it := core.NewItem(c.id)
		it.Score = c.score
		if batchMax > 0 {
			it.Confidence = f.extractor.Density(c.id) * (c.score / batchMax)
		}
		it.ClampScores()
		it.AddSource(SourceName)
		if raw, ok := f.extractor.Raw(c.id); ok {
			if cate, ok := raw.Fields["category"].(string); ok && cate != "" {
				it.PutLabel("category", utils.Label{Value: cate, Source: "content"})
			}
		}
		out = append(out, it)
	}
	return out
}

func vectorOfKind(v *feature.ItemVectors, kind string) []float64 {
	switch kind {
	case kindText:
		return v.Text
	case kindCategorical:
		return v.Categorical
	case kindNumerical:
		return v.Numerical
	case kindTags:
		return v.Tags
	}
	return nil
}

func hasSignal(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return true
		}
	}
	return false
}
