// Package crosscat 实现跨类目建议：从共现、购买序列、语义相似与人工配置
// 四路证据中学习类别间关联，再据此为单个产品推荐其他类别的互补产品。
package crosscat

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/rushteam/recfusion/core"
	"github.com/rushteam/recfusion/pkg/utils"
)

// Product 跨类目引擎的产品输入。
type Product struct {
	ID          string
	Name        string
	Category    string
	Description string
}

// Interaction 单条交互事件。序列发现只用 Type 为 purchase 的事件。
type Interaction struct {
	UserID    string
	ItemID    string
	Type      string // view / cart / purchase ...
	Timestamp time.Time
}

// Config 跨类目引擎配置，零值字段回退到默认值。
type Config struct {
	// MinRelationshipStrength 低于此强度的关系在 fit 后被剪除，默认 0.1
	MinRelationshipStrength float64

	// MinEvidenceCount 证据数下限，默认 2
	MinEvidenceCount int

	// MinSemanticSimilarity 语义发现的相似度下限，默认 0.3
	MinSemanticSimilarity float64

	// MaxSuggestionsPerCategory 每个相关类别最多取几个产品，默认 3
	MaxSuggestionsPerCategory int
}

func (c Config) minStrength() float64 {
	if c.MinRelationshipStrength > 0 {
		return c.MinRelationshipStrength
	}
	return 0.1
}

func (c Config) minEvidence() int {
	if c.MinEvidenceCount > 0 {
		return c.MinEvidenceCount
	}
	return 2
}

func (c Config) minSemantic() float64 {
	if c.MinSemanticSimilarity > 0 {
		return c.MinSemanticSimilarity
	}
	return 0.3
}

func (c Config) maxPerCategory() int {
	if c.MaxSuggestionsPerCategory > 0 {
		return c.MaxSuggestionsPerCategory
	}
	return 3
}

// Engine 跨类目建议引擎。Fit 一次构建，之后并发只读。
type Engine struct {
	Config Config

	// Semantic 语义相似来源，默认 TokenJaccardScorer
	Semantic SemanticScorer

	// Ranker 类别内产品排序，默认按交互热度
	Ranker ProductRanker

	// Logger 可选；为 nil 时使用 slog.Default()
	Logger *slog.Logger

	relationships map[string]*CategoryRelationship
	products      map[string]Product
	byCategory    map[string][]Product
	fitted        bool
}

func NewEngine(cfg Config) *Engine {
	return &Engine{Config: cfg}
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Fit 依次跑四轮关系发现，最后统一剪枝：
//  1. 协同共现：同一用户交互过的类别两两计数
//  2. 语义相似：类别产品文本的相似度（可插拔）
//  3. 购买序列：相邻购买间的类别跳转，权重 1.5 倍；
//     与第 1 轮撞上同一对时合并为 hybrid，强度取均值
//  4. 人工配置：直接覆盖已有关系
func (e *Engine) Fit(products []Product, interactions []Interaction, manual []*CategoryRelationship) error {
	if len(products) == 0 {
		return core.NewDomainError(core.ModuleCrossCat, core.ErrorCodeInvalidInput, "no products")
	}
	if e.Semantic == nil {
		e.Semantic = TokenJaccardScorer{}
	}
	if e.Ranker == nil {
		e.Ranker = NewPopularityRanker(interactions)
	}

	e.products = make(map[string]Product, len(products))
	e.byCategory = make(map[string][]Product)
	for _, p := range products {
		e.products[p.ID] = p
		if p.Category != "" {
			e.byCategory[p.Category] = append(e.byCategory[p.Category], p)
		}
	}
	e.relationships = make(map[string]*CategoryRelationship)

	userCats, catPop := e.categoryStats(interactions)
	e.discoverCollaborative(userCats, catPop)
	e.discoverSemantic()
	e.discoverSequence(interactions, catPop)
	e.applyManual(manual)
	e.prune()

	e.fitted = true
	return nil
}

// Fitted 返回引擎是否已完成 fit。
func (e *Engine) Fitted() bool { return e.fitted }

// Relationships 返回剪枝后的全部关系，按 (source, target) 字典序。
func (e *Engine) Relationships() []*CategoryRelationship {
	keys := make([]string, 0, len(e.relationships))
	for k := range e.relationships {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*CategoryRelationship, 0, len(keys))
	for _, k := range keys {
		out = append(out, e.relationships[k])
	}
	return out
}

// RelationshipBetween 查询一对类别的关系，顺序无关。
func (e *Engine) RelationshipBetween(a, b string) (*CategoryRelationship, bool) {
	_, _, key := pairKey(a, b)
	rel, ok := e.relationships[key]
	return rel, ok
}

// categoryStats 统计 用户->交互类别集合 与 每类别的用户数（population）。
func (e *Engine) categoryStats(interactions []Interaction) (map[string]map[string]bool, map[string]int) {
	userCats := make(map[string]map[string]bool)
	for _, ev := range interactions {
		p, ok := e.products[ev.ItemID]
		if !ok || p.Category == "" {
			continue
		}
		if userCats[ev.UserID] == nil {
			userCats[ev.UserID] = make(map[string]bool)
		}
		userCats[ev.UserID][p.Category] = true
	}
	catPop := make(map[string]int)
	for _, cats := range userCats {
		for c := range cats {
			catPop[c]++
		}
	}
	return userCats, catPop
}

// pairStrength 共现/序列两轮共用的强度公式。
func pairStrength(count int, popA, popB int, weight float64) float64 {
	if popA == 0 || popB == 0 {
		return 0
	}
	s := float64(count) / math.Sqrt(float64(popA)*float64(popB)) * 5 * weight
	return math.Min(s, 1.0)
}

func (e *Engine) discoverCollaborative(userCats map[string]map[string]bool, catPop map[string]int) {
	pairCount := make(map[string]int)
	for _, cats := range userCats {
		list := sortedKeys(cats)
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				_, _, key := pairKey(list[i], list[j])
				pairCount[key]++
			}
		}
	}
	now := time.Now()
	for key, count := range pairCount {
		src, tgt, _ := splitKey(key)
		strength := pairStrength(count, catPop[src], catPop[tgt], 1.0)
		if strength == 0 {
			continue
		}
		e.relationships[key] = &CategoryRelationship{
			Source:        src,
			Target:        tgt,
			Strength:      strength,
			EvidenceCount: count,
			Method:        MethodCollaborative,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}
}

// discoverSemantic 只补充前序轮次没发现的类别对。
func (e *Engine) discoverSemantic() {
	cats := sortedCategoryNames(e.byCategory)
	texts := make(map[string][]string, len(cats))
	for _, c := range cats {
		for _, p := range e.byCategory[c] {
			texts[c] = append(texts[c], p.Name, p.Description)
		}
	}
	now := time.Now()
	for i := 0; i < len(cats); i++ {
		for j := i + 1; j < len(cats); j++ {
			src, tgt, key := pairKey(cats[i], cats[j])
			if _, exists := e.relationships[key]; exists {
				continue
			}
			sim := e.Semantic.Similarity(texts[src], texts[tgt])
			if sim < e.Config.minSemantic() {
				continue
			}
			evidence := len(e.byCategory[src])
			if n := len(e.byCategory[tgt]); n < evidence {
				evidence = n
			}
			e.relationships[key] = &CategoryRelationship{
				Source:        src,
				Target:        tgt,
				Strength:      math.Min(sim, 1.0),
				EvidenceCount: evidence,
				Method:        MethodSemantic,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
		}
	}
}

func (e *Engine) discoverSequence(interactions []Interaction, catPop map[string]int) {
	// 每用户按时间排序的购买类别序列
	purchases := make(map[string][]Interaction)
	for _, ev := range interactions {
		if ev.Type != "purchase" {
			continue
		}
		if p, ok := e.products[ev.ItemID]; !ok || p.Category == "" {
			continue
		}
		purchases[ev.UserID] = append(purchases[ev.UserID], ev)
	}

	pairCount := make(map[string]int)
	for _, evs := range purchases {
		sort.SliceStable(evs, func(i, j int) bool {
			return evs[i].Timestamp.Before(evs[j].Timestamp)
		})
		for i := 1; i < len(evs); i++ {
			prev := e.products[evs[i-1].ItemID].Category
			cur := e.products[evs[i].ItemID].Category
			if prev == cur {
				continue
			}
			_, _, key := pairKey(prev, cur)
			pairCount[key]++
		}
	}

	now := time.Now()
	for key, count := range pairCount {
		src, tgt, _ := splitKey(key)
		strength := pairStrength(count, catPop[src], catPop[tgt], 1.5)
		if strength == 0 {
			continue
		}
		if existing, ok := e.relationships[key]; ok && existing.Method == MethodCollaborative {
			existing.Strength = (existing.Strength + strength) / 2
			existing.EvidenceCount += count
			existing.Method = MethodHybrid
			existing.UpdatedAt = now
			continue
		}
		e.relationships[key] = &CategoryRelationship{
			Source:        src,
			Target:        tgt,
			Strength:      strength,
			EvidenceCount: count,
			Method:        MethodSequence,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}
}

// applyManual 人工配置总是覆盖已有关系。
func (e *Engine) applyManual(manual []*CategoryRelationship) {
	now := time.Now()
	for _, m := range manual {
		src, tgt, key := pairKey(m.Source, m.Target)
		evidence := m.EvidenceCount
		if evidence == 0 {
			evidence = e.Config.minEvidence()
		}
		if existing, ok := e.relationships[key]; ok {
			existing.Strength = math.Min(m.Strength, 1.0)
			existing.Method = MethodManual
			existing.EvidenceCount = evidence
			existing.UpdatedAt = now
			continue
		}
		e.relationships[key] = &CategoryRelationship{
			Source:        src,
			Target:        tgt,
			Strength:      math.Min(m.Strength, 1.0),
			EvidenceCount: evidence,
			Method:        MethodManual,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}
}

func (e *Engine) prune() {
	minS, minE := e.Config.minStrength(), e.Config.minEvidence()
	for key, rel := range e.relationships {
		if rel.Strength < minS || rel.EvidenceCount < minE {
			delete(e.relationships, key)
		}
	}
}

// SuggestCrossCategoryProducts 为一个产品推荐其他类别的产品。
// 相关类别按关系强度降序，每类取 TopK，最终按
// 类别强度 × 产品分 降序给出 maxTotal 条。
//
// 未 fit、产品未知或无相关类别时记 warning 并返回空列表。
func (e *Engine) SuggestCrossCategoryProducts(productID string, maxTotal int) []*core.Item {
	if !e.fitted {
		e.logger().Warn("crosscat: engine not fitted")
		return nil
	}
	p, ok := e.products[productID]
	if !ok || p.Category == "" {
		e.logger().Warn("crosscat: unknown product or missing category", "product_id", productID)
		return nil
	}
	if maxTotal <= 0 {
		maxTotal = 10
	}

	related := e.relatedCategories(p.Category)
	if len(related) == 0 {
		e.logger().Warn("crosscat: no related categories", "category", p.Category)
		return nil
	}

	perCat := e.Config.maxPerCategory()
	var out []*core.Item
	for _, rel := range related {
		target := rel.Other(p.Category)
		ranked := e.Ranker.Rank(target, e.byCategory[target])
		if len(ranked) > perCat {
			ranked = ranked[:perCat]
		}
		for _, it := range ranked {
			if it.ID == productID {
				continue
			}
			final := it.Clone()
			final.Score = rel.Strength * it.Score
			final.Confidence = rel.Strength
			final.AddSource("cross_category")
			final.PutLabel("crosscat_method", utils.Label{Value: string(rel.Method), Source: "crosscat"})
			final.PutLabel("category", utils.Label{Value: target, Source: "crosscat"})
			final.ClampScores()
			out = append(out, final)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > maxTotal {
		out = out[:maxTotal]
	}
	return out
}

// relatedCategories 返回与 category 相关的关系，按强度降序。
func (e *Engine) relatedCategories(category string) []*CategoryRelationship {
	var out []*CategoryRelationship
	for _, rel := range e.relationships {
		if rel.Other(category) != "" {
			out = append(out, rel)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Strength != out[j].Strength {
			return out[i].Strength > out[j].Strength
		}
		return out[i].Other(category) < out[j].Other(category)
	})
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedCategoryNames(m map[string][]Product) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func splitKey(key string) (source, target, k string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '|' {
			return key[:i], key[i+1:], key
		}
	}
	return key, "", key
}
