package recall

import (
	"context"
	"math"
	"sort"

	"github.com/rushteam/recfusion/core"
	"github.com/rushteam/recfusion/pkg/utils"
)

// ItemBasedCF 是基于物品的协同过滤（Item-based Collaborative Filtering, Item-CF）。
//
// 核心思想："被同一批用户喜欢的物品，相互相似"
//
// 算法流程：
//  1. Fit 时构建物品 → 用户倒排表
//  2. 推荐时对用户历史物品找相似物品（共同用户的评分向量余弦）
//  3. 加权累加：用户对历史物品的强度 × 物品相似度
//
// 工程特征：
//   - 实时性：好（倒排表常驻内存，查表计算）
//   - 稳定性：高，工业级召回的"常青树"
//   - 冷启动：差（交互太少的用户由混合层切到内容召回兜底）
type ItemBasedCF struct {
	// TopKSimilarItems 每个历史物品扩散的 TopK 个相似物品，默认 100
	TopKSimilarItems int

	// TopKItems 最终返回的 TopK 个物品，默认 20
	TopKItems int

	// SimilarityMetric 相似度度量方式：cosine / pearson，默认 cosine
	SimilarityMetric string

	// MinCommonUsers 两个物品至少需要的共同交互用户数，默认 2
	MinCommonUsers int

	// fit 后只读
	userItems map[string]map[string]float64 // userID -> itemID -> 强度
	itemUsers map[string]map[string]float64 // itemID -> userID -> 强度
	itemIDs   []string                      // 排序后的物品全集，保证确定性
}

func (r *ItemBasedCF) Name() string { return "cf.item" }

// Fit 装载交互矩阵并构建倒排表。
func (r *ItemBasedCF) Fit(interactions map[string]map[string]float64) error {
	if len(interactions) == 0 {
		return core.NewDomainError(core.ModuleHybrid, core.ErrorCodeInvalidInput, "recall: empty interactions")
	}

	userItems := make(map[string]map[string]float64, len(interactions))
	itemUsers := make(map[string]map[string]float64)
	for userID, items := range interactions {
		cp := make(map[string]float64, len(items))
		for itemID, score := range items {
			cp[itemID] = score
			if itemUsers[itemID] == nil {
				itemUsers[itemID] = make(map[string]float64)
			}
			itemUsers[itemID][userID] = score
		}
		userItems[userID] = cp
	}

	itemIDs := make([]string, 0, len(itemUsers))
	for itemID := range itemUsers {
		itemIDs = append(itemIDs, itemID)
	}
	sort.Strings(itemIDs)

	r.userItems = userItems
	r.itemUsers = itemUsers
	r.itemIDs = itemIDs
	return nil
}

// Recommend 为用户生成协同过滤候选。
// 没有交互历史的用户返回空列表（冷启动由上层策略处理）。
func (r *ItemBasedCF) Recommend(ctx context.Context, userID string, excludedIDs []string) ([]*core.Item, error) {
	if r.userItems == nil {
		return nil, core.NewDomainError(core.ModuleHybrid, core.ErrorCodeNotFitted, "recall: model not fitted")
	}

	history := r.userItems[userID]
	if len(history) == 0 {
		return nil, nil
	}

	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}

	topKSimilar := r.TopKSimilarItems
	if topKSimilar <= 0 {
		topKSimilar = 100
	}
	minCommon := r.MinCommonUsers
	if minCommon <= 0 {
		minCommon = 2
	}
	metric := r.SimilarityMetric
	if metric == "" {
		metric = "cosine"
	}

	type itemSimilarity struct {
		itemID     string
		similarity float64
	}

	// 每个历史物品扩散到相似物品，加权累加
	itemScores := make(map[string]float64)
	evidence := make(map[string]int) // 多少条历史为该候选贡献了分数

	historyIDs := make([]string, 0, len(history))
	for id := range history {
		historyIDs = append(historyIDs, id)
	}
	sort.Strings(historyIDs)

	for _, historyItemID := range historyIDs {
		historyScore := history[historyItemID]
		historyUsers := r.itemUsers[historyItemID]
		if len(historyUsers) == 0 {
			continue
		}

		similarities := make([]itemSimilarity, 0)
		for _, candidateID := range r.itemIDs {
			if _, interacted := history[candidateID]; interacted {
				continue
			}
			if excluded[candidateID] {
				continue
			}
			candidateUsers := r.itemUsers[candidateID]

			// 收集共同用户的评分向量
			historyScores := make([]float64, 0)
			candidateScores := make([]float64, 0)
			for uid, hs := range historyUsers {
				if cs, ok := candidateUsers[uid]; ok {
					historyScores = append(historyScores, hs)
					candidateScores = append(candidateScores, cs)
				}
			}
			if len(historyScores) < minCommon {
				continue
			}

			var sim float64
			switch metric {
			case "pearson":
				sim = pearsonCorrelation(historyScores, candidateScores)
			default:
				sim = cosineSimilarity(historyScores, candidateScores)
			}
			if sim > 0 {
				similarities = append(similarities, itemSimilarity{itemID: candidateID, similarity: sim})
			}
		}

		sort.SliceStable(similarities, func(i, j int) bool {
			return similarities[i].similarity > similarities[j].similarity
		})
		if len(similarities) > topKSimilar {
			similarities = similarities[:topKSimilar]
		}

		for _, sim := range similarities {
			itemScores[sim.itemID] += historyScore * sim.similarity
			evidence[sim.itemID]++
		}
	}

	if len(itemScores) == 0 {
		return nil, nil
	}

	type scoredItem struct {
		itemID string
		score  float64
	}
	scoredItems := make([]scoredItem, 0, len(itemScores))
	var maxScore float64
	for itemID, score := range itemScores {
		scoredItems = append(scoredItems, scoredItem{itemID: itemID, score: score})
		if score > maxScore {
			maxScore = score
		}
	}
	sort.SliceStable(scoredItems, func(i, j int) bool {
		if scoredItems[i].score != scoredItems[j].score {
			return scoredItems[i].score > scoredItems[j].score
		}
		return scoredItems[i].itemID < scoredItems[j].itemID
	})

	topK := r.TopKItems
	if topK <= 0 {
		topK = 20
	}
	if len(scoredItems) > topK {
		scoredItems = scoredItems[:topK]
	}

	out := make([]*core.Item, 0, len(scoredItems))
	for _, s := range scoredItems {
		it := core.NewItem(s.itemID)
		if maxScore > 0 {
			it.Score = s.score / maxScore
		}
		// 置信度：该候选由多少条用户历史支撑（上限 1.0）
		it.Confidence = math.Min(1.0, float64(evidence[s.itemID])/float64(len(history)))
		it.ClampScores()
		it.AddSource(SourceName)
		it.PutLabel("cf_metric", utils.Label{Value: metric, Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

var _ CollaborativeModel = (*ItemBasedCF)(nil)

// cosineSimilarity 计算两个等长评分向量的余弦相似度。
func cosineSimilarity(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0
	}
	var dot, normX, normY float64
	for i := range x {
		dot += x[i] * y[i]
		normX += x[i] * x[i]
		normY += y[i] * y[i]
	}
	if normX == 0 || normY == 0 {
		return 0
	}
	return dot / (math.Sqrt(normX) * math.Sqrt(normY))
}

// pearsonCorrelation 计算皮尔逊相关系数。
func pearsonCorrelation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0
	}

	var meanX, meanY float64
	for i := range x {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= float64(len(x))
	meanY /= float64(len(y))

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}
