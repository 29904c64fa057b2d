package crosscat

import (
	"sort"

	"github.com/rushteam/recfusion/core"
)

// ProductRanker 在一个类别内给产品排序打分，供跨类目建议取 TopK。
// 默认实现按交互热度排序；接入真实相关性信号时替换此接口。
type ProductRanker interface {
	// Rank 返回按分数降序的产品列表，分数在 [0,1]。
	Rank(category string, products []Product) []*core.Item
}

// PopularityRanker 按交互次数排序，分数为相对类别内最热产品的归一化热度。
// 没有任何交互数据时全部产品得保底分 0.5，按 ID 字典序稳定输出。
type PopularityRanker struct {
	// popularity 物品 ID -> 交互次数
	popularity map[string]int
}

var _ ProductRanker = (*PopularityRanker)(nil)

// NewPopularityRanker 从交互记录统计热度。
func NewPopularityRanker(interactions []Interaction) *PopularityRanker {
	pop := make(map[string]int)
	for _, ev := range interactions {
		pop[ev.ItemID]++
	}
	return &PopularityRanker{popularity: pop}
}

func (r *PopularityRanker) Rank(category string, products []Product) []*core.Item {
	maxPop := 0
	for _, p := range products {
		if c := r.popularity[p.ID]; c > maxPop {
			maxPop = c
		}
	}

	items := make([]*core.Item, 0, len(products))
	for _, p := range products {
		score := 0.5
		if maxPop > 0 {
			score = float64(r.popularity[p.ID]) / float64(maxPop)
		}
		it := core.NewItem(p.ID)
		it.Score = score
		it.Meta["name"] = p.Name
		it.Meta["category"] = p.Category
		items = append(items, it)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	return items
}
