package core

import (
	"strings"

	"github.com/rushteam/recfusion/pkg/utils"
)

// Item 是推荐链路中的统一承载结构：分数、置信度、特征、元信息、标签。
// Score 用于排序决策，Confidence 表示该分数的可信程度，二者均落在 [0,1]。
// Labels 用于解释与策略驱动；"source" 标签累积所有贡献过分数的算法来源。
type Item struct {
	ID         string
	Score      float64
	Confidence float64
	Features   map[string]float64
	Meta       map[string]any
	Labels     map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:         id,
		Score:      0,
		Confidence: 0,
		Features:   make(map[string]float64),
		Meta:       make(map[string]any),
		Labels:     make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// AddSource 记录一个贡献来源（如 "collaborative" / "content_based"），
// 同名来源不重复累积。
func (it *Item) AddSource(source string) {
	if source == "" {
		return
	}
	for _, s := range it.Sources() {
		if s == source {
			return
		}
	}
	it.PutLabel("source", utils.Label{Value: source, Source: "recommend"})
}

// Sources 返回贡献过该物品分数的算法来源列表（按写入顺序）。
func (it *Item) Sources() []string {
	if it.Labels == nil {
		return nil
	}
	lbl, ok := it.Labels["source"]
	if !ok || lbl.Value == "" {
		return nil
	}
	return strings.Split(lbl.Value, "|")
}

// Category 读取物品类别，优先 label["category"]，其次 meta["category"]。
func (it *Item) Category() string {
	if it.Labels != nil {
		if lbl, ok := it.Labels["category"]; ok && lbl.Value != "" {
			return lbl.Value
		}
	}
	if it.Meta != nil {
		if v, ok := it.Meta["category"]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

// Clone 返回 Item 的浅层语义拷贝（map 重新分配，值本身不深拷贝）。
// 融合策略在改写分数前拷贝，避免污染上游候选。
func (it *Item) Clone() *Item {
	cp := &Item{
		ID:         it.ID,
		Score:      it.Score,
		Confidence: it.Confidence,
		Features:   make(map[string]float64, len(it.Features)),
		Meta:       make(map[string]any, len(it.Meta)),
		Labels:     make(map[string]utils.Label, len(it.Labels)),
	}
	for k, v := range it.Features {
		cp.Features[k] = v
	}
	for k, v := range it.Meta {
		cp.Meta[k] = v
	}
	for k, v := range it.Labels {
		cp.Labels[k] = v
	}
	return cp
}

// ClampScores 将 Score 与 Confidence 裁剪到 [0,1]。
// 融合/调整后的收口操作，保证对外输出恒在合法区间。
func (it *Item) ClampScores() {
	if it.Score < 0 {
		it.Score = 0
	} else if it.Score > 1 {
		it.Score = 1
	}
	if it.Confidence < 0 {
		it.Confidence = 0
	} else if it.Confidence > 1 {
		it.Confidence = 1
	}
}
