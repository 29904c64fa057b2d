package content

import (
	"github.com/rushteam/recfusion/feature"
)

// Profile 是单个用户的内容偏好画像：各特征空间上交互加权平均向量。
//
// 生命周期：Fit 时从交互数据一次性构建，之后只读；
// 新交互要生效必须整体重新 Fit（不做增量更新）。
type Profile struct {
	UserID string

	Text        []float64
	Categorical []float64
	Numerical   []float64
	Tags        []float64

	// InteractionCount 构建画像时使用的交互条数
	InteractionCount int
}

// buildProfile 从用户交互（itemID -> 强度权重）构建加权平均画像。
// 只累计 extractor 认识的物品；一个物品都不认识时返回 nil。
func buildProfile(userID string, interactions map[string]float64, ex *feature.Extractor) *Profile {
	p := &Profile{UserID: userID}
	var totalWeight float64

	for itemID, weight := range interactions {
		vecs := ex.Vectors(itemID)
		if vecs == nil || weight <= 0 {
			continue
		}
		p.Text = feature.Accumulate(p.Text, vecs.Text, weight)
		p.Categorical = feature.Accumulate(p.Categorical, vecs.Categorical, weight)
		p.Numerical = feature.Accumulate(p.Numerical, vecs.Numerical, weight)
		p.Tags = feature.Accumulate(p.Tags, vecs.Tags, weight)
		totalWeight += weight
		p.InteractionCount++
	}

	if p.InteractionCount == 0 || totalWeight == 0 {
		return nil
	}

	inv := 1.0 / totalWeight
	feature.Scale(p.Text, inv)
	feature.Scale(p.Categorical, inv)
	feature.Scale(p.Numerical, inv)
	feature.Scale(p.Tags, inv)
	return p
}

// vectorOf 按特征类型取画像向量。
func (p *Profile) vectorOf(kind string) []float64 {
	switch kind {
	case kindText:
		return p.Text
	case kindCategorical:
		return p.Categorical
	case kindNumerical:
		return p.Numerical
	case kindTags:
		return p.Tags
	}
	return nil
}
